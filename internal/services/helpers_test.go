package services

import (
	"testing"

	"agrireport-backend-go/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRegion = config.Region{MinLat: 5.5, MaxLat: 7.0, MinLon: 124.0, MaxLon: 125.5}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func requireCode(t *testing.T, err error, code string) ServiceError {
	t.Helper()
	require.Error(t, err)
	serr, ok := AsServiceError(err)
	require.True(t, ok, "expected a ServiceError, got %v", err)
	require.Equal(t, code, serr.Code)
	return serr
}

func farmerActor() Claims {
	return Claims{UserID: "user-farmer", Role: "farmer", Name: "Juan Dela Cruz"}
}

func adminActor() Claims {
	return Claims{UserID: "user-admin", Role: "admin", Name: "admin"}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func testLogger() *zap.Logger { return zap.NewNop() }
