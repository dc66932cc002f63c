package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "barangays")
	assert.False(t, ok)

	cache.Set(ctx, "barangays", []byte(`[{"id":"b-1"}]`))
	value, ok := cache.Get(ctx, "barangays")
	require.True(t, ok)
	assert.Equal(t, `[{"id":"b-1"}]`, string(value))
}

func TestRedisCache_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewRedisCache(client, time.Hour, testLogger())
	ctx := context.Background()

	cache.Set(ctx, "pest-types", []byte(`[]`))
	stored, err := mr.Get("agrireport:ref:pest-types")
	require.NoError(t, err)
	assert.Equal(t, `[]`, stored)

	value, ok := cache.Get(ctx, "pest-types")
	require.True(t, ok)
	assert.Equal(t, `[]`, string(value))

	mr.FastForward(time.Hour + time.Second)
	_, ok = cache.Get(ctx, "pest-types")
	assert.False(t, ok)
}

func TestNewReferenceCache_FallsBackToMemory(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, NewReferenceCache("", time.Hour, testLogger()))
	assert.IsType(t, &MemoryCache{}, NewReferenceCache("://bad", time.Hour, testLogger()))

	mr := miniredis.RunT(t)
	assert.IsType(t, &RedisCache{}, NewReferenceCache("redis://"+mr.Addr()+"/0", time.Hour, testLogger()))
}

func TestReference_BarangaysServedFromCache(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &ReferenceService{DB: db, Cache: NewMemoryCache(time.Hour), Validator: NewValidator(testRegion), Activity: NewActivityLog(db, testLogger())}

	mock.ExpectQuery(`SELECT id, name, municipality FROM barangays`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "municipality"}).
			AddRow("b-1", "Poblacion", "Koronadal").
			AddRow("b-2", "Zone III", nil))

	first, err := svc.Barangays(context.Background())
	require.NoError(t, err)
	second, err := svc.Barangays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReference_AdminWriteDoesNotInvalidate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &ReferenceService{DB: db, Cache: NewMemoryCache(time.Hour), Validator: NewValidator(testRegion), Activity: NewActivityLog(db, testLogger())}

	mock.ExpectQuery(`FROM crop_types`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).AddRow("c-1", "Rice", nil))
	mock.ExpectExec(`INSERT INTO crop_types`).WithArgs(sqlmock.AnyArg(), "Corn", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.Lookup(context.Background(), LookupCrops)
	require.NoError(t, err)
	_, err = svc.CreateLookup(context.Background(), adminActor(), LookupCrops, LookupRequest{Name: " Corn "}, RequestMeta{})
	require.NoError(t, err)

	items, err := svc.Lookup(context.Background(), LookupCrops)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.Lookup(context.Background(), LookupKind("weeds"))
	requireCode(t, err, CodeNotFound)
}
