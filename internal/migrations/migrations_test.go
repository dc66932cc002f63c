package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, ok := parseVersion("V12__farms.sql")
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = parseVersion("farms.sql")
	assert.False(t, ok)
	_, ok = parseVersion("Vx__farms.sql")
	assert.False(t, ok)
}

func TestListMigrations_SortsNumerically(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/V10__later.sql": {Data: []byte("SELECT 10")},
		"sql/V2__second.sql": {Data: []byte("SELECT 2")},
		"sql/V1__first.sql":  {Data: []byte("SELECT 1")},
		"sql/README.md":      {Data: []byte("ignored")},
	}
	migs, err := listMigrations(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, "V1__first.sql", migs[0].Name)
	assert.Equal(t, "V2__second.sql", migs[1].Name)
	assert.Equal(t, "V10__later.sql", migs[2].Name)
}

func TestApplyFS_SkipsAppliedMigrations(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "pgx")

	fsys := fstest.MapFS{
		"sql/V1__first.sql":  {Data: []byte("CREATE TABLE a (id int)")},
		"sql/V2__second.sql": {Data: []byte("CREATE TABLE b (id int)")},
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT name FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("V1__first.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs(2, "V2__second.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, ApplyFS(db, fsys, "sql"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsAreNamedCorrectly(t *testing.T) {
	migs, err := listMigrations(embedded, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)
}
