package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFarmerService(db *sqlx.DB) *FarmerService {
	return &FarmerService{
		DB:        db,
		Validator: NewValidator(testRegion),
		Region:    testRegion,
		Activity:  NewActivityLog(db, testLogger()),
	}
}

func TestUpdateFarm_ForeignFarmIsForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	mock.ExpectQuery(`SELECT fr.user_id`).WithArgs("farm-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-other"))

	_, err := svc.UpdateFarm(context.Background(), farmerActor(), "farm-1", map[string]interface{}{"variety": "RC 222"}, RequestMeta{})
	serr := requireCode(t, err, CodeForbidden)
	assert.Equal(t, 403, serr.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFarm_MissingFarm(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	mock.ExpectQuery(`SELECT fr.user_id`).WithArgs("farm-404").WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := svc.UpdateFarm(context.Background(), farmerActor(), "farm-404", map[string]interface{}{"variety": "RC 222"}, RequestMeta{})
	requireCode(t, err, CodeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFarm_TouchesOnlySuppliedColumn(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT fr.user_id`).WithArgs("farm-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-farmer"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE farms SET farm_size_hectares = $1, updated_at = now() WHERE id = $2`)).
		WithArgs(3.2, "farm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM farms f WHERE f.id = \$1`).WithArgs("farm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "farmer_id", "farm_size_hectares", "variety", "created_at", "updated_at"}).
			AddRow("farm-1", "farmer-1", 3.2, "RC 160", now, now))

	farm, err := svc.UpdateFarm(context.Background(), farmerActor(), "farm-1", map[string]interface{}{
		"farm_size_hectares": 3.2,
		"farmer_id":          "farmer-2",
	}, RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, farm.FarmSizeHectares)
	assert.Equal(t, 3.2, *farm.FarmSizeHectares)
	assert.Equal(t, "RC 160", *farm.Variety)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFarm_ForeignFarmIsForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	mock.ExpectQuery(`SELECT fr.user_id`).WithArgs("farm-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-other"))

	err := svc.DeleteFarm(context.Background(), farmerActor(), "farm-1", RequestMeta{})
	requireCode(t, err, CodeForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFarm_RequiresFarmerProfile(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	mock.ExpectQuery(`FROM farmers fr WHERE fr.user_id = \$1`).WithArgs("user-admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.AddFarm(context.Background(), adminActor(), FarmInput{}, RequestMeta{})
	requireCode(t, err, CodeForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFarm_ValidatesCoordinates(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	_, err := svc.AddFarm(context.Background(), farmerActor(), FarmInput{Latitude: floatPtr(4.0), AmountOfCover: floatPtr(-1)}, RequestMeta{})
	serr := requireCode(t, err, CodeValidation)
	assert.Contains(t, serr.Fields, "latitude")
	assert.Contains(t, serr.Fields, "amount_of_cover")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_NoFarmerRow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE farmers SET civil_status = $1, updated_at = now() WHERE user_id = $2`)).
		WithArgs("married", "user-admin").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.UpdateProfile(context.Background(), adminActor(), map[string]interface{}{"civil_status": "married"}, RequestMeta{})
	requireCode(t, err, CodeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMe_AdminWithoutFarmer(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newFarmerService(db)
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("user-admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "is_active", "last_login_at", "created_at", "updated_at"}).
			AddRow("user-admin", "admin", nil, "hash", "admin", true, nil, now, now))
	mock.ExpectQuery(`FROM farmers fr WHERE fr.user_id = \$1`).WithArgs("user-admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	me, err := svc.Me(context.Background(), "user-admin")
	require.NoError(t, err)
	assert.Nil(t, me.Farmer)
	assert.Equal(t, "admin", me.User.Name)
	assert.Equal(t, 0, me.FarmCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
