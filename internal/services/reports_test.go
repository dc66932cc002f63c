package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngOf(size int) []byte {
	data := make([]byte, size)
	copy(data, pngHeader)
	return data
}

var reportCols = []string{
	"id", "user_id", "farm_id", "type", "status", "details", "barangay", "latitude", "longitude",
	"has_photo", "admin_notes", "verified_by", "verified_at", "created_at", "updated_at",
}

func newReportService(db *sqlx.DB, maxPhoto int64) *ReportService {
	return &ReportService{
		DB:            db,
		Validator:     NewValidator(testRegion),
		Notifier:      NewNotifier(db, nil, testLogger()),
		Activity:      NewActivityLog(db, testLogger()),
		MaxPhotoBytes: maxPhoto,
	}
}

func TestDecodePhoto(t *testing.T) {
	raw := pngOf(64)
	encoded := base64.StdEncoding.EncodeToString(raw)

	photo, err := DecodePhoto("data:image/png;base64,"+encoded, 64)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.Mime)
	assert.True(t, bytes.Equal(raw, photo.Data))

	photo, err = DecodePhoto(encoded, 1024)
	require.NoError(t, err)
	assert.Len(t, photo.Data, 64)

	_, err = DecodePhoto(encoded, 63)
	requireCode(t, err, CodePayloadTooLarge)

	_, err = DecodePhoto("%%%not-base64%%%", 1024)
	requireCode(t, err, CodeValidation)

	_, err = DecodePhoto(base64.StdEncoding.EncodeToString([]byte("just some text, not an image")), 1024)
	requireCode(t, err, CodeValidation)
}

func TestSubmit_OversizedPhotoWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)

	photo := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngOf(2048))
	_, err := svc.Submit(context.Background(), farmerActor(), SubmitReportRequest{
		Type:    "pest",
		Details: json.RawMessage(`{"pest":"armyworm"}`),
		Photo:   &photo,
	}, RequestMeta{})
	serr := requireCode(t, err, CodePayloadTooLarge)
	assert.Equal(t, 400, serr.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_InsertsAndNotifiesAdmins(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO reports`).
		WithArgs(sqlmock.AnyArg(), "user-farmer", nil, "pest", `{"pest":"armyworm"}`, "Poblacion", 6.2, 124.7, sqlmock.AnyArg(), "image/png").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"report-1", "user-farmer", nil, "pest", "pending", []byte(`{"pest":"armyworm"}`), "Poblacion", 6.2, 124.7,
			true, nil, nil, nil, now, now))
	mock.ExpectCommit()
	mock.ExpectQuery(`INSERT INTO notifications .* SELECT gen_random_uuid\(\)::text, u.id .* RETURNING id, user_id`).
		WithArgs("new_report", "New pest report", "Juan Dela Cruz submitted a pest report", "report-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow("n-1", "user-admin").AddRow("n-2", "user-admin-2"))
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	photo := base64.StdEncoding.EncodeToString(pngOf(128))
	report, err := svc.Submit(context.Background(), farmerActor(), SubmitReportRequest{
		Type:      " PEST ",
		Details:   json.RawMessage(`{"pest":"armyworm"}`),
		Barangay:  strPtr("Poblacion"),
		Latitude:  floatPtr(6.2),
		Longitude: floatPtr(124.7),
		Photo:     &photo,
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, "pending", report.Status)
	assert.True(t, report.HasPhoto)
	assert.JSONEq(t, `{"pest":"armyworm"}`, string(report.Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_RejectsForeignFarm(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)
	farmID := "6f1c1e0e-8b1a-4d35-9a57-0d6b2b0b9a11"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(farmID, "user-farmer").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), farmerActor(), SubmitReportRequest{Type: "flood", FarmID: &farmID}, RequestMeta{})
	serr := requireCode(t, err, CodeValidation)
	assert.Contains(t, serr.Fields, "farm_id")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_DetailsMustBeObject(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := newReportService(db, 1024).Submit(context.Background(), farmerActor(), SubmitReportRequest{
		Type:    "typhoon",
		Details: json.RawMessage(`[1,2,3]`),
	}, RequestMeta{})
	serr := requireCode(t, err, CodeValidation)
	assert.Contains(t, serr.Fields, "type")
	assert.Contains(t, serr.Fields, "details")
}

func TestTransition_NotifiesReporter(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)
	now := time.Now()

	mock.ExpectQuery(`UPDATE reports AS r`).
		WithArgs("verified", "Confirmed by field technician", "user-admin", "report-1").
		WillReturnRows(sqlmock.NewRows(reportCols).AddRow(
			"report-1", "user-farmer", nil, "pest", "verified", []byte(`{}`), nil, nil, nil,
			false, "Confirmed by field technician", "user-admin", now, now, now))
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(sqlmock.AnyArg(), "user-farmer", "report_status", "Report verified", sqlmock.AnyArg(), "report-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	report, err := svc.Transition(context.Background(), adminActor(), "report-1", StatusRequest{
		Status:     "Verified",
		AdminNotes: strPtr("Confirmed by field technician"),
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "verified", report.Status)
	require.NotNil(t, report.VerifiedBy)
	assert.Equal(t, "user-admin", *report.VerifiedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_UnknownStatusAndReport(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)

	_, err := svc.Transition(context.Background(), adminActor(), "report-1", StatusRequest{Status: "archived"}, RequestMeta{})
	requireCode(t, err, CodeValidation)

	mock.ExpectQuery(`UPDATE reports AS r`).WillReturnRows(sqlmock.NewRows(reportCols))
	_, err = svc.Transition(context.Background(), adminActor(), "missing", StatusRequest{Status: "resolved"}, RequestMeta{})
	requireCode(t, err, CodeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_OtherFarmersReportIsForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)
	now := time.Now()
	cols := append(append([]string{}, reportCols...), "reporter_username", "reporter_name", "rsbsa_id")

	mock.ExpectQuery(`FROM reports r`).WithArgs("report-9").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"report-9", "user-other", nil, "drought", "pending", []byte(`{}`), nil, nil, nil,
			false, nil, nil, nil, now, now, "maria", "Maria Santos", "12-63-01-002"))

	_, err := svc.Get(context.Background(), farmerActor(), "report-9")
	requireCode(t, err, CodeForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FiltersByReporter(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)
	cols := append(append([]string{}, reportCols...), "reporter_username", "reporter_name", "rsbsa_id")

	mock.ExpectQuery(`SELECT count\(\*\) FROM reports r WHERE 1=1 AND r.user_id = \$1 AND r.status = \$2`).
		WithArgs("user-farmer", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`ORDER BY r.created_at DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("user-farmer", "pending", 10, 10).
		WillReturnRows(sqlmock.NewRows(cols))

	page, err := svc.List(context.Background(), ReportFilter{UserID: "user-farmer", Status: "pending", Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddComment_FarmerNotifiesAdmins(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)

	mock.ExpectQuery(`SELECT user_id FROM reports`).WithArgs("report-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-farmer"))
	mock.ExpectQuery(`INSERT INTO report_comments`).
		WithArgs(sqlmock.AnyArg(), "report-1", "user-farmer", "Still spreading", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "user_id", "username", "comment", "is_admin", "created_at"}).
			AddRow("c-1", "report-1", "user-farmer", "juan_dc", "Still spreading", false, time.Now()))
	mock.ExpectQuery(`INSERT INTO notifications .* FROM users u`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow("n-1", "user-admin"))
	mock.ExpectExec(`INSERT INTO activity_logs`).WillReturnResult(sqlmock.NewResult(0, 1))

	comment, err := svc.AddComment(context.Background(), farmerActor(), "report-1", CommentRequest{Comment: " Still spreading "}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "juan_dc", comment.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newReportService(db, 1024)

	mock.ExpectQuery(`GROUP BY status`).WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
		AddRow("pending", 3).AddRow("verified", 2))
	mock.ExpectQuery(`GROUP BY type`).WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
		AddRow("pest", 4).AddRow("flood", 1))
	mock.ExpectQuery(`AS active_users`).WillReturnRows(sqlmock.NewRows([]string{"farmers", "farms", "active_users"}).
		AddRow(7, 9, 8))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 0, stats.ByStatus["rejected"])
	assert.Equal(t, 4, stats.ByType["pest"])
	assert.Equal(t, 0, stats.ByType["mix"])
	assert.Equal(t, 7, stats.Farmers)
	require.NoError(t, mock.ExpectationsWereMet())
}
