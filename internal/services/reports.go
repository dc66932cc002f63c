package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"agrireport-backend-go/internal/db"
	"agrireport-backend-go/internal/metrics"
	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SubmitReportRequest struct {
	Type      string          `json:"type" validate:"required,report_type"`
	FarmID    *string         `json:"farm_id" validate:"omitempty,uuid"`
	Details   json.RawMessage `json:"details"`
	Barangay  *string         `json:"barangay" validate:"omitempty,max=100"`
	Latitude  *float64        `json:"latitude" validate:"omitempty,region_lat"`
	Longitude *float64        `json:"longitude" validate:"omitempty,region_lon"`
	Photo     *string         `json:"photo"`
}

type StatusRequest struct {
	Status     string  `json:"status" validate:"required,report_status"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=2000"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

type ReportFilter struct {
	UserID   string
	Status   string
	Type     string
	Barangay string
	Page     int
	Limit    int
}

// Photo is a decoded report photo.
type Photo struct {
	Data []byte
	Mime string
}

type ReportService struct {
	DB            *sqlx.DB
	Validator     *Validator
	Notifier      *Notifier
	Activity      *ActivityLog
	MaxPhotoBytes int64
}

const reportColumns = `r.id, r.user_id, r.farm_id, r.type, r.status, r.details, r.barangay, r.latitude, r.longitude,
  (r.photo IS NOT NULL) AS has_photo, r.admin_notes, r.verified_by, r.verified_at, r.created_at, r.updated_at`

const reportRowSelect = `SELECT ` + reportColumns + `,
  u.username AS reporter_username,
  NULLIF(trim(concat_ws(' ', f.first_name, f.last_name)), '') AS reporter_name,
  f.rsbsa_id
FROM reports r
JOIN users u ON u.id = r.user_id
LEFT JOIN farmers f ON f.user_id = r.user_id`

// DecodePhoto accepts a data URL or bare base64 and enforces limit on the
// decoded size. Only images are accepted.
func DecodePhoto(raw string, limit int64) (Photo, error) {
	raw = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(raw)
	declared := ""
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 || !strings.HasSuffix(raw[:comma], ";base64") {
			return Photo{}, ErrValidation(map[string]string{"photo": "must be a base64 data URL"})
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(raw[:comma], "data:"), ";base64")
		raw = raw[comma+1:]
	}
	// Reject before allocating when even the lower bound is over the cap.
	if int64(base64.StdEncoding.DecodedLen(len(raw)))-2 > limit {
		return Photo{}, ErrPayloadTooLarge(fmt.Sprintf("Photo exceeds %d bytes", limit))
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "=")); err != nil {
			return Photo{}, ErrValidation(map[string]string{"photo": "is not valid base64"})
		}
	}
	if int64(len(data)) > limit {
		return Photo{}, ErrPayloadTooLarge(fmt.Sprintf("Photo exceeds %d bytes", limit))
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		if strings.HasPrefix(declared, "image/") && len(data) > 0 {
			mime = declared
		} else {
			return Photo{}, ErrValidation(map[string]string{"photo": "must be an image"})
		}
	}
	return Photo{Data: data, Mime: mime}, nil
}

// Submit validates and decodes the report before any database work, then
// inserts it in a transaction and notifies administrators after commit.
func (s *ReportService) Submit(ctx context.Context, actor Claims, req SubmitReportRequest, meta RequestMeta) (models.Report, error) {
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Barangay = trimmed(req.Barangay)
	req.FarmID = trimmed(req.FarmID)
	err := s.Validator.Validate(&req)
	extra := map[string]string{}
	details := bytes.TrimSpace(req.Details)
	if len(details) == 0 || bytes.Equal(details, []byte("null")) {
		details = []byte("{}")
	}
	var obj map[string]interface{}
	if json.Unmarshal(details, &obj) != nil {
		extra["details"] = "must be a JSON object"
	}
	if err := Merge(err, extra); err != nil {
		return models.Report{}, err
	}

	var photo *Photo
	if req.Photo != nil && strings.TrimSpace(*req.Photo) != "" {
		decoded, err := DecodePhoto(*req.Photo, s.MaxPhotoBytes)
		if err != nil {
			return models.Report{}, err
		}
		photo = &decoded
	}

	var report models.Report
	err = db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if req.FarmID != nil {
			var owned bool
			if err := tx.GetContext(ctx, &owned, `
SELECT EXISTS (
  SELECT 1 FROM farms f JOIN farmers fr ON fr.id = f.farmer_id
  WHERE f.id = $1 AND fr.user_id = $2
)`, *req.FarmID, actor.UserID); err != nil {
				return err
			}
			if !owned {
				return ErrValidation(map[string]string{"farm_id": "is not one of your farms"})
			}
		}
		var data []byte
		var mime *string
		if photo != nil {
			data = photo.Data
			mime = &photo.Mime
		}
		return tx.GetContext(ctx, &report, `
INSERT INTO reports AS r (id, user_id, farm_id, type, status, details, barangay, latitude, longitude, photo, photo_mime)
VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8, $9, $10)
RETURNING `+reportColumns, uuid.NewString(), actor.UserID, req.FarmID, req.Type, string(details),
			req.Barangay, req.Latitude, req.Longitude, data, mime)
	})
	if err != nil {
		if _, ok := AsServiceError(err); ok {
			return models.Report{}, err
		}
		return models.Report{}, WrapError(err, "insert report")
	}

	metrics.ReportsSubmitted.WithLabelValues(report.Type).Inc()
	reporter := actor.Name
	if reporter == "" {
		reporter = "A farmer"
	}
	s.Notifier.NotifyAdmins(ctx, NotificationInput{
		Type:        "new_report",
		Title:       "New " + report.Type + " report",
		Message:     fmt.Sprintf("%s submitted a %s report", reporter, report.Type),
		ReferenceID: &report.ID,
	})
	s.Activity.Record(ctx, actor.UserID, ActionReportSubmit, meta, map[string]interface{}{"report_id": report.ID, "type": report.Type})
	return report, nil
}

// List pages through reports newest first. A non-empty UserID restricts the
// listing to that reporter.
func (s *ReportService) List(ctx context.Context, filter ReportFilter) (models.Page[models.ReportRow], error) {
	filter.Page, filter.Limit = Paging(filter.Page, filter.Limit, DefaultPageSize, MaxPageSize)
	where, args, err := reportWhere(filter)
	if err != nil {
		return models.Page[models.ReportRow]{}, err
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT count(*) FROM reports r WHERE `+where, args...); err != nil {
		return models.Page[models.ReportRow]{}, err
	}
	items := []models.ReportRow{}
	query := fmt.Sprintf("%s\nWHERE %s\nORDER BY r.created_at DESC\nLIMIT $%d OFFSET $%d", reportRowSelect, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	if err := s.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return models.Page[models.ReportRow]{}, err
	}
	return models.NewPage(items, filter.Page, filter.Limit, total), nil
}

// All returns every report matching filter, ignoring paging. Used for export.
func (s *ReportService) All(ctx context.Context, filter ReportFilter) ([]models.ReportRow, error) {
	where, args, err := reportWhere(filter)
	if err != nil {
		return nil, err
	}
	items := []models.ReportRow{}
	err = s.DB.SelectContext(ctx, &items, reportRowSelect+"\nWHERE "+where+"\nORDER BY r.created_at DESC", args...)
	return items, err
}

func reportWhere(filter ReportFilter) (string, []interface{}, error) {
	fields := map[string]string{}
	if filter.Status != "" && !contains(ReportStatuses, filter.Status) {
		fields["status"] = "must be one of " + strings.Join(ReportStatuses, ", ")
	}
	if filter.Type != "" && !contains(ReportTypes, filter.Type) {
		fields["type"] = "must be one of " + strings.Join(ReportTypes, ", ")
	}
	if len(fields) > 0 {
		return "", nil, ErrValidation(fields)
	}
	where := []string{"1=1"}
	args := []interface{}{}
	add := func(cond string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("r.user_id = $%d", filter.UserID)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("r.type = $%d", filter.Type)
	}
	if filter.Barangay != "" {
		add("lower(r.barangay) = lower($%d)", filter.Barangay)
	}
	return strings.Join(where, " AND "), args, nil
}

// Get returns a report to its reporter or to an administrator.
func (s *ReportService) Get(ctx context.Context, actor Claims, id string) (models.ReportRow, error) {
	var row models.ReportRow
	err := s.DB.GetContext(ctx, &row, reportRowSelect+"\nWHERE r.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReportRow{}, ErrNotFound("Report not found")
	}
	if err != nil {
		return models.ReportRow{}, err
	}
	if actor.Role != models.RoleAdmin && row.UserID != actor.UserID {
		return models.ReportRow{}, ErrForbidden("You cannot view this report")
	}
	return row, nil
}

func (s *ReportService) Photo(ctx context.Context, actor Claims, id string) (Photo, error) {
	var row struct {
		UserID string  `db:"user_id"`
		Photo  []byte  `db:"photo"`
		Mime   *string `db:"photo_mime"`
	}
	err := s.DB.GetContext(ctx, &row, `SELECT user_id, photo, photo_mime FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Photo{}, ErrNotFound("Report not found")
	}
	if err != nil {
		return Photo{}, err
	}
	if actor.Role != models.RoleAdmin && row.UserID != actor.UserID {
		return Photo{}, ErrForbidden("You cannot view this report")
	}
	if len(row.Photo) == 0 {
		return Photo{}, ErrNotFound("Report has no photo")
	}
	mime := "application/octet-stream"
	if row.Mime != nil {
		mime = *row.Mime
	}
	return Photo{Data: row.Photo, Mime: mime}, nil
}

// Transition sets a report's status. Any status may follow any other;
// re-applying a status refreshes the notes and notifies the reporter again.
func (s *ReportService) Transition(ctx context.Context, actor Claims, id string, req StatusRequest, meta RequestMeta) (models.Report, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.Validator.Validate(&req); err != nil {
		return models.Report{}, err
	}
	var report models.Report
	err := s.DB.GetContext(ctx, &report, `
UPDATE reports AS r
SET status = $1, admin_notes = COALESCE($2, r.admin_notes), verified_by = $3, verified_at = now(), updated_at = now()
WHERE r.id = $4
RETURNING `+reportColumns, req.Status, trimmed(req.AdminNotes), actor.UserID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, ErrNotFound("Report not found")
	}
	if err != nil {
		return models.Report{}, WrapError(err, "update report status")
	}

	metrics.ReportTransitions.WithLabelValues(report.Status).Inc()
	message := fmt.Sprintf("Your %s report is now %s", report.Type, report.Status)
	if report.AdminNotes != nil {
		message += ": " + *report.AdminNotes
	}
	s.Notifier.NotifyUser(ctx, report.UserID, NotificationInput{
		Type:        "report_status",
		Title:       "Report " + report.Status,
		Message:     message,
		ReferenceID: &report.ID,
	})
	s.Activity.Record(ctx, actor.UserID, ActionReportStatus, meta, map[string]interface{}{"report_id": report.ID, "status": report.Status})
	return report, nil
}

func (s *ReportService) authorizeReport(ctx context.Context, actor Claims, id string) (string, error) {
	var owner string
	err := s.DB.GetContext(ctx, &owner, `SELECT user_id FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound("Report not found")
	}
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleAdmin && owner != actor.UserID {
		return "", ErrForbidden("You cannot view this report")
	}
	return owner, nil
}

func (s *ReportService) Comments(ctx context.Context, actor Claims, reportID string) ([]models.ReportComment, error) {
	if _, err := s.authorizeReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	items := []models.ReportComment{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT c.id, c.report_id, c.user_id, u.username, c.comment, c.is_admin, c.created_at
FROM report_comments c
JOIN users u ON u.id = c.user_id
WHERE c.report_id = $1
ORDER BY c.created_at
`, reportID)
	return items, err
}

// AddComment appends to a report thread. Administrator comments notify the
// reporter; reporter comments notify administrators.
func (s *ReportService) AddComment(ctx context.Context, actor Claims, reportID string, req CommentRequest, meta RequestMeta) (models.ReportComment, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.Validator.Validate(&req); err != nil {
		return models.ReportComment{}, err
	}
	owner, err := s.authorizeReport(ctx, actor, reportID)
	if err != nil {
		return models.ReportComment{}, err
	}
	isAdmin := actor.Role == models.RoleAdmin
	var comment models.ReportComment
	err = s.DB.GetContext(ctx, &comment, `
WITH c AS (
  INSERT INTO report_comments (id, report_id, user_id, comment, is_admin)
  VALUES ($1, $2, $3, $4, $5)
  RETURNING id, report_id, user_id, comment, is_admin, created_at
)
SELECT c.id, c.report_id, c.user_id, u.username, c.comment, c.is_admin, c.created_at
FROM c JOIN users u ON u.id = c.user_id
`, uuid.NewString(), reportID, actor.UserID, req.Comment, isAdmin)
	if err != nil {
		return models.ReportComment{}, WrapError(err, "insert comment")
	}

	note := NotificationInput{
		Type:        "report_comment",
		Title:       "New comment on report",
		Message:     truncate(comment.Comment, 140),
		ReferenceID: &reportID,
	}
	if isAdmin {
		if owner != actor.UserID {
			s.Notifier.NotifyUser(ctx, owner, note)
		}
	} else {
		s.Notifier.NotifyAdmins(ctx, note)
	}
	s.Activity.Record(ctx, actor.UserID, ActionReportComment, meta, map[string]interface{}{"report_id": reportID})
	return comment, nil
}

type ReportStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByType      map[string]int `json:"by_type"`
	Farmers     int            `json:"farmers"`
	Farms       int            `json:"farms"`
	ActiveUsers int            `json:"active_users"`
}

// Stats summarizes reports and registrations for the admin dashboard.
func (s *ReportService) Stats(ctx context.Context) (ReportStats, error) {
	stats := ReportStats{
		ByStatus: map[string]int{},
		ByType:   map[string]int{},
	}
	for _, status := range ReportStatuses {
		stats.ByStatus[status] = 0
	}
	for _, kind := range ReportTypes {
		stats.ByType[kind] = 0
	}
	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	var byStatus, byType []bucket
	if err := s.DB.SelectContext(ctx, &byStatus, `SELECT status AS key, count(*) AS count FROM reports GROUP BY status`); err != nil {
		return ReportStats{}, err
	}
	if err := s.DB.SelectContext(ctx, &byType, `SELECT type AS key, count(*) AS count FROM reports GROUP BY type`); err != nil {
		return ReportStats{}, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
		stats.Total += b.Count
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}
	var counts struct {
		Farmers     int `db:"farmers"`
		Farms       int `db:"farms"`
		ActiveUsers int `db:"active_users"`
	}
	if err := s.DB.GetContext(ctx, &counts, `
SELECT (SELECT count(*) FROM farmers) AS farmers,
       (SELECT count(*) FROM farms) AS farms,
       (SELECT count(*) FROM users WHERE is_active = TRUE) AS active_users
`); err != nil {
		return ReportStats{}, err
	}
	stats.Farmers = counts.Farmers
	stats.Farms = counts.Farms
	stats.ActiveUsers = counts.ActiveUsers
	return stats, nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
