package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	ActionLogin          = "login"
	ActionRegister       = "register"
	ActionReportSubmit   = "report_submit"
	ActionReportStatus   = "report_status"
	ActionReportComment  = "report_comment"
	ActionProfileUpdate  = "profile_update"
	ActionFarmAdd        = "farm_add"
	ActionFarmUpdate     = "farm_update"
	ActionFarmDelete     = "farm_delete"
	ActionUserProvision  = "user_provision"
	ActionUserToggle     = "user_toggle"
	ActionUserDelete     = "user_delete"
	ActionReferenceWrite = "reference_write"
)

// RequestMeta carries the client details recorded next to an activity.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type ActivityLog struct {
	DB  *sqlx.DB
	Log *zap.Logger
}

func NewActivityLog(db *sqlx.DB, log *zap.Logger) *ActivityLog {
	return &ActivityLog{DB: db, Log: log.Named("activity")}
}

// Record appends an audit entry. Failures are logged only.
func (a *ActivityLog) Record(ctx context.Context, userID string, action string, meta RequestMeta, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err = a.DB.ExecContext(ctx, `
INSERT INTO activity_logs (id, user_id, action, metadata, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
`, uuid.NewString(), nullIfEmpty(userID), action, string(payload), nullIfEmpty(meta.IP), nullIfEmpty(meta.UserAgent))
	if err != nil {
		a.Log.Warn("activity not recorded", zap.String("action", action), zap.String("user_id", userID), zap.Error(err))
	}
}

type ActivityFilter struct {
	UserID string
	Action string
	Page   int
	Limit  int
}

func (a *ActivityLog) List(ctx context.Context, filter ActivityFilter) (models.Page[models.ActivityLog], error) {
	filter.Page, filter.Limit = Paging(filter.Page, filter.Limit, MaxPageSize, MaxPageSize)
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where = append(where, fmt.Sprintf("a.action = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := a.DB.GetContext(ctx, &total, "SELECT count(*) FROM activity_logs a WHERE "+clause, args...); err != nil {
		return models.Page[models.ActivityLog]{}, err
	}
	items := []models.ActivityLog{}
	query := fmt.Sprintf(`
SELECT a.id, a.user_id, u.username, a.action, a.metadata, a.ip_address, a.user_agent, a.created_at
FROM activity_logs a
LEFT JOIN users u ON u.id = a.user_id
WHERE %s
ORDER BY a.created_at DESC
LIMIT $%d OFFSET $%d
`, clause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	if err := a.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return models.Page[models.ActivityLog]{}, err
	}
	return models.NewPage(items, filter.Page, filter.Limit, total), nil
}

func nullIfEmpty(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	// MaxPage keeps (page-1)*limit far from integer overflow.
	MaxPage = 100000
)

// Paging clamps a requested page and limit to sane bounds.
func Paging(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
