package services

import (
	"context"
	"time"

	"agrireport-backend-go/internal/metrics"
	"agrireport-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NotificationInput is the content of a notification before it is addressed.
type NotificationInput struct {
	Type        string
	Title       string
	Message     string
	ReferenceID *string
}

// Notifier writes notifications after the triggering change has been
// committed. Failures are logged and counted, never returned.
type Notifier struct {
	DB  *sqlx.DB
	Hub *Hub
	Log *zap.Logger
}

func NewNotifier(db *sqlx.DB, hub *Hub, log *zap.Logger) *Notifier {
	return &Notifier{DB: db, Hub: hub, Log: log.Named("notifier")}
}

// NotifyUser writes one notification addressed to userID.
func (n *Notifier) NotifyUser(ctx context.Context, userID string, in NotificationInput) {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	note := models.Notification{
		ID:          uuid.NewString(),
		UserID:      &userID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		ReferenceID: in.ReferenceID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := n.DB.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, type, title, message, reference_id, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
`, note.ID, userID, note.Type, note.Title, note.Message, note.ReferenceID, note.CreatedAt)
	if err != nil {
		n.fail(err, zap.String("user_id", userID), zap.String("type", in.Type))
		return
	}
	metrics.NotificationsWritten.WithLabelValues("user").Inc()
	n.Hub.SendToUser(userID, note)
}

// NotifyAdmins writes one notification per active administrator in a single
// statement and pushes each written row to its recipient.
func (n *Notifier) NotifyAdmins(ctx context.Context, in NotificationInput) {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	now := time.Now().UTC()
	var written []struct {
		ID     string `db:"id"`
		UserID string `db:"user_id"`
	}
	err := n.DB.SelectContext(ctx, &written, `
INSERT INTO notifications (id, user_id, type, title, message, reference_id, is_read, created_at)
SELECT gen_random_uuid()::text, u.id, $1, $2, $3, $4, FALSE, $5
FROM users u
WHERE u.role = 'admin' AND u.is_active = TRUE
RETURNING id, user_id
`, in.Type, in.Title, in.Message, in.ReferenceID, now)
	if err != nil {
		n.fail(err, zap.String("audience", models.RoleAdmin), zap.String("type", in.Type))
		return
	}
	metrics.NotificationsWritten.WithLabelValues("admins").Add(float64(len(written)))
	for _, row := range written {
		userID := row.UserID
		n.Hub.SendToUser(userID, models.Notification{
			ID:          row.ID,
			UserID:      &userID,
			Type:        in.Type,
			Title:       in.Title,
			Message:     in.Message,
			ReferenceID: in.ReferenceID,
			CreatedAt:   now,
		})
	}
}

// detach keeps the write alive when the client goes away mid-request.
func (n *Notifier) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}

func (n *Notifier) fail(err error, fields ...zap.Field) {
	metrics.NotificationFailures.Inc()
	n.Log.Warn("notification dropped", append(fields, zap.Error(err))...)
}
