package services

import (
	"context"
	"fmt"
	"time"

	"agrireport-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

type NotificationFilter struct {
	UnreadOnly bool
	Since      *time.Time
	Page       int
	Limit      int
}

// NotificationService reads and updates the caller's notifications.
// Administrators also see broadcast rows with no recipient.
type NotificationService struct {
	DB *sqlx.DB
}

// recipient returns the ownership condition for actor with its argument
// bound at position n.
func recipient(actor Claims, n int) string {
	if actor.Role == models.RoleAdmin {
		return fmt.Sprintf("(user_id = $%d OR user_id IS NULL)", n)
	}
	return fmt.Sprintf("user_id = $%d", n)
}

func (s *NotificationService) List(ctx context.Context, actor Claims, filter NotificationFilter) (models.Page[models.Notification], error) {
	filter.Page, filter.Limit = Paging(filter.Page, filter.Limit, DefaultPageSize, MaxPageSize)
	where := recipient(actor, 1)
	args := []interface{}{actor.UserID}
	if filter.UnreadOnly {
		where += " AND is_read = FALSE"
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		where += fmt.Sprintf(" AND created_at > $%d", len(args))
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, `SELECT count(*) FROM notifications WHERE `+where, args...); err != nil {
		return models.Page[models.Notification]{}, err
	}
	items := []models.Notification{}
	query := fmt.Sprintf(`
SELECT id, user_id, type, title, message, reference_id, is_read, created_at
FROM notifications
WHERE %s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d
`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	if err := s.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return models.Page[models.Notification]{}, err
	}
	return models.NewPage(items, filter.Page, filter.Limit, total), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Claims, since *time.Time) (int, error) {
	where := recipient(actor, 1) + " AND is_read = FALSE"
	args := []interface{}{actor.UserID}
	if since != nil {
		args = append(args, *since)
		where += " AND created_at > $2"
	}
	var count int
	err := s.DB.GetContext(ctx, &count, `SELECT count(*) FROM notifications WHERE `+where, args...)
	return count, err
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Claims, id string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND `+recipient(actor, 2), id, actor.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Claims) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE AND `+recipient(actor, 1), actor.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *NotificationService) Delete(ctx context.Context, actor Claims, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND `+recipient(actor, 2), id, actor.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Notification not found")
	}
	return nil
}

// ClearRead deletes the caller's read notifications.
func (s *NotificationService) ClearRead(ctx context.Context, actor Claims) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM notifications WHERE is_read = TRUE AND `+recipient(actor, 1), actor.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
