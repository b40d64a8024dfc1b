package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Notification repository methods
// createNotificationsTx appends a batch of notification rows with a
// single multi-row INSERT inside an existing transaction.
func (r *PostgresRepository) createNotificationsTx(ctx context.Context, tx *sql.Tx, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(notifications))
	args := make([]interface{}, 0, len(notifications)*6)

	now := time.Now().UTC()
	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}

		base := len(args)
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, n.ID, n.UserID, n.TripID, n.Kind, n.Message, n.CreatedAt)
	}

	query := `INSERT INTO notifications (id, user_id, trip_id, kind, message, created_at) VALUES ` +
		strings.Join(placeholders, ", ")

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateNotifications appends one row per affected user as a single
// batch insert.
func (r *PostgresRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	err = r.createNotificationsTx(ctx, tx, notifications)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// notificationFilter excludes kinds the user has disabled. Filtering
// happens at read time so re-enabling a preference resurfaces rows
// generated while it was off.
const notificationFilter = `
	NOT EXISTS (
		SELECT 1 FROM notification_preferences p
		WHERE p.user_id = n.user_id AND p.kind = n.kind AND NOT p.enabled
	)
`

func (r *PostgresRepository) GetUserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	query := `
		SELECT n.* FROM notifications n
		WHERE n.user_id = $1 AND ` + notificationFilter + `
		ORDER BY n.created_at DESC, n.id
	`

	var notifications []models.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications n
		WHERE n.user_id = $1 AND NOT n.read AND ` + notificationFilter

	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PostgresRepository) GetNotification(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	query := `SELECT * FROM notifications WHERE id = $1 AND user_id = $2`

	var notification models.Notification
	err := r.db.GetContext(ctx, &notification, query, notificationID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Notification not found
		}
		return nil, err
	}

	return &notification, nil
}

// MarkNotificationRead flips the read flag and reports whether the call
// had any effect, so a repeat call is distinguishable from the first.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2 AND NOT read`

	res, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	query := `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func (r *PostgresRepository) DeleteNotification(ctx context.Context, userID, notificationID string) (bool, error) {
	query := `DELETE FROM notifications WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Preference repository methods
func (r *PostgresRepository) GetNotificationPreferences(ctx context.Context, userID string) ([]models.NotificationPreference, error) {
	query := `SELECT * FROM notification_preferences WHERE user_id = $1`

	var prefs []models.NotificationPreference
	err := r.db.SelectContext(ctx, &prefs, query, userID)
	if err != nil {
		return nil, err
	}

	return prefs, nil
}

func (r *PostgresRepository) SetNotificationPreference(ctx context.Context, pref *models.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (user_id, kind, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, kind) DO UPDATE SET enabled = EXCLUDED.enabled
	`

	_, err := r.db.ExecContext(ctx, query, pref.UserID, pref.Kind, pref.Enabled)
	return err
}
