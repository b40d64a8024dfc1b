package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// notifyBestEffort appends one notification row per user as a single
// batch. Delivery is a best-effort sidecar of the triggering action:
// failures are logged and swallowed so the primary write still returns
// to the caller. Never used on the ratio-update path, which needs the
// rows inside its own transaction.
func (s *DefaultService) notifyBestEffort(ctx context.Context, userIDs []string, tripID, kind, message string) {
	if len(userIDs) == 0 {
		return
	}

	notifications := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, models.Notification{
			UserID:  id,
			TripID:  sql.NullString{String: tripID, Valid: true},
			Kind:    kind,
			Message: message,
		})
	}

	if err := s.repo.CreateNotifications(ctx, notifications); err != nil {
		slog.Error("notification fan-out failed",
			"trip", tripID, "kind", kind, "recipients", len(userIDs), "error", err)
	}
}

// Notification read surface
func (s *DefaultService) ListNotifications(ctx context.Context, userID string) (*models.NotificationListResponse, error) {
	notifications, err := s.repo.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	resp := &models.NotificationListResponse{
		Status:        "success",
		Notifications: make([]models.NotificationResponse, 0, len(notifications)),
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, models.NewNotificationResponse(n))
	}

	return resp, nil
}

func (s *DefaultService) CountUnreadNotifications(ctx context.Context, userID string) (*models.NotificationCountResponse, error) {
	count, err := s.repo.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting notifications: %w", err)
	}

	return &models.NotificationCountResponse{
		Status: "success",
		Unread: count,
	}, nil
}

// MarkNotificationRead is idempotent; Updated reports whether this call
// changed the row, so a repeat call is distinguishable from the first.
func (s *DefaultService) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*models.MarkReadResponse, error) {
	notification, err := s.repo.GetNotification(ctx, userID, notificationID)
	if err != nil {
		return nil, fmt.Errorf("error getting notification: %w", err)
	}
	if notification == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}

	updated, err := s.repo.MarkNotificationRead(ctx, userID, notificationID)
	if err != nil {
		return nil, fmt.Errorf("error marking notification read: %w", err)
	}

	return &models.MarkReadResponse{
		Status:  "success",
		Updated: updated,
	}, nil
}

func (s *DefaultService) MarkAllNotificationsRead(ctx context.Context, userID string) (*models.MarkAllReadResponse, error) {
	updated, err := s.repo.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error marking notifications read: %w", err)
	}

	return &models.MarkAllReadResponse{
		Status:  "success",
		Updated: updated,
	}, nil
}

// DeleteNotification tolerates a missing row: deleting a nonexistent id
// is not an error for the second caller, Deleted just reads false.
func (s *DefaultService) DeleteNotification(ctx context.Context, userID, notificationID string) (*models.DeleteNotificationResponse, error) {
	deleted, err := s.repo.DeleteNotification(ctx, userID, notificationID)
	if err != nil {
		return nil, fmt.Errorf("error deleting notification: %w", err)
	}

	return &models.DeleteNotificationResponse{
		Status:  "success",
		Deleted: deleted,
	}, nil
}

// Preference surface
func (s *DefaultService) GetNotificationPreferences(ctx context.Context, userID string) (*models.PreferencesResponse, error) {
	prefs, err := s.repo.GetNotificationPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting preferences: %w", err)
	}

	// Kinds without a stored row default to enabled.
	byKind := make(map[string]bool, len(models.NotificationKinds))
	for _, kind := range models.NotificationKinds {
		byKind[kind] = true
	}
	for _, p := range prefs {
		byKind[p.Kind] = p.Enabled
	}

	return &models.PreferencesResponse{
		Status:      "success",
		Preferences: byKind,
	}, nil
}

func (s *DefaultService) UpdateNotificationPreferences(
	ctx context.Context,
	userID string,
	req models.UpdatePreferencesRequest,
) (*models.PreferencesResponse, error) {
	known := make(map[string]bool, len(models.NotificationKinds))
	for _, kind := range models.NotificationKinds {
		known[kind] = true
	}

	for kind := range req.Preferences {
		if !known[kind] {
			return nil, fmt.Errorf("unknown notification kind %q: %w", kind, ErrInvalidInput)
		}
	}

	for kind, enabled := range req.Preferences {
		pref := &models.NotificationPreference{
			UserID:  userID,
			Kind:    kind,
			Enabled: enabled,
		}
		if err := s.repo.SetNotificationPreference(ctx, pref); err != nil {
			return nil, fmt.Errorf("error setting preference: %w", err)
		}
	}

	return s.GetNotificationPreferences(ctx, userID)
}
