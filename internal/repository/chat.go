package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Chat repository methods
// CreateChatMessage persists a message and assigns its server-side id
// and timestamp.
func (r *PostgresRepository) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, trip_id, sender_id, content, attachment_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.TripID, msg.SenderID, msg.Content, msg.AttachmentURL, msg.CreatedAt)

	return err
}

func (r *PostgresRepository) GetChatMessages(ctx context.Context, tripID string) ([]models.ChatMessage, error) {
	query := `
		SELECT m.id, m.trip_id, m.sender_id, u.name AS sender_name,
			m.content, m.attachment_url, m.created_at
		FROM chat_messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.trip_id = $1
		ORDER BY m.created_at, m.id
	`

	var messages []models.ChatMessage
	err := r.db.SelectContext(ctx, &messages, query, tripID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
