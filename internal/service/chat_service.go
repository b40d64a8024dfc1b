package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Chat operations
func (s *DefaultService) GetChatHistory(ctx context.Context, userID, tripID string) (*models.ChatHistoryResponse, error) {
	if _, err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}

	if _, err := s.requireMember(ctx, tripID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.GetChatMessages(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting chat messages: %w", err)
	}

	resp := &models.ChatHistoryResponse{
		Status:   "success",
		TripID:   tripID,
		Messages: make([]models.ChatMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, models.NewChatMessageResponse(m))
	}

	return resp, nil
}

// SaveChatMessage persists a message and returns it with the
// server-assigned id, timestamp and sender name. The relay calls this
// before broadcasting; nothing unpersisted is ever relayed.
func (s *DefaultService) SaveChatMessage(
	ctx context.Context,
	senderID string,
	tripID string,
	content string,
	attachmentURL *string,
) (*models.ChatMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("empty message: %w", ErrInvalidInput)
	}

	sender, err := s.repo.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("error getting sender: %w", err)
	}
	if sender == nil {
		return nil, fmt.Errorf("user %s: %w", senderID, ErrNotFound)
	}

	msg := &models.ChatMessage{
		TripID:     tripID,
		SenderID:   senderID,
		SenderName: sender.Name,
		Content:    content,
	}
	if attachmentURL != nil {
		msg.AttachmentURL = sql.NullString{String: *attachmentURL, Valid: true}
	}

	if err := s.repo.CreateChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("error persisting chat message: %w", err)
	}

	return msg, nil
}

// IsTripMember answers the relay's join-time membership check.
func (s *DefaultService) IsTripMember(ctx context.Context, tripID, userID string) (bool, error) {
	member, err := s.repo.GetTripMember(ctx, tripID, userID)
	if err != nil {
		return false, fmt.Errorf("error checking trip membership: %w", err)
	}
	return member != nil, nil
}
