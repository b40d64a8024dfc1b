package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/krishmajumdar12/Leaps-sub000/internal/repository"
)

// Sentinel errors translate persistence outcomes into the API's error
// taxonomy; handlers map them to status codes with errors.Is.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("operation not permitted")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Trip operations
	CreateTrip(ctx context.Context, userID string, req models.CreateTripRequest) (*models.TripResponse, error)
	GetTrip(ctx context.Context, userID, tripID string) (*models.TripResponse, error)
	ListTrips(ctx context.Context, userID string) (*models.TripListResponse, error)
	UpdateTrip(ctx context.Context, userID, tripID string, req models.UpdateTripRequest) (*models.TripResponse, error)
	DeleteTrip(ctx context.Context, userID, tripID string) error
	AddMember(ctx context.Context, userID string, req models.AddMemberRequest) (*models.TripResponse, error)
	CastCancellationVote(ctx context.Context, userID string, req models.CancelVoteRequest) (*models.CancelVoteResponse, error)

	// Item and vote operations
	AddItem(ctx context.Context, userID string, req models.AddItemRequest) (*models.AddItemResponse, error)
	RemoveItem(ctx context.Context, userID, tripID, itemID string) error
	UpdateItemPrice(ctx context.Context, userID, tripID, itemID string, price *float64) error
	ListItems(ctx context.Context, userID, tripID string) (*models.ItemListResponse, error)
	CastVote(ctx context.Context, userID, tripID string, req models.VoteRequest) (*models.VoteResponse, error)

	// Cost summary engine
	GetCostSummary(ctx context.Context, userID, tripID string) (*models.CostSummaryResponse, error)
	UpdateCostRatios(ctx context.Context, userID, tripID string, req models.UpdateCostRatiosRequest) error

	// Notifications
	ListNotifications(ctx context.Context, userID string) (*models.NotificationListResponse, error)
	CountUnreadNotifications(ctx context.Context, userID string) (*models.NotificationCountResponse, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (*models.MarkReadResponse, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (*models.MarkAllReadResponse, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) (*models.DeleteNotificationResponse, error)
	GetNotificationPreferences(ctx context.Context, userID string) (*models.PreferencesResponse, error)
	UpdateNotificationPreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) (*models.PreferencesResponse, error)

	// Chat
	GetChatHistory(ctx context.Context, userID, tripID string) (*models.ChatHistoryResponse, error)
	SaveChatMessage(ctx context.Context, senderID, tripID, content string, attachmentURL *string) (*models.ChatMessage, error)
	IsTripMember(ctx context.Context, tripID, userID string) (bool, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// requireTrip loads a trip or reports ErrNotFound.
func (s *DefaultService) requireTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip: %w", err)
	}
	if trip == nil {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	return trip, nil
}

// requireMember loads the caller's membership on a trip. A missing
// membership reads as not-found so non-members cannot probe trips.
func (s *DefaultService) requireMember(ctx context.Context, tripID, userID string) (*models.TripMember, error) {
	member, err := s.repo.GetTripMember(ctx, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking trip membership: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	return member, nil
}

// memberIDs returns the user ids of a trip's members, excluding any ids
// in skip (typically the acting user).
func memberIDs(members []models.MemberWithName, skip ...string) []string {
	skipSet := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipSet[id] = true
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		if !skipSet[m.UserID] {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}
