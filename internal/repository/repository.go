package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Trip operations
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	GetUserTrips(ctx context.Context, userID string) ([]models.Trip, error)
	UpdateTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, tripID string) error

	// Membership operations
	AddTripMember(ctx context.Context, member *models.TripMember) error
	GetTripMember(ctx context.Context, tripID, userID string) (*models.TripMember, error)
	GetTripMembers(ctx context.Context, tripID string) ([]models.MemberWithName, error)
	UpdateCostRatios(ctx context.Context, tripID string, ratios map[string]float64, notifications []models.Notification) error

	// Cancellation operations
	AddCancellationVote(ctx context.Context, vote *models.CancellationVote) error
	GetCancellationTally(ctx context.Context, tripID string) (votes, members int, err error)

	// Item and vote operations
	CreateTripItem(ctx context.Context, item *models.TripItem) error
	GetTripItem(ctx context.Context, itemID string) (*models.TripItem, error)
	DeleteTripItem(ctx context.Context, itemID string) error
	UpdateItemPrice(ctx context.Context, itemID string, price *float64) error
	GetTripItems(ctx context.Context, tripID string) ([]models.ItemWithVotes, error)
	GetTripTotalCost(ctx context.Context, tripID string) (float64, error)
	UpsertVote(ctx context.Context, vote *models.Vote) error
	GetVoteCounts(ctx context.Context, itemID string) (up, down int, err error)

	// Notification operations
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	GetUserNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	GetNotification(ctx context.Context, userID, notificationID string) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) (bool, error)
	GetNotificationPreferences(ctx context.Context, userID string) ([]models.NotificationPreference, error)
	SetNotificationPreference(ctx context.Context, pref *models.NotificationPreference) error

	// Chat operations
	CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error
	GetChatMessages(ctx context.Context, tripID string) ([]models.ChatMessage, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}
