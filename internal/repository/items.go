package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Item repository methods
func (r *PostgresRepository) CreateTripItem(ctx context.Context, item *models.TripItem) error {
	query := `
		INSERT INTO trip_items (id, trip_id, item_type, item_ref, price, payload, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// Generate a new UUID if not provided
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.TripID, item.ItemType, item.ItemRef,
		item.Price, item.Payload, item.AddedBy, item.CreatedAt)

	return err
}

func (r *PostgresRepository) GetTripItem(ctx context.Context, itemID string) (*models.TripItem, error) {
	query := `SELECT * FROM trip_items WHERE id = $1`

	var item models.TripItem
	err := r.db.GetContext(ctx, &item, query, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Item not found
		}
		return nil, err
	}

	return &item, nil
}

func (r *PostgresRepository) DeleteTripItem(ctx context.Context, itemID string) error {
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

	// Delete votes first (due to foreign key constraint)
	_, err = tx.ExecContext(ctx, `DELETE FROM votes WHERE trip_item_id = $1`, itemID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM trip_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) UpdateItemPrice(ctx context.Context, itemID string, price *float64) error {
	query := `UPDATE trip_items SET price = $1 WHERE id = $2`

	var p sql.NullFloat64
	if price != nil {
		p = sql.NullFloat64{Float64: *price, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, p, itemID)
	return err
}

func (r *PostgresRepository) GetTripItems(ctx context.Context, tripID string) ([]models.ItemWithVotes, error) {
	query := `
		SELECT i.id, i.trip_id, i.item_type, i.item_ref, i.price, i.added_by, i.created_at,
			COUNT(v.user_id) FILTER (WHERE v.up) AS upvotes,
			COUNT(v.user_id) FILTER (WHERE NOT v.up) AS downvotes
		FROM trip_items i
		LEFT JOIN votes v ON v.trip_item_id = i.id
		WHERE i.trip_id = $1
		GROUP BY i.id
		ORDER BY i.created_at
	`

	var items []models.ItemWithVotes
	err := r.db.SelectContext(ctx, &items, query, tripID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

// GetTripTotalCost sums all non-null item prices for a trip; items with
// no price count as 0.
func (r *PostgresRepository) GetTripTotalCost(ctx context.Context, tripID string) (float64, error) {
	query := `SELECT COALESCE(SUM(price), 0) FROM trip_items WHERE trip_id = $1`

	var total float64
	err := r.db.GetContext(ctx, &total, query, tripID)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// Vote repository methods
// UpsertVote records a user's vote on an item; a second vote by the
// same user replaces the first rather than accumulating.
func (r *PostgresRepository) UpsertVote(ctx context.Context, vote *models.Vote) error {
	query := `
		INSERT INTO votes (trip_item_id, user_id, up, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (trip_item_id, user_id) DO UPDATE SET up = EXCLUDED.up, updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = now
	}
	vote.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		vote.TripItemID, vote.UserID, vote.Up, vote.CreatedAt, vote.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetVoteCounts(ctx context.Context, itemID string) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE up) AS upvotes,
			COUNT(*) FILTER (WHERE NOT up) AS downvotes
		FROM votes WHERE trip_item_id = $1
	`

	var counts struct {
		Upvotes   int `db:"upvotes"`
		Downvotes int `db:"downvotes"`
	}
	err := r.db.GetContext(ctx, &counts, query, itemID)
	if err != nil {
		return 0, 0, err
	}

	return counts.Upvotes, counts.Downvotes, nil
}
