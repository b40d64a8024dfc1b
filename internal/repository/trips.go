package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Trip repository methods
func (r *PostgresRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
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

	query := `
		INSERT INTO trips (id, name, description, destination, start_date, end_date, is_public, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Generate a new UUID if not provided
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}

	if trip.Status == "" {
		trip.Status = models.TripStatusUpcoming
	}

	now := time.Now().UTC()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	_, err = tx.ExecContext(ctx, query,
		trip.ID, trip.Name, trip.Description, trip.Destination,
		trip.StartDate, trip.EndDate, trip.IsPublic, trip.Status,
		trip.CreatedBy, trip.CreatedAt, trip.UpdatedAt)

	if err != nil {
		return err
	}

	// The creator joins their own trip with the full weight.
	member := &models.TripMember{
		TripID:    trip.ID,
		UserID:    trip.CreatedBy,
		CostRatio: 1.0,
		Role:      models.RoleCreator,
		CreatedAt: now,
	}

	err = r.addTripMemberTx(ctx, tx, member)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	query := `SELECT * FROM trips WHERE id = $1`

	var trip models.Trip
	err := r.db.GetContext(ctx, &trip, query, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Trip not found
		}
		return nil, err
	}

	return &trip, nil
}

func (r *PostgresRepository) GetUserTrips(ctx context.Context, userID string) ([]models.Trip, error) {
	query := `
		SELECT t.* FROM trips t
		JOIN trip_members tm ON t.id = tm.trip_id
		WHERE tm.user_id = $1
		ORDER BY t.start_date
	`

	var trips []models.Trip
	err := r.db.SelectContext(ctx, &trips, query, userID)
	if err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *PostgresRepository) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		UPDATE trips
		SET name = $1, description = $2, destination = $3, start_date = $4,
			end_date = $5, is_public = $6, status = $7, updated_at = $8
		WHERE id = $9
	`

	trip.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		trip.Name, trip.Description, trip.Destination, trip.StartDate,
		trip.EndDate, trip.IsPublic, trip.Status, trip.UpdatedAt, trip.ID)

	return err
}

func (r *PostgresRepository) DeleteTrip(ctx context.Context, tripID string) error {
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

	// Delete dependent rows first (due to foreign key constraints)
	statements := []string{
		`DELETE FROM votes WHERE trip_item_id IN (SELECT id FROM trip_items WHERE trip_id = $1)`,
		`DELETE FROM trip_items WHERE trip_id = $1`,
		`DELETE FROM chat_messages WHERE trip_id = $1`,
		`DELETE FROM cancellation_votes WHERE trip_id = $1`,
		`DELETE FROM notifications WHERE trip_id = $1`,
		`DELETE FROM trip_members WHERE trip_id = $1`,
		`DELETE FROM trips WHERE id = $1`,
	}

	for _, stmt := range statements {
		_, err = tx.ExecContext(ctx, stmt, tripID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Membership repository methods
// addTripMemberTx adds a user to a trip within an existing transaction
func (r *PostgresRepository) addTripMemberTx(ctx context.Context, tx *sql.Tx, member *models.TripMember) error {
	// Check if the membership already exists
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = $1 AND user_id = $2)`,
		member.TripID, member.UserID).Scan(&exists)

	if err != nil {
		return err
	}

	if exists {
		// Update the role if the user is already a member; the ratio is
		// only ever changed through the cost-ratio update path.
		query := `UPDATE trip_members SET role = $1 WHERE trip_id = $2 AND user_id = $3`
		_, err = tx.ExecContext(ctx, query, member.Role, member.TripID, member.UserID)
	} else {
		query := `INSERT INTO trip_members (trip_id, user_id, cost_ratio, role, created_at) VALUES ($1, $2, $3, $4, $5)`

		if member.CreatedAt.IsZero() {
			member.CreatedAt = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			member.TripID, member.UserID, member.CostRatio, member.Role, member.CreatedAt)
	}

	return err
}

func (r *PostgresRepository) AddTripMember(ctx context.Context, member *models.TripMember) error {
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

	err = r.addTripMemberTx(ctx, tx, member)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetTripMember(ctx context.Context, tripID, userID string) (*models.TripMember, error) {
	query := `SELECT * FROM trip_members WHERE trip_id = $1 AND user_id = $2`

	var member models.TripMember
	err := r.db.GetContext(ctx, &member, query, tripID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not a member
		}
		return nil, err
	}

	return &member, nil
}

func (r *PostgresRepository) GetTripMembers(ctx context.Context, tripID string) ([]models.MemberWithName, error) {
	query := `
		SELECT tm.trip_id, tm.user_id, u.name AS username, tm.cost_ratio, tm.role
		FROM trip_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.trip_id = $1
		ORDER BY tm.created_at
	`

	var members []models.MemberWithName
	err := r.db.SelectContext(ctx, &members, query, tripID)
	if err != nil {
		return nil, err
	}

	return members, nil
}

// UpdateCostRatios applies a set of ratio updates and the notifications
// that describe them in a single transaction. Partial application must
// never be observable, so any failure rolls back everything including
// already-written notification rows.
func (r *PostgresRepository) UpdateCostRatios(
	ctx context.Context,
	tripID string,
	ratios map[string]float64,
	notifications []models.Notification,
) error {
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

	query := `UPDATE trip_members SET cost_ratio = $1 WHERE trip_id = $2 AND user_id = $3`

	for userID, ratio := range ratios {
		var res sql.Result
		res, err = tx.ExecContext(ctx, query, ratio, tripID, userID)
		if err != nil {
			return err
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			err = sql.ErrNoRows // payload referenced a non-member
			return err
		}
	}

	if len(notifications) > 0 {
		err = r.createNotificationsTx(ctx, tx, notifications)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Cancellation repository methods
func (r *PostgresRepository) AddCancellationVote(ctx context.Context, vote *models.CancellationVote) error {
	query := `
		INSERT INTO cancellation_votes (trip_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`

	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query, vote.TripID, vote.UserID, vote.CreatedAt)
	return err
}

func (r *PostgresRepository) GetCancellationTally(ctx context.Context, tripID string) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM cancellation_votes WHERE trip_id = $1) AS votes,
			(SELECT COUNT(*) FROM trip_members WHERE trip_id = $1) AS members
	`

	var tally struct {
		Votes   int `db:"votes"`
		Members int `db:"members"`
	}
	err := r.db.GetContext(ctx, &tally, query, tripID)
	if err != nil {
		return 0, 0, err
	}

	return tally.Votes, tally.Members, nil
}
