package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/krishmajumdar12/Leaps-sub000/internal/calculator"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Cost summary engine
// GetCostSummary computes each member's share of the trip's total item
// cost from their weight. Members or public-trip viewers may read it;
// a caller with no membership row gets yourCost 0.
func (s *DefaultService) GetCostSummary(ctx context.Context, userID, tripID string) (*models.CostSummaryResponse, error) {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	caller, err := s.repo.GetTripMember(ctx, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking trip membership: %w", err)
	}
	if caller == nil && !trip.IsPublic {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}

	totalCost, err := s.repo.GetTripTotalCost(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error computing total cost: %w", err)
	}

	members, err := s.repo.GetTripMembers(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	ratios := make([]calculator.MemberRatio, 0, len(members))
	for _, m := range members {
		ratios = append(ratios, calculator.MemberRatio{
			UserID:   m.UserID,
			Username: m.Username,
			Ratio:    m.CostRatio,
		})
	}

	shares := calculator.ComputeShares(totalCost, ratios)

	resp := &models.CostSummaryResponse{
		Status:    "success",
		TripID:    tripID,
		TotalCost: totalCost,
		PerUser:   make([]models.UserCost, 0, len(shares)),
	}
	for _, share := range shares {
		resp.PerUser = append(resp.PerUser, models.UserCost{
			UserID:   share.UserID,
			Username: share.Username,
			Ratio:    share.Ratio,
			Cost:     share.Cost,
		})
		if share.UserID == userID {
			resp.YourCost = share.Cost
		}
	}

	return resp, nil
}

// UpdateCostRatios applies a set of (user, ratio) pairs atomically.
// Only the trip creator may call it. A ratio-changed notification is
// queued for every member whose weight moved by more than the epsilon,
// and the updates and notifications commit in one transaction.
func (s *DefaultService) UpdateCostRatios(
	ctx context.Context,
	userID string,
	tripID string,
	req models.UpdateCostRatiosRequest,
) error {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return err
	}

	if trip.CreatedBy != userID {
		return fmt.Errorf("only the creator may update cost ratios: %w", ErrForbidden)
	}

	members, err := s.repo.GetTripMembers(ctx, tripID)
	if err != nil {
		return fmt.Errorf("error getting trip members: %w", err)
	}

	current := make(map[string]float64, len(members))
	for _, m := range members {
		current[m.UserID] = m.CostRatio
	}

	ratios := make(map[string]float64, len(req.PerUser))
	var notifications []models.Notification

	for _, entry := range req.PerUser {
		oldRatio, isMember := current[entry.UserID]
		if !isMember {
			return fmt.Errorf("user %s is not a member of trip %s: %w", entry.UserID, tripID, ErrNotFound)
		}

		newRatio := *entry.Ratio
		if newRatio < 0 {
			return fmt.Errorf("ratio must not be negative: %w", ErrInvalidInput)
		}

		ratios[entry.UserID] = newRatio

		if calculator.RatioChanged(oldRatio, newRatio) {
			notifications = append(notifications, models.Notification{
				UserID:  entry.UserID,
				TripID:  sql.NullString{String: tripID, Valid: true},
				Kind:    models.NotifyRatioChanged,
				Message: fmt.Sprintf("Your cost ratio on %q changed by %.2f%%", trip.Name, calculator.PercentChange(oldRatio, newRatio)),
			})
		}
	}

	if err := s.repo.UpdateCostRatios(ctx, tripID, ratios, notifications); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("trip member: %w", ErrNotFound)
		}
		return fmt.Errorf("error updating cost ratios: %w", err)
	}

	return nil
}
