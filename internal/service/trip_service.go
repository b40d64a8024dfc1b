package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

const dateLayout = "2006-01-02"

// Trip operations
func (s *DefaultService) CreateTrip(
	ctx context.Context,
	userID string,
	req models.CreateTripRequest,
) (*models.TripResponse, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("startDate: %w", ErrInvalidInput)
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("endDate: %w", ErrInvalidInput)
	}

	if endDate.Before(startDate) {
		return nil, fmt.Errorf("endDate before startDate: %w", ErrInvalidInput)
	}

	// The repository creates the trip and the creator's membership
	// (ratio 1.0) in one transaction.
	trip := &models.Trip{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Destination: req.Destination,
		StartDate:   startDate,
		EndDate:     endDate,
		IsPublic:    req.IsPublic,
		Status:      models.TripStatusUpcoming,
		CreatedBy:   userID,
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("error creating trip: %w", err)
	}

	members, err := s.repo.GetTripMembers(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	return &models.TripResponse{
		Status:  "success",
		Trip:    *trip,
		Members: members,
	}, nil
}

func (s *DefaultService) GetTrip(ctx context.Context, userID, tripID string) (*models.TripResponse, error) {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.GetTripMember(ctx, tripID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking trip membership: %w", err)
	}

	if member == nil && !trip.IsPublic {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}

	members, err := s.repo.GetTripMembers(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	cancelled, err := s.isCancelled(ctx, tripID)
	if err != nil {
		return nil, err
	}

	return &models.TripResponse{
		Status:    "success",
		Trip:      *trip,
		Members:   members,
		Cancelled: cancelled,
	}, nil
}

func (s *DefaultService) ListTrips(ctx context.Context, userID string) (*models.TripListResponse, error) {
	trips, err := s.repo.GetUserTrips(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting trips: %w", err)
	}

	if trips == nil {
		trips = []models.Trip{}
	}

	return &models.TripListResponse{
		Status: "success",
		Trips:  trips,
	}, nil
}

func (s *DefaultService) UpdateTrip(
	ctx context.Context,
	userID string,
	tripID string,
	req models.UpdateTripRequest,
) (*models.TripResponse, error) {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	member, err := s.requireMember(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	if member.Role != models.RoleCreator && member.Role != models.RoleCoCreator {
		return nil, fmt.Errorf("only the creator or a co-creator may update a trip: %w", ErrForbidden)
	}

	if req.Name != nil {
		trip.Name = *req.Name
	}
	if req.Description != nil {
		trip.Description = *req.Description
	}
	if req.Destination != nil {
		trip.Destination = *req.Destination
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("startDate: %w", ErrInvalidInput)
		}
		trip.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("endDate: %w", ErrInvalidInput)
		}
		trip.EndDate = endDate
	}
	if req.IsPublic != nil {
		trip.IsPublic = *req.IsPublic
	}
	if req.Status != nil {
		trip.Status = *req.Status
	}

	if err := s.repo.UpdateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("error updating trip: %w", err)
	}

	members, err := s.repo.GetTripMembers(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	// Best-effort fan-out; a notification failure never fails the update.
	s.notifyBestEffort(ctx, memberIDs(members, userID), tripID, models.NotifyTripUpdate,
		fmt.Sprintf("Trip %q was updated", trip.Name))

	return &models.TripResponse{
		Status:  "success",
		Trip:    *trip,
		Members: members,
	}, nil
}

func (s *DefaultService) DeleteTrip(ctx context.Context, userID, tripID string) error {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return err
	}

	// Only the creator may delete a trip outright
	if trip.CreatedBy != userID {
		return fmt.Errorf("only the creator may delete a trip: %w", ErrForbidden)
	}

	if err := s.repo.DeleteTrip(ctx, tripID); err != nil {
		return fmt.Errorf("error deleting trip: %w", err)
	}

	return nil
}

func (s *DefaultService) AddMember(
	ctx context.Context,
	userID string,
	req models.AddMemberRequest,
) (*models.TripResponse, error) {
	trip, err := s.requireTrip(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	caller, err := s.requireMember(ctx, req.TripID, userID)
	if err != nil {
		return nil, err
	}

	if caller.Role != models.RoleCreator && caller.Role != models.RoleCoCreator {
		return nil, fmt.Errorf("only the creator or a co-creator may add members: %w", ErrForbidden)
	}

	userToAdd, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if userToAdd == nil {
		return nil, fmt.Errorf("user %s: %w", req.Email, ErrNotFound)
	}

	// New members start with a zero weight; the creator assigns ratios
	// through the cost-ratio update path.
	member := &models.TripMember{
		TripID:    req.TripID,
		UserID:    userToAdd.ID,
		CostRatio: 0,
		Role:      req.Role,
	}

	if err := s.repo.AddTripMember(ctx, member); err != nil {
		return nil, fmt.Errorf("error adding trip member: %w", err)
	}

	s.notifyBestEffort(ctx, []string{userToAdd.ID}, req.TripID, models.NotifyMemberAdded,
		fmt.Sprintf("You were added to trip %q", trip.Name))

	members, err := s.repo.GetTripMembers(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	return &models.TripResponse{
		Status:  "success",
		Trip:    *trip,
		Members: members,
	}, nil
}

func (s *DefaultService) CastCancellationVote(
	ctx context.Context,
	userID string,
	req models.CancelVoteRequest,
) (*models.CancelVoteResponse, error) {
	if _, err := s.requireTrip(ctx, req.TripID); err != nil {
		return nil, err
	}

	if _, err := s.requireMember(ctx, req.TripID, userID); err != nil {
		return nil, err
	}

	vote := &models.CancellationVote{
		TripID: req.TripID,
		UserID: userID,
	}

	// Idempotent: a repeat vote by the same member is a no-op.
	if err := s.repo.AddCancellationVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("error recording cancellation vote: %w", err)
	}

	votes, memberCount, err := s.repo.GetCancellationTally(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("error tallying cancellation votes: %w", err)
	}

	return &models.CancelVoteResponse{
		Status:    "success",
		TripID:    req.TripID,
		Votes:     votes,
		Members:   memberCount,
		Cancelled: cancelledByVote(votes, memberCount),
	}, nil
}

// isCancelled recomputes the derived cancellation condition on read;
// the stored status column is never consulted or written here.
func (s *DefaultService) isCancelled(ctx context.Context, tripID string) (bool, error) {
	votes, memberCount, err := s.repo.GetCancellationTally(ctx, tripID)
	if err != nil {
		return false, fmt.Errorf("error tallying cancellation votes: %w", err)
	}
	return cancelledByVote(votes, memberCount), nil
}

// cancelledByVote holds when votes exceed half of current membership.
func cancelledByVote(votes, members int) bool {
	return members > 0 && votes*2 > members
}
