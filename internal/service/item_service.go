package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// Item and vote operations
func (s *DefaultService) AddItem(
	ctx context.Context,
	userID string,
	req models.AddItemRequest,
) (*models.AddItemResponse, error) {
	trip, err := s.requireTrip(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	member, err := s.requireMember(ctx, req.TripID, userID)
	if err != nil {
		return nil, err
	}

	if member.Role == models.RoleView {
		return nil, fmt.Errorf("view-only members may not add items: %w", ErrForbidden)
	}

	item := &models.TripItem{
		ID:       uuid.New().String(),
		TripID:   req.TripID,
		ItemType: req.ItemType,
		ItemRef:  req.ItemID,
		AddedBy:  userID,
	}
	if req.Price != nil {
		item.Price = sql.NullFloat64{Float64: *req.Price, Valid: true}
	}
	if req.Payload != nil {
		item.Payload = sql.NullString{String: *req.Payload, Valid: true}
	}

	if err := s.repo.CreateTripItem(ctx, item); err != nil {
		return nil, fmt.Errorf("error creating trip item: %w", err)
	}

	members, err := s.repo.GetTripMembers(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip members: %w", err)
	}

	s.notifyBestEffort(ctx, memberIDs(members, userID), req.TripID, models.NotifyItemAdded,
		fmt.Sprintf("A %s item was added to trip %q", item.ItemType, trip.Name))

	return &models.AddItemResponse{
		Status: "success",
		Item: models.NewItemResponse(models.ItemWithVotes{
			ID:        item.ID,
			TripID:    item.TripID,
			ItemType:  item.ItemType,
			ItemRef:   item.ItemRef,
			Price:     item.Price,
			AddedBy:   item.AddedBy,
			CreatedAt: item.CreatedAt,
		}),
	}, nil
}

func (s *DefaultService) RemoveItem(ctx context.Context, userID, tripID, itemID string) error {
	trip, err := s.requireTrip(ctx, tripID)
	if err != nil {
		return err
	}

	member, err := s.requireMember(ctx, tripID, userID)
	if err != nil {
		return err
	}

	item, err := s.repo.GetTripItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("error getting trip item: %w", err)
	}
	if item == nil || item.TripID != tripID {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}

	// Only the user who added the item or the trip creator may remove it
	if item.AddedBy != userID && member.Role != models.RoleCreator {
		return fmt.Errorf("only the item's adder or the trip creator may remove it: %w", ErrForbidden)
	}

	if err := s.repo.DeleteTripItem(ctx, itemID); err != nil {
		return fmt.Errorf("error deleting trip item: %w", err)
	}

	members, err := s.repo.GetTripMembers(ctx, tripID)
	if err != nil {
		return fmt.Errorf("error getting trip members: %w", err)
	}

	s.notifyBestEffort(ctx, memberIDs(members, userID), tripID, models.NotifyItemRemoved,
		fmt.Sprintf("A %s item was removed from trip %q", item.ItemType, trip.Name))

	return nil
}

func (s *DefaultService) UpdateItemPrice(ctx context.Context, userID, tripID, itemID string, price *float64) error {
	if _, err := s.requireTrip(ctx, tripID); err != nil {
		return err
	}

	member, err := s.requireMember(ctx, tripID, userID)
	if err != nil {
		return err
	}

	if member.Role == models.RoleView {
		return fmt.Errorf("view-only members may not edit prices: %w", ErrForbidden)
	}

	item, err := s.repo.GetTripItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("error getting trip item: %w", err)
	}
	if item == nil || item.TripID != tripID {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}

	if err := s.repo.UpdateItemPrice(ctx, itemID, price); err != nil {
		return fmt.Errorf("error updating item price: %w", err)
	}

	return nil
}

func (s *DefaultService) ListItems(ctx context.Context, userID, tripID string) (*models.ItemListResponse, error) {
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

	items, err := s.repo.GetTripItems(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip items: %w", err)
	}

	resp := &models.ItemListResponse{
		Status: "success",
		TripID: tripID,
		Items:  make([]models.ItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, models.NewItemResponse(it))
	}

	return resp, nil
}

func (s *DefaultService) CastVote(
	ctx context.Context,
	userID string,
	tripID string,
	req models.VoteRequest,
) (*models.VoteResponse, error) {
	if _, err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}

	if _, err := s.requireMember(ctx, tripID, userID); err != nil {
		return nil, err
	}

	item, err := s.repo.GetTripItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("error getting trip item: %w", err)
	}
	if item == nil || item.TripID != tripID {
		return nil, fmt.Errorf("item %s: %w", req.ItemID, ErrNotFound)
	}

	vote := &models.Vote{
		TripItemID: req.ItemID,
		UserID:     userID,
		Up:         *req.Vote,
	}

	// Upsert: a second vote by the same user replaces the first.
	if err := s.repo.UpsertVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("error recording vote: %w", err)
	}

	up, down, err := s.repo.GetVoteCounts(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("error counting votes: %w", err)
	}

	// Tell the item's adder, not the voter.
	if item.AddedBy != userID {
		direction := "down"
		if vote.Up {
			direction = "up"
		}
		s.notifyBestEffort(ctx, []string{item.AddedBy}, tripID, models.NotifyVoteCast,
			fmt.Sprintf("Your %s item received a %svote", item.ItemType, direction))
	}

	return &models.VoteResponse{
		Status:    "success",
		ItemID:    req.ItemID,
		Upvotes:   up,
		Downvotes: down,
	}, nil
}
