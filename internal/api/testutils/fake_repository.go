package testutils

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
)

// FakeRepository is an in-memory Repository used by the API tests so
// the suite runs without a database. Multi-step operations apply
// all-or-nothing, mirroring the transactional Postgres paths.
type FakeRepository struct {
	mu sync.Mutex

	users         map[string]*models.User
	trips         map[string]*models.Trip
	members       map[string]map[string]*models.TripMember // trip -> user
	items         map[string]*models.TripItem
	votes         map[string]map[string]*models.Vote // item -> user
	notifications []*models.Notification
	prefs         map[string]map[string]bool // user -> kind -> enabled
	messages      []*models.ChatMessage
	cancelVotes   map[string]map[string]bool // trip -> user

	clock int64

	// FailNotifications makes every notification insert fail, for
	// exercising the best-effort and rollback paths.
	FailNotifications bool
	// FailChat makes chat persistence fail.
	FailChat bool
}

// NewFakeRepository returns an empty in-memory repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		users:       make(map[string]*models.User),
		trips:       make(map[string]*models.Trip),
		members:     make(map[string]map[string]*models.TripMember),
		items:       make(map[string]*models.TripItem),
		votes:       make(map[string]map[string]*models.Vote),
		prefs:       make(map[string]map[string]bool),
		cancelVotes: make(map[string]map[string]bool),
	}
}

// now returns strictly increasing timestamps so ordering assertions
// are deterministic.
func (r *FakeRepository) now() time.Time {
	r.clock++
	return time.Unix(0, r.clock*int64(time.Millisecond)).UTC()
}

// NotificationRows returns a snapshot of all stored notification rows.
func (r *FakeRepository) NotificationRows() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]models.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		rows = append(rows, *n)
	}
	return rows
}

// User operations
func (r *FakeRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *FakeRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FakeRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// Trip operations
func (r *FakeRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.Status == "" {
		trip.Status = models.TripStatusUpcoming
	}
	now := r.now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	cp := *trip
	r.trips[trip.ID] = &cp

	r.members[trip.ID] = map[string]*models.TripMember{
		trip.CreatedBy: {
			TripID:    trip.ID,
			UserID:    trip.CreatedBy,
			CostRatio: 1.0,
			Role:      models.RoleCreator,
			CreatedAt: now,
		},
	}
	return nil
}

func (r *FakeRepository) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *FakeRepository) GetUserTrips(ctx context.Context, userID string) ([]models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var trips []models.Trip
	for tripID, membership := range r.members {
		if _, ok := membership[userID]; ok {
			trips = append(trips, *r.trips[tripID])
		}
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].StartDate.Before(trips[j].StartDate) })
	return trips, nil
}

func (r *FakeRepository) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip.UpdatedAt = r.now()
	cp := *trip
	r.trips[trip.ID] = &cp
	return nil
}

func (r *FakeRepository) DeleteTrip(ctx context.Context, tripID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, tripID)
	delete(r.members, tripID)
	delete(r.cancelVotes, tripID)

	for id, item := range r.items {
		if item.TripID == tripID {
			delete(r.votes, id)
			delete(r.items, id)
		}
	}

	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if !(n.TripID.Valid && n.TripID.String == tripID) {
			kept = append(kept, n)
		}
	}
	r.notifications = kept

	keptMsgs := r.messages[:0]
	for _, m := range r.messages {
		if m.TripID != tripID {
			keptMsgs = append(keptMsgs, m)
		}
	}
	r.messages = keptMsgs
	return nil
}

// Membership operations
func (r *FakeRepository) AddTripMember(ctx context.Context, member *models.TripMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership := r.members[member.TripID]
	if membership == nil {
		membership = make(map[string]*models.TripMember)
		r.members[member.TripID] = membership
	}

	if existing, ok := membership[member.UserID]; ok {
		existing.Role = member.Role
		return nil
	}

	cp := *member
	cp.CreatedAt = r.now()
	membership[member.UserID] = &cp
	return nil
}

func (r *FakeRepository) GetTripMember(ctx context.Context, tripID, userID string) (*models.TripMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[tripID][userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *FakeRepository) GetTripMembers(ctx context.Context, tripID string) ([]models.MemberWithName, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var members []models.MemberWithName
	for _, m := range r.members[tripID] {
		name := ""
		if u, ok := r.users[m.UserID]; ok {
			name = u.Name
		}
		members = append(members, models.MemberWithName{
			TripID:    m.TripID,
			UserID:    m.UserID,
			Username:  name,
			CostRatio: m.CostRatio,
			Role:      m.Role,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		mi := r.members[tripID][members[i].UserID]
		mj := r.members[tripID][members[j].UserID]
		return mi.CreatedAt.Before(mj.CreatedAt)
	})
	return members, nil
}

func (r *FakeRepository) UpdateCostRatios(
	ctx context.Context,
	tripID string,
	ratios map[string]float64,
	notifications []models.Notification,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership := r.members[tripID]
	for userID := range ratios {
		if _, ok := membership[userID]; !ok {
			return sql.ErrNoRows
		}
	}

	// All-or-nothing, like the real transaction: a notification failure
	// leaves the ratios untouched.
	if r.FailNotifications && len(notifications) > 0 {
		return errors.New("simulated notification insert failure")
	}

	for userID, ratio := range ratios {
		membership[userID].CostRatio = ratio
	}
	r.appendNotifications(notifications)
	return nil
}

// Cancellation operations
func (r *FakeRepository) AddCancellationVote(ctx context.Context, vote *models.CancellationVote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.cancelVotes[vote.TripID]
	if set == nil {
		set = make(map[string]bool)
		r.cancelVotes[vote.TripID] = set
	}
	set[vote.UserID] = true
	return nil
}

func (r *FakeRepository) GetCancellationTally(ctx context.Context, tripID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.cancelVotes[tripID]), len(r.members[tripID]), nil
}

// Item and vote operations
func (r *FakeRepository) CreateTripItem(ctx context.Context, item *models.TripItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = r.now()

	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *FakeRepository) GetTripItem(ctx context.Context, itemID string) (*models.TripItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *FakeRepository) DeleteTripItem(ctx context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, itemID)
	delete(r.votes, itemID)
	return nil
}

func (r *FakeRepository) UpdateItemPrice(ctx context.Context, itemID string, price *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok {
		return nil
	}
	if price == nil {
		it.Price = sql.NullFloat64{}
	} else {
		it.Price = sql.NullFloat64{Float64: *price, Valid: true}
	}
	return nil
}

func (r *FakeRepository) GetTripItems(ctx context.Context, tripID string) ([]models.ItemWithVotes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []models.ItemWithVotes
	for _, it := range r.items {
		if it.TripID != tripID {
			continue
		}
		up, down := r.countVotes(it.ID)
		items = append(items, models.ItemWithVotes{
			ID:        it.ID,
			TripID:    it.TripID,
			ItemType:  it.ItemType,
			ItemRef:   it.ItemRef,
			Price:     it.Price,
			AddedBy:   it.AddedBy,
			CreatedAt: it.CreatedAt,
			Upvotes:   up,
			Downvotes: down,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *FakeRepository) GetTripTotalCost(ctx context.Context, tripID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, it := range r.items {
		if it.TripID == tripID && it.Price.Valid {
			total += it.Price.Float64
		}
	}
	return total, nil
}

func (r *FakeRepository) UpsertVote(ctx context.Context, vote *models.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byUser := r.votes[vote.TripItemID]
	if byUser == nil {
		byUser = make(map[string]*models.Vote)
		r.votes[vote.TripItemID] = byUser
	}

	now := r.now()
	if existing, ok := byUser[vote.UserID]; ok {
		existing.Up = vote.Up
		existing.UpdatedAt = now
		return nil
	}

	cp := *vote
	cp.CreatedAt = now
	cp.UpdatedAt = now
	byUser[vote.UserID] = &cp
	return nil
}

func (r *FakeRepository) GetVoteCounts(ctx context.Context, itemID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	up, down := r.countVotes(itemID)
	return up, down, nil
}

func (r *FakeRepository) countVotes(itemID string) (int, int) {
	var up, down int
	for _, v := range r.votes[itemID] {
		if v.Up {
			up++
		} else {
			down++
		}
	}
	return up, down
}

// Notification operations
func (r *FakeRepository) appendNotifications(notifications []models.Notification) {
	for i := range notifications {
		n := notifications[i]
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		n.CreatedAt = r.now()
		r.notifications = append(r.notifications, &n)
	}
}

func (r *FakeRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNotifications {
		return errors.New("simulated notification insert failure")
	}
	r.appendNotifications(notifications)
	return nil
}

func (r *FakeRepository) enabled(userID, kind string) bool {
	if prefs, ok := r.prefs[userID]; ok {
		if enabled, ok := prefs[kind]; ok {
			return enabled
		}
	}
	return true
}

func (r *FakeRepository) GetUserNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	// Newest first
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.UserID == userID && r.enabled(userID, n.Kind) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *FakeRepository) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read && r.enabled(userID, n.Kind) {
			count++
		}
	}
	return count, nil
}

func (r *FakeRepository) GetNotification(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *FakeRepository) MarkNotificationRead(ctx context.Context, userID, notificationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID && !n.Read {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeRepository) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (r *FakeRepository) DeleteNotification(ctx context.Context, userID, notificationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.notifications {
		if n.ID == notificationID && n.UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeRepository) GetNotificationPreferences(ctx context.Context, userID string) ([]models.NotificationPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var prefs []models.NotificationPreference
	for kind, enabled := range r.prefs[userID] {
		prefs = append(prefs, models.NotificationPreference{
			UserID:  userID,
			Kind:    kind,
			Enabled: enabled,
		})
	}
	return prefs, nil
}

func (r *FakeRepository) SetNotificationPreference(ctx context.Context, pref *models.NotificationPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKind := r.prefs[pref.UserID]
	if byKind == nil {
		byKind = make(map[string]bool)
		r.prefs[pref.UserID] = byKind
	}
	byKind[pref.Kind] = pref.Enabled
	return nil
}

// Chat operations
func (r *FakeRepository) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailChat {
		return errors.New("simulated chat persist failure")
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = r.now()

	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *FakeRepository) GetChatMessages(ctx context.Context, tripID string) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.TripID == tripID {
			cp := *m
			if u, ok := r.users[m.SenderID]; ok {
				cp.SenderName = u.Name
			}
			out = append(out, cp)
		}
	}
	return out, nil
}
