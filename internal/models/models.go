package models

import (
	"database/sql"
	"time"
)

// Trip lifecycle statuses. A trip is soft-retired via status, never
// deleted implicitly.
const (
	TripStatusUpcoming  = "upcoming"
	TripStatusCurrent   = "current"
	TripStatusPast      = "past"
	TripStatusCancelled = "cancelled"
)

// Member roles on a trip.
const (
	RoleCreator   = "creator"
	RoleCoCreator = "co-creator"
	RoleEdit      = "edit"
	RoleView      = "view"
)

// Notification kinds. Users can disable individual kinds via
// notification_preferences; disabled kinds are filtered at read time.
const (
	NotifyItemAdded    = "item_added"
	NotifyItemRemoved  = "item_removed"
	NotifyVoteCast     = "vote_cast"
	NotifyTripUpdate   = "trip_update"
	NotifyRatioChanged = "ratio_changed"
	NotifyMemberAdded  = "member_added"
)

// NotificationKinds lists every kind a preference row may exist for.
var NotificationKinds = []string{
	NotifyItemAdded,
	NotifyItemRemoved,
	NotifyVoteCast,
	NotifyTripUpdate,
	NotifyRatioChanged,
	NotifyMemberAdded,
}

// User represents a user in the system
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Trip represents a planned trip shared between members
type Trip struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Destination string    `db:"destination" json:"destination"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	EndDate     time.Time `db:"end_date" json:"endDate"`
	IsPublic    bool      `db:"is_public" json:"isPublic"`
	Status      string    `db:"status" json:"status"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// TripMember associates a user with a trip. CostRatio is a weight used
// for proportional cost allocation; it does not need to sum to 1 across
// the trip's members. At most one row exists per (trip, user).
type TripMember struct {
	TripID    string    `db:"trip_id" json:"tripId"`
	UserID    string    `db:"user_id" json:"userId"`
	CostRatio float64   `db:"cost_ratio" json:"costRatio"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// MemberWithName is a TripMember joined with the user's display name.
type MemberWithName struct {
	TripID    string  `db:"trip_id" json:"tripId"`
	UserID    string  `db:"user_id" json:"userId"`
	Username  string  `db:"username" json:"username"`
	CostRatio float64 `db:"cost_ratio" json:"costRatio"`
	Role      string  `db:"role" json:"role"`
}

// TripItem is an event/travel/lodging reference attached to a trip.
// Price is authoritative and may be overridden independently of the
// underlying catalog entity; a null price counts as 0 toward totals.
type TripItem struct {
	ID        string          `db:"id" json:"id"`
	TripID    string          `db:"trip_id" json:"tripId"`
	ItemType  string          `db:"item_type" json:"itemType"`
	ItemRef   string          `db:"item_ref" json:"itemRef"`
	Price     sql.NullFloat64 `db:"price" json:"-"`
	Payload   sql.NullString  `db:"payload" json:"-"`
	AddedBy   string          `db:"added_by" json:"addedBy"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// ItemWithVotes is a TripItem plus its aggregated vote counts.
type ItemWithVotes struct {
	ID        string          `db:"id" json:"id"`
	TripID    string          `db:"trip_id" json:"tripId"`
	ItemType  string          `db:"item_type" json:"itemType"`
	ItemRef   string          `db:"item_ref" json:"itemRef"`
	Price     sql.NullFloat64 `db:"price" json:"-"`
	AddedBy   string          `db:"added_by" json:"addedBy"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	Upvotes   int             `db:"upvotes" json:"upvotes"`
	Downvotes int             `db:"downvotes" json:"downvotes"`
}

// Vote records a single user's up/down vote on a trip item. A second
// vote by the same user replaces the first (upsert semantics).
type Vote struct {
	TripItemID string    `db:"trip_item_id" json:"tripItemId"`
	UserID     string    `db:"user_id" json:"userId"`
	Up         bool      `db:"up" json:"up"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Notification is an append-only per-user event record; only its read
// flag is ever mutated, and only the owner may delete it.
type Notification struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"userId"`
	TripID    sql.NullString `db:"trip_id" json:"-"`
	Kind      string         `db:"kind" json:"kind"`
	Message   string         `db:"message" json:"message"`
	Read      bool           `db:"read" json:"read"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// NotificationPreference is a per-user per-kind enabled flag. Absence of
// a row means the kind is enabled.
type NotificationPreference struct {
	UserID  string `db:"user_id" json:"userId"`
	Kind    string `db:"kind" json:"kind"`
	Enabled bool   `db:"enabled" json:"enabled"`
}

// ChatMessage is a persisted trip chat message, ordered by creation time.
// SenderName is joined from users at read time and set by the relay on
// broadcast; it is not a column on chat_messages.
type ChatMessage struct {
	ID            string         `db:"id" json:"id"`
	TripID        string         `db:"trip_id" json:"tripId"`
	SenderID      string         `db:"sender_id" json:"senderId"`
	SenderName    string         `db:"sender_name" json:"senderName"`
	Content       string         `db:"content" json:"content"`
	AttachmentURL sql.NullString `db:"attachment_url" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// CancellationVote is a presence record; the trip counts as cancelled
// once votes exceed half of current membership. That condition is
// derived on read, never stored.
type CancellationVote struct {
	TripID    string    `db:"trip_id" json:"tripId"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
