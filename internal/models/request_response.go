package models

import "time"

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateTripRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Destination string `json:"destination" binding:"required"`
	StartDate   string `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate     string `json:"endDate" binding:"required"`   // YYYY-MM-DD
	IsPublic    bool   `json:"isPublic"`
}

// UpdateTripRequest carries partial updates; nil fields are left as-is.
type UpdateTripRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Destination *string `json:"destination"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	IsPublic    *bool   `json:"isPublic"`
	Status      *string `json:"status" binding:"omitempty,oneof=upcoming current past cancelled"`
}

type AddMemberRequest struct {
	TripID string `json:"tripId" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Role   string `json:"role" binding:"required,oneof=view edit co-creator"`
}

type CancelVoteRequest struct {
	TripID string `json:"tripId" binding:"required"`
}

type AddItemRequest struct {
	TripID   string   `json:"tripId" binding:"required"`
	ItemType string   `json:"itemType" binding:"required,oneof=event travel lodging custom"`
	ItemID   string   `json:"itemId" binding:"required"`
	Price    *float64 `json:"price"`
	Payload  *string  `json:"payload"`
}

type UpdateItemPriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

type VoteRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Vote   *bool  `json:"vote" binding:"required"`
}

// UserRatio is one entry of a cost-ratio update payload. Ratio is a
// pointer so an explicit 0 survives required-field validation.
type UserRatio struct {
	UserID string   `json:"userId" binding:"required"`
	Ratio  *float64 `json:"ratio" binding:"required"`
}

type UpdateCostRatiosRequest struct {
	PerUser []UserRatio `json:"perUser" binding:"required,min=1,dive"`
}

type UpdatePreferencesRequest struct {
	Preferences map[string]bool `json:"preferences" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type TripResponse struct {
	Status    string           `json:"status"`
	Trip      Trip             `json:"trip"`
	Members   []MemberWithName `json:"members,omitempty"`
	Cancelled bool             `json:"cancelled"`
}

type TripListResponse struct {
	Status string `json:"status"`
	Trips  []Trip `json:"trips"`
}

type CancelVoteResponse struct {
	Status    string `json:"status"`
	TripID    string `json:"tripId"`
	Votes     int    `json:"votes"`
	Members   int    `json:"members"`
	Cancelled bool   `json:"cancelled"`
}

// ItemResponse is the JSON shape of a trip item; Price is a pointer so
// a missing price serializes as null rather than 0.
type ItemResponse struct {
	ID        string    `json:"id"`
	TripID    string    `json:"tripId"`
	ItemType  string    `json:"itemType"`
	ItemRef   string    `json:"itemRef"`
	Price     *float64  `json:"price"`
	AddedBy   string    `json:"addedBy"`
	CreatedAt time.Time `json:"createdAt"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
}

type ItemListResponse struct {
	Status string         `json:"status"`
	TripID string         `json:"tripId"`
	Items  []ItemResponse `json:"items"`
}

type AddItemResponse struct {
	Status string       `json:"status"`
	Item   ItemResponse `json:"item"`
}

type VoteResponse struct {
	Status    string `json:"status"`
	ItemID    string `json:"itemId"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

// UserCost is one member's entry in a cost summary.
type UserCost struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Ratio    float64 `json:"ratio"`
	Cost     float64 `json:"cost"`
}

type CostSummaryResponse struct {
	Status    string     `json:"status"`
	TripID    string     `json:"tripId"`
	TotalCost float64    `json:"totalCost"`
	PerUser   []UserCost `json:"perUser"`
	YourCost  float64    `json:"yourCost"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	TripID    *string   `json:"tripId"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationListResponse struct {
	Status        string                 `json:"status"`
	Notifications []NotificationResponse `json:"notifications"`
}

type NotificationCountResponse struct {
	Status string `json:"status"`
	Unread int    `json:"unread"`
}

type MarkReadResponse struct {
	Status  string `json:"status"`
	Updated bool   `json:"updated"`
}

type MarkAllReadResponse struct {
	Status  string `json:"status"`
	Updated int    `json:"updated"`
}

type DeleteNotificationResponse struct {
	Status  string `json:"status"`
	Deleted bool   `json:"deleted"`
}

type PreferencesResponse struct {
	Status      string          `json:"status"`
	Preferences map[string]bool `json:"preferences"`
}

type ChatMessageResponse struct {
	ID            string    `json:"id"`
	TripID        string    `json:"tripId"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	Content       string    `json:"content"`
	AttachmentURL *string   `json:"attachmentUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ChatHistoryResponse struct {
	Status   string                `json:"status"`
	TripID   string                `json:"tripId"`
	Messages []ChatMessageResponse `json:"messages"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewItemResponse converts an aggregated item row to its JSON shape.
func NewItemResponse(it ItemWithVotes) ItemResponse {
	resp := ItemResponse{
		ID:        it.ID,
		TripID:    it.TripID,
		ItemType:  it.ItemType,
		ItemRef:   it.ItemRef,
		AddedBy:   it.AddedBy,
		CreatedAt: it.CreatedAt,
		Upvotes:   it.Upvotes,
		Downvotes: it.Downvotes,
	}
	if it.Price.Valid {
		p := it.Price.Float64
		resp.Price = &p
	}
	return resp
}

// NewNotificationResponse converts a notification row to its JSON shape.
func NewNotificationResponse(n Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.TripID.Valid {
		t := n.TripID.String
		resp.TripID = &t
	}
	return resp
}

// NewChatMessageResponse converts a chat message row to its JSON shape.
func NewChatMessageResponse(m ChatMessage) ChatMessageResponse {
	resp := ChatMessageResponse{
		ID:         m.ID,
		TripID:     m.TripID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
	if m.AttachmentURL.Valid {
		u := m.AttachmentURL.String
		resp.AttachmentURL = &u
	}
	return resp
}
