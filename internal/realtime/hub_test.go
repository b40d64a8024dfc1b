package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements ChatStore in memory.
type fakeStore struct {
	members  map[string]map[string]bool // trip -> user
	failSave bool
	saved    []*models.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[string]map[string]bool)}
}

func (f *fakeStore) addMember(tripID, userID string) {
	if f.members[tripID] == nil {
		f.members[tripID] = make(map[string]bool)
	}
	f.members[tripID][userID] = true
}

func (f *fakeStore) SaveChatMessage(ctx context.Context, senderID, tripID, content string, attachmentURL *string) (*models.ChatMessage, error) {
	if f.failSave {
		return nil, errors.New("simulated persist failure")
	}
	msg := &models.ChatMessage{
		ID:         uuid.New().String(),
		TripID:     tripID,
		SenderID:   senderID,
		SenderName: "user " + senderID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakeStore) IsTripMember(ctx context.Context, tripID, userID string) (bool, error) {
	return f.members[tripID][userID], nil
}

func setupHub(t *testing.T, store ChatStore) *Hub {
	t.Helper()
	hub := NewHub(store)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Send():
		require.True(t, ok, "send channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Send():
		t.Fatalf("unexpected event %q", ev.Event)
	default:
	}
}

func TestJoinRejectsNonMember(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	hub := setupHub(t, store)

	bob := NewClient(hub, "bob")
	bob.handleEvent(context.Background(), Event{Event: EventJoinTripChat, TripID: "trip-1"})

	ev := recvEvent(t, bob)
	assert.Equal(t, EventError, ev.Event)
	assert.False(t, bob.joined["trip-1"])
}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	store.addMember("trip-1", "bob")
	hub := setupHub(t, store)
	ctx := context.Background()

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	alice.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})
	bob.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})

	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-1", Content: "hello"})

	// Everyone in the room, the sender included, receives the persisted
	// message with its server-assigned id and timestamp.
	for _, c := range []*Client{alice, bob} {
		ev := recvEvent(t, c)
		assert.Equal(t, EventReceiveMessage, ev.Event)
		require.NotNil(t, ev.Message)
		assert.Equal(t, "hello", ev.Message.Content)
		assert.NotEmpty(t, ev.Message.ID)
		assert.False(t, ev.Message.CreatedAt.IsZero())
		assert.Equal(t, "alice", ev.Message.SenderID)
	}

	require.Len(t, store.saved, 1)
}

func TestFailedPersistIsNeverBroadcast(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	store.addMember("trip-1", "bob")
	hub := setupHub(t, store)
	ctx := context.Background()

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	alice.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})
	bob.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})

	store.failSave = true
	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-1", Content: "doomed"})

	// Only the sender hears about the failure; nothing reaches the room.
	ev := recvEvent(t, alice)
	assert.Equal(t, EventError, ev.Event)
	assertNoEvent(t, alice)
	assertNoEvent(t, bob)
	assert.Empty(t, store.saved)
}

func TestSendRequiresJoin(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	hub := setupHub(t, store)

	alice := NewClient(hub, "alice")
	alice.handleEvent(context.Background(), Event{Event: EventSendMessage, TripID: "trip-1", Content: "hi"})

	ev := recvEvent(t, alice)
	assert.Equal(t, EventError, ev.Event)
	assert.Empty(t, store.saved)
}

func TestTypingRelaysToOthersOnly(t *testing.T) {
	store := newFakeStore()
	for _, user := range []string{"alice", "bob", "carol"} {
		store.addMember("trip-1", user)
	}
	hub := setupHub(t, store)
	ctx := context.Background()

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	carol := NewClient(hub, "carol")
	for _, c := range []*Client{alice, bob, carol} {
		c.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})
	}

	alice.handleEvent(ctx, Event{Event: EventTyping, TripID: "trip-1", Username: "Alice", IsTyping: true})

	for _, c := range []*Client{bob, carol} {
		ev := recvEvent(t, c)
		assert.Equal(t, EventUserTyping, ev.Event)
		assert.Equal(t, "alice", ev.UserID)
		assert.Equal(t, "Alice", ev.Username)
		assert.True(t, ev.IsTyping)
	}

	// Typing is never echoed back to the sender and never persisted.
	assertNoEvent(t, alice)
	assert.Empty(t, store.saved)
}

func TestLeaveReturnsToConnected(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	store.addMember("trip-1", "bob")
	hub := setupHub(t, store)
	ctx := context.Background()

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	alice.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})
	bob.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})

	bob.handleEvent(ctx, Event{Event: EventLeaveTripChat, TripID: "trip-1"})

	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-1", Content: "after leave"})

	ev := recvEvent(t, alice)
	assert.Equal(t, EventReceiveMessage, ev.Event)
	assertNoEvent(t, bob)

	// A connection that left a room can rejoin it later.
	bob.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: "trip-1"})
	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-1", Content: "after rejoin"})

	ev = recvEvent(t, bob)
	assert.Equal(t, EventReceiveMessage, ev.Event)
	assert.Equal(t, "after rejoin", ev.Message.Content)
}

func TestDisconnectRemovesFromAllRooms(t *testing.T) {
	store := newFakeStore()
	store.addMember("trip-1", "alice")
	store.addMember("trip-1", "bob")
	store.addMember("trip-2", "alice")
	store.addMember("trip-2", "bob")
	hub := setupHub(t, store)
	ctx := context.Background()

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	for _, trip := range []string{"trip-1", "trip-2"} {
		alice.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: trip})
		bob.handleEvent(ctx, Event{Event: EventJoinTripChat, TripID: trip})
	}

	hub.Unregister(bob)

	// The hub closes the channel once the client is out of every room.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-bob.Send():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-1", Content: "still here"})
	alice.handleEvent(ctx, Event{Event: EventSendMessage, TripID: "trip-2", Content: "both rooms"})

	assert.Equal(t, EventReceiveMessage, recvEvent(t, alice).Event)
	assert.Equal(t, EventReceiveMessage, recvEvent(t, alice).Event)
}
