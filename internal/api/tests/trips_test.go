package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/krishmajumdar12/Leaps-sub000/internal/api/testutils"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTripSeedsCreatorMembership(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips", models.CreateTripRequest{
		Name:        "Alps Hike",
		Destination: "Chamonix",
		StartDate:   "2026-10-01",
		EndDate:     "2026-10-05",
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Alps Hike", resp.Trip.Name)
	assert.Equal(t, models.TripStatusUpcoming, resp.Trip.Status)
	assert.Equal(t, tc.CreatorID, resp.Trip.CreatedBy)

	require.Len(t, resp.Members, 1)
	assert.Equal(t, tc.CreatorID, resp.Members[0].UserID)
	assert.Equal(t, models.RoleCreator, resp.Members[0].Role)
	assert.Equal(t, 1.0, resp.Members[0].CostRatio)
}

func TestCreateTripRejectsBadDates(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips", models.CreateTripRequest{
		Name:        "Backwards",
		Destination: "Nowhere",
		StartDate:   "2026-10-05",
		EndDate:     "2026-10-01",
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips", models.CreateTripRequest{
		Name:        "Garbled",
		Destination: "Nowhere",
		StartDate:   "not-a-date",
		EndDate:     "2026-10-01",
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTripVisibility(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	// Members see the trip with its membership list.
	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Members, 2)
	assert.False(t, resp.Cancelled)

	// Non-members get a 404, not a 403, so trip ids cannot be probed.
	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPublicTripVisibleToNonMembers(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips", models.CreateTripRequest{
		Name:        "Open Invite",
		Destination: "Porto",
		StartDate:   "2026-11-01",
		EndDate:     "2026-11-03",
		IsPublic:    true,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+created.Trip.ID, nil, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTripsReturnsOnlyMemberships(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tc.CreateTestTrip(t)

	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips", nil, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TripListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Trips, 1)

	// A user with no memberships gets an empty list, not null.
	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips", nil, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Trips)
	assert.Empty(t, resp.Trips)
}

func TestUpdateTripRequiresCreatorOrCoCreator(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	// The second member holds the edit role, which is not enough.
	w := testutils.PerformRequest(tc.Router, http.MethodPut, "/api/trips/"+tripID, models.UpdateTripRequest{
		Name: ptr("Renamed"),
	}, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPut, "/api/trips/"+tripID, models.UpdateTripRequest{
		Name:        ptr("Renamed"),
		Description: ptr("now with a description"),
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Renamed", resp.Trip.Name)
	assert.Equal(t, "now with a description", resp.Trip.Description)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Lisbon", resp.Trip.Destination)

	// The other members were told about the update; the actor was not.
	var recipients []string
	for _, n := range tc.Repo.NotificationRows() {
		if n.Kind == models.NotifyTripUpdate {
			recipients = append(recipients, n.UserID)
		}
	}
	assert.Equal(t, []string{tc.MemberID}, recipients)
}

func TestCoCreatorCanUpdateTrip(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-member", models.AddMemberRequest{
		TripID: tripID,
		Email:  "outsider@example.com",
		Role:   models.RoleCoCreator,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPut, "/api/trips/"+tripID, models.UpdateTripRequest{
		Status: ptr(models.TripStatusCurrent),
	}, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.TripStatusCurrent, resp.Trip.Status)
}

func TestDeleteTripCreatorOnly(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	w := testutils.PerformRequest(tc.Router, http.MethodDelete, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodDelete, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddMemberAuthorization(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	// Edit-role members cannot grow the trip.
	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-member", models.AddMemberRequest{
		TripID: tripID,
		Email:  "outsider@example.com",
		Role:   models.RoleView,
	}, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown email.
	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-member", models.AddMemberRequest{
		TripID: tripID,
		Email:  "ghost@example.com",
		Role:   models.RoleView,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-member", models.AddMemberRequest{
		TripID: tripID,
		Email:  "outsider@example.com",
		Role:   models.RoleView,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Members, 3)

	// New members join with a zero cost weight until the creator assigns one.
	for _, m := range resp.Members {
		if m.UserID == tc.OutsiderID {
			assert.Equal(t, models.RoleView, m.Role)
			assert.Equal(t, 0.0, m.CostRatio)
		}
	}

	// The added user gets a member_added notification.
	var found bool
	for _, n := range tc.Repo.NotificationRows() {
		if n.Kind == models.NotifyMemberAdded && n.UserID == tc.OutsiderID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCancellationVoteMajorityDerivedOnRead(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	// One vote out of two members is not a majority.
	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/cancel-vote", models.CancelVoteRequest{
		TripID: tripID,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CancelVoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Votes)
	assert.Equal(t, 2, resp.Members)
	assert.False(t, resp.Cancelled)

	// A repeat vote by the same member changes nothing.
	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/cancel-vote", models.CancelVoteRequest{
		TripID: tripID,
	}, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Votes)
	assert.False(t, resp.Cancelled)

	// The second member tips the tally past half.
	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/cancel-vote", models.CancelVoteRequest{
		TripID: tripID,
	}, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Votes)
	assert.True(t, resp.Cancelled)

	// The condition is recomputed when the trip is read.
	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID, nil, testutils.AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var trip models.TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trip))
	assert.True(t, trip.Cancelled)

	// Non-members cannot vote.
	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/trips/cancel-vote", models.CancelVoteRequest{
		TripID: tripID,
	}, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
