package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/krishmajumdar12/Leaps-sub000/internal/api/testutils"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHistoryOrderedWithSenderNames(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)
	ctx := context.Background()

	_, err := tc.Service.SaveChatMessage(ctx, tc.CreatorID, tripID, "anyone up for hiking?", nil)
	require.NoError(t, err)
	_, err = tc.Service.SaveChatMessage(ctx, tc.MemberID, tripID, "count me in", nil)
	require.NoError(t, err)

	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID+"/messages", nil, testutils.AuthHeaders(tc.MemberJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)

	assert.Equal(t, "anyone up for hiking?", resp.Messages[0].Content)
	assert.Equal(t, "Casey Creator", resp.Messages[0].SenderName)
	assert.Equal(t, "count me in", resp.Messages[1].Content)
	assert.Equal(t, "Morgan Member", resp.Messages[1].SenderName)
	assert.False(t, resp.Messages[0].CreatedAt.After(resp.Messages[1].CreatedAt))
}

func TestChatHistoryMembersOnly(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)

	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips/"+tripID+"/messages", nil, testutils.AuthHeaders(tc.OutsiderJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveChatMessageValidation(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tripID := tc.CreateTestTrip(t)
	ctx := context.Background()

	_, err := tc.Service.SaveChatMessage(ctx, tc.CreatorID, tripID, "", nil)
	assert.Error(t, err)

	_, err = tc.Service.SaveChatMessage(ctx, "no-such-user", tripID, "hello?", nil)
	assert.Error(t, err)

	msg, err := tc.Service.SaveChatMessage(ctx, tc.CreatorID, tripID, "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Casey Creator", msg.SenderName)
}
