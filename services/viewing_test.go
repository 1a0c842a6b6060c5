package services

import (
	"testing"
	"time"

	"bodima-server/models"
	"bodima-server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateViewingRequest(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	when := time.Now().Add(48 * time.Hour)
	request, err := CreateViewingRequest(conversation.ID, seeker.ID, when)
	require.NoError(t, err)

	assert.Equal(t, models.ViewingPending, request.Status)
	assert.Equal(t, seeker.ID, request.SeekerID)
	assert.Equal(t, owner.ID, request.OwnerID)
	assert.Equal(t, property.ID, request.PropertyID)
	assert.Nil(t, request.DeclineReason)
}

func TestCreateViewingRequestOnlySeeker(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = CreateViewingRequest(conversation.ID, owner.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotSeeker)
}

func TestCreateViewingRequestRejectsPastTime(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrViewingInPast)

	// Nothing may be persisted when validation fails.
	var count int64
	storage.DB.Model(&models.ViewingRequest{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateViewingRequestNeedsProperty(t *testing.T) {
	setupTestDB(t)
	seeker, owner, _ := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, nil)
	require.NoError(t, err)

	_, err = CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrViewingNoProperty)
}

func TestAcceptViewingRequest(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	request, err := CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	accepted, err := AcceptViewingRequest(request.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ViewingAccepted, accepted.Status)

	// Deciding twice is a conflict, not a silent re-apply.
	_, err = AcceptViewingRequest(request.ID, owner.ID)
	assert.ErrorIs(t, err, ErrViewingAlreadyDecided)
	_, err = DeclineViewingRequest(request.ID, owner.ID, nil)
	assert.ErrorIs(t, err, ErrViewingAlreadyDecided)
}

func TestDeclineViewingRequestStoresReason(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	request, err := CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	reason := "Room is taken that week"
	declined, err := DeclineViewingRequest(request.ID, owner.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.ViewingDeclined, declined.Status)
	require.NotNil(t, declined.DeclineReason)
	assert.Equal(t, reason, *declined.DeclineReason)

	var reloaded models.ViewingRequest
	require.NoError(t, storage.DB.First(&reloaded, request.ID).Error)
	require.NotNil(t, reloaded.DeclineReason)
	assert.Equal(t, reason, *reloaded.DeclineReason)
}

func TestDecideViewingRequestOnlyOwner(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	request, err := CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = AcceptViewingRequest(request.ID, seeker.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = AcceptViewingRequest(9999, owner.ID)
	assert.ErrorIs(t, err, ErrViewingNotFound)
}

func TestViewingRequestsScopedToConversationProperty(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	other := models.Property{OwnerID: owner.ID, Type: "hostel", TotalCapacity: 6,
		CostType: "full_property", Cost: 60000, District: "Galle"}
	require.NoError(t, storage.DB.Create(&other).Error)

	first, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	second, err := FindOrCreateConversation(seeker.ID, owner.ID, &other.ID)
	require.NoError(t, err)

	_, err = CreateViewingRequest(first.ID, seeker.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = CreateViewingRequest(second.ID, seeker.ID, time.Now().Add(2*time.Hour))
	require.NoError(t, err)

	requests, err := ViewingRequestsForConversation(first.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, property.ID, requests[0].PropertyID)
}
