package services

import (
	"testing"

	"bodima-server/models"
	"bodima-server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-level storage handle at a fresh in-memory
// database for the duration of one test.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyFacilities{},
		&models.PropertyImage{},
		&models.Conversation{},
		&models.Message{},
		&models.ViewingRequest{},
	))

	prev := storage.DB
	storage.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		storage.DB = prev
	})
}

func seedParticipants(t *testing.T) (seeker, owner models.User, property models.Property) {
	t.Helper()

	seeker = models.User{FullName: "Nimal Perera", Email: "nimal@example.com", Role: "seeker"}
	owner = models.User{FullName: "Kamala Silva", Email: "kamala@example.com", Role: "owner"}
	require.NoError(t, storage.DB.Create(&seeker).Error)
	require.NoError(t, storage.DB.Create(&owner).Error)

	property = models.Property{
		OwnerID:       owner.ID,
		Type:          "single_room",
		TotalCapacity: 2,
		CostType:      "per_person",
		Cost:          15000,
		District:      "Colombo",
		Latitude:      6.9271,
		Longitude:     79.8612,
	}
	require.NoError(t, storage.DB.Create(&property).Error)
	return seeker, owner, property
}

func TestFindOrCreateConversationIsIdempotent(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	first, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	storage.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindOrCreateConversationSeparatesProperties(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	other := models.Property{OwnerID: owner.ID, Type: "hostel", TotalCapacity: 10,
		CostType: "per_person", Cost: 9000, District: "Kandy"}
	require.NoError(t, storage.DB.Create(&other).Error)

	first, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	second, err := FindOrCreateConversation(seeker.ID, owner.ID, &other.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestFindOrCreateConversationRejectsSelf(t *testing.T) {
	setupTestDB(t)
	seeker, _, property := seedParticipants(t)

	_, err := FindOrCreateConversation(seeker.ID, seeker.ID, &property.ID)
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestSendMessageUpdatesPreviewAndUnread(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	message, err := SendMessage(conversation.ID, seeker.ID, "  Is the room still available?  ")
	require.NoError(t, err)

	assert.Equal(t, "Is the room still available?", message.Body)
	assert.Equal(t, models.SenderSeeker, message.SenderType)
	assert.Equal(t, models.AckSent, message.AckStatus)
	assert.Nil(t, message.SeenAt)

	var reloaded models.Conversation
	require.NoError(t, storage.DB.First(&reloaded, conversation.ID).Error)
	require.NotNil(t, reloaded.LastMessage)
	assert.Equal(t, "Is the room still available?", *reloaded.LastMessage)
	assert.NotNil(t, reloaded.LastMessageAt)
	assert.Equal(t, 1, reloaded.OwnerUnreadCount)
	assert.Equal(t, 0, reloaded.SeekerUnreadCount)
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, seeker.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	var count int64
	storage.DB.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count)

	var reloaded models.Conversation
	require.NoError(t, storage.DB.First(&reloaded, conversation.ID).Error)
	assert.Nil(t, reloaded.LastMessage)
	assert.Zero(t, reloaded.OwnerUnreadCount)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	stranger := models.User{FullName: "Sunil", Email: "sunil@example.com", Role: "seeker"}
	require.NoError(t, storage.DB.Create(&stranger).Error)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, stranger.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkConversationSeen(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, seeker.ID, "first")
	require.NoError(t, err)
	_, err = SendMessage(conversation.ID, seeker.ID, "second")
	require.NoError(t, err)

	require.NoError(t, MarkConversationSeen(conversation.ID, owner.ID))

	var messages []models.Message
	require.NoError(t, storage.DB.Where("conversation_id = ?", conversation.ID).Find(&messages).Error)
	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.Equal(t, models.AckSeen, m.AckStatus)
		assert.NotNil(t, m.SeenAt)
	}

	var reloaded models.Conversation
	require.NoError(t, storage.DB.First(&reloaded, conversation.ID).Error)
	assert.Zero(t, reloaded.OwnerUnreadCount)

	// Repeat call is a no-op, not an error.
	require.NoError(t, MarkConversationSeen(conversation.ID, owner.ID))
}

func TestMarkConversationSeenLeavesOwnMessagesAlone(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, seeker.ID, "from seeker")
	require.NoError(t, err)

	require.NoError(t, MarkConversationSeen(conversation.ID, seeker.ID))

	var message models.Message
	require.NoError(t, storage.DB.Where("conversation_id = ?", conversation.ID).First(&message).Error)
	assert.Equal(t, models.AckSent, message.AckStatus)
	assert.Nil(t, message.SeenAt)
}

func TestMessageHistoryOrderAndMembership(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, seeker.ID, "one")
	require.NoError(t, err)
	_, err = SendMessage(conversation.ID, owner.ID, "two")
	require.NoError(t, err)
	_, err = SendMessage(conversation.ID, seeker.ID, "three")
	require.NoError(t, err)

	messages, err := MessageHistory(conversation.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Body)
	assert.Equal(t, "two", messages[1].Body)
	assert.Equal(t, "three", messages[2].Body)

	stranger := models.User{Email: "stranger@example.com"}
	require.NoError(t, storage.DB.Create(&stranger).Error)
	_, err = MessageHistory(conversation.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestConversationSummaries(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)

	_, err = SendMessage(conversation.ID, seeker.ID, "hello there")
	require.NoError(t, err)

	ownerView, err := ConversationSummaries(owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerView, 1)

	summary := ownerView[0]
	assert.Equal(t, conversation.ID, summary.ConversationID)
	assert.Equal(t, models.SenderOwner, summary.Role)
	assert.Equal(t, seeker.ID, summary.CounterpartID)
	assert.Equal(t, "Nimal Perera", summary.CounterpartName)
	assert.Equal(t, 1, summary.UnreadCount)
	require.NotNil(t, summary.LastMessage)
	assert.Equal(t, "hello there", *summary.LastMessage)

	seekerView, err := ConversationSummaries(seeker.ID)
	require.NoError(t, err)
	require.Len(t, seekerView, 1)
	assert.Equal(t, models.SenderSeeker, seekerView[0].Role)
	assert.Zero(t, seekerView[0].UnreadCount)
}

func TestConversationSummariesNameFallsBackToEmail(t *testing.T) {
	setupTestDB(t)
	seeker, owner, property := seedParticipants(t)

	require.NoError(t, storage.DB.Model(&models.User{}).
		Where("id = ?", seeker.ID).Update("full_name", "").Error)

	conversation, err := FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	require.NoError(t, err)
	_, err = SendMessage(conversation.ID, seeker.ID, "hi")
	require.NoError(t, err)

	ownerView, err := ConversationSummaries(owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerView, 1)
	assert.Equal(t, "nimal@example.com", ownerView[0].CounterpartName)
}
