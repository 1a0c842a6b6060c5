package services

import (
	"errors"
	"strings"
	"time"

	"bodima-server/models"
	"bodima-server/storage"
	"bodima-server/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyMessage         = errors.New("message body is empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrSelfConversation     = errors.New("seeker and owner are the same user")
)

// FindOrCreateConversation returns the thread for (seeker, owner, property),
// creating it if it does not exist yet. The conflict clause plus the unique
// participants index makes concurrent first-contact taps converge on one row.
func FindOrCreateConversation(seekerID, ownerID uint, propertyID *uint) (*models.Conversation, error) {
	if seekerID == ownerID {
		return nil, ErrSelfConversation
	}

	scope := func() *gorm.DB {
		q := storage.DB.Where("seeker_id = ? AND owner_id = ?", seekerID, ownerID)
		if propertyID != nil {
			return q.Where("property_id = ?", *propertyID)
		}
		return q.Where("property_id IS NULL")
	}

	var conversation models.Conversation
	found := scope().Limit(1).Find(&conversation)
	if found.Error != nil {
		return nil, found.Error
	}
	if found.RowsAffected > 0 {
		return &conversation, nil
	}

	conversation = models.Conversation{
		SeekerID:   seekerID,
		OwnerID:    ownerID,
		PropertyID: propertyID,
	}
	created := storage.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&conversation)
	if created.Error != nil {
		return nil, created.Error
	}
	if conversation.ID != 0 {
		return &conversation, nil
	}

	// Lost the insert race; the winner's row is there now.
	if err := scope().First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetConversation loads a conversation after checking the viewer belongs to it.
func GetConversation(conversationID, viewerID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conversation.SeekerID != viewerID && conversation.OwnerID != viewerID {
		return nil, ErrNotParticipant
	}
	return &conversation, nil
}

// SendMessage appends a message to the thread. The body is trimmed and
// rejected when empty before any storage work. The sender type is derived by
// comparing the sender to the stored participant ids, never trusted from the
// client. The conversation preview and the counterpart's unread counter are
// updated in the same call.
func SendMessage(conversationID, senderID uint, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	conversation, err := GetConversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}

	senderType := models.SenderSeeker
	unreadColumn := "owner_unread_count"
	if conversation.OwnerID == senderID {
		senderType = models.SenderOwner
		unreadColumn = "seeker_unread_count"
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderType:     senderType,
		SenderID:       senderID,
		Body:           body,
		AckStatus:      models.AckSent,
	}
	if err := storage.DB.Create(&message).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"last_message":    message.Body,
		"last_message_at": message.CreatedAt,
		unreadColumn:      gorm.Expr(unreadColumn+" + ?", 1),
	}
	if err := storage.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return &message, nil
}

// MessageHistory returns the full thread in creation order. No pagination;
// threads here are short-lived rental inquiries.
func MessageHistory(conversationID, viewerID uint) ([]models.Message, error) {
	if _, err := GetConversation(conversationID, viewerID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := storage.DB.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationSeen flips every counterpart message that is not yet seen
// to seen, stamps the seen time, and zeroes the viewer's unread counter.
// Called when the viewer opens the thread; safe to call repeatedly.
func MarkConversationSeen(conversationID, viewerID uint) error {
	conversation, err := GetConversation(conversationID, viewerID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := storage.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND ack_status <> ?",
			conversationID, viewerID, models.AckSeen).
		Updates(map[string]interface{}{
			"ack_status": models.AckSeen,
			"seen_at":    now,
		}).Error; err != nil {
		return err
	}

	unreadColumn := "seeker_unread_count"
	if conversation.OwnerID == viewerID {
		unreadColumn = "owner_unread_count"
	}
	return storage.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update(unreadColumn, 0).Error
}

// ConversationSummary is one row of the messages tab: the counterpart's
// resolved display identity plus the denormalized preview fields.
type ConversationSummary struct {
	ConversationID       uint       `json:"conversationID"`
	Role                 string     `json:"role"` // the viewer's role in this thread
	PropertyID           *uint      `json:"propertyID"`
	CounterpartID        uint       `json:"counterpartID"`
	CounterpartName      string     `json:"counterpartName"`
	CounterpartAvatarURL string     `json:"counterpartAvatarURL"`
	CounterpartHue       int        `json:"counterpartHue"`
	LastMessage          *string    `json:"lastMessage"`
	LastMessageAt        *time.Time `json:"lastMessageAt"`
	UnreadCount          int        `json:"unreadCount"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ConversationSummaries lists every thread the user participates in, most
// recent activity first, with threads that never had a message at the end.
func ConversationSummaries(userID uint) ([]ConversationSummary, error) {
	var conversations []models.Conversation
	err := storage.DB.
		Where("seeker_id = ? OR owner_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]uint, 0, len(conversations))
	seen := make(map[uint]bool, len(conversations))
	for _, c := range conversations {
		otherID := c.SeekerID
		if c.SeekerID == userID {
			otherID = c.OwnerID
		}
		if !seen[otherID] {
			seen[otherID] = true
			counterpartIDs = append(counterpartIDs, otherID)
		}
	}

	profiles := make(map[uint]models.User, len(counterpartIDs))
	if len(counterpartIDs) > 0 {
		var users []models.User
		if err := storage.DB.Where("id IN ?", counterpartIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			profiles[u.ID] = u
		}
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		role := models.SenderSeeker
		otherID := c.OwnerID
		unread := c.SeekerUnreadCount
		if c.OwnerID == userID {
			role = models.SenderOwner
			otherID = c.SeekerID
			unread = c.OwnerUnreadCount
		}

		profile := profiles[otherID]
		name := utils.DisplayName(profile.FullName, profile.Email)

		summaries = append(summaries, ConversationSummary{
			ConversationID:       c.ID,
			Role:                 role,
			PropertyID:           c.PropertyID,
			CounterpartID:        otherID,
			CounterpartName:      name,
			CounterpartAvatarURL: profile.AvatarURL,
			CounterpartHue:       utils.AvatarHue(name),
			LastMessage:          c.LastMessage,
			LastMessageAt:        c.LastMessageAt,
			UnreadCount:          unread,
			CreatedAt:            c.CreatedAt,
		})
	}
	return summaries, nil
}
