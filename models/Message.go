package models

import (
	"time"

	"gorm.io/gorm"
)

// Acknowledgment states for a message. The state only ever moves forward:
// messages are inserted as sent and jump to seen in bulk when the counterpart
// opens the thread. Delivered is declared for wire compatibility but nothing
// writes it yet; a genuine delivery signal would need an ack channel.
const (
	AckSent      = "sent"
	AckDelivered = "delivered"
	AckSeen      = "seen"
)

// Sender roles, derived server-side from the conversation's participant ids.
const (
	SenderSeeker = "seeker"
	SenderOwner  = "owner"
)

type Message struct {
	gorm.Model
	ConversationID uint       `json:"conversationID" gorm:"index;not null"`
	SenderType     string     `json:"senderType" gorm:"size:16"` // seeker | owner
	SenderID       uint       `json:"senderID" gorm:"index"`
	Body           string     `json:"body" gorm:"type:text"`
	AckStatus      string     `json:"ackStatus" gorm:"size:16;index;default:'sent'"`
	SeenAt         *time.Time `json:"seenAt"`
}
