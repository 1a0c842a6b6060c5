package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is the single thread between one seeker and one owner,
// optionally scoped to the property that prompted contact. The last-message
// preview and the per-role unread counters are denormalized here so the
// messages list renders from one query.
//
// The composite unique index backs the find-or-create path: concurrent
// creation attempts for the same (seeker, owner, property) converge on one
// row. Postgres treats NULL property_id values as distinct in the index, so
// property-less threads are only best-effort deduplicated.
type Conversation struct {
	gorm.Model
	SeekerID          uint       `json:"seekerID" gorm:"uniqueIndex:idx_conversation_participants;index"`
	OwnerID           uint       `json:"ownerID" gorm:"uniqueIndex:idx_conversation_participants;index"`
	PropertyID        *uint      `json:"propertyID" gorm:"uniqueIndex:idx_conversation_participants"`
	LastMessage       *string    `json:"lastMessage" gorm:"size:2000"`
	LastMessageAt     *time.Time `json:"lastMessageAt"`
	SeekerUnreadCount int        `json:"seekerUnreadCount" gorm:"default:0"`
	OwnerUnreadCount  int        `json:"ownerUnreadCount" gorm:"default:0"`

	Seeker   User      `json:"-" gorm:"foreignKey:SeekerID;references:ID"`
	Owner    User      `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Property *Property `json:"property,omitempty"`
}
