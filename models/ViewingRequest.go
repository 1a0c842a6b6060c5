package models

import (
	"time"

	"gorm.io/gorm"
)

// ViewingRequest statuses. Pending is the initial state; accepted and
// declined are terminal, there is no re-opening or rescheduling.
const (
	ViewingPending  = "pending"
	ViewingAccepted = "accepted"
	ViewingDeclined = "declined"
)

// ViewingRequest is a seeker's proposal to visit a property at a specific
// time. Only the seeker creates one and only the owner decides it.
type ViewingRequest struct {
	gorm.Model
	SeekerID      uint      `json:"seekerID" gorm:"index"`
	OwnerID       uint      `json:"ownerID" gorm:"index"`
	PropertyID    uint      `json:"propertyID" gorm:"index"`
	RequestedAt   time.Time `json:"requestedAt"`
	Status        string    `json:"status" gorm:"size:16;index;default:'pending'"`
	DeclineReason *string   `json:"declineReason"`
}
