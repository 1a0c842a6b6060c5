package services

import (
	"errors"
	"time"

	"bodima-server/models"
	"bodima-server/storage"

	"gorm.io/gorm"
)

var (
	ErrViewingNotFound     = errors.New("viewing request not found")
	ErrViewingInPast       = errors.New("requested viewing time is in the past")
	ErrViewingNoProperty   = errors.New("conversation has no property to view")
	ErrNotSeeker           = errors.New("only the seeker may request a viewing")
	ErrNotOwner            = errors.New("only the owner may decide a viewing request")
	ErrViewingAlreadyDecided = errors.New("viewing request is already decided")
)

// CreateViewingRequest proposes an in-person viewing inside a conversation.
// Only the conversation's seeker may create one, the thread must be about a
// property, and the requested time must be in the future. All checks run
// before anything is persisted.
func CreateViewingRequest(conversationID, callerID uint, requestedAt time.Time) (*models.ViewingRequest, error) {
	conversation, err := GetConversation(conversationID, callerID)
	if err != nil {
		return nil, err
	}
	if conversation.SeekerID != callerID {
		return nil, ErrNotSeeker
	}
	if conversation.PropertyID == nil {
		return nil, ErrViewingNoProperty
	}
	if !requestedAt.After(time.Now()) {
		return nil, ErrViewingInPast
	}

	request := models.ViewingRequest{
		SeekerID:    conversation.SeekerID,
		OwnerID:     conversation.OwnerID,
		PropertyID:  *conversation.PropertyID,
		RequestedAt: requestedAt,
		Status:      models.ViewingPending,
	}
	if err := storage.DB.Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// AcceptViewingRequest moves a pending request to accepted and clears any
// decline reason. Deciding an already-decided request is a conflict, not a
// re-apply.
func AcceptViewingRequest(requestID, callerID uint) (*models.ViewingRequest, error) {
	request, err := decidableRequest(requestID, callerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         models.ViewingAccepted,
		"decline_reason": nil,
	}
	if err := storage.DB.Model(request).Updates(updates).Error; err != nil {
		return nil, err
	}
	request.Status = models.ViewingAccepted
	request.DeclineReason = nil
	return request, nil
}

// DeclineViewingRequest moves a pending request to declined, storing the
// optional reason.
func DeclineViewingRequest(requestID, callerID uint, reason *string) (*models.ViewingRequest, error) {
	request, err := decidableRequest(requestID, callerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         models.ViewingDeclined,
		"decline_reason": reason,
	}
	if err := storage.DB.Model(request).Updates(updates).Error; err != nil {
		return nil, err
	}
	request.Status = models.ViewingDeclined
	request.DeclineReason = reason
	return request, nil
}

func decidableRequest(requestID, callerID uint) (*models.ViewingRequest, error) {
	var request models.ViewingRequest
	if err := storage.DB.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewingNotFound
		}
		return nil, err
	}
	if request.OwnerID != callerID {
		return nil, ErrNotOwner
	}
	if request.Status != models.ViewingPending {
		return nil, ErrViewingAlreadyDecided
	}
	return &request, nil
}

// ViewingRequestsForConversation lists the requests visible in a thread,
// oldest first. Scoped to the conversation's property when it has one so a
// pair talking about several listings doesn't see requests leak across
// threads.
func ViewingRequestsForConversation(conversationID, viewerID uint) ([]models.ViewingRequest, error) {
	conversation, err := GetConversation(conversationID, viewerID)
	if err != nil {
		return nil, err
	}

	query := storage.DB.
		Where("seeker_id = ? AND owner_id = ?", conversation.SeekerID, conversation.OwnerID)
	if conversation.PropertyID != nil {
		query = query.Where("property_id = ?", *conversation.PropertyID)
	}

	var requests []models.ViewingRequest
	if err := query.Order("created_at ASC, id ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
