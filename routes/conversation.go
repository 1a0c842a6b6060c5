package routes

import (
	"errors"

	"bodima-server/models"
	"bodima-server/services"
	"bodima-server/storage"
	"bodima-server/utils"

	"github.com/kataras/iris/v12"
)

func CreateConversation(ctx iris.Context) {
	var input CreateConversationInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	seekerID := currentUserID(ctx)

	var ownerID uint
	propertyID := input.PropertyID
	if propertyID != nil {
		var property models.Property
		propertyExists := storage.DB.Where("id = ?", *propertyID).Find(&property)
		if propertyExists.Error != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		if propertyExists.RowsAffected == 0 {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
			return
		}
		ownerID = property.OwnerID
	} else if input.OwnerID != nil {
		ownerID = *input.OwnerID
	} else {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Either propertyID or ownerID is required.", ctx)
		return
	}

	conversation, convErr := services.FindOrCreateConversation(seekerID, ownerID, propertyID)
	if convErr != nil {
		if errors.Is(convErr, services.ErrSelfConversation) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "You cannot start a conversation with yourself.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(conversation)
}

func GetConversationsByUserID(ctx iris.Context) {
	userID := currentUserID(ctx)

	summaries, err := services.ConversationSummaries(userID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(summaries)
}

func GetConversationByID(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	viewerID := currentUserID(ctx)

	conversation, err := services.GetConversation(id, viewerID)
	if err != nil {
		handleConversationError(err, ctx)
		return
	}

	counterpartID := conversation.OwnerID
	if conversation.OwnerID == viewerID {
		counterpartID = conversation.SeekerID
	}

	var counterpart models.User
	if loadErr := storage.DB.First(&counterpart, counterpartID).Error; loadErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	response := iris.Map{
		"conversation": conversation,
		"counterpart": iris.Map{
			"ID":        counterpart.ID,
			"name":      utils.DisplayName(counterpart.FullName, counterpart.Email),
			"avatarURL": counterpart.AvatarURL,
			"hue":       utils.AvatarHue(utils.DisplayName(counterpart.FullName, counterpart.Email)),
		},
	}

	if conversation.PropertyID != nil {
		var property models.Property
		propertyExists := storage.DB.Preload("Images").Where("id = ?", *conversation.PropertyID).Find(&property)
		if propertyExists.Error == nil && propertyExists.RowsAffected > 0 {
			response["property"] = iris.Map{
				"ID":            property.ID,
				"typeLabel":     utils.PropertyTypeLabel(property.Type),
				"district":      property.District,
				"cost":          property.Cost,
				"costType":      property.CostType,
				"coverImageURL": property.CoverImageURL,
			}
		}
	}

	ctx.JSON(response)
}

// MarkConversationRead flips the counterpart's messages to seen and zeroes the
// caller's unread counter. The client calls this when the thread is opened.
func MarkConversationRead(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	viewerID := currentUserID(ctx)

	if err := services.MarkConversationSeen(id, viewerID); err != nil {
		handleConversationError(err, ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func handleConversationError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", "Conversation not found", ctx)
	case errors.Is(err, services.ErrNotParticipant):
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You are not a participant of this conversation.", ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}

type CreateConversationInput struct {
	PropertyID *uint `json:"propertyID"`
	OwnerID    *uint `json:"ownerID"`
}
