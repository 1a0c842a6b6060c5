package routes

import (
	"errors"
	"log"

	"bodima-server/models"
	"bodima-server/services"
	"bodima-server/storage"
	"bodima-server/utils"

	"github.com/kataras/iris/v12"
)

var notificationService = services.NewNotificationService()

func CreateMessage(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	var input CreateMessageInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	senderID := currentUserID(ctx)

	message, sendErr := services.SendMessage(id, senderID, input.Body)
	if sendErr != nil {
		if errors.Is(sendErr, services.ErrEmptyMessage) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Message body cannot be empty.", ctx)
			return
		}
		handleConversationError(sendErr, ctx)
		return
	}

	go notifyCounterpart(message, senderID)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

func GetMessagesByConversationID(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	viewerID := currentUserID(ctx)

	messages, err := services.MessageHistory(id, viewerID)
	if err != nil {
		handleConversationError(err, ctx)
		return
	}

	ctx.JSON(messages)
}

func notifyCounterpart(message *models.Message, senderID uint) {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, message.ConversationID).Error; err != nil {
		log.Printf("notify: conversation %d load failed: %v", message.ConversationID, err)
		return
	}

	receiverID := conversation.OwnerID
	if conversation.OwnerID == senderID {
		receiverID = conversation.SeekerID
	}

	var sender models.User
	if err := storage.DB.First(&sender, senderID).Error; err != nil {
		log.Printf("notify: sender %d load failed: %v", senderID, err)
		return
	}

	senderName := utils.DisplayName(sender.FullName, sender.Email)
	preview := message.Body
	if len(preview) > 100 {
		preview = preview[:100]
	}

	if err := notificationService.SendMessageNotification(receiverID, conversation.ID, senderName, preview); err != nil {
		log.Printf("notify: push to user %d failed: %v", receiverID, err)
	}
}

type CreateMessageInput struct {
	Body string `json:"body" validate:"required"`
}
