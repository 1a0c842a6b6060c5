package routes

import (
	"errors"
	"time"

	"bodima-server/services"
	"bodima-server/utils"

	"github.com/kataras/iris/v12"
)

func CreateViewingRequest(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	var input CreateViewingRequestInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	callerID := currentUserID(ctx)

	request, createErr := services.CreateViewingRequest(id, callerID, input.RequestedAt)
	if createErr != nil {
		handleViewingError(createErr, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(request)
}

func AcceptViewingRequest(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid viewing request id.", ctx)
		return
	}

	callerID := currentUserID(ctx)

	request, err := services.AcceptViewingRequest(id, callerID)
	if err != nil {
		handleViewingError(err, ctx)
		return
	}

	ctx.JSON(request)
}

func DeclineViewingRequest(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid viewing request id.", ctx)
		return
	}

	var input DeclineViewingRequestInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	callerID := currentUserID(ctx)

	request, err := services.DeclineViewingRequest(id, callerID, input.Reason)
	if err != nil {
		handleViewingError(err, ctx)
		return
	}

	ctx.JSON(request)
}

func GetViewingRequestsByConversationID(ctx iris.Context) {
	id, idErr := ctx.Params().GetUint("id")
	if idErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid conversation id.", ctx)
		return
	}

	viewerID := currentUserID(ctx)

	requests, err := services.ViewingRequestsForConversation(id, viewerID)
	if err != nil {
		handleViewingError(err, ctx)
		return
	}

	ctx.JSON(requests)
}

func handleViewingError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrViewingNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", "Viewing request not found", ctx)
	case errors.Is(err, services.ErrViewingInPast):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Requested viewing time must be in the future.", ctx)
	case errors.Is(err, services.ErrViewingNoProperty):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "This conversation is not about a property.", ctx)
	case errors.Is(err, services.ErrNotSeeker):
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Only the seeker can request a viewing.", ctx)
	case errors.Is(err, services.ErrNotOwner):
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Only the owner can decide a viewing request.", ctx)
	case errors.Is(err, services.ErrViewingAlreadyDecided):
		utils.CreateError(iris.StatusConflict, "Conflict", "This viewing request has already been decided.", ctx)
	default:
		handleConversationError(err, ctx)
	}
}

type CreateViewingRequestInput struct {
	RequestedAt time.Time `json:"requestedAt" validate:"required"`
}

type DeclineViewingRequestInput struct {
	Reason *string `json:"reason"`
}
