package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

func GetChatsHandler(c echo.Context) error {
	type responseData struct {
		ID            string             `json:"id"`
		Question      string             `json:"question"`
		AnswerObjects int                `json:"answer_objects"`
		ModelStatus   common.ModelStatus `json:"model_status"`
	}

	sess, err := middleware.Session(c)
	if err != nil {
		return internalError(c, "Failed to load session", err)
	}

	chats := sess.Repository().List()
	resp := make([]responseData, 0, len(chats))
	for _, qa := range chats {
		resp = append(resp, responseData{
			ID:            qa.ID,
			Question:      qa.Question,
			AnswerObjects: len(qa.AnswerObjects),
			ModelStatus:   qa.ModelStatus,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

func CreateChatHandler(c echo.Context) error {
	type createChatBody struct {
		Question string `json:"question" validate:"required"`
	}

	data := new(createChatBody)
	if err := bind(c, data); err != nil {
		return badRequest(c)
	}
	data.Question = strings.TrimSpace(data.Question)
	if data.Question == "" {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "question is required"})
	}

	sess, err := middleware.Session(c)
	if err != nil {
		return internalError(c, "Failed to load session", err)
	}

	o := sess.Orchestrator()
	qa, err := o.CreateQuestion(data.Question)
	if err != nil {
		return internalError(c, "Failed to create chat", err)
	}
	sess.Go("answer", func(ctx context.Context) error {
		return o.Answer(ctx, qa.ID)
	})

	return c.JSON(http.StatusAccepted, qa)
}

func GetChatHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	_, qa, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, qa)
}

func DeleteChatHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, err := middleware.Session(c)
	if err != nil {
		return internalError(c, "Failed to load session", err)
	}
	if !sess.Repository().Remove(params.ID) {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Chat not found"})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Chat deleted successfully"})
}

func PatchChatHandler(c echo.Context) error {
	type patchChatParams struct {
		ID             string `param:"id" validate:"required"`
		SaliencyFilter string `json:"saliency_filter" validate:"required,oneof=high low"`
	}

	params := new(patchChatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	sess.Repository().SetSaliencyFilter(params.ID, common.Saliency(params.SaliencyFilter))

	qa, _ := sess.Repository().Get(params.ID)
	return c.JSON(http.StatusOK, qa)
}

func ClearModelErrorHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	sess.Orchestrator().ClearModelError(params.ID)

	qa, _ := sess.Repository().Get(params.ID)
	return c.JSON(http.StatusOK, qa)
}

func ClearCoreferencesHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	sess.Repository().ClearCoreferences(params.ID)

	return c.NoContent(http.StatusNoContent)
}
