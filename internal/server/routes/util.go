package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/internal/session"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type messageResponse struct {
	Message string `json:"message"`
}

type chatParams struct {
	ID string `param:"id" validate:"required"`
}

type objectParams struct {
	ID       string `param:"id" validate:"required"`
	ObjectID string `param:"object_id" validate:"required"`
}

func bind(c echo.Context, params any) error {
	if err := c.Bind(params); err != nil {
		return err
	}
	return c.Validate(params)
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
}

func internalError(c echo.Context, msg string, err error) error {
	logger.Error(msg, "err", err)
	return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
}

// loadChat resolves the session of the user and one of its questions. When
// ok is false a response was already written.
func loadChat(c echo.Context, qaID string) (*session.Session, common.QuestionAndAnswer, bool, error) {
	sess, err := middleware.Session(c)
	if err != nil {
		return nil, common.QuestionAndAnswer{}, false, internalError(c, "Failed to load session", err)
	}
	qa, ok := sess.Repository().Get(qaID)
	if !ok {
		return sess, qa, false, c.JSON(http.StatusNotFound, messageResponse{Message: "Chat not found"})
	}
	return sess, qa, true, nil
}
