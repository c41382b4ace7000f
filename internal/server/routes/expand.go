package routes

import (
	"context"
	"net/http"

	"github.com/OFFIS-RIT/annograph/backend/internal/session"
	"github.com/OFFIS-RIT/annograph/backend/pkg/answer"

	"github.com/labstack/echo/v4"
)

// startExpansion checks that the question accepts model requests and runs
// fn in the background.
func startExpansion(c echo.Context, qaID, name string, fn func(ctx context.Context, o *answer.Orchestrator) error) error {
	sess, qa, ok, err := loadChat(c, qaID)
	if !ok {
		return err
	}
	if qa.ModelStatus.ModelError {
		return c.JSON(http.StatusConflict, messageResponse{Message: answer.ErrModelError.Error()})
	}

	start(sess, name, fn)
	return c.JSON(http.StatusAccepted, messageResponse{Message: "Request started"})
}

func start(sess *session.Session, name string, fn func(ctx context.Context, o *answer.Orchestrator) error) {
	o := sess.Orchestrator()
	sess.Go(name, func(ctx context.Context) error {
		return fn(ctx, o)
	})
}

func AddParagraphHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	return startExpansion(c, params.ID, "paragraph", func(ctx context.Context, o *answer.Orchestrator) error {
		return o.AddParagraph(ctx, params.ID)
	})
}

func TellMoreHandler(c echo.Context) error {
	params := new(objectParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	return startExpansion(c, params.ID, "tell_more", func(ctx context.Context, o *answer.Orchestrator) error {
		return o.TellMore(ctx, params.ID, params.ObjectID)
	})
}

func ExpandNodeHandler(c echo.Context) error {
	type expandNodeParams struct {
		ID       string `param:"id" validate:"required"`
		ObjectID string `param:"object_id" validate:"required"`
		NodeID   string `param:"node_id" validate:"required"`
		Mode     string `json:"mode" validate:"omitempty,oneof=explain examples"`
	}

	params := new(expandNodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, qa, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	obj, ok := qa.Object(params.ObjectID)
	if !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Answer object not found"})
	}
	if _, ok := obj.OriginText.FindNode(params.NodeID); !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Node not found"})
	}
	if qa.ModelStatus.ModelError {
		return c.JSON(http.StatusConflict, messageResponse{Message: answer.ErrModelError.Error()})
	}

	start(sess, "expand_node", func(ctx context.Context, o *answer.Orchestrator) error {
		return o.ExpandNode(ctx, params.ID, params.ObjectID, params.NodeID, answer.ExpandMode(params.Mode))
	})

	return c.JSON(http.StatusAccepted, messageResponse{Message: "Request started"})
}

func SelfCorrectHandler(c echo.Context) error {
	params := new(objectParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	return startExpansion(c, params.ID, "self_correction", func(ctx context.Context, o *answer.Orchestrator) error {
		return o.HandleSelfCorrection(ctx, params.ID, params.ObjectID)
	})
}
