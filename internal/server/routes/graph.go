package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/annograph/backend/internal/session"
	"github.com/OFFIS-RIT/annograph/backend/pkg/flow"

	"github.com/labstack/echo/v4"
)

type travelResponse struct {
	Graph      flow.Graph      `json:"graph"`
	Transition flow.Transition `json:"transition"`
}

func GetGraphHandler(c echo.Context) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	cv, _ := sess.Canvas(params.ID)

	return c.JSON(http.StatusOK, session.GraphEvent{
		QuestionID: params.ID,
		Graph:      cv.Graph(),
		CanUndo:    cv.CanUndo(),
		CanRedo:    cv.CanRedo(),
	})
}

func PatchGraphNodeHandler(c echo.Context) error {
	type patchNodeParams struct {
		ID       string         `param:"id" validate:"required"`
		NodeID   string         `param:"node_id" validate:"required"`
		Position *flow.Position `json:"position"`
		Selected *bool          `json:"selected"`
	}

	params := new(patchNodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	cv, _ := sess.Canvas(params.ID)
	if _, ok := cv.Graph().Node(params.NodeID); !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Node not found"})
	}

	g := cv.Graph()
	if params.Position != nil {
		g, _ = cv.MoveNode(params.NodeID, *params.Position)
	}
	if params.Selected != nil {
		g = cv.SelectNode(params.NodeID, *params.Selected)
	}
	sess.PublishGraph(params.ID, cv, g)

	return c.JSON(http.StatusOK, g)
}

func PutViewportHandler(c echo.Context) error {
	type viewportParams struct {
		ID   string  `param:"id" validate:"required"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Zoom float64 `json:"zoom" validate:"gt=0"`
	}

	params := new(viewportParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	cv, _ := sess.Canvas(params.ID)
	g := cv.SetViewport(flow.Viewport{X: params.X, Y: params.Y, Zoom: params.Zoom})

	return c.JSON(http.StatusOK, g)
}

func UndoHandler(c echo.Context) error {
	return travel(c, session.DirectionUndo)
}

func RedoHandler(c echo.Context) error {
	return travel(c, session.DirectionRedo)
}

func travel(c echo.Context, direction string) error {
	params := new(chatParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	g, tr, ok := sess.Travel(params.ID, direction)
	if !ok {
		return c.JSON(http.StatusConflict, messageResponse{Message: "Nothing to " + direction})
	}

	return c.JSON(http.StatusOK, travelResponse{Graph: g, Transition: tr})
}
