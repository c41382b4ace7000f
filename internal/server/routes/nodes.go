package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

type nodeParams struct {
	ID       string `param:"id" validate:"required"`
	ObjectID string `param:"object_id" validate:"required"`
	NodeID   string `param:"node_id" validate:"required"`
}

func RemoveNodeHandler(c echo.Context) error {
	type removeNodeParams struct {
		ID       string `param:"id" validate:"required"`
		ObjectID string `param:"object_id" validate:"required"`
		NodeID   string `param:"node_id" validate:"required"`
		Target   string `query:"target"`
	}

	params := new(removeNodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}
	target, err := graph.ParseTarget(params.Target)
	if err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	sess.Repository().RemoveNode(params.ID, params.ObjectID, target, params.NodeID)

	qa, _ := sess.Repository().Get(params.ID)
	return c.JSON(http.StatusOK, qa)
}

func MergeNodeHandler(c echo.Context) error {
	type mergeNodeParams struct {
		ID       string `param:"id" validate:"required"`
		ObjectID string `param:"object_id" validate:"required"`
		NodeID   string `param:"node_id" validate:"required"`
		Into     string `json:"into" validate:"required"`
		Target   string `json:"target"`
	}

	type mergeNodeResponse struct {
		Merged bool                 `json:"merged"`
		Ranges []common.OriginRange `json:"ranges"`
	}

	params := new(mergeNodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}
	target, err := graph.ParseTarget(params.Target)
	if err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	ranges, merged := sess.Repository().MergeNode(params.ID, params.ObjectID, target, params.NodeID, params.Into)
	if ranges == nil {
		ranges = []common.OriginRange{}
	}

	return c.JSON(http.StatusOK, mergeNodeResponse{Merged: merged, Ranges: ranges})
}

func CollapseNodeHandler(c echo.Context) error {
	params := new(nodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	sess.Repository().ToggleCollapse(params.ID, params.ObjectID, params.NodeID)

	qa, _ := sess.Repository().Get(params.ID)
	return c.JSON(http.StatusOK, qa)
}

func HighlightCoreferencesHandler(c echo.Context) error {
	params := new(nodeParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	ranges, ok := sess.Repository().HighlightCoreferences(params.ID, params.ObjectID, params.NodeID)
	if !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Node not found"})
	}

	return c.JSON(http.StatusOK, ranges)
}
