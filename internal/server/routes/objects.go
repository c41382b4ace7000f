package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

func PatchObjectHandler(c echo.Context) error {
	type patchObjectParams struct {
		ID             string  `param:"id" validate:"required"`
		ObjectID       string  `param:"object_id" validate:"required"`
		ListDisplay    *string `json:"list_display" validate:"omitempty,oneof=original summary slide"`
		SaliencyFilter *string `json:"saliency_filter" validate:"omitempty,oneof=high low"`
		Highlighted    *bool   `json:"highlighted"`
		Hidden         *bool   `json:"hidden"`
	}

	params := new(patchObjectParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, qa, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	if _, ok := qa.Object(params.ObjectID); !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Answer object not found"})
	}

	repo := sess.Repository()
	if params.ListDisplay != nil {
		repo.SetListDisplay(params.ID, params.ObjectID, common.ListDisplay(*params.ListDisplay))
	}
	if params.SaliencyFilter != nil {
		repo.SetObjectSaliencyFilter(params.ID, params.ObjectID, common.Saliency(*params.SaliencyFilter))
	}
	if params.Highlighted != nil {
		repo.SetObjectHighlighted(params.ID, params.ObjectID, *params.Highlighted)
	}
	if params.Hidden != nil {
		repo.SetObjectHidden(params.ID, params.ObjectID, *params.Hidden)
	}

	qa, _ = repo.Get(params.ID)
	return c.JSON(http.StatusOK, qa)
}

func DeleteObjectHandler(c echo.Context) error {
	params := new(objectParams)
	if err := bind(c, params); err != nil {
		return badRequest(c)
	}

	sess, _, ok, err := loadChat(c, params.ID)
	if !ok {
		return err
	}
	if !sess.Repository().RemoveObject(params.ID, params.ObjectID) {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Answer object not found"})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Answer object deleted successfully"})
}

func GetSegmentsHandler(c echo.Context) error {
	type segmentsParams struct {
		ID       string `param:"id" validate:"required"`
		ObjectID string `param:"object_id" validate:"required"`
		Target   string `query:"target"`
	}

	params := new(segmentsParams)
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
	segments, ok := sess.Repository().Segments(params.ID, params.ObjectID, target)
	if !ok {
		return c.JSON(http.StatusNotFound, messageResponse{Message: "Answer object not found"})
	}

	return c.JSON(http.StatusOK, segments)
}
