package server

import (
	"github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.GET("/events", routes.EventsHandler)

	// Chat routes
	apiRoutes.GET("/chats", routes.GetChatsHandler)
	apiRoutes.POST("/chats", routes.CreateChatHandler)
	apiRoutes.GET("/chats/:id", routes.GetChatHandler)
	apiRoutes.PATCH("/chats/:id", routes.PatchChatHandler)
	apiRoutes.DELETE("/chats/:id", routes.DeleteChatHandler)
	apiRoutes.DELETE("/chats/:id/error", routes.ClearModelErrorHandler)
	apiRoutes.DELETE("/chats/:id/coreferences", routes.ClearCoreferencesHandler)
	apiRoutes.POST("/chats/:id/paragraphs", routes.AddParagraphHandler)

	// Answer object routes
	apiRoutes.PATCH("/chats/:id/objects/:object_id", routes.PatchObjectHandler)
	apiRoutes.DELETE("/chats/:id/objects/:object_id", routes.DeleteObjectHandler)
	apiRoutes.GET("/chats/:id/objects/:object_id/segments", routes.GetSegmentsHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/more", routes.TellMoreHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/correct", routes.SelfCorrectHandler)

	// Node routes
	apiRoutes.DELETE("/chats/:id/objects/:object_id/nodes/:node_id", routes.RemoveNodeHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/nodes/:node_id/merge", routes.MergeNodeHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/nodes/:node_id/collapse", routes.CollapseNodeHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/nodes/:node_id/expand", routes.ExpandNodeHandler)
	apiRoutes.POST("/chats/:id/objects/:object_id/nodes/:node_id/coreferences", routes.HighlightCoreferencesHandler)

	// Diagram routes
	apiRoutes.GET("/chats/:id/graph", routes.GetGraphHandler)
	apiRoutes.PATCH("/chats/:id/graph/nodes/:node_id", routes.PatchGraphNodeHandler)
	apiRoutes.PUT("/chats/:id/graph/viewport", routes.PutViewportHandler)
	apiRoutes.POST("/chats/:id/graph/undo", routes.UndoHandler)
	apiRoutes.POST("/chats/:id/graph/redo", routes.RedoHandler)
}
