package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/internal/session"

	"github.com/labstack/echo/v4"
)

const keepAliveInterval = 15 * time.Second

// EventsHandler streams the chat, graph, transition and text events of the
// user as server-sent events. The current state of every chat is sent first.
func EventsHandler(c echo.Context) error {
	sess, err := middleware.Session(c)
	if err != nil {
		return internalError(c, "Failed to load session", err)
	}

	events, cancel := sess.Subscribe()
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, qa := range sess.Repository().List() {
		if err := writeEvent(w, session.Event{Name: session.EventChat, Data: session.ChatEvent{QA: qa}}); err != nil {
			return err
		}
		if cv, ok := sess.Canvas(qa.ID); ok {
			err := writeEvent(w, session.Event{Name: session.EventGraph, Data: session.GraphEvent{
				QuestionID: qa.ID,
				Graph:      cv.Graph(),
				CanUndo:    cv.CanUndo(),
				CanRedo:    cv.CanRedo(),
			}})
			if err != nil {
				return err
			}
		}
	}
	w.Flush()

	ctx := c.Request().Context()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, ev); err != nil {
				return err
			}
			w.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return err
			}
			w.Flush()
		}
	}
}

func writeEvent(w *echo.Response, ev session.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}
