package httpserver

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin is already policed by the CORS layer for the REST
	// surface; the ws feed carries no secrets beyond the transcript the
	// same origin already sees.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// interviewEvents streams turn lifecycle events for one session over a
// websocket. Each session has a single consumer: a newer connection
// replaces the previous one.
func (h *Handlers) interviewEvents(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if _, err := h.Interview.GetSession(c.Request().Context(), sessionID); err != nil {
		return failFrom(c, err, "Failed to open event feed")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.Events.Subscribe(sessionID)
	defer cancel()

	// Drain reads so close frames are processed; the feed is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	log.Debug().Str("session_id", sessionID).Msg("event feed connected")
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("event feed write failed")
			return nil
		}
	}
	return nil
}
