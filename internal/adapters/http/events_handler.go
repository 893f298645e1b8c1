package http

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
)

// EventsHandler upgrades change feed subscriptions to websockets
type EventsHandler struct {
	hub      *events.Hub
	upgrader *websocket.Upgrader
	logger   *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub, upgrader *websocket.Upgrader, logger *logger.Logger) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logger,
	}
}

// Subscribe godoc
// @Summary Change feed
// @Description Websocket stream of {type:"change", data:{collection, action, id, timestamp}} frames
// @Tags events
// @Router /events [get]
func (h *EventsHandler) Subscribe(c echo.Context) error {
	if err := h.hub.ServeWS(h.upgrader, c.Response(), c.Request()); err != nil {
		// the upgrader has already written the error response
		h.logger.Debugw("Websocket upgrade failed", "error", err.Error(), "remote_ip", c.RealIP())
	}
	return nil
}
