package mirror

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// EventsURL is the websocket address of the change feed
func (c *Client) EventsURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/api/events"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/api/events"
	default:
		return c.baseURL + "/api/events"
	}
}

// Watch subscribes to the change feed and re-pulls every changed collection into the
// mirror. onChange, when set, runs after the mirror is updated. Watch returns nil when
// ctx is cancelled and the read error when the connection drops; it does not reconnect.
func (c *Client) Watch(ctx context.Context, onChange func(ports.ChangeEvent)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.EventsURL(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	c.logger.Infow("Watching change feed", "url", c.EventsURL())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("change feed closed: %w", err)
		}

		var msg events.Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != events.MessageTypeChange {
			continue
		}
		var event ports.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Warnw("Malformed change event", "error", err.Error())
			continue
		}
		c.apply(ctx, event)
		if onChange != nil {
			onChange(event)
		}
	}
}

func (c *Client) apply(ctx context.Context, event ports.ChangeEvent) {
	r, ok := ResourceFor(event.Collection)
	if !ok {
		return
	}
	if r.Admin && c.authToken() == "" {
		return
	}
	if _, err := c.refresh(ctx, r); err != nil {
		c.logger.Warnw("Failed to refresh mirror",
			"collection", event.Collection,
			"action", event.Action,
			"error", err.Error(),
		)
		return
	}
	c.logger.Debugw("Mirror refreshed", "collection", event.Collection, "action", event.Action, "id", event.ID)
}
