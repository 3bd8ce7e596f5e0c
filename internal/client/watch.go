package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/gorilla/websocket"
)

// Watch streams saved board rows from the server until ctx is done or the
// connection drops. fn runs on the calling goroutine.
func (c *Client) Watch(ctx context.Context, fn func(*models.CurrentBoard)) error {
	u, err := c.streamURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial board stream: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read board stream: %w", err)
		}

		var e events.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode board event: %w", err)
		}
		if e.Type == events.BoardUpdated && e.Row != nil {
			fn(e.Row)
		}
	}
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/v1/board/ws")
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	token := c.token()
	if token == "" {
		return "", fmt.Errorf("board stream: %w", models.ErrUnauthenticated)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
