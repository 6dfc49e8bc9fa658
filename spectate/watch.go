package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds the websocket dial.
const DefaultHandshakeTimeout = 5 * time.Second

// Watch connects to a spectator feed and calls fn for every frame until the
// server closes the feed, ctx is done, or fn returns an error. A normal close,
// cancellation and ErrStop return nil. Any other error from fn is returned as
// is.
func Watch(ctx context.Context, url string, fn func(FrameMessage) error) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultHandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// Unblocks ReadMessage.
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		var msg FrameMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if err := fn(msg); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// ErrStop may be returned from a Watch callback to stop watching without
// reporting a failure.
var ErrStop = errors.New("stop watching")
