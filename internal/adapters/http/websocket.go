package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/midzapp/midz/internal/adapters/nats"
	"github.com/midzapp/midz/internal/pkg/metrics"
)

// wsMessage is sent from client to follow or stop following a planning session.
type wsMessage struct {
	Action    string `json:"action"` // "subscribe" | "unsubscribe"
	SessionID string `json:"session_id"`
}

// WebSocketHandler returns a handler that relays planning events to connected
// clients as JSON. Clients send {"action":"subscribe","session_id":"<id>"}
// after an asynchronous POST /v1/meetups. Events the session produced before
// the subscription are replayed, so a plan that finished first still arrives.
func WebSocketHandler(feed PlanFeed) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		logger := slog.Default().With("remote_addr", c.RemoteAddr().String())
		logger.Info("ws client connected")

		var mu sync.Mutex
		subs := make(map[string]natsadapter.Subscription) // session id -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(data []byte) {
			js, err := natsadapter.EventJSON(data)
			if err != nil {
				logger.Warn("dropping undecodable plan event", "error", err)
				return
			}
			_ = writeJSON(json.RawMessage(js))
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.SessionID == "" {
				_ = writeJSON(map[string]string{"error": "session_id is required"})
				continue
			}
			if !natsadapter.ValidSessionID(m.SessionID) {
				_ = writeJSON(map[string]string{"error": "invalid session_id"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if feed == nil {
					_ = writeJSON(map[string]string{"error": "event bus not available"})
					continue
				}
				if _, exists := subs[m.SessionID]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "session_id": m.SessionID})
					continue
				}
				// Acknowledge first; replayed events may follow immediately.
				_ = writeJSON(map[string]string{"status": "subscribed", "session_id": m.SessionID})
				s, err := feed.FollowSession(m.SessionID, relay)
				if err != nil {
					logger.Warn("follow session failed", "session_id", m.SessionID, "error", err)
					_ = writeJSON(map[string]string{"error": "subscribe failed", "session_id": m.SessionID})
					continue
				}
				subs[m.SessionID] = s

			case "unsubscribe":
				if s, exists := subs[m.SessionID]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.SessionID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "session_id": m.SessionID})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.SessionID})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		logger.Info("ws client disconnected")
	}
}
