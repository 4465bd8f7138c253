package http_test

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	handler "github.com/midzapp/midz/internal/adapters/http"
	natsadapter "github.com/midzapp/midz/internal/adapters/nats"
)

// storedFeed replays events recorded before a client subscribed.
type storedFeed struct {
	mu           sync.Mutex
	events       map[string][][]byte
	followed     []string
	unsubscribed int
}

type storedSub struct{ feed *storedFeed }

func (s storedSub) Unsubscribe() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	s.feed.unsubscribed++
	return nil
}

func (f *storedFeed) FollowSession(sessionID string, h func(data []byte)) (natsadapter.Subscription, error) {
	f.mu.Lock()
	f.followed = append(f.followed, sessionID)
	events := f.events[sessionID]
	f.mu.Unlock()
	for _, e := range events {
		h(e)
	}
	return storedSub{feed: f}, nil
}

func (f *storedFeed) followCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.followed)
}

func dialRelay(t *testing.T, feed handler.PlanFeed) *fws.Conn {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(handler.WebSocketHandler(feed)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func readJSON(t *testing.T, conn *fws.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

func TestWebSocket_ReplaysSessionThatAlreadyEnded(t *testing.T) {
	ev, err := natsadapter.EncodeEvent(natsadapter.PlanEvent{
		SessionID: "s-1",
		Status:    natsadapter.StatusFailed,
		Reason:    "no_participants_resolved",
		Timestamp: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	feed := &storedFeed{events: map[string][][]byte{"s-1": {ev}}}
	conn := dialRelay(t, feed)

	if err := conn.WriteJSON(map[string]string{"action": "subscribe", "session_id": "s-1"}); err != nil {
		t.Fatal(err)
	}

	if ack := readJSON(t, conn); ack["status"] != "subscribed" {
		t.Fatalf("expected subscribed ack, got %v", ack)
	}
	got := readJSON(t, conn)
	if got["session_id"] != "s-1" || got["status"] != "failed" || got["reason"] != "no_participants_resolved" {
		t.Errorf("expected the stored failure event, got %v", got)
	}
}

func TestWebSocket_RequiresSessionID(t *testing.T) {
	feed := &storedFeed{}
	conn := dialRelay(t, feed)

	if err := conn.WriteJSON(map[string]string{"action": "subscribe"}); err != nil {
		t.Fatal(err)
	}
	if got := readJSON(t, conn); got["error"] != "session_id is required" {
		t.Errorf("expected session_id error, got %v", got)
	}
	if n := feed.followCount(); n != 0 {
		t.Errorf("no session should be followed, got %d", n)
	}
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	feed := &storedFeed{}
	conn := dialRelay(t, feed)

	_ = conn.WriteJSON(map[string]string{"action": "subscribe", "session_id": "s-2"})
	if ack := readJSON(t, conn); ack["status"] != "subscribed" {
		t.Fatalf("expected subscribed ack, got %v", ack)
	}
	_ = conn.WriteJSON(map[string]string{"action": "unsubscribe", "session_id": "s-2"})
	if ack := readJSON(t, conn); ack["status"] != "unsubscribed" {
		t.Fatalf("expected unsubscribed ack, got %v", ack)
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()
	if feed.unsubscribed != 1 {
		t.Errorf("expected one unsubscribe, got %d", feed.unsubscribed)
	}
}

func TestWebSocket_NoFeed(t *testing.T) {
	conn := dialRelay(t, nil)

	_ = conn.WriteJSON(map[string]string{"action": "subscribe", "session_id": "s-3"})
	if got := readJSON(t, conn); got["error"] != "event bus not available" {
		t.Errorf("expected bus error, got %v", got)
	}
}
