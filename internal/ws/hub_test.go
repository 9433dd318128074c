package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/pricefeed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

func dialFeed(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/feed", HandleWS(hub, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return env
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d; want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFeedDeliversSnapshotAndUpdates(t *testing.T) {
	hub := NewHub(func() [][]byte {
		frame, _ := Encode(MsgPrice, PricePayload{Tick: pricefeed.Tick{Price: decimal.NewFromInt(100)}})
		return [][]byte{frame}
	})
	prices := make(chan pricefeed.Tick, 1)
	boards := make(chan []domain.LeaderboardEntry, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, prices, boards)

	conn := dialFeed(t, hub)
	if env := readFrame(t, conn); env.Type != MsgReady {
		t.Fatalf("first frame = %s", env.Type)
	}
	if env := readFrame(t, conn); env.Type != MsgPrice {
		t.Fatalf("snapshot frame = %s", env.Type)
	}
	waitForClients(t, hub, 1)

	prices <- pricefeed.Tick{Price: decimal.NewFromInt(104)}
	env := readFrame(t, conn)
	var p PricePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || env.Type != MsgPrice || !p.Price.Equal(decimal.NewFromInt(104)) {
		t.Fatalf("price frame = %s %s (%v)", env.Type, env.Payload, err)
	}

	boards <- []domain.LeaderboardEntry{{Rank: 1, Username: "alice"}}
	env = readFrame(t, conn)
	var lb LeaderboardPayload
	if err := json.Unmarshal(env.Payload, &lb); err != nil || len(lb.Entries) != 1 || lb.Entries[0].Username != "alice" {
		t.Fatalf("leaderboard frame = %s (%v)", env.Payload, err)
	}
}

func TestFeedAnswersPing(t *testing.T) {
	hub := NewHub(nil)
	conn := dialFeed(t, hub)
	readFrame(t, conn) // ready

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := readFrame(t, conn); env.Type != MsgPong {
		t.Fatalf("frame = %s", env.Type)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := readFrame(t, conn); env.Type != MsgError {
		t.Fatalf("frame = %s", env.Type)
	}
}

func TestUnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	conn := dialFeed(t, hub)
	readFrame(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}
