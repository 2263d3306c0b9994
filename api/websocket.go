package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/monitor"
)

// Feed connection limits.
const (
	feedWriteWait    = 10 * time.Second
	feedIdleTimeout  = 60 * time.Second
	feedPingInterval = feedIdleTimeout * 9 / 10
	feedMaxFrame     = 512
	feedQueryTimeout = 30 * time.Second
)

// Request types a feed client may send. Anything else is answered with an
// "error" message.
const (
	feedPing   = "ping"
	feedPrices = "prices"
	feedStatus = "status"
)

// originAllowed applies the configured CORS origins to the feed upgrade.
// Requests without an Origin header are not browser requests and pass.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	return false
}

// handleWebSocket upgrades the request to a refresh feed. Every completed
// refresh is pushed as "prices_refreshed"; clients may also query current
// prices and cache status over the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.cfg.API.CORSOrigins, r.Header.Get("Origin"))
		},
	}
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		logx.WithContext(r.Context()).Errorf("api: feed upgrade err=%v", err)
		return
	}

	fc := &feedConn{
		ws:      ws,
		client:  &WSClient{hub: s.wsHub, send: make(chan WSMessage, 256)},
		mon:     s.mon,
		replies: make(chan WSMessage, 16),
		stopped: make(chan struct{}),
	}
	s.wsHub.Register(fc.client)
	go fc.writeLoop()
	go fc.readLoop()
}

// feedConn is one feed subscriber. Broadcasts arrive on client.send, which
// the hub may close; answers to the client's own requests go through
// replies, which only this connection uses.
type feedConn struct {
	ws      *websocket.Conn
	client  *WSClient
	mon     *monitor.Monitor
	replies chan WSMessage
	stopped chan struct{} // closed when writeLoop exits
}

func (f *feedConn) readLoop() {
	defer func() {
		f.client.hub.Unregister(f.client)
		f.ws.Close()
	}()

	f.ws.SetReadLimit(feedMaxFrame)
	_ = f.ws.SetReadDeadline(time.Now().Add(feedIdleTimeout))
	f.ws.SetPongHandler(func(string) error {
		return f.ws.SetReadDeadline(time.Now().Add(feedIdleTimeout))
	})

	for {
		_, frame, err := f.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logx.Errorf("api: feed read err=%v", err)
			}
			return
		}
		select {
		case f.replies <- f.answer(frame):
		case <-f.stopped:
			return
		}
	}
}

// answer builds the reply to one client frame.
func (f *feedConn) answer(frame []byte) WSMessage {
	var req WSMessage
	if err := json.Unmarshal(frame, &req); err != nil {
		return WSMessage{Type: "error", Data: "malformed request"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), feedQueryTimeout)
	defer cancel()

	switch req.Type {
	case feedPing:
		return WSMessage{Type: "pong"}
	case feedPrices:
		list, tier, err := f.mon.CurrentPrices(ctx)
		if err != nil {
			return WSMessage{Type: "error", Data: err.Error()}
		}
		resp := PricesResponse{Tier: tier, Commodities: list}
		if t, ok := f.mon.LastUpdated(ctx); ok {
			resp.LastUpdated = &t
		}
		return WSMessage{Type: feedPrices, Data: resp}
	case feedStatus:
		return WSMessage{Type: feedStatus, Data: f.mon.CacheStatus(ctx)}
	default:
		return WSMessage{Type: "error", Data: "unknown request type " + req.Type}
	}
}

func (f *feedConn) writeLoop() {
	ping := time.NewTicker(feedPingInterval)
	defer func() {
		ping.Stop()
		close(f.stopped)
		f.ws.Close()
	}()

	for {
		var msg WSMessage
		select {
		case m, ok := <-f.client.send:
			if !ok {
				// Dropped by the hub.
				_ = f.ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
				_ = f.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg = m
		case msg = <-f.replies:
		case <-ping.C:
			_ = f.ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := f.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		_ = f.ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := f.ws.WriteJSON(msg); err != nil {
			return
		}
	}
}
