package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dueltower/duel-tower-server/internal/config"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// Message types sent to websocket clients.
const (
	MessageState  = "state"
	MessageResult = "result"
	MessageUpdate = "update"
	MessageError  = "error"
)

// WSMessage is every frame the server writes.
type WSMessage struct {
	Type   string               `json:"type"`
	State  *game.StateView      `json:"state,omitempty"`
	Result *session.ApplyResult `json:"result,omitempty"`
	Update *session.Update      `json:"update,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// WebSocketServer serves /ws/sessions/{code}. A client receives the
// current state on connect, the result of every command it sends, and an
// update for every command accepted in the session, its own included.
type WebSocketServer struct {
	sessions *session.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	code string
	send chan []byte
}

func NewWebSocketServer(cfg config.WebSocketConfig, sessions *session.Manager, logger *zap.Logger) *WebSocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := &WebSocketServer{
		sessions: sessions,
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
	}
	ws.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/sessions/{code}", ws.serveSession)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	ws.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

// Handler exposes the routes, for tests and embedding.
func (ws *WebSocketServer) Handler() http.Handler {
	return ws.server.Handler
}

// Serve accepts connections on lis until Shutdown.
func (ws *WebSocketServer) Serve(lis net.Listener) error {
	ws.logger.Info("starting WebSocket server", zap.String("address", lis.Addr().String()))
	if err := ws.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes every client.
func (ws *WebSocketServer) Shutdown(ctx context.Context) error {
	err := ws.server.Shutdown(ctx)

	ws.mu.Lock()
	for c := range ws.clients {
		_ = c.conn.Close()
	}
	ws.mu.Unlock()
	return err
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

func (ws *WebSocketServer) serveSession(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	view, err := ws.sessions.Snapshot(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	updates, cancel, err := ws.sessions.Subscribe(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		ws.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{conn: conn, code: code, send: make(chan []byte, sendBuffer)}
	ws.register(c)
	ws.logger.Info("websocket client connected",
		zap.String("session_code", code),
		zap.String("remote", r.RemoteAddr),
	)

	c.enqueue(ws.logger, WSMessage{Type: MessageState, State: &view})

	done := make(chan struct{})
	go ws.writePump(c, updates, done)
	ws.readPump(c)

	close(done)
	cancel()
	ws.unregister(c)
	ws.logger.Info("websocket client disconnected", zap.String("session_code", code))
}

func (ws *WebSocketServer) register(c *wsClient) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.clients[c] = struct{}{}
}

func (ws *WebSocketServer) unregister(c *wsClient) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.clients, c)
	_ = c.conn.Close()
}

// readPump decodes envelopes and answers each with a result or an error.
// It returns when the connection fails.
func (ws *WebSocketServer) readPump(c *wsClient) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Debug("websocket read failed", zap.String("session_code", c.code), zap.Error(err))
			}
			return
		}

		env, err := game.ParseEnvelope(message)
		if err != nil {
			c.enqueue(ws.logger, WSMessage{Type: MessageError, Error: err.Error()})
			continue
		}
		res, err := ws.sessions.Apply(context.Background(), c.code, env)
		if err != nil {
			c.enqueue(ws.logger, WSMessage{Type: MessageError, Error: err.Error()})
			continue
		}
		c.enqueue(ws.logger, WSMessage{Type: MessageResult, Result: &res})
	}
}

// writePump is the only writer on the connection.
func (ws *WebSocketServer) writePump(c *wsClient, updates <-chan session.Update, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var frame []byte
		select {
		case <-done:
			return
		case frame = <-c.send:
		case u, ok := <-updates:
			if !ok {
				// Session closed.
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				_ = c.conn.Close()
				return
			}
			raw, err := json.Marshal(WSMessage{Type: MessageUpdate, Update: &u})
			if err != nil {
				ws.logger.Error("encode websocket update", zap.Error(err))
				continue
			}
			frame = raw
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			_ = c.conn.Close()
			return
		}
	}
}

// enqueue drops the frame when the client is not reading.
func (c *wsClient) enqueue(logger *zap.Logger, msg WSMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.Error("encode websocket message", zap.Error(err))
		return
	}
	select {
	case c.send <- raw:
	default:
		logger.Warn("websocket client lagging, message dropped", zap.String("session_code", c.code))
	}
}
