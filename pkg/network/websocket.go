package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	// DefaultWriteTimeout bounds a single write to a client.
	DefaultWriteTimeout = 5 * time.Second
	// HelloTimeout is how long a new connection may take to identify itself.
	HelloTimeout = 10 * time.Second
	// MaxMessageSize bounds a single message read from a client.
	MaxMessageSize = 1 << 20

	maxCloseReason = 123
)

// Submitter receives the turns read from clients.
type Submitter interface {
	Submit(sessionID string, player types.PlayerID, payload []byte) error
}

// Hello is the first message a client sends to claim its slot.
type Hello struct {
	Key  uint64 `json:"key"`
	Name string `json:"name"`
}

// HelloResponse answers a Hello.
type HelloResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	Player    types.PlayerID `json:"player"`
	Error     string         `json:"error,omitempty"`
}

// WSServer represents a WebSocket server.
type WSServer struct {
	port          int
	tls           *TLSConfig
	clientManager *ClientManager
	submitter     Submitter
	writeTimeout  time.Duration
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port          int
	TLS           *TLSConfig
	ClientManager *ClientManager
	Submitter     Submitter
	WriteTimeout  time.Duration
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WSServer{
		port:          opts.Port,
		tls:           opts.TLS,
		clientManager: opts.ClientManager,
		submitter:     opts.Submitter,
		writeTimeout:  writeTimeout,
	}
}

// Handler returns the http handler accepting game connections.
func (s *WSServer) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", r.RemoteAddr)
		s.handleWSConnection(ctx, conn)
	})
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: s.Handler(ctx)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection reads the hello of a new connection, then forwards
// every further message as a turn of the claimed slot.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	conn.SetReadLimit(MaxMessageSize)

	client := &wsConn{conn: conn, timeout: s.writeTimeout}

	sessionID, player, err := s.hello(ctx, client)
	if err != nil {
		log.Debug("Rejected connection: %v", err)
		client.Close(err.Error())
		return
	}
	logger := log.WithField("session", sessionID).WithField("player", player)
	logger.Info("Player connected")

	defer func() {
		s.clientManager.Disconnect(sessionID, player, client)
		client.Close("bye")
		logger.Info("Player disconnected")
	}()

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.Debug("Error reading WebSocket message: %v", err)
			}
			return
		}

		if !s.clientManager.Allow(sessionID, player) {
			logger.Warn("Dropped message over the rate limit")
			continue
		}
		if err := s.submitter.Submit(sessionID, player, payload); err != nil {
			logger.Debug("Failed to submit turn: %v", err)
		}
	}
}

func (s *WSServer) hello(ctx context.Context, client *wsConn) (string, types.PlayerID, error) {
	helloCtx, cancel := context.WithTimeout(ctx, HelloTimeout)
	defer cancel()

	var hello Hello
	if err := wsjson.Read(helloCtx, client.conn, &hello); err != nil {
		return "", 0, fmt.Errorf("failed to read hello: %w", err)
	}

	sessionID, player, err := s.clientManager.Resolve(hello.Key)
	if err != nil {
		wsjson.Write(helloCtx, client.conn, HelloResponse{Error: err.Error()})
		return "", 0, err
	}

	// the answer goes out before the slot is claimed so that no game
	// message can overtake it
	if err := wsjson.Write(helloCtx, client.conn, HelloResponse{SessionID: sessionID, Player: player}); err != nil {
		return "", 0, fmt.Errorf("failed to answer hello: %w", err)
	}

	if _, _, err := s.clientManager.Connect(hello.Key, hello.Name, client); err != nil {
		return "", 0, err
	}
	return sessionID, player, nil
}

// wsConn adapts a websocket connection to Conn.
type wsConn struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (c *wsConn) Write(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) Close(reason string) error {
	// close reasons must fit in a control frame
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return c.conn.Close(websocket.StatusNormalClosure, reason)
}
