package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/network"
	"github.com/cbodonnell/planetwars/pkg/planetwars"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const DefaultServerURL = "ws://localhost:9142"

// ErrClosed is returned by Run when the server closes the connection before
// the final state arrives, as it does when the player is kicked.
var ErrClosed = errors.New("connection closed by server")

// WSClient plays one player slot over a websocket.
type WSClient struct {
	serverURL string
	key       uint64
	name      string
	bot       Bot
	conn      *websocket.Conn

	sessionID string
	player    types.PlayerID
}

type NewWSClientOptions struct {
	ServerURL string
	Key       uint64
	Name      string
	Bot       Bot
}

// NewWSClient creates a new WebSocket client.
func NewWSClient(opts NewWSClientOptions) *WSClient {
	serverURL := opts.ServerURL
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	bot := opts.Bot
	if bot == nil {
		bot = SimpleBot{}
	}
	return &WSClient{
		serverURL: serverURL,
		key:       opts.Key,
		name:      opts.Name,
		bot:       bot,
	}
}

// Connect dials the server and claims the slot matching the client's key.
func (c *WSClient) Connect(ctx context.Context) error {
	log.Info("Connecting to WebSocket server at %s", c.serverURL)
	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	conn.SetReadLimit(network.MaxMessageSize)

	helloCtx, cancel := context.WithTimeout(ctx, network.HelloTimeout)
	defer cancel()
	if err := wsjson.Write(helloCtx, conn, network.Hello{Key: c.key, Name: c.name}); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return fmt.Errorf("failed to send hello: %w", err)
	}
	var resp network.HelloResponse
	if err := wsjson.Read(helloCtx, conn, &resp); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return fmt.Errorf("failed to read hello response: %w", err)
	}
	if resp.Error != "" {
		conn.Close(websocket.StatusNormalClosure, "")
		return fmt.Errorf("server rejected hello: %s", resp.Error)
	}

	c.conn = conn
	c.sessionID = resp.SessionID
	c.player = resp.Player
	log.Info("Joined session %s as player %d", c.sessionID, c.player)
	return nil
}

func (c *WSClient) SessionID() string      { return c.sessionID }
func (c *WSClient) Player() types.PlayerID { return c.player }

type serverMessage struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// Run answers every GameState with the bot's turn until the FinalState
// arrives, which is returned.
func (c *WSClient) Run(ctx context.Context) (*planetwars.State, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, payload, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				return nil, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Warn("Ignoring malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case planetwars.MessageTypeGameState:
			state := planetwars.State{}
			if err := json.Unmarshal(msg.Content, &state); err != nil {
				return nil, fmt.Errorf("failed to decode state: %w", err)
			}
			if err := c.playTurn(ctx, state); err != nil {
				return nil, err
			}
		case planetwars.MessageTypeFinalState:
			state := &planetwars.State{}
			if err := json.Unmarshal(msg.Content, state); err != nil {
				return nil, fmt.Errorf("failed to decode final state: %w", err)
			}
			return state, nil
		case planetwars.MessageTypePlayerAction:
			log.Debug("Turn acknowledged: %s", msg.Content)
		default:
			log.Warn("Ignoring message of type %s", msg.Type)
		}
	}
}

func (c *WSClient) playTurn(ctx context.Context, state planetwars.State) error {
	turn, err := c.bot.Turn(ctx, state)
	if err != nil {
		// no answer this turn, the server records a timeout
		log.Error("Bot failed to play: %v", err)
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, turn); err != nil {
		return fmt.Errorf("failed to send turn: %w", err)
	}
	return nil
}
