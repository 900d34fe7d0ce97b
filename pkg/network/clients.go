package network

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"golang.org/x/time/rate"
)

const (
	// KeyMaxRetries represents the maximum number of retries when generating a unique key
	KeyMaxRetries = 1024
	// DefaultInboundRate is the number of messages per second a client may send
	DefaultInboundRate = 20
)

var (
	// ErrUnknownKey is returned when a client presents a key no slot holds.
	ErrUnknownKey = errors.New("unknown key")
	// ErrKicked is returned for slots whose player was removed from the game.
	ErrKicked = errors.New("player was kicked")
	// ErrNotConnected is returned when writing to an empty slot.
	ErrNotConnected = errors.New("player is not connected")
	// ErrUnknownSlot is returned for session and player pairs never registered.
	ErrUnknownSlot = errors.New("unknown player slot")
)

// Conn is a client connection as seen by the ClientManager.
type Conn interface {
	Write(payload []byte) error
	Close(reason string) error
}

// slot is one player seat of a session. The key is handed out when the
// session is created and claimed by the first client presenting it.
type slot struct {
	key     uint64
	name    string
	state   types.ConnectionState
	conn    Conn
	kicked  bool
	limiter *rate.Limiter
	// pending is the last message sent while nobody held the slot. It is
	// written to the next client before anything else.
	pending []byte
}

type slotRef struct {
	sessionID string
	player    types.PlayerID
}

// ClientManager maps join keys to player slots and tracks the connection
// of every slot.
type ClientManager struct {
	sessions     map[string]map[types.PlayerID]*slot
	keys         map[uint64]slotRef
	sessionsLock sync.RWMutex

	inboundRate  rate.Limit
	inboundBurst int
}

type NewClientManagerOptions struct {
	// InboundRate is the number of messages per second a client may send.
	InboundRate float64
	// InboundBurst defaults to the rate rounded up.
	InboundBurst int
}

// NewClientManager creates a new ClientManager
func NewClientManager(opts NewClientManagerOptions) *ClientManager {
	inboundRate := opts.InboundRate
	if inboundRate <= 0 {
		inboundRate = DefaultInboundRate
	}
	burst := opts.InboundBurst
	if burst <= 0 {
		burst = int(inboundRate)
		if float64(burst) < inboundRate {
			burst++
		}
	}
	return &ClientManager{
		sessions:     make(map[string]map[types.PlayerID]*slot),
		keys:         make(map[uint64]slotRef),
		inboundRate:  rate.Limit(inboundRate),
		inboundBurst: burst,
	}
}

// Register creates one slot with a fresh key per player of a session.
func (cm *ClientManager) Register(sessionID string, players []types.PlayerID) error {
	cm.sessionsLock.Lock()
	defer cm.sessionsLock.Unlock()

	if _, ok := cm.sessions[sessionID]; ok {
		return fmt.Errorf("session %s is already registered", sessionID)
	}

	slots := make(map[types.PlayerID]*slot, len(players))
	for _, player := range players {
		key, err := cm.generateUniqueKey(KeyMaxRetries)
		if err != nil {
			for _, s := range slots {
				delete(cm.keys, s.key)
			}
			return fmt.Errorf("failed to generate a unique key: %w", err)
		}
		slots[player] = &slot{
			key:     key,
			state:   types.ConnectionWaiting,
			limiter: rate.NewLimiter(cm.inboundRate, cm.inboundBurst),
		}
		cm.keys[key] = slotRef{sessionID: sessionID, player: player}
	}
	cm.sessions[sessionID] = slots

	return nil
}

// Keys returns the join key of every player of a session.
func (cm *ClientManager) Keys(sessionID string) map[types.PlayerID]uint64 {
	cm.sessionsLock.RLock()
	defer cm.sessionsLock.RUnlock()

	keys := make(map[types.PlayerID]uint64, len(cm.sessions[sessionID]))
	for player, s := range cm.sessions[sessionID] {
		keys[player] = s.key
	}
	return keys
}

// Statuses returns the connection status of every slot of a session,
// ordered by player.
func (cm *ClientManager) Statuses(sessionID string) []types.ConnectionStatus {
	cm.sessionsLock.RLock()
	defer cm.sessionsLock.RUnlock()

	statuses := make([]types.ConnectionStatus, 0, len(cm.sessions[sessionID]))
	for player, s := range cm.sessions[sessionID] {
		status := types.ConnectionStatus{
			Player: player,
			State:  s.state,
			Name:   s.name,
		}
		if s.state == types.ConnectionWaiting {
			status.Key = s.key
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Player < statuses[j].Player })
	return statuses
}

// Resolve returns the slot a key belongs to without claiming it.
func (cm *ClientManager) Resolve(key uint64) (string, types.PlayerID, error) {
	cm.sessionsLock.RLock()
	defer cm.sessionsLock.RUnlock()

	ref, ok := cm.keys[key]
	if !ok {
		return "", 0, ErrUnknownKey
	}
	if cm.sessions[ref.sessionID][ref.player].kicked {
		return "", 0, ErrKicked
	}
	return ref.sessionID, ref.player, nil
}

// Connect claims the slot holding key for conn. A client presenting the
// key again replaces the previous connection, which is closed. The
// message held for the slot is written to conn before conn is handed to
// senders, so a client never sees a newer message first.
func (cm *ClientManager) Connect(key uint64, name string, conn Conn) (string, types.PlayerID, error) {
	cm.sessionsLock.Lock()
	ref, ok := cm.keys[key]
	if !ok {
		cm.sessionsLock.Unlock()
		return "", 0, ErrUnknownKey
	}
	s := cm.sessions[ref.sessionID][ref.player]
	if s.kicked {
		cm.sessionsLock.Unlock()
		return "", 0, ErrKicked
	}
	previous := s.conn
	s.conn = nil
	if previous != nil {
		s.state = types.ConnectionReconnecting
	}
	cm.sessionsLock.Unlock()

	if previous != nil {
		previous.Close("replaced by a new connection")
	}

	for {
		cm.sessionsLock.Lock()
		if s.kicked {
			cm.sessionsLock.Unlock()
			return "", 0, ErrKicked
		}
		payload := s.pending
		s.pending = nil
		if payload == nil {
			previous = s.conn
			s.conn = conn
			s.name = name
			s.state = types.ConnectionConnected
			cm.sessionsLock.Unlock()
			break
		}
		cm.sessionsLock.Unlock()

		if err := conn.Write(payload); err != nil {
			cm.sessionsLock.Lock()
			if s.pending == nil {
				s.pending = payload
			}
			cm.sessionsLock.Unlock()
			return "", 0, fmt.Errorf("failed to write to player %d: %w", ref.player, err)
		}
	}

	// another client claimed the slot while conn caught up
	if previous != nil {
		previous.Close("replaced by a new connection")
	}
	return ref.sessionID, ref.player, nil
}

// Disconnect releases the slot held by conn. The slot keeps its key so the
// client may reconnect.
func (cm *ClientManager) Disconnect(sessionID string, player types.PlayerID, conn Conn) {
	cm.sessionsLock.Lock()
	defer cm.sessionsLock.Unlock()

	s, ok := cm.sessions[sessionID][player]
	if !ok || s.conn != conn {
		return
	}
	s.conn = nil
	if !s.kicked {
		s.state = types.ConnectionReconnecting
	}
}

// Allow reports whether the client of a slot may send another message now.
func (cm *ClientManager) Allow(sessionID string, player types.PlayerID) bool {
	cm.sessionsLock.RLock()
	s, ok := cm.sessions[sessionID][player]
	cm.sessionsLock.RUnlock()
	if !ok {
		return false
	}
	return s.limiter.Allow()
}

func (cm *ClientManager) conn(sessionID string, player types.PlayerID) (Conn, error) {
	cm.sessionsLock.RLock()
	defer cm.sessionsLock.RUnlock()

	s, ok := cm.sessions[sessionID][player]
	if !ok {
		return nil, ErrUnknownSlot
	}
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// hold keeps payload for the next client of a slot nobody holds. It
// reports false when the slot has a connection after all.
func (cm *ClientManager) hold(sessionID string, player types.PlayerID, payload []byte) bool {
	cm.sessionsLock.Lock()
	defer cm.sessionsLock.Unlock()

	s, ok := cm.sessions[sessionID][player]
	if !ok || s.kicked {
		return true
	}
	if s.conn != nil {
		return false
	}
	s.pending = payload
	return true
}

// Send writes payload to the client of a slot. When nobody holds the slot
// the payload replaces the one kept for the next client and
// ErrNotConnected is returned.
func (cm *ClientManager) Send(sessionID string, player types.PlayerID, payload []byte) error {
	conn, err := cm.conn(sessionID, player)
	for errors.Is(err, ErrNotConnected) {
		if cm.hold(sessionID, player, payload) {
			return err
		}
		conn, err = cm.conn(sessionID, player)
	}
	if err != nil {
		return err
	}
	if err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write to player %d: %w", player, err)
	}
	return nil
}

// Broadcast writes payload to every connected client of a session.
func (cm *ClientManager) Broadcast(sessionID string, payload []byte) error {
	cm.sessionsLock.RLock()
	conns := make(map[types.PlayerID]Conn, len(cm.sessions[sessionID]))
	for player, s := range cm.sessions[sessionID] {
		if s.conn != nil {
			conns[player] = s.conn
		}
	}
	cm.sessionsLock.RUnlock()

	var errs []error
	for player, conn := range conns {
		if err := conn.Write(payload); err != nil {
			errs = append(errs, fmt.Errorf("failed to write to player %d: %w", player, err))
		}
	}
	return errors.Join(errs...)
}

// Kick removes a player from the session for good: the key is revoked and
// the connection, if any, is closed.
func (cm *ClientManager) Kick(sessionID string, player types.PlayerID) error {
	cm.sessionsLock.Lock()
	s, ok := cm.sessions[sessionID][player]
	if !ok {
		cm.sessionsLock.Unlock()
		return ErrUnknownSlot
	}
	s.kicked = true
	s.pending = nil
	delete(cm.keys, s.key)
	conn := s.conn
	s.conn = nil
	cm.sessionsLock.Unlock()

	if conn != nil {
		return conn.Close("game over")
	}
	return nil
}

// generateUniqueKey generates a unique join key with a maximum number of retries
// it reads from the keys, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueKey(maxRetries int) (uint64, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		key := rand.Uint64()
		if key == 0 {
			continue
		}
		if _, ok := cm.keys[key]; !ok {
			return key, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique key after %d attempts", maxRetries)
}
