package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/steplock"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/queue"
	"github.com/google/uuid"
)

// ErrUnknownSession is returned for ids that were never registered.
var ErrUnknownSession = errors.New("unknown session")

// Connections is implemented by the transport that owns player identity.
// The manager registers the slots of every new session and reads their
// connection status for reporting; it never changes them.
type Connections interface {
	Register(sessionID string, players []types.PlayerID) error
	Statuses(sessionID string) []types.ConnectionStatus
}

// Manager creates sessions and answers status queries. Each session runs
// its own turn loop; the registry is the only state they share.
type Manager struct {
	ctx         context.Context
	outbound    queue.Queue
	connections Connections
	results     chan<- types.Summary

	sessions     map[string]*Session
	sessionsLock sync.Mutex
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	// OutboundQueue receives a *types.Envelope for every update.
	OutboundQueue queue.Queue
	Connections   Connections
	// ResultChan receives the summary of every finished session. Optional.
	ResultChan chan<- types.Summary
}

// NewManager creates a Manager. Sessions run until they finish or ctx is
// cancelled.
func NewManager(ctx context.Context, opts NewManagerOptions) *Manager {
	return &Manager{
		ctx:         ctx,
		outbound:    opts.OutboundQueue,
		connections: opts.Connections,
		results:     opts.ResultChan,
		sessions:    make(map[string]*Session),
	}
}

// StartGame builds a session from cfg, registers it, sends the initial
// broadcast and starts its turn loop. Configuration errors are returned
// before anything is registered.
func (m *Manager) StartGame(cfg Config) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", fmt.Errorf("invalid game config: %w", err)
	}

	id := uuid.New().String()
	players := cfg.playerIDs()

	controller, err := cfg.Factory.NewController(id, players)
	if err != nil {
		return "", fmt.Errorf("failed to build game: %w", err)
	}

	if m.connections != nil {
		if err := m.connections.Register(id, players); err != nil {
			closeController(controller, log.WithField("session", id))
			return "", fmt.Errorf("failed to register players: %w", err)
		}
	}

	session := &Session{
		id:         id,
		name:       cfg.Name,
		createdAt:  time.Now().UTC(),
		players:    players,
		controller: controller,
		stepLock:   steplock.NewStepLock(players, cfg.TurnTimeout),
		outbound:   m.outbound,
		results:    m.results,
		logger:     log.WithField("session", id),
		done:       make(chan struct{}),
	}

	// queries never see a session without a snapshot
	session.start()

	m.sessionsLock.Lock()
	m.sessions[id] = session
	m.sessionsLock.Unlock()

	go session.run(m.ctx)

	session.logger.Info("Started game %q with %d players", cfg.Name, cfg.Players)
	return id, nil
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.sessionsLock.Lock()
	defer m.sessionsLock.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// GetState reports the session as running with its latest snapshot and
// connection statuses, finished with its summary, or unknown.
func (m *Manager) GetState(id string) types.SessionState {
	session, ok := m.lookup(id)
	if !ok {
		return types.SessionState{Status: types.StatusUnknown}
	}
	return m.sessionState(session)
}

func (m *Manager) sessionState(session *Session) types.SessionState {
	state := session.status()
	if state.Status == types.StatusRunning && m.connections != nil {
		state.Players = m.connections.Statuses(session.id)
		for _, p := range state.Players {
			if p.State != types.ConnectionWaiting {
				state.Connected++
			}
		}
	}
	return state
}

// ListStates returns every session, running ones first, each group
// ordered by name.
func (m *Manager) ListStates() []types.SessionState {
	m.sessionsLock.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessionsLock.Unlock()

	states := make([]types.SessionState, 0, len(sessions))
	for _, session := range sessions {
		states = append(states, m.sessionState(session))
	}
	sort.SliceStable(states, func(i, j int) bool {
		if states[i].Status != states[j].Status {
			return states[i].Status == types.StatusRunning
		}
		if states[i].Name != states[j].Name {
			return states[i].Name < states[j].Name
		}
		return states[i].ID < states[j].ID
	})
	return states
}

// Submit hands a player's raw payload to the session's step lock.
func (m *Manager) Submit(id string, player types.PlayerID, payload []byte) error {
	session, ok := m.lookup(id)
	if !ok {
		return ErrUnknownSession
	}
	return session.stepLock.Submit(player, payload)
}

// Done returns a channel closed when the session loop exits.
func (m *Manager) Done(id string) (<-chan struct{}, error) {
	session, ok := m.lookup(id)
	if !ok {
		return nil, ErrUnknownSession
	}
	return session.Done(), nil
}

// Wait blocks until every session loop has exited. It is meant for
// shutdown, after the manager's context was cancelled.
func (m *Manager) Wait() {
	m.sessionsLock.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessionsLock.Unlock()

	for _, session := range sessions {
		<-session.Done()
	}
}
