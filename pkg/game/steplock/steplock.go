package steplock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
)

const (
	// DefaultTimeout is used when no timeout is configured.
	DefaultTimeout = time.Second
	// InboxSizePerPlayer bounds how many submissions may wait per player.
	InboxSizePerPlayer = 16
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("step lock is closed")
	// ErrInboxFull is returned when submissions arrive faster than turns.
	ErrInboxFull = errors.New("step lock inbox is full")
	// ErrNotParticipant is returned for players the lock does not wait on.
	ErrNotParticipant = errors.New("player is not a participant")
)

type submission struct {
	player  types.PlayerID
	payload []byte
}

// StepLock gathers one input per active player for each turn window. A
// window ends when every active player has submitted or the timeout fires,
// whichever happens first. Players still missing get a timeout turn for
// that window only.
//
// Submit may be called from any goroutine. Collect, Remove and Active are
// meant for the session loop that owns the lock.
type StepLock struct {
	timeout time.Duration
	inbox   chan submission
	done    chan struct{}
	once    sync.Once

	lock   sync.RWMutex
	active map[types.PlayerID]bool
}

// NewStepLock creates a lock that waits on players.
func NewStepLock(players []types.PlayerID, timeout time.Duration) *StepLock {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	active := make(map[types.PlayerID]bool, len(players))
	for _, p := range players {
		active[p] = true
	}
	size := InboxSizePerPlayer * len(players)
	if size == 0 {
		size = InboxSizePerPlayer
	}
	return &StepLock{
		timeout: timeout,
		inbox:   make(chan submission, size),
		done:    make(chan struct{}),
		active:  active,
	}
}

// Timeout returns the length of a turn window.
func (s *StepLock) Timeout() time.Duration {
	return s.timeout
}

// Submit hands in a payload for player. It never blocks: the payload is
// counted in the window that is open, or the next one if none is.
func (s *StepLock) Submit(player types.PlayerID, payload []byte) error {
	if !s.isActive(player) {
		return ErrNotParticipant
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- submission{player: player, payload: payload}:
		return nil
	case <-s.done:
		return ErrClosed
	default:
		return ErrInboxFull
	}
}

// Collect opens a window and blocks until every active player submitted
// or the timeout elapsed. Turns are returned in arrival order, timeouts
// last in player order. Only the first submission of a player counts.
func (s *StepLock) Collect(ctx context.Context) ([]types.PlayerTurn, error) {
	active := s.Active()
	waiting := make(map[types.PlayerID]bool, len(active))
	for _, p := range active {
		waiting[p] = true
	}
	turns := make([]types.PlayerTurn, 0, len(active))

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	// nobody to wait on: the window still lasts the full timeout
	if len(waiting) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrClosed
		case <-timer.C:
			return turns, nil
		}
	}

	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrClosed
		case sub := <-s.inbox:
			if !waiting[sub.player] {
				continue
			}
			delete(waiting, sub.player)
			turns = append(turns, types.ActionTurn(sub.player, sub.payload))
		case <-timer.C:
			missing := make([]types.PlayerID, 0, len(waiting))
			for p := range waiting {
				missing = append(missing, p)
			}
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			for _, p := range missing {
				turns = append(turns, types.TimeoutTurn(p))
			}
			return turns, nil
		}
	}

	return turns, nil
}

// Remove stops waiting on player from the next window on.
func (s *StepLock) Remove(player types.PlayerID) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.active, player)
}

// Active returns the players the lock waits on, sorted.
func (s *StepLock) Active() []types.PlayerID {
	s.lock.RLock()
	defer s.lock.RUnlock()
	players := make([]types.PlayerID, 0, len(s.active))
	for p := range s.active {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })
	return players
}

func (s *StepLock) isActive(player types.PlayerID) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.active[player]
}

// Close rejects further submissions and unblocks Collect.
func (s *StepLock) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}
