package game

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/steplock"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/queue"
)

// Session is one running or finished game: a controller driven by its own
// step lock. Only the session goroutine touches the controller; status
// queries read the cached snapshot.
type Session struct {
	id         string
	name       string
	createdAt  time.Time
	players    []types.PlayerID
	controller Controller
	stepLock   *steplock.StepLock
	outbound   queue.Queue
	results    chan<- types.Summary
	logger     *log.Logger
	done       chan struct{}

	lock    sync.RWMutex
	state   json.RawMessage
	summary *types.Summary
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Name() string {
	return s.name
}

// Done is closed when the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// start emits the initial broadcast and caches the first snapshot.
func (s *Session) start() {
	s.publish(s.controller.Start())
	s.snapshot()
}

// run is the turn loop: collect, step, publish, until the controller
// reports the game is over or ctx is cancelled.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.close()

	for {
		if summary := s.controller.IsDone(); summary != nil {
			s.finish(ctx, summary)
			return
		}

		turns, err := s.stepLock.Collect(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info("Session stopped: %v", err)
			} else {
				s.logger.Error("Failed to collect turns: %v", err)
			}
			return
		}

		s.logger.Trace("Collected %d turns", len(turns))
		s.publish(s.controller.Step(turns))
		s.snapshot()
	}
}

// publish queues updates for delivery. Kicked players are no longer
// waited on.
func (s *Session) publish(updates []types.Update) {
	for _, update := range updates {
		if update.Kind == types.UpdateKick {
			s.stepLock.Remove(update.Player)
			s.logger.Debug("Player %d kicked", update.Player)
		}
		envelope := &types.Envelope{
			SessionID: s.id,
			Update:    update,
		}
		if err := s.outbound.Enqueue(envelope); err != nil {
			s.logger.Error("Failed to enqueue %s update for player %d: %v", update.Kind, update.Player, err)
		}
	}
}

func (s *Session) snapshot() {
	state := s.controller.State()
	s.lock.Lock()
	defer s.lock.Unlock()
	s.state = state
}

func (s *Session) finish(ctx context.Context, summary *types.Summary) {
	summary.SessionID = s.id
	summary.Name = s.name
	summary.FinishedAt = time.Now().UTC()

	s.lock.Lock()
	s.summary = summary
	s.lock.Unlock()

	s.logger.Info("Session finished after %d turns, winners %v", summary.Turns, summary.Winners)

	if s.results == nil {
		return
	}
	select {
	case s.results <- *summary:
	case <-ctx.Done():
		s.logger.Warn("Dropped result of session: %v", ctx.Err())
	}
}

func (s *Session) close() {
	s.stepLock.Close()
	closeController(s.controller, s.logger)
}

// closeController releases controllers holding resources, such as a
// replay log.
func closeController(controller Controller, logger *log.Logger) {
	if closer, ok := controller.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close controller: %v", err)
		}
	}
}

// status returns the cached lifecycle state without touching the
// controller.
func (s *Session) status() types.SessionState {
	s.lock.RLock()
	defer s.lock.RUnlock()

	state := types.SessionState{
		ID:        s.id,
		Name:      s.name,
		CreatedAt: s.createdAt,
	}
	if s.summary != nil {
		summary := *s.summary
		state.Status = types.StatusFinished
		state.Summary = &summary
		return state
	}
	state.Status = types.StatusRunning
	state.State = s.state
	return state
}
