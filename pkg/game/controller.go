package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
)

// Controller is the lifecycle every game kind implements. A controller is
// driven by a single session goroutine and need not be thread-safe.
type Controller interface {
	// Start returns the initial messages without advancing the game.
	Start() []types.Update
	// Step consumes one input per player, in arrival order, and returns
	// the acknowledgements and state messages of the new turn.
	Step(turns []types.PlayerTurn) []types.Update
	// State returns an opaque snapshot for status queries.
	State() json.RawMessage
	// IsDone returns the outcome once the game is over, nil before.
	IsDone() *types.Summary
}

// Factory builds the controller of a new session. Implementations may
// create per-session resources such as replay logs, keyed by sessionID.
type Factory interface {
	NewController(sessionID string, players []types.PlayerID) (Controller, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(sessionID string, players []types.PlayerID) (Controller, error)

func (f FactoryFunc) NewController(sessionID string, players []types.PlayerID) (Controller, error) {
	return f(sessionID, players)
}

// Config describes a session to start.
type Config struct {
	Name        string
	Players     int
	TurnTimeout time.Duration
	Factory     Factory
}

func (c Config) validate() error {
	if c.Players < 1 {
		return fmt.Errorf("at least one player is required, got %d", c.Players)
	}
	if c.Factory == nil {
		return fmt.Errorf("no game factory configured")
	}
	return nil
}

func (c Config) playerIDs() []types.PlayerID {
	players := make([]types.PlayerID, c.Players)
	for i := range players {
		players[i] = types.PlayerID(i)
	}
	return players
}
