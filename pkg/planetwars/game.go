package planetwars

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbodonnell/planetwars/pkg/game"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/replay"
)

// Game adapts a PlanetWars world to the game.Controller lifecycle. Every
// step is appended to the replay log in canonical form, and each player
// receives the world rotated to their point of view.
type Game struct {
	state   *PlanetWars
	replay  *replay.Writer
	mapName string
	logger  *log.Logger
	// kicked players never receive another message
	kicked map[int]bool
}

var _ game.Controller = (*Game)(nil)

// NewGame wraps state. The replay writer is owned by the game and closed
// by Close. A nil writer disables the replay log.
func NewGame(state *PlanetWars, replayLog *replay.Writer, mapName string) *Game {
	return &Game{
		state:   state,
		replay:  replayLog,
		mapName: mapName,
		logger:  log.Default(),
		kicked:  make(map[int]bool),
	}
}

// WithLogger sets the logger used for replay and encoding failures.
func (g *Game) WithLogger(logger *log.Logger) *Game {
	g.logger = logger
	return g
}

// World exposes the underlying state. Callers must not use it while the
// owning session is running.
func (g *Game) World() *PlanetWars {
	return g.state
}

// MapName returns the name of the map the game is played on.
func (g *Game) MapName() string {
	return g.mapName
}

// NewController implements game.Factory: it loads the map, creates the
// replay log for the session and returns a ready Game.
func (c Config) NewController(sessionID string, players []types.PlayerID) (game.Controller, error) {
	for i, p := range players {
		if p != types.PlayerID(i) {
			return nil, fmt.Errorf("player ids must be 0..%d, got %d at %d", len(players)-1, p, i)
		}
	}

	state, err := c.CreateGame(len(players))
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	logger := log.WithField("session", sessionID)

	// no replay directory, no replay log
	if c.ReplayDir == "" {
		return NewGame(state, nil, c.mapName()).WithLogger(logger), nil
	}

	if err := os.MkdirAll(c.ReplayDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create replay directory: %w", err)
	}
	replayLog, err := replay.NewWriter(filepath.Join(c.ReplayDir, sessionID+".json"), c.CompressReplay)
	if err != nil {
		return nil, err
	}

	return NewGame(state, replayLog, c.mapName()).WithLogger(logger), nil
}

func (c Config) mapName() string {
	if c.MapFile == "" {
		return "custom"
	}
	base := filepath.Base(c.MapFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Start sends every player the initial world without advancing the turn.
func (g *Game) Start() []types.Update {
	var updates []types.Update
	everyone := make([]int, 0, len(g.state.Players))
	for _, player := range g.state.Players {
		everyone = append(everyone, player.ID)
	}
	g.dispatchState(everyone, &updates)
	return updates
}

// Step executes the turns in the order they were received, advances the
// world and returns the acknowledgements followed by the state messages.
func (g *Game) Step(turns []types.PlayerTurn) []types.Update {
	var updates []types.Update

	actions := make([]PlayerAction, len(turns))
	pending := make([]int, 0, len(turns))
	orders := make([]Orders, 0, len(turns))
	for i, turn := range turns {
		player := int(turn.Player)
		if player >= len(g.state.Players) || g.kicked[player] {
			actions[i] = PlayerAction{}
			continue
		}
		if turn.Turn.Timeout {
			actions[i] = TimeoutAction()
			continue
		}
		action, err := DecodeAction(turn.Turn.Payload)
		if err != nil {
			actions[i] = ParseErrorAction(err)
			continue
		}
		pending = append(pending, i)
		orders = append(orders, Orders{Player: player, Commands: action.Commands})
	}

	report := g.state.Step(orders)
	for j, result := range report.Orders {
		actions[pending[j]] = CommandsAction(result.Results)
	}

	for i, turn := range turns {
		if actions[i].Type == "" {
			continue
		}
		g.push(&updates, turn.Player, PlayerActionMessage(actions[i]))
	}

	g.dispatchState(report.WereAlive, &updates)
	return updates
}

// dispatchState logs the canonical world and sends every player in
// wereAlive their view. Players that are dead or whose game is over get a
// final state and are kicked.
func (g *Game) dispatchState(wereAlive []int, updates *[]types.Update) {
	if g.replay != nil {
		if err := g.replay.Append(Serialize(g.state)); err != nil {
			g.logger.Error("Failed to append turn %d to replay log: %v", g.state.TurnNum, err)
		}
	}

	finished := g.state.IsFinished()
	for _, id := range wereAlive {
		if g.kicked[id] {
			continue
		}
		player := g.state.Players[id]
		state := SerializeRotated(g.state, id)
		if player.Alive && !finished {
			g.push(updates, types.PlayerID(id), GameStateMessage(state))
			continue
		}

		g.push(updates, types.PlayerID(id), FinalStateMessage(state))
		*updates = append(*updates, types.KickUpdate(types.PlayerID(id)))
		g.kicked[id] = true
	}
}

func (g *Game) push(updates *[]types.Update, player types.PlayerID, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("Failed to marshal %s message for player %d: %v", msg.Type, player, err)
		return
	}
	*updates = append(*updates, types.PlayerUpdate(player, payload))
}

type snapshot struct {
	Map      string `json:"map"`
	Turn     uint64 `json:"turn"`
	MaxTurns uint64 `json:"max_turns"`
	Alive    []int  `json:"alive"`
	State    State  `json:"state"`
}

// State returns the canonical world with the map name and turn counter.
func (g *Game) State() json.RawMessage {
	b, err := json.Marshal(snapshot{
		Map:      g.mapName,
		Turn:     g.state.TurnNum,
		MaxTurns: g.state.MaxTurns,
		Alive:    g.state.LivingPlayers(),
		State:    Serialize(g.state),
	})
	if err != nil {
		g.logger.Error("Failed to marshal game state: %v", err)
		return nil
	}
	return b
}

// IsDone returns the outcome once the world is finished and nil before.
func (g *Game) IsDone() *types.Summary {
	if !g.state.IsFinished() {
		return nil
	}

	summary := &types.Summary{
		Map:     g.mapName,
		Turns:   g.state.TurnNum,
		Players: make([]types.PlayerID, 0, len(g.state.Players)),
		Winners: make([]types.PlayerID, 0, 1),
	}
	if g.replay != nil {
		summary.ReplayFile = filepath.Base(g.replay.Path())
	}
	for _, player := range g.state.Players {
		summary.Players = append(summary.Players, types.PlayerID(player.ID))
	}
	for _, id := range g.state.LivingPlayers() {
		summary.Winners = append(summary.Winners, types.PlayerID(id))
	}
	return summary
}

// Close closes the replay log.
func (g *Game) Close() error {
	if g.replay == nil {
		return nil
	}
	return g.replay.Close()
}
