package planetwars

import "fmt"

// PlanetWars holds the simulated world of one game. It is not safe for
// concurrent use; the owning session mutates it from a single goroutine.
type PlanetWars struct {
	Players     []*Player
	Planets     []*Planet
	Expeditions []*Expedition
	// TurnNum counts completed steps, starting at 0.
	TurnNum  uint64
	MaxTurns uint64

	planetMap     map[string]int
	expeditionNum uint64
	growth        GrowthFunc
}

// Orders are the decoded commands of one player for one turn.
type Orders struct {
	Player   int
	Commands []Command
}

// CommandResult reports whether a single command was applied. Err is
// empty for accepted commands.
type CommandResult struct {
	Command Command
	Err     CommandError
}

// Accepted reports whether the command was applied.
func (r CommandResult) Accepted() bool {
	return r.Err == ""
}

// OrdersResult holds the per-command results of one player's orders.
type OrdersResult struct {
	Player  int
	Results []CommandResult
}

// StepReport describes what happened during a step.
type StepReport struct {
	// WereAlive holds the players alive before the step began. They are
	// the ones that receive a state message for this step.
	WereAlive []int
	Orders    []OrdersResult
}

// NewPlanetWars creates a world for players players. Planet ids must
// match their index. Player alive flags are derived from ownership.
func NewPlanetWars(planets []*Planet, players int, maxTurns uint64, growth GrowthFunc) (*PlanetWars, error) {
	if players < 1 {
		return nil, fmt.Errorf("at least one player is required")
	}
	if maxTurns < 1 {
		return nil, fmt.Errorf("max turns must be positive")
	}
	if growth == nil {
		growth = DefaultGrowth
	}

	planetMap := make(map[string]int, len(planets))
	for i, planet := range planets {
		if planet.ID != i {
			return nil, fmt.Errorf("planet %s has id %d at index %d", planet.Name, planet.ID, i)
		}
		if planet.Name == "" {
			return nil, fmt.Errorf("planet %d has no name", i)
		}
		if _, ok := planetMap[planet.Name]; ok {
			return nil, fmt.Errorf("duplicate planet name %s", planet.Name)
		}
		if !planet.IsNeutral() && (planet.Owner < 0 || planet.Owner >= players) {
			return nil, fmt.Errorf("planet %s is owned by unknown player %d", planet.Name, planet.Owner)
		}
		planetMap[planet.Name] = i
	}

	pw := &PlanetWars{
		Planets:   planets,
		MaxTurns:  maxTurns,
		planetMap: planetMap,
		growth:    growth,
	}
	for i := 0; i < players; i++ {
		pw.Players = append(pw.Players, &Player{ID: i})
	}
	pw.updateAlive()

	return pw, nil
}

// PlanetByName returns the planet with the given name.
func (pw *PlanetWars) PlanetByName(name string) (*Planet, bool) {
	id, ok := pw.planetMap[name]
	if !ok {
		return nil, false
	}
	return pw.Planets[id], true
}

// Validate checks cmd for player without mutating anything. Checks run in
// a fixed order and the first failure is returned.
func (pw *PlanetWars) Validate(player int, cmd Command) (Dispatch, error) {
	originID, ok := pw.planetMap[cmd.Origin]
	if !ok {
		return Dispatch{}, OriginDoesNotExist
	}
	targetID, ok := pw.planetMap[cmd.Destination]
	if !ok {
		return Dispatch{}, DestinationDoesNotExist
	}
	origin := pw.Planets[originID]
	if !origin.OwnedBy(player) {
		return Dispatch{}, OriginNotOwned
	}
	if origin.ShipCount < cmd.ShipCount {
		return Dispatch{}, NotEnoughShips
	}
	if cmd.ShipCount == 0 {
		return Dispatch{}, ZeroShipMove
	}

	return Dispatch{
		Player:    player,
		Origin:    originID,
		Target:    targetID,
		ShipCount: cmd.ShipCount,
	}, nil
}

// Apply launches a validated dispatch. The ships leave the origin in the
// same call that creates the expedition.
func (pw *PlanetWars) Apply(d Dispatch) *Expedition {
	origin := pw.Planets[d.Origin]
	target := pw.Planets[d.Target]

	turns := origin.Distance(target)
	if turns == 0 {
		turns = 1
	}

	origin.ShipCount -= d.ShipCount
	expedition := &Expedition{
		ID:             pw.expeditionNum,
		Owner:          d.Player,
		Origin:         d.Origin,
		Destination:    d.Target,
		ShipCount:      d.ShipCount,
		TurnsRemaining: turns,
	}
	pw.expeditionNum++
	pw.Expeditions = append(pw.Expeditions, expedition)

	return expedition
}

// Repopulate grows every owned planet according to the growth rule.
func (pw *PlanetWars) Repopulate() {
	for _, planet := range pw.Planets {
		if planet.IsNeutral() {
			continue
		}
		planet.ShipCount += pw.growth(planet)
	}
}

// Execute validates and applies the commands of orders one by one, each
// against the state left by the previous one.
func (pw *PlanetWars) Execute(orders Orders) OrdersResult {
	result := OrdersResult{
		Player:  orders.Player,
		Results: make([]CommandResult, 0, len(orders.Commands)),
	}
	for _, cmd := range orders.Commands {
		dispatch, err := pw.Validate(orders.Player, cmd)
		if err != nil {
			result.Results = append(result.Results, CommandResult{Command: cmd, Err: err.(CommandError)})
			continue
		}
		pw.Apply(dispatch)
		result.Results = append(result.Results, CommandResult{Command: cmd})
	}
	return result
}

// Step advances the world by one turn: growth, then the orders in the
// order they were received, then fleet movement and combat.
func (pw *PlanetWars) Step(orders []Orders) StepReport {
	report := StepReport{
		WereAlive: pw.LivingPlayers(),
		Orders:    make([]OrdersResult, 0, len(orders)),
	}

	pw.Repopulate()
	for _, o := range orders {
		report.Orders = append(report.Orders, pw.Execute(o))
	}
	pw.Advance()

	return report
}

// Advance moves every expedition one turn closer, resolves arrivals,
// recomputes which players are alive and increments the turn counter.
func (pw *PlanetWars) Advance() {
	var arrived []*Expedition
	inFlight := make([]*Expedition, 0, len(pw.Expeditions))
	for _, expedition := range pw.Expeditions {
		expedition.TurnsRemaining--
		if expedition.TurnsRemaining == 0 {
			arrived = append(arrived, expedition)
			continue
		}
		inFlight = append(inFlight, expedition)
	}
	pw.Expeditions = inFlight

	for _, expedition := range arrived {
		pw.arrive(expedition)
	}

	pw.updateAlive()
	pw.TurnNum++
}

// arrive lands an expedition on its destination. Neutral and friendly
// planets take the ships in and belong to the expedition's owner. A planet
// held by another player is fought over: the larger force holds it with
// the difference, and a tie leaves it neutral and empty.
func (pw *PlanetWars) arrive(expedition *Expedition) {
	planet := pw.Planets[expedition.Destination]

	if planet.IsNeutral() || planet.OwnedBy(expedition.Owner) {
		planet.Owner = expedition.Owner
		planet.ShipCount += expedition.ShipCount
		return
	}

	switch {
	case expedition.ShipCount > planet.ShipCount:
		planet.Owner = expedition.Owner
		planet.ShipCount = expedition.ShipCount - planet.ShipCount
	case expedition.ShipCount < planet.ShipCount:
		planet.ShipCount -= expedition.ShipCount
	default:
		planet.Owner = Neutral
		planet.ShipCount = 0
	}
}

func (pw *PlanetWars) updateAlive() {
	for _, player := range pw.Players {
		player.Alive = false
	}
	for _, planet := range pw.Planets {
		if planet.IsNeutral() {
			continue
		}
		pw.Players[planet.Owner].Alive = true
	}
}

// LivingPlayers returns the ids of the players currently alive, in
// ascending order.
func (pw *PlanetWars) LivingPlayers() []int {
	var alive []int
	for _, player := range pw.Players {
		if player.Alive {
			alive = append(alive, player.ID)
		}
	}
	return alive
}

// IsFinished reports whether at most one player is left or the turn
// limit has been reached.
func (pw *PlanetWars) IsFinished() bool {
	return len(pw.LivingPlayers()) <= 1 || pw.TurnNum >= pw.MaxTurns
}
