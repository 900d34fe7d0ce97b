package planetwars

import "math"

// Neutral is the owner value of a planet nobody holds.
const Neutral = -1

// Planet is a node of the map. ID and Name never change during a game.
type Planet struct {
	ID        int
	Name      string
	Owner     int
	ShipCount uint64
	X         float64
	Y         float64
}

// IsNeutral reports whether no player owns the planet.
func (p *Planet) IsNeutral() bool {
	return p.Owner == Neutral
}

// OwnedBy reports whether player owns the planet.
func (p *Planet) OwnedBy(player int) bool {
	return !p.IsNeutral() && p.Owner == player
}

// Distance returns the number of turns a fleet needs to travel from p to
// other: the Euclidean distance rounded up.
func (p *Planet) Distance(other *Planet) uint64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return uint64(math.Ceil(math.Sqrt(dx*dx + dy*dy)))
}

// Expedition is a fleet in flight. Its ship count is fixed at launch.
type Expedition struct {
	ID             uint64
	Owner          int
	Origin         int
	Destination    int
	ShipCount      uint64
	TurnsRemaining uint64
}

// Player is a participant of the game. Alive is recomputed from planet
// ownership at the end of every step.
type Player struct {
	ID    int
	Alive bool
}

// Dispatch is a validated move, ready to be applied.
type Dispatch struct {
	Player    int
	Origin    int
	Target    int
	ShipCount uint64
}

// Command is a move as submitted by a player, naming planets.
type Command struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	ShipCount   uint64 `json:"ship_count"`
}

// CommandError is the reason a command was rejected.
type CommandError string

const (
	OriginDoesNotExist      CommandError = "OriginDoesNotExist"
	DestinationDoesNotExist CommandError = "DestinationDoesNotExist"
	OriginNotOwned          CommandError = "OriginNotOwned"
	NotEnoughShips          CommandError = "NotEnoughShips"
	ZeroShipMove            CommandError = "ZeroShipMove"
)

func (e CommandError) Error() string {
	return string(e)
}

// GrowthFunc returns the number of ships a planet gains at the start of a
// turn. It is only called for owned planets.
type GrowthFunc func(p *Planet) uint64

// DefaultGrowth adds one ship to every owned planet per turn.
func DefaultGrowth(*Planet) uint64 {
	return 1
}

// NoGrowth disables repopulation.
func NoGrowth(*Planet) uint64 {
	return 0
}
