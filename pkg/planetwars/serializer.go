package planetwars

// State is the wire form of the world.
type State struct {
	Planets     []StatePlanet     `json:"planets"`
	Expeditions []StateExpedition `json:"expeditions"`
}

type StatePlanet struct {
	ShipCount uint64  `json:"ship_count"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Owner     *uint64 `json:"owner"`
	Name      string  `json:"name"`
}

type StateExpedition struct {
	ID             uint64 `json:"id"`
	ShipCount      uint64 `json:"ship_count"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	Owner          uint64 `json:"owner"`
	TurnsRemaining uint64 `json:"turns_remaining"`
}

// Serialize returns the canonical view of the world. Player i is
// numbered i+1.
func Serialize(pw *PlanetWars) State {
	return SerializeRotated(pw, 0)
}

// SerializeRotated returns the world as seen by player offset. That player
// is always numbered 1 and the others follow in a fixed cyclic order, so
// the numbering stays the same for that player across turns.
func SerializeRotated(pw *PlanetWars, offset int) State {
	s := serializer{state: pw, offset: offset}
	return s.serializeState()
}

type serializer struct {
	state  *PlanetWars
	offset int
}

func (s serializer) playerNum(player int) uint64 {
	n := len(s.state.Players)
	return uint64((player+n-s.offset)%n) + 1
}

func (s serializer) serializeState() State {
	state := State{
		Planets:     make([]StatePlanet, 0, len(s.state.Planets)),
		Expeditions: make([]StateExpedition, 0, len(s.state.Expeditions)),
	}
	for _, planet := range s.state.Planets {
		state.Planets = append(state.Planets, s.serializePlanet(planet))
	}
	for _, expedition := range s.state.Expeditions {
		state.Expeditions = append(state.Expeditions, s.serializeExpedition(expedition))
	}
	return state
}

func (s serializer) serializePlanet(planet *Planet) StatePlanet {
	p := StatePlanet{
		ShipCount: planet.ShipCount,
		X:         planet.X,
		Y:         planet.Y,
		Name:      planet.Name,
	}
	if !planet.IsNeutral() {
		owner := s.playerNum(planet.Owner)
		p.Owner = &owner
	}
	return p
}

func (s serializer) serializeExpedition(expedition *Expedition) StateExpedition {
	return StateExpedition{
		ID:             expedition.ID,
		ShipCount:      expedition.ShipCount,
		Origin:         s.state.Planets[expedition.Origin].Name,
		Destination:    s.state.Planets[expedition.Destination].Name,
		Owner:          s.playerNum(expedition.Owner),
		TurnsRemaining: expedition.TurnsRemaining,
	}
}
