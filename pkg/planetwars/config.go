package planetwars

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Map is the on-disk description of a map.
type Map struct {
	Planets []MapPlanet `json:"planets"`
}

// MapPlanet is a planet as written in a map file. Owners are numbered
// from 1; a missing owner means the planet starts neutral.
type MapPlanet struct {
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Owner     *int    `json:"owner,omitempty"`
	ShipCount uint64  `json:"ship_count"`
}

// ReadMap decodes a map from r.
func ReadMap(r io.Reader) (*Map, error) {
	m := &Map{}
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("failed to decode map: %w", err)
	}
	if len(m.Planets) == 0 {
		return nil, fmt.Errorf("map has no planets")
	}
	return m, nil
}

// LoadMap reads a map file from disk.
func LoadMap(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map %s: %w", path, err)
	}
	defer f.Close()

	return ReadMap(f)
}

// NewPlanets builds the initial planets for a game with players players.
// Map owners beyond the player count start neutral.
func (m *Map) NewPlanets(players int) []*Planet {
	planets := make([]*Planet, 0, len(m.Planets))
	for i, p := range m.Planets {
		owner := Neutral
		if p.Owner != nil && *p.Owner >= 1 && *p.Owner <= players {
			owner = *p.Owner - 1
		}
		planets = append(planets, &Planet{
			ID:        i,
			Name:      p.Name,
			Owner:     owner,
			ShipCount: p.ShipCount,
			X:         p.X,
			Y:         p.Y,
		})
	}
	return planets
}

// Config describes how to build a planetwars game.
type Config struct {
	// MapFile is the path of the map to play on.
	MapFile string
	// Map is used instead of MapFile when set.
	Map      *Map
	MaxTurns uint64
	// Growth defaults to DefaultGrowth.
	Growth GrowthFunc
	// ReplayDir is where the per-session replay log is written.
	ReplayDir string
	// CompressReplay writes the replay log zstd compressed.
	CompressReplay bool
}

// CreateGame builds the initial world for players players.
func (c Config) CreateGame(players int) (*PlanetWars, error) {
	m := c.Map
	if m == nil {
		var err error
		m, err = LoadMap(c.MapFile)
		if err != nil {
			return nil, err
		}
	}

	return NewPlanetWars(m.NewPlanets(players), players, c.MaxTurns, c.Growth)
}
