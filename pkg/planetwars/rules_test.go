package planetwars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEarthMars returns Earth (P0, 10 ships) and Mars (P1, 3 ships), four
// turns apart, plus an empty neutral Venus.
func newEarthMars(t *testing.T, growth GrowthFunc) *PlanetWars {
	t.Helper()
	planets := []*Planet{
		{ID: 0, Name: "Earth", Owner: 0, ShipCount: 10, X: 0, Y: 0},
		{ID: 1, Name: "Mars", Owner: 1, ShipCount: 3, X: 4, Y: 0},
		{ID: 2, Name: "Venus", Owner: Neutral, ShipCount: 0, X: 0, Y: 2.5},
	}
	pw, err := NewPlanetWars(planets, 2, 100, growth)
	require.NoError(t, err)
	return pw
}

func TestNewPlanetWars(t *testing.T) {
	tests := []struct {
		name    string
		planets []*Planet
		players int
		wantErr bool
	}{
		{
			name: "valid",
			planets: []*Planet{
				{ID: 0, Name: "a", Owner: 0},
				{ID: 1, Name: "b", Owner: Neutral},
			},
			players: 2,
		},
		{
			name: "id does not match index",
			planets: []*Planet{
				{ID: 1, Name: "a", Owner: 0},
			},
			players: 1,
			wantErr: true,
		},
		{
			name: "duplicate name",
			planets: []*Planet{
				{ID: 0, Name: "a", Owner: 0},
				{ID: 1, Name: "a", Owner: Neutral},
			},
			players: 1,
			wantErr: true,
		},
		{
			name: "unknown owner",
			planets: []*Planet{
				{ID: 0, Name: "a", Owner: 3},
			},
			players: 2,
			wantErr: true,
		},
		{
			name:    "no players",
			planets: []*Planet{{ID: 0, Name: "a", Owner: Neutral}},
			players: 0,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanetWars(tt.planets, tt.players, 10, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewPlanetWars_alive(t *testing.T) {
	planets := []*Planet{
		{ID: 0, Name: "a", Owner: 0},
		{ID: 1, Name: "b", Owner: Neutral},
	}
	pw, err := NewPlanetWars(planets, 2, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, pw.LivingPlayers())
	assert.True(t, pw.IsFinished())
}

func TestPlanetWars_Validate(t *testing.T) {
	tests := []struct {
		name    string
		player  int
		cmd     Command
		want    Dispatch
		wantErr error
	}{
		{
			name:   "valid",
			player: 0,
			cmd:    Command{Origin: "Earth", Destination: "Mars", ShipCount: 5},
			want:   Dispatch{Player: 0, Origin: 0, Target: 1, ShipCount: 5},
		},
		{
			name:    "unknown origin is checked first",
			player:  0,
			cmd:     Command{Origin: "Pluto", Destination: "Nowhere", ShipCount: 0},
			wantErr: OriginDoesNotExist,
		},
		{
			name:    "unknown destination",
			player:  0,
			cmd:     Command{Origin: "Earth", Destination: "Pluto", ShipCount: 1},
			wantErr: DestinationDoesNotExist,
		},
		{
			name:    "origin owned by someone else",
			player:  0,
			cmd:     Command{Origin: "Mars", Destination: "Earth", ShipCount: 0},
			wantErr: OriginNotOwned,
		},
		{
			name:    "neutral origin",
			player:  0,
			cmd:     Command{Origin: "Venus", Destination: "Earth", ShipCount: 0},
			wantErr: OriginNotOwned,
		},
		{
			name:    "not enough ships",
			player:  0,
			cmd:     Command{Origin: "Earth", Destination: "Mars", ShipCount: 15},
			wantErr: NotEnoughShips,
		},
		{
			name:    "zero ships",
			player:  0,
			cmd:     Command{Origin: "Earth", Destination: "Mars", ShipCount: 0},
			wantErr: ZeroShipMove,
		},
		{
			name:   "all ships",
			player: 1,
			cmd:    Command{Origin: "Mars", Destination: "Venus", ShipCount: 3},
			want:   Dispatch{Player: 1, Origin: 1, Target: 2, ShipCount: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw := newEarthMars(t, NoGrowth)

			got, err := pw.Validate(tt.player, tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Dispatch{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanetWars_Execute(t *testing.T) {
	pw := newEarthMars(t, NoGrowth)

	result := pw.Execute(Orders{
		Player: 0,
		Commands: []Command{
			{Origin: "Earth", Destination: "Mars", ShipCount: 5},
		},
	})

	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Accepted())
	assert.Equal(t, uint64(5), pw.Planets[0].ShipCount)
	require.Len(t, pw.Expeditions, 1)
	assert.Equal(t, &Expedition{
		ID:             0,
		Owner:          0,
		Origin:         0,
		Destination:    1,
		ShipCount:      5,
		TurnsRemaining: 4,
	}, pw.Expeditions[0])
}

func TestPlanetWars_Execute_rejectedLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr CommandError
	}{
		{
			name:    "too many ships",
			cmd:     Command{Origin: "Earth", Destination: "Mars", ShipCount: 15},
			wantErr: NotEnoughShips,
		},
		{
			name:    "unknown origin",
			cmd:     Command{Origin: "Pluto", Destination: "Mars", ShipCount: 1},
			wantErr: OriginDoesNotExist,
		},
		{
			name:    "unknown destination",
			cmd:     Command{Origin: "Earth", Destination: "Pluto", ShipCount: 1},
			wantErr: DestinationDoesNotExist,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw := newEarthMars(t, NoGrowth)

			result := pw.Execute(Orders{Player: 0, Commands: []Command{tt.cmd}})

			require.Len(t, result.Results, 1)
			assert.Equal(t, tt.wantErr, result.Results[0].Err)
			assert.Equal(t, uint64(10), pw.Planets[0].ShipCount)
			assert.Equal(t, uint64(3), pw.Planets[1].ShipCount)
			assert.Empty(t, pw.Expeditions)
		})
	}
}

func TestPlanetWars_Execute_sequential(t *testing.T) {
	pw := newEarthMars(t, NoGrowth)

	result := pw.Execute(Orders{
		Player: 0,
		Commands: []Command{
			{Origin: "Earth", Destination: "Mars", ShipCount: 6},
			{Origin: "Earth", Destination: "Venus", ShipCount: 6},
			{Origin: "Earth", Destination: "Venus", ShipCount: 4},
		},
	})

	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Accepted())
	assert.Equal(t, NotEnoughShips, result.Results[1].Err)
	assert.True(t, result.Results[2].Accepted())
	assert.Equal(t, uint64(0), pw.Planets[0].ShipCount)
	assert.Len(t, pw.Expeditions, 2)
	assert.Equal(t, uint64(0), pw.Expeditions[0].ID)
	assert.Equal(t, uint64(1), pw.Expeditions[1].ID)
}

func TestPlanetWars_arrival(t *testing.T) {
	tests := []struct {
		name      string
		player    int
		cmd       Command
		wantOwner int
		wantShips uint64
	}{
		{
			name:      "attacker wins",
			player:    0,
			cmd:       Command{Origin: "Earth", Destination: "Mars", ShipCount: 5},
			wantOwner: 0,
			wantShips: 2,
		},
		{
			name:      "tie leaves planet neutral",
			player:    0,
			cmd:       Command{Origin: "Earth", Destination: "Mars", ShipCount: 3},
			wantOwner: Neutral,
			wantShips: 0,
		},
		{
			name:      "defender holds",
			player:    0,
			cmd:       Command{Origin: "Earth", Destination: "Mars", ShipCount: 2},
			wantOwner: 1,
			wantShips: 1,
		},
		{
			name:      "reinforcement",
			player:    1,
			cmd:       Command{Origin: "Mars", Destination: "Mars", ShipCount: 2},
			wantOwner: 1,
			wantShips: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw := newEarthMars(t, NoGrowth)
			mars := pw.Planets[1]

			result := pw.Execute(Orders{Player: tt.player, Commands: []Command{tt.cmd}})
			require.True(t, result.Results[0].Accepted())
			require.Len(t, pw.Expeditions, 1)

			for len(pw.Expeditions) > 0 {
				pw.Advance()
			}

			assert.Equal(t, tt.wantOwner, mars.Owner)
			assert.Equal(t, tt.wantShips, mars.ShipCount)
		})
	}
}

func TestPlanetWars_arrivalTiming(t *testing.T) {
	pw := newEarthMars(t, NoGrowth)
	pw.Execute(Orders{Player: 0, Commands: []Command{{Origin: "Earth", Destination: "Mars", ShipCount: 5}}})

	for i := 0; i < 3; i++ {
		pw.Advance()
		require.Len(t, pw.Expeditions, 1)
		assert.Equal(t, 1, pw.Planets[1].Owner)
	}
	assert.Equal(t, uint64(1), pw.Expeditions[0].TurnsRemaining)

	pw.Advance()
	assert.Empty(t, pw.Expeditions)
	assert.Equal(t, 0, pw.Planets[1].Owner)
	assert.Equal(t, uint64(2), pw.Planets[1].ShipCount)
	assert.Equal(t, []int{0}, pw.LivingPlayers())
	assert.False(t, pw.Players[1].Alive)
	assert.True(t, pw.IsFinished())
}

func TestPlanetWars_captureEmptyNeutral(t *testing.T) {
	pw := newEarthMars(t, NoGrowth)
	pw.Execute(Orders{Player: 0, Commands: []Command{{Origin: "Earth", Destination: "Venus", ShipCount: 4}}})

	// 2.5 away rounds up to 3 turns
	require.Equal(t, uint64(3), pw.Expeditions[0].TurnsRemaining)
	for i := 0; i < 3; i++ {
		pw.Advance()
	}

	venus := pw.Planets[2]
	assert.Equal(t, 0, venus.Owner)
	assert.Equal(t, uint64(4), venus.ShipCount)
}

func TestPlanetWars_landOnGarrisonedNeutral(t *testing.T) {
	pw, err := NewPlanetWars([]*Planet{
		{ID: 0, Name: "Earth", Owner: 0, ShipCount: 10},
		{ID: 1, Name: "Ceres", Owner: Neutral, ShipCount: 5, X: 1},
	}, 1, 100, NoGrowth)
	require.NoError(t, err)

	pw.Execute(Orders{Player: 0, Commands: []Command{{Origin: "Earth", Destination: "Ceres", ShipCount: 3}}})
	pw.Advance()

	// the neutral garrison joins the landing fleet
	ceres := pw.Planets[1]
	assert.Equal(t, 0, ceres.Owner)
	assert.Equal(t, uint64(8), ceres.ShipCount)
}

func TestPlanetWars_Step(t *testing.T) {
	pw := newEarthMars(t, DefaultGrowth)

	report := pw.Step([]Orders{
		// Earth grows to 11 before the orders run
		{Player: 0, Commands: []Command{{Origin: "Earth", Destination: "Mars", ShipCount: 11}}},
		{Player: 1, Commands: []Command{{Origin: "Mars", Destination: "Earth", ShipCount: 5}}},
	})

	assert.Equal(t, []int{0, 1}, report.WereAlive)
	require.Len(t, report.Orders, 2)
	assert.Equal(t, 0, report.Orders[0].Player)
	assert.True(t, report.Orders[0].Results[0].Accepted())
	assert.Equal(t, 1, report.Orders[1].Player)
	assert.Equal(t, NotEnoughShips, report.Orders[1].Results[0].Err)

	assert.Equal(t, uint64(0), pw.Planets[0].ShipCount)
	assert.Equal(t, uint64(4), pw.Planets[1].ShipCount)
	assert.Equal(t, uint64(0), pw.Planets[2].ShipCount)
	assert.Equal(t, uint64(1), pw.TurnNum)
	require.Len(t, pw.Expeditions, 1)
	assert.Equal(t, uint64(3), pw.Expeditions[0].TurnsRemaining)
}

func TestPlanetWars_maxTurns(t *testing.T) {
	planets := []*Planet{
		{ID: 0, Name: "a", Owner: 0, ShipCount: 1},
		{ID: 1, Name: "b", Owner: 1, ShipCount: 1, X: 10},
	}
	pw, err := NewPlanetWars(planets, 2, 3, NoGrowth)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.False(t, pw.IsFinished())
		pw.Step(nil)
	}
	assert.True(t, pw.IsFinished())
	assert.Equal(t, uint64(3), pw.TurnNum)
	assert.Equal(t, []int{0, 1}, pw.LivingPlayers())
}

func TestPlanet_Distance(t *testing.T) {
	tests := []struct {
		name string
		a, b Planet
		want uint64
	}{
		{name: "same place", a: Planet{}, b: Planet{}, want: 0},
		{name: "exact", a: Planet{X: 0, Y: 0}, b: Planet{X: 3, Y: 4}, want: 5},
		{name: "rounds up", a: Planet{X: 0, Y: 0}, b: Planet{X: 1, Y: 1}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Distance(&tt.b))
			assert.Equal(t, tt.want, tt.b.Distance(&tt.a))
		})
	}
}
