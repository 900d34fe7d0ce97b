package planetwars

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreePlayers(t *testing.T) *PlanetWars {
	t.Helper()
	planets := []*Planet{
		{ID: 0, Name: "a", Owner: 0, ShipCount: 5},
		{ID: 1, Name: "b", Owner: 1, ShipCount: 6, X: 3},
		{ID: 2, Name: "c", Owner: 2, ShipCount: 7, Y: 3},
		{ID: 3, Name: "d", Owner: Neutral, ShipCount: 8, X: 3, Y: 3},
	}
	pw, err := NewPlanetWars(planets, 3, 10, NoGrowth)
	require.NoError(t, err)
	return pw
}

func owners(state State) []*uint64 {
	out := make([]*uint64, 0, len(state.Planets))
	for _, p := range state.Planets {
		out = append(out, p.Owner)
	}
	return out
}

func num(n uint64) *uint64 {
	return &n
}

func TestSerializeRotated(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   []*uint64
	}{
		{name: "canonical", offset: 0, want: []*uint64{num(1), num(2), num(3), nil}},
		{name: "second player", offset: 1, want: []*uint64{num(3), num(1), num(2), nil}},
		{name: "third player", offset: 2, want: []*uint64{num(2), num(3), num(1), nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw := newThreePlayers(t)
			assert.Equal(t, tt.want, owners(SerializeRotated(pw, tt.offset)))
		})
	}
}

func TestSerializeRotated_bijection(t *testing.T) {
	pw := newThreePlayers(t)

	for offset := range pw.Players {
		seen := make(map[uint64]bool)
		for player := range pw.Players {
			s := serializer{state: pw, offset: offset}
			n := s.playerNum(player)
			assert.GreaterOrEqual(t, n, uint64(1))
			assert.LessOrEqual(t, n, uint64(len(pw.Players)))
			assert.False(t, seen[n], "number %d assigned twice", n)
			seen[n] = true
		}
		assert.Equal(t, uint64(1), serializer{state: pw, offset: offset}.playerNum(offset))
	}
}

func TestSerialize_expeditions(t *testing.T) {
	pw := newThreePlayers(t)
	pw.Execute(Orders{Player: 1, Commands: []Command{{Origin: "b", Destination: "a", ShipCount: 4}}})

	canonical := Serialize(pw)
	require.Len(t, canonical.Expeditions, 1)
	assert.Equal(t, StateExpedition{
		ID:             0,
		ShipCount:      4,
		Origin:         "b",
		Destination:    "a",
		Owner:          2,
		TurnsRemaining: 3,
	}, canonical.Expeditions[0])

	rotated := SerializeRotated(pw, 1)
	assert.Equal(t, uint64(1), rotated.Expeditions[0].Owner)
}

func TestSerialize_json(t *testing.T) {
	planets := []*Planet{
		{ID: 0, Name: "Earth", Owner: 0, ShipCount: 10, X: 1, Y: 2},
		{ID: 1, Name: "Pluto", Owner: Neutral, ShipCount: 0},
	}
	pw, err := NewPlanetWars(planets, 1, 10, NoGrowth)
	require.NoError(t, err)

	b, err := json.Marshal(Serialize(pw))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"planets": [
			{"ship_count": 10, "x": 1, "y": 2, "owner": 1, "name": "Earth"},
			{"ship_count": 0, "x": 0, "y": 0, "owner": null, "name": "Pluto"}
		],
		"expeditions": []
	}`, string(b))
}
