package steplock

import (
	"context"
	"testing"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepLock_Collect(t *testing.T) {
	tests := []struct {
		name    string
		players []types.PlayerID
		submit  []types.PlayerTurn
		want    []types.PlayerTurn
	}{
		{
			name:    "all players submit",
			players: []types.PlayerID{0, 1},
			submit: []types.PlayerTurn{
				types.ActionTurn(1, []byte("b")),
				types.ActionTurn(0, []byte("a")),
			},
			want: []types.PlayerTurn{
				types.ActionTurn(1, []byte("b")),
				types.ActionTurn(0, []byte("a")),
			},
		},
		{
			name:    "missing players time out",
			players: []types.PlayerID{0, 1, 2},
			submit: []types.PlayerTurn{
				types.ActionTurn(1, []byte("b")),
			},
			want: []types.PlayerTurn{
				types.ActionTurn(1, []byte("b")),
				types.TimeoutTurn(0),
				types.TimeoutTurn(2),
			},
		},
		{
			name:    "first submission wins",
			players: []types.PlayerID{0, 1},
			submit: []types.PlayerTurn{
				types.ActionTurn(0, []byte("first")),
				types.ActionTurn(0, []byte("second")),
			},
			want: []types.PlayerTurn{
				types.ActionTurn(0, []byte("first")),
				types.TimeoutTurn(1),
			},
		},
		{
			name:    "nobody submits",
			players: []types.PlayerID{0},
			want: []types.PlayerTurn{
				types.TimeoutTurn(0),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lock := NewStepLock(tt.players, 50*time.Millisecond)
			for _, turn := range tt.submit {
				require.NoError(t, lock.Submit(turn.Player, turn.Turn.Payload))
			}

			got, err := lock.Collect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepLock_returnsBeforeTimeout(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0, 1}, time.Minute)

	go func() {
		time.Sleep(10 * time.Millisecond)
		lock.Submit(0, []byte("a"))
		lock.Submit(1, []byte("b"))
	}()

	start := time.Now()
	got, err := lock.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStepLock_timeoutDoesNotCarryOver(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0, 1}, 30*time.Millisecond)

	require.NoError(t, lock.Submit(0, []byte("a")))
	first, err := lock.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.PlayerTurn{types.ActionTurn(0, []byte("a")), types.TimeoutTurn(1)}, first)

	require.NoError(t, lock.Submit(1, []byte("b")))
	require.NoError(t, lock.Submit(0, []byte("c")))
	second, err := lock.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.PlayerTurn{types.ActionTurn(1, []byte("b")), types.ActionTurn(0, []byte("c"))}, second)
}

func TestStepLock_Remove(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0, 1}, time.Minute)
	lock.Remove(1)

	assert.Equal(t, []types.PlayerID{0}, lock.Active())
	assert.ErrorIs(t, lock.Submit(1, []byte("x")), ErrNotParticipant)

	require.NoError(t, lock.Submit(0, []byte("a")))
	got, err := lock.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.PlayerTurn{types.ActionTurn(0, []byte("a"))}, got)
}

func TestStepLock_Close(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0}, time.Minute)

	errc := make(chan error, 1)
	go func() {
		_, err := lock.Collect(context.Background())
		errc <- err
	}()

	lock.Close()
	lock.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Collect did not return after Close")
	}
	assert.ErrorIs(t, lock.Submit(0, nil), ErrClosed)
}

func TestStepLock_contextCancel(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0}, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lock.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStepLock_inboxFull(t *testing.T) {
	lock := NewStepLock([]types.PlayerID{0}, time.Minute)
	for i := 0; i < InboxSizePerPlayer; i++ {
		require.NoError(t, lock.Submit(0, nil))
	}
	assert.ErrorIs(t, lock.Submit(0, nil), ErrInboxFull)
}
