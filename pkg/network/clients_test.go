package network

import (
	"errors"
	"sync"
	"testing"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	lock     sync.Mutex
	written  []string
	closed   bool
	reason   string
	writeErr error
}

func (c *fakeConn) Write(payload []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, string(payload))
	return nil
}

func (c *fakeConn) Close(reason string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
	c.reason = reason
	return nil
}

func newRegistered(t *testing.T, players ...types.PlayerID) (*ClientManager, map[types.PlayerID]uint64) {
	t.Helper()
	cm := NewClientManager(NewClientManagerOptions{})
	require.NoError(t, cm.Register("s1", players))
	return cm, cm.Keys("s1")
}

func TestClientManager_Register(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1, 2)

	require.Len(t, keys, 3)
	seen := make(map[uint64]bool)
	for _, key := range keys {
		assert.NotZero(t, key)
		assert.False(t, seen[key])
		seen[key] = true
	}

	statuses := cm.Statuses("s1")
	require.Len(t, statuses, 3)
	for i, status := range statuses {
		assert.Equal(t, types.PlayerID(i), status.Player)
		assert.Equal(t, types.ConnectionWaiting, status.State)
		assert.Equal(t, keys[status.Player], status.Key)
	}

	assert.Error(t, cm.Register("s1", []types.PlayerID{0}))
	assert.Empty(t, cm.Statuses("unknown"))
}

func TestClientManager_Connect(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1)

	conn := &fakeConn{}
	sessionID, player, err := cm.Connect(keys[1], "bot", conn)
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)
	assert.Equal(t, types.PlayerID(1), player)

	statuses := cm.Statuses("s1")
	assert.Equal(t, types.ConnectionWaiting, statuses[0].State)
	assert.Equal(t, types.ConnectionConnected, statuses[1].State)
	assert.Equal(t, "bot", statuses[1].Name)
	assert.Zero(t, statuses[1].Key)

	// zero is never handed out
	_, _, err = cm.Connect(0, "nobody", &fakeConn{})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestClientManager_reconnect(t *testing.T) {
	cm, keys := newRegistered(t, 0)

	first := &fakeConn{}
	_, _, err := cm.Connect(keys[0], "bot", first)
	require.NoError(t, err)

	cm.Disconnect("s1", 0, first)
	assert.Equal(t, types.ConnectionReconnecting, cm.Statuses("s1")[0].State)
	assert.ErrorIs(t, cm.Send("s1", 0, []byte("x")), ErrNotConnected)

	second := &fakeConn{}
	_, _, err = cm.Connect(keys[0], "bot", second)
	require.NoError(t, err)
	assert.Equal(t, types.ConnectionConnected, cm.Statuses("s1")[0].State)
	// the message missed while away is caught up on reconnect
	assert.Equal(t, []string{"x"}, second.written)

	// a third connection with the same key replaces the second
	third := &fakeConn{}
	_, _, err = cm.Connect(keys[0], "bot", third)
	require.NoError(t, err)
	assert.True(t, second.closed)

	// the replaced connection going away does not touch the slot
	cm.Disconnect("s1", 0, second)
	assert.Equal(t, types.ConnectionConnected, cm.Statuses("s1")[0].State)

	require.NoError(t, cm.Send("s1", 0, []byte("state")))
	assert.Equal(t, []string{"state"}, third.written)
}

func TestClientManager_Resolve(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1)
	require.NoError(t, cm.Kick("s1", 1))

	tests := []struct {
		name    string
		key     uint64
		player  types.PlayerID
		wantErr error
	}{
		{name: "waiting slot", key: keys[0], player: 0},
		{name: "kicked slot", key: keys[1], wantErr: ErrUnknownKey},
		{name: "zero key", key: 0, wantErr: ErrUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessionID, player, err := cm.Resolve(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s1", sessionID)
			assert.Equal(t, tt.player, player)
		})
	}

	// resolving does not claim the slot
	assert.Equal(t, types.ConnectionWaiting, cm.Statuses("s1")[0].State)
}

func TestClientManager_Send_beforeConnect(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1)

	assert.ErrorIs(t, cm.Send("s1", 0, []byte("turn 0")), ErrNotConnected)
	assert.ErrorIs(t, cm.Send("s1", 0, []byte("turn 1")), ErrNotConnected)

	conn := &fakeConn{}
	_, _, err := cm.Connect(keys[0], "bot", conn)
	require.NoError(t, err)
	// only the latest message is kept
	assert.Equal(t, []string{"turn 1"}, conn.written)

	require.NoError(t, cm.Send("s1", 0, []byte("turn 2")))
	assert.Equal(t, []string{"turn 1", "turn 2"}, conn.written)

	// a kicked slot keeps nothing
	assert.ErrorIs(t, cm.Send("s1", 1, []byte("final")), ErrNotConnected)
	require.NoError(t, cm.Kick("s1", 1))
	assert.ErrorIs(t, cm.Send("s1", 1, []byte("late")), ErrNotConnected)
}

func TestClientManager_Connect_catchUpFails(t *testing.T) {
	cm, keys := newRegistered(t, 0)
	assert.ErrorIs(t, cm.Send("s1", 0, []byte("turn 0")), ErrNotConnected)

	_, _, err := cm.Connect(keys[0], "bot", &fakeConn{writeErr: errors.New("broken pipe")})
	assert.Error(t, err)
	assert.Equal(t, types.ConnectionWaiting, cm.Statuses("s1")[0].State)

	// the message is still there for the next client
	conn := &fakeConn{}
	_, _, err = cm.Connect(keys[0], "bot", conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"turn 0"}, conn.written)
}

func TestClientManager_Broadcast(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1, 2)

	a, b := &fakeConn{}, &fakeConn{writeErr: errors.New("broken pipe")}
	_, _, err := cm.Connect(keys[0], "a", a)
	require.NoError(t, err)
	_, _, err = cm.Connect(keys[1], "b", b)
	require.NoError(t, err)

	err = cm.Broadcast("s1", []byte("hello"))
	assert.Error(t, err)
	assert.Equal(t, []string{"hello"}, a.written)
}

func TestClientManager_Kick(t *testing.T) {
	cm, keys := newRegistered(t, 0, 1)

	conn := &fakeConn{}
	_, _, err := cm.Connect(keys[0], "bot", conn)
	require.NoError(t, err)

	require.NoError(t, cm.Kick("s1", 0))
	assert.True(t, conn.closed)
	assert.ErrorIs(t, cm.Send("s1", 0, []byte("x")), ErrNotConnected)

	_, _, err = cm.Connect(keys[0], "bot", &fakeConn{})
	assert.ErrorIs(t, err, ErrUnknownKey)

	// kicking a slot nobody holds is fine
	require.NoError(t, cm.Kick("s1", 1))
	assert.ErrorIs(t, cm.Kick("s1", 7), ErrUnknownSlot)
}

func TestClientManager_Allow(t *testing.T) {
	cm := NewClientManager(NewClientManagerOptions{InboundRate: 1, InboundBurst: 2})
	require.NoError(t, cm.Register("s1", []types.PlayerID{0}))

	assert.True(t, cm.Allow("s1", 0))
	assert.True(t, cm.Allow("s1", 0))
	assert.False(t, cm.Allow("s1", 0))
	assert.False(t, cm.Allow("s1", 1))
}
