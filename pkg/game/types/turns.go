package types

// PlayerID identifies a player within a single session. Ids are assigned
// 0..N-1 when the session is created and never change.
type PlayerID uint64

// Turn is the input of one player for one turn window.
type Turn struct {
	// Payload holds the raw bytes the player submitted. It is nil when
	// the player timed out.
	Payload []byte
	// Timeout is set when the window closed before the player submitted.
	Timeout bool
}

// PlayerTurn pairs a player with their input for the current window.
type PlayerTurn struct {
	Player PlayerID
	Turn   Turn
}

// ActionTurn returns a PlayerTurn carrying a submitted payload.
func ActionTurn(player PlayerID, payload []byte) PlayerTurn {
	return PlayerTurn{Player: player, Turn: Turn{Payload: payload}}
}

// TimeoutTurn returns a PlayerTurn for a player that did not submit in time.
func TimeoutTurn(player PlayerID) PlayerTurn {
	return PlayerTurn{Player: player, Turn: Turn{Timeout: true}}
}

// UpdateKind tells the transport how to deliver an Update.
type UpdateKind int

const (
	// UpdatePlayer carries a payload for a single player.
	UpdatePlayer UpdateKind = iota
	// UpdateGlobal carries a payload for every connected player.
	UpdateGlobal
	// UpdateKick tells the transport to drop the player from the session.
	UpdateKick
)

func (k UpdateKind) String() string {
	switch k {
	case UpdatePlayer:
		return "player"
	case UpdateGlobal:
		return "global"
	case UpdateKick:
		return "kick"
	default:
		return "unknown"
	}
}

// Update is an outbound message produced by a controller.
type Update struct {
	Kind    UpdateKind
	Player  PlayerID
	Payload []byte
}

// PlayerUpdate returns an Update addressed to one player.
func PlayerUpdate(player PlayerID, payload []byte) Update {
	return Update{Kind: UpdatePlayer, Player: player, Payload: payload}
}

// GlobalUpdate returns an Update addressed to every player.
func GlobalUpdate(payload []byte) Update {
	return Update{Kind: UpdateGlobal, Payload: payload}
}

// KickUpdate returns an Update that removes player from the session.
func KickUpdate(player PlayerID) Update {
	return Update{Kind: UpdateKick, Player: player}
}

// Envelope is an Update tagged with the session it belongs to. Sessions
// push envelopes onto the outbound queue.
type Envelope struct {
	SessionID string
	Update    Update
}
