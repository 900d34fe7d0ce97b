package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConnectionState is the transport-side state of a player slot.
type ConnectionState int

const (
	// ConnectionWaiting means nobody has claimed the slot's key yet.
	ConnectionWaiting ConnectionState = iota
	// ConnectionConnected means a client holds the slot.
	ConnectionConnected
	// ConnectionReconnecting means the client dropped and may come back.
	ConnectionReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionWaiting:
		return "waiting"
	case ConnectionConnected:
		return "connected"
	case ConnectionReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// ConnectionStatus is reported by the transport for each player slot.
// It is read-only for the game core.
type ConnectionStatus struct {
	Player PlayerID
	State  ConnectionState
	// Key is the join key of a waiting slot.
	Key uint64
	// Name is the client name of a connected or reconnecting slot.
	Name string
}

// MarshalJSON renders the status the way the lobby expects it.
func (c ConnectionStatus) MarshalJSON() ([]byte, error) {
	value := c.Name
	if c.State == ConnectionWaiting {
		value = fmt.Sprintf("Key: %d", c.Key)
	}
	return json.Marshal(struct {
		Player       PlayerID `json:"player"`
		Waiting      bool     `json:"waiting"`
		Connected    bool     `json:"connected"`
		Reconnecting bool     `json:"reconnecting"`
		Key          uint64   `json:"key,omitempty"`
		Value        string   `json:"value"`
	}{
		Player:       c.Player,
		Waiting:      c.State == ConnectionWaiting,
		Connected:    c.State != ConnectionWaiting,
		Reconnecting: c.State == ConnectionReconnecting,
		Key:          c.Key,
		Value:        value,
	})
}

// Summary describes a finished session.
type Summary struct {
	SessionID  string     `json:"session_id"`
	Name       string     `json:"name"`
	Map        string     `json:"map"`
	ReplayFile string     `json:"file"`
	Turns      uint64     `json:"turns"`
	Players    []PlayerID `json:"players"`
	Winners    []PlayerID `json:"winners"`
	FinishedAt time.Time  `json:"finished_at"`
}

// IsWinner reports whether player is among the winners.
func (s *Summary) IsWinner(player PlayerID) bool {
	for _, w := range s.Winners {
		if w == player {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a session as seen by the manager.
type Status int

const (
	// StatusUnknown means the id was never registered.
	StatusUnknown Status = iota
	StatusRunning
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "running":
		*s = StatusRunning
	case "finished":
		*s = StatusFinished
	default:
		*s = StatusUnknown
	}
	return nil
}

// SessionState is the answer to a status query. Only the fields matching
// Status are set: State and Players while running, Summary once finished.
type SessionState struct {
	Status    Status             `json:"status"`
	ID        string             `json:"id,omitempty"`
	Name      string             `json:"name,omitempty"`
	CreatedAt time.Time          `json:"created_at,omitempty"`
	State     json.RawMessage    `json:"state,omitempty"`
	Players   []ConnectionStatus `json:"players,omitempty"`
	Connected int                `json:"connected,omitempty"`
	Summary   *Summary           `json:"summary,omitempty"`
}
