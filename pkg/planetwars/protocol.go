package planetwars

import (
	"encoding/json"
	"fmt"
)

// Action is the message a player sends each turn.
type Action struct {
	Commands []Command `json:"commands"`
}

// Server message types.
const (
	MessageTypeGameState    = "GameState"
	MessageTypeFinalState   = "FinalState"
	MessageTypePlayerAction = "PlayerAction"
)

// ServerMessage is the envelope of everything sent to a player.
type ServerMessage struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

func GameStateMessage(state State) ServerMessage {
	return ServerMessage{Type: MessageTypeGameState, Content: state}
}

func FinalStateMessage(state State) ServerMessage {
	return ServerMessage{Type: MessageTypeFinalState, Content: state}
}

func PlayerActionMessage(action PlayerAction) ServerMessage {
	return ServerMessage{Type: MessageTypePlayerAction, Content: action}
}

// PlayerAction types.
const (
	PlayerActionTimeout    = "Timeout"
	PlayerActionParseError = "ParseError"
	PlayerActionCommands   = "Commands"
)

// PlayerAction acknowledges a player's turn. Value holds the parse error
// message or the per-command reports, depending on Type.
type PlayerAction struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

// PlayerCommand reports the outcome of a single command.
type PlayerCommand struct {
	Command Command       `json:"command"`
	Error   *CommandError `json:"error,omitempty"`
}

func TimeoutAction() PlayerAction {
	return PlayerAction{Type: PlayerActionTimeout}
}

func ParseErrorAction(err error) PlayerAction {
	return PlayerAction{Type: PlayerActionParseError, Value: err.Error()}
}

func CommandsAction(results []CommandResult) PlayerAction {
	commands := make([]PlayerCommand, 0, len(results))
	for _, r := range results {
		pc := PlayerCommand{Command: r.Command}
		if !r.Accepted() {
			e := r.Err
			pc.Error = &e
		}
		commands = append(commands, pc)
	}
	return PlayerAction{Type: PlayerActionCommands, Value: commands}
}

// DecodeAction parses a player's payload.
func DecodeAction(payload []byte) (*Action, error) {
	action := &Action{}
	if err := json.Unmarshal(payload, action); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}
	return action, nil
}
