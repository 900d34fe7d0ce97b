package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/planetwars"
)

// Bot decides the payload to send for a turn. States are already rotated
// so the bot always plays as owner 1.
type Bot interface {
	Turn(ctx context.Context, state planetwars.State) ([]byte, error)
	Close() error
}

// Me is the owner number of the receiving player in every state it gets.
const Me = 1

// SimpleBot sends all but one ship of its strongest planet to the weakest
// planet it does not own.
type SimpleBot struct{}

func (SimpleBot) Turn(ctx context.Context, state planetwars.State) ([]byte, error) {
	return json.Marshal(planetwars.Action{Commands: SimpleMove(state)})
}

func (SimpleBot) Close() error { return nil }

// SimpleMove returns the commands SimpleBot plays in state.
func SimpleMove(state planetwars.State) []planetwars.Command {
	var strongest, weakest *planetwars.StatePlanet
	for i := range state.Planets {
		p := &state.Planets[i]
		if p.Owner != nil && *p.Owner == Me {
			if strongest == nil || p.ShipCount > strongest.ShipCount {
				strongest = p
			}
			continue
		}
		if weakest == nil || p.ShipCount < weakest.ShipCount {
			weakest = p
		}
	}
	if strongest == nil || weakest == nil || strongest.ShipCount < 2 {
		return []planetwars.Command{}
	}
	return []planetwars.Command{{
		Origin:      strongest.Name,
		Destination: weakest.Name,
		ShipCount:   strongest.ShipCount - 1,
	}}
}

// ProcessBot runs an external program that reads one state per line on
// stdin and answers with one action per line on stdout.
type ProcessBot struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan []byte
	// err is set before lines is closed.
	err  error
	lock sync.Mutex
}

// NewProcessBot starts name with args. The process is killed when ctx is
// done or Close is called.
func NewProcessBot(ctx context.Context, name string, args ...string) (*ProcessBot, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open bot stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open bot stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start bot %s: %w", name, err)
	}

	b := &ProcessBot{cmd: cmd, stdin: stdin, lines: make(chan []byte, 1)}
	go b.read(stdout)
	return b, nil
}

func (b *ProcessBot) read(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		b.lines <- line
	}
	b.err = scanner.Err()
	if b.err == nil {
		b.err = io.EOF
	}
	close(b.lines)
}

func (b *ProcessBot) Turn(ctx context.Context, state planetwars.State) ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	line, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := b.dropStale(); err != nil {
		return nil, err
	}
	if _, err := b.stdin.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write state to bot: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload, ok := <-b.lines:
		if !ok {
			return nil, fmt.Errorf("failed to read bot answer: %w", b.err)
		}
		return payload, nil
	}
}

// dropStale discards answers left over from a cancelled turn or printed
// beyond one per state, so the next answer read belongs to the next state.
func (b *ProcessBot) dropStale() error {
	for {
		select {
		case line, ok := <-b.lines:
			if !ok {
				return fmt.Errorf("failed to read bot answer: %w", b.err)
			}
			log.Debug("Dropped stale bot answer: %s", line)
		default:
			return nil
		}
	}
}

func (b *ProcessBot) Close() error {
	b.stdin.Close()
	if b.cmd.Process != nil {
		b.cmd.Process.Kill()
	}
	if err := b.cmd.Wait(); err != nil {
		log.Debug("bot exited: %v", err)
	}
	return nil
}
