package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/queue"
)

// DefaultDeliveryInterval is how often the outbound queue is drained when
// no interval is configured.
const DefaultDeliveryInterval = 10 * time.Millisecond

// Deliverer writes payloads to connected players.
type Deliverer interface {
	Send(sessionID string, player types.PlayerID, payload []byte) error
	Broadcast(sessionID string, payload []byte) error
	Kick(sessionID string, player types.PlayerID) error
}

// ServerMessageWorker drains the outbound queue filled by the sessions and
// hands every envelope to the transport, preserving queue order.
type ServerMessageWorker struct {
	outbound  queue.Queue
	deliverer Deliverer
	interval  time.Duration
}

type NewServerMessageWorkerOptions struct {
	OutboundQueue queue.Queue
	Deliverer     Deliverer
	Interval      time.Duration
}

func NewServerMessageWorker(opts NewServerMessageWorkerOptions) *ServerMessageWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultDeliveryInterval
	}
	return &ServerMessageWorker{
		outbound:  opts.OutboundQueue,
		deliverer: opts.Deliverer,
		interval:  interval,
	}
}

func (w *ServerMessageWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.deliverPending()
		}
	}
}

func (w *ServerMessageWorker) deliverPending() {
	messages, err := w.outbound.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read outbound messages: %v", err)
		return
	}

	for _, item := range messages {
		envelope, ok := item.(*types.Envelope)
		if !ok {
			log.Error("Unexpected outbound message type: %T", item)
			continue
		}
		if err := w.deliver(envelope); err != nil {
			log.Debug("Failed to deliver %s update of session %s: %v", envelope.Update.Kind, envelope.SessionID, err)
		}
	}
}

func (w *ServerMessageWorker) deliver(envelope *types.Envelope) error {
	update := envelope.Update
	switch update.Kind {
	case types.UpdatePlayer:
		return w.deliverer.Send(envelope.SessionID, update.Player, update.Payload)
	case types.UpdateGlobal:
		return w.deliverer.Broadcast(envelope.SessionID, update.Payload)
	case types.UpdateKick:
		return w.deliverer.Kick(envelope.SessionID, update.Player)
	default:
		return fmt.Errorf("unknown update kind %d", update.Kind)
	}
}
