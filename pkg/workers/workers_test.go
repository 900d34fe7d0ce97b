package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	queuemocks "github.com/cbodonnell/planetwars/mocks/github.com/cbodonnell/planetwars/pkg/queue"
	repomocks "github.com/cbodonnell/planetwars/mocks/github.com/cbodonnell/planetwars/pkg/repositories"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type delivery struct {
	kind    string
	session string
	player  types.PlayerID
	payload string
}

type recordingDeliverer struct {
	deliveries []delivery
	err        error
}

func (d *recordingDeliverer) Send(sessionID string, player types.PlayerID, payload []byte) error {
	d.deliveries = append(d.deliveries, delivery{"send", sessionID, player, string(payload)})
	return d.err
}

func (d *recordingDeliverer) Broadcast(sessionID string, payload []byte) error {
	d.deliveries = append(d.deliveries, delivery{"broadcast", sessionID, 0, string(payload)})
	return d.err
}

func (d *recordingDeliverer) Kick(sessionID string, player types.PlayerID) error {
	d.deliveries = append(d.deliveries, delivery{"kick", sessionID, player, ""})
	return d.err
}

func TestServerMessageWorker_deliverPending(t *testing.T) {
	tests := []struct {
		name     string
		messages []interface{}
		readErr  error
		sendErr  error
		want     []delivery
	}{
		{
			name: "delivers in queue order",
			messages: []interface{}{
				&types.Envelope{SessionID: "s1", Update: types.GlobalUpdate([]byte("hello"))},
				&types.Envelope{SessionID: "s1", Update: types.PlayerUpdate(1, []byte("state"))},
				&types.Envelope{SessionID: "s2", Update: types.KickUpdate(0)},
			},
			want: []delivery{
				{"broadcast", "s1", 0, "hello"},
				{"send", "s1", 1, "state"},
				{"kick", "s2", 0, ""},
			},
		},
		{
			name: "skips foreign items",
			messages: []interface{}{
				"not an envelope",
				&types.Envelope{SessionID: "s1", Update: types.PlayerUpdate(0, []byte("x"))},
			},
			want: []delivery{
				{"send", "s1", 0, "x"},
			},
		},
		{
			name: "delivery errors do not stop the batch",
			messages: []interface{}{
				&types.Envelope{SessionID: "s1", Update: types.PlayerUpdate(0, []byte("a"))},
				&types.Envelope{SessionID: "s1", Update: types.PlayerUpdate(1, []byte("b"))},
			},
			sendErr: errors.New("not connected"),
			want: []delivery{
				{"send", "s1", 0, "a"},
				{"send", "s1", 1, "b"},
			},
		},
		{
			name:    "read error",
			readErr: errors.New("boom"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue := queuemocks.NewQueue(t)
			mockQueue.EXPECT().ReadAllMessages().Return(tt.messages, tt.readErr).Once()
			deliverer := &recordingDeliverer{err: tt.sendErr}

			w := NewServerMessageWorker(NewServerMessageWorkerOptions{
				OutboundQueue: mockQueue,
				Deliverer:     deliverer,
			})
			w.deliverPending()

			assert.Equal(t, tt.want, deliverer.deliveries)
		})
	}
}

func TestServerMessageWorker_defaultInterval(t *testing.T) {
	w := NewServerMessageWorker(NewServerMessageWorkerOptions{})
	assert.Equal(t, DefaultDeliveryInterval, w.interval)
}

func TestSaveResultWorker(t *testing.T) {
	tests := []struct {
		name    string
		saveErr error
	}{
		{name: "saves result"},
		{name: "save error is logged", saveErr: errors.New("disk full")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			saved := make(chan *types.Summary, 1)
			mockRepo := repomocks.NewRepository(t)
			mockRepo.EXPECT().
				SaveResult(mock.Anything, mock.AnythingOfType("*types.Summary")).
				Run(func(_ context.Context, summary *types.Summary) { saved <- summary }).
				Return(tt.saveErr).
				Once()

			results := make(chan types.Summary)
			w := NewSaveResultWorker(NewSaveResultWorkerOptions{
				Repository: mockRepo,
				ResultChan: results,
			})
			go w.Start(ctx)

			results <- types.Summary{SessionID: "abc", Turns: 7}

			select {
			case summary := <-saved:
				assert.Equal(t, "abc", summary.SessionID)
				assert.Equal(t, uint64(7), summary.Turns)
			case <-time.After(time.Second):
				t.Fatal("result was not saved")
			}
		})
	}
}
