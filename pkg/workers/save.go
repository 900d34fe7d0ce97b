package workers

import (
	"context"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/repositories"
)

type SaveResultWorker struct {
	repository repositories.Repository
	resultChan <-chan types.Summary
}

type NewSaveResultWorkerOptions struct {
	Repository repositories.Repository
	ResultChan <-chan types.Summary
}

// NewSaveResultWorker creates a new SaveResultWorker.
// The worker persists the summary of every finished session.
func NewSaveResultWorker(opts NewSaveResultWorkerOptions) *SaveResultWorker {
	return &SaveResultWorker{
		repository: opts.Repository,
		resultChan: opts.ResultChan,
	}
}

func (w *SaveResultWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case summary := <-w.resultChan:
			w.saveResult(ctx, summary)
		}
	}
}

func (w *SaveResultWorker) saveResult(ctx context.Context, summary types.Summary) {
	if err := w.repository.SaveResult(ctx, &summary); err != nil {
		log.Error("Failed to save result of session %s: %v", summary.SessionID, err)
		return
	}
	log.Debug("Saved result of session %s", summary.SessionID)
}
