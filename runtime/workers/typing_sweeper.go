package workers

import (
	"context"
	"log/slog"
	"time"

	"roomsync/contract"
)

// TypingSweep is what the sweeper invokes each tick.
type TypingSweep interface {
	SweepTyping(ctx context.Context)
}

// Ensure *TypingSweeperWorker implements the contract.Worker interface at
// compile time.
var _ contract.Worker = (*TypingSweeperWorker)(nil)

// TypingSweeperWorker periodically expires stale typing entries. It is the
// only scheduled task in the engine: everything else reacts to inbound
// events.
type TypingSweeperWorker struct {
	sweeper  TypingSweep
	interval time.Duration
	log      *slog.Logger
}

func NewTypingSweeperWorker(sweeper TypingSweep, interval time.Duration, log *slog.Logger) *TypingSweeperWorker {
	return &TypingSweeperWorker{sweeper: sweeper, interval: interval, log: log}
}

func (w *TypingSweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweeper.SweepTyping(ctx)
		}
	}
}
