package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/qashware/note-wallet/internal/note"
)

// CountdownSnapshot is the per-second view of the wallet's recall cohort:
// how long until the next note becomes recallable and how far its window
// has advanced.
type CountdownSnapshot struct {
	Countdown       string    `json:"countdown"`
	Progress        float64   `json:"progress"`
	NextRecallAt    time.Time `json:"next_recall_at"`
	RecallableCount int       `json:"recallable_count"`
	WaitingCount    int       `json:"waiting_count"`
	RecalledCount   int       `json:"recalled_count"`
}

// CountdownTask refreshes the recall countdown on a fixed cadence. It is
// tied to the lifetime of the view consuming it: Stop cancels the ticker
// goroutine and waits for it to drain.
type CountdownTask struct {
	books    Bookkeeper
	owner    string
	interval time.Duration
	onTick   func(CountdownSnapshot)

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	snapshot CountdownSnapshot
}

func (o *Orchestrator) NewCountdownTask(owner string, interval time.Duration, onTick func(CountdownSnapshot)) *CountdownTask {
	if interval <= 0 {
		interval = time.Second
	}
	return &CountdownTask{
		books:    o.books,
		owner:    owner,
		interval: interval,
		onTick:   onTick,
		snapshot: zeroSnapshot(),
	}
}

// Start launches the ticker goroutine. Starting a running task is a no-op.
func (t *CountdownTask) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx)
}

// Stop cancels the task and waits for the goroutine to exit.
func (t *CountdownTask) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Snapshot returns the most recent tick.
func (t *CountdownTask) Snapshot() CountdownSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

func (t *CountdownTask) run(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := t.tick(ctx)
			t.mu.Lock()
			t.snapshot = snap
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(snap)
			}
		}
	}
}

func (t *CountdownTask) tick(ctx context.Context) CountdownSnapshot {
	sets, err := t.books.FetchRecallableSets(ctx, t.owner)
	if err != nil {
		// Disconnected: show the zero value, never stale data.
		return zeroSnapshot()
	}

	now := time.Now()
	snap := CountdownSnapshot{
		Countdown:       note.ZeroCountdown(),
		NextRecallAt:    sets.NextRecallTime,
		RecallableCount: len(sets.RecallableItems),
		WaitingCount:    len(sets.WaitingItems),
		RecalledCount:   sets.RecalledCount,
	}
	if sets.NextRecallTime.IsZero() {
		return snap
	}

	snap.Countdown = note.Countdown(sets.NextRecallTime, now)

	// Progress is measured against the earliest item of the waiting
	// cohort; without one, a nominal 24h window applies.
	earliest, have := earliestCreation(sets.WaitingItems)
	snap.Progress = note.ProgressWithFallback(earliest, sets.NextRecallTime, now, have)
	return snap
}

func earliestCreation(notes []note.Note) (time.Time, bool) {
	var earliest time.Time
	for _, n := range notes {
		if n.CreatedAt.IsZero() {
			continue
		}
		if earliest.IsZero() || n.CreatedAt.Before(earliest) {
			earliest = n.CreatedAt
		}
	}
	return earliest, !earliest.IsZero()
}

func zeroSnapshot() CountdownSnapshot {
	return CountdownSnapshot{Countdown: note.ZeroCountdown()}
}
