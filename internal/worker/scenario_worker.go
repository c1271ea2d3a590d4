package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kalkyle/internal/amqp"
	applog "kalkyle/internal/log"
)

// Tally summarises the scenario messages seen since the worker started.
type Tally struct {
	Messages     int64
	ByKind       map[string]int64
	Scenarios    int
	MinBurden    int64
	MaxBurden    int64
	Last         *amqp.ScenarioMessage
	LastReceived time.Time
}

// ScenarioWorker consumes scenario messages and keeps a running tally of
// what residents are exploring.
type ScenarioWorker struct {
	logger *applog.Logger
	now    func() time.Time

	mu        sync.Mutex
	messages  int64
	byKind    map[string]int64
	scenarios map[string]struct{}
	minBurden int64
	maxBurden int64
	last      *amqp.ScenarioMessage
	lastAt    time.Time
}

func NewScenarioWorker(logger *applog.Logger) *ScenarioWorker {
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &ScenarioWorker{
		logger:    logger,
		now:       time.Now,
		byKind:    make(map[string]int64),
		scenarios: make(map[string]struct{}),
	}
}

// HandleScenarioMessage records a single scenario message from AMQP
func (w *ScenarioWorker) HandleScenarioMessage(ctx context.Context, msg *amqp.ScenarioMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("handle scenario: %w", err)
	}

	w.mu.Lock()
	if w.messages == 0 || msg.TotalBurden < w.minBurden {
		w.minBurden = msg.TotalBurden
	}
	if w.messages == 0 || msg.TotalBurden > w.maxBurden {
		w.maxBurden = msg.TotalBurden
	}
	w.messages++
	w.byKind[msg.Kind]++
	w.scenarios[msg.Scenario] = struct{}{}
	w.last = msg
	w.lastAt = w.now()
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Processed scenario message",
		"scenario", msg.Scenario,
		"kind", msg.Kind,
		applog.FieldInvestment, msg.InvestmentMNOK,
		applog.FieldRate, msg.RatePct,
		applog.FieldTotalBurden, msg.TotalBurden)
	return nil
}

// Tally returns a copy of the running summary.
func (w *ScenarioWorker) Tally() Tally {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := Tally{
		Messages:     w.messages,
		ByKind:       make(map[string]int64, len(w.byKind)),
		Scenarios:    len(w.scenarios),
		MinBurden:    w.minBurden,
		MaxBurden:    w.maxBurden,
		LastReceived: w.lastAt,
	}
	for k, v := range w.byKind {
		t.ByKind[k] = v
	}
	if w.last != nil {
		last := *w.last
		t.Last = &last
	}
	return t
}

// Report logs the current tally.
func (w *ScenarioWorker) Report(ctx context.Context) {
	t := w.Tally()
	if t.Messages == 0 {
		w.logger.InfoContext(ctx, "No scenario messages received yet")
		return
	}

	kinds := make([]string, 0, len(t.ByKind))
	for k := range t.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	args := []any{
		"messages", t.Messages,
		"scenarios", t.Scenarios,
		"min_total_burden", t.MinBurden,
		"max_total_burden", t.MaxBurden,
		"last_received", t.LastReceived.Format(time.RFC3339),
	}
	for _, k := range kinds {
		args = append(args, "kind_"+k, t.ByKind[k])
	}
	w.logger.InfoContext(ctx, "Scenario tally", args...)
}

// RunReports logs the tally every interval until ctx ends.
func (w *ScenarioWorker) RunReports(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Report(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			w.Report(ctx)
		}
	}
}
