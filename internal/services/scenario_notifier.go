package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kalkyle/internal/amqp"
	"kalkyle/internal/core"
	applog "kalkyle/internal/log"
	"kalkyle/internal/session"
)

// ScenarioPublisher is the part of amqp.Client the notifier needs.
type ScenarioPublisher interface {
	PublishScenario(ctx context.Context, msg *amqp.ScenarioMessage) error
}

// NotifierConfig holds configuration for the scenario notifier
type NotifierConfig struct {
	// Buffer is how many events may wait for the publisher (default: 256)
	Buffer int
	// PublishTimeout bounds one publish (default: 5s)
	PublishTimeout time.Duration
}

// DefaultNotifierConfig returns sensible defaults
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Buffer:         256,
		PublishTimeout: 5 * time.Second,
	}
}

// ScenarioNotifier turns session recomputations into scenario messages. The
// session listener only enqueues; a background loop publishes, so a slow or
// absent broker never delays a page interaction. Events that do not fit in
// the buffer are dropped.
type ScenarioNotifier struct {
	publisher ScenarioPublisher
	config    NotifierConfig
	logger    *applog.Logger
	now       func() time.Time

	events    chan *amqp.ScenarioMessage
	published int64
	dropped   int64
	failed    int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScenarioNotifier creates a notifier for publisher.
func NewScenarioNotifier(publisher ScenarioPublisher, config NotifierConfig, logger *applog.Logger) *ScenarioNotifier {
	def := DefaultNotifierConfig()
	if config.Buffer <= 0 {
		config.Buffer = def.Buffer
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = def.PublishTimeout
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentAMQP)
	}
	return &ScenarioNotifier{
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
		events:    make(chan *amqp.ScenarioMessage, config.Buffer),
	}
}

// Listener is the session.Listener that feeds the notifier.
func (n *ScenarioNotifier) Listener() session.Listener {
	return func(ctx context.Context, ev session.Event) {
		msg := NewScenarioMessage(ev, n.now())
		select {
		case n.events <- msg:
		default:
			atomic.AddInt64(&n.dropped, 1)
			n.logger.DebugContext(ctx, "Scenario event dropped, buffer full",
				"scenario", msg.Scenario,
				"kind", msg.Kind)
		}
	}
}

// NewScenarioMessage summarises a session event. The session id is hashed:
// it is the session's cookie value and must not leave the process.
func NewScenarioMessage(ev session.Event, at time.Time) *amqp.ScenarioMessage {
	r := ev.Result
	return &amqp.ScenarioMessage{
		Scenario:       ScenarioKey(ev.SessionID),
		Kind:           ev.Kind,
		Slot:           ev.Slot,
		InvestmentMNOK: ev.Assumptions.Investment.String(),
		RatePct:        ev.Assumptions.Rate.String(),
		GrossDrift:     r.GrossDrift,
		TicketRevenue:  r.TicketRevenue,
		NetDrift:       r.NetDrift,
		TotalBurden:    core.Round(r.TotalBurden),
		PerAdult:       core.Round(r.PerAdultShare),
		FlatPerPerson:  core.Round(r.FlatPerCapitaShare),
		Timestamp:      at.UTC(),
	}
}

// ScenarioKey derives the public key of a session.
func ScenarioKey(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:6])
}

// Start begins the publish loop. Returns an error if already running.
func (n *ScenarioNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return fmt.Errorf("scenario notifier is already running")
	}
	n.running = true
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	go n.runLoop(ctx, n.stopCh, n.doneCh)

	n.logger.InfoContext(ctx, "Scenario notifier started", "buffer", n.config.Buffer)
	return nil
}

// Stop ends the loop after the queued events are published, or when ctx
// expires.
func (n *ScenarioNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	stopCh, doneCh := n.stopCh, n.doneCh
	n.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		n.logger.InfoContext(ctx, "Scenario notifier stopped", "published", n.Published(), "dropped", n.Dropped())
		return nil
	case <-ctx.Done():
		n.logger.WarnContext(ctx, "Scenario notifier stop timed out")
		return ctx.Err()
	}
}

func (n *ScenarioNotifier) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case msg := <-n.events:
			n.publish(ctx, msg)
		case <-ctx.Done():
			return
		case <-stopCh:
			for {
				select {
				case msg := <-n.events:
					n.publish(ctx, msg)
				default:
					return
				}
			}
		}
	}
}

func (n *ScenarioNotifier) publish(ctx context.Context, msg *amqp.ScenarioMessage) {
	pctx, cancel := context.WithTimeout(ctx, n.config.PublishTimeout)
	defer cancel()
	if err := n.publisher.PublishScenario(pctx, msg); err != nil {
		atomic.AddInt64(&n.failed, 1)
		n.logger.WarnContext(ctx, "Failed to publish scenario message",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpPublish,
			"scenario", msg.Scenario)
		return
	}
	atomic.AddInt64(&n.published, 1)
}

// Published returns how many messages reached the publisher.
func (n *ScenarioNotifier) Published() int64 { return atomic.LoadInt64(&n.published) }

// Dropped returns how many events did not fit in the buffer.
func (n *ScenarioNotifier) Dropped() int64 { return atomic.LoadInt64(&n.dropped) }

// Failed returns how many publishes returned an error.
func (n *ScenarioNotifier) Failed() int64 { return atomic.LoadInt64(&n.failed) }
