// Package session holds the interactive state of one calculator page: the
// committed assumptions, the memoised result, the active tab, the selected
// household and one edit field per editable slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"kalkyle/internal/calc"
	"kalkyle/internal/chart"
	"kalkyle/internal/control"
	"kalkyle/internal/core"
	applog "kalkyle/internal/log"
	"kalkyle/internal/view"
)

var (
	ErrUnknownSlot      = errors.New("unknown slot")
	ErrNotSlidable      = errors.New("slot has no slider")
	ErrNotEditable      = errors.New("slot has no edit field")
	ErrUnknownTab       = errors.New("unknown tab")
	ErrUnknownHousehold = errors.New("unknown household type")
)

// Event kinds reported to a Listener.
const (
	EventSlide  = "slide"
	EventCommit = "commit"
	EventReset  = "reset"
)

// Event describes a change of assumptions and the result it produced.
type Event struct {
	SessionID   string
	Kind        string
	Slot        string
	Assumptions core.Assumptions
	Result      calc.Result
}

// Listener is told about every recomputation, after the session lock is
// released.
type Listener func(ctx context.Context, ev Event)

// Session is safe for concurrent use; requests for one session are
// serialised by its mutex.
type Session struct {
	mu sync.Mutex

	id       string
	engine   *calc.Engine
	defaults core.Assumptions
	sliders  map[string]control.Slider
	fields   map[string]*control.Field

	assumptions core.Assumptions
	result      calc.Result
	recomputes  int
	tab         string
	selected    string

	listener Listener
	logs     *applog.StructuredLogger
}

// New starts a session on the engine's model defaults.
func New(id string, engine *calc.Engine, listener Listener, logger *applog.Logger) *Session {
	if logger == nil {
		logger = applog.Default(applog.ComponentSession)
	}
	m := engine.Model()
	s := &Session{
		id:       id,
		engine:   engine,
		defaults: m.Defaults.Clone(),
		sliders: map[string]control.Slider{
			view.SlotInvestment: control.InvestmentSlider(),
			view.SlotRate:       control.RateSlider(),
		},
		fields: map[string]*control.Field{
			view.SlotInvestment:    control.NewMoneyField(control.WithBounds(50_000_000, 350_000_000)),
			view.SlotTicketRevenue: control.NewMoneyField(),
		},
		tab:      view.TabOverview,
		listener: listener,
		logs:     applog.NewStructuredLogger(logger),
	}
	for _, d := range s.defaults.Drift {
		s.fields[view.DriftSlot(d.Key)] = control.NewMoneyField()
	}
	s.assumptions = s.defaults.Clone()
	s.result = engine.Calculate(s.assumptions)
	s.recomputes = 1
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Slide moves a slider. The value is clamped and snapped, then committed.
func (s *Session) Slide(ctx context.Context, slot string, v decimal.Decimal) error {
	s.mu.Lock()
	sl, ok := s.sliders[slot]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotSlidable, slot)
	}
	v = sl.Set(v)
	next := s.assumptions
	switch slot {
	case view.SlotInvestment:
		next = next.WithInvestment(v)
	case view.SlotRate:
		next = next.WithRate(v)
	}
	ev, changed := s.apply(ctx, next, EventSlide, slot)
	s.mu.Unlock()
	s.notify(ctx, ev, changed)
	return nil
}

// BeginEdit puts a field into editing, seeded from its committed value.
func (s *Session) BeginEdit(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[slot]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditable, slot)
	}
	raw, err := s.raw(slot)
	if err != nil {
		return err
	}
	f.Begin(raw)
	return nil
}

// CommitEdit commits text typed into a field. It reports whether the value
// was accepted; rejected text leaves every value as it was.
func (s *Session) CommitEdit(ctx context.Context, slot, text string) (bool, error) {
	s.mu.Lock()
	f, ok := s.fields[slot]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotEditable, slot)
	}
	if !f.Editing() {
		// A blur arriving after a cancel.
		s.mu.Unlock()
		return false, nil
	}
	f.Type(text)
	raw, err := f.Commit()
	if err != nil {
		s.mu.Unlock()
		s.logs.LogEditReverted(ctx, s.id, slot, err)
		return false, nil
	}
	next, err := s.withRaw(slot, raw)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	ev, changed := s.apply(ctx, next, EventCommit, slot)
	s.mu.Unlock()
	s.notify(ctx, ev, changed)
	return true, nil
}

// CancelEdit drops a field's buffer. Cancelling a field that is not being
// edited does nothing.
func (s *Session) CancelEdit(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[slot]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditable, slot)
	}
	f.Cancel()
	return nil
}

// Reset restores every assumption to its default in one step and closes all
// open edits.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	for _, f := range s.fields {
		f.Cancel()
	}
	ev, changed := s.apply(ctx, s.defaults.Clone(), EventReset, "")
	s.mu.Unlock()
	s.notify(ctx, ev, changed)
}

// SelectTab switches the active view. Nothing is recomputed.
func (s *Session) SelectTab(tab string) error {
	if !view.ValidTab(tab) {
		return fmt.Errorf("%w: %s", ErrUnknownTab, tab)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	return nil
}

// ToggleHousehold opens the detail panel of a household type, or closes it
// when it is already open. Nothing is recomputed.
func (s *Session) ToggleHousehold(householdType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.result.Household(householdType); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHousehold, householdType)
	}
	if s.selected == householdType {
		s.selected = ""
	} else {
		s.selected = householdType
	}
	return nil
}

// Snapshot copies the state a render needs. The copy shares nothing mutable
// with the session.
func (s *Session) Snapshot(palette chart.Palette) view.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	editing := make(map[string]string)
	for slot, f := range s.fields {
		if f.Editing() {
			editing[slot] = f.Buffer()
		}
	}
	return view.Snapshot{
		Assumptions: s.assumptions.Clone(),
		Result:      s.result,
		Palette:     palette,
		Selected:    s.selected,
		Editing:     editing,
		IsDefault:   s.assumptions.Equal(s.defaults),
	}
}

// Assumptions returns a copy of the committed assumptions.
func (s *Session) Assumptions() core.Assumptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assumptions.Clone()
}

// Result returns the memoised result of the committed assumptions.
func (s *Session) Result() calc.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Recomputes counts derivations since the session started.
func (s *Session) Recomputes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputes
}

// Tab returns the active tab.
func (s *Session) Tab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Selected returns the household type with an open detail panel, if any.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Editing reports whether a slot's field is in editing state.
func (s *Session) Editing(slot string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[slot]
	return ok && f.Editing()
}

// IsDefault reports whether every assumption equals its default.
func (s *Session) IsDefault() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assumptions.Equal(s.defaults)
}

// apply replaces the assumptions wholesale and recomputes when they changed.
// Callers hold s.mu.
func (s *Session) apply(ctx context.Context, next core.Assumptions, kind, slot string) (Event, bool) {
	if next.Equal(s.assumptions) {
		return Event{}, false
	}
	result := s.engine.Calculate(next)
	s.assumptions = next
	s.result = result
	s.recomputes++

	s.logs.LogRecalculated(ctx, s.id, kind, slot, next.Investment.String(), next.Rate.String(),
		result.TotalBurden.String(), result.NetDrift, s.recomputes)
	if err := result.Verify(); err != nil {
		s.logs.LogError(ctx, "Reconciliation check failed", err, kind, applog.NewFields().WithSession(s.id, slot))
	}
	return Event{
		SessionID:   s.id,
		Kind:        kind,
		Slot:        slot,
		Assumptions: next.Clone(),
		Result:      result,
	}, true
}

func (s *Session) notify(ctx context.Context, ev Event, changed bool) {
	if changed && s.listener != nil {
		s.listener(ctx, ev)
	}
}

// raw returns a slot's committed value in raw currency units.
func (s *Session) raw(slot string) (int64, error) {
	a := s.assumptions
	switch {
	case slot == view.SlotInvestment:
		return core.Round(core.Millions(a.Investment)), nil
	case slot == view.SlotTicketRevenue:
		return a.TicketRevenue, nil
	case strings.HasPrefix(slot, view.DriftSlotPrefix):
		if v, ok := a.DriftAmount(strings.TrimPrefix(slot, view.DriftSlotPrefix)); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
}

func (s *Session) withRaw(slot string, raw int64) (core.Assumptions, error) {
	a := s.assumptions
	switch {
	case slot == view.SlotInvestment:
		return a.WithInvestment(decimal.NewFromInt(raw).Div(core.Million)), nil
	case slot == view.SlotTicketRevenue:
		return a.WithTicketRevenue(raw), nil
	case strings.HasPrefix(slot, view.DriftSlotPrefix):
		next, err := a.WithDrift(strings.TrimPrefix(slot, view.DriftSlotPrefix), raw)
		if err != nil {
			return a, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
		}
		return next, nil
	}
	return a, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
}
