package control

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"kalkyle/internal/core"
	"kalkyle/internal/format"
)

// State is the mode of a click-to-edit field.
type State int

const (
	Display State = iota
	Editing
)

func (s State) String() string {
	switch s {
	case Display:
		return "display"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNotEditing  = errors.New("field is not being edited")
	ErrOutOfBounds = errors.New("value out of bounds")
)

// editPlaces is the most fraction digits an edit buffer is seeded with.
const editPlaces = 2

// Field is a discrete-commit control. It only ever hands out committed
// values; the text buffer is private to the editing state.
type Field struct {
	scale decimal.Decimal
	min   int64
	max   int64 // 0 means unbounded

	state  State
	buffer string
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// WithBounds limits committed values to [min, max] raw units. Values outside
// revert like parse failures. Without it the range is [0, core.MaxAmount].
func WithBounds(min, max int64) FieldOption {
	return func(f *Field) {
		f.min = min
		f.max = max
	}
}

// NewField returns a field in Display state. Scale converts between typed
// values and raw units.
func NewField(scale decimal.Decimal, opts ...FieldOption) *Field {
	f := &Field{scale: scale}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewMoneyField is a field typed in millions and committed in raw units.
func NewMoneyField(opts ...FieldOption) *Field {
	return NewField(core.Million, opts...)
}

func (f *Field) State() State   { return f.state }
func (f *Field) Editing() bool  { return f.state == Editing }
func (f *Field) Buffer() string { return f.buffer }

// Begin enters Editing and seeds the buffer from the committed value. Calling
// it while already editing reseeds the buffer.
func (f *Field) Begin(committed int64) {
	f.buffer = format.EditBuffer(committed, f.scale, editPlaces)
	f.state = Editing
}

// Type replaces the buffer. Ignored outside Editing.
func (f *Field) Type(text string) {
	if f.state != Editing {
		return
	}
	f.buffer = text
}

// Commit leaves Editing. On success it returns the new raw value; on any
// error the caller keeps its previous value.
func (f *Field) Commit() (int64, error) {
	if f.state != Editing {
		return 0, ErrNotEditing
	}
	text := f.buffer
	f.state = Display
	f.buffer = ""

	v, err := core.ParseAmount(text)
	if err != nil {
		return 0, err
	}
	raw, err := core.ToUnits(v.Mul(f.scale))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfBounds, err)
	}
	if raw < f.min || (f.max > 0 && raw > f.max) {
		return 0, fmt.Errorf("%w: %d", ErrOutOfBounds, raw)
	}
	return raw, nil
}

// Cancel leaves Editing and drops the buffer. It is a no-op in Display, so a
// blur arriving after an escape cannot commit anything.
func (f *Field) Cancel() {
	f.state = Display
	f.buffer = ""
}
