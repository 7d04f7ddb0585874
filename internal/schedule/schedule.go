// Package schedule orders experimental conditions with Latin-square counterbalancing.
package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Condition is one experimental variant.
type Condition int

// Condition identifiers as used in the Latin squares.
const (
	Circle Condition = iota + 1
	Square
	CircleHelper
	SquareHelper
)

// Kind is the hit-test geometry and drawn shape of a condition.
type Kind int

// Shape kinds.
const (
	KindCircle Kind = iota
	KindSquare
)

// String returns the logged condition name.
func (c Condition) String() string {
	switch c {
	case Circle:
		return "Circle"
	case Square:
		return "Square"
	case CircleHelper:
		return "CircleHelper"
	case SquareHelper:
		return "SquareHelper"
	default:
		return fmt.Sprintf("Condition(%d)", int(c))
	}
}

// Kind returns the geometry of the condition.
func (c Condition) Kind() Kind {
	if c == Square || c == SquareHelper {
		return KindSquare
	}
	return KindCircle
}

// Assisted reports whether the condition is a helper variant.
func (c Condition) Assisted() bool {
	return c == CircleHelper || c == SquareHelper
}

// ParseCondition maps a logged name back to a Condition.
func ParseCondition(name string) (Condition, error) {
	for _, c := range []Condition{Circle, Square, CircleHelper, SquareHelper} {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", name)
}

// Test types select the square used for a run.
const (
	TestTypeFull   = "full"
	TestTypeSingle = "single"
)

var (
	// ErrNotLatin reports a matrix that violates the Latin-square property.
	ErrNotLatin = errors.New("not a latin square")
	// ErrScheduleExhausted reports an advance past the end of a row.
	ErrScheduleExhausted = errors.New("schedule row exhausted")
)

// LatinSquare is an immutable N x N matrix of conditions.
type LatinSquare struct {
	rows [][]Condition
}

// NewLatinSquare validates rows and returns a square that owns a copy of them.
func NewLatinSquare(rows [][]Condition) (LatinSquare, error) {
	n := len(rows)
	if n == 0 {
		return LatinSquare{}, fmt.Errorf("%w: empty", ErrNotLatin)
	}
	symbols := map[Condition]struct{}{}
	for _, c := range rows[0] {
		symbols[c] = struct{}{}
	}
	if len(symbols) != n {
		return LatinSquare{}, fmt.Errorf("%w: first row must hold %d distinct conditions", ErrNotLatin, n)
	}
	copied := make([][]Condition, n)
	for i, row := range rows {
		if len(row) != n {
			return LatinSquare{}, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotLatin, i, len(row), n)
		}
		seen := map[Condition]struct{}{}
		for _, c := range row {
			if _, ok := symbols[c]; !ok {
				return LatinSquare{}, fmt.Errorf("%w: row %d uses unknown condition %s", ErrNotLatin, i, c)
			}
			if _, dup := seen[c]; dup {
				return LatinSquare{}, fmt.Errorf("%w: row %d repeats %s", ErrNotLatin, i, c)
			}
			seen[c] = struct{}{}
		}
		copied[i] = append([]Condition(nil), row...)
	}
	for col := 0; col < n; col++ {
		seen := map[Condition]struct{}{}
		for row := 0; row < n; row++ {
			c := copied[row][col]
			if _, dup := seen[c]; dup {
				return LatinSquare{}, fmt.Errorf("%w: column %d repeats %s", ErrNotLatin, col, c)
			}
			seen[c] = struct{}{}
		}
	}
	return LatinSquare{rows: copied}, nil
}

// Size returns N.
func (s LatinSquare) Size() int {
	return len(s.rows)
}

// At returns the condition at row, col.
func (s LatinSquare) At(row, col int) Condition {
	return s.rows[row][col]
}

// Row returns a copy of one row.
func (s LatinSquare) Row(row int) []Condition {
	return append([]Condition(nil), s.rows[row]...)
}

var (
	fullSquare = mustSquare([][]Condition{
		{Circle, CircleHelper, SquareHelper, Square},
		{SquareHelper, Circle, Square, CircleHelper},
		{Square, SquareHelper, CircleHelper, Circle},
		{CircleHelper, Square, Circle, SquareHelper},
	})
	singleSquare = mustSquare([][]Condition{
		{Circle, Square},
		{Square, Circle},
	})
)

func mustSquare(rows [][]Condition) LatinSquare {
	sq, err := NewLatinSquare(rows)
	if err != nil {
		panic(err)
	}
	return sq
}

// SquareFor returns the square used by a test type.
func SquareFor(testType string) (LatinSquare, error) {
	switch testType {
	case TestTypeFull:
		return fullSquare, nil
	case TestTypeSingle:
		return singleSquare, nil
	default:
		return LatinSquare{}, fmt.Errorf("unknown test type %q (want %q or %q)", testType, TestTypeFull, TestTypeSingle)
	}
}

// AssistActive reports whether cursor assistance applies to a condition.
// Full runs compare assisted and unassisted conditions; single runs use the configured flag.
func AssistActive(testType string, c Condition, helperEnabled bool) bool {
	if testType == TestTypeSingle {
		return helperEnabled
	}
	return c.Assisted()
}

// RowForParticipant returns the square row used by a participant id.
func RowForParticipant(id, size int) int {
	if size <= 0 {
		return 0
	}
	row := (id - 1) % size
	if row < 0 {
		row += size
	}
	return row
}

// State is a participant's cursor into the square.
type State struct {
	Participant int
	Row         int
	Column      int
	// Completed counts conditions started so far, including the current one.
	Completed int
}

// Scheduler walks one row of a Latin square.
type Scheduler struct {
	square LatinSquare
	state  State
}

// New returns a scheduler positioned at the start of the participant's row.
func New(square LatinSquare, participant int) *Scheduler {
	s := &Scheduler{square: square}
	s.Reset(participant)
	return s
}

// Reset re-derives the row for a participant and rewinds the counters.
func (s *Scheduler) Reset(participant int) {
	s.state = State{
		Participant: participant,
		Row:         RowForParticipant(participant, s.square.Size()),
		Column:      0,
		Completed:   1,
	}
}

// State returns the current schedule state.
func (s *Scheduler) State() State {
	return s.state
}

// Square returns the square being walked.
func (s *Scheduler) Square() LatinSquare {
	return s.square
}

// Current returns the active condition.
func (s *Scheduler) Current() Condition {
	return s.square.At(s.state.Row, s.state.Column)
}

// RowComplete reports whether every condition in the row has been run.
func (s *Scheduler) RowComplete() bool {
	return s.state.Completed >= s.square.Size()
}

// Advance moves to the next condition in the row.
func (s *Scheduler) Advance() error {
	next := s.state.Column + 1
	if next >= s.square.Size() || s.RowComplete() {
		return fmt.Errorf("%w: participant %d row %d column %d", ErrScheduleExhausted, s.state.Participant, s.state.Row, next)
	}
	s.state.Column = next
	s.state.Completed++
	return nil
}

// Order returns the condition order for a participant.
func Order(square LatinSquare, participant int) []Condition {
	return square.Row(RowForParticipant(participant, square.Size()))
}
