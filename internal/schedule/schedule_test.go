package schedule

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowForParticipant(t *testing.T) {
	cases := []struct {
		id, size, want int
	}{
		{1, 2, 0},
		{2, 2, 1},
		{3, 2, 0},
		{4, 2, 1},
		{1, 4, 0},
		{4, 4, 3},
		{5, 4, 0},
		{11, 4, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RowForParticipant(tc.id, tc.size), "id=%d size=%d", tc.id, tc.size)
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	sq, err := SquareFor(TestTypeFull)
	require.NoError(t, err)
	for id := 1; id <= 8; id++ {
		first := Order(sq, id)
		second := Order(sq, id)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("order for participant %d changed (-first +second):\n%s", id, diff)
		}
	}
	want := []Condition{SquareHelper, Circle, Square, CircleHelper}
	if diff := cmp.Diff(want, Order(sq, 2)); diff != "" {
		t.Fatalf("unexpected order for participant 2 (-want +got):\n%s", diff)
	}
}

func TestNewLatinSquareRejectsRepeats(t *testing.T) {
	_, err := NewLatinSquare([][]Condition{
		{Circle, Square},
		{Circle, Square},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLatin))

	_, err = NewLatinSquare([][]Condition{
		{Circle, Circle},
		{Square, Circle},
	})
	assert.True(t, errors.Is(err, ErrNotLatin))

	_, err = NewLatinSquare([][]Condition{{Circle, Square}})
	assert.True(t, errors.Is(err, ErrNotLatin))
}

func TestLatinSquareIsImmutable(t *testing.T) {
	rows := [][]Condition{{Circle, Square}, {Square, Circle}}
	sq, err := NewLatinSquare(rows)
	require.NoError(t, err)
	rows[0][0] = SquareHelper
	row := sq.Row(0)
	row[1] = CircleHelper
	assert.Equal(t, Circle, sq.At(0, 0))
	assert.Equal(t, Square, sq.At(0, 1))
}

func TestSchedulerAdvanceWalksRow(t *testing.T) {
	sq, err := SquareFor(TestTypeSingle)
	require.NoError(t, err)
	s := New(sq, 2)
	assert.Equal(t, State{Participant: 2, Row: 1, Column: 0, Completed: 1}, s.State())
	assert.Equal(t, Square, s.Current())
	assert.False(t, s.RowComplete())

	require.NoError(t, s.Advance())
	assert.Equal(t, Circle, s.Current())
	assert.Equal(t, 1, s.State().Column)
	assert.True(t, s.RowComplete())

	err = s.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScheduleExhausted))
	assert.Equal(t, 1, s.State().Column)
}

func TestSchedulerReset(t *testing.T) {
	sq, err := SquareFor(TestTypeFull)
	require.NoError(t, err)
	s := New(sq, 1)
	require.NoError(t, s.Advance())
	require.NoError(t, s.Advance())
	s.Reset(2)
	assert.Equal(t, State{Participant: 2, Row: 1, Column: 0, Completed: 1}, s.State())
	assert.Equal(t, SquareHelper, s.Current())
}

func TestAssistActive(t *testing.T) {
	assert.True(t, AssistActive(TestTypeFull, CircleHelper, false))
	assert.False(t, AssistActive(TestTypeFull, Square, true))
	assert.True(t, AssistActive(TestTypeSingle, Circle, true))
	assert.False(t, AssistActive(TestTypeSingle, Circle, false))
}

func TestConditionNames(t *testing.T) {
	for _, c := range []Condition{Circle, Square, CircleHelper, SquareHelper} {
		parsed, err := ParseCondition(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, KindSquare, SquareHelper.Kind())
	assert.Equal(t, KindCircle, CircleHelper.Kind())
	_, err := ParseCondition("Triangle")
	assert.Error(t, err)
}

func TestSquareForUnknownType(t *testing.T) {
	_, err := SquareFor("half")
	assert.Error(t, err)
}
