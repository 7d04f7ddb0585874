package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

func TestHitTestCircleBoundaryInclusive(t *testing.T) {
	targets := []model.Point{{X: 100, Y: 100}}
	_, hit := HitTest(schedule.KindCircle, model.Point{X: 120, Y: 100}, targets, 40)
	assert.True(t, hit)
	_, hit = HitTest(schedule.KindCircle, model.Point{X: 120.01, Y: 100}, targets, 40)
	assert.False(t, hit)
	// Inside the square box but outside the circle.
	_, hit = HitTest(schedule.KindCircle, model.Point{X: 118, Y: 118}, targets, 40)
	assert.False(t, hit)
}

func TestHitTestSquareInterior(t *testing.T) {
	targets := []model.Point{{X: 100, Y: 100}}
	_, hit := HitTest(schedule.KindSquare, model.Point{X: 118, Y: 118}, targets, 40)
	assert.True(t, hit)
	_, hit = HitTest(schedule.KindSquare, model.Point{X: 119.9, Y: 80.1}, targets, 40)
	assert.True(t, hit)
	_, hit = HitTest(schedule.KindSquare, model.Point{X: 120, Y: 100}, targets, 40)
	assert.False(t, hit, "edge is outside")
	_, hit = HitTest(schedule.KindSquare, model.Point{X: 100, Y: 79}, targets, 40)
	assert.False(t, hit)
}

func TestHitTestReturnsHitTarget(t *testing.T) {
	targets := []model.Point{{X: 100, Y: 100}, {X: 300, Y: 300}}
	got, hit := HitTest(schedule.KindCircle, model.Point{X: 305, Y: 295}, targets, 40)
	assert.True(t, hit)
	assert.Equal(t, targets[1], got)
	_, hit = HitTest(schedule.KindCircle, model.Point{X: 5, Y: 5}, nil, 40)
	assert.False(t, hit)
}

func TestStopwatch(t *testing.T) {
	now := time.Unix(100, 0)
	sw := NewStopwatch(ClockFunc(func() time.Time { return now }))

	elapsed, ok := sw.Stop()
	assert.False(t, ok)
	assert.Zero(t, elapsed)

	assert.True(t, sw.Start())
	now = now.Add(300 * time.Millisecond)
	assert.False(t, sw.Start())
	now = now.Add(200 * time.Millisecond)

	elapsed, ok = sw.Stop()
	assert.True(t, ok)
	assert.EqualValues(t, 500, elapsed)
	assert.False(t, sw.Running())
}
