package trial

import (
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/schedule"
)

// HitTest returns the first target hit by click. Circles include their boundary;
// squares accept only the interior of the width x width box centred on the target.
func HitTest(kind schedule.Kind, click model.Point, targets []model.Point, width float64) (model.Point, bool) {
	half := width / 2
	for _, t := range targets {
		switch kind {
		case schedule.KindCircle:
			if click.Dist(t) <= half {
				return t, true
			}
		case schedule.KindSquare:
			left, top := t.X-half, t.Y-half
			if left < click.X && click.X < left+width && top < click.Y && click.Y < top+width {
				return t, true
			}
		}
	}
	return model.Point{}, false
}
