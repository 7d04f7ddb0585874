package stats

import (
	"context"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Trials       []model.StoredTrial
	Conditions   []ConditionSummary
	Totals       []model.ConditionAggregate
	Participants []model.ParticipantAggregate
	Fit          Fit
	HasFit       bool
}

// BuildReport loads and prepares data for stats rendering. Trials honor cfg.Last;
// totals and participant rows cover every trial matching the filters.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	trials, err := st.ListTrials(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	totals, err := st.ConditionAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	participants, err := st.ParticipantAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	fit, ok := FitMovementTime(trials)
	return Report{
		Trials:       trials,
		Conditions:   SummarizeConditions(trials),
		Totals:       totals,
		Participants: participants,
		Fit:          fit,
		HasFit:       ok,
	}, nil
}
