// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for trial data.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close db after migration error", zap.Error(cerr))
		}
		return nil, err
	}
	logger.Debug("store opened", zap.String("path", path))
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trials (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			participant INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			condition TEXT NOT NULL,
			clicks INTEGER NOT NULL,
			elapsed_ms INTEGER,
			click_x REAL NOT NULL,
			click_y REAL NOT NULL,
			start_x REAL NOT NULL,
			start_y REAL NOT NULL,
			target_x REAL NOT NULL,
			target_y REAL NOT NULL,
			target_width INTEGER NOT NULL,
			shapes INTEGER NOT NULL,
			screen_width INTEGER NOT NULL,
			screen_height INTEGER NOT NULL,
			helper_enabled INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trials_recorded_at ON trials(recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_trials_participant ON trials(participant);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrial stores one completed trial.
func (s *Store) InsertTrial(ctx context.Context, runID string, rec model.TrialRecord) (int64, error) {
	var elapsed sql.NullInt64
	if rec.Timed {
		elapsed = sql.NullInt64{Int64: rec.ElapsedMs, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trials (run_id, participant, recorded_at, condition, clicks, elapsed_ms, click_x, click_y,
			start_x, start_y, target_x, target_y, target_width, shapes, screen_width, screen_height, helper_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		rec.Participant,
		rec.Timestamp.UTC().Format(timeLayout),
		rec.Condition,
		rec.Clicks,
		elapsed,
		rec.Click.X,
		rec.Click.Y,
		rec.Start.X,
		rec.Start.Y,
		rec.Target.X,
		rec.Target.Y,
		rec.TargetWidth,
		rec.Shapes,
		rec.ScreenWidth,
		rec.ScreenHeight,
		rec.HelperEnabled,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// NextParticipant returns one more than the highest stored participant id, or 1.
func (s *Store) NextParticipant(ctx context.Context) (int, error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(participant) FROM trials`).Scan(&maxID); err != nil {
		return 0, err
	}
	if !maxID.Valid {
		return 1, nil
	}
	return int(maxID.Int64) + 1, nil
}

func filterClauses(cfg model.StatsConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Participant > 0 {
		clauses = append(clauses, "participant = ?")
		args = append(args, cfg.Participant)
	}
	if cfg.Condition != "" {
		clauses = append(clauses, "condition = ?")
		args = append(args, cfg.Condition)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	return strings.Join(clauses, " AND "), args
}

// ListTrials returns trials filtered by stats config, oldest first.
// Last keeps only the most recent trials.
func (s *Store) ListTrials(ctx context.Context, cfg model.StatsConfig) ([]model.StoredTrial, error) {
	where, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT id, run_id, participant, recorded_at, condition, clicks, elapsed_ms, click_x, click_y,
			start_x, start_y, target_x, target_y, target_width, shapes, screen_width, screen_height, helper_enabled
		FROM trials
		WHERE %s
		ORDER BY recorded_at ASC, id ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Debug("failed to close rows", zap.Error(cerr))
		}
	}()

	var trials []model.StoredTrial
	for rows.Next() {
		var t model.StoredTrial
		var recordedAt string
		var elapsed sql.NullInt64
		if err := rows.Scan(&t.ID, &t.RunID, &t.Participant, &recordedAt, &t.Condition, &t.Clicks, &elapsed,
			&t.Click.X, &t.Click.Y, &t.Start.X, &t.Start.Y, &t.Target.X, &t.Target.Y,
			&t.TargetWidth, &t.Shapes, &t.ScreenWidth, &t.ScreenHeight, &t.HelperEnabled); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, err
		}
		t.Timestamp = parsed
		t.ElapsedMs = elapsed.Int64
		t.Timed = elapsed.Valid
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(trials) > cfg.Last {
		trials = trials[len(trials)-cfg.Last:]
	}
	return trials, nil
}

// ConditionAggregates sums trials per condition.
func (s *Store) ConditionAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.ConditionAggregate, error) {
	where, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT condition, COUNT(*), SUM(clicks), COUNT(elapsed_ms), COALESCE(SUM(elapsed_ms), 0)
		FROM trials
		WHERE %s
		GROUP BY condition
		ORDER BY condition`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Debug("failed to close rows", zap.Error(cerr))
		}
	}()

	var result []model.ConditionAggregate
	for rows.Next() {
		var agg model.ConditionAggregate
		if err := rows.Scan(&agg.Condition, &agg.Trials, &agg.Clicks, &agg.TimedTrials, &agg.ElapsedMsSum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ParticipantAggregates sums trials per participant.
func (s *Store) ParticipantAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.ParticipantAggregate, error) {
	where, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT participant, COUNT(*), SUM(clicks), COUNT(elapsed_ms), COALESCE(SUM(elapsed_ms), 0),
			MIN(recorded_at), MAX(recorded_at)
		FROM trials
		WHERE %s
		GROUP BY participant
		ORDER BY participant`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Debug("failed to close rows", zap.Error(cerr))
		}
	}()

	var result []model.ParticipantAggregate
	for rows.Next() {
		var agg model.ParticipantAggregate
		var firstAt, lastAt string
		if err := rows.Scan(&agg.Participant, &agg.Trials, &agg.Clicks, &agg.TimedTrials, &agg.ElapsedMsSum, &firstAt, &lastAt); err != nil {
			return nil, err
		}
		if agg.FirstAt, err = time.Parse(timeLayout, firstAt); err != nil {
			return nil, err
		}
		if agg.LastAt, err = time.Parse(timeLayout, lastAt); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Recorder persists trials of one run as they complete.
type Recorder struct {
	store *Store
	runID string
	ctx   context.Context
}

// Recorder returns a trial sink that stamps every trial with runID.
func (s *Store) Recorder(ctx context.Context, runID string) *Recorder {
	return &Recorder{store: s, runID: runID, ctx: ctx}
}

// Append stores rec.
func (r *Recorder) Append(rec model.TrialRecord) error {
	id, err := r.store.InsertTrial(r.ctx, r.runID, rec)
	if err != nil {
		return fmt.Errorf("failed to save trial: %w", err)
	}
	r.store.logger.Debug("trial saved", zap.Int64("id", id), zap.String("run_id", r.runID))
	return nil
}
