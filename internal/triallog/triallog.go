// Package triallog accumulates completed trials and writes them as CSV.
package triallog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// TimestampLayout is the timestamp format of the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Columns is the fixed column order of the log.
var Columns = []string{
	"user_id",
	"timestamp",
	"condition",
	"num_clicks",
	"time_taken_in_ms",
	"click_x",
	"click_y",
	"target_width",
	"num_circles",
	"screen_width",
	"screen_height",
	"helper_enabled",
}

// Logger is an append-only trial log. Order is trial completion order.
// It is owned by the event loop and is not safe for concurrent use.
type Logger struct {
	records       []model.TrialRecord
	flushed       int
	headerWritten bool
}

// New returns an empty Logger.
func New() *Logger {
	return &Logger{}
}

// Append adds a completed trial.
func (l *Logger) Append(rec model.TrialRecord) error {
	l.records = append(l.records, rec)
	return nil
}

// Len returns the number of records.
func (l *Logger) Len() int {
	return len(l.records)
}

// Records returns a copy of all records.
func (l *Logger) Records() []model.TrialRecord {
	return append([]model.TrialRecord(nil), l.records...)
}

// Table returns the header followed by one row per record.
func (l *Logger) Table() [][]string {
	rows := make([][]string, 0, len(l.records)+1)
	rows = append(rows, append([]string(nil), Columns...))
	for _, rec := range l.records {
		rows = append(rows, Row(rec))
	}
	return rows
}

// Flush writes the records appended since the previous flush. The header is written
// on the first flush of the Logger only.
func (l *Logger) Flush(w io.Writer) error {
	cw := csv.NewWriter(w)
	if !l.headerWritten {
		if err := cw.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, rec := range l.records[l.flushed:] {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush log: %w", err)
	}
	l.headerWritten = true
	l.flushed = len(l.records)
	return nil
}

// WriteCSV writes a complete table for records.
func WriteCSV(w io.Writer, records []model.TrialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row formats one record in column order.
func Row(rec model.TrialRecord) []string {
	elapsed := ""
	if rec.Timed {
		elapsed = strconv.FormatInt(rec.ElapsedMs, 10)
	}
	return []string{
		strconv.Itoa(rec.Participant),
		rec.Timestamp.Format(TimestampLayout),
		rec.Condition,
		strconv.Itoa(rec.Clicks),
		elapsed,
		formatCoord(rec.Click.X),
		formatCoord(rec.Click.Y),
		strconv.Itoa(rec.TargetWidth),
		strconv.Itoa(rec.Shapes),
		strconv.Itoa(rec.ScreenWidth),
		strconv.Itoa(rec.ScreenHeight),
		strconv.FormatBool(rec.HelperEnabled),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
