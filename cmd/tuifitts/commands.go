package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/verte-zerg/tuifitts/internal/assist"
	"github.com/verte-zerg/tuifitts/internal/config"
	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/observability"
	"github.com/verte-zerg/tuifitts/internal/schedule"
	"github.com/verte-zerg/tuifitts/internal/stats"
	"github.com/verte-zerg/tuifitts/internal/statsui"
	"github.com/verte-zerg/tuifitts/internal/store"
	"github.com/verte-zerg/tuifitts/internal/triallog"
)

var (
	statsParticipant int
	statsCondition   string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	exportOutput string

	scheduleTestType     string
	scheduleParticipants int

	layoutSeed   int64
	layoutWidth  int
	layoutHeight int
	layoutShapes int
	layoutSize   int
	layoutGap    int
	layoutCount  int
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&statsParticipant, "participant", 0, "participant filter")
	cmd.Flags().StringVar(&statsCondition, "condition", "", "condition filter (Circle, Square, CircleHelper, SquareHelper)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N trials")
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded trial statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the interactive view")
	return cmd
}

func statsConfigFromFlags() (model.StatsConfig, error) {
	cfg := model.StatsConfig{
		Participant: statsParticipant,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	if statsParticipant < 0 {
		return model.StatsConfig{}, fmt.Errorf("--participant must be >= 0")
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCondition != "" {
		c, err := schedule.ParseCondition(statsCondition)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --condition value: %w", err)
		}
		cfg.Condition = c.String()
	}
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

// openStore opens the trial database. A nil console keeps log entries off the terminal.
func openStore(console zapcore.WriteSyncer) (*store.Store, *zap.Logger, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	observability.Initialize(fileCfg.Log, console)
	logger := observability.GetLogger()
	st, err := store.Open(dbPath, logger.Named("store"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, logger, nil
}

func closeStore(st *store.Store, logger *zap.Logger) {
	if err := st.Close(); err != nil {
		logger.Warn("failed to close db", zap.Error(err))
	}
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfigFromFlags()
	if err != nil {
		return err
	}
	if cfg.CurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	interactive := !statsPlain && isTerminal(cmd.OutOrStdout())
	var console zapcore.WriteSyncer
	if !interactive {
		console = zapcore.Lock(os.Stderr)
	}
	st, logger, err := openStore(console)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	if interactive {
		program := tea.NewProgram(statsui.NewModel(st, cfg, logger.Named("statsui")), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}
	return renderPlainStats(cmd.Context(), cmd.OutOrStdout(), st, cfg)
}

func renderPlainStats(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return err
	}
	if len(report.Trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	if err := stats.RenderSummary(w, report.Trials); err != nil {
		return err
	}
	if err := stats.RenderConditionTable(w, report.Conditions); err != nil {
		return err
	}
	if err := stats.RenderParticipantTable(w, report.Participants); err != nil {
		return err
	}
	return stats.RenderCurves(w, report.Trials, cfg.CurveWindow)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded trials as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfigFromFlags()
	if err != nil {
		return err
	}
	st, logger, err := openStore(zapcore.Lock(os.Stderr))
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	trials, err := st.ListTrials(ctx, cfg)
	if err != nil {
		return err
	}
	records := make([]model.TrialRecord, len(trials))
	for i, t := range trials {
		records[i] = t.TrialRecord
	}

	w := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logger.Warn("failed to close export file", zap.Error(cerr))
			}
		}()
		w = f
	}
	if err := triallog.WriteCSV(w, records); err != nil {
		return fmt.Errorf("failed to export trials: %w", err)
	}
	logger.Info("trials exported", zap.Int("trials", len(records)), zap.String("output", exportOutput))
	return nil
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the condition order per participant",
		Args:  cobra.NoArgs,
		RunE:  runScheduleCmd,
	}
	cmd.Flags().StringVar(&scheduleTestType, "test-type", defaultTestType, "test type: full or single")
	cmd.Flags().IntVar(&scheduleParticipants, "participants", 4, "number of participants to list")
	return cmd
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	if scheduleParticipants <= 0 {
		return fmt.Errorf("--participants must be > 0")
	}
	square, err := schedule.SquareFor(scheduleTestType)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for p := 1; p <= scheduleParticipants; p++ {
		order := schedule.Order(square, p)
		names := make([]string, len(order))
		for i, c := range order {
			names[i] = c.String()
		}
		if _, err := fmt.Fprintf(out, "%d: %s\n", p, strings.Join(names, ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Generate a shape layout and print its positions",
		Args:  cobra.NoArgs,
		RunE:  runLayoutCmd,
	}
	cmd.Flags().Int64Var(&layoutSeed, "seed", 1, "layout seed")
	cmd.Flags().IntVar(&layoutWidth, "screen-width", defaultScreenWidth, "canvas width")
	cmd.Flags().IntVar(&layoutHeight, "screen-height", defaultScreenHeight, "canvas height")
	cmd.Flags().IntVar(&layoutShapes, "shapes", defaultShapes, "shapes per layout")
	cmd.Flags().IntVar(&layoutSize, "shape-width", defaultShapeWidth, "shape width")
	cmd.Flags().IntVar(&layoutGap, "spacing", defaultSpacing, "minimum gap between shapes")
	cmd.Flags().IntVar(&layoutCount, "targets", defaultTargets, "targets per layout")
	return cmd
}

func runLayoutCmd(cmd *cobra.Command, _ []string) error {
	lay, err := layout.NewWithSeed(layoutSeed).Generate(layout.Params{
		Count:        layoutShapes,
		Targets:      layoutCount,
		CanvasWidth:  float64(layoutWidth),
		CanvasHeight: float64(layoutHeight),
		ShapeSize:    float64(layoutSize),
		Spacing:      float64(layoutGap),
	})
	if err != nil {
		return fmt.Errorf("failed to generate layout: %w", err)
	}
	out := cmd.OutOrStdout()
	lines := make([]string, 0, len(lay.Shapes)+len(lay.Targets)+1)
	for _, s := range lay.Shapes {
		mark := ""
		if s.Target {
			mark = " target"
		}
		lines = append(lines, fmt.Sprintf("shape %d: x=%.0f y=%.0f%s", s.ID, s.Pos.X, s.Pos.Y, mark))
	}
	for i, t := range lay.Targets {
		lines = append(lines, fmt.Sprintf("target %d: center x=%.1f y=%.1f", i, t.X, t.Y))
	}
	if lay.Exhausted {
		lines = append(lines, "warning: placement attempts exhausted; some shapes may be closer than the spacing")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuifitts configuration
# Uncomment a value to enable it. A --setup file overrides these values; CLI flags override both.

[experiment]
# participant = 0          # Participant id (0: next unused id)
# shape-width = %d         # Shape width in canvas units
# shapes = %d              # Shapes per layout
# targets = %d              # Targets per layout
# screen-width = %d       # Canvas width (min %d)
# screen-height = %d      # Canvas height (min %d)
# repetitions = %d          # Trials per condition
# spacing = %d             # Minimum gap between shapes
# helper = false           # Pointer helper for the single test type
# gravity = %d             # Helper gravity distance beyond the target radius
# smoothing = %.1f         # Helper smoothing divisor
# test-type = %q       # full or single

[log]
# level = "info"
# format = "json"
# file = %q
# max-size = 10
# max-backups = 3
# max-age = 28
# compress = false
`,
		defaultShapeWidth,
		defaultShapes,
		defaultTargets,
		defaultScreenWidth, config.MinScreenWidth,
		defaultScreenHeight, config.MinScreenHeight,
		defaultRepetitions,
		defaultSpacing,
		defaultGravity,
		assist.DefaultSmoothing,
		defaultTestType,
		config.DefaultLogPath(),
	)
}
