// Package main provides the CLI entrypoint for tuifitts.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuifitts/internal/assist"
	"github.com/verte-zerg/tuifitts/internal/config"
	"github.com/verte-zerg/tuifitts/internal/layout"
	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/observability"
	"github.com/verte-zerg/tuifitts/internal/schedule"
	"github.com/verte-zerg/tuifitts/internal/store"
	"github.com/verte-zerg/tuifitts/internal/trial"
	"github.com/verte-zerg/tuifitts/internal/triallog"
	"github.com/verte-zerg/tuifitts/internal/tui"
)

const (
	defaultShapeWidth   = 40
	defaultShapes       = 15
	defaultTargets      = 1
	defaultScreenWidth  = 960
	defaultScreenHeight = 660
	defaultRepetitions  = 4
	defaultSpacing      = 10
	defaultGravity      = 50
	defaultTestType     = schedule.TestTypeFull
	defaultCurveWindow  = 10
)

var (
	configPath string
	dbPath     string
	setupPath  string

	expParticipant  int
	expShapeWidth   int
	expShapes       int
	expTargets      int
	expScreenWidth  int
	expScreenHeight int
	expRepetitions  int
	expSpacing      int
	expHelper       bool
	expGravity      int
	expSmoothing    float64
	expTestType     string
	expSeed         int64
	expNoCSV        bool
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuifitts",
		Short:         "Terminal Fitts' law pointing experiment",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperimentCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "trial database path")

	flags := rootCmd.Flags()
	flags.StringVar(&setupPath, "setup", "", "experiment setup file (.json, .yaml, .yml or .toml)")
	flags.IntVar(&expParticipant, "participant", 0, "participant id (0: next unused id)")
	flags.IntVar(&expShapeWidth, "shape-width", defaultShapeWidth, "shape width in canvas units")
	flags.IntVar(&expShapes, "shapes", defaultShapes, "shapes per layout")
	flags.IntVar(&expTargets, "targets", defaultTargets, "targets per layout")
	flags.IntVar(&expScreenWidth, "screen-width", defaultScreenWidth, "canvas width (min 850)")
	flags.IntVar(&expScreenHeight, "screen-height", defaultScreenHeight, "canvas height (min 650)")
	flags.IntVar(&expRepetitions, "repetitions", defaultRepetitions, "trials per condition")
	flags.IntVar(&expSpacing, "spacing", defaultSpacing, "minimum gap between shapes")
	flags.BoolVar(&expHelper, "helper", false, "enable the pointer helper (single test type)")
	flags.IntVar(&expGravity, "gravity", defaultGravity, "helper gravity distance beyond the target radius")
	flags.Float64Var(&expSmoothing, "smoothing", assist.DefaultSmoothing, "helper smoothing divisor")
	flags.StringVar(&expTestType, "test-type", defaultTestType, "test type: full or single")
	flags.Int64Var(&expSeed, "seed", 0, "layout seed (0: random)")
	flags.BoolVar(&expNoCSV, "no-csv", false, "do not print the CSV log on exit")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newLayoutCmd())

	return rootCmd
}

func runExperimentCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	observability.Initialize(fileCfg.Log, nil)
	logger := observability.GetLogger()

	cfg, err := resolveExperimentConfig(cmd, fileCfg.Experiment)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	ctx := context.Background()
	if cfg.Participant == 0 {
		next, err := st.NextParticipant(ctx)
		if err != nil {
			return fmt.Errorf("failed to pick participant id: %w", err)
		}
		cfg.Participant = next
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("experiment starting",
		zap.Int("participant", cfg.Participant),
		zap.String("test_type", cfg.TestType),
		zap.Int("screen_width", cfg.ScreenWidth),
		zap.Int("screen_height", cfg.ScreenHeight),
		zap.Int64("seed", cfg.Seed),
	)

	log := triallog.New()
	ctrl, err := trial.New(trial.Options{
		Config:  cfg,
		Layouts: layout.NewWithSeed(cfg.Seed),
		Sink:    trial.Sinks{log, st.Recorder(ctx, runID)},
		Logger:  logger.Named("trial"),
	})
	if err != nil {
		return fmt.Errorf("failed to start experiment: %w", err)
	}

	host := tui.NewModel(ctrl, cfg, logger.Named("tui"))
	program := tea.NewProgram(host, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, runErr := program.Run()

	if !expNoCSV {
		if err := log.Flush(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write trial log: %w", err)
		}
	}
	logger.Info("experiment closed", zap.Int("trials", log.Len()))
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	if err := host.Err(); err != nil {
		return fmt.Errorf("experiment aborted: %w", err)
	}
	return nil
}

// resolveExperimentConfig layers flags over the setup file over the config file.
func resolveExperimentConfig(cmd *cobra.Command, fileExp config.ExperimentConfig) (model.Config, error) {
	exp := fileExp
	if setupPath != "" {
		setup, err := config.LoadSetup(setupPath)
		if err != nil {
			return model.Config{}, err
		}
		exp = exp.Merge(setup.Experiment())
	}
	applyIntConfig(cmd, "participant", &expParticipant, exp.Participant)
	applyIntConfig(cmd, "shape-width", &expShapeWidth, exp.ShapeWidth)
	applyIntConfig(cmd, "shapes", &expShapes, exp.Shapes)
	applyIntConfig(cmd, "targets", &expTargets, exp.Targets)
	applyIntConfig(cmd, "screen-width", &expScreenWidth, exp.ScreenWidth)
	applyIntConfig(cmd, "screen-height", &expScreenHeight, exp.ScreenHeight)
	applyIntConfig(cmd, "repetitions", &expRepetitions, exp.Repetitions)
	applyIntConfig(cmd, "spacing", &expSpacing, exp.Spacing)
	applyBoolConfig(cmd, "helper", &expHelper, exp.Helper)
	applyIntConfig(cmd, "gravity", &expGravity, exp.GravityDistance)
	applyFloatConfig(cmd, "smoothing", &expSmoothing, exp.Smoothing)
	applyStringConfig(cmd, "test-type", &expTestType, exp.TestType)

	seed := expSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg := model.Config{
		Participant:     expParticipant,
		ShapeWidth:      expShapeWidth,
		Shapes:          expShapes,
		Targets:         expTargets,
		ScreenWidth:     expScreenWidth,
		ScreenHeight:    expScreenHeight,
		Repetitions:     expRepetitions,
		Spacing:         expSpacing,
		HelperEnabled:   expHelper,
		GravityDistance: expGravity,
		Smoothing:       expSmoothing,
		TestType:        expTestType,
		Seed:            seed,
	}
	if cfg.Participant < 0 {
		return model.Config{}, fmt.Errorf("--participant must be >= 0")
	}
	return config.ClampScreen(cfg), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
