// Package main provides the CLI entrypoint for flicktype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/flicktype/internal/config"
	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/generator"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/layout"
	"github.com/verte-zerg/flicktype/internal/logging"
	"github.com/verte-zerg/flicktype/internal/model"
	"github.com/verte-zerg/flicktype/internal/store"
	"github.com/verte-zerg/flicktype/internal/tui"
	"github.com/verte-zerg/flicktype/internal/wordlist"
)

const (
	defaultPhrases     = 4
	defaultCaps        = 0.1
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
	defaultAdvance     = "always"
	defaultBackspace   = "ignore"
	defaultShift       = "lock"
)

var (
	configPath string
	logLevel   string

	practiceLayout     string
	practiceFree       bool
	practicePhrases    int
	practicePhraseFile string
	practiceWatch      bool
	practiceCaps       float64
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
	practiceAdvance    string
	practiceBackspace  string
	practiceShift      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flicktype",
		Short:         "Hand-gesture flick keyboard trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&practiceLayout, "layout", layout.DefaultName, "key layout name")
	rootCmd.Flags().BoolVar(&practiceFree, "free", false, "free typing without a target text")
	rootCmd.Flags().IntVar(&practicePhrases, "phrases", defaultPhrases, "phrases per text")
	rootCmd.Flags().StringVar(&practicePhraseFile, "phrases-file", "", "phrase file, one phrase per line (default: built-in)")
	rootCmd.Flags().BoolVar(&practiceWatch, "watch", false, "reload the phrase file when it changes")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of a capitalized phrase (0-1)")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak characters")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chars")
	rootCmd.Flags().StringVar(&practiceAdvance, "advance", defaultAdvance, "cursor policy on a mismatch (always, on-match)")
	rootCmd.Flags().StringVar(&practiceBackspace, "backspace", defaultBackspace, "backspace policy (ignore, rewind)")
	rootCmd.Flags().StringVar(&practiceShift, "shift", defaultShift, "shift mode (lock, once)")
	addSourceFlags(rootCmd, sourceSim)

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newLayoutCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newRecordingsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "layout", &practiceLayout, fileCfg.Practice.Layout)
	applyIntConfig(cmd, "phrases", &practicePhrases, fileCfg.Practice.Phrases)
	applyStringConfig(cmd, "phrases-file", &practicePhraseFile, fileCfg.Practice.PhrasesFile)
	applyBoolConfig(cmd, "watch", &practiceWatch, fileCfg.Practice.Watch)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)
	applyStringConfig(cmd, "advance", &practiceAdvance, fileCfg.Practice.Advance)
	applyStringConfig(cmd, "backspace", &practiceBackspace, fileCfg.Practice.Backspace)
	applyStringConfig(cmd, "shift", &practiceShift, fileCfg.Practice.Shift)
	applySourceConfig(cmd, fileCfg)

	mode := model.ModePractice
	if practiceFree {
		mode = model.ModeFree
	}
	cfg := model.Config{
		Layout:      practiceLayout,
		Mode:        mode,
		PhrasesPath: practicePhraseFile,
		Phrases:     practicePhrases,
		FocusWeak:   practiceFocusWeak,
		WeakTop:     practiceWeakTop,
		WeakFactor:  practiceWeakFactor,
		WeakWindow:  practiceWeakWindow,
		Advance:     practiceAdvance,
		Backspace:   practiceBackspace,
		ShiftMode:   practiceShift,
	}
	if err := validateConfig(cfg, practiceCaps); err != nil {
		return err
	}
	shiftMode, err := input.ParseShiftMode(cfg.ShiftMode)
	if err != nil {
		return err
	}

	logger, err := openLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	l, err := fileCfg.Layout(cfg.Layout)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	rec, err := buildRecognizer(fileCfg, l, logger)
	if err != nil {
		return err
	}
	phrases, err := loadPhrases(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", zap.Error(cerr))
		}
	}()

	src, sim, err := openSource(fileCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("failed to close hand source", zap.Error(cerr))
		}
	}()

	eng, err := engine.New(rec, l, input.NewBuffer(shiftMode), engine.WithLogger(logger))
	if err != nil {
		return err
	}
	m, err := tui.NewModel(tui.Options{
		Config:    cfg,
		Engine:    eng,
		Store:     st,
		Generator: generator.New(),
		Phrases:   phrases,
		CapsPct:   practiceCaps,
		Sim:       sim,
		Source:    sourceKind,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	logger.Info("practice started",
		zap.String("layout", l.Name()),
		zap.String("mode", cfg.Mode),
		zap.String("source", sourceKind),
		zap.Int("phrases", len(phrases)),
	)
	return runProgram(m, src, cfg, logger)
}

// runProgram runs the UI next to the source pump and the optional phrase
// watcher. The pump only sends frames; the engine is stepped on the UI loop.
func runProgram(m *tui.Model, src hand.Source, cfg model.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := engine.Pump(gctx, src, func(s hand.Snapshot) error {
			program.Send(tui.FrameMsg{Snapshot: s})
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			logger.Error("hand source stopped", zap.Error(err))
		}
		program.Send(tui.SourceDoneMsg{Err: err})
		return nil
	})
	if practiceWatch && cfg.PhrasesPath != "" {
		g.Go(func() error {
			err := wordlist.Watch(gctx, cfg.PhrasesPath, wordlist.DefaultDebounce, logger, func(phrases []string) {
				program.Send(tui.PhrasesMsg{Phrases: phrases})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("phrase watcher stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func openLogger(cmd *cobra.Command, fileCfg config.FileConfig) (*zap.Logger, error) {
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	path := config.DefaultLogPath()
	if fileCfg.Log.Path != nil {
		path = *fileCfg.Log.Path
	}
	return logging.New(path, logLevel)
}

// loadPhrases reads the phrase file, or the built-in set for the layout.
func loadPhrases(cfg model.Config) ([]string, error) {
	if cfg.Mode == model.ModeFree {
		return nil, nil
	}
	if cfg.PhrasesPath == "" {
		phrases, err := wordlist.Builtin(cfg.Layout)
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in phrases: %w", err)
		}
		return phrases, nil
	}
	phrases, err := wordlist.LoadWords(cfg.PhrasesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load phrases from %s: %w", cfg.PhrasesPath, err)
	}
	return phrases, nil
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

func validateConfig(cfg model.Config, caps float64) error {
	if cfg.Mode == model.ModePractice && cfg.Phrases <= 0 {
		return fmt.Errorf("--phrases must be > 0")
	}
	if caps < 0 || caps > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	if _, err := input.ParseAdvancePolicy(cfg.Advance); err != nil {
		return fmt.Errorf("--advance: %w", err)
	}
	if _, err := input.ParseBackspacePolicy(cfg.Backspace); err != nil {
		return fmt.Errorf("--backspace: %w", err)
	}
	if strings.TrimSpace(cfg.Layout) == "" {
		return fmt.Errorf("--layout must not be empty")
	}
	return nil
}

// errOut receives messages printed before the UI owns the terminal.
var errOut io.Writer = os.Stderr

func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(errOut, format, args...)
}
