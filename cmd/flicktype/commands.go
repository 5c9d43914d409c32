package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/config"
	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/handsource"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/layout"
	"github.com/verte-zerg/flicktype/internal/model"
	"github.com/verte-zerg/flicktype/internal/stats"
	"github.com/verte-zerg/flicktype/internal/statsui"
	"github.com/verte-zerg/flicktype/internal/store"
)

var (
	decodeLayout string
	decodePaced  bool

	recordOut      string
	recordDuration time.Duration

	statsLayout      string
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsChars       string
	statsPlain       bool
	statsPrune       string

	configPrint bool
	configForce bool
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <recording>",
		Short: "Decode a recording and print the gesture events and text",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeLayout, "layout", layout.DefaultName, "key layout name")
	cmd.Flags().BoolVar(&decodePaced, "paced", false, "play frames at their recorded pace")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "layout", &decodeLayout, fileCfg.Practice.Layout)
	logger, err := openLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	l, err := fileCfg.Layout(decodeLayout)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	rec, err := buildRecognizer(fileCfg, l, logger)
	if err != nil {
		return err
	}
	src, err := handsource.OpenReplay(args[0], handsource.ReplayOptions{Paced: decodePaced})
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return decodeRecording(ctx, src, rec, l, logger, cmd.OutOrStdout())
}

// decodeRecording runs src through a fresh engine, printing one line per
// gesture event and the resulting text.
func decodeRecording(ctx context.Context, src hand.Source, rec engine.Recognizer, l *layout.Layout, logger *zap.Logger, w io.Writer) error {
	buf := input.NewBuffer(input.ShiftOnce)
	eng, err := engine.New(rec, l, buf, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	var start time.Time
	var werr error
	err = eng.Run(ctx, src, func(u engine.Update) {
		if start.IsZero() {
			start = u.At
		}
		for _, ev := range u.Events {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(w, "%8dms  %s\n", u.At.Sub(start).Milliseconds(), formatEvent(ev, l))
		}
	})
	if err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	c := eng.Counters()
	_, err = fmt.Fprintf(w, "\ntext: %q\nresolved %d  aborted %d  cancelled %d  invalid %d  aux %d\n",
		buf.String(), c.Resolved, c.Aborted, c.Cancelled, c.Invalid, c.Aux)
	return err
}

func formatEvent(ev gesture.Event, l *layout.Layout) string {
	switch ev.Kind {
	case gesture.EventCategoryResolved:
		return fmt.Sprintf("%-12s %s", ev.Kind, ev.Category)
	case gesture.EventKeyResolved:
		label := "?"
		if k, err := l.Lookup(ev.Layer, ev.Category, ev.Key); err == nil {
			label = k.Label()
		}
		return fmt.Sprintf("%-12s %s %s layer %d -> %s", ev.Kind, ev.Category, ev.Key, ev.Layer+1, label)
	case gesture.EventAborted, gesture.EventCancelled:
		return fmt.Sprintf("%-12s %s", ev.Kind, ev.Reason)
	case gesture.EventAux:
		return fmt.Sprintf("%-12s %s", ev.Kind, ev.Action)
	default:
		return ev.Kind.String()
	}
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record hand frames from a tracker to a file",
		Args:  cobra.NoArgs,
		RunE:  runRecordCmd,
	}
	cmd.Flags().StringVar(&recordOut, "out", "", "output file (default: timestamped file in the data dir)")
	cmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (default: until interrupted)")
	return cmd
}

func runRecordCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applySourceConfig(cmd, fileCfg)
	if sourceKind == sourceSim {
		return fmt.Errorf("record needs a tracker source (--source ws, tracker or replay)")
	}
	logger, err := openLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	path := recordOut
	if path == "" {
		path = filepath.Join(config.DefaultRecordingDir(), time.Now().Format("20060102-150405")+".jsonl")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create recording dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	recorder, err := handsource.NewRecorder(f, sourceKind)
	if err != nil {
		return err
	}

	src, _, err := openSource(fileCfg, logger)
	if err != nil {
		return err
	}
	tee := handsource.Tee(src, recorder)
	defer func() {
		_ = tee.Close()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if recordDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}
	logErrf("Recording to %s (ctrl+c to stop)\n", path)
	err = engine.Pump(ctx, tee, func(hand.Snapshot) error { return nil })
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := recorder.Flush(); err != nil {
		return fmt.Errorf("failed to flush recording: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := st.InsertRecording(context.Background(), store.Recording{
		ID:      recorder.ID(),
		Path:    abs,
		Source:  sourceKind,
		Created: time.Now(),
		Frames:  recorder.Frames(),
	}); err != nil {
		return fmt.Errorf("failed to index recording: %w", err)
	}
	logErrf("Wrote %d frames to %s\n", recorder.Frames(), path)
	return nil
}

func newRecordingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recordings",
		Short: "List indexed recordings",
		Args:  cobra.NoArgs,
		RunE:  runRecordingsCmd,
	}
}

func runRecordingsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()
	recs, err := st.ListRecordings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No recordings found.")
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %6d frames  %s\n",
			r.Created.Local().Format("2006-01-02 15:04"), r.Source, r.Frames, r.Path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout [name]",
		Short: "List layouts or print one as grids",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayoutCmd,
	}
}

func runLayoutCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, name := range fileCfg.LayoutNames() {
			if _, err := fmt.Fprintln(out, name); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}
	l, err := fileCfg.Layout(args[0])
	if err != nil {
		return err
	}
	return printLayout(out, l)
}

// printLayout writes one grid per layer: rows are categories and columns
// are keys.
func printLayout(w io.Writer, l *layout.Layout) error {
	const cell = 4
	for layer := 0; layer < l.Layers(); layer++ {
		var b strings.Builder
		fmt.Fprintf(&b, "Layer %d\n", layer+1)
		b.WriteString(runewidth.FillRight("", cell))
		for _, key := range direction.All {
			b.WriteString(runewidth.FillRight(key.Arrow(), cell))
		}
		b.WriteString("\n")
		for _, cat := range direction.All {
			b.WriteString(runewidth.FillRight(cat.Arrow(), cell))
			for _, key := range direction.All {
				label := "·"
				if k, err := l.Lookup(layer, cat, key); err == nil {
					label = k.Label()
				}
				b.WriteString(runewidth.FillRight(label, cell))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLayout, "layout", "", "layout filter")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter (practice, free)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsChars, "char", "", "characters for per-char curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	cmd.Flags().StringVar(&statsPrune, "prune-before", "", "delete sessions that ended before this date (YYYY-MM-DD)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	sinceTime, err := parseDate(statsSince, "--since")
	if err != nil {
		return err
	}
	cfg := model.StatsConfig{
		Layout:      statsLayout,
		Mode:        statsMode,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Chars:       statsChars,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPrune != "" {
		cutoff, err := parseDate(statsPrune, "--prune-before")
		if err != nil {
			return err
		}
		n, err := st.DeleteSessionsBefore(context.Background(), *cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune sessions: %w", err)
		}
		logErrf("Deleted %d sessions\n", n)
		return nil
	}

	if statsPlain {
		return renderPlainStats(context.Background(), cmd.OutOrStdout(), st, cfg)
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return err
	}
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderLayoutTable(w, report.Layouts); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Sessions, cfg.CurveWindow, 0); err != nil {
		return err
	}
	if err := stats.RenderCharTable(w, report.CharAggsWindow); err != nil {
		return err
	}
	chars := strings.Split(cfg.Chars, "")
	if cfg.Chars == "" {
		chars = stats.TopCharsByFrequency(report.CharAggsAll, 3)
	}
	perSession, err := st.ListCharStatsForSessions(ctx, sessionIDs(report.Sessions), chars)
	if err != nil {
		return fmt.Errorf("failed to load char curves: %w", err)
	}
	return stats.RenderCharCurves(w, report.Sessions, perSession, chars, cfg.CurveWindow, 0)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func parseDate(value, flag string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", flag, err)
	}
	return &parsed, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPrint, "print", false, "print the effective config instead of opening an editor")
	cmd.Flags().BoolVar(&configForce, "force", false, "overwrite the config file with the defaults")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPrint {
		fileCfg, err := loadFileConfig()
		if err != nil {
			return err
		}
		text, err := config.Encode(withDefaults(fileCfg))
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), text)
		return err
	}

	_, statErr := os.Stat(configPath)
	if configForce || os.IsNotExist(statErr) {
		if err := config.WriteConfig(configPath, withDefaults(config.FileConfig{}), configForce); err != nil {
			return err
		}
	} else if statErr != nil {
		return fmt.Errorf("failed to stat config: %w", statErr)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	c := exec.Command(parts[0], append(parts[1:], configPath)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// withDefaults fills every unset scalar with the value the CLI would use.
func withDefaults(fc config.FileConfig) config.FileConfig {
	setString(&fc.Practice.Layout, layout.DefaultName)
	setInt(&fc.Practice.Phrases, defaultPhrases)
	setFloat(&fc.Practice.CapsPct, defaultCaps)
	setBool(&fc.Practice.Watch, false)
	setBool(&fc.Practice.FocusWeak, false)
	setInt(&fc.Practice.WeakTop, defaultWeakTop)
	setFloat(&fc.Practice.WeakFactor, defaultWeakFactor)
	setInt(&fc.Practice.WeakWindow, defaultWeakWindow)
	setString(&fc.Practice.Advance, defaultAdvance)
	setString(&fc.Practice.Backspace, defaultBackspace)
	setString(&fc.Practice.Shift, defaultShift)

	g := gesture.DefaultConfig()
	setString(&fc.Gesture.Mode, config.ModeFlick)
	setString(&fc.Gesture.Hand, g.Hand.String())
	setString(&fc.Gesture.Trigger, g.Trigger.String())
	setString(&fc.Gesture.CategoryFinger, g.CategoryFinger.String())
	if len(fc.Gesture.KeyFingers) == 0 {
		for _, f := range g.KeyFingers {
			fc.Gesture.KeyFingers = append(fc.Gesture.KeyFingers, f.String())
		}
	}
	setString(&fc.Gesture.Anchor, g.Anchor.String())
	setString(&fc.Gesture.Classifier, direction.NameAxisMax)
	setFloat(&fc.Gesture.Epsilon, direction.DefaultEpsilon)
	setFloat(&fc.Gesture.MinDisplacement, g.MinDisplacement)
	setInt(&fc.Gesture.Stages, g.Stages)
	setBool(&fc.Gesture.CancelOnRelease, g.CancelOnCategoryRelease)

	lm := hand.DefaultLandmarkConfig()
	setString(&fc.Source.Kind, sourceSim)
	setString(&fc.Source.Listen, defaultListen)
	setFloat(&fc.Source.PinchThreshold, lm.PinchThreshold)
	setFloat(&fc.Source.PinchRange, lm.PinchRange)
	setFloat(&fc.Source.MinScore, lm.MinScore)
	setString(&fc.Log.Level, "info")
	return fc
}

func setString(p **string, v string) {
	if *p == nil {
		*p = &v
	}
}

func setInt(p **int, v int) {
	if *p == nil {
		*p = &v
	}
}

func setFloat(p **float64, v float64) {
	if *p == nil {
		*p = &v
	}
}

func setBool(p **bool, v bool) {
	if *p == nil {
		*p = &v
	}
}
