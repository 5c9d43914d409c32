package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/config"
	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/handsource"
	"github.com/verte-zerg/flicktype/internal/layout"
	"github.com/verte-zerg/flicktype/internal/picker"
)

// Hand source kinds.
const (
	sourceSim     = "sim"
	sourceWS      = "ws"
	sourceTracker = "tracker"
	sourceReplay  = "replay"
)

const (
	defaultListen = "127.0.0.1:8765"
	simInterval   = 33 * time.Millisecond
)

var (
	sourceKind       string
	sourceListen     string
	sourcePython     string
	sourceScript     string
	sourceReplayPath string
	sourceLoop       bool
	sourceSpeed      float64
)

// addSourceFlags registers the source flags once on the root so every
// subcommand shares them.
func addSourceFlags(cmd *cobra.Command, kind string) {
	cmd.PersistentFlags().StringVar(&sourceKind, "source", kind, "hand source (sim, ws, tracker, replay)")
	cmd.PersistentFlags().StringVar(&sourceListen, "listen", defaultListen, "websocket listen address for --source ws")
	cmd.PersistentFlags().StringVar(&sourcePython, "python", "", "python interpreter for --source tracker")
	cmd.PersistentFlags().StringVar(&sourceScript, "script", "", "tracker script for --source tracker")
	cmd.PersistentFlags().StringVar(&sourceReplayPath, "replay", "", "recording to play for --source replay")
	cmd.PersistentFlags().BoolVar(&sourceLoop, "loop", false, "loop the recording")
	cmd.PersistentFlags().Float64Var(&sourceSpeed, "speed", 1, "replay speed factor")
}

func applySourceConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "source", &sourceKind, fileCfg.Source.Kind)
	applyStringConfig(cmd, "listen", &sourceListen, fileCfg.Source.Listen)
	applyStringConfig(cmd, "python", &sourcePython, fileCfg.Source.Python)
	applyStringConfig(cmd, "script", &sourceScript, fileCfg.Source.Script)
	applyStringConfig(cmd, "replay", &sourceReplayPath, fileCfg.Source.Replay)
	applyBoolConfig(cmd, "loop", &sourceLoop, fileCfg.Source.Loop)
	applyFloatConfig(cmd, "speed", &sourceSpeed, fileCfg.Source.Speed)
}

// openSource starts the configured hand source. The simulated hand is also
// returned so the UI can drive it from the keyboard.
func openSource(fileCfg config.FileConfig, logger *zap.Logger) (hand.Source, *handsource.Sim, error) {
	switch sourceKind {
	case sourceSim:
		sim := handsource.NewSim(handsource.SimOptions{Interval: simInterval})
		return sim, sim, nil
	case sourceWS:
		ws := handsource.NewWSSource(fileCfg.LandmarkSettings(), logger)
		addr, err := ws.Listen(sourceListen)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to listen for tracker: %w", err)
		}
		logger.Info("waiting for tracker", zap.String("addr", addr))
		return ws, nil, nil
	case sourceTracker:
		tr, err := handsource.StartTracker(handsource.TrackerConfig{
			Python: sourcePython,
			Script: sourceScript,
		}, fileCfg.LandmarkSettings(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start tracker: %w", err)
		}
		return tr, nil, nil
	case sourceReplay:
		if sourceReplayPath == "" {
			return nil, nil, fmt.Errorf("--replay is required for --source replay")
		}
		r, err := handsource.OpenReplay(sourceReplayPath, handsource.ReplayOptions{
			Paced: true,
			Loop:  sourceLoop,
			Speed: sourceSpeed,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want %s, %s, %s or %s)", sourceKind, sourceSim, sourceWS, sourceTracker, sourceReplay)
	}
}

// buildRecognizer returns the flick decoder or the block picker.
func buildRecognizer(fileCfg config.FileConfig, l *layout.Layout, logger *zap.Logger) (engine.Recognizer, error) {
	mode, err := fileCfg.RecognizerMode()
	if err != nil {
		return nil, err
	}
	if mode == config.ModePicker {
		p, err := picker.New(picker.DefaultConfig(), l, picker.NewMarkerSet())
		if err != nil {
			return nil, fmt.Errorf("failed to create picker: %w", err)
		}
		return p, nil
	}
	gcfg, err := fileCfg.GestureSettings()
	if err != nil {
		return nil, fmt.Errorf("invalid gesture config: %w", err)
	}
	logger.Debug("gesture config",
		zap.Stringer("hand", gcfg.Hand),
		zap.Stringer("trigger", gcfg.Trigger),
		zap.Int("stages", gcfg.Stages),
		zap.Float64("min_displacement", gcfg.MinDisplacement),
		zap.Duration("timeout", gcfg.Timeout),
	)
	d, err := gesture.New(gcfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}
