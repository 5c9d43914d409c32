package handsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/hand"
)

// ErrTrackerNotFound is returned when no tracker script can be located.
var ErrTrackerNotFound = errors.New("tracker script not found")

// DefaultTrackerScript is the script name searched for by FindTrackerScript.
const DefaultTrackerScript = "hand_tracker.py"

// TrackerConfig launches a tracker subprocess that prints one landmark
// message per line on stdout.
type TrackerConfig struct {
	Python string
	Script string
	Args   []string
}

// TrackerSource runs a tracker subprocess.
type TrackerSource struct {
	cfg    hand.LandmarkConfig
	logger *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout *bufio.Reader
	lines  chan lineResult
	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
}

type lineResult struct {
	data []byte
	err  error
}

// StartTracker starts the subprocess. An empty Python uses a virtualenv
// interpreter when one is found, else python3. An empty Script is located
// with FindTrackerScript.
func StartTracker(tc TrackerConfig, cfg hand.LandmarkConfig, logger *zap.Logger) (*TrackerSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	script := tc.Script
	if script == "" {
		script = FindTrackerScript()
		if script == "" {
			return nil, ErrTrackerNotFound
		}
	}
	python := tc.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, python, append([]string{script}, tc.Args...)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = &zapWriter{logger: logger}
	cmd.WaitDelay = time.Second
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start tracker: %w", err)
	}
	logger.Info("tracker started", zap.String("python", python), zap.String("script", script), zap.Int("pid", cmd.Process.Pid))

	s := &TrackerSource{
		cfg:    cfg,
		logger: logger,
		cmd:    cmd,
		stdout: bufio.NewReaderSize(stdout, 64*1024),
		lines:  make(chan lineResult),
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read()
	return s, nil
}

// read forwards stdout lines until the process exits or Close is called.
func (s *TrackerSource) read() {
	defer close(s.done)
	for {
		line, err := s.stdout.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case s.lines <- lineResult{data: line}:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			select {
			case s.lines <- lineResult{err: err}:
			case <-s.stop:
			}
			return
		}
	}
}

// Sample implements hand.Source. The stream ending yields io.EOF.
func (s *TrackerSource) Sample(ctx context.Context) (hand.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return hand.Snapshot{}, ctx.Err()
		case res := <-s.lines:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return hand.Snapshot{}, io.EOF
				}
				return hand.Snapshot{}, fmt.Errorf("failed to read tracker output: %w", res.err)
			}
			snap, err := decodeLandmarks(res.data, s.cfg, time.Now)
			if err != nil {
				s.logger.Warn("bad tracker line", zap.Error(err))
				continue
			}
			return snap, nil
		}
	}
}

// Close stops the subprocess.
func (s *TrackerSource) Close() error {
	s.mu.Lock()
	cmd := s.cmd
	if cmd == nil {
		s.mu.Unlock()
		return nil
	}
	s.cmd = nil
	s.mu.Unlock()

	close(s.stop)
	s.cancel()
	err := cmd.Wait()
	<-s.done
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// FindTrackerScript looks for the tracker script next to the working
// directory, the executable and the user's config.
func FindTrackerScript() string {
	execDir := ""
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join("scripts", DefaultTrackerScript),
		filepath.Join("..", "scripts", DefaultTrackerScript),
		filepath.Join(execDir, "scripts", DefaultTrackerScript),
		filepath.Join(home, ".config", "flicktype", "scripts", DefaultTrackerScript),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

func findVenvPython() string {
	execDir := ""
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}
	candidates := []string{
		filepath.Join("venv", "bin", "python"),
		filepath.Join("..", "venv", "bin", "python"),
		filepath.Join(execDir, "venv", "bin", "python"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// zapWriter forwards subprocess stderr to the log.
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Debug("tracker stderr", zap.ByteString("line", p))
	return len(p), nil
}
