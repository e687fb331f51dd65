package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qoswatch/qoswatch/config"
	"github.com/qoswatch/qoswatch/jsonstream"
	"github.com/qoswatch/qoswatch/packet"
	"github.com/qoswatch/qoswatch/session"
)

// ErrCaptureRunning is returned when starting a supervisor that already
// has a live capture.
var ErrCaptureRunning = errors.New("capture is already running")

// ErrCaptureNotRunning is returned when stopping an idle supervisor.
var ErrCaptureNotRunning = errors.New("capture is not running")

// stopGracePeriod bounds how long Stop waits for the producer to observe
// shutdown before killing the child process.
const stopGracePeriod = 5 * time.Second

// Supervisor owns the dissector process and the single producer goroutine
// that feeds its output into a session controller.
type Supervisor struct {
	mu sync.Mutex

	cfg       *config.Config
	ctrl      *session.Controller
	extractor *jsonstream.Extractor

	cmd     *exec.Cmd
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSupervisor creates a supervisor that feeds ctrl from a tshark process
// configured by cfg.
func NewSupervisor(cfg *config.Config, ctrl *session.Controller) *Supervisor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Supervisor{
		cfg:       cfg,
		ctrl:      ctrl,
		extractor: jsonstream.NewExtractorSize(cfg.MaxBufferSize),
	}
}

// Start validates dependencies, spawns the dissector, and launches the
// producer goroutine. The child process is bound to ctx: cancelling it
// terminates the capture.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrCaptureRunning
	}

	if err := Preflight(ctx, s.cfg.TsharkPath); err != nil {
		return err
	}

	args := BuildArgs(s.cfg)
	logrus.WithFields(logrus.Fields{
		"function":  "Supervisor.Start",
		"interface": s.cfg.Interface,
		"args":      args,
	}).Info("Starting packet capture")

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, s.cfg.TsharkPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("attach stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("spawn %s: %w", s.cfg.TsharkPath, err)
	}

	if err := s.ctrl.Start(); err != nil && !errors.Is(err, session.ErrAlreadyRunning) {
		cancel()
		go func() { _ = cmd.Wait() }() // reap the killed child
		return err
	}

	s.cmd = cmd
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.extractor.Reset()

	go s.run(stdout, cmd)

	return nil
}

// run is the producer loop: it drains the child's stdout, then reaps the
// process. It is the sole caller of the extractor and of Controller.Record.
func (s *Supervisor) run(stdout io.Reader, cmd *exec.Cmd) {
	defer close(s.done)

	s.pump(stdout)

	if err := cmd.Wait(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Supervisor.run",
			"error":    err,
		}).Debug("Dissector process exited")
	}
}

// pump reads chunks from r until EOF and feeds them through the pipeline
// in arrival order. Reads block on the pipe, so there is no polling loop;
// closing the pipe (process exit or kill) ends the pump.
func (s *Supervisor) pump(r io.Reader) {
	reader := bufio.NewReaderSize(r, 64*1024)

	for {
		chunk, err := reader.ReadString('\n')
		if len(chunk) > 0 {
			s.process(chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logrus.WithFields(logrus.Fields{
					"function": "Supervisor.pump",
					"error":    err,
				}).Debug("Capture stream read ended")
			}
			return
		}
	}
}

// process feeds one chunk to the extractor and records every completed
// record. Malformed records are counted and skipped, never fatal.
func (s *Supervisor) process(chunk string) {
	overflowsBefore := s.extractor.Overflows()
	records := s.extractor.Feed(chunk)
	if d := s.extractor.Overflows() - overflowsBefore; d > 0 {
		s.ctrl.AddOverflows(d)
	}

	for _, rec := range records {
		ev, err := packet.ParseRecord([]byte(rec))
		if err != nil {
			s.ctrl.RecordError()
			logrus.WithFields(logrus.Fields{
				"function": "Supervisor.process",
				"error":    err,
			}).Debug("Discarding malformed record")
			continue
		}
		s.ctrl.Record(ev)
	}
}

// Stop terminates the capture: it cancels the child process, waits up to
// the grace period for the producer to drain, kills the child if it
// lingers, and stops the session.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrCaptureNotRunning
	}

	logrus.WithFields(logrus.Fields{
		"function": "Supervisor.Stop",
	}).Info("Stopping packet capture")

	s.cancel()

	select {
	case <-s.done:
	case <-time.After(stopGracePeriod):
		logrus.WithFields(logrus.Fields{
			"function": "Supervisor.Stop",
		}).Warn("Producer did not drain within grace period, killing process")
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
	}

	s.running = false
	s.cmd = nil
	s.cancel = nil

	if err := s.ctrl.Stop(); err != nil && !errors.Is(err, session.ErrNotRunning) {
		return err
	}
	return nil
}

// IsRunning reports whether a capture is live. A dissector that exited on
// its own (duration autostop or a crash) reads as not running even before
// Stop reaps it.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
