package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qoswatch/qoswatch/capture"
	"github.com/qoswatch/qoswatch/config"
	"github.com/qoswatch/qoswatch/session"
)

var (
	captureInterface string
	captureFilter    string
	outputFile       string
	reportInterval   time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a live capture session",
	Long: `Start a tshark live capture on the configured interface and analyze
its dissected output until interrupted.

Metrics and status snapshots are written as JSON to the output file at
every report interval, for consumption by dashboards or log shippers.

Examples:
  qoswatch run -i wlan0
  qoswatch run -i eth0 --filter "udp port 554" -o /tmp/metrics.json`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&captureInterface, "interface", "i", "",
		"capture interface (overrides config)")
	runCmd.Flags().StringVar(&captureFilter, "filter", "",
		"capture filter (overrides config)")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "/tmp/metrics.json",
		"metrics snapshot file")
	runCmd.Flags().DurationVar(&reportInterval, "interval", 5*time.Second,
		"snapshot interval")

	rootCmd.AddCommand(runCmd)
}

// snapshotFile is the JSON document written at every report interval.
type snapshotFile struct {
	Metrics   session.Metrics `json:"metrics"`
	Status    session.Status  `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctrl, err := session.New(cfg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	sup := capture.NewSupervisor(cfg, ctrl)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "runSession",
		"session_id": ctrl.ID(),
		"interface":  cfg.Interface,
		"output":     outputFile,
	}).Info("Capture session running, press Ctrl-C to stop")

	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "runSession",
			}).Info("Shutdown signal received")
			return sup.Stop()

		case <-ticker.C:
			writeSnapshot(ctrl)
		}
	}
}

// loadConfig builds the effective configuration from the optional YAML
// file plus command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if captureInterface != "" {
		cfg.Interface = captureInterface
	}
	if captureFilter != "" {
		cfg.CaptureFilter = captureFilter
	}

	return cfg, cfg.Validate()
}

// writeSnapshot polls the session and persists one snapshot document.
// Failures are logged and skipped; snapshot persistence must never take
// the capture down.
func writeSnapshot(ctrl *session.Controller) {
	snap := snapshotFile{
		Metrics:   ctrl.MetricsSnapshot(),
		Status:    ctrl.StatusSnapshot(),
		Timestamp: time.Now(),
	}

	logrus.WithFields(logrus.Fields{
		"function":      "writeSnapshot",
		"total_packets": snap.Metrics.TotalPackets,
		"jitter_ms":     fmt.Sprintf("%.2f", snap.Metrics.JitterMs),
		"bitrate_mbps":  fmt.Sprintf("%.3f", snap.Metrics.BitrateMbps),
		"packet_loss":   fmt.Sprintf("%.2f", snap.Metrics.PacketLossPercent),
		"queue_depth":   snap.Status.QueueDepth,
	}).Info("Session snapshot")

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeSnapshot",
			"error":    err,
		}).Error("Failed to marshal snapshot")
		return
	}

	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeSnapshot",
			"file":     outputFile,
			"error":    err,
		}).Error("Failed to write snapshot file")
	}
}
