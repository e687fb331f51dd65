package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrTsharkUnavailable indicates tshark could not be executed.
var ErrTsharkUnavailable = errors.New("tshark is not available")

// ErrInsufficientPrivileges indicates the process cannot open a capture
// device.
var ErrInsufficientPrivileges = errors.New("insufficient privileges for packet capture")

// checkTimeout bounds each preflight probe.
const checkTimeout = 10 * time.Second

// CheckTshark verifies that the dissector binary runs at all.
func CheckTshark(ctx context.Context, tsharkPath string) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, tsharkPath, "-v").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrTsharkUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "CheckTshark",
		"path":     tsharkPath,
	}).Debug("tshark is available")
	return nil
}

// CheckPrivileges verifies the process can enumerate capture devices,
// either by running as root or through dumpcap capabilities.
func CheckPrivileges(ctx context.Context) error {
	if os.Geteuid() == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "CheckPrivileges",
		}).Debug("Running as root, capture privileges OK")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "dumpcap", "-D").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientPrivileges, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "CheckPrivileges",
	}).Debug("dumpcap capture privileges OK")
	return nil
}

// Preflight runs every dependency check required before starting a
// capture. The first failure is returned.
func Preflight(ctx context.Context, tsharkPath string) error {
	if err := CheckTshark(ctx, tsharkPath); err != nil {
		return err
	}
	if err := CheckPrivileges(ctx); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Preflight",
	}).Info("All capture dependencies validated")
	return nil
}
