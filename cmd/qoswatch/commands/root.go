// Package commands implements the qoswatch command line interface.
package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "qoswatch",
	Short: "Real-time QoS analyzer for dissected packet streams",
	Long: `qoswatch drives a tshark live capture and derives quality-of-service
metrics for real-time media traffic: jitter, bitrate, and packet loss.

It consumes tshark's JSON output incrementally under bounded memory, so
malformed or adversarial dissector output degrades metrics instead of
taking the session down.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: trace, debug, info, warn, error")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
