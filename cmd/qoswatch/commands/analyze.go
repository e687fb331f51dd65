package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qoswatch/qoswatch/analysis"
)

var analysisOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <capture-file>",
	Short: "Analyze a saved capture file",
	Long: `Read a saved pcap file back through tshark and report per-stream RTP
quality, UDP conversation totals, a protocol breakdown, and an overall
quality score.

Examples:
  qoswatch analyze /tmp/capture.pcap
  qoswatch analyze /tmp/capture.pcap -o /tmp/analysis.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		res, err := analysis.New(cfg).AnalyzeFile(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Print(analysis.RenderReport(res))

		if analysisOutput != "" {
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal analysis result: %w", err)
			}
			if err := os.WriteFile(analysisOutput, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", analysisOutput, err)
			}
			logrus.WithFields(logrus.Fields{
				"function": "analyze",
				"file":     analysisOutput,
			}).Info("Analysis results written")
		}

		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analysisOutput, "output", "o", "",
		"write the full analysis result as JSON to this file")
	rootCmd.AddCommand(analyzeCmd)
}
