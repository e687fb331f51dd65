package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qoswatch/qoswatch/capture"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate capture dependencies",
	Long: `Verify that tshark is installed and that this process has sufficient
privileges to capture packets, without starting a session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := capture.Preflight(context.Background(), cfg.TsharkPath); err != nil {
			return err
		}

		fmt.Println("All capture dependencies OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
