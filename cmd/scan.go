package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/hwscan/internal/config"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/smazurov/hwscan/internal/report"
)

var scanOpts config.ScanOptions

// ScanCmd runs one enumeration and prints or saves the result.
var ScanCmd = &cobra.Command{
	Use:          "scan",
	Short:        "Enumerate hardware codec devices once",
	Long:         `Runs a single scan over the configured driver stacks and prints a report. With --output the report is written to a file whose extension picks the format.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadScanOptions(cmd, &scanOpts); err != nil {
			return err
		}
		logger := logging.GetLogger("scan")

		outputFile, _ := cmd.Flags().GetString("output")
		formatName, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		enum, err := newEnumerator(scanOpts)
		if err != nil {
			return err
		}

		start := time.Now()
		devices, err := enum.Enumerate()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		doc := report.New(devices, start, time.Since(start))
		logger.Debug("Scan finished", "devices", len(devices), "duration", doc.Duration)

		if outputFile != "" {
			if err := report.Save(outputFile, doc); err != nil {
				return err
			}
			logger.Info("Report saved", "path", outputFile, "devices", len(devices))
			return nil
		}
		return report.Render(os.Stdout, doc, format)
	},
}

func init() {
	bindScanFlags(ScanCmd, &scanOpts)
	ScanCmd.Flags().StringP("format", "f", "text", "Output format (text, json, toml)")
	ScanCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
}
