package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smazurov/hwscan/internal/version"
)

// VersionCmd prints build metadata.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Printf("hwscan %s\n", info.Version)
		fmt.Printf("  commit:  %s\n", info.GitCommit)
		fmt.Printf("  built:   %s\n", info.BuildDate)
		fmt.Printf("  layout:  v%d\n", info.LayoutVersion)
		fmt.Printf("  go:      %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	VersionCmd.Flags().Bool("json", false, "Print as JSON")
}
