package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/maher92-collab/securescan-pro/internal/config"
)

// Build metadata, overridden via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and scan-data information",
	Run: func(cmd *cobra.Command, args []string) {
		detailed, _ := cmd.Flags().GetBool("verbose")

		fmt.Printf("securescan %s\n", Version)
		if !detailed {
			return
		}

		data := config.DefaultScanData()
		cveEntries := 0
		for _, entries := range data.CVEs {
			cveEntries += len(entries)
		}

		fmt.Printf("  commit:        %s\n", GitCommit)
		fmt.Printf("  built:         %s\n", BuildDate)
		fmt.Printf("  go:            %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  quick ports:   %d\n", len(data.QuickPorts))
		fmt.Printf("  deep ports:    %d\n", len(data.DeepPorts))
		fmt.Printf("  header checks: %d\n", len(data.Headers))
		fmt.Printf("  cve entries:   %d across %d services\n", cveEntries, len(data.CVEs))
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "include build and scan-data details")
}
