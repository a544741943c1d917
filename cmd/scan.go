package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maher92-collab/securescan-pro/internal/engine"
	"github.com/maher92-collab/securescan-pro/internal/finding"
	"github.com/maher92-collab/securescan-pro/internal/report"
	"github.com/maher92-collab/securescan-pro/internal/scanner"
)

// componentsValue is a pflag.Value accepting a comma-separated component
// list, validated against the registry identifiers.
type componentsValue struct {
	ids []string
}

var _ pflag.Value = (*componentsValue)(nil)

func (c *componentsValue) String() string { return strings.Join(c.ids, ",") }

func (c *componentsValue) Type() string { return "components" }

func (c *componentsValue) Set(raw string) error {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := scanner.ParseComponentID(part); err != nil {
			return err
		}
		ids = append(ids, part)
	}
	c.ids = ids
	return nil
}

var (
	scanType       string
	scanComponents componentsValue
	scanOutput     string
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Run a security scan against one target and print the findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := engine.NewMemoryStore()
		registry := scanner.NewRegistry(scanData, scanRuntime, logger)
		orchestrator := engine.New(registry, store, scanData, scanRuntime, logger)

		job, err := orchestrator.Submit(engine.Request{
			Target:     args[0],
			ScanType:   scanType,
			Components: scanComponents.ids,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Scanning %s (%s mode, %d components)...\n",
			colorInfo("→"), job.Target, job.Mode, len(job.Components))

		orchestrator.Wait()
		job, err = orchestrator.Status(job.ID)
		if err != nil {
			return err
		}
		if job.Status == engine.StatusFailed {
			return fmt.Errorf("scan failed (%s): %s", job.Error.Code, job.Error.Message)
		}
		if job.Report == nil {
			return errors.New("scan finished without a report")
		}

		printReport(job.Report)

		if scanOutput != "" {
			if err := writeReportFile(job.Report, scanOutput); err != nil {
				return err
			}
			fmt.Printf("%s Report written to %s\n", colorSuccess("✓"), scanOutput)
		}
		return nil
	},
}

func printReport(r *finding.Report) {
	fmt.Printf("\n%s %s (%s scan, %.2fs)\n", colorBold("Target:"), r.Target, r.ScanType, r.DurationSeconds)
	fmt.Printf("%s %d issues (critical %d, high %d, medium %d, low %d, info %d)\n\n",
		colorBold("Summary:"), r.Summary.TotalIssues,
		r.Summary.Critical, r.Summary.High, r.Summary.Medium, r.Summary.Low, r.Summary.Info)

	for _, section := range r.Sections {
		fmt.Println(colorBold(strings.ReplaceAll(string(section.Category), "_", " ")))
		for _, f := range section.Findings {
			fmt.Printf("  [%s] %s\n", colorSeverity(f.Severity), f.Description)
			if f.Remediation != "" {
				fmt.Printf("      %s\n", f.Remediation)
			}
		}
		fmt.Println()
	}
}

// writeReportFile picks the encoding from the file extension.
func writeReportFile(r *finding.Report, path string) error {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasSuffix(path, ".pdf"):
		data, err = report.EncodePDF(r)
	case strings.HasSuffix(path, ".json"):
		data, err = report.EncodeJSON(r)
	default:
		return fmt.Errorf("unsupported report extension %q (use .json or .pdf)", path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	scanCmd.Flags().StringVarP(&scanType, "type", "t", string(scanner.ModeQuick), "scan type: quick or deep")
	scanCmd.Flags().Var(&scanComponents, "components",
		"comma-separated components: tcp_port_scanning,http_security_headers,tls_ssl_analysis,cve_vulnerability_mapping")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a .json or .pdf file")
}
