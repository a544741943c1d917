package cmd

import (
	"github.com/fatih/color"

	"github.com/maher92-collab/securescan-pro/internal/finding"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

func colorSeverity(sev finding.Severity) string {
	label := sev.String()
	switch sev {
	case finding.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case finding.SeverityHigh:
		return colorError(label)
	case finding.SeverityMedium:
		return colorWarn(label)
	case finding.SeverityLow:
		return colorInfo(label)
	default:
		return label
	}
}
