package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/siteauditor/site-auditor/internal/audit"
	"github.com/siteauditor/site-auditor/internal/authprobe"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a website and print a rated report",
	Long: `Open the site in a headless browser, discover its main pages and analyze
each one for SEO, security, performance, accessibility, mobile, UX, UI and
functionality issues. A bare host such as example.com is audited over HTTPS.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

var (
	auditUsername     string
	auditPassword     string
	auditMaxPages     int
	auditWorkers      int
	auditTimeout      time.Duration
	screenshotsDir    string
	failBelow         float64
	failOnIssues      bool
	severityThreshold string
)

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditUsername, "username", "", "username or email to try on the login form")
	auditCmd.Flags().StringVar(&auditPassword, "password", "", "password to try on the login form")
	auditCmd.Flags().IntVar(&auditMaxPages, "max-pages", 0, "maximum pages to audit (default from config)")
	auditCmd.Flags().IntVar(&auditWorkers, "workers", 0, "pages audited in parallel (default from config)")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 0, "overall audit deadline, e.g. 90s (default from config)")
	auditCmd.Flags().StringVar(&screenshotsDir, "screenshots-dir", "", "write homepage screenshots into this directory")
	auditCmd.Flags().Float64Var(&failBelow, "fail-below", 0, "exit with non-zero code if the rating is below this value")
	auditCmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "exit with non-zero code if issues found")
	auditCmd.Flags().StringVar(&severityThreshold, "severity", "low", "minimum severity level (low, medium, high, critical)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if auditWorkers > 0 {
		cfg.Audit.Workers = auditWorkers
	}
	if auditTimeout > 0 {
		cfg.Audit.Timeout = auditTimeout
	}
	if screenshotsDir != "" {
		cfg.Audit.Screenshots = true
	}

	req := audit.Request{URL: args[0], MaxPages: auditMaxPages}
	if auditUsername != "" || auditPassword != "" {
		req.Credentials = &authprobe.Credentials{Username: auditUsername, Password: auditPassword}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing %s...\n", args[0])
	}

	provider := browser.NewChromeProvider(&cfg.Browser, log)
	result, err := audit.New(cfg, provider, log).Run(ctx, req)
	if err != nil {
		return err
	}

	if err := outputResults(cmd, result, verbose); err != nil {
		return err
	}

	if screenshotsDir != "" {
		if err := writeScreenshots(result.Screenshots, screenshotsDir); err != nil {
			return fmt.Errorf("failed to write screenshots: %w", err)
		}
	}

	if result.Partial {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Audit stopped early; the report covers the pages analyzed before the deadline.")
	}

	handleFailures(result)
	return nil
}

func outputResults(cmd *cobra.Command, result *report.AuditReport, verbose bool) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	formatter := report.GetFormatter(formatFlag)

	output, err := formatter.Format(result)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		if err := writeOutputToFile(output, outputPath); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written to: %s\n", outputPath)
		}
	} else {
		fmt.Print(output)
	}

	return nil
}

func handleFailures(result *report.AuditReport) {
	if failBelow > 0 && result.Rating < failBelow {
		os.Exit(1)
	}
	if failOnIssues && len(report.FilterBySeverity(result.Issues, report.Severity(severityThreshold))) > 0 {
		os.Exit(1)
	}
}

// writeScreenshots decodes the base64 captures into desktop.png and
// mobile.png under dir.
func writeScreenshots(shots *report.Screenshots, dir string) error {
	if shots == nil {
		return nil
	}
	for name, encoded := range map[string]string{"desktop.png": shots.Desktop, "mobile.png": shots.Mobile} {
		if encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		if err := writeOutputToFile(string(data), filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputToFile(content, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(content), 0644)
}
