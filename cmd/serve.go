package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteauditor/site-auditor/internal/audit"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/server"
	"github.com/siteauditor/site-auditor/internal/store"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit HTTP API",
	Long: `Start an HTTP server that runs audits on request and keeps a bounded,
in-memory history of reports and user feedback.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := audit.New(cfg, browser.NewChromeProvider(&cfg.Browser, log), log)
	srv := server.New(
		cfg.Server,
		orchestrator,
		store.NewMemoryAuditRepository(cfg.Server.HistoryLimit),
		store.NewMemoryFeedbackRepository(cfg.Server.FeedbackLimit),
		log,
	)
	return srv.ListenAndServe(ctx)
}
