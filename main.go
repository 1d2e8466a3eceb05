package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"miren.dev/issue-offer-bridge/internal/cache"
	"miren.dev/issue-offer-bridge/internal/config"
	"miren.dev/issue-offer-bridge/internal/email"
	"miren.dev/issue-offer-bridge/internal/github"
	"miren.dev/issue-offer-bridge/internal/logging"
	"miren.dev/issue-offer-bridge/internal/offer"
	"miren.dev/issue-offer-bridge/internal/pipedrive"
	"miren.dev/issue-offer-bridge/internal/server"
	"miren.dev/issue-offer-bridge/internal/summary"
)

func main() {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "issue-offer-bridge",
		Short:         "Turn GitHub issue webhooks into offer emails and CRM deals",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgFile)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to a YAML config file (default $CONFIG_FILE)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	gemini := summary.NewClient(cfg.GeminiAPIKey)
	summaries, err := cache.New(summary.NewSummarizer(gemini, cfg.GeminiModels), cfg.SummaryCacheTTL, cache.DefaultMaxCost)
	if err != nil {
		return fmt.Errorf("initialize summary cache: %w", err)
	}
	defer summaries.Close()

	renderer, err := email.NewRenderer()
	if err != nil {
		return fmt.Errorf("initialize renderer: %w", err)
	}

	mailer := email.NewMailer(email.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.EmailUser,
		Password:  cfg.EmailPass,
		Recipient: cfg.EmailRecipient,
	})

	var deals offer.DealCreator
	if cfg.PipedriveAPIKey != "" {
		deals = pipedrive.NewDealCreator(pipedrive.NewClient(cfg.PipedriveAPIKey), cfg.CustomerEmail)
	} else {
		slog.Warn("PIPEDRIVE_API_KEY not set, deal creation disabled")
	}

	processor := offer.NewProcessor(summaries, renderer, mailer, deals)
	webhook := github.NewWebhookHandler(cfg.WebhookSecret, processor)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(webhook),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "models", cfg.GeminiModels, "deals", deals != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
