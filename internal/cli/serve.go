package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/grocerytracker/internal/server"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and notification feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	logger := opts.logger
	cfg := opts.cfg

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	key, err := srv.Gate().EnsureBootstrapKey(ctx, cfg.BootstrapKey)
	if err != nil {
		return fmt.Errorf("bootstrap access key: %w", err)
	}
	if key != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Created access key: %s\n", key)
	}

	if err := srv.Load(ctx); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}

	go srv.RateLimiter().Run(ctx, 5*time.Minute)

	backups := srv.BackupManager()
	backups.Start(ctx)
	defer backups.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "db", cfg.DBPath, "backups", backups.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
