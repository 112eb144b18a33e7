package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jobtrail-labs/jobtrail/internal/adapters/driven/gmail"
	"github.com/jobtrail-labs/jobtrail/internal/adapters/driven/oauth"
	"github.com/jobtrail-labs/jobtrail/internal/adapters/driven/ratelimit"
	"github.com/jobtrail-labs/jobtrail/internal/adapters/driven/storage/sqlite"
	"github.com/jobtrail-labs/jobtrail/internal/adapters/driving/httpapi"
	"github.com/jobtrail-labs/jobtrail/internal/classify/heuristic"
	"github.com/jobtrail-labs/jobtrail/internal/config"
	"github.com/jobtrail-labs/jobtrail/internal/core/services"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the HTTP API server: the Gmail connect flow, mailbox
scanning and the job event feed.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret (or JOBTRAIL_JWT_SECRET) is required")
	}
	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return errors.New("google.client_id and google.client_secret are required")
	}

	log := newLogger(cfg.Log)
	log.Info().Str("version", version).Msg("starting jobtrail")

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	log.Info().Str("path", store.Path()).Msg("store opened")

	limiter := ratelimit.New(cfg.ActionLimits())

	exchanger := oauth.NewExchanger(oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURL,
	})

	provider := gmail.NewProvider(cfg.Scan.Query, log)

	tokens := services.NewTokenService(store.TokenStore(), exchanger, log)
	scans := services.NewScanService(limiter, tokens, provider, heuristic.New(),
		services.ScanConfig{
			PageSize:            cfg.Scan.PageSize,
			DefaultLookbackDays: cfg.Scan.DefaultLookbackDays,
		}, log)

	api := httpapi.New(tokens, scans, store.EventStore(), provider, exchanger,
		cfg.Server.JWTSecret, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodically drop idle rate-limit windows.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := limiter.Sweep(); removed > 0 {
					log.Debug().Int("removed", removed).Msg("swept rate-limit windows")
				}
			}
		}
	}()

	// Hot-reload rate limits when the config file changes.
	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, log, func(updated config.Config) {
				limiter.SetLimits(updated.ActionLimits())
				log.Info().Msg("rate limits reloaded")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
