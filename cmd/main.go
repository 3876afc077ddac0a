package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/track-resolver/internal/config"
	"github.com/weiawesome/track-resolver/internal/handler"
	"github.com/weiawesome/track-resolver/internal/metrics"
	"github.com/weiawesome/track-resolver/internal/repository"
	"github.com/weiawesome/track-resolver/internal/service"
	pkglog "github.com/weiawesome/track-resolver/pkg/log"
)

const serviceName = "track-resolver"

type options struct {
	configFile string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Resolve free-text queries to playable YouTube Music track ids",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./config/config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "resolve <query>...",
		Short: "Resolve a single query and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, strings.Join(args, " "))
		},
	})

	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func newResolver(cfg *config.Config, m *metrics.Metrics) (service.ResolverService, error) {
	repo, err := repository.New(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return service.NewResolverService(repo, service.Options{
		Backend: cfg.Catalog.Backend,
		Timeout: cfg.Catalog.Timeout,
		Metrics: m,
	}), nil
}

func runServe(ctx context.Context, opts *options) error {
	// Load configuration
	cfg, err := loadConfig(opts)
	if err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("failed to load config")
		return err
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	// Initialize catalog and resolver
	m := metrics.New()
	resolver, err := newResolver(cfg, m)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create catalog repository")
		return err
	}
	logger.Info().
		Str(pkglog.FieldBackend, cfg.Catalog.Backend).
		Dur("timeout", cfg.Catalog.Timeout).
		Msg("catalog configured")

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(handler.NewHandler(resolver), handler.RouterConfig{
		Logger:        logger,
		CORS:          cfg.CORS,
		RoutePrefixes: cfg.Server.RoutePrefixes,
		Metrics:       m,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Strs("prefixes", cfg.Server.RoutePrefixes).Msg("track-resolver starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runResolve(cmd *cobra.Command, opts *options, query string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the result.
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      true,
		ServiceName: serviceName,
		Output:      cmd.ErrOrStderr(),
	})

	resolver, err := newResolver(cfg, nil)
	if err != nil {
		return err
	}

	ctx := pkglog.WithLogger(cmd.Context(), pkglog.L())
	result, err := resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(result)
}
