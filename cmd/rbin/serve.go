package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/rbin/internal/api"
	"github.com/newthinker/rbin/internal/api/handler/web"
	"github.com/newthinker/rbin/internal/config"
	"github.com/newthinker/rbin/internal/logger"
	"github.com/newthinker/rbin/internal/metrics"
	"github.com/newthinker/rbin/internal/pasteid"
	"github.com/newthinker/rbin/internal/storage/paste"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rbin server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load config: defaults < file < .env < environment
	cfg, err := config.Load(cfgFile, ".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	server, err := buildServer(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}

	log.Info("starting rbin server",
		zap.String("addr", server.Addr()),
		zap.String("storage", cfg.Storage.Type),
		zap.Int("id_length", cfg.Paste.IDLength),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		// listener never came up or died; nothing to drain
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down rbin server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// buildServer wires storage, id generation, metrics and HTTP routing.
func buildServer(cfg *config.Config, log *zap.Logger) (*api.Server, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating paste storage: %w", err)
	}

	gen, err := pasteid.New(cfg.Paste.IDLength)
	if err != nil {
		return nil, fmt.Errorf("creating id generator: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	store := paste.NewStore(backend, gen, paste.Options{
		IDLength:    cfg.Paste.IDLength,
		MaxAttempts: cfg.Paste.MaxAttempts,
	}, log.Named("store"), reg)

	requestLevel, err := logger.ParseLevel(cfg.Log.RequestLevel)
	if err != nil {
		return nil, err
	}

	return api.NewServer(api.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		FormField:       cfg.Server.FormField,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		MetricsPath:     cfg.Metrics.Path,
		RequestLogLevel: requestLevel,
		Usage:           usageVars(),
	}, api.Dependencies{
		Store:   store,
		Metrics: reg,
	}, log.Named("http"))
}

func newBackend(cfg *config.Config) (paste.Backend, error) {
	switch cfg.Storage.Type {
	case config.StorageS3:
		return paste.NewS3(paste.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	case config.StorageLocalFS:
		return paste.NewLocalFS(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// usageVars lists every environment override with its built-in default.
func usageVars() []web.EnvVarHelp {
	vars := make([]web.EnvVarHelp, 0, len(config.EnvVars))
	for _, e := range config.EnvVars {
		vars = append(vars, web.EnvVarHelp{Name: e.Name, Default: config.DefaultValue(e.Key)})
	}
	return vars
}
