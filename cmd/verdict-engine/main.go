package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clearpathlegal/verdict-engine/internal/api"
	"github.com/clearpathlegal/verdict-engine/internal/cache"
	"github.com/clearpathlegal/verdict-engine/internal/config"
	"github.com/clearpathlegal/verdict-engine/internal/engine"
	"github.com/clearpathlegal/verdict-engine/internal/metrics"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
	"github.com/clearpathlegal/verdict-engine/internal/services"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

func main() {
	var configPath, inputPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&inputPath, "input", "", "Evaluate one situation JSON file (- for stdin), print the verdict and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	// stdout carries the verdict in one-shot mode.
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	if inputPath != "" {
		logger = utils.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	source, closeCache := policySource(cfg, logger)
	defer closeCache()

	provider := policy.NewProvider(source, logger, policy.WithLoadTimeout(cfg.Policies.LoadTimeout))
	pipeline := engine.NewPipeline(logger, provider)
	service := services.NewEvaluationService(logger, pipeline, provider)

	if inputPath != "" {
		if err := evaluateFile(service, inputPath, os.Stdout); err != nil {
			logger.Error("evaluation failed", slog.String("input", inputPath), slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	logger.Info("starting verdict-engine",
		slog.String("grpc_address", cfg.Server.Address),
		slog.String("http_address", cfg.Server.HTTPAddress))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *api.Server
	if cfg.Server.Address != "" {
		server, err = api.NewServer(cfg.Server, service)
		if err != nil {
			logger.Error("failed to create gRPC server", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			if serveErr := server.Start(); serveErr != nil {
				logger.Error("gRPC server exited", slog.Any("error", serveErr))
				stop()
			}
		}()
	}

	var gateway *api.Gateway
	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		gateway = api.NewGateway(service, prometheus.DefaultGatherer, logger)
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddress,
			Handler:           gateway.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
		}
		go func() {
			logger.Info("http gateway listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http gateway exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	if err := preload(ctx, provider, cfg.Policies); err != nil {
		logger.Error("policy preload failed", slog.Any("error", err))
		stop()
	} else {
		if server != nil {
			server.SetServing(true)
		}
		if gateway != nil {
			gateway.SetReady(true)
		}
		logger.Info("policies loaded", slog.Any("jurisdictions", provider.Supported(ctx, "")))
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if gateway != nil {
		gateway.SetReady(false)
	}
	if server != nil {
		server.Shutdown(shutdownCtx)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http gateway shutdown", slog.Any("error", err))
		}
	}

	logger.Info("verdict-engine stopped")
}

// policySource layers the configured directory and registry over the built-in
// policies and puts the shared cache in front when it is enabled.
func policySource(cfg *config.Config, logger *slog.Logger) (policy.Source, func()) {
	var layers policy.LayeredSource
	if cfg.Policies.Dir != "" {
		layers = append(layers, policy.NewDirSource(cfg.Policies.Dir))
	}
	if cfg.Policies.RegistryURL != "" {
		layers = append(layers, policy.NewHTTPSource(cfg.Policies.RegistryURL, cfg.Policies.RegistryTimeout))
	}
	var source policy.Source = policy.Builtin()
	if len(layers) > 0 {
		source = append(layers, policy.Builtin())
	}

	noop := func() {}
	if !cfg.Cache.Enabled {
		return source, noop
	}
	provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
		Addr:         cfg.Cache.Addr,
		Username:     cfg.Cache.Username,
		Password:     cfg.Cache.Password,
		DB:           cfg.Cache.DB,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
		MaxRetries:   cfg.Cache.MaxRetries,
		TLS:          cfg.Cache.TLS,
	})
	if err != nil {
		logger.Warn("valkey cache unavailable, reading policies directly", slog.Any("error", err))
		return source, noop
	}
	return policy.NewCachedSource(provider, source, cfg.Cache.PolicyTTL, logger), func() {
		if err := provider.Close(); err != nil {
			logger.Warn("close valkey cache", slog.Any("error", err))
		}
	}
}

func preload(ctx context.Context, provider *policy.Provider, cfg config.PoliciesConfig) error {
	switch {
	case len(cfg.Preload) > 0:
		return provider.Preload(ctx, cfg.Preload...)
	case cfg.PreloadAll:
		return provider.Preload(ctx)
	default:
		return nil
	}
}

func evaluateFile(service *services.EvaluationService, path string, out io.Writer) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read situation: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode situation: %w", err)
	}

	verdict, err := service.EvaluateSituation(context.Background(), raw)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}
