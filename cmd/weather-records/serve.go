package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-records/internal/api/http"
	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/scheduler"
	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
	"github.com/i474232898/weather-records/internal/weather/providers"
)

var (
	envFile string
	port    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the weather records HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles(envFile)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed("log-format") {
			slog.SetDefault(newLogger(os.Stderr, verbose, cfg.LogFormat))
		}
		if port != "" {
			cfg.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to a .env file to load before reading the environment")
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

// newProvider builds the configured weather provider with a shared HTTP client.
func newProvider(cfg *config.AppConfig) (weather.Provider, error) {
	httpClient := &http.Client{
		Timeout: cfg.ProviderTimeout,
	}
	breaker := providers.BreakerConfig{
		MaxFailures:      cfg.BreakerMaxFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenRequests: cfg.BreakerHalfOpenRequests,
	}

	switch cfg.Provider {
	case config.ProviderWeatherstack:
		return providers.NewWeatherstackProvider(httpClient, cfg.WeatherstackAPIKey, cfg.WeatherstackBaseURL, breaker), nil
	case config.ProviderWeatherAPI:
		return providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, breaker), nil
	}
	return nil, fmt.Errorf("unknown weather provider %q", cfg.Provider)
}

// newApp builds the Fiber app with middleware and routes.
func newApp(cfg *config.AppConfig, service httpapi.WeatherService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-records",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Leaves room for the provider call.
		WriteTimeout: cfg.ProviderTimeout + 5*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.CORS(cfg.AllowedOrigins))

	httpapi.RegisterRoutes(app, service)
	return app
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	// Record store lives for the lifetime of the process.
	memStore := store.NewMemoryStore()
	service := weather.NewService(memStore, provider)

	sched := scheduler.New(cfg.StatsInterval, service, slog.Default())
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := newApp(cfg, service)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "provider", provider.Name(), "origins", cfg.AllowedOrigins)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
