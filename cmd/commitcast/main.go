package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/juparave/commitcast/internal/auth"
	"github.com/juparave/commitcast/internal/config"
	"github.com/juparave/commitcast/internal/generate"
	"github.com/juparave/commitcast/internal/githost"
	"github.com/juparave/commitcast/internal/logging"
	"github.com/juparave/commitcast/internal/ratelimit"
	"github.com/juparave/commitcast/internal/server"
)

var (
	version      = "0.1.0"
	cfgFile      string
	addr         string
	dev          bool
	mockBackends bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "commitcast",
		Short:   "Commitcast - turn commit diffs into ready-to-post content",
		Long:    `Commitcast serves an API that fetches a commit's diff from the source host and drafts short-form, professional and long-form content variants for it.`,
		Version: version,
		RunE:    run,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ~/.config/commitcast/config.yaml)")
	rootCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")
	rootCmd.Flags().BoolVar(&dev, "dev", false, "Development mode: verbose logs and diagnostic error responses")
	rootCmd.Flags().BoolVar(&mockBackends, "mock-backends", false, "Serve canned diffs and drafts without external credentials")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with CLI flags
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dev {
		cfg.Development = true
	}
	if mockBackends && len(cfg.Auth.Tokens) == 0 {
		cfg.Auth.Tokens = map[string]string{"dev-token": "dev"}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(cfg.Development)
	defer logging.Sync()

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	fetcher, generator, err := buildBackends(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Authenticator:   auth.NewStaticTokenAuthenticator(cfg.Auth.Tokens),
		RateLimit:       store,
		Fetcher:         fetcher,
		Generator:       generator,
		FetchTimeout:    cfg.GitHost.Timeout,
		GenerateTimeout: cfg.Generate.Timeout,
		Development:     cfg.Development,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("commitcast listening on %s", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logging.Infof("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func buildStore(cfg *config.Config) (ratelimit.Store, error) {
	rlCfg := ratelimit.Config{
		Limit:          cfg.RateLimit.Limit,
		Window:         cfg.RateLimit.Window,
		MaxTrackedKeys: cfg.RateLimit.MaxTrackedKeys,
	}

	if cfg.RateLimit.Backend == "redis" {
		store, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{
			Addr:     cfg.RateLimit.Redis.Addr,
			Username: cfg.RateLimit.Redis.Username,
			Password: cfg.RateLimit.Redis.Password,
			Database: cfg.RateLimit.Redis.Database,
		}, rlCfg)
		if err != nil {
			return nil, fmt.Errorf("initializing redis rate limiter: %w", err)
		}
		return store, nil
	}

	return ratelimit.NewMemoryStore(rlCfg), nil
}

// buildBackends picks real or mock collaborators. A nil generator is valid:
// the pipeline reports ConfigurationError per request until a key is set.
func buildBackends(ctx context.Context, cfg *config.Config) (githost.Fetcher, *generate.Generator, error) {
	if mockBackends {
		logging.Warnf("serving mock backends, no external services will be called")
		return githost.NewMockFetcher(), generate.NewGenerator(&generate.MockLLM{}, cfg.Generate.MaxRetries), nil
	}

	fetcher := githost.NewClient(cfg.GitHost.BaseURL, cfg.GitHost.Token, cfg.GitHost.Timeout)

	if cfg.Generate.APIKey == "" {
		logging.Warnf("no generation provider API key configured, /generate will fail until one is set")
		return fetcher, nil, nil
	}

	llm, err := generate.NewGenkitLLM(ctx, generate.Settings{
		Model:   cfg.Generate.Model,
		APIKey:  cfg.Generate.APIKey,
		BaseURL: cfg.Generate.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing generation provider: %w", err)
	}

	return fetcher, generate.NewGenerator(llm, cfg.Generate.MaxRetries), nil
}
