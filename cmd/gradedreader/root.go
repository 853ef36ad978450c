package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leofalp/gradedreader/core/client"
	"github.com/leofalp/gradedreader/core/client/middleware"
	"github.com/leofalp/gradedreader/core/comic"
	"github.com/leofalp/gradedreader/core/usage"
	"github.com/leofalp/gradedreader/internal/config"
	"github.com/leofalp/gradedreader/internal/logging"
	"github.com/leofalp/gradedreader/providers/ai"
	"github.com/leofalp/gradedreader/providers/ai/openai"
	"github.com/leofalp/gradedreader/providers/store/sqlite"
)

// app carries state shared by subcommands once the root pre-run has loaded
// the configuration.
type app struct {
	envFiles  []string
	logLevel  string
	logFormat string

	cfg     *config.Config
	logger  *slog.Logger
	tracker *usage.Tracker
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gradedreader",
		Short:         "Turn graded reading texts into comic scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newRecoverCmd(),
		newNormalizeCmd(),
		newStoryCmd(a),
		newComicCmd(a),
	)

	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}

	a.cfg = cfg
	a.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
	a.tracker = usage.NewTracker(usage.ModelCost{
		InputCostPerMillion:  cfg.InputCostPerMillion,
		OutputCostPerMillion: cfg.OutputCostPerMillion,
	})
	return nil
}

// service opens the database and builds a comic service. With withLLM set the
// service also gets a generator and a missing API key is an error.
func (a *app) service(ctx context.Context, withLLM bool) (*comic.Service, func(), error) {
	var llm comic.Generator
	if withLLM {
		c, err := newGenerator(a.cfg, a.logger, a.tracker)
		if err != nil {
			return nil, nil, err
		}
		llm = c
	}

	st, err := sqlite.Open(ctx, a.cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("close database", slog.String("error", err.Error()))
		}
	}

	svc := comic.NewService(st, llm, comic.Options{
		UploadDir:       a.cfg.UploadDir,
		UploadURLPrefix: a.cfg.UploadURLPrefix,
		LenientRepair:   a.cfg.LenientRepair,
		Logger:          a.logger,
	})
	return svc, closeFn, nil
}

// newGenerator assembles the LLM client. The cache sits outermost so a hit
// skips retries and rate limiting; the timeout bounds each attempt and the
// tracker sees every attempt that reaches the provider.
func newGenerator(cfg *config.Config, logger *slog.Logger, tracker *usage.Tracker) (*client.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	provider := openai.New().WithAPIKey(cfg.APIKey).WithBaseURL(cfg.BaseURL)

	var chain []client.MiddlewareConfig
	if cfg.CacheTTL > 0 {
		chain = append(chain, middleware.NewCacheMiddleware(cfg.CacheTTL))
	}

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = -1
	}
	chain = append(chain, middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: retries}))

	if cfg.RateInterval > 0 {
		chain = append(chain, middleware.NewRateLimitMiddleware(cfg.RateInterval, 1))
	}
	chain = append(chain,
		middleware.NewTimeoutMiddleware(cfg.RequestTimeout),
		middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard),
		tracker.Middleware(),
	)

	c, err := client.New(provider,
		client.WithModel(cfg.Model),
		client.WithGenerationConfig(ai.GenerationConfig{Temperature: cfg.Temperature}),
		client.WithMiddleware(chain...),
	)
	if err != nil {
		return nil, fmt.Errorf("build client: %w", err)
	}
	return c, nil
}
