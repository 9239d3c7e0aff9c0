package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sectionrank/internal/config"
	"github.com/fyrsmithlabs/sectionrank/internal/embeddings"
	"github.com/fyrsmithlabs/sectionrank/internal/heading"
	"github.com/fyrsmithlabs/sectionrank/internal/logging"
	"github.com/fyrsmithlabs/sectionrank/internal/pipeline"
	"github.com/fyrsmithlabs/sectionrank/internal/telemetry"
)

// app holds what every command needs: configuration, logger and telemetry.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
}

// runFlags are the per-command overrides of the configuration file.
type runFlags struct {
	input       string
	output      string
	persona     string
	job         string
	workers     int
	titlePolicy string
	strict      bool
}

func (f *runFlags) register(fs *pflag.FlagSet, withQuery bool) {
	fs.StringVarP(&f.input, "input", "i", "", "Input directory with documents")
	fs.StringVarP(&f.output, "output", "o", "", "Output directory")
	fs.IntVar(&f.workers, "workers", 0, "Documents processed in parallel")
	if withQuery {
		fs.StringVar(&f.persona, "persona", "", "Persona role (overrides the query file)")
		fs.StringVar(&f.job, "job", "", "Job to be done (overrides the query file)")
		fs.BoolVar(&f.strict, "strict", true, "Abort when ranking fails instead of reporting unranked")
	}
}

// apply copies flags that were set on the command line onto cfg.
func (f *runFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("input") {
		cfg.Input.Dir = f.input
	}
	if fs.Changed("output") {
		cfg.Output.Dir = f.output
	}
	if fs.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if fs.Changed("persona") {
		cfg.Input.Persona = f.persona
	}
	if fs.Changed("job") {
		cfg.Input.Job = f.job
	}
	if fs.Changed("strict") {
		cfg.Ranking.Strict = f.strict
	}
	if fs.Changed("title-policy") {
		cfg.Outline.TitlePolicy = f.titlePolicy
	}
}

// newApp loads configuration, applies flag overrides and starts logging and
// telemetry.
func newApp(ctx context.Context, cmd *cobra.Command, flags *runFlags) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if flags != nil {
		flags.apply(cmd.Flags(), cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	logCfg.Writer = cmd.ErrOrStderr()
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	return &app{cfg: cfg, logger: logger, tel: tel}, nil
}

// close flushes telemetry and logs.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// runner builds a pipeline runner. embedder may be nil for commands that
// do not rank; a nil confirmer is loaded from the configured model on first
// use.
func (a *app) runner(embedder embeddings.Embedder, confirm heading.Confirmer) (*pipeline.Runner, error) {
	return pipeline.New(pipeline.Options{
		Config:    a.cfg,
		Confirmer: confirm,
		Embedder:  embedder,
		Logger:    a.logger,
		Tracer:    a.tel.Tracer("github.com/fyrsmithlabs/sectionrank"),
	})
}

// embedder creates the configured embedding provider.
func (a *app) embedder(ctx context.Context) (embeddings.Provider, error) {
	provider, err := embeddings.NewProvider(ctx,
		embeddings.ProviderConfigFrom(a.cfg.Embeddings, a.logger.Underlying()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrEmbeddingFailure, err)
	}
	a.logger.Info(ctx, "embedding provider ready",
		zap.String("provider", a.cfg.Embeddings.Provider),
		zap.String("model", a.cfg.Embeddings.Model),
		zap.Int("dimension", provider.Dimension()),
	)
	return provider, nil
}
