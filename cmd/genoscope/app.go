// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/internal/history"
	"github.com/pdiddy/genoscope/internal/httputil"
	"github.com/pdiddy/genoscope/internal/logging"
	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/internal/pipeline"
	"github.com/pdiddy/genoscope/internal/rank"
	"github.com/pdiddy/genoscope/internal/search"
	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// app holds the components every subcommand shares. One rate limiter is
// created per process and shared by all connectors.
type app struct {
	cfg      types.Config
	log      zerolog.Logger
	metrics  *metrics.Metrics
	eutils   *search.EUtils
	registry *search.Registry
	history  *history.Store
}

func newApp(withHistory bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	limiter := httputil.NewLimiter(cfg.Search)
	eu := search.NewEUtils(cfg.Search, limiter, m, log)
	reg, err := search.NewDefaultRegistry(cfg.Search, eu, vocab.Default())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: m, eutils: eu, registry: reg}
	if withHistory {
		a.history, err = history.Open(cfg.History)
		if err != nil {
			return nil, err
		}
	}

	log.Debug().
		Bool("api_key", cfg.Search.HasCredential()).
		Float64("rate", cfg.Search.RequestsPerSecond()).
		Int("backends", reg.Len()).
		Msg("configured")
	return a, nil
}

func (a *app) engine() (*pipeline.Engine, error) {
	opts := []pipeline.Option{
		pipeline.WithWeights(rank.WeightsFromConfig(a.cfg.Rank)),
		pipeline.WithFormat(format.Options{SummaryLength: a.cfg.Format.SummaryLength}),
		pipeline.WithQueryTimeout(a.cfg.Search.QueryTimeout),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithLogger(a.log),
	}
	if a.history != nil {
		opts = append(opts, pipeline.WithRecorder(a.history))
	}
	return pipeline.New(a.registry, opts...)
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
