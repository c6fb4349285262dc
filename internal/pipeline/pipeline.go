// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a research question through every stage: intent
// parsing, strategy generation, connector federation, ranking, and
// formatting.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/genoscope/internal/format"
	"github.com/pdiddy/genoscope/internal/intent"
	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/internal/rank"
	"github.com/pdiddy/genoscope/internal/search"
	"github.com/pdiddy/genoscope/internal/strategy"
	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// ErrAllBackendsFailed is returned, together with a complete ResultSet,
// when every backend a query was sent to failed. It distinguishes "service
// unavailable" from "no matches", which returns a nil error.
var ErrAllBackendsFailed = errors.New("all backends failed")

// Recorder receives every processed result set. Recording errors are
// logged and never fail a query.
type Recorder interface {
	Record(ctx context.Context, rs types.ResultSet) error
}

// Engine holds the stages of the query pipeline. It is safe for
// concurrent use.
type Engine struct {
	index        *vocab.Index
	weights      rank.Weights
	formatOpts   format.Options
	queryTimeout time.Duration
	metrics      *metrics.Metrics
	log          zerolog.Logger
	recorder     Recorder

	parser     *intent.Parser
	generator  *strategy.Generator
	federation *search.Federation
	ranker     *rank.Ranker
}

// Option configures an Engine.
type Option func(*Engine)

// WithVocabulary replaces the default vocabulary index.
func WithVocabulary(ix *vocab.Index) Option {
	return func(e *Engine) { e.index = ix }
}

// WithWeights replaces the default ranking weights.
func WithWeights(w rank.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithFormat sets record formatting options.
func WithFormat(opts format.Options) Option {
	return func(e *Engine) { e.formatOpts = opts }
}

// WithQueryTimeout sets the outer deadline for one query. Zero means the
// caller's context is the only deadline.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) { e.queryTimeout = d }
}

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecorder records every processed result set on r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// New builds an Engine over the connectors in reg. An empty registry or
// invalid weights are configuration errors.
func New(reg *search.Registry, opts ...Option) (*Engine, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, &types.ConfigError{Field: "search.databases", Reason: "no connectors registered"}
	}

	e := &Engine{
		index:   vocab.Default(),
		weights: rank.DefaultWeights(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}

	e.parser = intent.NewParser(e.index)
	e.generator = strategy.NewGenerator(e.index)
	e.ranker = rank.New(e.weights, e.index)
	e.federation = &search.Federation{Registry: reg, Metrics: e.metrics, Log: e.log}
	return e, nil
}

// ProcessQuery answers one research question. maxResults caps records per
// backend; zero or negative uses strategy.DefaultMaxResults.
//
// The returned ResultSet always carries Results and PartialFailures, both
// possibly empty. A question with no searchable terms returns an empty
// ResultSet without contacting any backend. When every backend fails the
// ResultSet lists each failure and the error is ErrAllBackendsFailed.
func (e *Engine) ProcessQuery(ctx context.Context, rawText string, maxResults int) (types.ResultSet, error) {
	start := time.Now()
	in := e.parser.Parse(rawText)
	rs := types.ResultSet{
		QueryID:         uuid.NewString(),
		Intent:          in,
		Strategies:      []types.SearchStrategy{},
		Results:         []types.Record{},
		PartialFailures: []types.PartialFailure{},
	}
	log := e.log.With().Str("query_id", rs.QueryID).Logger()

	if in.IsEmpty() {
		rs.Recommendations = []string{"Enter an organism, data type, condition, or keyword to search."}
		rs.Elapsed = time.Since(start)
		e.metrics.ObserveQuery(metrics.OutcomeEmpty, rs.Elapsed)
		log.Debug().Str("text", rawText).Msg("empty query, no backends contacted")
		return rs, nil
	}

	rs.Strategies = e.generator.Generate(in, maxResults)
	log.Debug().
		Str("organism", in.Organism).
		Str("data_type", in.DataType).
		Strs("conditions", in.ConditionTerms).
		Strs("keywords", in.FreeKeywords).
		Int("strategies", len(rs.Strategies)).
		Msg("parsed query")

	qctx := ctx
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}
	outcome := e.federation.Execute(qctx, rs.Strategies)

	kept, removed := rank.Deduplicate(outcome.Results)
	rs.Results = format.Format(e.ranker.Rank(in, kept), e.formatOpts)
	if outcome.Failures != nil {
		rs.PartialFailures = outcome.Failures
	}
	rs.DupsRemoved = removed
	rs.Recommendations = format.Recommendations(rs.Results, in, rs.PartialFailures)
	rs.Elapsed = time.Since(start)

	var err error
	outcomeLabel := metrics.OutcomeResults
	switch {
	case len(rs.Strategies) > 0 && len(rs.PartialFailures) == len(rs.Strategies):
		err = ErrAllBackendsFailed
		outcomeLabel = metrics.OutcomeFailed
	case len(rs.Results) == 0:
		outcomeLabel = metrics.OutcomeNoMatches
	}
	e.metrics.ObserveQuery(outcomeLabel, rs.Elapsed)

	log.Info().
		Int("results", len(rs.Results)).
		Int("failures", len(rs.PartialFailures)).
		Int("duplicates", rs.DupsRemoved).
		Dur("elapsed", rs.Elapsed).
		Msg("query processed")

	if e.recorder != nil {
		if rerr := e.recorder.Record(ctx, rs); rerr != nil {
			log.Warn().Err(rerr).Msg("recording query history")
		}
	}
	return rs, err
}
