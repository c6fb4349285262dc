// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search executes search strategies against the NCBI genomics
// databases and collects their raw results.
//
// Each database is wrapped by a Connector. The Federation fans strategies
// out to connectors concurrently and fans the results back in; a backend
// that fails is reported as a partial failure instead of failing the query.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/genoscope/internal/metrics"
	"github.com/pdiddy/genoscope/internal/vocab"
	"github.com/pdiddy/genoscope/pkg/types"
)

// Connector executes a strategy against one backend. Implementations must
// be safe for concurrent use and must honor ctx cancellation.
type Connector interface {
	BackendID() types.DatabaseID
	Execute(ctx context.Context, s types.SearchStrategy) ([]types.RawResult, error)
}

// NewConnector returns the connector for db backed by client.
func NewConnector(db types.DatabaseID, client *EUtils, ix *vocab.Index) (Connector, error) {
	switch db {
	case types.DBNucleotide:
		return &NucleotideConnector{Client: client, Vocab: ix}, nil
	case types.DBProtein:
		return &ProteinConnector{Client: client, Vocab: ix}, nil
	case types.DBExpression:
		return &ExpressionConnector{Client: client, Vocab: ix}, nil
	case types.DBSequenceRead:
		return &SequenceReadConnector{Client: client, Vocab: ix}, nil
	default:
		return nil, &types.ConfigError{Field: "search.databases", Reason: fmt.Sprintf("unknown database %q", db)}
	}
}

// Registry maps database IDs to connectors.
type Registry struct {
	connectors map[types.DatabaseID]Connector
}

// NewRegistry registers connectors by BackendID. Registering two
// connectors for the same backend is an error.
func NewRegistry(connectors ...Connector) (*Registry, error) {
	r := &Registry{connectors: make(map[types.DatabaseID]Connector, len(connectors))}
	for _, c := range connectors {
		id := c.BackendID()
		if _, dup := r.connectors[id]; dup {
			return nil, &types.ConfigError{Field: "search.databases", Reason: fmt.Sprintf("duplicate connector for %q", id)}
		}
		r.connectors[id] = c
	}
	return r, nil
}

// NewDefaultRegistry builds one connector per enabled database, sharing a
// single E-utilities client.
func NewDefaultRegistry(cfg types.SearchConfig, client *EUtils, ix *vocab.Index) (*Registry, error) {
	var cs []Connector
	for _, db := range cfg.EnabledDatabases() {
		c, err := NewConnector(db, client, ix)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return NewRegistry(cs...)
}

// Get returns the connector registered for db.
func (r *Registry) Get(db types.DatabaseID) (Connector, bool) {
	c, ok := r.connectors[db]
	return c, ok
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int { return len(r.connectors) }

// IDs returns the registered backends in the fixed database order.
func (r *Registry) IDs() []types.DatabaseID {
	var ids []types.DatabaseID
	for _, db := range types.AllDatabases {
		if _, ok := r.connectors[db]; ok {
			ids = append(ids, db)
		}
	}
	return ids
}

// Outcome is what the federation collected for one set of strategies.
// Results are grouped by strategy, in strategy order, and keep each
// backend's own order.
type Outcome struct {
	Results  []types.RawResult
	Failures []types.PartialFailure
}

// Federation dispatches strategies to registered connectors.
type Federation struct {
	Registry *Registry
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

// backendResult is one connector's answer for the strategy at idx.
type backendResult struct {
	idx     int
	results []types.RawResult
	err     error
}

// Execute runs every strategy concurrently and waits until all connectors
// have answered or ctx is done. Answers delivered by the time ctx is done are
// kept; connectors still running are reported as cancelled and whatever they
// return later is dropped.
func (f *Federation) Execute(ctx context.Context, strategies []types.SearchStrategy) Outcome {
	n := len(strategies)
	results := make([][]types.RawResult, n)
	failures := make([]*types.PartialFailure, n)
	done := make([]bool, n)

	ch := make(chan backendResult, n)
	g, gctx := errgroup.WithContext(ctx)
	launched := 0

	for i, s := range strategies {
		c, ok := f.Registry.Get(s.DatabaseID)
		if !ok {
			failures[i] = &types.PartialFailure{DatabaseID: s.DatabaseID, Reason: "no connector registered"}
			done[i] = true
			continue
		}
		launched++
		g.Go(func() error {
			start := time.Now()
			res, err := c.Execute(gctx, s)
			f.Metrics.ObserveBackend(s.DatabaseID, len(res), time.Since(start))
			ch <- backendResult{idx: i, results: res, err: err}
			// Connector errors are partial failures, never group errors.
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(ch)
	}()

	collect(ctx, ch, launched, func(br backendResult) {
		done[br.idx] = true
		if br.err != nil {
			failures[br.idx] = &types.PartialFailure{DatabaseID: strategies[br.idx].DatabaseID, Reason: br.err.Error()}
			return
		}
		results[br.idx] = br.results
	})

	var out Outcome
	for i, s := range strategies {
		if !done[i] {
			failures[i] = &types.PartialFailure{DatabaseID: s.DatabaseID, Reason: fmt.Sprintf("cancelled: %v", ctx.Err())}
		}
		if pf := failures[i]; pf != nil {
			f.Metrics.PartialFailure(pf.DatabaseID)
			f.Log.Warn().Str("database", string(pf.DatabaseID)).Str("reason", pf.Reason).Msg("backend failed")
			out.Failures = append(out.Failures, *pf)
			continue
		}
		out.Results = append(out.Results, results[i]...)
	}
	return out
}

// collect passes up to n answers from ch to accept. It stops when ch is
// closed or ctx is done; answers already waiting in ch when ctx is done are
// still accepted.
func collect(ctx context.Context, ch <-chan backendResult, n int, accept func(backendResult)) {
	for received := 0; received < n; received++ {
		select {
		case br, ok := <-ch:
			if !ok {
				return
			}
			accept(br)
		case <-ctx.Done():
			for ; received < n; received++ {
				select {
				case br, ok := <-ch:
					if !ok {
						return
					}
					accept(br)
				default:
					return
				}
			}
			return
		}
	}
}
