// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/genoscope/pkg/types"
)

// ErrAccessionNotFound is returned when no backend knows an accession.
var ErrAccessionNotFound = errors.New("accession not found")

// LookupAccession searches every registered backend for an exact accession
// (the [ACCN] field) in database order and returns the first hit. Backend
// errors are collected and returned only if no backend found the record.
func LookupAccession(ctx context.Context, r *Registry, accession string) (types.RawResult, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return types.RawResult{}, fmt.Errorf("empty accession")
	}

	var errs []error
	for _, db := range r.IDs() {
		c, _ := r.Get(db)
		res, err := c.Execute(ctx, types.SearchStrategy{
			DatabaseID:  db,
			QueryString: fmt.Sprintf(`"%s"[ACCN]`, strings.ReplaceAll(accession, `"`, "")),
			MaxResults:  1,
		})
		if err != nil {
			if ctx.Err() != nil {
				return types.RawResult{}, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", db, err))
			continue
		}
		if len(res) > 0 {
			return res[0], nil
		}
	}
	if len(errs) > 0 {
		return types.RawResult{}, fmt.Errorf("%w: %s: %w", ErrAccessionNotFound, accession, errors.Join(errs...))
	}
	return types.RawResult{}, fmt.Errorf("%w: %s", ErrAccessionNotFound, accession)
}
