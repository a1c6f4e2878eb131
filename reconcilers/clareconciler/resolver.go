/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"fmt"

	"chainguard.dev/clagate/store"
	"github.com/chainguard-dev/clog"
)

// Resolver maps commit author tuples to known contributor records. It is a
// pure lookup: it never creates or mutates records (the engine does that).
type Resolver struct {
	contributors store.ContributorStore
}

// NewResolver returns a Resolver backed by the given contributor store.
func NewResolver(contributors store.ContributorStore) *Resolver {
	return &Resolver{contributors: contributors}
}

// Resolve returns the contributor records matching the author tuple, by
// GitHub id first and by email as a fallback. An empty result is a normal
// outcome, not an error. When more than one record matches, callers use only
// the first (the store orders by record id); this indicates a data-quality
// issue upstream and is logged.
func (r *Resolver) Resolve(ctx context.Context, a *Author) ([]*store.Contributor, error) {
	if a == nil {
		return nil, nil
	}
	log := clog.FromContext(ctx)

	if a.GitHubID != nil {
		matches, err := r.contributors.ContributorsByGitHubID(ctx, *a.GitHubID)
		if err != nil {
			return nil, fmt.Errorf("looking up contributor by GitHub id %d: %w", *a.GitHubID, err)
		}
		if len(matches) > 0 {
			if len(matches) > 1 {
				log.Warnf("found %d contributors for GitHub id %d - only the first will be evaluated", len(matches), *a.GitHubID)
			}
			return matches, nil
		}
		log.Debugf("no contributor for GitHub id %d, falling back to email lookup", *a.GitHubID)
	}

	if a.Email == "" {
		return nil, nil
	}
	matches, err := r.contributors.ContributorsByEmail(ctx, a.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up contributor by email %s: %w", a.Email, err)
	}
	if len(matches) > 1 {
		log.Warnf("found %d contributors for email %s - only the first will be evaluated", len(matches), a.Email)
	}
	return matches, nil
}
