/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"fmt"
	"strings"
)

// Author is the raw commit author tuple extracted from host commit data.
// GitHubID is nil for raw git authors that the host could not map to an
// account. Username holds the display name when available, the login
// otherwise.
type Author struct {
	GitHubID *int64
	Username string
	Email    string
}

// Key returns the logical identity key used to de-duplicate authors across
// commits: the GitHub id when present, the lowercased email otherwise.
// Authors with neither have no stable identity and return "".
func (a *Author) Key() string {
	if a == nil {
		return ""
	}
	if a.GitHubID != nil {
		return fmt.Sprintf("id:%d", *a.GitHubID)
	}
	if a.Email != "" {
		return "email:" + strings.ToLower(a.Email)
	}
	return ""
}

// CommitAuthor pairs a commit SHA with its extracted author tuple. A nil
// Author marks an unattributed commit (no usable author information).
type CommitAuthor struct {
	SHA    string
	Author *Author
}

// SignedCommit is one commit whose author holds agreement coverage.
type SignedCommit struct {
	SHA      string
	Username string
}

// MissingDetail describes why a commit landed in the missing bucket. A nil
// Author means the commit could not be attributed at all.
// NeedsConfirmation is set when the author matched a corporate agreement's
// approved-identity list without being fully onboarded.
type MissingDetail struct {
	Author            *Author
	NeedsConfirmation bool
}

// MissingCommit is one commit whose author lacks agreement coverage.
type MissingCommit struct {
	SHA    string
	Detail MissingDetail
}

// Outcome is the per-PR reconciliation result: commits partitioned into
// signed and missing, each bucket ordered by the commits' appearance in the
// PR's commit list. It is ephemeral and never persisted.
type Outcome struct {
	Signed  []SignedCommit
	Missing []MissingCommit
}

// PullRequestRef identifies the pull request being reconciled along with the
// context the renderer needs for host writes and sign URLs.
type PullRequestRef struct {
	Owner          string
	Repo           string
	Number         int
	InstallationID int64
	RepositoryID   int64

	// HeadSHA is the SHA of the last commit in the PR's commit list. Check
	// runs and commit statuses attach to this commit only.
	HeadSHA string
}

// StatusApplier renders an Outcome back to the host. Implemented by
// statusmanager.Manager and by test doubles.
type StatusApplier interface {
	Apply(ctx context.Context, host Host, pr PullRequestRef, outcome *Outcome) error
}
