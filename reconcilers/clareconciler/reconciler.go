/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/clagate/metrics"
	"chainguard.dev/clagate/store"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// Engine runs one full reconciliation pass per inbound event: fetch the PR's
// commits, resolve and classify each unique author, and hand the partitioned
// outcome to the status applier. Each pass is synchronous and sequential;
// concurrent deliveries for the same PR are tolerated through idempotent
// rendering, not locking.
type Engine struct {
	stores store.Store
	hosts  HostProvider
	status StatusApplier

	resolver   *Resolver
	classifier *Classifier
}

// NewEngine constructs an Engine. All collaborators are required.
func NewEngine(stores store.Store, hosts HostProvider, status StatusApplier) *Engine {
	return &Engine{
		stores:     stores,
		hosts:      hosts,
		status:     status,
		resolver:   NewResolver(stores),
		classifier: NewClassifier(stores),
	}
}

// HandlePullRequestEvent routes a pull request webhook action. Opened,
// reopened, and synchronize all trigger the same reconciliation; closed is a
// no-op; anything else is ignored.
func (e *Engine) HandlePullRequestEvent(ctx context.Context, installationID, repoID int64, prNumber int, action string) error {
	log := clog.FromContext(ctx)
	switch action {
	case "opened", "reopened", "synchronize":
		return e.Reconcile(ctx, installationID, repoID, prNumber)
	case "closed":
		log.Debugf("ignoring closed PR %d", prNumber)
		return nil
	default:
		log.Debugf("ignoring unsupported pull request action %q", action)
		return nil
	}
}

// Reconcile runs one reconciliation pass for the given pull request.
//
// Configuration drift (unknown repository mapping, unknown organization,
// installation id mismatch, malformed PR number) aborts the pass silently:
// logged, nil returned, no host action taken. Store and host read failures
// are returned to the caller.
func (e *Engine) Reconcile(ctx context.Context, installationID, repoID int64, prNumber int) error {
	log := clog.FromContext(ctx)

	if prNumber <= 0 {
		log.Errorf("invalid PR number %d for repository %d - aborting", prNumber, repoID)
		metrics.Reconciliations.WithLabelValues("aborted").Inc()
		return nil
	}

	repo, err := e.stores.RepositoryByExternalID(ctx, repoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warnf("PR %d: repository %d is not configured - is this org/repo set up in the project console? Unable to update status.", prNumber, repoID)
			metrics.Reconciliations.WithLabelValues("aborted").Inc()
			return nil
		}
		return fmt.Errorf("loading repository %d: %w", repoID, err)
	}

	org, err := e.stores.Organization(ctx, repo.OrganizationName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warnf("PR %d: could not find organization %q for repository %d - aborting", prNumber, repo.OrganizationName, repoID)
			metrics.Reconciliations.WithLabelValues("aborted").Inc()
			return nil
		}
		return fmt.Errorf("loading organization %q: %w", repo.OrganizationName, err)
	}
	if org.InstallationID != installationID {
		log.Warnf("PR %d: installation id %d of organization %q does not match installation id %d from the event - aborting",
			prNumber, org.InstallationID, org.Name, installationID)
		metrics.Reconciliations.WithLabelValues("aborted").Inc()
		return nil
	}

	project, err := e.stores.Project(ctx, repo.ProjectID)
	if err != nil {
		return fmt.Errorf("loading project %q: %w", repo.ProjectID, err)
	}

	host, err := e.hosts.HostFor(ctx, installationID)
	if err != nil {
		return fmt.Errorf("getting host client for installation %d: %w", installationID, err)
	}

	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return err
	}
	commits, err := host.ListCommits(ctx, owner, name, prNumber)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		log.Warnf("PR %d has no commits - nothing to reconcile", prNumber)
		return nil
	}

	authors := CommitAuthors(ctx, commits)
	outcome, err := e.reconcileAuthors(ctx, project, authors)
	if err != nil {
		return err
	}
	log.Infof("PR %d: %d signed, %d missing", prNumber, len(outcome.Signed), len(outcome.Missing))
	if len(outcome.Missing) > 0 {
		metrics.Reconciliations.WithLabelValues("failure").Inc()
	} else {
		metrics.Reconciliations.WithLabelValues("success").Inc()
	}

	pr := PullRequestRef{
		Owner:          owner,
		Repo:           name,
		Number:         prNumber,
		InstallationID: installationID,
		RepositoryID:   repoID,
		HeadSHA:        commits[len(commits)-1].GetSHA(),
	}
	return e.status.Apply(ctx, host, pr, outcome)
}

// reconcileAuthors partitions commits into signed and missing. Each logical
// identity is resolved and classified exactly once per scan; the verdict is
// then applied to every commit by that author, in commit order.
func (e *Engine) reconcileAuthors(ctx context.Context, project *store.Project, authors []CommitAuthor) (*Outcome, error) {
	type classified struct {
		verdict Verdict
	}
	seen := map[string]classified{}
	outcome := &Outcome{}

	for _, ca := range authors {
		key := ca.Author.Key()
		if key == "" {
			// Unattributed commit: contributes to missing with a nil detail.
			outcome.Missing = append(outcome.Missing, MissingCommit{SHA: ca.SHA, Detail: MissingDetail{Author: ca.Author}})
			continue
		}
		cls, ok := seen[key]
		if !ok {
			contributor, err := e.resolveOrCreate(ctx, ca.Author)
			if err != nil {
				return nil, err
			}
			verdict, err := e.classifier.Classify(ctx, contributor, project, ca.Author)
			if err != nil {
				return nil, err
			}
			cls = classified{verdict: verdict}
			seen[key] = cls
		}
		if cls.verdict.Signed {
			outcome.Signed = append(outcome.Signed, SignedCommit{SHA: ca.SHA, Username: ca.Author.Username})
		} else {
			outcome.Missing = append(outcome.Missing, MissingCommit{SHA: ca.SHA, Detail: MissingDetail{
				Author:            ca.Author,
				NeedsConfirmation: cls.verdict.NeedsConfirmation,
			}})
		}
	}
	return outcome, nil
}

// resolveOrCreate resolves the author to a contributor record, attaching any
// newly observed identity details, or creates a fresh record when no match
// exists. Called at most once per logical identity per scan, so repeated
// identical input never creates duplicate records.
func (e *Engine) resolveOrCreate(ctx context.Context, a *Author) (*store.Contributor, error) {
	log := clog.FromContext(ctx)

	matches, err := e.resolver.Resolve(ctx, a)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		c := matches[0]
		if attachObserved(c, a) {
			if err := e.stores.SaveContributor(ctx, c); err != nil {
				return nil, fmt.Errorf("updating contributor %s: %w", c.ID, err)
			}
		}
		return c, nil
	}

	c := &store.Contributor{
		ID:       uuid.NewString(),
		Name:     a.Username,
		GitHubID: a.GitHubID,
	}
	if a.Email != "" {
		c.Emails = []string{a.Email}
	}
	if err := e.stores.SaveContributor(ctx, c); err != nil {
		return nil, fmt.Errorf("creating contributor for %s: %w", a.Username, err)
	}
	metrics.ContributorsCreated.Inc()
	log.Infof("created contributor %s for author %s", c.ID, a.Username)
	return c, nil
}

// attachObserved merges newly observed identity details into an existing
// record, reporting whether anything changed.
func attachObserved(c *store.Contributor, a *Author) bool {
	changed := false
	if a.Email != "" && !c.HasEmail(a.Email) {
		c.Emails = append(c.Emails, a.Email)
		changed = true
	}
	if a.GitHubID != nil && c.GitHubID == nil {
		c.GitHubID = a.GitHubID
		changed = true
	}
	if c.Name == "" && a.Username != "" {
		c.Name = a.Username
		changed = true
	}
	return changed
}

func splitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("malformed repository full name %q", fullName)
	}
	return owner, repo, nil
}
