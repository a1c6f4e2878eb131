/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package statusmanager renders a reconciliation outcome back to GitHub as a
// check run, a PR comment, and/or a commit status.
//
// Rendering is deterministic: the same outcome always produces byte-identical
// payloads, and comments are edited in place (found via a fixed content
// marker) rather than recreated. That idempotence is the only defense against
// racing webhook deliveries, so it must be preserved.
package statusmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/clagate/metrics"
	"chainguard.dev/clagate/reconcilers/clareconciler"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// NotificationMode selects which host-facing representations are written.
// Check runs are always written when authors are missing, regardless of mode.
type NotificationMode string

const (
	ModeStatus        NotificationMode = "status"
	ModeComment       NotificationMode = "comment"
	ModeStatusComment NotificationMode = "status+comment"
	ModeCommentStatus NotificationMode = "comment+status"
)

// ParseNotificationMode validates a configured mode string.
func ParseNotificationMode(s string) (NotificationMode, error) {
	switch m := NotificationMode(s); m {
	case ModeStatus, ModeComment, ModeStatusComment, ModeCommentStatus:
		return m, nil
	default:
		return "", fmt.Errorf("unrecognized notification mode %q", s)
	}
}

// IncludesComment reports whether the mode writes PR comments.
func (m NotificationMode) IncludesComment() bool {
	return m == ModeComment || m == ModeStatusComment || m == ModeCommentStatus
}

// IncludesStatus reports whether the mode writes commit statuses.
func (m NotificationMode) IncludesStatus() bool {
	return m == ModeStatus || m == ModeStatusComment || m == ModeCommentStatus
}

const (
	checkRunName = "CLA check"

	// CommentMarker identifies the bot's own comment on a PR so it can be
	// edited in place instead of duplicated.
	CommentMarker = "[![CLA Check]("

	// commitLinkHelpURL explains how to link commits to a GitHub account;
	// used when a commit author has no account id at all.
	commitLinkHelpURL = "https://help.github.com/en/github/committing-changes-to-your-project/why-are-my-commits-linked-to-the-wrong-user"

	defaultStatusContext = "clagate/cla"
)

// Config carries the renderer's external configuration. It is passed in
// explicitly at construction; the renderer performs no ambient lookups.
type Config struct {
	// Notification selects status, comment, or both.
	Notification NotificationMode

	// StatusContext labels the commit status. Defaults to "clagate/cla".
	StatusContext string

	// APIBase is the base URL of the signing service, used to build sign
	// URLs and badge asset URLs.
	APIBase string

	// LandingPage is the success-status target URL.
	LandingPage string
}

// Manager renders outcomes and applies them to the host.
type Manager struct {
	cfg Config
}

// New validates the configuration and returns a Manager.
func New(cfg Config) (*Manager, error) {
	if _, err := ParseNotificationMode(string(cfg.Notification)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		return nil, errors.New("APIBase is required")
	}
	cfg.APIBase = strings.TrimSuffix(cfg.APIBase, "/")
	if cfg.StatusContext == "" {
		cfg.StatusContext = defaultStatusContext
	}
	if cfg.LandingPage == "" {
		cfg.LandingPage = cfg.APIBase
	}
	return &Manager{cfg: cfg}, nil
}

var _ clareconciler.StatusApplier = (*Manager)(nil)

// Apply writes the outcome to the host. Each write failure is logged and
// counted but does not prevent the remaining writes: a check-run failure must
// not block the commit status.
func (m *Manager) Apply(ctx context.Context, host clareconciler.Host, pr clareconciler.PullRequestRef, outcome *clareconciler.Outcome) error {
	log := clog.FromContext(ctx)

	if len(outcome.Missing) > 0 {
		opts := m.CheckRunPayload(pr, outcome)
		if err := host.CreateCheckRun(ctx, pr.Owner, pr.Repo, opts); err != nil {
			log.Errorf("creating %s check run with conclusion %s: %v", checkRunName, opts.GetConclusion(), err)
			metrics.HostWriteFailures.WithLabelValues("check_run").Inc()
		}
	}

	if m.cfg.Notification.IncludesComment() {
		m.applyComment(ctx, host, pr, outcome)
	}
	if m.cfg.Notification.IncludesStatus() {
		m.applyStatus(ctx, host, pr, outcome)
	}
	return nil
}

// applyComment creates or edits the bot comment. When nothing is missing the
// comment is only refreshed if a previous run reported a failure; a clean PR
// is otherwise left uncommented to avoid noise.
func (m *Manager) applyComment(ctx context.Context, host clareconciler.Host, pr clareconciler.PullRequestRef, outcome *clareconciler.Outcome) {
	log := clog.FromContext(ctx)

	comments, err := host.ListIssueComments(ctx, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		log.Errorf("listing comments: %v", err)
		metrics.HostWriteFailures.WithLabelValues("comment").Inc()
		return
	}

	if len(outcome.Missing) == 0 && !hasPreviouslyFailed(comments) {
		log.Debugf("checks pass for PR %d and no prior failure comment - leaving the PR uncommented", pr.Number)
		return
	}

	body := m.CommentBody(pr, outcome)
	if existing := findBotComment(comments); existing != nil {
		log.Debugf("updating existing comment %d on PR %d", existing.GetID(), pr.Number)
		err = host.EditIssueComment(ctx, pr.Owner, pr.Repo, existing.GetID(), body)
	} else {
		log.Debugf("creating comment on PR %d", pr.Number)
		err = host.CreateIssueComment(ctx, pr.Owner, pr.Repo, pr.Number, body)
	}
	if err != nil {
		log.Errorf("writing comment: %v", err)
		metrics.HostWriteFailures.WithLabelValues("comment").Inc()
	}
}

// applyStatus writes exactly one overall commit status on the PR's last
// commit. A PR with neither signed nor missing authors is an invariant
// violation; it is reported as a failure with a loud warning rather than a
// crash.
func (m *Manager) applyStatus(ctx context.Context, host clareconciler.Host, pr clareconciler.PullRequestRef, outcome *clareconciler.Outcome) {
	log := clog.FromContext(ctx)

	var state, description, target string
	switch {
	case len(outcome.Missing) > 0:
		state, description, target = "failure", "CLA not signed", m.SignURL(pr)
	case len(outcome.Signed) > 0:
		state, description, target = "success", "CLA signed", m.cfg.LandingPage
	default:
		log.Warnf("PR %d has neither signed nor missing authors - should have at least one committer in one of these lists", pr.Number)
		state, description, target = "failure", "CLA not signed", m.SignURL(pr)
	}

	status := &github.RepoStatus{
		State:       github.Ptr(state),
		TargetURL:   github.Ptr(target),
		Description: github.Ptr(description),
		Context:     github.Ptr(m.cfg.StatusContext),
	}
	if err := host.CreateCommitStatus(ctx, pr.Owner, pr.Repo, pr.HeadSHA, status); err != nil {
		log.Errorf("creating %s status: %v", state, err)
		metrics.HostWriteFailures.WithLabelValues("status").Inc()
	}
}

// CheckRunPayload builds the check-run payload for a PR with missing
// authors, scoped to the last commit only: earlier commits are commented and
// statused but not annotated with check runs.
func (m *Manager) CheckRunPayload(pr clareconciler.PullRequestRef, outcome *clareconciler.Outcome) github.CreateCheckRunOptions {
	var text strings.Builder
	anyLinked := false
	for _, mc := range outcome.Missing {
		if mc.SHA != pr.HeadSHA {
			continue
		}
		d := mc.Detail
		switch {
		case d.Author == nil:
			fmt.Fprintf(&text, "Commit %s is not linked to a GitHub user.\n", shortSHA(mc.SHA))
		case d.Author.GitHubID == nil:
			fmt.Fprintf(&text, "%s is not linked to this commit.\n", d.Author.Email)
		case d.NeedsConfirmation:
			anyLinked = true
			fmt.Fprintf(&text, "%s must confirm corporate affiliation.\n", d.Author.Email)
		default:
			anyLinked = true
			fmt.Fprintf(&text, "%s is not authorized under a signed CLA.\n", d.Author.Email)
		}
	}

	detailsURL := m.SignURL(pr)
	if !anyLinked {
		detailsURL = commitLinkHelpURL
	}
	return github.CreateCheckRunOptions{
		Name:       checkRunName,
		HeadSHA:    pr.HeadSHA,
		Status:     github.Ptr("completed"),
		Conclusion: github.Ptr("action_required"),
		DetailsURL: github.Ptr(detailsURL),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr("Signed CLA not found"),
			Summary: github.Ptr("One or more committers are not authorized under a signed CLA."),
			Text:    github.Ptr(text.String()),
		},
	}
}

// SignURL is the signing-service entry point for this pull request.
func (m *Manager) SignURL(pr clareconciler.PullRequestRef) string {
	return fmt.Sprintf("%s/v2/repository-provider/github/sign/%d/%d/%d",
		m.cfg.APIBase, pr.InstallationID, pr.RepositoryID, pr.Number)
}

func (m *Manager) badgeURL(asset string) string {
	return m.cfg.APIBase + "/assets/" + asset
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
