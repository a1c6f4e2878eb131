/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"fmt"

	"github.com/google/go-github/v84/github"
)

// Host is the abstract source-control host API the engine and renderer
// depend on. The production implementation wraps a go-github client scoped to
// one app installation; tests supply doubles. Any call may fail with a
// host-specific error; write failures are logged and skipped by the caller,
// never retried internally.
type Host interface {
	ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error
	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) error
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error
}

// HostProvider yields a Host authenticated for a given app installation.
type HostProvider interface {
	HostFor(ctx context.Context, installationID int64) (Host, error)
}

// githubHost adapts a *github.Client to the Host interface.
type githubHost struct {
	client *github.Client
}

// NewGitHubHost wraps a go-github client as a Host.
func NewGitHubHost(client *github.Client) Host {
	return &githubHost{client: client}
}

func (h *githubHost) ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error) {
	opts := &github.ListOptions{PerPage: 100}
	var out []*github.RepositoryCommit
	for {
		commits, resp, err := h.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commits for %s/%s#%d: %w", owner, repo, number, err)
		}
		out = append(out, commits...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (h *githubHost) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var out []*github.IssueComment
	for {
		comments, resp, err := h.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s/%s#%d: %w", owner, repo, number, err)
		}
		out = append(out, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (h *githubHost) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := h.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("creating comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

func (h *githubHost) EditIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := h.client.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("editing comment %d on %s/%s: %w", commentID, owner, repo, err)
	}
	return nil
}

func (h *githubHost) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) error {
	_, _, err := h.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		return fmt.Errorf("creating check run on %s/%s@%s: %w", owner, repo, opts.HeadSHA, err)
	}
	return nil
}

func (h *githubHost) CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error {
	_, _, err := h.client.Repositories.CreateStatus(ctx, owner, repo, sha, *status)
	if err != nil {
		return fmt.Errorf("creating %s status on %s/%s@%s: %w", status.GetState(), owner, repo, sha, err)
	}
	return nil
}
