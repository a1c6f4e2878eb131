/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package dispatcher routes inbound GitHub webhook deliveries to the
// reconciliation engine: pull request lifecycle events and the /easycla
// command comment. It is deliberately thin; retry of failed deliveries is
// the webhook transport's job, not ours.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v84/github"
)

// commandToken is the comment command that re-triggers a reconciliation.
const commandToken = "/easycla"

// Reconciler is the engine surface the dispatcher drives.
type Reconciler interface {
	HandlePullRequestEvent(ctx context.Context, installationID, repoID int64, prNumber int, action string) error
	Reconcile(ctx context.Context, installationID, repoID int64, prNumber int) error
}

// Dispatcher validates and routes webhook deliveries.
type Dispatcher struct {
	reconciler Reconciler
	secret     []byte
}

// New returns a Dispatcher verifying payload signatures with the given
// shared secret.
func New(reconciler Reconciler, secret []byte) *Dispatcher {
	return &Dispatcher{reconciler: reconciler, secret: secret}
}

// Routes returns the webhook HTTP surface.
func (d *Dispatcher) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhook", d.handleWebhook)
	return r
}

func (d *Dispatcher) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	payload, err := github.ValidatePayload(r, d.secret)
	if err != nil {
		log.Warnf("rejecting webhook delivery: %v", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		log.Warnf("unparseable webhook payload: %v", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PullRequestEvent:
		// Engine errors are absorbed here: the webhook path never surfaces
		// internal failures to the host, and the transport will redeliver.
		if err := d.reconciler.HandlePullRequestEvent(ctx,
			e.GetInstallation().GetID(),
			e.GetRepo().GetID(),
			e.GetPullRequest().GetNumber(),
			e.GetAction()); err != nil {
			log.Errorf("handling pull request %q event: %v", e.GetAction(), err)
		}
	case *github.IssueCommentEvent:
		if err := d.HandleCommandComment(ctx, e); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				log.Debugf("ignoring comment: %v", verr)
				http.Error(w, verr.Error(), http.StatusBadRequest)
				return
			}
			log.Errorf("handling command comment: %v", err)
		}
	default:
		log.Debugf("ignoring %s event", github.WebHookType(r))
	}
	w.WriteHeader(http.StatusAccepted)
}

// ValidationError describes a command comment that cannot be processed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// HandleCommandComment processes an issue comment if it carries the
// /easycla command as a whitespace-separated token, triggering the same
// reconciliation as a pull request event. Each missing payload field yields
// a distinct descriptive validation error.
func (d *Dispatcher) HandleCommandComment(ctx context.Context, e *github.IssueCommentEvent) error {
	log := clog.FromContext(ctx)

	body := e.GetComment().GetBody()
	if body == "" {
		return &ValidationError{Reason: "missing comment body, ignoring the message"}
	}
	if !slices.Contains(strings.Fields(body), commandToken) {
		return &ValidationError{Reason: fmt.Sprintf("unsupported comment supplied, currently only the %s command is supported", commandToken)}
	}

	repoID := e.GetRepo().GetID()
	if repoID == 0 {
		return &ValidationError{Reason: "missing repository id in pull request comment"}
	}
	// A PR's comments live on its issue; the issue number is the PR number.
	prNumber := e.GetIssue().GetNumber()
	if prNumber == 0 {
		return &ValidationError{Reason: "missing pull request id in comment"}
	}
	installationID := e.GetInstallation().GetID()
	if installationID == 0 {
		return &ValidationError{Reason: "missing installation id in pull request comment"}
	}

	log.Infof("command comment trigger for repository %d PR %d", repoID, prNumber)
	return d.reconciler.Reconcile(ctx, installationID, repoID, prNumber)
}
