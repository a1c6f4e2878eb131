/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"context"
	"testing"

	"github.com/google/go-github/v84/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	installationID int64
	repoID         int64
	prNumber       int
	calls          int
}

func (f *fakeReconciler) HandlePullRequestEvent(_ context.Context, installationID, repoID int64, prNumber int, _ string) error {
	f.installationID, f.repoID, f.prNumber = installationID, repoID, prNumber
	f.calls++
	return nil
}

func (f *fakeReconciler) Reconcile(_ context.Context, installationID, repoID int64, prNumber int) error {
	f.installationID, f.repoID, f.prNumber = installationID, repoID, prNumber
	f.calls++
	return nil
}

func commentEvent(body string, repoID int64, prNumber int, installationID int64) *github.IssueCommentEvent {
	e := &github.IssueCommentEvent{
		Comment: &github.IssueComment{Body: github.Ptr(body)},
	}
	if repoID != 0 {
		e.Repo = &github.Repository{ID: github.Ptr(repoID)}
	}
	if prNumber != 0 {
		e.Issue = &github.Issue{Number: github.Ptr(prNumber)}
	}
	if installationID != 0 {
		e.Installation = &github.Installation{ID: github.Ptr(installationID)}
	}
	return e
}

func TestHandleCommandComment(t *testing.T) {
	tests := []struct {
		name       string
		event      *github.IssueCommentEvent
		wantErr    string
		wantCalled bool
	}{{
		name:       "bare command",
		event:      commentEvent("/easycla", 500, 12, 99),
		wantCalled: true,
	}, {
		name:       "command embedded in a sentence",
		event:      commentEvent("bot seems stuck, /easycla please", 500, 12, 99),
		wantCalled: true,
	}, {
		name:    "empty body",
		event:   commentEvent("", 500, 12, 99),
		wantErr: "missing comment body, ignoring the message",
	}, {
		name:    "unrelated comment",
		event:   commentEvent("LGTM", 500, 12, 99),
		wantErr: "unsupported comment supplied, currently only the /easycla command is supported",
	}, {
		name:    "command as substring does not count",
		event:   commentEvent("/easyclateam ping", 500, 12, 99),
		wantErr: "unsupported comment supplied, currently only the /easycla command is supported",
	}, {
		name:    "missing repository id",
		event:   commentEvent("/easycla", 0, 12, 99),
		wantErr: "missing repository id in pull request comment",
	}, {
		name:    "missing pull request number",
		event:   commentEvent("/easycla", 500, 0, 99),
		wantErr: "missing pull request id in comment",
	}, {
		name:    "missing installation id",
		event:   commentEvent("/easycla", 500, 12, 0),
		wantErr: "missing installation id in pull request comment",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeReconciler{}
			d := New(rec, []byte("secret"))

			err := d.HandleCommandComment(context.Background(), tt.event)
			if tt.wantErr != "" {
				require.Error(t, err)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Error())
				assert.Zero(t, rec.calls, "reconciler must not run on invalid comments")
				return
			}
			require.NoError(t, err)
			require.Equal(t, 1, rec.calls)
			assert.Equal(t, int64(99), rec.installationID)
			assert.Equal(t, int64(500), rec.repoID)
			assert.Equal(t, 12, rec.prNumber)
		})
	}
}
