/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v84/github"
)

func TestCommitAuthors(t *testing.T) {
	tests := []struct {
		name    string
		commits []*github.RepositoryCommit
		want    []CommitAuthor
	}{{
		name: "linked user with display name",
		commits: []*github.RepositoryCommit{{
			SHA: github.Ptr("aaa111"),
			Author: &github.User{
				ID:    github.Ptr(int64(42)),
				Name:  github.Ptr("Grace Hopper"),
				Login: github.Ptr("ghopper"),
				Email: github.Ptr("grace@example.com"),
			},
		}},
		want: []CommitAuthor{{SHA: "aaa111", Author: &Author{
			GitHubID: github.Ptr(int64(42)),
			Username: "Grace Hopper",
			Email:    "grace@example.com",
		}}},
	}, {
		name: "linked user with login only",
		commits: []*github.RepositoryCommit{{
			SHA: github.Ptr("bbb222"),
			Author: &github.User{
				ID:    github.Ptr(int64(7)),
				Login: github.Ptr("ghopper"),
			},
		}},
		want: []CommitAuthor{{SHA: "bbb222", Author: &Author{
			GitHubID: github.Ptr(int64(7)),
			Username: "ghopper",
		}}},
	}, {
		name: "linked user email falls back to git author email",
		commits: []*github.RepositoryCommit{{
			SHA: github.Ptr("ccc333"),
			Author: &github.User{
				ID:    github.Ptr(int64(7)),
				Login: github.Ptr("ghopper"),
			},
			Commit: &github.Commit{Author: &github.CommitAuthor{
				Name:  github.Ptr("Grace"),
				Email: github.Ptr("grace@example.com"),
			}},
		}},
		want: []CommitAuthor{{SHA: "ccc333", Author: &Author{
			GitHubID: github.Ptr(int64(7)),
			Username: "ghopper",
			Email:    "grace@example.com",
		}}},
	}, {
		name: "linked user with neither name nor login is unattributed",
		commits: []*github.RepositoryCommit{{
			SHA:    github.Ptr("ddd444"),
			Author: &github.User{ID: github.Ptr(int64(9))},
			Commit: &github.Commit{Author: &github.CommitAuthor{
				Name:  github.Ptr("Grace"),
				Email: github.Ptr("grace@example.com"),
			}},
		}},
		want: []CommitAuthor{{SHA: "ddd444"}},
	}, {
		name: "raw git author only",
		commits: []*github.RepositoryCommit{{
			SHA: github.Ptr("eee555"),
			Commit: &github.Commit{Author: &github.CommitAuthor{
				Name:  github.Ptr("Grace"),
				Email: github.Ptr("grace@example.com"),
			}},
		}},
		want: []CommitAuthor{{SHA: "eee555", Author: &Author{
			Username: "Grace",
			Email:    "grace@example.com",
		}}},
	}, {
		name: "no author information at all",
		commits: []*github.RepositoryCommit{{
			SHA: github.Ptr("fff666"),
		}},
		want: []CommitAuthor{{SHA: "fff666"}},
	}, {
		name: "order is preserved across mixed commits",
		commits: []*github.RepositoryCommit{{
			SHA:    github.Ptr("sha1"),
			Author: &github.User{ID: github.Ptr(int64(1)), Login: github.Ptr("one")},
		}, {
			SHA: github.Ptr("sha2"),
			Commit: &github.Commit{Author: &github.CommitAuthor{
				Name:  github.Ptr("Two"),
				Email: github.Ptr("two@example.com"),
			}},
		}, {
			SHA: github.Ptr("sha3"),
		}},
		want: []CommitAuthor{
			{SHA: "sha1", Author: &Author{GitHubID: github.Ptr(int64(1)), Username: "one"}},
			{SHA: "sha2", Author: &Author{Username: "Two", Email: "two@example.com"}},
			{SHA: "sha3"},
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CommitAuthors(context.Background(), tt.commits)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CommitAuthors() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAuthorKey(t *testing.T) {
	tests := []struct {
		name   string
		author *Author
		want   string
	}{
		{"nil author", nil, ""},
		{"github id wins over email", &Author{GitHubID: github.Ptr(int64(42)), Email: "a@b.c"}, "id:42"},
		{"email lowercased", &Author{Email: "Grace@Example.COM"}, "email:grace@example.com"},
		{"no identity", &Author{Username: "someone"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.author.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
