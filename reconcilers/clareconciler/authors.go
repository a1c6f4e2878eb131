/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// CommitAuthors extracts the author tuple for every commit in the PR's commit
// list, preserving commit order.
//
// GitHub exposes commit authorship in two shapes: a structured account-linked
// user on the commit (with numeric id), and the raw git author metadata
// (name/email only). Malformed commits are common in practice, so the
// priority-ordered fallback chain below must not be simplified:
//
//  1. linked user with a display name -> (id, name, email)
//  2. linked user with a login only -> (id, login, email)
//  3. linked user with neither -> attribution failure, nil author
//  4. no linked user, raw git author present -> (nil, name, email)
//  5. nothing -> nil author
func CommitAuthors(ctx context.Context, commits []*github.RepositoryCommit) []CommitAuthor {
	log := clog.FromContext(ctx)
	out := make([]CommitAuthor, 0, len(commits))
	for _, c := range commits {
		sha := c.GetSHA()
		switch {
		case c.Author != nil:
			id := c.GetAuthor().GetID()
			email := c.GetAuthor().GetEmail()
			if email == "" {
				// The account object rarely carries an email; the raw git
				// author usually does.
				email = c.GetCommit().GetAuthor().GetEmail()
			}
			switch {
			case c.GetAuthor().GetName() != "":
				out = append(out, CommitAuthor{SHA: sha, Author: &Author{
					GitHubID: &id,
					Username: c.GetAuthor().GetName(),
					Email:    email,
				}})
			case c.GetAuthor().GetLogin() != "":
				out = append(out, CommitAuthor{SHA: sha, Author: &Author{
					GitHubID: &id,
					Username: c.GetAuthor().GetLogin(),
					Email:    email,
				}})
			default:
				log.Warnf("commit %s has a linked user (id %d) with neither name nor login", sha, id)
				out = append(out, CommitAuthor{SHA: sha})
			}
		case c.GetCommit().GetAuthor() != nil:
			out = append(out, CommitAuthor{SHA: sha, Author: &Author{
				Username: c.GetCommit().GetAuthor().GetName(),
				Email:    c.GetCommit().GetAuthor().GetEmail(),
			}})
		default:
			log.Warnf("could not find any commit author for %s", sha)
			out = append(out, CommitAuthor{SHA: sha})
		}
	}
	return out
}
