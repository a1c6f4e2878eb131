/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package statusmanager

import (
	"fmt"
	"strings"

	"chainguard.dev/clagate/reconcilers/clareconciler"
	"github.com/google/go-github/v84/github"
)

// CommentBody assembles the single summary comment for the PR. Missing
// authors are grouped into three sections whose headings and phrasing are
// load-bearing: hasPreviouslyFailed matches on them to decide whether a now
// clean PR's comment should be refreshed, so they must stay in sync.
func (m *Manager) CommentBody(pr clareconciler.PullRequestRef, outcome *clareconciler.Outcome) string {
	var b strings.Builder

	if len(outcome.Missing) == 0 {
		fmt.Fprintf(&b, "[![CLA Check](%s)](%s)\n\n", m.badgeURL("cla-signed.svg"), m.cfg.LandingPage)
		b.WriteString("All committers are authorized under a signed CLA.\n\n")
		for _, sc := range uniqueSigned(outcome.Signed) {
			fmt.Fprintf(&b, "- :white_check_mark: %s\n", sc)
		}
		return b.String()
	}

	signURL := m.SignURL(pr)
	fmt.Fprintf(&b, "[![CLA Check](%s)](%s)\n\n", m.badgeURL("cla-not-signed.svg"), signURL)

	notSigned, needsConfirm, notLinked := groupMissing(outcome.Missing)

	if len(notSigned) > 0 {
		b.WriteString("## CLA Not Signed\n\n")
		b.WriteString("The following committers are not authorized under a signed CLA:\n\n")
		for _, email := range notSigned {
			fmt.Fprintf(&b, "- [ ] [%s](%s)\n", email, signURL)
		}
		b.WriteString("\n")
	}
	if len(needsConfirm) > 0 {
		b.WriteString("## CLA Confirmation Needed\n\n")
		b.WriteString("The following committers must confirm their affiliation with a company that has signed a CLA:\n\n")
		for _, email := range needsConfirm {
			fmt.Fprintf(&b, "- [ ] %s must confirm corporate affiliation.\n", email)
		}
		b.WriteString("\n")
	}
	if len(notLinked) > 0 {
		b.WriteString("## CLA Missing ID\n\n")
		for _, line := range notLinked {
			b.WriteString(line)
		}
		fmt.Fprintf(&b, "\nConsult [GitHub help](%s) to link commits to an account.\n", commitLinkHelpURL)
	}
	return b.String()
}

// groupMissing partitions missing entries by kind, de-duplicated and in
// first-appearance order so the output is stable across renders.
func groupMissing(missing []clareconciler.MissingCommit) (notSigned, needsConfirm, notLinked []string) {
	seen := map[string]bool{}
	add := func(bucket *[]string, key, value string) {
		if seen[key] {
			return
		}
		seen[key] = true
		*bucket = append(*bucket, value)
	}
	for _, mc := range missing {
		d := mc.Detail
		switch {
		case d.Author == nil:
			add(&notLinked, "sha:"+mc.SHA,
				fmt.Sprintf("- Commit %s is missing the User information entirely.\n", shortSHA(mc.SHA)))
		case d.Author.GitHubID == nil:
			add(&notLinked, "linked:"+d.Author.Key(),
				fmt.Sprintf("- %s is missing the User ID linking their commits to an account.\n", d.Author.Email))
		case d.NeedsConfirmation:
			add(&needsConfirm, "confirm:"+d.Author.Key(), d.Author.Email)
		default:
			add(&notSigned, "unsigned:"+d.Author.Key(), d.Author.Email)
		}
	}
	return notSigned, needsConfirm, notLinked
}

func uniqueSigned(signed []clareconciler.SignedCommit) []string {
	seen := map[string]bool{}
	var out []string
	for _, sc := range signed {
		if sc.Username == "" || seen[sc.Username] {
			continue
		}
		seen[sc.Username] = true
		out = append(out, sc.Username)
	}
	return out
}

// findBotComment returns the bot's existing comment on the PR, identified by
// the fixed content marker, or nil.
func findBotComment(comments []*github.IssueComment) *github.IssueComment {
	for _, c := range comments {
		if strings.Contains(c.GetBody(), CommentMarker) {
			return c
		}
	}
	return nil
}

// hasPreviouslyFailed reports whether any prior bot comment recorded a
// failing check, detected by the fixed phrase pairs the failure sections
// emit.
func hasPreviouslyFailed(comments []*github.IssueComment) bool {
	for _, c := range comments {
		body := c.GetBody()
		if strings.Contains(body, "CLA Not Signed") && strings.Contains(body, "not authorized") {
			return true
		}
		if strings.Contains(body, "CLA Confirmation Needed") && strings.Contains(body, "must confirm their affiliation") {
			return true
		}
		if strings.Contains(body, "CLA Missing ID") && strings.Contains(body, "is missing the User") {
			return true
		}
	}
	return false
}
