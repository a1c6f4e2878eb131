/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clareconciler determines, for each pull request, whether every
// contributing author is covered by a signed contribution agreement.
//
// The engine walks the PR's commits, resolves each commit author to a known
// contributor record (GitHub id first, email fallback), classifies that
// contributor's coverage against the governing project's agreement records,
// and partitions the commits into signed and missing buckets. Classification
// is computed once per logical identity per scan and applied to every commit
// by that author, so the outcome is a pure function of the commit list and
// the store snapshot.
//
// The rendered result (check run, comment, commit status) is applied by a
// StatusApplier, typically statusmanager.Manager. Repeated webhook deliveries
// for the same PR may race; idempotent rendering, not locking, keeps the host
// state consistent.
package clareconciler
