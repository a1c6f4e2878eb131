/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package store defines the contributor, agreement, project, repository, and
// organization records consulted during pull request reconciliation, together
// with the lookup contracts the engine depends on. Implementations live in
// subpackages (inmem, postgres).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by single-record lookups when no record exists.
// Multi-record lookups (contributors by id/email, agreements by query) return
// an empty slice and a nil error instead: absence is a normal result there.
var ErrNotFound = errors.New("not found")

// AgreementType distinguishes individual from corporate agreements.
type AgreementType string

const (
	AgreementIndividual AgreementType = "individual"
	AgreementCorporate  AgreementType = "corporate"
)

// ReferenceType identifies what an agreement record points at.
type ReferenceType string

const (
	ReferenceUser    ReferenceType = "user"
	ReferenceCompany ReferenceType = "company"
)

// Contributor is a known individual that may or may not have agreement
// coverage. Records are created on first successful identity resolution and
// mutated to attach newly observed emails or GitHub identifiers; they are
// never deleted by the reconciliation core.
type Contributor struct {
	ID          string
	Name        string
	Emails      []string
	GitHubID    *int64
	GitHubLogin string
	CompanyID   string
}

// HasEmail reports whether the contributor has the given email on file.
func (c *Contributor) HasEmail(email string) bool {
	for _, e := range c.Emails {
		if e == email {
			return true
		}
	}
	return false
}

// Project is the governed unit requiring agreements. Owned externally;
// read-only to the reconciliation core.
type Project struct {
	ID      string
	Name    string
	Version string // "v1" (legacy) or "v2" (current workflow)

	// IndividualDocumentMajorVersion is the major version of the currently
	// published individual agreement document. Minor versions are not
	// compared during classification.
	IndividualDocumentMajorVersion int
}

// ApprovedIdentity is one entry of a corporate agreement's pre-approval
// allowlist: an identity authorized before full onboarding.
type ApprovedIdentity struct {
	Email       string `json:"email,omitempty"`
	GitHubID    *int64 `json:"githubID,omitempty"`
	GitHubLogin string `json:"githubLogin,omitempty"`
}

// Agreement represents one finalized coverage grant.
//
// An employee acknowledgement, the record marking a contributor as fully
// onboarded under a corporate agreement, is a corporate-type agreement with a
// user reference carrying the acknowledged company in EmployeeCompanyID.
type Agreement struct {
	ID            string
	ProjectID     string
	Type          AgreementType
	ReferenceType ReferenceType
	ReferenceID   string
	Signed        bool
	Approved      bool

	// DocumentMajorVersion is the major version of the document signed.
	DocumentMajorVersion int

	// EmployeeCompanyID is set only on employee acknowledgements.
	EmployeeCompanyID string

	ApprovedIdentities []ApprovedIdentity
}

// Repository maps a GitHub repository (by its numeric id) onto the project
// that governs it.
type Repository struct {
	ID               string
	ExternalID       int64
	FullName         string // "org/repo"
	OrganizationName string
	ProjectID        string
	URL              string
}

// Organization is a GitHub organization configured for the app, holding the
// installation id expected on inbound webhook deliveries.
type Organization struct {
	Name           string
	InstallationID int64
}

// AgreementQuery selects agreement records. Zero-valued fields are not
// filtered on, except Signed/Approved which always filter (callers only ever
// scan finalized grants).
type AgreementQuery struct {
	ProjectID     string
	Type          AgreementType
	ReferenceType ReferenceType
	ReferenceID   string
	Signed        bool
	Approved      bool

	// EmployeeCompanyID, when non-empty, restricts the result to employee
	// acknowledgements for that company.
	EmployeeCompanyID string
}

// ContributorStore looks up and persists contributor records.
type ContributorStore interface {
	// ContributorsByGitHubID returns all contributors with the given GitHub
	// numeric id, ordered deterministically (lowest record id first).
	ContributorsByGitHubID(ctx context.Context, id int64) ([]*Contributor, error)

	// ContributorsByEmail searches every known email of every contributor,
	// not a single canonical field.
	ContributorsByEmail(ctx context.Context, email string) ([]*Contributor, error)

	// SaveContributor inserts or updates a single contributor record.
	SaveContributor(ctx context.Context, c *Contributor) error
}

// AgreementStore queries finalized agreement records.
type AgreementStore interface {
	Agreements(ctx context.Context, q AgreementQuery) ([]*Agreement, error)
}

// ProjectStore loads project records. Returns ErrNotFound for unknown ids.
type ProjectStore interface {
	Project(ctx context.Context, id string) (*Project, error)
}

// RepositoryStore maps GitHub repository ids onto configured repositories.
// Returns ErrNotFound when the repository is not configured.
type RepositoryStore interface {
	RepositoryByExternalID(ctx context.Context, externalID int64) (*Repository, error)
}

// OrganizationStore loads organization configuration by name. Returns
// ErrNotFound for unknown organizations.
type OrganizationStore interface {
	Organization(ctx context.Context, name string) (*Organization, error)
}

// Store aggregates every lookup contract the reconciliation engine needs.
type Store interface {
	ContributorStore
	AgreementStore
	ProjectStore
	RepositoryStore
	OrganizationStore
}
