/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"fmt"

	"chainguard.dev/clagate/store"
	"github.com/chainguard-dev/clog"
)

// Verdict is the result of classifying one contributor against one project.
type Verdict struct {
	// Signed means the contributor holds agreement coverage for the project.
	Signed bool

	// NeedsConfirmation means the contributor matched a corporate
	// agreement's approved-identity list but has not confirmed the
	// affiliation (not fully onboarded). Only meaningful when !Signed.
	NeedsConfirmation bool
}

// Classifier decides agreement coverage for a resolved contributor. It is a
// pure function of (contributor, project, agreement-store snapshot).
type Classifier struct {
	agreements store.AgreementStore
}

// NewClassifier returns a Classifier backed by the given agreement store.
func NewClassifier(agreements store.AgreementStore) *Classifier {
	return &Classifier{agreements: agreements}
}

// Classify evaluates the coverage decision table in order, first match wins:
//
//  1. no contributor resolved -> missing
//  2. signed individual agreement matching the project's current document
//     major version -> signed
//  3. no company on file -> missing
//  4. approved+signed corporate agreement for (project, company) and the
//     contributor holds an employee acknowledgement -> signed
//  5. corporate agreement exists and the contributor's identity is on its
//     approved-identity list -> missing, needs confirmation
//  6. otherwise -> missing
//
// The caller is responsible for evaluating this once per unique
// (contributor, project) pair per PR scan.
func (c *Classifier) Classify(ctx context.Context, contributor *store.Contributor, project *store.Project, author *Author) (Verdict, error) {
	if contributor == nil {
		return Verdict{}, nil
	}
	log := clog.FromContext(ctx)

	signed, err := c.individualSigned(ctx, contributor, project)
	if err != nil {
		return Verdict{}, err
	}
	if signed {
		return Verdict{Signed: true}, nil
	}

	if contributor.CompanyID == "" {
		return Verdict{}, nil
	}

	cclas, err := c.agreements.Agreements(ctx, store.AgreementQuery{
		ProjectID:     project.ID,
		Type:          store.AgreementCorporate,
		ReferenceType: store.ReferenceCompany,
		ReferenceID:   contributor.CompanyID,
		Signed:        true,
		Approved:      true,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("querying corporate agreements for company %s: %w", contributor.CompanyID, err)
	}
	if len(cclas) == 0 {
		return Verdict{}, nil
	}
	// At most one active corporate agreement should exist per
	// (project, company). Tolerate violations: warn and use the first.
	if len(cclas) > 1 {
		log.Warnf("found %d corporate agreements for company %s on project %s - expected at most one",
			len(cclas), contributor.CompanyID, project.ID)
	}
	ccla := cclas[0]

	acknowledged, err := c.employeeAcknowledged(ctx, contributor, project)
	if err != nil {
		return Verdict{}, err
	}
	if acknowledged {
		return Verdict{Signed: true}, nil
	}

	if identityApproved(ccla, contributor, author) {
		log.Debugf("contributor %s is on the approved list for company %s but has not confirmed the affiliation",
			contributor.ID, contributor.CompanyID)
		return Verdict{NeedsConfirmation: true}, nil
	}
	return Verdict{}, nil
}

// individualSigned reports whether the contributor holds a signed individual
// agreement for the project whose document major version equals the
// project's currently published major version. Minor versions are ignored.
func (c *Classifier) individualSigned(ctx context.Context, contributor *store.Contributor, project *store.Project) (bool, error) {
	iclas, err := c.agreements.Agreements(ctx, store.AgreementQuery{
		ProjectID:     project.ID,
		Type:          store.AgreementIndividual,
		ReferenceType: store.ReferenceUser,
		ReferenceID:   contributor.ID,
		Signed:        true,
		Approved:      true,
	})
	if err != nil {
		return false, fmt.Errorf("querying individual agreements for contributor %s: %w", contributor.ID, err)
	}
	for _, a := range iclas {
		if a.DocumentMajorVersion == project.IndividualDocumentMajorVersion {
			return true, nil
		}
	}
	return false, nil
}

// employeeAcknowledged reports whether the contributor has confirmed their
// affiliation under the company's corporate agreement for this project.
func (c *Classifier) employeeAcknowledged(ctx context.Context, contributor *store.Contributor, project *store.Project) (bool, error) {
	acks, err := c.agreements.Agreements(ctx, store.AgreementQuery{
		ProjectID:         project.ID,
		Type:              store.AgreementCorporate,
		ReferenceType:     store.ReferenceUser,
		ReferenceID:       contributor.ID,
		Signed:            true,
		Approved:          true,
		EmployeeCompanyID: contributor.CompanyID,
	})
	if err != nil {
		return false, fmt.Errorf("querying employee acknowledgements for contributor %s: %w", contributor.ID, err)
	}
	return len(acks) > 0, nil
}

// identityApproved reports whether any of the contributor's identities (or
// the raw author tuple's) appear on the agreement's approved-identity list.
func identityApproved(a *store.Agreement, contributor *store.Contributor, author *Author) bool {
	for _, id := range a.ApprovedIdentities {
		if id.Email != "" {
			if contributor.HasEmail(id.Email) {
				return true
			}
			if author != nil && author.Email == id.Email {
				return true
			}
		}
		if id.GitHubID != nil {
			if contributor.GitHubID != nil && *contributor.GitHubID == *id.GitHubID {
				return true
			}
			if author != nil && author.GitHubID != nil && *author.GitHubID == *id.GitHubID {
				return true
			}
		}
		if id.GitHubLogin != "" {
			if contributor.GitHubLogin == id.GitHubLogin {
				return true
			}
			if author != nil && author.Username == id.GitHubLogin {
				return true
			}
		}
	}
	return false
}
