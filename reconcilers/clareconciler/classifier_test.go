/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clareconciler

import (
	"context"
	"testing"

	"chainguard.dev/clagate/store"
	"chainguard.dev/clagate/store/inmem"
	"github.com/google/go-github/v84/github"
)

func TestClassify(t *testing.T) {
	project := &store.Project{ID: "proj", Name: "Project", Version: "v2", IndividualDocumentMajorVersion: 2}

	tests := []struct {
		name        string
		contributor *store.Contributor
		author      *Author
		agreements  []*store.Agreement
		want        Verdict
	}{{
		name:        "no contributor resolved",
		contributor: nil,
		want:        Verdict{},
	}, {
		name:        "signed individual agreement at current major version",
		contributor: &store.Contributor{ID: "c-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementIndividual, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: true, Approved: true, DocumentMajorVersion: 2,
		}},
		want: Verdict{Signed: true},
	}, {
		name:        "individual agreement at stale major version does not count",
		contributor: &store.Contributor{ID: "c-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementIndividual, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: true, Approved: true, DocumentMajorVersion: 1,
		}},
		want: Verdict{},
	}, {
		name:        "unsigned individual agreement does not count",
		contributor: &store.Contributor{ID: "c-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementIndividual, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: false, Approved: true, DocumentMajorVersion: 2,
		}},
		want: Verdict{},
	}, {
		name:        "individual agreement on another project does not count",
		contributor: &store.Contributor{ID: "c-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "other",
			Type: store.AgreementIndividual, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: true, Approved: true, DocumentMajorVersion: 2,
		}},
		want: Verdict{},
	}, {
		name:        "no company on file",
		contributor: &store.Contributor{ID: "c-1"},
		want:        Verdict{},
	}, {
		name:        "company without corporate agreement",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1"},
		want:        Verdict{},
	}, {
		name:        "corporate agreement with employee acknowledgement",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
		}, {
			ID: "a-2", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: true, Approved: true, EmployeeCompanyID: "corp-1",
		}},
		want: Verdict{Signed: true},
	}, {
		name:        "approved identity by email without acknowledgement needs confirmation",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1", Emails: []string{"grace@corp.example"}},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
			ApprovedIdentities: []store.ApprovedIdentity{{Email: "grace@corp.example"}},
		}},
		want: Verdict{NeedsConfirmation: true},
	}, {
		name:        "approved identity by github id from the author tuple",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1"},
		author:      &Author{GitHubID: github.Ptr(int64(42))},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
			ApprovedIdentities: []store.ApprovedIdentity{{GitHubID: github.Ptr(int64(42))}},
		}},
		want: Verdict{NeedsConfirmation: true},
	}, {
		name:        "approved identity by github login",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1", GitHubLogin: "ghopper"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
			ApprovedIdentities: []store.ApprovedIdentity{{GitHubLogin: "ghopper"}},
		}},
		want: Verdict{NeedsConfirmation: true},
	}, {
		name:        "corporate agreement without approval or acknowledgement",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1", Emails: []string{"grace@corp.example"}},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
			ApprovedIdentities: []store.ApprovedIdentity{{Email: "other@corp.example"}},
		}},
		want: Verdict{},
	}, {
		name:        "acknowledgement for a different company does not count",
		contributor: &store.Contributor{ID: "c-1", CompanyID: "corp-1"},
		agreements: []*store.Agreement{{
			ID: "a-1", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceCompany, ReferenceID: "corp-1",
			Signed: true, Approved: true,
		}, {
			ID: "a-2", ProjectID: "proj",
			Type: store.AgreementCorporate, ReferenceType: store.ReferenceUser, ReferenceID: "c-1",
			Signed: true, Approved: true, EmployeeCompanyID: "corp-2",
		}},
		want: Verdict{},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := inmem.New()
			for _, a := range tt.agreements {
				s.AddAgreement(a)
			}
			got, err := NewClassifier(s).Classify(context.Background(), tt.contributor, project, tt.author)
			if err != nil {
				t.Fatalf("Classify() = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
