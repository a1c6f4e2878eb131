/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package inmem provides an in-memory store implementation used by tests and
// for local development when no database is configured.
package inmem

import (
	"context"
	"sort"
	"sync"

	"chainguard.dev/clagate/store"
)

// Store is a mutex-guarded in-memory implementation of store.Store.
// Contributor lookups return records ordered by record id so that the
// first-match tie-break is deterministic.
type Store struct {
	mu            sync.RWMutex
	contributors  map[string]*store.Contributor
	agreements    []*store.Agreement
	projects      map[string]*store.Project
	repositories  map[int64]*store.Repository
	organizations map[string]*store.Organization
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		contributors:  map[string]*store.Contributor{},
		projects:      map[string]*store.Project{},
		repositories:  map[int64]*store.Repository{},
		organizations: map[string]*store.Organization{},
	}
}

// AddProject seeds a project record.
func (s *Store) AddProject(p *store.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

// AddRepository seeds a repository record.
func (s *Store) AddRepository(r *store.Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repositories[r.ExternalID] = r
}

// AddOrganization seeds an organization record.
func (s *Store) AddOrganization(o *store.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.Name] = o
}

// AddAgreement seeds an agreement record.
func (s *Store) AddAgreement(a *store.Agreement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreements = append(s.agreements, a)
}

// ContributorCount returns the number of contributor records on file.
func (s *Store) ContributorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contributors)
}

func (s *Store) ContributorsByGitHubID(_ context.Context, id int64) ([]*store.Contributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Contributor
	for _, c := range s.contributors {
		if c.GitHubID != nil && *c.GitHubID == id {
			out = append(out, clone(c))
		}
	}
	sortByID(out)
	return out, nil
}

func (s *Store) ContributorsByEmail(_ context.Context, email string) ([]*store.Contributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Contributor
	for _, c := range s.contributors {
		if c.HasEmail(email) {
			out = append(out, clone(c))
		}
	}
	sortByID(out)
	return out, nil
}

func (s *Store) SaveContributor(_ context.Context, c *store.Contributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributors[c.ID] = clone(c)
	return nil
}

func (s *Store) Agreements(_ context.Context, q store.AgreementQuery) ([]*store.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Agreement
	for _, a := range s.agreements {
		if a.ProjectID != q.ProjectID || a.Type != q.Type || a.ReferenceType != q.ReferenceType {
			continue
		}
		if q.ReferenceID != "" && a.ReferenceID != q.ReferenceID {
			continue
		}
		if a.Signed != q.Signed || a.Approved != q.Approved {
			continue
		}
		if q.EmployeeCompanyID != "" && a.EmployeeCompanyID != q.EmployeeCompanyID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) Project(_ context.Context, id string) (*store.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) RepositoryByExternalID(_ context.Context, externalID int64) (*store.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repositories[externalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) Organization(_ context.Context, name string) (*store.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o, nil
}

func clone(c *store.Contributor) *store.Contributor {
	out := *c
	out.Emails = append([]string(nil), c.Emails...)
	if c.GitHubID != nil {
		id := *c.GitHubID
		out.GitHubID = &id
	}
	return &out
}

func sortByID(cs []*store.Contributor) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
