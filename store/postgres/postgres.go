/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package postgres implements the store contracts on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/clagate/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool and implements store.Store.
type DB struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*DB)(nil)

// Connect opens a pooled connection to the given database URL and verifies it
// with a ping.
func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close releases the connection pool.
func (db *DB) Close() { db.pool.Close() }

func (db *DB) ContributorsByGitHubID(ctx context.Context, id int64) ([]*store.Contributor, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, name, emails, github_id, github_login, company_id
		FROM contributors
		WHERE github_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying contributors by github id %d: %w", id, err)
	}
	return scanContributors(rows)
}

func (db *DB) ContributorsByEmail(ctx context.Context, email string) ([]*store.Contributor, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, name, emails, github_id, github_login, company_id
		FROM contributors
		WHERE $1 = ANY(emails)
		ORDER BY id
	`, email)
	if err != nil {
		return nil, fmt.Errorf("querying contributors by email: %w", err)
	}
	return scanContributors(rows)
}

func scanContributors(rows pgx.Rows) ([]*store.Contributor, error) {
	defer rows.Close()
	var out []*store.Contributor
	for rows.Next() {
		c := &store.Contributor{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Emails, &c.GitHubID, &c.GitHubLogin, &c.CompanyID); err != nil {
			return nil, fmt.Errorf("scanning contributor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) SaveContributor(ctx context.Context, c *store.Contributor) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO contributors (id, name, emails, github_id, github_login, company_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			emails = EXCLUDED.emails,
			github_id = EXCLUDED.github_id,
			github_login = EXCLUDED.github_login,
			company_id = EXCLUDED.company_id
	`, c.ID, c.Name, c.Emails, c.GitHubID, c.GitHubLogin, c.CompanyID)
	if err != nil {
		return fmt.Errorf("saving contributor %s: %w", c.ID, err)
	}
	return nil
}

func (db *DB) Agreements(ctx context.Context, q store.AgreementQuery) ([]*store.Agreement, error) {
	// Signed and Approved always filter; the rest only when set.
	where := "signed = $1 AND approved = $2"
	args := []any{q.Signed, q.Approved}
	add := func(column string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	if q.ProjectID != "" {
		add("project_id", q.ProjectID)
	}
	if q.Type != "" {
		add("type", string(q.Type))
	}
	if q.ReferenceType != "" {
		add("reference_type", string(q.ReferenceType))
	}
	if q.ReferenceID != "" {
		add("reference_id", q.ReferenceID)
	}
	if q.EmployeeCompanyID != "" {
		add("employee_company_id", q.EmployeeCompanyID)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, project_id, type, reference_type, reference_id, signed, approved,
			document_major_version, employee_company_id, approved_identities
		FROM agreements
		WHERE `+where+`
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying agreements: %w", err)
	}
	defer rows.Close()

	var out []*store.Agreement
	for rows.Next() {
		a := &store.Agreement{}
		var identities []byte
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Type, &a.ReferenceType, &a.ReferenceID,
			&a.Signed, &a.Approved, &a.DocumentMajorVersion, &a.EmployeeCompanyID, &identities); err != nil {
			return nil, fmt.Errorf("scanning agreement: %w", err)
		}
		if len(identities) > 0 {
			if err := json.Unmarshal(identities, &a.ApprovedIdentities); err != nil {
				return nil, fmt.Errorf("decoding approved identities of agreement %s: %w", a.ID, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (db *DB) Project(ctx context.Context, id string) (*store.Project, error) {
	p := &store.Project{}
	err := db.pool.QueryRow(ctx, `
		SELECT id, name, version, individual_document_major_version
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Version, &p.IndividualDocumentMajorVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", id, err)
	}
	return p, nil
}

func (db *DB) RepositoryByExternalID(ctx context.Context, externalID int64) (*store.Repository, error) {
	r := &store.Repository{}
	err := db.pool.QueryRow(ctx, `
		SELECT id, external_id, full_name, organization_name, project_id, url
		FROM repositories
		WHERE external_id = $1
	`, externalID).Scan(&r.ID, &r.ExternalID, &r.FullName, &r.OrganizationName, &r.ProjectID, &r.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying repository %d: %w", externalID, err)
	}
	return r, nil
}

func (db *DB) Organization(ctx context.Context, name string) (*store.Organization, error) {
	o := &store.Organization{}
	err := db.pool.QueryRow(ctx, `
		SELECT name, installation_id
		FROM organizations
		WHERE name = $1
	`, name).Scan(&o.Name, &o.InstallationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying organization %q: %w", name, err)
	}
	return o, nil
}
