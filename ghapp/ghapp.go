/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghapp provides authenticated GitHub clients scoped to a GitHub App
// installation, satisfying the reconciler's HostProvider contract.
package ghapp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"chainguard.dev/clagate/reconcilers/clareconciler"
	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// App mints per-installation GitHub clients from a GitHub App's credentials.
// Clients are cached per installation id; the underlying transport refreshes
// installation tokens on its own.
type App struct {
	appID      int64
	privateKey []byte
	base       http.RoundTripper

	mu      sync.Mutex
	clients map[int64]clareconciler.Host
}

// NewApp constructs an App from the GitHub App id and its PEM-encoded private
// key.
func NewApp(appID int64, privateKey []byte) (*App, error) {
	if appID == 0 {
		return nil, fmt.Errorf("app id is required")
	}
	if len(privateKey) == 0 {
		return nil, fmt.Errorf("private key is required")
	}
	// Validate the key eagerly so misconfiguration fails at startup rather
	// than on the first webhook.
	if _, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey); err != nil {
		return nil, fmt.Errorf("parsing app %d private key: %w", appID, err)
	}
	return &App{
		appID:      appID,
		privateKey: privateKey,
		base:       http.DefaultTransport,
		clients:    map[int64]clareconciler.Host{},
	}, nil
}

var _ clareconciler.HostProvider = (*App)(nil)

// HostFor returns a Host authenticated as the given installation.
func (a *App) HostFor(_ context.Context, installationID int64) (clareconciler.Host, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.clients[installationID]; ok {
		return h, nil
	}
	tr, err := ghinstallation.New(a.base, a.appID, installationID, a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating transport for installation %d: %w", installationID, err)
	}
	h := clareconciler.NewGitHubHost(github.NewClient(&http.Client{Transport: tr}))
	a.clients[installationID] = h
	return h, nil
}

// TokenProvider serves every installation with a single personal access
// token. Intended for local development only.
type TokenProvider struct {
	host clareconciler.Host
}

// NewTokenProvider wraps a static token as a HostProvider.
func NewTokenProvider(ctx context.Context, token string) *TokenProvider {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return &TokenProvider{host: clareconciler.NewGitHubHost(github.NewClient(hc))}
}

var _ clareconciler.HostProvider = (*TokenProvider)(nil)

// HostFor ignores the installation id and returns the token-backed client.
func (p *TokenProvider) HostFor(context.Context, int64) (clareconciler.Host, error) {
	return p.host, nil
}
