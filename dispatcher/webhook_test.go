/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, handler http.Handler, event, signature, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestWebhookSignatureValidation(t *testing.T) {
	secret := []byte("hook-secret")
	payload := `{
		"action": "opened",
		"installation": {"id": 99},
		"repository": {"id": 500, "full_name": "acme/widgets"},
		"pull_request": {"number": 12}
	}`

	t.Run("valid signature dispatches the event", func(t *testing.T) {
		rec := &fakeReconciler{}
		rr := postWebhook(t, New(rec, secret).Routes(), "pull_request", sign(secret, []byte(payload)), payload)

		require.Equal(t, http.StatusAccepted, rr.Code)
		require.Equal(t, 1, rec.calls)
		assert.Equal(t, int64(99), rec.installationID)
		assert.Equal(t, int64(500), rec.repoID)
		assert.Equal(t, 12, rec.prNumber)
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		rec := &fakeReconciler{}
		rr := postWebhook(t, New(rec, secret).Routes(), "pull_request", sign([]byte("wrong"), []byte(payload)), payload)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, rec.calls)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		rec := &fakeReconciler{}
		rr := postWebhook(t, New(rec, secret).Routes(), "pull_request", "", payload)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, rec.calls)
	})

	t.Run("unhandled event types are acknowledged", func(t *testing.T) {
		rec := &fakeReconciler{}
		body := `{"action": "created"}`
		rr := postWebhook(t, New(rec, secret).Routes(), "star", sign(secret, []byte(body)), body)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Zero(t, rec.calls)
	})
}
