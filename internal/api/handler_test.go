package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/easyaudit/internal/api"
	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/engine"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

const rulesYAML = `
version: v1
engine:
  event_workers: 2
  queue_depth: 16
events:
  - security.interactive_login
  - security.authentication.failure
  - fos_user.change_password.edit.completed
  - report.exported
sinks:
  - type: stdout
`

type fixture struct {
	srv      *httptest.Server
	out      *bytes.Buffer
	path     string
	verifier *identity.JWTVerifier
}

func newFixture(t *testing.T, withSecurity bool) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0o644))

	loader, err := config.NewLoader(path)
	require.NoError(t, err)
	cfg := loader.Config()
	require.NoError(t, config.Validate(cfg))

	var (
		verifier *identity.JWTVerifier
		tokens   identity.TokenStorage
	)
	if withSecurity {
		verifier, err = identity.NewJWTVerifier("test-secret", "easyaudit")
		require.NoError(t, err)
		tokens = identity.ContextTokenStorage{}
	}
	build := func(c *config.AuditConfig) (*engine.Plan, error) { return engine.NewPlan(c, tokens) }

	plan, err := build(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sinks, err := audit.BuildSinks(cfg.Sinks, logger, out)
	require.NoError(t, err)

	eng := engine.New(context.Background(), plan, sinks, cfg.Engine, engine.WithLogger(logger))
	srv := httptest.NewServer(api.New(eng, loader, build, api.WithVerifier(verifier), api.WithLogger(logger)))
	t.Cleanup(func() {
		srv.Close()
		eng.Shutdown()
	})
	return &fixture{srv: srv, out: out, path: path, verifier: verifier}
}

func (f *fixture) post(t *testing.T, path, body, bearer string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func entryOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	entry, ok := body["entry"].(map[string]any)
	require.True(t, ok, "response has no entry: %v", body)
	return entry
}

func TestIngestEvent_PasswordChanged(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.post(t, "/v1/events",
		`{"name":"fos_user.change_password.edit.completed","kind":"filter_user_response","user":"admin"}`, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, body)
	assert.Equal(t, "Password Changed", entry["type"])
	assert.Equal(t, "Password of user 'admin' Changed Successfully", entry["description"])
	assert.NotEmpty(t, body["event_id"], "missing IDs are generated")
	assert.Contains(t, f.out.String(), "Password Changed")
}

func TestIngestEvent_InteractiveLoginWithBearer(t *testing.T) {
	f := newFixture(t, true)
	raw, err := f.verifier.Sign("admin", time.Hour)
	require.NoError(t, err)

	resp, body := f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, "Bearer "+raw)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, body)
	assert.Equal(t, "User Logged in", entry["type"])
	assert.Equal(t, "User 'admin' Logged in Successfully", entry["description"])
}

func TestIngestEvent_InteractiveLoginAnonymous(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User 'anon.' Logged in Successfully", entryOf(t, body)["description"])
}

func TestIngestEvent_InteractiveLoginWithoutSecurity(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, "Bearer ignored")

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["error"], "security capability")
}

func TestIngestEvent_BearerSchemeIgnoresCase(t *testing.T) {
	f := newFixture(t, true)
	raw, err := f.verifier.Sign("admin", time.Hour)
	require.NoError(t, err)

	for _, scheme := range []string{"bearer ", "BEARER "} {
		resp, body := f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, scheme+raw)
		require.Equal(t, http.StatusOK, resp.StatusCode, scheme)
		assert.Equal(t, "User 'admin' Logged in Successfully", entryOf(t, body)["description"])
	}
}

func TestIngestEvent_BadBearer(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid bearer token")

	resp, _ = f.post(t, "/v1/events", `{"name":"security.interactive_login"}`, "Basic YWRtaW46YWRtaW4=")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestEvent_BadRequests(t *testing.T) {
	f := newFixture(t, false)

	cases := map[string]string{
		"invalid json": `{"name":`,
		"missing name": `{"kind":"basic"}`,
		"unknown kind": `{"name":"x","kind":"doctrine"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := f.post(t, "/v1/events", body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestIngestEvent_Described(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.post(t, "/v1/events",
		`{"name":"report.exported","kind":"described","type":"Report Exported","description":"Quarterly report exported","meta":{"tenant":"acme"}}`, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, body)
	assert.Equal(t, "Report Exported", entry["type"])
	assert.Equal(t, "Quarterly report exported", entry["description"])
	assert.Equal(t, map[string]any{"tenant": "acme"}, entry["meta"])
	assert.Contains(t, f.out.String(), `"tenant":"acme"`)
}

func TestIngestEvent_Skipped(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.post(t, "/v1/events", `{"name":"kernel.request"}`, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["skipped"])
	assert.Nil(t, body["entry"])
}

func TestIngestBatch(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.post(t, "/v1/events/batch", `[
		{"name":"security.authentication.failure","kind":"authentication_failure","username":"user","reason":"Bad credentials"},
		{"name":""},
		{"name":"fos_user.change_password.edit.completed"}
	]`, "")

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["queued"])
	assert.EqualValues(t, 1, body["rejected"])
	assert.NotEmpty(t, body["job_id"])

	resp, _ = f.post(t, "/v1/events/batch", `[]`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	big := "[" + strings.TrimSuffix(strings.Repeat(`{"name":"x"},`, 101), ",") + "]"
	resp, _ = f.post(t, "/v1/events/batch", big, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListResolversAndReload(t *testing.T) {
	f := newFixture(t, false)

	get := func() map[string]any {
		resp, err := http.Get(f.srv.URL + "/v1/resolvers")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	body := get()
	assert.Equal(t, "v1", body["version"])
	assert.Equal(t, false, body["audit_all"])
	assert.Len(t, body["events"], 4)
	assert.Equal(t, "default", body["default_resolver"])
	assert.Len(t, body["bound_events"], 4)

	require.NoError(t, os.WriteFile(f.path, []byte("version: v2\nsinks: [{type: stdout}]\n"), 0o644))
	resp, out := f.post(t, "/v1/config/reload", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["reloaded"])

	body = get()
	assert.Equal(t, "v2", body["version"])
	assert.Equal(t, true, body["audit_all"])

	require.NoError(t, os.WriteFile(f.path, []byte("version: v3\ndefault_resolver: doctrine\n"), 0o644))
	resp, _ = f.post(t, "/v1/config/reload", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body = get()
	assert.Equal(t, "v2", body["version"], "a rejected reload leaves the reported config untouched")
	assert.Equal(t, true, body["audit_all"])
	assert.Equal(t, "default", body["default_resolver"])
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(f.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
