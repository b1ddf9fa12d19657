//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/curriculab/curricula-backend/internal/adapter/postgres"
	auditrepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/audit"
	noderepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/node"
	typerepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/nodetype"
	"github.com/curriculab/curricula-backend/internal/adapter/postgres/testhelper"
	"github.com/curriculab/curricula-backend/internal/config"
	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/service/tree"
	"github.com/curriculab/curricula-backend/internal/transport/rest"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	Actor  uuid.UUID
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a
// real PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	nodeRepo := noderepo.New(pool)
	typeRepo := typerepo.New(pool)
	auditRepo := auditrepo.New(pool)

	validator := tree.NewValidator(12)
	svc := tree.NewService(logger, nodeRepo, typeRepo, auditRepo, txm, validator, 10000)

	treeHandler := rest.NewTreeHandler(svc, logger)
	healthHandler := rest.NewHealthHandler(pool, "e2e")
	router := rest.NewRouter(logger, config.CORSConfig{
		AllowedOrigins: "*",
		AllowedMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowedHeaders: "Content-Type,X-Actor-Id",
	}, treeHandler, healthHandler)

	srv := httptest.NewServer(router)
	t.Cleanup(func() { srv.Close() })

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		Actor:  uuid.New(),
	}
}

// do sends a JSON request with the actor header and returns the status
// code and decoded body. A nil body sends no payload; DELETE and other
// bodyless responses return a nil map.
func (ts *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", ts.Actor.String())

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}

	var result map[string]any
	require.NoError(t, json.Unmarshal(raw, &result), "body: %s", raw)
	return resp.StatusCode, result
}

// doList is like do but for endpoints returning a JSON array.
func (ts *testServer) doList(t *testing.T, method, path string) (int, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Actor-Id", ts.Actor.String())

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

// seedType inserts a node type directly and returns its id.
func seedType(t *testing.T, ts *testServer, maxChildren, maxDepth domain.Limit) uuid.UUID {
	t.Helper()
	return testhelper.SeedNodeType(t, ts.Pool, maxChildren, maxDepth).ID
}

func seedProtectedType(t *testing.T, ts *testServer) uuid.UUID {
	t.Helper()
	return testhelper.SeedProtectedNodeType(t, ts.Pool).ID
}

// createNode creates a node through the API and fails the test on any
// non-201 response.
func createNode(t *testing.T, ts *testServer, typeID uuid.UUID, parentID *string, code, name string) map[string]any {
	t.Helper()

	body := map[string]any{
		"typeId": typeID.String(),
		"code":   code,
		"name":   name,
	}
	if parentID != nil {
		body["parentId"] = *parentID
	}

	status, resp := ts.do(t, http.MethodPost, "/v1/nodes", body)
	require.Equal(t, http.StatusCreated, status, "create %s: %v", code, resp)
	return resp
}

func nodeID(t *testing.T, node map[string]any) string {
	t.Helper()
	id, ok := node["id"].(string)
	require.True(t, ok, "expected id in node payload: %v", node)
	return id
}

func nodePath(t *testing.T, node map[string]any) string {
	t.Helper()
	path, ok := node["path"].(string)
	require.True(t, ok, "expected path in node payload: %v", node)
	return path
}

// uniqueCode derives a collision-free code for the shared database.
func uniqueCode(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}
