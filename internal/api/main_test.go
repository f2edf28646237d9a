package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"serwer-dokumentow/internal/auth"
	"serwer-dokumentow/internal/config"
	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"
	"serwer-dokumentow/internal/tree/treetest"
	"serwer-dokumentow/internal/websocket"

	"github.com/stretchr/testify/require"
)

const testSecret = "api_test_secret"

var (
	alice   = models.AuthContext{UserID: "user|alice", OrganizationID: "org-1"}
	bob     = models.AuthContext{UserID: "user|bob", OrganizationID: "org-1"}
	mallory = models.AuthContext{UserID: "user|mallory", OrganizationID: "org-2"}
)

type testEnv struct {
	server  *Server
	mem     *treetest.Memory
	hub     *websocket.Hub
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	mem := treetest.NewMemory()
	svc, err := tree.New(mem, tree.WithPublisher(hub))
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		JWT:    config.JWTConfig{Secret: testSecret, TTL: time.Hour},
	}
	server := NewServer(cfg, svc, auth.NewHMACVerifier(testSecret), hub, nil)

	return &testEnv{server: server, mem: mem, hub: hub, handler: server.Routes()}
}

func tokenFor(t *testing.T, caller models.AuthContext) string {
	t.Helper()
	token, err := auth.GenerateJWT(caller, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends an authenticated request. A string body is sent verbatim, any
// other non-nil body is JSON encoded.
func (e *testEnv) do(t *testing.T, caller models.AuthContext, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, caller))
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (e *testEnv) createFolder(t *testing.T, caller models.AuthContext, name string, parent *string) string {
	t.Helper()
	rr := e.do(t, caller, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: name, ParentFolderID: parent})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[CreatedResponse](t, rr).ID
}

func (e *testEnv) createDocument(t *testing.T, caller models.AuthContext, title string, parent *string) string {
	t.Helper()
	rr := e.do(t, caller, http.MethodPost, "/api/v1/documents", CreateDocumentRequest{Title: &title, ParentFolderID: parent})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[CreatedResponse](t, rr).ID
}
