package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/core/ports"
	"github.com/99minutos/library-system/internal/core/service"
	"github.com/99minutos/library-system/internal/infrastructure/db/sqlstore"
)

type memDenylist struct{ revoked map[string]bool }

func (d *memDenylist) Revoke(_ context.Context, id string, _ time.Duration) error {
	d.revoked[id] = true
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	return d.revoked[id], nil
}

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T, denylist ports.TokenDenylist) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	log := zerolog.Nop()
	users := store.Users()
	tokens := service.NewTokenService("test-secret", "library-test", time.Hour, denylist)
	reg := prometheus.NewRegistry()

	e := NewRouter(Dependencies{
		Auth:       service.NewAuthService(users, tokens, bcrypt.MinCost, log),
		Guard:      service.NewGuard(tokens, users),
		Catalog:    service.NewCatalogService(store.Books(), log),
		Ledger:     service.NewLedgerService(store.Borrows(), log),
		Checks:     []handler.Check{{Name: "store", Pinger: store}},
		Logger:     log,
		Registerer: reg,
		Gatherer:   reg,
	})
	return &testServer{t: t, e: e}
}

func (s *testServer) do(method, path, token, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(username, role string) {
	rec := s.do(http.MethodPost, "/register", "", echo.MIMEApplicationJSON,
		`{"username":"`+username+`","password":"pw-`+username+`","role":"`+role+`"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(username string) string {
	form := url.Values{"username": {username}, "password": {"pw-" + username}}
	rec := s.do(http.MethodPost, "/token", "", echo.MIMEApplicationForm, form.Encode())
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(s.t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func (s *testServer) books() []map[string]any {
	rec := s.do(http.MethodGet, "/books", "", "", "")
	require.Equal(s.t, http.StatusOK, rec.Code)
	var books []map[string]any
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &books))
	return books
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func TestRouter_LendingScenario(t *testing.T) {
	s := newTestServer(t, nil)

	s.register("alice", "member")
	s.register("bob", "admin")
	alice := s.login("alice")
	bob := s.login("bob")

	rec := s.do(http.MethodPost, "/books", bob, echo.MIMEApplicationJSON, `{"title":"Dune","author":"Herbert"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var book map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.Equal(t, float64(1), book["id"])
	require.Equal(t, true, book["available"])

	rec = s.do(http.MethodPost, "/borrow/1", alice, "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, false, s.books()[0]["available"])

	rec = s.do(http.MethodPost, "/borrow/1", alice, "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "book not available", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/return/1", alice, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, s.books()[0]["available"])

	rec = s.do(http.MethodPost, "/return/1", alice, "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "no active borrow record found", errorMessage(t, rec))

	rec = s.do(http.MethodGet, "/me/borrows", alice, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0]["return_date"])
}

func TestRouter_OnlyAdminsAddBooks(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice", "member")
	alice := s.login("alice")

	rec := s.do(http.MethodPost, "/books", alice, echo.MIMEApplicationJSON, `{"title":"Dune","author":"Herbert"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, s.books())
}

func TestRouter_Unauthenticated(t *testing.T) {
	s := newTestServer(t, nil)

	for _, token := range []string{"", "garbage"} {
		rec := s.do(http.MethodPost, "/borrow/1", token, "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	}
}

func TestRouter_RegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice", "member")

	rec := s.do(http.MethodPost, "/register", "", echo.MIMEApplicationJSON, `{"username":"alice","password":"x","role":"member"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/register", "", echo.MIMEApplicationJSON, `{"username":"carol","password":"x","role":"owner"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// 40 characters pass request validation but are 80 bytes, past bcrypt's limit
	rec = s.do(http.MethodPost, "/register", "", echo.MIMEApplicationJSON,
		`{"username":"carol","password":"`+strings.Repeat("é", 40)+`","role":"member"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/token", "", echo.MIMEApplicationForm, "username=alice&password=wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid credentials", errorMessage(t, rec))

	rec = s.do(http.MethodPost, "/token", "", echo.MIMEApplicationForm, "username=nobody&password=wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid credentials", errorMessage(t, rec))
}

func TestRouter_TrailingSlashAndLookup(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/books/", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())

	rec = s.do(http.MethodGet, "/books/42", "", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "book not found", errorMessage(t, rec))
}

func TestRouter_LogoutWithoutRevocation(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("alice", "member")
	alice := s.login("alice")

	rec := s.do(http.MethodPost, "/logout", alice, "", "")
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, &memDenylist{revoked: map[string]bool{}})
	s.register("alice", "member")
	alice := s.login("alice")

	rec := s.do(http.MethodPost, "/logout", alice, "", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/me/borrows", alice, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	fresh := s.login("alice")
	rec = s.do(http.MethodGet, "/me/borrows", fresh, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_OpsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "", "").Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "", "", "").Code)

	s.books()
	rec := s.do(http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "library_http_requests_total")

	rec = s.do(http.MethodGet, "/swagger/doc.json", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/borrow/{book_id}")

	rec = s.do(http.MethodGet, "/nope", "", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
