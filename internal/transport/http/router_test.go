package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/domain"
	jwtinfra "github.com/condo-notify/internal/infrastructure/jwt"
	"github.com/condo-notify/internal/infrastructure/logpush"
	"github.com/condo-notify/internal/infrastructure/sqlstore"
	"github.com/condo-notify/internal/transport/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	jwt    *jwtinfra.Provider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0600))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0600))

	cfg := &config.Config{
		AppEnv:              "test",
		StoreDriver:         "sqlite",
		DatabaseURL:         "file:" + t.Name() + "?mode=memory&cache=shared",
		JWTPrivateKeyPath:   privPath,
		JWTPublicKeyPath:    pubPath,
		JWTExpiry:           time.Hour,
		AllowedOrigins:      []string{"*"},
		DispatchConcurrency: 4,
		PushTimeout:         time.Second,
	}
	provider, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)
	db, err := sqlstore.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlstore.Close(db) })

	templates := sqlstore.NewTemplateRepo(db)
	require.NoError(t, templates.Put(context.Background(), &domain.Template{
		Name:         "welcome",
		TitlePattern: "Welcome",
		BodyPattern:  "Hello {name}",
		Active:       true,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := NewRouter(ctx, cfg, &Deps{
		Endpoints:     sqlstore.NewEndpointRepo(db),
		Templates:     templates,
		Notifications: sqlstore.NewNotificationRepo(db),
		Gateway:       logpush.NewGateway(),
		Verifier:      provider,
	})
	return &testServer{t: t, router: router, jwt: provider}
}

func (s *testServer) do(method, path, userID, role string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.1.1.1:5000"
	if userID != "" {
		token, err := s.jwt.Sign(userID, role)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/v1/health-check/ping", "", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/v1/notifications/unread", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_DispatchIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodPost, "/v1/notifications/dispatch", "u1", domain.RoleUser, map[string]any{
		"template": "welcome", "user_ids": []string{"u1"},
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_DispatchThenReadFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/v1/endpoints", "resident", domain.RoleUser, map[string]string{"token": "device-token-1"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = s.do(http.MethodPost, "/v1/notifications/dispatch", "manager", domain.RoleAdmin, map[string]any{
		"template": "welcome",
		"params":   map[string]string{"name": "Ana"},
		"user_ids": []string{"resident", "resident", "no-devices"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var env handler.DispatchEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.Len(t, env.Report.Recipients, 2)
	assert.Equal(t, 1, env.Report.Recipients[0].Delivered)
	assert.Equal(t, 0, env.Report.Recipients[1].Attempted)

	rr = s.do(http.MethodGet, "/v1/notifications/unread-count", "resident", domain.RoleUser, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"unread_count":1}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/v1/notifications/unread", "resident", domain.RoleUser, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var unread []domain.Notification
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&unread))
	require.Len(t, unread, 1)
	assert.Equal(t, "Hello Ana", unread[0].Body)

	rr = s.do(http.MethodPut, "/v1/notifications/"+unread[0].NotificationID+"/read", "no-devices", domain.RoleUser, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPut, "/v1/notifications/"+unread[0].NotificationID+"/read", "resident", domain.RoleUser, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/v1/notifications/unread-count", "resident", domain.RoleUser, nil)
	assert.JSONEq(t, `{"unread_count":0}`, rr.Body.String())
}

func TestRouter_DispatchMissingParameter(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodPost, "/v1/notifications/dispatch", "manager", domain.RoleAdmin, map[string]any{
		"template": "welcome",
		"user_ids": []string{"resident"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(http.MethodGet, "/v1/notifications/unread-count", "resident", domain.RoleUser, nil)
	assert.JSONEq(t, `{"unread_count":0}`, rr.Body.String())
}
