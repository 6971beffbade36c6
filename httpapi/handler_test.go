package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/authcore"
	"github.com/clinichub/authcore/middleware"
	"github.com/clinichub/authcore/store/memory"
)

type apiClock struct {
	now time.Time
}

func (c *apiClock) Now() time.Time { return c.now }

type apiEnv struct {
	router  chi.Router
	engine  *authcore.Engine
	clock   *apiClock
	metrics *Metrics
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	clock := &apiClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	cfg := authcore.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Now = clock.Now

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithStore(memory.New()).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	metrics := NewMetrics(prometheus.NewRegistry())
	handler := NewHandler(nil, engine, metrics)

	router := chi.NewRouter()
	handler.MountRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Guard(engine, authcore.RolePatient))
		r.Get("/records/mine", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.Guard(engine, authcore.RoleAdmin))
		r.Get("/admin/principals", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	return &apiEnv{router: router, engine: engine, clock: clock, metrics: metrics}
}

func (env *apiEnv) post(t *testing.T, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *apiEnv) get(t *testing.T, path, accessToken string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *apiEnv) registerAna(t *testing.T) {
	t.Helper()

	rec := env.post(t, "/auth/register", map[string]string{
		"name":       "Ana",
		"email":      "ana@x.com",
		"password":   "pw123456",
		"role":       "patient",
		"birth_date": "1990-04-12",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (env *apiEnv) loginAna(t *testing.T) tokenResponse {
	t.Helper()

	rec := env.post(t, "/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "pw123456",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestRegisterLoginAndRoleEnforcement(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)

	// Registering the same email again conflicts.
	rec := env.post(t, "/auth/register", map[string]string{
		"name": "Ana Again", "email": "ana@x.com", "password": "different1", "role": "patient",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	pair := env.loginAna(t)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)

	assert.Equal(t, http.StatusOK, env.get(t, "/records/mine", pair.AccessToken).Code)
	assert.Equal(t, http.StatusForbidden, env.get(t, "/admin/principals", pair.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/records/mine", "").Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newAPIEnv(t)

	cases := []map[string]string{
		{"email": "a@x.com", "password": "pw123456", "role": "patient"},               // no name
		{"name": "A", "email": "not-an-email", "password": "pw123456", "role": "patient"},
		{"name": "A", "email": "a@x.com", "password": "short", "role": "patient"},
		{"name": "A", "email": "a@x.com", "password": "pw123456", "role": "superuser"},
	}
	for _, body := range cases {
		rec := env.post(t, "/auth/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	rec := env.post(t, "/auth/register", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFailureIsOpaque(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)

	unknown := env.post(t, "/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "whatever1",
	}, nil)
	wrongPass := env.post(t, "/auth/login", map[string]string{
		"email": "ana@x.com", "password": "wrongpass",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	// Identical bodies: the response never reveals whether the email exists.
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestLogoutFlow(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)
	pair := env.loginAna(t)

	auth := map[string]string{"Authorization": "Bearer " + pair.AccessToken}

	require.Equal(t, http.StatusOK, env.get(t, "/records/mine", pair.AccessToken).Code)
	require.Equal(t, http.StatusNoContent, env.post(t, "/auth/logout", nil, auth).Code)

	// The revoked token no longer opens protected routes.
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/records/mine", pair.AccessToken).Code)

	// A second logout of the same token conflicts.
	assert.Equal(t, http.StatusConflict, env.post(t, "/auth/logout", nil, auth).Code)

	// Logout without a token is unauthorized.
	assert.Equal(t, http.StatusUnauthorized, env.post(t, "/auth/logout", nil, nil).Code)
}

func TestExpiryAndRefresh(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)
	pair := env.loginAna(t)

	env.clock.now = env.clock.now.Add(16 * time.Minute)

	// Access token aged out.
	require.Equal(t, http.StatusUnauthorized, env.get(t, "/records/mine", pair.AccessToken).Code)

	rec := env.post(t, "/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var renewed tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
	assert.NotEqual(t, pair.AccessToken, renewed.AccessToken)
	assert.Equal(t, http.StatusOK, env.get(t, "/records/mine", renewed.AccessToken).Code)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)
	pair := env.loginAna(t)

	cases := []string{"", "not.a.token", pair.AccessToken}
	for _, tok := range cases {
		rec := env.post(t, "/auth/refresh", map[string]string{"refresh_token": tok}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "token %q", tok)
	}
}

func TestMetricsCountOperations(t *testing.T) {
	env := newAPIEnv(t)
	env.registerAna(t)
	env.loginAna(t)
	env.post(t, "/auth/login", map[string]string{"email": "ana@x.com", "password": "bad-secret"}, nil)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.requests.WithLabelValues("register", "ok")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.requests.WithLabelValues("login", "ok")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.requests.WithLabelValues("login", "error")))
}
