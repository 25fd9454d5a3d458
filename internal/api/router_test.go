package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/careapp/carecoord/internal/app"
	iauth "github.com/careapp/carecoord/internal/auth"
	testutil "github.com/careapp/carecoord/internal/database/testutil"
	"github.com/careapp/carecoord/internal/storage"
)

func newTestDependencies(t *testing.T) Dependencies {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-secret", Issuer: "test", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	uploads := t.TempDir()
	photos, err := storage.NewFilesystemPhotoStore(uploads, "/uploads")
	require.NoError(t, err)

	return Dependencies{
		DB:     db,
		JWT:    jwtSvc,
		Photos: photos,
		Config: &app.Config{
			Storage:    app.StorageConfig{UploadDir: uploads, PublicPath: "/uploads"},
			Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true}},
		},
	}
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	deps := newTestDependencies(t)

	cases := map[string]func(d *Dependencies){
		"db":     func(d *Dependencies) { d.DB = nil },
		"jwt":    func(d *Dependencies) { d.JWT = nil },
		"config": func(d *Dependencies) { d.Config = nil },
		"photos": func(d *Dependencies) { d.Photos = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			broken := deps
			mutate(&broken)
			_, err := NewRouter(broken)
			require.Error(t, err)
		})
	}
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router, err := NewRouter(newTestDependencies(t))
	require.NoError(t, err)

	cases := []struct {
		method string
		path   string
		code   string
	}{
		{http.MethodGet, "/api/health", `"code":"200"`},
		{http.MethodGet, "/api/auth/me", `"code":"401"`},
		{http.MethodGet, "/api/schedules/validate?workerId=w1&date=2024-03-04&shiftType=morning", `"code":"200"`},
		{http.MethodGet, "/api/tasks/today", `"code":"200"`},
		{http.MethodGet, "/api/tasks/recurring", `"code":"200"`},
		{http.MethodGet, "/api/workers/organization/org-1/without-photos", `"code":"200"`},
		{http.MethodGet, "/api/invite/patient/p1", `"code":"200"`},
		{http.MethodGet, "/api/patients/authorized/u1?userType=FM", `"code":"200"`},
		{http.MethodGet, "/api/notifications/unread/count", `"code":"200"`},
		{http.MethodGet, "/api/notifications/stream", `"code":"401"`},
		{http.MethodGet, "/api/task-requests/pending/organization/null", `"code":"400"`},
		{http.MethodGet, "/api/messages/inbox", `"code":"200"`},
		{http.MethodGet, "/api/unknown", `"code":"404"`},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	deps := newTestDependencies(t)
	deps.Config.Monitoring.Prometheus.Endpoint = "internal/metrics"
	router, err := NewRouter(deps)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "carecoord_api_latency_seconds")
}

func TestRouterMetricsDisabled(t *testing.T) {
	deps := newTestDependencies(t)
	deps.Config.Monitoring.Prometheus.Enabled = false
	router, err := NewRouter(deps)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), `"code":"404"`)
}

func TestRouterRateLimit(t *testing.T) {
	deps := newTestDependencies(t)
	deps.Config.Server.RateLimit = app.RateLimitConfig{Requests: 2, Window: time.Minute}
	router, err := NewRouter(deps)
	require.NoError(t, err)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(last, req)
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Contains(t, last.Body.String(), `"code":"429"`)
}

func TestPublicPath(t *testing.T) {
	require.Equal(t, "/uploads", publicPath(""))
	require.Equal(t, "/uploads", publicPath("/"))
	require.Equal(t, "/files", publicPath("files/"))
}

func TestNewServicesRequiresDB(t *testing.T) {
	_, err := NewServices(nil, &app.Config{}, nil, nil)
	require.Error(t, err)
}
