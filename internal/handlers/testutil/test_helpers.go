package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/api"
	"github.com/careapp/carecoord/internal/app"
	iauth "github.com/careapp/carecoord/internal/auth"
	sharedtestutil "github.com/careapp/carecoord/internal/database/testutil"
	"github.com/careapp/carecoord/internal/middleware"
	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/mail"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T         *testing.T
	DB        *gorm.DB
	Router    *gin.Engine
	JWT       *iauth.JWTService
	Mailer    *mail.MemoryMailer
	UploadDir string
	Config    *app.Config
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{
			RateLimit: app.RateLimitConfig{Requests: 10000, Window: time.Minute},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			PasswordResetTTL: 15 * time.Minute,
		},
		Invites: app.InviteConfig{Expiry: 7 * 24 * time.Hour, CodeLength: 8},
		Storage: app.StorageConfig{UploadDir: t.TempDir(), PublicPath: "/uploads"},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	photos, err := storage.NewFilesystemPhotoStore(cfg.Storage.UploadDir, cfg.Storage.PublicPath)
	require.NoError(t, err)

	rateStore := middleware.NewMemoryRateStore()
	t.Cleanup(rateStore.Close)

	mailer := mail.NewMemoryMailer()
	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		JWT:       jwtSvc,
		Config:    cfg,
		RateStore: rateStore,
		Photos:    photos,
		Mailer:    mailer,
	})
	require.NoError(t, err)

	return &Env{
		T:         t,
		DB:        db,
		Router:    router,
		JWT:       jwtSvc,
		Mailer:    mailer,
		UploadDir: cfg.Storage.UploadDir,
		Config:    cfg,
	}
}

// APIResponse represents the {code,msg,data} envelope returned by handlers.
type APIResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// OK reports whether the envelope carries the success code.
func (r APIResponse) OK() bool {
	return r.Code == "200"
}

// DecodeResponse parses the envelope from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON-encoding body and adding headers.
func (e *Env) Request(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Call performs a request and decodes its envelope, asserting the transport status is 200.
func (e *Env) Call(method, path string, body any, headers map[string]string) APIResponse {
	e.T.Helper()
	w := e.Request(method, path, body, headers)
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	return DecodeResponse(e.T, w)
}

// Bearer returns an Authorization header map for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
