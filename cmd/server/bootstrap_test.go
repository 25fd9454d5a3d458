package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careapp/carecoord/internal/app"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := app.LoadConfig(dir)
	require.NoError(t, err)

	cfg.Database.Path = filepath.Join(dir, "carecoord.sqlite")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	cfg.Auth.JWT.Secret = "bootstrap-secret"
	return cfg
}

func TestBootstrapRuntime(t *testing.T) {
	cfg := testConfig(t)

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.NotNil(t, stack.DB)
	require.Nil(t, stack.Redis)
	require.NotNil(t, stack.RateStore)
	require.NotNil(t, stack.Runner)
	require.NotNil(t, stack.Services)

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"UP"`)

	require.DirExists(t, filepath.Join(cfg.Storage.UploadDir, "worker-photos"))
}

func TestBootstrapRuntimeFallsBackWhenRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Redis.Enabled = true
	cfg.Cache.Redis.Address = "127.0.0.1:1"

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.Nil(t, stack.Redis)
	require.NotNil(t, stack.RateStore)
}

func TestBootstrapRuntimeRejectsInvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.RecurringSchedule = "every day"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "start maintenance jobs")
}

func TestShutdownIsIdempotent(t *testing.T) {
	var nilStack *runtimeStack
	nilStack.Shutdown(context.Background(), zap.NewNop())

	cfg := testConfig(t)
	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	stack.Shutdown(context.Background(), zap.NewNop())
	stack.Shutdown(context.Background(), zap.NewNop())
	require.Nil(t, stack.DB)
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9191\n"), 0o600))

	cfg, err := loadApplicationConfig(file)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	cfg, err = loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	_, err = loadApplicationConfig(filepath.Join(dir, "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(""))
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CARECOORD_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Setenv("CARECOORD_TEST_ENV_VALUE", "")
	require.NoError(t, os.Unsetenv("CARECOORD_TEST_ENV_VALUE"))

	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv("CARECOORD_TEST_ENV_VALUE"))
}
