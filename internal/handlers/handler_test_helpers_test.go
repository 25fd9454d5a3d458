package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errDB = errors.New("DB Error")

// envelope decodes a reply while keeping data raw for typed assertions.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type requestOption func(*http.Request)

func withHeader(name, value string) requestOption {
	return func(req *http.Request) { req.Header.Set(name, value) }
}

// serve mounts handler at pattern on a fresh engine, sends one request to target and
// decodes the envelope. Every envelope reply travels with transport status 200.
func serve(t *testing.T, method, pattern string, handler gin.HandlerFunc, target string, body any, opts ...requestOption) envelope {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Handle(method, pattern, handler)

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func requireFailure(t *testing.T, env envelope, code, msg string) {
	t.Helper()
	require.Equal(t, code, env.Code)
	require.Equal(t, msg, env.Msg)
	require.Equal(t, "null", string(env.Data))
}
