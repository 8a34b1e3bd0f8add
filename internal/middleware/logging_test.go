package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("down"))
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/records", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/records", line["path"])
	assert.InDelta(t, 502, line["status"], 0)
	assert.InDelta(t, 4, line["bytes"], 0)
	assert.Equal(t, "req-1", line["request_id"])
}

func TestLogging_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.InDelta(t, 200, line["status"], 0)
}

func TestLogging_PrincipalFromInnerAuth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)

	h := Logging(logger)(Auth(v)(okHandler()))
	req := httptest.NewRequest(http.MethodPost, "/api/records", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": "ana",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ana", line["principal"])
}

func TestLogging_NoPrincipalWhenUnauthorized(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	v, err := NewHS256Validator(testSecret)
	require.NoError(t, err)

	h := Logging(logger)(Auth(v)(okHandler()))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/records", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.NotContains(t, line, "principal")
}
