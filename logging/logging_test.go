package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	return entry
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("apiUsuarios", "1.0.0", "json", &buf)

	logger.Info("test message")

	entry := decode(t, &buf)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "apiUsuarios", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.NotContains(t, entry, "request_id")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("apiUsuarios", "dev", "text", &buf)

	logger.Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "service=apiUsuarios")
}

func TestHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("apiUsuarios", "dev", "json", &buf).With("component", "test")

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "handled")

	entry := decode(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("apiUsuarios", "dev", "json", &buf)

	err := oops.Code("LOGIN_FAILED").With("usuario_id", 7).Errorf("store unavailable")
	LogError(context.Background(), logger, "login failed", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "login failed", entry["msg"])
	assert.Equal(t, "LOGIN_FAILED", entry["code"])
	assert.Contains(t, entry["error"], "store unavailable")
	require.Contains(t, entry, "context")
	assert.Equal(t, float64(7), entry["context"].(map[string]any)["usuario_id"])
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("apiUsuarios", "dev", "json", &buf)

	LogError(context.Background(), logger, "boom", errors.New("plain failure"))

	entry := decode(t, &buf)
	assert.Equal(t, "plain failure", entry["error"])
	assert.NotContains(t, entry, "code")
}
