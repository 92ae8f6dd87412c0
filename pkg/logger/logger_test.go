package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewJSONHandler(buf, nil)))
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestContextHandler_AddsContextValues(t *testing.T) {
	testCases := []struct {
		name     string
		ctx      context.Context
		expected map[string]string
		missing  []string
	}{
		{
			name:    "no values",
			ctx:     context.Background(),
			missing: []string{"request_id", "session_id", "trace_id"},
		},
		{
			name:     "request id",
			ctx:      context.WithValue(context.Background(), middleware.RequestIDKey, "req-1"),
			expected: map[string]string{"request_id": "req-1"},
			missing:  []string{"session_id"},
		},
		{
			name: "request and session id",
			ctx: WithSessionID(
				context.WithValue(context.Background(), middleware.RequestIDKey, "req-2"), "sess-2"),
			expected: map[string]string{"request_id": "req-2", "session_id": "sess-2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := newTestLogger(&buf)

			// when
			log.InfoContext(tc.ctx, "hello")

			// then
			rec := decode(t, &buf)
			for k, v := range tc.expected {
				assert.Equal(t, v, rec[k])
			}
			for _, k := range tc.missing {
				assert.NotContains(t, rec, k)
			}
		})
	}
}

func TestContextHandler_WithAttrsKeepsWrapping(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := newTestLogger(&buf).With("component", "test")
	ctx := WithSessionID(context.Background(), "abc")

	// when
	log.InfoContext(ctx, "hello")

	// then
	rec := decode(t, &buf)
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "abc", rec["session_id"])
}

func TestSessionID_EmptyIsAbsent(t *testing.T) {
	_, ok := SessionID(WithSessionID(context.Background(), ""))
	assert.False(t, ok)
}
