package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDGeneratedWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	id := GetRequestID(ctx)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestExtractTraceContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithTraceID(ctx, "trace-42")
	ctx = WithPostSlug(ctx, "feria-ambiental")
	ctx = WithCategory(ctx, "Noticias")
	ctx = WithCarousel(ctx, "portada")
	ctx = WithSessionID(ctx, "")
	ctx = WithClientInfo(ctx, "10.0.0.7", "Mozilla/5.0")

	tc := ExtractTraceContext(ctx)
	assert.Equal(t, "req-42", tc.RequestID)
	assert.Equal(t, "trace-42", tc.TraceID)
	assert.Empty(t, tc.SessionID)
	assert.Equal(t, map[string]interface{}{
		"trace_id":   "trace-42",
		"request_id": "req-42",
		"post_slug":  "feria-ambiental",
		"category":   "Noticias",
		"carousel":   "portada",
		"client_ip":  "10.0.0.7",
	}, tc.ToMap())
}
