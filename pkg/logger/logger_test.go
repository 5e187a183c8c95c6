package logger

import (
	"context"
	"errors"
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	tracecontext "cih-portal/pkg/context"
)

func observed(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLogger(zap.New(core)), logs
}

func TestLoggerAddsRequestID(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	ctx := tracecontext.WithRequestID(context.Background(), "req-1")

	l.Info(ctx, "posts loaded", F("count", 3))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "posts loaded", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.EqualValues(t, 3, fields["count"])
}

func TestLoggerAddsTraceContextFields(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)
	ctx := tracecontext.WithPostSlug(context.Background(), "feria-ambiental")
	ctx = tracecontext.WithCarousel(ctx, "portada")
	ctx = tracecontext.WithCategory(ctx, "Noticias")

	l.Warn(ctx, "Recent posts unavailable for detail view")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "feria-ambiental", fields["post_slug"])
	assert.Equal(t, "portada", fields["carousel"])
	assert.Equal(t, "Noticias", fields["category"])
	assert.NotContains(t, fields, "request_id")
}

func TestLoggerRespectsLevel(t *testing.T) {
	l, logs := observed(zapcore.WarnLevel)

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestLoggerWithAndErrors(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	l.With(F("component", "carousel")).Error(context.Background(), "tick failed", F("error", errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "carousel", fields["component"])
	assert.Equal(t, "boom", fields["error"])
}

func TestKratosAdapter(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)
	kl := NewKratosLogger(l)

	require.NoError(t, kl.Log(kratoslog.LevelWarn, "msg", "slow upstream", "latency", "2s"))
	require.NoError(t, kl.Log(kratoslog.LevelInfo))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "slow upstream", entry.Message)
	assert.Equal(t, "2s", entry.ContextMap()["latency"])
}
