package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestWithContext(t *testing.T) {
	log := zap.NewNop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestFromContextMissing(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
}

func TestWithRequestID(t *testing.T) {
	log, logs := observedLogger()
	ctx, enriched := WithRequestID(context.Background(), log, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))

	enriched.Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])
}

func TestWithUserID(t *testing.T) {
	log, _ := observedLogger()
	ctx, _ := WithUserID(context.Background(), log, "user-7")
	assert.Equal(t, "user-7", GetUserID(ctx))
}

func TestContextLogger(t *testing.T) {
	t.Run("enriches with request and user id", func(t *testing.T) {
		log, logs := observedLogger()
		ctx := WithContext(context.Background(), log)
		ctx, _ = WithRequestID(ctx, log, "req-42")
		ctx, _ = WithUserID(ctx, log, "user-9")

		L(ctx).Info("posting movement")

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0].ContextMap()
		assert.Equal(t, "req-42", entry["request_id"])
		assert.Equal(t, "user-9", entry["user_id"])
	})

	t.Run("nop logger when context is empty", func(t *testing.T) {
		assert.NotPanics(t, func() {
			L(context.Background()).Info("ignored")
		})
	})

	t.Run("WithLogger uses provided logger", func(t *testing.T) {
		log, logs := observedLogger()
		WithLogger(context.Background(), log).Warn("low balance")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "low balance", logs.All()[0].Message)
	})

	t.Run("With adds fields to children", func(t *testing.T) {
		log, logs := observedLogger()
		cl := WithLogger(context.Background(), log).With(zap.String("box", "caja-general"))
		cl.Info("ok")
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "caja-general", logs.All()[0].ContextMap()["box"])
	})
}
