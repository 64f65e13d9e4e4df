package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	sql := func() (string, int64) {
		return "SELECT * FROM petty_cash_boxes", 3
	}

	t.Run("logs query at debug when level is info", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)

		gl.Trace(context.Background(), time.Now(), sql, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "SQL Query", entry.Message)
		assert.Equal(t, "SELECT * FROM petty_cash_boxes", entry.ContextMap()["sql"])
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), sql, errors.New("db down"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("errors are logged", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), sql, errors.New("db down"))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SQL Error", logs.All()[0].Message)
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("record not found can be surfaced", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error,
			WithIgnoreRecordNotFoundError(false))

		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow queries are warned", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn,
			WithSlowThreshold(time.Nanosecond))

		gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})
}

func TestGormLoggerLogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Warn)
	changed := gl.LogMode(gormlogger.Silent)
	assert.NotSame(t, gl, changed)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, MapGormLogLevel(input), input)
	}
}
