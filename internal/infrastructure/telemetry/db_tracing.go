package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database query tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (development only)
	SlowQueryThresh time.Duration // queries above this get a slow_query event
	DBSystem        string
}

// DefaultDBTracingConfig returns the default database tracing configuration.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracing registers the otelgorm plugin plus a slow-query callback on a
// GORM instance, so treasury and tithe database work shows up under the
// HTTP request spans.
type DBTracing struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracing creates a database tracing registrar.
func NewDBTracing(cfg DBTracingConfig, logger *zap.Logger) *DBTracing {
	return &DBTracing{config: cfg, logger: logger}
}

// Register installs the otelgorm plugin and timing callbacks. It is a no-op
// when tracing is disabled.
func (t *DBTracing) Register(db *gorm.DB) error {
	if !t.config.Enabled {
		t.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(t.config.DBSystem),
	}
	if !t.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := t.registerTimingCallbacks(db); err != nil {
		return err
	}

	t.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", t.config.LogFullSQL),
		zap.Duration("slow_query_threshold", t.config.SlowQueryThresh),
	)
	return nil
}

type dbTracingContextKey string

const queryStartKey dbTracingContextKey = "query_start_time"

func (t *DBTracing) registerTimingCallbacks(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
		}
	}

	regs := []func() error{
		func() error { return db.Callback().Create().Before("gorm:create").Register("otel_timing:before_create", before) },
		func() error { return db.Callback().Query().Before("gorm:query").Register("otel_timing:before_query", before) },
		func() error { return db.Callback().Update().Before("gorm:update").Register("otel_timing:before_update", before) },
		func() error { return db.Callback().Delete().Before("gorm:delete").Register("otel_timing:before_delete", before) },
		func() error { return db.Callback().Row().Before("gorm:row").Register("otel_timing:before_row", before) },
		func() error { return db.Callback().Raw().Before("gorm:raw").Register("otel_timing:before_raw", before) },
		func() error {
			return db.Callback().Create().After("gorm:create").Register("otel_timing:after_create", t.afterQuery)
		},
		func() error { return db.Callback().Query().After("gorm:query").Register("otel_timing:after_query", t.afterQuery) },
		func() error {
			return db.Callback().Update().After("gorm:update").Register("otel_timing:after_update", t.afterQuery)
		},
		func() error {
			return db.Callback().Delete().After("gorm:delete").Register("otel_timing:after_delete", t.afterQuery)
		},
		func() error { return db.Callback().Row().After("gorm:row").Register("otel_timing:after_row", t.afterQuery) },
		func() error { return db.Callback().Raw().After("gorm:raw").Register("otel_timing:after_raw", t.afterQuery) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

// afterQuery annotates the active span with row counts, errors and slow-query
// events. Record-not-found is a normal outcome, not an error.
func (t *DBTracing) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartKey).(time.Time); ok {
		elapsed := time.Since(start)
		if elapsed > t.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", t.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
