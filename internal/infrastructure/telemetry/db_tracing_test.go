package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := DBTracingConfigFrom(config.TelemetryConfig{
		Enabled:           true,
		DBTraceEnabled:    true,
		DBSlowQueryThresh: time.Second,
	}, "sqlite")
	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, "sqlite", cfg.DBSystem)

	off := DBTracingConfigFrom(config.TelemetryConfig{DBTraceEnabled: true}, "postgres")
	assert.False(t, off.Enabled, "database tracing needs telemetry enabled")
	assert.Equal(t, "postgresql", off.DBSystem)
}

func TestDBTracingPlugin_Register(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := setupTracingDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{}, nil)
		require.NoError(t, p.Register(db))
		assert.Nil(t, db.Callback().Query().Get("otel_annotate:after"))
	})

	t.Run("enabled installs callbacks", func(t *testing.T) {
		db := setupTracingDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
		require.NoError(t, p.Register(db))

		assert.NotNil(t, db.Callback().Query().Get("otel_annotate:after"))
		assert.NotNil(t, db.Callback().Create().Get("otel_timing:before"))
		require.NoError(t, db.Create(&tracedRow{Name: "x"}).Error)
	})
}

func TestDBTracingPlugin_Annotate(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	db := setupTracingDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 10 * time.Millisecond}, nil)

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	stmt := db.Session(&gorm.Session{NewDB: true})
	stmt.Statement.Context = ctx
	stmt.Statement.Table = "products"
	stmt.Statement.RowsAffected = 3
	stmt.Error = gorm.ErrInvalidData

	p.annotate(stmt)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)

	attrs := map[attribute.Key]attribute.Value{}
	for _, a := range ended[0].Attributes() {
		attrs[a.Key] = a.Value
	}
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.Equal(t, "products", attrs["db.sql.table"].AsString())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	var names []string
	for _, e := range ended[0].Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "slow_query_warning")
}

func TestDBTracingPlugin_AnnotateIgnoresNotFound(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	db := setupTracingDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
	stmt := db.Session(&gorm.Session{NewDB: true})
	stmt.Statement.Context = ctx
	stmt.Error = gorm.ErrRecordNotFound

	p.annotate(stmt)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
}
