package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNoopTracer(t *testing.T) {
	tracer := NoopTracer()
	assert.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test")
	assert.NotNil(t, span)
	span.End()
}

func TestNoopInstruments(t *testing.T) {
	inst := NoopInstruments()
	require.NotNil(t, inst)

	// Should not panic.
	ctx := context.Background()
	inst.IncrementQueryCount(ctx)
	inst.RecordQueryDuration(ctx, 100.0)
	inst.IncrementRejections(ctx)
	inst.IncrementCountFallbacks(ctx)
	inst.RecordCacheLookup(ctx, true)
	inst.RecordToolDuration(ctx, 3.0)
}

func TestProvider_Shutdown_Nil(t *testing.T) {
	var p *Provider
	err := p.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestSpanRecording(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test")

	ctx := context.Background()
	_, span := tracer.Start(ctx, "Gateway.Execute")
	span.SetAttributes(attribute.String("db.system", "mysql"))
	span.End()

	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "Gateway.Execute", spans[0].Name)
}

func TestInstruments_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst := newInstrumentsFromMeter(mp.Meter("test"))

	ctx := context.Background()
	inst.IncrementQueryCount(ctx)
	inst.IncrementQueryCount(ctx)
	inst.IncrementRejections(ctx)
	inst.IncrementCountFallbacks(ctx)
	inst.RecordCacheLookup(ctx, true)
	inst.RecordCacheLookup(ctx, false)
	inst.RecordCacheLookup(ctx, false)
	inst.RecordQueryDuration(ctx, 12)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum := func(name string) int64 {
		t.Helper()
		m, ok := byName[name]
		require.True(t, ok, "metric %s not collected", name)
		data, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		var total int64
		for _, dp := range data.DataPoints {
			total += dp.Value
		}
		return total
	}

	assert.Equal(t, int64(2), sum("sqlgate.query.count"))
	assert.Equal(t, int64(1), sum("sqlgate.query.rejections"))
	assert.Equal(t, int64(1), sum("sqlgate.query.count_fallbacks"))
	assert.Equal(t, int64(3), sum("sqlgate.cache.lookups"))

	lookups := byName["sqlgate.cache.lookups"].Data.(metricdata.Sum[int64])
	assert.Len(t, lookups.DataPoints, 2, "hit and miss are separate series")

	_, ok := byName["sqlgate.query.duration"]
	assert.True(t, ok)
}

func TestNewResource_DescribesGateway(t *testing.T) {
	res, err := newResource(context.Background(), Options{
		ServiceName: "sqlgate",
		Version:     "1.2.3",
		DBSystem:    "mysql",
		Driver:      "mysql",
		Transport:   "http",
		DryRun:      true,
	})
	require.NoError(t, err)

	set := res.Set()
	tests := []struct {
		key  attribute.Key
		want attribute.Value
	}{
		{semconv.ServiceNameKey, attribute.StringValue("sqlgate")},
		{semconv.ServiceVersionKey, attribute.StringValue("1.2.3")},
		{semconv.DBSystemKey, attribute.StringValue("mysql")},
		{"sqlgate.db.driver", attribute.StringValue("mysql")},
		{"sqlgate.transport", attribute.StringValue("http")},
		{"sqlgate.dry_run", attribute.BoolValue(true)},
	}
	for _, tt := range tests {
		got, ok := set.Value(tt.key)
		require.True(t, ok, string(tt.key))
		assert.Equal(t, tt.want, got, string(tt.key))
	}
}

func TestOptions_OmitsEmptyFields(t *testing.T) {
	attrs := Options{ServiceName: "sqlgate", Version: "dev"}.attributes()
	for _, kv := range attrs {
		assert.NotEqual(t, semconv.DBSystemKey, kv.Key)
		assert.NotEqual(t, attribute.Key("sqlgate.transport"), kv.Key)
	}
	assert.Len(t, attrs, 3)
}
