package telemetry

import (
	"context"

	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guillermoBallester/sqlgate"

var _ port.Instrumentation = (*Instruments)(nil)

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	QueryCount     metric.Int64Counter
	QueryDuration  metric.Float64Histogram
	QueryErrors    metric.Int64Counter
	Rejections     metric.Int64Counter
	CountFallbacks metric.Int64Counter
	CacheLookups   metric.Int64Counter
	ToolDuration   metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return newInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	queryCount, _ := meter.Int64Counter("sqlgate.query.count",
		metric.WithDescription("Total number of paged queries executed"),
	)
	queryDuration, _ := meter.Float64Histogram("sqlgate.query.duration",
		metric.WithDescription("Page query execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	queryErrors, _ := meter.Int64Counter("sqlgate.query.errors",
		metric.WithDescription("Total number of failed page queries"),
	)
	rejections, _ := meter.Int64Counter("sqlgate.query.rejections",
		metric.WithDescription("Queries refused by the safety policy"),
	)
	countFallbacks, _ := meter.Int64Counter("sqlgate.query.count_fallbacks",
		metric.WithDescription("Count queries that failed and were replaced by the page row count"),
	)
	cacheLookups, _ := meter.Int64Counter("sqlgate.cache.lookups",
		metric.WithDescription("SQL cache lookups by outcome"),
	)
	toolDuration, _ := meter.Float64Histogram("sqlgate.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		QueryCount:     queryCount,
		QueryDuration:  queryDuration,
		QueryErrors:    queryErrors,
		Rejections:     rejections,
		CountFallbacks: countFallbacks,
		CacheLookups:   cacheLookups,
		ToolDuration:   toolDuration,
	}
}

func (i *Instruments) RecordQueryDuration(ctx context.Context, ms float64) {
	i.QueryDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementQueryCount(ctx context.Context) {
	i.QueryCount.Add(ctx, 1)
}

func (i *Instruments) IncrementQueryErrors(ctx context.Context) {
	i.QueryErrors.Add(ctx, 1)
}

func (i *Instruments) IncrementRejections(ctx context.Context) {
	i.Rejections.Add(ctx, 1)
}

func (i *Instruments) IncrementCountFallbacks(ctx context.Context) {
	i.CountFallbacks.Add(ctx, 1)
}

func (i *Instruments) RecordCacheLookup(ctx context.Context, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	i.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.outcome", outcome)))
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
