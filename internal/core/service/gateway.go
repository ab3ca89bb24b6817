package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for audit logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// ExecuteRequest is one execute_query call. Zero Page and PageSize select the defaults.
type ExecuteRequest struct {
	SQL         string
	Page        int
	PageSize    int
	Description string
}

// GatewayDeps holds the collaborators of a Gateway. Validator, Executor and
// Cache are required; the rest default to no-ops.
type GatewayDeps struct {
	Validator       port.QueryValidator
	Executor        port.QueryExecutor
	Cache           port.SQLCache
	Auditor         port.QueryAuditor
	Logger          *slog.Logger
	Tracer          trace.Tracer
	Instrumentation port.Instrumentation
	Hints           *domain.HintMatcher
	Dialect         domain.Dialect
	// DBSystem is reported as the db.system span attribute.
	DBSystem string
}

// Gateway validates, paginates, executes and formats read-only queries and
// owns the description to SQL cache.
type Gateway struct {
	validator port.QueryValidator
	executor  port.QueryExecutor
	cache     port.SQLCache
	auditor   port.QueryAuditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
	hints     *domain.HintMatcher
	dialect   domain.Dialect
	dbSystem  string
	newID     func() string
}

func NewGateway(deps GatewayDeps) *Gateway {
	g := &Gateway{
		validator: deps.Validator,
		executor:  deps.Executor,
		cache:     deps.Cache,
		auditor:   deps.Auditor,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		inst:      deps.Instrumentation,
		hints:     deps.Hints,
		dialect:   deps.Dialect,
		dbSystem:  deps.DBSystem,
		newID:     uuid.NewString,
	}
	if g.auditor == nil {
		g.auditor = port.NoopAuditor{}
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.tracer == nil {
		g.tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if g.inst == nil {
		g.inst = port.NoopInstrumentation{}
	}
	if g.dbSystem == "" {
		g.dbSystem = "other_sql"
	}
	return g
}

// Execute runs one query through the pipeline. It never returns an error:
// every outcome, including rejection and execution failure, is a Report.
func (g *Gateway) Execute(ctx context.Context, req ExecuteRequest) (report *domain.Report) {
	requestID := g.newID()
	logger := g.logger.With(slog.String("request.id", requestID))

	ctx, span := g.tracer.Start(ctx, "Gateway.Execute",
		trace.WithAttributes(
			attribute.String("db.system", g.dbSystem),
			attribute.String("db.operation.name", "query"),
			attribute.String("db.statement", req.SQL),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "panic in gateway", slog.Any("panic", r))
			span.SetStatus(codes.Error, "panic")
			g.inst.IncrementQueryErrors(ctx)
			report = domain.RenderError(req.SQL, "internal error")
		}
		report.RequestID = requestID
	}()

	if err := g.validator.Check(req.SQL); err != nil {
		logger.WarnContext(ctx, "query validation rejected",
			slog.String("db.operation.name", "query"),
			slog.String("db.statement", req.SQL),
			slog.String("error.type", "validation_error"),
			slog.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.inst.IncrementRejections(ctx)
		return domain.RenderRejected(req.SQL, err)
	}

	sql := domain.Normalize(req.SQL)
	if strings.TrimSpace(req.Description) != "" {
		entry := g.cache.Put(req.Description, sql)
		logger.DebugContext(ctx, "cached query", slog.String("cache.key", entry.Key))
	}

	page := domain.NewPageRequest(req.Page, req.PageSize)
	countSQL := domain.BuildCountQuery(sql)
	pagedSQL := domain.BuildPageQuery(sql, page, g.dialect)
	span.SetAttributes(
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size),
	)

	var (
		rows      []domain.Row
		total     int64
		countErr  error
		elapsedMS int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// A failed count never fails the call.
		countErr = protect(func() (err error) {
			total, err = g.executor.RunCount(egCtx, countSQL)
			return err
		})
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		err := protect(func() (err error) {
			rows, err = g.executor.RunPage(egCtx, pagedSQL)
			return err
		})
		elapsedMS = time.Since(start).Milliseconds()
		return err
	})
	err := eg.Wait()

	g.inst.RecordQueryDuration(ctx, float64(elapsedMS))

	if err == nil && countErr != nil {
		logger.WarnContext(ctx, "count query failed, using page size as total",
			slog.String("db.statement", countSQL),
			slog.String("error.message", countErr.Error()),
		)
		g.inst.IncrementCountFallbacks(ctx)
		total = int64(len(rows))
	}

	g.auditor.Record(ctx, port.AuditEntry{
		RequestID:    requestID,
		Tool:         toolNameFromCtx(ctx),
		SQL:          sql,
		PagedSQL:     pagedSQL,
		Page:         page.Page,
		PageSize:     page.Size,
		RowsReturned: len(rows),
		Total:        total,
		CountFailed:  countErr != nil,
		DurationMS:   elapsedMS,
		Err:          err,
	})

	if err != nil {
		logger.ErrorContext(ctx, "query execution failed",
			slog.String("db.statement", pagedSQL),
			slog.String("error.type", errorType(err)),
			slog.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.inst.IncrementQueryErrors(ctx)
		msg := failureMessage(err)
		return domain.RenderError(req.SQL, msg, g.hints.Match(msg)...)
	}

	g.inst.IncrementQueryCount(ctx)
	span.SetAttributes(
		attribute.Int("db.response.rows", len(rows)),
		attribute.Int64("db.response.total", total),
	)

	report = domain.RenderSuccess(domain.NewQueryResult(rows, total, elapsedMS), sql, page)
	report.PagedSQL = pagedSQL
	return report
}

// errExecutorPanic marks a panic recovered from an executor goroutine.
var errExecutorPanic = errors.New("executor panic")

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errExecutorPanic, r)
		}
	}()
	return fn()
}

func isTimeout(err error) bool {
	return errors.Is(err, domain.ErrQueryTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func errorType(err error) string {
	switch {
	case isTimeout(err):
		return "timeout"
	case errors.Is(err, errExecutorPanic):
		return "panic"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "execution_error"
	}
}

func failureMessage(err error) string {
	if errors.Is(err, errExecutorPanic) {
		return "internal error"
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrQueryTimeout) {
		return domain.ErrQueryTimeout.Error() + ": " + err.Error()
	}
	return err.Error()
}
