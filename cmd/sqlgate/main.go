package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/guillermoBallester/sqlgate/internal/adapter/dryrun"
	"github.com/guillermoBallester/sqlgate/internal/adapter/mcp"
	"github.com/guillermoBallester/sqlgate/internal/adapter/postgres"
	"github.com/guillermoBallester/sqlgate/internal/adapter/reference"
	"github.com/guillermoBallester/sqlgate/internal/adapter/sqldb"
	"github.com/guillermoBallester/sqlgate/internal/audit"
	"github.com/guillermoBallester/sqlgate/internal/cache"
	"github.com/guillermoBallester/sqlgate/internal/config"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"github.com/guillermoBallester/sqlgate/internal/core/service"
	"github.com/guillermoBallester/sqlgate/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting sqlgate",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("db.driver", cfg.Driver),
		slog.String("database_url", redactDSN(cfg.DatabaseURL)),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
		slog.String("transport", cfg.Transport),
		slog.Bool("strict_parse", cfg.StrictParse),
		slog.Bool("dry_run", cfg.DryRun),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracer, inst := telemetry.NoopTracer(), port.Instrumentation(telemetry.NoopInstruments())
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, telemetry.Options{
			ServiceName: "sqlgate",
			Version:     version,
			DBSystem:    dbSystem(cfg.Driver),
			Driver:      cfg.Driver,
			Transport:   cfg.Transport,
			DryRun:      cfg.DryRun,
		})
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
		tracer, inst = telemetry.Tracer(), telemetry.NewInstruments()
		logger.Info("opentelemetry enabled")
	}

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	var auditor port.QueryAuditor = port.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer func() { _ = fa.Close() }()
		auditor = fa
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	gateway := service.NewGateway(service.GatewayDeps{
		Validator:       buildValidator(cfg),
		Executor:        be.executor,
		Cache:           cache.NewMemoryCache(),
		Auditor:         auditor,
		Logger:          logger,
		Tracer:          tracer,
		Instrumentation: inst,
		Hints:           domain.MustHintMatcher(domain.DefaultHintRules),
		Dialect:         be.dialect,
		DBSystem:        be.system,
	})
	referenceSvc := service.NewReferenceService(reference.Load(cfg.ReferenceFile, logger), logger)

	mcpServer := mcp.NewServer(version, gateway, referenceSvc, logger, tracer, inst)

	if cfg.Transport == "http" {
		return serveHTTP(ctx, mcpServer, cfg, logger)
	}

	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// backend is the executor chosen for the configured driver.
type backend struct {
	executor port.QueryExecutor
	dialect  domain.Dialect
	system   string
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	dialect := domain.DialectOffsetComma
	if cfg.UsesPostgresDialect() {
		dialect = domain.DialectLimitOffset
	}

	if cfg.DryRun {
		logger.Info("dry run: queries are validated and rewritten but never executed")
		return &backend{executor: dryrun.NewExecutor(logger), dialect: dialect, system: dbSystem(cfg.Driver), close: func() {}}, nil
	}

	if cfg.Driver == config.DriverPostgres {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns:        cfg.PoolMaxConns,
			MinConns:        cfg.PoolMinConns,
			MaxConnLifetime: cfg.PoolMaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database pool connected", slog.String("db.system", "postgresql"))
		return &backend{
			executor: postgres.NewExecutor(pool, cfg.QueryTimeout),
			dialect:  dialect,
			system:   "postgresql",
			close:    pool.Close,
		}, nil
	}

	db, err := sqldb.Open(ctx, cfg.Driver, cfg.DatabaseURL, sqldb.PoolOptions{
		MaxOpenConns:    int(cfg.PoolMaxConns),
		MaxIdleConns:    int(cfg.PoolMinConns),
		ConnMaxLifetime: cfg.PoolMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected", slog.String("db.system", dbSystem(cfg.Driver)))
	return &backend{
		executor: sqldb.NewExecutor(db, cfg.QueryTimeout),
		dialect:  sqldb.DialectFor(cfg.Driver),
		system:   dbSystem(cfg.Driver),
		close:    func() { _ = db.Close() },
	}, nil
}

func buildValidator(cfg *config.Config) port.QueryValidator {
	chain := domain.ChainValidator{domain.NewKeywordValidator()}
	if cfg.StrictParse {
		chain = append(chain, domain.NewPgQueryValidator())
	}
	return chain
}

// dbSystem maps a driver to its OTel db.system value.
func dbSystem(driver string) string {
	switch driver {
	case config.DriverPostgres, config.DriverPgx:
		return "postgresql"
	case config.DriverMySQL:
		return "mysql"
	case config.DriverSQLite:
		return "sqlite"
	default:
		return "other_sql"
	}
}

func serveHTTP(ctx context.Context, mcpServer *mcpserver.MCPServer, cfg *config.Config, logger *slog.Logger) error {
	mux := http.NewServeMux()
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           recoveryMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithStreamableHTTPServer(httpSrv),
	)

	var mcpHandler http.Handler = streamable
	if cfg.RateLimit > 0 {
		mcpHandler = rateLimitMiddleware(mcpHandler, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst))
		logger.Info("rate limit enabled",
			slog.Float64("rate_limit", cfg.RateLimit),
			slog.Int("rate_burst", cfg.RateBurst),
		)
	}
	// Start does not register the handler when a custom http.Server is supplied.
	mux.Handle("/mcp", bearerAuthMiddleware(mcpHandler, cfg.HTTPBearerToken))
	mux.HandleFunc("/health", healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over streamable HTTP", slog.String("addr", cfg.HTTPAddr))
		errCh <- streamable.Start(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := streamable.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// parseFlags turns CLI arguments into config overrides. Only flags that were
// explicitly set produce non-nil pointers.
func parseFlags(args []string) (config.Overrides, error) {
	fs := pflag.NewFlagSet("sqlgate", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	databaseURL := fs.String("database-url", "", "database connection URL or DSN")
	driver := fs.String("driver", "", "database driver: postgres, pgx, mysql, sqlite3")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	queryTimeout := fs.Duration("query-timeout", 0, "per-query timeout")
	referenceFile := fs.String("reference-file", "", "path to the reference YAML document")
	strictParse := fs.Bool("strict-parse", false, "require a single SELECT statement (postgres only)")
	transport := fs.String("transport", "", "transport: stdio or http")
	httpAddr := fs.String("http-addr", "", "listen address for the HTTP transport")
	httpToken := fs.String("http-bearer-token", "", "bearer token for the HTTP transport")
	rateLimit := fs.Float64("rate-limit", 0, "HTTP requests per second (0 disables)")
	rateBurst := fs.Int("rate-burst", 0, "HTTP rate limit burst")
	poolMaxConns := fs.Int32("pool-max-conns", 0, "maximum pool connections")
	poolMinConns := fs.Int32("pool-min-conns", 0, "minimum pool connections")
	poolMaxConnLifetime := fs.Duration("pool-max-conn-lifetime", 0, "maximum connection lifetime")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	dryRun := fs.Bool("dry-run", false, "validate and rewrite queries without executing them")
	auditLog := fs.String("audit-log", "", "path to an NDJSON audit log")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, fmt.Errorf("parsing flags: %w", err)
	}

	o := config.Overrides{
		OTelEnabled: *otelEnabled,
		DryRun:      *dryRun,
		AuditLog:    *auditLog,
	}
	if fs.Changed("database-url") {
		o.DatabaseURL = databaseURL
	}
	if fs.Changed("driver") {
		o.Driver = driver
	}
	if fs.Changed("log-level") {
		o.LogLevel = logLevel
	}
	if fs.Changed("query-timeout") {
		o.QueryTimeout = queryTimeout
	}
	if fs.Changed("reference-file") {
		o.ReferenceFile = referenceFile
	}
	if fs.Changed("strict-parse") {
		o.StrictParse = strictParse
	}
	if fs.Changed("transport") {
		o.Transport = transport
	}
	if fs.Changed("http-addr") {
		o.HTTPAddr = httpAddr
	}
	if fs.Changed("http-bearer-token") {
		o.HTTPBearerToken = httpToken
	}
	if fs.Changed("rate-limit") {
		o.RateLimit = rateLimit
	}
	if fs.Changed("rate-burst") {
		o.RateBurst = rateBurst
	}
	if fs.Changed("pool-max-conns") {
		o.PoolMaxConns = poolMaxConns
	}
	if fs.Changed("pool-min-conns") {
		o.PoolMinConns = poolMinConns
	}
	if fs.Changed("pool-max-conn-lifetime") {
		o.PoolMaxConnLifetime = poolMaxConnLifetime
	}
	return o, nil
}

// redactDSN masks the password in a URL or MySQL-style DSN for logging.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.Host != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
		return u.String()
	}

	mc, err := mysql.ParseDSN(dsn)
	if err != nil || mc.Passwd == "" {
		// No recognizable credentials, e.g. a SQLite file path.
		return dsn
	}
	mc.Passwd = "***"
	return mc.FormatDSN()
}
