package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"github.com/guillermoBallester/sqlgate/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with the gateway tools and logging hooks.
func NewServer(version string, gateway *service.Gateway, reference *service.ReferenceService, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, gateway, reference, logger)

	return s
}
