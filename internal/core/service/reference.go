package service

import (
	"context"
	"log/slog"

	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

// ReferenceService serves the static table documentation.
type ReferenceService struct {
	provider port.ReferenceProvider
	logger   *slog.Logger
}

func NewReferenceService(provider port.ReferenceProvider, logger *slog.Logger) *ReferenceService {
	return &ReferenceService{provider: provider, logger: logger}
}

func (s *ReferenceService) Tables(ctx context.Context) string {
	s.logger.DebugContext(ctx, "serving reference", slog.String("reference.part", "tables"))
	return s.provider.Tables()
}

func (s *ReferenceService) Structure(ctx context.Context) string {
	s.logger.DebugContext(ctx, "serving reference", slog.String("reference.part", "structure"))
	return s.provider.Structure()
}
