package reference

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

// UnavailableText is served when no reference document could be loaded.
const UnavailableText = "Reference information is unavailable; ask the operator to configure REFERENCE_FILE."

var _ port.ReferenceProvider = (*Provider)(nil)

// Provider serves pre-rendered reference texts. Texts are fixed at construction.
type Provider struct {
	tables    string
	structure string
}

// NewProvider renders doc. Texts missing from doc are generated from its
// context section, or fall back to UnavailableText.
func NewProvider(doc *Document) *Provider {
	p := &Provider{tables: UnavailableText, structure: UnavailableText}
	if doc == nil {
		return p
	}

	switch {
	case strings.TrimSpace(doc.Tables) != "":
		p.tables = doc.Tables
	case len(doc.Context.Tables) > 0:
		p.tables = renderTables(doc.Context)
	}

	switch {
	case strings.TrimSpace(doc.Structure) != "":
		p.structure = doc.Structure
	case len(doc.Context.Tables) > 0:
		p.structure = renderStructure(doc.Context)
	}
	return p
}

// Load reads path and builds a Provider. A load failure is logged and
// degrades to a provider that serves UnavailableText.
func Load(path string, logger *slog.Logger) *Provider {
	if path == "" {
		return NewProvider(nil)
	}
	doc, err := LoadFromFile(path)
	if err != nil {
		logger.Warn("reference document unavailable",
			slog.String("path", path),
			slog.String("error.message", err.Error()),
		)
		return NewProvider(nil)
	}
	logger.Info("reference document loaded",
		slog.String("path", path),
		slog.Int("tables", len(doc.Context.Tables)),
	)
	return NewProvider(doc)
}

func (p *Provider) Tables() string    { return p.tables }
func (p *Provider) Structure() string { return p.structure }

func renderTables(ctx ContextConfig) string {
	var sb strings.Builder
	sb.WriteString("Tables:\n")
	for _, name := range sortedKeys(ctx.Tables) {
		if d := ctx.Tables[name].Description; d != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", name, d)
		} else {
			fmt.Fprintf(&sb, "- %s\n", name)
		}
	}
	return sb.String()
}

func renderStructure(ctx ContextConfig) string {
	var sb strings.Builder
	for i, name := range sortedKeys(ctx.Tables) {
		if i > 0 {
			sb.WriteString("\n")
		}
		tc := ctx.Tables[name]
		fmt.Fprintf(&sb, "Table %s", name)
		if tc.Description != "" {
			fmt.Fprintf(&sb, " (%s)", tc.Description)
		}
		sb.WriteString(":\n")
		for _, col := range sortedKeys(tc.Columns) {
			cc := tc.Columns[col]
			sb.WriteString("  - " + col)
			if cc.Type != "" {
				sb.WriteString(" " + cc.Type)
			}
			if cc.Description != "" {
				sb.WriteString(": " + cc.Description)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
