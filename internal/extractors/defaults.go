package extractors

import (
	"github.com/custodia-labs/sercha-desk/internal/extractors/docx"
	"github.com/custodia-labs/sercha-desk/internal/extractors/eml"
	"github.com/custodia-labs/sercha-desk/internal/extractors/html"
	"github.com/custodia-labs/sercha-desk/internal/extractors/markdown"
	"github.com/custodia-labs/sercha-desk/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-desk/internal/extractors/plaintext"
	"github.com/custodia-labs/sercha-desk/internal/extractors/pptx"
	"github.com/custodia-labs/sercha-desk/internal/extractors/xlsx"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// RegisterDefaults registers all built-in extractors with the registry.
func RegisterDefaults(r *Registry, log *logger.Logger) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New(log))
	r.Register(docx.New())
	r.Register(xlsx.New())
	r.Register(pptx.New())
	r.Register(eml.New())
}

// NewDefaultRegistry returns a registry with every built-in extractor.
// Extensions in disabled are switched off.
func NewDefaultRegistry(log *logger.Logger, disabled []string) *Registry {
	r := NewRegistry(log, disabled)
	RegisterDefaults(r, log)
	return r
}
