package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/Aman-CERP/docfinder/internal/config"
	"github.com/Aman-CERP/docfinder/internal/embed"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
)

// embedderProbeTimeout bounds the backend check.
const embedderProbeTimeout = 10 * time.Second

// CheckPDFToText looks for the pdftotext binary. Without it PDFs fail to
// extract but everything else works.
func (c *Checker) CheckPDFToText(name string) CheckResult {
	result := CheckResult{Name: "pdftotext"}
	if name == "" {
		name = "pdftotext"
	}

	path, err := c.lookPath(name)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s not found; PDF files will be skipped", name)
		result.Details = "Install poppler-utils (Linux) or poppler (Homebrew)"
		return result
	}
	result.Status = StatusPass
	result.Message = path
	return result
}

// CheckEmbedder connects to the configured embedding backend and reports
// the model it resolved.
func (c *Checker) CheckEmbedder(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{Name: "embedder", Required: true}

	provider, err := embed.ParseProvider(cfg.Embeddings.Provider)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, embedderProbeTimeout)
	defer cancel()

	emb, err := embed.NewEmbedder(ctx, embed.Options{
		Provider: provider,
		Model:    cfg.Embeddings.Model,
		Host:     cfg.Embeddings.OllamaHost,
		Timeout:  embedderProbeTimeout,
	})
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		if fe, ok := ferrors.As(err); ok {
			result.Message = fe.Message
			result.Details = fe.Suggestion
		}
		return result
	}
	defer func() { _ = emb.Close() }()

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s %s (%d dims)", provider, emb.ModelName(), emb.Dimensions())
	return result
}
