package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Stderr is folded into the error.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// InstallHint tells the user how to get pdftotext.
const InstallHint = "install poppler: brew install poppler / apt install poppler-utils"

// extractPDF runs pdftotext and normalizes each page separately. A PDF
// whose pages are all empty (typically scanned images) has no text.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	if e.lookPath != nil {
		if _, err := e.lookPath(e.opts.PDFToText); err != nil {
			return "", fail(ToolUnavailable, KindPDF, path, fmt.Errorf("%s not found: %s", e.opts.PDFToText, InstallHint))
		}
	}

	out, err := e.runner.Run(ctx, e.opts.PDFToText, "-enc", "UTF-8", "-q", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", classifyPDFError(path, err)
	}

	pages := strings.Split(string(out), "\f")
	var kept []string
	for _, page := range pages {
		if text := Normalize(page, 0); text != "" {
			kept = append(kept, text)
		}
	}
	if len(kept) == 0 {
		return "", fail(NoExtractableText, KindPDF, path, nil)
	}
	return strings.Join(kept, "\n\n"), nil
}

func classifyPDFError(path string, err error) *Failure {
	if errors.Is(err, exec.ErrNotFound) {
		return fail(ToolUnavailable, KindPDF, path, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		return fail(Encrypted, KindPDF, path, err)
	}
	return fail(Corrupt, KindPDF, path, err)
}
