package extract

import (
	"context"
	"os"
	"os/exec"
)

// Options configures an Extractor.
type Options struct {
	// MaxFileSize in bytes; larger files fail with TooLarge.
	MaxFileSize int64
	// MaxTextChars caps normalized output.
	MaxTextChars int
	// TextEncodings is the decode order for .txt files.
	TextEncodings []string
	// PDFToText is the pdftotext binary.
	PDFToText string
}

// DefaultOptions returns the extraction defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:   50 * 1024 * 1024,
		MaxTextChars:  100000,
		TextEncodings: []string{"utf-8", "utf-16", "windows-1252", "iso-8859-1"},
		PDFToText:     "pdftotext",
	}
}

// Extractor dispatches to one handler per Kind. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	opts     Options
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCommandRunner replaces how pdftotext is invoked. The binary lookup
// is skipped since the runner decides what "pdftotext" means.
func WithCommandRunner(r CommandRunner) Option {
	return func(e *Extractor) {
		e.runner = r
		e.lookPath = nil
	}
}

// New creates an Extractor. Zero-valued options fall back to defaults.
func New(opts Options, options ...Option) *Extractor {
	def := DefaultOptions()
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = def.MaxFileSize
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = def.MaxTextChars
	}
	if len(opts.TextEncodings) == 0 {
		opts.TextEncodings = def.TextEncodings
	}
	if opts.PDFToText == "" {
		opts.PDFToText = def.PDFToText
	}

	e := &Extractor{
		opts:     opts,
		runner:   ExecRunner{},
		lookPath: exec.LookPath,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Extract returns the normalized text of the file at path. Errors are
// *Failure values, ErrUnsupported, or the context error.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return "", ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fail(ReadError, kind, path, err)
	}
	if info.Size() > e.opts.MaxFileSize {
		return "", fail(TooLarge, kind, path, nil)
	}

	var raw string
	switch kind {
	case KindPDF:
		raw, err = e.extractPDF(ctx, path)
	case KindDOCX:
		raw, err = extractDOCX(path)
	case KindTXT:
		raw, err = e.extractTXT(path)
	}
	if err != nil {
		return "", err
	}

	return Normalize(raw, e.opts.MaxTextChars), nil
}

func (e *Extractor) extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fail(ReadError, KindTXT, path, err)
	}
	text, ok := decodeText(data, e.opts.TextEncodings)
	if !ok {
		return "", fail(UndecodableText, KindTXT, path, nil)
	}
	return text, nil
}
