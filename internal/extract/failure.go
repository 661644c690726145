package extract

import (
	"errors"
	"fmt"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
)

// ErrUnsupported is returned for files whose extension is not handled.
var ErrUnsupported = ferrors.New(ferrors.ErrCodeUnsupportedType, "unsupported file type", nil)

// FailureKind classifies why a document produced no text.
type FailureKind string

const (
	NoExtractableText FailureKind = "no_extractable_text"
	UndecodableText   FailureKind = "undecodable_text"
	Encrypted         FailureKind = "encrypted"
	Corrupt           FailureKind = "corrupt"
	TooLarge          FailureKind = "too_large"
	ToolUnavailable   FailureKind = "tool_unavailable"
	ReadError         FailureKind = "read_error"
)

var failureCodes = map[FailureKind]string{
	NoExtractableText: ferrors.ErrCodeNoExtractableText,
	UndecodableText:   ferrors.ErrCodeUndecodableText,
	Encrypted:         ferrors.ErrCodeEncryptedDocument,
	Corrupt:           ferrors.ErrCodeCorruptDocument,
	TooLarge:          ferrors.ErrCodeFileTooLarge,
	ToolUnavailable:   ferrors.ErrCodeExtractorMissing,
	ReadError:         ferrors.ErrCodeFilePermission,
}

// Failure is a per-file extraction error. It never aborts an indexing run.
type Failure struct {
	Kind   FailureKind
	Format Kind
	Path   string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Path, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Path, f.Kind)
}

// Unwrap exposes both the cause and the coded FinderError.
func (f *Failure) Unwrap() []error {
	coded := ferrors.New(failureCodes[f.Kind], string(f.Kind), nil).WithDetail("path", f.Path)
	if f.Err == nil {
		return []error{coded}
	}
	return []error{coded, f.Err}
}

func fail(kind FailureKind, format Kind, path string, err error) *Failure {
	return &Failure{Kind: kind, Format: format, Path: path, Err: err}
}

// AsFailure returns the Failure in err's chain, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
