// Package extract turns PDF, DOCX and TXT files into normalized plain text.
package extract

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of supported document formats.
type Kind int

const (
	KindPDF Kind = iota + 1
	KindDOCX
	KindTXT
)

// String returns the lowercase format name.
func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindTXT:
		return "txt"
	default:
		return "unknown"
	}
}

var kindByExt = map[string]Kind{
	".pdf":  KindPDF,
	".docx": KindDOCX,
	".txt":  KindTXT,
}

// KindForPath maps a file name to its Kind by extension, case-insensitively.
func KindForPath(path string) (Kind, bool) {
	k, ok := kindByExt[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// IsSupported reports whether path has a supported extension.
func IsSupported(path string) bool {
	_, ok := KindForPath(path)
	return ok
}
