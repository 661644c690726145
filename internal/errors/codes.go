// Package errors provides structured error handling for docfinder.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and store errors
//   - 3XX: Embedding backend and network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Document extraction errors
package errors

// Category defines error categories for classification.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryNetwork    Category = "NETWORK"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
	CategoryExtraction Category = "EXTRACTION"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the current operation.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails the operation for one item but the caller may continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation.
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO and store errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"
	ErrCodeFileTooLarge   = "ERR_204_FILE_TOO_LARGE"
	ErrCodeStoreCorrupt   = "ERR_205_STORE_CORRUPT"
	ErrCodeStoreFailed    = "ERR_206_STORE_FAILED"
	ErrCodeStoreLocked    = "ERR_207_STORE_LOCKED"

	// Embedding backend errors (300-399)
	ErrCodeNetworkTimeout       = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeEmbeddingUnavailable = "ERR_302_EMBEDDING_UNAVAILABLE"
	ErrCodeModelNotFound        = "ERR_303_MODEL_NOT_FOUND"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeModelMismatch   = "ERR_402_MODEL_MISMATCH"
	ErrCodeQueryEmpty      = "ERR_404_QUERY_EMPTY"
	ErrCodePathDenied      = "ERR_406_PATH_DENIED"
	ErrCodeUnsupportedType = "ERR_407_UNSUPPORTED_FILE_TYPE"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed     = "ERR_505_INDEX_FAILED"

	// Extraction errors (600-699)
	ErrCodeNoExtractableText = "ERR_601_NO_EXTRACTABLE_TEXT"
	ErrCodeUndecodableText   = "ERR_602_UNDECODABLE_TEXT"
	ErrCodeEncryptedDocument = "ERR_603_ENCRYPTED_DOCUMENT"
	ErrCodeCorruptDocument   = "ERR_604_CORRUPT_DOCUMENT"
	ErrCodeExtractorMissing  = "ERR_605_EXTRACTOR_UNAVAILABLE"
)

// categoryFromCode reads the hundreds digit of "ERR_NNN_...".
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	case '6':
		return CategoryExtraction
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreCorrupt, ErrCodeDiskFull, ErrCodeEmbeddingUnavailable, ErrCodeModelMismatch:
		return SeverityFatal
	case ErrCodePathDenied, ErrCodeUnsupportedType:
		return SeverityInfo
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether a code represents a transient condition.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeEmbeddingUnavailable, ErrCodeStoreLocked:
		return true
	}
	return false
}
