// Package mcp serves docfinder over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// MCP error codes. Values below -32000 are JSON-RPC server errors.
const (
	// ErrCodeIndexUnavailable indicates the store cannot be used.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeEmbeddingFailed indicates the embedding backend failed.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodePathDenied indicates a folder that may not be indexed.
	ErrCodePathDenied = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	if fe, ok := ferrors.As(err); ok {
		return mapFinderError(fe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, store.ErrClosed):
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: "The index is closed."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

func mapFinderError(fe *ferrors.FinderError) *MCPError {
	message := fe.Message
	if fe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", fe.Message, fe.Suggestion)
	}

	switch fe.Code {
	case ferrors.ErrCodePathDenied:
		return &MCPError{Code: ErrCodePathDenied, Message: message}
	case ferrors.ErrCodeEmbeddingUnavailable, ferrors.ErrCodeEmbeddingFailed, ferrors.ErrCodeModelNotFound:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: message}
	case ferrors.ErrCodeStoreCorrupt, ferrors.ErrCodeStoreLocked, ferrors.ErrCodeStoreFailed:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	}

	switch fe.Category {
	case ferrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case ferrors.CategoryNetwork:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
