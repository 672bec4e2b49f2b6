package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates the run configuration could not be loaded or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InputMissing indicates the extraction corpus is missing or unreadable
	InputMissing ErrorCode = "INPUT_MISSING"
	// ReferenceMissing indicates a required reference file is missing or unreadable
	ReferenceMissing ErrorCode = "REFERENCE_MISSING"
	// ReferenceInvalid indicates a reference file could not be decoded
	ReferenceInvalid ErrorCode = "REFERENCE_INVALID"
	// TaxonomyInvalid indicates the category database has an inconsistent shape
	TaxonomyInvalid ErrorCode = "TAXONOMY_INVALID"
	// OutputFailed indicates a result could not be written
	OutputFailed ErrorCode = "OUTPUT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// BlemapError represents an error with code, message, and suggestions
type BlemapError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a BlemapError with the default fixes for its code.
func New(code ErrorCode, message string, cause error) *BlemapError {
	return &BlemapError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *BlemapError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BlemapError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *BlemapError) WithDetails(details interface{}) *BlemapError {
	e.Details = details
	return e
}

// Is reports whether any error in err's chain is a BlemapError with the given code.
func Is(err error, code ErrorCode) bool {
	var be *BlemapError
	if stderrors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InputMissing: {
		{
			Type:        EditConfig,
			Key:         "paths.corpus",
			Description: "Point paths.corpus at the extractor output",
		},
	},
	ReferenceMissing: {
		{
			Type:        RunCommand,
			Command:     "blemap doctor",
			Safe:        true,
			Description: "Check which reference files are missing",
		},
	},
	ReferenceInvalid: {
		{
			Type:        RunCommand,
			Command:     "blemap doctor",
			Safe:        true,
			Description: "Check which reference file fails to decode",
		},
	},
	TaxonomyInvalid: {
		{
			Type:        EditConfig,
			Key:         "paths.categories",
			Description: "Fix the category database nesting",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditConfig,
			Key:         ".blemap/config.json",
			Description: "Correct the reported configuration field",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
