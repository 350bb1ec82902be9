package types

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Domain errors for chunk production
var (
	ErrEmptyContent  = errors.New("content cannot be empty")
	ErrBinaryContent = errors.New("binary content detected")
	ErrNoDelimiters  = errors.New("no delimiters defined for language")
	ErrNoBoundaries  = errors.New("no usable chunk boundaries")
	ErrDepthExceeded = errors.New("syntax tree nesting exceeds limit")
	ErrOutOfOrder    = errors.New("chunks are not in source order")
)

// ParseError reports that a grammar tree could not be built for a file.
// It always triggers strategy fallback.
type ParseError struct {
	File     string
	Language string
	Line     int
	Column   int
	Message  string
	Err      error
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.File == "" {
		return "parse error: " + pe.Message
	}
	if pe.Line > 0 {
		return fmt.Sprintf("parse error in %s:%d:%d: %s", pe.File, pe.Line, pe.Column, pe.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", pe.File, pe.Message)
}

func (pe *ParseError) Unwrap() error { return pe.Err }

// StructureError reports that a strategy understood a file but found nothing to split on
type StructureError struct {
	File     string
	Strategy string
	Reason   string
	Err      error
}

func (se *StructureError) Error() string {
	return fmt.Sprintf("%s strategy could not structure %s: %s", se.Strategy, se.File, se.Reason)
}

func (se *StructureError) Unwrap() error { return se.Err }

// Limit types reported by ResourceLimitExceeded
const (
	LimitTimeout    = "timeout"
	LimitChunkCount = "chunk_count"
	LimitTokens     = "token_limit"
)

// ResourceLimitExceeded reports a timeout or count cap. The accompanying
// result is partial, not discarded.
type ResourceLimitExceeded struct {
	LimitType string
	Limit     int64
	Actual    int64
}

func (re *ResourceLimitExceeded) Error() string {
	if re.LimitType == LimitTimeout {
		return fmt.Sprintf("resource limit exceeded: timeout after %s (limit %s)",
			time.Duration(re.Actual), time.Duration(re.Limit))
	}
	return fmt.Sprintf("resource limit exceeded: %s %d > %d", re.LimitType, re.Actual, re.Limit)
}

// ConfigurationError reports invalid governor, delimiter, or classifier
// configuration. It is only returned from constructors.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", ce.Field, ce.Reason)
}

// IsFallbackError reports whether err should hand the file to the next strategy
func IsFallbackError(err error) bool {
	var pe *ParseError
	var se *StructureError
	return errors.As(err, &pe) || errors.As(err, &se)
}

// Error kinds reported on chunking_failed events
const (
	ErrorKindParse         = "parse_error"
	ErrorKindStructure     = "structure_error"
	ErrorKindResourceLimit = "resource_limit"
	ErrorKindConfiguration = "configuration_error"
	ErrorKindBinary        = "binary_content"
	ErrorKindCancelled     = "cancelled"
	ErrorKindInternal      = "internal"
)

// ErrorKind classifies err for event reporting
func ErrorKind(err error) string {
	var (
		pe *ParseError
		se *StructureError
		re *ResourceLimitExceeded
		ce *ConfigurationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		return ErrorKindParse
	case errors.As(err, &se):
		return ErrorKindStructure
	case errors.As(err, &re):
		return ErrorKindResourceLimit
	case errors.As(err, &ce):
		return ErrorKindConfiguration
	case errors.Is(err, ErrBinaryContent):
		return ErrorKindBinary
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCancelled
	}
	return ErrorKindInternal
}
