package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrPackageParse ErrorType = iota
	ErrDatabase
	ErrSigning
	ErrFileOp
	ErrInvalidConfig
	// ErrVerify reports packages that no longer match their database entry
	ErrVerify
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrPackageParse:
		return "PackageParse"
	case ErrDatabase:
		return "Database"
	case ErrSigning:
		return "Signing"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrVerify:
		return "Verify"
	default:
		return "Unknown"
	}
}

// ReposeError represents an error while maintaining a repository
type ReposeError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *ReposeError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *ReposeError) Unwrap() error {
	return e.Err
}
