package pkginfo

import "fmt"

// SyntaxError reports a line that cannot be split into key and value
type SyntaxError struct {
	Line   int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: syntax error: %s", e.Line, e.Reason)
}

// UnknownKeyError reports a key outside the .PKGINFO vocabulary
type UnknownKeyError struct {
	Line int
	Key  string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("line %d: unknown key %q", e.Line, e.Key)
}

// ConversionError reports a value that failed its typed conversion
type ConversionError struct {
	Line  int
	Key   string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("line %d: invalid value %q for %s: %v", e.Line, e.Value, e.Key, e.Err)
}

// Unwrap returns the underlying conversion error
func (e *ConversionError) Unwrap() error {
	return e.Err
}
