package pkginfo

import (
	"bytes"
	"fmt"
)

type scanMode int

const (
	modeLineStart scanMode = iota
	modeComment
	modeKey
	modeBeforeEq
	modeBeforeValue
	modeValue
)

// emitFunc receives one completed line. key and value are copies and do not
// alias scanner or caller memory.
type emitFunc func(line int, key, value string) error

// lineScanner reassembles `key = value` lines from arbitrary fragments.
// key and value hold the bytes of the current line seen so far; mode says
// which of them is being filled.
type lineScanner struct {
	mode  scanMode
	key   []byte
	value []byte
	line  int
}

func newLineScanner() lineScanner {
	return lineScanner{line: 1}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

// feed consumes data, calling emit for every line completed by it
func (s *lineScanner) feed(data []byte, emit emitFunc) error {
	for len(data) > 0 {
		// comments and values run to the end of the line, take them in bulk
		switch s.mode {
		case modeComment:
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				return nil
			}
			data = data[i+1:]
			s.endLine()
			continue
		case modeValue:
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				s.value = append(s.value, data...)
				return nil
			}
			s.value = append(s.value, data[:i]...)
			data = data[i+1:]
			if err := s.complete(emit); err != nil {
				return err
			}
			continue
		}

		c := data[0]
		data = data[1:]
		if err := s.step(c, emit); err != nil {
			return err
		}
	}
	return nil
}

// step advances the machine by one byte outside comments and values
func (s *lineScanner) step(c byte, emit emitFunc) error {
	switch s.mode {
	case modeLineStart:
		switch {
		case c == '\n':
			s.endLine()
		case isBlank(c):
		case c == '#':
			s.mode = modeComment
		case c == '=':
			return s.syntaxError("missing key before '='")
		default:
			s.key = append(s.key, c)
			s.mode = modeKey
		}

	case modeKey:
		switch {
		case c == '=':
			s.mode = modeBeforeValue
		case c == '\n':
			return s.syntaxError(fmt.Sprintf("missing '=' after key %q", s.key))
		case isBlank(c):
			s.mode = modeBeforeEq
		default:
			s.key = append(s.key, c)
		}

	case modeBeforeEq:
		switch {
		case c == '=':
			s.mode = modeBeforeValue
		case c == '\n':
			return s.syntaxError(fmt.Sprintf("missing '=' after key %q", s.key))
		case isBlank(c):
		default:
			return s.syntaxError(fmt.Sprintf("unexpected %q after key %q", c, s.key))
		}

	case modeBeforeValue:
		switch {
		case c == '\n':
			return s.complete(emit)
		case isBlank(c):
		default:
			s.value = append(s.value, c)
			s.mode = modeValue
		}
	}
	return nil
}

// complete hands the buffered line to emit and resets for the next one
func (s *lineScanner) complete(emit emitFunc) error {
	line := s.line
	key, value := string(s.key), string(s.value)
	s.endLine()
	return emit(line, key, value)
}

func (s *lineScanner) endLine() {
	s.key = s.key[:0]
	s.value = s.value[:0]
	s.mode = modeLineStart
	s.line++
}

// close terminates a trailing line that has no newline
func (s *lineScanner) close(emit emitFunc) error {
	switch s.mode {
	case modeKey, modeBeforeEq:
		return s.syntaxError(fmt.Sprintf("missing '=' after key %q", s.key))
	case modeBeforeValue, modeValue:
		return s.complete(emit)
	default:
		s.mode = modeLineStart
		return nil
	}
}

// pending reports whether a partial line is buffered
func (s *lineScanner) pending() bool {
	return s.mode != modeLineStart
}

func (s *lineScanner) syntaxError(reason string) error {
	return &SyntaxError{Line: s.line, Reason: reason}
}
