// Package pkginfo implements an incremental parser for pacman .PKGINFO files.
//
// The input may arrive in fragments of any size; a line is classified only
// once its terminating newline has been seen:
//
//	p := pkginfo.NewParser()
//	pkg := &models.Package{}
//	for _, chunk := range chunks {
//		if err := p.Feed(pkg, chunk); err != nil {
//			return err
//		}
//	}
//	err := p.Close(pkg)
//
// Errors are terminal: once Feed or Close has failed, the parser keeps
// returning the same error and never touches the package again.
package pkginfo

import (
	"io"

	"github.com/ralt/repose/internal/models"
)

// Parser holds the state of one .PKGINFO stream. It is not safe for
// concurrent use; parse distinct packages with distinct parsers.
type Parser struct {
	scanner  lineScanner
	dispatch *Dispatcher
	lastKind FieldKind
	err      error
}

// NewParser creates a parser for the default .PKGINFO vocabulary
func NewParser() *Parser {
	return NewParserWithVocabulary(defaultVocabulary)
}

// NewParserWithVocabulary creates a parser that accepts only the keys in vocab
func NewParserWithVocabulary(vocab Vocabulary) *Parser {
	return &Parser{
		scanner:  newLineScanner(),
		dispatch: NewDispatcher(vocab),
		lastKind: KindNone,
	}
}

// Feed consumes the next fragment of the stream, applying every line it
// completes to pkg. The fragment is not retained after Feed returns.
func (p *Parser) Feed(pkg *models.Package, fragment []byte) error {
	if p.err != nil {
		return p.err
	}
	if err := p.scanner.feed(fragment, p.emitter(pkg)); err != nil {
		p.err = err
		return err
	}
	return nil
}

// Close applies a final line that lacks a trailing newline
func (p *Parser) Close(pkg *models.Package) error {
	if p.err != nil {
		return p.err
	}
	if err := p.scanner.close(p.emitter(pkg)); err != nil {
		p.err = err
		return err
	}
	return nil
}

// LastKind returns the kind of the most recently applied line
func (p *Parser) LastKind() FieldKind {
	return p.lastKind
}

// Pending reports whether part of a line is buffered awaiting more input
func (p *Parser) Pending() bool {
	return p.scanner.pending()
}

func (p *Parser) emitter(pkg *models.Package) emitFunc {
	return func(line int, key, value string) error {
		kind, err := p.dispatch.Apply(pkg, key, value)
		if err != nil {
			return atLine(err, line)
		}
		p.lastKind = kind
		return nil
	}
}

func atLine(err error, line int) error {
	switch e := err.(type) {
	case *UnknownKeyError:
		e.Line = line
	case *ConversionError:
		e.Line = line
	case *SyntaxError:
		e.Line = line
	}
	return err
}

// Writer returns an io.Writer that feeds everything written to it into pkg
func (p *Parser) Writer(pkg *models.Package) io.Writer {
	return &feedWriter{parser: p, pkg: pkg}
}

type feedWriter struct {
	parser *Parser
	pkg    *models.Package
}

func (w *feedWriter) Write(b []byte) (int, error) {
	if err := w.parser.Feed(w.pkg, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Parse reads a complete .PKGINFO stream from r
func Parse(r io.Reader) (*models.Package, error) {
	pkg := &models.Package{}
	p := NewParser()

	if _, err := io.Copy(p.Writer(pkg), r); err != nil {
		return nil, err
	}
	if err := p.Close(pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}
