package pkginfo

import (
	"strconv"

	"github.com/ralt/repose/internal/models"
)

// Dispatcher classifies key/value pairs and applies them to a package
type Dispatcher struct {
	vocab Vocabulary
}

// NewDispatcher creates a dispatcher over the given vocabulary
func NewDispatcher(vocab Vocabulary) *Dispatcher {
	return &Dispatcher{vocab: vocab}
}

// Lookup returns the field registered for key
func (d *Dispatcher) Lookup(key string) (Field, bool) {
	f, ok := d.vocab[key]
	return f, ok
}

// Apply classifies key, converts value and stores it in pkg. The package is
// left untouched when an error is returned. Line numbers in the returned
// errors are zero; the parser fills them in.
func (d *Dispatcher) Apply(pkg *models.Package, key, value string) (FieldKind, error) {
	f, ok := d.Lookup(key)
	if !ok {
		return KindNone, &UnknownKeyError{Key: key}
	}

	switch f.Conversion {
	case ConvInteger, ConvTimestamp:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return KindNone, &ConversionError{Key: key, Value: value, Err: err}
		}
		f.setInt(pkg, n)
	default:
		if f.Policy == List {
			target := f.list(pkg)
			*target = append(*target, value)
		} else {
			f.setString(pkg, value)
		}
	}

	return f.Kind, nil
}
