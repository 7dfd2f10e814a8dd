package obj

import (
	"errors"
	"fmt"

	"github.com/chazu/brepweld/pkg/mesh"
)

// FormatError reports an index list whose length is not a multiple of its
// face arity. Nothing is written when it is returned.
type FormatError struct {
	List  string // "triangle" or "quad"
	Len   int
	Arity int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("obj: %s index count %d is not a multiple of %d", e.List, e.Len, e.Arity)
}

// WriteError reports a failure to create, write, or replace the output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("obj: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// validationError converts a mesh validation failure into the package's
// error vocabulary. Range errors pass through unchanged.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var ae *mesh.ArityError
	if errors.As(err, &ae) {
		return &FormatError{List: ae.List, Len: ae.Len, Arity: ae.Arity}
	}
	return fmt.Errorf("obj: %w", err)
}
