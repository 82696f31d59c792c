package catalog

import (
	"errors"
	"fmt"
)

// ErrCatalogUnreadable marks a catalog file that is missing or cannot be parsed.
var ErrCatalogUnreadable = errors.New("catalog: failed to load")

// LoadError carries the path of a catalog that failed to load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ErrCatalogUnreadable.Error()
	}
	return fmt.Sprintf("%v: %s: %v", ErrCatalogUnreadable, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrCatalogUnreadable, e.Err}
}
