package native

import "errors"

// ErrNotBuilt reports that the native binding was not linked into the current
// binary.
var ErrNotBuilt = errors.New("privid/internal/native: native bindings not built")
