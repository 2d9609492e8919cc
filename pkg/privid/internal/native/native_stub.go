//go:build !cgo || !privid_native

package native

import "github.com/prividentity/cryptonets-go/pkg/privid/engine"

// Open reports ErrNotBuilt in builds without the native binding.
func Open() (engine.Engine, error) {
	return nil, ErrNotBuilt
}

// Version returns an empty string when the native library is not linked.
func Version() string { return "" }
