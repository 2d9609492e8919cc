package privid

import "github.com/prividentity/cryptonets-go/pkg/privid/internal/native"

// Version is populated at build time via ldflags.
var Version = "v0.0.0-in-progress"

const unknownVersion = "unknown"

// WrapperVersion returns the version of this module.
func WrapperVersion() string {
	return Version
}

// NativeVersion returns the version reported by the engine in use, or by the
// linked native library when the wrapper is not initialized.
func NativeVersion() string {
	lib.mu.RLock()
	eng := lib.eng
	lib.mu.RUnlock()
	if eng != nil {
		if v := eng.Version(); v != "" {
			return v
		}
	}
	if v := native.Version(); v != "" {
		return v
	}
	return unknownVersion
}
