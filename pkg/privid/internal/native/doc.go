// Package native contains the cgo binding to the libprivid_fhe C library.
//
// # Design Principles
//
// 1. Isolation: ALL cgo code lives in this package. No other package in the
//    module imports "C".
//
// 2. Minimal Surface: the package implements engine.Engine and nothing else.
//    Lifecycle rules, locking and buffer tracking live in pkg/privid.
//
// 3. Memory Management: Go inputs are passed as borrowed pointers that are
//    only valid for the duration of the call. Outputs stay in C memory and are
//    surfaced as engine.Mem; the caller hands them back through FreeText or
//    FreeBinary. The single exception is the models cache directory, which is
//    copied into a Go string and freed before returning.
//
// 4. Build Tags: the real binding compiles with cgo and the privid_native tag.
//    Every other build gets a stub whose Open reports ErrNotBuilt.
//
//	CGO_LDFLAGS="-L/opt/privid/lib" go build -tags privid_native ./...
package native
