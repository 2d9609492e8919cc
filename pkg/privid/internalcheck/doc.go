// Package internalcheck holds source-level policy tests for the privid tree.
//
// The tests load the module with golang.org/x/tools/go/packages and fail on
// code that would break the native boundary: cgo outside internal/native,
// engine buffers freed outside the registry, or raw biometric bytes reaching
// the logs. There is no exported API.
package internalcheck
