// Package engine defines the raw contract between the Go wrapper and a
// biometric engine implementation.
//
// Two implementations exist: the cgo binding to libprivid_fhe in
// pkg/privid/internal/native, and the in-memory double in
// pkg/privid/enginetest. The public pkg/privid package is the only intended
// caller; it layers lifecycle checks, session locking and buffer ownership
// tracking on top of this interface.
//
// # Ownership
//
// Inputs (configuration payloads, image pixels, target ids) are borrowed by the
// engine for the duration of a single call and never retained or mutated.
// Outputs are reported as Mem values that the engine allocated; each one must
// be handed back exactly once through FreeText or FreeBinary, matching the slot
// it was returned in. An Engine is not required to detect double frees.
//
// # Threading
//
// Implementations must allow calls on distinct sessions from different
// goroutines. Calls on the same session are serialized by the caller.
// Initialize and Shutdown are serialized by the caller against every other
// method.
package engine
