package engine

import "unsafe"

// Mem is a region of memory allocated by the engine. A zero Mem is the null
// region; engines may return it for output slots they did not fill.
type Mem struct {
	Ptr unsafe.Pointer
	Len int
}

// IsNull reports whether m refers to no memory.
func (m Mem) IsNull() bool { return m.Ptr == nil }

// View returns the region as a byte slice aliasing the engine memory. The
// slice is only valid until the region is freed.
func (m Mem) View() []byte {
	if m.Ptr == nil || m.Len <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(m.Ptr), m.Len)
}

// SessionHandle identifies an engine session. Zero is never a valid handle.
type SessionHandle uintptr

// Image is a borrowed raw pixel buffer.
type Image struct {
	Pixels []byte
	Width  int
	Height int
}

// Request carries the inputs of one operation call.
type Request struct {
	Op     Op
	Config []byte
	Images []Image
	// Target is the user identifier for OpUserDelete.
	Target []byte
	// FudgeFactor adjusts the match threshold of OpFaceCompare.
	FudgeFactor float32
}

// Response carries the outputs of one operation call. Binary has exactly
// Op.BinaryOutputs() entries, in the order documented on the Op constant.
type Response struct {
	Status int32
	Text   Mem
	Binary []Mem
}

// Engine is the boundary surface of a biometric engine.
type Engine interface {
	Version() string

	Initialize(modelsDir string, level int)
	IsInitialized() bool
	Shutdown()
	SetLogLevel(level int) bool
	LogLevel() int
	ModelsCacheDirectory() (string, bool)

	NewSession(settings []byte) (SessionHandle, bool)
	SetConfiguration(h SessionHandle, config []byte) bool
	FreeSession(h SessionHandle)

	Call(h SessionHandle, req *Request) Response

	FreeText(m Mem)
	FreeBinary(m Mem)
}
