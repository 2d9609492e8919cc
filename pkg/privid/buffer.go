package privid

// TextBuffer is an engine-allocated text result, usually JSON. The caller
// owns it and must release it exactly once.
type TextBuffer struct {
	reg *registry
	id  uint64
}

// Bytes returns a view of the engine memory. The slice must not be used
// after the buffer is released; it is nil once released.
func (b *TextBuffer) Bytes() []byte {
	if b == nil || b.reg == nil {
		return nil
	}
	return b.reg.view(b.id)
}

// String copies the text out of engine memory.
func (b *TextBuffer) String() string {
	if b == nil || b.reg == nil {
		return ""
	}
	return string(b.reg.copyOf(b.id))
}

// Len returns the length of the buffer, zero once released.
func (b *TextBuffer) Len() int { return len(b.Bytes()) }

// Release is ReleaseText(b).
func (b *TextBuffer) Release() error { return ReleaseText(b) }

// BinaryBuffer is an engine-allocated raw result such as a cropped image. The
// caller owns it and must release it exactly once.
type BinaryBuffer struct {
	reg *registry
	id  uint64
}

// Bytes returns a view of the engine memory, valid until release.
func (b *BinaryBuffer) Bytes() []byte {
	if b == nil || b.reg == nil {
		return nil
	}
	return b.reg.view(b.id)
}

// Copy returns a Go-owned copy of the buffer contents.
func (b *BinaryBuffer) Copy() []byte {
	if b == nil || b.reg == nil {
		return nil
	}
	return b.reg.copyOf(b.id)
}

func (b *BinaryBuffer) Len() int { return len(b.Bytes()) }

// Release is ReleaseBinary(b).
func (b *BinaryBuffer) Release() error { return ReleaseBinary(b) }
