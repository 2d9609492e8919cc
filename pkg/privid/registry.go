package privid

import (
	"sync"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
)

type bufferKind uint8

const (
	kindText bufferKind = iota + 1
	kindBinary
)

type entry struct {
	eng  engine.Engine
	mem  engine.Mem
	kind bufferKind
}

// registry tracks every buffer handed out to callers. Ids are issued
// monotonically and never reused, so an id below next that is no longer live
// was released.
type registry struct {
	mu   sync.Mutex
	next uint64
	live map[uint64]entry
}

func newRegistry() *registry {
	return &registry{next: 1, live: make(map[uint64]entry)}
}

// buffers is the process-wide registry. It outlives Shutdown: the engine free
// primitives do not depend on library state.
var buffers = newRegistry()

func (r *registry) add(eng engine.Engine, mem engine.Mem, kind bufferKind) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.live[id] = entry{eng: eng, mem: mem, kind: kind}
	return id
}

func (r *registry) text(eng engine.Engine, mem engine.Mem) *TextBuffer {
	return &TextBuffer{reg: r, id: r.add(eng, mem, kindText)}
}

func (r *registry) binary(eng engine.Engine, mem engine.Mem) *BinaryBuffer {
	return &BinaryBuffer{reg: r, id: r.add(eng, mem, kindBinary)}
}

// take removes id from the live set.
func (r *registry) take(id uint64, kind bufferKind) (entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live[id]
	switch {
	case ok && e.kind == kind:
		delete(r.live, id)
		return e, nil
	case ok:
		return entry{}, ErrUnownedBuffer
	case id > 0 && id < r.next:
		return entry{}, ErrDoubleRelease
	}
	return entry{}, ErrUnownedBuffer
}

func (r *registry) release(id uint64, kind bufferKind) error {
	e, err := r.take(id, kind)
	if err != nil {
		return err
	}
	free(e)
	return nil
}

// discard frees engine memory that was never handed to a caller.
func (r *registry) discard(eng engine.Engine, mem engine.Mem, kind bufferKind) {
	free(entry{eng: eng, mem: mem, kind: kind})
}

func free(e entry) {
	if e.mem.IsNull() {
		return
	}
	switch e.kind {
	case kindBinary:
		ZeroizeBytes(e.mem.View())
		e.eng.FreeBinary(e.mem)
	default:
		e.eng.FreeText(e.mem)
	}
}

// view returns the engine memory behind id, or nil once released.
func (r *registry) view(id uint64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live[id]
	if !ok {
		return nil
	}
	return e.mem.View()
}

// copyOf copies the engine memory behind id under the registry lock.
func (r *registry) copyOf(id uint64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live[id]
	if !ok {
		return nil
	}
	v := e.mem.View()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (r *registry) outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// ReleaseText returns b to the engine. A nil buffer is ErrNullArgument, a
// buffer the registry never issued is ErrUnownedBuffer and a second release
// is ErrDoubleRelease.
func ReleaseText(b *TextBuffer) error {
	if b == nil {
		return ErrNullArgument
	}
	if b.reg == nil {
		return ErrUnownedBuffer
	}
	return b.reg.release(b.id, kindText)
}

// ReleaseBinary zeroizes b and returns it to the engine. Errors match
// ReleaseText.
func ReleaseBinary(b *BinaryBuffer) error {
	if b == nil {
		return ErrNullArgument
	}
	if b.reg == nil {
		return ErrUnownedBuffer
	}
	return b.reg.release(b.id, kindBinary)
}

// OutstandingBuffers reports how many buffers have been handed out and not
// yet released.
func OutstandingBuffers() int {
	return buffers.outstanding()
}
