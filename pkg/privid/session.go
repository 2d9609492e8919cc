package privid

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
)

// Session is a configuration-scoped handle through which operations run.
// Copying the pointer shares the same session; the engine handle itself never
// leaves the package. Operations on one session are serialized.
type Session struct {
	st *sessionState
}

type sessionState struct {
	mu         sync.Mutex
	id         string
	handle     engine.SessionHandle
	eng        engine.Engine
	generation uint64
	config     []byte
	destroyed  bool
	// freed is set once the engine session is gone, by Destroy or Shutdown.
	freed bool
	log   logging.Logger
}

// NewSession creates a session from a JSON object payload. An absent payload
// means the empty object.
func NewSession(ctx context.Context, payload []byte) (*Session, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	if !lib.initialized.Load() {
		return nil, ErrNotInitialized
	}
	if _, err := parsePayload(payload); err != nil {
		return nil, err
	}
	h, ok := lib.eng.NewSession(sessionPayload(payload))
	if !ok {
		lib.log.Warn(ctx, "engine refused session")
		return nil, ErrSessionCreate
	}

	id := uuid.NewString()
	st := &sessionState{
		id:         id,
		handle:     h,
		eng:        lib.eng,
		generation: lib.generation,
		config:     append([]byte(nil), sessionPayload(payload)...),
		log:        lib.log.With("session_id", id),
	}
	lib.track(st)

	s := &Session{st: st}
	runtime.SetFinalizer(s, (*Session).finalize)
	st.log.Info(ctx, "session created")
	return s, nil
}

// ID returns the session's identifier. It only appears in logs.
func (s *Session) ID() string {
	if s == nil || s.st == nil {
		return ""
	}
	return s.st.id
}

// acquire checks the session is usable and locks it. It must be called with
// lib.mu held for reading.
func (s *Session) acquire() (*sessionState, error) {
	if s == nil || s.st == nil {
		return nil, fmt.Errorf("%w: session", ErrNullArgument)
	}
	if !lib.initialized.Load() {
		return nil, ErrNotInitialized
	}
	st := s.st
	st.mu.Lock()
	switch {
	case st.destroyed:
		st.mu.Unlock()
		return nil, ErrUseAfterDestroy
	case st.generation != lib.generation || st.freed:
		st.mu.Unlock()
		return nil, ErrNotInitialized
	}
	return st, nil
}

// SetConfiguration replaces the standing configuration of this session. A
// malformed payload is ErrInvalidConfig and keeps the old configuration.
func (s *Session) SetConfiguration(ctx context.Context, payload []byte) error {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	st, err := s.acquire()
	if err != nil {
		return err
	}
	defer st.mu.Unlock()

	if _, err := parsePayload(payload); err != nil {
		return err
	}
	p := sessionPayload(payload)
	if !st.eng.SetConfiguration(st.handle, p) {
		return fmt.Errorf("%w: rejected by engine", ErrInvalidConfig)
	}
	st.config = append([]byte(nil), p...)
	st.log.Debug(ctx, "session configuration replaced")
	return nil
}

// Configuration returns a copy of the standing configuration payload.
func (s *Session) Configuration() []byte {
	if s == nil || s.st == nil {
		return nil
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return append([]byte(nil), s.st.config...)
}

// Destroy frees the engine session. A second Destroy, or any later use, is
// ErrUseAfterDestroy. A session invalidated by Shutdown reports
// ErrNotInitialized once.
func (s *Session) Destroy() error {
	if s == nil || s.st == nil {
		return fmt.Errorf("%w: session", ErrNullArgument)
	}
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	st := s.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.destroyed {
		return ErrUseAfterDestroy
	}
	st.destroyed = true
	runtime.SetFinalizer(s, nil)
	if st.freed || st.generation != lib.generation || !lib.initialized.Load() {
		return ErrNotInitialized
	}
	st.eng.FreeSession(st.handle)
	st.freed = true
	lib.untrack(st)
	st.log.Info(context.Background(), "session destroyed")
	return nil
}

// Close is Destroy, for io.Closer.
func (s *Session) Close() error { return s.Destroy() }

func (s *Session) finalize() {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	st := s.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.destroyed || st.freed || st.generation != lib.generation || !lib.initialized.Load() {
		return
	}
	st.eng.FreeSession(st.handle)
	st.freed = true
	st.destroyed = true
	lib.untrack(st)
	st.log.Warn(context.Background(), "session leaked, freed by finalizer")
}
