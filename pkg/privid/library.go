package privid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
	"github.com/prividentity/cryptonets-go/pkg/privid/internal/native"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
)

const modelsSubdir = "cryptonets-go/models"

// library is the process-wide engine state. mu is held for writing by
// Initialize and Shutdown and for reading by every other call, so Shutdown
// waits for in-flight operations.
type library struct {
	mu          sync.RWMutex
	initialized atomic.Bool
	eng         engine.Engine
	modelsDir   string
	generation  uint64
	level       zap.AtomicLevel
	log         logging.Logger
	metrics     *metrics

	sessMu   sync.Mutex
	sessions map[*sessionState]struct{}
}

var lib = newLibrary()

func newLibrary() *library {
	return &library{
		level:    zap.NewAtomicLevelAt(LevelOff.ZapLevel()),
		log:      logging.Nop(),
		metrics:  newMetrics(),
		sessions: make(map[*sessionState]struct{}),
	}
}

// Initialize brings up the engine. Calling it again with the same models
// directory is a no-op; a different directory is
// ErrAlreadyInitializedMismatch.
func Initialize(cfg Config) error {
	return lib.initialize(cfg)
}

// Shutdown waits for in-flight operations, frees every session still open
// and tears the engine down. Sessions created before Shutdown report
// ErrNotInitialized afterwards. Buffers stay releasable.
func Shutdown() error {
	return lib.shutdown()
}

// IsInitialized reports whether the library is initialized.
func IsInitialized() bool {
	return lib.initialized.Load()
}

// SetLogLevel changes the engine log level. It returns false for an invalid
// level or an uninitialized library and leaves the level unchanged.
func SetLogLevel(level Level) bool {
	return lib.setLogLevel(level)
}

// CurrentLogLevel returns the engine log level.
func CurrentLogLevel() (Level, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	if !lib.initialized.Load() {
		return LevelOff, ErrNotInitialized
	}
	return Level(lib.eng.LogLevel()), nil
}

// ModelsCacheDirectory returns the directory the engine caches models in.
func ModelsCacheDirectory() (string, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	if !lib.initialized.Load() {
		return "", ErrNotInitialized
	}
	if dir, ok := lib.eng.ModelsCacheDirectory(); ok && dir != "" {
		return dir, nil
	}
	return lib.modelsDir, nil
}

// resolveModelsDir returns the absolute models directory without touching
// the filesystem.
func resolveModelsDir(dir string) (string, error) {
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelsDirectory, err)
		}
		dir = filepath.Join(cache, modelsSubdir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelsDirectory, err)
	}
	return abs, nil
}

// ensureModelsDir creates dir if missing and checks it is a directory.
func ensureModelsDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrModelsDirectory, err)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelsDirectory, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrModelsDirectory, dir)
	}
	return nil
}

func (l *library) initialize(cfg Config) error {
	cfg = cfg.withDefaults()
	if !cfg.LogLevel.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLogLevel, cfg.LogLevel)
	}
	dir, err := resolveModelsDir(cfg.ModelsDir)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized.Load() {
		if dir == l.modelsDir {
			return nil
		}
		return fmt.Errorf("%w: have %s, got %s", ErrAlreadyInitializedMismatch, l.modelsDir, dir)
	}
	if err := ensureModelsDir(dir); err != nil {
		return err
	}

	eng := cfg.Engine
	if eng == nil {
		if eng, err = native.Open(); err != nil {
			return remapError(err)
		}
	}

	l.level.SetLevel(cfg.LogLevel.ZapLevel())
	log := cfg.Logger
	if log == nil {
		log = logging.NewDefault(l.level)
	}
	ctx := context.Background()

	eng.Initialize(dir, int(cfg.LogLevel))
	deadline := time.Now().Add(cfg.InitTimeout)
	for !eng.IsInitialized() {
		if time.Now().After(deadline) {
			eng.Shutdown()
			log.Error(ctx, "engine did not initialize", "models_dir", dir, "timeout", cfg.InitTimeout)
			return fmt.Errorf("%w: after %s", ErrEngineUnavailable, cfg.InitTimeout)
		}
		time.Sleep(cfg.InitPollInterval)
	}

	if err := l.metrics.register(cfg.Registerer); err != nil {
		eng.Shutdown()
		return fmt.Errorf("privid: register metrics: %w", err)
	}

	l.eng = eng
	l.modelsDir = dir
	l.log = log
	l.initialized.Store(true)
	log.Info(ctx, "library initialized",
		"models_dir", dir,
		"log_level", cfg.LogLevel.String(),
		"engine_version", eng.Version(),
		"wrapper_version", WrapperVersion(),
	)
	return nil
}

func (l *library) shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized.Load() {
		return ErrNotInitialized
	}
	ctx := context.Background()

	l.sessMu.Lock()
	live := l.sessions
	l.sessions = make(map[*sessionState]struct{})
	l.sessMu.Unlock()

	for st := range live {
		st.mu.Lock()
		if !st.freed {
			l.eng.FreeSession(st.handle)
			st.freed = true
			l.log.Warn(ctx, "session still open at shutdown", "session_id", st.id)
		}
		st.mu.Unlock()
	}

	l.generation++
	l.eng.Shutdown()
	l.metrics.unregister()
	l.initialized.Store(false)
	l.eng = nil
	l.modelsDir = ""
	l.log.Info(ctx, "library shut down", "sessions_freed", len(live))
	l.log = logging.Nop()
	return nil
}

func (l *library) setLogLevel(level Level) bool {
	if !level.Valid() {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.initialized.Load() {
		return false
	}
	if !l.eng.SetLogLevel(int(level)) {
		return false
	}
	l.level.SetLevel(level.ZapLevel())
	l.log.Debug(context.Background(), "log level changed", "log_level", level.String())
	return true
}

func (l *library) track(st *sessionState) {
	l.sessMu.Lock()
	l.sessions[st] = struct{}{}
	l.sessMu.Unlock()
}

func (l *library) untrack(st *sessionState) {
	l.sessMu.Lock()
	delete(l.sessions, st)
	l.sessMu.Unlock()
}

func (l *library) liveSessions() int {
	l.sessMu.Lock()
	defer l.sessMu.Unlock()
	return len(l.sessions)
}
