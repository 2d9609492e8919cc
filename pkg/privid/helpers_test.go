package privid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
	"github.com/prividentity/cryptonets-go/pkg/privid/enginetest"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
)

func setupEngine(t *testing.T, eng engine.Engine) {
	t.Helper()
	require.NoError(t, Initialize(Config{
		ModelsDir:        t.TempDir(),
		LogLevel:         LevelInfo,
		Engine:           eng,
		Logger:           logging.Nop(),
		InitPollInterval: time.Millisecond,
	}))
	t.Cleanup(func() { _ = Shutdown() })
}

func setup(t *testing.T, opts ...enginetest.Option) *enginetest.Engine {
	t.Helper()
	eng := enginetest.New(opts...)
	setupEngine(t, eng)
	return eng
}

func gradient(w, h int) Image {
	px := make([]byte, w*h*3)
	for i := range px {
		px[i] = byte(i % 251)
	}
	return Image{Pixels: px, Width: w, Height: h}
}

func uniformImage(w, h int) Image {
	return Image{Pixels: make([]byte, w*h*3), Width: w, Height: h}
}

// gatedEngine blocks every Call until release is closed.
type gatedEngine struct {
	*enginetest.Engine
	entered chan struct{}
	release chan struct{}
}

func newGatedEngine() *gatedEngine {
	return &gatedEngine{
		Engine:  enginetest.New(),
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedEngine) Call(h engine.SessionHandle, req *engine.Request) engine.Response {
	g.entered <- struct{}{}
	<-g.release
	return g.Engine.Call(h, req)
}

// holdEngine blocks calls on one session handle until release is closed.
// Calls on every other handle pass straight through.
type holdEngine struct {
	*enginetest.Engine
	held    engine.SessionHandle
	entered chan struct{}
	release chan struct{}
}

func newHoldEngine() *holdEngine {
	return &holdEngine{
		Engine:  enginetest.New(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (h *holdEngine) Call(sh engine.SessionHandle, req *engine.Request) engine.Response {
	if sh == h.held {
		h.entered <- struct{}{}
		<-h.release
	}
	return h.Engine.Call(sh, req)
}

// countingEngine records the highest number of concurrent calls per session.
type countingEngine struct {
	*enginetest.Engine
	mu       sync.Mutex
	inflight map[engine.SessionHandle]int
	peak     map[engine.SessionHandle]int
	total    int
}

func newCountingEngine() *countingEngine {
	return &countingEngine{
		Engine:   enginetest.New(),
		inflight: make(map[engine.SessionHandle]int),
		peak:     make(map[engine.SessionHandle]int),
	}
}

func (c *countingEngine) Call(h engine.SessionHandle, req *engine.Request) engine.Response {
	c.mu.Lock()
	c.inflight[h]++
	c.total++
	if c.inflight[h] > c.peak[h] {
		c.peak[h] = c.inflight[h]
	}
	c.mu.Unlock()

	time.Sleep(time.Millisecond)
	resp := c.Engine.Call(h, req)

	c.mu.Lock()
	c.inflight[h]--
	c.mu.Unlock()
	return resp
}

func (c *countingEngine) maxPeak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := 0
	for _, p := range c.peak {
		m = max(m, p)
	}
	return m
}

// scriptedEngine returns a fixed response from every Call.
type scriptedEngine struct {
	*enginetest.Engine
	resp engine.Response
}

func (s *scriptedEngine) Call(engine.SessionHandle, *engine.Request) engine.Response {
	return s.resp
}
