package enginetest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sync"
	"unsafe"

	"github.com/google/uuid"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
)

const (
	defaultCollection = "default"
	defaultThreshold  = 0.8
	engineVersion     = "enginetest-1.0.0"
)

// Option configures an Engine.
type Option func(*Engine)

// WithInitDelay makes IsInitialized report false for the first n polls after
// Initialize.
func WithInitDelay(n int) Option {
	return func(e *Engine) { e.initDelay = n }
}

// WithNeverReady makes Initialize never complete.
func WithNeverReady() Option {
	return func(e *Engine) { e.neverReady = true }
}

// WithSessionFailure makes every NewSession call fail.
func WithSessionFailure() Option {
	return func(e *Engine) { e.failSessions = true }
}

type session struct {
	settings map[string]any
	config   map[string]any
}

type allocation struct {
	buf    []byte
	binary bool
}

// Engine is an in-memory engine.Engine.
type Engine struct {
	mu sync.Mutex

	initDelay    int
	neverReady   bool
	failSessions bool

	initialized bool
	pending     int
	started     bool
	modelsDir   string
	level       int

	nextSession engine.SessionHandle
	sessions    map[engine.SessionHandle]*session

	nextOp int32
	users  map[string]map[string]string

	allocs      map[unsafe.Pointer]allocation
	frees       int
	doubleFrees int
	mismatched  int
	dirtyFrees  int
	lastConfig  map[string]any
}

var _ engine.Engine = (*Engine)(nil)

// New returns an uninitialized Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		nextSession: 1,
		sessions:    make(map[engine.SessionHandle]*session),
		users:       make(map[string]map[string]string),
		allocs:      make(map[unsafe.Pointer]allocation),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Version() string { return engineVersion }

func (e *Engine) Initialize(modelsDir string, level int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelsDir = modelsDir
	e.level = level
	e.started = true
	e.pending = e.initDelay
}

func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized || !e.started || e.neverReady {
		return e.initialized
	}
	if e.pending > 0 {
		e.pending--
		return false
	}
	e.initialized = true
	return true
}

func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	e.started = false
	e.modelsDir = ""
}

func (e *Engine) SetLogLevel(level int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || level < 0 || level > 4 {
		return false
	}
	e.level = level
	return true
}

func (e *Engine) LogLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

func (e *Engine) ModelsCacheDirectory() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return "", false
	}
	return e.modelsDir, true
}

func parseObject(b []byte) (map[string]any, bool) {
	if len(b) == 0 {
		return map[string]any{}, true
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func (e *Engine) NewSession(settings []byte) (engine.SessionHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || e.failSessions {
		return 0, false
	}
	m, ok := parseObject(settings)
	if !ok {
		return 0, false
	}
	h := e.nextSession
	e.nextSession++
	e.sessions[h] = &session{settings: m, config: map[string]any{}}
	return h, true
}

func (e *Engine) SetConfiguration(h engine.SessionHandle, config []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[h]
	if !ok {
		return false
	}
	m, ok := parseObject(config)
	if !ok {
		return false
	}
	s.config = m
	return true
}

func (e *Engine) FreeSession(h engine.SessionHandle) {
	e.mu.Lock()
	delete(e.sessions, h)
	e.mu.Unlock()
}

// Sessions reports how many sessions are live.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Outstanding reports how many allocated buffers have not been freed.
func (e *Engine) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.allocs)
}

// Frees reports how many buffers were freed.
func (e *Engine) Frees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frees
}

// DoubleFrees reports frees of memory the engine did not have outstanding.
func (e *Engine) DoubleFrees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doubleFrees
}

// MismatchedFrees reports text buffers freed as binary or the reverse.
func (e *Engine) MismatchedFrees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mismatched
}

// DirtyFrees reports binary buffers that still held non-zero bytes when
// freed.
func (e *Engine) DirtyFrees() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyFrees
}

// LastConfig returns the effective configuration of the most recent call.
func (e *Engine) LastConfig() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.lastConfig))
	for k, v := range e.lastConfig {
		out[k] = v
	}
	return out
}

// alloc must be called with e.mu held. Empty buffers still get a backing
// array so the returned Mem is never null.
func (e *Engine) alloc(b []byte, binary bool) engine.Mem {
	buf := make([]byte, len(b), len(b)+1)
	copy(buf, b)
	p := unsafe.Pointer(unsafe.SliceData(buf[:cap(buf)]))
	e.allocs[p] = allocation{buf: buf, binary: binary}
	return engine.Mem{Ptr: p, Len: len(buf)}
}

// Alloc hands out engine memory holding a copy of b, the way Call does for
// its outputs. It is accounted like any other allocation.
func (e *Engine) Alloc(b []byte, binary bool) engine.Mem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc(b, binary)
}

func (e *Engine) free(m engine.Mem, binary bool) {
	if m.Ptr == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.allocs[m.Ptr]
	if !ok {
		e.doubleFrees++
		return
	}
	if a.binary != binary {
		e.mismatched++
	}
	if binary && !zeroed(a.buf) {
		e.dirtyFrees++
	}
	delete(e.allocs, m.Ptr)
	e.frees++
}

func (e *Engine) FreeText(m engine.Mem) { e.free(m, false) }

func (e *Engine) FreeBinary(m engine.Mem) { e.free(m, true) }

func (e *Engine) Call(h engine.SessionHandle, req *engine.Request) engine.Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	binaries := func() []engine.Mem {
		out := make([]engine.Mem, req.Op.BinaryOutputs())
		for i := range out {
			out[i] = e.alloc(nil, true)
		}
		return out
	}
	fail := func(reason string) engine.Response {
		return engine.Response{
			Status: -1,
			Text:   e.alloc(marshal(map[string]any{"status": -1, "message": reason}), false),
			Binary: binaries(),
		}
	}

	s, ok := e.sessions[h]
	if !ok || !e.initialized {
		return fail("invalid session")
	}
	call, ok := parseObject(req.Config)
	if !ok {
		return fail("invalid configuration")
	}
	cfg := merge(s.settings, s.config, call)
	e.lastConfig = cfg

	if !req.Op.Valid() || len(req.Images) != req.Op.Images() {
		return fail("unsupported operation")
	}
	ch := channels(cfg)
	for _, img := range req.Images {
		if img.Width <= 0 || img.Height <= 0 || len(img.Pixels) != img.Width*img.Height*ch {
			return fail("image size mismatch")
		}
	}

	op := e.nextOp
	e.nextOp++
	succeed := func(body map[string]any, bins ...[]byte) engine.Response {
		body["status"] = 0
		body["op_id"] = op
		resp := engine.Response{Status: op, Text: e.alloc(marshal(body), false)}
		for _, b := range bins {
			resp.Binary = append(resp.Binary, e.alloc(b, true))
		}
		return resp
	}

	if req.Op == engine.OpUserDelete {
		puid := string(req.Target)
		for _, users := range e.users {
			for k, v := range users {
				if v == puid {
					delete(users, k)
					return succeed(map[string]any{"message": "user deleted", "puid": puid})
				}
			}
		}
		return fail("user not found")
	}

	img := req.Images[0]
	if uniform(img.Pixels) {
		return fail("no face detected")
	}

	switch req.Op {
	case engine.OpValidate:
		return succeed(map[string]any{"face_detected": true, "faces": 1, "message": "valid face"})
	case engine.OpEstimateAge:
		return succeed(map[string]any{"face_detected": true, "age": age(img.Pixels)})
	case engine.OpEstimateAgeStdDev:
		return succeed(map[string]any{"face_detected": true, "age": age(img.Pixels), "age_stddev": 2.5})
	case engine.OpEnrollOneFA:
		collection := stringField(cfg, "collection_name", defaultCollection)
		users := e.users[collection]
		if users == nil {
			users = make(map[string]string)
			e.users[collection] = users
		}
		key := digest(img.Pixels)
		if puid, ok := users[key]; ok {
			return succeed(map[string]any{"puid": puid, "enroll_status": "existing"})
		}
		puid := uuid.NewString()
		users[key] = puid
		return succeed(map[string]any{"puid": puid, "enroll_status": "new"})
	case engine.OpPredictOneFA:
		collection := stringField(cfg, "collection_name", defaultCollection)
		if puid, ok := e.users[collection][digest(img.Pixels)]; ok {
			return succeed(map[string]any{"puid": puid, "score": 1.0})
		}
		return fail("user not enrolled")
	case engine.OpDocScanFace:
		if img.Width <= img.Height {
			return fail("no document found")
		}
		face := crop(img, ch, img.Height/2)
		return succeed(map[string]any{"document_detected": true, "face_detected": true}, append([]byte(nil), img.Pixels...), face)
	case engine.OpFaceCompare:
		other := req.Images[1]
		if uniform(other.Pixels) {
			return fail("no face detected")
		}
		score := similarity(img.Pixels, other.Pixels)
		threshold := numberField(cfg, "threshold", defaultThreshold)
		match := float64(req.FudgeFactor)*score >= threshold
		if !match {
			return fail("comparison below threshold")
		}
		return succeed(map[string]any{"match": true, "score": score, "threshold": threshold})
	case engine.OpFaceISO:
		side := min(img.Width, img.Height)
		return succeed(map[string]any{"face_detected": true, "iso_width": side, "iso_height": side}, crop(img, ch, side))
	case engine.OpAntiSpoofing:
		return succeed(map[string]any{"face_detected": true, "liveness": "real"})
	}
	return fail("unsupported operation")
}

func marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"status":-1}`)
	}
	return b
}

func merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

func channels(cfg map[string]any) int {
	if stringField(cfg, "input_image_format", "rgb") == "rgba" {
		return 4
	}
	return 3
}

func stringField(cfg map[string]any, key, def string) string {
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return def
}

func numberField(cfg map[string]any, key string, def float64) float64 {
	if f, ok := cfg[key].(float64); ok {
		return f
	}
	return def
}

func uniform(px []byte) bool {
	if len(px) == 0 {
		return true
	}
	for _, p := range px[1:] {
		if p != px[0] {
			return false
		}
	}
	return true
}

func zeroed(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func mean(px []byte) float64 {
	var sum float64
	for _, p := range px {
		sum += float64(p)
	}
	return sum / float64(len(px))
}

func age(px []byte) float64 {
	return math.Round((18+mean(px)/255*60)*10) / 10
}

func digest(px []byte) string {
	sum := sha256.Sum256(px)
	return hex.EncodeToString(sum[:])
}

func similarity(a, b []byte) float64 {
	if len(a) != len(b) {
		return 0
	}
	var diff float64
	for i := range a {
		diff += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return 1 - diff/float64(len(a))/255
}

// crop returns the centered side x side square of img.
func crop(img engine.Image, ch, side int) []byte {
	x0 := (img.Width - side) / 2
	y0 := (img.Height - side) / 2
	out := make([]byte, 0, side*side*ch)
	for y := y0; y < y0+side; y++ {
		row := (y*img.Width + x0) * ch
		out = append(out, img.Pixels[row:row+side*ch]...)
	}
	return out
}
