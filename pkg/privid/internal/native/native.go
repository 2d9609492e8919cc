//go:build cgo && privid_native

package native

/*
#cgo CFLAGS: -I${SRCDIR}
#cgo LDFLAGS: -lprivid_fhe
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include "privid_api.h"
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
)

// Engine is the engine.Engine backed by libprivid_fhe. It holds no state; the
// library keeps its own process-wide state behind the C API.
type Engine struct{}

var _ engine.Engine = Engine{}

// Open returns the native engine.
func Open() (engine.Engine, error) {
	return Engine{}, nil
}

// Version returns the version string reported by the linked library.
func Version() string {
	return C.GoString(C.privid_get_version())
}

// empty backs zero-length inputs so the library never sees a NULL buffer
// paired with a zero length.
var empty [1]byte

func cchars(b []byte) (*C.char, C.int) {
	if len(b) == 0 {
		return (*C.char)(unsafe.Pointer(&empty[0])), 0
	}
	return (*C.char)(unsafe.Pointer(&b[0])), C.int(len(b))
}

func cpixels(img engine.Image) (*C.uint8_t, C.int, C.int) {
	if len(img.Pixels) == 0 {
		return (*C.uint8_t)(unsafe.Pointer(&empty[0])), C.int(img.Width), C.int(img.Height)
	}
	return (*C.uint8_t)(unsafe.Pointer(&img.Pixels[0])), C.int(img.Width), C.int(img.Height)
}

func session(h engine.SessionHandle) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h)) //nolint:govet // handle is a C pointer
}

func textMem(p *C.char, n C.int) engine.Mem {
	if p == nil {
		return engine.Mem{}
	}
	return engine.Mem{Ptr: unsafe.Pointer(p), Len: int(n)}
}

func binMem(p *C.uint8_t, n C.int) engine.Mem {
	if p == nil {
		return engine.Mem{}
	}
	return engine.Mem{Ptr: unsafe.Pointer(p), Len: int(n)}
}

func (Engine) Version() string { return Version() }

func (Engine) Initialize(modelsDir string, level int) {
	cdir := C.CString(modelsDir)
	defer C.free(unsafe.Pointer(cdir))
	C.privid_initialize_lib(cdir, C.int(len(modelsDir)), C.int(level))
}

func (Engine) IsInitialized() bool { return bool(C.privid_is_library_initialized()) }

func (Engine) Shutdown() { C.privid_shutdown_lib() }

func (Engine) SetLogLevel(level int) bool { return bool(C.privid_set_log_level(C.int(level))) }

func (Engine) LogLevel() int { return int(C.privid_get_log_level()) }

// ModelsCacheDirectory copies the path into Go memory and frees the library
// buffer before returning.
func (Engine) ModelsCacheDirectory() (string, bool) {
	var out *C.char
	var n C.int
	if !bool(C.privid_get_models_cache_directory(&out, &n)) || out == nil {
		return "", false
	}
	defer C.privid_free_char_buffer(out)
	return C.GoStringN(out, n), true
}

func (Engine) NewSession(settings []byte) (engine.SessionHandle, bool) {
	p, n := cchars(settings)
	var out unsafe.Pointer
	ok := bool(C.privid_initialize_session(p, n, &out))
	runtime.KeepAlive(settings)
	if !ok || out == nil {
		return 0, false
	}
	return engine.SessionHandle(uintptr(out)), true
}

func (Engine) SetConfiguration(h engine.SessionHandle, config []byte) bool {
	p, n := cchars(config)
	ok := bool(C.privid_set_configuration(session(h), p, n))
	runtime.KeepAlive(config)
	return ok
}

func (Engine) FreeSession(h engine.SessionHandle) {
	C.privid_deinitialize_session(session(h))
}

func (Engine) FreeText(m engine.Mem) {
	C.privid_free_char_buffer((*C.char)(m.Ptr))
}

func (Engine) FreeBinary(m engine.Mem) {
	C.privid_free_buffer(m.Ptr)
}

// Call dispatches req to the matching C entry point. Inputs are borrowed for
// the duration of the call only.
func (Engine) Call(h engine.SessionHandle, req *engine.Request) engine.Response {
	s := session(h)
	cfg, cfgLen := cchars(req.Config)

	var (
		rc      C.int32_t
		text    *C.char
		textLen C.int
		resp    engine.Response
	)

	switch req.Op {
	case engine.OpValidate:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_validate(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	case engine.OpEstimateAge:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_estimate_age(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	case engine.OpEstimateAgeStdDev:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_estimate_age_with_stdd(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	case engine.OpEnrollOneFA:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_enroll_onefa(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	case engine.OpPredictOneFA:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_face_predict_onefa(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	case engine.OpUserDelete:
		puid, puidLen := cchars(req.Target)
		rc = C.privid_user_delete(s, cfg, cfgLen, puid, puidLen, &text, &textLen)
	case engine.OpDocScanFace:
		px, w, hh := cpixels(req.Images[0])
		var doc, face *C.uint8_t
		var docLen, faceLen C.int
		rc = C.privid_doc_scan_face(s, cfg, cfgLen, px, w, hh, &doc, &docLen, &face, &faceLen, &text, &textLen)
		resp.Binary = []engine.Mem{binMem(doc, docLen), binMem(face, faceLen)}
	case engine.OpFaceCompare:
		pa, wa, ha := cpixels(req.Images[0])
		pb, wb, hb := cpixels(req.Images[1])
		rc = C.privid_face_compare_files(s, C.float(req.FudgeFactor), cfg, cfgLen, pa, wa, ha, pb, wb, hb, &text, &textLen)
	case engine.OpFaceISO:
		px, w, hh := cpixels(req.Images[0])
		var iso *C.uint8_t
		var isoLen C.int
		rc = C.privid_face_iso(s, cfg, cfgLen, px, w, hh, &iso, &isoLen, &text, &textLen)
		resp.Binary = []engine.Mem{binMem(iso, isoLen)}
	case engine.OpAntiSpoofing:
		px, w, hh := cpixels(req.Images[0])
		rc = C.privid_anti_spoofing(s, cfg, cfgLen, px, w, hh, &text, &textLen)
	default:
		return engine.Response{Status: -1}
	}
	runtime.KeepAlive(req)

	resp.Status = int32(rc)
	resp.Text = textMem(text, textLen)
	return resp
}
