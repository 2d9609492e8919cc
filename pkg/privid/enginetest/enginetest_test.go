package enginetest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
)

func gradient(w, h int) engine.Image {
	px := make([]byte, w*h*3)
	for i := range px {
		px[i] = byte(i % 251)
	}
	return engine.Image{Pixels: px, Width: w, Height: h}
}

func ready(t *testing.T, opts ...Option) (*Engine, engine.SessionHandle) {
	t.Helper()
	e := New(opts...)
	e.Initialize(t.TempDir(), 3)
	require.True(t, e.IsInitialized())
	h, ok := e.NewSession([]byte(`{"threshold":0.8}`))
	require.True(t, ok)
	return e, h
}

func text(t *testing.T, m engine.Mem) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(m.View(), &out))
	return out
}

func TestInitDelay(t *testing.T) {
	e := New(WithInitDelay(2))
	assert.False(t, e.IsInitialized())
	e.Initialize("/models", 1)
	assert.False(t, e.IsInitialized())
	assert.False(t, e.IsInitialized())
	assert.True(t, e.IsInitialized())

	dir, ok := e.ModelsCacheDirectory()
	require.True(t, ok)
	assert.Equal(t, "/models", dir)

	e.Shutdown()
	assert.False(t, e.IsInitialized())
	_, ok = e.ModelsCacheDirectory()
	assert.False(t, ok)
}

func TestNeverReady(t *testing.T) {
	e := New(WithNeverReady())
	e.Initialize("/models", 1)
	for i := 0; i < 5; i++ {
		assert.False(t, e.IsInitialized())
	}
}

func TestSessionRejectsMalformedSettings(t *testing.T) {
	e, _ := ready(t)
	_, ok := e.NewSession([]byte(`{"threshold":`))
	assert.False(t, ok)
	_, ok = e.NewSession([]byte(`[1,2]`))
	assert.False(t, ok)
	assert.Equal(t, 1, e.Sessions())
}

func TestValidateAllocatesTrackedText(t *testing.T) {
	e, h := ready(t)
	resp := e.Call(h, &engine.Request{Op: engine.OpValidate, Images: []engine.Image{gradient(224, 224)}})
	require.GreaterOrEqual(t, resp.Status, int32(0))
	assert.Equal(t, true, text(t, resp.Text)["face_detected"])
	assert.Equal(t, 1, e.Outstanding())

	e.FreeText(resp.Text)
	assert.Zero(t, e.Outstanding())
	e.FreeText(resp.Text)
	assert.Equal(t, 1, e.DoubleFrees())
}

func TestUniformImageHasNoFace(t *testing.T) {
	e, h := ready(t)
	img := engine.Image{Pixels: make([]byte, 8*8*3), Width: 8, Height: 8}
	resp := e.Call(h, &engine.Request{Op: engine.OpEstimateAge, Images: []engine.Image{img}})
	assert.Negative(t, resp.Status)
	assert.Equal(t, "no face detected", text(t, resp.Text)["message"])
}

func TestDocScanWithoutDocumentReturnsEmptyBuffers(t *testing.T) {
	e, h := ready(t)
	resp := e.Call(h, &engine.Request{Op: engine.OpDocScanFace, Images: []engine.Image{gradient(10, 20)}})
	assert.Negative(t, resp.Status)
	require.Len(t, resp.Binary, 2)
	for _, m := range resp.Binary {
		assert.False(t, m.IsNull())
		assert.Zero(t, m.Len)
		e.FreeBinary(m)
	}
	e.FreeText(resp.Text)
	assert.Zero(t, e.Outstanding())
	assert.Zero(t, e.MismatchedFrees())
}

func TestCompareUsesFudgeAndThreshold(t *testing.T) {
	e, h := ready(t)
	a := gradient(16, 16)
	resp := e.Call(h, &engine.Request{Op: engine.OpFaceCompare, Images: []engine.Image{a, a}, FudgeFactor: 1})
	require.GreaterOrEqual(t, resp.Status, int32(0))
	assert.Equal(t, true, text(t, resp.Text)["match"])

	resp = e.Call(h, &engine.Request{Op: engine.OpFaceCompare, Images: []engine.Image{a, a}, FudgeFactor: 0.5})
	assert.Negative(t, resp.Status)

	resp = e.Call(h, &engine.Request{
		Op:          engine.OpFaceCompare,
		Config:      []byte(`{"threshold":0.4}`),
		Images:      []engine.Image{a, a},
		FudgeFactor: 0.5,
	})
	assert.GreaterOrEqual(t, resp.Status, int32(0))
	assert.Equal(t, 0.4, e.LastConfig()["threshold"])
}

func TestEnrollPredictDelete(t *testing.T) {
	e, h := ready(t)
	img := gradient(12, 12)

	resp := e.Call(h, &engine.Request{Op: engine.OpEnrollOneFA, Images: []engine.Image{img}})
	require.GreaterOrEqual(t, resp.Status, int32(0))
	puid, _ := text(t, resp.Text)["puid"].(string)
	require.NotEmpty(t, puid)

	resp = e.Call(h, &engine.Request{Op: engine.OpPredictOneFA, Images: []engine.Image{img}})
	require.GreaterOrEqual(t, resp.Status, int32(0))
	assert.Equal(t, puid, text(t, resp.Text)["puid"])

	resp = e.Call(h, &engine.Request{Op: engine.OpPredictOneFA, Config: []byte(`{"collection_name":"other"}`), Images: []engine.Image{img}})
	assert.Negative(t, resp.Status)

	resp = e.Call(h, &engine.Request{Op: engine.OpUserDelete, Target: []byte(puid)})
	assert.GreaterOrEqual(t, resp.Status, int32(0))
	resp = e.Call(h, &engine.Request{Op: engine.OpUserDelete, Target: []byte(puid)})
	assert.Negative(t, resp.Status)
}

func TestFaceISOCropsSquare(t *testing.T) {
	e, h := ready(t)
	resp := e.Call(h, &engine.Request{Op: engine.OpFaceISO, Images: []engine.Image{gradient(30, 20)}})
	require.GreaterOrEqual(t, resp.Status, int32(0))
	require.Len(t, resp.Binary, 1)
	assert.Equal(t, 20*20*3, resp.Binary[0].Len)

	e.FreeBinary(resp.Binary[0])
	assert.Equal(t, 1, e.DirtyFrees())
}

func TestSizeMismatchFails(t *testing.T) {
	e, h := ready(t)
	img := gradient(4, 4)
	resp := e.Call(h, &engine.Request{Op: engine.OpValidate, Config: []byte(`{"input_image_format":"rgba"}`), Images: []engine.Image{img}})
	assert.Negative(t, resp.Status)
	assert.Equal(t, "image size mismatch", text(t, resp.Text)["message"])
}
