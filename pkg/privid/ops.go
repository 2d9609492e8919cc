package privid

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
)

type call struct {
	op     engine.Op
	config []byte
	images []Image
	target []byte
	fudge  float32
}

// request validates the inputs and builds the engine request. Nothing is
// allocated on the engine side when it fails.
func (c call) request() (*engine.Request, error) {
	if len(c.images) != c.op.Images() {
		return nil, fmt.Errorf("%w: %s takes %d images", ErrInvalidImage, c.op, c.op.Images())
	}
	var format ImageFormat
	raw := make([]engine.Image, len(c.images))
	for i, img := range c.images {
		if err := img.validate(); err != nil {
			return nil, err
		}
		if i == 0 {
			format = img.format()
		} else if img.format() != format {
			return nil, fmt.Errorf("%w: images mix %s and %s", ErrInvalidImage, format, img.format())
		}
		raw[i] = img.raw()
	}
	cfg, err := callPayload(c.config, format)
	if err != nil {
		return nil, err
	}
	return &engine.Request{
		Op:          c.op,
		Config:      cfg,
		Images:      raw,
		Target:      c.target,
		FudgeFactor: c.fudge,
	}, nil
}

// dispatch runs one operation. Every output slot of the engine response
// becomes a registered buffer. A non-nil error means nothing is left for the
// caller to release.
func (s *Session) dispatch(ctx context.Context, c call) (res Result, bins []*BinaryBuffer, err error) {
	name := c.op.String()
	res.Op = name

	lib.mu.RLock()
	defer lib.mu.RUnlock()
	defer func() { lib.metrics.observe(name, res.Status, err) }()

	st, err := s.acquire()
	if err != nil {
		return res, nil, err
	}
	defer st.mu.Unlock()

	log := st.log.With("op", name, "call_id", uuid.NewString())
	req, err := c.request()
	if err != nil {
		log.Debug(ctx, "call rejected", "error", err)
		return res, nil, err
	}
	if c.op == engine.OpUserDelete {
		log.Debug(ctx, "dispatch", logging.Redacted("puid"))
	} else {
		log.Debug(ctx, "dispatch", "images", len(req.Images))
	}

	resp := st.eng.Call(st.handle, req)
	runtime.KeepAlive(c.images)

	res.Status = Status(resp.Status)
	res.Text = buffers.text(st.eng, resp.Text)
	want := c.op.BinaryOutputs()
	bins = make([]*BinaryBuffer, want)
	for i := range bins {
		var m engine.Mem
		if i < len(resp.Binary) {
			m = resp.Binary[i]
		}
		bins[i] = buffers.binary(st.eng, m)
	}
	for i := want; i < len(resp.Binary); i++ {
		buffers.discard(st.eng, resp.Binary[i], kindBinary)
	}

	if res.Status.OK() && resp.Text.IsNull() {
		_ = ReleaseText(res.Text)
		for _, b := range bins {
			_ = ReleaseBinary(b)
		}
		log.Error(ctx, "engine returned no result text", "status", int32(res.Status))
		return Result{Op: name, Status: res.Status}, nil, fmt.Errorf("%w: %s", ErrAllocation, name)
	}

	log.Debug(ctx, "dispatch complete", "status", int32(res.Status), "text_len", resp.Text.Len)
	return res, bins, nil
}

func (s *Session) text(ctx context.Context, c call) (*Result, error) {
	res, _, err := s.dispatch(ctx, c)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func one(img Image) []Image { return []Image{img} }

// Validate checks img for a usable face.
func (s *Session) Validate(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpValidate, config: config, images: one(img)})
}

// EstimateAge estimates the age of the face in img.
func (s *Session) EstimateAge(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpEstimateAge, config: config, images: one(img)})
}

// EstimateAgeWithStdDev is EstimateAge with the dispersion of the estimate.
func (s *Session) EstimateAgeWithStdDev(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpEstimateAgeStdDev, config: config, images: one(img)})
}

// EnrollOneFA enrolls the face in img; the text carries the PUID.
func (s *Session) EnrollOneFA(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpEnrollOneFA, config: config, images: one(img)})
}

// PredictOneFA identifies the face in img; the text carries the best match
// and its score.
func (s *Session) PredictOneFA(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpPredictOneFA, config: config, images: one(img)})
}

// UserDelete removes the enrollment identified by puid.
func (s *Session) UserDelete(ctx context.Context, puid string, config []byte) (*Result, error) {
	if puid == "" {
		return nil, fmt.Errorf("%w: puid", ErrNullArgument)
	}
	return s.text(ctx, call{op: engine.OpUserDelete, config: config, target: []byte(puid)})
}

// FaceCompare compares the faces in a and b. fudge scales the match
// threshold tolerance; 1 leaves it unchanged.
func (s *Session) FaceCompare(ctx context.Context, a, b Image, fudge float32, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpFaceCompare, config: config, images: []Image{a, b}, fudge: fudge})
}

// AntiSpoofing checks img for presentation attacks.
func (s *Session) AntiSpoofing(ctx context.Context, img Image, config []byte) (*Result, error) {
	return s.text(ctx, call{op: engine.OpAntiSpoofing, config: config, images: one(img)})
}

// DocScanFace extracts the document and the face on it. Document and Face
// are always returned, empty when nothing was found.
func (s *Session) DocScanFace(ctx context.Context, img Image, config []byte) (*DocScanResult, error) {
	res, bins, err := s.dispatch(ctx, call{op: engine.OpDocScanFace, config: config, images: one(img)})
	if err != nil {
		return nil, err
	}
	return &DocScanResult{Result: res, Document: bins[0], Face: bins[1]}, nil
}

// FaceISO crops the face in img to an ISO image.
func (s *Session) FaceISO(ctx context.Context, img Image, config []byte) (*ISOResult, error) {
	res, bins, err := s.dispatch(ctx, call{op: engine.OpFaceISO, config: config, images: one(img)})
	if err != nil {
		return nil, err
	}
	return &ISOResult{Result: res, Image: bins[0]}, nil
}
