package privid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the outcome of an operation that reached the engine. It owns its
// buffers until Release.
type Result struct {
	Op     string
	Status Status
	Text   *TextBuffer
}

// Err returns nil on success and an *OperationError carrying the engine's
// message otherwise.
func (r *Result) Err() error {
	if r == nil || r.Status.OK() {
		return nil
	}
	return &OperationError{Op: r.Op, Status: r.Status, Message: r.message()}
}

func (r *Result) message() string {
	raw := r.Text.String()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return raw
}

// Decode unmarshals the text result into v.
func (r *Result) Decode(v any) error {
	if r == nil || r.Text == nil {
		return ErrNullArgument
	}
	b := r.Text.Bytes()
	if b == nil {
		return fmt.Errorf("%w: result text is empty or released", ErrNullArgument)
	}
	return json.Unmarshal(b, v)
}

// Release returns every buffer of the result.
func (r *Result) Release() error {
	if r == nil {
		return ErrNullArgument
	}
	return ReleaseText(r.Text)
}

// DocScanResult carries the cropped document and face next to the text.
// Both are always present, possibly empty.
type DocScanResult struct {
	Result
	Document *BinaryBuffer
	Face     *BinaryBuffer
}

func (r *DocScanResult) Release() error {
	if r == nil {
		return ErrNullArgument
	}
	return errors.Join(r.Result.Release(), ReleaseBinary(r.Document), ReleaseBinary(r.Face))
}

// ISOResult carries the ISO face image next to the text.
type ISOResult struct {
	Result
	Image *BinaryBuffer
}

func (r *ISOResult) Release() error {
	if r == nil {
		return ErrNullArgument
	}
	return errors.Join(r.Result.Release(), ReleaseBinary(r.Image))
}
