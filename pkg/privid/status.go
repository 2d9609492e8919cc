package privid

// Status is the return code of an engine operation. Non-negative values are
// success and carry the engine's operation id; negative values are failures.
type Status int32

// OK reports whether s is a success status.
func (s Status) OK() bool { return s >= 0 }

// Err returns nil for a success status and an *OperationError otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return &OperationError{Status: s}
}
