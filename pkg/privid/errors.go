package privid

import (
	"errors"
	"fmt"

	"github.com/prividentity/cryptonets-go/pkg/privid/internal/native"
)

var (
	ErrNotInitialized             = errors.New("privid: library not initialized")
	ErrAlreadyInitializedMismatch = errors.New("privid: library already initialized with a different models directory")
	ErrUseAfterDestroy            = errors.New("privid: session used after destroy")

	ErrInvalidConfig   = errors.New("privid: invalid configuration payload")
	ErrInvalidImage    = errors.New("privid: invalid image")
	ErrNullArgument    = errors.New("privid: null argument")
	ErrInvalidLogLevel = errors.New("privid: invalid log level")
	ErrModelsDirectory = errors.New("privid: unusable models directory")

	ErrOperationFailed = errors.New("privid: operation failed")

	ErrDoubleRelease = errors.New("privid: buffer already released")
	ErrUnownedBuffer = errors.New("privid: buffer not issued by the registry")
	ErrAllocation    = errors.New("privid: engine returned no result buffer")

	ErrNotBuilt          = errors.New("privid: native engine not built into this binary")
	ErrEngineUnavailable = errors.New("privid: engine did not finish initializing")
	ErrSessionCreate     = errors.New("privid: engine refused to create session")
)

// OperationError is an engine-reported failure. It wraps ErrOperationFailed.
type OperationError struct {
	Op      string
	Status  Status
	Message string
}

func (e *OperationError) Error() string {
	switch {
	case e.Op == "" && e.Message == "":
		return fmt.Sprintf("privid: operation failed with status %d", e.Status)
	case e.Message == "":
		return fmt.Sprintf("privid: %s: failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("privid: %s: failed with status %d: %s", e.Op, e.Status, e.Message)
}

func (e *OperationError) Unwrap() error { return ErrOperationFailed }

// remapError converts binding errors to the public sentinels.
func remapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, native.ErrNotBuilt) {
		return ErrNotBuilt
	}
	return err
}
