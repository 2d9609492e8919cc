package privid

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prividentity/cryptonets-go/pkg/privid/engine"
	"github.com/prividentity/cryptonets-go/pkg/privid/logging"
)

const (
	DefaultInitTimeout      = 10 * time.Second
	DefaultInitPollInterval = 100 * time.Millisecond
)

// Config expresses the knobs required to bring up the engine.
type Config struct {
	// ModelsDir is where the engine caches its models. Empty resolves to
	// <user cache dir>/cryptonets-go/models, created if missing.
	ModelsDir string

	LogLevel Level

	// Engine overrides the native binding.
	Engine engine.Engine

	// Logger overrides the default zap logger, which writes JSON to stderr
	// and follows SetLogLevel.
	Logger logging.Logger

	// Registerer receives the library metrics when set.
	Registerer prometheus.Registerer

	InitTimeout      time.Duration
	InitPollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.InitTimeout <= 0 {
		c.InitTimeout = DefaultInitTimeout
	}
	if c.InitPollInterval <= 0 {
		c.InitPollInterval = DefaultInitPollInterval
	}
	return c
}
