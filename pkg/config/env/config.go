package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/token-minter/pkg/config"
	"github.com/code-payments/token-minter/pkg/config/wrapper"
)

// source is a config.Config over a single environment variable. The value
// is captured once, so a process sees the environment it started with.
type source struct {
	raw []byte
}

// NewConfig reads the environment variable key. Keys are upper cased and
// surrounding whitespace is dropped from the value.
func NewConfig(key string) config.Config {
	val, ok := os.LookupEnv(strings.ToUpper(key))
	if !ok {
		return &source{}
	}
	return &source{raw: []byte(strings.TrimSpace(val))}
}

func (s *source) Get(_ context.Context) (any, error) {
	if len(s.raw) == 0 {
		return nil, config.ErrNoValue
	}
	return s.raw, nil
}

func (s *source) Shutdown() {}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}
