package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Parser converts the raw bytes from a text based source, such as the
// environment, into a typed value.
type Parser[T any] func(raw []byte) (T, error)

type value[T any] struct {
	source       config.Config
	defaultValue T
	parse        Parser[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed config backed by source. Source values of type T are
// used as is, and []byte values go through parse.
func New[T any](source config.Config, defaultValue T, parse Parser[T]) config.Value[T] {
	return &value[T]{
		source:       source,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *value[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.source.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.set(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	var newValue T
	if typed, ok := raw.(T); ok {
		newValue = typed
	} else if b, ok := raw.([]byte); ok && c.parse != nil {
		newValue, err = c.parse(b)
		if err != nil {
			return lastValue, err
		}
	} else {
		return lastValue, ErrUnsuportedConversion
	}

	c.set(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *value[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *value[T]) Shutdown() {
	c.source.Shutdown()
}

func (c *value[T]) set(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

func NewBoolConfig(source config.Config, defaultValue bool) config.Bool {
	return New(source, defaultValue, func(raw []byte) (bool, error) {
		return strconv.ParseBool(string(raw))
	})
}

func NewDurationConfig(source config.Config, defaultValue time.Duration) config.Duration {
	return New(source, defaultValue, func(raw []byte) (time.Duration, error) {
		return time.ParseDuration(string(raw))
	})
}

func NewUint64Config(source config.Config, defaultValue uint64) config.Uint64 {
	return New(source, defaultValue, func(raw []byte) (uint64, error) {
		return strconv.ParseUint(string(raw), 10, 64)
	})
}

func NewStringConfig(source config.Config, defaultValue string) config.String {
	return New(source, defaultValue, func(raw []byte) (string, error) {
		return string(raw), nil
	})
}
