package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/token-minter/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

// Config holds a single value in memory. Services use it to pin a setting
// for tests, or when an operator override replaces the env source.
type Config struct {
	mu       sync.RWMutex
	value    any
	err      error
	shutdown bool
}

// NewConfig returns a new in memory config. A nil value behaves as unset.
func NewConfig(value any) *Config {
	return &Config{value: value}
}

func (c *Config) Get(_ context.Context) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// SetValue replaces the value seen by subsequent Get calls. Passing nil
// clears it.
func (c *Config) SetValue(value any) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors makes Get fail until StopInducingErrors is called.
func (c *Config) InduceErrors() {
	c.mu.Lock()
	c.err = errDeveloperInduced
	c.mu.Unlock()
}

func (c *Config) StopInducingErrors() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}
