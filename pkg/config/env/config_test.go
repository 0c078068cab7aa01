package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/token-minter/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfig(t *testing.T) {
	t.Setenv("ENV_CONFIG_TEST_DURATION", "250ms")
	t.Setenv("ENV_CONFIG_TEST_UINT64", "1000")

	assert.Equal(t, 250*time.Millisecond, NewDurationConfig("env_config_test_duration", time.Second).Get(context.Background()))
	assert.EqualValues(t, 1000, NewUint64Config("ENV_CONFIG_TEST_UINT64", 1).Get(context.Background()))
	assert.True(t, NewBoolConfig("ENV_CONFIG_TEST_UNSET", true).Get(context.Background()))
}

func TestConfig_CapturedAtConstruction(t *testing.T) {
	const env = "ENV_CONFIG_TEST_CAPTURE"
	t.Setenv(env, "  confirmed \n")

	c := NewStringConfig(env, "finalized")
	assert.Equal(t, "confirmed", c.Get(context.Background()))

	t.Setenv(env, "processed")
	assert.Equal(t, "confirmed", c.Get(context.Background()))

	t.Setenv(env, "   ")
	assert.Equal(t, "finalized", NewStringConfig(env, "finalized").Get(context.Background()))
}
