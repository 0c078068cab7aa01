package wrapper

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/config/memory"
)

func TestValue_Lifecycle(t *testing.T) {
	ctx := context.Background()
	defaultValue := uint64(5)
	mock := memory.NewConfig(nil)
	wrapper := NewUint64Config(mock, defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// Typed and text overrides are both accepted
	mock.SetValue(uint64(10))
	assert.EqualValues(t, 10, wrapper.Get(ctx))

	mock.SetValue([]byte("42"))
	assert.EqualValues(t, 42, wrapper.Get(ctx))

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.EqualValues(t, 42, val)

	mock.StopInducingErrors()
	mock.SetValue([]byte("not a number"))
	val, err = wrapper.GetSafe(ctx)
	assert.True(t, isNumError(err))
	assert.EqualValues(t, 42, val)

	// Return an unsupported source value type
	mock.SetValue("7")
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.EqualValues(t, 42, val)

	// The default value is returned when the override no longer has a value
	mock.ClearValue()
	assert.Equal(t, defaultValue, wrapper.Get(ctx))
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewBoolConfig(memory.NewConfig([]byte("true")), false).Get(ctx))
	assert.False(t, NewBoolConfig(memory.NewConfig(nil), false).Get(ctx))

	assert.Equal(t, 3*time.Second, NewDurationConfig(memory.NewConfig([]byte("3s")), time.Second).Get(ctx))
	assert.Equal(t, time.Minute, NewDurationConfig(memory.NewConfig(time.Minute), time.Second).Get(ctx))

	assert.Equal(t, "value", NewStringConfig(memory.NewConfig([]byte("value")), "default").Get(ctx))
	assert.Equal(t, "default", NewStringConfig(memory.NewConfig(nil), "default").Get(ctx))
}

func isNumError(err error) bool {
	_, ok := err.(*strconv.NumError)
	return ok
}
