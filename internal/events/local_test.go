package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDeliversBeforePublishReturns(t *testing.T) {
	t.Parallel()

	bus := NewLocal()
	change := NewChange(uuid.New(), ReasonConformance)

	var first, second []Change
	unsubscribeFirst, err := bus.Subscribe(func(_ context.Context, c Change) { first = append(first, c) })
	require.NoError(t, err)
	_, err = bus.Subscribe(func(_ context.Context, c Change) { second = append(second, c) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), change))
	assert.Equal(t, []Change{change}, first)
	assert.Equal(t, []Change{change}, second)

	require.NoError(t, unsubscribeFirst())
	require.NoError(t, bus.Publish(context.Background(), change))
	assert.Len(t, first, 1)
	assert.Len(t, second, 2)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(context.Background(), change))
	assert.Len(t, second, 2)
}
