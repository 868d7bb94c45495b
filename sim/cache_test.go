package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facmaker/facmaker/sim/trace"
)

func TestCache_Series_IsReadOnly(t *testing.T) {
	// GIVEN a generated cache
	c := pressFactory(t).GenerateCache(5)

	// WHEN a series is fetched
	plate, ok := c.Series(2)
	require.True(t, ok)

	// THEN it cannot be asserted back to the mutable ledger
	_, mutable := plate.(*QuantitySeries)
	assert.False(t, mutable)

	// AND edits to the returned values do not reach the cache
	values := plate.Values()
	values[0] = 99
	assert.Equal(t, []int64{0, 0, 1, 1, 2, 2}, seriesValues(t, c, 2))
	assert.Equal(t, int64(2), plate.MaxValue())
	assert.Equal(t, int64(4), plate.MaxTick())
	assert.Equal(t, 6, plate.Len())
}

func TestCache_TopologyAndTrace_ReturnCopies(t *testing.T) {
	c, err := pressFactory(t).GenerateCacheContext(context.Background(), CacheConfig{
		Horizon: 5,
		Trace:   trace.TraceConfig{Level: trace.TraceLevelOperations},
	})
	require.NoError(t, err)

	// WHEN a reader modifies what it was handed
	node := c.Topology().Node(1)
	require.NotNil(t, node)
	node.Inputs[0].Machine = 42
	tr := c.Trace()
	tr.Dispatches[0].Tick = 42
	tr.Completions = nil

	// THEN the cache still holds the simulated data
	assert.Equal(t, []Link{{Machine: 3, Port: 0}}, c.Topology().Node(1).Inputs)
	assert.Equal(t, int64(0), c.Trace().Dispatches[0].Tick)
	assert.Len(t, c.Trace().Completions, 2)
}
