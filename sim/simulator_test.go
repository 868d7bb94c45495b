package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facmaker/facmaker/sim/trace"
)

// TestSimulator_PressScenario_PlateTrajectory covers the canonical single-machine run:
// an operation started at tick S with duration D lands its outputs at S+D, and the
// machine restarts in that same tick.
func TestSimulator_PressScenario_PlateTrajectory(t *testing.T) {
	// GIVEN unlimited Ore and a Press (1 Ore -> 1 Plate, 2 ticks)
	f := pressFactory(t)

	// WHEN 5 ticks are simulated
	c := f.GenerateCache(5)

	// THEN Plate lands at ticks 2 and 4 and the series holds horizon+1 entries
	assert.Equal(t, []int64{0, 0, 1, 1, 2, 2}, seriesValues(t, c, 2))
	// AND Ore consumption is still recorded even though it never gates dispatch
	assert.Equal(t, []int64{-1, -1, -2, -2, -3, -3}, seriesValues(t, c, 1))

	st, ok := c.MachineStats(3)
	require.True(t, ok)
	assert.Equal(t, int64(3), st.Dispatches)
	assert.Equal(t, int64(2), st.Completions)
	assert.Equal(t, int64(5), st.BusyTicks)

	// AND the operation started at tick 4 is still in flight
	assert.Equal(t, []ProcessingTask{{Machine: 3, StartTick: 4}}, c.InFlight())
}

func TestSimulator_InsufficientStock_NeverDispatches(t *testing.T) {
	// GIVEN an internal item with 3 units and a machine needing 5, nothing producing it
	f := mustFactory(t,
		[]Item{
			{ID: 1, Name: "Gear", Role: RoleInternal, StartingQuantity: 3},
			{ID: 2, Name: "Clock", Role: RoleOutput},
		},
		[]Machine{{
			ID: 3, Name: "Assembler", Duration: 1,
			Inputs:  []ItemStream{port(10, 1, 5)},
			Outputs: []ItemStream{port(11, 2, 1)},
		}},
	)

	// WHEN simulated
	c := f.GenerateCache(20)

	// THEN the stock stays flat at 3 for the whole horizon and no task ever starts
	gear := seriesValues(t, c, 1)
	require.Len(t, gear, 21)
	for tick, v := range gear {
		assert.Equal(t, int64(3), v, "tick %d", tick)
	}
	st, _ := c.MachineStats(3)
	assert.Zero(t, st.Dispatches)
	assert.Empty(t, c.InFlight())
}

func TestSimulator_EmptyFactory_DegenerateCache(t *testing.T) {
	// GIVEN a factory with no items and no machines
	f := mustFactory(t, nil, nil)

	// WHEN simulated for any horizon
	for _, horizon := range []int64{0, 1, 6000} {
		c, err := f.GenerateCacheContext(context.Background(), CacheConfig{Horizon: horizon})

		// THEN there is no error and everything is empty
		require.NoError(t, err)
		assert.Zero(t, c.Topology().Len())
		assert.Empty(t, c.Inputs())
		assert.Empty(t, c.Outputs())
		assert.Empty(t, c.Items())
		assert.Equal(t, horizon, c.TicksSimulated())
	}
}

func TestSimulator_ZeroHorizon_StartingValuesOnly(t *testing.T) {
	c := pressFactory(t).GenerateCache(0)
	assert.Equal(t, []int64{0}, seriesValues(t, c, 2))
	assert.Equal(t, []int64{0}, seriesValues(t, c, 1))
}

func TestSimulator_Contention_FirstDefinedMachineWins(t *testing.T) {
	// GIVEN one unit of stock and two identical consumers
	f := mustFactory(t,
		[]Item{
			{ID: 1, Name: "Ingot", StartingQuantity: 1},
			{ID: 2, Name: "A", Role: RoleOutput},
			{ID: 3, Name: "B", Role: RoleOutput},
		},
		[]Machine{
			{ID: 20, Name: "Early", Duration: 1, Inputs: []ItemStream{port(21, 1, 1)}, Outputs: []ItemStream{port(22, 3, 1)}},
			{ID: 10, Name: "Late", Duration: 1, Inputs: []ItemStream{port(11, 1, 1)}, Outputs: []ItemStream{port(12, 2, 1)}},
		},
	)

	// WHEN simulated
	c := f.GenerateCache(3)

	// THEN the machine defined first takes the unit regardless of id order
	assert.Equal(t, []int64{0, 0, 0, 0}, seriesValues(t, c, 2))
	assert.Equal(t, []int64{0, 1, 1, 1}, seriesValues(t, c, 3))
	assert.Equal(t, []int64{0, 0, 0, 0}, seriesValues(t, c, 1))
}

func TestSimulator_ChainedMachines_SameTickHandoff(t *testing.T) {
	// GIVEN Ore -> Smelter (1 tick) -> Ingot -> Forge (3 ticks) -> Sword
	f := mustFactory(t,
		[]Item{
			{ID: 1, Name: "Ore", Role: RoleInput},
			{ID: 2, Name: "Ingot"},
			{ID: 3, Name: "Sword", Role: RoleOutput},
		},
		[]Machine{
			{ID: 10, Name: "Smelter", Duration: 1, Inputs: []ItemStream{port(11, 1, 1)}, Outputs: []ItemStream{port(12, 2, 1)}},
			{ID: 20, Name: "Forge", Duration: 3, Inputs: []ItemStream{port(21, 2, 2)}, Outputs: []ItemStream{port(22, 3, 1)}},
		},
	)

	// WHEN simulated for 8 ticks
	c := f.GenerateCache(8)

	// THEN ingots produced at a tick are usable by a later machine in that same tick:
	// ingots land every tick from 1; the forge takes 2 at tick 2 and again at tick 5
	assert.Equal(t, []int64{0, 1, 0, 1, 2, 1, 2, 3, 3}, seriesValues(t, c, 2))
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 1, 1, 1, 1}, seriesValues(t, c, 3))
}

func TestSimulator_DuplicateInputPorts_RequireCombinedStock(t *testing.T) {
	// GIVEN two input ports drawing 2 units each from an item holding 3
	f := mustFactory(t,
		[]Item{{ID: 1, Name: "Bolt", StartingQuantity: 3}, {ID: 2, Name: "Frame", Role: RoleOutput}},
		[]Machine{{ID: 5, Name: "Jig", Duration: 1,
			Inputs:  []ItemStream{port(6, 1, 2), port(7, 1, 2)},
			Outputs: []ItemStream{port(8, 2, 1)}}},
	)

	// WHEN simulated
	c := f.GenerateCache(4)

	// THEN the machine never starts: stock must cover both ports together
	assert.Equal(t, []int64{3, 3, 3, 3, 3}, seriesValues(t, c, 1))
}

func TestSimulator_InternalStock_NeverNegative(t *testing.T) {
	// GIVEN a loop where two machines compete for a shared internal item
	f := mustFactory(t,
		[]Item{
			{ID: 1, Name: "Water", Role: RoleInput},
			{ID: 2, Name: "Steam", StartingQuantity: 2},
			{ID: 3, Name: "Power", Role: RoleOutput},
			{ID: 4, Name: "Heat"},
		},
		[]Machine{
			{ID: 10, Name: "Boiler", Duration: 3, Inputs: []ItemStream{port(11, 1, 2), port(12, 4, 1)}, Outputs: []ItemStream{port(13, 2, 3)}},
			{ID: 20, Name: "Turbine", Duration: 2, Inputs: []ItemStream{port(21, 2, 2)}, Outputs: []ItemStream{port(22, 3, 5), port(23, 4, 1)}},
			{ID: 30, Name: "Vent", Duration: 1, Inputs: []ItemStream{port(31, 2, 1)}, Outputs: []ItemStream{port(32, 4, 1)}},
		},
	)

	// WHEN simulated for a long horizon
	c := f.GenerateCache(500)

	// THEN internal and output items never dip below zero
	for _, item := range []ID{2, 3, 4} {
		for tick, v := range seriesValues(t, c, item) {
			require.GreaterOrEqual(t, v, int64(0), "item %d tick %d", item, tick)
		}
	}
}

func TestSimulator_Deterministic_IdenticalRuns(t *testing.T) {
	a := pressFactory(t).GenerateCache(100)
	b := pressFactory(t).GenerateCache(100)
	for _, id := range a.Items() {
		assert.Equal(t, seriesValues(t, a, id), seriesValues(t, b, id))
	}
}

func TestSimulator_UniformSeriesLength(t *testing.T) {
	// GIVEN an item no machine touches next to active ones
	f := mustFactory(t,
		[]Item{{ID: 1, Name: "Ore", Role: RoleInput}, {ID: 2, Name: "Plate"}, {ID: 9, Name: "Idle", StartingQuantity: 4}},
		[]Machine{{ID: 3, Name: "Press", Duration: 2, Inputs: []ItemStream{port(10, 1, 1)}, Outputs: []ItemStream{port(11, 2, 1)}}},
	)

	// WHEN simulated
	c := f.GenerateCache(37)

	// THEN every series has horizon+1 entries
	for _, id := range c.Items() {
		assert.Len(t, seriesValues(t, c, id), 38, "item %d", id)
	}
}

func TestSimulator_RunContext_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pressFactory(t).GenerateCacheContext(ctx, CacheConfig{Horizon: 10})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSimulator_RunContext_ResumesAfterCancel(t *testing.T) {
	// GIVEN a simulator cancelled before the first tick
	f := pressFactory(t)
	s := NewSimulator(f.Items(), f.Machines(), 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, s.RunContext(ctx))

	// WHEN resumed with a live context
	require.NoError(t, s.RunContext(context.Background()))

	// THEN the result matches an uninterrupted run
	assert.Equal(t, []int64{0, 0, 1, 1, 2, 2}, s.Series[2].Values())
}

func TestSimulator_Trace_RecordsOperations(t *testing.T) {
	// GIVEN tracing enabled
	c, err := pressFactory(t).GenerateCacheContext(context.Background(), CacheConfig{
		Horizon: 5,
		Trace:   trace.TraceConfig{Level: trace.TraceLevelOperations},
	})
	require.NoError(t, err)

	// THEN dispatches and completions are recorded in tick order
	tr := c.Trace()
	require.NotNil(t, tr)
	assert.Equal(t, []trace.DispatchRecord{{Machine: 3, Tick: 0}, {Machine: 3, Tick: 2}, {Machine: 3, Tick: 4}}, tr.Dispatches)
	assert.Equal(t, []trace.CompletionRecord{{Machine: 3, StartTick: 0, Tick: 2}, {Machine: 3, StartTick: 2, Tick: 4}}, tr.Completions)
}

func TestSimulator_TraceDisabled_NilTrace(t *testing.T) {
	c := pressFactory(t).GenerateCache(5)
	assert.Nil(t, c.Trace())
}

func TestNewSimulator_NegativeHorizon_Panics(t *testing.T) {
	assert.Panics(t, func() { NewSimulator(nil, nil, -1) })
}

func TestNewSimulator_UnknownItem_Panics(t *testing.T) {
	machines := []Machine{{ID: 3, Duration: 1, Inputs: []ItemStream{port(4, 99, 1)}}}
	assert.Panics(t, func() { NewSimulator(nil, machines, 1) })
}
