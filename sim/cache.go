package sim

import "github.com/facmaker/facmaker/sim/trace"

// SeriesReader is the read-only view of a QuantitySeries handed out by a Cache.
type SeriesReader interface {
	Len() int
	At(tick int64) int64
	Last() int64
	Values() []int64
	MaxValue() int64
	MaxTick() int64
}

// Cache bundles the derived data of one factory at one horizon: topology, role-filtered
// item lists, per-item quantity series and machine counters. It is never modified after
// GenerateCache returns it, so it can be shared freely between goroutines.
type Cache struct {
	topology Topology
	items    []ID
	inputs   []ID
	outputs  []ID
	series   map[ID]*QuantitySeries
	stats    map[ID]MachineStats
	active   []ProcessingTask
	trace    *trace.SimulationTrace
	ticks    int64
}

func newCache(items []Item, topology Topology, s *Simulator) *Cache {
	c := &Cache{
		topology: topology,
		items:    make([]ID, 0, len(items)),
		series:   s.Series,
		stats:    s.Stats(),
		active:   s.ActiveTasks(),
		trace:    s.Trace,
		ticks:    s.Horizon,
	}
	for _, it := range items {
		c.items = append(c.items, it.ID)
		switch it.Role {
		case RoleInput:
			c.inputs = append(c.inputs, it.ID)
		case RoleOutput:
			c.outputs = append(c.outputs, it.ID)
		}
	}
	return c
}

// Topology returns the item connectivity the cache was built from. Its Node copies are
// safe to modify.
func (c *Cache) Topology() Topology {
	return c.topology
}

// Items returns every item id in definition order.
func (c *Cache) Items() []ID {
	return append([]ID(nil), c.items...)
}

// Inputs returns the ids of input-role items in definition order.
func (c *Cache) Inputs() []ID {
	return append([]ID(nil), c.inputs...)
}

// Outputs returns the ids of output-role items in definition order.
func (c *Cache) Outputs() []ID {
	return append([]ID(nil), c.outputs...)
}

// Series returns a read-only view of the quantity series of item.
func (c *Cache) Series(item ID) (SeriesReader, bool) {
	s, ok := c.series[item]
	if !ok {
		return nil, false
	}
	return seriesView{s: s}, true
}

// seriesView hides the mutating methods of a cached series.
type seriesView struct {
	s *QuantitySeries
}

func (v seriesView) Len() int            { return v.s.Len() }
func (v seriesView) At(tick int64) int64 { return v.s.At(tick) }
func (v seriesView) Last() int64         { return v.s.Last() }
func (v seriesView) Values() []int64     { return v.s.Values() }
func (v seriesView) MaxValue() int64     { return v.s.MaxValue() }
func (v seriesView) MaxTick() int64      { return v.s.MaxTick() }

// TicksSimulated returns the horizon. Every series holds TicksSimulated()+1 entries,
// tick 0 being the starting stock.
func (c *Cache) TicksSimulated() int64 {
	return c.ticks
}

// MachineStats returns the counters of machine.
func (c *Cache) MachineStats(machine ID) (MachineStats, bool) {
	st, ok := c.stats[machine]
	return st, ok
}

// InFlight returns the operations still running when the horizon was reached.
// Their outputs are not part of any series.
func (c *Cache) InFlight() []ProcessingTask {
	return append([]ProcessingTask(nil), c.active...)
}

// Trace returns a copy of the operation trace, or nil when tracing was off.
func (c *Cache) Trace() *trace.SimulationTrace {
	if c.trace == nil {
		return nil
	}
	return &trace.SimulationTrace{
		Config:      c.trace.Config,
		Dispatches:  append([]trace.DispatchRecord(nil), c.trace.Dispatches...),
		Completions: append([]trace.CompletionRecord(nil), c.trace.Completions...),
	}
}
