package description

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/facmaker/facmaker/sim"
)

// Built is a description turned into simulation objects.
type Built struct {
	Factory *sim.Factory
	Horizon int64
	// Pool continues after every id of the factory, ports included.
	Pool *sim.IDPool
	// NextUID is the pool position before port ids were drawn. Ports are re-derived on
	// every Build, so this is the position worth persisting.
	NextUID sim.ID
	// Layout holds the editor positions of the nodes that had one.
	Layout map[sim.ID]Position
}

// Build resolves references and constructs the factory. Port identities are drawn from
// the persisted pool in document order (all inputs of a machine, then its outputs).
// Unknown item references and id clashes are reported as the wrapped sim errors.
func (d *Description) Build() (*Built, error) {
	pool := sim.NewIDPool(d.NextUID)
	if d.NextUID == sim.InvalidID {
		logrus.Debugf("deriving id pool from %d items and %d machines", len(d.Items), len(d.Machines))
	}
	for _, it := range d.Items {
		pool.Observe(it.ID)
	}
	for _, m := range d.Machines {
		pool.Observe(m.ID)
	}

	b := &Built{Horizon: d.Simulate, Pool: pool, NextUID: pool.Next(), Layout: make(map[sim.ID]Position)}

	items := make([]sim.Item, 0, len(d.Items))
	for _, it := range d.Items {
		role, err := sim.ParseRole(it.Type)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", it.ID, err)
		}
		items = append(items, sim.Item{
			ID:               it.ID,
			Name:             it.Name,
			Role:             role,
			StartingQuantity: it.StartWith,
		})
		if it.Position != nil {
			b.Layout[it.ID] = *it.Position
		}
	}

	machines := make([]sim.Machine, 0, len(d.Machines))
	for _, m := range d.Machines {
		if pool.Available() < uint64(len(m.Inputs)+len(m.Outputs)) {
			return nil, fmt.Errorf("machine %d: no identifiers left for its ports", m.ID)
		}
		sm := sim.Machine{ID: m.ID, Name: m.Name, Duration: m.Time}
		for _, p := range m.Inputs {
			sm.Inputs = append(sm.Inputs, sim.ItemStream{ID: pool.Generate(), Item: p.Item, Quantity: p.Quantity})
		}
		for _, p := range m.Outputs {
			sm.Outputs = append(sm.Outputs, sim.ItemStream{ID: pool.Generate(), Item: p.Item, Quantity: p.Quantity})
		}
		machines = append(machines, sm)
		if m.Position != nil {
			b.Layout[m.ID] = *m.Position
		}
	}

	f, err := sim.NewFactory(items, machines)
	if err != nil {
		return nil, fmt.Errorf("building factory: %w", err)
	}
	b.Factory = f
	return b, nil
}

// FromFactory captures a factory as a description. Layout may be nil.
//
// The written next_uid is next, raised past every item and machine id. Port ids are
// not persisted, so they do not advance it and repeated load/export cycles leave the
// pool where it was. An exhausted pool (next == sim.InvalidID after items were seen)
// is written as absent.
func FromFactory(f *sim.Factory, horizon int64, next sim.ID, layout map[sim.ID]Position) *Description {
	d := &Description{Simulate: horizon}
	pool := sim.NewIDPool(next)
	for _, it := range f.Items() {
		pool.Observe(it.ID)
	}
	for _, m := range f.Machines() {
		pool.Observe(m.ID)
	}
	d.NextUID = pool.Next()
	for _, it := range f.Items() {
		d.Items = append(d.Items, Item{
			ID:        it.ID,
			Name:      it.Name,
			Type:      it.Role.String(),
			StartWith: it.StartingQuantity,
			Position:  layoutOf(layout, it.ID),
		})
	}
	for _, m := range f.Machines() {
		dm := Machine{ID: m.ID, Name: m.Name, Time: m.Duration, Position: layoutOf(layout, m.ID)}
		dm.Inputs = ports(m.Inputs)
		dm.Outputs = ports(m.Outputs)
		d.Machines = append(d.Machines, dm)
	}
	return d
}

func ports(streams []sim.ItemStream) []Port {
	out := make([]Port, 0, len(streams))
	for _, s := range streams {
		out = append(out, Port{Item: s.Item, Quantity: s.Quantity})
	}
	return out
}

func layoutOf(layout map[sim.ID]Position, id sim.ID) *Position {
	p, ok := layout[id]
	if !ok {
		return nil
	}
	return &p
}
