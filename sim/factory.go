package sim

import (
	"context"
	"fmt"

	"github.com/facmaker/facmaker/sim/trace"
)

// DefaultHorizon is the number of ticks simulated when a description does not say.
const DefaultHorizon int64 = 6000

// Factory owns the item and machine definitions of one production network.
//
// Items and machines keep their definition order: machine order decides which machine
// wins when several compete for the same stock at the same tick. Edits never touch a
// previously generated Cache; call GenerateCache again after editing.
type Factory struct {
	items    []Item
	machines []Machine

	itemIndex    map[ID]int
	machineIndex map[ID]int
	portOwner    map[ID]ID // port id -> machine id
}

// NewFactory validates items and machines and builds a factory from them.
// Rejected definitions report a wrapped sentinel error (ErrUnknownItem, ErrDuplicateID, ...).
func NewFactory(items []Item, machines []Machine) (*Factory, error) {
	f := &Factory{
		items:        make([]Item, 0, len(items)),
		machines:     make([]Machine, 0, len(machines)),
		itemIndex:    make(map[ID]int, len(items)),
		machineIndex: make(map[ID]int, len(machines)),
		portOwner:    make(map[ID]ID),
	}
	for _, it := range items {
		if err := f.AddItem(it); err != nil {
			return nil, err
		}
	}
	for _, m := range machines {
		if err := f.AddMachine(m); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Items returns a copy of the items in definition order.
func (f *Factory) Items() []Item {
	return append([]Item(nil), f.items...)
}

// Machines returns a deep copy of the machines in definition order.
func (f *Factory) Machines() []Machine {
	out := make([]Machine, len(f.machines))
	for i, m := range f.machines {
		out[i] = m.clone()
	}
	return out
}

// Item looks up an item by id.
func (f *Factory) Item(id ID) (Item, bool) {
	i, ok := f.itemIndex[id]
	if !ok {
		return Item{}, false
	}
	return f.items[i], true
}

// Machine looks up a machine by id.
func (f *Factory) Machine(id ID) (Machine, bool) {
	i, ok := f.machineIndex[id]
	if !ok {
		return Machine{}, false
	}
	return f.machines[i].clone(), true
}

// MaxID returns the largest id in use, or InvalidID for an empty factory.
func (f *Factory) MaxID() ID {
	var top ID
	for id := range f.itemIndex {
		top = max(top, id)
	}
	for id := range f.machineIndex {
		top = max(top, id)
	}
	for id := range f.portOwner {
		top = max(top, id)
	}
	return top
}

func (f *Factory) inUse(id ID) bool {
	_, item := f.itemIndex[id]
	_, machine := f.machineIndex[id]
	_, port := f.portOwner[id]
	return item || machine || port
}

// AddItem appends an item.
func (f *Factory) AddItem(it Item) error {
	if it.ID == InvalidID {
		return fmt.Errorf("item %q: %w", it.Name, ErrInvalidID)
	}
	if f.inUse(it.ID) {
		return fmt.Errorf("item %q id %d: %w", it.Name, it.ID, ErrDuplicateID)
	}
	if it.StartingQuantity < 0 {
		return fmt.Errorf("item %q starting quantity %d: %w", it.Name, it.StartingQuantity, ErrInvalidQuantity)
	}
	if _, ok := roleNames[it.Role]; !ok {
		return fmt.Errorf("item %q has unknown role %v", it.Name, it.Role)
	}
	f.itemIndex[it.ID] = len(f.items)
	f.items = append(f.items, it)
	return nil
}

func (f *Factory) item(id ID) (*Item, error) {
	i, ok := f.itemIndex[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	return &f.items[i], nil
}

// RenameItem changes an item's display name.
func (f *Factory) RenameItem(id ID, name string) error {
	it, err := f.item(id)
	if err != nil {
		return err
	}
	it.Name = name
	return nil
}

// SetItemRole changes whether an item is externally supplied, drained, or internal.
func (f *Factory) SetItemRole(id ID, role Role) error {
	if _, ok := roleNames[role]; !ok {
		return fmt.Errorf("item %d: unknown role %v", id, role)
	}
	it, err := f.item(id)
	if err != nil {
		return err
	}
	it.Role = role
	return nil
}

// SetStartingQuantity changes an item's stock at tick 0.
func (f *Factory) SetStartingQuantity(id ID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("item %d starting quantity %d: %w", id, quantity, ErrInvalidQuantity)
	}
	it, err := f.item(id)
	if err != nil {
		return err
	}
	it.StartingQuantity = quantity
	return nil
}

// RemoveItem deletes an item. Items still referenced by a machine port cannot be removed.
func (f *Factory) RemoveItem(id ID) error {
	i, ok := f.itemIndex[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	for _, m := range f.machines {
		if machineReferences(m, id) {
			return fmt.Errorf("item %d used by machine %d (%s): %w", id, m.ID, m.Name, ErrItemInUse)
		}
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	delete(f.itemIndex, id)
	for j := i; j < len(f.items); j++ {
		f.itemIndex[f.items[j].ID] = j
	}
	return nil
}

func machineReferences(m Machine, item ID) bool {
	for _, p := range m.Inputs {
		if p.Item == item {
			return true
		}
	}
	for _, p := range m.Outputs {
		if p.Item == item {
			return true
		}
	}
	return false
}

// AddMachine appends a machine. It is dispatched after every machine already defined.
func (f *Factory) AddMachine(m Machine) error {
	if m.ID == InvalidID {
		return fmt.Errorf("machine %q: %w", m.Name, ErrInvalidID)
	}
	if f.inUse(m.ID) {
		return fmt.Errorf("machine %q id %d: %w", m.Name, m.ID, ErrDuplicateID)
	}
	if err := f.validateMachine(m, nil); err != nil {
		return err
	}
	m = m.clone()
	f.machineIndex[m.ID] = len(f.machines)
	f.machines = append(f.machines, m)
	f.claimPorts(m)
	return nil
}

// ReplaceMachine swaps the definition of an existing machine, keeping its dispatch position.
func (f *Factory) ReplaceMachine(m Machine) error {
	i, ok := f.machineIndex[m.ID]
	if !ok {
		return fmt.Errorf("machine %d: %w", m.ID, ErrUnknownMachine)
	}
	if err := f.validateMachine(m, &f.machines[i]); err != nil {
		return err
	}
	f.releasePorts(f.machines[i])
	m = m.clone()
	f.machines[i] = m
	f.claimPorts(m)
	return nil
}

// RemoveMachine deletes a machine. Caches generated earlier still reference it;
// regenerate before reading topology again.
func (f *Factory) RemoveMachine(id ID) error {
	i, ok := f.machineIndex[id]
	if !ok {
		return fmt.Errorf("machine %d: %w", id, ErrUnknownMachine)
	}
	f.releasePorts(f.machines[i])
	f.machines = append(f.machines[:i], f.machines[i+1:]...)
	delete(f.machineIndex, id)
	for j := i; j < len(f.machines); j++ {
		f.machineIndex[f.machines[j].ID] = j
	}
	return nil
}

func (f *Factory) claimPorts(m Machine) {
	for _, p := range m.Inputs {
		f.portOwner[p.ID] = m.ID
	}
	for _, p := range m.Outputs {
		f.portOwner[p.ID] = m.ID
	}
}

func (f *Factory) releasePorts(m Machine) {
	for _, p := range m.Inputs {
		delete(f.portOwner, p.ID)
	}
	for _, p := range m.Outputs {
		delete(f.portOwner, p.ID)
	}
}

// validateMachine checks m against the factory. prev is the definition m replaces, if any;
// its port ids may be reused.
func (f *Factory) validateMachine(m Machine, prev *Machine) error {
	if m.Duration <= 0 {
		return fmt.Errorf("machine %q duration %d: %w", m.Name, m.Duration, ErrInvalidDuration)
	}
	seen := make(map[ID]bool)
	check := func(kind string, i int, p ItemStream) error {
		if p.ID == InvalidID {
			return fmt.Errorf("machine %q %s port %d: %w", m.Name, kind, i, ErrInvalidID)
		}
		if p.ID == m.ID || seen[p.ID] {
			return fmt.Errorf("machine %q %s port %d id %d: %w", m.Name, kind, i, p.ID, ErrDuplicateID)
		}
		if owner, ok := f.portOwner[p.ID]; ok && (prev == nil || owner != prev.ID) {
			return fmt.Errorf("machine %q %s port %d id %d: %w", m.Name, kind, i, p.ID, ErrDuplicateID)
		}
		_, isItem := f.itemIndex[p.ID]
		_, isMachine := f.machineIndex[p.ID]
		if isItem || isMachine {
			return fmt.Errorf("machine %q %s port %d id %d: %w", m.Name, kind, i, p.ID, ErrDuplicateID)
		}
		seen[p.ID] = true
		if _, ok := f.itemIndex[p.Item]; !ok {
			return fmt.Errorf("machine %q %s port %d item %d: %w", m.Name, kind, i, p.Item, ErrUnknownItem)
		}
		if p.Quantity <= 0 {
			return fmt.Errorf("machine %q %s port %d quantity %d: %w", m.Name, kind, i, p.Quantity, ErrInvalidQuantity)
		}
		return nil
	}
	for i, p := range m.Inputs {
		if err := check("input", i, p); err != nil {
			return err
		}
	}
	for i, p := range m.Outputs {
		if err := check("output", i, p); err != nil {
			return err
		}
	}
	return nil
}

// CacheConfig controls cache generation.
type CacheConfig struct {
	Horizon int64             // ticks to simulate (must be >= 0)
	Trace   trace.TraceConfig // operation tracing (default none)
}

// GenerateCache derives topology, simulates horizon ticks and bundles the results.
func (f *Factory) GenerateCache(horizon int64) *Cache {
	c, err := f.GenerateCacheContext(context.Background(), CacheConfig{Horizon: horizon})
	if err != nil {
		panic(err)
	}
	return c
}

// GenerateCacheContext is GenerateCache with cancellation between ticks and optional tracing.
func (f *Factory) GenerateCacheContext(ctx context.Context, cfg CacheConfig) (*Cache, error) {
	if cfg.Horizon < 0 {
		return nil, fmt.Errorf("horizon %d: %w", cfg.Horizon, ErrInvalidHorizon)
	}
	items := f.Items()
	machines := f.Machines()

	topology := BuildTopology(machines)

	s := NewSimulator(items, machines, cfg.Horizon)
	if cfg.Trace.Enabled() {
		s.Trace = trace.NewSimulationTrace(cfg.Trace)
	}
	if err := s.RunContext(ctx); err != nil {
		return nil, err
	}
	return newCache(items, topology, s), nil
}
