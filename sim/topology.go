package sim

import (
	"fmt"
	"sort"
)

// Link points at one port of one machine.
type Link struct {
	Machine ID
	Port    int // index into Machine.Inputs or Machine.Outputs
}

// ItemNode lists where an item is consumed (Inputs: machine input ports) and
// where it is produced (Outputs: machine output ports).
type ItemNode struct {
	Inputs  []Link
	Outputs []Link
}

// Direction tells which side of a machine a link attaches to.
type Direction int

const (
	Consumed Direction = iota // a machine input port
	Produced                  // a machine output port
)

func (d Direction) String() string {
	if d == Produced {
		return "produced"
	}
	return "consumed"
}

// Topology is the derived item -> machine port index.
// It does not own machines; rebuild it whenever the machine list changes.
type Topology struct {
	nodes map[ID]*ItemNode
	order []ID // items in order of first reference
}

// BuildTopology derives the item connectivity of machines.
// Links are listed in machine order, then port order, and never repeat.
func BuildTopology(machines []Machine) Topology {
	t := Topology{nodes: make(map[ID]*ItemNode)}
	seen := make(map[linkKey]bool)

	add := func(item ID, l Link, producing bool) {
		k := linkKey{item: item, link: l, producing: producing}
		if seen[k] {
			return
		}
		seen[k] = true
		node, ok := t.nodes[item]
		if !ok {
			node = &ItemNode{}
			t.nodes[item] = node
			t.order = append(t.order, item)
		}
		if producing {
			node.Outputs = append(node.Outputs, l)
		} else {
			node.Inputs = append(node.Inputs, l)
		}
	}

	for _, m := range machines {
		for i, in := range m.Inputs {
			add(in.Item, Link{Machine: m.ID, Port: i}, false)
		}
		for i, out := range m.Outputs {
			add(out.Item, Link{Machine: m.ID, Port: i}, true)
		}
	}
	return t
}

type linkKey struct {
	item      ID
	link      Link
	producing bool
}

// Node returns a copy of the links of item, or nil if no machine references it.
func (t Topology) Node(item ID) *ItemNode {
	node := t.nodes[item]
	if node == nil {
		return nil
	}
	return &ItemNode{
		Inputs:  append([]Link(nil), node.Inputs...),
		Outputs: append([]Link(nil), node.Outputs...),
	}
}

// Items returns every referenced item in order of first reference.
func (t Topology) Items() []ID {
	return append([]ID(nil), t.order...)
}

// Len returns the number of referenced items.
func (t Topology) Len() int {
	return len(t.nodes)
}

// Consumers returns the machines consuming item, deduplicated and sorted by id.
func (t Topology) Consumers(item ID) []ID {
	node := t.nodes[item]
	if node == nil {
		return nil
	}
	return machineSet(node.Inputs)
}

// Producers returns the machines producing item, deduplicated and sorted by id.
func (t Topology) Producers(item ID) []ID {
	node := t.nodes[item]
	if node == nil {
		return nil
	}
	return machineSet(node.Outputs)
}

func machineSet(links []Link) []ID {
	seen := make(map[ID]bool, len(links))
	var ids []ID
	for _, l := range links {
		if !seen[l.Machine] {
			seen[l.Machine] = true
			ids = append(ids, l.Machine)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks that every link resolves to a port of machines carrying the linked item.
// A topology built from a different machine list fails this check.
func (t Topology) Validate(machines []Machine) error {
	byID := machinesByID(machines)
	for _, item := range t.order {
		node := t.nodes[item]
		for _, l := range node.Inputs {
			if _, err := resolve(byID, item, l, Consumed); err != nil {
				return err
			}
		}
		for _, l := range node.Outputs {
			if _, err := resolve(byID, item, l, Produced); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve returns the port a link of item points at in machines. The link must be one of
// the item's links in direction dir; otherwise, or when machines no longer carry the item
// on that port, ErrDanglingLink is returned.
func (t Topology) Resolve(item ID, l Link, dir Direction, machines []Machine) (ItemStream, error) {
	node := t.nodes[item]
	links := []Link(nil)
	if node != nil {
		links = node.Inputs
		if dir == Produced {
			links = node.Outputs
		}
	}
	known := false
	for _, candidate := range links {
		if candidate == l {
			known = true
			break
		}
	}
	if !known {
		return ItemStream{}, fmt.Errorf("item %d is not %s by port %d of machine %d: %w",
			item, dir, l.Port, l.Machine, ErrDanglingLink)
	}
	return resolve(machinesByID(machines), item, l, dir)
}

func machinesByID(machines []Machine) map[ID]*Machine {
	byID := make(map[ID]*Machine, len(machines))
	for i := range machines {
		byID[machines[i].ID] = &machines[i]
	}
	return byID
}

func resolve(byID map[ID]*Machine, item ID, l Link, dir Direction) (ItemStream, error) {
	m, ok := byID[l.Machine]
	if !ok {
		return ItemStream{}, fmt.Errorf("item %d links to machine %d: %w", item, l.Machine, ErrUnknownMachine)
	}
	ports := m.Inputs
	if dir == Produced {
		ports = m.Outputs
	}
	if l.Port < 0 || l.Port >= len(ports) {
		return ItemStream{}, fmt.Errorf("item %d links to port %d of machine %d which has %d ports: %w",
			item, l.Port, l.Machine, len(ports), ErrDanglingLink)
	}
	if ports[l.Port].Item != item {
		return ItemStream{}, fmt.Errorf("item %d links to port %d of machine %d which carries item %d: %w",
			item, l.Port, l.Machine, ports[l.Port].Item, ErrDanglingLink)
	}
	return ports[l.Port], nil
}
