package sim

import "fmt"

// Role classifies how an item is replenished or drained outside the factory.
type Role int

const (
	// RoleInternal items only change through machine production and consumption.
	RoleInternal Role = iota
	// RoleInput items are supplied externally; consuming them never blocks a machine.
	RoleInput
	// RoleOutput items are drained externally; they accumulate whatever is produced.
	RoleOutput
)

var roleNames = map[Role]string{
	RoleInternal: "internal",
	RoleInput:    "input",
	RoleOutput:   "output",
}

// String returns the lowercase role name used in factory descriptions.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps a description role name to a Role.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return RoleInternal, fmt.Errorf("unknown item role %q; valid: input, output, internal", name)
}

// Item is a named resource type tracked by the simulation.
type Item struct {
	ID               ID
	Name             string
	Role             Role
	StartingQuantity int64 // stock at tick 0 (must be >= 0)
}

// ItemStream is a machine port: one item and the quantity moved per completed operation.
type ItemStream struct {
	ID       ID    // port identity, used for topology edges
	Item     ID    // referenced item
	Quantity int64 // consumed (input port) or produced (output port) per operation, > 0
}

// Machine converts its input streams into its output streams every Duration ticks.
type Machine struct {
	ID       ID
	Name     string
	Inputs   []ItemStream
	Outputs  []ItemStream
	Duration int64 // operation time in ticks, > 0
}

// clone returns a deep copy so callers cannot alias the factory's port slices.
func (m Machine) clone() Machine {
	c := m
	c.Inputs = append([]ItemStream(nil), m.Inputs...)
	c.Outputs = append([]ItemStream(nil), m.Outputs...)
	return c
}
