// Package description reads and writes factory descriptions.
//
// A description is a JSON (or YAML) document with four top-level keys:
//
//	{
//	  "items":    {"1": {"name": "Ore", "type": "input", "start_with": 0, "x": 10.0, "y": 20.0}},
//	  "machines": {"3": {"name": "Press", "inputs": {"1": 1}, "outputs": {"2": 1}, "time": 2}},
//	  "simulate": 6000,
//	  "uid_pool": {"next_uid": 12}
//	}
//
// Object key order is significant: it fixes item order, machine dispatch order and port
// order. Decoding goes through yaml.v3 nodes so that order survives, and JSON being a
// subset of YAML, one decoder serves both syntaxes.
package description

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/facmaker/facmaker/sim"
)

var (
	// ErrSchema wraps structural problems reported by the JSON schema.
	ErrSchema = errors.New("description does not match schema")
	// ErrEmpty is returned for a document with no content.
	ErrEmpty = errors.New("empty description")
)

// Position is the editor placement of a node. It has no effect on simulation and is
// only carried so a description survives a load/save cycle unchanged.
type Position struct {
	X float64
	Y float64
}

// Item is one entry of the "items" object.
type Item struct {
	ID        sim.ID `validate:"required"`
	Name      string
	Type      string `validate:"oneof=input output internal"`
	StartWith int64  `validate:"gte=0"`
	Position  *Position
}

// Port is one entry of a machine's "inputs" or "outputs" object.
type Port struct {
	Item     sim.ID `validate:"required"`
	Quantity int64  `validate:"gt=0"`
}

// Machine is one entry of the "machines" object.
type Machine struct {
	ID       sim.ID `validate:"required"`
	Name     string
	Inputs   []Port `validate:"dive"`
	Outputs  []Port `validate:"dive"`
	Time     int64  `validate:"gt=0"`
	Position *Position
}

// Description is a decoded factory description, entries in document order.
type Description struct {
	Items    []Item    `validate:"dive"`
	Machines []Machine `validate:"dive"`
	// Simulate is the horizon in ticks; sim.DefaultHorizon when the key was absent.
	Simulate int64 `validate:"gte=0"`
	// NextUID is the persisted id pool position, sim.InvalidID when absent.
	NextUID sim.ID
}

var validate = validator.New()

// Validate checks field ranges. Referential integrity is checked by Build.
func (d *Description) Validate() error {
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')",
			e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}
