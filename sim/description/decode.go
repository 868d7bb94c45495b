package description

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/facmaker/facmaker/sim"
)

// Load reads and decodes the description file at path.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading factory description: %w", err)
	}
	d, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Decode parses a JSON or YAML description, checks it against the schema and the
// field rules, and returns its entries in document order.
func Decode(r io.Reader) (*Description, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading factory description: %w", err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing factory description: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, ErrEmpty
	}
	if err := validateSchema(&root); err != nil {
		return nil, err
	}

	doc := resolveAlias(root.Content[0])
	d := &Description{Simulate: sim.DefaultHorizon}
	var sawSimulate, sawPool bool
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, resolveAlias(doc.Content[i+1])
		switch key {
		case "items":
			if d.Items, err = decodeItems(val); err != nil {
				return nil, err
			}
		case "machines":
			if d.Machines, err = decodeMachines(val); err != nil {
				return nil, err
			}
		case "simulate":
			sawSimulate = true
			if err := val.Decode(&d.Simulate); err != nil {
				return nil, fmt.Errorf("line %d: simulate: %w", val.Line, err)
			}
		case "uid_pool":
			sawPool = true
			if d.NextUID, err = decodeUIDPool(val); err != nil {
				return nil, err
			}
		}
	}
	if !sawSimulate {
		logrus.Warnf("\"simulate\" value not present, using the default value of %d ticks", sim.DefaultHorizon)
	}
	if !sawPool {
		logrus.Warnf("\"uid_pool\" not present, identifiers continue after the largest id in use")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// pairs calls fn for each key/value of a mapping node, in document order.
func pairs(n *yaml.Node, fn func(key, val *yaml.Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i], resolveAlias(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func parseID(key *yaml.Node) (sim.ID, error) {
	v, err := strconv.ParseUint(key.Value, 10, 32)
	if err != nil {
		return sim.InvalidID, fmt.Errorf("line %d: identifier %q: %w", key.Line, key.Value, err)
	}
	return sim.ID(v), nil
}

func decodeItems(n *yaml.Node) ([]Item, error) {
	var items []Item
	err := pairs(n, func(key, val *yaml.Node) error {
		id, err := parseID(key)
		if err != nil {
			return err
		}
		var raw struct {
			Name      string   `yaml:"name"`
			Type      string   `yaml:"type"`
			StartWith int64    `yaml:"start_with"`
			X         *float64 `yaml:"x"`
			Y         *float64 `yaml:"y"`
		}
		if err := val.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: item %d: %w", val.Line, id, err)
		}
		items = append(items, Item{
			ID:        id,
			Name:      raw.Name,
			Type:      raw.Type,
			StartWith: raw.StartWith,
			Position:  position(raw.X, raw.Y),
		})
		return nil
	})
	return items, err
}

func decodeMachines(n *yaml.Node) ([]Machine, error) {
	var machines []Machine
	err := pairs(n, func(key, val *yaml.Node) error {
		id, err := parseID(key)
		if err != nil {
			return err
		}
		m := Machine{ID: id}
		var x, y *float64
		err = pairs(val, func(k, v *yaml.Node) error {
			var err error
			switch k.Value {
			case "name":
				err = v.Decode(&m.Name)
			case "inputs":
				m.Inputs, err = decodePorts(v)
			case "outputs":
				m.Outputs, err = decodePorts(v)
			case "time":
				err = v.Decode(&m.Time)
			case "x":
				err = v.Decode(&x)
			case "y":
				err = v.Decode(&y)
			}
			if err != nil {
				return fmt.Errorf("line %d: machine %d %s: %w", v.Line, id, k.Value, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		m.Position = position(x, y)
		machines = append(machines, m)
		return nil
	})
	return machines, err
}

func decodePorts(n *yaml.Node) ([]Port, error) {
	var ports []Port
	err := pairs(n, func(key, val *yaml.Node) error {
		id, err := parseID(key)
		if err != nil {
			return err
		}
		p := Port{Item: id}
		if err := val.Decode(&p.Quantity); err != nil {
			return err
		}
		ports = append(ports, p)
		return nil
	})
	return ports, err
}

func decodeUIDPool(n *yaml.Node) (sim.ID, error) {
	var raw struct {
		NextUID uint32 `yaml:"next_uid"`
	}
	if err := n.Decode(&raw); err != nil {
		return sim.InvalidID, fmt.Errorf("line %d: uid_pool: %w", n.Line, err)
	}
	return sim.ID(raw.NextUID), nil
}

func position(x, y *float64) *Position {
	if x == nil || y == nil {
		return nil
	}
	return &Position{X: *x, Y: *y}
}
