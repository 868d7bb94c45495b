package description

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/facmaker/facmaker/sim"
)

// Format selects the syntax Encode writes.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown description format %q; valid: json, yaml", name)
}

// Encode writes d in the given format, keys in document order.
// The JSON output uses the same layout the decoder accepts.
func (d *Description) Encode(w io.Writer, format Format) error {
	root := d.node()
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("encoding YAML description: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		var compact bytes.Buffer
		if err := writeJSON(&compact, root); err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
			return fmt.Errorf("encoding JSON description: %w", err)
		}
		out.WriteByte('\n')
		_, err := out.WriteTo(w)
		return err
	}
	return fmt.Errorf("unknown description format %q", format)
}

func (d *Description) node() *yaml.Node {
	items := mapping()
	for _, it := range d.Items {
		n := mapping(
			"name", str(it.Name),
			"type", str(it.Type),
			"start_with", integer(it.StartWith),
		)
		addPosition(n, it.Position)
		items.Content = append(items.Content, idKey(it.ID), n)
	}

	machines := mapping()
	for _, m := range d.Machines {
		n := mapping(
			"name", str(m.Name),
			"inputs", portsNode(m.Inputs),
			"outputs", portsNode(m.Outputs),
			"time", integer(m.Time),
		)
		addPosition(n, m.Position)
		machines.Content = append(machines.Content, idKey(m.ID), n)
	}

	root := mapping(
		"items", items,
		"machines", machines,
		"simulate", integer(d.Simulate),
	)
	if d.NextUID != sim.InvalidID {
		root.Content = append(root.Content, str("uid_pool"), mapping("next_uid", integer(int64(d.NextUID))))
	}
	return root
}

// mapping builds a mapping node from alternating string keys and value nodes.
func mapping(kv ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, str(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return n
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func idKey(id sim.ID) *yaml.Node {
	// quoted so YAML readers see the same string keys JSON has
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strconv.FormatUint(uint64(id), 10), Style: yaml.DoubleQuotedStyle}
}

func integer(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func float(v float64) *yaml.Node {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}

func portsNode(ports []Port) *yaml.Node {
	n := mapping()
	for _, p := range ports {
		n.Content = append(n.Content, idKey(p.Item), integer(p.Quantity))
	}
	return n
}

func addPosition(n *yaml.Node, p *Position) {
	if p == nil {
		return
	}
	n.Content = append(n.Content, str("x"), float(p.X), str("y"), float(p.Y))
}

// writeJSON renders the node tree built by node() as compact JSON.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(n.Content[i].Value)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			v, err := json.Marshal(n.Value)
			if err != nil {
				return err
			}
			buf.Write(v)
			return nil
		}
		buf.WriteString(n.Value)
	default:
		return fmt.Errorf("encoding JSON description: unexpected node kind %v", n.Kind)
	}
	return nil
}
