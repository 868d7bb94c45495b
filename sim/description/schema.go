package description

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/factory.schema.json
var factorySchemaJSON string

const factorySchemaURL = "https://facmaker.dev/schemas/factory.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// Schema returns the compiled JSON schema of factory descriptions.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		schema = jsonschema.MustCompileString(factorySchemaURL, factorySchemaJSON)
	})
	return schema
}

// validateSchema checks the structure of a parsed document before it is walked.
// YAML documents are converted to their JSON equivalent first, so both syntaxes
// are held to the same schema.
func validateSchema(doc *yaml.Node) error {
	v, err := jsonValue(doc)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("converting description to JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("converting description to JSON: %w", err)
	}
	if err := Schema().Validate(generic); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

// jsonValue converts a YAML node into plain maps, slices and scalars.
// Mapping keys are taken verbatim so unquoted numeric YAML keys become JSON object keys.
func jsonValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return jsonValue(n.Content[0])
	case yaml.AliasNode:
		return jsonValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := jsonValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := jsonValue(c)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %v", n.Line, n.Kind)
}
