package dataset

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

const (
	mergeKey = "<<"
	mergeTag = "!!merge"
)

// valueFromNode converts a YAML node into the raw catalog shapes: mappings become
// ordered catalog.Entries, sequences []any, and scalars their natural Go type.
func valueFromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return valueFromNode(n.Content[0])
	case yaml.AliasNode:
		return valueFromNode(n.Alias)
	case yaml.MappingNode:
		return entriesFromNode(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := valueFromNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

// entriesFromNode keeps declaration order. Merge keys ("<<") contribute entries whose
// keys are not declared explicitly.
func entriesFromNode(n *yaml.Node) (catalog.Entries, error) {
	out := make(catalog.Entries, 0, len(n.Content)/2)
	seen := make(map[string]int, len(n.Content)/2)
	var merged catalog.Entries

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}
		if keyNode.Value == mergeKey && keyNode.ShortTag() == mergeTag {
			m, err := mergeEntries(valNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m...)
			continue
		}
		if _, dup := seen[keyNode.Value]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, keyNode.Value)
		}
		v, err := valueFromNode(valNode)
		if err != nil {
			return nil, err
		}
		seen[keyNode.Value] = len(out)
		out = append(out, catalog.Entry{Key: keyNode.Value, Value: v})
	}

	for _, e := range merged {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = len(out)
		out = append(out, e)
	}
	return out, nil
}

func mergeEntries(n *yaml.Node) (catalog.Entries, error) {
	if n.Kind == yaml.SequenceNode {
		var out catalog.Entries
		for _, item := range n.Content {
			m, err := mergeEntries(item)
			if err != nil {
				return nil, err
			}
			out = append(out, m...)
		}
		return out, nil
	}
	v, err := valueFromNode(n)
	if err != nil {
		return nil, err
	}
	entries, ok := v.(catalog.Entries)
	if !ok {
		return nil, fmt.Errorf("line %d: merge value must be a mapping", n.Line)
	}
	return entries, nil
}
