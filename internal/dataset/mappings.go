package dataset

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// SetMappings rewrites the mappings section of a curriculum document. Each mapping
// replaces the entry of its code or is appended in order; with replace set, entries
// for codes not in mappings are dropped. The rest of the document, comments
// included, is re-encoded from the parsed node tree.
func SetMappings(curriculum []byte, mappings []catalog.Mapping, replace bool) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(curriculum, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "invalid curriculum yaml").Build()
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.SchemaError("curriculum file must contain a mapping at the top level").Build()
	}

	section := lookupKey(root, KeyMappings)
	if section == nil || section.Kind != yaml.MappingNode {
		if section == nil {
			section = &yaml.Node{Kind: yaml.MappingNode}
			root.Content = append(root.Content, scalar(KeyMappings), section)
		} else {
			*section = yaml.Node{Kind: yaml.MappingNode}
		}
	}
	if replace {
		section.Content = nil
	}

	for _, m := range mappings {
		value := mappingNode(m)
		if existing := lookupKey(section, m.Code); existing != nil {
			*existing = *value
			continue
		}
		section.Content = append(section.Content, scalar(m.Code), value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		_ = enc.Close()
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode curriculum").Build()
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode curriculum").Build()
	}
	return buf.Bytes(), nil
}

// lookupKey returns the value node of key in a mapping node, nil when absent.
func lookupKey(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func mappingNode(m catalog.Mapping) *yaml.Node {
	list := func(ids []string) *yaml.Node {
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, id := range ids {
			n.Content = append(n.Content, scalar(id))
		}
		return n
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("competencies"), list(m.Competencies),
		scalar("program_results"), list(m.ProgramResults),
	}}
}
