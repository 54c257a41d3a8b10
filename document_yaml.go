package securebag

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes the document as an ordered YAML mapping.
func (d *Document) MarshalYAML() (any, error) {
	return d.yamlNode()
}

func (d *Document) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range d.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode, err := yamlValueNode(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

func yamlValueNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *Document:
		return t.yamlNode()
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			n, err := yamlValueNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(nativeNumber(v)); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// UnmarshalYAML decodes a YAML mapping, keeping key order.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("document must be a YAML mapping, got kind %d", node.Kind)
	}

	doc := NewDocument()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		val, err := yamlNodeValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		doc.Set(key, val)
	}
	*d = *doc
	return nil
}

func yamlNodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlNodeValue(node.Alias)
	case yaml.MappingNode:
		sub := NewDocument()
		if err := sub.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return sub, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := yamlNodeValue(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
