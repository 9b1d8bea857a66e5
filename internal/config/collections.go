package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CollectionConfig declares a collection explicitly. In YAML it is either a
// bare name or a mapping with name, sort and paginate.
type CollectionConfig struct {
	Name     string      `yaml:"name"`
	Sort     *SortConfig `yaml:"sort,omitempty"`
	Paginate int         `yaml:"paginate,omitempty"`
}

// UnmarshalYAML accepts both `- posts` and `- {name: posts, ...}`.
func (c *CollectionConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	type plain CollectionConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = CollectionConfig(p)
	return nil
}

// MarshalYAML writes bare names when nothing else is set.
func (c CollectionConfig) MarshalYAML() (any, error) {
	if c.Sort == nil && c.Paginate == 0 {
		return c.Name, nil
	}
	type plain CollectionConfig
	return plain(c), nil
}

// SortConfig is a collection sort spec. In YAML it is either a bare field
// name or a mapping with by and order.
type SortConfig struct {
	By    string `yaml:"by,omitempty"`
	Order string `yaml:"order,omitempty"`
}

// UnmarshalYAML accepts both `sort: title` and `sort: {by: title, order: desc}`.
func (s *SortConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.By = node.Value
		return nil
	case yaml.MappingNode:
		type plain SortConfig
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*s = SortConfig(p)
		return nil
	default:
		return fmt.Errorf("line %d: sort must be a string or a mapping", node.Line)
	}
}

// AsMap returns the spec in the loose form understood by collection sorting.
func (s *SortConfig) AsMap() map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{"by": s.By, "order": s.Order}
}
