package entity

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AliasFile is the on-disk alias extension format
type AliasFile struct {
	Aliases []Alias `yaml:"aliases"`
}

// LoadAliases reads alias extensions from a YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadAliases(path string) ([]Alias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	return ParseAliases(data)
}

// ParseAliases decodes and validates alias YAML
func ParseAliases(data []byte) ([]Alias, error) {
	var file AliasFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode alias file: %w", err)
	}

	for i, a := range file.Aliases {
		if a.Match == "" {
			return nil, fmt.Errorf("aliases[%d].match: required", i)
		}
		if a.Label == "" {
			return nil, fmt.Errorf("aliases[%d].label: required", i)
		}
	}

	return file.Aliases, nil
}

// FromFile builds a resolver with the extensions in path, or the default
// resolver when path is empty.
func FromFile(path string) (*Resolver, error) {
	if path == "" {
		return Default(), nil
	}

	extra, err := LoadAliases(path)
	if err != nil {
		return nil, err
	}
	return NewResolver(extra...), nil
}
