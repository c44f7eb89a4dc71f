package rules

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// SeedDocument returns the built-in catalog shipped with the binary. Callers
// get a fresh copy on every call.
func SeedDocument() (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(defaultsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return &doc, nil
}
