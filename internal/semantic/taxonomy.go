// Package semantic segments negotiation chat text into sentences and assigns
// behavioral labels to them by embedding similarity against a fixed taxonomy.
package semantic

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Label is one behavioral category, anchored by exemplar sentences.
type Label struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Exemplars   []string `yaml:"exemplars"`
}

// Taxonomy is the ordered, versioned label set the classifier detects.
// Label order is load-bearing: feature columns and report rows follow it.
type Taxonomy struct {
	Version int     `yaml:"version"`
	Labels  []Label `yaml:"labels"`
}

// DefaultTaxonomy parses the embedded label set.
func DefaultTaxonomy() (*Taxonomy, error) {
	return parseTaxonomy(defaultTaxonomyYAML)
}

// LoadTaxonomy reads a label set from a YAML file, for running with revised
// exemplars without rebuilding.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	t, err := parseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}

func parseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(t.Labels) == 0 {
		return nil, fmt.Errorf("taxonomy defines no labels")
	}
	seen := make(map[string]bool, len(t.Labels))
	for _, l := range t.Labels {
		if l.Name == "" {
			return nil, fmt.Errorf("taxonomy label with empty name")
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("duplicate taxonomy label %q", l.Name)
		}
		seen[l.Name] = true
		if len(l.Exemplars) == 0 {
			return nil, fmt.Errorf("taxonomy label %q has no exemplars", l.Name)
		}
	}
	return &t, nil
}

// LabelNames returns the label names in taxonomy order.
func (t *Taxonomy) LabelNames() []string {
	names := make([]string, len(t.Labels))
	for i, l := range t.Labels {
		names[i] = l.Name
	}
	return names
}
