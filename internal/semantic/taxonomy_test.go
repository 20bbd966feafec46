package semantic

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax, err := DefaultTaxonomy()
	if err != nil {
		t.Fatalf("DefaultTaxonomy() error: %v", err)
	}

	if tax.Version != 2 {
		t.Errorf("Version = %d, want 2", tax.Version)
	}

	names := tax.LabelNames()
	want := []string{
		"proof_offer",
		"proof_success",
		"key_delivery",
		"leak_threat",
		"leak_followthrough",
		"deletion_promise",
		"no_future_extortion_promise",
		"violation_claim",
		"reextortion_behavior",
		"data_resale_admission",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d labels, want %d", len(names), len(want))
	}
	for i, name := range names {
		if name != want[i] {
			t.Errorf("label[%d] = %s, want %s", i, name, want[i])
		}
	}

	for _, label := range tax.Labels {
		if len(label.Exemplars) < 5 {
			t.Errorf("label %s has %d exemplars, want at least 5", label.Name, len(label.Exemplars))
		}
	}
}

func TestLoadTaxonomy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	content := `version: 1
labels:
  - name: test_label
    exemplars:
      - "first exemplar"
      - "second exemplar"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("LoadTaxonomy() error: %v", err)
	}
	if len(tax.Labels) != 1 || tax.Labels[0].Name != "test_label" {
		t.Errorf("unexpected taxonomy: %+v", tax)
	}
}

func TestLoadTaxonomy_Missing(t *testing.T) {
	if _, err := LoadTaxonomy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no labels", "version: 1\nlabels: []\n"},
		{"empty name", "version: 1\nlabels:\n  - name: \"\"\n    exemplars: [\"x\"]\n"},
		{"no exemplars", "version: 1\nlabels:\n  - name: a\n    exemplars: []\n"},
		{"duplicate names", "version: 1\nlabels:\n  - name: a\n    exemplars: [\"x\"]\n  - name: a\n    exemplars: [\"y\"]\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseTaxonomy([]byte(tt.yaml)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
