package transition

import (
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fareway-labs/tripcore/phase"
)

// Overrides are deployment-tunable curated values layered over the built-in
// description and duration tables. Action lists and legality are fixed in
// code and cannot be overridden.
type Overrides struct {
	Descriptions []DescriptionOverride `yaml:"descriptions"`
	Durations    []DurationOverride    `yaml:"durations"`
}

// DescriptionOverride replaces the curated sentence for one phase pair.
type DescriptionOverride struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Description string `yaml:"description"`
}

// DurationOverride replaces the expected-duration hint for one phase pair.
type DurationOverride struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	DurationMs int64  `yaml:"durationMs"`
}

// LoadOverrides parses an override document from YAML bytes.
func LoadOverrides(data []byte) (*Overrides, error) {
	var ov Overrides

	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse overrides YAML: %w", err)
	}

	return &ov, nil
}

// LoadOverridesFromFS parses an override document from a filesystem,
// typically an embed.FS shipped with the embedding application.
func LoadOverridesFromFS(fsys fs.FS, path string) (*Overrides, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides from FS: %w", err)
	}

	return LoadOverrides(data)
}

// applyOverrides validates each entry against the legality table and layers
// it into the registry's curated maps.
func (r *Registry) applyOverrides(ov *Overrides) error {
	for _, d := range ov.Descriptions {
		key, err := r.overridePair(d.From, d.To)
		if err != nil {
			return err
		}

		r.descriptions[key] = d.Description
	}

	for _, d := range ov.Durations {
		key, err := r.overridePair(d.From, d.To)
		if err != nil {
			return err
		}

		if d.DurationMs <= 0 {
			return fmt.Errorf("duration override %s -> %s: durationMs must be positive", d.From, d.To)
		}

		r.durations[key] = time.Duration(d.DurationMs) * time.Millisecond
	}

	return nil
}

func (r *Registry) overridePair(fromStr, toStr string) (pair, error) {
	from, err := phase.Parse(fromStr)
	if err != nil {
		return pair{}, err
	}

	to, err := phase.Parse(toStr)
	if err != nil {
		return pair{}, err
	}

	if !r.IsValidTransition(from, to) {
		return pair{}, fmt.Errorf("%w: %s -> %s", ErrUnknownPhasePair, from, to)
	}

	return pair{from: from, to: to}, nil
}
