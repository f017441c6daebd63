// Package catalog holds the option vocabulary offered by the assistant:
// accommodation types, cities, budget ranges and amenities.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/hearth/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Reserved values used by the dialog itself; catalog entries may not reuse them.
var reserved = map[string]bool{
	"skip": true, "add_more": true, "show_results": true, "view": true,
	"browse_all": true, "restart": true, "feedback": true, "retry": true,
	"resubmit": true, "close": true, "start": true,
}

// Entry is one selectable value.
type Entry struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Catalog is the complete option vocabulary.
type Catalog struct {
	Types     []Entry `yaml:"types" json:"types"`
	Cities    []Entry `yaml:"cities" json:"cities"`
	Budgets   []Entry `yaml:"budgets" json:"budgets"`
	Amenities []Entry `yaml:"amenities" json:"amenities"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file (YAML or JSON, by extension).
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a catalog. ext selects the format; anything
// other than ".json" is treated as YAML.
func Parse(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	}
	c.fillLabels()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) fillLabels() {
	for _, list := range [][]Entry{c.Types, c.Cities, c.Amenities} {
		for i := range list {
			if list[i].Label == "" {
				list[i].Label = list[i].Value
			}
		}
	}
	for i := range c.Budgets {
		if c.Budgets[i].Label != "" {
			continue
		}
		if b, err := domain.ParseBudget(c.Budgets[i].Value); err == nil {
			c.Budgets[i].Label = b.Label()
		}
	}
}

// Validate checks every section for emptiness, duplicates and reserved values.
func (c *Catalog) Validate() error {
	var errs []error
	check := func(section string, entries []Entry) {
		if len(entries) == 0 {
			errs = append(errs, &ValidationError{Section: section, Reason: "must not be empty"})
			return
		}
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			switch {
			case strings.TrimSpace(e.Value) == "":
				errs = append(errs, &ValidationError{Section: section, Reason: "empty value"})
			case seen[e.Value]:
				errs = append(errs, &ValidationError{Section: section, Value: e.Value, Reason: "duplicate value"})
			case reserved[e.Value]:
				errs = append(errs, &ValidationError{Section: section, Value: e.Value, Reason: "reserved value"})
			}
			seen[e.Value] = true
		}
	}

	check("types", c.Types)
	check("cities", c.Cities)
	check("budgets", c.Budgets)
	check("amenities", c.Amenities)

	for _, e := range c.Budgets {
		if _, err := domain.ParseBudget(e.Value); err != nil {
			errs = append(errs, &ValidationError{Section: "budgets", Value: e.Value, Reason: "expected min-max"})
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &AggregateError{Errors: errs}
}

func lookup(entries []Entry, value string) (Entry, bool) {
	for _, e := range entries {
		if e.Value == value {
			return e, true
		}
	}
	return Entry{}, false
}

// Type looks up an accommodation type.
func (c *Catalog) Type(value string) (Entry, bool) { return lookup(c.Types, value) }

// City looks up a city.
func (c *Catalog) City(value string) (Entry, bool) { return lookup(c.Cities, value) }

// Budget looks up a budget range.
func (c *Catalog) Budget(value string) (Entry, bool) { return lookup(c.Budgets, value) }

// Amenity looks up an amenity.
func (c *Catalog) Amenity(value string) (Entry, bool) { return lookup(c.Amenities, value) }

// TypeLabel returns the label of a type value, or the value itself.
func (c *Catalog) TypeLabel(value string) string {
	if e, ok := c.Type(value); ok {
		return e.Label
	}
	return value
}
