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

//go:embed listings.yaml
var sampleListingsYAML []byte

// SampleListings returns the embedded demo listings.
func SampleListings() []domain.PropertySummary {
	listings, err := ParseListings(sampleListingsYAML, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded listings are invalid: %v", err))
	}
	return listings
}

// LoadListings reads a listings file (YAML or JSON, by extension).
func LoadListings(path string) ([]domain.PropertySummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return ParseListings(data, filepath.Ext(path))
}

// ParseListings decodes a list of properties. Every property needs an ID.
func ParseListings(data []byte, ext string) ([]domain.PropertySummary, error) {
	var listings []domain.PropertySummary
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("failed to parse listings json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("failed to parse listings yaml: %w", err)
		}
	}
	seen := make(map[string]bool, len(listings))
	for i, p := range listings {
		if strings.TrimSpace(p.ID) == "" {
			return nil, &ValidationError{Section: "listings", Reason: fmt.Sprintf("entry %d has no id", i)}
		}
		if seen[p.ID] {
			return nil, &ValidationError{Section: "listings", Value: p.ID, Reason: "duplicate value"}
		}
		seen[p.ID] = true
	}
	return listings, nil
}
