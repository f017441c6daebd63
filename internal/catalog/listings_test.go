package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleListings(t *testing.T) {
	listings := catalog.SampleListings()
	require.NotEmpty(t, listings)

	c := catalog.Default()
	for _, p := range listings {
		_, ok := c.City(p.City)
		assert.True(t, ok, "listing %s uses an unknown city %q", p.ID, p.City)
		assert.Positive(t, p.Price)
	}
}

func TestLoadListings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","title":"A","type":"pg","city":"Pune","price":100,"amenities":["wifi"]}]`), 0o644))

	listings, err := catalog.LoadListings(path)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, []string{"wifi"}, listings[0].Amenities)

	_, err = catalog.LoadListings(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseListings_Invalid(t *testing.T) {
	_, err := catalog.ParseListings([]byte("- title: no id\n"), ".yaml")
	var vErr *catalog.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = catalog.ParseListings([]byte("- id: a\n- id: a\n"), ".yml")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "a", vErr.Value)
}
