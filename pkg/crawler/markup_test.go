package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMarkup_OverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "markup.yaml")
	content := `
name: "h1.product-name"
labels:
  country: "Pays"
  producer_suffix: "Tous les produits de ce producteur"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadMarkup(path)
	require.NoError(t, err)

	defaults := DefaultMarkup()
	assert.Equal(t, "h1.product-name", m.Name)
	assert.Equal(t, "Pays", m.Labels.Country)
	assert.Equal(t, "Tous les produits de ce producteur", m.Labels.ProducerSuffix)
	assert.Equal(t, defaults.Price, m.Price)
	assert.Equal(t, defaults.Labels.Size, m.Labels.Size)
}

func TestLoadMarkup_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadMarkup(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0o644))
	_, err = LoadMarkup(bad)
	assert.Error(t, err)

	cleared := filepath.Join(dir, "cleared.yaml")
	require.NoError(t, os.WriteFile(cleared, []byte(`price: ""`), 0o644))
	_, err = LoadMarkup(cleared)
	assert.Error(t, err)
}
