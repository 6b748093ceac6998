package languages

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCatalogue = `
[[language]]
name = "PYTHON"
sandbox_id = 71
display_name = "Python (3.8.1)"

[[language]]
name = "JAVA"
sandbox_id = 62
display_name = "Java (OpenJDK 13.0.1)"
`

func writeCatalogue(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "languages.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultCatalog(t *testing.T) {
	c, err := NewCatalog("", zap.NewNop())
	require.NoError(t, err)

	lang, ok := c.Resolve("python")
	require.True(t, ok)
	assert.Equal(t, 34, lang.SandboxID)

	lang, ok = c.Resolve(" c_plus_plus ")
	require.True(t, ok)
	assert.Equal(t, 10, lang.SandboxID)

	_, ok = c.Resolve("COBOL")
	assert.False(t, ok)
	assert.Len(t, c.List(), 4)
}

func TestCatalogFromFile(t *testing.T) {
	path := writeCatalogue(t, t.TempDir(), sampleCatalogue)

	c, err := NewCatalog(path, zap.NewNop())
	require.NoError(t, err)

	lang, ok := c.Resolve("JAVA")
	require.True(t, ok)
	assert.Equal(t, 62, lang.SandboxID)

	_, ok = c.Resolve("C")
	assert.False(t, ok, "languages missing from the file must not fall back to defaults")

	names := []string{}
	for _, l := range c.List() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"JAVA", "PYTHON"}, names)
}

func TestCatalogReloadKeepsPreviousTableOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)

	c, err := NewCatalog(path, zap.NewNop())
	require.NoError(t, err)

	writeCatalogue(t, dir, "this is = = not toml")
	assert.Error(t, c.Reload())

	lang, ok := c.Resolve("PYTHON")
	require.True(t, ok)
	assert.Equal(t, 71, lang.SandboxID)
}

func TestCatalogReloadPicksUpNewIds(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)

	c, err := NewCatalog(path, zap.NewNop())
	require.NoError(t, err)

	writeCatalogue(t, dir, `
[[language]]
name = "PYTHON"
sandbox_id = 92
`)
	require.NoError(t, c.Reload())

	lang, ok := c.Resolve("PYTHON")
	require.True(t, ok)
	assert.Equal(t, 92, lang.SandboxID)
}

func TestCatalogChangedDetectsModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)

	c, err := NewCatalog(path, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.changed())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, c.changed())
}

func TestCatalogFailedReloadIsNotRetriedUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)

	c, err := NewCatalog(path, zap.NewNop())
	require.NoError(t, err)

	writeCatalogue(t, dir, "this is = = not toml")
	broken := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, broken, broken))
	require.True(t, c.changed())

	assert.Error(t, c.Reload())
	assert.False(t, c.changed(), "the broken revision must not be re-read on every tick")

	fixed := broken.Add(time.Minute)
	writeCatalogue(t, dir, sampleCatalogue)
	require.NoError(t, os.Chtimes(path, fixed, fixed))
	assert.True(t, c.changed())
	require.NoError(t, c.Reload())
	assert.False(t, c.changed())
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "missing name", body: "[[language]]\nsandbox_id = 4\n"},
		{name: "bad id", body: "[[language]]\nname = \"C\"\nsandbox_id = 0\n"},
		{name: "duplicate", body: "[[language]]\nname = \"C\"\nsandbox_id = 4\n[[language]]\nname = \"c\"\nsandbox_id = 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestNewCatalogMissingFile(t *testing.T) {
	_, err := NewCatalog(filepath.Join(t.TempDir(), "missing.toml"), zap.NewNop())
	assert.Error(t, err)
}
