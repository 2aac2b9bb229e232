package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	return logrus.NewEntry(l)
}

func TestDefaultTemplate(t *testing.T) {
	templates, err := New("", testLog())
	require.NoError(t, err)

	fs, err := templates.Hydrate()
	require.NoError(t, err)
	assert.True(t, fs.Exists("/App.jsx"))
	assert.True(t, fs.Exists("/styles.css"))

	content, err := fs.Read("/App.jsx")
	require.NoError(t, err)
	assert.Contains(t, content, "export default function App")
}

func TestTemplateFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "components"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.jsx"), []byte("app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "components", "Button.jsx"), []byte("button"), 0o644))

	templates, err := New(dir, testLog())
	require.NoError(t, err)

	fs, err := templates.Hydrate()
	require.NoError(t, err)
	content, err := fs.Read("/components/Button.jsx")
	require.NoError(t, err)
	assert.Equal(t, "button", content)
}

func TestHydrateReturnsIndependentFileSystems(t *testing.T) {
	templates, err := New("", testLog())
	require.NoError(t, err)

	a, err := templates.Hydrate()
	require.NoError(t, err)
	b, err := templates.Hydrate()
	require.NoError(t, err)

	require.NoError(t, a.Update("/App.jsx", "mutated"))
	content, err := b.Read("/App.jsx")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", content)
}
