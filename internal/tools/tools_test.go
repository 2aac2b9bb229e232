package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/reacthub/internal/vfs"
)

func newEditor(t *testing.T, files map[string]string) (*Editor, *vfs.FS) {
	t.Helper()
	fs := vfs.New()
	for path, content := range files {
		require.NoError(t, fs.Create(path, content))
	}
	return NewEditor(fs), fs
}

func TestViewNumbersLines(t *testing.T) {
	e, _ := newEditor(t, map[string]string{"/a.js": "one\ntwo\nthree"})

	out, err := e.View("/a.js", nil)
	require.NoError(t, err)
	assert.Equal(t, "1\tone\n2\ttwo\n3\tthree\n", out)

	out, err = e.View("/a.js", []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, "2\ttwo\n3\tthree\n", out)

	_, err = e.View("/a.js", []int{5, 6})
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestViewDirectoryLists(t *testing.T) {
	e, _ := newEditor(t, map[string]string{
		"/components/Button.jsx": "b",
		"/components/sub/X.jsx":  "x",
	})
	out, err := e.View("/components", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "/components/Button.jsx")
	assert.Contains(t, out, "/components/sub/")
}

func TestStrReplaceExactlyOnce(t *testing.T) {
	e, fs := newEditor(t, map[string]string{"/a.js": "const x = 1\nconst y = 1"})

	assert.ErrorIs(t, e.StrReplace("/a.js", "nope", "x"), ErrNoMatch)
	assert.ErrorIs(t, e.StrReplace("/a.js", "const", "let"), ErrNoMatch, "two occurrences must not match")

	require.NoError(t, e.StrReplace("/a.js", "const x = 1", "const x = 2"))
	content, err := fs.Read("/a.js")
	require.NoError(t, err)
	assert.Equal(t, "const x = 2\nconst y = 1", content)
}

func TestInsert(t *testing.T) {
	e, fs := newEditor(t, map[string]string{"/a.js": "one\nthree"})

	require.NoError(t, e.Insert("/a.js", 1, "two"))
	content, err := fs.Read("/a.js")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", content)

	require.NoError(t, e.Insert("/a.js", 0, "zero"))
	content, _ = fs.Read("/a.js")
	assert.Equal(t, "zero\none\ntwo\nthree", content)

	assert.ErrorIs(t, e.Insert("/a.js", 99, "x"), ErrLineOutOfRange)
}

func TestUndoEdit(t *testing.T) {
	e, fs := newEditor(t, map[string]string{"/a.js": "original"})

	require.NoError(t, e.StrReplace("/a.js", "original", "changed"))
	require.NoError(t, e.Create("/new.js", "fresh"))

	// Undo removes the created file first.
	path, err := e.UndoEdit()
	require.NoError(t, err)
	assert.Equal(t, "/new.js", path)
	assert.False(t, fs.Exists("/new.js"))

	// Then restores the replaced content.
	path, err = e.UndoEdit()
	require.NoError(t, err)
	assert.Equal(t, "/a.js", path)
	content, _ := fs.Read("/a.js")
	assert.Equal(t, "original", content)

	_, err = e.UndoEdit()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestCreateIsCreateOrUpdate(t *testing.T) {
	e, fs := newEditor(t, map[string]string{"/a.js": "old"})
	require.NoError(t, e.Create("/a.js", "new"))
	content, _ := fs.Read("/a.js")
	assert.Equal(t, "new", content)
}

func TestDispatcher(t *testing.T) {
	fs := vfs.New()
	d := NewDispatcher(NewEditor(fs), NewFileManager(fs))

	res := d.Execute(Call{Tool: ToolStrReplaceEditor, Command: "create", Path: "/App.jsx", FileText: "export default 1"})
	assert.True(t, res.OK)
	assert.True(t, res.Mutated)

	res = d.Execute(Call{Tool: ToolStrReplaceEditor, Command: "view", Path: "/App.jsx"})
	assert.True(t, res.OK)
	assert.False(t, res.Mutated)
	assert.Contains(t, res.Output, "export default 1")

	res = d.Execute(Call{Tool: ToolFileManager, Command: "rename_file", OldPath: "/App.jsx", NewPath: "/Main.jsx"})
	assert.True(t, res.OK)
	assert.True(t, fs.Exists("/Main.jsx"))

	res = d.Execute(Call{Tool: ToolFileManager, Command: "delete_file", Path: "/Main.jsx"})
	assert.True(t, res.OK)
	assert.False(t, fs.Exists("/Main.jsx"))

	// Failures are results, not panics: the agent retries.
	res = d.Execute(Call{Tool: ToolFileManager, Command: "delete_file", Path: "/Main.jsx"})
	assert.False(t, res.OK)
	assert.False(t, res.Mutated)
	assert.NotEmpty(t, res.Error)

	res = d.Execute(Call{Tool: "mystery", Command: "zap"})
	assert.False(t, res.OK)
}
