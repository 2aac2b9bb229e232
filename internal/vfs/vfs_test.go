package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/App.jsx", "/App.jsx"},
		{"App.jsx", "/App.jsx"},
		{"/a/b/../c", "/a/c"},
		{"/a/./b/", "/a/b"},
		{"//a///b", "/a/b"},
		{"/", "/"},
		{"", "/"},
		{"/a/..", "/"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		require.NoError(t, err, "Normalize(%q)", tt.in)
		assert.Equal(t, tt.want, got, "Normalize(%q)", tt.in)

		// Normalization is idempotent.
		again, err := Normalize(got)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestNormalizeEscapesRoot(t *testing.T) {
	for _, in := range []string{"/..", "../x", "/a/../../b"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalidPath, "Normalize(%q)", in)
	}
}

func TestCreateMakesAncestorDirectories(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a/b/c.jsx", "x"))

	assert.True(t, fs.Exists("/a"))
	assert.True(t, fs.Exists("/a/b"))

	children, err := fs.List("/a")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/a/b", children[0].Path)
	assert.Equal(t, KindDir, children[0].Kind)
}

func TestCreateOverwritesExistingFile(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/x.js", "one"))
	require.NoError(t, fs.Create("/x.js", "two"))

	content, err := fs.Read("/x.js")
	require.NoError(t, err)
	assert.Equal(t, "two", content)
}

func TestCreateOnDirectoryFails(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a/b.js", "x"))
	assert.ErrorIs(t, fs.Create("/a", "x"), ErrPathIsDirectory)
	assert.ErrorIs(t, fs.Create("/", "x"), ErrInvalidPath)
}

func TestReadErrors(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/dir/f.js", "x"))

	_, err := fs.Read("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.Read("/dir")
	assert.ErrorIs(t, err, ErrPathIsDirectory)
}

func TestUpdateRequiresExistingFile(t *testing.T) {
	fs := New()
	assert.ErrorIs(t, fs.Update("/x.js", "new"), ErrNotFound)

	require.NoError(t, fs.Create("/x.js", "old"))
	require.NoError(t, fs.Update("/x.js", "new"))
	content, err := fs.Read("/x.js")
	require.NoError(t, err)
	assert.Equal(t, "new", content)
}

func TestDeleteRecursive(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a/b/c.js", "x"))
	require.NoError(t, fs.Create("/a/d.js", "y"))
	require.NoError(t, fs.Create("/other.js", "z"))

	require.NoError(t, fs.Delete("/a"))
	assert.False(t, fs.Exists("/a"))
	assert.False(t, fs.Exists("/a/b"))
	assert.False(t, fs.Exists("/a/b/c.js"))
	assert.True(t, fs.Exists("/other.js"))

	// Deleting a missing path is an error, not a no-op.
	assert.ErrorIs(t, fs.Delete("/a"), ErrNotFound)
}

func TestRenameFile(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a.js", "x"))
	require.NoError(t, fs.Rename("/a.js", "/b/c.js"))

	assert.False(t, fs.Exists("/a.js"))
	content, err := fs.Read("/b/c.js")
	require.NoError(t, err)
	assert.Equal(t, "x", content)
}

func TestRenameDirectoryRewritesDescendants(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/old/x.jsx", "x"))
	require.NoError(t, fs.Create("/old/sub/y.jsx", "y"))

	require.NoError(t, fs.Rename("/old", "/new"))

	assert.False(t, fs.Exists("/old"))
	assert.False(t, fs.Exists("/old/x.jsx"))
	assert.True(t, fs.Exists("/new/x.jsx"))
	content, err := fs.Read("/new/sub/y.jsx")
	require.NoError(t, err)
	assert.Equal(t, "y", content)
}

func TestRenameErrors(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a.js", "x"))
	require.NoError(t, fs.Create("/b.js", "y"))

	assert.ErrorIs(t, fs.Rename("/missing", "/z.js"), ErrNotFound)
	assert.ErrorIs(t, fs.Rename("/a.js", "/b.js"), ErrAlreadyExists)
	assert.ErrorIs(t, fs.Rename("/a.js", "/a.js/inner"), ErrInvalidPath)
}

func TestListErrors(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/f.js", "x"))

	_, err := fs.List("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.List("/f.js")
	assert.ErrorIs(t, err, ErrNotDirectory)

	// Listing the implicit root always works, even when empty.
	empty := New()
	children, err := empty.List("/")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestSerializeRoundTrip(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/App.jsx", "app"))
	require.NoError(t, fs.Create("/components/Button.jsx", "button"))
	require.NoError(t, fs.Create("/styles.css", "body{}"))

	snapshot := fs.Serialize()
	restored, err := Deserialize(snapshot)
	require.NoError(t, err)

	assert.Equal(t, snapshot, restored.Serialize())
	content, err := restored.Read("/components/Button.jsx")
	require.NoError(t, err)
	assert.Equal(t, "button", content)
	assert.True(t, restored.Exists("/components"))
}

func TestDeserializeCorrupt(t *testing.T) {
	_, err := Deserialize([]Node{{Path: "a//b", Kind: KindFile}})
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, err = Deserialize([]Node{
		{Path: "/a", Kind: KindFile},
		{Path: "/a/b", Kind: KindFile},
	})
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, err = Deserialize([]Node{{Path: "/a", Kind: "weird"}})
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestSnapshotIsImmutable(t *testing.T) {
	fs := New()
	require.NoError(t, fs.Create("/a.js", "before"))

	snap := fs.Snapshot()
	require.NoError(t, fs.Update("/a.js", "after"))
	require.NoError(t, fs.Create("/b.js", "new"))

	content, ok := snap.Read("/a.js")
	require.True(t, ok)
	assert.Equal(t, "before", content)
	assert.False(t, snap.Exists("/b.js"))
}
