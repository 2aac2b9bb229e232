// Package vfs implements the in-memory virtual file system that backs a
// project. Files never touch disk: every node lives in a single path-keyed
// map, and all access goes through the CRUD operations below.
package vfs

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Error kinds surfaced by file system operations. Callers match them with
// errors.Is; wrapped messages carry the offending path.
var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrPathIsDirectory = errors.New("path is a directory")
	ErrNotDirectory    = errors.New("not a directory")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Kind distinguishes file nodes from directory nodes.
type Kind string

// Node kinds.
const (
	KindFile Kind = "file"
	KindDir  Kind = "directory"
)

// Node is a single entry in the file system. Nodes handed to callers are
// copies; mutating one has no effect on the store.
type Node struct {
	Path      string    `json:"path"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FS is the virtual file system. The root directory "/" always exists
// implicitly and is never stored as a node.
type FS struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	now   func() time.Time
}

// New returns an empty file system.
func New() *FS {
	return &FS{
		nodes: make(map[string]*Node),
		now:   time.Now,
	}
}

// Normalize canonicalizes p: "./" segments collapse, ".." segments resolve
// against the path's own ancestors, a leading "/" is ensured and trailing
// slashes are stripped (except for the root itself). It fails with
// ErrInvalidPath when a ".." segment would escape the root.
func Normalize(p string) (string, error) {
	var stack []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) == 0 {
				return "", errors.WithMessagef(ErrInvalidPath, "%q escapes root", p)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}

// parentOf returns the parent directory of a normalized, non-root path.
func parentOf(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// ensureDirs creates any missing ancestor directories of path. The caller
// must hold the write lock.
func (f *FS) ensureDirs(path string) error {
	for dir := parentOf(path); dir != "/"; dir = parentOf(dir) {
		if node, ok := f.nodes[dir]; ok {
			if node.Kind != KindDir {
				return errors.WithMessagef(ErrNotDirectory, "ancestor %q is a file", dir)
			}
			continue
		}
		now := f.now()
		f.nodes[dir] = &Node{Path: dir, Kind: KindDir, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

// Create writes a file at path, creating missing ancestor directories and
// overwriting an existing file at the same path.
func (f *FS) Create(path, content string) error {
	p, err := Normalize(path)
	if err != nil {
		return err
	}
	if p == "/" {
		return errors.WithMessage(ErrInvalidPath, "cannot create a file at the root path")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if node, ok := f.nodes[p]; ok && node.Kind == KindDir {
		return errors.WithMessagef(ErrPathIsDirectory, "%q", p)
	}
	if err := f.ensureDirs(p); err != nil {
		return err
	}
	now := f.now()
	if node, ok := f.nodes[p]; ok {
		node.Content = content
		node.UpdatedAt = now
		return nil
	}
	f.nodes[p] = &Node{Path: p, Kind: KindFile, Content: content, CreatedAt: now, UpdatedAt: now}
	return nil
}

// Read returns the content of the file at path.
func (f *FS) Read(path string) (string, error) {
	p, err := Normalize(path)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	node, ok := f.nodes[p]
	if !ok {
		return "", errors.WithMessagef(ErrNotFound, "%q", p)
	}
	if node.Kind == KindDir {
		return "", errors.WithMessagef(ErrPathIsDirectory, "%q", p)
	}
	return node.Content, nil
}

// Update replaces the content of an existing file. Unlike Create it never
// creates the file implicitly.
func (f *FS) Update(path, content string) error {
	p, err := Normalize(path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[p]
	if !ok {
		return errors.WithMessagef(ErrNotFound, "%q", p)
	}
	if node.Kind == KindDir {
		return errors.WithMessagef(ErrPathIsDirectory, "%q", p)
	}
	node.Content = content
	node.UpdatedAt = f.now()
	return nil
}

// Delete removes the node at path. Directories are removed recursively.
// Deleting a missing path is an error, not a no-op.
func (f *FS) Delete(path string) error {
	p, err := Normalize(path)
	if err != nil {
		return err
	}
	if p == "/" {
		return errors.WithMessage(ErrInvalidPath, "cannot delete the root directory")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[p]
	if !ok {
		return errors.WithMessagef(ErrNotFound, "%q", p)
	}
	delete(f.nodes, p)
	if node.Kind == KindDir {
		prefix := p + "/"
		for k := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				delete(f.nodes, k)
			}
		}
	}
	return nil
}

// Rename moves the node at oldPath to newPath. Directory renames rewrite
// every descendant path in one step; readers never observe a partial
// rename because all mutation happens under the write lock.
func (f *FS) Rename(oldPath, newPath string) error {
	oldP, err := Normalize(oldPath)
	if err != nil {
		return err
	}
	newP, err := Normalize(newPath)
	if err != nil {
		return err
	}
	if oldP == "/" || newP == "/" {
		return errors.WithMessage(ErrInvalidPath, "cannot rename the root directory")
	}
	if newP == oldP || strings.HasPrefix(newP, oldP+"/") {
		return errors.WithMessagef(ErrInvalidPath, "cannot rename %q into itself", oldP)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	node, ok := f.nodes[oldP]
	if !ok {
		return errors.WithMessagef(ErrNotFound, "%q", oldP)
	}
	if _, ok := f.nodes[newP]; ok {
		return errors.WithMessagef(ErrAlreadyExists, "%q", newP)
	}
	if err := f.ensureDirs(newP); err != nil {
		return err
	}

	delete(f.nodes, oldP)
	node.Path = newP
	node.UpdatedAt = f.now()
	f.nodes[newP] = node

	if node.Kind == KindDir {
		prefix := oldP + "/"
		moved := make(map[string]*Node)
		for k, n := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				delete(f.nodes, k)
				n.Path = newP + k[len(oldP):]
				moved[n.Path] = n
			}
		}
		for k, n := range moved {
			f.nodes[k] = n
		}
	}
	return nil
}

// Exists reports whether a node exists at path. It never fails; a path
// that does not normalize simply does not exist.
func (f *FS) Exists(path string) bool {
	p, err := Normalize(path)
	if err != nil {
		return false
	}
	if p == "/" {
		return true
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.nodes[p]
	return ok
}

// List returns the direct children of the directory at path in
// lexicographic order.
func (f *FS) List(path string) ([]Node, error) {
	p, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if p != "/" {
		node, ok := f.nodes[p]
		if !ok {
			return nil, errors.WithMessagef(ErrNotFound, "%q", p)
		}
		if node.Kind != KindDir {
			return nil, errors.WithMessagef(ErrNotDirectory, "%q", p)
		}
	}

	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}
	var children []Node
	for k, n := range f.nodes {
		if !strings.HasPrefix(k, prefix) || k == p {
			continue
		}
		if strings.ContainsRune(k[len(prefix):], '/') {
			continue
		}
		children = append(children, *n)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
	return children, nil
}

// Serialize returns every node as an ordered sequence of copies, sorted by
// path so ancestors always precede descendants. The result is the exact
// persistence representation; Deserialize is its inverse.
func (f *FS) Serialize() []Node {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Node, 0, len(f.nodes))
	for _, n := range f.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Deserialize reconstructs a file system from a serialized snapshot. It
// fails with ErrCorruptSnapshot when a path is not in normalized form, two
// nodes collide, or a file node sits where an ancestor directory is needed.
func Deserialize(snapshot []Node) (*FS, error) {
	f := New()
	for _, n := range snapshot {
		p, err := Normalize(n.Path)
		if err != nil || p != n.Path || p == "/" {
			return nil, errors.WithMessagef(ErrCorruptSnapshot, "bad path %q", n.Path)
		}
		if n.Kind != KindFile && n.Kind != KindDir {
			return nil, errors.WithMessagef(ErrCorruptSnapshot, "bad kind %q for %q", n.Kind, n.Path)
		}
		if existing, ok := f.nodes[p]; ok && existing.Kind != n.Kind {
			return nil, errors.WithMessagef(ErrCorruptSnapshot, "conflicting kinds for %q", p)
		}
		if err := f.ensureDirs(p); err != nil {
			return nil, errors.WithMessagef(ErrCorruptSnapshot, "ancestor of %q: %v", p, err)
		}
		node := n
		f.nodes[p] = &node
	}
	return f, nil
}
