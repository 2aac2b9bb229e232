package vfs

import (
	"sort"
	"strings"
)

// Snapshot is an immutable point-in-time view of a file system. Builds
// read from a snapshot exclusively, so later mutations of the live FS can
// never race a build in progress.
type Snapshot struct {
	nodes map[string]Node
}

// Snapshot captures the current state of the file system.
func (f *FS) Snapshot() *Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	nodes := make(map[string]Node, len(f.nodes))
	for k, n := range f.nodes {
		nodes[k] = *n
	}
	return &Snapshot{nodes: nodes}
}

// Exists reports whether any node exists at the normalized path.
func (s *Snapshot) Exists(path string) bool {
	if path == "/" {
		return true
	}
	_, ok := s.nodes[path]
	return ok
}

// IsFile reports whether a file node exists at the normalized path.
func (s *Snapshot) IsFile(path string) bool {
	n, ok := s.nodes[path]
	return ok && n.Kind == KindFile
}

// Read returns the content of the file at the normalized path.
func (s *Snapshot) Read(path string) (string, bool) {
	n, ok := s.nodes[path]
	if !ok || n.Kind != KindFile {
		return "", false
	}
	return n.Content, true
}

// FilePaths returns every file path in the snapshot, sorted.
func (s *Snapshot) FilePaths() []string {
	var out []string
	for k, n := range s.nodes {
		if n.Kind == KindFile {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// FirstExisting returns the first of the candidate paths that exists as a
// file, or "" when none do. Used to pick a preview entry point.
func (s *Snapshot) FirstExisting(candidates []string) string {
	for _, c := range candidates {
		if s.IsFile(c) {
			return c
		}
	}
	return ""
}

// Ext returns the lower-cased extension of a path, including the dot.
func Ext(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || strings.ContainsRune(path[i:], '/') {
		return ""
	}
	return strings.ToLower(path[i:])
}
