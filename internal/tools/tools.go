// Package tools implements the editing tool contract consumed by the
// conversational agent. Every command operates on a project's virtual
// file system; failures come back as recoverable tool errors the agent
// can retry with corrected arguments.
package tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/vfs"
)

// Tool-level error kinds, beyond the file system's own.
var (
	ErrNoMatch        = errors.New("no match")
	ErrLineOutOfRange = errors.New("line out of range")
	ErrNothingToUndo  = errors.New("nothing to undo")
)

// Editor implements the str_replace_editor commands against one file
// system, with an undo stack over its own edits.
type Editor struct {
	fs *vfs.FS

	mu   sync.Mutex
	undo []undoRecord
}

// undoRecord captures a file's state before one edit.
type undoRecord struct {
	path    string
	existed bool
	content string
}

// NewEditor returns an editor over fs.
func NewEditor(fs *vfs.FS) *Editor {
	return &Editor{fs: fs}
}

// View returns a file's content with 1-based line numbers, optionally
// limited to the inclusive line range [from, to]. For directories it
// lists the direct children instead.
func (e *Editor) View(path string, viewRange []int) (string, error) {
	if content, err := e.fs.Read(path); err == nil {
		return numberLines(path, content, viewRange)
	} else if !errors.Is(err, vfs.ErrPathIsDirectory) {
		return "", err
	}

	children, err := e.fs.List(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range children {
		name := c.Path
		if c.Kind == vfs.KindDir {
			name += "/"
		}
		fmt.Fprintln(&b, name)
	}
	return b.String(), nil
}

func numberLines(path, content string, viewRange []int) (string, error) {
	lines := strings.Split(content, "\n")
	from, to := 1, len(lines)
	if len(viewRange) == 2 {
		from, to = viewRange[0], viewRange[1]
		if from < 1 || from > len(lines) || to < from {
			return "", errors.WithMessagef(ErrLineOutOfRange, "view range %v of %s (%d lines)", viewRange, path, len(lines))
		}
		if to > len(lines) {
			to = len(lines)
		}
	}
	var b strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, "%d\t%s\n", i, lines[i-1])
	}
	return b.String(), nil
}

// Create writes a file, creating or overwriting it. This is the one
// command with create-or-update semantics; the file system's strict
// Update is not exposed as a tool.
func (e *Editor) Create(path, content string) error {
	e.recordBefore(path)
	if err := e.fs.Create(path, content); err != nil {
		e.dropLastRecord()
		return err
	}
	return nil
}

// StrReplace replaces old with new in the file at path. It fails with
// ErrNoMatch unless old occurs exactly once.
func (e *Editor) StrReplace(path, old, new string) error {
	content, err := e.fs.Read(path)
	if err != nil {
		return err
	}
	switch n := strings.Count(content, old); {
	case old == "" || n == 0:
		return errors.WithMessagef(ErrNoMatch, "old_str not found in %s", path)
	case n > 1:
		return errors.WithMessagef(ErrNoMatch, "old_str occurs %d times in %s, must be unique", n, path)
	}

	e.recordBefore(path)
	if err := e.fs.Update(path, strings.Replace(content, old, new, 1)); err != nil {
		e.dropLastRecord()
		return err
	}
	return nil
}

// Insert inserts content after the given 1-based line number; line 0
// inserts at the top. It fails with ErrLineOutOfRange when line exceeds
// the file's line count.
func (e *Editor) Insert(path string, line int, content string) error {
	current, err := e.fs.Read(path)
	if err != nil {
		return err
	}
	lines := strings.Split(current, "\n")
	if line < 0 || line > len(lines) {
		return errors.WithMessagef(ErrLineOutOfRange, "line %d of %s (%d lines)", line, path, len(lines))
	}

	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:line]...)
	updated = append(updated, content)
	updated = append(updated, lines[line:]...)

	e.recordBefore(path)
	if err := e.fs.Update(path, strings.Join(updated, "\n")); err != nil {
		e.dropLastRecord()
		return err
	}
	return nil
}

// UndoEdit reverts the most recent Create, StrReplace, or Insert and
// returns the path it restored.
func (e *Editor) UndoEdit() (string, error) {
	e.mu.Lock()
	if len(e.undo) == 0 {
		e.mu.Unlock()
		return "", ErrNothingToUndo
	}
	rec := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.mu.Unlock()

	if !rec.existed {
		if err := e.fs.Delete(rec.path); err != nil {
			return "", err
		}
		return rec.path, nil
	}
	if err := e.fs.Create(rec.path, rec.content); err != nil {
		return "", err
	}
	return rec.path, nil
}

func (e *Editor) recordBefore(path string) {
	rec := undoRecord{path: path}
	if content, err := e.fs.Read(path); err == nil {
		rec.existed = true
		rec.content = content
	}
	e.mu.Lock()
	e.undo = append(e.undo, rec)
	e.mu.Unlock()
}

func (e *Editor) dropLastRecord() {
	e.mu.Lock()
	if len(e.undo) > 0 {
		e.undo = e.undo[:len(e.undo)-1]
	}
	e.mu.Unlock()
}

// FileManager implements the file_manager commands.
type FileManager struct {
	fs *vfs.FS
}

// NewFileManager returns a file manager over fs.
func NewFileManager(fs *vfs.FS) *FileManager {
	return &FileManager{fs: fs}
}

// Rename moves a file or directory, rewriting descendant paths.
func (m *FileManager) Rename(oldPath, newPath string) error {
	return m.fs.Rename(oldPath, newPath)
}

// Delete removes a file or directory recursively.
func (m *FileManager) Delete(path string) error {
	return m.fs.Delete(path)
}
