// Package seed hydrates new projects from a starter template. Templates
// are read once from an on-disk directory into memory; an optional
// watcher reloads the cache when the directory changes, so template
// edits show up in the next created project without a restart.
package seed

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/CageChen/reacthub/internal/vfs"
)

// defaultTemplate is used when no template directory is configured or the
// configured one is empty.
var defaultTemplate = []templateFile{
	{path: "/App.jsx", content: `import React from 'react'
import './styles.css'

export default function App() {
  return (
    <div className="app">
      <h1>Hello</h1>
      <p>Ask for a change to get started.</p>
    </div>
  )
}
`},
	{path: "/styles.css", content: `.app {
  font-family: system-ui, sans-serif;
  padding: 2rem;
}
`},
}

type templateFile struct {
	path    string
	content string
}

// Templates caches the starter project files.
type Templates struct {
	dir string
	log *logrus.Entry

	mu    sync.RWMutex
	files []templateFile

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New loads the template from dir. An empty dir selects the built-in
// default template.
func New(dir string, log *logrus.Entry) (*Templates, error) {
	t := &Templates{dir: dir, log: log}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Hydrate builds a fresh file system populated with the template files.
func (t *Templates) Hydrate() (*vfs.FS, error) {
	t.mu.RLock()
	files := t.files
	t.mu.RUnlock()

	fs := vfs.New()
	for _, f := range files {
		if err := fs.Create(f.path, f.content); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// reload re-reads the template directory into the cache.
func (t *Templates) reload() error {
	if t.dir == "" {
		t.mu.Lock()
		t.files = defaultTemplate
		t.mu.Unlock()
		return nil
	}

	var files []templateFile
	err := filepath.Walk(t.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != t.dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(t.dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, templateFile{
			path:    "/" + filepath.ToSlash(rel),
			content: string(content),
		})
		return nil
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		files = defaultTemplate
	}

	t.mu.Lock()
	t.files = files
	t.mu.Unlock()
	t.log.WithField("files", len(files)).Debug("seed template loaded")
	return nil
}

// Watch starts reloading the cache on changes under the template
// directory. It is a no-op for the built-in template.
func (t *Templates) Watch() error {
	if t.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.Walk(t.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.Add(path); err != nil {
				t.log.WithField("path", path).WithError(err).Warn("cannot watch template directory")
			}
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return err
	}

	t.watcher = w
	t.done = make(chan struct{})
	go t.eventLoop()
	return nil
}

// Stop stops the watcher.
func (t *Templates) Stop() error {
	if t.watcher == nil {
		return nil
	}
	close(t.done)
	return t.watcher.Close()
}

func (t *Templates) eventLoop() {
	for {
		select {
		case <-t.done:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			// New subdirectories need watching too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = t.watcher.Add(event.Name)
				}
			}
			if err := t.reload(); err != nil {
				t.log.WithError(err).Warn("template reload failed")
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.log.WithError(err).Warn("template watcher error")
		}
	}
}
