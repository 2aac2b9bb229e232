// Package project coordinates the pieces that make up one editable
// preview session: a virtual file system, the editing tools that mutate
// it, the previewer that rebuilds the module graph after every change,
// and the store that persists snapshots.
package project

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CageChen/reacthub/internal/assemble"
	"github.com/CageChen/reacthub/internal/config"
	"github.com/CageChen/reacthub/internal/metrics"
	"github.com/CageChen/reacthub/internal/resolve"
	"github.com/CageChen/reacthub/internal/seed"
	"github.com/CageChen/reacthub/internal/store"
	"github.com/CageChen/reacthub/internal/tools"
	"github.com/CageChen/reacthub/internal/vfs"
)

// Project is one live editing session.
type Project struct {
	Meta store.ProjectMeta

	FS         *vfs.FS
	Dispatcher *tools.Dispatcher
	Previewer  *assemble.Previewer

	blobs *assemble.BlobStore
}

// PreviewEvent is pushed to manager subscribers after every rebuild.
type PreviewEvent struct {
	ProjectID string
	Result    *assemble.BuildResult
	Err       *assemble.BuildError
}

// Manager owns every open project.
type Manager struct {
	cfg   *config.Config
	store *store.Store
	seeds *seed.Templates
	log   *logrus.Entry

	mu       sync.RWMutex
	projects map[string]*Project
	onEvent  []func(PreviewEvent)
}

// NewManager returns a manager backed by st, hydrating new projects from
// seeds.
func NewManager(cfg *config.Config, st *store.Store, seeds *seed.Templates, log *logrus.Entry) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    st,
		seeds:    seeds,
		log:      log,
		projects: make(map[string]*Project),
	}
}

// OnPreview registers a subscriber for rebuild events across all
// projects.
func (m *Manager) OnPreview(fn func(PreviewEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = append(m.onEvent, fn)
}

// newProject wires the per-project machinery around fs.
func (m *Manager) newProject(meta store.ProjectMeta, fs *vfs.FS) *Project {
	blobs := assemble.NewBlobStore()
	resolver := resolve.New(m.cfg.AliasPrefix, "/", m.cfg.CDNBase, m.cfg.ReactVersion)
	asm := assemble.NewAssembler(resolver, blobs, "/preview/"+meta.ID+"/blob")
	previewer := assemble.NewPreviewer(asm, func() (string, *vfs.Snapshot) {
		snap := fs.Snapshot()
		entry := snap.FirstExisting(m.cfg.EntryCandidates)
		if entry == "" {
			// Fall back to the first candidate so the failure names a path.
			entry = m.cfg.EntryCandidates[0]
		}
		return entry, snap
	}, m.log.WithField("project", meta.ID))

	p := &Project{
		Meta:       meta,
		FS:         fs,
		Dispatcher: tools.NewDispatcher(tools.NewEditor(fs), tools.NewFileManager(fs)),
		Previewer:  previewer,
		blobs:      blobs,
	}
	previewer.OnUpdate(func(e assemble.Event) {
		m.notify(PreviewEvent{ProjectID: meta.ID, Result: e.Result, Err: e.Err})
	})
	return p
}

func (m *Manager) notify(e PreviewEvent) {
	m.mu.RLock()
	subscribers := make([]func(PreviewEvent), len(m.onEvent))
	copy(subscribers, m.onEvent)
	m.mu.RUnlock()
	for _, fn := range subscribers {
		fn(e)
	}
}

// ReactURL returns the pinned shared React URL every module resolves to.
func (m *Manager) ReactURL() string {
	return m.cfg.CDNBase + "/react@" + m.cfg.ReactVersion
}

// ReactDOMURL returns the pinned React DOM URL.
func (m *Manager) ReactDOMURL() string {
	return m.cfg.CDNBase + "/react-dom@" + m.cfg.ReactVersion
}

// Create makes a new project from the seed template, persists it, and
// runs the first build.
func (m *Manager) Create(name string) (*Project, error) {
	fs, err := m.seeds.Hydrate()
	if err != nil {
		return nil, errors.WithMessage(err, "hydrate seed template")
	}
	now := time.Now()
	meta := store.ProjectMeta{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := m.store.SaveProject(meta, fs.Serialize()); err != nil {
		return nil, err
	}

	p := m.newProject(meta, fs)
	m.mu.Lock()
	m.projects[meta.ID] = p
	m.mu.Unlock()

	m.rebuild(p)
	return p, nil
}

// Get returns an open project, loading it from the store on first
// access.
func (m *Manager) Get(id string) (*Project, error) {
	m.mu.RLock()
	p, ok := m.projects[id]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	meta, fs, err := m.store.LoadProject(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.projects[id]; ok {
		return existing, nil
	}
	p = m.newProject(meta, fs)
	m.projects[id] = p

	go m.rebuild(p)
	return p, nil
}

// List returns the stored project headers.
func (m *Manager) List() ([]store.ProjectMeta, error) {
	return m.store.ListProjects()
}

// Delete closes a project and removes it from the store.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if p, ok := m.projects[id]; ok {
		p.Previewer.Close()
		delete(m.projects, id)
	}
	m.mu.Unlock()
	return m.store.DeleteProject(id)
}

// ExecuteTool runs one tool call against a project. A mutating call
// persists the new snapshot and schedules a rebuild; the rebuild runs
// asynchronously so tool results return immediately.
func (m *Manager) ExecuteTool(id string, call tools.Call) (tools.Result, error) {
	p, err := m.Get(id)
	if err != nil {
		return tools.Result{}, err
	}

	res := p.Dispatcher.Execute(call)
	outcome := metrics.Ok
	if !res.OK {
		outcome = metrics.Fail
	}
	metrics.ToolCallsTotal.WithLabelValues(call.Tool, outcome).Inc()

	if res.Mutated {
		p.Meta.UpdatedAt = time.Now()
		if err := m.store.SaveProject(p.Meta, p.FS.Serialize()); err != nil {
			m.log.WithField("project", id).WithError(err).Error("persist snapshot failed")
		}
		go m.rebuild(p)
	}
	return res, nil
}

// Blob serves module code for a project's preview.
func (p *Project) Blob(ref string) (string, bool) {
	return p.blobs.Get(ref)
}

// rebuild runs one preview build against the latest snapshot. The
// previewer serializes builds and captures the snapshot when the build
// starts; requests queued behind an in-flight build coalesce. A missing
// entry point is a build failure like any other.
func (m *Manager) rebuild(p *Project) {
	started := time.Now()
	result, err := p.Previewer.Rebuild()
	if err == nil && result == nil {
		return // coalesced into a newer request
	}
	metrics.BuildsTotal.Inc()
	metrics.BuildDurationSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.BuildFailuresTotal.Inc()
		return
	}
	metrics.UnresolvedImportsTotal.Add(float64(len(result.Diagnostics)))
}
