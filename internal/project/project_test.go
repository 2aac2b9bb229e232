package project

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/reacthub/internal/config"
	"github.com/CageChen/reacthub/internal/seed"
	"github.com/CageChen/reacthub/internal/store"
	"github.com/CageChen/reacthub/internal/tools"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logrus.NewEntry(logrus.New())
	seeds, err := seed.New("", log)
	require.NoError(t, err)

	return NewManager(config.DefaultConfig(), st, seeds, log)
}

// eventSink collects preview events across goroutines.
type eventSink struct {
	mu     sync.Mutex
	events []PreviewEvent
}

func (s *eventSink) add(e PreviewEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) waitFor(t *testing.T, n int) []PreviewEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.events) >= n {
			out := append([]PreviewEvent(nil), s.events...)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d preview events", n)
	return nil
}

func TestCreateSeedsAndBuilds(t *testing.T) {
	m := testManager(t)
	sink := &eventSink{}
	m.OnPreview(sink.add)

	p, err := m.Create("demo")
	require.NoError(t, err)
	assert.True(t, p.FS.Exists("/App.jsx"))

	events := sink.waitFor(t, 1)
	require.NotNil(t, events[0].Result)
	assert.Equal(t, "/App.jsx", events[0].Result.Entry)

	result, buildErr := p.Previewer.Current()
	require.NotNil(t, result)
	assert.Nil(t, buildErr)
	assert.NotEmpty(t, result.AggregatedStyle(), "seed stylesheet should be aggregated")

	// The entry module is servable from the blob store.
	code, ok := p.Blob(refOf(result.EntryURL))
	require.True(t, ok)
	assert.Contains(t, code, "App")
}

func TestExecuteToolPersistsAndRebuilds(t *testing.T) {
	m := testManager(t)
	sink := &eventSink{}
	m.OnPreview(sink.add)

	p, err := m.Create("demo")
	require.NoError(t, err)
	sink.waitFor(t, 1)

	res, err := m.ExecuteTool(p.Meta.ID, tools.Call{
		Tool:     tools.ToolStrReplaceEditor,
		Command:  "create",
		Path:     "/components/Badge.jsx",
		FileText: "import React from 'react'\nexport default function Badge(){ return <span/> }",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)

	// A reload from the store sees the mutation.
	_, loaded, err := m.store.LoadProject(p.Meta.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Exists("/components/Badge.jsx"))
}

func TestExecuteToolRefreshesUpdatedAt(t *testing.T) {
	m := testManager(t)
	p, err := m.Create("demo")
	require.NoError(t, err)
	before := p.Meta.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	res, err := m.ExecuteTool(p.Meta.ID, tools.Call{
		Tool:     tools.ToolStrReplaceEditor,
		Command:  "create",
		Path:     "/x.js",
		FileText: "export const x = 1",
	})
	require.NoError(t, err)
	require.True(t, res.OK)

	assert.True(t, p.Meta.UpdatedAt.After(before))

	// The stored header carries the same refresh.
	loaded, _, err := m.store.LoadProject(p.Meta.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, p.Meta.UpdatedAt, loaded.UpdatedAt, time.Second)
}

func TestBrokenEditSurfacesBuildError(t *testing.T) {
	m := testManager(t)
	sink := &eventSink{}
	m.OnPreview(sink.add)

	p, err := m.Create("demo")
	require.NoError(t, err)
	sink.waitFor(t, 1)

	res, err := m.ExecuteTool(p.Meta.ID, tools.Call{
		Tool:     tools.ToolStrReplaceEditor,
		Command:  "create",
		Path:     "/App.jsx",
		FileText: "export default function App() { return <div> }",
	})
	require.NoError(t, err)
	assert.True(t, res.OK, "the tool call itself succeeds; the build fails")

	events := sink.waitFor(t, 2)
	last := events[len(events)-1]
	require.NotNil(t, last.Err)
	assert.Equal(t, "/App.jsx", last.Err.Path)
}

func TestFailedToolCallIsRecoverable(t *testing.T) {
	m := testManager(t)
	p, err := m.Create("demo")
	require.NoError(t, err)

	res, err := m.ExecuteTool(p.Meta.ID, tools.Call{
		Tool:    tools.ToolStrReplaceEditor,
		Command: "str_replace",
		Path:    "/App.jsx",
		OldStr:  "not actually in the file",
		NewStr:  "x",
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}

func TestGetLoadsFromStore(t *testing.T) {
	m := testManager(t)
	p, err := m.Create("demo")
	require.NoError(t, err)
	id := p.Meta.ID

	// Drop the in-memory instance to force a store load.
	m.mu.Lock()
	delete(m.projects, id)
	m.mu.Unlock()

	reloaded, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "demo", reloaded.Meta.Name)
	assert.True(t, reloaded.FS.Exists("/App.jsx"))

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestDelete(t *testing.T) {
	m := testManager(t)
	p, err := m.Create("demo")
	require.NoError(t, err)

	require.NoError(t, m.Delete(p.Meta.ID))
	_, err = m.Get(p.Meta.ID)
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func refOf(url string) string {
	// URLs look like /preview/<id>/blob/<ref>.mjs
	start := len(url) - len(".mjs")
	for i := start - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[i+1 : start]
		}
	}
	return ""
}
