package assemble

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/CageChen/reacthub/internal/vfs"
)

// Event is delivered to subscribers after every finished rebuild: either
// Result is set (the payload handed to the execution sandbox) or Err
// carries the build failure for the error panel.
type Event struct {
	Result *BuildResult
	Err    *BuildError
}

// Previewer serializes builds for one preview surface. Builds run one at
// a time, and the entry point and snapshot are captured when a build
// starts rather than when it is requested, so the generation order
// matches the snapshot order and the latest file system state always
// wins. A request arriving while another is already queued coalesces
// into it: the queued build has not captured its snapshot yet, so it
// will build state at least as new. Nothing of a superseded build
// becomes visible: blobs are only installed for the winning generation.
type Previewer struct {
	asm    *Assembler
	source func() (string, *vfs.Snapshot)
	log    *logrus.Entry

	buildMu    sync.Mutex
	generation uint64
	queued     atomic.Bool

	mu        sync.Mutex
	installed uint64
	current   *BuildResult
	buildErr  *BuildError
	onUpdate  []func(Event)
}

// NewPreviewer returns a previewer building with asm. source supplies
// the entry path and snapshot for each build and is called with the
// build serialized, never concurrently.
func NewPreviewer(asm *Assembler, source func() (string, *vfs.Snapshot), log *logrus.Entry) *Previewer {
	return &Previewer{asm: asm, source: source, log: log}
}

// OnUpdate registers a subscriber notified after every installed build or
// build failure. Coalesced and superseded requests produce no event.
func (p *Previewer) OnUpdate(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = append(p.onUpdate, fn)
}

// Rebuild requests a build of the current file system state and installs
// the result. It returns the installed result, or (nil, nil) when the
// request coalesced into a newer one, or the build error.
func (p *Previewer) Rebuild() (*BuildResult, error) {
	if !p.queued.CompareAndSwap(false, true) {
		return nil, nil
	}
	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	p.queued.Store(false)

	p.generation++
	generation := p.generation
	entry, snap := p.source()

	result, err := p.asm.Build(entry, snap, generation)

	p.mu.Lock()
	if generation < p.installed {
		p.mu.Unlock()
		p.log.WithField("generation", generation).Debug("discarding superseded build")
		return nil, nil
	}
	p.installed = generation

	var event Event
	if err != nil {
		berr := err.(*BuildError)
		p.buildErr = berr
		event = Event{Err: berr}
		p.log.WithField("path", berr.Path).WithError(berr.Err).Warn("preview build failed")
	} else {
		// Install-or-nothing: blobs become visible only here, and prior
		// generations are released in the same step.
		p.asm.Install(result)
		p.current = result
		p.buildErr = nil
		event = Event{Result: result}
		p.log.WithFields(logrus.Fields{
			"entry":       result.Entry,
			"modules":     len(result.Registry),
			"diagnostics": len(result.Diagnostics),
			"generation":  generation,
		}).Debug("preview build installed")
	}
	subscribers := make([]func(Event), len(p.onUpdate))
	copy(subscribers, p.onUpdate)
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
	return result, err
}

// Current returns the last installed build and the last build error, if
// any. A build error leaves the previous good build in place so already
// loaded modules keep resolving.
func (p *Previewer) Current() (*BuildResult, *BuildError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.buildErr
}

// Close releases every blob owned by this previewer.
func (p *Previewer) Close() {
	p.asm.Blobs.releaseAll()
}
