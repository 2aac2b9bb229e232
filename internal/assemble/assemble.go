// Package assemble builds the executable module graph for a preview. A
// build walks the file tree from an entry point, transforms every
// reachable file once, resolves each import, and produces a registry of
// loadable module references plus aggregated style text for the
// execution sandbox.
package assemble

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/resolve"
	"github.com/CageChen/reacthub/internal/transform"
	"github.com/CageChen/reacthub/internal/vfs"
)

// RegistryEntry maps one specifier, as some importer wrote it, to its
// loadable target. Multiple specifier keys may share one URL when they
// resolve to the same file.
type RegistryEntry struct {
	Specifier   string `json:"specifier"`
	URL         string `json:"url,omitempty"`
	SourcePath  string `json:"sourcePath,omitempty"`
	StyleText   string `json:"styleText,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Diagnostic is a non-fatal build condition, currently always an
// unresolved import. The preview still renders, with a visible
// placeholder where the missing module would be.
type Diagnostic struct {
	Specifier string `json:"specifier"`
	Importer  string `json:"importer"`
	Message   string `json:"message"`
}

// BuildResult is the complete, installable output of one build.
type BuildResult struct {
	Entry       string                   `json:"entry"`
	EntryURL    string                   `json:"entryUrl"`
	Registry    map[string]RegistryEntry `json:"registry"`
	Styles      []string                 `json:"styles"`
	Diagnostics []Diagnostic             `json:"diagnostics"`
	Generation  uint64                   `json:"generation"`

	blobs map[string]string
}

// AggregatedStyle joins every discovered style block, in first-discovery
// order, into the single stylesheet injected by the sandbox.
func (r *BuildResult) AggregatedStyle() string {
	return strings.Join(r.Styles, "\n")
}

// BuildError is the fatal build failure: one broken file invalidates the
// whole preview, since a partial module graph is not independently
// useful.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed at %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Assembler builds module graphs against one blob store. BlobBaseURL is
// the HTTP prefix the store is served under.
type Assembler struct {
	Resolver    *resolve.Resolver
	Blobs       *BlobStore
	BlobBaseURL string
}

// NewAssembler returns an assembler resolving with r and serving module
// code under blobBaseURL.
func NewAssembler(r *resolve.Resolver, blobs *BlobStore, blobBaseURL string) *Assembler {
	return &Assembler{Resolver: r, Blobs: blobs, BlobBaseURL: strings.TrimRight(blobBaseURL, "/")}
}

// module is one visited local file during a build.
type module struct {
	path        string
	result      *transform.Result
	resolutions []resolve.Resolution
	ref         string
}

// Build walks the graph reachable from entryPath in snap and returns the
// result, without installing anything: the caller decides whether the
// build is still current before install. It fails with *BuildError when
// entryPath is missing or any reachable file fails to parse.
func (a *Assembler) Build(entryPath string, snap *vfs.Snapshot, generation uint64) (*BuildResult, error) {
	entry, err := vfs.Normalize(entryPath)
	if err != nil {
		return nil, &BuildError{Path: entryPath, Err: err}
	}
	if !snap.IsFile(entry) {
		return nil, &BuildError{Path: entry, Err: errors.WithMessagef(vfs.ErrNotFound, "entry %q", entry)}
	}

	w := &walker{asm: a, snap: snap, modules: make(map[string]*module)}
	if err := w.visit(entry); err != nil {
		return nil, err
	}

	res := &BuildResult{
		Entry:      entry,
		Registry:   make(map[string]RegistryEntry),
		Generation: generation,
		blobs:      make(map[string]string),
	}

	// Mint a blob reference per module up front so import rewriting can
	// point at modules that are part of a cycle.
	for _, m := range w.modules {
		m.ref = NewRef()
	}
	placeholderRefs := make(map[string]string)

	for _, m := range w.modules {
		rewrite := make(map[string]string)
		for _, r := range m.resolutions {
			re, target := a.registryEntry(w, r, placeholderRefs, res)
			rewrite[r.Specifier] = target
			if _, ok := res.Registry[r.Specifier]; !ok {
				res.Registry[r.Specifier] = re
			}
		}
		res.blobs[m.ref] = transform.RewriteImports(m.result.Code, rewrite)
	}

	// Styles in first-discovery order.
	for _, p := range w.styleOrder {
		res.Styles = append(res.Styles, w.styles[p])
	}
	res.Diagnostics = w.diagnostics

	entryMod := w.modules[entry]
	res.EntryURL = a.blobURL(entryMod.ref)
	res.Registry[entry] = RegistryEntry{Specifier: entry, URL: res.EntryURL, SourcePath: entry}
	return res, nil
}

// registryEntry produces the registry entry and rewrite target for one
// resolution. Style targets rewrite to "" so their import statements are
// dropped after aggregation.
func (a *Assembler) registryEntry(w *walker, r resolve.Resolution, placeholderRefs map[string]string, res *BuildResult) (RegistryEntry, string) {
	switch {
	case r.Local() && transform.IsStylePath(r.Path):
		return RegistryEntry{Specifier: r.Specifier, SourcePath: r.Path, StyleText: w.styles[r.Path]}, ""

	case r.Local():
		m := w.modules[r.Path]
		url := a.blobURL(m.ref)
		return RegistryEntry{Specifier: r.Specifier, URL: url, SourcePath: r.Path}, url

	case r.Kind == resolve.KindExternal:
		return RegistryEntry{Specifier: r.Specifier, URL: r.URL}, r.URL

	default: // unresolved: substitute a visible placeholder module
		ref, ok := placeholderRefs[r.Specifier]
		if !ok {
			ref = NewRef()
			placeholderRefs[r.Specifier] = ref
			res.blobs[ref] = a.placeholderModule(r.Specifier)
		}
		url := a.blobURL(ref)
		return RegistryEntry{Specifier: r.Specifier, URL: url, Placeholder: true}, url
	}
}

// Install publishes the build's blobs, releasing every blob of prior
// generations in the same step.
func (a *Assembler) Install(res *BuildResult) {
	a.Blobs.install(res.Generation, res.blobs)
}

func (a *Assembler) blobURL(ref string) string {
	return a.BlobBaseURL + "/" + ref + ".mjs"
}

// placeholderModule keeps the graph loadable when an import cannot be
// resolved: its default export renders a marker naming the missing
// specifier instead of leaving a blank screen.
func (a *Assembler) placeholderModule(specifier string) string {
	reactURL := a.Resolver.Pins["react"]
	return fmt.Sprintf(`import React from %q;
export default function MissingModule(props) {
  return React.createElement(
    "div",
    { style: { padding: "8px", border: "1px dashed #c00", color: "#c00", fontFamily: "monospace" } },
    "missing module: %s"
  );
}
`, reactURL, specifier)
}

// walker performs the reachability walk for one build.
type walker struct {
	asm         *Assembler
	snap        *vfs.Snapshot
	modules     map[string]*module
	styles      map[string]string
	styleOrder  []string
	diagnostics []Diagnostic
}

// visit transforms path and recurses into its local imports. The modules
// map doubles as the visited set: a cycle stops expanding at the second
// visit instead of recursing forever. Each file is transformed exactly
// once per build, however many specifiers reach it.
func (w *walker) visit(path string) error {
	if _, ok := w.modules[path]; ok {
		return nil
	}

	source, ok := w.snap.Read(path)
	if !ok {
		return &BuildError{Path: path, Err: errors.WithMessage(vfs.ErrNotFound, "file vanished during build")}
	}
	result, err := transform.File(path, source)
	if err != nil {
		return &BuildError{Path: path, Err: err}
	}

	m := &module{path: path, result: result}
	w.modules[path] = m

	for _, spec := range result.Imports {
		r := w.asm.Resolver.Resolve(spec, path, w.snap)
		m.resolutions = append(m.resolutions, r)

		switch {
		case r.Local() && transform.IsStylePath(r.Path):
			w.recordStyle(r.Path)
		case r.Local():
			if err := w.visit(r.Path); err != nil {
				return err
			}
		case r.Kind == resolve.KindUnresolved:
			w.diagnostics = append(w.diagnostics, Diagnostic{
				Specifier: spec,
				Importer:  path,
				Message:   fmt.Sprintf("cannot resolve %q imported from %s", spec, path),
			})
		}
	}
	return nil
}

func (w *walker) recordStyle(path string) {
	if w.styles == nil {
		w.styles = make(map[string]string)
	}
	if _, ok := w.styles[path]; ok {
		return
	}
	text, _ := w.snap.Read(path)
	w.styles[path] = text
	w.styleOrder = append(w.styleOrder, path)
}
