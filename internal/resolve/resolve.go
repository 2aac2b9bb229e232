// Package resolve maps import specifiers to loadable targets. Resolution
// walks an ordered rule table (absolute, aliased, relative, external) and
// is a pure function of the specifier, the importing file, and a file
// system snapshot.
package resolve

import (
	"strings"

	"github.com/CageChen/reacthub/internal/vfs"
)

// Kind classifies how a specifier resolved.
type Kind string

// Resolution kinds, in rule-table order.
const (
	KindLocalAbsolute Kind = "local-absolute"
	KindAliased       Kind = "aliased"
	KindRelative      Kind = "relative"
	KindExternal      Kind = "external"
	KindUnresolved    Kind = "unresolved"
)

// Resolution records the outcome of resolving one specifier. Path is set
// for local kinds, URL for external ones; both are empty when unresolved.
type Resolution struct {
	Specifier string `json:"specifier"`
	Kind      Kind   `json:"kind"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Local reports whether the resolution points at a file in the snapshot.
func (r Resolution) Local() bool {
	return r.Kind == KindLocalAbsolute || r.Kind == KindAliased || r.Kind == KindRelative
}

// probeExtensions is the fixed priority list tried when a specifier names
// no existing file and carries no recognized extension.
var probeExtensions = [...]string{".jsx", ".tsx", ".js", ".ts", ".css"}

// Resolver holds the project-level resolution settings. AliasPrefix maps
// to AliasRoot (e.g. "@/" to "/"); Pins force specific packages to fixed
// versioned URLs so every module shares one instance.
type Resolver struct {
	AliasPrefix string
	AliasRoot   string
	CDNBase     string
	Pins        map[string]string
}

// New returns a resolver with the given alias prefix rooted at root,
// building external URLs from cdnBase. react and react-dom are pinned to
// reactVersion: duplicate React instances break component identity and
// hook state, so they must resolve identically for every importer.
func New(aliasPrefix, root, cdnBase, reactVersion string) *Resolver {
	cdnBase = strings.TrimRight(cdnBase, "/")
	return &Resolver{
		AliasPrefix: aliasPrefix,
		AliasRoot:   root,
		CDNBase:     cdnBase,
		Pins: map[string]string{
			"react":     cdnBase + "/react@" + reactVersion,
			"react-dom": cdnBase + "/react-dom@" + reactVersion,
		},
	}
}

// Resolve classifies specifier against the rule table, first match wins:
// absolute, aliased, relative, external, unresolved. Local rules probe
// the snapshot; external specifiers are mapped to CDN URLs without any
// existence check.
func (r *Resolver) Resolve(specifier, importerPath string, snap *vfs.Snapshot) Resolution {
	switch {
	case strings.HasPrefix(specifier, "/"):
		return r.probe(specifier, specifier, KindLocalAbsolute, snap)

	case r.AliasPrefix != "" && strings.HasPrefix(specifier, r.AliasPrefix):
		rest := strings.TrimPrefix(specifier, r.AliasPrefix)
		candidate := strings.TrimRight(r.AliasRoot, "/") + "/" + rest
		return r.probe(specifier, candidate, KindAliased, snap)

	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		dir := parentOf(importerPath)
		return r.probe(specifier, dir+"/"+specifier, KindRelative, snap)

	case strings.HasPrefix(specifier, "http://") || strings.HasPrefix(specifier, "https://"):
		return Resolution{Specifier: specifier, Kind: KindExternal, URL: specifier}

	default:
		return r.external(specifier)
	}
}

// probe normalizes candidate and looks it up in the snapshot, trying each
// supported extension in priority order unless the specifier already
// carries a recognized one. No match degrades to an unresolved
// resolution rather than an error.
func (r *Resolver) probe(specifier, candidate string, kind Kind, snap *vfs.Snapshot) Resolution {
	p, err := vfs.Normalize(candidate)
	if err != nil {
		return Resolution{Specifier: specifier, Kind: KindUnresolved}
	}
	if snap.IsFile(p) {
		return Resolution{Specifier: specifier, Kind: kind, Path: p}
	}
	if !hasRecognizedExtension(p) {
		for _, ext := range probeExtensions {
			if snap.IsFile(p + ext) {
				return Resolution{Specifier: specifier, Kind: kind, Path: p + ext}
			}
		}
	}
	return Resolution{Specifier: specifier, Kind: KindUnresolved}
}

// parentOf returns the directory of a normalized path.
func parentOf(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

func hasRecognizedExtension(p string) bool {
	ext := vfs.Ext(p)
	for _, known := range probeExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// external maps a bare package specifier to a CDN URL. Pinned packages
// keep their fixed versioned URL with any subpath appended; everything
// else passes through with name, version, and subpath intact.
func (r *Resolver) external(specifier string) Resolution {
	name, rest := splitPackage(specifier)
	if pinned, ok := r.Pins[name]; ok {
		return Resolution{Specifier: specifier, Kind: KindExternal, URL: pinned + rest}
	}
	return Resolution{Specifier: specifier, Kind: KindExternal, URL: r.CDNBase + "/" + specifier}
}

// splitPackage splits a specifier into its bare package name (two
// segments for scoped packages) and the remaining subpath, dropping any
// version suffix from the name so pin lookups see "react", not
// "react@19".
func splitPackage(specifier string) (name, rest string) {
	segments := 1
	if strings.HasPrefix(specifier, "@") {
		segments = 2
	}
	name = specifier
	idx := 0
	for i := 0; i < segments; i++ {
		next := strings.IndexByte(specifier[idx:], '/')
		if next < 0 {
			idx = 0
			break
		}
		idx += next + 1
	}
	if idx > 0 {
		name = specifier[:idx-1]
		rest = "/" + specifier[idx:]
	}

	// "react@18.0.0" pins by bare name. The leading "@" of a scoped
	// package is not a version separator.
	if at := strings.LastIndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return name, rest
}
