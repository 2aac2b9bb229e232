// Package transform lowers a single source file into executable module
// code. JSX and TSX become plain React.createElement calls, TypeScript
// syntax is erased, and the static import specifiers the file references
// are collected alongside the output.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Result is the outcome of transforming one file. Exactly one of Code and
// StyleText is meaningful: style files carry their raw text through
// StyleText and produce no executable module.
type Result struct {
	Code      string
	Imports   []string
	StyleText string
	IsStyle   bool
}

// SyntaxError reports a parse failure with its source position. Line is
// 1-based and Column is 0-based, following esbuild.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// loaderFor maps a file extension to an esbuild loader. Plain .js is
// loaded as JSX because generated components frequently keep JSX in .js
// files.
func loaderFor(path string) api.Loader {
	switch ext(path) {
	case ".tsx":
		return api.LoaderTSX
	case ".ts":
		return api.LoaderTS
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJSX
	}
}

func ext(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || strings.ContainsRune(path[i:], '/') {
		return ""
	}
	return strings.ToLower(path[i:])
}

// IsStylePath reports whether path names a style file. Style files are
// never transformed to executable code; their content is taken as CSS
// verbatim.
func IsStylePath(path string) bool {
	return ext(path) == ".css"
}

// File transforms one file's raw source. Style files short-circuit into a
// style-only result. A parse failure returns *SyntaxError; malformed
// type annotations alone do not fail, since type erasure is syntactic.
func File(path, source string) (*Result, error) {
	if IsStylePath(path) {
		return &Result{StyleText: source, IsStyle: true}, nil
	}

	res := api.Transform(source, api.TransformOptions{
		Sourcefile: path,
		Loader:     loaderFor(path),
		Format:     api.FormatESModule,
		Target:     api.ES2020,
		JSX:        api.JSXTransform,
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		msg := res.Errors[0]
		serr := &SyntaxError{Path: path, Msg: msg.Text}
		if msg.Location != nil {
			serr.Line = msg.Location.Line
			serr.Column = msg.Location.Column
		}
		return nil, serr
	}

	code := string(res.Code)
	return &Result{Code: code, Imports: ScanImports(code)}, nil
}

// Static import and re-export statements in esbuild's ESM output. Matched
// against transformed code, so type-only imports are already gone and the
// surviving statements are in normalized form.
var (
	importRe     = regexp.MustCompile(`(?ms)^\s*import\s+(?:[^;"'` + "`" + `]+?\bfrom\s+)?["']([^"']+)["']`)
	exportFromRe = regexp.MustCompile(`(?ms)^\s*export\s+[^;"'` + "`" + `]+?\bfrom\s+["']([^"']+)["']`)
)

// ScanImports collects every static import/export specifier in code, in
// source order, deduplicated by specifier text.
func ScanImports(code string) []string {
	type hit struct {
		pos  int
		spec string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{importRe, exportFromRe} {
		for _, m := range re.FindAllStringSubmatchIndex(code, -1) {
			hits = append(hits, hit{pos: m[0], spec: code[m[2]:m[3]]})
		}
	}
	// Merge the two match sets back into source order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if !seen[h.spec] {
			seen[h.spec] = true
			out = append(out, h.spec)
		}
	}
	return out
}

// RewriteImports replaces each import specifier in code according to
// rewrite. A mapping to "" removes the whole import statement, which is
// how style imports are dropped after their text is aggregated.
func RewriteImports(code string, rewrite map[string]string) string {
	replace := func(match string) string {
		spec := extractSpec(match)
		target, ok := rewrite[spec]
		if !ok {
			return match
		}
		if target == "" {
			return ""
		}
		return strings.Replace(match, quote(spec), quote(target), 1)
	}
	code = importRe.ReplaceAllStringFunc(code, replace)
	code = exportFromRe.ReplaceAllStringFunc(code, replace)
	return code
}

func extractSpec(stmt string) string {
	for _, re := range []*regexp.Regexp{importRe, exportFromRe} {
		if m := re.FindStringSubmatch(stmt); m != nil {
			return m[1]
		}
	}
	return ""
}

// quote wraps a specifier in the quoting style esbuild emits.
func quote(s string) string { return `"` + s + `"` }
