package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/reacthub/internal/assemble"
	"github.com/CageChen/reacthub/internal/project"
)

// SandboxPayload is the exact hand-off to the execution sandbox: the
// module registry, the entry module, the aggregated stylesheet, and any
// non-fatal diagnostics. The sandbox never sees the file system itself.
type SandboxPayload struct {
	Entry           string                            `json:"entry"`
	EntryURL        string                            `json:"entryUrl"`
	Registry        map[string]assemble.RegistryEntry `json:"registry"`
	AggregatedStyle string                            `json:"aggregatedStyle"`
	Diagnostics     []assemble.Diagnostic             `json:"diagnostics"`
}

func sandboxPayload(res *assemble.BuildResult) *SandboxPayload {
	if res == nil {
		return nil
	}
	diagnostics := res.Diagnostics
	if diagnostics == nil {
		diagnostics = []assemble.Diagnostic{}
	}
	return &SandboxPayload{
		Entry:           res.Entry,
		EntryURL:        res.EntryURL,
		Registry:        res.Registry,
		AggregatedStyle: res.AggregatedStyle(),
		Diagnostics:     diagnostics,
	}
}

// PreviewHandler serves the current preview state and the module blobs
// behind it.
type PreviewHandler struct {
	mgr *project.Manager
}

// NewPreviewHandler creates a preview handler.
func NewPreviewHandler(mgr *project.Manager) *PreviewHandler {
	return &PreviewHandler{mgr: mgr}
}

// GetPreview returns the current sandbox payload, or the build error
// state when the last build failed.
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	result, buildErr := p.Previewer.Current()
	if buildErr != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"path":    buildErr.Path,
			"message": buildErr.Err.Error(),
		})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "building"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"payload": sandboxPayload(result),
	})
}

// GetBlob serves one module's executable code.
func (h *PreviewHandler) GetBlob(c *gin.Context) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	ref := strings.TrimSuffix(c.Param("ref"), ".mjs")
	code, ok := p.Blob(ref)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or superseded module"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", []byte(code))
}

// sandboxPage is the minimal host document for the execution sandbox: it
// injects the aggregated stylesheet, imports the entry module, and
// mounts its default export with the pinned React instance. Build
// errors replace the preview with an error panel naming the file.
var sandboxPage = template.Must(template.New("sandbox").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>preview</title>
<style id="preview-style">{{.Style}}</style>
</head>
<body>
<div id="root"></div>
{{if .Error}}
<pre style="color:#c00;padding:16px;font-family:monospace">{{.Error}}</pre>
{{else}}
<script type="module">
import React from "{{.ReactURL}}";
import { createRoot } from "{{.ReactDOMURL}}/client";
import App from "{{.EntryURL}}";
createRoot(document.getElementById("root")).render(React.createElement(App));
</script>
{{end}}
</body>
</html>
`))

// GetSandbox serves the sandbox host page for a project.
func (h *PreviewHandler) GetSandbox(c *gin.Context) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "project not found")
		return
	}

	result, buildErr := p.Previewer.Current()
	data := struct {
		Style       string
		Error       string
		EntryURL    string
		ReactURL    template.URL
		ReactDOMURL template.URL
	}{}
	switch {
	case buildErr != nil:
		data.Error = fmt.Sprintf("%s: %v", buildErr.Path, buildErr.Err)
	case result == nil:
		data.Error = "preview is still building"
	default:
		data.Style = result.AggregatedStyle()
		data.EntryURL = result.EntryURL
		data.ReactURL = template.URL(h.mgr.ReactURL())
		data.ReactDOMURL = template.URL(h.mgr.ReactDOMURL())
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := sandboxPage.Execute(c.Writer, data); err != nil {
		_ = c.Error(err)
	}
}
