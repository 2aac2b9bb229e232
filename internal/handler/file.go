package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/project"
	"github.com/CageChen/reacthub/internal/render"
	"github.com/CageChen/reacthub/internal/store"
	"github.com/CageChen/reacthub/internal/vfs"
)

// FileResponse represents the response for a rendered file request.
type FileResponse struct {
	Path  string           `json:"path"`
	HTML  string           `json:"html"`
	Title string           `json:"title,omitempty"`
	TOC   []render.TOCItem `json:"toc,omitempty"`
}

// FileHandler serves read-only views of project files.
type FileHandler struct {
	mgr      *project.Manager
	renderer *render.Renderer
}

// NewFileHandler creates a new file handler.
func NewFileHandler(mgr *project.Manager) *FileHandler {
	return &FileHandler{
		mgr:      mgr,
		renderer: render.New(),
	}
}

func (h *FileHandler) file(c *gin.Context) (string, string, bool) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return "", "", false
	}

	path := c.Param("path")
	content, err := p.FS.Read(path)
	if err != nil {
		switch {
		case errors.Is(err, vfs.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, vfs.ErrPathIsDirectory):
			c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return "", "", false
	}
	return path, content, true
}

// GetFile returns a rendered HTML view of a file: markdown files are
// rendered as documents, everything else is syntax-highlighted source.
func (h *FileHandler) GetFile(c *gin.Context) {
	path, content, ok := h.file(c)
	if !ok {
		return
	}

	ext := strings.ToLower(vfs.Ext(path))
	if ext == ".md" || ext == ".markdown" {
		result, err := h.renderer.Markdown([]byte(content))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render markdown: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, FileResponse{
			Path:  path,
			HTML:  result.HTML,
			Title: result.Title,
			TOC:   result.TOC,
		})
		return
	}

	html, err := h.renderer.Source(path, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to highlight source: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, FileResponse{Path: path, HTML: html})
}

// GetRaw returns the raw file content.
func (h *FileHandler) GetRaw(c *gin.Context) {
	_, content, ok := h.file(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}
