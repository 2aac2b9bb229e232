// Package handler provides the HTTP handlers for the REST API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/project"
	"github.com/CageChen/reacthub/internal/store"
	"github.com/CageChen/reacthub/internal/tools"
)

// ProjectHandler handles project lifecycle requests.
type ProjectHandler struct {
	mgr *project.Manager
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(mgr *project.Manager) *ProjectHandler {
	return &ProjectHandler{mgr: mgr}
}

// ListProjects returns every stored project header.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.mgr.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if projects == nil {
		projects = []store.ProjectMeta{}
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject creates a project seeded from the starter template.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	p, err := h.mgr.Create(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p.Meta)
}

// GetProject returns one project's header.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p.Meta)
}

// DeleteProject removes a project and its stored files.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.mgr.Delete(c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ExecuteTool runs one agent tool call against a project's file system.
// Tool failures are 200s with ok=false: they are results for the agent,
// not transport errors.
func (h *ProjectHandler) ExecuteTool(c *gin.Context) {
	var call tools.Call
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed tool call"})
		return
	}
	call.Tool = c.Param("tool")

	res, err := h.mgr.ExecuteTool(c.Param("id"), call)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
