package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/CageChen/reacthub/internal/project"
	"github.com/CageChen/reacthub/internal/store"
	"github.com/CageChen/reacthub/internal/vfs"
)

// TreeNode represents a file or directory in the project tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
	ModTime  *time.Time  `json:"modTime,omitempty"`
}

// TreeHandler handles project tree requests.
type TreeHandler struct {
	mgr *project.Manager
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(mgr *project.Manager) *TreeHandler {
	return &TreeHandler{mgr: mgr}
}

// GetTree returns the full directory tree of a project.
func (h *TreeHandler) GetTree(c *gin.Context) {
	p, err := h.mgr.Get(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProjectNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	root := &TreeNode{Name: "/", Type: "directory", Path: "/"}
	if err := h.buildTree(p.FS, root); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, root)
}

// buildTree recursively lists node's directory into its children.
func (h *TreeHandler) buildTree(fs *vfs.FS, node *TreeNode) error {
	children, err := fs.List(node.Path)
	if err != nil {
		return err
	}
	for _, child := range children {
		mod := child.UpdatedAt
		n := &TreeNode{
			Name:    baseName(child.Path),
			Path:    child.Path,
			ModTime: &mod,
		}
		if child.Kind == vfs.KindDir {
			n.Type = "directory"
			if err := h.buildTree(fs, n); err != nil {
				return err
			}
		} else {
			n.Type = "file"
		}
		node.Children = append(node.Children, n)
	}
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
