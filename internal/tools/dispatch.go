package tools

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tool names in the agent protocol.
const (
	ToolStrReplaceEditor = "str_replace_editor"
	ToolFileManager      = "file_manager"
)

// Call is one decoded tool invocation. Field names follow the agent's
// wire format.
type Call struct {
	Tool       string `json:"tool"`
	Command    string `json:"command"`
	Path       string `json:"path,omitempty"`
	FileText   string `json:"file_text,omitempty"`
	OldStr     string `json:"old_str,omitempty"`
	NewStr     string `json:"new_str,omitempty"`
	InsertLine int    `json:"insert_line,omitempty"`
	ViewRange  []int  `json:"view_range,omitempty"`
	OldPath    string `json:"old_path,omitempty"`
	NewPath    string `json:"new_path,omitempty"`
}

// Result is what goes back to the agent. A failed call is a normal
// result with OK false, never a transport error, so the agent can retry
// with corrected arguments.
type Result struct {
	OK      bool   `json:"ok"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Mutated bool   `json:"-"`
}

// Dispatcher routes tool calls to an editor and file manager pair.
type Dispatcher struct {
	Editor  *Editor
	Manager *FileManager
}

// NewDispatcher returns a dispatcher over the given editor and manager.
func NewDispatcher(editor *Editor, manager *FileManager) *Dispatcher {
	return &Dispatcher{Editor: editor, Manager: manager}
}

// Execute runs one tool call. Result.Mutated reports whether the file
// system changed, which is what decides if a preview rebuild is due.
func (d *Dispatcher) Execute(call Call) Result {
	switch call.Tool {
	case ToolStrReplaceEditor:
		return d.editorCommand(call)
	case ToolFileManager:
		return d.managerCommand(call)
	default:
		return failure(errors.Errorf("unknown tool %q", call.Tool))
	}
}

func (d *Dispatcher) editorCommand(call Call) Result {
	switch call.Command {
	case "view":
		out, err := d.Editor.View(call.Path, call.ViewRange)
		if err != nil {
			return failure(err)
		}
		return Result{OK: true, Output: out}

	case "create":
		if err := d.Editor.Create(call.Path, call.FileText); err != nil {
			return failure(err)
		}
		return mutated("created " + call.Path)

	case "str_replace":
		if err := d.Editor.StrReplace(call.Path, call.OldStr, call.NewStr); err != nil {
			return failure(err)
		}
		return mutated("edited " + call.Path)

	case "insert":
		if err := d.Editor.Insert(call.Path, call.InsertLine, call.FileText); err != nil {
			return failure(err)
		}
		return mutated("inserted into " + call.Path)

	case "undo_edit":
		path, err := d.Editor.UndoEdit()
		if err != nil {
			return failure(err)
		}
		return mutated("reverted " + path)

	default:
		return failure(errors.Errorf("unknown %s command %q", ToolStrReplaceEditor, call.Command))
	}
}

func (d *Dispatcher) managerCommand(call Call) Result {
	switch call.Command {
	case "rename_file":
		if err := d.Manager.Rename(call.OldPath, call.NewPath); err != nil {
			return failure(err)
		}
		return mutated(fmt.Sprintf("renamed %s to %s", call.OldPath, call.NewPath))

	case "delete_file":
		if err := d.Manager.Delete(call.Path); err != nil {
			return failure(err)
		}
		return mutated("deleted " + call.Path)

	default:
		return failure(errors.Errorf("unknown %s command %q", ToolFileManager, call.Command))
	}
}

func mutated(output string) Result {
	return Result{OK: true, Output: output, Mutated: true}
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}
