package session

import (
	"context"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/scene"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

// CommandOp names a session command.
type CommandOp string

// Session commands.
const (
	CmdAddNode        CommandOp = "add_node"
	CmdRemoveNode     CommandOp = "remove_node"
	CmdUpdateNode     CommandOp = "update_node"
	CmdMoveNode       CommandOp = "move_node"
	CmdDuplicate      CommandOp = "duplicate"
	CmdAddEdge        CommandOp = "add_edge"
	CmdRemoveEdge     CommandOp = "remove_edge"
	CmdUpdateEdge     CommandOp = "update_edge"
	CmdUndo           CommandOp = "undo"
	CmdRedo           CommandOp = "redo"
	CmdViewport       CommandOp = "viewport"
	CmdSelectNode     CommandOp = "select_node"
	CmdSelectEdge     CommandOp = "select_edge"
	CmdDeselect       CommandOp = "deselect"
	CmdOrganize       CommandOp = "organize"
	CmdOrganizeNow    CommandOp = "organize_now"
	CmdCancelOrganize CommandOp = "cancel_organize"
	CmdResolve        CommandOp = "resolve"
	CmdGrid           CommandOp = "grid"
	CmdCenter         CommandOp = "center"
	CmdFit            CommandOp = "fit"
	CmdToggleMode     CommandOp = "toggle_mode"
	CmdResize         CommandOp = "resize"
	CmdHover          CommandOp = "hover"
	CmdClick          CommandOp = "click"
	CmdSave           CommandOp = "save"
)

// Command is one UI action. Only the fields the op needs are read.
type Command struct {
	Op        CommandOp        `json:"op"`
	ID        string           `json:"id,omitempty"`
	IDs       []string         `json:"ids,omitempty"`
	Node      *graph.Node      `json:"node,omitempty"`
	Edge      *graph.Edge      `json:"edge,omitempty"`
	NodePatch *store.NodePatch `json:"node_patch,omitempty"`
	EdgePatch *store.EdgePatch `json:"edge_patch,omitempty"`
	X         float64          `json:"x,omitempty"`
	Y         float64          `json:"y,omitempty"`
	Zoom      float64          `json:"zoom,omitempty"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
	Additive  bool             `json:"additive,omitempty"`
}

// Result reports the outcome of a command.
type Result struct {
	// Changed is false when the command was a no-op, such as removing an
	// unknown id or undoing with an empty history.
	Changed bool `json:"changed"`

	// ID is the id assigned by add commands.
	ID string `json:"id,omitempty"`

	// IDs are the copies created by duplicate.
	IDs []string `json:"ids,omitempty"`

	// Hit is the object under the pointer for hover and click.
	Hit *scene.Hit `json:"hit,omitempty"`

	// Mode is the camera mode after toggle_mode.
	Mode string `json:"mode,omitempty"`
}

// Apply runs cmd against the session. Commands that reference unknown ids
// return a zero Result rather than an error; malformed commands and
// rejected inserts return INVALID_INPUT or VALIDATION_FAILED errors.
func (s *Session) Apply(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Op == CmdSave {
		if err := s.Save(ctx); err != nil {
			return Result{}, err
		}
		return Result{Changed: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrClosed
	}

	st := s.store
	switch cmd.Op {
	case CmdAddNode:
		if cmd.Node == nil {
			return Result{}, missing(cmd.Op, "node")
		}
		id, err := st.AddNode(*cmd.Node)
		if err != nil {
			return Result{}, err
		}
		return Result{Changed: true, ID: id}, nil
	case CmdRemoveNode:
		return Result{Changed: st.RemoveNode(cmd.ID)}, nil
	case CmdUpdateNode:
		if cmd.NodePatch == nil {
			return Result{}, missing(cmd.Op, "node_patch")
		}
		return Result{Changed: st.UpdateNode(cmd.ID, *cmd.NodePatch)}, nil
	case CmdMoveNode:
		return Result{Changed: st.MoveNode(cmd.ID, cmd.X, cmd.Y)}, nil
	case CmdDuplicate:
		ids := cmd.IDs
		if len(ids) == 0 {
			for _, n := range st.SelectedNodes() {
				ids = append(ids, n.ID)
			}
		}
		copies := st.DuplicateNodes(ids, cmd.X, cmd.Y)
		return Result{Changed: len(copies) > 0, IDs: copies}, nil
	case CmdAddEdge:
		if cmd.Edge == nil {
			return Result{}, missing(cmd.Op, "edge")
		}
		id, err := st.AddEdge(*cmd.Edge)
		if err != nil {
			return Result{}, err
		}
		return Result{Changed: true, ID: id}, nil
	case CmdRemoveEdge:
		return Result{Changed: st.RemoveEdge(cmd.ID)}, nil
	case CmdUpdateEdge:
		if cmd.EdgePatch == nil {
			return Result{}, missing(cmd.Op, "edge_patch")
		}
		return Result{Changed: st.UpdateEdge(cmd.ID, *cmd.EdgePatch)}, nil
	case CmdUndo:
		return Result{Changed: st.Undo()}, nil
	case CmdRedo:
		return Result{Changed: st.Redo()}, nil
	case CmdViewport:
		st.SetViewport(cmd.X, cmd.Y, cmd.Zoom)
		return Result{Changed: true}, nil
	case CmdSelectNode:
		return Result{Changed: st.SelectNode(cmd.ID, cmd.Additive)}, nil
	case CmdSelectEdge:
		return Result{Changed: st.SelectEdge(cmd.ID, cmd.Additive)}, nil
	case CmdDeselect:
		st.DeselectAll()
		return Result{Changed: true}, nil
	case CmdOrganize:
		return Result{Changed: s.startOrganize()}, nil
	case CmdOrganizeNow:
		s.cancelOrganize()
		return Result{Changed: st.AutoOrganize(s.layoutCfg)}, nil
	case CmdCancelOrganize:
		running := s.organize != nil
		s.cancelOrganize()
		if running {
			if err := s.renderer.RenderGraph(st.Snapshot()); err != nil {
				return Result{}, err
			}
		}
		return Result{Changed: running}, nil
	case CmdResolve:
		return Result{Changed: st.ResolveOverlaps(s.layoutCfg)}, nil
	case CmdGrid:
		return Result{Changed: st.ArrangeGrid(s.layoutCfg)}, nil
	case CmdCenter:
		st.CenterView()
		return Result{Changed: true}, nil
	case CmdFit:
		st.FitToView()
		return Result{Changed: true}, nil
	case CmdToggleMode:
		m := s.renderer.ToggleMode()
		return Result{Changed: true, Mode: m.String()}, nil
	case CmdResize:
		if cmd.Width <= 0 || cmd.Height <= 0 {
			return Result{}, errs.New(errs.ErrCodeInvalidInput, "resize needs a positive width and height")
		}
		s.renderer.Resize(cmd.Width, cmd.Height)
		return Result{Changed: true}, nil
	case CmdHover:
		h, ok := s.renderer.Hover(cmd.X, cmd.Y)
		return hitResult(h, ok), nil
	case CmdClick:
		h, ok := s.renderer.Click(cmd.X, cmd.Y)
		if !ok {
			st.DeselectAll()
		}
		return hitResult(h, ok), nil
	}
	return Result{}, errs.New(errs.ErrCodeInvalidInput, "unknown command %q", cmd.Op)
}

func hitResult(h scene.Hit, ok bool) Result {
	if !ok {
		return Result{}
	}
	return Result{Changed: true, Hit: &h}
}

func missing(op CommandOp, field string) error {
	return errs.New(errs.ErrCodeInvalidInput, "%s: missing %s", op, field)
}
