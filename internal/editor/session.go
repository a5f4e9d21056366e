// Package editor owns one open mind map: the committed document, its undo
// history and the interaction machine that edits it.
package editor

import (
	"mindcanvas/internal/geometry"
	"mindcanvas/internal/history"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
)

// Snapshot labels.
const (
	LabelCreate    = "create"
	LabelLoad      = "load"
	LabelMove      = "move"
	LabelEdit      = "edit"
	LabelDelete    = "delete"
	LabelConnect   = "connect"
	LabelDuplicate = "duplicate"
	LabelRestyle   = "restyle"
)

// Session is the single owner of an open document. It is not safe for
// concurrent use; the UI loop that owns it must serialise access.
type Session struct {
	doc     mindmap.MindMap
	engine  *mindmap.Engine
	history *history.Manager
	machine *interaction.Machine
	log     *logger.Logger

	viewW, viewH float64
	dirty        bool
}

type Option func(*Session)

func WithEngine(e *mindmap.Engine) Option { return func(s *Session) { s.engine = e } }

func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.history = history.New(n) }
}

func WithViewSize(w, h float64) Option {
	return func(s *Session) { s.viewW, s.viewH = w, h }
}

// Open starts a session on doc. label seeds the history, normally
// LabelCreate for a new map and LabelLoad for a fetched one.
func Open(doc mindmap.MindMap, label string, opts ...Option) *Session {
	s := &Session{
		engine:  mindmap.NewEngine(),
		history: history.New(history.DefaultLimit),
		log:     logger.New("editor"),
		viewW:   800,
		viewH:   600,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = mindmap.Clone(doc)
	s.history.Reset(s.doc, label)
	s.machine = interaction.New(s)
	return s
}

func (s *Session) Document() mindmap.MindMap { return s.doc }

// Display is the document as it should be drawn, with live previews applied.
func (s *Session) Display() mindmap.MindMap { return s.machine.Display(s.doc) }

func (s *Session) Machine() *interaction.Machine { return s.machine }

func (s *Session) Engine() *mindmap.Engine { return s.engine }

func (s *Session) History() *history.Manager { return s.history }

// Handle forwards an input event to the interaction machine.
func (s *Session) Handle(ev interaction.Event) { s.machine.Handle(ev) }

func (s *Session) ViewSize() (float64, float64) { return s.viewW, s.viewH }

func (s *Session) SetViewSize(w, h float64) { s.viewW, s.viewH = w, h }

// Dirty reports unsaved content changes.
func (s *Session) Dirty() bool { return s.dirty }

// commit replaces the document; a non-empty label records a snapshot and
// marks the session dirty.
func (s *Session) commit(next mindmap.MindMap, label string) {
	s.doc = next
	if label == "" {
		return
	}
	s.history.Save(s.doc, label)
	s.dirty = true
	s.log.Debug("committed", map[string]interface{}{"action": label, "nodes": len(s.doc.Nodes)})
}

// Adopt replaces the document with the server's copy after a save. The
// local selection, editing slot and viewport are kept since the server
// copy reflects the same content.
func (s *Session) Adopt(saved mindmap.MindMap) {
	canvas := s.doc.Canvas
	next := mindmap.Sanitize(saved)
	next.Canvas.Zoom, next.Canvas.PanX, next.Canvas.PanY = canvas.Zoom, canvas.PanX, canvas.PanY
	s.doc = next
	s.doc = s.engine.UpdateCanvas(s.doc,
		mindmap.SetSelection{IDs: canvas.SelectedNodes},
		mindmap.SetEditing{ID: canvas.EditingNode},
	)
	s.dirty = false
}

// MarkSaved clears the dirty flag without touching the document.
func (s *Session) MarkSaved() { s.dirty = false }

// Undo restores the previous snapshot and clears selection and editing.
func (s *Session) Undo() bool {
	doc, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(doc)
	return true
}

// Redo re-applies the next snapshot and clears selection and editing.
func (s *Session) Redo() bool {
	doc, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(doc)
	return true
}

func (s *Session) restore(doc mindmap.MindMap) {
	s.machine.Reset()
	s.doc = s.engine.UpdateCanvas(doc, mindmap.SetSelection{}, mindmap.SetEditing{})
	s.dirty = true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// interaction.Editor

func (s *Session) SetSelection(ids []string) {
	s.commit(s.engine.UpdateCanvas(s.doc, mindmap.SetSelection{IDs: ids}), "")
}

func (s *Session) ToggleSelection(id string) {
	s.commit(s.engine.ToggleSelection(s.doc, id), "")
}

func (s *Session) ClearSelection() {
	s.commit(s.engine.ClearSelection(s.doc), "")
}

func (s *Session) SetPan(x, y float64) {
	s.commit(s.engine.PanTo(s.doc, x, y), "")
}

func (s *Session) ZoomIn() { s.commit(s.engine.ZoomIn(s.doc), "") }

func (s *Session) ZoomOut() { s.commit(s.engine.ZoomOut(s.doc), "") }

func (s *Session) BeginEdit(id string) {
	if !s.doc.HasNode(id) {
		return
	}
	s.commit(s.engine.UpdateCanvas(s.doc,
		mindmap.SetSelection{IDs: []string{id}},
		mindmap.SetEditing{ID: id},
	), "")
}

// CommitEdit stores the typed text and leaves edit mode. Unchanged text
// records no snapshot.
func (s *Session) CommitEdit(id, text string) {
	n, ok := s.doc.Node(id)
	if !ok {
		s.commit(s.engine.UpdateCanvas(s.doc, mindmap.SetEditing{}), "")
		return
	}
	next := s.engine.UpdateCanvas(s.doc, mindmap.SetEditing{})
	if n.Text == text {
		s.commit(next, "")
		return
	}
	s.commit(s.engine.UpdateNode(next, id, mindmap.Retext{Text: text}), LabelEdit)
}

func (s *Session) CreateNodeAt(p geometry.Point, text string) (string, bool) {
	next, n := s.engine.CreateNode(s.doc, "", p, text)
	if n.ID == "" {
		return "", false
	}
	s.commit(next, LabelCreate)
	return n.ID, true
}

func (s *Session) MoveNodes(moves []mindmap.Movement) error {
	next, err := s.engine.MoveNodes(s.doc, moves)
	if err != nil {
		s.log.Warn("move rejected", map[string]interface{}{"error": err})
		return err
	}
	s.commit(next, LabelMove)
	return nil
}

func (s *Session) Connect(from, to string) bool {
	next, _, ok := s.engine.CreateConnection(s.doc, from, to)
	if !ok {
		return false
	}
	s.commit(next, LabelConnect)
	return true
}

func (s *Session) DeleteSelection() {
	sel := s.doc.Canvas.SelectedNodes
	if len(sel) == 0 {
		return
	}
	s.commit(s.engine.DeleteNodes(s.doc, sel), LabelDelete)
}

// Toolbar and keyboard commands.

// AddNodeAtCenter creates a parentless node in the middle of the view and
// starts editing it.
func (s *Session) AddNodeAtCenter(text string) string {
	p := mindmap.ViewportCenter(s.doc, s.viewW, s.viewH)
	p.X -= mindmap.DefaultNodeWidth / 2
	p.Y -= mindmap.DefaultNodeHeight / 2
	id, ok := s.CreateNodeAt(p, text)
	if ok {
		s.machine.Edit(id)
	}
	return id
}

// AddChild creates a child of the single selected node and starts editing it.
func (s *Session) AddChild(text string) string {
	sel := s.doc.Canvas.SelectedNodes
	if len(sel) != 1 {
		return ""
	}
	next, n := s.engine.AddChild(s.doc, sel[0], text)
	if n.ID == "" {
		return ""
	}
	if linked, _, ok := s.engine.CreateConnection(next, sel[0], n.ID); ok {
		next = linked
	}
	s.commit(next, LabelCreate)
	s.machine.Edit(n.ID)
	return n.ID
}

// DuplicateSelection copies the single selected node.
func (s *Session) DuplicateSelection() string {
	sel := s.doc.Canvas.SelectedNodes
	if len(sel) != 1 {
		return ""
	}
	next, n := s.engine.DuplicateNode(s.doc, sel[0])
	if n.ID == "" {
		return ""
	}
	s.commit(next, LabelDuplicate)
	return n.ID
}

// CycleType moves every selected node to the next node type and applies
// that type's style.
func (s *Session) CycleType() {
	sel := s.doc.Canvas.SelectedNodes
	if len(sel) == 0 {
		return
	}
	next := s.doc
	for _, id := range sel {
		n, ok := next.Node(id)
		if !ok {
			continue
		}
		next = s.engine.UpdateNode(next, id, mindmap.Retype{Type: nextType(n.Type), ApplyStyle: true})
	}
	s.commit(next, LabelRestyle)
}

func nextType(t mindmap.NodeType) mindmap.NodeType {
	for i, v := range mindmap.NodeTypes {
		if v == t {
			return mindmap.NodeTypes[(i+1)%len(mindmap.NodeTypes)]
		}
	}
	return mindmap.NodeBranch
}

// CycleShape rotates the shape of the selected nodes.
func (s *Session) CycleShape() {
	shapes := []mindmap.Shape{mindmap.ShapeRectangle, mindmap.ShapeCircle, mindmap.ShapeDiamond, mindmap.ShapeHexagon}
	next := s.doc
	changed := false
	for _, id := range s.doc.Canvas.SelectedNodes {
		n, ok := next.Node(id)
		if !ok {
			continue
		}
		idx := 0
		for i, sh := range shapes {
			if sh == n.Style.Shape {
				idx = i
			}
		}
		next = s.engine.UpdateNode(next, id, mindmap.Reshape{Shape: shapes[(idx+1)%len(shapes)]})
		changed = true
	}
	if changed {
		s.commit(next, LabelRestyle)
	}
}

// DeleteConnectionsOfSelection removes every connection touching a
// selected node.
func (s *Session) DeleteConnectionsOfSelection() int {
	next := s.doc
	removed := 0
	for _, c := range s.doc.Connections {
		for _, id := range s.doc.Canvas.SelectedNodes {
			if c.Touches(id) {
				next = s.engine.DeleteConnection(next, c.ID)
				removed++
				break
			}
		}
	}
	if removed > 0 {
		s.commit(next, LabelConnect)
	}
	return removed
}

// MoveSelectionBy nudges the selection by (dx, dy) world units.
func (s *Session) MoveSelectionBy(dx, dy float64) {
	var moves []mindmap.Movement
	for _, id := range s.doc.Canvas.SelectedNodes {
		if n, ok := s.doc.Node(id); ok {
			moves = append(moves, mindmap.Movement{NodeID: id, ToX: n.X + dx, ToY: n.Y + dy})
		}
	}
	if len(moves) > 0 {
		_ = s.MoveNodes(moves)
	}
}

// PanBy shifts the view by (dx, dy) screen units, clamped to the bounds.
func (s *Session) PanBy(dx, dy float64) {
	vp := s.doc.Canvas.Viewport()
	vp.PanX += dx
	vp.PanY += dy
	vp = geometry.ClampPan(vp, s.doc.Canvas.Bounds, s.viewW, s.viewH)
	s.SetPan(vp.PanX, vp.PanY)
}

// SetBounds changes the virtual canvas extent panning is clamped to.
func (s *Session) SetBounds(b geometry.Bounds) {
	s.commit(s.engine.UpdateCanvas(s.doc, mindmap.SetBounds{Bounds: b}), "")
}

func (s *Session) ZoomToFit() {
	s.commit(s.engine.ZoomToFit(s.doc, s.viewW, s.viewH), "")
}

func (s *Session) ResetZoom() { s.commit(s.engine.ResetZoom(s.doc), "") }

func (s *Session) CenterCanvas() { s.commit(s.engine.CenterCanvas(s.doc), "") }

func (s *Session) SelectAll() { s.commit(s.engine.SelectAll(s.doc), "") }

// ToggleGrid flips grid visibility and snapping together.
func (s *Session) ToggleGrid() {
	c := s.doc.Canvas
	s.commit(s.engine.UpdateCanvas(s.doc, mindmap.SetGrid{Size: c.GridSize, Show: !c.ShowGrid, Snap: !c.ShowGrid}), "")
}

// Retitle changes the map title.
func (s *Session) Retitle(title string) {
	next := mindmap.Clone(s.doc)
	next.Title = title
	s.commit(next, LabelEdit)
}
