// Package interaction turns pointer and keyboard events into document
// mutations. Machine is a finite state machine with a single mode field;
// the transient data of a gesture lives in fields that only that mode uses.
package interaction

import (
	"fmt"
	"unicode/utf8"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

type Mode int

const (
	Idle Mode = iota
	DraggingNode
	PanningCanvas
	ConnectingFrom
	EditingText
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case DraggingNode:
		return "dragging"
	case PanningCanvas:
		return "panning"
	case ConnectingFrom:
		return "connecting"
	case EditingText:
		return "editing"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// NewNodeText is the label of nodes created by double-clicking the canvas.
const NewNodeText = "New Node"

// Editor is the document owner the machine drives. Every method commits
// immediately; the methods that change document content also record a
// history snapshot.
type Editor interface {
	Document() mindmap.MindMap
	// ViewSize is the screen size of the canvas, used to clamp panning.
	ViewSize() (w, h float64)

	SetSelection(ids []string)
	ToggleSelection(id string)
	ClearSelection()
	SetPan(x, y float64)
	ZoomIn()
	ZoomOut()

	BeginEdit(id string)
	CommitEdit(id, text string)
	CreateNodeAt(p geometry.Point, text string) (string, bool)
	MoveNodes(moves []mindmap.Movement) error
	Connect(from, to string) bool
	DeleteSelection()
}

// Preview is the uncommitted state a renderer draws on top of the document.
type Preview struct {
	Mode Mode
	// Positions holds live world positions of nodes being dragged.
	Positions map[string]geometry.Point
	// Line runs from the connecting node's centre to the pointer, in world
	// space, while Connecting is set.
	Connecting bool
	LineFrom   geometry.Point
	LineTo     geometry.Point
	// EditingID, EditText and Cursor describe the text being typed.
	EditingID string
	EditText  string
	Cursor    int
	HoverID   string
}

type Machine struct {
	ed   Editor
	mode Mode

	spaceHeld bool
	hoverID   string

	// DraggingNode
	dragAnchor geometry.Point
	dragOrigin map[string]geometry.Point
	dragPos    map[string]geometry.Point

	// PanningCanvas
	panAnchor geometry.Point

	// ConnectingFrom
	connectFrom string
	pointer     geometry.Point

	// EditingText
	editID string
	text   []rune
	cursor int
}

func New(ed Editor) *Machine {
	return &Machine{ed: ed}
}

func (m *Machine) Mode() Mode { return m.mode }

// Subject is the node the current mode is about: the connection source or
// the node being edited.
func (m *Machine) Subject() string {
	switch m.mode {
	case ConnectingFrom:
		return m.connectFrom
	case EditingText:
		return m.editID
	}
	return ""
}

func (m *Machine) SpaceHeld() bool { return m.spaceHeld }

// Reset abandons any gesture without committing it.
func (m *Machine) Reset() {
	m.toIdle()
}

func (m *Machine) toIdle() {
	m.mode = Idle
	m.dragOrigin = nil
	m.dragPos = nil
	m.connectFrom = ""
	m.editID = ""
	m.text = nil
	m.cursor = 0
}

// Handle feeds one event through the machine.
func (m *Machine) Handle(ev Event) {
	switch ev.Kind {
	case PointerDown:
		m.pointerDown(ev)
	case PointerMove:
		m.pointerMove(ev)
	case PointerUp:
		m.pointerUp(ev)
	case DoubleClick:
		m.doubleClick(ev)
	case Wheel:
		if ev.DeltaY < 0 {
			m.ed.ZoomIn()
		} else {
			m.ed.ZoomOut()
		}
	case KeyDown:
		m.keyDown(ev)
	case KeyUp:
		if ev.Key == KeySpace {
			m.spaceHeld = false
		}
	}
}

func (m *Machine) toWorld(p geometry.Point) geometry.Point {
	return geometry.ScreenToWorld(p, m.ed.Document().Canvas.Viewport())
}

func (m *Machine) pointerDown(ev Event) {
	doc := m.ed.Document()
	world := m.toWorld(ev.Point)
	hit, onNode := doc.NodeAt(world)

	if m.mode == ConnectingFrom {
		if onNode && hit.ID != m.connectFrom {
			m.ed.Connect(m.connectFrom, hit.ID)
		}
		m.toIdle()
		return
	}

	if m.mode == EditingText {
		if onNode && hit.ID == m.editID {
			return
		}
		m.commitEdit()
		doc = m.ed.Document()
	}

	if ev.Button == ButtonMiddle || (m.spaceHeld && ev.Button == ButtonLeft) {
		m.startPan(ev.Point)
		return
	}
	if ev.Button != ButtonLeft {
		return
	}

	if h, ok := handleAt(ev.Point, doc, m.handleCandidates(doc)); ok {
		m.mode = ConnectingFrom
		m.connectFrom = h.NodeID
		m.pointer = world
		return
	}

	if onNode {
		if ev.Toggle {
			m.ed.ToggleSelection(hit.ID)
			if !m.ed.Document().Canvas.IsSelected(hit.ID) {
				return
			}
		} else if !doc.Canvas.IsSelected(hit.ID) {
			m.ed.SetSelection([]string{hit.ID})
		}
		m.startDrag(world)
		return
	}

	m.ed.ClearSelection()
	m.startPan(ev.Point)
}

// handleCandidates are the nodes showing connection handles: the
// selection plus the hovered node.
func (m *Machine) handleCandidates(doc mindmap.MindMap) []string {
	ids := append([]string(nil), doc.Canvas.SelectedNodes...)
	if m.hoverID != "" && !doc.Canvas.IsSelected(m.hoverID) {
		ids = append(ids, m.hoverID)
	}
	return ids
}

func (m *Machine) startDrag(anchor geometry.Point) {
	doc := m.ed.Document()
	m.dragOrigin = make(map[string]geometry.Point, len(doc.Canvas.SelectedNodes))
	m.dragPos = make(map[string]geometry.Point, len(doc.Canvas.SelectedNodes))
	for _, id := range doc.Canvas.SelectedNodes {
		n, ok := doc.Node(id)
		if !ok {
			continue
		}
		p := geometry.Point{X: n.X, Y: n.Y}
		m.dragOrigin[id] = p
		m.dragPos[id] = p
	}
	if len(m.dragOrigin) == 0 {
		m.toIdle()
		return
	}
	m.mode = DraggingNode
	m.dragAnchor = anchor
}

func (m *Machine) startPan(anchor geometry.Point) {
	m.mode = PanningCanvas
	m.panAnchor = anchor
}

func (m *Machine) pointerMove(ev Event) {
	switch m.mode {
	case DraggingNode:
		doc := m.ed.Document()
		delta := m.toWorld(ev.Point).Sub(m.dragAnchor)
		for id, origin := range m.dragOrigin {
			if !doc.HasNode(id) {
				delete(m.dragOrigin, id)
				delete(m.dragPos, id)
				continue
			}
			m.dragPos[id] = origin.Add(delta)
		}
		if len(m.dragOrigin) == 0 {
			m.toIdle()
		}

	case PanningCanvas:
		doc := m.ed.Document()
		delta := ev.Point.Sub(m.panAnchor)
		vp := doc.Canvas.Viewport()
		vp.PanX += delta.X
		vp.PanY += delta.Y
		w, h := m.ed.ViewSize()
		vp = geometry.ClampPan(vp, doc.Canvas.Bounds, w, h)
		m.ed.SetPan(vp.PanX, vp.PanY)
		m.panAnchor = ev.Point

	case ConnectingFrom:
		if !m.ed.Document().HasNode(m.connectFrom) {
			m.toIdle()
			return
		}
		m.pointer = m.toWorld(ev.Point)

	default:
		if n, ok := m.ed.Document().NodeAt(m.toWorld(ev.Point)); ok {
			m.hoverID = n.ID
		} else if _, onHandle := handleAt(ev.Point, m.ed.Document(), []string{m.hoverID}); !onHandle {
			m.hoverID = ""
		}
	}
}

func (m *Machine) pointerUp(ev Event) {
	switch m.mode {
	case DraggingNode:
		moves := make([]mindmap.Movement, 0, len(m.dragPos))
		changed := false
		doc := m.ed.Document()
		for _, n := range doc.Nodes {
			p, ok := m.dragPos[n.ID]
			if !ok {
				continue
			}
			if p != m.dragOrigin[n.ID] {
				changed = true
			}
			moves = append(moves, mindmap.Movement{NodeID: n.ID, ToX: p.X, ToY: p.Y})
		}
		m.toIdle()
		if changed {
			_ = m.ed.MoveNodes(moves)
		}
	case PanningCanvas:
		m.toIdle()
	}
}

func (m *Machine) doubleClick(ev Event) {
	if m.mode == ConnectingFrom {
		m.toIdle()
	}
	doc := m.ed.Document()
	world := m.toWorld(ev.Point)
	if n, ok := doc.NodeAt(world); ok {
		if m.mode == EditingText && m.editID == n.ID {
			return
		}
		if m.mode == EditingText {
			m.commitEdit()
		}
		m.toIdle()
		m.ed.BeginEdit(n.ID)
		m.enterEditing(n.ID, n.Text)
		return
	}

	if m.mode == EditingText {
		m.commitEdit()
	}
	m.toIdle()
	id, ok := m.ed.CreateNodeAt(world, NewNodeText)
	if !ok {
		return
	}
	m.enterEditing(id, NewNodeText)
}

// Edit puts id into text editing as if it had been double-clicked.
func (m *Machine) Edit(id string) {
	n, ok := m.ed.Document().Node(id)
	if !ok {
		return
	}
	if m.mode == EditingText {
		m.commitEdit()
	}
	m.toIdle()
	m.ed.BeginEdit(id)
	m.enterEditing(id, n.Text)
}

// StartConnecting enters ConnectingFrom(id) as if its handle had been pressed.
func (m *Machine) StartConnecting(id string) {
	if !m.ed.Document().HasNode(id) {
		return
	}
	if m.mode == EditingText {
		m.commitEdit()
	}
	m.toIdle()
	m.mode = ConnectingFrom
	m.connectFrom = id
	if n, ok := m.ed.Document().Node(id); ok {
		m.pointer = n.Center()
	}
}

func (m *Machine) enterEditing(id, text string) {
	m.mode = EditingText
	m.editID = id
	m.text = []rune(text)
	m.cursor = len(m.text)
}

func (m *Machine) commitEdit() {
	if m.mode != EditingText {
		return
	}
	id, text := m.editID, string(m.text)
	m.toIdle()
	m.ed.CommitEdit(id, text)
}

func (m *Machine) keyDown(ev Event) {
	if ev.Key == KeySpace && m.mode != EditingText {
		m.spaceHeld = true
		return
	}

	if m.mode == EditingText {
		m.editKey(ev.Key)
		return
	}

	switch ev.Key {
	case KeyEscape:
		if m.mode == ConnectingFrom {
			m.toIdle()
			return
		}
		m.ed.ClearSelection()
	case KeyDelete, KeyBackspace:
		if len(m.ed.Document().Canvas.SelectedNodes) > 0 {
			if m.mode == DraggingNode {
				m.toIdle()
			}
			m.ed.DeleteSelection()
		}
	}
}

func (m *Machine) editKey(key string) {
	if !m.ed.Document().HasNode(m.editID) {
		m.toIdle()
		return
	}
	switch key {
	case KeyEscape, KeyEnter:
		m.commitEdit()
	case KeyBackspace:
		if m.cursor > 0 {
			m.text = append(m.text[:m.cursor-1], m.text[m.cursor:]...)
			m.cursor--
		}
	case KeyDelete:
		if m.cursor < len(m.text) {
			m.text = append(m.text[:m.cursor], m.text[m.cursor+1:]...)
		}
	case KeyLeft:
		if m.cursor > 0 {
			m.cursor--
		}
	case KeyRight:
		if m.cursor < len(m.text) {
			m.cursor++
		}
	case KeyHome:
		m.cursor = 0
	case KeyEnd:
		m.cursor = len(m.text)
	case KeySpace:
		m.insert(' ')
	default:
		if utf8.RuneCountInString(key) == 1 {
			r, _ := utf8.DecodeRuneInString(key)
			m.insert(r)
		}
	}
}

func (m *Machine) insert(r rune) {
	m.text = append(m.text, 0)
	copy(m.text[m.cursor+1:], m.text[m.cursor:])
	m.text[m.cursor] = r
	m.cursor++
}

// InsertText types s at the cursor while editing. Used for paste.
func (m *Machine) InsertText(s string) {
	if m.mode != EditingText {
		return
	}
	for _, r := range s {
		m.insert(r)
	}
}

// Preview reports the uncommitted state for rendering.
func (m *Machine) Preview() Preview {
	p := Preview{Mode: m.mode, HoverID: m.hoverID}
	switch m.mode {
	case DraggingNode:
		p.Positions = make(map[string]geometry.Point, len(m.dragPos))
		for id, pos := range m.dragPos {
			p.Positions[id] = pos
		}
	case ConnectingFrom:
		if n, ok := m.ed.Document().Node(m.connectFrom); ok {
			p.Connecting = true
			p.LineFrom = n.Center()
			p.LineTo = m.pointer
		}
	case EditingText:
		p.EditingID = m.editID
		p.EditText = string(m.text)
		p.Cursor = m.cursor
	}
	return p
}

// Display returns doc with live drag positions and the text being typed
// applied, for rendering only.
func (m *Machine) Display(doc mindmap.MindMap) mindmap.MindMap {
	if m.mode != DraggingNode && m.mode != EditingText {
		return doc
	}
	out := mindmap.Clone(doc)
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if p, ok := m.dragPos[n.ID]; ok && m.mode == DraggingNode {
			n.X, n.Y = p.X, p.Y
		}
		if m.mode == EditingText && n.ID == m.editID {
			n.Text = string(m.text)
		}
	}
	return out
}
