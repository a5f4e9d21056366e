package mindmap

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"mindcanvas/internal/geometry"
)

// ErrBadMovement is returned for a movement that names no node.
var ErrBadMovement = errors.New("mindmap: movement without node id")

// Engine applies mutations to documents. The clock and id source are
// injectable so tests get stable output.
type Engine struct {
	Now   func() time.Time
	NewID func(prefix string) string
}

// NewEngine returns an engine using wall-clock time and random UUIDs.
func NewEngine() *Engine {
	return &Engine{Now: time.Now, NewID: NewID}
}

// NewID returns a prefixed random identifier such as "node_6f1c...".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) id(prefix string) string {
	if e.NewID == nil {
		return NewID(prefix)
	}
	return e.NewID(prefix)
}

// NewDocument returns an empty map with default canvas state and version 1.
func (e *Engine) NewDocument(id, title string) MindMap {
	now := e.now()
	return MindMap{
		ID:            id,
		Title:         title,
		Nodes:         []Node{},
		Connections:   []Connection{},
		Canvas:        DefaultCanvasState(),
		Version:       1,
		Tags:          []string{},
		Collaborators: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SeedRoot adds the root node a freshly created map starts with: 200x60 at
// (400,300), labelled with the title. The root is left unselected.
func (e *Engine) SeedRoot(m MindMap, text string) (MindMap, Node) {
	now := e.now()
	root := Node{
		ID:        e.id("node"),
		Text:      text,
		X:         400,
		Y:         300,
		Width:     RootNodeWidth,
		Height:    RootNodeHeight,
		Children:  []string{},
		Type:      NodeRoot,
		Style:     StyleFor(NodeRoot),
		Metadata:  map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	out := Clone(m)
	out.Nodes = append(out.Nodes, root)
	return out, root
}

// CreateNode adds a node at pos. Without a parent it is a root at level 0,
// or a level-0 branch when the map already has a root. With a parent it is a
// branch one level deeper and is appended to the parent's children. If
// parentID names a missing node the call is a no-op. The new node becomes
// the only selected node and enters text editing.
func (e *Engine) CreateNode(m MindMap, parentID string, pos geometry.Point, text string) (MindMap, Node) {
	out := Clone(m)
	now := e.now()
	n := Node{
		ID:        e.id("node"),
		Text:      text,
		X:         pos.X,
		Y:         pos.Y,
		Width:     DefaultNodeWidth,
		Height:    DefaultNodeHeight,
		Children:  []string{},
		Metadata:  map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if parentID == "" {
		n.Type = NodeRoot
		if out.HasRoot() {
			n.Type = NodeBranch
		}
	} else {
		pi := out.NodeIndex(parentID)
		if pi < 0 {
			return m, Node{}
		}
		parent := &out.Nodes[pi]
		n.ParentID = parentID
		n.Level = parent.Level + 1
		n.Type = NodeBranch
		parent.Children = append(parent.Children, n.ID)
		parent.UpdatedAt = now
	}
	n.Style = StyleFor(n.Type)

	out.Nodes = append(out.Nodes, n)
	out.Canvas.SelectedNodes = []string{n.ID}
	out.Canvas.EditingNode = n.ID
	out.UpdatedAt = now
	return out, n
}

// AddChild creates a child of parentID placed to its right, offset
// vertically by the number of existing children.
func (e *Engine) AddChild(m MindMap, parentID, text string) (MindMap, Node) {
	parent, ok := m.Node(parentID)
	if !ok {
		return m, Node{}
	}
	pos := geometry.Point{
		X: parent.X + parent.Width + 80,
		Y: parent.Y + float64(len(parent.Children))*(DefaultNodeHeight+20),
	}
	return e.CreateNode(m, parentID, pos, text)
}

// UpdateNode applies muts in order to the node with id.
func (e *Engine) UpdateNode(m MindMap, id string, muts ...NodeMutation) MindMap {
	i := m.NodeIndex(id)
	if i < 0 || len(muts) == 0 {
		return m
	}
	out := Clone(m)
	n := &out.Nodes[i]
	for _, mu := range muts {
		if mu != nil {
			mu.applyNode(n)
		}
	}
	now := e.now()
	n.UpdatedAt = now
	out.UpdatedAt = now
	return out
}

// Movement places one node at an absolute world position.
type Movement struct {
	NodeID string
	ToX    float64
	ToY    float64
}

// MoveNodes applies absolute positions. Descendants stay where they are.
// Movements naming unknown nodes are skipped. When the canvas snaps to
// grid, positions are rounded to the grid.
func (e *Engine) MoveNodes(m MindMap, moves []Movement) (MindMap, error) {
	for _, mv := range moves {
		if mv.NodeID == "" {
			return m, ErrBadMovement
		}
		if math.IsNaN(mv.ToX) || math.IsNaN(mv.ToY) {
			return m, fmt.Errorf("%w: NaN position for %s", ErrBadMovement, mv.NodeID)
		}
	}
	out := Clone(m)
	now := e.now()
	moved := false
	for _, mv := range moves {
		i := out.NodeIndex(mv.NodeID)
		if i < 0 {
			continue
		}
		x, y := mv.ToX, mv.ToY
		if out.Canvas.SnapToGrid && out.Canvas.GridSize > 0 {
			g := float64(out.Canvas.GridSize)
			x = math.Round(x/g) * g
			y = math.Round(y/g) * g
		}
		out.Nodes[i].X, out.Nodes[i].Y = x, y
		out.Nodes[i].UpdatedAt = now
		moved = true
	}
	if !moved {
		return m, nil
	}
	out.UpdatedAt = now
	return out, nil
}

// Descendants returns ids and every node reachable from them through
// children, in discovery order. Unknown ids are still included.
func Descendants(m MindMap, ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var order []string
	queue := append([]string(nil), ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		if n, ok := m.Node(id); ok {
			queue = append(queue, n.Children...)
		}
	}
	return order
}

// DeleteNodes removes ids and their whole subtrees, every connection
// touching a removed node, and every reference to a removed node in
// children lists, the selection and the editing slot.
func (e *Engine) DeleteNodes(m MindMap, ids []string) MindMap {
	removed := make(map[string]bool)
	for _, id := range Descendants(m, ids) {
		if m.HasNode(id) {
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return m
	}

	now := e.now()
	out := Clone(m)
	nodes := out.Nodes[:0]
	for _, n := range out.Nodes {
		if removed[n.ID] {
			continue
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if !removed[c] {
				kept = append(kept, c)
			}
		}
		if len(kept) != len(n.Children) {
			n.UpdatedAt = now
		}
		n.Children = kept
		nodes = append(nodes, n)
	}
	out.Nodes = nodes

	conns := out.Connections[:0]
	for _, c := range out.Connections {
		if removed[c.FromNodeID] || removed[c.ToNodeID] {
			continue
		}
		conns = append(conns, c)
	}
	out.Connections = conns

	sel := make([]string, 0, len(out.Canvas.SelectedNodes))
	for _, id := range out.Canvas.SelectedNodes {
		if !removed[id] {
			sel = append(sel, id)
		}
	}
	out.Canvas.SelectedNodes = sel
	if removed[out.Canvas.EditingNode] {
		out.Canvas.EditingNode = ""
	}
	out.UpdatedAt = now
	return out
}

// DuplicateNode copies a node 20 units down and right with " (Copy)"
// appended to its text. The copy keeps the parent but gets no children,
// and becomes the only selected node.
func (e *Engine) DuplicateNode(m MindMap, id string) (MindMap, Node) {
	src, ok := m.Node(id)
	if !ok {
		return m, Node{}
	}
	now := e.now()
	out := Clone(m)
	cp := cloneNode(src)
	cp.ID = e.id("node")
	cp.Text = src.Text + " (Copy)"
	cp.X += 20
	cp.Y += 20
	cp.Children = []string{}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if pi := out.NodeIndex(src.ParentID); pi >= 0 {
		out.Nodes[pi].Children = append(out.Nodes[pi].Children, cp.ID)
	}
	out.Nodes = append(out.Nodes, cp)
	out.Canvas.SelectedNodes = []string{cp.ID}
	out.UpdatedAt = now
	return out, cp
}

// CreateConnection joins from and to with a straight default-styled
// connection. Self-loops, unknown endpoints and pairs already joined in
// either direction leave the map unchanged; ok reports whether a
// connection was added.
func (e *Engine) CreateConnection(m MindMap, from, to string) (out MindMap, conn Connection, ok bool) {
	if from == to || !m.HasNode(from) || !m.HasNode(to) {
		return m, Connection{}, false
	}
	for _, c := range m.Connections {
		if c.Joins(from, to) {
			return m, Connection{}, false
		}
	}
	now := e.now()
	conn = Connection{
		ID:         e.id("conn"),
		FromNodeID: from,
		ToNodeID:   to,
		Type:       ConnStraight,
		Style:      DefaultConnectionStyle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	out = Clone(m)
	out.Connections = append(out.Connections, conn)
	out.UpdatedAt = now
	return out, conn, true
}

func (e *Engine) DeleteConnection(m MindMap, id string) MindMap {
	i := m.ConnectionIndex(id)
	if i < 0 {
		return m
	}
	out := Clone(m)
	out.Connections = append(out.Connections[:i], out.Connections[i+1:]...)
	out.UpdatedAt = e.now()
	return out
}

func (e *Engine) UpdateConnection(m MindMap, id string, muts ...ConnectionMutation) MindMap {
	i := m.ConnectionIndex(id)
	if i < 0 || len(muts) == 0 {
		return m
	}
	out := Clone(m)
	c := &out.Connections[i]
	for _, mu := range muts {
		if mu != nil {
			mu.applyConnection(c)
		}
	}
	now := e.now()
	c.UpdatedAt = now
	out.UpdatedAt = now
	return out
}

// UpdateCanvas applies canvas mutations. Canvas changes are view state and
// do not touch UpdatedAt.
func (e *Engine) UpdateCanvas(m MindMap, muts ...CanvasMutation) MindMap {
	if len(muts) == 0 {
		return m
	}
	out := Clone(m)
	for _, mu := range muts {
		if mu != nil {
			mu.applyCanvas(&out)
		}
	}
	return out
}

// ToggleSelection adds id to the selection or removes it.
func (e *Engine) ToggleSelection(m MindMap, id string) MindMap {
	if !m.HasNode(id) {
		return m
	}
	sel := make([]string, 0, len(m.Canvas.SelectedNodes)+1)
	found := false
	for _, s := range m.Canvas.SelectedNodes {
		if s == id {
			found = true
			continue
		}
		sel = append(sel, s)
	}
	if !found {
		sel = append(sel, id)
	}
	return e.UpdateCanvas(m, SetSelection{IDs: sel})
}

func (e *Engine) SelectAll(m MindMap) MindMap {
	ids := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return e.UpdateCanvas(m, SetSelection{IDs: ids})
}

func (e *Engine) ClearSelection(m MindMap) MindMap {
	return e.UpdateCanvas(m, SetSelection{}, SetEditing{})
}
