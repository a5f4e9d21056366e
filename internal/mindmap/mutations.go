package mindmap

import (
	"math"
	"strings"

	"mindcanvas/internal/geometry"
)

// NodeMutation is one typed change to a node. The set is closed: only the
// variants in this file implement it.
type NodeMutation interface {
	applyNode(n *Node)
}

// Retext replaces the node text.
type Retext struct{ Text string }

// Resize sets the node size, raised to the minimum dimensions.
type Resize struct{ Width, Height float64 }

// Reposition sets the top-left corner in world space.
type Reposition struct{ X, Y float64 }

// Restyle replaces the whole style. Numeric fields are clamped to their
// allowed ranges.
type Restyle struct{ Style NodeStyle }

// Recolor changes colours; empty fields are left alone.
type Recolor struct{ Background, Text, Border string }

// Reshape changes the visual shape.
type Reshape struct{ Shape Shape }

// Retype changes the node type. With ApplyStyle the type's default style
// replaces the current one.
type Retype struct {
	Type       NodeType
	ApplyStyle bool
}

// Collapse hides or shows the node's subtree.
type Collapse struct{ Collapsed bool }

// SetMetadata stores Value under Key; a nil Value removes the key.
type SetMetadata struct {
	Key   string
	Value interface{}
}

func (r Retext) applyNode(n *Node) { n.Text = r.Text }

func (r Resize) applyNode(n *Node) {
	n.Width = math.Max(MinNodeWidth, r.Width)
	n.Height = math.Max(MinNodeHeight, r.Height)
}

func (r Reposition) applyNode(n *Node) { n.X, n.Y = r.X, r.Y }

func (r Restyle) applyNode(n *Node) { n.Style = clampStyle(r.Style) }

func (r Recolor) applyNode(n *Node) {
	if r.Background != "" {
		n.Style.BackgroundColor = r.Background
	}
	if r.Text != "" {
		n.Style.TextColor = r.Text
	}
	if r.Border != "" {
		n.Style.BorderColor = r.Border
	}
}

func (r Reshape) applyNode(n *Node) {
	if r.Shape != "" {
		n.Style.Shape = r.Shape
	}
}

func (r Retype) applyNode(n *Node) {
	if !r.Type.Valid() {
		return
	}
	n.Type = r.Type
	if r.ApplyStyle {
		shape := n.Style.Shape
		n.Style = StyleFor(r.Type)
		if shape != "" {
			n.Style.Shape = shape
		}
	}
}

func (r Collapse) applyNode(n *Node) { n.Collapsed = r.Collapsed }

func (r SetMetadata) applyNode(n *Node) {
	if r.Key == "" {
		return
	}
	if r.Value == nil {
		delete(n.Metadata, r.Key)
		return
	}
	if n.Metadata == nil {
		n.Metadata = map[string]interface{}{}
	}
	n.Metadata[r.Key] = r.Value
}

func clampStyle(s NodeStyle) NodeStyle {
	s.BorderWidth = clampInt(s.BorderWidth, 0, 10)
	s.BorderRadius = clampInt(s.BorderRadius, 0, 50)
	s.FontSize = clampInt(s.FontSize, 8, 32)
	if s.FontWeight == "" {
		s.FontWeight = WeightNormal
	}
	if s.Shape == "" {
		s.Shape = ShapeRectangle
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConnectionMutation is one typed change to a connection.
type ConnectionMutation interface {
	applyConnection(c *Connection)
}

type SetConnectionType struct{ Type ConnectionType }

// RestyleConnection replaces the connection style, clamping width to 1..10
// and opacity to 0..1.
type RestyleConnection struct{ Style ConnectionStyle }

func (s SetConnectionType) applyConnection(c *Connection) {
	switch s.Type {
	case ConnStraight, ConnCurved, ConnStepped:
		c.Type = s.Type
	}
}

func (s RestyleConnection) applyConnection(c *Connection) {
	st := s.Style
	st.Width = clampInt(st.Width, 1, 10)
	st.Opacity = geometry.Clamp(st.Opacity, 0, 1)
	if st.Style == "" {
		st.Style = DashSolid
	}
	if strings.TrimSpace(st.Color) == "" {
		st.Color = DefaultConnectionStyle.Color
	}
	c.Style = st
}

// CanvasMutation is one typed change to the canvas state. Some variants
// need the document (to filter ids), so they receive the whole map.
type CanvasMutation interface {
	applyCanvas(m *MindMap)
}

// SetZoom clamps to [MinZoom, MaxZoom].
type SetZoom struct{ Zoom float64 }

type SetPan struct{ X, Y float64 }

// SetGrid sets grid size (10..100), visibility and snapping.
type SetGrid struct {
	Size int
	Show bool
	Snap bool
}

// SetSelection replaces the selection; unknown and duplicate ids are dropped.
type SetSelection struct{ IDs []string }

// SetEditing puts a node in text edit mode; an empty or unknown id clears it.
type SetEditing struct{ ID string }

type SetBounds struct{ Bounds geometry.Bounds }

func (s SetZoom) applyCanvas(m *MindMap) { m.Canvas.Zoom = ClampZoom(s.Zoom) }

func (s SetPan) applyCanvas(m *MindMap) { m.Canvas.PanX, m.Canvas.PanY = s.X, s.Y }

func (s SetGrid) applyCanvas(m *MindMap) {
	size := s.Size
	if size == 0 {
		size = m.Canvas.GridSize
	}
	m.Canvas.GridSize = clampInt(size, 10, 100)
	m.Canvas.ShowGrid = s.Show
	m.Canvas.SnapToGrid = s.Snap
}

func (s SetSelection) applyCanvas(m *MindMap) {
	sel := make([]string, 0, len(s.IDs))
	seen := make(map[string]bool, len(s.IDs))
	for _, id := range s.IDs {
		if seen[id] || !m.HasNode(id) {
			continue
		}
		seen[id] = true
		sel = append(sel, id)
	}
	m.Canvas.SelectedNodes = sel
}

func (s SetEditing) applyCanvas(m *MindMap) {
	if s.ID != "" && m.HasNode(s.ID) {
		m.Canvas.EditingNode = s.ID
		return
	}
	m.Canvas.EditingNode = ""
}

func (s SetBounds) applyCanvas(m *MindMap) { m.Canvas.Bounds = s.Bounds }

// ClampZoom limits z to the supported zoom range.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return geometry.Clamp(z, MinZoom, MaxZoom)
}
