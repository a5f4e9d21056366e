// Package mindmap holds the document model of a mind map and the engine
// that mutates it. Documents are values: every engine operation returns a
// new MindMap and leaves its input untouched.
package mindmap

import (
	"time"

	"mindcanvas/internal/geometry"
)

type NodeType string

const (
	NodeRoot   NodeType = "root"
	NodeBranch NodeType = "branch"
	NodeLeaf   NodeType = "leaf"
	NodeNote   NodeType = "note"
	NodeTask   NodeType = "task"
	NodeLink   NodeType = "link"
)

// NodeTypes lists every node type in display order.
var NodeTypes = []NodeType{NodeRoot, NodeBranch, NodeLeaf, NodeNote, NodeTask, NodeLink}

func (t NodeType) Valid() bool {
	for _, v := range NodeTypes {
		if v == t {
			return true
		}
	}
	return false
}

type FontWeight string

const (
	WeightNormal   FontWeight = "normal"
	WeightMedium   FontWeight = "medium"
	WeightSemibold FontWeight = "semibold"
	WeightBold     FontWeight = "bold"
)

type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
	ShapeDiamond   Shape = "diamond"
	ShapeHexagon   Shape = "hexagon"
)

type ConnectionType string

const (
	ConnStraight ConnectionType = "straight"
	ConnCurved   ConnectionType = "curved"
	ConnStepped  ConnectionType = "stepped"
)

type DashStyle string

const (
	DashSolid  DashStyle = "solid"
	DashDashed DashStyle = "dashed"
	DashDotted DashStyle = "dotted"
)

type NodeStyle struct {
	BackgroundColor string     `json:"backgroundColor"`
	TextColor       string     `json:"textColor"`
	BorderColor     string     `json:"borderColor"`
	BorderWidth     int        `json:"borderWidth"`
	BorderRadius    int        `json:"borderRadius"`
	FontSize        int        `json:"fontSize"`
	FontWeight      FontWeight `json:"fontWeight"`
	Shape           Shape      `json:"shape"`
}

type Node struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	X         float64                `json:"x"`
	Y         float64                `json:"y"`
	Width     float64                `json:"width"`
	Height    float64                `json:"height"`
	ParentID  string                 `json:"parentId,omitempty"`
	Children  []string               `json:"children"`
	Level     int                    `json:"level"`
	Type      NodeType               `json:"type"`
	Style     NodeStyle              `json:"style"`
	Collapsed bool                   `json:"collapsed"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Rect is the node's world-space bounding box.
func (n Node) Rect() geometry.Rect {
	return geometry.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

func (n Node) Center() geometry.Point { return n.Rect().Center() }

type ConnectionStyle struct {
	Color   string    `json:"color"`
	Width   int       `json:"width"`
	Style   DashStyle `json:"style"`
	Opacity float64   `json:"opacity"`
}

type Connection struct {
	ID         string          `json:"id"`
	FromNodeID string          `json:"fromNodeId"`
	ToNodeID   string          `json:"toNodeId"`
	Type       ConnectionType  `json:"type"`
	Style      ConnectionStyle `json:"style"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Touches reports whether the connection has id at either end.
func (c Connection) Touches(id string) bool {
	return c.FromNodeID == id || c.ToNodeID == id
}

// Joins reports whether c connects a and b in either direction.
func (c Connection) Joins(a, b string) bool {
	return (c.FromNodeID == a && c.ToNodeID == b) || (c.FromNodeID == b && c.ToNodeID == a)
}

type CanvasState struct {
	Zoom          float64         `json:"zoom"`
	PanX          float64         `json:"panX"`
	PanY          float64         `json:"panY"`
	GridSize      int             `json:"gridSize"`
	ShowGrid      bool            `json:"showGrid"`
	SnapToGrid    bool            `json:"snapToGrid"`
	SelectedNodes []string        `json:"selectedNodes"`
	EditingNode   string          `json:"editingNode,omitempty"`
	Bounds        geometry.Bounds `json:"bounds"`
}

// Viewport is the pan/zoom part of the canvas state.
func (c CanvasState) Viewport() geometry.Viewport {
	return geometry.Viewport{Zoom: c.Zoom, PanX: c.PanX, PanY: c.PanY}
}

// IsSelected reports whether id is in the selection.
func (c CanvasState) IsSelected(id string) bool {
	for _, s := range c.SelectedNodes {
		if s == id {
			return true
		}
	}
	return false
}

type MindMap struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	OwnerID       string       `json:"ownerId"`
	IsPublic      bool         `json:"isPublic"`
	Nodes         []Node       `json:"nodes"`
	Connections   []Connection `json:"connections"`
	Canvas        CanvasState  `json:"canvas"`
	Version       int          `json:"version"`
	Tags          []string     `json:"tags"`
	Collaborators []string     `json:"collaborators"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NodeIndex returns the position of id in m.Nodes, or -1.
func (m MindMap) NodeIndex(id string) int {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Node looks up a node by id.
func (m MindMap) Node(id string) (Node, bool) {
	if i := m.NodeIndex(id); i >= 0 {
		return m.Nodes[i], true
	}
	return Node{}, false
}

func (m MindMap) HasNode(id string) bool { return m.NodeIndex(id) >= 0 }

func (m MindMap) ConnectionIndex(id string) int {
	for i := range m.Connections {
		if m.Connections[i].ID == id {
			return i
		}
	}
	return -1
}

// HasRoot reports whether any node is typed root.
func (m MindMap) HasRoot() bool {
	for _, n := range m.Nodes {
		if n.Type == NodeRoot {
			return true
		}
	}
	return false
}

// NodeAt returns the first node in list order whose box contains the world
// point p.
func (m MindMap) NodeAt(p geometry.Point) (Node, bool) {
	i := geometry.FindTop(p, m.Nodes, Node.Rect)
	if i < 0 {
		return Node{}, false
	}
	return m.Nodes[i], true
}

// ContentBounds is the union of all node boxes.
func (m MindMap) ContentBounds() (geometry.Rect, bool) {
	rects := make([]geometry.Rect, len(m.Nodes))
	for i, n := range m.Nodes {
		rects[i] = n.Rect()
	}
	return geometry.Union(rects)
}
