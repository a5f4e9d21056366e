package mindmap

import "mindcanvas/internal/geometry"

const (
	DefaultNodeWidth  = 150.0
	DefaultNodeHeight = 60.0
	RootNodeWidth     = 200.0
	RootNodeHeight    = 60.0

	MinNodeWidth  = 50.0
	MinNodeHeight = 30.0

	MinZoom    = 0.1
	MaxZoom    = 3.0
	ZoomFactor = 1.2

	DefaultGridSize = 20

	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxTagLength         = 20
)

var DefaultNodeStyle = NodeStyle{
	BackgroundColor: "#ffffff",
	TextColor:       "#1f2937",
	BorderColor:     "#d1d5db",
	BorderWidth:     1,
	BorderRadius:    8,
	FontSize:        14,
	FontWeight:      WeightNormal,
	Shape:           ShapeRectangle,
}

var typeStyles = map[NodeType]NodeStyle{
	NodeRoot:   {BackgroundColor: "#3b82f6", TextColor: "#ffffff", BorderColor: "#1d4ed8", BorderWidth: 2, FontSize: 16, FontWeight: WeightBold},
	NodeBranch: {BackgroundColor: "#f3f4f6", TextColor: "#374151", BorderColor: "#9ca3af", BorderWidth: 1, FontSize: 14, FontWeight: WeightMedium},
	NodeLeaf:   {BackgroundColor: "#ffffff", TextColor: "#6b7280", BorderColor: "#d1d5db", BorderWidth: 1, FontSize: 12, FontWeight: WeightNormal},
	NodeNote:   {BackgroundColor: "#fef3c7", TextColor: "#92400e", BorderColor: "#f59e0b", BorderWidth: 1, FontSize: 12, FontWeight: WeightNormal},
	NodeTask:   {BackgroundColor: "#d1fae5", TextColor: "#065f46", BorderColor: "#10b981", BorderWidth: 1, FontSize: 12, FontWeight: WeightNormal},
	NodeLink:   {BackgroundColor: "#e0e7ff", TextColor: "#3730a3", BorderColor: "#6366f1", BorderWidth: 1, FontSize: 12, FontWeight: WeightNormal},
}

// StyleFor returns the default style for a node type: the per-type colours
// and font laid over DefaultNodeStyle.
func StyleFor(t NodeType) NodeStyle {
	s := DefaultNodeStyle
	ts, ok := typeStyles[t]
	if !ok {
		return s
	}
	s.BackgroundColor = ts.BackgroundColor
	s.TextColor = ts.TextColor
	s.BorderColor = ts.BorderColor
	s.BorderWidth = ts.BorderWidth
	s.FontSize = ts.FontSize
	s.FontWeight = ts.FontWeight
	return s
}

var DefaultConnectionStyle = ConnectionStyle{
	Color:   "#6b7280",
	Width:   2,
	Style:   DashSolid,
	Opacity: 1,
}

// DefaultBounds is the virtual canvas a new document pans within.
var DefaultBounds = geometry.Bounds{MinX: -2000, MinY: -2000, MaxX: 2000, MaxY: 2000}

// DefaultCanvasState returns a fresh canvas: unit zoom, no pan, nothing selected.
func DefaultCanvasState() CanvasState {
	return CanvasState{
		Zoom:          1,
		GridSize:      DefaultGridSize,
		SelectedNodes: []string{},
		Bounds:        DefaultBounds,
	}
}
