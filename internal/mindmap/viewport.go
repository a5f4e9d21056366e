package mindmap

import (
	"math"

	"mindcanvas/internal/geometry"
)

const fitPadding = 100.0

// ZoomIn multiplies zoom by ZoomFactor, anchored at the origin.
func (e *Engine) ZoomIn(m MindMap) MindMap {
	return e.UpdateCanvas(m, SetZoom{Zoom: m.Canvas.Zoom * ZoomFactor})
}

// ZoomOut divides zoom by ZoomFactor, anchored at the origin.
func (e *Engine) ZoomOut(m MindMap) MindMap {
	return e.UpdateCanvas(m, SetZoom{Zoom: m.Canvas.Zoom / ZoomFactor})
}

func (e *Engine) ResetZoom(m MindMap) MindMap {
	return e.UpdateCanvas(m, SetZoom{Zoom: 1})
}

// PanTo sets the pan offset directly.
func (e *Engine) PanTo(m MindMap, x, y float64) MindMap {
	return e.UpdateCanvas(m, SetPan{X: x, Y: y})
}

// CenterCanvas resets the view to zoom 1 with no pan.
func (e *Engine) CenterCanvas(m MindMap) MindMap {
	return e.UpdateCanvas(m, SetZoom{Zoom: 1}, SetPan{})
}

// ZoomToFit picks the largest zoom, capped at 1, that shows every node in a
// view of the given size with 100 units of padding, and centres the content.
// An empty map is left alone.
func (e *Engine) ZoomToFit(m MindMap, viewW, viewH float64) MindMap {
	content, ok := m.ContentBounds()
	if !ok || viewW <= 0 || viewH <= 0 {
		return m
	}
	padded := content.Expand(fitPadding)
	scaleX := viewW / padded.Width
	scaleY := viewH / padded.Height
	zoom := ClampZoom(math.Min(math.Min(scaleX, scaleY), 1))

	c := content.Center()
	panX := viewW/2 - c.X*zoom
	panY := viewH/2 - c.Y*zoom
	return e.UpdateCanvas(m, SetZoom{Zoom: zoom}, SetPan{X: panX, Y: panY})
}

// ViewportCenter returns the world point shown at the centre of a view of
// the given size.
func ViewportCenter(m MindMap, viewW, viewH float64) geometry.Point {
	return geometry.ScreenToWorld(geometry.Point{X: viewW / 2, Y: viewH / 2}, m.Canvas.Viewport())
}
