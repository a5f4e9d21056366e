// Package geometry converts between screen and world coordinates and
// answers point-in-box questions. Everything here is pure.
package geometry

import "math"

// Point is a coordinate in either screen or world space; the caller knows which.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Expand grows r by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// Union returns the smallest rect containing every input. ok is false for
// an empty input.
func Union(rects []Rect) (out Rect, ok bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Viewport is the pan/zoom transform applied to world space.
type Viewport struct {
	Zoom float64
	PanX float64
	PanY float64
}

// Bounds is the virtual canvas extent in world units.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) Empty() bool { return b.MaxX <= b.MinX || b.MaxY <= b.MinY }

// ScreenToWorld maps a pointer position to world space.
func ScreenToWorld(p Point, vp Viewport) Point {
	z := safeZoom(vp.Zoom)
	return Point{X: (p.X - vp.PanX) / z, Y: (p.Y - vp.PanY) / z}
}

// WorldToScreen is the inverse of ScreenToWorld.
func WorldToScreen(p Point, vp Viewport) Point {
	z := safeZoom(vp.Zoom)
	return Point{X: p.X*z + vp.PanX, Y: p.Y*z + vp.PanY}
}

func safeZoom(z float64) float64 {
	if z <= 0 || math.IsNaN(z) {
		return 1
	}
	return z
}

// HitTest reports whether p lies inside r, edges included. Shapes other
// than rectangles are still tested by their bounding box.
func HitTest(p Point, r Rect) bool {
	return r.X <= p.X && p.X <= r.Right() && r.Y <= p.Y && p.Y <= r.Bottom()
}

// FindTop returns the index of the first item whose rect contains p, or -1.
// This is list order, not paint order: a later item drawn on top of an
// earlier one does not win the hit.
func FindTop[T any](p Point, items []T, rectOf func(T) Rect) int {
	for i, it := range items {
		if HitTest(p, rectOf(it)) {
			return i
		}
	}
	return -1
}

// ClampPan keeps the viewport inside bounds plus half a viewport of margin
// on each side. With view size (w, h) at zoom z the visible world span is
// [-panX/z, (w-panX)/z]; that span may start no earlier than MinX - w/(2z)
// and end no later than MaxX + w/(2z). When the allowed range is narrower
// than the view the content is centred instead.
func ClampPan(vp Viewport, b Bounds, viewW, viewH float64) Viewport {
	if b.Empty() {
		return vp
	}
	z := safeZoom(vp.Zoom)
	vp.PanX = clampAxis(vp.PanX, b.MinX, b.MaxX, viewW, z)
	vp.PanY = clampAxis(vp.PanY, b.MinY, b.MaxY, viewH, z)
	return vp
}

func clampAxis(pan, lo, hi, view, z float64) float64 {
	margin := view / 2
	// pan bounds in screen units
	maxPan := margin - lo*z
	minPan := view - margin - hi*z
	if minPan > maxPan {
		return (minPan + maxPan) / 2
	}
	return math.Max(minPan, math.Min(maxPan, pan))
}

// VisibleWorld returns the world rect currently shown in a view of the
// given screen size.
func VisibleWorld(vp Viewport, viewW, viewH float64) Rect {
	tl := ScreenToWorld(Point{}, vp)
	z := safeZoom(vp.Zoom)
	return Rect{X: tl.X, Y: tl.Y, Width: viewW / z, Height: viewH / z}
}

// MinimapRect scales the visible world rect into a minimap of size
// (mapW, mapH) that shows the whole of content.
func MinimapRect(content Rect, visible Rect, mapW, mapH float64) Rect {
	if content.Width <= 0 || content.Height <= 0 {
		return Rect{Width: mapW, Height: mapH}
	}
	sx := mapW / content.Width
	sy := mapH / content.Height
	return Rect{
		X:      (visible.X - content.X) * sx,
		Y:      (visible.Y - content.Y) * sy,
		Width:  visible.Width * sx,
		Height: visible.Height * sy,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
