package interaction

import (
	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

// Side names the node edge a connection handle sits on.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

const (
	// HandleSize is the side length of a handle in screen pixels.
	HandleSize = 16.0
	// HandleOffset is how far a handle's centre sits outside the node edge.
	HandleOffset = 8.0
)

// Handle is a connection handle in screen space.
type Handle struct {
	NodeID string
	Side   Side
	Rect   geometry.Rect
}

// HandlesFor returns the four handles of n at the edge midpoints, in
// screen space for viewport vp.
func HandlesFor(n mindmap.Node, vp geometry.Viewport) []Handle {
	tl := geometry.WorldToScreen(geometry.Point{X: n.X, Y: n.Y}, vp)
	br := geometry.WorldToScreen(geometry.Point{X: n.X + n.Width, Y: n.Y + n.Height}, vp)
	cx, cy := (tl.X+br.X)/2, (tl.Y+br.Y)/2

	centres := [4]geometry.Point{
		SideTop:    {X: cx, Y: tl.Y - HandleOffset},
		SideRight:  {X: br.X + HandleOffset, Y: cy},
		SideBottom: {X: cx, Y: br.Y + HandleOffset},
		SideLeft:   {X: tl.X - HandleOffset, Y: cy},
	}
	out := make([]Handle, 0, len(centres))
	for side, c := range centres {
		out = append(out, Handle{
			NodeID: n.ID,
			Side:   Side(side),
			Rect: geometry.Rect{
				X:      c.X - HandleSize/2,
				Y:      c.Y - HandleSize/2,
				Width:  HandleSize,
				Height: HandleSize,
			},
		})
	}
	return out
}

// handleAt finds a handle under screen point p among the nodes in ids.
func handleAt(p geometry.Point, doc mindmap.MindMap, ids []string) (Handle, bool) {
	vp := doc.Canvas.Viewport()
	for _, id := range ids {
		n, ok := doc.Node(id)
		if !ok {
			continue
		}
		for _, h := range HandlesFor(n, vp) {
			if geometry.HitTest(p, h.Rect) {
				return h, true
			}
		}
	}
	return Handle{}, false
}
