package main

import "mindcanvas/internal/geometry"

// handleNavigation moves the selection with hjkl, or pans the view when
// pan mode is on or nothing is selected.
func (m *model) handleNavigation(key string, speed int) {
	dx, dy := direction(key)
	if dx == 0 && dy == 0 {
		return
	}
	s := m.session
	doc := s.Document()
	l := m.layout()

	if m.zPanMode || len(doc.Canvas.SelectedNodes) == 0 {
		// Panning moves the content the other way.
		s.PanBy(-float64(dx*panStepX*speed)*l.cw, -float64(dy*panStepY*speed)*l.ch)
		return
	}

	stepX, stepY := l.cw, l.ch
	if doc.Canvas.SnapToGrid && doc.Canvas.GridSize > 0 {
		stepX, stepY = float64(doc.Canvas.GridSize), float64(doc.Canvas.GridSize)
	} else {
		// One cell on screen, whatever the zoom.
		z := doc.Canvas.Viewport().Zoom
		if z <= 0 {
			z = 1
		}
		stepX, stepY = stepX/z, stepY/z
	}
	s.MoveSelectionBy(float64(dx*speed)*stepX, float64(dy*speed)*stepY)
	if len(doc.Canvas.SelectedNodes) == 1 {
		m.reveal(doc.Canvas.SelectedNodes[0])
	}
}

func direction(key string) (dx, dy int) {
	switch key {
	case "h", "left", "H", "shift+left":
		return -1, 0
	case "l", "right", "L", "shift+right":
		return 1, 0
	case "k", "up", "K", "shift+up":
		return 0, -1
	case "j", "down", "J", "shift+down":
		return 0, 1
	}
	return 0, 0
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}

// reveal pans just far enough that node id is fully on screen.
func (m *model) reveal(id string) {
	doc := m.session.Document()
	n, ok := doc.Node(id)
	if !ok {
		return
	}
	vp := doc.Canvas.Viewport()
	tl := geometry.WorldToScreen(geometry.Point{X: n.X, Y: n.Y}, vp)
	br := geometry.WorldToScreen(geometry.Point{X: n.X + n.Width, Y: n.Y + n.Height}, vp)
	w, h := m.viewSize()

	var dx, dy float64
	switch {
	case tl.X < 0:
		dx = -tl.X
	case br.X > w:
		dx = w - br.X
	}
	switch {
	case tl.Y < 0:
		dy = -tl.Y
	case br.Y > h:
		dy = h - br.Y
	}
	if dx != 0 || dy != 0 {
		m.session.PanBy(dx, dy)
	}
}
