package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/mindmap"
)

// cellGrid is the character canvas a document is drawn into. Each cell
// carries an index into the grid's palette, -1 for unstyled.
type cellGrid struct {
	runes   [][]rune
	styles  [][]int
	palette []lipgloss.Style
	byKey   map[string]int
}

func newCellGrid(width, height int) *cellGrid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	g := &cellGrid{
		runes:  make([][]rune, height),
		styles: make([][]int, height),
		byKey:  map[string]int{},
	}
	for y := range g.runes {
		g.runes[y] = make([]rune, width)
		g.styles[y] = make([]int, width)
		for x := range g.runes[y] {
			g.runes[y][x] = ' '
			g.styles[y][x] = -1
		}
	}
	return g
}

func (g *cellGrid) width() int  { return len(g.runes[0]) }
func (g *cellGrid) height() int { return len(g.runes) }

func (g *cellGrid) inBounds(x, y int) bool {
	return y >= 0 && y < len(g.runes) && x >= 0 && x < len(g.runes[y])
}

func (g *cellGrid) set(x, y int, r rune, style int) {
	if !g.inBounds(x, y) {
		return
	}
	g.runes[y][x] = r
	g.styles[y][x] = style
}

func (g *cellGrid) at(x, y int) rune {
	if !g.inBounds(x, y) {
		return 0
	}
	return g.runes[y][x]
}

// style registers s under key and returns its palette slot.
func (g *cellGrid) style(key string, s lipgloss.Style) int {
	if i, ok := g.byKey[key]; ok {
		return i
	}
	g.palette = append(g.palette, s)
	g.byKey[key] = len(g.palette) - 1
	return len(g.palette) - 1
}

// Lines renders each row, styling runs of cells that share a style.
func (g *cellGrid) Lines() []string {
	out := make([]string, len(g.runes))
	for y, row := range g.runes {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.styles[y][x] == g.styles[y][start] {
				continue
			}
			run := string(row[start:x])
			if s := g.styles[y][start]; s >= 0 {
				b.WriteString(g.palette[s].Render(run))
			} else {
				b.WriteString(run)
			}
			start = x
		}
		out[y] = b.String()
	}
	return out
}

// Plain renders the rows without styling and with trailing blanks removed.
func (g *cellGrid) Plain() []string {
	out := make([]string, len(g.runes))
	for y, row := range g.runes {
		out[y] = strings.TrimRight(string(row), " ")
	}
	return out
}

// cellLayout maps screen space to terminal cells. A cell is cw screen
// units wide and ch tall.
type cellLayout struct {
	cw, ch float64
}

func (l cellLayout) cellOf(p geometry.Point) (int, int) {
	return int(math.Floor(p.X / l.cw)), int(math.Floor(p.Y / l.ch))
}

// center is the screen point a mouse event on cell (x, y) reports.
func (l cellLayout) center(x, y int) geometry.Point {
	return geometry.Point{X: (float64(x) + 0.5) * l.cw, Y: (float64(y) + 0.5) * l.ch}
}

// boxCells is the cell rectangle a node covers, never smaller than 3x3.
func (l cellLayout) boxCells(n mindmap.Node, vp geometry.Viewport) (x0, y0, x1, y1 int) {
	tl := geometry.WorldToScreen(geometry.Point{X: n.X, Y: n.Y}, vp)
	br := geometry.WorldToScreen(geometry.Point{X: n.X + n.Width, Y: n.Y + n.Height}, vp)
	x0 = int(math.Floor(tl.X / l.cw))
	y0 = int(math.Floor(tl.Y / l.ch))
	x1 = int(math.Ceil(br.X/l.cw)) - 1
	y1 = int(math.Ceil(br.Y/l.ch)) - 1
	if x1 < x0+2 {
		x1 = x0 + 2
	}
	if y1 < y0+2 {
		y1 = y0 + 2
	}
	return x0, y0, x1, y1
}

type renderOptions struct {
	layout  cellLayout
	preview interaction.Preview
	// handles draws connection handles around the selection and the
	// hovered node.
	handles bool
	minimap bool
}

var (
	accentColor = lipgloss.Color("#f59e0b")
	mutedColor  = lipgloss.Color("#6b7280")
)

// renderCanvas draws doc into a width x height grid: grid dots, then
// connections, then nodes on top, then handles and the minimap.
func renderCanvas(doc mindmap.MindMap, width, height int, opts renderOptions) *cellGrid {
	g := newCellGrid(width, height)
	l := opts.layout
	vp := doc.Canvas.Viewport()

	if doc.Canvas.ShowGrid {
		drawGrid(g, doc, l)
	}

	for _, c := range doc.Connections {
		drawConnection(g, doc, c, l)
	}

	if opts.preview.Connecting {
		x0, y0 := l.cellOf(geometry.WorldToScreen(opts.preview.LineFrom, vp))
		x1, y1 := l.cellOf(geometry.WorldToScreen(opts.preview.LineTo, vp))
		accent := g.style("preview", lipgloss.NewStyle().Foreground(accentColor))
		for _, p := range linePoints(x0, y0, x1, y1) {
			g.set(p.X, p.Y, '.', accent)
		}
	}

	for _, n := range doc.Nodes {
		selected := doc.Canvas.IsSelected(n.ID)
		editing := opts.preview.Mode == interaction.EditingText && opts.preview.EditingID == n.ID
		cursor := -1
		if editing {
			cursor = opts.preview.Cursor
		}
		drawNode(g, n, vp, l, selected, cursor)
	}

	if opts.handles && opts.preview.Mode == interaction.Idle {
		ids := append([]string(nil), doc.Canvas.SelectedNodes...)
		if h := opts.preview.HoverID; h != "" && !doc.Canvas.IsSelected(h) {
			ids = append(ids, h)
		}
		accent := g.style("handle", lipgloss.NewStyle().Foreground(accentColor).Bold(true))
		for _, id := range ids {
			n, ok := doc.Node(id)
			if !ok {
				continue
			}
			for _, h := range interaction.HandlesFor(n, vp) {
				x, y := l.cellOf(h.Rect.Center())
				g.set(x, y, 'o', accent)
			}
		}
	}

	if opts.minimap {
		drawMinimap(g, doc, l)
	}
	return g
}

func drawGrid(g *cellGrid, doc mindmap.MindMap, l cellLayout) {
	size := float64(doc.Canvas.GridSize)
	if size <= 0 {
		return
	}
	vp := doc.Canvas.Viewport()
	z := vp.Zoom
	if z <= 0 {
		z = 1
	}
	stepX, stepY := size, size
	for stepX*z < 2*l.cw {
		stepX *= 2
	}
	for stepY*z < l.ch {
		stepY *= 2
	}
	visible := geometry.VisibleWorld(vp, float64(g.width())*l.cw, float64(g.height())*l.ch)
	dot := g.style("grid", lipgloss.NewStyle().Foreground(mutedColor).Faint(true))
	for wy := math.Floor(visible.Y/stepY) * stepY; wy <= visible.Bottom(); wy += stepY {
		for wx := math.Floor(visible.X/stepX) * stepX; wx <= visible.Right(); wx += stepX {
			x, y := l.cellOf(geometry.WorldToScreen(geometry.Point{X: wx, Y: wy}, vp))
			g.set(x, y, '·', dot)
		}
	}
}

func drawConnection(g *cellGrid, doc mindmap.MindMap, c mindmap.Connection, l cellLayout) {
	from, ok := doc.Node(c.FromNodeID)
	if !ok {
		return
	}
	to, ok := doc.Node(c.ToNodeID)
	if !ok {
		return
	}
	vp := doc.Canvas.Viewport()
	x0, y0 := l.cellOf(geometry.WorldToScreen(from.Center(), vp))
	x1, y1 := l.cellOf(geometry.WorldToScreen(to.Center(), vp))

	color := c.Style.Color
	if color == "" {
		color = mindmap.DefaultConnectionStyle.Color
	}
	style := g.style("conn:"+color, lipgloss.NewStyle().Foreground(lipgloss.Color(color)))

	var pts []point
	if c.Type == mindmap.ConnStepped {
		mid := (x0 + x1) / 2
		pts = linePoints(x0, y0, mid, y0)
		pts = append(pts, linePoints(mid, y0, mid, y1)[1:]...)
		pts = append(pts, linePoints(mid, y1, x1, y1)[1:]...)
	} else {
		pts = linePoints(x0, y0, x1, y1)
	}

	for i, p := range pts {
		switch c.Style.Style {
		case mindmap.DashDashed:
			if i%4 >= 2 {
				continue
			}
		case mindmap.DashDotted:
			if i%2 == 1 {
				continue
			}
			g.set(p.X, p.Y, '.', style)
			continue
		}
		g.set(p.X, p.Y, lineGlyph(pts, i, c.Type == mindmap.ConnStepped), style)
	}
}

// lineGlyph picks the character for pts[i] from the direction of travel
// through it. With corners set, a turn is drawn as '+'.
func lineGlyph(pts []point, i int, corners bool) rune {
	var in, out point
	if i > 0 {
		in = point{pts[i].X - pts[i-1].X, pts[i].Y - pts[i-1].Y}
	}
	if i < len(pts)-1 {
		out = point{pts[i+1].X - pts[i].X, pts[i+1].Y - pts[i].Y}
	}
	if i == 0 {
		in = out
	}
	if i == len(pts)-1 {
		out = in
	}
	if corners && in != out {
		return '+'
	}
	d := out
	switch {
	case d.Y == 0:
		return '-'
	case d.X == 0:
		return '|'
	case d.X*d.Y > 0:
		return '\\'
	default:
		return '/'
	}
}

// linePoints returns the cells on the segment from (x0,y0) to (x1,y1).
func linePoints(x0, y0, x1, y1 int) []point {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	pts := make([]point, 0, dx-dy+1)
	for {
		pts = append(pts, point{x0, y0})
		if x0 == x1 && y0 == y1 {
			return pts
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

// Border characters per shape: corners clockwise from top-left, then
// horizontal, left and right edges.
type borderSet struct {
	tl, tr, br, bl rune
	h, left, right rune
}

var borders = map[mindmap.Shape]borderSet{
	mindmap.ShapeRectangle: {'+', '+', '+', '+', '-', '|', '|'},
	mindmap.ShapeCircle:    {'.', '.', '\'', '\'', '-', '(', ')'},
	mindmap.ShapeDiamond:   {'/', '\\', '/', '\\', '-', '<', '>'},
	mindmap.ShapeHexagon:   {'/', '\\', '/', '\\', '-', '|', '|'},
}

var selectedBorder = borderSet{'#', '#', '#', '#', '#', '#', '#'}

// drawNode draws n as a bordered box with its text centred inside. cursor
// is the edit cursor position in n.Text, or -1.
func drawNode(g *cellGrid, n mindmap.Node, vp geometry.Viewport, l cellLayout, selected bool, cursor int) {
	x0, y0, x1, y1 := l.boxCells(n, vp)
	if x1 < 0 || y1 < 0 || x0 >= g.width() || y0 >= g.height() {
		return
	}

	st := n.Style
	if st.Shape == "" {
		st = mindmap.StyleFor(n.Type)
	}
	bold := st.FontWeight == mindmap.WeightBold || st.FontWeight == mindmap.WeightSemibold
	fill := lipgloss.NewStyle().
		Foreground(lipgloss.Color(st.TextColor)).
		Background(lipgloss.Color(st.BackgroundColor)).
		Bold(bold)
	body := g.style("fill:"+st.TextColor+st.BackgroundColor+string(st.FontWeight), fill)
	caret := g.style("caret:"+st.TextColor+st.BackgroundColor, fill.Reverse(true))

	set, ok := borders[st.Shape]
	if !ok {
		set = borders[mindmap.ShapeRectangle]
	}
	edgeColor := lipgloss.Color(st.BorderColor)
	edgeKey := "edge:" + st.BorderColor + st.BackgroundColor
	if selected {
		set = selectedBorder
		edgeColor = accentColor
		edgeKey = "edge:selected" + st.BackgroundColor
	}
	edge := g.style(edgeKey, lipgloss.NewStyle().
		Foreground(edgeColor).
		Background(lipgloss.Color(st.BackgroundColor)).
		Bold(selected))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			switch {
			case y == y0 && x == x0:
				g.set(x, y, set.tl, edge)
			case y == y0 && x == x1:
				g.set(x, y, set.tr, edge)
			case y == y1 && x == x1:
				g.set(x, y, set.br, edge)
			case y == y1 && x == x0:
				g.set(x, y, set.bl, edge)
			case y == y0 || y == y1:
				g.set(x, y, set.h, edge)
			case x == x0:
				g.set(x, y, set.left, edge)
			case x == x1:
				g.set(x, y, set.right, edge)
			default:
				g.set(x, y, ' ', body)
			}
		}
	}

	innerW, innerH := x1-x0-1, y1-y0-1
	lines, cx, cy := wrapText([]rune(n.Text), innerW, cursor)
	top := 0
	if len(lines) < innerH {
		top = (innerH - len(lines)) / 2
	} else if cursor >= 0 && cy >= innerH {
		top = innerH - 1 - cy
	}
	for i, line := range lines {
		row := y0 + 1 + top + i
		if row <= y0 || row >= y1 {
			continue
		}
		left := x0 + 1 + (innerW-len(line))/2
		for j, r := range line {
			g.set(left+j, row, r, body)
		}
		if cursor >= 0 && i == cy {
			col := left + cx
			if col >= x1 {
				col = x1 - 1
			}
			r := g.at(col, row)
			g.set(col, row, r, caret)
		}
	}
}

// wrapText hard-wraps text at width runes, breaking on newlines. It also
// returns the line and column of rune index cursor when cursor >= 0.
func wrapText(text []rune, width, cursor int) (lines [][]rune, cx, cy int) {
	if width < 1 {
		width = 1
	}
	var cur []rune
	for i, r := range text {
		if i == cursor {
			cx, cy = len(cur), len(lines)
		}
		if r == '\n' {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		if len(cur) == width {
			lines = append(lines, cur)
			cur = nil
			if i == cursor {
				cx, cy = 0, len(lines)
			}
		}
		cur = append(cur, r)
	}
	if cursor >= len(text) {
		cx, cy = len(cur), len(lines)
		if cx == width {
			cx, cy = width-1, len(lines)
		}
	}
	if len(cur) > 0 || len(lines) > 0 || cursor >= 0 {
		lines = append(lines, cur)
	}
	return lines, cx, cy
}

// drawMinimap draws a scaled overview of every node in the bottom-right
// corner, with the visible area highlighted.
func drawMinimap(g *cellGrid, doc mindmap.MindMap, l cellLayout) {
	content, ok := doc.ContentBounds()
	if !ok || g.width() < minimapWidth+2 || g.height() < minimapHeight+2 {
		return
	}
	x0, y0 := g.width()-minimapWidth, g.height()-minimapHeight
	x1, y1 := g.width()-1, g.height()-1
	innerW, innerH := float64(minimapWidth-2), float64(minimapHeight-2)

	frame := g.style("minimap", lipgloss.NewStyle().Foreground(mutedColor))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			switch {
			case (y == y0 || y == y1) && (x == x0 || x == x1):
				g.set(x, y, '+', frame)
			case y == y0 || y == y1:
				g.set(x, y, '-', frame)
			case x == x0 || x == x1:
				g.set(x, y, '|', frame)
			default:
				g.set(x, y, ' ', frame)
			}
		}
	}

	vp := doc.Canvas.Viewport()
	visible := geometry.VisibleWorld(vp, float64(g.width())*l.cw, float64(g.height())*l.ch)
	view := geometry.MinimapRect(content, visible, innerW, innerH)
	window := g.style("minimap:view", lipgloss.NewStyle().Background(lipgloss.Color("#374151")))
	for y := 0; y < int(innerH); y++ {
		for x := 0; x < int(innerW); x++ {
			cellX, cellY := float64(x)+0.5, float64(y)+0.5
			if geometry.HitTest(geometry.Point{X: cellX, Y: cellY}, view) {
				g.set(x0+1+x, y0+1+y, ' ', window)
			}
		}
	}

	dot := g.style("minimap:node", lipgloss.NewStyle().Foreground(accentColor))
	for _, n := range doc.Nodes {
		c := n.Center()
		mx := int(geometry.Clamp((c.X-content.X)/content.Width*innerW, 0, innerW-1))
		my := int(geometry.Clamp((c.Y-content.Y)/content.Height*innerH, 0, innerH-1))
		glyph := '*'
		if doc.Canvas.IsSelected(n.ID) {
			glyph = '#'
		}
		g.set(x0+1+mx, y0+1+my, glyph, dot)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
