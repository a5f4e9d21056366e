package export

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"text/template"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("export").Funcs(template.FuncMap{
	"esc":  html.EscapeString,
	"num":  num,
	"dash": dashArray,
}).ParseFS(templateFS, "templates/*.tmpl"))

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dashArray(s mindmap.DashStyle) string {
	switch s {
	case mindmap.DashDashed:
		return "8,4"
	case mindmap.DashDotted:
		return "2,4"
	}
	return ""
}

type svgNode struct {
	Shape       string
	X, Y, W, H  float64
	CX, CY, R   float64
	Points      string
	Fill        string
	Stroke      string
	StrokeWidth int
	RX          int
	TextColor   string
	FontSize    int
	FontWeight  string
	Text        string
}

type svgData struct {
	Frame geometry.Rect
	Edges []edge
	Nodes []svgNode
}

// SVG draws connections as straight centre-to-centre lines under the nodes.
// Circles use half the shorter side as radius.
func SVG(m mindmap.MindMap) ([]byte, error) {
	f, err := frame(m)
	if err != nil {
		return nil, err
	}
	data := svgData{Frame: f, Edges: edges(m)}
	for _, n := range m.Nodes {
		data.Nodes = append(data.Nodes, toSVGNode(n))
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "mindmap.svg.tmpl", data); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return buf.Bytes(), nil
}

func toSVGNode(n mindmap.Node) svgNode {
	s := nodeStyle(n)
	c := n.Center()
	out := svgNode{
		Shape:       string(s.Shape),
		X:           n.X,
		Y:           n.Y,
		W:           n.Width,
		H:           n.Height,
		CX:          c.X,
		CY:          c.Y,
		R:           math.Min(n.Width, n.Height) / 2,
		Fill:        s.BackgroundColor,
		Stroke:      s.BorderColor,
		StrokeWidth: s.BorderWidth,
		RX:          s.BorderRadius,
		TextColor:   s.TextColor,
		FontSize:    s.FontSize,
		FontWeight:  string(s.FontWeight),
		Text:        n.Text,
	}
	if pts := outline(n); pts != nil {
		parts := make([]string, len(pts))
		for i, p := range pts {
			parts[i] = num(p.X) + "," + num(p.Y)
		}
		out.Points = strings.Join(parts, " ")
	}
	return out
}

// outline returns the polygon corners for diamond and hexagon nodes and nil
// for the other shapes.
func outline(n mindmap.Node) []geometry.Point {
	x, y, w, h := n.X, n.Y, n.Width, n.Height
	switch nodeStyle(n).Shape {
	case mindmap.ShapeDiamond:
		return []geometry.Point{{X: x + w/2, Y: y}, {X: x + w, Y: y + h/2}, {X: x + w/2, Y: y + h}, {X: x, Y: y + h/2}}
	case mindmap.ShapeHexagon:
		inset := w / 4
		return []geometry.Point{
			{X: x + inset, Y: y}, {X: x + w - inset, Y: y}, {X: x + w, Y: y + h/2},
			{X: x + w - inset, Y: y + h}, {X: x + inset, Y: y + h}, {X: x, Y: y + h/2},
		}
	}
	return nil
}
