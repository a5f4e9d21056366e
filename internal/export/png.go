package export

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"mindcanvas/internal/mindmap"
)

var (
	monoOnce sync.Once
	monoFont *truetype.Font
	monoErr  error
)

func loadFont() (*truetype.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = truetype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// PNG rasterises m at one pixel per world unit, connections first so
// nodes sit on top.
func PNG(m mindmap.MindMap) ([]byte, error) {
	f, err := frame(m)
	if err != nil {
		return nil, err
	}
	ttf, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	dc := gg.NewContext(int(math.Ceil(f.Width)), int(math.Ceil(f.Height)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Translate(-f.X, -f.Y)

	for _, e := range edges(m) {
		drawEdgePNG(dc, e)
	}
	faces := map[int]font.Face{}
	defer func() {
		for _, face := range faces {
			face.Close()
		}
	}()
	for _, n := range m.Nodes {
		s := nodeStyle(n)
		face, ok := faces[s.FontSize]
		if !ok {
			face = truetype.NewFace(ttf, &truetype.Options{
				Size:    float64(s.FontSize),
				DPI:     72,
				Hinting: font.HintingFull,
			})
			faces[s.FontSize] = face
		}
		drawNodePNG(dc, n, s, face)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawEdgePNG(dc *gg.Context, e edge) {
	dc.Push()
	defer dc.Pop()
	dc.SetHexColor(e.Style.Color)
	dc.SetLineWidth(float64(e.Style.Width))
	switch e.Style.Style {
	case mindmap.DashDashed:
		dc.SetDash(8, 4)
	case mindmap.DashDotted:
		dc.SetDash(2, 4)
	}
	dc.DrawLine(e.From.X, e.From.Y, e.To.X, e.To.Y)
	dc.Stroke()
}

func drawNodePNG(dc *gg.Context, n mindmap.Node, s mindmap.NodeStyle, face font.Face) {
	dc.Push()
	defer dc.Pop()

	c := n.Center()
	switch s.Shape {
	case mindmap.ShapeCircle:
		dc.DrawCircle(c.X, c.Y, math.Min(n.Width, n.Height)/2)
	case mindmap.ShapeDiamond, mindmap.ShapeHexagon:
		pts := outline(n)
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
	default:
		dc.DrawRoundedRectangle(n.X, n.Y, n.Width, n.Height, float64(s.BorderRadius))
	}
	dc.SetHexColor(s.BackgroundColor)
	dc.FillPreserve()
	dc.SetHexColor(s.BorderColor)
	dc.SetLineWidth(float64(s.BorderWidth))
	dc.Stroke()

	dc.SetFontFace(face)
	dc.SetHexColor(s.TextColor)
	text := fitText(dc, n.Text, n.Width-8)
	dc.DrawStringAnchored(text, c.X, c.Y, 0.5, 0.5)
}

// fitText trims s with an ellipsis until it is at most width pixels wide.
func fitText(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := strings.TrimRight(string(r), " ") + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}
