package export

import (
	"context"
	"encoding/json"
	"fmt"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

// Service renders mind maps. ChromePath, when set, is the browser used for
// PDF output; otherwise one is looked up on PATH.
type Service struct {
	ChromePath string
}

func NewService(chromePath string) *Service {
	return &Service{ChromePath: chromePath}
}

// Export renders m in format f.
func (s *Service) Export(ctx context.Context, m mindmap.MindMap, f Format) (*Result, error) {
	name := sanitizeFilename(m.Title)
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return &Result{Data: data, Filename: name + ".json", MimeType: "application/json"}, nil
	case FormatSVG:
		data, err := SVG(m)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: name + ".svg", MimeType: "image/svg+xml"}, nil
	case FormatPNG:
		data, err := PNG(m)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: name + ".png", MimeType: "image/png"}, nil
	case FormatPDF:
		data, err := s.PDF(ctx, m)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: name + ".pdf", MimeType: "application/pdf"}, nil
	}
	return nil, ErrUnsupportedFormat
}

// frame is the padded drawing area around every node.
func frame(m mindmap.MindMap) (geometry.Rect, error) {
	content, ok := m.ContentBounds()
	if !ok {
		return geometry.Rect{}, ErrEmpty
	}
	return content.Expand(padding), nil
}

// edge is a connection resolved to its two node centres.
type edge struct {
	From, To geometry.Point
	Style    mindmap.ConnectionStyle
}

func edges(m mindmap.MindMap) []edge {
	out := make([]edge, 0, len(m.Connections))
	for _, c := range m.Connections {
		from, ok1 := m.Node(c.FromNodeID)
		to, ok2 := m.Node(c.ToNodeID)
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, edge{From: from.Center(), To: to.Center(), Style: connStyle(c.Style)})
	}
	return out
}

func connStyle(s mindmap.ConnectionStyle) mindmap.ConnectionStyle {
	d := mindmap.DefaultConnectionStyle
	if s.Color == "" {
		s.Color = d.Color
	}
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Opacity <= 0 {
		s.Opacity = d.Opacity
	}
	if s.Style == "" {
		s.Style = d.Style
	}
	return s
}

// nodeStyle fills unset style fields from the type's defaults.
func nodeStyle(n mindmap.Node) mindmap.NodeStyle {
	s := n.Style
	d := mindmap.StyleFor(n.Type)
	if s.BackgroundColor == "" {
		s.BackgroundColor = d.BackgroundColor
	}
	if s.TextColor == "" {
		s.TextColor = d.TextColor
	}
	if s.BorderColor == "" {
		s.BorderColor = d.BorderColor
	}
	if s.BorderWidth <= 0 {
		s.BorderWidth = d.BorderWidth
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.FontWeight == "" {
		s.FontWeight = d.FontWeight
	}
	if s.Shape == "" {
		s.Shape = mindmap.ShapeRectangle
	}
	return s
}
