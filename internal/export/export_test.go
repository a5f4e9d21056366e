package export

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/mindmap"
)

func sample() mindmap.MindMap {
	root := mindmap.Node{ID: "r", Text: "Plans & <ideas>", X: 100, Y: 100, Width: 200, Height: 60, Type: mindmap.NodeRoot}
	root.Style = mindmap.StyleFor(mindmap.NodeRoot)
	circle := mindmap.Node{ID: "c", Text: "Circle", X: 400, Y: 100, Width: 100, Height: 60, Type: mindmap.NodeBranch}
	circle.Style = mindmap.StyleFor(mindmap.NodeBranch)
	circle.Style.Shape = mindmap.ShapeCircle
	diamond := mindmap.Node{ID: "d", Text: "Diamond", X: 100, Y: 300, Width: 120, Height: 80, Type: mindmap.NodeLeaf}
	diamond.Style.Shape = mindmap.ShapeDiamond
	return mindmap.MindMap{
		ID:    "m1",
		Title: "Q3 plan: draft/v2",
		Nodes: []mindmap.Node{root, circle, diamond},
		Connections: []mindmap.Connection{
			{ID: "e1", FromNodeID: "r", ToNodeID: "c", Style: mindmap.ConnectionStyle{Style: mindmap.DashDashed}},
			{ID: "e2", FromNodeID: "r", ToNodeID: "gone"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PNG ")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Q3 plan: draft/v2", "Q3-plan-draftv2"},
		{"", "mindmap"},
		{"???", "mindmap"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}

func TestSVG(t *testing.T) {
	out, err := SVG(sample())
	require.NoError(t, err)
	svg := string(out)

	// Nodes span 100..500 x 100..380; padding is 50.
	assert.Contains(t, svg, `viewBox="50 50 500 380"`)
	assert.Contains(t, svg, `<circle cx="450" cy="130" r="30"`)
	assert.Contains(t, svg, `rx="8"`)
	assert.Contains(t, svg, `<polygon points="160,300 220,340 160,380 100,340"`)
	assert.Contains(t, svg, `stroke-dasharray="8,4"`)
	assert.Contains(t, svg, `x1="200" y1="130" x2="450" y2="130"`)
	assert.Contains(t, svg, "Plans &amp; &lt;ideas&gt;")
	assert.Equal(t, 1, strings.Count(svg, "<line "), "dangling connection skipped")
}

func TestEmptyMapCannotBeDrawn(t *testing.T) {
	_, err := SVG(mindmap.MindMap{Title: "empty"})
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = PNG(mindmap.MindMap{Title: "empty"})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPNG(t *testing.T) {
	out, err := PNG(sample())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 380, img.Bounds().Dy())

	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "background is white")
}

func TestExportJSON(t *testing.T) {
	s := NewService("")
	res, err := s.Export(context.Background(), sample(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "Q3-plan-draftv2.json", res.Filename)
	assert.Equal(t, "application/json", res.MimeType)

	var back mindmap.MindMap
	require.NoError(t, json.Unmarshal(res.Data, &back))
	assert.Len(t, back.Nodes, 3)
}

func TestExportSVGAndPNGMetadata(t *testing.T) {
	s := NewService("")
	res, err := s.Export(context.Background(), sample(), FormatSVG)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", res.MimeType)

	res, err = s.Export(context.Background(), sample(), FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, "Q3-plan-draftv2.png", res.Filename)
}

func TestPDFWithoutChrome(t *testing.T) {
	s := NewService("/definitely/not/a/chrome")
	_, err := s.Export(context.Background(), sample(), FormatPDF)
	assert.ErrorIs(t, err, ErrPDFDependencyMissing)
}

func TestPageHTML(t *testing.T) {
	m := sample()
	m.Description = "a <b> c"
	html, data, err := pageHTML(m)
	require.NoError(t, err)
	assert.NotContains(t, html, "<?xml")
	assert.Contains(t, html, "<svg ")
	assert.Contains(t, html, "a &lt;b&gt; c")
	assert.Equal(t, float64(500), data.PageWidth)
	assert.Equal(t, 380+headerHeight, data.PageHeight)
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "a%20b%3C%2F%3E~", percentEncode("a b</>~"))
	assert.Equal(t, "%C3%A9", percentEncode("é"))
}
