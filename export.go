package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"mindcanvas/internal/export"
	"mindcanvas/internal/interaction"
)

// exportKeys maps the key pressed at the export prompt to a format.
var exportKeys = map[string]ExportKind{
	"p": ExportPNG,
	"s": ExportSVG,
	"j": ExportJSON,
	"d": ExportPDF,
	"t": ExportVisualTXT,
}

func exportExtension(kind ExportKind) string {
	switch kind {
	case ExportSVG:
		return ".svg"
	case ExportJSON:
		return ".json"
	case ExportPDF:
		return ".pdf"
	case ExportVisualTXT:
		return ".txt"
	}
	return ".png"
}

func exportFormat(kind ExportKind) export.Format {
	switch kind {
	case ExportSVG:
		return export.FormatSVG
	case ExportJSON:
		return export.FormatJSON
	case ExportPDF:
		return export.FormatPDF
	}
	return export.FormatPNG
}

// exportFilename suggests a file name for title: lowercase, runs of
// anything but letters and digits collapsed to one dash.
func exportFilename(title string, kind ExportKind) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteRune('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		slug = "mindmap"
	}
	return slug + exportExtension(kind)
}

func (m model) runExport(path string) (tea.Model, tea.Cmd) {
	m.mode = m.baseMode()
	if m.session == nil {
		return m, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		os.MkdirAll(dir, 0755)
	}

	if m.exportKind == ExportVisualTXT {
		if err := m.exportVisualTXT(path); err != nil {
			m.errorMessage = describeError(err)
			return m, nil
		}
		m.successMessage = "Exported to " + path
		return m, nil
	}
	m.successMessage = "Exporting..."
	return m, exportCmd(m.session.Document(), exportFormat(m.exportKind), path)
}

// exportVisualTXT writes the canvas as it looks on screen, without the
// selection handles, minimap or an in-progress connection.
func (m *model) exportVisualTXT(filename string) error {
	doc := m.session.Document()
	if len(doc.Nodes) == 0 {
		return export.ErrEmpty
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	width := m.width
	if width < 1 {
		width = 80
	}
	height := m.canvasHeight()
	if m.height < 2 {
		height = 24
	}

	grid := renderCanvas(doc, width, height, renderOptions{
		layout:  m.layout(),
		preview: interaction.Preview{Mode: interaction.Idle},
	})
	for _, line := range grid.Plain() {
		if _, err := fmt.Fprintln(file, line); err != nil {
			return err
		}
	}
	return nil
}
