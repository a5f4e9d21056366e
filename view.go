package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	statusStyle   = lipgloss.NewStyle().Reverse(true)
)

func (m model) View() string {
	if m.help {
		return m.helpView()
	}

	var lines []string
	if m.session == nil {
		lines = m.startupLines()
	} else {
		s := m.session
		lines = renderCanvas(s.Display(), m.canvasWidth(), m.canvasHeight(), renderOptions{
			layout:  m.layout(),
			preview: s.Machine().Preview(),
			handles: true,
			minimap: m.showMinimap,
		}).Lines()
	}

	var result strings.Builder
	for _, line := range lines {
		result.WriteString(line)
		result.WriteString("\n")
	}
	result.WriteString(m.statusLine())
	return result.String()
}

// startupLines lists the user's maps, or search results while a search is
// active, padded to the canvas height.
func (m model) startupLines() []string {
	height := m.canvasHeight()
	lines := []string{titleStyle.Render("mindcanvas"), ""}

	if m.user != "" && !m.adapter.IsOffline() {
		lines = append(lines, dimStyle.Render("Signed in as "+m.user+" | "+m.config.ServerURL))
	} else {
		lines = append(lines, dimStyle.Render("Offline | maps are kept in "+m.config.CacheDirectory))
	}

	template := "blank"
	if id := m.selectedTemplateID(); id != "" {
		if t, err := m.catalog.Get(id); err == nil {
			template = t.Title
		}
	}
	lines = append(lines, dimStyle.Render("New map template: "+template+" (t to change)"), "")

	header := len(lines) + 1
	switch {
	case m.loading:
		lines = append(lines, "Loading...")
	case m.results != nil:
		lines = append(lines, fmt.Sprintf("Search results (%d), Esc to clear:", len(m.results)))
		if len(m.results) == 0 {
			lines = append(lines, dimStyle.Render("  No matches"))
		}
		for i, r := range m.results {
			row := fmt.Sprintf("  %s", r.Title)
			if r.Description != "" {
				row += dimStyle.Render(" - " + r.Description)
			}
			lines = append(lines, m.listRow(i, row))
		}
	case len(m.maps) == 0:
		lines = append(lines, dimStyle.Render("No mind maps yet. Press n to create one or i to import an outline."))
	default:
		lines = append(lines, "Mind maps:")
		for i, mm := range m.maps {
			row := fmt.Sprintf("  %s (%s)", mm.Title, pluralize(len(mm.Nodes), "node"))
			if m.adapter.IsLocalOnly(mm.ID) {
				row += dimStyle.Render(" [local]")
			}
			if !mm.UpdatedAt.IsZero() {
				row += dimStyle.Render(" " + mm.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			lines = append(lines, m.listRow(i, row))
		}
	}

	// Keep the selected row on screen.
	if row := header + m.selectedIndex; row >= height {
		lines = lines[row-height+1:]
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (m model) listRow(i int, row string) string {
	if i == m.selectedIndex {
		return selectedStyle.Render(">" + row[1:])
	}
	return row
}

func (m model) statusLine() string {
	var status string
	switch m.mode {
	case ModePrompt:
		status = fmt.Sprintf("Mode: %s | %s | Enter=confirm, Esc=cancel", m.modeString(), m.prompt.View())
	case ModeConfirm:
		status = fmt.Sprintf("Mode: %s | %s", m.modeString(), m.confirmMessage())
	case ModeStartup:
		status = "Mode: MAPS | Enter=open, n=new, i=import, d=delete, /=search, L=login, R=register, ? for help, q to quit"
	default:
		status = m.editorStatus()
	}

	if m.mode != ModePrompt {
		if m.errorMessage != "" {
			status += " | " + errorStyle.Render(m.errorMessage)
		} else if m.successMessage != "" {
			status += " | " + successStyle.Render(m.successMessage)
		}
	}
	return statusStyle.Render(truncate(status, m.canvasWidth()))
}

func (m model) editorStatus() string {
	doc := m.session.Document()
	title := doc.Title
	if m.session.Dirty() {
		title += "*"
	}
	conn := "online"
	if m.adapter.IsOffline() {
		conn = "offline"
	}
	if m.saving {
		conn = "saving..."
	}

	parts := []string{
		"Mode: " + m.modeString(),
		title,
		fmt.Sprintf("Zoom %d%%", int(math.Round(doc.Canvas.Zoom*100))),
		pluralize(len(doc.Nodes), "node"),
	}
	if n := len(doc.Canvas.SelectedNodes); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	parts = append(parts, conn, "? for help", "q to quit")
	return strings.Join(parts, " | ")
}

func (m model) confirmMessage() string {
	switch m.confirmAction {
	case ConfirmDeleteNodes:
		n := len(m.session.Document().Canvas.SelectedNodes)
		return fmt.Sprintf("Delete %s and their connections? (y/n)", pluralize(n, "node"))
	case ConfirmDeleteMap:
		return "Delete the selected mind map? This cannot be undone (y/n)"
	case ConfirmQuit:
		return "Save changes before quitting? (y=save and quit, n=quit, Esc=cancel)"
	case ConfirmCloseMap:
		return "Close without saving? (y/n)"
	case ConfirmOverwriteFile:
		return fmt.Sprintf("%s exists. Overwrite? (y/n)", m.exportPath)
	case ConfirmChooseExportType:
		return "Export as: p=PNG, s=SVG, j=JSON, d=PDF, t=text, Esc=cancel"
	}
	return ""
}

// truncate cuts s to width visible cells.
func truncate(s string, width int) string {
	if width < 1 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

var helpLines = []string{
	"mindcanvas Help",
	"===============",
	"",
	"Map List:",
	"---------",
	"  j/k, ↓/↑         Move through the list",
	"  Enter/o          Open the selected mind map",
	"  n                New mind map from the chosen template",
	"  t                Cycle the template for new maps",
	"  i                Import an indented outline file as a new map",
	"  d                Delete the selected mind map",
	"  /                Search your mind maps (signed in only)",
	"  Esc              Clear search results",
	"  r                Reload the list",
	"  L / R / O        Sign in / register / sign out",
	"",
	"Mouse:",
	"------",
	"  Click            Select a node, Shift/Ctrl+click to toggle",
	"  Drag node        Move the node and everything selected with it",
	"  Drag empty       Pan the canvas (also middle button or Space+drag)",
	"  Drag a handle    Connect the node to the one you release on",
	"  Double-click     Edit a node, or add one on empty canvas",
	"  Wheel            Zoom",
	"",
	"Navigation:",
	"-----------",
	"  h/←/j/↓/k/↑/l/→  Move the selection (pans when nothing is selected)",
	"  Shift+h/j/k/l    Move 2x faster",
	"  z                Toggle pan mode, hjkl then pans the canvas",
	"  Space            Toggle Space held, drag then pans",
	"  ^                Go to the root node",
	"  { / }            Go to the parent / first child",
	"  [ / ]            Previous / next sibling",
	"",
	"Nodes:",
	"------",
	"  n                New node at the centre of the view",
	"  Tab              Add a child to the selected node",
	"  e/Enter          Edit the selected node's text",
	"  a                Start a connection from the selected node",
	"  d/Del            Delete the selection and its connections",
	"  D                Delete connections touching the selection",
	"  y                Duplicate the selected node",
	"  c / p            Copy node text / paste clipboard as a node",
	"  t / T            Cycle node type / shape",
	"  Ctrl+A           Select all",
	"",
	"Editing Text:",
	"-------------",
	"  ←/→, Home/End    Move the cursor",
	"  Enter            Commit the text",
	"  Esc              Cancel the edit",
	"  Ctrl+V           Paste",
	"",
	"View:",
	"-----",
	"  +/-              Zoom in / out",
	"  0                Reset zoom",
	"  f                Zoom to fit",
	"  C                Centre the canvas",
	"  g                Toggle grid and snapping",
	"  M                Toggle the minimap",
	"",
	"General:",
	"--------",
	"  u/Ctrl+Z         Undo",
	"  U/Ctrl+Y         Redo",
	"  s/Ctrl+S         Save",
	"  S                Export (PNG, SVG, JSON, PDF or text)",
	"  r                Rename the map",
	"  o                Close the map and return to the list",
	"  Esc              Cancel the current operation",
	"  ?                Toggle this help screen",
	"  q/Ctrl+C         Quit",
}

func (m model) helpView() string {
	visibleHeight := m.height - 1
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	startLine := m.helpScroll
	if startLine > len(helpLines)-visibleHeight {
		startLine = len(helpLines) - visibleHeight
	}
	if startLine < 0 {
		startLine = 0
	}
	endLine := startLine + visibleHeight
	if endLine > len(helpLines) {
		endLine = len(helpLines)
	}

	result := strings.Join(helpLines[startLine:endLine], "\n")
	statusLine := fmt.Sprintf("Help (%d-%d of %d lines) | j/k to scroll, Esc to close",
		startLine+1, endLine, len(helpLines))
	return result + "\n" + statusLine
}
