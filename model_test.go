package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/editor"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/mindmap"
)

// newTestModel opens a map holding a root and two children in an offline
// model with a 100x30 terminal.
func newTestModel(t *testing.T) (model, []mindmap.Node) {
	t.Helper()
	config := defaultConfig("")
	config.ServerURL = ""
	config.CacheDirectory = t.TempDir()
	config.Confirmations = false

	m := initialModel(config)
	m.width, m.height = 100, 30

	e := m.engine
	doc := e.NewDocument("map_1", "Plans")
	doc, root := e.SeedRoot(doc, "Plans")
	doc, a := e.AddChild(doc, root.ID, "A")
	doc, b := e.AddChild(doc, root.ID, "B")
	doc = e.ClearSelection(doc)
	doc.Canvas.EditingNode = ""

	m.openSession(doc, editor.LabelLoad)
	return m, []mindmap.Node{root, a, b}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.handleKey(keyMsg(k))
		m = next.(model)
	}
	return m
}

func TestOpenSessionEntersNormalMode(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "NORMAL", m.modeString())
	assert.Contains(t, m.View(), "Mode: NORMAL")
}

func TestTreeNavigation(t *testing.T) {
	m, nodes := newTestModel(t)
	root, a, b := nodes[0], nodes[1], nodes[2]
	sel := func() []string { return m.session.Document().Canvas.SelectedNodes }

	m = press(t, m, "^")
	assert.Equal(t, []string{root.ID}, sel())

	m = press(t, m, "}")
	assert.Equal(t, []string{a.ID}, sel())

	m = press(t, m, "]")
	assert.Equal(t, []string{b.ID}, sel())

	m = press(t, m, "]")
	assert.Equal(t, []string{a.ID}, sel(), "siblings wrap")

	m = press(t, m, "[")
	assert.Equal(t, []string{b.ID}, sel())

	m = press(t, m, "{")
	assert.Equal(t, []string{root.ID}, sel())
}

func TestNavigationMovesSelection(t *testing.T) {
	m, nodes := newTestModel(t)
	m.session.SetSelection([]string{nodes[0].ID})

	m = press(t, m, "l")
	n, _ := m.session.Document().Node(nodes[0].ID)
	assert.Equal(t, nodes[0].X+10, n.X)

	m = press(t, m, "J")
	n, _ = m.session.Document().Node(nodes[0].ID)
	assert.Equal(t, nodes[0].Y+40, n.Y)
}

func TestNavigationPansWithoutSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "l")
	assert.Equal(t, -40.0, m.session.Document().Canvas.PanX)

	m = press(t, m, "z", "k")
	assert.Equal(t, "PAN", m.modeString())
	assert.Equal(t, 40.0, m.session.Document().Canvas.PanY)
}

func TestAddChildStartsEditing(t *testing.T) {
	m, nodes := newTestModel(t)
	m.session.SetSelection([]string{nodes[1].ID})

	m = press(t, m, "tab")
	assert.Len(t, m.session.Document().Nodes, 4)
	assert.Equal(t, interaction.EditingText, m.session.Machine().Mode())
	assert.Equal(t, "EDIT", m.modeString())
}

func TestUndoRedo(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "n", "esc")
	require.Len(t, m.session.Document().Nodes, 4)

	m = press(t, m, "u")
	assert.Len(t, m.session.Document().Nodes, 3)
	assert.Contains(t, m.successMessage, "Undid")

	m = press(t, m, "U")
	assert.Len(t, m.session.Document().Nodes, 4)
}

func TestDoubleClickEditsNode(t *testing.T) {
	m, nodes := newTestModel(t)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	// The root covers cells 40-59 by 15-17.
	click := func() {
		m.handleMouse(tea.MouseMsg{X: 45, Y: 16, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		m.handleMouse(tea.MouseMsg{X: 45, Y: 16, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
	}
	click()
	assert.Equal(t, []string{nodes[0].ID}, m.session.Document().Canvas.SelectedNodes)
	assert.Equal(t, interaction.Idle, m.session.Machine().Mode())

	clock = clock.Add(200 * time.Millisecond)
	click()
	preview := m.session.Machine().Preview()
	assert.Equal(t, interaction.EditingText, preview.Mode)
	assert.Equal(t, nodes[0].ID, preview.EditingID)
}

func TestSlowClicksAreNotDoubleClicks(t *testing.T) {
	m, _ := newTestModel(t)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		m.handleMouse(tea.MouseMsg{X: 45, Y: 16, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		m.handleMouse(tea.MouseMsg{X: 45, Y: 16, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
		clock = clock.Add(time.Second)
	}
	assert.Equal(t, interaction.Idle, m.session.Machine().Mode())
}

func TestMouseDragMovesNode(t *testing.T) {
	m, nodes := newTestModel(t)
	m.handleMouse(tea.MouseMsg{X: 45, Y: 16, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.handleMouse(tea.MouseMsg{X: 50, Y: 18, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, "MOVE", m.modeString())
	m.handleMouse(tea.MouseMsg{X: 50, Y: 18, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})

	n, _ := m.session.Document().Node(nodes[0].ID)
	assert.Equal(t, nodes[0].X+50, n.X)
	assert.Equal(t, nodes[0].Y+40, n.Y)
}

func TestDeleteSelection(t *testing.T) {
	m, nodes := newTestModel(t)
	m.session.SetSelection([]string{nodes[2].ID})

	m = press(t, m, "d")
	assert.Len(t, m.session.Document().Nodes, 2)
	assert.Equal(t, "1 node deleted", m.successMessage)
}

func TestCloseReturnsToMapList(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "o")
	assert.Nil(t, m.session)
	assert.Equal(t, ModeStartup, m.mode)
	assert.Contains(t, m.View(), "Mode: MAPS")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "q3-roadmap.png", exportFilename("Q3 Roadmap!", ExportPNG))
	assert.Equal(t, "mindmap.txt", exportFilename("???", ExportVisualTXT))
	assert.Equal(t, "a-b.pdf", exportFilename("  a  b ", ExportPDF))
}

func TestHelpScroll(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "?")
	require.True(t, m.help)
	assert.Contains(t, m.View(), "Help (1-")

	m = press(t, m, "j", "j")
	assert.Equal(t, 2, m.helpScroll)

	m = press(t, m, "esc")
	assert.False(t, m.help)
}
