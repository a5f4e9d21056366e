package interaction_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/editor"
	"mindcanvas/internal/geometry"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/mindmap"
)

func testEngine() *mindmap.Engine {
	seq := 0
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &mindmap.Engine{
		Now: func() time.Time { return clock },
		NewID: func(prefix string) string {
			seq++
			return fmt.Sprintf("%s_%d", prefix, seq)
		},
	}
}

// openSession returns a session at zoom 1 and pan 0 on an 800x600 view, so
// screen and world coordinates coincide. The root "A" spans
// (400,300)-(600,360).
func openSession(t *testing.T) (*editor.Session, mindmap.Node) {
	t.Helper()
	e := testEngine()
	doc := e.NewDocument("map_1", "Machine")
	doc, root := e.SeedRoot(doc, "A")
	require.NotEmpty(t, root.ID)
	s := editor.Open(doc, editor.LabelCreate, editor.WithEngine(e), editor.WithViewSize(800, 600))
	return s, root
}

// createByDoubleClick adds a node at (x,y) and commits its default text.
func createByDoubleClick(t *testing.T, s *editor.Session, x, y float64) mindmap.Node {
	t.Helper()
	before := len(s.Document().Nodes)
	s.Handle(interaction.DoubleClickAt(x, y))
	require.Len(t, s.Document().Nodes, before+1)
	require.Equal(t, interaction.EditingText, s.Machine().Mode())
	s.Handle(interaction.Key(interaction.KeyEnter))
	require.Equal(t, interaction.Idle, s.Machine().Mode())
	return s.Document().Nodes[before]
}

func TestDoubleClickCreatesAndConnects(t *testing.T) {
	s, a := openSession(t)

	b := createByDoubleClick(t, s, 650, 300)
	assert.Equal(t, interaction.NewNodeText, b.Text)
	assert.Equal(t, mindmap.NodeBranch, b.Type)
	assert.Equal(t, 650.0, b.X)
	assert.Empty(t, s.Document().Canvas.EditingNode)

	s.Machine().StartConnecting(a.ID)
	require.Equal(t, interaction.ConnectingFrom, s.Machine().Mode())
	s.Handle(interaction.Down(700, 320))
	s.Handle(interaction.Up(700, 320))

	conns := s.Document().Connections
	require.Len(t, conns, 1)
	assert.Equal(t, a.ID, conns[0].FromNodeID)
	assert.Equal(t, b.ID, conns[0].ToNodeID)
	assert.Equal(t, interaction.Idle, s.Machine().Mode())
}

func TestDragPreviewDoesNotCommit(t *testing.T) {
	s, a := openSession(t)
	undoDepth := s.History().Len()

	s.Handle(interaction.Down(450, 320))
	require.Equal(t, interaction.DraggingNode, s.Machine().Mode())
	s.Handle(interaction.Move(500, 340))
	s.Handle(interaction.Move(550, 370))

	committed, _ := s.Document().Node(a.ID)
	assert.Equal(t, 400.0, committed.X)
	assert.Equal(t, 300.0, committed.Y)
	assert.Equal(t, undoDepth, s.History().Len())

	preview := s.Machine().Preview()
	assert.Equal(t, geometry.Point{X: 500, Y: 350}, preview.Positions[a.ID])
	shown, _ := s.Display().Node(a.ID)
	assert.Equal(t, 500.0, shown.X)

	s.Handle(interaction.Up(550, 370))
	moved, _ := s.Document().Node(a.ID)
	assert.Equal(t, 500.0, moved.X)
	assert.Equal(t, 350.0, moved.Y)
	assert.Equal(t, undoDepth+1, s.History().Len())
	assert.Equal(t, interaction.Idle, s.Machine().Mode())

	require.True(t, s.Undo())
	back, _ := s.Document().Node(a.ID)
	assert.Equal(t, 400.0, back.X)
}

func TestClickWithoutMovingRecordsNothing(t *testing.T) {
	s, a := openSession(t)
	depth := s.History().Len()

	s.Handle(interaction.Down(450, 320))
	s.Handle(interaction.Up(450, 320))

	assert.Equal(t, []string{a.ID}, s.Document().Canvas.SelectedNodes)
	assert.Equal(t, depth, s.History().Len())
	assert.False(t, s.Dirty())
}

func TestDragMovesWholeSelection(t *testing.T) {
	s, a := openSession(t)
	b := createByDoubleClick(t, s, 100, 100)

	s.Handle(interaction.Event{Kind: interaction.PointerDown, Point: geometry.Point{X: 450, Y: 320}, Toggle: true})
	s.Handle(interaction.Up(450, 320))
	s.Handle(interaction.Event{Kind: interaction.PointerDown, Point: geometry.Point{X: 120, Y: 120}, Toggle: true})
	s.Handle(interaction.Up(120, 120))
	// b was already selected after creation, so the toggle dropped it.
	require.Equal(t, []string{a.ID}, s.Document().Canvas.SelectedNodes)
	s.Handle(interaction.Event{Kind: interaction.PointerDown, Point: geometry.Point{X: 120, Y: 120}, Toggle: true})
	s.Handle(interaction.Up(120, 120))
	require.ElementsMatch(t, []string{a.ID, b.ID}, s.Document().Canvas.SelectedNodes)

	s.Handle(interaction.Down(450, 320))
	s.Handle(interaction.Move(500, 330))
	s.Handle(interaction.Up(500, 330))

	na, _ := s.Document().Node(a.ID)
	nb, _ := s.Document().Node(b.ID)
	assert.Equal(t, geometry.Point{X: 450, Y: 310}, geometry.Point{X: na.X, Y: na.Y})
	assert.Equal(t, geometry.Point{X: 150, Y: 110}, geometry.Point{X: nb.X, Y: nb.Y})
}

func TestPanIsClamped(t *testing.T) {
	s, _ := openSession(t)
	s.SetBounds(geometry.Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000})

	s.Handle(interaction.Down(100, 100))
	require.Equal(t, interaction.PanningCanvas, s.Machine().Mode())
	s.Handle(interaction.Move(5000, 5000))

	c := s.Document().Canvas
	assert.Equal(t, 400.0, c.PanX)
	assert.Equal(t, 300.0, c.PanY)

	s.Handle(interaction.Move(-5000, -5000))
	c = s.Document().Canvas
	assert.Equal(t, -600.0, c.PanX)
	assert.Equal(t, -700.0, c.PanY)

	s.Handle(interaction.Up(-5000, -5000))
	assert.Equal(t, interaction.Idle, s.Machine().Mode())
	assert.False(t, s.Dirty(), "panning is not a content change")
}

func TestSpaceHeldPansOverNode(t *testing.T) {
	s, a := openSession(t)

	s.Handle(interaction.Key(interaction.KeySpace))
	assert.True(t, s.Machine().SpaceHeld())
	s.Handle(interaction.Down(450, 320))
	assert.Equal(t, interaction.PanningCanvas, s.Machine().Mode())
	s.Handle(interaction.Move(470, 330))
	s.Handle(interaction.Up(470, 330))

	n, _ := s.Document().Node(a.ID)
	assert.Equal(t, 400.0, n.X)
	assert.Equal(t, 20.0, s.Document().Canvas.PanX)
	assert.Equal(t, 10.0, s.Document().Canvas.PanY)

	s.Handle(interaction.KeyRelease(interaction.KeySpace))
	assert.False(t, s.Machine().SpaceHeld())
}

func TestMiddleButtonPans(t *testing.T) {
	s, _ := openSession(t)
	s.Handle(interaction.Event{Kind: interaction.PointerDown, Point: geometry.Point{X: 450, Y: 320}, Button: interaction.ButtonMiddle})
	assert.Equal(t, interaction.PanningCanvas, s.Machine().Mode())
}

func TestConnectViaHandle(t *testing.T) {
	s, a := openSession(t)
	b := createByDoubleClick(t, s, 700, 300)

	s.Handle(interaction.Down(450, 320))
	s.Handle(interaction.Up(450, 320))

	// right handle of A is centred at (608, 330)
	s.Handle(interaction.Down(608, 330))
	require.Equal(t, interaction.ConnectingFrom, s.Machine().Mode())
	assert.Equal(t, a.ID, s.Machine().Subject())

	s.Handle(interaction.Move(750, 320))
	p := s.Machine().Preview()
	assert.True(t, p.Connecting)
	assert.Equal(t, a.Center(), p.LineFrom)
	assert.Equal(t, geometry.Point{X: 750, Y: 320}, p.LineTo)

	s.Handle(interaction.Down(750, 320))
	require.Len(t, s.Document().Connections, 1)
	assert.Equal(t, b.ID, s.Document().Connections[0].ToNodeID)
}

func TestConnectingCancels(t *testing.T) {
	s, a := openSession(t)

	t.Run("press on empty canvas", func(t *testing.T) {
		s.Machine().StartConnecting(a.ID)
		s.Handle(interaction.Down(50, 50))
		assert.Equal(t, interaction.Idle, s.Machine().Mode())
		assert.Empty(t, s.Document().Connections)
	})

	t.Run("press on the source itself", func(t *testing.T) {
		s.Machine().StartConnecting(a.ID)
		s.Handle(interaction.Down(450, 320))
		assert.Equal(t, interaction.Idle, s.Machine().Mode())
		assert.Empty(t, s.Document().Connections)
	})

	t.Run("escape", func(t *testing.T) {
		s.Machine().StartConnecting(a.ID)
		s.Handle(interaction.Key(interaction.KeyEscape))
		assert.Equal(t, interaction.Idle, s.Machine().Mode())
	})
}

func TestEscapeClearsSelection(t *testing.T) {
	s, a := openSession(t)
	s.SetSelection([]string{a.ID})
	s.Handle(interaction.Key(interaction.KeyEscape))
	assert.Empty(t, s.Document().Canvas.SelectedNodes)
}

func TestDeleteKey(t *testing.T) {
	s, a := openSession(t)
	b := createByDoubleClick(t, s, 700, 300)
	require.True(t, s.Connect(a.ID, b.ID))

	s.SetSelection([]string{b.ID})
	s.Handle(interaction.Key(interaction.KeyDelete))

	doc := s.Document()
	assert.False(t, doc.HasNode(b.ID))
	assert.Empty(t, doc.Connections)
	assert.Empty(t, doc.Canvas.SelectedNodes)
}

func TestDeleteKeyIgnoredWhileEditing(t *testing.T) {
	s, a := openSession(t)
	s.Handle(interaction.DoubleClickAt(450, 320))
	require.Equal(t, interaction.EditingText, s.Machine().Mode())
	assert.Equal(t, a.ID, s.Document().Canvas.EditingNode)

	s.Handle(interaction.Key(interaction.KeyBackspace))
	s.Handle(interaction.Key(interaction.KeyDelete))
	assert.True(t, s.Document().HasNode(a.ID))
	assert.Equal(t, "", s.Machine().Preview().EditText)
}

func TestTextEditing(t *testing.T) {
	s, a := openSession(t)
	depth := s.History().Len()

	s.Handle(interaction.DoubleClickAt(450, 320))
	for _, k := range []string{interaction.KeyHome, "x", interaction.KeyEnd, interaction.KeySpace, "é"} {
		s.Handle(interaction.Key(k))
	}
	s.Handle(interaction.Key(interaction.KeyLeft))
	s.Handle(interaction.Key(interaction.KeyBackspace))
	s.Machine().InsertText("ok")

	p := s.Machine().Preview()
	assert.Equal(t, "xAoké", p.EditText)
	assert.Equal(t, 4, p.Cursor)
	shown, _ := s.Display().Node(a.ID)
	assert.Equal(t, "xAoké", shown.Text)
	committed, _ := s.Document().Node(a.ID)
	assert.Equal(t, "A", committed.Text)

	s.Handle(interaction.Key(interaction.KeyEscape))
	committed, _ = s.Document().Node(a.ID)
	assert.Equal(t, "xAoké", committed.Text)
	assert.Empty(t, s.Document().Canvas.EditingNode)
	assert.Equal(t, depth+1, s.History().Len())
}

func TestClickElsewhereCommitsEdit(t *testing.T) {
	s, a := openSession(t)
	s.Handle(interaction.DoubleClickAt(450, 320))
	s.Handle(interaction.Key("!"))

	s.Handle(interaction.Down(450, 320))
	assert.Equal(t, interaction.EditingText, s.Machine().Mode(), "press inside the edited node keeps editing")

	s.Handle(interaction.Down(50, 50))
	n, _ := s.Document().Node(a.ID)
	assert.Equal(t, "A!", n.Text)
	assert.Equal(t, interaction.PanningCanvas, s.Machine().Mode())
}

func TestWheelZooms(t *testing.T) {
	s, _ := openSession(t)
	s.Handle(interaction.WheelBy(-1))
	assert.InDelta(t, 1.2, s.Document().Canvas.Zoom, 1e-9)
	s.Handle(interaction.WheelBy(1))
	s.Handle(interaction.WheelBy(1))
	assert.InDelta(t, 1/1.2, s.Document().Canvas.Zoom, 1e-9)

	for i := 0; i < 40; i++ {
		s.Handle(interaction.WheelBy(1))
	}
	assert.Equal(t, mindmap.MinZoom, s.Document().Canvas.Zoom)
}

func TestUndoDuringDragAbandonsGesture(t *testing.T) {
	s, _ := openSession(t)
	b := createByDoubleClick(t, s, 700, 300)

	s.Handle(interaction.Down(720, 320))
	require.Equal(t, interaction.DraggingNode, s.Machine().Mode())
	require.True(t, s.Undo())
	assert.False(t, s.Document().HasNode(b.ID))
	assert.Equal(t, interaction.Idle, s.Machine().Mode())

	s.Handle(interaction.Move(760, 340))
	s.Handle(interaction.Up(760, 340))
	assert.Len(t, s.Document().Nodes, 1)
}

func TestHoverShowsHandles(t *testing.T) {
	s, a := openSession(t)
	s.Handle(interaction.Move(450, 320))
	assert.Equal(t, a.ID, s.Machine().Preview().HoverID)

	// moving onto the handle keeps the hover so the handle stays pressable
	s.Handle(interaction.Move(608, 330))
	assert.Equal(t, a.ID, s.Machine().Preview().HoverID)
	s.Handle(interaction.Down(608, 330))
	assert.Equal(t, interaction.ConnectingFrom, s.Machine().Mode())

	s.Handle(interaction.Key(interaction.KeyEscape))
	s.Handle(interaction.Move(50, 50))
	assert.Empty(t, s.Machine().Preview().HoverID)
}

func TestHandlesFor(t *testing.T) {
	n := mindmap.Node{ID: "n", X: 100, Y: 100, Width: 100, Height: 50}
	hs := interaction.HandlesFor(n, geometry.Viewport{Zoom: 2, PanX: 10, PanY: 0})
	require.Len(t, hs, 4)
	// screen rect is (210,200)-(410,300)
	assert.Equal(t, geometry.Rect{X: 302, Y: 184, Width: 16, Height: 16}, hs[interaction.SideTop].Rect)
	assert.Equal(t, geometry.Rect{X: 410, Y: 242, Width: 16, Height: 16}, hs[interaction.SideRight].Rect)
	assert.Equal(t, geometry.Rect{X: 302, Y: 300, Width: 16, Height: 16}, hs[interaction.SideBottom].Rect)
	assert.Equal(t, geometry.Rect{X: 194, Y: 242, Width: 16, Height: 16}, hs[interaction.SideLeft].Rect)
}
