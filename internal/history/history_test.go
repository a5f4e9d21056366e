package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

func seeded(t *testing.T) (*mindmap.Engine, mindmap.MindMap, *Manager) {
	t.Helper()
	e := mindmap.NewEngine()
	doc := e.NewDocument("m", "History")
	doc, _ = e.SeedRoot(doc, "Root")
	h := New(DefaultLimit)
	h.Reset(doc, "create")
	return e, doc, h
}

func TestUndoRedoSymmetry(t *testing.T) {
	e, doc, h := seeded(t)
	initial := mindmap.Clone(doc)

	for i := 0; i < 5; i++ {
		doc, _ = e.CreateNode(doc, "", geometry.Point{X: float64(i * 200)}, fmt.Sprintf("n%d", i))
		h.Save(doc, "create")
	}
	final := mindmap.Clone(doc)

	var got mindmap.MindMap
	for i := 0; i < 5; i++ {
		var ok bool
		got, ok = h.Undo()
		require.True(t, ok)
	}
	assert.Equal(t, initial, got)
	assert.False(t, h.CanUndo())
	_, ok := h.Undo()
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		got, ok = h.Redo()
		require.True(t, ok)
	}
	assert.Equal(t, final, got)
	assert.False(t, h.CanRedo())
}

func TestSaveTruncatesFuture(t *testing.T) {
	e, doc, h := seeded(t)
	a, _ := e.CreateNode(doc, "", geometry.Point{}, "a")
	h.Save(a, "create")
	b, _ := e.CreateNode(a, "", geometry.Point{}, "b")
	h.Save(b, "create")

	_, _ = h.Undo()
	require.True(t, h.CanRedo())

	c, _ := e.CreateNode(a, "", geometry.Point{}, "c")
	h.Save(c, "create")

	assert.False(t, h.CanRedo())
	assert.Equal(t, []string{"create", "create", "create"}, h.Labels())
}

func TestHistoryCap(t *testing.T) {
	e, doc, h := seeded(t)
	for i := 0; i < 80; i++ {
		doc = e.UpdateNode(doc, doc.Nodes[0].ID, mindmap.Retext{Text: fmt.Sprint(i)})
		h.Save(doc, "edit")
		assert.LessOrEqual(t, h.Len(), DefaultLimit)
	}

	undos := 0
	var last mindmap.MindMap
	for h.CanUndo() {
		last, _ = h.Undo()
		undos++
	}
	assert.Equal(t, DefaultLimit-1, undos)
	assert.Equal(t, "30", last.Nodes[0].Text, "oldest retained snapshot")
}

func TestSnapshotsAreIsolated(t *testing.T) {
	e, doc, h := seeded(t)
	doc, n := e.CreateNode(doc, doc.Nodes[0].ID, geometry.Point{}, "child")
	h.Save(doc, "create")

	doc.Nodes[0].Children[0] = "tampered"

	got, _ := h.Undo()
	got, _ = h.Redo()
	assert.Equal(t, n.ID, got.Nodes[0].Children[0])
}
