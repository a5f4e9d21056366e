package templates

import (
	"bufio"
	"errors"
	"strings"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

var ErrEmptyOutline = errors.New("outline has no items")

const (
	outlineColumn = 260.0
	outlineRow    = 80.0
	tabWidth      = 4
)

type outlineItem struct {
	depth int
	text  string
}

// parseOutline reads one item per non-blank line. Indentation (tabs count
// as four spaces) gives the nesting; list markers and heading hashes are
// stripped.
func parseOutline(text string) []outlineItem {
	var items []outlineItem
	var indents []int
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		width := 0
		for _, r := range line {
			if r == ' ' {
				width++
			} else if r == '\t' {
				width += tabWidth
			} else {
				break
			}
		}
		for len(indents) > 0 && indents[len(indents)-1] >= width {
			if indents[len(indents)-1] == width {
				break
			}
			indents = indents[:len(indents)-1]
		}
		if len(indents) == 0 || indents[len(indents)-1] < width {
			indents = append(indents, width)
		}
		items = append(items, outlineItem{depth: len(indents) - 1, text: cleanItem(line)})
	}
	return items
}

func cleanItem(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(s, marker) {
			s = s[len(marker):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// FromOutline builds a map from an indented outline. A single top-level
// item becomes the root; several top-level items hang under a root named
// title. Nodes are laid out one column per level and one row per item.
func FromOutline(e *mindmap.Engine, id, title, text string) (mindmap.MindMap, error) {
	items := parseOutline(text)
	if len(items) == 0 {
		return mindmap.MindMap{}, ErrEmptyOutline
	}

	top := 0
	for _, it := range items {
		if it.depth == 0 {
			top++
		}
	}
	rootText := title
	if top == 1 {
		rootText = items[0].text
		items = items[1:]
		for i := range items {
			items[i].depth--
		}
	}
	if strings.TrimSpace(rootText) == "" {
		rootText = "Imported outline"
	}
	if strings.TrimSpace(title) == "" {
		title = rootText
	}

	m := e.NewDocument(id, title)
	m, root := e.SeedRoot(m, rootText)
	m.Tags = []string{"imported"}

	// parents[d] is the most recent node at depth d-1.
	parents := []mindmap.Node{root}
	for row, it := range items {
		depth := it.depth + 1
		if depth > len(parents) {
			depth = len(parents)
		}
		parents = parents[:depth]
		parent := parents[depth-1]
		pos := geometry.Point{
			X: root.X + float64(depth)*outlineColumn,
			Y: root.Y + float64(row+1)*outlineRow,
		}
		var n mindmap.Node
		m, n = e.CreateNode(m, parent.ID, pos, it.text)
		if depth > 1 {
			m = e.UpdateNode(m, n.ID, mindmap.Retype{Type: mindmap.NodeLeaf, ApplyStyle: true})
		}
		m, _, _ = e.CreateConnection(m, parent.ID, n.ID)
		parents = append(parents, n)
	}
	return e.ClearSelection(m), nil
}
