package main

import "mindcanvas/internal/mindmap"

// Tree navigation follows ParentID and Children links. Nodes without a
// parent are treated as siblings of each other.

// getMindMapRoots lists the parentless nodes, typed roots first.
func getMindMapRoots(doc mindmap.MindMap) []string {
	var roots, rest []string
	for _, n := range doc.Nodes {
		if n.ParentID != "" && doc.HasNode(n.ParentID) {
			continue
		}
		if n.Type == mindmap.NodeRoot {
			roots = append(roots, n.ID)
		} else {
			rest = append(rest, n.ID)
		}
	}
	return append(roots, rest...)
}

// getSiblings returns the node's siblings in child order, itself included.
func getSiblings(doc mindmap.MindMap, id string) []string {
	n, ok := doc.Node(id)
	if !ok {
		return nil
	}
	if parent, ok := doc.Node(n.ParentID); ok {
		var out []string
		for _, c := range parent.Children {
			if doc.HasNode(c) {
				out = append(out, c)
			}
		}
		return out
	}
	return getMindMapRoots(doc)
}

func (m *model) goToRoot() {
	roots := getMindMapRoots(m.session.Document())
	if len(roots) == 0 {
		return
	}
	m.selectNode(roots[0])
}

func (m *model) goToParent() {
	id, ok := m.singleSelection()
	if !ok {
		m.goToRoot()
		return
	}
	n, _ := m.session.Document().Node(id)
	if n.ParentID == "" || !m.session.Document().HasNode(n.ParentID) {
		return
	}
	m.selectNode(n.ParentID)
}

func (m *model) goToFirstChild() {
	id, ok := m.singleSelection()
	if !ok {
		m.goToRoot()
		return
	}
	doc := m.session.Document()
	n, _ := doc.Node(id)
	for _, c := range n.Children {
		if doc.HasNode(c) {
			m.selectNode(c)
			return
		}
	}
}

// goToSibling moves delta places along the selected node's siblings,
// wrapping at either end.
func (m *model) goToSibling(delta int) {
	id, ok := m.singleSelection()
	if !ok {
		m.goToRoot()
		return
	}
	siblings := getSiblings(m.session.Document(), id)
	if len(siblings) < 2 {
		return
	}
	for i, s := range siblings {
		if s == id {
			next := ((i+delta)%len(siblings) + len(siblings)) % len(siblings)
			m.selectNode(siblings[next])
			return
		}
	}
}

func (m *model) selectNode(id string) {
	m.session.SetSelection([]string{id})
	m.reveal(id)
}
