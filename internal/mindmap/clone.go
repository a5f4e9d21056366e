package mindmap

// Clone returns a deep copy of m. Metadata values are copied one level deep;
// nested maps inside metadata are shared.
func Clone(m MindMap) MindMap {
	out := m
	if m.Nodes != nil {
		out.Nodes = make([]Node, len(m.Nodes))
		for i, n := range m.Nodes {
			out.Nodes[i] = cloneNode(n)
		}
	}
	if m.Connections != nil {
		out.Connections = append([]Connection(nil), m.Connections...)
	}
	out.Canvas.SelectedNodes = cloneStrings(m.Canvas.SelectedNodes)
	out.Tags = cloneStrings(m.Tags)
	out.Collaborators = cloneStrings(m.Collaborators)
	return out
}

func cloneNode(n Node) Node {
	n.Children = cloneStrings(n.Children)
	if n.Metadata != nil {
		md := make(map[string]interface{}, len(n.Metadata))
		for k, v := range n.Metadata {
			md[k] = v
		}
		n.Metadata = md
	}
	return n
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
