package mindmap

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mindcanvas/internal/apperr"
)

// FieldError is one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the document constraints and returns an apperr
// validation error listing every violation, or nil.
func Validate(m MindMap) error {
	var errs []FieldError
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	title := strings.TrimSpace(m.Title)
	if title == "" {
		add("title", "title is required")
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		add("title", "title must be at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(m.Description) > MaxDescriptionLength {
		add("description", "description must be at most %d characters", MaxDescriptionLength)
	}
	for i, tag := range m.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			add(fmt.Sprintf("tags[%d]", i), "tag must be at most %d characters", MaxTagLength)
		}
	}
	if m.Version < 1 {
		add("version", "version must be at least 1")
	}

	ids := make(map[string]Node, len(m.Nodes))
	for i, n := range m.Nodes {
		f := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			add(f+".id", "id is required")
		} else if _, dup := ids[n.ID]; dup {
			add(f+".id", "duplicate node id %q", n.ID)
		}
		ids[n.ID] = n
		if n.Width < MinNodeWidth {
			add(f+".width", "width must be at least %g", MinNodeWidth)
		}
		if n.Height < MinNodeHeight {
			add(f+".height", "height must be at least %g", MinNodeHeight)
		}
		if n.Level < 0 {
			add(f+".level", "level must not be negative")
		}
		if !n.Type.Valid() {
			add(f+".type", "unknown node type %q", n.Type)
		}
		if n.Style.BorderWidth < 0 || n.Style.BorderWidth > 10 {
			add(f+".style.borderWidth", "borderWidth must be between 0 and 10")
		}
		if n.Style.BorderRadius < 0 || n.Style.BorderRadius > 50 {
			add(f+".style.borderRadius", "borderRadius must be between 0 and 50")
		}
		if n.Style.FontSize < 8 || n.Style.FontSize > 32 {
			add(f+".style.fontSize", "fontSize must be between 8 and 32")
		}
	}
	for i, n := range m.Nodes {
		if n.ParentID == "" {
			if n.Level != 0 {
				add(fmt.Sprintf("nodes[%d].level", i), "a node without parent must be level 0")
			}
			continue
		}
		if p, ok := ids[n.ParentID]; ok && n.Level != p.Level+1 {
			add(fmt.Sprintf("nodes[%d].level", i), "level must be parent level + 1")
		}
	}

	for i, c := range m.Connections {
		f := fmt.Sprintf("connections[%d]", i)
		if _, ok := ids[c.FromNodeID]; !ok {
			add(f+".fromNodeId", "unknown node %q", c.FromNodeID)
		}
		if _, ok := ids[c.ToNodeID]; !ok {
			add(f+".toNodeId", "unknown node %q", c.ToNodeID)
		}
		if c.Style.Width < 1 || c.Style.Width > 10 {
			add(f+".style.width", "width must be between 1 and 10")
		}
		if c.Style.Opacity < 0 || c.Style.Opacity > 1 {
			add(f+".style.opacity", "opacity must be between 0 and 1")
		}
	}

	cs := m.Canvas
	if cs.Zoom < MinZoom || cs.Zoom > MaxZoom {
		add("canvas.zoom", "zoom must be between %g and %g", MinZoom, MaxZoom)
	}
	if cs.GridSize < 10 || cs.GridSize > 100 {
		add("canvas.gridSize", "gridSize must be between 10 and 100")
	}
	for _, id := range cs.SelectedNodes {
		if _, ok := ids[id]; !ok {
			add("canvas.selectedNodes", "unknown node %q", id)
		}
	}
	if cs.EditingNode != "" {
		if _, ok := ids[cs.EditingNode]; !ok {
			add("canvas.editingNode", "unknown node %q", cs.EditingNode)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return apperr.Validation(errs[0].Message, errs)
}

// Sanitize fills defaults a stored document may lack and drops references
// the model does not allow: dangling connections, unknown selection
// entries, out-of-range zoom.
func Sanitize(m MindMap) MindMap {
	out := Clone(m)
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Connections == nil {
		out.Connections = []Connection{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Collaborators == nil {
		out.Collaborators = []string{}
	}
	if out.Version < 1 {
		out.Version = 1
	}
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if n.Children == nil {
			n.Children = []string{}
		}
		if !n.Type.Valid() {
			n.Type = NodeBranch
		}
		if n.Style == (NodeStyle{}) {
			n.Style = StyleFor(n.Type)
		}
		n.Style = clampStyle(n.Style)
		if n.Width < MinNodeWidth {
			n.Width = DefaultNodeWidth
		}
		if n.Height < MinNodeHeight {
			n.Height = DefaultNodeHeight
		}
	}

	conns := out.Connections[:0]
	for _, c := range out.Connections {
		if !out.HasNode(c.FromNodeID) || !out.HasNode(c.ToNodeID) {
			continue
		}
		if c.Type == "" {
			c.Type = ConnStraight
		}
		if c.Style == (ConnectionStyle{}) {
			c.Style = DefaultConnectionStyle
		}
		conns = append(conns, c)
	}
	out.Connections = conns

	if out.Canvas.Zoom == 0 {
		out.Canvas.Zoom = 1
	}
	out.Canvas.Zoom = ClampZoom(out.Canvas.Zoom)
	if out.Canvas.GridSize == 0 {
		out.Canvas.GridSize = DefaultGridSize
	}
	out.Canvas.GridSize = clampInt(out.Canvas.GridSize, 10, 100)
	if out.Canvas.Bounds.Empty() {
		out.Canvas.Bounds = DefaultBounds
	}
	SetSelection{IDs: out.Canvas.SelectedNodes}.applyCanvas(&out)
	SetEditing{ID: out.Canvas.EditingNode}.applyCanvas(&out)
	return out
}
