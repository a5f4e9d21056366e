// Package templates holds the built-in mind map templates and turns a
// template or a plain-text outline into a new document.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mindcanvas/internal/geometry"
	"mindcanvas/internal/mindmap"
)

// FromTemplateTag is added to every map created from a template.
const FromTemplateTag = "from-template"

var ErrNotFound = errors.New("template not found")

// Style lists style overrides; empty fields keep the node type's default.
type Style struct {
	BackgroundColor string `yaml:"backgroundColor" json:"backgroundColor,omitempty"`
	TextColor       string `yaml:"textColor" json:"textColor,omitempty"`
	BorderColor     string `yaml:"borderColor" json:"borderColor,omitempty"`
	BorderWidth     int    `yaml:"borderWidth" json:"borderWidth,omitempty"`
	BorderRadius    int    `yaml:"borderRadius" json:"borderRadius,omitempty"`
	FontSize        int    `yaml:"fontSize" json:"fontSize,omitempty"`
	FontWeight      string `yaml:"fontWeight" json:"fontWeight,omitempty"`
	Shape           string `yaml:"shape" json:"shape,omitempty"`
}

func (s Style) over(base mindmap.NodeStyle) mindmap.NodeStyle {
	if s.BackgroundColor != "" {
		base.BackgroundColor = s.BackgroundColor
	}
	if s.TextColor != "" {
		base.TextColor = s.TextColor
	}
	if s.BorderColor != "" {
		base.BorderColor = s.BorderColor
	}
	if s.BorderWidth > 0 {
		base.BorderWidth = s.BorderWidth
	}
	if s.BorderRadius > 0 {
		base.BorderRadius = s.BorderRadius
	}
	if s.FontSize > 0 {
		base.FontSize = s.FontSize
	}
	if s.FontWeight != "" {
		base.FontWeight = mindmap.FontWeight(s.FontWeight)
	}
	if s.Shape != "" {
		base.Shape = mindmap.Shape(s.Shape)
	}
	return base
}

type Node struct {
	ID     string           `yaml:"id" json:"id"`
	Text   string           `yaml:"text" json:"text"`
	X      float64          `yaml:"x" json:"x"`
	Y      float64          `yaml:"y" json:"y"`
	Width  float64          `yaml:"width" json:"width"`
	Height float64          `yaml:"height" json:"height"`
	Type   mindmap.NodeType `yaml:"type" json:"type"`
	Style  Style            `yaml:"style" json:"style"`
}

type ConnectionStyle struct {
	Color   string  `yaml:"color" json:"color,omitempty"`
	Width   int     `yaml:"width" json:"width,omitempty"`
	Style   string  `yaml:"style" json:"style,omitempty"`
	Opacity float64 `yaml:"opacity" json:"opacity,omitempty"`
}

type Connection struct {
	From  string          `yaml:"from" json:"from"`
	To    string          `yaml:"to" json:"to"`
	Type  string          `yaml:"type" json:"type,omitempty"`
	Style ConnectionStyle `yaml:"style" json:"style"`
}

type Template struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Description string       `yaml:"description" json:"description"`
	Category    string       `yaml:"category" json:"category"`
	Tags        []string     `yaml:"tags" json:"tags"`
	Nodes       []Node       `yaml:"nodes" json:"nodes"`
	Connections []Connection `yaml:"connections" json:"connections"`
}

//go:embed builtin.yaml
var builtinYAML []byte

// Catalog is a read-only set of templates.
type Catalog struct {
	templates []Template
}

// Builtin returns the templates shipped with the binary.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("templates: builtin.yaml: %v", err))
	}
	return c
}

// Parse reads a YAML list of templates and checks that every connection
// names nodes of its own template.
func Parse(data []byte) (*Catalog, error) {
	var ts []Template
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, t := range ts {
		ids := make(map[string]bool, len(t.Nodes))
		for _, n := range t.Nodes {
			if !n.Type.Valid() {
				return nil, fmt.Errorf("template %s: node %s: unknown type %q", t.ID, n.ID, n.Type)
			}
			ids[n.ID] = true
		}
		for _, c := range t.Connections {
			if !ids[c.From] || !ids[c.To] {
				return nil, fmt.Errorf("template %s: connection %s->%s names a missing node", t.ID, c.From, c.To)
			}
		}
	}
	return &Catalog{templates: ts}, nil
}

func (c *Catalog) All() []Template {
	return append([]Template(nil), c.templates...)
}

func (c *Catalog) Get(id string) (Template, error) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, ErrNotFound
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range c.templates {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Search matches query case-insensitively against title, description and
// tags, optionally limited to one category.
func (c *Catalog) Search(query, category string) []Template {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Template
	for _, t := range c.templates {
		if category != "" && t.Category != category {
			continue
		}
		if q == "" || matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t Template, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Instantiate builds a new document with id from t. Nodes and connections
// get fresh ids; parent, children and level follow the connections, with the
// first incoming connection deciding a node's parent. title overrides the
// template title when set.
func Instantiate(e *mindmap.Engine, t Template, id, title string) mindmap.MindMap {
	if strings.TrimSpace(title) == "" {
		title = t.Title
	}
	m := e.NewDocument(id, title)
	m.Description = t.Description
	m.Tags = append(append([]string{}, t.Tags...), FromTemplateTag)

	fresh := make(map[string]string, len(t.Nodes))
	for _, tn := range t.Nodes {
		var n mindmap.Node
		m, n = e.CreateNode(m, "", geometry.Point{X: tn.X, Y: tn.Y}, tn.Text)
		w, h := tn.Width, tn.Height
		if w == 0 {
			w = mindmap.DefaultNodeWidth
		}
		if h == 0 {
			h = mindmap.DefaultNodeHeight
		}
		m = e.UpdateNode(m, n.ID,
			mindmap.Retype{Type: tn.Type},
			mindmap.Resize{Width: w, Height: h},
			mindmap.Restyle{Style: tn.Style.over(mindmap.StyleFor(tn.Type))},
		)
		fresh[tn.ID] = n.ID
	}

	for _, tc := range t.Connections {
		var conn mindmap.Connection
		var ok bool
		m, conn, ok = e.CreateConnection(m, fresh[tc.From], fresh[tc.To])
		if !ok {
			continue
		}
		var muts []mindmap.ConnectionMutation
		if tc.Type != "" {
			muts = append(muts, mindmap.SetConnectionType{Type: mindmap.ConnectionType(tc.Type)})
		}
		if tc.Style != (ConnectionStyle{}) {
			muts = append(muts, mindmap.RestyleConnection{Style: connStyle(tc.Style)})
		}
		m = e.UpdateConnection(m, conn.ID, muts...)
	}

	m = deriveHierarchy(m)
	return e.ClearSelection(m)
}

func connStyle(s ConnectionStyle) mindmap.ConnectionStyle {
	out := mindmap.DefaultConnectionStyle
	if s.Color != "" {
		out.Color = s.Color
	}
	if s.Width > 0 {
		out.Width = s.Width
	}
	if s.Style != "" {
		out.Style = mindmap.DashStyle(s.Style)
	}
	if s.Opacity > 0 {
		out.Opacity = s.Opacity
	}
	return out
}

// deriveHierarchy sets parentId, children and level from the connections.
// Roots sit at level 0; nodes no connection reaches from a root stay at 0.
func deriveHierarchy(m mindmap.MindMap) mindmap.MindMap {
	m = mindmap.Clone(m)
	index := make(map[string]int, len(m.Nodes))
	for i := range m.Nodes {
		n := &m.Nodes[i]
		n.ParentID = ""
		n.Children = []string{}
		n.Level = 0
		index[n.ID] = i
	}
	for _, c := range m.Connections {
		from, to := index[c.FromNodeID], index[c.ToNodeID]
		child := &m.Nodes[to]
		if child.ParentID != "" || child.Type == mindmap.NodeRoot {
			continue
		}
		child.ParentID = c.FromNodeID
		m.Nodes[from].Children = append(m.Nodes[from].Children, child.ID)
	}

	var queue []int
	for i, n := range m.Nodes {
		if n.ParentID == "" {
			queue = append(queue, i)
		}
	}
	seen := make(map[int]bool, len(m.Nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if seen[i] {
			continue
		}
		seen[i] = true
		for _, cid := range m.Nodes[i].Children {
			j := index[cid]
			m.Nodes[j].Level = m.Nodes[i].Level + 1
			queue = append(queue, j)
		}
	}
	return m
}
