// Package history keeps whole-document snapshots for undo and redo.
package history

import (
	"time"

	"mindcanvas/internal/mindmap"
)

// DefaultLimit is the number of snapshots kept before the oldest is dropped.
const DefaultLimit = 50

// Entry is one snapshot and the action that produced it.
type Entry struct {
	Label string
	Doc   mindmap.MindMap
	At    time.Time
}

// Manager is a bounded list of snapshots with a cursor. The entry under the
// cursor always matches the committed document.
type Manager struct {
	entries []Entry
	index   int
	limit   int
	now     func() time.Time
}

func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{index: -1, limit: limit, now: time.Now}
}

// Reset drops every snapshot and seeds the list with doc, labelled
// "create" or "load" by convention.
func (h *Manager) Reset(doc mindmap.MindMap, label string) {
	h.entries = []Entry{{Label: label, Doc: mindmap.Clone(doc), At: h.now()}}
	h.index = 0
}

// Save records doc after a committed action. Any redo entries past the
// cursor are discarded and the oldest snapshot is evicted past the limit.
func (h *Manager) Save(doc mindmap.MindMap, label string) {
	if h.index < len(h.entries)-1 {
		h.entries = h.entries[:h.index+1]
	}
	h.entries = append(h.entries, Entry{Label: label, Doc: mindmap.Clone(doc), At: h.now()})
	if len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]Entry(nil), h.entries[drop:]...)
	}
	h.index = len(h.entries) - 1
}

// Undo steps back one snapshot and returns a copy of it.
func (h *Manager) Undo() (mindmap.MindMap, bool) {
	if !h.CanUndo() {
		return mindmap.MindMap{}, false
	}
	h.index--
	return mindmap.Clone(h.entries[h.index].Doc), true
}

// Redo steps forward one snapshot and returns a copy of it.
func (h *Manager) Redo() (mindmap.MindMap, bool) {
	if !h.CanRedo() {
		return mindmap.MindMap{}, false
	}
	h.index++
	return mindmap.Clone(h.entries[h.index].Doc), true
}

func (h *Manager) CanUndo() bool { return h.index > 0 }

func (h *Manager) CanRedo() bool { return h.index < len(h.entries)-1 }

func (h *Manager) Len() int { return len(h.entries) }

// Index is the cursor position, -1 before Reset.
func (h *Manager) Index() int { return h.index }

// Current returns the label of the snapshot under the cursor.
func (h *Manager) Current() (string, bool) {
	if h.index < 0 || h.index >= len(h.entries) {
		return "", false
	}
	return h.entries[h.index].Label, true
}

// Labels lists snapshot labels oldest first.
func (h *Manager) Labels() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Label
	}
	return out
}
