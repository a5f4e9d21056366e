package main

func (m *model) undo() {
	if m.session == nil {
		return
	}
	label := m.historyLabel()
	if !m.session.Undo() {
		m.errorMessage = "Nothing to undo"
		return
	}
	m.successMessage = "Undid " + label
}

func (m *model) redo() {
	if m.session == nil {
		return
	}
	if !m.session.Redo() {
		m.errorMessage = "Nothing to redo"
		return
	}
	m.successMessage = "Redid " + m.historyLabel()
}

// historyLabel names the snapshot under the history cursor.
func (m *model) historyLabel() string {
	label, ok := m.session.History().Current()
	if !ok || label == "" {
		return "change"
	}
	return label
}
