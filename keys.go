package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"mindcanvas/internal/interaction"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" && m.mode != ModeConfirm {
		return m.requestQuit()
	}
	if m.help {
		m.handleHelpKey(key)
		return m, nil
	}

	switch m.mode {
	case ModePrompt:
		return m.handlePromptKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(key)
	case ModeStartup:
		return m.handleStartupKey(key)
	}
	if m.session == nil {
		m.mode = ModeStartup
		return m, nil
	}
	return m.handleNormalKey(msg)
}

func (m *model) handleHelpKey(key string) {
	switch key {
	case "esc", "q", "?":
		m.help = false
		m.helpScroll = 0
	case "j", "down":
		if m.helpScroll < len(helpLines)-1 {
			m.helpScroll++
		}
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	case "g", "home":
		m.helpScroll = 0
	}
}

func (m model) handleStartupKey(key string) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.help = true
		m.helpScroll = 0
	case "j", "down":
		m.selectedIndex++
		m.clampSelection()
	case "k", "up":
		m.selectedIndex--
		m.clampSelection()
	case "enter", "o":
		id, ok := m.selectedMapID()
		if !ok {
			return m, nil
		}
		m.loading = true
		return m, openMapCmd(m.adapter, id)
	case "n":
		m.startPrompt(PromptNewMap, "Title: ", "")
	case "t":
		all := m.catalog.All()
		m.templateIndex++
		if m.templateIndex >= len(all) {
			m.templateIndex = -1
		}
	case "i":
		m.startPrompt(PromptImport, "Outline file: ", "")
	case "d":
		if _, ok := m.selectedMapID(); !ok {
			return m, nil
		}
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteMap
			return m, nil
		}
		return m.deleteSelectedMap()
	case "/":
		if m.adapter.IsOffline() {
			m.errorMessage = "Sign in to search"
			return m, nil
		}
		m.startPrompt(PromptSearch, "Search: ", "")
	case "esc":
		m.results = nil
		m.clampSelection()
	case "r":
		m.loading = true
		return m, loadMapsCmd(m.adapter)
	case "L", "R":
		if m.remote == nil {
			m.errorMessage = "No server configured"
			return m, nil
		}
		m.registering = key == "R"
		if m.registering {
			m.startPrompt(PromptName, "Name: ", "")
		} else {
			m.startPrompt(PromptEmail, "Email: ", m.config.Email)
		}
	case "O":
		if m.remote == nil || m.user == "" {
			return m, nil
		}
		return m, logoutCmd(m.remote)
	}
	return m, nil
}

func (m model) selectedMapID() (string, bool) {
	if m.results != nil {
		if m.selectedIndex < 0 || m.selectedIndex >= len(m.results) {
			return "", false
		}
		return m.results[m.selectedIndex].ID, true
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.maps) {
		return "", false
	}
	return m.maps[m.selectedIndex].ID, true
}

func (m model) deleteSelectedMap() (tea.Model, tea.Cmd) {
	id, ok := m.selectedMapID()
	if !ok {
		return m, nil
	}
	return m, deleteMapCmd(m.adapter, id)
}

func (m model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	machine := s.Machine()
	key := msg.String()
	m.errorMessage = ""
	m.successMessage = ""

	if machine.Mode() == interaction.EditingText {
		switch {
		case key == "ctrl+v":
			m.pasteIntoEdit()
		case msg.Paste:
			machine.InsertText(singleLine(cleanClipboardText(string(msg.Runes))))
		default:
			if name, ok := machineKey(msg); ok {
				s.Handle(interaction.Key(name))
			}
		}
		return m, nil
	}
	if msg.Paste {
		return m, nil
	}

	switch key {
	case "q":
		return m.requestQuit()
	case "?":
		m.help = true
		m.helpScroll = 0
	case "esc":
		if m.zPanMode {
			m.zPanMode = false
			return m, nil
		}
		s.Handle(interaction.Key(interaction.KeyEscape))
	case " ":
		if machine.SpaceHeld() {
			s.Handle(interaction.KeyRelease(interaction.KeySpace))
		} else {
			s.Handle(interaction.Key(interaction.KeySpace))
		}
	case "h", "j", "k", "l", "left", "down", "up", "right",
		"H", "J", "K", "L", "shift+left", "shift+down", "shift+up", "shift+right":
		m.handleNavigation(key, m.getMoveSpeed(key))
	case "z":
		m.zPanMode = !m.zPanMode
	case "n":
		s.AddNodeAtCenter(interaction.NewNodeText)
	case "tab":
		if s.AddChild(interaction.NewNodeText) == "" {
			m.errorMessage = "Select one node to add a child"
		}
	case "e", "enter":
		if id, ok := m.singleSelection(); ok {
			machine.Edit(id)
		} else {
			m.errorMessage = "Select one node to edit"
		}
	case "a":
		if id, ok := m.singleSelection(); ok {
			machine.StartConnecting(id)
			m.successMessage = "Click the node to connect to, Esc to cancel"
		} else {
			m.errorMessage = "Select one node to connect from"
		}
	case "d", "delete", "backspace":
		if len(s.Document().Canvas.SelectedNodes) == 0 {
			return m, nil
		}
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteNodes
			return m, nil
		}
		m.deleteSelection()
	case "D":
		if n := s.DeleteConnectionsOfSelection(); n > 0 {
			m.successMessage = pluralize(n, "connection") + " removed"
		}
	case "c":
		m.copySelection()
	case "p":
		m.pasteAsNode()
	case "y":
		if s.DuplicateSelection() == "" {
			m.errorMessage = "Select one node to duplicate"
		}
	case "t":
		s.CycleType()
	case "T":
		s.CycleShape()
	case "+", "=":
		s.ZoomIn()
	case "-":
		s.ZoomOut()
	case "0":
		s.ResetZoom()
	case "f":
		s.ZoomToFit()
	case "C":
		s.CenterCanvas()
	case "ctrl+a":
		s.SelectAll()
	case "g":
		s.ToggleGrid()
	case "M":
		m.showMinimap = !m.showMinimap
	case "^":
		m.goToRoot()
	case "{":
		m.goToParent()
	case "}":
		m.goToFirstChild()
	case "[":
		m.goToSibling(-1)
	case "]":
		m.goToSibling(1)
	case "u", "ctrl+z":
		m.undo()
	case "U", "ctrl+r", "ctrl+y":
		m.redo()
	case "s", "ctrl+s":
		return m.save()
	case "S":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmChooseExportType
	case "r":
		m.startPrompt(PromptRename, "Title: ", s.Document().Title)
	case "o":
		if s.Dirty() && m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmCloseMap
			return m, nil
		}
		m.closeSession()
	}
	return m, nil
}

// machineKey maps a terminal key to the key name the interaction machine
// understands.
func machineKey(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyEsc:
		return interaction.KeyEscape, true
	case tea.KeyEnter:
		return interaction.KeyEnter, true
	case tea.KeyBackspace:
		return interaction.KeyBackspace, true
	case tea.KeyDelete:
		return interaction.KeyDelete, true
	case tea.KeyLeft:
		return interaction.KeyLeft, true
	case tea.KeyRight:
		return interaction.KeyRight, true
	case tea.KeyHome:
		return interaction.KeyHome, true
	case tea.KeyEnd:
		return interaction.KeyEnd, true
	case tea.KeySpace:
		return interaction.KeySpace, true
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			return string(msg.Runes), true
		}
	}
	return "", false
}

func (m *model) deleteSelection() {
	n := len(m.session.Document().Canvas.SelectedNodes)
	m.session.Handle(interaction.Key(interaction.KeyDelete))
	m.successMessage = pluralize(n, "node") + " deleted"
}

func (m model) singleSelection() (string, bool) {
	sel := m.session.Document().Canvas.SelectedNodes
	if len(sel) != 1 {
		return "", false
	}
	return sel[0], true
}

func (m model) save() (tea.Model, tea.Cmd) {
	if m.session == nil || m.saving {
		return m, nil
	}
	m.saving = true
	h := m.session.History()
	return m, saveMapCmd(m.adapter, m.session.Document(), h.Index(), h.Len())
}

func (m model) requestQuit() (tea.Model, tea.Cmd) {
	if m.session != nil && m.session.Dirty() && m.config.Confirmations {
		m.mode = ModeConfirm
		m.confirmAction = ConfirmQuit
		return m, nil
	}
	return m, tea.Quit
}

// baseMode is the mode a prompt or confirmation returns to.
func (m model) baseMode() Mode {
	if m.session == nil {
		return ModeStartup
	}
	return ModeNormal
}

func (m model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	back := m.baseMode()

	if m.confirmAction == ConfirmChooseExportType {
		kind, ok := exportKeys[key]
		if !ok {
			if key == "esc" || key == "n" {
				m.mode = back
			}
			return m, nil
		}
		m.exportKind = kind
		m.startPrompt(PromptExportFile, "Export to: ", exportFilename(m.session.Document().Title, kind))
		return m, nil
	}

	switch key {
	case "y", "Y":
		m.mode = back
		switch m.confirmAction {
		case ConfirmDeleteNodes:
			m.deleteSelection()
		case ConfirmDeleteMap:
			return m.deleteSelectedMap()
		case ConfirmQuit:
			m.quitAfterSave = true
			return m.save()
		case ConfirmCloseMap:
			m.closeSession()
		case ConfirmOverwriteFile:
			return m.runExport(m.exportPath)
		}
	case "n", "N":
		m.mode = back
		if m.confirmAction == ConfirmQuit {
			return m, tea.Quit
		}
	case "esc":
		m.mode = back
	}
	return m, nil
}
