package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mindcanvas/internal/mindmap"
)

func (m *model) startPrompt(kind PromptKind, label, value string) {
	m.mode = ModePrompt
	m.promptKind = kind
	m.prompt.Prompt = label
	m.prompt.EchoMode = textinput.EchoNormal
	if kind == PromptPassword {
		m.prompt.EchoMode = textinput.EchoPassword
		m.prompt.EchoCharacter = '*'
	}
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
}

func (m model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt.Blur()
		m.prompt.SetValue("")
		m.mode = m.baseMode()
		return m, nil
	case tea.KeyEnter:
		value := m.prompt.Value()
		if m.promptKind != PromptPassword {
			value = strings.TrimSpace(value)
		}
		m.prompt.Blur()
		m.prompt.SetValue("")
		m.mode = m.baseMode()
		return m.submitPrompt(value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.promptKind {
	case PromptNewMap:
		if value == "" {
			m.errorMessage = "Title is required"
			return m, nil
		}
		if len(value) > mindmap.MaxTitleLength {
			m.errorMessage = "Title is too long"
			return m, nil
		}
		m.loading = true
		return m, createMapCmd(m.adapter, m.engine, m.catalog, value, m.selectedTemplateID())

	case PromptRename:
		if value == "" || len(value) > mindmap.MaxTitleLength {
			m.errorMessage = "Title must be 1-100 characters"
			return m, nil
		}
		if m.session != nil && value != m.session.Document().Title {
			m.session.Retitle(value)
		}

	case PromptImport:
		if value == "" {
			return m, nil
		}
		home, _ := os.UserHomeDir()
		m.loading = true
		return m, importOutlineCmd(m.adapter, m.engine, expandPath(value, home))

	case PromptSearch:
		if value == "" {
			m.results = nil
			m.clampSelection()
			return m, nil
		}
		return m, searchCmd(m.remote, value)

	case PromptName:
		if value == "" {
			m.errorMessage = "Name is required"
			return m, nil
		}
		m.pendingName = value
		m.startPrompt(PromptEmail, "Email: ", m.config.Email)

	case PromptEmail:
		if value == "" {
			m.errorMessage = "Email is required"
			return m, nil
		}
		m.pendingEmail = value
		m.startPrompt(PromptPassword, "Password: ", "")

	case PromptPassword:
		if value == "" {
			m.errorMessage = "Password is required"
			return m, nil
		}
		m.loading = true
		if m.registering {
			return m, registerCmd(m.remote, m.pendingName, m.pendingEmail, value)
		}
		return m, loginCmd(m.remote, m.pendingEmail, value)

	case PromptExportFile:
		if value == "" || m.session == nil {
			return m, nil
		}
		path := value
		if !strings.ContainsRune(value, filepath.Separator) {
			path = m.config.GetExportPath(value)
		}
		if _, err := os.Stat(path); err == nil && m.config.Confirmations {
			m.exportPath = path
			m.mode = ModeConfirm
			m.confirmAction = ConfirmOverwriteFile
			return m, nil
		}
		return m.runExport(path)
	}
	return m, nil
}

func (m model) selectedTemplateID() string {
	all := m.catalog.All()
	if m.templateIndex < 0 || m.templateIndex >= len(all) {
		return ""
	}
	return all[m.templateIndex].ID
}
