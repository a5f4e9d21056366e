package main

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/export"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/templates"
)

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
		if output, err := exec.Command("pbpaste").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

func isHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<") &&
		(strings.Contains(text, "<html") || strings.Contains(text, "<body") || strings.Contains(text, "<div"))
}

func extractTextFromHTML(html string) string {
	var result strings.Builder
	result.Grow(len(html))
	inTag := false
	for _, r := range html {
		if r == '<' {
			inTag = true
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}
	text := result.String()
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return text
}

func cleanClipboardText(text string) string {
	if text == "" {
		return text
	}
	text = stripRTF(text)
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	normalized := result.String()
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return normalized
}

func stripRTF(text string) string {
	if !strings.HasPrefix(text, "{\\rtf") && !strings.Contains(text, "\\rtf") {
		return text
	}
	var result strings.Builder
	result.Grow(len(text))
	runes := []rune(text)
	braceDepth := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '{' {
			braceDepth++
			continue
		}
		if r == '}' {
			braceDepth--
			continue
		}
		if r == '\\' {
			if i+1 < len(runes) {
				next := runes[i+1]
				if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
					i++
					for i < len(runes) {
						if runes[i] == ' ' || runes[i] == '\\' || runes[i] == '{' || runes[i] == '}' {
							if runes[i] == ' ' {
								i++
							}
							break
						}
						i++
					}
					i--
					continue
				} else if next == '\\' || next == '{' || next == '}' {
					result.WriteRune(next)
					i++
					continue
				} else if next == '\n' || next == '\r' || next == '\t' {
					result.WriteRune(next)
					i++
					continue
				}
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// singleLine folds clipboard text onto one line for a node label.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// describeError turns err into a line for the status bar.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, export.ErrEmpty):
		return "Nothing to export, the map has no nodes"
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return "PDF export needs Chrome or Chromium installed"
	case errors.Is(err, templates.ErrEmptyOutline):
		return "The outline file has no items"
	case errors.Is(err, templates.ErrNotFound):
		return "Unknown template"
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case apperr.KindAuthentication:
			return "Not signed in or session expired: " + e.Message
		case apperr.KindNetwork:
			return "Network error, working from the local cache"
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return err.Error()
}

func (m *model) copySelection() {
	id, ok := m.singleSelection()
	if !ok {
		m.errorMessage = "Select one node to copy"
		return
	}
	n, _ := m.session.Document().Node(id)
	if err := clipboard.WriteAll(n.Text); err != nil {
		m.errorMessage = "Clipboard unavailable"
		return
	}
	m.successMessage = "Copied"
}

// pasteAsNode adds a node labelled with the clipboard text.
func (m *model) pasteAsNode() {
	text, err := readClipboardText()
	if err != nil {
		m.errorMessage = "Clipboard unavailable"
		return
	}
	text = singleLine(cleanClipboardText(extractIfHTML(text)))
	if text == "" {
		m.errorMessage = "Clipboard is empty"
		return
	}
	m.session.AddNodeAtCenter(text)
	m.successMessage = "Pasted"
}

func (m *model) pasteIntoEdit() {
	machine := m.session.Machine()
	if machine.Mode() != interaction.EditingText {
		return
	}
	text, err := readClipboardText()
	if err != nil {
		m.errorMessage = "Clipboard unavailable"
		return
	}
	machine.InsertText(singleLine(cleanClipboardText(extractIfHTML(text))))
}

func extractIfHTML(text string) string {
	if isHTML(text) {
		return extractTextFromHTML(text)
	}
	return text
}
