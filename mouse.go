package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"mindcanvas/internal/interaction"
)

// handleMouse feeds a terminal mouse event to the interaction machine. A
// cell is reported as the screen point at its centre. Terminals have no
// double-click event, so a second left press on the same cell within
// doubleClickInterval is followed by a DoubleClick after its release.
func (m *model) handleMouse(msg tea.MouseMsg) {
	if m.session == nil || m.mode != ModeNormal || m.help {
		return
	}
	p := m.layout().center(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.session.Handle(interaction.WheelBy(-1))
			return
		case tea.MouseButtonWheelDown:
			m.session.Handle(interaction.WheelBy(1))
			return
		case tea.MouseButtonLeft, tea.MouseButtonMiddle, tea.MouseButtonRight:
		default:
			return
		}
		if msg.Y >= m.canvasHeight() {
			return
		}

		button := buttonOf(msg.Button)
		now := m.now()
		here := point{msg.X, msg.Y}
		m.doubleClick = button == interaction.ButtonLeft &&
			here == m.lastPressAt &&
			now.Sub(m.lastPress) <= doubleClickInterval
		m.lastPress, m.lastPressAt = now, here
		if m.doubleClick {
			m.lastPress = now.Add(-2 * doubleClickInterval)
		}

		m.mouseDown = true
		m.session.Handle(interaction.Event{
			Kind:   interaction.PointerDown,
			Point:  p,
			Button: button,
			Toggle: msg.Shift || msg.Ctrl,
		})

	case tea.MouseActionMotion:
		m.session.Handle(interaction.Move(p.X, p.Y))

	case tea.MouseActionRelease:
		m.mouseDown = false
		m.session.Handle(interaction.Up(p.X, p.Y))
		if m.doubleClick {
			m.doubleClick = false
			m.session.Handle(interaction.DoubleClickAt(p.X, p.Y))
		}
	}
}

func buttonOf(b tea.MouseButton) interaction.Button {
	switch b {
	case tea.MouseButtonMiddle:
		return interaction.ButtonMiddle
	case tea.MouseButtonRight:
		return interaction.ButtonRight
	}
	return interaction.ButtonLeft
}
