package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/shopmigrate/db"
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("EDIT " + strings.ToUpper(m.editing.Name)))
	s.WriteString("\n\n")
	s.WriteString("Raw: " + m.editing.RawCityStateZip)
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	help := []string{"Tab: Next field", "Enter: Save", "Esc: Cancel"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.editing = nil
		m.err = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		return m, m.saveAddress()
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs() {
	inputs := make([]textinput.Model, 3)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "City"
	inputs[0].CharLimit = 60
	inputs[0].SetValue(m.editing.City)

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "State"
	inputs[1].CharLimit = 2
	inputs[1].SetValue(m.editing.State)

	inputs[2] = textinput.New()
	inputs[2].Placeholder = "Zip"
	inputs[2].CharLimit = 10
	inputs[2].SetValue(m.editing.Zip)

	m.formInputs = inputs
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) saveAddress() tea.Cmd {
	id, name := m.editing.ID, m.editing.Name
	city := strings.TrimSpace(m.formInputs[0].Value())
	state := strings.ToUpper(strings.TrimSpace(m.formInputs[1].Value()))
	zip := strings.TrimSpace(m.formInputs[2].Value())
	ctx, q := m.ctx, m.db

	return func() tea.Msg {
		err := db.UpdateClientAddress(ctx, q, id, city, state, zip)
		return savedMsg{name: name, err: err}
	}
}
