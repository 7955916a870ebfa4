package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/shopmigrate/models"
)

func newClientTable() table.Model {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Raw", Width: 30},
		{Title: "City", Width: 18},
		{Title: "State", Width: 5},
		{Title: "Zip", Width: 10},
	}
	return table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)
}

func clientRows(clients []models.Client) []table.Row {
	rows := make([]table.Row, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, table.Row{c.Name, c.RawCityStateZip, c.City, c.State, c.Zip})
	}
	return rows
}

func (m Model) renderListView() string {
	var s strings.Builder

	title := "ADDRESS REVIEW"
	if m.showAll {
		title += " (all clients)"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	if len(m.clients) == 0 && m.err == nil {
		s.WriteString("Nothing to review.\n")
	} else {
		s.WriteString(m.table.View())
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("%d clients", len(m.clients)))
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	help := []string{"↑/↓: Navigate", "Enter: Edit", "a: Toggle all", "r: Reload", "q: Quit"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.message = ""
		return m, m.loadClients
	case "a":
		m.showAll = !m.showAll
		return m, m.loadClients
	case "enter":
		if len(m.clients) == 0 {
			return m, nil
		}
		c := m.clients[m.table.Cursor()]
		m.editing = &c
		m.initFormInputs()
		m.message = ""
		m.viewMode = ViewEdit
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}
