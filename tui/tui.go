// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Review screen for client addresses the city/state/zip heuristic split badly
package tui

import (
	"context"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/legacy"
	"github.com/harperreed/shopmigrate/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewEdit
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	db       db.Queryer
	viewMode ViewMode

	// List view state
	clients []models.Client
	table   table.Model
	showAll bool

	// Edit view state
	editing    *models.Client
	formInputs []textinput.Model
	focusIndex int

	message string
	err     error
	width   int
	height  int
}

type clientsLoadedMsg struct {
	clients []models.Client
	err     error
}

type savedMsg struct {
	name string
	err  error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, q db.Queryer) Model {
	return Model{
		ctx:      ctx,
		db:       q,
		viewMode: ViewList,
		table:    newClientTable(),
		width:    80,
		height:   24,
	}
}

// NeedsReview reports whether the stored split is still the heuristic's own
// output for the raw city/state/zip text and that output left a piece empty
// or dropped text. A split that differs from the heuristic was corrected by
// an operator and leaves review.
func NeedsReview(c models.Client) bool {
	if c.RawCityStateZip == "" {
		return false
	}
	city, state, zip := legacy.SplitCityStateZip(c.RawCityStateZip)
	if c.City != city || c.State != state || c.Zip != zip {
		return false
	}
	if city == "" || state == "" || zip == "" {
		return true
	}
	return squash(c.RawCityStateZip) != squash(city+state+zip)
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func (m Model) loadClients() tea.Msg {
	clients, err := db.ClientsWithRawAddress(m.ctx, m.db, 5000)
	if err != nil || m.showAll {
		return clientsLoadedMsg{clients: clients, err: err}
	}
	var review []models.Client
	for _, c := range clients {
		if NeedsReview(c) {
			review = append(review, c)
		}
	}
	return clientsLoadedMsg{clients: review}
}

func (m Model) Init() tea.Cmd {
	return m.loadClients
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-10, 5))
		return m, nil
	case clientsLoadedMsg:
		m.err = msg.err
		m.clients = msg.clients
		m.table.SetRows(clientRows(m.clients))
		if m.table.Cursor() >= len(m.clients) {
			m.table.SetCursor(max(len(m.clients)-1, 0))
		}
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.message = "Saved " + msg.name
		m.viewMode = ViewList
		m.editing = nil
		return m, m.loadClients
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewEdit:
		return m.renderEditView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	}
	return m, nil
}

// Run starts the review program on the terminal.
func Run(ctx context.Context, q db.Queryer) error {
	p := tea.NewProgram(NewModel(ctx, q), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
