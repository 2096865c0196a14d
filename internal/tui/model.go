// Package tui implements the interactive dataset browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

const (
	defaultWidth   = 120
	defaultHeight  = 30
	maxColumnWidth = 32
	statsPerRow    = 4
)

// Model is the bubbletea model of the dataset browser. Typing in the search
// box and changing the sort recompute the view immediately.
type Model struct {
	ds     erp.Dataset
	base   core.Query
	opts   view.Options
	format *output.Formatter
	styles Styles

	search textinput.Model
	table  table.Model

	columns   []core.Column
	cursor    int
	sort      core.SortSpec
	searching bool

	result *core.Table
	status string
	err    error

	width  int
	height int
}

// New creates a browser over ds. The base query supplies filters and
// statistics; paging is ignored.
func New(ds erp.Dataset, base core.Query, opts view.Options, format *output.Formatter) Model {
	if format == nil {
		format = output.NewFormatter(output.DefaultLocale, output.DefaultCurrency)
	}
	in := textinput.New()
	in.Placeholder = "search " + strings.Join(ds.Info().SearchFields, ", ")
	in.Prompt = "/ "
	in.CharLimit = 120
	in.SetValue(base.Criteria.Search)

	styles := DefaultStyles()
	in.PromptStyle = styles.Prompt

	m := Model{
		ds:      ds,
		base:    base,
		opts:    opts,
		format:  format,
		styles:  styles,
		search:  in,
		columns: ds.Columns(),
		sort:    base.Sort,
		width:   defaultWidth,
		height:  defaultHeight,
		table: table.New(
			table.WithFocused(true),
			table.WithStyles(styles.Table),
		),
	}
	for i, c := range m.columns {
		if c.Name == m.sort.Field {
			m.cursor = i
		}
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.searching = true
			return m, m.search.Focus()
		case "tab", "right", "l":
			m.moveCursor(1)
			return m, nil
		case "shift+tab", "left", "h":
			m.moveCursor(-1)
			return m, nil
		case "s", "enter":
			m.toggleSort()
			return m, nil
		case "x":
			m.search.SetValue("")
			m.sort = m.ds.DefaultQuery().Sort
			m.status = ""
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.refresh()
	}
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	if len(m.columns) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.columns)) % len(m.columns)
	m.status = ""
	m.layout()
}

func (m *Model) toggleSort() {
	if len(m.columns) == 0 {
		return
	}
	c := m.columns[m.cursor]
	if !c.Sortable {
		m.status = c.Label + " cannot be sorted"
		return
	}
	m.status = ""
	m.sort = m.sort.Toggle(c.Name)
	m.refresh()
}

// refresh reruns the query with the current search and sort.
func (m *Model) refresh() {
	q := m.base
	q.Criteria.Search = m.search.Value()
	q.Sort = m.sort
	q.Page = core.PageRequest{}

	t, err := m.ds.Run(q, m.opts)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.result = t
	m.layout()
}

// layout pushes the current result into the table widget.
func (m *Model) layout() {
	if m.result == nil {
		return
	}
	rows := make([]table.Row, len(m.result.Rows))
	widths := make([]int, len(m.columns))
	titles := make([]string, len(m.columns))
	for i, c := range m.columns {
		titles[i] = m.title(i, c)
		widths[i] = lipgloss.Width(titles[i])
	}
	for r, row := range m.result.Rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			cells[i] = m.format.Value(v)
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cells[i]))
			}
		}
		rows[r] = cells
	}

	cols := make([]table.Column, len(m.columns))
	for i := range m.columns {
		cols[i] = table.Column{Title: titles[i], Width: min(widths[i], maxColumnWidth)}
	}
	// Rows must be cleared before the column count changes.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()), 3))
}

func (m *Model) title(i int, c core.Column) string {
	t := c.Label
	if c.Name == m.sort.Field {
		switch m.sort.Direction {
		case core.DirAsc:
			t += " ▲"
		case core.DirDesc:
			t += " ▼"
		}
	}
	if i == m.cursor {
		t = "[" + t + "]"
	}
	return t
}

// View renders the browser.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.table.View(), m.footer())
}

func (m *Model) header() string {
	info := m.ds.Info()
	summary := ""
	if m.result != nil {
		summary = fmt.Sprintf("%d of %d records", m.result.Matched, m.result.Total)
		if !m.sort.IsZero() {
			summary += ", sorted by " + m.sort.String()
		}
	}
	title := m.styles.Title.Render(info.Title) + "  " + m.styles.Muted.Render(summary)

	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = m.styles.Muted.Render("press / to search")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, search)
}

func (m *Model) footer() string {
	var parts []string
	if m.err != nil {
		parts = append(parts, m.styles.Error.Render("error: "+m.err.Error()))
	}
	if m.status != "" {
		parts = append(parts, m.styles.Muted.Render(m.status))
	}
	if stats := m.statsView(); stats != "" {
		parts = append(parts, stats)
	}
	parts = append(parts, m.styles.Help.Render("/ search · tab/shift+tab column · s sort · x reset · ↑/↓ scroll · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// statsView renders the scalar statistics as cards. Group breakdowns are
// left to the stats command.
func (m *Model) statsView() string {
	if m.result == nil {
		return ""
	}
	var cards []string
	for _, s := range m.result.Stats {
		if s.Kind == core.StatGroupCount || s.Kind == core.StatGroupSum {
			continue
		}
		body := m.styles.StatName.Render(s.Label) + "\n" + m.format.Stat(s)
		cards = append(cards, m.styles.StatCard.Render(body))
	}
	if len(cards) == 0 {
		return ""
	}
	var rows []string
	for i := 0; i < len(cards); i += statsPerRow {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:min(i+statsPerRow, len(cards))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Result returns the table currently shown.
func (m Model) Result() *core.Table {
	return m.result
}

// Sort returns the current sort.
func (m Model) Sort() core.SortSpec {
	return m.sort
}
