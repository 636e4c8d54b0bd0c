package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kintreehq/kintree/pkg/photo"
	"github.com/kintreehq/kintree/pkg/tree"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// newTUICmd opens the interactive family tree browser.
func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the family tree interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ed, _, err := openEditor(ctx, *dataDir, logger)
			if err != nil {
				return err
			}
			g := ed.Graph()
			if g.Count() == 0 {
				printInfo("the family tree is empty")
				printNextStep("import a tree", "kintree import family.json")
				return nil
			}

			p := tea.NewProgram(NewPersonListModel(g), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PersonListModel - Interactive person browser
// =============================================================================

// PersonListModel is the bubbletea model for browsing the family tree. It
// shows a scrolling roster and a per-person detail pane.
type PersonListModel struct {
	Graph       *tree.Graph
	People      []*tree.Person
	Generations map[string]int
	Cursor      int
	Height      int
	Offset      int
	Detail      bool
}

// NewPersonListModel creates a browser over a graph snapshot.
func NewPersonListModel(g *tree.Graph) PersonListModel {
	return PersonListModel{
		Graph:       g,
		People:      g.People(),
		Generations: layout.Generations(g, nil),
		Height:      15,
	}
}

func (m PersonListModel) Init() tea.Cmd {
	return nil
}

func (m PersonListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.Detail && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Detail && m.Cursor < len(m.People)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PersonListModel) View() string {
	if m.Detail {
		return m.detailView()
	}
	return m.listView()
}

func (m PersonListModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Family Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.People) {
		end = len(m.People)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.People[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		span := lifespan(p.Birth, p.Death)
		if span == "" {
			span = "—"
		}

		gen := fmt.Sprintf("%d", m.Generations[p.ID])
		rows = append(rows, []string{cursor, p.DisplayName(), gen, span, relationSummary(p)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Gen", "Lifespan", "Relations").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx >= len(m.People) {
				return lipgloss.NewStyle()
			}
			if actualIdx == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.People))))

	return b.String()
}

func (m PersonListModel) detailView() string {
	p := m.People[m.Cursor]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(p.DisplayName()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎/esc back  q quit"))
	b.WriteString("\n\n")

	writeField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(label),
			StyleValue.Render(value)))
	}

	writeField("id", p.ID)
	writeField("generation", fmt.Sprintf("%d", m.Generations[p.ID]))
	writeField("born", p.Birth.String())
	writeField("died", p.Death.String())
	writeField("parents", joinNames(m.Graph, p.ParentIDs))
	writeField("siblings", joinNames(m.Graph, p.SiblingIDs))
	writeField("children", joinNames(m.Graph, childIDs(m.Graph, p.ID)))
	if p.Photo != "" {
		writeField("photo", photo.Describe(p.Photo))
	}
	writeField("notes", p.Notes)

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// relationSummary condenses a person's link counts into "2p 1s 3c" form.
func relationSummary(p *tree.Person) string {
	parts := []string{}
	if n := len(p.ParentIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%dp", n))
	}
	if n := len(p.SiblingIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%ds", n))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " ")
}

// childIDs lists everyone who names id as a parent, in roster order.
func childIDs(g *tree.Graph, id string) []string {
	var ids []string
	for _, p := range g.People() {
		if p.HasParent(id) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
