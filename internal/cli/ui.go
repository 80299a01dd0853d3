package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/roach88/liturgia/internal/program"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(purple)
)

func successMsg(format string, a ...any) string {
	return successStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func warnMsg(format string, a ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func errorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

// renderTable renders a table with rounded borders.
func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().
		Foreground(purple).
		Bold(true).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddStyle := cellStyle.Foreground(dim)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return cellStyle
			default:
				return oddStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

// renderProgram renders a liturgy's running order. people resolves assigned
// person ids to names.
func renderProgram(l program.Liturgy, steps []program.Step, people []program.Person) string {
	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.DisplayName()
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(l.Title))
	sb.WriteString(" " + mutedStyle.Render(l.Date) + "\n")
	if len(steps) == 0 {
		sb.WriteString(mutedStyle.Render("No steps yet.") + "\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		who := ""
		if s.AssignedPersonID != nil {
			who = names[*s.AssignedPersonID]
			if who == "" {
				who = *s.AssignedPersonID
			}
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			s.Title,
			s.Type.Label(),
			stepDetail(s),
			who,
		})
	}
	sb.WriteString(renderTable([]string{"#", "Step", "Type", "Details", "Leader"}, rows))
	sb.WriteString("\n")
	return sb.String()
}

func stepDetail(s program.Step) string {
	songs := s.Songs()
	if len(songs) == 0 {
		return s.Description
	}
	lines := make([]string, 0, len(songs)+1)
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	for _, song := range songs {
		line := "♪ " + song.Title
		if song.Artist != "" {
			line += " " + mutedStyle.Render("("+song.Artist+")")
		}
		if song.Key != "" {
			line += " " + accentStyle.Render(song.Key)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderSongs(songs []program.SongRef) string {
	if len(songs) == 0 {
		return mutedStyle.Render("No songs.")
	}
	rows := make([][]string, len(songs))
	for i, s := range songs {
		rows[i] = []string{s.ID, s.Title, s.Artist, s.Key}
	}
	return renderTable([]string{"ID", "Title", "Artist", "Key"}, rows)
}
