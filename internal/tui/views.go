package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
	"github.com/balkashynov/fencer/internal/stats"
)

// RenderStats renders the stats card printed by `fencer stats`
func RenderStats(st models.UserStats, sum stats.Summary, theme models.Theme) string {
	p := PaletteFor(theme)

	label := lipgloss.NewStyle().Foreground(lipgloss.Color(p.SecondaryText)).Width(18)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color(p.PrimaryText)).Bold(true)
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(p.AccentBright)).Bold(true)

	row := func(name, v string, style lipgloss.Style) string {
		return label.Render(name) + style.Render(v)
	}

	lastDay := "never"
	if st.LastSessionDate != nil {
		lastDay = st.LastSessionDate.String()
	}

	lines := []string{
		accent.Render("🔥 Focus stats"),
		"",
		row("Sessions", fmt.Sprintf("%d (%d completed)", st.TotalSessions, st.CompletedSessions), value),
		row("Completion rate", fmt.Sprintf("%d%%", sum.CompletionRate), value),
		row("Focused time", parser.FormatMinutes(st.TotalMinutes), value),
		row("Average session", parser.FormatMinutes(sum.AverageMinutes), value),
		row("Median session", fmt.Sprintf("%.1fm", sum.MedianMinutes), value),
		row("Current streak", pluralDays(st.CurrentStreak), accent),
		row("Best streak", pluralDays(st.BestStreak), value),
		row("Last focus day", lastDay, value),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(p.AccentMain)).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// RenderHistory renders sessions as a table, newest first
func RenderHistory(sessions []models.Session, theme models.Theme) string {
	p := PaletteFor(theme)

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(p.AccentBright)).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(p.PrimaryText)).Padding(0, 1)
	doneStyle := cellStyle.Foreground(lipgloss.Color(p.Success))
	abandonedStyle := cellStyle.Foreground(lipgloss.Color(p.DisabledText))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(p.Border))).
		Headers("STARTED", "LENGTH", "RESULT", "BLOCKED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if i := len(sessions) - 1 - row; col == 2 && i >= 0 && i < len(sessions) {
				if sessions[i].WasCompleted {
					return doneStyle
				}
				return abandonedStyle
			}
			return cellStyle
		})

	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		t.Row(
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			parser.FormatMinutes(s.PlannedMinutes()),
			resultLabel(s),
			strings.Join(s.BlockedApps, ", "),
		)
	}

	return t.Render()
}

func resultLabel(s models.Session) string {
	if s.WasCompleted {
		return "✅ completed"
	}
	return "✗ abandoned"
}
