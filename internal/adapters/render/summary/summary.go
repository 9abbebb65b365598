// Package summary renders the end-of-run statistics block.
package summary

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/avdeev/steamloot/internal/application"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	block lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		good:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		bad:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		block: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
	}
}

// Render formats the summary as a bordered block for the terminal.
func Render(s application.Summary) string {
	st := newStyles()

	lines := []string{
		st.title.Render("Loot run summary"),
		row(st.label, st.value, "accounts", s.Accounts),
		row(st.label, st.good, "successful", s.Successes),
		row(st.label, st.bad, "failed", s.Failures),
		row(st.label, st.value, "items looted", s.Items),
	}

	return st.block.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func row(label, value lipgloss.Style, name string, n int) string {
	return fmt.Sprintf("%s %s", label.Render(name+":"), value.Render(fmt.Sprintf("%d", n)))
}
