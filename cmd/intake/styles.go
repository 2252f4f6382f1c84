package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

func renderHeader(flowTitle string, v wizard.View) string {
	progress := fmt.Sprintf("Step %d of %d: %s", v.Step, v.TotalSteps, v.StepTitle)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(flowTitle), progressStyle.Render(progress))
}

func renderViolations(violations []forms.Violation) string {
	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, errorStyle.Render("• "+v.Message))
	}
	return strings.Join(lines, "\n")
}

func renderConfirmation(r *wizard.Receipt) string {
	msg := "Your request has been submitted. We will contact you shortly."
	if r != nil && r.ID != "" {
		msg += "\nReference: " + r.ID
	}
	return successStyle.Render(msg)
}
