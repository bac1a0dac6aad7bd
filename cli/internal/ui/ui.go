// Package ui holds the CLI's console output helpers.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	successColor = lipgloss.Color("#00FF88")
	warningColor = lipgloss.Color("#FFB800")
	errorColor   = lipgloss.Color("#FF4444")
	titleColor   = lipgloss.Color("#00D9FF")

	titleStyle   = lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

// Title prints a section header.
func Title(text string) {
	fmt.Println(titleStyle.Render(text))
}

// Success prints a success line.
func Success(format string, args ...any) {
	fmt.Println(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func Warn(format string, args ...any) {
	fmt.Println(warningStyle.Render("! " + fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func Error(format string, args ...any) {
	fmt.Println(errorStyle.Render("✗ " + fmt.Sprintf(format, args...)))
}

// Added and Removed colorize diff lines.
var (
	Added   = color.New(color.FgGreen).SprintfFunc()
	Removed = color.New(color.FgRed).SprintfFunc()
	Changed = color.New(color.FgYellow).SprintfFunc()
)

// PlanTable renders the plan statements as a numbered table.
func PlanTable(stmts []string) {
	rows := pterm.TableData{{"#", "statement"}}
	for i, s := range stmts {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), s})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// Spinner starts a progress spinner; the returned stop function ends it.
func Spinner(text string) func() {
	sp, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return func() {}
	}
	return func() { _ = sp.Stop() }
}
