package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/types"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewColumnWidth = 16

func (m Model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateRuleSelect:
		return m.viewRuleSelect()
	case stateFilePicker:
		return m.viewFilePicker()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	case stateEditSelect:
		return m.viewEditSelect()
	case stateNewName:
		return m.viewNewName()
	case stateLink, stateEditField:
		return m.viewLink()
	}
	return ""
}

func header() string {
	title := TitleStyle.Render("⇄ colmap - Column Mapping Converter")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/colmap")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	return lipgloss.JoinVertical(lipgloss.Left, title, byLine)
}

func renderList(s *strings.Builder, items []string, cursor int) {
	for i, item := range items {
		if i == cursor {
			s.WriteString(SelectedStyle.Render("> " + item))
		} else {
			s.WriteString(UnselectedStyle.Render("  " + item))
		}
		s.WriteString("\n")
	}
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(header())
	s.WriteString("\n\n")
	renderList(&s, menuItems, m.menuCursor)
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewRuleSelect() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Select a rule set"))
	s.WriteString("\n\n")
	renderList(&s, m.store.Names(), m.ruleCursor)
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: choose input file • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(header())
	s.WriteString("\n")
	if m.purpose == pickSample {
		s.WriteString(SubtitleStyle.Render("Select a sample CSV or Excel file to read its columns"))
	} else {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Select a CSV or Excel file to convert with %q", m.selectedRule)))
	}
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("m: back • q: quit"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇄ Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Applying %q to %s...", m.selectedRule, filepath.Base(m.selectedFile)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Rule set: %s\n", m.result.RuleSet))
	s.WriteString(fmt.Sprintf("Columns written: %d\n", len(m.result.ColumnsWritten)))
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))

	if len(m.result.FailedColumns) > 0 {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Failed columns: %s", strings.Join(m.result.FailedColumns, ", "))))
		s.WriteString("\n")
	}

	if len(m.result.Header) > 0 {
		s.WriteString("\n")
		s.WriteString(m.preview.View())
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("enter: back to menu • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	if m.err != nil {
		s.WriteString(m.err.Error())
	}
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("enter: back to menu • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewEditSelect() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Manage rule sets"))
	s.WriteString("\n\n")
	renderList(&s, m.editSelectItems(), m.ruleCursor)
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: edit • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewNewName() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("New rule set"))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")
	if m.notice != "" && m.noticeIsErr {
		s.WriteString(ErrorStyle.Render(m.notice))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("enter: create • esc: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewLink() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Edit: " + m.editRule))
	s.WriteString("\n")
	if m.sampleFile != "" {
		s.WriteString(SubtitleStyle.Render("Sample: " + filepath.Base(m.sampleFile)))
	} else {
		s.WriteString(SubtitleStyle.Render("No sample loaded"))
	}
	s.WriteString("\n")

	outputs := m.renderOutputs(m.currentSet())
	samples := m.renderSamples()

	left, right := PaneStyle, PaneStyle
	if m.focus == paneOutputs {
		left = FocusedPaneStyle
	} else {
		right = FocusedPaneStyle
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left.Render(outputs), " ", right.Render(samples)))
	s.WriteString("\n")

	if m.state == stateEditField {
		s.WriteString(fmt.Sprintf("%s: %s\n", m.field.label(), m.input.View()))
		s.WriteString(HelpStyle.Render("enter: save • esc: cancel"))
		return s.String()
	}

	if m.notice != "" {
		if m.noticeIsErr {
			s.WriteString(ErrorStyle.Render(m.notice))
		} else {
			s.WriteString(SuccessStyle.Render(m.notice))
		}
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("tab: switch pane • enter/l: link • c: clear • a: action • n: name • o: source • g: argument\n" +
		"+/-: add/remove row • s: load sample • x: export rules • esc: menu • q: quit"))

	return s.String()
}

func (m Model) renderOutputs(set rules.RuleSet) string {
	var s strings.Builder

	s.WriteString(MutedStyle.Render("Outputs"))
	s.WriteString("\n")
	for i, spec := range set {
		source := spec.SourceColumn
		if source == "" {
			source = "-"
		}
		line := fmt.Sprintf("%2d %s ← %s [%s", spec.Sequence, spec.OutputName, source, spec.Action.Label())
		if spec.Argument != "" {
			line += " " + spec.Argument
		}
		line += "]"

		switch {
		case m.focus == paneOutputs && i == m.outputCursor:
			line = SelectedStyle.Render("> " + line)
		case i == m.outputCursor:
			line = CheckedStyle.Render("> " + line)
		case spec.Skipped():
			line = MutedStyle.Render("  " + line)
		default:
			line = UnselectedStyle.Render("  " + line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderSamples() string {
	var s strings.Builder

	s.WriteString(MutedStyle.Render("Source columns"))
	s.WriteString("\n")
	if len(m.samples) == 0 {
		s.WriteString(MutedStyle.Render("press s to load a sample"))
		s.WriteString("\n")
	}
	for i, sample := range m.samples {
		line := sample.Label()
		if m.focus == paneSamples && i == m.sampleCursor {
			line = SelectedStyle.Render("> " + line)
		} else {
			line = UnselectedStyle.Render("  " + line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

func newPreviewTable(res *types.ConversionResult) btable.Model {
	columns := make([]btable.Column, len(res.Header))
	for i, h := range res.Header {
		width := lipgloss.Width(h)
		for _, row := range res.Preview {
			if i < len(row) {
				width = max(width, lipgloss.Width(row[i]))
			}
		}
		columns[i] = btable.Column{Title: h, Width: min(max(width, 4), maxPreviewColumnWidth)}
	}

	rows := make([]btable.Row, len(res.Preview))
	for i, r := range res.Preview {
		rows[i] = btable.Row(r)
	}

	return btable.New(
		btable.WithColumns(columns),
		btable.WithRows(rows),
		btable.WithHeight(len(rows)+1),
		btable.WithFocused(false),
	)
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
