package ui

import (
	"strings"

	"github.com/nconklindev/colmap/internal/rules"

	tea "github.com/charmbracelet/bubbletea"
)

// editSelectItems lists the existing rule sets followed by the new-set entry.
func (m Model) editSelectItems() []string {
	return append(m.store.Names(), "+ New rule set")
}

func (m Model) updateEditSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.editSelectItems()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		return m.toMenu(), nil
	case "up", "k":
		if m.ruleCursor > 0 {
			m.ruleCursor--
		}
	case "down", "j":
		if m.ruleCursor < len(items)-1 {
			m.ruleCursor++
		}
	case "enter":
		if m.ruleCursor == len(items)-1 {
			m.input.SetValue(newRuleSetPlaceholder)
			m.input.CursorEnd()
			m.input.Focus()
			m.state = stateNewName
			return m, nil
		}
		return m.openEditor(items[m.ruleCursor]), nil
	}
	return m, nil
}

func (m Model) updateNewName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = stateEditSelect
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.setNotice("rule set name must not be blank", true)
			return m, nil
		}
		m.input.Blur()
		if m.store.Ensure(name) {
			m.setNotice("created "+name, false)
		} else {
			m.setNotice("opened existing "+name, false)
		}
		return m.openEditor(name), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openEditor(name string) Model {
	m.editRule = name
	m.outputCursor = 0
	m.focus = paneOutputs
	m.state = stateLink
	return m
}

// currentSet returns a snapshot of the rule set being edited.
func (m Model) currentSet() rules.RuleSet {
	set, _ := m.store.Get(m.editRule)
	return set
}

// mutate applies fn to a snapshot of the edited set and stores the result.
func (m *Model) mutate(fn func(rules.RuleSet) (rules.RuleSet, error)) {
	set, err := fn(m.currentSet())
	if err != nil {
		m.setNotice(err.Error(), true)
		return
	}
	m.store.Put(m.editRule, set)
	if m.outputCursor >= len(set) {
		m.outputCursor = max(len(set)-1, 0)
	}
}

func (m Model) updateLink(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	set := m.currentSet()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.notice = ""
		return m.toMenu(), nil
	case "tab":
		if m.focus == paneOutputs {
			m.focus = paneSamples
		} else {
			m.focus = paneOutputs
		}
	case "up", "k":
		if m.focus == paneOutputs && m.outputCursor > 0 {
			m.outputCursor--
		}
		if m.focus == paneSamples && m.sampleCursor > 0 {
			m.sampleCursor--
		}
	case "down", "j":
		if m.focus == paneOutputs && m.outputCursor < len(set)-1 {
			m.outputCursor++
		}
		if m.focus == paneSamples && m.sampleCursor < len(m.samples)-1 {
			m.sampleCursor++
		}
	case "enter", "l":
		if len(m.samples) == 0 {
			m.setNotice("load a sample file first (s)", true)
			return m, nil
		}
		column := m.samples[m.sampleCursor].Column
		row := m.outputCursor
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			return r, r.Link(row, column)
		})
		if m.outputCursor < len(set)-1 {
			m.outputCursor++
		}
	case "c":
		row := m.outputCursor
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			return r, r.Clear(row)
		})
	case "a":
		row := m.outputCursor
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			if row >= len(r) {
				return r, rules.ErrIndex
			}
			r[row].Action = r[row].Action.Next()
			return r, nil
		})
	case "n":
		return m.beginEdit(fieldOutputName, set)
	case "o":
		return m.beginEdit(fieldSourceColumn, set)
	case "g":
		return m.beginEdit(fieldArgument, set)
	case "+":
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			return r.Append(), nil
		})
		m.outputCursor = len(set)
	case "-":
		row := m.outputCursor
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			return r.Remove(row)
		})
	case "s":
		return m.openPicker(pickSample)
	case "x":
		if m.rulesFile == "" {
			m.setNotice("no rules file configured (COLMAP_RULES_FILE or --rules)", true)
			return m, nil
		}
		return m, m.exportRules()
	}
	return m, nil
}

func (m Model) beginEdit(field editField, set rules.RuleSet) (tea.Model, tea.Cmd) {
	if m.outputCursor >= len(set) {
		return m, nil
	}
	spec := set[m.outputCursor]
	m.field = field
	switch field {
	case fieldOutputName:
		m.input.SetValue(spec.OutputName)
	case fieldSourceColumn:
		m.input.SetValue(spec.SourceColumn)
	default:
		m.input.SetValue(spec.Argument)
	}
	m.input.CursorEnd()
	m.input.Focus()
	m.state = stateEditField
	return m, nil
}

func (m Model) updateEditField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = stateLink
		return m, nil
	case "enter":
		value := m.input.Value()
		row := m.outputCursor
		field := m.field
		m.mutate(func(r rules.RuleSet) (rules.RuleSet, error) {
			if row >= len(r) {
				return r, rules.ErrIndex
			}
			switch field {
			case fieldOutputName:
				r[row].OutputName = value
			case fieldSourceColumn:
				r[row].SourceColumn = strings.TrimSpace(value)
			default:
				r[row].Argument = value
			}
			return r, nil
		})
		m.input.Blur()
		m.state = stateLink
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
