package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/table"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
		assert.NotEmpty(t, m.View())
	}
	return m
}

// run executes cmd and feeds every resulting message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0 && i < 200; i++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, progress.FrameMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"氏名", "単価", "入社日"}, [][]string{{"田中太郎", "100", "2024/01/05"}})
	require.NoError(t, err)
	return tbl
}

func TestMenuNavigation(t *testing.T) {
	m := InitialModel(Options{})
	assert.Equal(t, stateMenu, m.state)

	m = press(t, m, "enter")
	assert.Equal(t, stateRuleSelect, m.state)

	m = press(t, m, "esc", "down", "enter")
	assert.Equal(t, stateEditSelect, m.state)

	m = press(t, m, "esc")
	assert.Equal(t, stateMenu, m.state)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRuleSelectOpensPicker(t *testing.T) {
	m := InitialModel(Options{})
	m = press(t, m, "enter", "enter")

	assert.Equal(t, stateFilePicker, m.state)
	assert.Equal(t, pickInput, m.purpose)
	assert.Equal(t, rules.DefaultSetName, m.selectedRule)

	m = press(t, m, "m")
	assert.Equal(t, stateMenu, m.state)
}

func TestNewRuleSetAndLinking(t *testing.T) {
	store := rules.NewDefaultStore()
	m := InitialModel(Options{Store: store})

	m = press(t, m, "down", "enter", "down", "enter")
	require.Equal(t, stateNewName, m.state)
	assert.Equal(t, newRuleSetPlaceholder, m.input.Value())

	m = press(t, m, "enter")
	require.Equal(t, stateLink, m.state)
	assert.Equal(t, newRuleSetPlaceholder, m.editRule)
	assert.Equal(t, []string{rules.DefaultSetName, newRuleSetPlaceholder}, store.Names())

	next, _ := m.Update(sampleLoadedMsg{path: "sample.csv", table: sampleTable(t)})
	m = next.(Model)
	require.Len(t, m.samples, 3)
	assert.Equal(t, paneSamples, m.focus)

	// Link 単価 to the first output row.
	m = press(t, m, "down", "l")
	set, _ := store.Get(newRuleSetPlaceholder)
	assert.Equal(t, "単価", set[0].SourceColumn)
	assert.Equal(t, 1, m.outputCursor, "linking advances to the next row")

	// Cycle the action and set an argument on the second row.
	m = press(t, m, "tab", "a", "a", "g", "3", "enter")
	set, _ = store.Get(newRuleSetPlaceholder)
	assert.Equal(t, rules.RightExtract, set[1].Action)
	assert.Equal(t, "3", set[1].Argument)

	// Rename, then clear the first row.
	m = press(t, m, "up", "c", "n")
	require.Equal(t, stateEditField, m.state)
	m.input.SetValue("金額")
	m = press(t, m, "enter")
	set, _ = store.Get(newRuleSetPlaceholder)
	assert.Equal(t, "金額", set[0].OutputName)
	assert.Empty(t, set[0].SourceColumn)

	m = press(t, m, "+")
	set, _ = store.Get(newRuleSetPlaceholder)
	assert.Len(t, set, rules.NewSetRows+1)
	assert.Equal(t, rules.NewSetRows, m.outputCursor)

	m = press(t, m, "-", "-")
	set, _ = store.Get(newRuleSetPlaceholder)
	assert.Len(t, set, rules.NewSetRows-1)

	m = press(t, m, "esc")
	assert.Equal(t, stateMenu, m.state)
}

func TestEditFieldCancel(t *testing.T) {
	store := rules.NewDefaultStore()
	m := InitialModel(Options{Store: store})
	m = press(t, m, "down", "enter", "enter")
	require.Equal(t, stateLink, m.state)

	m = press(t, m, "n")
	m.input.SetValue("discarded")
	m = press(t, m, "esc")

	assert.Equal(t, stateLink, m.state)
	set, _ := store.Get(rules.DefaultSetName)
	assert.Equal(t, "列1", set[0].OutputName)
}

func TestEditSourceColumnByHand(t *testing.T) {
	store := rules.NewDefaultStore()
	m := InitialModel(Options{Store: store})
	m = press(t, m, "down", "enter", "enter", "down", "o")
	require.Equal(t, stateEditField, m.state)
	assert.Equal(t, fieldSourceColumn, m.field)
	assert.Contains(t, m.View(), "Source column")

	m.input.SetValue(" 得意先コード ")
	m = press(t, m, "enter")
	assert.Equal(t, stateLink, m.state)

	set, _ := store.Get(rules.DefaultSetName)
	assert.Equal(t, "得意先コード", set[1].SourceColumn)
	assert.Empty(t, set[0].SourceColumn)
}

func TestLinkWithoutSample(t *testing.T) {
	m := InitialModel(Options{})
	m = press(t, m, "down", "enter", "enter", "l")

	assert.True(t, m.noticeIsErr)
	assert.Contains(t, m.notice, "sample")
}

func TestSampleLoadFailureKeepsEditor(t *testing.T) {
	m := InitialModel(Options{})
	m = press(t, m, "down", "enter", "enter", "s")
	require.Equal(t, stateFilePicker, m.state)
	assert.Equal(t, pickSample, m.purpose)

	m = run(t, m, m.loadSample(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Equal(t, stateLink, m.state)
	assert.True(t, m.noticeIsErr)
}

func TestExportRules(t *testing.T) {
	m := InitialModel(Options{})
	m = press(t, m, "down", "enter", "enter", "x")
	assert.True(t, m.noticeIsErr, "no rules file configured")

	path := filepath.Join(t.TempDir(), "rules.yaml")
	m = InitialModel(Options{RulesFile: path})
	m = press(t, m, "down", "enter", "enter")

	_, cmd := m.Update(key("x"))
	m = run(t, m, cmd)
	assert.False(t, m.noticeIsErr)

	s, err := rules.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{rules.DefaultSetName}, s.Names())
}

func TestConversionFlow(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte("氏名,単価\n田中太郎,100\n"), 0o644))

	store := rules.NewStore()
	store.Put("A社", rules.RuleSet{
		{Sequence: 1, OutputName: "顧客名", SourceColumn: "氏名"},
		{Sequence: 2, OutputName: "金額", SourceColumn: "単価", Action: rules.Multiply, Argument: "oops"},
	})

	m := InitialModel(Options{Store: store})
	m.selectedRule = "A社"
	m.selectedFile = input
	m.state = stateProcessing

	m, cmd := m.convertFile()
	m = run(t, m, cmd)

	require.Equal(t, stateComplete, m.state, "error: %v", m.err)
	assert.Equal(t, filepath.Join(dir, "input_converted.csv"), m.result.OutputFile)
	assert.Equal(t, []string{"金額"}, m.result.FailedColumns)
	assert.Equal(t, [][]string{{"田中太郎", "ERROR"}}, m.result.Preview)
	assert.Contains(t, m.View(), "Failed columns")

	m = press(t, m, "enter")
	assert.Equal(t, stateMenu, m.state)
	assert.Nil(t, m.result)
}

func TestConversionError(t *testing.T) {
	m := InitialModel(Options{})
	m.selectedRule = rules.DefaultSetName
	m.selectedFile = filepath.Join(t.TempDir(), "missing.csv")
	m.state = stateProcessing

	m, cmd := m.convertFile()
	m = run(t, m, cmd)

	require.Equal(t, stateError, m.state)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "missing.csv")
}
