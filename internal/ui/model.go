package ui

import (
	"context"
	"os"
	"strings"

	"github.com/nconklindev/colmap/internal/config"
	"github.com/nconklindev/colmap/internal/converter"
	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/table"
	"github.com/nconklindev/colmap/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateMenu state = iota
	stateRuleSelect
	stateFilePicker
	stateProcessing
	stateComplete
	stateError
	stateEditSelect
	stateNewName
	stateLink
	stateEditField
)

type pickerPurpose int

const (
	pickInput pickerPurpose = iota
	pickSample
)

type pane int

const (
	paneOutputs pane = iota
	paneSamples
)

type editField int

const (
	fieldOutputName editField = iota
	fieldSourceColumn
	fieldArgument
)

func (f editField) label() string {
	switch f {
	case fieldSourceColumn:
		return "Source column"
	case fieldArgument:
		return "Argument"
	default:
		return "Output name"
	}
}

var menuItems = []string{"Run conversion", "Manage rule sets"}

const newRuleSetPlaceholder = "B社用設定"

// Options wires the model to the session's store and settings.
type Options struct {
	Store     *rules.Store
	Config    *config.Config
	RulesFile string
	// Context carries the logger used by conversions.
	Context context.Context
}

type Model struct {
	state     state
	store     *rules.Store
	cfg       *config.Config
	rulesFile string
	ctx       context.Context

	filepicker   filepicker.Model
	purpose      pickerPurpose
	selectedFile string

	menuCursor   int
	ruleCursor   int
	selectedRule string

	editRule     string
	sampleFile   string
	samples      []table.Sample
	outputCursor int
	sampleCursor int
	focus        pane
	field        editField
	input        textinput.Model
	notice       string
	noticeIsErr  bool

	result       *types.ConversionResult
	preview      btable.Model
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	err    error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	err    error
}

type sampleLoadedMsg struct {
	path  string
	table *table.Table
	err   error
}

type rulesExportedMsg struct {
	path string
	err  error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx", ".xlsm"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"))

	input := textinput.New()
	input.CharLimit = 128
	input.Width = 40

	store := opts.Store
	if store == nil {
		store = rules.NewDefaultStore()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = defaultConfig()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return Model{
		state:      stateMenu,
		store:      store,
		cfg:        cfg,
		rulesFile:  opts.RulesFile,
		ctx:        ctx,
		filepicker: fp,
		input:      input,
		progress:   prog,
	}
}

func defaultConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{
			Encoding:      string(converter.EncodingUTF8BOM),
			Format:        string(converter.FormatCSV),
			LineEnding:    "lf",
			ErrorSentinel: "ERROR",
		},
		UI: config.UIConfig{PreviewRows: converter.DefaultPreviewRows, SampleLength: 10},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, subtitle and help lines
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case stateMenu:
			return m.updateMenu(msg)
		case stateRuleSelect:
			return m.updateRuleSelect(msg)
		case stateFilePicker:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "m":
				return m.backFromPicker(), nil
			}
		case stateComplete, stateError:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter", "esc", "m":
				return m.toMenu(), nil
			}
		case stateEditSelect:
			return m.updateEditSelect(msg)
		case stateNewName:
			return m.updateNewName(msg)
		case stateLink:
			return m.updateLink(msg)
		case stateEditField:
			return m.updateEditField(msg)
		}

	case sampleLoadedMsg:
		m.state = stateLink
		if msg.err != nil {
			m.setNotice("sample load failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.sampleFile = msg.path
		m.samples = msg.table.Samples(m.cfg.UI.SampleLength)
		m.sampleCursor = 0
		m.focus = paneSamples
		m.setNotice("loaded sample "+msg.path, false)
		return m, nil

	case rulesExportedMsg:
		if msg.err != nil {
			m.setNotice("export failed: "+msg.err.Error(), true)
		} else {
			m.setNotice("rule sets written to "+msg.path, false)
		}
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.preview = newPreviewTable(msg.result)
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			if m.purpose == pickSample {
				return m, m.loadSample(path)
			}
			m.selectedFile = path
			m.state = stateProcessing
			return m.convertFile()
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) toMenu() Model {
	m.state = stateMenu
	m.err = nil
	m.result = nil
	return m
}

func (m Model) openPicker(purpose pickerPurpose) (Model, tea.Cmd) {
	m.purpose = purpose
	m.state = stateFilePicker
	return m, m.filepicker.Init()
}

func (m Model) backFromPicker() Model {
	if m.purpose == pickSample {
		m.state = stateLink
		return m
	}
	return m.toMenu()
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(menuItems)-1 {
			m.menuCursor++
		}
	case "enter":
		m.ruleCursor = 0
		if m.menuCursor == 0 {
			m.state = stateRuleSelect
		} else {
			m.state = stateEditSelect
		}
	}
	return m, nil
}

func (m Model) updateRuleSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := m.store.Names()
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
		if m.ruleCursor < len(names)-1 {
			m.ruleCursor++
		}
	case "enter":
		if len(names) == 0 {
			return m, nil
		}
		m.selectedRule = names[m.ruleCursor]
		return m.openPicker(pickInput)
	}
	return m, nil
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	set, err := m.store.MustGet(m.selectedRule)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}

	encoding, err := converter.ParseEncoding(m.cfg.Output.Encoding)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}
	format, err := converter.ParseFormat(m.cfg.Output.Format)
	if err != nil {
		m.err = err
		m.state = stateError
		return m, nil
	}

	req := converter.Request{
		InputFile:   m.selectedFile,
		OutputFile:  converter.OutputPath(m.selectedFile, format),
		RuleSetName: m.selectedRule,
		Rules:       set,
		Format:      format,
		Write:       converter.WriteOptions{Encoding: encoding, CRLF: m.cfg.Output.CRLF()},
		Sentinel:    m.cfg.Output.ErrorSentinel,
		MaxFileSize: m.cfg.Input.MaxFileSize,
		PreviewRows: m.cfg.UI.PreviewRows,
	}

	// Capture channels for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	ctx := m.ctx

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := converter.Convert(ctx, req, progressChan)

				resultChan <- conversionResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) loadSample(path string) tea.Cmd {
	return func() tea.Msg {
		t, err := table.LoadFile(path)
		return sampleLoadedMsg{path: path, table: t, err: err}
	}
}

func (m Model) exportRules() tea.Cmd {
	path := m.rulesFile
	store := m.store
	return func() tea.Msg {
		return rulesExportedMsg{path: path, err: rules.WriteFile(path, store)}
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = strings.TrimSpace(text)
	m.noticeIsErr = isErr
}
