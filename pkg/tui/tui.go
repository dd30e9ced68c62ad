// Package tui provides a terminal user interface for midiretime
package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/converter"
	"github.com/james-see/midiretime/pkg/render"
)

// Piano-roll color scheme
var (
	keyIvory  = lipgloss.Color("#F5F0E1")
	noteAmber = lipgloss.Color("#FFB000")
	rollBlue  = lipgloss.Color("#4FC3F7")
	ebony     = lipgloss.Color("#1E1E1E")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(noteAmber).
			Background(ebony).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(keyIvory).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(noteAmber).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(rollBlue).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(noteAmber).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(noteAmber).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// Action is what a menu item does with the picked file.
type Action int

const (
	ActionRender Action = iota
	ActionExport
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	Renderer    string
}

// menuItems lists one entry per renderer, then export and exit.
func menuItems() []MenuItem {
	var items []MenuItem
	for _, name := range render.Names() {
		r, _ := render.New(name, config.Default())
		items = append(items, MenuItem{
			Title:       strings.ToUpper(name) + " → " + r.Extension(),
			Description: r.Description(),
			Action:      ActionRender,
			Renderer:    name,
		})
	}
	return append(items,
		MenuItem{Title: "EXPORT → .clean.mid", Description: "Re-encode with one end of track per track", Action: ActionExport},
		MenuItem{Title: "Exit", Description: "Exit the application", Action: ActionExit},
	)
}

// Model represents the TUI model
type Model struct {
	cfg          config.Config
	logger       *log.Logger
	items        []MenuItem
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	selected     MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model. Renderer settings other than the renderer
// name come from cfg.
func New(cfg config.Config, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(noteAmber)

	return Model{
		cfg:        cfg,
		logger:     logger,
		items:      menuItems(),
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to see every message while it is open.
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(m.items)-1 {
			m.menuIndex++
		}
	case "enter":
		m.selected = m.items[m.menuIndex]
		if m.selected.Action == ActionExit {
			return m, tea.Quit
		}
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	item, input, cfg, logger := m.selected, m.selectedFile, m.cfg, m.logger
	return func() tea.Msg {
		base := strings.TrimSuffix(input, filepath.Ext(input))

		if item.Action == ActionExport {
			out := base + ".clean.mid"
			conv := converter.New(render.Dump{}, converter.WithLogger(logger))
			if err := conv.ExportFile(input, out); err != nil {
				return conversionDoneMsg{err: err}
			}
			return conversionDoneMsg{outputFile: out}
		}

		cfg.Renderer = item.Renderer
		conv, err := converter.FromConfig(cfg, logger)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		out := base + conv.GetRenderer().Extension()
		if err := conv.ConvertFile(input, out); err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{outputFile: out}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT OUTPUT "))
	s.WriteString("\n\n")

	for i, item := range m.items {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(rollBlue).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" RENDERING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + m.selected.Title))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", converter.Classify(m.err), m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Done!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := strings.Join([]string{
		"",
		"            _     _ _          _   _",
		"  _ __ ___ (_) __| (_)_ __ ___| |_(_)_ __ ___   ___",
		" | '_ ` _ \\| |/ _` | | '__/ _ \\ __| | '_ ` _ \\ / _ \\",
		" | | | | | | | (_| | | | |  __/ |_| | | | | | |  __/",
		" |_| |_| |_|_|\\__,_|_|_|  \\___|\\__|_|_| |_| |_|\\___|",
		"",
	}, "\n")
	return lipgloss.NewStyle().Foreground(noteAmber).Render(logo)
}

// Run starts the TUI application
func Run(cfg config.Config, logger *log.Logger) error {
	p := tea.NewProgram(New(cfg, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
