// Package menu implements the interactive main menu.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is the action picked from the menu
type Choice int

const (
	ChoiceNone Choice = iota
	ChoiceRun
	ChoiceVersion
	ChoiceUpdate
	ChoiceExit
	ChoiceCancel // ctrl+c
)

func (c Choice) String() string {
	switch c {
	case ChoiceRun:
		return "run"
	case ChoiceVersion:
		return "version"
	case ChoiceUpdate:
		return "update"
	case ChoiceExit:
		return "exit"
	case ChoiceCancel:
		return "cancel"
	default:
		return "none"
	}
}

type item struct {
	choice Choice
	label  string
	style  lipgloss.Style
}

var items = []item{
	{ChoiceRun, "Run Speed Test", lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))},
	{ChoiceVersion, "View Version", lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))},
	{ChoiceUpdate, "Update", lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))},
	{ChoiceExit, "Exit", lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))},
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#22D3EE")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#22D3EE")).
			Padding(0, 9)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#E5E7EB")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#22D3EE"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// keyMap defines keyboard shortcuts
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Number key.Binding
	Quit   key.Binding
	Cancel key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Number, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Number: key.NewBinding(
		key.WithKeys("1", "2", "3", "4"),
		key.WithHelp("1-4", "choose"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc"),
		key.WithHelp("q", "exit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// model holds the menu state
type model struct {
	cursor int
	chosen Choice
	help   help.Model
	keys   keyMap
}

func newModel() model {
	return model{help: help.New(), keys: keys}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.chosen = ChoiceCancel
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			m.chosen = ChoiceExit
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.cursor = (m.cursor - 1 + len(items)) % len(items)
		case key.Matches(msg, m.keys.Down):
			m.cursor = (m.cursor + 1) % len(items)
		case key.Matches(msg, m.keys.Select):
			m.chosen = items[m.cursor].choice
			return m, tea.Quit
		case key.Matches(msg, m.keys.Number):
			idx := int(msg.String()[0] - '1')
			m.cursor = idx
			m.chosen = items[idx].choice
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

// View renders the menu. It renders nothing once a choice is made so the
// menu does not linger above the next screen.
func (m model) View() string {
	if m.chosen != ChoiceNone {
		return ""
	}

	var lines []string
	lines = append(lines, headingStyle.Render("     SELECT OPTION     "))
	lines = append(lines, "")
	for i, it := range items {
		label := fmt.Sprintf("%-18s", it.label)
		number := it.style.Render(fmt.Sprintf("%d.", i+1))
		if i == m.cursor {
			lines = append(lines, "› "+number+" "+selectedStyle.Render(label))
		} else {
			lines = append(lines, "  "+number+" "+label)
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(Header())
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// Header renders the application banner
func Header() string {
	return titleStyle.Render("NETSPEED")
}

// Prompt shows the menu and returns the picked action. Cancelling ctx
// closes the menu with an error.
func Prompt(ctx context.Context, in io.Reader, out io.Writer) (Choice, error) {
	p := tea.NewProgram(newModel(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return ChoiceNone, fmt.Errorf("menu: %w", err)
	}
	return final.(model).chosen, nil
}

// RenderVersion renders the version screen
func RenderVersion(appVersion, goVersion string) string {
	rows := []string{
		headingStyle.Render("      VERSION INFO      "),
		"",
		fmt.Sprintf("netspeed: %s", items[0].style.Render(appVersion)),
		fmt.Sprintf("Go:       %s", items[0].style.Render(goVersion)),
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

// Pause waits for the user to press enter. Input is read one byte at a
// time so nothing past the newline is consumed.
func Pause(in io.Reader, out io.Writer) error {
	fmt.Fprint(out, mutedStyle.Render("  Press ENTER to continue..."))
	defer fmt.Fprintln(out)

	b := make([]byte, 1)
	for {
		n, err := in.Read(b)
		if n == 1 && b[0] == '\n' {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
