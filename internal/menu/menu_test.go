package menu

import (
	"bytes"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m model, msg tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_NumberKeys(t *testing.T) {
	tests := []struct {
		key  string
		want Choice
	}{
		{"1", ChoiceRun},
		{"2", ChoiceVersion},
		{"3", ChoiceUpdate},
		{"4", ChoiceExit},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := press(newModel(), runes(tt.key))
			if m.chosen != tt.want {
				t.Errorf("chosen = %v, want %v", m.chosen, tt.want)
			}
			if cmd == nil {
				t.Error("selecting should quit the program")
			}
		})
	}
}

func TestModel_ArrowNavigation(t *testing.T) {
	m := newModel()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.chosen != ChoiceUpdate {
		t.Errorf("chosen = %v, want update", m.chosen)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestModel_CursorWraps(t *testing.T) {
	m := newModel()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != len(items)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(items)-1)
	}
	m, _ = press(m, runes("j"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestModel_QuitAndCancel(t *testing.T) {
	m, _ := press(newModel(), runes("q"))
	if m.chosen != ChoiceExit {
		t.Errorf("q chosen = %v, want exit", m.chosen)
	}

	m, _ = press(newModel(), tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.chosen != ChoiceCancel {
		t.Errorf("ctrl+c chosen = %v, want cancel", m.chosen)
	}
}

func TestModel_IgnoresOtherKeys(t *testing.T) {
	m, cmd := press(newModel(), runes("x"))
	if m.chosen != ChoiceNone {
		t.Errorf("chosen = %v, want none", m.chosen)
	}
	if cmd != nil {
		t.Error("unbound key should not produce a command")
	}
}

func TestModel_View(t *testing.T) {
	m := newModel()
	view := m.View()
	for _, want := range []string{"NETSPEED", "SELECT OPTION", "Run Speed Test", "View Version", "Update", "Exit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = press(m, runes("4"))
	if m.View() != "" {
		t.Error("View() should be empty after a choice")
	}
}

func TestChoice_String(t *testing.T) {
	if ChoiceRun.String() != "run" || ChoiceCancel.String() != "cancel" || Choice(99).String() != "none" {
		t.Error("unexpected Choice names")
	}
}

func TestRenderVersion(t *testing.T) {
	out := RenderVersion("1.2.3", "go1.24.2")
	if !strings.Contains(out, "1.2.3") || !strings.Contains(out, "go1.24.2") {
		t.Errorf("RenderVersion() = %q", out)
	}
}

func TestPause(t *testing.T) {
	var out bytes.Buffer
	if err := Pause(strings.NewReader("\n"), &out); err != nil {
		t.Errorf("Pause() error = %v", err)
	}
	if !strings.Contains(out.String(), "Press ENTER") {
		t.Errorf("Pause() output = %q", out.String())
	}

	// Closed input does not block or fail
	if err := Pause(strings.NewReader(""), &out); err != nil {
		t.Errorf("Pause() on EOF error = %v", err)
	}
}

func TestPauseLeavesRemainingInput(t *testing.T) {
	in := strings.NewReader("\n2\n")
	if err := Pause(in, io.Discard); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	rest, err := io.ReadAll(in)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(rest) != "2\n" {
		t.Errorf("remaining input = %q, want %q", rest, "2\n")
	}
}
