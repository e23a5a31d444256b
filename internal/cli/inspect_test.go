package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

func newTestInspectModel(t *testing.T) inspectModel {
	t.Helper()
	dir := t.TempDir()
	writeBoard(t, dir, false)

	vault, err := host.NewDirVault(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s, err := session.Open(ctx, host.NewHeadless(vault, 160, 120), "board.canvas", session.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return newInspectModel(ctx, s, 30)
}

func press(m inspectModel, k tea.KeyMsg) inspectModel {
	next, _ := m.Update(k)
	return next.(inspectModel)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInspectModelEditing(t *testing.T) {
	m := newTestInspectModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor moved past the last node: %d", m.cursor)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	if len(m.state.SelectedNodes) != 1 || m.state.SelectedNodes[0] != "b" {
		t.Fatalf("selected = %v, want [b]", m.state.SelectedNodes)
	}
	if m.state.Dirty {
		t.Error("selection marked the canvas dirty")
	}

	m = press(m, runes("D"))
	if got := len(m.state.Data.Nodes); got != 3 {
		t.Fatalf("nodes after duplicate = %d, want 3", got)
	}
	if !m.state.Dirty || m.failed {
		t.Errorf("duplicate: dirty=%v status=%q", m.state.Dirty, m.status)
	}

	m = press(m, runes("u"))
	if got := len(m.state.Data.Nodes); got != 2 {
		t.Fatalf("nodes after undo = %d, want 2", got)
	}
	m = press(m, runes("U"))
	if got := len(m.state.Data.Nodes); got != 3 {
		t.Fatalf("nodes after redo = %d, want 3", got)
	}

	m = press(m, runes("s"))
	if m.failed || !strings.HasPrefix(m.status, "saved") {
		t.Errorf("save status = %q", m.status)
	}
	if m.state.Dirty {
		t.Error("canvas still dirty after save")
	}

	m = press(m, runes("u"))
	m = press(m, runes("u"))
	if m.status != "undo: nothing to do" {
		t.Errorf("status = %q, want nothing to do", m.status)
	}

	view := m.View()
	for _, want := range []string{"board.canvas", "alpha", "beta"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestInspectModelOrganize(t *testing.T) {
	m := newTestInspectModel(t)

	m = press(m, runes("o"))
	if !m.state.Organizing {
		t.Fatal("organize did not start")
	}
	if !strings.Contains(m.View(), "organizing") {
		t.Error("view does not show layout progress")
	}

	now := time.Now()
	for i := 0; i < 100 && m.state.Organizing; i++ {
		now = now.Add(time.Second / 30)
		next, cmd := m.Update(frameMsg(now))
		if cmd == nil {
			t.Fatal("frame did not schedule the next frame")
		}
		m = next.(inspectModel)
	}
	if m.state.Organizing {
		t.Fatal("organize did not finish")
	}
	if !m.state.Dirty || !m.state.CanUndo {
		t.Errorf("organize result not committed: dirty=%v canUndo=%v", m.state.Dirty, m.state.CanUndo)
	}

	// Pressing o while organizing cancels.
	m = press(m, runes("o"))
	m = press(m, runes("o"))
	if m.state.Organizing {
		t.Error("second o did not cancel the layout")
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := newTestInspectModel(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a rather long label", 8); got != "a rathe…" {
		t.Errorf("truncate() = %q", got)
	}
}
