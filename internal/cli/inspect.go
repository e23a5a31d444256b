package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command, an interactive terminal editor
// over a headless session.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse and edit a canvas in the terminal",
		Long: `Open a canvas in an interactive terminal view.

The canvas is loaded into a full editing session: layout commands animate
frame by frame, every edit can be undone and 's' saves back to the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runInspect(ctx context.Context, input string) error {
	cfg := c.Config
	vault, err := host.NewDirVault(filepath.Dir(input))
	if err != nil {
		return err
	}
	hh := host.NewHeadless(vault, cfg.Render.Width, cfg.Render.Height)
	s, err := session.Open(ctx, hh, filepath.Base(input), session.OptionsFromConfig(cfg, c.Logger)...)
	if err != nil {
		return err
	}
	defer s.Close()

	m := newInspectModel(ctx, s, cfg.Render.FPS)
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(inspectModel); ok && fm.state.Dirty {
		printWarning("Unsaved changes in %s were discarded", input)
	}
	return nil
}

// =============================================================================
// inspectModel
// =============================================================================

// frameMsg drives the session's frame loop from the bubbletea event loop.
type frameMsg time.Time

// inspectModel is the bubbletea model of the inspect command. All session
// calls happen in Update, so the session is only used from one goroutine.
type inspectModel struct {
	ctx    context.Context
	sess   *session.Session
	fps    int
	state  session.State
	cursor int
	offset int
	height int
	status string
	failed bool
}

func newInspectModel(ctx context.Context, s *session.Session, fps int) inspectModel {
	if fps <= 0 {
		fps = 30
	}
	return inspectModel{ctx: ctx, sess: s, fps: fps, state: s.State(), height: 15}
}

func (m inspectModel) Init() tea.Cmd {
	return m.tick()
}

func (m inspectModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.sess.Pump(time.Time(msg))
		m.refresh()
		return m, m.tick()
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

// key maps a key press to a session command.
func (m inspectModel) key(k string) (tea.Model, tea.Cmd) {
	nodes := m.state.Data.Nodes
	current := ""
	if m.cursor < len(nodes) {
		current = nodes[m.cursor].ID
	}

	var cmd session.Command
	switch k {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
		return m, nil
	case "down", "j":
		if m.cursor < len(nodes)-1 {
			m.cursor++
		}
		m.scroll()
		return m, nil
	case " ", "space":
		cmd = session.Command{Op: session.CmdSelectNode, ID: current, Additive: true}
	case "esc":
		cmd = session.Command{Op: session.CmdDeselect}
	case "o":
		cmd = session.Command{Op: session.CmdOrganize}
		if m.state.Organizing {
			cmd.Op = session.CmdCancelOrganize
		}
	case "g":
		cmd = session.Command{Op: session.CmdGrid}
	case "r":
		cmd = session.Command{Op: session.CmdResolve}
	case "u":
		cmd = session.Command{Op: session.CmdUndo}
	case "U", "ctrl+r":
		cmd = session.Command{Op: session.CmdRedo}
	case "d", "delete":
		cmd = session.Command{Op: session.CmdRemoveNode, ID: current}
	case "D":
		cmd = session.Command{Op: session.CmdDuplicate, IDs: m.targets(current), X: 20, Y: 20}
	case "m":
		cmd = session.Command{Op: session.CmdToggleMode}
	case "c":
		cmd = session.Command{Op: session.CmdCenter}
	case "f":
		cmd = session.Command{Op: session.CmdFit}
	case "s":
		cmd = session.Command{Op: session.CmdSave}
	default:
		return m, nil
	}
	if cmd.ID == "" && (cmd.Op == session.CmdSelectNode || cmd.Op == session.CmdRemoveNode) {
		return m, nil
	}

	res, err := m.sess.Apply(m.ctx, cmd)
	switch {
	case err != nil:
		m.status, m.failed = err.Error(), true
	case cmd.Op == session.CmdSave:
		m.status, m.failed = "saved "+m.sess.Path(), false
	case !res.Changed:
		m.status, m.failed = string(cmd.Op)+": nothing to do", false
	default:
		m.status, m.failed = string(cmd.Op), false
	}
	m.refresh()
	return m, nil
}

// targets returns the selected nodes, or the node under the cursor when
// nothing is selected.
func (m inspectModel) targets(current string) []string {
	if len(m.state.SelectedNodes) > 0 {
		return m.state.SelectedNodes
	}
	if current == "" {
		return nil
	}
	return []string{current}
}

func (m *inspectModel) refresh() {
	m.state = m.sess.State()
	if m.cursor >= len(m.state.Data.Nodes) {
		m.cursor = max(len(m.state.Data.Nodes)-1, 0)
	}
	m.scroll()
}

func (m *inspectModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m inspectModel) View() string {
	var b strings.Builder

	title := m.sess.Path()
	if title == "" {
		title = "untitled"
	}
	if m.state.Dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  space select  o organize  g grid  r resolve  u/U undo/redo  d delete  D duplicate  m mode  s save  q quit"))
	b.WriteString("\n\n")

	nodes := m.state.Data.Nodes
	end := min(m.offset+m.height, len(nodes))

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := ""
		if slices.Contains(m.state.SelectedNodes, n.ID) {
			mark = "●"
		}
		rows = append(rows, []string{
			cursor, mark, n.ID, string(n.Kind), truncate(n.Text, 24),
			fmt.Sprintf("%.0f", n.Position.X), fmt.Sprintf("%.0f", n.Position.Y),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "ID", "Kind", "Text", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			if col >= 5 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	st := m.sess.Stats()
	info := fmt.Sprintf("  %d nodes · %d edges · %s · %d objects · %.0f fps",
		len(nodes), len(m.state.Data.Edges), st.Mode, st.Objects, st.FPS)
	if running, p := m.sess.Organizing(); running {
		info += fmt.Sprintf(" · organizing %3.0f%%", p*100)
	}
	b.WriteString(listDimStyle.Render(info))
	b.WriteString("\n")

	if m.status != "" {
		style := StyleSuccess
		if m.failed {
			style = lipgloss.NewStyle().Foreground(colorRed)
		}
		b.WriteString("  " + style.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
