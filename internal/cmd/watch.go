package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/hive/internal/registry"
	"github.com/Iron-Ham/hive/internal/taskboard"
	"github.com/Iron-Ham/hive/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of agents and the task board",
	Long: `Show a live view of registered agents and task board counts, refreshed
periodically and whenever the backing files change.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}
	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directories: atomic saves replace the files, and watches on
	// the old inodes would go quiet after the first rename.
	dirs := map[string]bool{
		filepath.Dir(e.registryPath()): true,
		filepath.Dir(e.tasksPath()):    true,
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	model := newWatchModel(mgr, coord, watcher)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Messages driving the watch model.
type tickMsg time.Time
type fileChangedMsg struct{}
type watchErrMsg struct{ err error }

type watchSnapshot struct {
	agents []*registry.AgentEntry
	board  *taskboard.BoardStatus
	err    error
}

// watchModel is the bubbletea model for the live dashboard.
type watchModel struct {
	mgr     *registry.Manager
	coord   *taskboard.Coordinator
	watcher *fsnotify.Watcher

	snapshot watchSnapshot
	updated  time.Time
	width    int
}

func newWatchModel(mgr *registry.Manager, coord *taskboard.Coordinator, watcher *fsnotify.Watcher) watchModel {
	m := watchModel{mgr: mgr, coord: coord, watcher: watcher}
	m.snapshot = m.refresh()
	m.updated = time.Now()
	return m
}

// refresh loads a fresh snapshot of agents and board counts.
func (m watchModel) refresh() watchSnapshot {
	agents, err := m.mgr.AllAgents()
	if err != nil {
		return watchSnapshot{err: err}
	}
	board, err := m.coord.Status()
	if err != nil {
		return watchSnapshot{err: err}
	}
	return watchSnapshot{agents: agents, board: board}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForChange())
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks on the next fsnotify event.
func (m watchModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				// Lock sentinels churn constantly; only data files matter.
				if filepath.Ext(ev.Name) == ".json" {
					return fileChangedMsg{}
				}
			case err, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.snapshot = m.refresh()
			m.updated = time.Now()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.snapshot = m.refresh()
		m.updated = time.Now()
		return m, tickCmd()

	case fileChangedMsg:
		m.snapshot = m.refresh()
		m.updated = time.Now()
		return m, m.waitForChange()

	case watchErrMsg:
		m.snapshot.err = msg.err
		return m, m.waitForChange()
	}

	return m, nil
}

var (
	watchTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	watchSectionStyle = lipgloss.NewStyle().
				Bold(true).
				MarginTop(1)

	watchHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

func (m watchModel) View() string {
	s := watchTitleStyle.Render("hive") + "\n"

	if m.snapshot.err != nil {
		s += styleFailed.Render(fmt.Sprintf("error: %v", m.snapshot.err)) + "\n"
	}

	s += watchSectionStyle.Render("AGENTS") + "\n"
	if len(m.snapshot.agents) == 0 {
		s += styleInactive.Render("  none registered") + "\n"
	}
	for _, agent := range m.snapshot.agents {
		status := styleActive.Render(string(agent.Status))
		if agent.Status == registry.StatusInactive {
			status = styleInactive.Render(string(agent.Status))
		}
		line := fmt.Sprintf("  %-10s %-8s session=%s requests=%d",
			styleAgentID.Render(agent.AgentID), status, agent.SessionID, agent.TotalRequests)
		if m.width > 0 {
			line = util.TruncateANSI(line, m.width)
		}
		s += line + "\n"
	}

	if board := m.snapshot.board; board != nil {
		s += watchSectionStyle.Render("TASK BOARD") + "\n"
		s += fmt.Sprintf("  %s pending  %s in progress  %s completed  %s failed\n",
			stylePending.Render(fmt.Sprintf("%d", board.Pending)),
			styleAgentID.Render(fmt.Sprintf("%d", board.InProgress)),
			styleActive.Render(fmt.Sprintf("%d", board.Completed)),
			styleFailed.Render(fmt.Sprintf("%d", board.Failed)))
	}

	s += watchHelpStyle.Render(fmt.Sprintf(
		"updated %s · r refresh · q quit", m.updated.Format("15:04:05")))
	return s
}
