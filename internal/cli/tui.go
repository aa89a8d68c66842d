package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/install"
	"github.com/gantryhq/gantry/pkg/observability"
)

// =============================================================================
// InstallModel - Live install progress view
// =============================================================================

// pkgState tracks one package's progress through its install task.
type pkgState int

const (
	stateInstalling pkgState = iota
	stateInstalled
	stateSkipped
	stateFailed
)

// Messages flowing from the engine's install hooks into the model.
type (
	pkgStartedMsg struct{ name string }

	pkgDoneMsg struct {
		name  string
		newly bool
		err   error
	}

	requestDoneMsg struct {
		result *install.Result
		err    error
	}

	tickMsg time.Time
)

// installModel is the bubbletea model for the live install view. Rows appear
// as the engine claims tasks, so the view grows while resolution discovers
// the closure.
type installModel struct {
	title  string
	order  []string // packages in the order their tasks started
	states map[string]pkgState
	errs   map[string]string
	frame  int
	frames []string
	done   bool
	cancel context.CancelFunc

	result *install.Result
	err    error
}

func newInstallModel(title string, cancel context.CancelFunc) installModel {
	return installModel{
		title:  title,
		states: map[string]pkgState{},
		errs:   map[string]string{},
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		cancel: cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m installModel) Init() tea.Cmd {
	return tick()
}

func (m installModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Abandon the wait; started tasks settle on their own.
			m.cancel()
			return m, nil
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()

	case pkgStartedMsg:
		if _, seen := m.states[msg.name]; !seen {
			m.order = append(m.order, msg.name)
		}
		m.states[msg.name] = stateInstalling

	case pkgDoneMsg:
		if _, seen := m.states[msg.name]; !seen {
			m.order = append(m.order, msg.name)
		}
		switch {
		case msg.err != nil:
			m.states[msg.name] = stateFailed
			m.errs[msg.name] = msg.err.Error()
		case msg.newly:
			m.states[msg.name] = stateInstalled
		default:
			m.states[msg.name] = stateSkipped
		}

	case requestDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m installModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n\n")

	for _, name := range m.order {
		switch m.states[name] {
		case stateInstalling:
			frame := m.frames[m.frame%len(m.frames)]
			fmt.Fprintf(&b, "  %s %s\n", styleSpinner.Render(frame), name)
		case stateInstalled:
			fmt.Fprintf(&b, "  %s %s\n", markSuccess.render(), name)
		case stateSkipped:
			fmt.Fprintf(&b, "  %s %s\n", markInfo.render(), StyleDim.Render(name+" (present)"))
		case stateFailed:
			fmt.Fprintf(&b, "  %s %s  %s\n", markError.render(), name, StyleError.Render(m.errs[name]))
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(StyleDim.Render("  done"))
	} else {
		b.WriteString(StyleDim.Render("  q to stop waiting"))
	}
	b.WriteString("\n")

	return b.String()
}

// =============================================================================
// Hook Bridge
// =============================================================================

// teaHooks forwards engine install events into a running bubbletea program.
type teaHooks struct {
	observability.NoopInstallHooks
	p *tea.Program
}

func (h teaHooks) OnInstallStart(_ context.Context, name string) {
	h.p.Send(pkgStartedMsg{name: name})
}

func (h teaHooks) OnInstallComplete(_ context.Context, name string, newly bool, _ time.Duration, err error) {
	h.p.Send(pkgDoneMsg{name: name, newly: newly, err: err})
}

// =============================================================================
// Runner
// =============================================================================

// runInstallTUI drives an install request under a live progress view. The
// request runs in its own goroutine; the view quits when it settles.
func runInstallTUI(ctx context.Context, eng *install.Engine, refs []deps.Ref, opts install.RequestOptions) (*install.Result, error) {
	logger := loggerFromContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newInstallModel("Installing "+refsLabel(refs), cancel))

	observability.SetInstallHooks(teaHooks{p: p})
	defer observability.SetInstallHooks(observability.NoopInstallHooks{})

	logger.Debug("starting live install view", "refs", len(refs))
	go func() {
		result, err := eng.Require(ctx, refs, opts)
		p.Send(requestDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(installModel)
	logger.Debug("live install view settled", "err", m.err)
	return m.result, m.err
}

// refsLabel renders the request's references for the view title.
func refsLabel(refs []deps.Ref) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
