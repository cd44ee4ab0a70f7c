package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/prefs"
	"github.com/fennle/chitview/internal/realtime"
	"github.com/fennle/chitview/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewPrinters View = iota
	ViewDetail
	ViewServer
	ViewTerminal
)

// Emitter sends client events over the realtime socket. Satisfied by
// *realtime.Client.
type Emitter interface {
	Emit(event string, payload any) error
}

// Options configures the UI.
type Options struct {
	Context        context.Context
	Client         *chitui.Client
	Realtime       Emitter
	Store          *state.Store
	PollTick       time.Duration
	ThemeName      string
	PrefsPath      string
	DefaultPrinter string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    *chitui.Client
	rt        Emitter
	store     *state.Store
	prefsPath string
	pollTick  time.Duration

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool
	focusedPane int // printers view: 0 = table, 1 = detail pane

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	tickCount   int

	// Printer selection
	selectedRow    int
	defaultPrinter string

	// Detail state
	detailViewport viewport.Model
	fileRow        int

	// Server view state
	server serverExtras

	// Terminal state
	termInput    textinput.Model
	termViewport viewport.Model
	termLines    int

	// Shared progress bar renderer
	progress progress.Model

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "SDCP command"
	input.CharLimit = 512

	return Model{
		ctx:            ctx,
		client:         opts.Client,
		rt:             opts.Realtime,
		store:          opts.Store,
		prefsPath:      prefsPath,
		pollTick:       pollTick,
		theme:          GetTheme(themeName),
		keys:           DefaultKeyMap(),
		currentView:    ViewPrinters,
		defaultPrinter: opts.DefaultPrinter,
		termInput:      input,
		progress:       progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detailViewport = viewport.New(msg.Width, maxInt(msg.Height-3, 1))
			m.termViewport = viewport.New(msg.Width, maxInt(msg.Height-5, 1))
		} else {
			m.detailViewport.Width = msg.Width
			m.detailViewport.Height = maxInt(msg.Height-3, 1)
			m.termViewport.Width = msg.Width
			m.termViewport.Height = maxInt(msg.Height-5, 1)
		}
		m.progress.Width = maxInt(msg.Width/3, 10)
		m.ready = true
		m.updatePrinterRows("")
		m.updateDetailViewport()
		m.updateTermViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		// The cursor's printer must be looked up against the outgoing
		// snapshot; a new snapshot may reorder the list.
		var keep string
		if p := m.selectedPrinter(); p != nil {
			keep = p.ID
		}
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.updatePrinterRows(keep)
		m.updateDetailViewport()
		m.updateTermViewport()
		return m, nil

	case serverExtrasMsg:
		m.server.apply(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	// The terminal prompt consumes printable keys, so it is handled before
	// the global bindings.
	if m.currentView == ViewTerminal {
		return m.handleTerminalKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "e":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case "tab":
		// Inside the printers view tab moves pane focus; elsewhere it
		// cycles views.
		if m.currentView == ViewPrinters {
			m.focusedPane = 1 - m.focusedPane
			return m, nil
		}
		m.cycleView(false)
		return m.enterView()

	case "shift+tab":
		if m.currentView == ViewPrinters {
			m.focusedPane = 1 - m.focusedPane
			return m, nil
		}
		m.cycleView(true)
		return m.enterView()

	case "q":
		m.currentView = ViewPrinters
		return m, nil

	case "s":
		m.currentView = ViewServer
		return m.enterView()

	case ":":
		m.currentView = ViewTerminal
		m.termInput.Focus()
		return m, textinput.Blink

	case "esc":
		m.currentView = ViewPrinters
		return m, nil

	case "f":
		if p := m.selectedPrinter(); p != nil {
			m.emit(realtime.EmitPrinterFiles, realtime.PrinterAction{ID: p.ID})
			m.toast("Requested file list", "info")
		}
		return m, nil

	case "d":
		if p := m.selectedPrinter(); p != nil {
			m.defaultPrinter = p.ID
			// Pinning resorts the list; keep the cursor on the printer.
			m.updatePrinterRows(p.ID)
			m.savePrefs()
			m.toast("Default printer: "+printerLabel(*p), "info")
		}
		return m, nil

	case "P":
		return m.confirmAction("Pause the current print?", realtime.EmitActionPause)

	case "R":
		return m.confirmAction("Resume the paused print?", realtime.EmitActionResume)

	case "S":
		return m.confirmAction("Stop the current print?", realtime.EmitActionStop)
	}

	switch m.currentView {
	case ViewPrinters:
		return m.handlePrintersKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	}

	return m, nil
}

// cycleView moves to the next (or previous) view in the fixed cycle
// Printers, Detail, Server, Terminal.
func (m *Model) cycleView(reverse bool) {
	order := []View{ViewPrinters, ViewDetail, ViewServer, ViewTerminal}
	idx := 0
	for i, v := range order {
		if v == m.currentView {
			idx = i
			break
		}
	}
	if reverse {
		idx = (idx + len(order) - 1) % len(order)
	} else {
		idx = (idx + 1) % len(order)
	}
	m.currentView = order[idx]
}

// enterView runs the side effects of switching into the current view.
func (m Model) enterView() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewDetail:
		m.updateDetailViewport()
		return m, nil
	case ViewServer:
		return m, fetchServerExtrasCmd(m.ctx, m.client)
	case ViewTerminal:
		m.termInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// confirmAction opens a y/n modal that emits a printer action on confirm.
func (m Model) confirmAction(prompt string, event string) (tea.Model, tea.Cmd) {
	p := m.selectedPrinter()
	if p == nil {
		return m, nil
	}
	id := p.ID
	m.modal = NewConfirmModal(prompt+" ("+printerLabel(*p)+")", func() tea.Msg {
		m.emit(event, realtime.PrinterAction{ID: id})
		return nil
	})
	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.tickCount++
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	// The server view refreshes its plugin data on a slower cadence.
	if m.currentView == ViewServer && m.tickCount%5 == 0 {
		cmds = append(cmds, fetchServerExtrasCmd(m.ctx, m.client))
	}

	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// emit sends a realtime event, surfacing failures as toasts.
func (m Model) emit(event string, payload any) {
	if m.rt == nil {
		return
	}
	if err := m.rt.Emit(event, payload); err != nil {
		m.toast("Send failed: "+err.Error(), "error")
	}
}

func (m Model) toast(message, kind string) {
	if m.store != nil {
		m.store.AddToast(message, kind)
	}
}

// savePrefs persists the sticky UI choices. Failures are ignored; the
// session keeps its in-memory values.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{
		Theme:          m.theme.Name,
		DefaultPrinter: m.defaultPrinter,
	})
}

// renderMain renders the full UI: header, content, footer.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewPrinters:
		return m.renderPrinters()
	case ViewDetail:
		return m.renderDetail()
	case ViewServer:
		return m.renderServer()
	case ViewTerminal:
		return m.renderTerminal()
	default:
		return ""
	}
}

// contentHeight is the space left between header and footer.
func (m Model) contentHeight() int {
	return maxInt(m.height-2, 1)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
