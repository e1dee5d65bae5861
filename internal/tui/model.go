package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/Jayphen/todoboard/internal/dispatch"
	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/notify"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/redis"
	"github.com/Jayphen/todoboard/internal/store"
	"github.com/Jayphen/todoboard/internal/tasks"
)

const (
	refreshInterval = 30 * time.Second
	fetchTimeout    = 15 * time.Second
	statusDuration  = 3 * time.Second
)

// Options configures a board model.
type Options struct {
	Store store.TaskStore

	// StoreName keys the offline snapshot. Defaults to the store's Info().Name.
	StoreName string

	// Notifier receives every dispatch outcome in addition to the status line.
	Notifier notify.Notifier

	// Cache is optional. When set, fetched collections are snapshotted and a
	// failed fetch falls back to the last snapshot.
	Cache *redis.Client

	Config  projection.Config
	Locale  language.Tag
	Version string
	Log     *logging.Logger

	// Now overrides the clock for overdue checks.
	Now func() time.Time
}

// Model is the Bubbletea model for the board.
type Model struct {
	// Data
	tasks    []tasks.Task
	members  []tasks.Member
	proj     projection.Projection
	selected int

	// Drag target while a task is picked up
	targetIdx int

	// UI state
	loading       bool
	offline       bool
	freshness     redis.Freshness
	fetchedAt     time.Time
	err           error
	statusMessage string
	statusExpiry  time.Time
	pending       *dispatch.PendingDelete
	searchMode    bool
	searchInput   textinput.Model
	width, height int
	version       string

	// Components
	spinner spinner.Model

	// Dependencies
	store     store.TaskStore
	storeName string
	board     *dispatch.Board
	recorder  *notify.Recorder
	cache     *redis.Client
	locale    language.Tag
	now       func() time.Time
	log       *logging.Logger
}

// Messages
type (
	tasksMsg struct {
		tasks     []tasks.Task
		members   []tasks.Member
		fetchedAt time.Time
		offline   bool
		freshness redis.Freshness
		err       error
	}
	errMsg         struct{ err error }
	tickMsg        time.Time
	statusClearMsg struct{}
	mutationMsg    struct {
		wrote bool
		err   error
	}
)

// NewModel creates a new board model.
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorCyan)

	ti := textinput.New()
	ti.Placeholder = "search title or description"
	ti.CharLimit = 200
	ti.Width = 40

	log := opts.Log
	if log == nil {
		log = logging.Get()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.StoreName
	if name == "" && opts.Store != nil {
		name = opts.Store.Info().Name
	}
	cfg := opts.Config
	if cfg.View == "" {
		cfg = projection.DefaultConfig()
	}

	rec := &notify.Recorder{}
	d := dispatch.New(opts.Store, notify.Multi(rec, opts.Notifier), log.WithCommand("tui"))

	m := Model{
		loading:     true,
		searchInput: ti,
		spinner:     s,
		version:     opts.Version,
		store:       opts.Store,
		storeName:   name,
		board:       dispatch.NewBoard(d, cfg),
		recorder:    rec,
		cache:       opts.Cache,
		locale:      opts.Locale,
		now:         now,
		log:         log,
	}
	m.recompute()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchTasks,
		m.tick(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksMsg:
		m.loading = false
		m.err = nil
		m.tasks = msg.tasks
		m.members = msg.members
		m.fetchedAt = msg.fetchedAt
		m.offline = msg.offline
		m.freshness = msg.freshness
		m.board.SetTasks(msg.tasks)
		m.recompute()
		if msg.offline && msg.err != nil {
			m.setStatus(fmt.Sprintf("Offline, showing snapshot: %v", msg.err))
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case mutationMsg:
		if n, ok := m.recorder.Last(); ok && (msg.wrote || msg.err != nil) {
			m.setStatus(n.String())
			return m, tea.Batch(m.fetchTasks, m.clearStatusLater())
		}
		if msg.err != nil {
			m.setStatus(msg.err.Error())
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchTasks, m.tick())

	case statusClearMsg:
		if !m.now().Before(m.statusExpiry) {
			m.statusMessage = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.searchMode {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchMode {
		return m.handleSearchKey(msg)
	}
	if m.pending != nil {
		return m.handleConfirmKey(msg)
	}
	if m.dragging() {
		return m.handleDragKey(msg)
	}

	cfg := m.board.Config()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.proj.List)-1 {
			m.selected++
		}
		return m, nil

	case "1", "2", "3":
		cfg.View = projection.Views[int(msg.String()[0]-'1')]
		m.setConfig(cfg)
		return m, nil

	case "s":
		cfg.Sort.By = nextSortKey(cfg.Sort.By)
		m.setConfig(cfg)
		m.setStatus("Sorted by " + string(cfg.Sort.By))
		return m, m.clearStatusLater()

	case "o":
		cfg.Sort.Order = cfg.Sort.Order.Flip()
		m.setConfig(cfg)
		return m, nil

	case "c":
		cfg.Filter.ShowCompleted = !cfg.Filter.ShowCompleted
		m.setConfig(cfg)
		return m, nil

	case "d":
		cfg.Filter.ShowOverdueOnly = !cfg.Filter.ShowOverdueOnly
		m.setConfig(cfg)
		return m, nil

	case "/":
		m.searchMode = true
		m.searchInput.SetValue(cfg.Filter.Search)
		m.searchInput.Focus()
		return m, textinput.Blink

	case " ":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.fire(dispatch.DragStart(t.ID))
		zones := m.dropZones()
		m.targetIdx = originZone(t, zones, m.selected)
		if len(zones) > 0 {
			m.fire(dispatch.DragOver(zones[m.targetIdx]))
		}
		return m, nil

	case "t":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.changeStatus(t.ID, nextStatus(tasks.EffectiveStatus(t)))

	case "x":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.pending = m.board.Dispatcher().RequestDelete(t.ID)
		return m, nil

	case "r":
		m.loading = true
		return m, m.fetchTasks
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		cfg := m.board.Config()
		cfg.Filter.Search = ""
		m.setConfig(cfg)
		return m, nil
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		cfg := m.board.Config()
		cfg.Filter.Search = strings.TrimSpace(m.searchInput.Value())
		m.setConfig(cfg)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		p := m.pending
		m.pending = nil
		return m, m.confirmDelete(p)
	case "n", "N", "esc":
		m.pending.Cancel()
		m.pending = nil
		m.setStatus("Cancelled")
		return m, m.clearStatusLater()
	}
	return m, nil
}

func (m Model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	zones := m.dropZones()

	switch msg.String() {
	case "esc":
		m.fire(dispatch.DragEnd())
		return m, nil
	case "enter", " ":
		if len(zones) == 0 {
			m.fire(dispatch.DragEnd())
			return m, nil
		}
		return m, m.drop(zones[m.targetIdx])
	case "ctrl+c":
		m.fire(dispatch.DragEnd())
		return m, tea.Quit
	}

	next := moveTarget(m.board.Config().View, m.targetIdx, len(zones), msg.String())
	if next != m.targetIdx && len(zones) > 0 {
		m.fire(dispatch.DragLeave(zones[m.targetIdx], true))
		m.targetIdx = next
		m.fire(dispatch.DragOver(zones[next]))
	}
	return m, nil
}

// moveTarget maps an arrow key to the next drop target index. Kanban columns
// move sideways, matrix cells move on a 2x2 grid and list slots move
// vertically.
func moveTarget(view projection.View, idx, n int, key string) int {
	if n == 0 {
		return idx
	}
	switch view {
	case projection.ViewKanban:
		switch key {
		case "left", "h":
			idx--
		case "right", "l":
			idx++
		}
	case projection.ViewMatrix:
		switch key {
		case "left", "h", "right", "l":
			idx ^= 1
		case "up", "k", "down", "j":
			idx ^= 2
		}
	default:
		switch key {
		case "up", "k":
			idx--
		case "down", "j":
			idx++
		}
	}
	return max(0, min(idx, n-1))
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.pending != nil {
		b.WriteString(m.renderConfirmDialog())
		b.WriteString("\n")
	}

	if m.searchMode {
		b.WriteString(m.renderSearchPrompt())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderBoard())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return lipgloss.NewStyle().Padding(1).Render(b.String())
}

// Helper methods

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusExpiry = m.now().Add(statusDuration)
}

func (m *Model) setConfig(cfg projection.Config) {
	m.board.SetConfig(cfg)
	m.recompute()
}

func (m *Model) recompute() {
	env := projection.Env{
		Now:     m.now(),
		Members: tasks.NewMemberIndex(m.members),
		Locale:  m.locale,
	}
	m.proj = projection.Run(m.tasks, m.board.Config(), env)
	if m.selected >= len(m.proj.List) {
		m.selected = max(0, len(m.proj.List)-1)
	}
}

func (m *Model) fire(ev dispatch.Event) {
	// Pick-up and hover never write, so Handle cannot fail here.
	_, _ = m.board.Handle(context.Background(), ev)
}

func (m Model) dragging() bool {
	return m.board.State().Phase != dispatch.PhaseIdle
}

func (m Model) selectedTask() (tasks.Task, bool) {
	if m.selected >= 0 && m.selected < len(m.proj.List) {
		return m.proj.List[m.selected], true
	}
	return tasks.Task{}, false
}

// dropZones lists the targets a picked-up task can move between in the
// current view.
func (m Model) dropZones() []dispatch.Zone {
	var zones []dispatch.Zone
	switch m.proj.View {
	case projection.ViewKanban:
		for _, p := range tasks.Priorities {
			zones = append(zones, dispatch.ColumnZone(p))
		}
	case projection.ViewMatrix:
		for _, q := range projection.Quadrants {
			zones = append(zones, dispatch.QuadrantZone(q))
		}
	default:
		for i := range m.proj.List {
			zones = append(zones, dispatch.ListZone(i))
		}
	}
	return zones
}

// originZone returns the index of the zone the task currently sits in.
func originZone(t tasks.Task, zones []dispatch.Zone, listIndex int) int {
	for i, z := range zones {
		switch z.Kind {
		case dispatch.ZoneColumn:
			if z.Priority == t.Priority {
				return i
			}
		case dispatch.ZoneQuadrant:
			if z.Quadrant == projection.QuadrantOf(t) {
				return i
			}
		case dispatch.ZoneListSlot:
			if z.Index == listIndex {
				return i
			}
		}
	}
	return 0
}

func nextSortKey(k projection.SortKey) projection.SortKey {
	for i, key := range projection.SortKeys {
		if key == k {
			return projection.SortKeys[(i+1)%len(projection.SortKeys)]
		}
	}
	return projection.SortKeys[0]
}

func nextStatus(s tasks.Status) tasks.Status {
	for i, st := range tasks.Statuses {
		if st == s {
			return tasks.Statuses[(i+1)%len(tasks.Statuses)]
		}
	}
	return tasks.StatusOpen
}

// Commands

func (m Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) clearStatusLater() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m Model) fetchTasks() tea.Msg {
	if m.store == nil {
		return errMsg{err: errors.New("no task store configured")}
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	all, err := m.store.List(ctx)
	if err != nil {
		m.log.WithError(err).Warn("fetch failed")
		if snap := m.loadSnapshot(ctx); snap != nil {
			return tasksMsg{
				tasks:     snap.Tasks,
				members:   snap.Members,
				fetchedAt: time.UnixMilli(snap.FetchedAt),
				offline:   true,
				freshness: redis.DetermineFreshness(snap, m.now()),
				err:       err,
			}
		}
		return errMsg{err: err}
	}

	// A missing directory only disables the assignee filter.
	members, err := store.Members(ctx, m.store)
	if err != nil {
		m.log.WithError(err).Warn("member lookup failed")
	}

	fetched := m.now()
	if m.cache != nil {
		snap := &redis.Snapshot{Store: m.storeName, FetchedAt: fetched.UnixMilli(), Tasks: all, Members: members}
		if err := m.cache.SetSnapshot(ctx, snap); err != nil {
			m.log.WithError(err).Debug("snapshot not saved")
		}
	}

	return tasksMsg{tasks: all, members: members, fetchedAt: fetched}
}

func (m Model) loadSnapshot(ctx context.Context) *redis.Snapshot {
	if m.cache == nil {
		return nil
	}
	snap, err := m.cache.GetSnapshot(ctx, m.storeName)
	if err != nil {
		return nil
	}
	return snap
}

func (m Model) drop(z dispatch.Zone) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		wrote, err := b.Handle(ctx, dispatch.Drop(z))
		_, _ = b.Handle(ctx, dispatch.DragEnd())
		return mutationMsg{wrote: wrote, err: err}
	}
}

func (m Model) changeStatus(id string, s tasks.Status) tea.Cmd {
	d := m.board.Dispatcher()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		_, err := d.ChangeStatus(ctx, id, s)
		return mutationMsg{wrote: true, err: err}
	}
}

func (m Model) confirmDelete(p *dispatch.PendingDelete) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		err := p.Confirm(ctx)
		return mutationMsg{wrote: true, err: err}
	}
}
