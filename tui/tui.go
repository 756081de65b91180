// Package tui shows the bubble map in a terminal. The layout engine is stepped from
// the program's tick messages, so the engine is only ever touched from Update.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
	"github.com/TFMV/liquiditymap/render"
)

// A terminal cell stands for a CellWidth x CellHeight patch of layout space, so
// bubbles keep roughly their on-screen proportions.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

const (
	headerHeight = 2
	footerHeight = 5
)

// Options configures a terminal session
type Options struct {
	Layout       physics.Config
	TickInterval time.Duration
	OnSelect     render.SelectFunc
	Logger       *zap.Logger
}

type tickMsg time.Time

// Model is the bubbletea model of one interactive bubble map
type Model struct {
	graph      *models.Graph
	sim        *physics.Simulation
	controller *render.Controller
	onSelect   render.SelectFunc
	logger     *zap.Logger
	interval   time.Duration

	grid     *render.Grid
	selected *models.Indicator
	paused   bool
	pressed  bool
	width    int
	height   int

	help help.Model
	keys keyMap
}

// New creates a model for g. The engine starts on the first tick.
func New(g *models.Graph, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = physics.DefaultTickInterval
	}
	if !opts.Layout.Viewport.Valid() {
		opts.Layout = physics.DefaultConfig()
	}
	opts.Layout.Logger = opts.Logger

	sim := physics.NewSimulation(g, opts.Layout)
	return Model{
		graph:      g,
		sim:        sim,
		controller: render.NewController(sim, g, opts.OnSelect, opts.Logger),
		onSelect:   opts.OnSelect,
		logger:     opts.Logger,
		interval:   opts.TickInterval,
		help:       help.New(),
		keys:       keys,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick loop
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Selected returns the indicator picked last, if any
func (m Model) Selected() (models.Indicator, bool) {
	if m.selected == nil {
		return models.Indicator{}, false
	}
	return *m.selected, true
}

// Snapshot returns the engine's current positions
func (m Model) Snapshot() physics.Snapshot {
	return m.sim.Snapshot()
}

func (m Model) mapSize() (int, int) {
	return max(m.width, 10), max(m.height-headerHeight-footerHeight, 5)
}

// Update handles terminal input and ticks
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		cols, rows := m.mapSize()
		m.controller.Resize(float64(cols)*CellWidth, float64(rows)*CellHeight)
		m.redraw()

	case tickMsg:
		if m.sim.State() == physics.Stopped {
			return m, nil
		}
		if !m.paused && !m.sim.Settled() {
			m.sim.Step()
		}
		m.redraw()
		return m, m.tick()

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.redraw()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.controller.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Shake):
			vp := m.sim.Viewport()
			m.controller.Resize(vp.Width, vp.Height)
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.selected = nil
		case key.Matches(msg, m.keys.Cycle):
			m.cycleSelection()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.redraw()
	}
	return m, nil
}

// handleMouse maps a terminal mouse event onto layout coordinates and feeds it to
// the controller
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.grid == nil {
		return
	}
	col, row := msg.X, msg.Y-headerHeight
	if msg.Action != tea.MouseActionRelease && (row < 0 || row >= m.grid.Rows) {
		return
	}
	x, y := m.grid.ToWorld(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		_, m.pressed = m.controller.PointerDown(x, y)
	case tea.MouseActionMotion:
		if m.pressed {
			m.controller.PointerMove(x, y)
		}
	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		if ind, ok := m.controller.PointerUp(x, y); ok {
			m.selected = &ind
		}
	}
}

// cycleSelection moves the selection to the next selectable node in graph order
func (m *Model) cycleSelection() {
	var selectable []models.Node
	for _, n := range m.graph.Nodes {
		if n.Selectable {
			selectable = append(selectable, n)
		}
	}
	if len(selectable) == 0 {
		return
	}
	next := 0
	if m.selected != nil {
		for i, n := range selectable {
			if n.ID == m.selected.ID {
				next = (i + 1) % len(selectable)
				break
			}
		}
	}
	ind := selectable[next].Indicator
	m.selected = &ind
	if m.onSelect != nil {
		m.onSelect(ind)
	}
}

func (m *Model) redraw() {
	if m.width == 0 {
		return
	}
	cols, rows := m.mapSize()
	selectedID := ""
	if m.selected != nil {
		selectedID = m.selected.ID
	}
	m.grid = render.Rasterize(render.NewFrame(m.graph, m.sim.Snapshot(), selectedID), cols, rows)
}

// View renders the header, the map and the detail footer
func (m Model) View() string {
	if m.width == 0 || m.grid == nil {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteRune('\n')
	b.WriteString(paintGrid(m.grid))
	b.WriteString(m.detail())
	b.WriteRune('\n')
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) header() string {
	snap := m.sim.Snapshot()
	var legend []string
	for _, g := range models.Groups {
		if len(m.graph.NodesInGroup(g)) > 0 {
			legend = append(legend, legendStyle(g).Render(render.GroupLabel(g)))
		}
	}
	state := snap.State
	if m.paused {
		state = "paused"
	}
	status := statusStyle.Render(fmt.Sprintf("%s  tick %d  alpha %.3f", state, snap.Tick, snap.Alpha))
	title := titleStyle.Render("Liquidity Map")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(legend, " ")) + "\n " + status
}

func (m Model) detail() string {
	if m.selected == nil {
		return detailStyle.Render("Click a bubble to see the indicator.")
	}
	ind := m.selected
	change := fmt.Sprintf("%+.2f", ind.Change)
	switch {
	case ind.Change > 0:
		change = upStyle.Render(change)
	case ind.Change < 0:
		change = downStyle.Render(change)
	}
	line := fmt.Sprintf("%s  %s  %s %s  %s", labelStyle.Render(ind.Code), ind.Name, ind.Value, ind.Unit, change)
	if ind.Description != "" {
		line += "\n" + ind.Description
	}
	return detailStyle.Width(max(m.width-2, 20)).Render(line)
}

// paintGrid colours each run of identically styled cells once
func paintGrid(g *render.Grid) string {
	var b strings.Builder
	for _, row := range g.Cells {
		var run strings.Builder
		var style lipgloss.Style
		var current string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if current == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(style.Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range row {
			s, k := cellStyle(c)
			if k != current {
				flush()
				style, current = s, k
			}
			run.WriteRune(c.Rune)
		}
		flush()
		b.WriteRune('\n')
	}
	return b.String()
}

func cellStyle(c render.Cell) (lipgloss.Style, string) {
	switch c.Kind {
	case render.CellLink:
		return linkStyle, "link"
	case render.CellBubble:
		return bubbleStyle(c.Group, c.Selected), fmt.Sprintf("bubble:%s:%t", c.Group, c.Selected)
	case render.CellLabel:
		return labelStyle, "label"
	}
	return lipgloss.Style{}, ""
}

// Run shows g in the terminal until the user quits or ctx is cancelled
func Run(ctx context.Context, g *models.Graph, opts Options) (*models.Indicator, error) {
	p := tea.NewProgram(New(g, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("terminal session failed: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return nil, nil
	}
	m.controller.Close()
	if ind, selected := m.Selected(); selected {
		return &ind, nil
	}
	return nil, nil
}
