package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/pipeline"
	"github.com/stepgraph/stepgraph/pkg/view"
)

// cursorStep is how far one key press moves the cursor, in view pixels.
const cursorStep = 10

// panStep is how far one pan key press moves the view origin.
const panStep = 25

// viewCommand creates the view command for interactive terminal exploration.
func (c *CLI) viewCommand() *cobra.Command {
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Explore an execution graph interactively in the terminal",
		Long: `Explore an execution graph interactively in the terminal.

The view command publishes a layout and opens a terminal UI: move the cursor
over the canvas, pick up and drop nodes, pan and zoom the viewport, and
toggle labels. The same engine backs the HTTP server, so the interactions
mirror what the API offers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd, args[0], opts)
		},
	}

	c.addLayoutFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runView(cmd *cobra.Command, input string, opts pipeline.Options) error {
	if opts.Head == "" {
		return fmt.Errorf("head is required (pass --head or set it in the config file)")
	}

	g, err := graphio.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	eng := view.NewEngine(g, opts.Head, opts.LayoutOptions(), c.Logger)
	prog := newProgress(c.Logger)
	if err := eng.Recompute(cmd.Context()); err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done(fmt.Sprintf("Laid out %d nodes", g.NodeCount()))

	model := newViewModel(eng, input)
	_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
	return err
}

// viewModel is the bubbletea model for the interactive viewer. All state
// lives in the engine; the model only tracks the cursor and which node is
// being dragged.
type viewModel struct {
	engine   *view.Engine
	input    string
	cursorX  int
	cursorY  int
	dragging string
	status   string
}

func newViewModel(eng *view.Engine, input string) viewModel {
	snap := eng.Snapshot()
	m := viewModel{engine: eng, input: input}
	if snap != nil {
		m.cursorX = snap.Width / 2
		m.cursorY = snap.Height / 2
	}
	return m
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		m.cursorY -= cursorStep
	case "down", "j":
		m.cursorY += cursorStep
	case "left", "h":
		m.cursorX -= cursorStep
	case "right", "l":
		m.cursorX += cursorStep

	case "+", "=":
		m.engine.ZoomIn()
		m.status = fmt.Sprintf("zoom %.1f", m.engine.Snapshot().ZoomFactor)
	case "-", "_":
		m.engine.ZoomOut()
		m.status = fmt.Sprintf("zoom %.1f", m.engine.Snapshot().ZoomFactor)

	case "w":
		m.panBy(0, -panStep)
	case "s":
		m.panBy(0, panStep)
	case "a":
		m.panBy(-panStep, 0)
	case "d":
		m.panBy(panStep, 0)

	case "t":
		m.engine.ToggleLabels()
		if m.engine.Snapshot().DrawAllLabels {
			m.status = "labels on"
		} else {
			m.status = "labels off"
		}

	case "r":
		if err := m.engine.Recompute(context.Background()); err != nil {
			m.status = "recompute failed: " + err.Error()
		} else {
			m.dragging = ""
			m.status = "layout recomputed"
		}

	case "enter", " ":
		m = m.pickOrDrop()
	}

	m.clampCursor()
	return m, nil
}

// pickOrDrop picks up the node under the cursor, or drops the held node at
// the cursor position.
func (m viewModel) pickOrDrop() viewModel {
	if m.dragging != "" {
		x, y := m.viewToNatural(m.cursorX, m.cursorY)
		if err := m.engine.SetNodePosition(m.dragging, x, y); err != nil {
			m.status = "drop failed: " + err.Error()
		} else {
			m.status = "dropped " + m.dragging
		}
		m.dragging = ""
		return m
	}

	id, found := m.engine.ClosestNode(m.cursorX, m.cursorY)
	if !found {
		m.engine.HighlightNode("")
		m.status = "no node near cursor"
		return m
	}
	m.engine.HighlightNode(id)
	m.dragging = id
	m.status = "picked up " + id
	return m
}

func (m *viewModel) panBy(dx, dy int) {
	snap := m.engine.Snapshot()
	m.engine.SetViewOrigin(snap.OriginX+dx, snap.OriginY+dy)
}

// viewToNatural converts the cursor's view coordinates back into natural
// canvas coordinates, undoing zoom and origin.
func (m viewModel) viewToNatural(x, y int) (int, int) {
	snap := m.engine.Snapshot()
	nx := int(float64(x+snap.OriginX) / snap.ZoomFactor)
	ny := int(float64(y+snap.OriginY) / snap.ZoomFactor)
	return nx, ny
}

func (m *viewModel) clampCursor() {
	snap := m.engine.Snapshot()
	if snap == nil {
		return
	}
	if m.cursorX < 0 {
		m.cursorX = 0
	} else if m.cursorX > snap.Width {
		m.cursorX = snap.Width
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	} else if m.cursorY > snap.Height {
		m.cursorY = snap.Height
	}
}

var (
	viewPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	viewLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

func (m viewModel) View() string {
	snap := m.engine.Snapshot()
	if snap == nil {
		return StyleWarning.Render("no layout published")
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Stepgraph — " + m.input))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows/hjkl cursor  wasd pan  +/- zoom  enter pick/drop  t labels  r recompute  q quit"))
	b.WriteString("\n\n")

	rows := []string{
		viewLabelStyle.Render("canvas") + StyleValue.Render(fmt.Sprintf("%d×%d, %d nodes", snap.Width, snap.Height, len(snap.Points))),
		viewLabelStyle.Render("zoom") + StyleValue.Render(fmt.Sprintf("%.1f", snap.ZoomFactor)),
		viewLabelStyle.Render("origin") + StyleValue.Render(fmt.Sprintf("(%d, %d)", snap.OriginX, snap.OriginY)),
		viewLabelStyle.Render("cursor") + StyleValue.Render(fmt.Sprintf("(%d, %d)", m.cursorX, m.cursorY)),
	}

	if m.dragging != "" {
		rows = append(rows, viewLabelStyle.Render("holding")+StyleHighlight.Render(m.dragging))
	} else if snap.HighlightedNode != "" {
		line := viewLabelStyle.Render("selected") + StyleHighlight.Render(snap.HighlightedNode)
		if x, y, ok := snap.ViewPosition(snap.HighlightedNode); ok {
			line += StyleDim.Render(fmt.Sprintf("  at (%d, %d)", x, y))
		}
		rows = append(rows, line)
	}

	if len(snap.Inconsistencies) > 0 {
		rows = append(rows, viewLabelStyle.Render("warnings")+
			StyleWarning.Render(fmt.Sprintf("%d nodes without a position", len(snap.Inconsistencies))))
	}

	b.WriteString(viewPanelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(StyleDim.Render(m.status))
		b.WriteString("\n")
	}

	return b.String()
}
