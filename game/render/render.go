package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/treasure-hunt/game/engine"
)

// LegendLines is the symbol key printed before a run
var LegendLines = []string{
	"Legend:",
	"EE: Empty Space",
	"PS: Player Start",
	"XX: Treasure",
	"T1 / T2 / T3 / T4: Traps",
	"OO: Obstacle",
	"R1 / R2: Rewards",
}

// Legend returns the symbol key, one entry per line
func Legend() string {
	return strings.Join(LegendLines, "\n")
}

// Text renders symbol rows as space separated lines
func Text(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, " ")
	}
	return strings.Join(lines, "\n")
}

// Palette colours grid symbols
type Palette struct {
	Empty    lipgloss.Style
	Player   lipgloss.Style
	Treasure lipgloss.Style
	Obstacle lipgloss.Style
	Trap     lipgloss.Style
	Reward   lipgloss.Style
}

// DefaultPalette returns the terminal colours used by the CLI and the viewer
func DefaultPalette() Palette {
	return Palette{
		Empty:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Player:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Bold(true),
		Treasure: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Obstacle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Trap:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Reward:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// Style returns the style for a console symbol
func (p Palette) Style(symbol string) lipgloss.Style {
	switch {
	case symbol == "PS":
		return p.Player
	case symbol == "XX":
		return p.Treasure
	case symbol == "OO":
		return p.Obstacle
	case strings.HasPrefix(symbol, "T"):
		return p.Trap
	case strings.HasPrefix(symbol, "R"):
		return p.Reward
	}
	return p.Empty
}

// Styled renders symbol rows with colours
func (p Palette) Styled(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, sym := range row {
			cells[j] = p.Style(sym).Render(sym)
		}
		lines[i] = strings.Join(cells, " ")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Printer writes the console report of a run
type Printer struct {
	w       io.Writer
	palette *Palette
}

// NewPrinter creates a plain text printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithColor switches the printer to coloured grids
func (p *Printer) WithColor(palette Palette) *Printer {
	p.palette = &palette
	return p
}

func (p *Printer) grid(rows [][]string) string {
	if p.palette != nil {
		return p.palette.Styled(rows)
	}
	return Text(rows)
}

// Legend prints the symbol key
func (p *Printer) Legend() {
	fmt.Fprintln(p.w, Legend())
	fmt.Fprintln(p.w)
}

// Grid prints a titled grid
func (p *Printer) Grid(title string, rows [][]string) {
	fmt.Fprintln(p.w, title)
	fmt.Fprintln(p.w, p.grid(rows))
	fmt.Fprintln(p.w)
}

// Leg prints the report lines for one leg
func (p *Printer) Leg(leg engine.LegReport) {
	fmt.Fprintln(p.w, LegSummary(leg))
	if leg.Outcome != engine.OutcomeSkipped {
		fmt.Fprintf(p.w, "Steps taken to reach this treasure: %d\n", leg.Steps)
		fmt.Fprintf(p.w, "Energy consumed to reach this treasure: %g\n", leg.EnergyConsumed)
	}
	fmt.Fprintf(p.w, "Current player energy: %g\n", leg.EnergyAfter)
	fmt.Fprintln(p.w)
}

// Result prints the full report of a finished run
func (p *Printer) Result(result *engine.RunResult) {
	p.Legend()
	p.Grid("Initial World:", result.InitialGrid)
	for _, leg := range result.Legs {
		p.Leg(leg)
	}
	p.Grid("Final World:", result.FinalGrid)
	fmt.Fprintln(p.w, Totals(result))
}

// LegSummary is the headline of a leg report
func LegSummary(leg engine.LegReport) string {
	switch leg.Outcome {
	case engine.OutcomeCollected:
		return fmt.Sprintf("Treasure at %s collected.", leg.Target)
	case engine.OutcomeUnreachable:
		return fmt.Sprintf("Treasure at %s is unreachable.", leg.Target)
	case engine.OutcomeSkipped:
		return fmt.Sprintf("Treasure at %s skipped (%s).", leg.Target, leg.Reason)
	}
	return fmt.Sprintf("Treasure at %s missed (%s).", leg.Target, leg.Reason)
}

// Totals summarises a run in a few lines
func Totals(result *engine.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Treasures collected: %d/%d\n", result.TreasuresCollected, result.TreasuresTotal)
	fmt.Fprintf(&b, "Total steps: %d\n", result.TotalSteps)
	fmt.Fprintf(&b, "Final energy: %g\n", result.FinalEnergy)
	fmt.Fprintf(&b, "Final position: %s", result.FinalPosition)
	return b.String()
}
