package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/view"
)

type sheetMsg struct {
	owner any
	resp  bridge.Response
}

// sheetPane looks an animal up by tag number.
type sheetPane struct {
	lookup func(caravana string) bridge.Response
	input  textinput.Model
	busy   bool
	sheet  string
}

func newSheetPane(lookup func(caravana string) bridge.Response) *sheetPane {
	in := textinput.New()
	in.Prompt = "Caravana: "
	in.Placeholder = "ej. 1234"
	in.Focus()
	return &sheetPane{lookup: lookup, input: in}
}

func (p *sheetPane) Init() tea.Cmd { return textinput.Blink }

func (p *sheetPane) Update(msg tea.Msg) (view.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case sheetMsg:
		if msg.owner != p {
			return p, nil
		}
		p.busy = false
		p.sheet = renderSheet(msg.resp)
		return p, nil
	case tea.KeyMsg:
		if msg.String() == "enter" {
			tag := strings.TrimSpace(p.input.Value())
			if tag == "" || p.busy {
				return p, nil
			}
			p.busy = true
			p.sheet = labelStyle.Render("buscando " + tag + "...")
			return p, func() tea.Msg { return sheetMsg{owner: p, resp: p.lookup(tag)} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *sheetPane) View() string {
	lines := []string{titleStyle.Render("Ficha de animal"), "", p.input.View()}
	if p.sheet != "" {
		lines = append(lines, "", p.sheet)
	}
	lines = append(lines, "", help("enter", "buscar"))
	return strings.Join(lines, "\n")
}

// renderSheet draws a CONSULTAR_ANIMAL answer.
func renderSheet(resp bridge.Response) string {
	if msg, failed := resp.Err(); failed {
		return statusErrStyle.Render(msg)
	}
	if resp.String("status") == "empty" {
		return warnStyle.Render("Animal no encontrado")
	}
	a := resp.Map("animal")
	if a == nil {
		return statusErrStyle.Render("respuesta sin datos de animal")
	}
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-10s", label)) + valueStyle.Render(value)
	}
	lines := []string{
		row("Caravana", a.String("caravana")),
		row("Estado", a.String("estado")),
		row("Leche", a.String("leche")+" L"),
		row("DEL", a.String("del")),
		row("Lactancia", a.String("lact")),
		row("Padre", a.String("padre")),
	}
	for _, item := range resp.List("alertas") {
		alert := bridge.AsResponse(item)
		if alert == nil {
			continue
		}
		style := warnStyle
		if c := alert.String("color"); c != "" {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
		}
		lines = append(lines, style.Render(alert.String("msj")))
	}
	return strings.Join(lines, "\n")
}

// herdPane is the chute table. Enter shows the selected animal's sheet.
type herdPane struct {
	lookup func(caravana string) bridge.Response
	table  table.Model
	busy   bool
	sheet  string
}

func newHerdPane(resp bridge.Response, lookup func(caravana string) bridge.Response) *herdPane {
	cols := []table.Column{
		{Title: "Caravana", Width: 10},
		{Title: "Estado", Width: 16},
		{Title: "Leche (L)", Width: 10},
	}
	var rows []table.Row
	for _, item := range resp.List("animales") {
		r := bridge.AsResponse(item)
		if r == nil {
			continue
		}
		rows = append(rows, table.Row{r.String("id"), r.String("rpro"), fmt.Sprintf("%.1f", r.Float("leche"))})
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true), table.WithHeight(12))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Bold(true).Foreground(colorAccent)
	t.SetStyles(styles)
	return &herdPane{lookup: lookup, table: t}
}

func (p *herdPane) Update(msg tea.Msg) (view.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case sheetMsg:
		if msg.owner != p {
			return p, nil
		}
		p.busy = false
		p.sheet = renderSheet(msg.resp)
		return p, nil
	case tea.KeyMsg:
		if msg.String() == "enter" {
			row := p.table.SelectedRow()
			if row == nil || p.busy {
				return p, nil
			}
			tag := row[0]
			p.busy = true
			return p, func() tea.Msg { return sheetMsg{owner: p, resp: p.lookup(tag)} }
		}
	}
	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p *herdPane) View() string {
	body := titleStyle.Render(fmt.Sprintf("Manga (%d animales)", len(p.table.Rows()))) + "\n\n" + p.table.View()
	if p.sheet != "" {
		body += "\n\n" + p.sheet
	}
	return body + "\n\n" + help("j/k", "mover", "enter", "ficha")
}

type barPoint struct {
	Label string
	Value float64
}

// renderBars draws one horizontal bar per point, scaled to the largest.
func renderBars(points []barPoint, width int) string {
	maxV := 0.0
	for _, p := range points {
		maxV = max(maxV, p.Value)
	}
	if maxV <= 0 {
		maxV = 1
	}
	lines := make([]string, 0, len(points))
	for _, p := range points {
		w := max(0, int(p.Value/maxV*float64(width)))
		bar := warnStyle.Render(strings.Repeat("█", w))
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-12s", p.Label))+fmt.Sprintf("%4.0f ", p.Value)+bar)
	}
	return strings.Join(lines, "\n")
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline scales values onto block characters.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// renderDashboard draws DASHBOARD plus the DATOS_GRAFICO trend.
func renderDashboard(dash, trend bridge.Response) string {
	repro := dash.Map("repro")
	lines := []string{
		titleStyle.Render("Tablero"),
		"",
		labelStyle.Render("Animales      ") + valueStyle.Render(dash.String("total_animales")),
		labelStyle.Render("Promedio      ") + valueStyle.Render(fmt.Sprintf("%.1f L", dash.Float("promedio_litros"))),
		labelStyle.Render("Sanidad       ") + valueStyle.Render(dash.String("alertas_salud")),
		"",
		titleStyle.Render("Reproducción"),
	}
	var buckets []barPoint
	for _, k := range []string{"PREÑADAS", "INSEMINADAS", "RECHAZO", "VACÍAS"} {
		buckets = append(buckets, barPoint{Label: k, Value: repro.Float(k)})
	}
	lines = append(lines, renderBars(buckets, 30))
	lines = append(lines, "", titleStyle.Render("Producción (30 días)"))
	if msg, failed := trend.Err(); failed {
		lines = append(lines, warnStyle.Render(msg))
		return strings.Join(lines, "\n")
	}
	raw := trend.List("valores")
	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		values = append(values, bridge.Response{"v": v}.Float("v"))
	}
	labels := trend.List("labels")
	line := sparkline(values)
	if len(labels) > 0 {
		line += labelStyle.Render(fmt.Sprintf("  %v → %v", labels[0], labels[len(labels)-1]))
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
