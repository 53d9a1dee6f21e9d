package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/view"
)

type formField struct {
	Key         string
	Label       string
	Placeholder string
}

// submitFunc validates values on the UI goroutine and returns the bridge
// call to run in the background.
type submitFunc func(values map[string]string) (func() bridge.Response, error)

type formResultMsg struct {
	owner *formPane
	resp  bridge.Response
}

// formPane is a tabbable set of text inputs that submits through the bridge.
type formPane struct {
	title   string
	fields  []formField
	inputs  []textinput.Model
	focus   int
	submit  submitFunc
	render  func(resp bridge.Response) string
	summary func() string
	busy    bool
	result  string
}

func newFormPane(title string, fields []formField, submit submitFunc) *formPane {
	inputs := make([]textinput.Model, 0, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = f.Label + ": "
		in.Placeholder = f.Placeholder
		if i == 0 {
			in.Focus()
		}
		inputs = append(inputs, in)
	}
	return &formPane{title: title, fields: fields, inputs: inputs, submit: submit, render: renderStatus}
}

func (p *formPane) Init() tea.Cmd { return textinput.Blink }

func (p *formPane) Update(msg tea.Msg) (view.Pane, tea.Cmd) {
	switch msg := msg.(type) {
	case formResultMsg:
		if msg.owner != p {
			return p, nil
		}
		p.busy = false
		p.result = p.render(msg.resp)
		if _, failed := msg.resp.Err(); !failed && msg.resp.String("status") != "error" {
			p.clear()
		}
		return p, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "down", "up":
			dir := 1
			if msg.String() == "shift+tab" || msg.String() == "up" {
				dir = -1
			}
			p.inputs[p.focus].Blur()
			p.focus = (p.focus + dir + len(p.inputs)) % len(p.inputs)
			return p, p.inputs[p.focus].Focus()
		case "enter":
			if p.busy {
				return p, nil
			}
			call, err := p.submit(p.values())
			if err != nil {
				p.result = statusErrStyle.Render(err.Error())
				return p, nil
			}
			p.busy = true
			p.result = labelStyle.Render("enviando...")
			return p, func() tea.Msg { return formResultMsg{owner: p, resp: call()} }
		}
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return p, cmd
}

func (p *formPane) values() map[string]string {
	vals := make(map[string]string, len(p.fields))
	for i, f := range p.fields {
		vals[f.Key] = strings.TrimSpace(p.inputs[i].Value())
	}
	return vals
}

func (p *formPane) clear() {
	for i := range p.inputs {
		p.inputs[i].SetValue("")
		p.inputs[i].Blur()
	}
	p.focus = 0
	p.inputs[0].Focus()
}

func (p *formPane) View() string {
	lines := []string{titleStyle.Render(p.title), ""}
	for _, in := range p.inputs {
		lines = append(lines, in.View())
	}
	if p.summary != nil {
		if s := p.summary(); s != "" {
			lines = append(lines, "", s)
		}
	}
	if p.result != "" {
		lines = append(lines, "", p.result)
	}
	lines = append(lines, "", help("enter", "enviar", "tab", "siguiente campo"))
	return strings.Join(lines, "\n")
}

// renderStatus shows {status, msj} answers and error sentinels.
func renderStatus(resp bridge.Response) string {
	if msg, failed := resp.Err(); failed {
		return statusErrStyle.Render(msg)
	}
	if resp.String("status") == "error" {
		return statusErrStyle.Render(resp.String("msj"))
	}
	return statusStyle.Render(resp.String("msj"))
}
