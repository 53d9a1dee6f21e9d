package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/view"
)

type loadedMsg struct {
	out view.Outcome
}

// initer is implemented by panes that start a command once mounted.
type initer interface {
	Init() tea.Cmd
}

// App is the page shell: nav bar, the shared content slot and a status line.
type App struct {
	ctx     context.Context
	loader  *view.Loader
	log     *zap.Logger
	start   string
	status  string
	isError bool
	width   int
}

// New builds the shell and registers every section with a fresh loader.
func New(ctx context.Context, b *bridge.Bridge, log *zap.Logger, startSection string) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	handles := make([]string, len(Sections))
	for i, s := range Sections {
		handles[i] = s.NavID()
	}
	loader := view.NewLoader(view.NewNavState(handles...), &view.Slot{},
		view.WithLogger(log.Named("loader")),
		view.WithErrorPane(func(section string, err error) view.Pane {
			return view.Text(statusErrStyle.Render(fmt.Sprintf("No se pudo cargar %s: %v", section, err)))
		}),
	)
	if err := RegisterSections(ctx, loader, b); err != nil {
		return nil, err
	}
	if startSection == "" {
		startSection = Sections[0].ID
	}
	return &App{ctx: ctx, loader: loader, log: log, start: startSection}, nil
}

// Loader exposes the section loader.
func (a *App) Loader() *view.Loader { return a.loader }

func (a *App) Init() tea.Cmd {
	return a.open(a.start)
}

// open loads section id in the background. Unknown ids are resolved by the
// loader, which leaves the current content in place.
func (a *App) open(id string) tea.Cmd {
	navID := "nav-" + id
	for _, s := range Sections {
		if s.ID == id {
			navID = s.NavID()
		}
	}
	a.status, a.isError = "cargando "+id+"...", false
	ctx := a.ctx
	return func() tea.Msg {
		return loadedMsg{out: a.loader.Load(ctx, navID, id)}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case tea.KeyMsg:
		switch m.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+right", "ctrl+n":
			return a, a.open(a.neighbour(1))
		case "ctrl+left", "ctrl+p":
			return a, a.open(a.neighbour(-1))
		}
		for _, s := range Sections {
			if m.String() == s.Key {
				return a, a.open(s.ID)
			}
		}
	case loadedMsg:
		return a, a.applyOutcome(m.out)
	}
	return a, a.forward(msg)
}

func (a *App) applyOutcome(out view.Outcome) tea.Cmd {
	switch out.Status {
	case view.StatusRendered:
		a.status, a.isError = "", false
		// Skip Init when a later load has already replaced this pane.
		p, version := a.loader.Slot().Current()
		if version != out.Version {
			return nil
		}
		if p, ok := p.(initer); ok {
			return p.Init()
		}
	case view.StatusStale:
		// A newer load owns the status line.
	case view.StatusUnknown:
		a.status, a.isError = fmt.Sprintf("sección desconocida %q", out.Section), true
		if out.Suggestion != "" {
			a.status += fmt.Sprintf(" (¿%s?)", out.Suggestion)
		}
	case view.StatusFailed:
		a.status, a.isError = "error: "+out.Err.Error(), true
	}
	return nil
}

// forward hands msg to the mounted pane, dropping the result if the slot
// was remounted meanwhile.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	slot := a.loader.Slot()
	p, version := slot.Current()
	if p == nil {
		return nil
	}
	next, cmd := p.Update(msg)
	slot.Update(version, next)
	return cmd
}

func (a *App) neighbour(step int) string {
	active := a.loader.Nav().Active()
	for i, s := range Sections {
		if s.NavID() == active {
			return Sections[(i+step+len(Sections))%len(Sections)].ID
		}
	}
	return Sections[0].ID
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderNav())
	b.WriteString("\n")
	b.WriteString(contentStyle.Render(a.loader.Slot().View()))
	b.WriteString("\n")
	if a.status != "" {
		if a.isError {
			b.WriteString(statusErrStyle.Render(a.status))
		} else {
			b.WriteString(statusStyle.Render(a.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(help("F1-F7", "secciones", "ctrl+n/p", "siguiente/anterior", "ctrl+c", "salir"))
	return b.String()
}

func (a *App) renderNav() string {
	nav := a.loader.Nav()
	parts := make([]string, 0, len(Sections))
	for _, s := range Sections {
		label := strings.ToUpper(s.Key) + " " + s.Title
		if nav.IsActive(s.NavID()) {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	bar := strings.Join(parts, navSepStyle.Render("│"))
	if a.width > 0 {
		return navBarStyle.Width(a.width).Render(bar)
	}
	return navBarStyle.Render(bar)
}
