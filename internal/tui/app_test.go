package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/view"
)

type call struct {
	command string
	payload map[string]any
}

type stubHost struct {
	mu    sync.Mutex
	calls []call
	down  bool
	repro map[string]any
}

func (h *stubHost) Dispatch(_ context.Context, command string, payload map[string]any) (map[string]any, error) {
	h.mu.Lock()
	h.calls = append(h.calls, call{command: command, payload: payload})
	h.mu.Unlock()
	if h.down {
		return nil, errors.New("connection refused")
	}
	switch command {
	case bridge.CmdDashboard:
		if h.repro != nil {
			return map[string]any{"total_animales": 1, "promedio_litros": 20.0, "alertas_salud": "Ok", "repro": h.repro}, nil
		}
		return map[string]any{
			"total_animales":  2,
			"promedio_litros": 30.0,
			"alertas_salud":   "Ok",
			"repro":           map[string]any{"PREÑADAS": 1, "INSEMINADAS": 1, "RECHAZO": 0, "VACÍAS": 0},
		}, nil
	case bridge.CmdTrend:
		return map[string]any{"labels": []any{"2024-01-01", "2024-01-02"}, "valores": []any{1500.0, 1520.5}}, nil
	case bridge.CmdHerdList:
		return map[string]any{"animales": []any{map[string]any{"id": "123", "rpro": "Inseminada", "leche": 28.5}}}, nil
	case bridge.CmdRegisterEvent:
		return map[string]any{"status": "success", "msj": "Vaca 123 registrada como Preñada"}, nil
	case bridge.CmdMixerQuality:
		return map[string]any{"alertas": []any{"CRÍTICO: Alfalfa fuera de orden en carga 1"}}, nil
	}
	return map[string]any{"error": "comando desconocido: " + command}, nil
}

func (h *stubHost) AnimalSheet(_ context.Context, caravana string) (map[string]any, error) {
	if h.down {
		return nil, errors.New("connection refused")
	}
	return map[string]any{
		"animal":  map[string]any{"caravana": caravana, "estado": "Inseminada", "leche": 28.5, "del": "120", "lact": "2", "padre": "TORO-7"},
		"alertas": []any{map[string]any{"tipo": "repro", "msj": "⚠️ TACTO PENDIENTE", "color": "#f1e05a"}},
	}, nil
}

func (h *stubHost) last() call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[len(h.calls)-1]
}

func newTestApp(t *testing.T, host *stubHost, start string) *App {
	t.Helper()
	app, err := New(context.Background(), bridge.New(host), nil, start)
	require.NoError(t, err)
	return app
}

// step feeds msg to the app and runs the returned command once.
func step(t *testing.T, app *App, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := app.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppLoadsStartSection(t *testing.T) {
	host := &stubHost{}
	app := newTestApp(t, host, "")
	app.Update(app.Init()())

	out := app.View()
	require.Contains(t, out, "Tablero")
	require.Contains(t, out, "30.0 L")
	require.Contains(t, out, "INSEMINADAS")
	require.True(t, app.Loader().Nav().IsActive("nav-tablero"))
}

func TestSectionKeysSwitchContent(t *testing.T) {
	host := &stubHost{}
	app := newTestApp(t, host, "tablero")
	app.Update(app.Init()())

	loaded := step(t, app, tea.KeyMsg{Type: tea.KeyF3})
	require.IsType(t, loadedMsg{}, loaded)
	app.Update(loaded)
	require.True(t, app.Loader().Nav().IsActive("nav-manga"))
	require.False(t, app.Loader().Nav().IsActive("nav-tablero"))
	require.Contains(t, app.View(), "Manga (1 animales)")
	require.NotContains(t, app.View(), "INSEMINADAS")

	sheet := step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, sheetMsg{}, sheet)
	app.Update(sheet)
	require.Contains(t, app.View(), "TACTO PENDIENTE")
	require.Contains(t, app.View(), "TORO-7")
}

func TestHostDownShowsSentinel(t *testing.T) {
	host := &stubHost{down: true}
	app := newTestApp(t, host, "tablero")
	app.Update(app.Init()())

	out := app.View()
	require.Contains(t, out, bridge.MsgUnavailable)
	require.True(t, app.isError)
	require.True(t, app.Loader().Nav().IsActive("nav-tablero"))
}

func TestEventFormSubmitsThroughBridge(t *testing.T) {
	host := &stubHost{}
	app := newTestApp(t, host, "eventos")
	app.Update(app.Init()())

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Contains(t, app.View(), errEmptyField.Error())

	app.Update(runes("123"))
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(runes("tacto"))
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(runes("Preñada"))

	res := step(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, formResultMsg{}, res)
	app.Update(res)

	got := host.last()
	require.Equal(t, bridge.CmdRegisterEvent, got.command)
	require.Equal(t, map[string]any{"tipo": "tacto", "caravana": "123", "resultado": "Preñada"}, got.payload)
	require.Contains(t, app.View(), "Vaca 123 registrada como Preñada")
}

func TestMixerAccumulatesLoads(t *testing.T) {
	host := &stubHost{}
	app := newTestApp(t, host, "mixer")
	app.Update(app.Init()())

	for i, v := range []string{"Heno de alfalfa", "2", "100", "100"} {
		if i > 0 {
			app.Update(tea.KeyMsg{Type: tea.KeyTab})
		}
		app.Update(runes(v))
	}
	app.Update(step(t, app, tea.KeyMsg{Type: tea.KeyEnter}))

	got := host.last()
	require.Equal(t, bridge.CmdMixerQuality, got.command)
	loads := got.payload["cargas"].([]any)
	require.Len(t, loads, 1)
	require.Equal(t, 2, loads[0].(map[string]any)["orden_mezcla"])
	require.Contains(t, app.View(), "CRÍTICO")
	require.Contains(t, app.View(), "1 cargas en la mezcla")
}

func TestUnknownStartSectionKeepsContent(t *testing.T) {
	app := newTestApp(t, &stubHost{}, "ganadoo")
	app.Update(app.Init()())
	require.Contains(t, app.status, "¿ganado?")
	require.True(t, app.isError)
	require.Empty(t, app.Loader().Nav().Active())
}

func TestNeighbourWraps(t *testing.T) {
	app := newTestApp(t, &stubHost{}, "calidad")
	app.Update(app.Init()())
	require.Equal(t, "tablero", app.neighbour(1))
	require.Equal(t, "mixer", app.neighbour(-1))
}

func TestSparkline(t *testing.T) {
	require.Equal(t, "", sparkline(nil))
	require.Equal(t, "▁█", sparkline([]float64{1, 2}))
	require.Equal(t, "▁▁", sparkline([]float64{5, 5}))
}

func TestRenderBarsScalesToLargest(t *testing.T) {
	out := renderBars([]barPoint{{Label: "PREÑADAS", Value: 10}, {Label: "RECHAZO", Value: 5}, {Label: "VACÍAS", Value: 0}}, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, 10, strings.Count(lines[0], "█"))
	require.Equal(t, 5, strings.Count(lines[1], "█"))
	require.Zero(t, strings.Count(lines[2], "█"))
}

func TestRenderBarsClampsNegativeValues(t *testing.T) {
	out := renderBars([]barPoint{{Label: "PREÑADAS", Value: 2}, {Label: "VACÍAS", Value: -1}}, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t, 10, strings.Count(lines[0], "█"))
	require.Zero(t, strings.Count(lines[1], "█"))
}

func TestDashboardRendersOverlappingBuckets(t *testing.T) {
	host := &stubHost{repro: map[string]any{"PREÑADAS": 1, "INSEMINADAS": 0, "RECHAZO": 1, "VACÍAS": -1}}
	app := newTestApp(t, host, "tablero")
	loaded := app.Init()()
	require.IsType(t, loadedMsg{}, loaded)
	require.Equal(t, view.StatusRendered, loaded.(loadedMsg).out.Status)

	app.Update(loaded)
	require.False(t, app.isError)
	require.Contains(t, app.View(), "VACÍAS")
}

func TestInitRunsOnlyForLatestMount(t *testing.T) {
	app := newTestApp(t, &stubHost{}, "tablero")

	older := app.open("eventos")().(loadedMsg)
	newer := app.open("ordene")().(loadedMsg)
	require.Equal(t, view.StatusRendered, older.out.Status)
	require.Equal(t, view.StatusRendered, newer.out.Status)
	require.Greater(t, newer.out.Version, older.out.Version)

	require.Nil(t, app.applyOutcome(older.out))
	require.NotNil(t, app.applyOutcome(newer.out))
	require.Contains(t, app.View(), "Registrar ordeñe")
}
