package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/view"
)

// Section is one navigation entry.
type Section struct {
	ID    string
	Title string
	Key   string
}

// NavID is the navigation handle id for the section.
func (s Section) NavID() string { return "nav-" + s.ID }

// Sections in navigation order.
var Sections = []Section{
	{ID: "tablero", Title: "Tablero", Key: "f1"},
	{ID: "ganado", Title: "Ganado", Key: "f2"},
	{ID: "manga", Title: "Manga", Key: "f3"},
	{ID: "eventos", Title: "Eventos", Key: "f4"},
	{ID: "ordene", Title: "Ordeñe", Key: "f5"},
	{ID: "mixer", Title: "Mixer", Key: "f6"},
	{ID: "calidad", Title: "Calidad", Key: "f7"},
}

var errEmptyField = errors.New("complete todos los campos")

// RegisterSections binds every section initializer to l. Pane actions run
// with ctx; initial fetches use the loader's per-load context.
func RegisterSections(ctx context.Context, l *view.Loader, b *bridge.Bridge) error {
	lookup := func(caravana string) bridge.Response { return b.AnimalSheet(ctx, caravana) }
	inits := map[string]view.Initializer{
		"tablero": dashboardSection(b),
		"ganado": func(_ context.Context, c view.Container) error {
			c.Mount(newSheetPane(lookup))
			return nil
		},
		"manga":   herdSection(b, lookup),
		"eventos": eventsSection(ctx, b),
		"ordene":  milkingSection(ctx, b),
		"mixer":   mixerSection(ctx, b),
		"calidad": qualitySection(ctx, b),
	}
	for _, s := range Sections {
		if err := l.Register(s.ID, inits[s.ID]); err != nil {
			return err
		}
	}
	return nil
}

func dashboardSection(b *bridge.Bridge) view.Initializer {
	return func(ctx context.Context, c view.Container) error {
		dash := b.SendCommand(ctx, bridge.CmdDashboard, nil)
		if msg, failed := dash.Err(); failed {
			c.Mount(view.Text(titleStyle.Render("Tablero") + "\n\n" + statusErrStyle.Render(msg)))
			return fmt.Errorf("dashboard: %s", msg)
		}
		trend := b.SendCommand(ctx, bridge.CmdTrend, nil)
		c.Mount(view.Text(renderDashboard(dash, trend)))
		return nil
	}
}

func herdSection(b *bridge.Bridge, lookup func(string) bridge.Response) view.Initializer {
	return func(ctx context.Context, c view.Container) error {
		resp := b.SendCommand(ctx, bridge.CmdHerdList, nil)
		if msg, failed := resp.Err(); failed {
			c.Mount(view.Text(titleStyle.Render("Manga") + "\n\n" + statusErrStyle.Render(msg)))
			return fmt.Errorf("herd list: %s", msg)
		}
		c.Mount(newHerdPane(resp, lookup))
		return nil
	}
}

func eventsSection(ctx context.Context, b *bridge.Bridge) view.Initializer {
	return func(_ context.Context, c view.Container) error {
		fields := []formField{
			{Key: "caravana", Label: "Caravana"},
			{Key: "tipo", Label: "Tipo", Placeholder: "TACTO, SERVICIO, PARTO..."},
			{Key: "resultado", Label: "Resultado", Placeholder: "Preñada, Vacía..."},
		}
		c.Mount(newFormPane("Registrar evento", fields, func(v map[string]string) (func() bridge.Response, error) {
			if v["caravana"] == "" || v["tipo"] == "" {
				return nil, errEmptyField
			}
			datos := map[string]any{"caravana": v["caravana"], "resultado": v["resultado"]}
			return func() bridge.Response { return b.RegisterEvent(ctx, v["tipo"], datos) }, nil
		}))
		return nil
	}
}

func milkingSection(ctx context.Context, b *bridge.Bridge) view.Initializer {
	return func(_ context.Context, c view.Container) error {
		fields := []formField{
			{Key: "caravana", Label: "Caravana"},
			{Key: "litros", Label: "Litros", Placeholder: "0.0"},
		}
		c.Mount(newFormPane("Registrar ordeñe", fields, func(v map[string]string) (func() bridge.Response, error) {
			if v["caravana"] == "" || v["litros"] == "" {
				return nil, errEmptyField
			}
			liters, err := parseDecimal(v["litros"])
			if err != nil {
				return nil, err
			}
			payload := map[string]any{"caravana": v["caravana"], "litros": liters}
			return func() bridge.Response { return b.SendCommand(ctx, bridge.CmdRegisterMilk, payload) }, nil
		}))
		return nil
	}
}

// mixerSection accumulates loads and re-checks the whole batch on each entry.
func mixerSection(ctx context.Context, b *bridge.Bridge) view.Initializer {
	return func(_ context.Context, c view.Container) error {
		var loads []any
		fields := []formField{
			{Key: "ingrediente", Label: "Ingrediente"},
			{Key: "orden", Label: "Orden", Placeholder: "1"},
			{Key: "kg_real", Label: "Kg real"},
			{Key: "kg_teorico", Label: "Kg teórico"},
		}
		form := newFormPane("Control de mixer", fields, func(v map[string]string) (func() bridge.Response, error) {
			if v["ingrediente"] == "" || v["orden"] == "" || v["kg_real"] == "" || v["kg_teorico"] == "" {
				return nil, errEmptyField
			}
			order, err := strconv.Atoi(v["orden"])
			if err != nil {
				return nil, fmt.Errorf("orden inválido: %s", v["orden"])
			}
			realKg, err := parseDecimal(v["kg_real"])
			if err != nil {
				return nil, err
			}
			theoretic, err := parseDecimal(v["kg_teorico"])
			if err != nil {
				return nil, err
			}
			loads = append(loads, map[string]any{
				"id":           strconv.Itoa(len(loads) + 1),
				"ingrediente":  v["ingrediente"],
				"orden_mezcla": order,
				"kg_real":      realKg,
				"kg_teorico":   theoretic,
			})
			payload := map[string]any{"cargas": append([]any(nil), loads...)}
			return func() bridge.Response { return b.SendCommand(ctx, bridge.CmdMixerQuality, payload) }, nil
		})
		form.summary = func() string {
			if len(loads) == 0 {
				return ""
			}
			return labelStyle.Render(fmt.Sprintf("%d cargas en la mezcla", len(loads)))
		}
		form.render = renderMixer
		c.Mount(form)
		return nil
	}
}

func renderMixer(resp bridge.Response) string {
	if msg, failed := resp.Err(); failed {
		return statusErrStyle.Render(msg)
	}
	alerts := resp.List("alertas")
	if len(alerts) == 0 {
		return statusStyle.Render("Mezcla sin alertas")
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		text := fmt.Sprint(a)
		if strings.HasPrefix(text, "CRÍTICO") {
			lines = append(lines, statusErrStyle.Render(text))
			continue
		}
		lines = append(lines, warnStyle.Render(text))
	}
	return strings.Join(lines, "\n")
}

// qualitySection accumulates tank samples and shows the batch summary.
func qualitySection(ctx context.Context, b *bridge.Bridge) view.Initializer {
	return func(_ context.Context, c view.Container) error {
		var records []any
		fields := []formField{
			{Key: "litros", Label: "Litros"},
			{Key: "grasa", Label: "Grasa %"},
			{Key: "proteina", Label: "Proteína %"},
		}
		form := newFormPane("Calidad de leche", fields, func(v map[string]string) (func() bridge.Response, error) {
			rec := map[string]any{}
			for _, k := range []string{"litros", "grasa", "proteina"} {
				if v[k] == "" {
					return nil, errEmptyField
				}
				f, err := parseDecimal(v[k])
				if err != nil {
					return nil, err
				}
				rec[k] = f
			}
			records = append(records, rec)
			payload := map[string]any{"registros": append([]any(nil), records...)}
			return func() bridge.Response { return b.SendCommand(ctx, bridge.CmdMilkQuality, payload) }, nil
		})
		form.summary = func() string {
			if len(records) == 0 {
				return ""
			}
			return labelStyle.Render(fmt.Sprintf("%d muestras", len(records)))
		}
		form.render = renderQuality
		c.Mount(form)
		return nil
	}
}

func renderQuality(resp bridge.Response) string {
	if msg, failed := resp.Err(); failed {
		return statusErrStyle.Render(msg)
	}
	if len(resp) == 0 {
		return warnStyle.Render("Sin registros")
	}
	return fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Total"), valueStyle.Render(fmt.Sprintf("%.2f L", resp.Float("litros_total"))),
		labelStyle.Render("Grasa"), valueStyle.Render(fmt.Sprintf("%.2f%%", resp.Float("grasa_avg"))),
		labelStyle.Render("Proteína"), valueStyle.Render(fmt.Sprintf("%.2f%%", resp.Float("proteina_avg"))),
	)
}

func parseDecimal(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("número inválido: %s", s)
	}
	return f, nil
}
