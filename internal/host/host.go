// Package host is the orchestrator behind the bridge: a string-keyed command
// dispatcher over the herd services, plus HTTP transport for running it as a
// separate process.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/service"
)

// ErrUnknownCommand is returned by Lookup for unregistered commands.
var ErrUnknownCommand = errors.New("comando desconocido")

// Handler answers one command. Domain failures belong in the payload;
// a returned error is treated as a host fault.
type Handler func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Services are the orchestrator's collaborators.
type Services struct {
	Herd    *service.HerdService
	Records *service.RecordService
	Trend   *service.TrendService
}

// Host dispatches commands in-process.
type Host struct {
	svc      Services
	log      *zap.Logger
	handlers map[string]Handler
}

var _ bridge.Host = (*Host)(nil)

func New(svc Services, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Host{svc: svc, log: log}
	h.handlers = map[string]Handler{
		bridge.CmdGetAnimal:     h.getAnimal,
		bridge.CmdRegisterEvent: h.registerEvent,
		bridge.CmdRegisterMilk:  h.registerMilking,
		bridge.CmdDashboard:     h.dashboard,
		bridge.CmdHerdList:      h.herdList,
		bridge.CmdTrend:         h.trend,
		bridge.CmdMilkQuality:   h.milkQuality,
		bridge.CmdMixerQuality:  h.mixerQuality,
	}
	return h
}

// Commands lists the registered command ids.
func (h *Host) Commands() []string {
	out := make([]string, 0, len(h.handlers))
	for id := range h.handlers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the handler for command.
func (h *Host) Lookup(command string) (Handler, error) {
	fn, ok := h.handlers[strings.ToUpper(strings.TrimSpace(command))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	return fn, nil
}

// Dispatch runs command. Unknown commands and handler failures come back as
// {"error": ...} payloads; only a dead context is returned as an error.
func (h *Host) Dispatch(ctx context.Context, command string, payload map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, err := h.Lookup(command)
	if err != nil {
		h.log.Warn("unknown command", zap.String("command", command))
		return map[string]any{"error": err.Error()}, nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	out, err := fn(ctx, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		h.log.Error("command failed", zap.String("command", command), zap.Error(err))
		return map[string]any{"error": err.Error()}, nil
	}
	return out, nil
}

// AnimalSheet is the direct lookup entry point. It shares the
// CONSULTAR_ANIMAL handler so both paths answer identically.
func (h *Host) AnimalSheet(ctx context.Context, caravana string) (map[string]any, error) {
	return h.Dispatch(ctx, bridge.CmdGetAnimal, map[string]any{"caravana": caravana})
}

func (h *Host) getAnimal(ctx context.Context, p map[string]any) (map[string]any, error) {
	sheet, err := h.svc.Herd.Sheet(ctx, argString(p, "caravana"))
	if errors.Is(err, service.ErrAnimalNotFound) {
		return map[string]any{"status": "empty"}, nil
	}
	if err != nil {
		return nil, err
	}
	alerts := make([]any, 0, len(sheet.Alerts))
	for _, a := range sheet.Alerts {
		alerts = append(alerts, map[string]any{"tipo": a.Kind, "msj": a.Message, "color": a.Color})
	}
	return map[string]any{
		"animal": map[string]any{
			"caravana": sheet.Tag,
			"estado":   sheet.State,
			"leche":    sheet.Milk,
			"del":      sheet.DIM,
			"lact":     sheet.Lactation,
			"padre":    sheet.Sire,
		},
		"alertas": alerts,
	}, nil
}

func (h *Host) registerEvent(ctx context.Context, p map[string]any) (map[string]any, error) {
	tag, kind, result := argString(p, "caravana"), argString(p, "tipo"), argString(p, "resultado")
	if err := h.svc.Records.RegisterEvent(ctx, tag, kind, result); err != nil {
		return statusError(err), nil
	}
	return statusOK(fmt.Sprintf("Vaca %s registrada como %s", tag, result)), nil
}

func (h *Host) registerMilking(ctx context.Context, p map[string]any) (map[string]any, error) {
	tag := argString(p, "caravana")
	liters, ok := argFloat(p, "litros")
	if !ok {
		return statusError(fmt.Errorf("%w: litros no numérico", service.ErrInvalidInput)), nil
	}
	if err := h.svc.Records.RegisterMilking(ctx, tag, liters); err != nil {
		return statusError(err), nil
	}
	return statusOK(fmt.Sprintf("Ordeñe de %gL registrado para %s", liters, tag)), nil
}

func (h *Host) dashboard(ctx context.Context, _ map[string]any) (map[string]any, error) {
	d, err := h.svc.Herd.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_animales":  d.TotalAnimals,
		"promedio_litros": d.AvgLiters,
		"alertas_salud":   d.HealthAlerts,
		"repro": map[string]any{
			"PREÑADAS":    d.Repro.Pregnant,
			"INSEMINADAS": d.Repro.Inseminated,
			"RECHAZO":     d.Repro.Rejected,
			"VACÍAS":      d.Repro.Open,
		},
	}, nil
}

func (h *Host) herdList(ctx context.Context, _ map[string]any) (map[string]any, error) {
	list, err := h.svc.Herd.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]any, 0, len(list))
	for _, e := range list {
		rows = append(rows, map[string]any{"id": e.ID, "rpro": e.Repro, "leche": e.LastMilk})
	}
	return map[string]any{"animales": rows}, nil
}

func (h *Host) trend(_ context.Context, _ map[string]any) (map[string]any, error) {
	if h.svc.Trend == nil {
		return map[string]any{"error": service.ErrTrendNotFound.Error()}, nil
	}
	t, err := h.svc.Trend.Latest()
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	labels := make([]any, len(t.Labels))
	for i, l := range t.Labels {
		labels[i] = l
	}
	values := make([]any, len(t.Values))
	for i, v := range t.Values {
		values[i] = v
	}
	return map[string]any{"labels": labels, "valores": values}, nil
}

func (h *Host) milkQuality(_ context.Context, p map[string]any) (map[string]any, error) {
	var records []service.MilkRecord
	for _, item := range argList(p, "registros") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		liters, _ := argFloat(m, "litros")
		fat, _ := argFloat(m, "grasa")
		protein, _ := argFloat(m, "proteina")
		records = append(records, service.MilkRecord{Liters: liters, Fat: fat, Protein: protein})
	}
	q, ok := service.AnalyzeMilk(records)
	if !ok {
		return map[string]any{}, nil
	}
	return map[string]any{
		"litros_total": q.TotalLiters,
		"grasa_avg":    q.AvgFat,
		"proteina_avg": q.AvgProtein,
	}, nil
}

func (h *Host) mixerQuality(_ context.Context, p map[string]any) (map[string]any, error) {
	var loads []service.MixerLoad
	for _, item := range argList(p, "cargas") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		order, _ := argFloat(m, "orden_mezcla")
		realKg, _ := argFloat(m, "kg_real")
		theoretic, _ := argFloat(m, "kg_teorico")
		loads = append(loads, service.MixerLoad{
			ID:          argString(m, "id"),
			Ingredient:  argString(m, "ingrediente"),
			MixOrder:    int(order),
			RealKg:      realKg,
			TheoreticKg: theoretic,
		})
	}
	alerts := service.CheckMixer(loads)
	out := make([]any, len(alerts))
	for i, a := range alerts {
		out[i] = a
	}
	return map[string]any{"alertas": out}, nil
}

func statusOK(msg string) map[string]any {
	return map[string]any{"status": "success", "msj": msg}
}

func statusError(err error) map[string]any {
	return map[string]any{"status": "error", "msj": err.Error()}
}
