// Package bridge is the UI's only path to the orchestrator.
//
// Every call resolves to a Response: either the host's payload, passed
// through untouched, or the sentinel {"error": "..."} when the host could not
// be reached. Callers branch on Response.Err and never handle Go errors.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Command identifiers understood by the orchestrator.
const (
	CmdGetAnimal     = "CONSULTAR_ANIMAL"
	CmdRegisterEvent = "REGISTRAR_EVENTO"
	CmdRegisterMilk  = "REGISTRAR_ORDENE"
	CmdDashboard     = "DASHBOARD"
	CmdHerdList      = "LISTA_HATO"
	CmdTrend         = "DATOS_GRAFICO"
	CmdMilkQuality   = "CALIDAD_LECHE"
	CmdMixerQuality  = "CALIDAD_MIXER"
)

// MsgUnavailable is the sentinel text for transport failures.
const MsgUnavailable = "Servidor no responde"

// Sentinel texts for calls rejected before reaching the host.
const (
	MsgEmptyCommand   = "comando vacío"
	MsgInvalidPayload = "payload inválido"
)

// ErrHostPanic wraps a panic raised inside a host call.
var ErrHostPanic = errors.New("host panicked")

// Host is the orchestrator boundary.
type Host interface {
	// Dispatch is the generic command entry point.
	Dispatch(ctx context.Context, command string, payload map[string]any) (map[string]any, error)
	// AnimalSheet is the direct lookup used by the herd section.
	AnimalSheet(ctx context.Context, caravana string) (map[string]any, error)
}

// Bridge normalises host calls into Responses. It is safe for concurrent use.
type Bridge struct {
	host    Host
	log     *zap.Logger
	timeout time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithTimeout bounds each host call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

func New(host Host, opts ...Option) *Bridge {
	b := &Bridge{host: host, log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

type requestIDKey struct{}

// RequestID returns the id the bridge attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// SendCommand forwards a keyed command and never fails.
func (b *Bridge) SendCommand(ctx context.Context, commandType string, payload map[string]any) Response {
	commandType = strings.TrimSpace(commandType)
	if commandType == "" {
		b.log.Warn("rejected command", zap.String("reason", MsgEmptyCommand))
		return errorResponse(MsgEmptyCommand)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if _, err := json.Marshal(payload); err != nil {
		b.log.Warn("rejected command", zap.String("command", commandType), zap.Error(err))
		return errorResponse(MsgInvalidPayload)
	}
	return b.call(ctx, commandType, func(ctx context.Context) (map[string]any, error) {
		return b.host.Dispatch(ctx, commandType, payload)
	})
}

// GetAnimal is SendCommand(CONSULTAR_ANIMAL, {caravana}).
func (b *Bridge) GetAnimal(ctx context.Context, caravana any) Response {
	return b.SendCommand(ctx, CmdGetAnimal, map[string]any{"caravana": caravana})
}

// RegisterEvent is SendCommand(REGISTRAR_EVENTO, {tipo, ...datos}).
// tipo takes precedence over a "tipo" key in datos.
func (b *Bridge) RegisterEvent(ctx context.Context, tipo string, datos map[string]any) Response {
	payload := make(map[string]any, len(datos)+1)
	for k, v := range datos {
		payload[k] = v
	}
	payload["tipo"] = tipo
	return b.SendCommand(ctx, CmdRegisterEvent, payload)
}

// AnimalSheet calls the host's direct lookup with the same normalisation.
func (b *Bridge) AnimalSheet(ctx context.Context, caravana string) Response {
	return b.call(ctx, "obtener_ficha_animal", func(ctx context.Context) (map[string]any, error) {
		return b.host.AnimalSheet(ctx, caravana)
	})
}

// call runs fn with a request id and timeout, converting every failure mode
// into the unavailable sentinel.
func (b *Bridge) call(ctx context.Context, name string, fn func(ctx context.Context) (map[string]any, error)) (resp Response) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqID := uuid.NewString()
	ctx = context.WithValue(ctx, requestIDKey{}, reqID)
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	start := time.Now()
	log := b.log.With(zap.String("command", name), zap.String("request_id", reqID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("host error", zap.Error(fmt.Errorf("%w: %v", ErrHostPanic, r)))
			resp = errorResponse(MsgUnavailable)
		}
	}()

	out, err := fn(ctx)
	if err != nil {
		log.Error("host error", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return errorResponse(MsgUnavailable)
	}
	log.Debug("host ok", zap.Duration("elapsed", time.Since(start)))
	if out == nil {
		return Response{}
	}
	return Response(out)
}
