package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

var (
	// ErrUnknownSection is reported when no initializer is registered for a section id.
	ErrUnknownSection = errors.New("unknown section")
	// ErrInitializerPanic wraps a panic raised by an initializer.
	ErrInitializerPanic = errors.New("section initializer panicked")
)

// Initializer renders a section into c. It must mount its own content and
// must not assume anything about what c held before.
type Initializer func(ctx context.Context, c Container) error

// Status is the result of one Load.
type Status int

const (
	// StatusRendered means the section now owns the slot.
	StatusRendered Status = iota
	// StatusStale means a newer Load superseded this one; its output was dropped.
	StatusStale
	// StatusUnknown means the section id is not registered; nothing changed.
	StatusUnknown
	// StatusFailed means the initializer failed; partial output or an error pane was mounted.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRendered:
		return "rendered"
	case StatusStale:
		return "stale"
	case StatusUnknown:
		return "unknown"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome describes what a Load did.
type Outcome struct {
	NavID      string
	Section    string
	Generation uint64
	Status     Status
	Err        error
	Version    uint64 // slot mount version committed by this load, or zero
	// Suggestion is the closest registered section for StatusUnknown.
	Suggestion string
}

// Loader switches the shared slot between sections. Only the most recently
// requested section may commit; older in-flight loads are cancelled and
// their output discarded.
type Loader struct {
	mu       sync.Mutex
	sections map[string]Initializer
	order    []string
	nav      *NavState
	slot     *Slot
	gen      uint64
	cancel   context.CancelFunc
	log      *zap.Logger
	errPane  func(section string, err error) Pane
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithErrorPane customises what is mounted when an initializer fails
// without mounting anything.
func WithErrorPane(fn func(section string, err error) Pane) LoaderOption {
	return func(ld *Loader) {
		if fn != nil {
			ld.errPane = fn
		}
	}
}

func NewLoader(nav *NavState, slot *Slot, opts ...LoaderOption) *Loader {
	if nav == nil {
		nav = NewNavState()
	}
	if slot == nil {
		slot = &Slot{}
	}
	l := &Loader{
		sections: map[string]Initializer{},
		nav:      nav,
		slot:     slot,
		log:      zap.NewNop(),
		errPane: func(section string, err error) Pane {
			return Text(fmt.Sprintf("No se pudo cargar %s: %v", section, err))
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Register binds a section id to its initializer.
func (l *Loader) Register(id string, init Initializer) error {
	id = strings.TrimSpace(id)
	if id == "" || init == nil {
		return fmt.Errorf("register section %q: id and initializer required", id)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.sections[id]; dup {
		return fmt.Errorf("register section %q: already registered", id)
	}
	l.sections[id] = init
	l.order = append(l.order, id)
	return nil
}

// Sections lists registered ids in registration order.
func (l *Loader) Sections() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func (l *Loader) Nav() *NavState { return l.nav }
func (l *Loader) Slot() *Slot    { return l.slot }

// Generation returns the token of the latest accepted Load.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Load activates navID and renders section into the shared slot.
// It blocks until the initializer returns and never panics.
func (l *Loader) Load(ctx context.Context, navID, section string) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	out := Outcome{NavID: navID, Section: section}

	l.mu.Lock()
	init, ok := l.sections[section]
	if !ok {
		out.Suggestion = l.suggestLocked(section)
		l.mu.Unlock()
		out.Status = StatusUnknown
		out.Err = fmt.Errorf("%w: %q", ErrUnknownSection, section)
		l.log.Warn("unknown section", zap.String("section", section), zap.String("suggestion", out.Suggestion))
		return out
	}
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.nav.Activate(navID)
	l.mu.Unlock()

	out.Generation = gen
	frame := &Frame{}
	err := runInitializer(runCtx, init, frame)

	l.mu.Lock()
	defer l.mu.Unlock()
	cancel()
	if gen != l.gen {
		out.Status = StatusStale
		l.log.Debug("discarded stale section", zap.String("section", section), zap.Uint64("generation", gen), zap.Uint64("latest", l.gen))
		return out
	}
	l.cancel = nil

	pane, mounted := frame.snapshot()
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		l.log.Error("section failed", zap.String("section", section), zap.Uint64("generation", gen), zap.Error(err))
		if !mounted {
			pane = l.errPane(section, err)
		}
		out.Version = l.slot.mount(pane)
		return out
	}
	out.Version = l.slot.mount(pane)
	out.Status = StatusRendered
	l.log.Debug("section loaded", zap.String("section", section), zap.Uint64("generation", gen))
	return out
}

func runInitializer(ctx context.Context, init Initializer, c Container) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInitializerPanic, r)
		}
	}()
	return init(ctx, c)
}

func (l *Loader) suggestLocked(section string) string {
	target := strings.ToLower(strings.TrimSpace(section))
	if target == "" || len(l.order) == 0 {
		return ""
	}
	ids := append([]string(nil), l.order...)
	sort.Strings(ids)
	best, bestDist := "", 4
	for _, id := range ids {
		if d := levenshtein.ComputeDistance(target, strings.ToLower(id)); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}
