// Package view owns the page shell state: which navigation handle is active
// and what the single shared content slot shows.
package view

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Pane is mountable section content.
type Pane interface {
	Update(msg tea.Msg) (Pane, tea.Cmd)
	View() string
}

// Container is what a section initializer renders into.
type Container interface {
	Mount(p Pane)
	Pane() Pane
}

// Slot is the shared content container. It is safe for concurrent use.
type Slot struct {
	mu      sync.RWMutex
	pane    Pane
	version uint64
}

func (s *Slot) Mount(p Pane) {
	s.mount(p)
}

// mount replaces the pane and returns the new mount version.
func (s *Slot) mount(p Pane) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pane = p
	s.version++
	return s.version
}

func (s *Slot) Pane() Pane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pane
}

// Current returns the mounted pane and its mount version.
func (s *Slot) Current() (Pane, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pane, s.version
}

// Update stores next in place of the pane mounted at version. It reports
// false when another mount happened in between, leaving the slot untouched.
func (s *Slot) Update(version uint64, next Pane) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.pane = next
	return true
}

// View renders the mounted pane, or nothing.
func (s *Slot) View() string {
	if p := s.Pane(); p != nil {
		return p.View()
	}
	return ""
}

// Frame is a private staging container handed to one initializer run.
type Frame struct {
	mu      sync.Mutex
	pane    Pane
	mounted bool
}

func (f *Frame) Mount(p Pane) {
	f.mu.Lock()
	f.pane, f.mounted = p, true
	f.mu.Unlock()
}

func (f *Frame) Pane() Pane {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pane
}

func (f *Frame) snapshot() (Pane, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pane, f.mounted
}

// NavState marks at most one navigation handle as active.
type NavState struct {
	mu      sync.RWMutex
	handles []string
	active  string
}

func NewNavState(handles ...string) *NavState {
	return &NavState{handles: append([]string(nil), handles...)}
}

// Activate moves the marker to id, registering it if unseen.
func (n *NavState) Activate(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	known := false
	for _, h := range n.handles {
		if h == id {
			known = true
			break
		}
	}
	if !known {
		n.handles = append(n.handles, id)
	}
	n.active = id
}

func (n *NavState) Active() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

func (n *NavState) IsActive(id string) bool {
	return id != "" && n.Active() == id
}

func (n *NavState) Handles() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.handles...)
}

// Text is a static pane.
type Text string

func (t Text) Update(tea.Msg) (Pane, tea.Cmd) { return t, nil }
func (t Text) View() string                   { return string(t) }
