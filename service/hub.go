package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrServiceRegistered  = errors.New("service already registered")
	ErrCircularDependency = errors.New("circular service dependency")
	ErrUnknownDependency  = errors.New("dependency not registered")
)

// Hub owns the registered services and drives them through their lifecycle
// Init and Start follow dependency order, Stop runs in reverse
type Hub struct {
	mu       sync.Mutex
	services map[string]Service
	order    []string
	live     []string // Started, in start order
	log      *slog.Logger
}

// NewHub creates an empty hub; nil logger selects slog.Default
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		services: make(map[string]Service),
		log:      logger.With("component", "hub"),
	}
}

// Register adds svc, names must be unique
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, dup := h.services[name]; dup {
		return errors.WithMessage(ErrServiceRegistered, name)
	}
	h.services[name] = svc
	h.order = nil
	return nil
}

// InitAll orders the services and initializes each one
// A failing Init stops the already initialized services in reverse order
func (h *Hub) InitAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	order, err := h.resolve()
	if err != nil {
		return err
	}
	h.order = order

	for i, name := range order {
		if err := h.services[name].Init(ctx); err != nil {
			h.stopReverse(order[:i])
			return errors.Wrapf(err, "init %s", name)
		}
		h.log.Debug("service initialized", "service", name)
	}
	return nil
}

// StartAll starts services in init order, rolling back on failure
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.live = h.live[:0]
	for _, name := range h.order {
		svc := h.services[name]
		if err := svc.Start(); err != nil {
			h.stopReverse(h.live)
			h.live = nil
			return errors.Wrapf(err, "start %s", name)
		}
		h.live = append(h.live, name)

		if d, ok := svc.(Degradable); ok && d.Degraded() {
			h.log.Warn("service running degraded", "service", name)
		}
	}
	return nil
}

// StopAll stops every started service, last started first
func (h *Hub) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopReverse(h.live)
	h.live = nil
}

// Order returns the resolved init order, nil before InitAll
func (h *Hub) Order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}

// Degraded lists started services reporting reduced operation
func (h *Hub) Degraded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []string
	for _, name := range h.live {
		if d, ok := h.services[name].(Degradable); ok && d.Degraded() {
			out = append(out, name)
		}
	}
	return out
}

func (h *Hub) stopReverse(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			h.log.Warn("service stop failed", "service", names[i], "error", err)
		}
	}
}

// resolve returns a dependency-first order by depth-first search over names sorted for determinism
func (h *Hub) resolve() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	slices.Sort(names)

	mark := make(map[string]int, len(names))
	order := make([]string, 0, len(names))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch mark[name] {
		case done:
			return nil
		case visiting:
			return errors.WithMessage(ErrCircularDependency, strings.Join(append(path, name), " -> "))
		}
		mark[name] = visiting
		path = append(path, name)

		deps := slices.Clone(h.services[name].Dependencies())
		slices.Sort(deps)
		for _, dep := range deps {
			if _, ok := h.services[dep]; !ok {
				return errors.WithMessagef(ErrUnknownDependency, "%s -> %s", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		mark[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
