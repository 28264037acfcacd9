package chain

import (
	"sort"

	"github.com/sonorth/maya-sawa/internal/log"
)

// Manager holds the priority-ordered filter chain.
//
// Filters registered with Add are kept sorted by Priority (stable, so equal
// priorities preserve insertion order). Manager is safe for concurrent use
// once fully assembled; Add/Remove are intended for startup wiring only.
type Manager struct {
	filters []Filter
	byName  map[string]Filter
	logger  log.Logger
}

// NewManager creates an empty filter chain manager.
func NewManager(logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		byName: make(map[string]Filter),
		logger: logger,
	}
}

// Add registers a filter and re-sorts the chain by priority.
func (m *Manager) Add(f Filter) {
	m.filters = append(m.filters, f)
	m.byName[f.Name()] = f
	sort.SliceStable(m.filters, func(i, j int) bool {
		return m.filters[i].Priority() < m.filters[j].Priority()
	})
	m.logger.Info("added filter", "name", f.Name(), "priority", f.Priority())
}

// Remove deregisters a filter by name. Returns false if the name is unknown.
func (m *Manager) Remove(name string) bool {
	f, ok := m.byName[name]
	if !ok {
		return false
	}
	delete(m.byName, name)
	for i, registered := range m.filters {
		if registered == f {
			m.filters = append(m.filters[:i], m.filters[i+1:]...)
			break
		}
	}
	m.logger.Info("removed filter", "name", name)
	return true
}

// Names lists registered filter names in execution order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.filters))
	for _, f := range m.filters {
		names = append(names, f.Name())
	}
	return names
}

// Len returns the number of registered filters.
func (m *Manager) Len() int {
	return len(m.filters)
}

// Process runs the ordered chain over the given context.
//
// Each filter's delta is folded into the accumulator by merge. A filter
// error is logged and its contribution skipped entirely; a single filter's
// failure never aborts the chain. Once a delta carries ShouldContinue=false
// the loop stops immediately after merging that delta.
//
// Process always returns a Result, even with zero filters executed.
func (m *Manager) Process(ctx Context) Result {
	m.logger.Debug("starting filter chain", "filters", len(m.filters))

	result := Result{ShouldContinue: true}

	for _, f := range m.filters {
		if !f.ShouldExecute(ctx) {
			m.logger.Debug("skipping filter", "name", f.Name())
			continue
		}

		delta, err := f.Process(ctx)
		if err != nil {
			m.logger.Error("filter failed", "name", f.Name(), "error", err)
			continue
		}

		result = merge(result, delta)

		if !delta.ShouldContinue {
			m.logger.Info("filter stopped the chain", "name", f.Name())
			break
		}
	}

	m.logger.Debug("filter chain completed",
		"conversation_type", result.ConversationType,
		"confidence", result.Confidence)
	return result
}
