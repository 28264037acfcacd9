package km

import (
	"context"
	"sort"
	"sync"

	"github.com/sonorth/maya-sawa/internal/log"
)

// Manager holds registered knowledge sources and fans queries out to them.
// A failing source is logged and skipped; retrieval never surfaces backend
// errors to the caller.
type Manager struct {
	mu      sync.RWMutex
	sources []Source
	byName  map[string]Source
	logger  log.Logger
}

// NewManager creates an empty source registry.
func NewManager(logger log.Logger) *Manager {
	return &Manager{
		byName: make(map[string]Source),
		logger: logger,
	}
}

// Register adds a source. Re-registering a name replaces the previous source.
func (m *Manager) Register(s Source) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[s.Name()]; exists {
		for i, existing := range m.sources {
			if existing.Name() == s.Name() {
				m.sources = append(m.sources[:i], m.sources[i+1:]...)
				break
			}
		}
	}

	m.byName[s.Name()] = s
	m.sources = append(m.sources, s)
	sort.SliceStable(m.sources, func(i, j int) bool {
		return m.sources[i].Priority() < m.sources[j].Priority()
	})

	m.logger.Debug("知識來源已註冊", "source", s.Name(), "type", s.Type(), "priority", s.Priority())
}

// Remove deletes a source by name. Removing an unknown name is a no-op.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[name]; !exists {
		return
	}
	delete(m.byName, name)
	for i, s := range m.sources {
		if s.Name() == name {
			m.sources = append(m.sources[:i], m.sources[i+1:]...)
			break
		}
	}
}

// List returns the registered source names in priority order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return names
}

// SuitableSources returns the sources that accept the query, in priority order.
func (m *Manager) SuitableSources(q Query) []Source {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var suitable []Source
	for _, s := range m.sources {
		if s.SuitableFor(q) {
			suitable = append(suitable, s)
		}
	}
	return suitable
}

// SearchAllSuitable queries every suitable source and merges the results,
// sorted by relevance score descending. Sources that error are skipped.
func (m *Manager) SearchAllSuitable(ctx context.Context, q Query) []Result {
	var merged []Result
	for _, s := range m.SuitableSources(q) {
		results, err := s.Search(ctx, q)
		if err != nil {
			m.logger.Warn("知識來源查詢失敗", "source", s.Name(), "error", err)
			continue
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	return merged
}

// SearchBySourceType queries only sources of the given type that accept the
// query. An unknown type, or one whose sources all decline, yields no results.
func (m *Manager) SearchBySourceType(ctx context.Context, st SourceType, q Query) []Result {
	m.mu.RLock()
	var targets []Source
	for _, s := range m.sources {
		if s.Type() == st && s.SuitableFor(q) {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	var merged []Result
	for _, s := range targets {
		results, err := s.Search(ctx, q)
		if err != nil {
			m.logger.Warn("知識來源查詢失敗", "source", s.Name(), "error", err)
			continue
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	return merged
}
