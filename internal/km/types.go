// Package km implements multi-source knowledge retrieval.
//
// A Source answers queries from one backing knowledge base: the
// programming source searches the article store and the article API,
// the general source answers from built-in templates. The Manager
// keeps registered sources and fans a query out to the suitable ones;
// the Connector bridges classification decisions into queries.
package km

import "context"

// SourceType identifies a knowledge source family.
type SourceType string

const (
	SourceTypeProgramming     SourceType = "programming"
	SourceTypeGeneral         SourceType = "general"
	SourceTypeCustomerService SourceType = "customer_service"
	SourceTypeProduct         SourceType = "product"
	SourceTypeService         SourceType = "service"
	SourceTypeTechnical       SourceType = "technical"
)

// Query is a knowledge retrieval request.
type Query struct {
	Query          string
	UserID         int64
	ConversationID string

	// Domain is the detected topical domain, when classification found one.
	Domain string

	// Confidence carries the classification confidence along for sources
	// that weight their answers by it.
	Confidence float64

	Metadata map[string]any
}

// Result is one retrieved knowledge item.
type Result struct {
	Content string

	// Source identifies the concrete origin, e.g. "paprika_42".
	Source string

	Confidence     float64
	RelevanceScore float64
	Metadata       map[string]any
}

// Source is a single knowledge backend.
type Source interface {
	// Name is the unique registration key.
	Name() string

	Type() SourceType

	// Priority orders sources when several are suitable; lower runs first.
	Priority() int

	// SuitableFor reports whether this source can answer the query.
	SuitableFor(q Query) bool

	Search(ctx context.Context, q Query) ([]Result, error)
}
