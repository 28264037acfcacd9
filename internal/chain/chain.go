// Package chain implements the conversation-type classification pipeline.
//
// A classification request flows through an ordered chain of filters, each
// contributing a candidate conversation type, a confidence and metadata.
// Filters are stateless and safe for concurrent use; per-request state lives
// in the Context/Result values passed through the chain.
package chain

// Conversation type labels produced by the filters.
const (
	TypeCustomerService = "customer_service"
	TypeKnowledgeQuery  = "knowledge_query"
	TypeProgramming     = "programming"
	TypeGeneral         = "general"
)

// Knowledge-source routing hints emitted in Result metadata under MetaKMSource.
const (
	KMSourceProgramming     = "programming_km"
	KMSourceGeneral         = "general_km"
	KMSourceCustomerService = "customer_service_km"
	KMSourceProduct         = "product_km"
	KMSourceService         = "service_km"
	KMSourceTechnical       = "technical_km"
)

// Metadata keys shared between the chain and the knowledge-retrieval side.
const (
	MetaKMSource        = "km_source"
	MetaOriginalMessage = "original_message"
)

// Context is the immutable input to one classification run.
type Context struct {
	Message          string
	UserID           int64
	ConversationID   string
	ConversationType string
	Metadata         map[string]any
}

// Result accumulates the chain's decision. Filters return a Result delta;
// the manager folds deltas into the final value via merge (see manager.go).
type Result struct {
	ShouldContinue   bool
	ConversationType string
	Confidence       float64
	Reason           string
	Metadata         map[string]any
}

// Continue returns a neutral pass-through delta with the given reason.
func Continue(reason string) Result {
	return Result{ShouldContinue: true, Reason: reason}
}

// Filter is a single classification strategy. Priority is a total order;
// lower values execute earlier, ties break by insertion order.
type Filter interface {
	Name() string
	Priority() int
	ShouldExecute(ctx Context) bool
	Process(ctx Context) (Result, error)
}

// merge folds a filter's delta into the accumulated result.
//
// Rules:
//   - a programming delta unconditionally takes the category, confidence and
//     reason, and once the accumulator holds programming no later category
//     displaces it (the hard precedence rule; keyed on the literal
//     TypeProgramming)
//   - any other category wins only while the accumulator is unset or the
//     delta's confidence strictly exceeds the accumulated confidence
//   - a non-empty delta reason always replaces the accumulated reason, so
//     the final reason may describe a filter that did not win the category;
//     this mirrors the observed behavior and is intentionally preserved
//   - metadata is shallow-merged with delta keys winning
func merge(acc, delta Result) Result {
	out := acc

	if delta.ConversationType != "" {
		if delta.ConversationType == TypeProgramming {
			out.ConversationType = delta.ConversationType
			out.Confidence = delta.Confidence
			out.Reason = delta.Reason
		} else if out.ConversationType != TypeProgramming &&
			(out.ConversationType == "" || delta.Confidence > out.Confidence) {
			out.ConversationType = delta.ConversationType
			out.Confidence = delta.Confidence
			out.Reason = delta.Reason
		}
	}

	if delta.Reason != "" {
		out.Reason = delta.Reason
	}

	if len(delta.Metadata) > 0 {
		merged := make(map[string]any, len(out.Metadata)+len(delta.Metadata))
		for k, v := range out.Metadata {
			merged[k] = v
		}
		for k, v := range delta.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}

	out.ShouldContinue = acc.ShouldContinue && delta.ShouldContinue

	return out
}
