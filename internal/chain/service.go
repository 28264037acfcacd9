package chain

import (
	"github.com/google/uuid"

	"github.com/sonorth/maya-sawa/internal/log"
)

// Decision is the outcome of one classification call.
type Decision struct {
	ConversationType string
	Confidence       float64
	Reason           string
	Metadata         map[string]any
	ShouldUpdate     bool
}

// Service is the classification façade: a chain pre-populated with the four
// standard filters in priority order. Construct once at startup and share
// across requests.
type Service struct {
	manager *Manager
	logger  log.Logger
}

// NewService wires the standard filter chain.
func NewService(logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}

	m := NewManager(logger)
	m.Add(NewKeywordFilter(KeywordConfig{}))
	m.Add(MustNewIntentFilter())
	m.Add(NewDomainFilter(DomainConfig{}))
	m.Add(NewSentimentFilter(SentimentConfig{}))

	logger.Info("filter chain setup completed", "filters", m.Len())

	return &Service{manager: m, logger: logger}
}

// NewServiceWithManager builds a Service around a custom chain, for callers
// that need a non-standard filter set.
func NewServiceWithManager(m *Manager, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{manager: m, logger: logger}
}

// Classify runs the message through the filter chain and decides whether the
// conversation type should change.
//
// When the chain produces no category the current type is kept unchanged and
// ShouldUpdate is false.
func (s *Service) Classify(message string, userID int64, conversationID, currentType string) Decision {
	ctx := Context{
		Message:          message,
		UserID:           userID,
		ConversationID:   conversationID,
		ConversationType: currentType,
	}

	result := s.manager.Process(ctx)

	metadata := result.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["classification_id"] = uuid.NewString()

	if result.ConversationType == "" {
		return Decision{
			ConversationType: currentType,
			Confidence:       result.Confidence,
			Reason:           result.Reason,
			Metadata:         metadata,
			ShouldUpdate:     false,
		}
	}

	return Decision{
		ConversationType: result.ConversationType,
		Confidence:       result.Confidence,
		Reason:           result.Reason,
		Metadata:         metadata,
		ShouldUpdate:     result.ConversationType != currentType,
	}
}

// ChainInfo exposes the chain composition for diagnostics.
func (s *Service) ChainInfo() (int, []string) {
	return s.manager.Len(), s.manager.Names()
}
