package km

import (
	"context"

	"github.com/sonorth/maya-sawa/internal/chain"
	"github.com/sonorth/maya-sawa/internal/log"
)

// hintToSourceType maps classification routing hints to source families.
var hintToSourceType = map[string]SourceType{
	chain.KMSourceProgramming:     SourceTypeProgramming,
	chain.KMSourceGeneral:         SourceTypeGeneral,
	chain.KMSourceCustomerService: SourceTypeCustomerService,
	chain.KMSourceProduct:         SourceTypeProduct,
	chain.KMSourceService:         SourceTypeService,
	chain.KMSourceTechnical:       SourceTypeTechnical,
}

// Connector bridges classification decisions into knowledge queries.
type Connector struct {
	manager *Manager
	logger  log.Logger
}

// NewConnector wires a connector to a source registry.
func NewConnector(manager *Manager, logger log.Logger) *Connector {
	return &Connector{manager: manager, logger: logger}
}

// Dispatch turns a classification decision into a knowledge search.
//
// Only knowledge queries and programming conversations trigger retrieval;
// every other conversation type yields no results. The routing hint in the
// decision metadata selects the source family; an unknown or missing hint
// falls back to the general source.
func (c *Connector) Dispatch(ctx context.Context, message string, userID int64, conversationID string, decision chain.Decision) []Result {
	if decision.ConversationType != chain.TypeKnowledgeQuery && decision.ConversationType != chain.TypeProgramming {
		return nil
	}

	hint, _ := decision.Metadata[chain.MetaKMSource].(string)
	sourceType, ok := hintToSourceType[hint]
	if !ok {
		sourceType = SourceTypeGeneral
	}

	q := Query{
		Query:          message,
		UserID:         userID,
		ConversationID: conversationID,
		// The conversation type doubles as the topical domain, so a
		// programming conversation reaches the programming source even
		// without a routing hint.
		Domain:     decision.ConversationType,
		Confidence: decision.Confidence,
		Metadata:   decision.Metadata,
	}

	c.logger.Debug("分派知識查詢",
		"conversation_type", decision.ConversationType,
		"source_type", sourceType,
		"hint", hint,
	)
	return c.manager.SearchBySourceType(ctx, sourceType, q)
}
