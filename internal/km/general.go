package km

import (
	"context"
	"fmt"
	"strings"
)

// GeneralSource answers any query from built-in templates. It is the safety
// net registered behind the specialised sources: always suitable, lowest
// priority, modest confidence.
type GeneralSource struct{}

// NewGeneralSource creates the template-backed fallback source.
func NewGeneralSource() *GeneralSource {
	return &GeneralSource{}
}

func (s *GeneralSource) Name() string     { return "general" }
func (s *GeneralSource) Type() SourceType { return SourceTypeGeneral }
func (s *GeneralSource) Priority() int    { return 50 }

// SuitableFor always returns true; the general source backstops every query.
func (s *GeneralSource) SuitableFor(Query) bool { return true }

func (s *GeneralSource) Search(_ context.Context, q Query) ([]Result, error) {
	message := strings.ToLower(q.Query)

	var (
		content  string
		kind     string
		conf     = 0.5
		relScore = 0.6
	)
	switch {
	case strings.Contains(q.Query, "什麼是") || strings.Contains(message, "what is"):
		content = fmt.Sprintf("這是關於「%s」的概念說明。這個主題涉及基礎定義與核心原理，建議從官方文件或入門教學開始了解。", q.Query)
		kind = "concept"
		conf = 0.6
		relScore = 0.7
	case strings.Contains(q.Query, "如何") || strings.Contains(message, "how to"):
		content = fmt.Sprintf("關於「%s」的操作步驟：先確認前置條件，再依序執行設定，最後驗證結果。詳細流程請參考相關指南。", q.Query)
		kind = "how_to"
		conf = 0.6
		relScore = 0.7
	default:
		content = fmt.Sprintf("關於「%s」的一般資訊：這個問題屬於通用知識範圍，如需更精確的答案，請提供更多背景或關鍵字。", q.Query)
		kind = "generic"
	}

	return []Result{{
		Content:        content,
		Source:         s.Name(),
		Confidence:     conf,
		RelevanceScore: relScore,
		Metadata: map[string]any{
			"template":    kind,
			"source_type": string(SourceTypeGeneral),
		},
	}}, nil
}
