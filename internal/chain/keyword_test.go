package chain

import (
	"strings"
	"testing"
)

func TestKeywordFilter_CustomerServiceVocabulary(t *testing.T) {
	f := NewKeywordFilter(KeywordConfig{})

	// Well above the 30% threshold: 12 of the 31 support keywords.
	msg := "客服 服務 幫助 協助 支援 問題 故障 錯誤 退款 退貨 訂單 付款"
	result, err := f.Process(Context{Message: msg})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.ConversationType != TypeCustomerService {
		t.Fatalf("ConversationType = %q, want %q", result.ConversationType, TypeCustomerService)
	}
	if result.Confidence <= 0.3 {
		t.Errorf("Confidence = %v, want > 0.3", result.Confidence)
	}
	if !result.ShouldContinue {
		t.Error("keyword filter must never stop the chain")
	}
	if result.Metadata[MetaKMSource] != KMSourceCustomerService {
		t.Errorf("km_source = %v, want %q", result.Metadata[MetaKMSource], KMSourceCustomerService)
	}
	if result.Metadata[MetaOriginalMessage] != msg {
		t.Error("original message must be preserved in metadata")
	}
	if !strings.Contains(result.Reason, "客服關鍵字") {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
}

func TestKeywordFilter_NoVocabularyPassesThrough(t *testing.T) {
	f := NewKeywordFilter(KeywordConfig{})

	result, err := f.Process(Context{Message: "xyz abc nothing matches here"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if !result.ShouldContinue {
		t.Error("ShouldContinue must stay true")
	}
	if result.ConversationType != "" {
		t.Errorf("ConversationType = %q, want empty", result.ConversationType)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", result.Confidence)
	}
}

func TestKeywordFilter_CaseInsensitiveEnglish(t *testing.T) {
	f := NewKeywordFilter(KeywordConfig{
		CustomerServiceKeywords: []string{"refund", "order"},
	})

	result, err := f.Process(Context{Message: "I want a REFUND for my Order"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.ConversationType != TypeCustomerService {
		t.Errorf("case-insensitive match failed: %+v", result)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 (2/2 keywords)", result.Confidence)
	}
}

func TestKeywordFilter_KnowledgeRouting(t *testing.T) {
	// Base fragment with six knowledge keywords, enough to clear the
	// 30% knowledge threshold; the suffix steers km_source routing.
	base := "知識 資訊 說明 介紹 指南 教學 "

	tests := []struct {
		name       string
		suffix     string
		wantSource string
	}{
		{"programming term routes to programming", "java", KMSourceProgramming},
		{"chinese programming term", "程式碼", KMSourceProgramming},
		{"failure vocabulary zh", "錯誤", KMSourceProgramming},
		{"failure vocabulary en", "issue", KMSourceProgramming},
		{"product vocabulary", "產品", KMSourceProduct},
		{"policy vocabulary", "政策", KMSourceService},
		{"no extra vocabulary falls back to general", "", KMSourceGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewKeywordFilter(KeywordConfig{})

			result, err := f.Process(Context{Message: base + tt.suffix})
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if result.ConversationType != TypeKnowledgeQuery {
				t.Fatalf("ConversationType = %q, want %q", result.ConversationType, TypeKnowledgeQuery)
			}
			if got := result.Metadata[MetaKMSource]; got != tt.wantSource {
				t.Errorf("km_source = %v, want %q", got, tt.wantSource)
			}
		})
	}
}

func TestKeywordFilter_CustomerServiceBeatsKnowledge(t *testing.T) {
	f := NewKeywordFilter(KeywordConfig{
		CustomerServiceKeywords: []string{"refund"},
		KnowledgeKeywords:       []string{"guide"},
	})

	// Both vocabularies fully matched; support vocabulary is checked first.
	result, err := f.Process(Context{Message: "refund guide"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.ConversationType != TypeCustomerService {
		t.Errorf("support vocabulary should win, got %q", result.ConversationType)
	}
}

func TestRouteKMSource_TechnicalVocabulary(t *testing.T) {
	// 技術 appears only in the technical routing vocabulary, not in the
	// programming term list.
	if got := routeKMSource("技術"); got != KMSourceTechnical {
		t.Errorf("routeKMSource(技術) = %q, want %q", got, KMSourceTechnical)
	}
}
