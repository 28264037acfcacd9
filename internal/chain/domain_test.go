package chain

import (
	"strings"
	"testing"
)

func TestDomainFilter_DomainMapping(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		wantType       string
		wantConfidence float64
	}{
		{"ecommerce maps to customer service", "這個商品有優惠嗎", TypeCustomerService, 0.6},
		{"programming maps to programming", "python 函數怎麼寫", TypeProgramming, 0.8},
		{"technical maps to knowledge query", "伺服器網路設定", TypeKnowledgeQuery, 0.5},
		{"financial maps to knowledge query", "投資理財與保險", TypeKnowledgeQuery, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDomainFilter(DomainConfig{})

			result, err := f.Process(Context{Message: tt.message})
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if result.ConversationType != tt.wantType {
				t.Errorf("ConversationType = %q, want %q", result.ConversationType, tt.wantType)
			}
			if result.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", result.Confidence, tt.wantConfidence)
			}
			if !result.ShouldContinue {
				t.Error("domain filter must never stop the chain")
			}
			if _, ok := result.Metadata["detected_domains"]; !ok {
				t.Error("detected_domains metadata missing")
			}
		})
	}
}

func TestDomainFilter_ProgrammingSetsKMSource(t *testing.T) {
	f := NewDomainFilter(DomainConfig{})

	result, err := f.Process(Context{Message: "java 演算法問題"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.ConversationType != TypeProgramming {
		t.Fatalf("ConversationType = %q, want programming", result.ConversationType)
	}
	if result.Metadata[MetaKMSource] != KMSourceProgramming {
		t.Errorf("km_source = %v, want %q", result.Metadata[MetaKMSource], KMSourceProgramming)
	}
}

func TestDomainFilter_EcommerceOutranksProgramming(t *testing.T) {
	f := NewDomainFilter(DomainConfig{})

	// Both domains match; ecommerce is checked first.
	result, err := f.Process(Context{Message: "購買 python 課程"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.ConversationType != TypeCustomerService {
		t.Errorf("ConversationType = %q, want customer_service (ecommerce first)", result.ConversationType)
	}
	if !strings.Contains(result.Reason, "電商領域") {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
}

func TestDomainFilter_NoDomainPassesThrough(t *testing.T) {
	f := NewDomainFilter(DomainConfig{})

	result, err := f.Process(Context{Message: "今天天氣如何"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.ConversationType != "" || result.Confidence != 0 {
		t.Errorf("expected neutral result, got %+v", result)
	}
}
