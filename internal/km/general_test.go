package km

import (
	"context"
	"strings"
	"testing"
)

func TestGeneralSource_Search(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantTemplate string
		wantConf     float64
	}{
		{"concept question zh", "什麼是微服務", "concept", 0.6},
		{"concept question en", "What is Kubernetes", "concept", 0.6},
		{"how-to question zh", "如何部署服務", "how_to", 0.6},
		{"how-to question en", "how to configure nginx", "how_to", 0.6},
		{"anything else", "今天天氣", "generic", 0.5},
	}

	general := NewGeneralSource()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := general.Search(context.Background(), Query{Query: tt.query})
			if err != nil {
				t.Fatalf("Search() error: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}

			r := results[0]
			if r.Metadata["template"] != tt.wantTemplate {
				t.Errorf("template = %v, want %q", r.Metadata["template"], tt.wantTemplate)
			}
			if r.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", r.Confidence, tt.wantConf)
			}
			if r.Source != "general" {
				t.Errorf("Source = %q, want %q", r.Source, "general")
			}
			if !strings.Contains(r.Content, tt.query) {
				t.Errorf("content does not echo the query: %q", r.Content)
			}
		})
	}
}
