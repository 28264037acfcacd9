package chain

import (
	"fmt"
	"strings"
)

var defaultNegativeWords = []string{
	"不滿", "生氣", "憤怒", "失望", "沮喪", "煩惱", "困擾", "討厭",
	"不滿意", "投訴", "抱怨", "抗議",
	"angry", "frustrated", "disappointed", "upset", "annoyed", "complaint",
}

var defaultPositiveWords = []string{
	"滿意", "開心", "高興", "感謝", "謝謝", "讚", "好", "棒", "優秀",
	"happy", "satisfied", "thankful", "great", "excellent", "wonderful",
}

var defaultUrgentWords = []string{
	"緊急", "急", "快", "立即", "馬上", "現在", "立刻", "趕快",
	"urgent", "emergency", "immediate", "quick", "fast", "now",
}

// SentimentConfig overrides the built-in vocabularies. Zero value uses defaults.
type SentimentConfig struct {
	NegativeWords []string
	PositiveWords []string
	UrgentWords   []string
}

// SentimentFilter scores negative/positive/urgency vocabulary. It runs last
// (priority 40) and is the only filter allowed to terminate the chain: a
// simultaneously negative and urgent message is definitively customer
// service, so no later refinement is useful.
type SentimentFilter struct {
	negative []string
	positive []string
	urgent   []string
}

// NewSentimentFilter creates a sentiment filter with the given config.
func NewSentimentFilter(cfg SentimentConfig) *SentimentFilter {
	f := &SentimentFilter{
		negative: cfg.NegativeWords,
		positive: cfg.PositiveWords,
		urgent:   cfg.UrgentWords,
	}
	if f.negative == nil {
		f.negative = defaultNegativeWords
	}
	if f.positive == nil {
		f.positive = defaultPositiveWords
	}
	if f.urgent == nil {
		f.urgent = defaultUrgentWords
	}
	return f
}

func (f *SentimentFilter) Name() string { return "sentiment" }

func (f *SentimentFilter) Priority() int { return 40 }

func (f *SentimentFilter) ShouldExecute(Context) bool { return true }

func (f *SentimentFilter) Process(ctx Context) (Result, error) {
	message := strings.ToLower(ctx.Message)

	negative := countWords(message, f.negative)
	positive := countWords(message, f.positive)
	urgent := countWords(message, f.urgent)

	meta := map[string]any{
		"negative_count":  negative,
		"positive_count":  positive,
		"urgent_count":    urgent,
		"sentiment_score": positive - negative,
	}

	switch {
	case negative > 0 && urgent > 0:
		return Result{
			ShouldContinue:   false, // veto: stop the chain
			ConversationType: TypeCustomerService,
			Confidence:       0.8,
			Reason: fmt.Sprintf("檢測到負面情感(%d個詞)和緊急程度(%d個詞)，建議客服處理",
				negative, urgent),
			Metadata: meta,
		}, nil

	case negative > positive:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeCustomerService,
			Confidence:       0.6,
			Reason:           fmt.Sprintf("檢測到負面情感(%d個詞)，建議客服處理", negative),
			Metadata:         meta,
		}, nil

	case positive > negative:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeGeneral,
			Confidence:       0.4,
			Reason:           fmt.Sprintf("檢測到正面情感(%d個詞)，建議一般對話", positive),
			Metadata:         meta,
		}, nil
	}

	return Result{
		ShouldContinue: true,
		Reason:         "情感檢測中性，不影響對話類型決策",
		Metadata:       meta,
	}, nil
}

func countWords(message string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(message, strings.ToLower(w)) {
			n++
		}
	}
	return n
}
