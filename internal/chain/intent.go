package chain

import (
	"fmt"
	"regexp"
)

// defaultCustomerServicePatterns match complaint/issue/refund phrasing.
var defaultCustomerServicePatterns = []string{
	`我(有|遇到|發生).*問題`,
	`.*(壞掉|故障|不能用).*`,
	`我要(退貨|退款|換貨)`,
	`.*(客服|服務|幫助).*`,
	`.*(投訴|建議|意見).*`,
	`訂單.*(問題|錯誤)`,
	`付款.*(失敗|錯誤)`,
	`配送.*(延遲|問題)`,
}

// defaultKnowledgeQueryPatterns match question phrasing.
var defaultKnowledgeQueryPatterns = []string{
	`什麼是.*`,
	`如何.*`,
	`怎麼.*`,
	`.*(說明|介紹|指南).*`,
	`.*(知識|資訊|資料).*`,
	`.*(FAQ|常見問題).*`,
	`.*(教學|學習|研究).*`,
}

// IntentConfig overrides the built-in pattern sets. Zero value uses defaults.
type IntentConfig struct {
	CustomerServicePatterns []string
	KnowledgeQueryPatterns  []string
}

// IntentFilter detects user intent with regex pattern sets. It runs after
// the keyword filter (priority 20): pattern matching is a looser signal than
// exact vocabulary hits.
type IntentFilter struct {
	customerService []*regexp.Regexp
	knowledgeQuery  []*regexp.Regexp
}

// NewIntentFilter creates an intent filter with the given config.
// Invalid patterns return an error rather than being silently dropped.
func NewIntentFilter(cfg IntentConfig) (*IntentFilter, error) {
	csPatterns := cfg.CustomerServicePatterns
	if csPatterns == nil {
		csPatterns = defaultCustomerServicePatterns
	}
	kqPatterns := cfg.KnowledgeQueryPatterns
	if kqPatterns == nil {
		kqPatterns = defaultKnowledgeQueryPatterns
	}

	cs, err := compilePatterns(csPatterns)
	if err != nil {
		return nil, fmt.Errorf("customer service patterns: %w", err)
	}
	kq, err := compilePatterns(kqPatterns)
	if err != nil {
		return nil, fmt.Errorf("knowledge query patterns: %w", err)
	}

	return &IntentFilter{customerService: cs, knowledgeQuery: kq}, nil
}

// MustNewIntentFilter is NewIntentFilter for the built-in defaults, which
// are known to compile.
func MustNewIntentFilter() *IntentFilter {
	f, err := NewIntentFilter(IntentConfig{})
	if err != nil {
		panic(err)
	}
	return f
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func (f *IntentFilter) Name() string { return "intent" }

func (f *IntentFilter) Priority() int { return 20 }

func (f *IntentFilter) ShouldExecute(Context) bool { return true }

func (f *IntentFilter) Process(ctx Context) (Result, error) {
	csMatched := countMatches(ctx.Message, f.customerService)
	kqMatched := countMatches(ctx.Message, f.knowledgeQuery)

	csConfidence := ratio(csMatched, len(f.customerService))
	kqConfidence := ratio(kqMatched, len(f.knowledgeQuery))

	switch {
	case csConfidence > 0.2:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeCustomerService,
			Confidence:       csConfidence,
			Reason:           fmt.Sprintf("檢測到客服意圖模式: %d個匹配", csMatched),
			Metadata:         map[string]any{"matched_patterns": csMatched},
		}, nil

	case kqConfidence > 0.2:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeKnowledgeQuery,
			Confidence:       kqConfidence,
			Reason:           fmt.Sprintf("檢測到知識查詢意圖模式: %d個匹配", kqMatched),
			Metadata:         map[string]any{"matched_patterns": kqMatched},
		}, nil
	}

	return Continue("未檢測到明確的意圖模式"), nil
}

func countMatches(message string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(message) {
			n++
		}
	}
	return n
}
