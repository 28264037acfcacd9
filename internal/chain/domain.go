package chain

import (
	"fmt"
	"strings"
)

// Business domains recognized by the domain filter, in check order.
// Programming is the one domain whose result triggers the chain manager's
// hard-override rule.
const (
	domainEcommerce   = "ecommerce"
	domainTechnical   = "technical"
	domainProgramming = "programming"
	domainFinancial   = "financial"
)

var defaultDomainKeywords = map[string][]string{
	domainEcommerce: {
		"商品", "產品", "購買", "購物", "商城", "商店", "價格", "優惠", "折扣",
		"product", "purchase", "shopping", "store", "price", "discount", "sale",
	},
	domainTechnical: {
		"技術", "程式", "代碼", "開發", "api", "資料庫", "伺服器", "網路",
		"technical", "programming", "code", "development", "database", "server",
	},
	domainProgramming: {
		"java", "python", "javascript", "c++", "c#", "php", "ruby", "go", "rust", "swift",
		"程式語言", "編程語言", "程式設計", "編程", "代碼", "函數", "類別", "物件",
		"變數", "迴圈", "條件", "演算法", "資料結構", "框架", "函式庫", "api",
		"programming language", "coding", "function", "class", "object", "variable",
		"loop", "condition", "algorithm", "data structure", "framework", "library",
	},
	domainFinancial: {
		"財務", "會計", "稅務", "投資", "理財", "保險", "銀行", "貸款",
		"financial", "accounting", "tax", "investment", "insurance", "bank", "loan",
	},
}

// DomainConfig overrides the built-in domain vocabularies. Zero value uses defaults.
type DomainConfig struct {
	DomainKeywords map[string][]string
}

// DomainFilter tags messages with a business domain and maps the domain to a
// suggested conversation type at a fixed confidence:
//
//	ecommerce   → customer_service @0.6
//	programming → programming      @0.8 (hard override downstream)
//	technical   → knowledge_query  @0.5
//	financial   → knowledge_query  @0.4
//
// Runs at priority 30, after the sharper keyword/intent signals.
type DomainFilter struct {
	keywords map[string][]string
}

// NewDomainFilter creates a domain filter with the given config.
func NewDomainFilter(cfg DomainConfig) *DomainFilter {
	kw := cfg.DomainKeywords
	if kw == nil {
		kw = defaultDomainKeywords
	}
	return &DomainFilter{keywords: kw}
}

func (f *DomainFilter) Name() string { return "domain" }

func (f *DomainFilter) Priority() int { return 30 }

func (f *DomainFilter) ShouldExecute(Context) bool { return true }

func (f *DomainFilter) Process(ctx Context) (Result, error) {
	message := strings.ToLower(ctx.Message)

	detected := make(map[string][]string)
	for domain, keywords := range f.keywords {
		if matches := matchKeywords(message, keywords); len(matches) > 0 {
			detected[domain] = matches
		}
	}

	if len(detected) == 0 {
		return Continue("未檢測到特定業務領域"), nil
	}

	meta := map[string]any{"detected_domains": detected}

	// Fixed precedence between domains; ecommerce outranks programming when
	// both match, as observed in the original rule order.
	if matches, ok := detected[domainEcommerce]; ok {
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeCustomerService,
			Confidence:       0.6,
			Reason:           fmt.Sprintf("檢測到電商領域關鍵詞: %s", strings.Join(matches, ", ")),
			Metadata:         meta,
		}, nil
	}
	if matches, ok := detected[domainProgramming]; ok {
		meta[MetaKMSource] = KMSourceProgramming
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeProgramming,
			Confidence:       0.8,
			Reason:           fmt.Sprintf("檢測到編程領域關鍵詞: %s", strings.Join(matches, ", ")),
			Metadata:         meta,
		}, nil
	}
	if matches, ok := detected[domainTechnical]; ok {
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeKnowledgeQuery,
			Confidence:       0.5,
			Reason:           fmt.Sprintf("檢測到技術領域關鍵詞: %s", strings.Join(matches, ", ")),
			Metadata:         meta,
		}, nil
	}
	matches := detected[domainFinancial]
	return Result{
		ShouldContinue:   true,
		ConversationType: TypeKnowledgeQuery,
		Confidence:       0.4,
		Reason:           fmt.Sprintf("檢測到財務領域關鍵詞: %s", strings.Join(matches, ", ")),
		Metadata:         meta,
	}, nil
}
