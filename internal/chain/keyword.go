package chain

import (
	"fmt"
	"strings"
)

// defaultCustomerServiceKeywords is the support/service vocabulary.
var defaultCustomerServiceKeywords = []string{
	"客服", "服務", "幫助", "協助", "支援", "問題", "故障", "錯誤", "退款", "退貨",
	"訂單", "付款", "配送", "運費", "保固", "維修", "換貨", "投訴", "建議",
	"customer service", "help", "support", "issue", "problem", "refund", "return",
	"order", "payment", "shipping", "warranty", "complaint",
}

// defaultKnowledgeKeywords is the knowledge-query vocabulary.
var defaultKnowledgeKeywords = []string{
	"知識", "資訊", "說明", "介紹", "指南", "教學", "學習", "研究", "分析",
	"知識庫", "faq", "常見問題", "使用說明", "操作指南",
	"knowledge", "information", "guide", "tutorial", "manual",
}

// programmingTerms routes knowledge queries to the programming knowledge
// source. Any single hit wins, so the list is intentionally broad: languages,
// frameworks, tooling, concepts and zh-TW developer vocabulary.
var programmingTerms = []string{
	// languages
	"java", "python", "javascript", "typescript", "c++", "c#", "php", "ruby", "go", "rust",
	"swift", "kotlin", "scala", "groovy", "perl", "bash", "shell", "sql", "html", "css",
	"matlab", "octave", "fortran", "cobol", "pascal", "assembly",

	// frameworks and libraries
	"spring", "django", "flask", "express", "react", "vue", "angular", "node.js", "nodejs",
	"hibernate", "mybatis", "jpa", "jdbc", "junit", "maven", "gradle", "docker", "kubernetes",
	"git", "svn", "jenkins", "sonar", "nexus", "redis", "mysql", "postgresql", "mongodb",
	"elasticsearch", "kafka", "rabbitmq", "nginx", "apache", "tomcat", "jetty",

	// concepts
	"class", "method", "function", "variable", "object", "interface", "inheritance", "polymorphism",
	"encapsulation", "abstraction", "api", "rest", "soap", "microservice", "monolith", "architecture",
	"design pattern", "algorithm", "data structure", "database", "orm", "mvc", "mvvm",
	"dependency injection", "inversion of control", "solid principles", "clean code",

	// tooling and environments
	"ide", "eclipse", "intellij", "vscode", "vim", "emacs", "debug", "testing", "unit test",
	"integration test", "ci/cd", "deployment", "production", "development", "staging",
	"version control", "branch", "merge", "pull request", "code review",

	// zh-TW developer vocabulary
	"程式", "代碼", "編程", "開發", "軟體", "系統", "應用", "網站", "app", "應用程式",
	"資料庫", "伺服器", "客戶端", "後端", "前端", "全端", "架構", "設計模式", "演算法",
	"測試", "除錯", "部署", "版本控制", "程式碼", "函數", "類別", "物件", "介面",
	"模組", "套件", "依賴", "建置", "編譯", "執行", "打包", "引入", "匯出",

	// failure vocabulary
	"error", "bug", "exception", "stack trace", "log", "issue", "problem", "qa",
	"問題", "錯誤", "慢", "異常", "崩潰", "當機", "卡住", "效能", "記憶體", "cpu",
	"memory leak", "deadlock", "race condition", "buffer overflow", "segmentation fault",

	// build/syntax vocabulary
	"syntax", "compilation", "runtime", "compile", "build", "package", "import", "export",
	"語法",
}

// domainKMKeywords maps smaller domain vocabularies to their routing hints.
// Checked in a fixed order after the programming vocabulary.
var domainKMKeywords = []struct {
	source   string
	keywords []string
}{
	{KMSourceProduct, []string{"產品", "功能", "使用", "product", "feature", "usage"}},
	{KMSourceService, []string{"服務", "政策", "流程", "service", "policy", "process"}},
	{KMSourceTechnical, []string{"技術", "系統", "架構", "technical", "system", "architecture"}},
}

// KeywordConfig overrides the built-in vocabularies. Zero value uses defaults.
type KeywordConfig struct {
	CustomerServiceKeywords []string
	KnowledgeKeywords       []string
}

// KeywordFilter detects support/service and knowledge vocabulary by
// case-insensitive substring match. It runs first in the chain (priority 10)
// because exact vocabulary hits are the strongest cheap signal.
type KeywordFilter struct {
	customerService []string
	knowledge       []string
}

// NewKeywordFilter creates a keyword filter with the given config.
func NewKeywordFilter(cfg KeywordConfig) *KeywordFilter {
	f := &KeywordFilter{
		customerService: cfg.CustomerServiceKeywords,
		knowledge:       cfg.KnowledgeKeywords,
	}
	if f.customerService == nil {
		f.customerService = defaultCustomerServiceKeywords
	}
	if f.knowledge == nil {
		f.knowledge = defaultKnowledgeKeywords
	}
	return f
}

func (f *KeywordFilter) Name() string { return "keyword" }

func (f *KeywordFilter) Priority() int { return 10 }

func (f *KeywordFilter) ShouldExecute(Context) bool { return true }

func (f *KeywordFilter) Process(ctx Context) (Result, error) {
	message := strings.ToLower(ctx.Message)

	csMatches := matchKeywords(message, f.customerService)
	kqMatches := matchKeywords(message, f.knowledge)

	csConfidence := ratio(len(csMatches), len(f.customerService))
	kqConfidence := ratio(len(kqMatches), len(f.knowledge))

	switch {
	case csConfidence > 0.3:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeCustomerService,
			Confidence:       csConfidence,
			Reason:           fmt.Sprintf("檢測到客服關鍵字: %s", strings.Join(csMatches, ", ")),
			Metadata: map[string]any{
				"matched_keywords":  csMatches,
				MetaKMSource:        KMSourceCustomerService,
				MetaOriginalMessage: ctx.Message,
			},
		}, nil

	case kqConfidence > 0.3:
		return Result{
			ShouldContinue:   true,
			ConversationType: TypeKnowledgeQuery,
			Confidence:       kqConfidence,
			Reason:           fmt.Sprintf("檢測到知識查詢關鍵字: %s", strings.Join(kqMatches, ", ")),
			Metadata: map[string]any{
				"matched_keywords":  kqMatches,
				MetaKMSource:        routeKMSource(message),
				MetaOriginalMessage: ctx.Message,
			},
		}, nil
	}

	return Continue("未檢測到明確的關鍵字模式"), nil
}

// routeKMSource picks the knowledge source family for a knowledge query.
// Programming vocabulary wins outright, then the smaller domain vocabularies
// in order, then the general fallback.
func routeKMSource(message string) string {
	for _, term := range programmingTerms {
		if strings.Contains(message, term) {
			return KMSourceProgramming
		}
	}
	for _, domain := range domainKMKeywords {
		for _, kw := range domain.keywords {
			if strings.Contains(message, kw) {
				return domain.source
			}
		}
	}
	return KMSourceGeneral
}

// matchKeywords returns the keywords found in the lowercased message.
func matchKeywords(message string, keywords []string) []string {
	var matches []string
	for _, kw := range keywords {
		if strings.Contains(message, strings.ToLower(kw)) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// ratio guards against an empty vocabulary.
func ratio(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
