package report

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so that higher is worse. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type Category string

const (
	CategorySEO           Category = "SEO"
	CategorySecurity      Category = "Security"
	CategoryPerformance   Category = "Performance"
	CategoryAccessibility Category = "Accessibility"
	CategoryMobile        Category = "Mobile"
	CategoryUX            Category = "UX"
	CategoryUI            Category = "UI"
	CategoryFunctionality Category = "Functionality"
)

// Categories is the closed set of category checks, in reporting order.
var Categories = []Category{
	CategorySEO,
	CategorySecurity,
	CategoryPerformance,
	CategoryAccessibility,
	CategoryMobile,
	CategoryUX,
	CategoryUI,
	CategoryFunctionality,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Issue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Page        string   `json:"page,omitempty"`
	Rule        string   `json:"rule,omitempty"`
	Fix         string   `json:"fix,omitempty"`
}

type Warning struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Page        string   `json:"page,omitempty"`
}

type GoodPoint struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Page     string   `json:"page,omitempty"`
}

// AnalysisResult is the output of one category check on one page.
type AnalysisResult struct {
	Issues     []Issue   `json:"issues"`
	GoodPoints []string  `json:"goodPoints"`
	Warnings   []Warning `json:"warnings"`
}

// NewAnalysisResult returns an empty result with non-nil slices so the wire
// format always carries arrays.
func NewAnalysisResult() AnalysisResult {
	return AnalysisResult{Issues: []Issue{}, GoodPoints: []string{}, Warnings: []Warning{}}
}

type LinkCheck struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

type ResourceStats struct {
	TotalBytes    int64              `json:"totalBytes"`
	TotalRequests int                `json:"totalRequests"`
	BytesByType   map[string]int64   `json:"bytesByType"`
	CountByType   map[string]int     `json:"countByType"`
	PercentByType map[string]float64 `json:"percentByType"`
}

type ControlStats struct {
	Total   int      `json:"total"`
	Working int      `json:"working"`
	Broken  int      `json:"broken"`
	Details []string `json:"details"`
}

// InteractiveResult is the structural functionality proxy for a page's
// visible controls.
type InteractiveResult struct {
	Buttons ControlStats `json:"buttons"`
	Links   ControlStats `json:"links"`
	Forms   ControlStats `json:"forms"`
}

type PageAudit struct {
	Path          string                      `json:"path"`
	URL           string                      `json:"url"`
	Loaded        bool                        `json:"loaded"`
	Status        int                         `json:"status,omitempty"`
	LoadTimeMs    int64                       `json:"loadTime"`
	Analysis      map[Category]AnalysisResult `json:"analysis,omitempty"`
	Rating        float64                     `json:"rating"`
	TotalIssues   int                         `json:"totalIssues"`
	ConsoleErrors []string                    `json:"consoleErrors,omitempty"`
	LinkChecks    []LinkCheck                 `json:"linkChecks,omitempty"`
	Resources     *ResourceStats              `json:"resources,omitempty"`
	Interactive   *InteractiveResult          `json:"interactive,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

// CredentialTest records the outcome of submitting caller-supplied
// credentials through a discovered login form.
type CredentialTest struct {
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail"`
}

type AuthProbeResult struct {
	HasLogin             bool            `json:"hasLogin"`
	HasSignup            bool            `json:"hasSignup"`
	LoginURL             string          `json:"loginUrl,omitempty"`
	SignupURL            string          `json:"signupUrl,omitempty"`
	LoginPageAccessible  bool            `json:"loginPageAccessible"`
	SignupPageAccessible bool            `json:"signupPageAccessible"`
	InlineLoginForm      bool            `json:"inlineLoginForm"`
	SocialLoginAvailable bool            `json:"socialLoginAvailable"`
	SocialProviders      []string        `json:"socialProviders,omitempty"`
	CredentialTest       *CredentialTest `json:"credentialTest,omitempty"`
	Issues               []Issue         `json:"issues"`
	Details              []string        `json:"details"`
}

type TechStack struct {
	Frameworks []string `json:"frameworks"`
	Libraries  []string `json:"libraries"`
	Analytics  []string `json:"analytics"`
	CMS        []string `json:"cms"`
	Ecommerce  []string `json:"ecommerce"`
	Fonts      []string `json:"fonts"`
	Other      []string `json:"other,omitempty"`
}

// Screenshots holds base64-encoded PNG captures of the homepage.
type Screenshots struct {
	Desktop string `json:"desktop,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
}

type Summary struct {
	TotalIssues      int              `json:"totalIssues"`
	TotalWarnings    int              `json:"totalWarnings"`
	TotalGoodPoints  int              `json:"totalGoodPoints"`
	IssuesBySeverity map[Severity]int `json:"issuesBySeverity"`
	IssuesByCategory map[Category]int `json:"issuesByCategory"`
	PagesAnalyzed    int              `json:"pagesAnalyzed"`
	PagesFailed      int              `json:"pagesFailed"`
	Grade            string           `json:"grade"`
}

// AuditReport is the wire contract returned for every audit request.
// Consumers must ignore unknown fields.
type AuditReport struct {
	ID               string             `json:"id,omitempty"`
	URL              string             `json:"url"`
	StartTime        time.Time          `json:"startTime"`
	EndTime          time.Time          `json:"endTime"`
	TotalTimeMs      int64              `json:"totalTime"`
	Pages            []string           `json:"pages"`
	PageAudits       []PageAudit        `json:"pageAudits"`
	Issues           []Issue            `json:"issues"`
	Warnings         []Warning          `json:"warnings"`
	GoodPoints       []GoodPoint        `json:"goodPoints"`
	Rating           float64            `json:"rating"`
	Advice           string             `json:"advice"`
	Summary          Summary            `json:"summary"`
	TechStack        *TechStack         `json:"techStack,omitempty"`
	InteractiveTests *InteractiveResult `json:"interactiveTests,omitempty"`
	AuthTests        *AuthProbeResult   `json:"authTests,omitempty"`
	Screenshots      *Screenshots       `json:"screenshots,omitempty"`
	Resources        *ResourceStats     `json:"resources,omitempty"`
	Partial          bool               `json:"partial,omitempty"`
	Error            string             `json:"error,omitempty"`
	Version          string             `json:"version"`
}
