// Package signals defines the typed observations captured from a live page
// and the named extractor scripts that produce them. Analyzers consume these
// values only, so every check can run against a fixture without a browser.
package signals

import "github.com/siteauditor/site-auditor/internal/report"

// Page bundles every signal captured for one visited page.
type Page struct {
	URL           string
	Path          string
	Scheme        string
	Host          string
	Status        int
	LoadTimeMs    int64
	ConsoleErrors []string
	LinkChecks    []report.LinkCheck

	SEO           *SEO
	Security      *Security
	Performance   *Performance
	Accessibility *Accessibility
	Mobile        *Mobile
	UX            *UX
	UI            *UI
	Functionality *Functionality
	Interactive   *Interactive

	// Errors records extraction failures per category. A category with an
	// error and no signals is reported as an analysis error.
	Errors map[report.Category]error
}

// SetError records an extraction failure for a category.
func (p *Page) SetError(category report.Category, err error) {
	if p.Errors == nil {
		p.Errors = make(map[report.Category]error)
	}
	p.Errors[category] = err
}

type SEO struct {
	Title                string            `json:"title"`
	TitleCount           int               `json:"titleCount"`
	MetaDescription      string            `json:"metaDescription"`
	HasMetaDescription   bool              `json:"hasMetaDescription"`
	H1Count              int               `json:"h1Count"`
	ImageCount           int               `json:"imageCount"`
	ImagesMissingAlt     int               `json:"imagesMissingAlt"`
	Canonical            string            `json:"canonical"`
	OpenGraph            map[string]string `json:"openGraph"`
	TwitterCard          map[string]string `json:"twitterCard"`
	StructuredData       []string          `json:"structuredData"`
	StructuredDataErrors int               `json:"structuredDataErrors"`
	WordCount            int               `json:"wordCount"`
	TextLength           int               `json:"textLength"`
	HTMLLength           int               `json:"htmlLength"`
	HasFavicon           bool              `json:"hasFavicon"`
	RobotsNoIndex        bool              `json:"robotsNoIndex"`
}

type Security struct {
	Protocol           string   `json:"protocol"`
	FormActions        []string `json:"formActions"`
	MixedContent       []string `json:"mixedContent"`
	InlineScripts      []string `json:"inlineScripts"`
	ScriptSources      []string `json:"scriptSources"`
	HasCSPMeta         bool     `json:"hasCspMeta"`
	UnsafeBlankTargets int      `json:"unsafeBlankTargets"`
	PasswordFields     int      `json:"passwordFields"`
}

type Resource struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	TransferSize float64 `json:"transferSize"`
	BodySize     float64 `json:"bodySize"`
}

// Bytes is the best available size of the resource on the wire.
func (r Resource) Bytes() int64 {
	if r.TransferSize > 0 {
		return int64(r.TransferSize)
	}
	return int64(r.BodySize)
}

type Performance struct {
	DOMContentLoadedMs     float64    `json:"domContentLoaded"`
	LoadEventMs            float64    `json:"loadEvent"`
	FirstPaintMs           float64    `json:"firstPaint"`
	FirstContentfulPaintMs float64    `json:"firstContentfulPaint"`
	TimingAvailable        bool       `json:"timingAvailable"`
	Resources              []Resource `json:"resources"`
	DOMNodeCount           int        `json:"domNodeCount"`
	RenderBlockingScripts  int        `json:"renderBlockingScripts"`
	ImagesBelowFold        int        `json:"imagesBelowFold"`
	LazyImagesBelowFold    int        `json:"lazyImagesBelowFold"`
}

type Accessibility struct {
	Lang                 string          `json:"lang"`
	ImageCount           int             `json:"imageCount"`
	ImagesMissingAlt     int             `json:"imagesMissingAlt"`
	Landmarks            map[string]bool `json:"landmarks"`
	FormFieldCount       int             `json:"formFieldCount"`
	UnlabeledFields      int             `json:"unlabeledFields"`
	UnlabeledButtons     int             `json:"unlabeledButtons"`
	EmptyLinks           int             `json:"emptyLinks"`
	TableCount           int             `json:"tableCount"`
	TablesWithoutHeaders int             `json:"tablesWithoutHeaders"`
	IframeCount          int             `json:"iframeCount"`
	IframesWithoutTitle  int             `json:"iframesWithoutTitle"`
}

type Size struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

type Mobile struct {
	HasViewportMeta  bool      `json:"hasViewportMeta"`
	ViewportContent  string    `json:"viewportContent"`
	ViewportWidth    int       `json:"viewportWidth"`
	ScrollWidth      int       `json:"scrollWidth"`
	OverflowElements int       `json:"overflowElements"`
	TouchTargets     []Size    `json:"touchTargets"`
	BodyFontSizePx   float64   `json:"bodyFontSize"`
	MenuHints        []string  `json:"menuHints"`
	InputHeights     []float64 `json:"inputHeights"`
}

type Control struct {
	Tag       string `json:"tag"`
	Text      string `json:"text"`
	Href      string `json:"href"`
	AboveFold bool   `json:"aboveFold"`
}

type Form struct {
	Action     string   `json:"action"`
	Method     string   `json:"method"`
	InputTypes []string `json:"inputTypes"`
	InputNames []string `json:"inputNames"`
	Text       string   `json:"text"`
}

type Overlay struct {
	Text      string  `json:"text"`
	AreaRatio float64 `json:"areaRatio"`
}

type UX struct {
	NavCount     int       `json:"navCount"`
	NavLinkCount int       `json:"navLinkCount"`
	Controls     []Control `json:"controls"`
	DeadLinks    int       `json:"deadLinks"`
	H1AboveFold  bool      `json:"h1AboveFold"`
	HeroHints    []string  `json:"heroHints"`
	Forms        []Form    `json:"forms"`
	Overlays     []Overlay `json:"overlays"`
}

type UI struct {
	FontFamilies         []string `json:"fontFamilies"`
	ImageCount           int      `json:"imageCount"`
	BrokenImages         []string `json:"brokenImages"`
	FlexGridCount        int      `json:"flexGridCount"`
	ResponsiveClassCount int      `json:"responsiveClassCount"`
	MediaQueryCount      int      `json:"mediaQueryCount"`
	DarkModeQuery        bool     `json:"darkModeQuery"`
	ColorSchemeMeta      bool     `json:"colorSchemeMeta"`
}

type Functionality struct {
	FormCount              int      `json:"formCount"`
	FormsWithoutValidation int      `json:"formsWithoutValidation"`
	MediaCount             int      `json:"mediaCount"`
	MediaWithoutControls   int      `json:"mediaWithoutControls"`
	UnlabeledMedia         int      `json:"unlabeledMedia"`
	EmptyLinks             int      `json:"emptyLinks"`
	JavascriptLinks        int      `json:"javascriptLinks"`
	LazyElements           int      `json:"lazyElements"`
	Title                  string   `json:"title"`
	Heading                string   `json:"heading"`
	BodyText               string   `json:"bodyText"`
	Links                  []string `json:"links"`
}

type InteractiveControl struct {
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	Disabled bool    `json:"disabled"`
	Hidden   bool    `json:"hidden"`
	Width    float64 `json:"w"`
	Height   float64 `json:"h"`
}

type Interactive struct {
	Controls []InteractiveControl `json:"controls"`
}

type AuthForm struct {
	HasIdentifierField bool   `json:"hasIdentifierField"`
	HasPasswordField   bool   `json:"hasPasswordField"`
	PasswordFieldCount int    `json:"passwordFieldCount"`
	HasSubmit          bool   `json:"hasSubmit"`
	HasNameField       bool   `json:"hasNameField"`
	HasConfirmField    bool   `json:"hasConfirmField"`
	IdentifierSelector string `json:"identifierSelector"`
	PasswordSelector   string `json:"passwordSelector"`
	SubmitSelector     string `json:"submitSelector"`
}

// Complete reports whether the form has every control a login needs.
func (f *AuthForm) Complete() bool {
	return f.HasIdentifierField && f.HasPasswordField && f.HasSubmit
}

type TechStack struct {
	ScriptSources   []string `json:"scriptSources"`
	StylesheetHrefs []string `json:"stylesheetHrefs"`
	MetaGenerator   string   `json:"metaGenerator"`
	Globals         []string `json:"globals"`
	HTMLSample      string   `json:"htmlSample"`
}

// SessionState is read after a credential submit to judge whether the login
// took effect.
type SessionState struct {
	URL                 string `json:"url"`
	HasPasswordField    bool   `json:"hasPasswordField"`
	HasLogoutAffordance bool   `json:"hasLogoutAffordance"`
	ErrorText           string `json:"errorText"`
}
