package signals

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed scripts/*.js
var scripts embed.FS

// Extractor is a named, side-effect-free read of the live document. Script
// is a JavaScript function expression; Args, when set, is passed to it as
// its only argument.
type Extractor struct {
	Name   string
	Script string
	Args   any
}

// With returns a copy of the extractor bound to args.
func (e Extractor) With(args any) Extractor {
	e.Args = args
	return e
}

// Expression renders the call expression evaluated by the browser.
func (e Extractor) Expression() (string, error) {
	args := "null"
	if e.Args != nil {
		data, err := json.Marshal(e.Args)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s extractor args: %w", e.Name, err)
		}
		args = string(data)
	}
	return fmt.Sprintf("(%s)(%s)", strings.TrimSpace(e.Script), args), nil
}

func load(name string) Extractor {
	data, err := scripts.ReadFile("scripts/" + name + ".js")
	if err != nil {
		panic(fmt.Sprintf("missing extractor script %s: %v", name, err))
	}
	return Extractor{Name: name, Script: string(data)}
}

var (
	SEOExtractor           = load("seo")
	SecurityExtractor      = load("security")
	PerformanceExtractor   = load("performance")
	AccessibilityExtractor = load("accessibility")
	MobileExtractor        = load("mobile")
	UXExtractor            = load("ux")
	UIExtractor            = load("ui")
	FunctionalityExtractor = load("functionality")
	InteractiveExtractor   = load("interactive")
	AuthFormExtractor      = load("authform")
	TechStackExtractor     = load("techstack")
	SessionExtractor       = load("session")
)
