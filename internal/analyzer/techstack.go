package analyzer

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
	"gopkg.in/yaml.v3"
)

//go:embed data/fingerprints.yaml
var defaultFingerprintsYAML []byte

// Fingerprint describes how one technology shows up in a page.
type Fingerprint struct {
	Name          string   `yaml:"name"`
	Category      string   `yaml:"category"`
	Implies       []string `yaml:"implies"`
	Globals       []string `yaml:"globals"`
	ScriptSrc     []string `yaml:"script_src"`
	Stylesheet    []string `yaml:"stylesheet"`
	MetaGenerator []string `yaml:"meta_generator"`
	HTML          []string `yaml:"html"`

	scriptSrc     []*regexp.Regexp
	stylesheet    []*regexp.Regexp
	metaGenerator []*regexp.Regexp
	html          []*regexp.Regexp
}

type fingerprintFile struct {
	Version      int            `yaml:"version"`
	Technologies []*Fingerprint `yaml:"technologies"`
}

var techCategories = map[string]bool{
	"frameworks": true,
	"libraries":  true,
	"analytics":  true,
	"cms":        true,
	"ecommerce":  true,
	"fonts":      true,
	"other":      true,
}

// TechStackDetector matches captured page signals against a fingerprint
// table.
type TechStackDetector struct {
	version      int
	fingerprints []*Fingerprint
	byName       map[string]*Fingerprint
}

func LoadTechStackDetector(data []byte) (*TechStackDetector, error) {
	var file fingerprintFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fingerprints: %w", err)
	}

	d := &TechStackDetector{version: file.Version, byName: make(map[string]*Fingerprint)}
	for _, fp := range file.Technologies {
		if fp.Name == "" {
			return nil, fmt.Errorf("fingerprint without a name")
		}
		if !techCategories[fp.Category] {
			return nil, fmt.Errorf("fingerprint %s has unknown category %q", fp.Name, fp.Category)
		}
		var err error
		if fp.scriptSrc, err = compilePatterns(fp.ScriptSrc); err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", fp.Name, err)
		}
		if fp.stylesheet, err = compilePatterns(fp.Stylesheet); err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", fp.Name, err)
		}
		if fp.metaGenerator, err = compilePatterns(fp.MetaGenerator); err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", fp.Name, err)
		}
		if fp.html, err = compilePatterns(fp.HTML); err != nil {
			return nil, fmt.Errorf("fingerprint %s: %w", fp.Name, err)
		}
		d.fingerprints = append(d.fingerprints, fp)
		d.byName[fp.Name] = fp
	}
	return d, nil
}

var (
	defaultDetector     *TechStackDetector
	defaultDetectorOnce sync.Once
)

// DefaultTechStackDetector returns a detector over the embedded table.
func DefaultTechStackDetector() *TechStackDetector {
	defaultDetectorOnce.Do(func() {
		d, err := LoadTechStackDetector(defaultFingerprintsYAML)
		if err != nil {
			panic(err)
		}
		defaultDetector = d
	})
	return defaultDetector
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Globals lists every window property the page should be probed for.
func (d *TechStackDetector) Globals() []string {
	seen := make(map[string]bool)
	var globals []string
	for _, fp := range d.fingerprints {
		for _, g := range fp.Globals {
			if !seen[g] {
				seen[g] = true
				globals = append(globals, g)
			}
		}
	}
	sort.Strings(globals)
	return globals
}

// Detect returns the technologies evidenced by ts, grouped by category.
func (d *TechStackDetector) Detect(ts *signals.TechStack) *report.TechStack {
	found := make(map[string]bool)

	present := make(map[string]bool, len(ts.Globals))
	for _, g := range ts.Globals {
		present[g] = true
	}

	for _, fp := range d.fingerprints {
		if d.matches(fp, ts, present) {
			found[fp.Name] = true
		}
	}

	// Implied technologies are resolved until no new names appear.
	for changed := true; changed; {
		changed = false
		for name := range found {
			for _, implied := range d.byName[name].Implies {
				if _, known := d.byName[implied]; known && !found[implied] {
					found[implied] = true
					changed = true
				}
			}
		}
	}

	stack := &report.TechStack{
		Frameworks: []string{},
		Libraries:  []string{},
		Analytics:  []string{},
		CMS:        []string{},
		Ecommerce:  []string{},
		Fonts:      []string{},
	}
	for _, fp := range d.fingerprints {
		if !found[fp.Name] {
			continue
		}
		switch fp.Category {
		case "frameworks":
			stack.Frameworks = append(stack.Frameworks, fp.Name)
		case "libraries":
			stack.Libraries = append(stack.Libraries, fp.Name)
		case "analytics":
			stack.Analytics = append(stack.Analytics, fp.Name)
		case "cms":
			stack.CMS = append(stack.CMS, fp.Name)
		case "ecommerce":
			stack.Ecommerce = append(stack.Ecommerce, fp.Name)
		case "fonts":
			stack.Fonts = append(stack.Fonts, fp.Name)
		default:
			stack.Other = append(stack.Other, fp.Name)
		}
	}
	return stack
}

func (d *TechStackDetector) matches(fp *Fingerprint, ts *signals.TechStack, present map[string]bool) bool {
	for _, g := range fp.Globals {
		if present[g] {
			return true
		}
	}
	if matchAny(fp.scriptSrc, ts.ScriptSources) || matchAny(fp.stylesheet, ts.StylesheetHrefs) {
		return true
	}
	if ts.MetaGenerator != "" && matchAny(fp.metaGenerator, []string{ts.MetaGenerator}) {
		return true
	}
	if ts.HTMLSample != "" && matchAny(fp.html, []string{ts.HTMLSample}) {
		return true
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, values []string) bool {
	for _, re := range patterns {
		for _, v := range values {
			if re.MatchString(v) {
				return true
			}
		}
	}
	return false
}

// Version is the fingerprint table version.
func (d *TechStackDetector) Version() int {
	return d.version
}
