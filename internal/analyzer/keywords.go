package analyzer

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keyword set names in the vocabulary table.
const (
	KeywordCTA             = "cta"
	KeywordLogin           = "login"
	KeywordSignup          = "signup"
	KeywordSocialPhrases   = "social_phrases"
	KeywordSocialProviders = "social_providers"
	KeywordSocialHrefs     = "social_hrefs"
	KeywordMobileMenu      = "mobile_menu"
	KeywordHero            = "hero"
	KeywordContact         = "contact"
	KeywordNewsletter      = "newsletter"
	KeywordCookieBanner    = "cookie_banner"
	KeywordNotFound        = "not_found"
	KeywordLogout          = "logout"
)

//go:embed data/keywords.yaml
var defaultKeywordsYAML []byte

// Keywords is a versioned vocabulary table. Matching is case-insensitive and
// anchored on word boundaries, so "join" matches "Join us" but not
// "adjoining".
type Keywords struct {
	Version int                 `yaml:"version"`
	Sets    map[string][]string `yaml:"sets"`

	compiled map[string][]*regexp.Regexp
}

func LoadKeywords(data []byte) (*Keywords, error) {
	var k Keywords
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("failed to parse keyword table: %w", err)
	}
	if k.Version <= 0 {
		return nil, fmt.Errorf("keyword table must declare a positive version")
	}

	k.compiled = make(map[string][]*regexp.Regexp, len(k.Sets))
	for name, words := range k.Sets {
		for _, word := range words {
			word = strings.TrimSpace(strings.ToLower(word))
			if word == "" {
				continue
			}
			re, err := regexp.Compile(`(^|[^a-z0-9])` + regexp.QuoteMeta(word) + `($|[^a-z0-9])`)
			if err != nil {
				return nil, fmt.Errorf("invalid keyword %q in set %s: %w", word, name, err)
			}
			k.compiled[name] = append(k.compiled[name], re)
		}
	}
	return &k, nil
}

var (
	defaultKeywords     *Keywords
	defaultKeywordsOnce sync.Once
)

// DefaultKeywords returns the embedded vocabulary table.
func DefaultKeywords() *Keywords {
	defaultKeywordsOnce.Do(func() {
		k, err := LoadKeywords(defaultKeywordsYAML)
		if err != nil {
			panic(err)
		}
		defaultKeywords = k
	})
	return defaultKeywords
}

// Match returns the first keyword of set found in text, or "".
func (k *Keywords) Match(set, text string) string {
	text = strings.ToLower(text)
	for i, re := range k.compiled[set] {
		if re.MatchString(text) {
			return k.word(set, i)
		}
	}
	return ""
}

func (k *Keywords) Matches(set, text string) bool {
	return k.Match(set, text) != ""
}

// MatchesAny reports whether any of texts matches set.
func (k *Keywords) MatchesAny(set string, texts []string) bool {
	for _, t := range texts {
		if k.Matches(set, t) {
			return true
		}
	}
	return false
}

// Contains reports a plain substring match against set, for values such as
// URLs where word boundaries do not apply.
func (k *Keywords) Contains(set, text string) string {
	text = strings.ToLower(text)
	for _, word := range k.Sets[set] {
		if word != "" && strings.Contains(text, strings.ToLower(word)) {
			return word
		}
	}
	return ""
}

func (k *Keywords) Set(name string) []string {
	return k.Sets[name]
}

// word maps a compiled index back to its source keyword, skipping blanks.
func (k *Keywords) word(set string, idx int) string {
	n := 0
	for _, w := range k.Sets[set] {
		if strings.TrimSpace(w) == "" {
			continue
		}
		if n == idx {
			return strings.TrimSpace(strings.ToLower(w))
		}
		n++
	}
	return ""
}
