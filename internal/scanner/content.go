package scanner

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const maxLineLength = 1024 * 1024

// Document is one named body of text to search, such as an inline script.
type Document struct {
	Source string
	Body   string
}

type Match struct {
	Source  string `json:"source"`
	Line    int    `json:"line"`
	Content string `json:"content"`
	Pattern string `json:"pattern"`
}

// ContentScanner searches in-memory documents line by line. Compiled
// patterns are cached so one scanner can be shared across pages.
type ContentScanner struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
	allowed  []string
}

// NewContentScanner returns a scanner that drops matches containing any of
// the allowed substrings.
func NewContentScanner(allowed []string) *ContentScanner {
	return &ContentScanner{
		patterns: make(map[string]*regexp.Regexp),
		allowed:  allowed,
	}
}

func (cs *ContentScanner) compile(pattern string) (*regexp.Regexp, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if re, ok := cs.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	cs.patterns[pattern] = re
	return re, nil
}

func (cs *ContentScanner) Search(pattern string, docs []Document) ([]Match, error) {
	regex, err := cs.compile(pattern)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, doc := range docs {
		if !IsText(doc.Body) {
			continue
		}
		docMatches, err := cs.searchDocument(doc, regex)
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", doc.Source, err)
		}
		matches = append(matches, docMatches...)
	}
	return matches, nil
}

// SearchAll runs every pattern and returns at most one match per source and
// line.
func (cs *ContentScanner) SearchAll(patterns []string, docs []Document) ([]Match, error) {
	seen := make(map[string]bool)
	var all []Match
	for _, pattern := range patterns {
		matches, err := cs.Search(pattern, docs)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			key := fmt.Sprintf("%s:%d", m.Source, m.Line)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, m)
		}
	}
	return all, nil
}

func (cs *ContentScanner) searchDocument(doc Document, regex *regexp.Regexp) ([]Match, error) {
	var matches []Match
	scanner := bufio.NewScanner(strings.NewReader(doc.Body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	lineNum := 1

	for scanner.Scan() {
		line := scanner.Text()
		if loc := regex.FindStringIndex(line); loc != nil && !cs.isAllowed(line[loc[0]:loc[1]]) {
			matches = append(matches, Match{
				Source:  doc.Source,
				Line:    lineNum,
				Content: Redact(line[loc[0]:loc[1]]),
				Pattern: regex.String(),
			})
		}
		lineNum++
	}

	return matches, scanner.Err()
}

func (cs *ContentScanner) isAllowed(match string) bool {
	for _, allowed := range cs.allowed {
		if allowed != "" && strings.Contains(match, allowed) {
			return true
		}
	}
	return false
}

// IsText reports whether body looks like text rather than binary data.
func IsText(body string) bool {
	n := len(body)
	if n > 512 {
		n = 512
	}
	return !strings.ContainsRune(body[:n], 0)
}

// Redact keeps the first and last four characters of a secret-shaped value.
func Redact(value string) string {
	if len(value) <= 12 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
