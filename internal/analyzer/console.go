package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
)

// ConsoleError is one runtime error message classified by kind.
type ConsoleError struct {
	Kind    string
	Message string
}

var consoleErrorPattern = regexp.MustCompile(`^(?:Uncaught\s+)?(?:\(in promise\)\s+)?([A-Za-z]*Error)\b:?\s*(.*)$`)

// ParseConsoleErrors classifies raw console messages. Messages that do not
// name an error type are kept with kind "Error".
func ParseConsoleErrors(messages []string) []ConsoleError {
	var parsed []ConsoleError
	seen := make(map[string]bool)
	for _, msg := range messages {
		msg = strings.TrimSpace(msg)
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true

		kind := "Error"
		if m := consoleErrorPattern.FindStringSubmatch(msg); len(m) == 3 {
			kind = m[1]
		} else if strings.Contains(strings.ToLower(msg), "failed to load resource") {
			kind = "ResourceError"
		}
		parsed = append(parsed, ConsoleError{Kind: kind, Message: msg})
	}
	return parsed
}

// consoleSeverity ranks a batch of errors by their worst member.
func consoleSeverity(errors []ConsoleError) report.Severity {
	severity := report.SeverityLow
	for _, e := range errors {
		switch e.Kind {
		case "TypeError", "ReferenceError", "SyntaxError", "RangeError":
			return report.SeverityHigh
		case "ResourceError":
		default:
			severity = report.SeverityMedium
		}
	}
	return severity
}

func consoleFix(errors []ConsoleError) string {
	for _, e := range errors {
		if e.Kind == "ResourceError" {
			return "Fix the failing resource URLs and review the remaining errors in the browser console"
		}
	}
	return "Reproduce the page load with developer tools open and fix the reported exceptions"
}

func checkConsoleErrors(f *findings, messages []string) {
	errors := ParseConsoleErrors(messages)
	if len(errors) == 0 {
		f.good("No JavaScript errors during load")
		return
	}

	samples := make([]string, 0, 3)
	for i := 0; i < len(errors) && i < 3; i++ {
		samples = append(samples, truncateString(errors[i].Message, 100))
	}
	f.issue("console-errors", consoleSeverity(errors), "JavaScript Errors",
		fmt.Sprintf("%s logged during page load: %s", plural(len(errors), "error"), strings.Join(samples, "; ")),
		consoleFix(errors))
}
