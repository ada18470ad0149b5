// Package target turns user input into the absolute URL an audit runs against.
package target

import (
	"strings"

	"github.com/siteauditor/site-auditor/internal/errs"
)

// Normalize trims raw and prepends https:// unless it already carries an
// http:// or https:// scheme. No other rewriting is applied.
func Normalize(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", errs.New(errs.InvalidInput, "A URL is required to run an audit.", nil)
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u, nil
	}
	return "https://" + u, nil
}
