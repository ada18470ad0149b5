package target

import (
	"strings"
	"testing"

	"github.com/siteauditor/site-auditor/internal/errs"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare host", "example.com", "https://example.com"},
		{"surrounding whitespace", "  example.com/path  ", "https://example.com/path"},
		{"https kept", "https://example.com", "https://example.com"},
		{"http kept", "http://example.com", "http://example.com"},
		{"trailing slash untouched", "example.com/", "https://example.com/"},
		{"uppercase scheme is not a scheme", "HTTP://example.com", "https://HTTP://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := Normalize(raw)
		if !errs.Is(err, errs.InvalidInput) {
			t.Errorf("Normalize(%q) error = %v, want InvalidInput", raw, err)
		}
	}
}

func TestNormalize_SchemeAndIdempotence(t *testing.T) {
	inputs := []string{
		"example.com", " http://a.b ", "https://x.y/z?q=1", "ftp://files.example.com",
		"localhost:8080", "//cdn.example.com", "HTTPS://EXAMPLE.COM", "a",
	}

	for _, raw := range inputs {
		once, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", raw, err)
		}
		if !strings.HasPrefix(once, "http://") && !strings.HasPrefix(once, "https://") {
			t.Errorf("Normalize(%q) = %q has no http(s) scheme", raw, once)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if twice != once {
			t.Errorf("Normalize is not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}
