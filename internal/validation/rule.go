// =============================================================================
// Inventory Count Automation - Barcode Validation Rules
// =============================================================================
//
// This module compiles a layout's barcode rule into a case-insensitive matcher
// and uses it to filter raw scanner lines.
//
// RULE FORMS:
//   prefix + suffix : ^PREFIX\S+SUFFIX$
//   prefix only     : ^PREFIX\S+$
//   suffix only     : ^\S+SUFFIX$
//   custom pattern  : ^(?:PATTERN)       (takes precedence over prefix/suffix)
//   nothing set     : ^.+$               (any non-empty line)
//
// Prefix and suffix are literals; they are quoted before compilation.
// Compilation happens once, when the layout is built. An invalid custom
// pattern is a configuration error, never a parse-time failure.
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
)

// =============================================================================
// RULE
// =============================================================================

// Rule is the uncompiled barcode rule of a layout.
type Rule struct {
	// Prefix is a literal every barcode must start with (e.g. "MCS000").
	Prefix string

	// Suffix is a literal every barcode must end with (e.g. "BR").
	Suffix string

	// Pattern is an optional regular expression. When set it replaces the
	// prefix/suffix rule and is matched from the start of the line.
	Pattern string
}

// IsEmpty reports whether the rule accepts any non-empty line.
func (r Rule) IsEmpty() bool {
	return r.Prefix == "" && r.Suffix == "" && r.Pattern == ""
}

// Expression returns the regular expression the rule compiles to.
func (r Rule) Expression() string {
	if r.Pattern != "" {
		return "(?i)^(?:" + r.Pattern + ")"
	}

	if r.Prefix == "" && r.Suffix == "" {
		return `^.+$`
	}

	prefix := regexp.QuoteMeta(r.Prefix)
	suffix := regexp.QuoteMeta(r.Suffix)

	switch {
	case prefix != "" && suffix != "":
		return `(?i)^` + prefix + `\S+` + suffix + `$`
	case prefix != "":
		return `(?i)^` + prefix + `\S+$`
	default:
		return `(?i)^\S+` + suffix + `$`
	}
}

// =============================================================================
// MATCHER
// =============================================================================

// Matcher is a compiled Rule. It is safe for concurrent use.
type Matcher struct {
	rule Rule
	re   *regexp.Regexp
}

// Compile builds a Matcher from a Rule.
//
// RETURNS:
//   - A Matcher ready for use.
//   - A *types.ConfigError if the custom pattern is not a valid expression.
func Compile(rule Rule) (*Matcher, error) {
	// The pattern must parse on its own: a stray ")" would otherwise close
	// the anchoring group and still compile.
	if rule.Pattern != "" {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return nil, invalidPattern(err)
		}
	}

	re, err := regexp.Compile(rule.Expression())
	if err != nil {
		return nil, invalidPattern(err)
	}
	return &Matcher{rule: rule, re: re}, nil
}

func invalidPattern(err error) error {
	return &types.ConfigError{
		Field:   "barcode_pattern",
		Message: "not a valid regular expression",
		Err:     err,
	}
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level defaults.
func MustCompile(rule Rule) *Matcher {
	m, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return m
}

// Rule returns the rule the matcher was built from.
func (m *Matcher) Rule() Rule {
	return m.rule
}

// String returns the compiled expression.
func (m *Matcher) String() string {
	return m.re.String()
}

// Match reports whether line is a valid barcode. The line is matched as
// given; callers normally go through Parse, which trims it first.
func (m *Matcher) Match(line string) bool {
	if line == "" {
		return false
	}
	return m.re.MatchString(line)
}

// Explain returns why value was rejected, or "" when it matches.
// value is expected trimmed, as Parse sees it.
func (m *Matcher) Explain(value string) string {
	if value == "" {
		return "empty line"
	}
	if m.Match(value) {
		return ""
	}

	r := m.rule
	if r.Pattern != "" {
		return fmt.Sprintf("does not match pattern %q", r.Pattern)
	}

	upper := strings.ToUpper(value)
	switch {
	case strings.IndexFunc(value, unicode.IsSpace) >= 0:
		return "contains whitespace"
	case r.Prefix != "" && !strings.HasPrefix(upper, strings.ToUpper(r.Prefix)):
		return fmt.Sprintf("missing prefix %q", r.Prefix)
	case r.Suffix != "" && !strings.HasSuffix(upper, strings.ToUpper(r.Suffix)):
		return fmt.Sprintf("missing suffix %q", r.Suffix)
	case r.Suffix == "":
		return "no characters after the prefix"
	case r.Prefix == "":
		return "no characters before the suffix"
	default:
		return "no characters between prefix and suffix"
	}
}

// =============================================================================
// PARSING
// =============================================================================

// Parse normalizes a raw scanner line into a barcode.
//
// The line is trimmed; empty lines and lines rejected by the matcher yield
// ok == false. Accepted barcodes are returned uppercased.
func Parse(line string, m *Matcher) (barcode string, ok bool) {
	raw := strings.TrimSpace(line)
	if raw == "" || !m.Match(raw) {
		return "", false
	}
	return strings.ToUpper(raw), true
}
