// Package queryvalidator implements the query-validator half of §7's
// InvalidInput handling: best-effort auto-fix of unbalanced parens/quotes
// and a leading boolean operator, with everything else surfaced as a
// warning rather than silently rewritten.
package queryvalidator

import (
	"strings"

	"github.com/Tangerg/biosearch/internal/errs"
	pkgstrings "github.com/Tangerg/biosearch/pkg/strings"
)

// leadingBooleans are the operators that make a query malformed when they
// open it (e.g. "AND cancer treatment"); dropping the first token is
// always a safe fix since everything after it remains a valid query.
var leadingBooleans = []string{"AND", "OR", "NOT", "&&", "||"}

// knownFieldTags lists the `field:` prefixes accepted on a token; any other
// prefix is flagged as a likely-mistyped tag (§7: "bad field tag" emits a warning, not a
// fix — there is no reliable automatic correction for a typo'd tag name).
var knownFieldTags = map[string]struct{}{
	"title": {}, "author": {}, "journal": {}, "doi": {}, "pmid": {}, "year": {},
}

// Result is the outcome of validating a raw query string.
type Result struct {
	// Query is the (possibly auto-fixed) query to use downstream.
	Query string
	// Fixed lists the auto-fixes that were applied, in order.
	Fixed []string
	// Warnings lists problems detected but not auto-fixed.
	Warnings []string
}

// Validate runs the auto-fix pass described in §7: unbalanced parens are
// closed (or their excess closers dropped), unbalanced quotes are closed,
// and a leading boolean operator is dropped. It returns
// *errs.GatewayError(InvalidInput) only when the query is empty after
// trimming — every other case is either fixed in place or downgraded to a
// warning, per the spec's "recovered where a fix is safe" policy.
func Validate(query string) (*Result, error) {
	q := pkgstrings.AlignToLeft(query)
	if strings.TrimSpace(q) == "" {
		return nil, errs.NewInvalidInput("query is empty")
	}

	res := &Result{Query: q}

	if fixed, ok := fixLeadingBoolean(res.Query); ok {
		res.Fixed = append(res.Fixed, "dropped leading boolean operator")
		res.Query = fixed
	}

	if fixed, ok := fixUnbalancedQuotes(res.Query); ok {
		res.Fixed = append(res.Fixed, "closed unbalanced quote")
		res.Query = fixed
	}

	if fixed, ok := fixUnbalancedParens(res.Query); ok {
		res.Fixed = append(res.Fixed, "balanced parentheses")
		res.Query = fixed
	}

	res.Warnings = append(res.Warnings, fieldTagWarnings(res.Query)...)

	return res, nil
}

func fixLeadingBoolean(q string) (string, bool) {
	trimmed := strings.TrimSpace(q)
	for _, op := range leadingBooleans {
		if strings.EqualFold(trimmed, op) {
			continue
		}
		if len(trimmed) > len(op) && strings.EqualFold(trimmed[:len(op)], op) {
			rest := trimmed[len(op):]
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
				return strings.TrimSpace(rest), true
			}
		}
	}
	return q, false
}

// fixUnbalancedQuotes closes a trailing unmatched quote. It treats the
// whole string as one quoted span via pkg/strings.IsQuoted/UnQuote when
// possible, and otherwise counts raw quote characters to decide which
// quote character is unbalanced.
func fixUnbalancedQuotes(q string) (string, bool) {
	if pkgstrings.IsQuoted(q) {
		return q, false
	}
	doubles := strings.Count(q, `"`)
	singles := strings.Count(q, `'`)
	switch {
	case doubles%2 == 1:
		return q + `"`, true
	case singles%2 == 1:
		return q + `'`, true
	default:
		return q, false
	}
}

func fixUnbalancedParens(q string) (string, bool) {
	depth := 0
	for _, r := range q {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	if depth == 0 {
		if closing := strings.Count(q, ")") - strings.Count(q, "("); closing > 0 {
			return dropExcessClosers(q, closing), true
		}
		return q, false
	}
	return q + strings.Repeat(")", depth), true
}

// dropExcessClosers removes the first n ")" characters that have no
// matching "(" before them, wherever they appear (the inverse imbalance:
// too many closers, not too few).
func dropExcessClosers(q string, n int) string {
	var b strings.Builder
	depth := 0
	dropped := 0
	for _, r := range q {
		if r == ')' {
			if depth == 0 && dropped < n {
				dropped++
				continue
			}
			depth--
		} else if r == '(' {
			depth++
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldTagWarnings(q string) []string {
	var warnings []string
	for _, tok := range strings.Fields(q) {
		idx := strings.Index(tok, ":")
		if idx <= 0 || idx == len(tok)-1 {
			continue
		}
		tag := strings.ToLower(tok[:idx])
		if _, known := knownFieldTags[tag]; !known {
			warnings = append(warnings, "unrecognized field tag: "+tok[:idx])
		}
	}
	return warnings
}
