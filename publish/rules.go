package publish

import (
	"path"
	"strings"
)

// Rule assigns a Cache-Control value to paths matching Pattern. A pattern
// containing "/" is matched against the whole relative path, otherwise
// against the base name, using path.Match syntax ("*.html", "assets/*").
type Rule struct {
	Pattern      string
	CacheControl string
}

// Rules resolves the cache-control for a path. Among matching rules the most
// specific wins; equally specific rules keep declaration order.
type Rules struct {
	Default string
	Rules   []Rule
}

// Resolve returns the cache-control for the slash-separated relative path rel.
func (r Rules) Resolve(rel string) string {
	best := -1
	value := r.Default
	for _, rule := range r.Rules {
		if !rule.matches(rel) {
			continue
		}
		if s := specificity(rule.Pattern); s > best {
			best = s
			value = rule.CacheControl
		}
	}
	return value
}

func (r Rule) matches(rel string) bool {
	subject := rel
	if !strings.Contains(r.Pattern, "/") {
		subject = path.Base(rel)
	}
	ok, err := path.Match(r.Pattern, subject)
	return err == nil && ok
}

// specificity counts the literal characters of a pattern. Full-path patterns
// rank above base-name ones of the same length.
func specificity(pattern string) int {
	n := 0
	inClass := false
	for _, c := range pattern {
		switch {
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case inClass, c == '*', c == '?', c == '\\':
		default:
			n++
		}
	}
	n *= 2
	if strings.Contains(pattern, "/") {
		n++
	}
	return n
}
