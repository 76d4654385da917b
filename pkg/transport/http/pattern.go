package http

import (
	"regexp"
	"strings"

	"github.com/routebind/routebind/pkg/endpoint"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// TranslatePattern rewrites a brace-style path template into chi's
// native pattern syntax, tightening each placeholder with its declared
// schema: enumerations become an anchored alternation of their literal
// members, integers a digits-only constraint, and everything else an
// unconstrained capture (which is what a bare {name} already is in
// chi). Templates without placeholders pass through unchanged. The
// function is pure and deterministic.
func TranslatePattern(template string, params map[string]endpoint.ParamSchema) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		schema, ok := params[name]
		if !ok {
			return m
		}
		switch schema.Type {
		case endpoint.ParamEnum:
			members := make([]string, len(schema.Enum))
			for i, v := range schema.Enum {
				members[i] = regexp.QuoteMeta(v)
			}
			return "{" + name + ":(" + strings.Join(members, "|") + ")}"
		case endpoint.ParamInteger:
			return "{" + name + ":[0-9]+}"
		default:
			return m
		}
	})
}
