package domain

import "strings"

// allowDirectivePrefix marks a comment that exempts its line from usage and
// feature guard checks. A bare directive allows every flag; a comma list
// allows only the named flags. Flag names are matched case sensitively.
const allowDirectivePrefix = "guardcheck:allow"

type allowRule struct {
	all   bool
	names map[string]struct{}
}

func (r allowRule) allows(flag string) bool {
	if r.all {
		return true
	}

	_, ok := r.names[flag]

	return ok
}

// parseAllowDirective reads a directive out of a comment's text.
func parseAllowDirective(comment string) (allowRule, bool) {
	s := strings.TrimSpace(comment)

	switch {
	case strings.HasPrefix(s, "//"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "//"))
	case strings.HasPrefix(s, "/*"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "/*"))
		s = strings.TrimSpace(strings.TrimSuffix(s, "*/"))
	}

	if !strings.HasPrefix(s, allowDirectivePrefix) {
		return allowRule{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(s, allowDirectivePrefix))
	if rest == "" {
		return allowRule{all: true}, true
	}

	rule := allowRule{names: make(map[string]struct{})}

	for _, part := range strings.Split(rest, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		rule.names[name] = struct{}{}
	}

	if len(rule.names) == 0 {
		return allowRule{all: true}, true
	}

	return rule, true
}

// allowRuleForLine extracts the trailing comment of a source line and parses
// any directive it carries.
func allowRuleForLine(line string) allowRule {
	if idx := strings.Index(line, "//"); idx >= 0 {
		if rule, ok := parseAllowDirective(line[idx:]); ok {
			return rule
		}
	}

	if idx := strings.Index(line, "/*"); idx >= 0 {
		if rule, ok := parseAllowDirective(line[idx:]); ok {
			return rule
		}
	}

	return allowRule{}
}
