package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// directiveKind classifies the preprocessor lines the scanner cares about.
type directiveKind int

const (
	directiveNone directiveKind = iota
	directiveOpen
	directiveBranch
	directiveClose
	directiveDefine
)

var directiveRe = regexp.MustCompile(`^\s*#\s*(ifdef|ifndef|if|elif|else|endif|define)\b(.*)$`)

// parseDirective classifies a single source line. For opening directives the
// returned text is the condition; for defines it is everything after the
// keyword.
func parseDirective(line string) (directiveKind, string) {
	match := directiveRe.FindStringSubmatch(line)
	if match == nil {
		return directiveNone, ""
	}

	rest := strings.TrimSpace(match[2])

	switch match[1] {
	case "if", "ifdef", "ifndef":
		return directiveOpen, rest
	case "elif", "else":
		return directiveBranch, rest
	case "endif":
		return directiveClose, rest
	default:
		return directiveDefine, rest
	}
}

// identifierPattern matches whole-identifier occurrences of name, so that
// substrings of longer identifiers never count.
func identifierPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// StructuralIssue describes a malformed conditional construct found while
// scanning a file.
type StructuralIssue struct {
	Line   int
	Detail string
}

// conditionSpan is a raw balanced conditional region before flag filtering.
type conditionSpan struct {
	condition string
	openLine  int
	closeLine int
	depth     int
}

// GuardScanner detects guard spans in one file by tracking conditional
// nesting line by line. A span runs from its opening directive to the line
// holding the matching #endif; #else and #elif neither open nor close one.
type GuardScanner struct {
	file   *m.SourceFile
	spans  []conditionSpan
	issues []StructuralIssue
}

// NewGuardScanner scans file once and keeps the detected regions for
// repeated per-flag queries.
func NewGuardScanner(file *m.SourceFile) *GuardScanner {
	s := &GuardScanner{file: file}
	s.scan()

	return s
}

type openFrame struct {
	line      int
	condition string
	depth     int
}

func (s *GuardScanner) scan() {
	var stack []openFrame

	for i := 1; i <= s.file.LineCount(); i++ {
		kind, rest := parseDirective(s.file.Line(i))

		switch kind {
		case directiveOpen:
			stack = append(stack, openFrame{line: i, condition: rest, depth: len(stack)})

		case directiveClose:
			if len(stack) == 0 {
				s.issues = append(s.issues, StructuralIssue{Line: i, Detail: "#endif without a matching #if"})
				continue
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			s.spans = append(s.spans, conditionSpan{
				condition: top.condition,
				openLine:  top.line,
				closeLine: i,
				depth:     top.depth,
			})

		case directiveBranch, directiveDefine, directiveNone:
		}
	}

	for _, frame := range stack {
		s.issues = append(s.issues, StructuralIssue{
			Line:   frame.line,
			Detail: fmt.Sprintf("conditional opened at line %d is never closed", frame.line),
		})
	}

	sort.Slice(s.spans, func(a, b int) bool {
		if s.spans[a].openLine != s.spans[b].openLine {
			return s.spans[a].openLine < s.spans[b].openLine
		}

		return s.spans[a].closeLine > s.spans[b].closeLine
	})

	sort.Slice(s.issues, func(a, b int) bool {
		return s.issues[a].Line < s.issues[b].Line
	})
}

// Spans returns the guard spans whose opening condition references flag as a
// whole identifier, ordered by opening line.
func (s *GuardScanner) Spans(flag string) []m.GuardSpan {
	pattern := identifierPattern(flag)

	var spans []m.GuardSpan

	for _, span := range s.spans {
		if !pattern.MatchString(span.condition) {
			continue
		}

		spans = append(spans, m.GuardSpan{
			Flag:      flag,
			OpenLine:  span.openLine,
			CloseLine: span.closeLine,
			Depth:     span.depth,
		})
	}

	return spans
}

// Issues returns the directive balance problems found in the file, ordered
// by line.
func (s *GuardScanner) Issues() []StructuralIssue {
	return s.issues
}

// TopLevelSpans filters spans down to those not strictly nested inside
// another span of the same slice.
func TopLevelSpans(spans []m.GuardSpan) []m.GuardSpan {
	var top []m.GuardSpan

	for i, span := range spans {
		nested := false

		for j, outer := range spans {
			if i == j {
				continue
			}

			if outer.OpenLine < span.OpenLine && span.CloseLine < outer.CloseLine {
				nested = true
				break
			}
		}

		if !nested {
			top = append(top, span)
		}
	}

	return top
}

// stripComments removes line and block comment text from line. Block comment
// state carries across lines through inBlock.
func stripComments(line string, inBlock *bool) string {
	var b strings.Builder

	i := 0
	for i < len(line) {
		if *inBlock {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return b.String()
			}

			*inBlock = false
			i += end + 2

			continue
		}

		if strings.HasPrefix(line[i:], "//") {
			return b.String()
		}

		if strings.HasPrefix(line[i:], "/*") {
			*inBlock = true
			i += 2

			continue
		}

		b.WriteByte(line[i])
		i++
	}

	return b.String()
}

// contentRange returns the first and last lines of file holding anything
// other than blank space or comments. ok is false when the file has no such
// content.
func contentRange(file *m.SourceFile) (first, last int, ok bool) {
	inBlock := false

	for i := 1; i <= file.LineCount(); i++ {
		text := stripComments(file.Line(i), &inBlock)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if first == 0 {
			first = i
		}

		last = i
	}

	return first, last, first != 0
}
