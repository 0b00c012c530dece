package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// tierPattern matches a tier comparison inside a conditional expression and
// captures the required tier.
func tierPattern(macro string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(macro) + `\s*>=\s*(\d+)`)
}

// frameBranch identifies one enclosing conditional frame and the branch the
// occurrence sits in. Branch 0 is the #if side; #else and #elif bump it.
type frameBranch struct {
	frame  int
	branch int
}

// flagOccurrence is one #define of a candidate flag together with its
// conditional context.
type flagOccurrence struct {
	name     string
	value    int
	line     int
	tier     int
	positive bool
	path     []frameBranch
}

// ExtractRegistry parses flag declarations out of the configuration source.
// Only object-like defines with a literal 0 or 1 value count as flags; a
// flag defined inside a tier conditional is recorded with that tier. The
// tier macro itself is the gate, not a flag, and is never collected.
func ExtractRegistry(file *m.SourceFile, tierMacro string) m.FlagRegistry {
	tierRe := tierPattern(tierMacro)

	type regFrame struct {
		id     int
		branch int
		tier   int
	}

	var (
		stack        []regFrame
		occurrences  []flagOccurrence
		orderedNames []string
	)

	byName := make(map[string][]int)
	nextFrame := 0

	for i := 1; i <= file.LineCount(); i++ {
		kind, rest := parseDirective(file.Line(i))

		switch kind {
		case directiveOpen:
			tier := 0
			if match := tierRe.FindStringSubmatch(rest); match != nil {
				tier, _ = strconv.Atoi(match[1])
			}

			stack = append(stack, regFrame{id: nextFrame, tier: tier})
			nextFrame++

		case directiveBranch:
			if len(stack) > 0 {
				stack[len(stack)-1].branch++
			}

		case directiveClose:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case directiveDefine:
			name, value, ok := parseFlagDefine(rest)
			if !ok || name == tierMacro {
				continue
			}

			occ := flagOccurrence{name: name, value: value, line: i, positive: true}

			for _, frame := range stack {
				occ.path = append(occ.path, frameBranch{frame: frame.id, branch: frame.branch})

				if frame.tier > 0 {
					occ.tier = frame.tier
					occ.positive = frame.branch == 0
				}
			}

			if _, seen := byName[name]; !seen {
				orderedNames = append(orderedNames, name)
			}

			byName[name] = append(byName[name], len(occurrences))
			occurrences = append(occurrences, occ)

		case directiveNone:
		}
	}

	registry := m.FlagRegistry{Origin: file.Origin}

	for _, name := range orderedNames {
		flag, duplicate := resolveFlag(name, byName[name], occurrences)
		registry.Flags = append(registry.Flags, flag)

		if duplicate != nil {
			registry.Duplicates = append(registry.Duplicates, *duplicate)
		}
	}

	return registry
}

// resolveFlag reduces the occurrences of one name to a single definition.
// The tier-positive occurrence wins; a tier #if/#else pair is one logical
// definition with the #if side providing default and tier. Occurrences that
// can be active in the same compilation are reported as duplicates.
func resolveFlag(name string, indexes []int, occurrences []flagOccurrence) (m.Flag, *m.DuplicateFlag) {
	primary := indexes[0]

	for _, idx := range indexes {
		if occurrences[idx].positive {
			primary = idx
			break
		}
	}

	occ := occurrences[primary]
	flag := m.Flag{Name: name, Default: occ.value, Line: occ.line}

	if occ.positive {
		flag.Tier = occ.tier
	}

	var lines []int

	for a := 0; a < len(indexes); a++ {
		for b := a + 1; b < len(indexes); b++ {
			if occurrencesConflict(occurrences[indexes[a]], occurrences[indexes[b]]) {
				lines = appendLine(lines, occurrences[indexes[a]].line)
				lines = appendLine(lines, occurrences[indexes[b]].line)
			}
		}
	}

	if len(lines) == 0 {
		return flag, nil
	}

	sort.Ints(lines)

	return flag, &m.DuplicateFlag{Name: name, Lines: lines}
}

// occurrencesConflict reports whether two defines of the same name can both
// be active in one compilation. Defines separated only by different branches
// of a shared conditional are mutually exclusive alternatives, not
// duplicates.
func occurrencesConflict(a, b flagOccurrence) bool {
	n := len(a.path)
	if len(b.path) < n {
		n = len(b.path)
	}

	for i := 0; i < n; i++ {
		if a.path[i].frame != b.path[i].frame {
			return true
		}

		if a.path[i].branch != b.path[i].branch {
			return false
		}
	}

	return true
}

func appendLine(lines []int, line int) []int {
	for _, l := range lines {
		if l == line {
			return lines
		}
	}

	return append(lines, line)
}

// parseFlagDefine extracts a name and a literal 0/1 value from the tail of a
// #define. Function-like macros and non-boolean values are not flags.
func parseFlagDefine(rest string) (string, int, bool) {
	if idx := strings.Index(rest, "//"); idx >= 0 {
		rest = rest[:idx]
	}

	if idx := strings.Index(rest, "/*"); idx >= 0 {
		rest = rest[:idx]
	}

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", 0, false
	}

	name := fields[0]
	if !isIdentifier(name) {
		return "", 0, false
	}

	switch fields[1] {
	case "0":
		return name, 0, true
	case "1":
		return name, 1, true
	default:
		return "", 0, false
	}
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return s != ""
}
