package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pin-drift/guardcheck/internal/adapter"
	m "github.com/pin-drift/guardcheck/internal/model"
)

// conditionalChecker runs the guard consistency suite against one target
// tree. Checks execute sequentially in a fixed order and every outcome is
// reported through the sink, failures included.
type conditionalChecker struct {
	fs      adapter.SourceFSAdapter
	loader  adapter.SourceLoader
	profile Profile
	target  m.Path
	log     *zap.Logger

	files    map[m.Path]*m.SourceFile
	scanners map[m.Path]*GuardScanner
	scanned  []m.Path
	sources  []m.Path
	registry *m.FlagRegistry
}

func newConditionalChecker(fs adapter.SourceFSAdapter, loader adapter.SourceLoader, profile Profile, target m.Path, log *zap.Logger) *conditionalChecker {
	return &conditionalChecker{
		fs:       fs,
		loader:   loader,
		profile:  profile,
		target:   target,
		log:      log,
		files:    make(map[m.Path]*m.SourceFile),
		scanners: make(map[m.Path]*GuardScanner),
	}
}

// PlannedChecks estimates how many results the suite will emit. Usage and
// feature checks produce one result per file with occurrences, so the real
// count can differ slightly.
func (c *conditionalChecker) PlannedChecks() int {
	planned := 1 + len(c.profile.Flags) + 1

	for _, component := range c.profile.Components {
		planned += len(component.Files) + 2
	}

	planned += len(c.profile.Features) + 2

	return planned
}

// Run executes every check of the suite in order.
func (c *conditionalChecker) Run(sink func(m.CheckResult)) {
	c.checkRegistry(sink)
	c.checkSelfGuards(sink)
	c.checkInclusionGuards(sink)
	c.checkFeatureGuards(sink)
	c.checkUsageGuards(sink)
	c.checkDirectiveBalance(sink)
	c.checkExampleTierHints(sink)
}

func (c *conditionalChecker) emit(sink func(m.CheckResult), description string, passed bool, detail string) {
	sink(m.CheckResult{
		Suite:       string(SuiteConditional),
		Description: description,
		Passed:      passed,
		Detail:      detail,
	})
}

// load returns the cached parse of path, loading it on first use.
func (c *conditionalChecker) load(path m.Path) (*m.SourceFile, error) {
	if file, ok := c.files[path]; ok {
		return file, nil
	}

	file, err := c.loader.Load(path)
	if err != nil {
		return nil, err
	}

	c.files[path] = file

	return file, nil
}

// scanner returns the guard scanner for path, scanning on first use.
func (c *conditionalChecker) scanner(path m.Path) (*GuardScanner, error) {
	if s, ok := c.scanners[path]; ok {
		return s, nil
	}

	file, err := c.load(path)
	if err != nil {
		return nil, err
	}

	s := NewGuardScanner(file)
	c.scanners[path] = s
	c.scanned = append(c.scanned, path)

	return s, nil
}

// rel renders path relative to the target for human readable output.
func (c *conditionalChecker) rel(path m.Path) string {
	rel, err := c.fs.RelPath(c.target, path)
	if err != nil {
		return string(path)
	}

	return filepath.ToSlash(string(rel))
}

// checkRegistry extracts the flag registry and verifies the mandatory flags.
// When the configuration source is unreadable the dependent checks still
// report, each as failed.
func (c *conditionalChecker) checkRegistry(sink func(m.CheckResult)) {
	configPath := c.fs.JoinPath(string(c.target), c.profile.ConfigFile)
	readableDesc := fmt.Sprintf("configuration source %s readable", c.profile.ConfigFile)

	file, err := c.load(configPath)
	if err != nil {
		c.emit(sink, readableDesc, false, err.Error())

		for _, req := range c.profile.Flags {
			c.emit(sink, flagDescription(req), false, "flag registry unavailable")
		}

		c.emit(sink, "no conflicting flag definitions", false, "flag registry unavailable")

		return
	}

	c.emit(sink, readableDesc, true, "")

	registry := ExtractRegistry(file, c.profile.TierMacro)
	c.registry = &registry

	c.log.Debug("flag registry extracted",
		zap.String("config", string(configPath)),
		zap.Int("flags", len(registry.Flags)),
		zap.Int("duplicates", len(registry.Duplicates)),
	)

	for _, req := range c.profile.Flags {
		flag, ok := registry.Lookup(req.Name)

		switch {
		case !ok:
			c.emit(sink, flagDescription(req), false, "not defined with a literal 0/1 default")
		case req.Tier > 0 && flag.Tier != req.Tier:
			c.emit(sink, flagDescription(req), false,
				fmt.Sprintf("expected tier %d gating, found tier %d", req.Tier, flag.Tier))
		default:
			c.emit(sink, flagDescription(req), true, "")
		}
	}

	if len(registry.Duplicates) == 0 {
		c.emit(sink, "no conflicting flag definitions", true, "")
		return
	}

	parts := make([]string, 0, len(registry.Duplicates))
	for _, dup := range registry.Duplicates {
		parts = append(parts, fmt.Sprintf("%s defined at lines %s", dup.Name, joinInts(dup.Lines)))
	}

	c.emit(sink, "no conflicting flag definitions", false, strings.Join(parts, "; "))
}

func flagDescription(req FlagRequirement) string {
	if req.Tier > 0 {
		return fmt.Sprintf("%s is defined and gated at tier %d", req.Name, req.Tier)
	}

	return fmt.Sprintf("%s is defined", req.Name)
}

// checkSelfGuards verifies that every component file is wholly wrapped in a
// single top-level guard span of its flag.
func (c *conditionalChecker) checkSelfGuards(sink func(m.CheckResult)) {
	for _, component := range c.profile.Components {
		for _, name := range component.Files {
			path := c.fs.JoinPath(string(c.target), c.profile.SourceDir, name)
			desc := fmt.Sprintf("%s wholly guarded by %s", name, component.Flag)

			scanner, err := c.scanner(path)
			if err != nil {
				c.emit(sink, desc, false, err.Error())
				continue
			}

			passed, detail := selfGuardVerdict(scanner, c.files[path], component.Flag)
			c.emit(sink, desc, passed, detail)
		}
	}
}

// selfGuardVerdict decides whether the file content sits inside exactly one
// top-level span of flag. Leading comments and blank lines do not count as
// content.
func selfGuardVerdict(scanner *GuardScanner, file *m.SourceFile, flag string) (bool, string) {
	first, last, ok := contentRange(file)
	if !ok {
		return false, "file has no content to guard"
	}

	top := TopLevelSpans(scanner.Spans(flag))

	if len(top) == 0 {
		detail := fmt.Sprintf("no guard span for %s", flag)
		if issues := scanner.Issues(); len(issues) > 0 {
			detail += "; " + issueSummary(issues)
		}

		return false, detail
	}

	if len(top) > 1 {
		return false, fmt.Sprintf("%d top-level guard spans for %s, expected exactly one", len(top), flag)
	}

	span := top[0]
	if span.Covers(first, last) {
		return true, ""
	}

	var gaps []string

	if first < span.OpenLine {
		gaps = append(gaps, fmt.Sprintf("lines %d-%d precede the guard", first, span.OpenLine-1))
	}

	if last > span.CloseLine {
		gaps = append(gaps, fmt.Sprintf("lines %d-%d follow the guard", span.CloseLine+1, last))
	}

	return false, strings.Join(gaps, "; ")
}

// checkInclusionGuards verifies that the aggregator includes each component
// header and that every such include sits inside a guard span of the
// component's flag.
func (c *conditionalChecker) checkInclusionGuards(sink func(m.CheckResult)) {
	aggregatorPath := c.fs.JoinPath(string(c.target), c.profile.AggregatorFile)
	aggregatorName := filepath.Base(c.profile.AggregatorFile)

	scanner, scanErr := c.scanner(aggregatorPath)

	for _, component := range c.profile.Components {
		header := componentHeader(component)
		if header == "" {
			continue
		}

		desc := fmt.Sprintf("%s includes %s behind %s", aggregatorName, header, component.Flag)

		if scanErr != nil {
			c.emit(sink, desc, false, scanErr.Error())
			continue
		}

		file := c.files[aggregatorPath]
		includeLines := findIncludeLines(file, header)

		if len(includeLines) == 0 {
			c.emit(sink, desc, false, "header is never included")
			continue
		}

		spans := scanner.Spans(component.Flag)

		var unguarded []int

		for _, line := range includeLines {
			if !lineInsideAny(spans, line) {
				unguarded = append(unguarded, line)
			}
		}

		if len(unguarded) > 0 {
			c.emit(sink, desc, false,
				fmt.Sprintf("include outside any %s span at line %s", component.Flag, joinInts(unguarded)))
			continue
		}

		c.emit(sink, desc, true, "")
	}
}

// componentHeader picks the header file of a component, the one the
// aggregator is expected to include.
func componentHeader(component ComponentSpec) string {
	for _, name := range component.Files {
		ext := filepath.Ext(name)
		if ext == ".h" || ext == ".hpp" {
			return name
		}
	}

	return ""
}

func findIncludeLines(file *m.SourceFile, header string) []int {
	re := regexp.MustCompile(`#\s*include\s*"` + regexp.QuoteMeta(header) + `"`)

	var lines []int

	for i := 1; i <= file.LineCount(); i++ {
		if re.MatchString(file.Line(i)) {
			lines = append(lines, i)
		}
	}

	return lines
}

func lineInsideAny(spans []m.GuardSpan, line int) bool {
	for _, span := range spans {
		if span.Contains(line) {
			return true
		}
	}

	return false
}

// checkFeatureGuards verifies that feature operations appear only inside
// guard spans of the feature's flag. Files without occurrences produce no
// result.
func (c *conditionalChecker) checkFeatureGuards(sink func(m.CheckResult)) {
	sourceFiles, err := c.sourceFiles()
	if err != nil {
		for _, feature := range c.profile.Features {
			c.emit(sink, fmt.Sprintf("%s operations guarded by %s", feature.Name, feature.Flag), false, err.Error())
		}

		return
	}

	for _, feature := range c.profile.Features {
		patterns := make([]*regexp.Regexp, 0, len(feature.Operations))
		for _, op := range feature.Operations {
			patterns = append(patterns, identifierPattern(op))
		}

		emitted := false

		for _, path := range sourceFiles {
			desc := fmt.Sprintf("%s operations guarded by %s in %s", feature.Name, feature.Flag, c.rel(path))

			scanner, err := c.scanner(path)
			if err != nil {
				c.emit(sink, desc, false, err.Error())

				emitted = true

				continue
			}

			file := c.files[path]
			spans := scanner.Spans(feature.Flag)

			var unguarded []int

			found := false

			for i := 1; i <= file.LineCount(); i++ {
				text := file.Line(i)

				if !anyPatternMatches(patterns, text) {
					continue
				}

				found = true

				if allowRuleForLine(text).allows(feature.Flag) {
					continue
				}

				if !lineInsideAny(spans, i) {
					unguarded = append(unguarded, i)
				}
			}

			if !found {
				continue
			}

			emitted = true

			if len(unguarded) > 0 {
				c.emit(sink, desc, false,
					fmt.Sprintf("operation outside any %s span at line %s", feature.Flag, joinInts(unguarded)))
				continue
			}

			c.emit(sink, desc, true, "")
		}

		if !emitted {
			c.emit(sink, fmt.Sprintf("%s operations guarded by %s", feature.Name, feature.Flag),
				true, "no operation references found")
		}
	}
}

func anyPatternMatches(patterns []*regexp.Regexp, text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}

	return false
}

// checkUsageGuards verifies that references to a component outside its own
// files sit inside guard spans of the component's flag. The configuration
// source and the aggregator are exempt: the first defines the flags, the
// second is covered by the inclusion checks.
func (c *conditionalChecker) checkUsageGuards(sink func(m.CheckResult)) {
	sourceFiles, err := c.sourceFiles()
	if err != nil {
		for _, component := range c.profile.Components {
			c.emit(sink, fmt.Sprintf("references to %s guarded by %s", component.Name, component.Flag), false, err.Error())
		}

		return
	}

	for _, component := range c.profile.Components {
		pattern := identifierPattern(component.Name)
		excluded := c.usageExclusions(component)

		for _, path := range sourceFiles {
			if _, skip := excluded[path]; skip {
				continue
			}

			desc := fmt.Sprintf("references to %s guarded in %s", component.Name, c.rel(path))

			scanner, err := c.scanner(path)
			if err != nil {
				c.emit(sink, desc, false, err.Error())
				continue
			}

			file := c.files[path]
			spans := scanner.Spans(component.Flag)

			var unguarded []int

			found := false

			for i := 1; i <= file.LineCount(); i++ {
				text := file.Line(i)

				if !pattern.MatchString(text) {
					continue
				}

				found = true

				if allowRuleForLine(text).allows(component.Flag) {
					continue
				}

				if !lineInsideAny(spans, i) {
					unguarded = append(unguarded, i)
				}
			}

			if !found {
				continue
			}

			if len(unguarded) > 0 {
				c.emit(sink, desc, false,
					fmt.Sprintf("reference outside any %s span at line %s", component.Flag, joinInts(unguarded)))
				continue
			}

			c.emit(sink, desc, true, "")
		}
	}
}

func (c *conditionalChecker) usageExclusions(component ComponentSpec) map[m.Path]struct{} {
	excluded := map[m.Path]struct{}{
		c.fs.JoinPath(string(c.target), c.profile.ConfigFile):     {},
		c.fs.JoinPath(string(c.target), c.profile.AggregatorFile): {},
	}

	for _, name := range component.Files {
		excluded[c.fs.JoinPath(string(c.target), c.profile.SourceDir, name)] = struct{}{}
	}

	return excluded
}

// checkDirectiveBalance reports unmatched conditional directives across
// every file scanned during the run.
func (c *conditionalChecker) checkDirectiveBalance(sink func(m.CheckResult)) {
	var parts []string

	for _, path := range c.scanned {
		issues := c.scanners[path].Issues()
		if len(issues) == 0 {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s: %s", c.rel(path), issueSummary(issues)))
	}

	if len(parts) == 0 {
		c.emit(sink, "conditional directives balanced", true, "")
		return
	}

	c.emit(sink, "conditional directives balanced", false, strings.Join(parts, "; "))
}

// checkExampleTierHints verifies that example sketches using tier-gated
// components mention the tier requirement somewhere in their text.
func (c *conditionalChecker) checkExampleTierHints(sink func(m.CheckResult)) {
	type tieredComponent struct {
		name    string
		pattern *regexp.Regexp
	}

	var tiered []tieredComponent

	for _, component := range c.profile.Components {
		if c.componentTier(component.Flag) >= 2 {
			tiered = append(tiered, tieredComponent{name: component.Name, pattern: identifierPattern(component.Name)})
		}
	}

	if len(tiered) == 0 {
		return
	}

	sketches, err := c.sketchFiles()
	if err != nil {
		return
	}

	for _, sketch := range sketches {
		file, err := c.load(sketch)
		if err != nil {
			c.emit(sink, fmt.Sprintf("example %s notes its tier requirement", c.rel(sketch)), false, err.Error())
			continue
		}

		var used []string

		for _, component := range tiered {
			if filePatternMatches(file, component.pattern) {
				used = append(used, component.name)
			}
		}

		if len(used) == 0 {
			continue
		}

		desc := fmt.Sprintf("example %s notes its tier requirement", c.rel(sketch))

		if fileMentionsAny(file, c.profile.TierWords) {
			c.emit(sink, desc, true, "")
			continue
		}

		c.emit(sink, desc, false,
			fmt.Sprintf("uses %s but never mentions the board tier", strings.Join(used, ", ")))
	}
}

// componentTier resolves the tier gating a component's flag, preferring the
// extracted registry over the profile requirements.
func (c *conditionalChecker) componentTier(flag string) int {
	if c.registry != nil {
		if f, ok := c.registry.Lookup(flag); ok && f.Tier > 0 {
			return f.Tier
		}
	}

	for _, req := range c.profile.Flags {
		if req.Name == flag {
			return req.Tier
		}
	}

	return 0
}

func filePatternMatches(file *m.SourceFile, pattern *regexp.Regexp) bool {
	for i := 1; i <= file.LineCount(); i++ {
		if pattern.MatchString(file.Line(i)) {
			return true
		}
	}

	return false
}

func fileMentionsAny(file *m.SourceFile, words []string) bool {
	for i := 1; i <= file.LineCount(); i++ {
		text := file.Line(i)

		for _, word := range words {
			if strings.Contains(text, word) {
				return true
			}
		}
	}

	return false
}

// sourceFiles walks the source directory once, collecting files whose
// extension is listed in the profile, in lexical order.
func (c *conditionalChecker) sourceFiles() ([]m.Path, error) {
	if c.sources != nil {
		return c.sources, nil
	}

	root := c.fs.JoinPath(string(c.target), c.profile.SourceDir)

	exts := make(map[string]struct{}, len(c.profile.SourceExts))
	for _, ext := range c.profile.SourceExts {
		exts[ext] = struct{}{}
	}

	var files []m.Path

	err := c.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && m.Path(path) != root {
				return filepath.SkipDir
			}

			return nil
		}

		if _, ok := exts[filepath.Ext(path)]; ok {
			files = append(files, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.profile.SourceDir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	c.sources = files
	c.log.Debug("source files collected", zap.Int("count", len(files)))

	return files, nil
}

// sketchFiles collects example sketches under the examples directory.
func (c *conditionalChecker) sketchFiles() ([]m.Path, error) {
	root := c.fs.JoinPath(string(c.target), c.profile.ExamplesDir)

	if _, err := c.fs.FileInfo(root); err != nil {
		return nil, err
	}

	var sketches []m.Path

	err := c.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == c.profile.SketchExt {
			sketches = append(sketches, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sketches, func(i, j int) bool { return sketches[i] < sketches[j] })

	return sketches, nil
}

func issueSummary(issues []StructuralIssue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, fmt.Sprintf("line %d: %s", issue.Line, issue.Detail))
	}

	return strings.Join(parts, "; ")
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}

	return strings.Join(parts, ", ")
}
