package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pin-drift/guardcheck/internal/adapter"
	m "github.com/pin-drift/guardcheck/internal/model"
)

// structureChecker runs the library layout and metadata suite.
type structureChecker struct {
	fs      adapter.SourceFSAdapter
	loader  adapter.SourceLoader
	profile Profile
	target  m.Path
	log     *zap.Logger
}

func newStructureChecker(fs adapter.SourceFSAdapter, loader adapter.SourceLoader, profile Profile, target m.Path, log *zap.Logger) *structureChecker {
	return &structureChecker{fs: fs, loader: loader, profile: profile, target: target, log: log}
}

// PlannedChecks estimates how many results the suite will emit.
func (c *structureChecker) PlannedChecks() int {
	planned := len(c.profile.RequiredFiles) + len(c.profile.RequiredDirs)
	planned += 2 // root layout, source dir population
	planned += len(c.profile.PropertyKeys) + 1
	planned += 3 // keyword checks
	planned += 2 // examples present, sketch placement

	if c.profile.StackDir != "" {
		planned++
	}

	return planned
}

// Run executes every check of the suite in order.
func (c *structureChecker) Run(sink func(m.CheckResult)) {
	c.checkRequiredFiles(sink)
	c.checkRequiredDirs(sink)
	c.checkRootLayout(sink)
	c.checkSourcePopulation(sink)
	c.checkProperties(sink)
	c.checkKeywords(sink)
	c.checkExamplesLayout(sink)
	c.checkVendoredStack(sink)
}

func (c *structureChecker) emit(sink func(m.CheckResult), description string, passed bool, detail string) {
	sink(m.CheckResult{
		Suite:       string(SuiteStructure),
		Description: description,
		Passed:      passed,
		Detail:      detail,
	})
}

func (c *structureChecker) checkRequiredFiles(sink func(m.CheckResult)) {
	for _, name := range c.profile.RequiredFiles {
		info, err := c.fs.FileInfo(c.fs.JoinPath(string(c.target), name))
		desc := fmt.Sprintf("%s present", name)

		switch {
		case err != nil:
			c.emit(sink, desc, false, "file not found")
		case info.IsDir():
			c.emit(sink, desc, false, "expected a file, found a directory")
		default:
			c.emit(sink, desc, true, "")
		}
	}
}

func (c *structureChecker) checkRequiredDirs(sink func(m.CheckResult)) {
	for _, name := range c.profile.RequiredDirs {
		info, err := c.fs.FileInfo(c.fs.JoinPath(string(c.target), name))
		desc := fmt.Sprintf("%s/ present", name)

		switch {
		case err != nil:
			c.emit(sink, desc, false, "directory not found")
		case !info.IsDir():
			c.emit(sink, desc, false, "expected a directory, found a file")
		default:
			c.emit(sink, desc, true, "")
		}
	}
}

// checkRootLayout flags source files sitting in the library root instead of
// the source directory. Sketch files are fine there.
func (c *structureChecker) checkRootLayout(sink func(m.CheckResult)) {
	desc := "library root free of stray sources"

	entries, err := c.fs.ListDir(c.target)
	if err != nil {
		c.emit(sink, desc, false, err.Error())
		return
	}

	exts := make(map[string]struct{}, len(c.profile.SourceExts))
	for _, ext := range c.profile.SourceExts {
		exts[ext] = struct{}{}
	}

	var strays []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if _, ok := exts[filepath.Ext(entry.Name())]; ok {
			strays = append(strays, entry.Name())
		}
	}

	if len(strays) > 0 {
		sort.Strings(strays)
		c.emit(sink, desc, false, fmt.Sprintf("move %s into %s/", strings.Join(strays, ", "), c.profile.SourceDir))

		return
	}

	c.emit(sink, desc, true, "")
}

func (c *structureChecker) checkSourcePopulation(sink func(m.CheckResult)) {
	desc := fmt.Sprintf("%s/ contains sources", c.profile.SourceDir)

	count, err := c.countFiles(c.fs.JoinPath(string(c.target), c.profile.SourceDir), c.profile.SourceExts)
	if err != nil {
		c.emit(sink, desc, false, err.Error())
		return
	}

	if count == 0 {
		c.emit(sink, desc, false, "no source files found")
		return
	}

	c.emit(sink, desc, true, "")
}

// checkProperties validates the metadata file: every required key must be
// present and non-empty, and the version must be MAJOR.MINOR.PATCH. When
// the file cannot be read only the parseable check reports, as failed.
func (c *structureChecker) checkProperties(sink func(m.CheckResult)) {
	name := c.profile.PropertiesFile

	file, err := c.loader.Load(c.fs.JoinPath(string(c.target), name))
	if err != nil {
		c.emit(sink, fmt.Sprintf("%s parseable", name), false, err.Error())
		return
	}

	props := parseProperties(file)

	for _, key := range c.profile.PropertyKeys {
		desc := fmt.Sprintf("%s defines %s", name, key)

		if strings.TrimSpace(props[key]) == "" {
			c.emit(sink, desc, false, "missing or empty")
			continue
		}

		c.emit(sink, desc, true, "")
	}

	version := strings.TrimSpace(props["version"])
	desc := "version follows MAJOR.MINOR.PATCH"

	if validVersion(version) {
		c.emit(sink, desc, true, "")
		return
	}

	c.emit(sink, desc, false, fmt.Sprintf("found %q", version))
}

// parseProperties reads key=value lines, skipping blanks and # comments.
func parseProperties(file *m.SourceFile) map[string]string {
	props := make(map[string]string)

	for i := 1; i <= file.LineCount(); i++ {
		line := strings.TrimSpace(file.Line(i))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		if _, exists := props[key]; exists {
			continue
		}

		props[key] = strings.TrimSpace(line[idx+1:])
	}

	return props
}

func validVersion(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}

		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}

	return true
}

// checkKeywords validates the keyword index: entries must be TAB delimited
// and use one of the recognized keyword types.
func (c *structureChecker) checkKeywords(sink func(m.CheckResult)) {
	name := c.profile.KeywordsFile

	file, err := c.loader.Load(c.fs.JoinPath(string(c.target), name))
	if err != nil {
		c.emit(sink, fmt.Sprintf("%s parseable", name), false, err.Error())
		return
	}

	valid := make(map[string]struct{}, len(c.profile.KeywordTypes))
	for _, t := range c.profile.KeywordTypes {
		valid[t] = struct{}{}
	}

	entries := 0

	var noTab, badType []int

	for i := 1; i <= file.LineCount(); i++ {
		raw := file.Line(i)

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entries++

		if !strings.Contains(raw, "\t") {
			noTab = append(noTab, i)
			continue
		}

		fields := strings.Split(raw, "\t")

		keywordType := ""
		if len(fields) >= 2 {
			keywordType = strings.TrimSpace(fields[1])
		}

		if _, ok := valid[keywordType]; !ok {
			badType = append(badType, i)
		}
	}

	if entries == 0 {
		c.emit(sink, fmt.Sprintf("%s lists keywords", name), false, "no entries found")
	} else {
		c.emit(sink, fmt.Sprintf("%s lists keywords", name), true, "")
	}

	if len(noTab) > 0 {
		c.emit(sink, "keyword entries tab delimited", false,
			fmt.Sprintf("line %s uses spaces instead of a TAB", joinInts(noTab)))
	} else {
		c.emit(sink, "keyword entries tab delimited", true, "")
	}

	if len(badType) > 0 {
		c.emit(sink, "keyword types recognized", false,
			fmt.Sprintf("line %s: expected one of %s", joinInts(badType), strings.Join(c.profile.KeywordTypes, ", ")))
	} else {
		c.emit(sink, "keyword types recognized", true, "")
	}
}

// checkExamplesLayout verifies that the examples directory holds at least
// one sketch and that every sketch lives in a directory named after it.
func (c *structureChecker) checkExamplesLayout(sink func(m.CheckResult)) {
	presentDesc := fmt.Sprintf("%s/ contains sketches", c.profile.ExamplesDir)
	root := c.fs.JoinPath(string(c.target), c.profile.ExamplesDir)

	var sketches []string

	err := c.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Ext(path) == c.profile.SketchExt {
			sketches = append(sketches, path)
		}

		return nil
	})
	if err != nil {
		c.emit(sink, presentDesc, false, err.Error())
		return
	}

	if len(sketches) == 0 {
		c.emit(sink, presentDesc, false, fmt.Sprintf("no %s files found", c.profile.SketchExt))
		return
	}

	c.emit(sink, presentDesc, true, "")

	sort.Strings(sketches)

	var misplaced []string

	for _, sketch := range sketches {
		base := filepath.Base(sketch)
		stem := strings.TrimSuffix(base, c.profile.SketchExt)
		parent := filepath.Base(filepath.Dir(sketch))

		if parent != stem {
			misplaced = append(misplaced, fmt.Sprintf("%s sits in %s/", base, parent))
		}
	}

	desc := "sketches housed in matching directories"

	if len(misplaced) > 0 {
		c.emit(sink, desc, false, strings.Join(misplaced, "; "))
		return
	}

	c.emit(sink, desc, true, "")
}

// checkVendoredStack verifies the vendored protocol stack is populated. The
// check is skipped when the profile clears stack_dir.
func (c *structureChecker) checkVendoredStack(sink func(m.CheckResult)) {
	if c.profile.StackDir == "" {
		return
	}

	desc := fmt.Sprintf("%s/ vendored stack populated", c.profile.StackDir)

	count, err := c.countFiles(c.fs.JoinPath(string(c.target), c.profile.StackDir), []string{".c", ".h"})
	if err != nil {
		c.emit(sink, desc, false, err.Error())
		return
	}

	if count < c.profile.StackMinFiles {
		c.emit(sink, desc, false,
			fmt.Sprintf("found %d source files, expected at least %d", count, c.profile.StackMinFiles))
		return
	}

	c.emit(sink, desc, true, "")
}

func (c *structureChecker) countFiles(root m.Path, extensions []string) (int, error) {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[ext] = struct{}{}
	}

	count := 0

	err := c.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if _, ok := exts[filepath.Ext(path)]; ok {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
