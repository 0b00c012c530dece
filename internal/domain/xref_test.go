package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pin-drift/guardcheck/internal/adapter"
	m "github.com/pin-drift/guardcheck/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(path, 0o750))
}

// fixtureProfile describes a small two-component library used across the
// checker tests.
func fixtureProfile() Profile {
	return Profile{
		ConfigFile:     "src/Config.h",
		AggregatorFile: "src/Library.h",
		SourceDir:      "src",
		SourceExts:     []string{".h", ".cpp"},
		SketchExt:      ".ino",
		TierMacro:      "BOARD_TIER",
		Flags: []FlagRequirement{
			{Name: "LIB_WIDGET"},
			{Name: "LIB_GAUGE", Tier: 2},
		},
		Components: []ComponentSpec{
			{Name: "Widget", Flag: "LIB_WIDGET", Files: []string{"Widget.h"}},
			{Name: "Gauge", Flag: "LIB_GAUGE", Files: []string{"Gauge.h"}},
		},
		Features: []FeatureSpec{
			{Name: "Alerts", Flag: "LIB_FEATURE_ALERTS", Operations: []string{"enableAlerts"}},
		},
		RequiredFiles:  []string{"library.properties", "keywords.txt"},
		RequiredDirs:   []string{"src", "examples"},
		PropertiesFile: "library.properties",
		PropertyKeys:   []string{"name", "version"},
		KeywordsFile:   "keywords.txt",
		KeywordTypes:   []string{"KEYWORD1", "KEYWORD2"},
		ExamplesDir:    "examples",
		TierWords:      []string{"Tier 2", "Mega"},
	}
}

// writeFixtureLibrary builds a conforming library tree for fixtureProfile.
// Tests overwrite individual files to plant violations.
func writeFixtureLibrary(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	srcDir := filepath.Join(root, "src")
	exampleDir := filepath.Join(root, "examples", "Demo")

	mustMkdir(t, srcDir)
	mustMkdir(t, exampleDir)

	writeTestFile(t, filepath.Join(srcDir, "Config.h"), `#ifndef CONFIG_H
#define CONFIG_H

#define LIB_WIDGET 1

#if BOARD_TIER >= 2
#define LIB_GAUGE 1
#define LIB_FEATURE_ALERTS 1
#else
#define LIB_GAUGE 0
#define LIB_FEATURE_ALERTS 0
#endif

#endif
`)

	writeTestFile(t, filepath.Join(srcDir, "Library.h"), `#ifndef LIBRARY_H
#define LIBRARY_H

#include "Config.h"

#if LIB_WIDGET
#include "Widget.h"
#endif

#if LIB_GAUGE
#include "Gauge.h"
#endif

#endif
`)

	writeTestFile(t, filepath.Join(srcDir, "Widget.h"), `// Widget component.
#if LIB_WIDGET

class Widget {
public:
  void begin();
};

#endif
`)

	writeTestFile(t, filepath.Join(srcDir, "Gauge.h"), `#if LIB_GAUGE

class Gauge {
public:
  void begin();
#if LIB_FEATURE_ALERTS
  void enableAlerts();
#endif
};

#endif
`)

	writeTestFile(t, filepath.Join(srcDir, "Helper.cpp"), `#include "Config.h"

#if LIB_WIDGET
static Widget shared_widget;
#endif
`)

	writeTestFile(t, filepath.Join(exampleDir, "Demo.ino"), `// Requires Tier 2 boards (Mega or better).
#include <Library.h>

Gauge gauge;

void setup() {
  gauge.begin();
}

void loop() {}
`)

	writeTestFile(t, filepath.Join(root, "library.properties"), "name=Fixture\nversion=1.0.0\n")
	writeTestFile(t, filepath.Join(root, "keywords.txt"), "Widget\tKEYWORD1\nbegin\tKEYWORD2\n")

	return root
}

func runConditional(t *testing.T, root string, profile Profile) []m.CheckResult {
	t.Helper()

	fs := adapter.NewLocalSourceFSAdapter()
	checker := newConditionalChecker(fs, adapter.NewLocalSourceLoader(fs), profile, m.Path(root), zap.NewNop())

	var results []m.CheckResult

	checker.Run(func(r m.CheckResult) { results = append(results, r) })

	return results
}

func findResult(t *testing.T, results []m.CheckResult, description string) m.CheckResult {
	t.Helper()

	for _, r := range results {
		if r.Description == description {
			return r
		}
	}

	t.Fatalf("no result with description %q, have %v", description, resultDescriptions(results))

	return m.CheckResult{}
}

func resultDescriptions(results []m.CheckResult) []string {
	descriptions := make([]string, 0, len(results))
	for _, r := range results {
		descriptions = append(descriptions, r.Description)
	}

	return descriptions
}

func TestConditionalChecker_ConformingLibrary(t *testing.T) {
	root := writeFixtureLibrary(t)

	results := runConditional(t, root, fixtureProfile())

	for _, r := range results {
		assert.Truef(t, r.Passed, "check %q failed: %s", r.Description, r.Detail)
		assert.Equal(t, "conditional", r.Suite)
	}

	want := []string{
		"configuration source src/Config.h readable",
		"LIB_WIDGET is defined",
		"LIB_GAUGE is defined and gated at tier 2",
		"no conflicting flag definitions",
		"Widget.h wholly guarded by LIB_WIDGET",
		"Gauge.h wholly guarded by LIB_GAUGE",
		"Library.h includes Widget.h behind LIB_WIDGET",
		"Library.h includes Gauge.h behind LIB_GAUGE",
		"Alerts operations guarded by LIB_FEATURE_ALERTS in src/Gauge.h",
		"references to Widget guarded in src/Helper.cpp",
		"conditional directives balanced",
		"example examples/Demo/Demo.ino notes its tier requirement",
	}
	assert.Equal(t, want, resultDescriptions(results))
}

func TestConditionalChecker_DeterministicAcrossRuns(t *testing.T) {
	root := writeFixtureLibrary(t)

	first := runConditional(t, root, fixtureProfile())
	second := runConditional(t, root, fixtureProfile())

	assert.Equal(t, first, second)
}

func TestConditionalChecker_MissingConfig(t *testing.T) {
	root := writeFixtureLibrary(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "Config.h")))

	results := runConditional(t, root, fixtureProfile())

	readable := findResult(t, results, "configuration source src/Config.h readable")
	assert.False(t, readable.Passed)

	// Dependent registry checks still report, each as failed.
	for _, desc := range []string{
		"LIB_WIDGET is defined",
		"LIB_GAUGE is defined and gated at tier 2",
		"no conflicting flag definitions",
	} {
		r := findResult(t, results, desc)
		assert.False(t, r.Passed, desc)
		assert.Equal(t, "flag registry unavailable", r.Detail)
	}
}

func TestConditionalChecker_TierMismatch(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Config.h"), `#define LIB_WIDGET 1
#define LIB_GAUGE 1
#define LIB_FEATURE_ALERTS 1
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "LIB_GAUGE is defined and gated at tier 2")
	assert.False(t, r.Passed)
	assert.Equal(t, "expected tier 2 gating, found tier 0", r.Detail)
}

func TestConditionalChecker_DuplicateFlagReported(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Config.h"), `#define LIB_WIDGET 1
#define LIB_WIDGET 0

#if BOARD_TIER >= 2
#define LIB_GAUGE 1
#define LIB_FEATURE_ALERTS 1
#else
#define LIB_GAUGE 0
#define LIB_FEATURE_ALERTS 0
#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "no conflicting flag definitions")
	assert.False(t, r.Passed)
	assert.Equal(t, "LIB_WIDGET defined at lines 1, 2", r.Detail)
}

func TestConditionalChecker_SelfGuardGap(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Widget.h"), `#if LIB_WIDGET
class Widget {};
#endif
int stray;
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Widget.h wholly guarded by LIB_WIDGET")
	assert.False(t, r.Passed)
	assert.Equal(t, "lines 4-4 follow the guard", r.Detail)
}

func TestConditionalChecker_SelfGuardMissingEndif(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Widget.h"), `#if LIB_WIDGET
class Widget {};
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Widget.h wholly guarded by LIB_WIDGET")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Detail, "no guard span for LIB_WIDGET")
	assert.Contains(t, r.Detail, "conditional opened at line 1 is never closed")

	balance := findResult(t, results, "conditional directives balanced")
	assert.False(t, balance.Passed)
	assert.Contains(t, balance.Detail, "src/Widget.h")
}

func TestConditionalChecker_IncludeMissing(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Library.h"), `#ifndef LIBRARY_H
#define LIBRARY_H

#include "Config.h"

#if LIB_WIDGET
#include "Widget.h"
#endif

#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Library.h includes Gauge.h behind LIB_GAUGE")
	assert.False(t, r.Passed)
	assert.Equal(t, "header is never included", r.Detail)
}

func TestConditionalChecker_IncludeOutsideSpan(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Library.h"), `#ifndef LIBRARY_H
#define LIBRARY_H

#include "Widget.h"

#if LIB_GAUGE
#include "Gauge.h"
#endif

#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Library.h includes Widget.h behind LIB_WIDGET")
	assert.False(t, r.Passed)
	assert.Equal(t, "include outside any LIB_WIDGET span at line 4", r.Detail)
}

func TestConditionalChecker_UnguardedUsage(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Helper.cpp"), `#include "Config.h"

static Widget shared_widget;
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "references to Widget guarded in src/Helper.cpp")
	assert.False(t, r.Passed)
	assert.Equal(t, "reference outside any LIB_WIDGET span at line 3", r.Detail)
}

func TestConditionalChecker_AllowDirectiveExemptsUsage(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Helper.cpp"), `#include "Config.h"

static Widget shared_widget; // guardcheck:allow LIB_WIDGET
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "references to Widget guarded in src/Helper.cpp")
	assert.True(t, r.Passed, r.Detail)
}

func TestConditionalChecker_FeatureOperationOutsideSpan(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Gauge.h"), `#if LIB_GAUGE

class Gauge {
public:
  void begin();
  void enableAlerts();
};

#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Alerts operations guarded by LIB_FEATURE_ALERTS in src/Gauge.h")
	assert.False(t, r.Passed)
	assert.Equal(t, "operation outside any LIB_FEATURE_ALERTS span at line 6", r.Detail)
}

func TestConditionalChecker_FeatureOperationAfterNestedClose(t *testing.T) {
	root := writeFixtureLibrary(t)

	// The operation sits after the feature block's close but before the
	// enclosing block's #endif. A forward search that pairs the feature's
	// #if with any later #endif would accept this layout.
	writeTestFile(t, filepath.Join(root, "src", "Gauge.h"), `#if LIB_GAUGE

class Gauge {
public:
#if LIB_FEATURE_ALERTS
  void begin();
#endif
  void enableAlerts();
};

#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Alerts operations guarded by LIB_FEATURE_ALERTS in src/Gauge.h")
	assert.False(t, r.Passed)
	assert.Equal(t, "operation outside any LIB_FEATURE_ALERTS span at line 8", r.Detail)

	guard := findResult(t, results, "Gauge.h wholly guarded by LIB_GAUGE")
	assert.True(t, guard.Passed, guard.Detail)
}

func TestConditionalChecker_FeatureWithoutReferences(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "src", "Gauge.h"), `#if LIB_GAUGE

class Gauge {
public:
  void begin();
};

#endif
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "Alerts operations guarded by LIB_FEATURE_ALERTS")
	assert.True(t, r.Passed)
	assert.Equal(t, "no operation references found", r.Detail)
}

func TestConditionalChecker_ExampleMissingTierHint(t *testing.T) {
	root := writeFixtureLibrary(t)
	writeTestFile(t, filepath.Join(root, "examples", "Demo", "Demo.ino"), `#include <Library.h>

Gauge gauge;

void setup() {
  gauge.begin();
}

void loop() {}
`)

	results := runConditional(t, root, fixtureProfile())

	r := findResult(t, results, "example examples/Demo/Demo.ino notes its tier requirement")
	assert.False(t, r.Passed)
	assert.Equal(t, "uses Gauge but never mentions the board tier", r.Detail)
}

func TestConditionalChecker_PlannedChecks(t *testing.T) {
	fs := adapter.NewLocalSourceFSAdapter()
	checker := newConditionalChecker(fs, adapter.NewLocalSourceLoader(fs), fixtureProfile(), "unused", zap.NewNop())

	// 1 readable + 2 flags + 1 duplicates + (1+2) per single-file
	// component twice + 1 feature + 2.
	assert.Equal(t, 13, checker.PlannedChecks())
}
