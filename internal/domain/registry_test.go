package domain

import (
	"testing"

	m "github.com/pin-drift/guardcheck/internal/model"
)

func TestExtractRegistry_PlainFlags(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define BACNET_OBJECT_DEVICE 1",
		"#define BACNET_FEATURE_COV 0",
	), "BOARD_TIER")

	if len(registry.Flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(registry.Flags))
	}

	device, ok := registry.Lookup("BACNET_OBJECT_DEVICE")
	if !ok {
		t.Fatalf("BACNET_OBJECT_DEVICE not found")
	}
	if device.Default != 1 || device.Tier != 0 || device.Line != 1 {
		t.Fatalf("device flag = %+v", device)
	}

	cov, ok := registry.Lookup("BACNET_FEATURE_COV")
	if !ok {
		t.Fatalf("BACNET_FEATURE_COV not found")
	}
	if cov.Default != 0 || cov.Line != 2 {
		t.Fatalf("cov flag = %+v", cov)
	}

	if len(registry.Duplicates) != 0 {
		t.Fatalf("unexpected duplicates: %+v", registry.Duplicates)
	}
}

func TestExtractRegistry_SkipsNonFlagDefines(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define BACNET_MAX_APDU 480",
		"#define REQUIRE_TIER(n) static_assert(BOARD_TIER >= n, \"tier\")",
		"#define BARE_NAME",
		"#define BACNET_OBJECT_DEVICE 1",
	), "BOARD_TIER")

	if len(registry.Flags) != 1 {
		t.Fatalf("expected 1 flag, got %d: %+v", len(registry.Flags), registry.Flags)
	}
	if registry.Flags[0].Name != "BACNET_OBJECT_DEVICE" {
		t.Fatalf("flag = %+v", registry.Flags[0])
	}
}

func TestExtractRegistry_TierMacroItselfIgnored(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#ifndef BOARD_TIER",
		"#define BOARD_TIER 1",
		"#endif",
		"#define FLAG_X 1",
	), "BOARD_TIER")

	if _, ok := registry.Lookup("BOARD_TIER"); ok {
		t.Fatalf("the tier macro must not appear in the registry")
	}
	if len(registry.Flags) != 1 {
		t.Fatalf("expected 1 flag, got %d: %+v", len(registry.Flags), registry.Flags)
	}
}

func TestExtractRegistry_TrailingComments(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define FLAG_A 1 // object enabled by default",
		"#define FLAG_B 0 /* opt in */",
	), "BOARD_TIER")

	if len(registry.Flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(registry.Flags))
	}
	if registry.Flags[0].Default != 1 || registry.Flags[1].Default != 0 {
		t.Fatalf("flags = %+v", registry.Flags)
	}
}

func TestExtractRegistry_TierAttribution(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#if BOARD_TIER >= 2",
		"#define BACNET_OBJECT_BINARY_OUTPUT 1",
		"#endif",
	), "BOARD_TIER")

	flag, ok := registry.Lookup("BACNET_OBJECT_BINARY_OUTPUT")
	if !ok {
		t.Fatalf("flag not found")
	}
	if flag.Tier != 2 {
		t.Fatalf("tier = %d, want 2", flag.Tier)
	}
	if flag.Default != 1 || flag.Line != 2 {
		t.Fatalf("flag = %+v", flag)
	}
}

func TestExtractRegistry_DefineAfterTierCloseNotGated(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#if BOARD_TIER >= 2",
		"#define FLAG_GATED 1",
		"#endif",
		"#define FLAG_PLAIN 1",
	), "BOARD_TIER")

	gated, ok := registry.Lookup("FLAG_GATED")
	if !ok || gated.Tier != 2 {
		t.Fatalf("gated flag = %+v, ok = %v", gated, ok)
	}

	plain, ok := registry.Lookup("FLAG_PLAIN")
	if !ok {
		t.Fatalf("FLAG_PLAIN not found")
	}
	if plain.Tier != 0 {
		t.Fatalf("define after the tier block close must not be tier-gated, tier = %d", plain.Tier)
	}
}

func TestExtractRegistry_TierPairIsOneDefinition(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#if BOARD_TIER >= 2",
		"#define BACNET_FEATURE_COV 1",
		"#else",
		"#define BACNET_FEATURE_COV 0",
		"#endif",
	), "BOARD_TIER")

	if len(registry.Flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(registry.Flags))
	}

	flag := registry.Flags[0]
	if flag.Default != 1 {
		t.Fatalf("default = %d, want the tier-positive value 1", flag.Default)
	}
	if flag.Tier != 2 {
		t.Fatalf("tier = %d, want 2", flag.Tier)
	}
	if flag.Line != 2 {
		t.Fatalf("line = %d, want 2", flag.Line)
	}

	if len(registry.Duplicates) != 0 {
		t.Fatalf("tier alternatives must not count as duplicates: %+v", registry.Duplicates)
	}
}

func TestExtractRegistry_ElifBranchesAreAlternatives(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#if BOARD_TIER >= 3",
		"#define FLAG_FAST 1",
		"#elif BOARD_TIER >= 2",
		"#define FLAG_FAST 1",
		"#else",
		"#define FLAG_FAST 0",
		"#endif",
	), "BOARD_TIER")

	if len(registry.Duplicates) != 0 {
		t.Fatalf("chain branches must not count as duplicates: %+v", registry.Duplicates)
	}

	flag, ok := registry.Lookup("FLAG_FAST")
	if !ok {
		t.Fatalf("flag not found")
	}
	if flag.Tier != 3 || flag.Default != 1 || flag.Line != 2 {
		t.Fatalf("flag = %+v", flag)
	}
}

func TestExtractRegistry_TopLevelDuplicate(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define FLAG_X 1",
		"int spacer;",
		"#define FLAG_X 0",
	), "BOARD_TIER")

	if len(registry.Flags) != 1 {
		t.Fatalf("expected 1 flag entry, got %d", len(registry.Flags))
	}
	if len(registry.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(registry.Duplicates))
	}

	dup := registry.Duplicates[0]
	if dup.Name != "FLAG_X" {
		t.Fatalf("duplicate name = %q", dup.Name)
	}
	if len(dup.Lines) != 2 || dup.Lines[0] != 1 || dup.Lines[1] != 3 {
		t.Fatalf("duplicate lines = %v, want [1 3]", dup.Lines)
	}
}

func TestExtractRegistry_NestedRedefinitionIsDuplicate(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define FLAG_X 1",
		"#if SOME_OTHER",
		"#define FLAG_X 0",
		"#endif",
	), "BOARD_TIER")

	if len(registry.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(registry.Duplicates))
	}
	if lines := registry.Duplicates[0].Lines; len(lines) != 2 || lines[0] != 1 || lines[1] != 3 {
		t.Fatalf("duplicate lines = %v, want [1 3]", lines)
	}
}

func TestExtractRegistry_SeparateConditionalsConflict(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#if FIRST",
		"#define FLAG_X 1",
		"#endif",
		"#if SECOND",
		"#define FLAG_X 0",
		"#endif",
	), "BOARD_TIER")

	// Both conditionals can hold at once, so the defines can collide.
	if len(registry.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(registry.Duplicates))
	}
}

func TestExtractRegistry_DeclarationOrderKept(t *testing.T) {
	registry := ExtractRegistry(sourceFromLines(
		"#define FLAG_C 1",
		"#define FLAG_A 1",
		"#define FLAG_B 0",
	), "BOARD_TIER")

	want := []string{"FLAG_C", "FLAG_A", "FLAG_B"}
	if len(registry.Flags) != len(want) {
		t.Fatalf("expected %d flags, got %d", len(want), len(registry.Flags))
	}
	for i, name := range want {
		if registry.Flags[i].Name != name {
			t.Fatalf("flag %d = %q, want %q", i, registry.Flags[i].Name, name)
		}
	}
}

func TestExtractRegistry_OriginRecorded(t *testing.T) {
	file := &m.SourceFile{Origin: "src/BACnetConfig.h", Lines: []string{"#define F 1"}}

	registry := ExtractRegistry(file, "BOARD_TIER")
	if registry.Origin != "src/BACnetConfig.h" {
		t.Fatalf("origin = %q", registry.Origin)
	}
}

func TestParseFlagDefine(t *testing.T) {
	cases := []struct {
		rest  string
		name  string
		value int
		ok    bool
	}{
		{"FLAG_X 1", "FLAG_X", 1, true},
		{"FLAG_X 0", "FLAG_X", 0, true},
		{"FLAG_X 1 // note", "FLAG_X", 1, true},
		{"FLAG_X 2", "", 0, false},
		{"FLAG_X (1)", "", 0, false},
		{"FLAG_X(n) n", "", 0, false},
		{"FLAG_X", "", 0, false},
		{"9BAD 1", "", 0, false},
	}

	for _, tc := range cases {
		name, value, ok := parseFlagDefine(tc.rest)
		if ok != tc.ok || name != tc.name || value != tc.value {
			t.Fatalf("parseFlagDefine(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.rest, name, value, ok, tc.name, tc.value, tc.ok)
		}
	}
}
