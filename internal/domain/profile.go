package domain

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ProfileFileName is the profile discovered automatically in the target
// directory when no explicit profile path is given.
const ProfileFileName = "guardcheck.toml"

// FlagRequirement names a flag the configuration source must define, along
// with the board tier expected to gate it (0 = always available).
type FlagRequirement struct {
	Name string `toml:"name"`
	Tier int    `toml:"tier"`
}

// ComponentSpec binds a source identifier to the flag guarding it and to the
// files that define it, relative to the source directory.
type ComponentSpec struct {
	Name  string   `toml:"name"`
	Flag  string   `toml:"flag"`
	Files []string `toml:"files"`
}

// FeatureSpec describes an optional capability: its operations may only
// appear inside guard spans of the feature flag.
type FeatureSpec struct {
	Name       string   `toml:"name"`
	Flag       string   `toml:"flag"`
	Operations []string `toml:"operations"`
}

// Profile describes the conventions of the library under verification:
// where the configuration source and aggregator live, which flags and
// components the checker must cross-reference, and what the structural suite
// expects from the library layout.
type Profile struct {
	ConfigFile     string            `toml:"config_file"`
	AggregatorFile string            `toml:"aggregator_file"`
	SourceDir      string            `toml:"source_dir"`
	SourceExts     []string          `toml:"source_exts"`
	SketchExt      string            `toml:"sketch_ext"`
	TierMacro      string            `toml:"tier_macro"`
	Flags          []FlagRequirement `toml:"flags"`
	Components     []ComponentSpec   `toml:"components"`
	Features       []FeatureSpec     `toml:"features"`
	RequiredFiles  []string          `toml:"required_files"`
	RequiredDirs   []string          `toml:"required_dirs"`
	PropertiesFile string            `toml:"properties_file"`
	PropertyKeys   []string          `toml:"property_keys"`
	KeywordsFile   string            `toml:"keywords_file"`
	KeywordTypes   []string          `toml:"keyword_types"`
	ExamplesDir    string            `toml:"examples_dir"`
	TierWords      []string          `toml:"tier_words"`
	StackDir       string            `toml:"stack_dir"`
	StackMinFiles  int               `toml:"stack_min_files"`
}

// DefaultProfile returns the conventions of the BACnet-for-Arduino library
// layout this checker was originally built around. Profile files only need
// to override the fields that differ.
func DefaultProfile() Profile {
	return Profile{
		ConfigFile:     "src/BACnetConfig.h",
		AggregatorFile: "src/BACnetArduino.h",
		SourceDir:      "src",
		SourceExts:     []string{".h", ".hpp", ".c", ".cpp"},
		SketchExt:      ".ino",
		TierMacro:      "BOARD_TIER",
		Flags: []FlagRequirement{
			{Name: "BACNET_OBJECT_DEVICE"},
			{Name: "BACNET_OBJECT_BINARY_VALUE"},
			{Name: "BACNET_OBJECT_ANALOG_VALUE"},
			{Name: "BACNET_OBJECT_BINARY_OUTPUT", Tier: 2},
			{Name: "BACNET_OBJECT_ANALOG_INPUT", Tier: 2},
			{Name: "BACNET_FEATURE_COV", Tier: 2},
			{Name: "BACNET_FEATURE_PRIORITY_ARRAY", Tier: 2},
		},
		Components: []ComponentSpec{
			{
				Name:  "BACnetBinaryValue",
				Flag:  "BACNET_OBJECT_BINARY_VALUE",
				Files: []string{"BACnetBinaryValue.h", "BACnetBinaryValue.cpp"},
			},
			{
				Name:  "BACnetAnalogValue",
				Flag:  "BACNET_OBJECT_ANALOG_VALUE",
				Files: []string{"BACnetAnalogValue.h", "BACnetAnalogValue.cpp"},
			},
			{
				Name:  "BACnetBinaryOutput",
				Flag:  "BACNET_OBJECT_BINARY_OUTPUT",
				Files: []string{"BACnetBinaryOutput.h"},
			},
			{
				Name:  "BACnetAnalogInput",
				Flag:  "BACNET_OBJECT_ANALOG_INPUT",
				Files: []string{"BACnetAnalogInput.h"},
			},
		},
		Features: []FeatureSpec{
			{
				Name:       "COV",
				Flag:       "BACNET_FEATURE_COV",
				Operations: []string{"enableCOV", "disableCOV", "_cov_enabled"},
			},
		},
		RequiredFiles:  []string{"library.properties", "keywords.txt", "LICENSE", "README.md"},
		RequiredDirs:   []string{"src", "examples", "extras"},
		PropertiesFile: "library.properties",
		PropertyKeys: []string{
			"name", "version", "author", "maintainer", "sentence",
			"paragraph", "category", "url", "architectures",
		},
		KeywordsFile:  "keywords.txt",
		KeywordTypes:  []string{"KEYWORD1", "KEYWORD2", "KEYWORD3", "LITERAL1", "LITERAL2"},
		ExamplesDir:   "examples",
		TierWords:     []string{"Tier 2", "Tier 3", "Tier 4", "Mega", "Due", "ESP32", "REQUIRE_TIER"},
		StackDir:      "src/bacnet",
		StackMinFiles: 100,
	}
}

// ParseProfile decodes a TOML profile over the default conventions.
func ParseProfile(data []byte) (Profile, error) {
	profile := DefaultProfile()

	if err := toml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}

	if err := profile.validate(); err != nil {
		return Profile{}, err
	}

	return profile, nil
}

func (p Profile) validate() error {
	if p.ConfigFile == "" {
		return fmt.Errorf("profile: config_file must not be empty")
	}

	if p.SourceDir == "" {
		return fmt.Errorf("profile: source_dir must not be empty")
	}

	for _, component := range p.Components {
		if component.Name == "" || component.Flag == "" {
			return fmt.Errorf("profile: component %q needs both a name and a flag", component.Name)
		}

		if len(component.Files) == 0 {
			return fmt.Errorf("profile: component %q lists no files", component.Name)
		}
	}

	for _, feature := range p.Features {
		if feature.Flag == "" || len(feature.Operations) == 0 {
			return fmt.Errorf("profile: feature %q needs a flag and at least one operation", feature.Name)
		}
	}

	return nil
}
