package model

// Flag represents a compile-time feature flag extracted from the
// configuration source.
type Flag struct {
	Name    string
	Default int // declared default value, 0 or 1
	Tier    int // minimum board tier for automatic enablement, 0 = always available
	Line    int // definition line in the configuration source
}

// DuplicateFlag records conflicting definitions of a single flag name.
// Defines sitting in mutually exclusive branches of one conditional chain
// are alternatives, not duplicates, and are never recorded here.
type DuplicateFlag struct {
	Name  string
	Lines []int
}

// FlagRegistry is the flag table extracted from one configuration source.
// Flags appear in declaration order.
type FlagRegistry struct {
	Origin     Path
	Flags      []Flag
	Duplicates []DuplicateFlag
}

// Lookup returns the flag with the given name.
func (r *FlagRegistry) Lookup(name string) (Flag, bool) {
	for _, f := range r.Flags {
		if f.Name == name {
			return f, true
		}
	}

	return Flag{}, false
}
