package featureflag

import (
	"sort"
	"strings"
)

// FeatureFlag is the set of flags turning sequencing behaviors on or off.
type FeatureFlag map[Flag]struct{}

// New returns the feature flags named in the given list. Names are trimmed
// and upper-cased, and empty names are ignored.
func New(flags []string) FeatureFlag {
	featureFlag := make(FeatureFlag)
	for _, f := range flags {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		featureFlag[Flag(f)] = struct{}{}
	}
	return featureFlag
}

// Has reports whether flag is set.
func (f FeatureFlag) Has(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// IfSet runs do when flag is set.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if !f.Has(flag) {
		return
	}
	do()
}

// IfNotSet runs do when flag is not set.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if f.Has(flag) {
		return
	}
	do()
}

// Strings returns the sorted names of the set flags.
func (f FeatureFlag) Strings() []string {
	names := make([]string, 0, len(f))
	for flag := range f {
		names = append(names, string(flag))
	}
	sort.Strings(names)
	return names
}
