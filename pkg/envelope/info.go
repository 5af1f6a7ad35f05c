package envelope

import (
	"slices"
)

// Info is the informational header. Keys and values are raw byte strings.
type Info map[string]string

// LegacyKey marks a file converted from the legacy format.
const LegacyKey = "ad1"

func (i Info) Get(key string) (string, bool) {
	v, ok := i[key]
	return v, ok
}

// Keys returns the header keys in sorted order.
func (i Info) Keys() []string {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsLegacy reports whether the header marks a legacy-format origin.
func (i Info) IsLegacy() bool {
	_, ok := i[LegacyKey]
	return ok
}
