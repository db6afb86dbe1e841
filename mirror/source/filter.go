package source

import "strings"

// Filter holds the name-based rules deciding which source
// repositories are mirrored. Rules apply to the repository
// name only, never to the owner.
type Filter struct {
	// RestrictedPrefix excludes repositories whose name
	// starts with it. Empty disables the rule.
	RestrictedPrefix string
	// AssetPrefix excludes repositories whose name starts
	// with it. Empty disables the rule.
	AssetPrefix string
	// AllowPrefix, when non-empty, keeps only repositories
	// whose name starts with it.
	AllowPrefix string
}

// Match reports whether a repository name passes the
// filter. Exclusion rules win over the allow rule.
func (f Filter) Match(name string) bool {
	if f.RestrictedPrefix != "" &&
		strings.HasPrefix(name, f.RestrictedPrefix) {
		return false
	}

	if f.AssetPrefix != "" &&
		strings.HasPrefix(name, f.AssetPrefix) {
		return false
	}

	if f.AllowPrefix != "" &&
		!strings.HasPrefix(name, f.AllowPrefix) {
		return false
	}

	return true
}

// Apply returns the repositories whose names pass the
// filter, preserving order.
func (f Filter) Apply(repos []Repository) []Repository {
	kept := make([]Repository, 0, len(repos))

	for _, r := range repos {
		if f.Match(r.Name) {
			kept = append(kept, r)
		}
	}

	return kept
}
