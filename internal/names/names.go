// Package names normalizes free-text entity names for deduplication.
package names

import "strings"

// Normalize reduces a name to its canonical comparison key: lower-cased,
// one leading article removed, a leading "unnamed" qualifier removed, and
// internal whitespace collapsed. Matching on normalized keys is exact on
// purpose: capitalization and article variants collapse to one entity,
// genuinely different names never do.
func Normalize(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(normalized, article) {
			normalized = normalized[len(article):]
			break
		}
	}

	normalized = strings.TrimPrefix(normalized, "unnamed ")

	return strings.Join(strings.Fields(normalized), " ")
}

// FindMatch returns the ID of the candidate whose normalized name equals
// the normalized input, or "" when none matches. Candidates map entity ID
// to display name; IDs are checked in sorted order so a duplicate-free
// store always resolves deterministically.
func FindMatch(name string, candidates map[string]string) string {
	key := Normalize(name)
	if key == "" {
		return ""
	}
	match := ""
	for id, candidate := range candidates {
		if Normalize(candidate) != key {
			continue
		}
		if match == "" || id < match {
			match = id
		}
	}
	return match
}
