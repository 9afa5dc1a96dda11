// Package slug turns arbitrary project names and timestamps into
// filesystem/registry-safe slugs, mirroring python-slugify's behaviour for
// the inputs PIXL actually sees (project names, RFC3339 timestamps).
//
// No slugify library appears anywhere in the retrieved example pack, so
// this narrow, well-specified string transform is implemented directly
// against the standard library rather than pulled in from the ecosystem.
package slug

import "strings"

// Slugify lowercases s and replaces every run of non [a-z0-9] characters
// with a single hyphen, trimming leading/trailing hyphens.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
