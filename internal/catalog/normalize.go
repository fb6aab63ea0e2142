package catalog

import "strings"

// NormalizeName canonicalizes a disposition name for trigger matching and for
// use as a lead status value: lower-case, every run of non-alphanumerics
// becomes a single underscore, leading/trailing underscores stripped.
//
// "Wrong Number!" -> "wrong_number", "DNC" -> "dnc".
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastUnderscore := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}
