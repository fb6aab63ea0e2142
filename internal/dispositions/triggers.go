package dispositions

import "strings"

// TriggerSets is the closed classifier behind the router's built-in cascades.
// The sets are supplied at construction so deployments can tune them without
// code changes; DefaultTriggerSets carries the platform defaults.
//
// Matching is substring containment against the normalized disposition name
// (see catalog.NormalizeName), so "customer_was_rude" trips the "rude"
// keyword.

type TriggerSets struct {
	// DNCKeywords force do_not_call + a dnc_list entry.
	DNCKeywords []string

	// RemoveKeywords end all workflow enrollments and queued dials.
	RemoveKeywords []string

	// HostilePhrases are scanned against the raw transcript (lower-cased);
	// a hit forces DNC regardless of the disposition name.
	HostilePhrases []string
}

func DefaultTriggerSets() TriggerSets {
	return TriggerSets{
		DNCKeywords: []string{
			"dnc",
			"do_not_call",
			"stop",
			"remove",
			"threatening",
			"rude",
			"hostile",
			"abusive",
		},
		RemoveKeywords: []string{
			"not_interested",
			"wrong_number",
			"already_has_solar",
			"already_has_service",
			"deceased",
			"business_closed",
			"invalid_number",
			"disconnected",
		},
		HostilePhrases: []string{
			"stop calling",
			"don't call",
			"do not call",
			"lawyer",
			"attorney",
			"sue you",
			"harassment",
			"report you",
		},
	}
}

// IsDNC reports whether a normalized disposition name trips the DNC cascade.
func (t TriggerSets) IsDNC(normalized string) bool {
	return containsAny(normalized, t.DNCKeywords)
}

// IsRemoveEverywhere reports whether a normalized disposition name trips the
// remove-from-everything cascade.
func (t TriggerSets) IsRemoveEverywhere(normalized string) bool {
	return containsAny(normalized, t.RemoveKeywords)
}

// HostilePhrase returns the first hostile phrase found in the transcript.
func (t TriggerSets) HostilePhrase(transcript string) (string, bool) {
	if transcript == "" {
		return "", false
	}
	lower := strings.ToLower(transcript)
	for _, p := range t.HostilePhrases {
		if p != "" && strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
