package ugc

import "strings"

// salonPrefix is the fixed prefix that session tracking codes sometimes carry
// in captions but not in the issued code, and vice versa.
const salonPrefix = "salon"

// MatchTrackingCode decides whether any extracted candidate corresponds to
// the expected tracking code. Matching is deliberately permissive: users
// retype codes with drifting case, extra prefixes, or surrounding text, so a
// candidate is accepted when it equals, contains, or is contained by any
// normalized variation of the expected code. False positives are gated
// downstream by the confidence threshold, not here.
//
// The first qualifying candidate (in extraction order) is returned.
func MatchTrackingCode(candidates []string, expected string) (string, bool) {
	if expected == "" {
		return "", false
	}

	variations := expectedVariations(expected)

	for _, candidate := range candidates {
		normalized := strings.ToLower(strings.TrimSpace(candidate))
		if normalized == "" {
			continue
		}

		for _, variation := range variations {
			if normalized == variation ||
				strings.Contains(normalized, variation) ||
				strings.Contains(variation, normalized) {
				return candidate, true
			}
		}
	}

	return "", false
}

// expectedVariations enumerates the normalized forms a caption-typed code may
// take: as issued, with the salon prefix added, and with it stripped.
func expectedVariations(expected string) []string {
	lower := strings.ToLower(strings.TrimSpace(expected))

	variations := []string{lower}

	if strings.HasPrefix(lower, salonPrefix) {
		stripped := strings.TrimPrefix(lower, salonPrefix)
		if stripped != "" {
			variations = append(variations, stripped)
		}
	} else {
		variations = append(variations, salonPrefix+lower)
	}

	return variations
}
