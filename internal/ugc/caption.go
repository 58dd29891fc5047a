// Package ugc contains the pure discovery logic: extracting tracking codes
// from captions, scoring match confidence, and correlating candidate codes
// against an expected code. Nothing in this package performs I/O or reads
// configuration.
package ugc

import (
	"regexp"
	"sort"
	"strings"
)

// BrandToken is the marker that anchors every tracking-code pattern and the
// derived hashtag prefix.
const BrandToken = "postmystyle"

// codePatterns are applied independently against a caption; the union of
// their captures is the candidate set. Two shapes occur in the wild:
// "#postmystyleX7K9M2" and "#postmystylesalonX7K9M2", with or without the
// leading hash and with an occasional delimiter after the brand token.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)#?postmystyle(salon\w{3,12})`),
	regexp.MustCompile(`(?i)#?postmystyle[\s:_-]?(\w{3,12})`),
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractTrackingCodes returns all candidate tracking codes found in a
// caption, upper-cased, in first-seen caption order, with duplicates removed.
// An empty or unmatched caption yields an empty slice; it never fails.
func ExtractTrackingCodes(caption string) []string {
	if caption == "" {
		return nil
	}

	// Matches are gathered with their caption offsets so that ordering follows
	// the caption, not the pattern table. Patterns overlap on salon-prefixed
	// codes; the stable sort keeps the more specific capture first at equal
	// offsets and dedup collapses the rest.
	type match struct {
		offset int
		code   string
	}
	var matches []match

	for _, pattern := range codePatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(caption, -1) {
			start, end := loc[2], loc[3]
			if start < 0 {
				continue
			}
			code := strings.ToUpper(strings.TrimSpace(caption[start:end]))
			if code == "" {
				continue
			}
			matches = append(matches, match{offset: loc[0], code: code})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	seen := make(map[string]bool)
	var codes []string
	for _, m := range matches {
		if seen[m.code] {
			continue
		}
		seen[m.code] = true
		codes = append(codes, m.code)
	}

	return codes
}

// ExtractSalonMentions returns the @-handles mentioned in a caption,
// excluding the brand's own handles and very short handles.
func ExtractSalonMentions(caption string) []string {
	var handles []string

	for _, match := range mentionPattern.FindAllStringSubmatch(caption, -1) {
		handle := match[1]
		if strings.Contains(strings.ToLower(handle), BrandToken) {
			continue
		}
		if len(handle) <= 2 {
			continue
		}
		handles = append(handles, handle)
	}

	return handles
}
