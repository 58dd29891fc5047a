package ugc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTrackingCodes(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		expected []string
	}{
		{
			name:     "Empty caption",
			caption:  "",
			expected: nil,
		},
		{
			name:     "No codes",
			caption:  "Loving my new look! #hairgoals",
			expected: nil,
		},
		{
			name:     "Salon-prefixed code",
			caption:  "Fresh cut today #PostMyStylesalonX7K9M2 so happy",
			expected: []string{"SALONX7K9M2"},
		},
		{
			name:     "Bare code after brand token",
			caption:  "check out #postmystyleAB12CD",
			expected: []string{"AB12CD"},
		},
		{
			name:     "Brand token without hash",
			caption:  "shared via postmystyleAB12CD today",
			expected: []string{"AB12CD"},
		},
		{
			name:     "Mixed case normalized to upper",
			caption:  "#PoStMyStYlEaB12cD",
			expected: []string{"AB12CD"},
		},
		{
			name:     "Multiple codes in order",
			caption:  "#postmystylesalonAAA111 and later #postmystyleBBB222",
			expected: []string{"SALONAAA111", "BBB222"},
		},
		{
			name:     "Bare code before salon-prefixed keeps caption order",
			caption:  "#postmystyleBBB222 and later #postmystylesalonAAA111",
			expected: []string{"BBB222", "SALONAAA111"},
		},
		{
			name:     "Overlapping patterns deduplicated",
			caption:  "#postmystylesalonX7K9M2",
			expected: []string{"SALONX7K9M2"},
		},
		{
			name:     "Repeated code deduplicated",
			caption:  "#postmystyleAB12CD again #postmystyleAB12CD",
			expected: []string{"AB12CD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractTrackingCodes(tt.caption)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractTrackingCodes_Deterministic(t *testing.T) {
	caption := "Big thanks @glamsalon! #postmystylesalonX7K9M2 #postmystyleQ1W2E3"

	first := ExtractTrackingCodes(caption)
	second := ExtractTrackingCodes(caption)

	assert.Equal(t, first, second)
	assert.Len(t, first, len(uniqueStrings(first)), "result must not contain repeats")
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func TestExtractSalonMentions(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		expected []string
	}{
		{
			name:     "No mentions",
			caption:  "just a caption",
			expected: nil,
		},
		{
			name:     "Salon handle kept",
			caption:  "Thanks @glamsalon for the cut!",
			expected: []string{"glamsalon"},
		},
		{
			name:     "Brand handle excluded",
			caption:  "Shared with @postmystyle and @glamsalon",
			expected: []string{"glamsalon"},
		},
		{
			name:     "Short handles dropped",
			caption:  "cc @ab @my_stylist",
			expected: []string{"my_stylist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractSalonMentions(tt.caption)
			assert.Equal(t, tt.expected, result)
		})
	}
}
