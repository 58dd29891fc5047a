package ugc

import (
	"strings"
	"testing"

	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestConfidenceScore_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		post    models.Post
		code    string
		handles []string
	}{
		{
			name: "Minimal post stays at base",
			post: models.Post{Caption: "x"},
			code: "a-b",
		},
		{
			name: "Everything triggered clamps at 100",
			post: models.Post{
				Caption:       strings.Repeat("hair style salon cut color highlight transformation beautiful gorgeous postmystyle ", 3),
				LikeCount:     20,
				CommentsCount: 4,
			},
			code:    "SALONX7K9M2",
			handles: []string{"glamsalon", "mystylist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ConfidenceScore(tt.post, tt.code, tt.handles)
			assert.GreaterOrEqual(t, score, baseConfidence)
			assert.LessOrEqual(t, score, maxConfidence)
		})
	}
}

func TestConfidenceScore_Clamped(t *testing.T) {
	post := models.Post{
		Caption:       strings.Repeat("gorgeous hair transformation at the salon, postmystyle style cut color highlight beautiful ", 4),
		LikeCount:     100,
		CommentsCount: 50,
	}

	score := ConfidenceScore(post, "SALONX7K9M2", []string{"a_salon", "b_salon", "c_salon"})
	assert.Equal(t, 100, score)
}

// Each bonus condition, toggled in isolation, must never lower the score.
func TestConfidenceScore_Monotonic(t *testing.T) {
	base := models.Post{Caption: "ok"}
	baseScore := ConfidenceScore(base, "ab!", nil)

	tests := []struct {
		name    string
		post    models.Post
		code    string
		handles []string
	}{
		{name: "Long code", post: base, code: "ABCDEF"},
		{name: "Alphanumeric code", post: base, code: "AB1"},
		{name: "Salon handle", post: base, code: "ab!", handles: []string{"glamsalon"}},
		{name: "Two salon handles", post: base, code: "ab!", handles: []string{"glamsalon", "other"}},
		{name: "Medium caption", post: models.Post{Caption: strings.Repeat("x", 60)}, code: "ab!"},
		{name: "Long caption", post: models.Post{Caption: strings.Repeat("x", 160)}, code: "ab!"},
		{name: "Some likes", post: models.Post{Caption: "ok", LikeCount: 1}, code: "ab!"},
		{name: "Many likes", post: models.Post{Caption: "ok", LikeCount: 10}, code: "ab!"},
		{name: "Comments", post: models.Post{Caption: "ok", CommentsCount: 2}, code: "ab!"},
		{name: "Brand mention", post: models.Post{Caption: "ok postmystyle"}, code: "ab!"},
		{name: "Beauty keyword", post: models.Post{Caption: "ok hair"}, code: "ab!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ConfidenceScore(tt.post, tt.code, tt.handles)
			assert.GreaterOrEqual(t, score, baseScore)
		})
	}
}

func TestConfidenceScore_Deterministic(t *testing.T) {
	post := models.Post{
		Caption:       "Fresh hair transformation @glamsalon #postmystylesalonX7K9M2",
		LikeCount:     7,
		CommentsCount: 2,
	}
	handles := []string{"glamsalon"}

	first := ConfidenceScore(post, "SALONX7K9M2", handles)
	second := ConfidenceScore(post, "SALONX7K9M2", handles)
	assert.Equal(t, first, second)
}

func TestConfidenceScore_KeywordBonusCapped(t *testing.T) {
	// Nine distinct keywords at 2 points each would be 18 uncapped. Both
	// captions are padded past the same length threshold so only the keyword
	// bonus differs.
	allKeywords := models.Post{Caption: "hair style salon cut color highlight transformation beautiful gorgeous"}
	fiveKeywords := models.Post{Caption: "hair style salon cut color " + strings.Repeat("z", 44)}

	assert.Equal(t,
		ConfidenceScore(fiveKeywords, "ab!", nil),
		ConfidenceScore(allKeywords, "ab!", nil))
}
