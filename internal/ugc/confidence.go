package ugc

import (
	"strings"

	"github.com/postmystyle/ugc-monitor/internal/models"
)

const (
	baseConfidence = 50
	maxConfidence  = 100
)

// beautyKeywords contribute a small bonus each, capped, so that a
// keyword-stuffed caption cannot dominate the score.
var beautyKeywords = []string{
	"hair", "style", "salon", "cut", "color", "highlight",
	"transformation", "beautiful", "gorgeous",
}

// ConfidenceScore computes a heuristic [0,100] confidence that a post whose
// caption produced matchedCode is genuine salon UGC. It is deterministic:
// the same inputs always yield the same score.
func ConfidenceScore(post models.Post, matchedCode string, salonHandles []string) int {
	confidence := baseConfidence
	caption := strings.ToLower(post.Caption)

	// Tracking-code shape
	if len(matchedCode) >= 6 {
		confidence += 10
	}
	if isAlphanumeric(matchedCode) {
		confidence += 10
	}

	// Salon mention indicators
	if len(salonHandles) > 0 {
		confidence += 15
	}
	if len(salonHandles) > 1 {
		confidence += 5
	}

	// Content quality indicators
	if len(post.Caption) > 50 {
		confidence += 5
	}
	if len(post.Caption) > 150 {
		confidence += 5
	}
	if post.LikeCount > 0 {
		confidence += 5
	}
	if post.LikeCount > 5 {
		confidence += 5
	}
	if post.CommentsCount > 0 {
		confidence += 5
	}

	// Brand mention
	if strings.Contains(caption, BrandToken) {
		confidence += 15
	}

	// Beauty/industry keywords, capped contribution
	keywordBonus := 0
	for _, keyword := range beautyKeywords {
		if strings.Contains(caption, keyword) {
			keywordBonus += 2
		}
	}
	if keywordBonus > 10 {
		keywordBonus = 10
	}
	confidence += keywordBonus

	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return confidence
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
