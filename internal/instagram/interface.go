package instagram

import (
	"context"

	"github.com/postmystyle/ugc-monitor/internal/models"
)

// API defines the contract the monitor needs from the Instagram Graph API.
type API interface {
	// ValidateCredentials confirms the business account and token are usable.
	ValidateCredentials(ctx context.Context) error

	// SearchHashtag resolves a hashtag string to its platform identifier.
	// A hashtag the platform does not know yields ("", false, nil).
	SearchHashtag(ctx context.Context, hashtag string) (string, bool, error)

	// FetchHashtagPosts lists candidate posts for a hashtag identifier,
	// merged across the recent and top listing endpoints and deduplicated
	// by post ID. Both endpoints failing yields an empty slice, not an error.
	FetchHashtagPosts(ctx context.Context, hashtagID string) ([]models.Post, error)
}
