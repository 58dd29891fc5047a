package storage

import (
	"context"

	"github.com/postmystyle/ugc-monitor/internal/models"
)

// Store defines the contract for session and discovery persistence.
type Store interface {
	// Ready verifies the store is reachable.
	Ready(ctx context.Context) error

	// PendingSessions returns sessions eligible for matching: tracking
	// enabled, status pending, a non-empty tracking code, and created within
	// the configured window. Newest first, capped at the configured limit.
	PendingSessions(ctx context.Context) ([]models.Session, error)

	// DiscoveryExists reports whether a discovery with the given post URL has
	// already been recorded.
	DiscoveryExists(ctx context.Context, postURL string) (bool, error)

	// InsertDiscovery persists a new discovery record.
	InsertDiscovery(ctx context.Context, discovery models.Discovery) error

	// MarkSessionDiscovered flips a pending session to discovered. The flip
	// is one-way: a session already discovered is a no-op (false, nil). A
	// missing session is an error.
	MarkSessionDiscovered(ctx context.Context, sessionID string) (bool, error)
}
