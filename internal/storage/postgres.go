// Package storage persists sessions and UGC discoveries in Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// psql builds queries with Postgres dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool          *pgxpool.Pool
	sessionLimit  int
	sessionWindow time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to Postgres and returns a store. sessionLimit
// caps the pending-session page; windowDays bounds how far back sessions are
// considered.
func NewPostgresStore(ctx context.Context, dsn string, sessionLimit, windowDays int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &PostgresStore{
		pool:          pool,
		sessionLimit:  sessionLimit,
		sessionWindow: time.Duration(windowDays) * 24 * time.Hour,
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready verifies connectivity with a trivial round trip.
func (s *PostgresStore) Ready(ctx context.Context) error {
	var one int
	if err := s.pool.QueryRow(ctx, "select 1").Scan(&one); err != nil {
		return fmt.Errorf("storage not ready: %w", err)
	}
	return nil
}

func pendingSessionsQuery(limit int, cutoff time.Time) (string, []interface{}, error) {
	return psql.
		Select("id", "public_tracking_code", "client_name", "stylist_id", "salon_name", "created_at", "discovery_status").
		From("media_send").
		Where(sq.Eq{"tracking_enabled": true}).
		Where(sq.Eq{"discovery_status": models.StatusPending}).
		Where(sq.NotEq{"public_tracking_code": nil}).
		Where(sq.GtOrEq{"created_at": cutoff}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
}

// PendingSessions returns the sessions still waiting for a discovery.
func (s *PostgresStore) PendingSessions(ctx context.Context) ([]models.Session, error) {
	query, args, err := pendingSessionsQuery(s.sessionLimit, time.Now().Add(-s.sessionWindow))
	if err != nil {
		return nil, fmt.Errorf("build pending sessions query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.TrackingCode,
			&session.ClientName,
			&session.StylistID,
			&session.SalonName,
			&session.CreatedAt,
			&session.Status,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func discoveryExistsQuery(postURL string) (string, []interface{}, error) {
	return psql.
		Select("1").
		From("ugc_discoveries").
		Where(sq.Eq{"post_url": postURL}).
		Limit(1).
		ToSql()
}

// DiscoveryExists is the dedup check keyed on post URL.
func (s *PostgresStore) DiscoveryExists(ctx context.Context, postURL string) (bool, error) {
	query, args, err := discoveryExistsQuery(postURL)
	if err != nil {
		return false, fmt.Errorf("build discovery exists query: %w", err)
	}

	var one int
	err = s.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check discovery: %w", err)
	}

	return true, nil
}

func insertDiscoveryQuery(d models.Discovery) (string, []interface{}, error) {
	return psql.
		Insert("ugc_discoveries").
		Columns(
			"media_send_id", "platform", "post_url", "post_content",
			"post_timestamp", "likes", "comments", "engagement_score",
			"confidence_score", "discovery_method", "tracking_code",
			"instagram_username", "salon_handles", "source_hashtag",
			"discovered_at",
		).
		Values(
			d.SessionID, d.Platform, d.PostURL, d.PostContent,
			d.PostTimestamp, d.Likes, d.Comments, d.EngagementScore,
			d.ConfidenceScore, d.DiscoveryMethod, d.TrackingCode,
			d.Username, d.SalonHandles, d.SourceHashtag,
			d.DiscoveredAt,
		).
		ToSql()
}

// InsertDiscovery records a new UGC discovery.
func (s *PostgresStore) InsertDiscovery(ctx context.Context, discovery models.Discovery) error {
	query, args, err := insertDiscoveryQuery(discovery)
	if err != nil {
		return fmt.Errorf("build insert discovery query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert discovery for %s: %w", discovery.PostURL, err)
	}

	logrus.Infof("Recorded UGC discovery %s (tracking code %s)", discovery.PostURL, discovery.TrackingCode)
	return nil
}

func markDiscoveredQuery(sessionID string, now time.Time) (string, []interface{}, error) {
	return psql.
		Update("media_send").
		Set("discovery_status", models.StatusDiscovered).
		Set("updated_at", now).
		Where(sq.Eq{"id": sessionID}).
		Where(sq.Eq{"discovery_status": models.StatusPending}).
		ToSql()
}

// MarkSessionDiscovered transitions a pending session to discovered. Rows
// that already flipped stay discovered; the update never reverts status.
func (s *PostgresStore) MarkSessionDiscovered(ctx context.Context, sessionID string) (bool, error) {
	query, args, err := markDiscoveredQuery(sessionID, time.Now())
	if err != nil {
		return false, fmt.Errorf("build session update query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update session %s: %w", sessionID, err)
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// No pending row matched: either the session already flipped (fine) or
	// the row is missing (a failure worth counting).
	existsQuery, existsArgs, err := psql.
		Select("1").
		From("media_send").
		Where(sq.Eq{"id": sessionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build session lookup query: %w", err)
	}

	var one int
	if err := s.pool.QueryRow(ctx, existsQuery, existsArgs...).Scan(&one); err != nil {
		if isNoRows(err) {
			return false, fmt.Errorf("session %s not found", sessionID)
		}
		return false, fmt.Errorf("lookup session %s: %w", sessionID, err)
	}

	logrus.Debugf("Session %s already discovered, status unchanged", sessionID)
	return false, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
