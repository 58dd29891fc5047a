package models

import "time"

// Session represents an outbound media send that carries a public tracking
// code and is waiting to be correlated with user-generated content.
type Session struct {
	ID           string    `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	ClientName   string    `json:"client_name"`
	StylistID    string    `json:"stylist_id"`
	SalonName    string    `json:"salon_name"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"discovery_status"` // "pending" or "discovered"
}

// Session discovery statuses.
const (
	StatusPending    = "pending"
	StatusDiscovered = "discovered"
)

// Post is a candidate Instagram post fetched for a hashtag. It is ephemeral:
// only accepted posts are persisted, as Discoveries.
type Post struct {
	ID            string `json:"id"`
	MediaType     string `json:"media_type"`
	Caption       string `json:"caption"`
	Timestamp     string `json:"timestamp"`
	Permalink     string `json:"permalink"`
	Username      string `json:"username"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
}

// Discovery is a persisted UGC record linking a post to its session.
// Uniqueness is keyed on PostURL.
type Discovery struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"session_id"`
	Platform        string    `json:"platform"`
	PostURL         string    `json:"post_url"`
	PostContent     string    `json:"post_content"`
	PostTimestamp   string    `json:"post_timestamp"`
	Likes           int       `json:"likes"`
	Comments        int       `json:"comments"`
	EngagementScore int       `json:"engagement_score"`
	ConfidenceScore float64   `json:"confidence_score"` // stored as score/100
	DiscoveryMethod string    `json:"discovery_method"`
	TrackingCode    string    `json:"tracking_code"`
	Username        string    `json:"instagram_username"`
	SalonHandles    []string  `json:"salon_handles"`
	SourceHashtag   string    `json:"source_hashtag"`
	DiscoveredAt    time.Time `json:"discovered_at"`
}

// DiscoveryMethodHashtag tags discoveries made by the automated hashtag path.
const DiscoveryMethodHashtag = "automated_hashtag"

// RunError is a non-fatal failure captured during a monitoring run.
type RunError struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Run error types. Expected absences (hashtag not found, no match, low
// confidence, duplicate) are counters, never errors.
const (
	ErrTypeCritical      = "critical_failure"
	ErrTypeSessionFetch  = "session_fetch_error"
	ErrTypeHashtagSearch = "hashtag_search_error"
	ErrTypePostProcess   = "post_processing_error"
	ErrTypeSessionUpdate = "session_update_error"
)

// RunReport aggregates the outcome of a single monitoring run.
type RunReport struct {
	Success              bool       `json:"success"`
	Timestamp            time.Time  `json:"timestamp"`
	ExecutionTimeMs      int64      `json:"execution_time_ms"`
	PendingSessionsFound int        `json:"pending_sessions_found"`
	HashtagsSearched     int        `json:"hashtags_searched"`
	PostsFound           int        `json:"posts_found"`
	PostsProcessed       int        `json:"posts_processed"`
	NewDiscoveries       int        `json:"new_discoveries"`
	SessionsCorrelated   int        `json:"sessions_correlated"`
	TrackingCodesFound   int        `json:"tracking_codes_found"`
	DuplicatesSkipped    int        `json:"duplicates_skipped"`
	LowConfidenceSkipped int        `json:"low_confidence_skipped"`
	ProcessingErrors     int        `json:"processing_errors"`
	SessionUpdatesFailed int        `json:"session_updates_failed"`
	Errors               []RunError `json:"errors"`
}

// Alert is an outbound notification about a run outcome.
type Alert struct {
	Title     string     `json:"title"`
	Severity  string     `json:"severity"` // "good", "warning", "danger"
	Message   string     `json:"message"`
	Report    *RunReport `json:"report,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
