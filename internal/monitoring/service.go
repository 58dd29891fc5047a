// Package monitoring coordinates the UGC discovery pipeline: pending
// sessions are pulled from storage, each session's derived hashtag is
// searched on Instagram, candidate posts are parsed and correlated, and
// accepted matches are recorded as discoveries.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/postmystyle/ugc-monitor/internal/archive"
	"github.com/postmystyle/ugc-monitor/internal/config"
	"github.com/postmystyle/ugc-monitor/internal/instagram"
	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/postmystyle/ugc-monitor/internal/notifications"
	"github.com/postmystyle/ugc-monitor/internal/storage"
	"github.com/postmystyle/ugc-monitor/internal/ugc"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds a whole monitoring run; a serverless-style invocation
// would impose the same limit from outside.
const runTimeout = 10 * time.Minute

// archivePrefix names archived run-report blobs. The timestamp suffix sorts
// lexically in chronological order.
const archivePrefix = "ugc-run-"

// Service runs the UGC discovery pipeline.
type Service struct {
	config   *config.Config
	store    storage.Store
	graph    instagram.API
	notifier notifications.NotificationInterface
	archiver archive.Archiver // optional

	mu         sync.RWMutex
	lastReport *models.RunReport
}

// NewService creates a new monitoring service. archiver may be nil when
// report archival is not configured.
func NewService(cfg *config.Config, store storage.Store, graph instagram.API, notifier notifications.NotificationInterface, archiver archive.Archiver) *Service {
	return &Service{
		config:   cfg,
		store:    store,
		graph:    graph,
		notifier: notifier,
		archiver: archiver,
	}
}

// runState guards the shared report while sessions in a batch run
// concurrently.
type runState struct {
	mu     sync.Mutex
	report *models.RunReport
}

func (st *runState) addError(errType, sessionID, postID, message string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.report.Errors = append(st.report.Errors, models.RunError{
		Type:      errType,
		SessionID: sessionID,
		PostID:    postID,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (st *runState) update(fn func(r *models.RunReport)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st.report)
}

// Run performs one full monitoring pass and returns its report. Connectivity
// failures are fatal; everything past the connectivity check degrades to
// per-session or per-post errors in the report.
func (s *Service) Run(ctx context.Context) *models.RunReport {
	start := time.Now()
	logrus.Info("Starting UGC monitoring run")

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	state := &runState{report: &models.RunReport{
		Success:   true,
		Timestamp: start,
	}}

	if err := s.validateConnectivity(ctx); err != nil {
		logrus.Errorf("UGC monitor critical failure: %v", err)
		state.report.Success = false
		state.addError(models.ErrTypeCritical, "", "", err.Error())
		s.finishRun(state.report, start)
		s.sendCriticalAlert(err, state.report)
		return state.report
	}

	sessions, err := s.store.PendingSessions(ctx)
	if err != nil {
		logrus.Errorf("Failed to fetch pending sessions: %v", err)
		state.addError(models.ErrTypeSessionFetch, "", "", err.Error())
		s.finishRun(state.report, start)
		return state.report
	}

	state.report.PendingSessionsFound = len(sessions)
	logrus.Infof("Checking %d pending sessions for UGC", len(sessions))

	s.processSessions(ctx, sessions, state)

	s.finishRun(state.report, start)
	logrus.Infof("UGC monitor complete: %d new discoveries, %d sessions correlated in %dms",
		state.report.NewDiscoveries, state.report.SessionsCorrelated, state.report.ExecutionTimeMs)

	s.archiveReport(state.report)
	if state.report.NewDiscoveries > 0 {
		s.sendDiscoveryAlert(state.report)
	}

	return state.report
}

func (s *Service) validateConnectivity(ctx context.Context) error {
	if err := s.graph.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("instagram connectivity check failed: %w", err)
	}

	if err := s.store.Ready(ctx); err != nil {
		return fmt.Errorf("storage connectivity check failed: %w", err)
	}

	return nil
}

// processSessions walks the pending sessions in fixed-size batches. Sessions
// inside a batch run concurrently with a small launch stagger; batches are
// separated by a longer pause to respect upstream rate limits.
func (s *Service) processSessions(ctx context.Context, sessions []models.Session, state *runState) {
	batchSize := s.config.SessionBatchSize

	for i := 0; i < len(sessions); i += batchSize {
		end := i + batchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		batch := sessions[i:end]

		var wg sync.WaitGroup
		for j, session := range batch {
			if j > 0 && !sleepCtx(ctx, s.config.SessionDelay) {
				break
			}

			wg.Add(1)
			go func(sess models.Session) {
				defer wg.Done()
				s.processSession(ctx, sess, state)
			}(session)
		}
		wg.Wait()

		if ctx.Err() != nil {
			logrus.Warn("Monitoring run cancelled, returning partial results")
			return
		}

		if end < len(sessions) && !sleepCtx(ctx, s.config.BatchDelay) {
			logrus.Warn("Monitoring run cancelled between batches, returning partial results")
			return
		}
	}
}

func (s *Service) processSession(ctx context.Context, session models.Session, state *runState) {
	if session.TrackingCode == "" || session.Status != models.StatusPending {
		logrus.Debugf("Session %s not eligible for matching, skipping", session.ID)
		return
	}

	hashtag := instagram.DeriveHashtag(session.TrackingCode)
	logrus.Infof("Searching hashtag #%s for session %s", hashtag, session.ID)
	state.update(func(r *models.RunReport) { r.HashtagsSearched++ })

	hashtagID, found, err := s.graph.SearchHashtag(ctx, hashtag)
	if err != nil {
		logrus.Errorf("Hashtag search failed for session %s: %v", session.ID, err)
		state.addError(models.ErrTypeHashtagSearch, session.ID, "", err.Error())
		return
	}
	if !found {
		logrus.Debugf("Hashtag #%s not found, nothing posted yet", hashtag)
		return
	}

	posts, err := s.graph.FetchHashtagPosts(ctx, hashtagID)
	if err != nil {
		logrus.Errorf("Post fetch failed for session %s: %v", session.ID, err)
		state.addError(models.ErrTypeHashtagSearch, session.ID, "", err.Error())
		return
	}

	if len(posts) == 0 {
		logrus.Debugf("No posts found for #%s", hashtag)
		return
	}

	state.update(func(r *models.RunReport) { r.PostsFound += len(posts) })
	logrus.Infof("Processing %d posts from #%s", len(posts), hashtag)

	// Posts within a session are handled strictly in order so dedup checks
	// and counters stay deterministic.
	for _, post := range posts {
		s.processPost(ctx, post, session, hashtag, state)
	}
}

func (s *Service) processPost(ctx context.Context, post models.Post, session models.Session, sourceHashtag string, state *runState) {
	if post.Caption == "" {
		return
	}

	codes := ugc.ExtractTrackingCodes(post.Caption)
	if len(codes) == 0 {
		logrus.Debugf("No tracking codes in post %s", post.ID)
		return
	}
	state.update(func(r *models.RunReport) { r.TrackingCodesFound += len(codes) })

	matchedCode, ok := ugc.MatchTrackingCode(codes, session.TrackingCode)
	if !ok {
		logrus.Debugf("Post %s codes %v do not match session code %s", post.ID, codes, session.TrackingCode)
		return
	}

	salonHandles := ugc.ExtractSalonMentions(post.Caption)
	score := ugc.ConfidenceScore(post, matchedCode, salonHandles)
	if score < s.config.MinConfidence {
		logrus.Infof("Low confidence score (%d%%) for post %s, skipping", score, post.ID)
		state.update(func(r *models.RunReport) { r.LowConfidenceSkipped++ })
		return
	}

	state.update(func(r *models.RunReport) { r.PostsProcessed++ })
	logrus.Infof("UGC candidate accepted: post %s, code %s, user @%s, confidence %d%%",
		post.ID, matchedCode, post.Username, score)

	exists, err := s.store.DiscoveryExists(ctx, post.Permalink)
	if err != nil {
		logrus.Errorf("Dedup check failed for post %s: %v", post.ID, err)
		state.update(func(r *models.RunReport) { r.ProcessingErrors++ })
		state.addError(models.ErrTypePostProcess, session.ID, post.ID, err.Error())
		return
	}
	if exists {
		logrus.Debugf("Post %s already discovered, skipping", post.ID)
		state.update(func(r *models.RunReport) { r.DuplicatesSkipped++ })
		return
	}

	discovery := models.Discovery{
		SessionID:       session.ID,
		Platform:        "instagram",
		PostURL:         post.Permalink,
		PostContent:     post.Caption,
		PostTimestamp:   post.Timestamp,
		Likes:           post.LikeCount,
		Comments:        post.CommentsCount,
		EngagementScore: post.LikeCount + post.CommentsCount,
		ConfidenceScore: float64(score) / 100,
		DiscoveryMethod: models.DiscoveryMethodHashtag,
		TrackingCode:    matchedCode,
		Username:        post.Username,
		SalonHandles:    salonHandles,
		SourceHashtag:   sourceHashtag,
		DiscoveredAt:    time.Now(),
	}

	if err := s.store.InsertDiscovery(ctx, discovery); err != nil {
		logrus.Errorf("Failed to record discovery for post %s: %v", post.ID, err)
		state.update(func(r *models.RunReport) { r.ProcessingErrors++ })
		state.addError(models.ErrTypePostProcess, session.ID, post.ID, err.Error())
		return
	}
	state.update(func(r *models.RunReport) { r.NewDiscoveries++ })

	// Best-effort status flip: a failure here is counted but never rolls
	// back the discovery.
	flipped, err := s.store.MarkSessionDiscovered(ctx, session.ID)
	if err != nil {
		logrus.Errorf("Session status update failed for %s: %v", session.ID, err)
		state.update(func(r *models.RunReport) { r.SessionUpdatesFailed++ })
		state.addError(models.ErrTypeSessionUpdate, session.ID, post.ID, err.Error())
		return
	}
	if flipped {
		state.update(func(r *models.RunReport) { r.SessionsCorrelated++ })
		logrus.Infof("Session %s correlated via tracking code %s", session.ID, matchedCode)
	}
}

func (s *Service) finishRun(report *models.RunReport, start time.Time) {
	report.ExecutionTimeMs = time.Since(start).Milliseconds()
	if report.Errors == nil {
		report.Errors = []models.RunError{}
	}

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()
}

func (s *Service) archiveReport(report *models.RunReport) {
	if s.archiver == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		logrus.Errorf("Failed to marshal run report: %v", err)
		return
	}

	filename := fmt.Sprintf("%s%s.json", archivePrefix, report.Timestamp.Format("2006-01-02-15-04-05"))
	if err := s.archiver.Store(filename, data); err != nil {
		logrus.Errorf("Failed to archive run report: %v", err)
	}
}

func (s *Service) sendDiscoveryAlert(report *models.RunReport) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAlert(notifications.NewDiscoveryAlert(report)); err != nil {
		logrus.Errorf("Failed to send discovery alert: %v", err)
	}
}

func (s *Service) sendCriticalAlert(runErr error, report *models.RunReport) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAlert(notifications.NewCriticalAlert(runErr, report)); err != nil {
		logrus.Errorf("Failed to send critical alert: %v", err)
	}
}

// LatestReport returns the most recent run report, or nil before the first
// run completes.
func (s *Service) LatestReport() *models.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// LatestReportJSON returns the most recent run report as JSON. When no run
// has completed in this process it falls back to the newest archived
// snapshot; nil data with a nil error means no report exists anywhere.
func (s *Service) LatestReportJSON() ([]byte, error) {
	if report := s.LatestReport(); report != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("marshal run report: %w", err)
		}
		return data, nil
	}

	if s.archiver == nil {
		return nil, nil
	}

	names, err := s.archiver.List(archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("list archived reports: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	sort.Strings(names)
	newest := names[len(names)-1]

	data, err := s.archiver.Retrieve(newest)
	if err != nil {
		return nil, fmt.Errorf("retrieve archived report %s: %w", newest, err)
	}

	return data, nil
}

// Metrics returns the latest report as indented JSON for the metrics
// endpoint.
func (s *Service) Metrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastReport == nil {
		return `{"status":"no runs completed yet"}`
	}

	data, _ := json.MarshalIndent(s.lastReport, "", "  ")
	return string(data)
}

// sleepCtx pauses for d unless the context ends first; it reports whether the
// full pause elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
