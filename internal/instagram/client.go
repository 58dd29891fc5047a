// Package instagram wraps the handful of Instagram Graph API calls the UGC
// monitor depends on: account validation, hashtag search, hashtag media
// listing, and long-lived token refresh.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/postmystyle/ugc-monitor/internal/ugc"
	"github.com/sirupsen/logrus"
)

const (
	fullMediaFields = "id,media_type,caption,timestamp,like_count,comments_count,permalink,username"

	// Some hashtag/media combinations reject engagement and author fields;
	// the listing call degrades to this set instead of failing outright.
	reducedMediaFields = "id,media_type,caption,timestamp"
)

// mediaEndpoints are queried in order and their results merged. Either one
// may fail independently.
var mediaEndpoints = []string{"recent_media", "top_media"}

// Client talks to the Instagram Graph API for a single business account.
type Client struct {
	businessID string
	postLimit  int
	client     *resty.Client

	mu    sync.RWMutex
	token string
}

var _ API = (*Client)(nil)

// NewClient creates a Graph API client. baseURL points at the versioned
// Graph host (overridable for tests).
func NewClient(baseURL, businessID, accessToken string, postLimit int) *Client {
	return &Client{
		businessID: businessID,
		token:      accessToken,
		postLimit:  postLimit,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", "PostMyStyle-UGC-Monitor/1.0"),
	}
}

// DeriveHashtag maps a tracking code to the hashtag users are asked to post:
// the brand token followed by the lower-cased code, no separators.
func DeriveHashtag(trackingCode string) string {
	return ugc.BrandToken + strings.ToLower(strings.TrimSpace(trackingCode))
}

// ValidateCredentials fetches the business account profile. Any failure here
// is fatal for a monitoring run.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var account struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": c.accessToken(),
			"fields":       "id,username",
		}).
		Get("/" + c.businessID)

	if err != nil {
		return fmt.Errorf("instagram api validation failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("instagram api validation returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), &account); err != nil {
		return fmt.Errorf("failed to parse account response: %w", err)
	}

	logrus.Infof("Instagram API validated: @%s", account.Username)
	return nil
}

// SearchHashtag resolves a hashtag string to the platform's hashtag ID.
// Zero results is an expected outcome, not an error.
func (c *Client) SearchHashtag(ctx context.Context, hashtag string) (string, bool, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": c.accessToken(),
			"user_id":      c.businessID,
			"q":            hashtag,
		}).
		Get("/ig_hashtag_search")

	if err != nil {
		return "", false, fmt.Errorf("hashtag search failed for #%s: %w", hashtag, err)
	}

	if resp.StatusCode() != 200 {
		return "", false, fmt.Errorf("hashtag search for #%s returned status %d: %s", hashtag, resp.StatusCode(), string(resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", false, fmt.Errorf("failed to parse hashtag search response: %w", err)
	}

	if len(result.Data) == 0 {
		logrus.Debugf("Hashtag #%s not found", hashtag)
		return "", false, nil
	}

	return result.Data[0].ID, true, nil
}

type mediaResponse struct {
	Data []struct {
		ID            string `json:"id"`
		MediaType     string `json:"media_type"`
		Caption       string `json:"caption"`
		Timestamp     string `json:"timestamp"`
		LikeCount     int    `json:"like_count"`
		CommentsCount int    `json:"comments_count"`
		Permalink     string `json:"permalink"`
		Username      string `json:"username"`
	} `json:"data"`
}

// FetchHashtagPosts queries the recent and top media listings for a hashtag
// and merges the results. A single endpoint failing is logged and skipped;
// both failing is indistinguishable from an empty hashtag apart from the log.
func (c *Client) FetchHashtagPosts(ctx context.Context, hashtagID string) ([]models.Post, error) {
	var allPosts []models.Post

	for _, endpoint := range mediaEndpoints {
		posts, err := c.fetchMediaEndpoint(ctx, hashtagID, endpoint)
		if err != nil {
			logrus.Warnf("%s failed for hashtag %s: %v", endpoint, hashtagID, err)
			continue
		}
		allPosts = append(allPosts, posts...)
	}

	return dedupPosts(allPosts), nil
}

func (c *Client) fetchMediaEndpoint(ctx context.Context, hashtagID, endpoint string) ([]models.Post, error) {
	posts, status, err := c.listMedia(ctx, hashtagID, endpoint, fullMediaFields)
	if err != nil {
		return nil, err
	}

	// Field rejections come back as 400; retry once with the reduced set
	// rather than losing the endpoint entirely.
	if status == 400 {
		logrus.Debugf("%s rejected full field set for hashtag %s, retrying with reduced fields", endpoint, hashtagID)
		posts, status, err = c.listMedia(ctx, hashtagID, endpoint, reducedMediaFields)
		if err != nil {
			return nil, err
		}
	}

	if status != 200 {
		return nil, fmt.Errorf("%s returned status %d", endpoint, status)
	}

	return posts, nil
}

func (c *Client) listMedia(ctx context.Context, hashtagID, endpoint, fields string) ([]models.Post, int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": c.accessToken(),
			"user_id":      c.businessID,
			"fields":       fields,
			"limit":        fmt.Sprintf("%d", c.postLimit),
		}).
		Get(fmt.Sprintf("/%s/%s", hashtagID, endpoint))

	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode() != 200 {
		return nil, resp.StatusCode(), nil
	}

	var media mediaResponse
	if err := json.Unmarshal(resp.Body(), &media); err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}

	posts := make([]models.Post, 0, len(media.Data))
	for _, item := range media.Data {
		post := models.Post{
			ID:            item.ID,
			MediaType:     item.MediaType,
			Caption:       item.Caption,
			Timestamp:     item.Timestamp,
			Permalink:     item.Permalink,
			Username:      item.Username,
			LikeCount:     item.LikeCount,
			CommentsCount: item.CommentsCount,
		}
		if post.Permalink == "" {
			post.Permalink = constructPermalink(post.ID)
		}
		posts = append(posts, post)
	}

	return posts, resp.StatusCode(), nil
}

// constructPermalink builds a stable post URL when the platform withholds the
// permalink field (reduced field set). Dedup keys on this URL, so it must be
// deterministic per post.
func constructPermalink(postID string) string {
	return fmt.Sprintf("https://www.instagram.com/p/%s/", postID)
}

func dedupPosts(posts []models.Post) []models.Post {
	seen := make(map[string]bool)
	var unique []models.Post

	for _, post := range posts {
		if !seen[post.ID] {
			seen[post.ID] = true
			unique = append(unique, post)
		}
	}

	return unique
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}
