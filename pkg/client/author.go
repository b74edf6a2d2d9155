package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// AuthorProfile is the public author view served by the auth service.
type AuthorProfile struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthorClient fetches public author profiles for post enrichment,
// caching them in redis for a short TTL. With no redis configured
// every lookup goes to the auth service directly.
type AuthorClient struct {
	BaseURL    string
	HTTPClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewAuthorClient creates the author-lookup client. rdb may be nil.
func NewAuthorClient(baseURL string, timeout time.Duration, rdb *redis.Client, cacheTTL time.Duration) *AuthorClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AuthorClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		redis:      rdb,
		cacheTTL:   cacheTTL,
	}
}

// GetPublicProfile returns the author profile, from cache when fresh.
func (c *AuthorClient) GetPublicProfile(ctx context.Context, userID uint) (*AuthorProfile, error) {
	cacheKey := fmt.Sprintf("author:public:%d", userID)

	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var profile AuthorProfile
			if err := json.Unmarshal(cached, &profile); err == nil {
				return &profile, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/users/%d/public", c.BaseURL, userID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("author lookup returned %d: %s", resp.StatusCode, string(detail))
	}

	var profile AuthorProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	if c.redis != nil {
		if payload, err := json.Marshal(&profile); err == nil {
			// Cache failures are not worth failing the lookup over.
			_ = c.redis.Set(ctx, cacheKey, payload, c.cacheTTL).Err()
		}
	}
	return &profile, nil
}
