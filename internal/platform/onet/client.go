// Package onet talks to the O*NET Web Services occupation catalog. All calls
// pass through a client-side sliding-window rate limiter so bursts of role
// lookups stay inside the upstream quota.
package onet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cartographai/discovery-backend/internal/observability"
	"github.com/cartographai/discovery-backend/internal/platform/httpx"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// Occupation is a catalog search hit.
type Occupation struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// DetailedActivity is one detailed work activity attached to an occupation.
// ExposureScore is nil when the catalog has no automation-exposure estimate
// for the activity.
type DetailedActivity struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ExposureScore *float64 `json:"exposure_score,omitempty"`
}

type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindNotFound
	KindRateLimited
	KindAuth
)

type CatalogError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("onet http %d: %s", e.StatusCode, e.Body)
}

func (e *CatalogError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// KindOf extracts the catalog error kind, KindGeneric for foreign errors.
func KindOf(err error) ErrorKind {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindGeneric
}

// Client is the occupation catalog surface the engine depends on.
type Client interface {
	// Search returns up to limit occupations matching keyword; limit <= 0
	// uses the default of 20.
	Search(ctx context.Context, keyword string, limit int) ([]Occupation, error)
	// ActivitiesForOccupation returns the detailed work activities for one
	// occupation code.
	ActivitiesForOccupation(ctx context.Context, code string) ([]DetailedActivity, error)
}

const defaultSearchLimit = 20

type client struct {
	log        *logger.Logger
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limiter    *windowLimiter
	cache      *SearchCache

	maxRetries int
}

// NewClient builds a catalog client from the environment. cache may be nil.
func NewClient(log *logger.Logger, cache *SearchCache) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	username := strings.TrimSpace(os.Getenv("ONET_USERNAME"))
	password := strings.TrimSpace(os.Getenv("ONET_PASSWORD"))
	if username == "" || password == "" {
		return nil, fmt.Errorf("missing ONET_USERNAME / ONET_PASSWORD")
	}

	baseURL := strings.TrimSpace(os.Getenv("ONET_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://services.onetcenter.org/ws"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	limit := 10
	if v := os.Getenv("ONET_RATE_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	timeoutSec := 30
	if v := os.Getenv("ONET_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("ONET_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "OnetClient"),
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		limiter:    newWindowLimiter(limit, time.Second),
		cache:      cache,
		maxRetries: maxRetries,
	}, nil
}

type searchResponse struct {
	Occupation []struct {
		Code        string `json:"code"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"occupation"`
}

func (c *client) Search(ctx context.Context, keyword string, limit int) ([]Occupation, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []Occupation{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if hits, ok := c.cache.GetSearch(ctx, keyword, limit); ok {
		return hits, nil
	}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("end", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.do(ctx, "/online/search?"+q.Encode(), "search", &resp); err != nil {
		return nil, err
	}

	out := make([]Occupation, 0, len(resp.Occupation))
	for _, o := range resp.Occupation {
		code := strings.TrimSpace(o.Code)
		if code == "" {
			continue
		}
		out = append(out, Occupation{
			Code:        code,
			Title:       strings.TrimSpace(o.Title),
			Description: strings.TrimSpace(o.Description),
		})
		if len(out) == limit {
			break
		}
	}

	c.cache.PutSearch(ctx, keyword, limit, out)
	return out, nil
}

type activitiesResponse struct {
	Element []struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		ExposureScore *float64 `json:"exposure_score"`
	} `json:"element"`
}

func (c *client) ActivitiesForOccupation(ctx context.Context, code string) ([]DetailedActivity, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("occupation code required")
	}

	path := "/online/occupations/" + url.PathEscape(code) + "/details/detailed_work_activities"
	var resp activitiesResponse
	if err := c.do(ctx, path, "activities", &resp); err != nil {
		return nil, err
	}

	out := make([]DetailedActivity, 0, len(resp.Element))
	for _, el := range resp.Element {
		id := strings.TrimSpace(el.ID)
		if id == "" {
			continue
		}
		out = append(out, DetailedActivity{
			ID:            id,
			Name:          strings.TrimSpace(el.Name),
			ExposureScore: el.ExposureScore,
		})
	}
	return out, nil
}

func (c *client) doOnce(ctx context.Context, path, endpoint string) ([]byte, *http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.Current().ObserveCatalogRequest(endpoint, "transport_error", time.Since(start))
		return nil, nil, err
	}
	observability.Current().ObserveCatalogRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &CatalogError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       truncateBody(raw),
		}
	}
	return raw, resp, nil
}

func (c *client) do(ctx context.Context, path, endpoint string, out any) error {
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, resp, err := c.doOnce(ctx, path, endpoint)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("onet decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 5*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Catalog request retrying",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status == 401 || status == 403:
		return KindAuth
	default:
		return KindGeneric
	}
}

func truncateBody(raw []byte) string {
	const max = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max]
	}
	return s
}
