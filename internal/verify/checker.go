// Package verify probes leak-site post URLs to see whether the posts are
// still being served. A claim whose post vanished may have been settled or
// retracted; the per-group tallies give that signal without feeding the
// credibility formulas.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/util"
)

const maxRetries = 3

// sleepFunc is the sleep used between retries (injectable for tests)
var sleepFunc = time.Sleep

// Status classifies the outcome of one URL check
type Status string

const (
	StatusAlive   Status = "alive"   // Answered with a success or redirect
	StatusGone    Status = "gone"    // 404 or 410: the post is no longer served
	StatusBlocked Status = "blocked" // robots.txt disallow or access denied
	StatusError   Status = "error"   // Network failure or persistent server error
)

// CheckResult is the outcome of probing one post URL
type CheckResult struct {
	Group      string `json:"group"`
	URL        string `json:"url"`
	Status     Status `json:"status"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Checker probes post URLs concurrently
type Checker struct {
	httpClient *http.Client
	maxWorkers int
	robots     *util.RobotsChecker
	userAgent  string
}

// NewChecker creates a checker from configuration
func NewChecker(cfg *model.Config) *Checker {
	workers := cfg.Verify.Workers
	if workers <= 0 {
		workers = 20
	}

	client := &http.Client{
		Timeout: cfg.Verify.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	return &Checker{
		httpClient: client,
		maxWorkers: workers,
		robots:     util.NewRobotsChecker(client, cfg.HTTP.UserAgent),
		userAgent:  cfg.HTTP.UserAgent,
	}
}

// Check probes the distinct post URLs of the given claims. Duplicate URLs
// are checked once, attributed to the first group that carried them; claims
// without a post URL are skipped. Result order follows first appearance.
func (c *Checker) Check(ctx context.Context, claims []model.Claim) []CheckResult {
	type target struct {
		group string
		url   string
	}

	seen := make(map[string]bool)
	var targets []target
	for _, claim := range claims {
		u := strings.TrimSpace(claim.PostURL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		targets = append(targets, target{group: claim.Group, url: u})
	}

	results := make([]CheckResult, len(targets))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, tg := range targets {
		wg.Add(1)
		go func(idx int, group, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = CheckResult{
					Group:  group,
					URL:    rawURL,
					Status: StatusError,
					Error:  "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, group, rawURL)
		}(i, tg.group, tg.url)
	}
	wg.Wait()

	return results
}

// checkWithRetry retries transient failures with exponential backoff
func (c *Checker) checkWithRetry(ctx context.Context, group, rawURL string) CheckResult {
	var result CheckResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		result = c.checkSingle(ctx, group, rawURL)
		if !isRetryable(result) {
			return result
		}
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			sleepFunc(backoff)
		}
	}
	return result
}

// checkSingle probes one URL. HEAD first; a site that rejects the method
// gets one GET.
func (c *Checker) checkSingle(ctx context.Context, group, rawURL string) CheckResult {
	result := CheckResult{Group: group, URL: rawURL}

	if !c.robots.Allowed(ctx, rawURL) {
		result.Status = StatusBlocked
		result.Error = "disallowed by robots.txt"
		return result
	}

	status, err := c.probe(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = c.probe(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		return result
	}

	result.HTTPStatus = status
	switch {
	case status >= 200 && status < 400:
		result.Status = StatusAlive
	case status == http.StatusNotFound || status == http.StatusGone:
		result.Status = StatusGone
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		result.Status = StatusBlocked
	default:
		result.Status = StatusError
	}
	return result
}

func (c *Checker) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}

// isRetryable reports whether the result indicates a transient failure
func isRetryable(result CheckResult) bool {
	if result.HTTPStatus >= 500 && result.HTTPStatus < 600 {
		return true
	}
	if result.HTTPStatus == http.StatusTooManyRequests {
		return true
	}
	if result.Status == StatusError && result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
