package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public read-only Firebase endpoint
const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// maxResponseSize caps every response body at 10MB
const maxResponseSize = 10 * 1024 * 1024

// ClientOptions tunes the remote item client
type ClientOptions struct {
	BaseURL        string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	BatchWorkers   int
}

// DefaultClientOptions mirror the values the web client used
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:        DefaultBaseURL,
		CacheTTL:       10 * time.Minute,
		RequestTimeout: 10 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Second,
		BatchWorkers:   10,
	}
}

// Client wraps the Firebase HN API with a TTL cache, retries and
// per-key request de-duplication.
type Client struct {
	opts       ClientOptions
	httpClient *http.Client

	items *ttlCache[*Item]
	users *ttlCache[*User]
	lists *ttlCache[[]int]

	inflight singleflight.Group
}

// NewClient creates a client; zero option fields fall back to the defaults
func NewClient(opts ClientOptions) *Client {
	def := DefaultClientOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = def.RetryAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = def.RetryBaseDelay
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = def.BatchWorkers
	}

	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		items:      newTTLCache[*Item](opts.CacheTTL),
		users:      newTTLCache[*User](opts.CacheTTL),
		lists:      newTTLCache[[]int](opts.CacheTTL),
	}
}

func itemCacheKey(id int) string {
	return fmt.Sprintf("item:%d", id)
}

func userCacheKey(handle string) string {
	return "user:" + handle
}

func listCacheKey(kind StoryKind) string {
	return "list:" + string(kind)
}

// Invalidate drops one cache key ("item:1", "user:pg", "list:top")
func (c *Client) Invalidate(key string) {
	switch {
	case strings.HasPrefix(key, "item:"):
		c.items.Delete(key)
	case strings.HasPrefix(key, "user:"):
		c.users.Delete(key)
	case strings.HasPrefix(key, "list:"):
		c.lists.Delete(key)
	}
}

// FetchItem returns the item with the given id, or nil if the API reports none
func (c *Client) FetchItem(ctx context.Context, id int) (*Item, error) {
	key := itemCacheKey(id)
	if item, ok := c.items.Get(key); ok {
		slog.Debug("Cache hit", "key", key)
		return item, nil
	}

	return shared(ctx, &c.inflight, key, func(ctx context.Context) (*Item, error) {
		// A concurrent call may have filled the cache while we waited for the group
		if item, ok := c.items.Get(key); ok {
			return item, nil
		}

		u := fmt.Sprintf("%s/item/%d.json", c.opts.BaseURL, id)
		item, err := retryWithBackoff(ctx, c.opts.RetryAttempts, c.opts.RetryBaseDelay, func(ctx context.Context) (*Item, error) {
			var item *Item
			if err := c.getJSON(ctx, u, &item); err != nil {
				return nil, err
			}
			return item, nil
		})
		if err != nil {
			slog.Warn("Failed to fetch item", "hn_id", id, "error", err)
			return nil, err
		}
		if item == nil {
			slog.Debug("Item does not exist", "hn_id", id)
			return nil, nil
		}
		if item.ID != id {
			return nil, &MalformedResponseError{URL: u, Err: fmt.Errorf("expected item %d, got id %d", id, item.ID)}
		}

		c.items.Set(key, item)
		return item, nil
	})
}

// FetchUser returns the profile for handle, or nil if it does not exist.
// User lookups are attempted once and never retried.
func (c *Client) FetchUser(ctx context.Context, handle string) (*User, error) {
	key := userCacheKey(handle)
	if user, ok := c.users.Get(key); ok {
		slog.Debug("Cache hit", "key", key)
		return user, nil
	}

	return shared(ctx, &c.inflight, key, func(ctx context.Context) (*User, error) {
		if user, ok := c.users.Get(key); ok {
			return user, nil
		}

		u := fmt.Sprintf("%s/user/%s.json", c.opts.BaseURL, url.PathEscape(handle))
		var user *User
		if err := c.getJSON(ctx, u, &user); err != nil {
			slog.Warn("Failed to fetch user", "user", handle, "error", err)
			return nil, err
		}
		if user == nil {
			return nil, nil
		}
		if user.ID == "" {
			return nil, &MalformedResponseError{URL: u, Err: errors.New("user without id")}
		}

		c.users.Set(key, user)
		return user, nil
	})
}

// FetchMaxItemID always goes to the network
func (c *Client) FetchMaxItemID(ctx context.Context) (int, error) {
	u := c.opts.BaseURL + "/maxitem.json"
	return retryWithBackoff(ctx, c.opts.RetryAttempts, c.opts.RetryBaseDelay, func(ctx context.Context) (int, error) {
		var maxID int
		if err := c.getJSON(ctx, u, &maxID); err != nil {
			return 0, err
		}
		return maxID, nil
	})
}

// FetchIDList returns the ordered ids of one story list
func (c *Client) FetchIDList(ctx context.Context, kind StoryKind) ([]int, error) {
	key := listCacheKey(kind)
	if ids, ok := c.lists.Get(key); ok {
		slog.Debug("Cache hit", "key", key)
		return ids, nil
	}

	return shared(ctx, &c.inflight, key, func(ctx context.Context) ([]int, error) {
		if ids, ok := c.lists.Get(key); ok {
			return ids, nil
		}

		u := fmt.Sprintf("%s/%s.json", c.opts.BaseURL, kind.endpoint())
		ids, err := retryWithBackoff(ctx, c.opts.RetryAttempts, c.opts.RetryBaseDelay, func(ctx context.Context) ([]int, error) {
			var ids []int
			if err := c.getJSON(ctx, u, &ids); err != nil {
				return nil, err
			}
			return ids, nil
		})
		if err != nil {
			slog.Warn("Failed to fetch story list", "kind", kind, "error", err)
			return nil, err
		}
		if ids == nil {
			return nil, &MalformedResponseError{URL: u, Err: errors.New("null story list")}
		}

		slog.Debug("Fetched story list", "kind", kind, "count", len(ids))
		c.lists.Set(key, ids)
		return ids, nil
	})
}

// FetchUpdates returns the items and profiles changed recently
func (c *Client) FetchUpdates(ctx context.Context) (*Updates, error) {
	u := c.opts.BaseURL + "/updates.json"
	return retryWithBackoff(ctx, c.opts.RetryAttempts, c.opts.RetryBaseDelay, func(ctx context.Context) (*Updates, error) {
		var updates Updates
		if err := c.getJSON(ctx, u, &updates); err != nil {
			return nil, err
		}
		return &updates, nil
	})
}

// FetchItemsBatch fetches the first limit ids (all when limit <= 0) concurrently.
// result[i] corresponds to ids[i]; missing items and failed fetches leave a nil slot.
// Failures are reported as a *BatchError next to the partial result.
func (c *Client) FetchItemsBatch(ctx context.Context, ids []int, limit int) ([]*Item, error) {
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	results := make([]*Item, len(ids))
	failures := make([]error, len(ids))

	slog.Debug("Fetching item batch", "count", len(ids), "workers", c.opts.BatchWorkers)

	var g errgroup.Group
	g.SetLimit(c.opts.BatchWorkers)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			item, err := c.FetchItem(ctx, id)
			results[i] = item
			failures[i] = err
			return nil
		})
	}
	_ = g.Wait()

	var batchErr *BatchError
	for i, err := range failures {
		if err == nil {
			continue
		}
		if batchErr == nil {
			batchErr = &BatchError{Failed: make(map[int]error)}
		}
		batchErr.Failed[ids[i]] = err
	}
	if batchErr != nil {
		slog.Warn("Item batch partially failed", "failed", len(batchErr.Failed), "total", len(ids))
		return results, batchErr
	}
	return results, nil
}

// getJSON performs one GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "hnlive/1.0")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{URL: u, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return &NetworkError{URL: u, StatusCode: res.StatusCode, Err: errors.New(res.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize+1))
	if err != nil {
		return &NetworkError{URL: u, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(body) > maxResponseSize {
		return &MalformedResponseError{URL: u, Err: fmt.Errorf("response too large (exceeds %d bytes)", maxResponseSize)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{URL: u, Err: err}
	}
	return nil
}

// shared runs fn once per key across concurrent callers. The work runs on a
// context that ignores the first caller's cancellation so other waiters still
// get a result; each caller stops waiting when its own ctx is done.
func shared[T any](ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			slog.Debug("Joined in-flight request", "key", key)
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
