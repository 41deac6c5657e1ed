package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultStoryLimit = 30

// ItemSource is the remote side of the DataManager; *Client implements it
type ItemSource interface {
	FetchItem(ctx context.Context, id int) (*Item, error)
	FetchUser(ctx context.Context, handle string) (*User, error)
	FetchMaxItemID(ctx context.Context) (int, error)
	FetchIDList(ctx context.Context, kind StoryKind) ([]int, error)
	FetchItemsBatch(ctx context.Context, ids []int, limit int) ([]*Item, error)
	FetchUpdates(ctx context.Context) (*Updates, error)
	Invalidate(key string)
}

// ManagerOptions tunes the DataManager
type ManagerOptions struct {
	// StreamMaxGap caps how many ids one live-stream poll fetches
	StreamMaxGap int
}

// storyList remembers how many leading ids of the list it answers for
type storyList struct {
	stories []*Item
	covers  int
}

// DataManager is the application-facing cache over an ItemSource.
// Its caches never expire; they are replaced on forced refresh or reset by ClearCache.
// Construct one per application and share it.
type DataManager struct {
	source ItemSource
	events *Emitter
	opts   ManagerOptions

	mu       sync.RWMutex
	stories  map[StoryKind]storyList
	items    map[int]*Item
	users    map[string]*User
	stats    Stats
	inFlight map[string]int

	group singleflight.Group
}

func NewDataManager(source ItemSource, opts ManagerOptions) *DataManager {
	if opts.StreamMaxGap <= 0 {
		opts.StreamMaxGap = 500
	}
	return &DataManager{
		source:   source,
		events:   NewEmitter(),
		opts:     opts,
		stories:  make(map[StoryKind]storyList),
		items:    make(map[int]*Item),
		users:    make(map[string]*User),
		inFlight: make(map[string]int),
	}
}

// On subscribes to a DataManager event
func (m *DataManager) On(event string, handler Handler) ListenerID {
	return m.events.On(event, handler)
}

// Off removes a subscription created by On
func (m *DataManager) Off(event string, id ListenerID) {
	m.events.Off(event, id)
}

func (m *DataManager) emit(event string, payload any) {
	m.events.Emit(event, payload)
}

func (m *DataManager) fail(op, key string, err error) error {
	slog.Error("Load failed", "op", op, "key", key, "error", err)
	m.emit(EventError, ErrorEvent{Op: op, Key: key, Err: err})
	return err
}

// begin marks key in flight. The returned func clears it from the in-flight set
// and the singleflight group; call it before emitting so a handler that loads
// the same key starts a new call.
func (m *DataManager) begin(key string) (done func()) {
	m.mu.Lock()
	m.inFlight[key]++
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.group.Forget(key)
			m.mu.Lock()
			if m.inFlight[key]--; m.inFlight[key] <= 0 {
				delete(m.inFlight, key)
			}
			m.mu.Unlock()
		})
	}
}

// GetStories returns up to limit stories of kind, from cache unless forceRefresh.
// Concurrent callers for the same kind share one fetch.
func (m *DataManager) GetStories(ctx context.Context, kind StoryKind, limit int, forceRefresh bool) ([]*Item, error) {
	if limit <= 0 {
		limit = defaultStoryLimit
	}
	if !forceRefresh {
		if stories, ok := m.cachedStories(kind, limit); ok {
			slog.Debug("Using cached stories", "kind", kind, "count", len(stories))
			return stories, nil
		}
	}

	key := "stories:" + string(kind)
	stories, err := shared(ctx, &m.group, key, func(ctx context.Context) ([]*Item, error) {
		done := m.begin(key)
		defer done()
		return m.loadStories(ctx, kind, limit, forceRefresh, done)
	})
	if err != nil {
		return nil, err
	}
	return trim(stories, limit), nil
}

func (m *DataManager) cachedStories(kind StoryKind, limit int) ([]*Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.stories[kind]
	if !ok || limit > list.covers {
		return nil, false
	}
	return trim(list.stories, limit), true
}

func (m *DataManager) loadStories(ctx context.Context, kind StoryKind, limit int, forceRefresh bool, done func()) ([]*Item, error) {
	slog.Info("Fetching stories", "kind", kind, "limit", limit)
	if forceRefresh {
		m.source.Invalidate(listCacheKey(kind))
	}

	ids, err := m.source.FetchIDList(ctx, kind)
	if err != nil {
		done()
		return nil, m.fail("stories", string(kind), fmt.Errorf("failed to fetch %s story ids: %w", kind, err))
	}
	total := len(ids)
	ids = trimIDs(ids, limit)
	if forceRefresh {
		for _, id := range ids {
			m.source.Invalidate(itemCacheKey(id))
		}
	}

	fetched, err := m.source.FetchItemsBatch(ctx, ids, 0)
	covers := 0
	if err == nil {
		covers = limit
		if total <= limit {
			covers = math.MaxInt
		}
	}
	stories := make([]*Item, 0, len(fetched))
	for _, item := range fetched {
		if item != nil {
			stories = append(stories, item)
		}
	}
	if err != nil {
		if len(stories) == 0 {
			done()
			return nil, m.fail("stories", string(kind), fmt.Errorf("failed to fetch %s stories: %w", kind, err))
		}
		slog.Warn("Some stories failed to load", "kind", kind, "loaded", len(stories), "requested", len(ids), "error", err)
	}

	m.mu.Lock()
	m.stories[kind] = storyList{stories: stories, covers: covers}
	for _, story := range stories {
		m.items[story.ID] = story
	}
	// an empty list keeps the previous stats
	statsChanged := len(stories) > 0
	if statsChanged {
		m.stats = computeStats(stories)
	}
	stats := m.stats
	m.mu.Unlock()
	done()

	slog.Info("Loaded stories", "kind", kind, "count", len(stories))
	if statsChanged {
		m.emit(EventStatsUpdated, stats)
	}
	m.emit(EventStoriesUpdated, StoriesUpdatedEvent{Kind: kind, Stories: copyItems(stories)})
	m.emit(KindStoriesUpdated(kind), copyItems(stories))
	return stories, nil
}

// GetItem returns one item, or nil when the API has no such item
func (m *DataManager) GetItem(ctx context.Context, id int, forceRefresh bool) (*Item, error) {
	if !forceRefresh {
		if item := m.CachedItem(id); item != nil {
			slog.Debug("Using cached item", "hn_id", id)
			return item, nil
		}
	}

	key := itemCacheKey(id)
	return shared(ctx, &m.group, key, func(ctx context.Context) (*Item, error) {
		done := m.begin(key)
		defer done()
		if forceRefresh {
			m.source.Invalidate(key)
		}

		item, err := m.source.FetchItem(ctx, id)
		if err != nil {
			done()
			return nil, m.fail("item", key, fmt.Errorf("failed to fetch item %d: %w", id, err))
		}
		if item != nil {
			m.mu.Lock()
			m.items[id] = item
			m.mu.Unlock()
		}
		done()

		m.emit(EventItemLoaded, ItemLoadedEvent{ID: id, Item: item})
		return item, nil
	})
}

// GetMultipleItems returns the first limit ids (all when limit <= 0) in input
// order, fetching only the ones not cached. Missing items and failed fetches are
// left out rather than failing the call.
func (m *DataManager) GetMultipleItems(ctx context.Context, ids []int, limit int) []*Item {
	return m.loadItems(ctx, trimIDs(ids, limit), true)
}

// loadItems serves ids from the item cache and fetches the rest, storing
// what it fetched only when store is set
func (m *DataManager) loadItems(ctx context.Context, ids []int, store bool) []*Item {
	found := make(map[int]*Item, len(ids))
	var missing []int
	m.mu.RLock()
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			found[id] = item
		} else if _, queued := found[id]; !queued {
			found[id] = nil
			missing = append(missing, id)
		}
	}
	m.mu.RUnlock()

	slog.Debug("Batch load", "cached", len(ids)-len(missing), "fetching", len(missing))

	if len(missing) > 0 {
		fetched, err := m.source.FetchItemsBatch(ctx, missing, 0)
		if err != nil {
			slog.Warn("Batch load incomplete, returning what is available", "error", err)
		}

		m.mu.Lock()
		for i, item := range fetched {
			if item == nil || i >= len(missing) {
				continue
			}
			if store {
				m.items[item.ID] = item
			}
			found[missing[i]] = item
		}
		m.mu.Unlock()
	}

	result := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if item := found[id]; item != nil {
			result = append(result, item)
		}
	}
	return result
}

// GetComments loads up to limit top-level comments of a story.
// It never fails; problems are logged and yield an empty slice.
func (m *DataManager) GetComments(ctx context.Context, storyID, limit int) []*Item {
	story, err := m.GetItem(ctx, storyID, false)
	if err != nil {
		slog.Warn("Failed to load comments", "hn_id", storyID, "error", err)
		return []*Item{}
	}
	if story == nil || len(story.Kids) == 0 {
		return []*Item{}
	}
	return m.GetMultipleItems(ctx, story.Kids, limit)
}

// GetUser returns a profile; unknown handles yield ErrUserNotFound
func (m *DataManager) GetUser(ctx context.Context, handle string, forceRefresh bool) (*User, error) {
	if !forceRefresh {
		m.mu.RLock()
		user, ok := m.users[handle]
		m.mu.RUnlock()
		if ok {
			slog.Debug("Using cached user", "user", handle)
			return user, nil
		}
	}

	key := userCacheKey(handle)
	return shared(ctx, &m.group, key, func(ctx context.Context) (*User, error) {
		done := m.begin(key)
		defer done()
		if forceRefresh {
			m.source.Invalidate(key)
		}

		user, err := m.source.FetchUser(ctx, handle)
		if err != nil {
			done()
			return nil, m.fail("user", key, fmt.Errorf("failed to fetch user %s: %w", handle, err))
		}
		if user == nil {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, handle)
		}

		m.mu.Lock()
		m.users[handle] = user
		m.mu.Unlock()
		done()

		m.emit(EventUserLoaded, UserLoadedEvent{Handle: handle, User: user})
		return user, nil
	})
}

// GetMaxItemID is always live
func (m *DataManager) GetMaxItemID(ctx context.Context) (int, error) {
	maxID, err := m.source.FetchMaxItemID(ctx)
	if err != nil {
		return 0, m.fail("maxitem", "maxitem", fmt.Errorf("failed to fetch max item id: %w", err))
	}
	slog.Debug("Current max item id", "max_id", maxID)
	return maxID, nil
}

// GetUpdates returns recently changed items and profiles
func (m *DataManager) GetUpdates(ctx context.Context) (*Updates, error) {
	updates, err := m.source.FetchUpdates(ctx)
	if err != nil {
		return nil, m.fail("updates", "updates", fmt.Errorf("failed to fetch updates: %w", err))
	}
	return updates, nil
}

// GetStats returns the aggregates of the last loaded story list
func (m *DataManager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// CachedStories returns the cached list for kind without fetching
func (m *DataManager) CachedStories(kind StoryKind) []*Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyItems(m.stories[kind].stories)
}

// CachedItem returns a cached item or nil
func (m *DataManager) CachedItem(id int) *Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id]
}

// SearchStories filters the cached list of kind by title, text or author
func (m *DataManager) SearchStories(query string, kind StoryKind) []*Item {
	var matches []*Item
	for _, story := range m.CachedStories(kind) {
		if matchesQuery(story, query) {
			matches = append(matches, story)
		}
	}
	return matches
}

// ClearCache resets the caches selected by scope
func (m *DataManager) ClearCache(scope CacheScope) {
	m.mu.Lock()
	switch scope {
	case ScopeAll:
		m.stories = make(map[StoryKind]storyList)
		m.items = make(map[int]*Item)
		m.users = make(map[string]*User)
	case ScopeStories:
		m.stories = make(map[StoryKind]storyList)
	case ScopeItems:
		m.items = make(map[int]*Item)
	case ScopeUsers:
		m.users = make(map[string]*User)
	default:
		m.mu.Unlock()
		slog.Warn("Unknown cache scope", "scope", scope)
		return
	}
	m.mu.Unlock()

	slog.Info("Cache cleared", "scope", scope)
	m.emit(EventCacheCleared, scope)
}

// LoadDashboard loads the top and job lists together. If either fails the
// cached lists are returned instead.
func (m *DataManager) LoadDashboard(ctx context.Context) Dashboard {
	var top, jobs []*Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		top, err = m.GetStories(gctx, KindTop, 10, false)
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = m.GetStories(gctx, KindJobs, 5, false)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Warn("Dashboard load failed, using cached data", "error", err)
		return Dashboard{
			TopStories: trim(m.CachedStories(KindTop), 10),
			Jobs:       trim(m.CachedStories(KindJobs), 5),
			Stats:      m.GetStats(),
		}
	}
	return Dashboard{TopStories: top, Jobs: jobs, Stats: m.GetStats()}
}

// DebugInfo summarizes cache sizes, in-flight keys and subscribed events
func (m *DataManager) DebugInfo() DebugInfo {
	m.mu.RLock()
	info := DebugInfo{
		CachedStories: make(map[StoryKind]int, len(StoryKinds)),
		CachedItems:   len(m.items),
		CachedUsers:   len(m.users),
	}
	for _, kind := range StoryKinds {
		info.CachedStories[kind] = len(m.stories[kind].stories)
	}
	for key := range m.inFlight {
		info.InFlight = append(info.InFlight, key)
	}
	m.mu.RUnlock()

	sort.Strings(info.InFlight)
	info.Listeners = m.events.Events()
	return info
}

func trim(items []*Item, limit int) []*Item {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return copyItems(items)
}

func trimIDs(ids []int, limit int) []int {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}

func copyItems(items []*Item) []*Item {
	out := make([]*Item, len(items))
	copy(out, items)
	return out
}
