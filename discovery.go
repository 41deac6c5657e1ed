package main

import (
	"context"
	"log/slog"
)

// discoveryBatchSize bounds how many ids one discovery step examines
const discoveryBatchSize = 50

// descendingIDs returns up to count ids from start downwards, never below 1
func descendingIDs(start, count int) []int {
	ids := make([]int, 0, max(count, 0))
	for id := start; id > start-count && id >= 1; id-- {
		ids = append(ids, id)
	}
	return ids
}

// LoadRecentItems fetches the count newest ids and groups the visible ones by type
func (m *DataManager) LoadRecentItems(ctx context.Context, count int) (*RecentItems, error) {
	maxID, err := m.GetMaxItemID(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Loading recent items", "from", maxID, "count", count)
	items := visibleItems(m.GetMultipleItems(ctx, descendingIDs(maxID, count), 0))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recent := &RecentItems{
		Items:  items,
		ByType: partitionByType(items),
		MaxID:  maxID,
	}
	slog.Debug("Recent items by type",
		"stories", len(recent.ByType.Stories),
		"comments", len(recent.ByType.Comments),
		"jobs", len(recent.ByType.Jobs),
		"polls", len(recent.ByType.Polls),
		"pollopts", len(recent.ByType.PollOpts))

	m.emit(EventRecentItemsLoaded, *recent)
	return recent, nil
}

// LoadItemsFrom walks count ids backwards from startID and returns the visible
// items, optionally only those of filterType
func (m *DataManager) LoadItemsFrom(ctx context.Context, startID, count int, filterType string) ([]*Item, error) {
	slog.Debug("Walking backwards", "from", startID, "count", count, "type", filterType)
	items := visibleItems(m.GetMultipleItems(ctx, descendingIDs(startID, count), 0))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filterType == "" {
		return items, nil
	}

	filtered := items[:0]
	for _, item := range items {
		if item.Type == filterType {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// DiscoverRecentStories walks back from the max id collecting stories until it
// has count of them or has examined 3*count ids. The story endpoints lag behind
// the item feed, so this finds fresh submissions sooner.
func (m *DataManager) DiscoverRecentStories(ctx context.Context, count int) ([]*Item, error) {
	if count <= 0 {
		return []*Item{}, nil
	}
	maxID, err := m.GetMaxItemID(ctx)
	if err != nil {
		return nil, err
	}

	budget := count * 3
	stories := make([]*Item, 0, count)
	current := maxID
	for examined := 0; len(stories) < count && examined < budget && current >= 1; {
		batch := min(discoveryBatchSize, budget-examined)
		found, err := m.LoadItemsFrom(ctx, current, batch, TypeStory)
		if err != nil {
			return nil, err
		}
		stories = append(stories, found...)

		current -= batch
		examined += batch
		slog.Debug("Discovery progress", "found", len(stories), "wanted", count, "examined", examined)
	}

	stories = trim(stories, count)
	slog.Info("Discovered recent stories", "count", len(stories), "max_id", maxID)

	m.emit(EventStoriesDiscovered, StoriesDiscoveredEvent{Stories: copyItems(stories), Source: "max-id-walk"})
	return stories, nil
}
