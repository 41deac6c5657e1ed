package main

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// StartLiveItemStream polls the max item id every interval. The first poll only
// records a baseline; each later poll that sees a higher id loads the new ids,
// passes the visible ones to callback in ascending id order and emits
// EventNewItemsDetected. A gap larger than StreamMaxGap is truncated to its most
// recent ids. The returned function stops polling and waits for an in-progress
// poll to finish; cancelling ctx has the same effect.
func (m *DataManager) StartLiveItemStream(ctx context.Context, interval time.Duration, callback func([]*Item)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastMaxID := 0
		for {
			lastMaxID = m.pollNewItems(ctx, lastMaxID, callback)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	slog.Info("Live stream started", "interval", interval)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			slog.Info("Live stream stopped")
		})
	}
}

// pollNewItems runs one stream tick and returns the new baseline
func (m *DataManager) pollNewItems(ctx context.Context, lastMaxID int, callback func([]*Item)) int {
	currentMaxID, err := m.GetMaxItemID(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Live stream poll failed", "error", err)
		}
		return lastMaxID
	}

	if lastMaxID == 0 {
		slog.Info("Live stream baseline", "max_id", currentMaxID)
		return currentMaxID
	}
	if currentMaxID <= lastMaxID {
		return lastMaxID
	}

	from := lastMaxID + 1
	if gap := currentMaxID - lastMaxID; gap > m.opts.StreamMaxGap {
		from = currentMaxID - m.opts.StreamMaxGap + 1
		slog.Warn("Live stream gap truncated", "gap", gap, "kept", m.opts.StreamMaxGap, "skipped_to", from)
	}

	ids := make([]int, 0, currentMaxID-from+1)
	for id := from; id <= currentMaxID; id++ {
		ids = append(ids, id)
	}
	slog.Debug("New items detected", "count", len(ids), "from", from, "to", currentMaxID)

	// streamed items are handed to the callback, not kept in the item cache
	items := visibleItems(m.loadItems(ctx, ids, false))
	if ctx.Err() != nil {
		return lastMaxID
	}

	if callback != nil {
		callback(items)
	}
	m.emit(EventNewItemsDetected, copyItems(items))
	return currentMaxID
}
