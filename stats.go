package main

import "strings"

// computeStats derives the aggregate counters from a story list.
// An empty list yields zero stats.
func computeStats(stories []*Item) Stats {
	var stats Stats
	for _, s := range stories {
		if s == nil {
			continue
		}
		stats.TotalStories++
		stats.TotalComments += s.Descendants
		if s.Score > stats.TopScore {
			stats.TopScore = s.Score
		}
		if s.Type == TypePoll {
			stats.ActivePolls++
		}
	}
	return stats
}

// partitionByType splits items into the five type buckets, skipping unknown types
func partitionByType(items []*Item) ItemsByType {
	var byType ItemsByType
	for _, item := range items {
		switch item.Type {
		case TypeStory:
			byType.Stories = append(byType.Stories, item)
		case TypeComment:
			byType.Comments = append(byType.Comments, item)
		case TypeJob:
			byType.Jobs = append(byType.Jobs, item)
		case TypePoll:
			byType.Polls = append(byType.Polls, item)
		case TypePollOpt:
			byType.PollOpts = append(byType.PollOpts, item)
		}
	}
	return byType
}

// visibleItems drops nil, deleted and dead entries
func visibleItems(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, item := range items {
		if item.Visible() {
			out = append(out, item)
		}
	}
	return out
}

// matchesQuery is a case-insensitive match on title, text and author
func matchesQuery(item *Item, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(plainText(item.Text)), q) ||
		strings.Contains(strings.ToLower(item.By), q)
}
