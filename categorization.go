package main

import (
	"fmt"
	"strings"
	"time"
)

// categorizeItem returns the labels shown next to an item: its link domain,
// the mapped domain category, and a content type derived from type and title
func categorizeItem(item *Item, categoryMapper *CategoryMapper) []string {
	var categories []string

	domain := extractDomain(item.URL)
	if domain != "" {
		categories = append(categories, domain)
		if categoryMapper != nil {
			if category := categoryMapper.GetCategoryForDomain(domain); category != "" {
				categories = append(categories, category)
			}
		}
	}

	titleLower := strings.ToLower(item.Title)
	switch {
	case item.Type == TypeJob:
		categories = append(categories, "Job")
	case item.Type == TypePoll:
		categories = append(categories, "Poll")
	case strings.HasPrefix(titleLower, "show hn:"):
		categories = append(categories, "Show HN")
	case strings.HasPrefix(titleLower, "ask hn:"):
		categories = append(categories, "Ask HN")
	case strings.Contains(titleLower, "[pdf]") || strings.HasSuffix(strings.ToLower(item.URL), ".pdf"):
		categories = append(categories, "PDF")
	case strings.Contains(titleLower, "[video]"):
		categories = append(categories, "Video")
	}

	return categories
}

// categorizeByPoints returns a label for the score of a story
func categorizeByPoints(points int) string {
	switch {
	case points >= 500:
		return "Viral 500+"
	case points >= 200:
		return "Hot 200+"
	case points >= 100:
		return "High Score 100+"
	case points >= 10:
		return "Popular 10+"
	default:
		return "Rising"
	}
}

// calculatePostAge returns a human-readable time difference from the given time to now
func calculatePostAge(createdAt time.Time) string {
	diff := time.Since(createdAt)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return createdAt.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
