package main

import (
	"fmt"
	"time"
)

// Item types as reported by the Firebase API
const (
	TypeStory   = "story"
	TypeComment = "comment"
	TypeJob     = "job"
	TypePoll    = "poll"
	TypePollOpt = "pollopt"
)

// Item is any Hacker News node: story, comment, job, poll or poll option.
// Values are decoded once and never mutated afterwards.
type Item struct {
	ID          int    `json:"id"`
	Type        string `json:"type,omitempty"`
	By          string `json:"by,omitempty"`
	Time        int64  `json:"time,omitempty"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text,omitempty"`
	URL         string `json:"url,omitempty"`
	Score       int    `json:"score,omitempty"`
	Kids        []int  `json:"kids,omitempty"`
	Descendants int    `json:"descendants,omitempty"`
	Parent      int    `json:"parent,omitempty"`
	Poll        int    `json:"poll,omitempty"`
	Parts       []int  `json:"parts,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
	Dead        bool   `json:"dead,omitempty"`
}

// CreatedAt converts the unix timestamp of the item
func (i *Item) CreatedAt() time.Time {
	return time.Unix(i.Time, 0)
}

// CommentsLink is the discussion page on news.ycombinator.com
func (i *Item) CommentsLink() string {
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", i.ID)
}

// Visible reports whether the item is present and neither deleted nor dead
func (i *Item) Visible() bool {
	return i != nil && !i.Deleted && !i.Dead
}

// User is a Hacker News profile
type User struct {
	ID        string `json:"id"`
	Created   int64  `json:"created"`
	Karma     int    `json:"karma"`
	About     string `json:"about,omitempty"`
	Submitted []int  `json:"submitted,omitempty"`
}

// Updates lists recently changed items and profiles
type Updates struct {
	Items    []int    `json:"items"`
	Profiles []string `json:"profiles"`
}

// StoryKind selects one of the story list endpoints
type StoryKind string

const (
	KindTop  StoryKind = "top"
	KindNew  StoryKind = "new"
	KindBest StoryKind = "best"
	KindAsk  StoryKind = "ask"
	KindShow StoryKind = "show"
	KindJobs StoryKind = "jobs"
)

// StoryKinds in display order
var StoryKinds = []StoryKind{KindTop, KindNew, KindBest, KindAsk, KindShow, KindJobs}

// ParseStoryKind validates a kind name
func ParseStoryKind(s string) (StoryKind, error) {
	for _, k := range StoryKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown story kind %q", s)
}

func (k StoryKind) endpoint() string {
	if k == KindJobs {
		return "jobstories"
	}
	return string(k) + "stories"
}

// Stats are aggregates of the most recently loaded story list
type Stats struct {
	TotalStories  int `json:"totalStories"`
	TotalComments int `json:"totalComments"`
	ActivePolls   int `json:"activePolls"`
	TopScore      int `json:"topScore"`
}

// ItemsByType partitions items by their type field
type ItemsByType struct {
	Stories  []*Item
	Comments []*Item
	Jobs     []*Item
	Polls    []*Item
	PollOpts []*Item
}

// RecentItems is the result of walking back from the max item id
type RecentItems struct {
	Items  []*Item
	ByType ItemsByType
	MaxID  int
}

// Dashboard bundles the data shown on the landing view
type Dashboard struct {
	TopStories []*Item
	Jobs       []*Item
	Stats      Stats
}

// DebugInfo describes the current cache contents
type DebugInfo struct {
	CachedStories map[StoryKind]int
	CachedItems   int
	CachedUsers   int
	InFlight      []string
	Listeners     []string
}

// CacheScope selects which DataManager caches ClearCache resets
type CacheScope string

const (
	ScopeAll     CacheScope = "all"
	ScopeStories CacheScope = "stories"
	ScopeItems   CacheScope = "items"
	ScopeUsers   CacheScope = "users"
)
