package main

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/feeds"
)

// generateAtomFeed renders stories as an Atom feed. Each entry links to the
// HN discussion and carries its categories in the description.
func generateAtomFeed(title string, stories []*Item, categoryMapper *CategoryMapper) (string, error) {
	slog.Debug("Generating Atom feed", "title", title, "itemCount", len(stories))
	now := time.Now()

	feed := &feeds.Feed{
		Title:       title,
		Description: "Hacker News stories collected by hnlive",
		Link:        &feeds.Link{Href: "https://news.ycombinator.com/", Rel: "self", Type: "text/html"},
		Id:          "tag:news.ycombinator.com,2024:hnlive",
		Created:     now,
		Updated:     now,
	}

	for _, story := range stories {
		if !story.Visible() {
			continue
		}

		categories := append(categorizeItem(story, categoryMapper), categorizeByPoints(story.Score))

		var desc strings.Builder
		fmt.Fprintf(&desc, "<p><strong>%d points</strong> • <strong>%d comments</strong> • %s</p>",
			story.Score, story.Descendants, html.EscapeString(calculatePostAge(story.CreatedAt())))
		desc.WriteString("<p>")
		for _, cat := range categories {
			fmt.Fprintf(&desc, "<span>[%s]</span> ", html.EscapeString(cat))
		}
		desc.WriteString("</p>")
		if story.Text != "" {
			// the API already delivers text as HTML
			fmt.Fprintf(&desc, "<div>%s</div>", story.Text)
		}
		fmt.Fprintf(&desc, `<p><a href="%s">HN Discussion</a>`, story.CommentsLink())
		if story.URL != "" {
			fmt.Fprintf(&desc, ` • <a href="%s">Read Article</a>`, html.EscapeString(story.URL))
		}
		desc.WriteString("</p>")

		link := story.URL
		if link == "" {
			link = story.CommentsLink()
		}

		feed.Items = append(feed.Items, &feeds.Item{
			Title:       story.Title,
			Link:        &feeds.Link{Href: link, Rel: "alternate", Type: "text/html"},
			Id:          story.CommentsLink(),
			Author:      &feeds.Author{Name: story.By},
			Description: desc.String(),
			Created:     story.CreatedAt(),
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return "", fmt.Errorf("failed to generate Atom feed: %w", err)
	}

	slog.Debug("Atom feed generated successfully", "feedSize", len(atom))
	return atom, nil
}
