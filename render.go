package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	titleColor  = color.New(color.FgHiWhite, color.Bold)
	metaColor   = color.New(color.FgHiBlack)
	scoreColor  = color.New(color.FgHiYellow)
	authorColor = color.New(color.FgCyan)
	typeColor   = color.New(color.FgMagenta)
	errColor    = color.New(color.FgRed)
)

func printStories(w io.Writer, stories []*Item, categoryMapper *CategoryMapper) {
	if len(stories) == 0 {
		metaColor.Fprintln(w, "No stories.")
		return
	}
	for i, story := range stories {
		titleColor.Fprintf(w, "%3d. %s", i+1, story.Title)
		if domain := extractDomain(story.URL); domain != "" {
			metaColor.Fprintf(w, " (%s)", domain)
		}
		fmt.Fprintln(w)

		fmt.Fprint(w, "     ")
		scoreColor.Fprintf(w, "%d points", story.Score)
		fmt.Fprint(w, " by ")
		authorColor.Fprint(w, story.By)
		metaColor.Fprintf(w, " %s | %d comments | %d", calculatePostAge(story.CreatedAt()), story.Descendants, story.ID)
		if labels := categorizeItem(story, categoryMapper); len(labels) > 0 {
			metaColor.Fprintf(w, " | %s", strings.Join(labels, ", "))
		}
		fmt.Fprintln(w)
	}
}

func printItem(w io.Writer, item *Item) {
	typeColor.Fprintf(w, "[%s] ", item.Type)
	if item.Title != "" {
		titleColor.Fprint(w, item.Title)
	} else {
		titleColor.Fprintf(w, "#%d", item.ID)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, "  by ")
	authorColor.Fprint(w, item.By)
	metaColor.Fprintf(w, " %s", calculatePostAge(item.CreatedAt()))
	if item.Type == TypeStory || item.Type == TypePoll || item.Type == TypeJob {
		fmt.Fprint(w, " | ")
		scoreColor.Fprintf(w, "%d points", item.Score)
		metaColor.Fprintf(w, " | %d comments", item.Descendants)
	}
	fmt.Fprintln(w)

	if item.URL != "" {
		metaColor.Fprintf(w, "  %s\n", item.URL)
	}
	metaColor.Fprintf(w, "  %s\n", item.CommentsLink())
	if text := plainText(item.Text); text != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, indent(text, "  "))
	}
}

func printComments(w io.Writer, comments []*Item) {
	if len(comments) == 0 {
		metaColor.Fprintln(w, "No comments.")
		return
	}
	for _, c := range comments {
		fmt.Fprintln(w)
		authorColor.Fprint(w, c.By)
		metaColor.Fprintf(w, " %s | %d replies\n", calculatePostAge(c.CreatedAt()), len(c.Kids))
		fmt.Fprintln(w, indent(plainText(c.Text), "  "))
	}
}

func printUser(w io.Writer, user *User) {
	titleColor.Fprintln(w, user.ID)
	fmt.Fprint(w, "  karma ")
	scoreColor.Fprintf(w, "%d", user.Karma)
	metaColor.Fprintf(w, " | joined %s | %d submissions\n", calculatePostAge(time.Unix(user.Created, 0)), len(user.Submitted))
	if about := plainText(user.About); about != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, indent(about, "  "))
	}
}

func printStats(w io.Writer, stats Stats) {
	metaColor.Fprintf(w, "%d stories | %d comments | %d polls | top score %d\n",
		stats.TotalStories, stats.TotalComments, stats.ActivePolls, stats.TopScore)
}

func printRecent(w io.Writer, recent *RecentItems) {
	titleColor.Fprintf(w, "%d visible items below #%d\n", len(recent.Items), recent.MaxID)
	metaColor.Fprintf(w, "stories %d | comments %d | jobs %d | polls %d | pollopts %d\n",
		len(recent.ByType.Stories), len(recent.ByType.Comments), len(recent.ByType.Jobs),
		len(recent.ByType.Polls), len(recent.ByType.PollOpts))
	for _, item := range recent.Items {
		printStreamItem(w, item)
	}
}

// printStreamItem is the one-line form used by the live stream
func printStreamItem(w io.Writer, item *Item) {
	typeColor.Fprintf(w, "%-8s", item.Type)
	metaColor.Fprintf(w, " #%d ", item.ID)
	authorColor.Fprintf(w, "%s ", item.By)
	switch {
	case item.Title != "":
		titleColor.Fprint(w, item.Title)
	default:
		fmt.Fprint(w, truncateString(strings.ReplaceAll(plainText(item.Text), "\n", " "), 100))
	}
	fmt.Fprintln(w)
}

func printError(w io.Writer, err error) {
	errColor.Fprintf(w, "error: %v\n", err)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
