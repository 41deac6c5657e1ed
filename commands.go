package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var storiesCmd = &cobra.Command{
	Use:     "stories [top|new|best|ask|show|jobs]",
	Aliases: []string{"ls"},
	Short:   "List stories of one kind",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := storyKindArg(args)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		refresh, _ := cmd.Flags().GetBool("refresh")

		stories, err := manager.GetStories(cmd.Context(), kind, limit, refresh)
		if err != nil {
			return err
		}
		printStories(cmd.OutOrStdout(), stories, categoryMapper)
		return nil
	},
}

var itemCmd = &cobra.Command{
	Use:   "item <id>",
	Short: "Show one item and optionally its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid item id %q: %w", args[0], err)
		}
		comments, _ := cmd.Flags().GetInt("comments")

		item, err := manager.GetItem(cmd.Context(), id, false)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %d not found", id)
		}

		out := cmd.OutOrStdout()
		printItem(out, item)
		if comments > 0 {
			printComments(out, manager.GetComments(cmd.Context(), id, comments))
		}
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user <handle>",
	Short: "Show a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := manager.GetUser(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		printUser(cmd.OutOrStdout(), user)
		return nil
	},
}

var maxItemCmd = &cobra.Command{
	Use:   "maxitem",
	Short: "Print the current largest item id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxID, err := manager.GetMaxItemID(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), maxID)
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest items of every type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		recent, err := manager.LoadRecentItems(cmd.Context(), count)
		if err != nil {
			return err
		}
		printRecent(cmd.OutOrStdout(), recent)
		return nil
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find stories newer than the story lists by walking back from the max id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		feedPath, _ := cmd.Flags().GetString("feed")

		stories, err := manager.DiscoverRecentStories(cmd.Context(), count)
		if err != nil {
			return err
		}
		if feedPath != "" {
			return writeFeed(feedPath, "Hacker News: discovered", stories)
		}
		printStories(cmd.OutOrStdout(), stories, categoryMapper)
		return nil
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Follow new items as they are posted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		archive, _ := cmd.Flags().GetBool("archive")
		if interval <= 0 {
			interval = cfg.StreamInterval
		}

		callback := func(items []*Item) {
			for _, item := range items {
				printStreamItem(cmd.OutOrStdout(), item)
			}
		}

		if archive {
			db, err := initDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			show := callback
			callback = func(items []*Item) {
				show(items)
				if len(items) == 0 {
					return
				}
				n, err := archiveItems(db, items)
				if err != nil {
					slog.Error("Failed to archive items", "error", err)
					return
				}
				slog.Info("Archived items", "count", n, "path", cfg.DBPath)
			}
		}

		// runs until interrupted
		ctx := cmd.Context()
		stop := manager.StartLiveItemStream(ctx, interval, callback)
		<-ctx.Done()
		stop()
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive [type]",
	Short: "List items recorded by stream --archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		itemType := ""
		if len(args) == 1 {
			itemType = args[0]
		}

		db, err := initDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		items, err := getArchivedItems(db, limit, itemType)
		if err != nil {
			return err
		}
		for _, item := range items {
			printStreamItem(cmd.OutOrStdout(), item)
		}
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed [top|new|best|ask|show|jobs]",
	Short: "Render a story list as an Atom feed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := storyKindArg(args)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		outPath, _ := cmd.Flags().GetString("out")

		stories, err := manager.GetStories(cmd.Context(), kind, limit, false)
		if err != nil {
			return err
		}

		title := fmt.Sprintf("Hacker News: %s stories", kind)
		if outPath != "" {
			return writeFeed(outPath, title, stories)
		}
		atom, err := generateAtomFeed(title, stories, categoryMapper)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), atom)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a story list by title, text or author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kindName, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		kind, err := ParseStoryKind(kindName)
		if err != nil {
			return err
		}

		if _, err := manager.GetStories(cmd.Context(), kind, limit, false); err != nil {
			return err
		}
		printStories(cmd.OutOrStdout(), manager.SearchStories(args[0], kind), categoryMapper)
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Top stories, jobs and stats at a glance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash := manager.LoadDashboard(cmd.Context())
		out := cmd.OutOrStdout()

		titleColor.Fprintln(out, "Top stories")
		printStories(out, dash.TopStories, categoryMapper)
		fmt.Fprintln(out)
		titleColor.Fprintln(out, "Jobs")
		printStories(out, dash.Jobs, categoryMapper)
		fmt.Fprintln(out)
		printStats(out, dash.Stats)
		return nil
	},
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List recently changed items and profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := manager.GetUpdates(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "items:    %v\n", updates.Items)
		fmt.Fprintf(out, "profiles: %v\n", updates.Profiles)
		return nil
	},
}

// writeFeed renders stories as Atom into path
func writeFeed(path, title string, stories []*Item) error {
	atom, err := generateAtomFeed(title, stories, categoryMapper)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(atom), 0o644); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}
	slog.Info("Feed written", "path", path, "stories", len(stories))
	return nil
}

func init() {
	rootCmd.AddCommand(storiesCmd, itemCmd, userCmd, maxItemCmd, recentCmd, discoverCmd,
		streamCmd, archiveCmd, feedCmd, searchCmd, dashboardCmd, updatesCmd)

	storiesCmd.Flags().IntP("limit", "n", defaultStoryLimit, "max stories to show")
	storiesCmd.Flags().BoolP("refresh", "r", false, "bypass the cache")

	itemCmd.Flags().IntP("comments", "C", 0, "also show up to N top-level comments")

	recentCmd.Flags().IntP("count", "n", 30, "how many of the newest ids to load")

	discoverCmd.Flags().IntP("count", "n", 10, "stories to find")
	discoverCmd.Flags().String("feed", "", "write an Atom feed to this file instead of printing")

	streamCmd.Flags().Duration("interval", 0, "poll interval (default from config)")
	streamCmd.Flags().Bool("archive", false, "store new items in the SQLite archive")

	archiveCmd.Flags().IntP("limit", "n", 50, "max items to show")

	feedCmd.Flags().IntP("limit", "n", defaultStoryLimit, "max stories in the feed")
	feedCmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")

	searchCmd.Flags().StringP("kind", "k", string(KindTop), "story list to search")
	searchCmd.Flags().IntP("limit", "n", 100, "how many stories of the list to search")
}
