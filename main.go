package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg            Config
	manager        *DataManager
	categoryMapper *CategoryMapper
)

var rootCmd = &cobra.Command{
	Use:   "hnlive",
	Short: "Hacker News from the terminal",
	Long: `hnlive reads Hacker News through the official Firebase API.

Browse story lists, items, comments and users, discover fresh stories
ahead of the story endpoints, follow new items live and archive them
to SQLite, or render any list as an Atom feed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)

		cfg = LoadConfig(configPath)
		categoryMapper = NewCategoryMapper(cfg.CategoryDomains)
		manager = NewDataManager(NewClient(cfg.ClientOptions()), cfg.ManagerOptions())

		manager.On(EventError, func(payload any) {
			if e, ok := payload.(ErrorEvent); ok {
				slog.Debug("Load error", "op", e.Op, "key", e.Key, "error", e.Err)
			}
		})
		return nil
	},
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path or http(s) URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// storyKindArg parses the optional kind argument, defaulting to top
func storyKindArg(args []string) (StoryKind, error) {
	if len(args) == 0 {
		return KindTop, nil
	}
	kind, err := ParseStoryKind(args[0])
	if err != nil {
		return "", fmt.Errorf("%w (want one of %v)", err, StoryKinds)
	}
	return kind, nil
}
