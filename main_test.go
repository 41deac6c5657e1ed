package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against fake with a generated config file
func runCLI(t *testing.T, fake *fakeHN, dbPath string, args ...string) (string, error) {
	t.Helper()
	withoutColor(t)

	configFile := filepath.Join(t.TempDir(), "hnlive.yaml")
	config := "base_url: " + fake.URL() + "\nretry_base_delay: 1ms\n"
	if dbPath != "" {
		config += "db_path: " + dbPath + "\n"
	}
	require.NoError(t, os.WriteFile(configFile, []byte(config), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configFile}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_Stories(t *testing.T) {
	fake := newFakeHN(t)
	fake.addStories("askstories", story(1, 10, 2, "Ask HN: first"), story(2, 20, 4, "Ask HN: second"))

	out, err := runCLI(t, fake, "", "stories", "ask", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ask HN: first")
	assert.NotContains(t, out, "Ask HN: second")
}

func TestCLI_StoriesUnknownKind(t *testing.T) {
	fake := newFakeHN(t)
	_, err := runCLI(t, fake, "", "stories", "hottest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown story kind")
}

func TestCLI_ItemWithComments(t *testing.T) {
	fake := newFakeHN(t)
	parent := story(1, 10, 1, "Parent story")
	parent.Kids = []int{2}
	fake.addItems(parent, comment(2, 1, "a <i>reply</i>"))

	out, err := runCLI(t, fake, "", "item", "1", "--comments", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Parent story")
	assert.Contains(t, out, "a reply")
}

func TestCLI_ItemNotFound(t *testing.T) {
	fake := newFakeHN(t)
	_, err := runCLI(t, fake, "", "item", "99", "--comments", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 99 not found")
}

func TestCLI_UserAndMaxItem(t *testing.T) {
	fake := newFakeHN(t)
	fake.addUser(&User{ID: "pg", Karma: 155111, Created: time.Now().Unix()})
	fake.setMaxIDs(4242)

	out, err := runCLI(t, fake, "", "user", "pg")
	require.NoError(t, err)
	assert.Contains(t, out, "155111")

	out, err = runCLI(t, fake, "", "maxitem")
	require.NoError(t, err)
	assert.Equal(t, "4242\n", out)
}

func TestCLI_Feed(t *testing.T) {
	fake := newFakeHN(t)
	fake.addStories("topstories", story(1, 300, 2, "Feed story"))

	feedPath := filepath.Join(t.TempDir(), "top.xml")
	_, err := runCLI(t, fake, "", "feed", "top", "--out", feedPath)
	require.NoError(t, err)

	data, err := os.ReadFile(feedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<feed")
	assert.Contains(t, string(data), "Feed story")
}

func TestCLI_Search(t *testing.T) {
	fake := newFakeHN(t)
	fake.addStories("topstories", story(1, 1, 0, "SQLite internals"), story(2, 1, 0, "Go scheduler"))

	out, err := runCLI(t, fake, "", "search", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "SQLite internals")
	assert.NotContains(t, out, "Go scheduler")
}

func TestCLI_Archive(t *testing.T) {
	fake := newFakeHN(t)
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	db, err := initDB(dbPath)
	require.NoError(t, err)
	_, err = archiveItems(db, []*Item{story(5, 1, 0, "Archived story"), comment(6, 5, "archived comment")})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runCLI(t, fake, dbPath, "archive", "story")
	require.NoError(t, err)
	assert.Contains(t, out, "Archived story")
	assert.False(t, strings.Contains(out, "archived comment"))
}
