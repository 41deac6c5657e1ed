package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeHN serves the Firebase endpoints from in-memory data and counts requests per path
type fakeHN struct {
	server *httptest.Server

	mu      sync.Mutex
	items   map[int]*Item
	users   map[string]*User
	updates *Updates
	hits    map[string]int

	raw      map[string]string        // path -> literal body
	lists    map[string][]int         // endpoint name ("topstories") -> ids
	maxIDs   []int                    // served in order, the last one repeats
	failures map[string]int           // path -> remaining 500 responses, -1 forever
	delays   map[string]time.Duration // path -> response delay
}

func newFakeHN(t *testing.T) *fakeHN {
	t.Helper()
	f := &fakeHN{
		items:    make(map[int]*Item),
		raw:      make(map[string]string),
		users:    make(map[string]*User),
		lists:    make(map[string][]int),
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		hits:     make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeHN) URL() string {
	return f.server.URL
}

func (f *fakeHN) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	f.mu.Lock()
	f.hits[path]++
	delay := f.delays[path]
	fail := false
	if n, ok := f.failures[path]; ok && n != 0 {
		fail = true
		if n > 0 {
			f.failures[path] = n - 1
		}
	}
	body, isRaw := f.raw[path]
	var payload any
	if !isRaw && !fail {
		payload = f.lookup(path)
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if isRaw {
		_, _ = w.Write([]byte(body))
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// lookup resolves a path to the value to encode; nil encodes as JSON null
func (f *fakeHN) lookup(path string) any {
	name := strings.TrimSuffix(strings.TrimPrefix(path, "/"), ".json")
	switch {
	case name == "maxitem":
		if len(f.maxIDs) == 0 {
			return 0
		}
		id := f.maxIDs[0]
		if len(f.maxIDs) > 1 {
			f.maxIDs = f.maxIDs[1:]
		}
		return id
	case name == "updates":
		return f.updates
	case strings.HasPrefix(name, "item/"):
		id, err := strconv.Atoi(strings.TrimPrefix(name, "item/"))
		if err != nil {
			return nil
		}
		if item, ok := f.items[id]; ok {
			copied := *item
			return &copied
		}
		return nil
	case strings.HasPrefix(name, "user/"):
		if user, ok := f.users[strings.TrimPrefix(name, "user/")]; ok {
			return user
		}
		return nil
	default:
		if ids, ok := f.lists[name]; ok {
			return ids
		}
		return nil
	}
}

func (f *fakeHN) addItems(items ...*Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.items[item.ID] = item
	}
}

// addStories registers stories and lists their ids under endpoint
func (f *fakeHN) addStories(endpoint string, stories ...*Item) {
	f.addItems(stories...)
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(stories))
	for _, s := range stories {
		ids = append(ids, s.ID)
	}
	f.lists[endpoint] = ids
}

func (f *fakeHN) setRaw(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[path] = body
}

func (f *fakeHN) setList(endpoint string, ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[endpoint] = ids
}

func (f *fakeHN) addUser(user *User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *fakeHN) setUpdates(updates *Updates) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = updates
}

func (f *fakeHN) setMaxIDs(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxIDs = ids
}

func (f *fakeHN) fail(path string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = times
}

func (f *fakeHN) delay(path string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[path] = d
}

func (f *fakeHN) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func itemPath(id int) string {
	return "/item/" + strconv.Itoa(id) + ".json"
}

func story(id, score, descendants int, title string) *Item {
	return &Item{
		ID:          id,
		Type:        TypeStory,
		By:          "pg",
		Time:        time.Now().Add(-time.Hour).Unix(),
		Title:       title,
		URL:         "https://example.com/" + strconv.Itoa(id),
		Score:       score,
		Descendants: descendants,
	}
}

func comment(id, parent int, text string) *Item {
	return &Item{
		ID:     id,
		Type:   TypeComment,
		By:     "dang",
		Time:   time.Now().Add(-time.Minute).Unix(),
		Text:   text,
		Parent: parent,
	}
}

// newTestClient talks to f with millisecond retry delays
func newTestClient(f *fakeHN) *Client {
	return NewClient(ClientOptions{
		BaseURL:        f.URL(),
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
		BatchWorkers:   4,
		RequestTimeout: 5 * time.Second,
	})
}

func newTestManager(f *fakeHN) *DataManager {
	return NewDataManager(newTestClient(f), ManagerOptions{})
}
