package main

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Event names emitted by the DataManager
const (
	EventStoriesUpdated    = "stories-updated"
	EventItemLoaded        = "item-loaded"
	EventUserLoaded        = "user-loaded"
	EventStatsUpdated      = "stats-updated"
	EventCacheCleared      = "cache-cleared"
	EventRecentItemsLoaded = "recent-items-loaded"
	EventStoriesDiscovered = "stories-discovered"
	EventNewItemsDetected  = "new-items-detected"
	EventError             = "error"
)

// KindStoriesUpdated is the per-kind variant of EventStoriesUpdated, e.g. "top-stories-updated"
func KindStoriesUpdated(kind StoryKind) string {
	return fmt.Sprintf("%s-stories-updated", kind)
}

// Payloads carried by the events above
type (
	StoriesUpdatedEvent struct {
		Kind    StoryKind
		Stories []*Item
	}
	ItemLoadedEvent struct {
		ID   int
		Item *Item
	}
	UserLoadedEvent struct {
		Handle string
		User   *User
	}
	StoriesDiscoveredEvent struct {
		Stories []*Item
		Source  string
	}
	ErrorEvent struct {
		Op  string
		Key string
		Err error
	}
)

// Handler receives the payload of an event
type Handler func(payload any)

// ListenerID identifies a subscription for Off
type ListenerID uint64

type listener struct {
	id      ListenerID
	handler Handler
}

// Emitter is a synchronous publish/subscribe registry.
// Handlers run in subscription order on the emitting goroutine; a panicking
// handler is logged and does not stop the others.
type Emitter struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners map[string][]listener
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]listener)}
}

// On subscribes handler to event
func (e *Emitter) On(event string, handler Handler) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.listeners[event] = append(e.listeners[event], listener{id: e.nextID, handler: handler})
	return e.nextID
}

// Off removes a subscription; unknown ids are ignored
func (e *Emitter) Off(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.listeners[event]
	for i, l := range current {
		if l.id != id {
			continue
		}
		// copy so a concurrent Emit iterating the old slice is unaffected
		next := make([]listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = next
		}
		return
	}
}

// Emit calls every handler of event with payload
func (e *Emitter) Emit(event string, payload any) {
	e.mu.RLock()
	handlers := e.listeners[event]
	e.mu.RUnlock()

	for _, l := range handlers {
		e.invoke(event, l, payload)
	}
}

func (e *Emitter) invoke(event string, l listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked", "event", event, "listener", l.id, "panic", r)
		}
	}()
	l.handler(payload)
}

// Events lists the event names that currently have listeners
func (e *Emitter) Events() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
