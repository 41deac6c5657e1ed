package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_CallsHandlersInSubscriptionOrder(t *testing.T) {
	e := NewEmitter()
	var calls []string
	e.On("ping", func(payload any) { calls = append(calls, "a:"+payload.(string)) })
	e.On("ping", func(payload any) { calls = append(calls, "b:"+payload.(string)) })
	e.On("other", func(any) { calls = append(calls, "other") })

	e.Emit("ping", "1")
	assert.Equal(t, []string{"a:1", "b:1"}, calls)
}

func TestEmitter_Off(t *testing.T) {
	e := NewEmitter()
	count := 0
	id := e.On("ping", func(any) { count++ })
	e.On("ping", func(any) { count += 10 })

	e.Emit("ping", nil)
	e.Off("ping", id)
	e.Off("ping", id)
	e.Off("missing", 99)
	e.Emit("ping", nil)

	assert.Equal(t, 21, count)
}

func TestEmitter_PanickingHandlerIsIsolated(t *testing.T) {
	e := NewEmitter()
	var reached []int
	e.On("boom", func(any) { reached = append(reached, 1) })
	e.On("boom", func(any) { panic("handler failure") })
	e.On("boom", func(any) { reached = append(reached, 3) })

	assert.NotPanics(t, func() { e.Emit("boom", nil) })
	assert.Equal(t, []int{1, 3}, reached)
}

func TestEmitter_OffDuringEmit(t *testing.T) {
	e := NewEmitter()
	var calls []string
	var second ListenerID
	e.On("ping", func(any) {
		calls = append(calls, "first")
		e.Off("ping", second)
	})
	second = e.On("ping", func(any) { calls = append(calls, "second") })

	// the snapshot taken by Emit still includes the removed handler
	e.Emit("ping", nil)
	e.Emit("ping", nil)
	assert.Equal(t, []string{"first", "second", "first"}, calls)
}

func TestEmitter_Events(t *testing.T) {
	e := NewEmitter()
	assert.Empty(t, e.Events())

	e.On(EventStatsUpdated, func(any) {})
	e.On(KindStoriesUpdated(KindTop), func(any) {})

	assert.Equal(t, []string{"stats-updated", "top-stories-updated"}, e.Events())
}
