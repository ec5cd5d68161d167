// Package events keeps an in-memory, offset-addressed change feed per
// session so clients can replay or long-poll state changes.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one state change
type Event struct {
	Offset    int64     `json:"offset"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"eventType"`
	Outcome   string    `json:"outcome"`
	Data      any       `json:"data"`
}

// Config holds configuration for a feed
type Config struct {
	MaxEvents int
	Logger    *slog.Logger
}

// Feed is an append-only event log with rotation and long-poll waiters
type Feed struct {
	mu         sync.Mutex
	events     []Event
	nextOffset int64
	maxEvents  int
	logger     *slog.Logger
	changed    chan struct{}
	closed     bool
}

// NewFeed creates an empty feed. MaxEvents below 1 defaults to 1000.
func NewFeed(cfg Config) *Feed {
	if cfg.MaxEvents < 1 {
		cfg.MaxEvents = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Feed{
		maxEvents: cfg.MaxEvents,
		logger:    cfg.Logger,
		changed:   make(chan struct{}),
	}
}

// Publish appends an event and wakes every waiter. It returns the assigned offset.
func (f *Feed) Publish(eventType, outcome string, at time.Time, data any) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	event := Event{
		Offset:    f.nextOffset,
		Timestamp: at,
		Type:      eventType,
		Outcome:   outcome,
		Data:      data,
	}
	f.nextOffset++
	f.events = append(f.events, event)

	if len(f.events) > f.maxEvents {
		// keep 75% of max events
		keepCount := f.maxEvents * 3 / 4
		if keepCount < 1 {
			keepCount = 1
		}
		removed := len(f.events) - keepCount
		f.events = append([]Event(nil), f.events[removed:]...)

		f.logger.Debug("Event feed rotated",
			"removed_events", removed,
			"remaining_events", len(f.events),
		)
	}

	f.wakeLocked()
	return event.Offset
}

// Events returns up to limit events at or after from, the offset to resume
// from, and whether more events are already available.
func (f *Feed) Events(from int64, limit int) ([]Event, int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	startIdx := -1
	for i, event := range f.events {
		if event.Offset >= from {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		next := from
		if next > f.nextOffset || next < 0 {
			next = f.nextOffset
		}
		return []Event{}, next, false
	}

	endIdx := len(f.events)
	hasMore := false
	if limit > 0 && startIdx+limit < endIdx {
		endIdx = startIdx + limit
		hasMore = true
	}

	result := make([]Event, endIdx-startIdx)
	copy(result, f.events[startIdx:endIdx])
	return result, result[len(result)-1].Offset + 1, hasMore
}

// Wait blocks until an event with offset >= from exists, the feed is closed
// or ctx is done. It returns ctx.Err() in the last case.
func (f *Feed) Wait(ctx context.Context, from int64) error {
	for {
		f.mu.Lock()
		if f.nextOffset > from || f.closed {
			f.mu.Unlock()
			return nil
		}
		changed := f.changed
		f.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// NextOffset returns the offset the next event will receive
func (f *Feed) NextOffset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextOffset
}

// Close releases every waiter. Later Publish calls still append.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.wakeLocked()
}

// wakeLocked closes the current broadcast channel and installs a fresh one
func (f *Feed) wakeLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
