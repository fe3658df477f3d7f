package feed

import (
	"fmt"
	"time"
)

// CursorState is the pagination state of a widget instance.
type CursorState string

const (
	StateIdle  CursorState = "idle"
	StatePaged CursorState = "paged"
)

// CursorEvent is an operator or watch action that moves the cursor.
type CursorEvent string

const (
	EventNavigateNext        CursorEvent = "navigate_next"
	EventNavigatePrev        CursorEvent = "navigate_prev"
	EventFiltersApplied      CursorEvent = "filters_applied"
	EventFiltersCleared      CursorEvent = "filters_cleared"
	EventWatchDetectedChange CursorEvent = "watch_detected_change"
)

// Cursor is client-held pagination and watch state. A zero LastSeen means
// no baseline has been captured yet.
type Cursor struct {
	Offset     int
	PageLength int
	LastSeen   time.Time
}

// NewCursor returns an idle cursor with the given page length.
func NewCursor(pageLength int) Cursor {
	return Cursor{PageLength: pageLength}.Normalize()
}

// Normalize clamps the offset at zero and applies the default page length.
func (c Cursor) Normalize() Cursor {
	if c.PageLength <= 0 {
		c.PageLength = DefaultPageLength
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
	return c
}

// State derives Idle or Paged from the offset.
func (c Cursor) State() CursorState {
	if c.Offset > 0 {
		return StatePaged
	}
	return StateIdle
}

// HasBaseline reports whether a watch baseline is set.
func (c Cursor) HasBaseline() bool { return !c.LastSeen.IsZero() }

var transitions = map[CursorEvent]func(Cursor) Cursor{
	EventNavigateNext: func(c Cursor) Cursor {
		c.Offset += c.PageLength
		return c
	},
	EventNavigatePrev: func(c Cursor) Cursor {
		c.Offset = max(0, c.Offset-c.PageLength)
		return c
	},
	EventFiltersApplied:      reset,
	EventFiltersCleared:      reset,
	EventWatchDetectedChange: reset,
}

func reset(c Cursor) Cursor {
	c.Offset = 0
	return c
}

// Apply returns the cursor after ev. The watch baseline is never touched here.
func (c Cursor) Apply(ev CursorEvent) (Cursor, error) {
	fn, ok := transitions[ev]
	if !ok {
		return c, fmt.Errorf("unknown cursor event %q", ev)
	}
	return fn(c.Normalize()), nil
}

// advance is the fetcher's move to the next window.
func (c Cursor) advance() Cursor {
	c.Offset += c.PageLength
	return c
}
