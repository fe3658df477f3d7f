package feed

import (
	"fmt"
	"strings"
	"time"
)

// RawFilter carries the filter fields exactly as the operator typed them.
type RawFilter struct {
	GuestName string `json:"guest_name,omitempty"`
	Message   string `json:"message,omitempty"`
	Sender    string `json:"sender,omitempty"`
	FromDate  string `json:"fromdt,omitempty"`
	ToDate    string `json:"todt,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (r RawFilter) IsEmpty() bool {
	return strings.TrimSpace(r.GuestName) == "" &&
		strings.TrimSpace(r.Message) == "" &&
		strings.TrimSpace(r.Sender) == "" &&
		strings.TrimSpace(r.FromDate) == "" &&
		strings.TrimSpace(r.ToDate) == ""
}

// Filter is the canonical search criteria. Zero values mean "not set";
// FromUTC and ToUTC are inclusive bounds.
type Filter struct {
	GuestName       string
	MessageContains string
	Sender          string
	FromUTC         time.Time
	ToUTC           time.Time
}

// IsEmpty reports whether no criterion is populated. An empty filter selects
// the unfiltered retrieval path.
func (f Filter) IsEmpty() bool {
	return f.GuestName == "" && f.MessageContains == "" && f.Sender == "" &&
		f.FromUTC.IsZero() && f.ToUTC.IsZero()
}

// Fields lists the populated criteria in wire form, for logging.
func (f Filter) Fields() map[string]string {
	out := make(map[string]string)
	if f.GuestName != "" {
		out["guest_name"] = f.GuestName
	}
	if f.MessageContains != "" {
		out["message"] = f.MessageContains
	}
	if f.Sender != "" {
		out["sender"] = f.Sender
	}
	if !f.FromUTC.IsZero() {
		out["fromdt"] = FormatTime(f.FromUTC)
	}
	if !f.ToUTC.IsZero() {
		out["todt"] = FormatTime(f.ToUTC)
	}
	return out
}

// DefaultDateLayouts are tried in order when parsing calendar dates.
var DefaultDateLayouts = []string{"2006-01-02"}

// Normalizer converts raw filters using the operator's calendar.
type Normalizer struct {
	loc     *time.Location
	layouts []string
}

// NewNormalizer returns a Normalizer for loc (time.Local when nil).
func NewNormalizer(loc *time.Location, layouts ...string) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &Normalizer{loc: loc, layouts: layouts}
}

// Location returns the calendar time zone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize trims raw, drops blank fields and converts the date range to UTC
// day boundaries of the local calendar.
func (n *Normalizer) Normalize(raw RawFilter) (Filter, error) {
	var f Filter
	f.GuestName = strings.TrimSpace(raw.GuestName)
	f.MessageContains = strings.TrimSpace(raw.Message)

	if s := strings.TrimSpace(raw.Sender); s != "" {
		switch strings.ToLower(s) {
		case SenderGuest:
			f.Sender = SenderGuest
		case SenderHost:
			f.Sender = SenderHost
		default:
			return Filter{}, newError(KindInvalidFilter, fmt.Sprintf("unknown sender %q", s), nil)
		}
	}

	if s := strings.TrimSpace(raw.FromDate); s != "" {
		day, err := n.parseDay(s)
		if err != nil {
			return Filter{}, newError(KindInvalidFilter, fmt.Sprintf("invalid fromdt %q", s), err)
		}
		f.FromUTC = day.UTC()
	}
	if s := strings.TrimSpace(raw.ToDate); s != "" {
		day, err := n.parseDay(s)
		if err != nil {
			return Filter{}, newError(KindInvalidFilter, fmt.Sprintf("invalid todt %q", s), err)
		}
		y, m, d := day.Date()
		f.ToUTC = time.Date(y, m, d, 23, 59, 59, 0, n.loc).UTC()
	}
	return f, nil
}

// parseDay returns local midnight of the calendar day s.
func (n *Normalizer) parseDay(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range n.layouts {
		t, err := time.ParseInLocation(layout, s, n.loc)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, n.loc), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
