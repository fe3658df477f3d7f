package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/tui/ui"
)

// ChatPane shows a booking's transcript and the rooms it covers.
type ChatPane struct {
	*tview.TextView
	theme   *ui.Theme
	message api.Message
}

func NewChatPane(theme *ui.Theme) *ChatPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Chat ")
	tv.SetTitleColor(theme.TitleColor)

	return &ChatPane{TextView: tv, theme: theme}
}

func (cp *ChatPane) Name() string {
	if cp.message.BookingID != 0 {
		return fmt.Sprintf("Booking #%d", cp.message.BookingID)
	}
	return "Chat"
}

func (cp *ChatPane) Hints() []ui.MenuHint { return nil }

// Message is the feed entry the pane was opened from.
func (cp *ChatPane) Message() api.Message { return cp.message }

// Update renders chat for m. listingsErr is shown in place of the room list
// when the rooms could not be loaded.
func (cp *ChatPane) Update(m api.Message, chat string, listings []string, listingsErr error) {
	cp.message = m
	cp.Clear()
	cp.SetTitle(fmt.Sprintf(" %s · booking #%d ", tview.Escape(sanitizeForTerminal(m.GuestName)), m.BookingID))

	fg := ui.ColorName(cp.theme.FgColor)
	val := ui.ColorName(cp.theme.CounterColor)

	rooms := strings.Join(listings, ", ")
	if listingsErr != nil {
		rooms = listingsErr.Error()
	}
	status := "awaiting reply"
	switch {
	case m.NoReplyNeeded:
		status = "no reply needed"
	case !m.AwaitingReply && !m.Unread:
		status = "replied"
	case m.Unread:
		status = "unread"
	}

	_, _ = fmt.Fprintf(cp,
		"[%s::b]Channel:[-:-:-] [%s]%s (%s)[-]   [%s::b]Status:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Stay:[-:-:-] [%s]%s → %s[-]   [%s::b]Rooms:[-:-:-] [%s]%s[-]\n\n",
		fg, val, tview.Escape(m.Channel), m.ChannelKind,
		fg, val, status,
		fg, val, orDash(m.CheckIn), orDash(m.CheckOut),
		fg, val, tview.Escape(rooms),
	)
	_, _ = fmt.Fprint(cp, tview.Escape(sanitizeForTerminal(chat)))
	cp.ScrollToEnd()
}

// SetNoReplyNeeded updates the cached flag after a toggle.
func (cp *ChatPane) SetNoReplyNeeded(v bool) {
	cp.message.NoReplyNeeded = v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
