package views

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/tui/ui"
)

// FeedTable lists one window of guest conversations.
type FeedTable struct {
	*tview.Table
	theme    *ui.Theme
	messages []api.Message
	bubbled  string
}

func NewFeedTable(theme *ui.Theme) *FeedTable {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Guest messages ")
	table.SetTitleColor(theme.TitleColor)

	return &FeedTable{Table: table, theme: theme}
}

func (ft *FeedTable) Name() string { return "Feed" }

func (ft *FeedTable) Hints() []ui.MenuHint { return nil }

// Update renders a page. offset is the window start, filtered marks
// the title when filters are active.
func (ft *FeedTable) Update(msgs []api.Message, offset int, bubbled string, filtered bool) {
	ft.messages = msgs
	ft.bubbled = bubbled
	ft.render()

	title := fmt.Sprintf(" Guest messages %d-%d ", offset+1, offset+len(msgs))
	if len(msgs) == 0 {
		title = " Guest messages (no records) "
	}
	if filtered {
		title += "[filtered] "
	}
	ft.SetTitle(title)
	if len(msgs) > 0 {
		ft.Select(1, 0)
	}
}

func (ft *FeedTable) render() {
	ft.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" GUEST", 1},
		{" MESSAGE", 3},
		{" CHANNEL", 0},
		{" BOOKING", 0},
		{" UPDATED", 0},
	}
	for col, h := range headers {
		ft.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(ft.theme.TableHeaderFg).
			SetBackgroundColor(ft.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	now := time.Now()
	for i, m := range ft.messages {
		row := i + 1
		fg := ft.theme.FgColor
		attrs := tcell.AttrNone
		if m.Unread {
			fg = ft.theme.UnreadColor
			attrs = tcell.AttrBold
		}
		if ft.bubbled != "" && ft.bubbled == strconv.FormatInt(m.BookingID, 10) {
			fg = ft.theme.BubbledColor
		}

		ft.SetCell(row, 0, tview.NewTableCell(marker(m)).SetTextColor(ft.markerColor(m)))
		ft.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(m.GuestName))).
			SetExpansion(1).SetTextColor(fg).SetAttributes(attrs))
		ft.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(m.Preview))).
			SetExpansion(3).SetTextColor(fg).SetAttributes(attrs))
		ft.SetCell(row, 3, tview.NewTableCell(" "+tview.Escape(m.Channel)).SetTextColor(ft.theme.MutedColor))
		ft.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf(" #%d %s", m.BookingID, m.Badge)).
			SetTextColor(ft.theme.BadgeColor(m.Badge)))
		ft.SetCell(row, 5, tview.NewTableCell(" "+formatUpdated(m.LastUpdated, now)).
			SetTextColor(ft.theme.MutedColor).SetAlign(tview.AlignRight))
	}
}

func (ft *FeedTable) markerColor(m api.Message) tcell.Color {
	switch {
	case m.Unread:
		return ft.theme.UnreadColor
	case m.AwaitingReply && !m.NoReplyNeeded:
		return ft.theme.AwaitingColor
	default:
		return ft.theme.MutedColor
	}
}

// marker is the one-cell state column: unread, awaiting a reply, or marked
// as needing none.
func marker(m api.Message) string {
	switch {
	case m.Unread:
		return "●"
	case m.NoReplyNeeded:
		return "✓"
	case m.AwaitingReply:
		return "↩"
	default:
		return " "
	}
}

// Selected returns the highlighted message.
func (ft *FeedTable) Selected() (api.Message, bool) {
	row, _ := ft.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(ft.messages) {
		return api.Message{}, false
	}
	return ft.messages[idx], true
}

// formatUpdated shows the time for today's messages and the date otherwise.
func formatUpdated(ts string, now time.Time) string {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.UTC)
	if err != nil {
		return ts
	}
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("02 Jan")
}
