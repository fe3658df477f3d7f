package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar shows the workspace, the feed position and the watch state.
type StatusBar struct {
	*tview.TextView
	workspace string
	offset    int
	filtered  bool
	watching  bool
	lastTick  time.Time
}

func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	return &StatusBar{TextView: tv}
}

func (sb *StatusBar) SetWorkspace(name string) {
	sb.workspace = name
	sb.render()
}

// SetPosition records the window start and whether filters are active.
func (sb *StatusBar) SetPosition(offset int, filtered bool) {
	sb.offset = offset
	sb.filtered = filtered
	sb.render()
}

// SetWatching records whether a watch baseline exists and when the feed
// was last refreshed.
func (sb *StatusBar) SetWatching(watching bool, at time.Time) {
	sb.watching = watching
	sb.lastTick = at
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	page := "page 1"
	if sb.offset > 0 {
		page = fmt.Sprintf("from #%d", sb.offset+1)
	}
	filter := ""
	if sb.filtered {
		filter = " | [yellow]filtered[-]"
	}
	watch := "[gray]not watching[-]"
	if sb.watching {
		watch = "[green]watching[-]"
	}
	refreshed := "-"
	if !sb.lastTick.IsZero() {
		refreshed = sb.lastTick.Format("15:04:05")
	}

	_, _ = fmt.Fprintf(sb, " [::b]%s[-:-:-] | %s%s | %s | refreshed %s",
		sb.workspace, page, filter, watch, refreshed)
}
