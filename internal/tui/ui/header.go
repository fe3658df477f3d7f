package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/guestfeed/internal/api"
)

// Header shows what the daemon reported about the workspace.
type Header struct {
	*tview.TextView
	theme *Theme
}

func NewHeader(theme *Theme) *Header {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &Header{TextView: tv, theme: theme}
}

func (h *Header) Update(st *api.StatusResponse) {
	h.Clear()
	if st == nil {
		return
	}
	fg := ColorName(h.theme.FgColor)
	val := ColorName(h.theme.CounterColor)

	state := "available"
	if !st.Available {
		state = "unavailable: " + st.Reason
	}
	caps := strings.Join(st.Capabilities, ",")
	if caps == "" {
		caps = "-"
	}

	_, _ = fmt.Fprintf(h,
		"[%s::b]Workspace:[-:-:-] [%s]%s[-]   [%s::b]Feed:[-:-:-] [%s]%s[-]   [%s::b]Store:[-:-:-] [%s]v%d[-]   [%s::b]Uptime:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Capabilities:[-:-:-] [%s]%s[-]",
		fg, val, st.Workspace,
		fg, val, tview.Escape(state),
		fg, val, st.StoreVersion,
		fg, val, formatUptime(time.Duration(st.UptimeMs)*time.Millisecond),
		fg, val, caps,
	)
}

func formatUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
