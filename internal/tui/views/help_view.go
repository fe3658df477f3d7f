package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/guestfeed/internal/tui/ui"
)

// HelpView is the key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{TextView: tv, theme: theme}
	hv.render()
	return hv
}

func (hv *HelpView) Name() string { return "Help" }

func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Feed", [][2]string{
		{"Enter", "Open the booking chat"},
		{"n / p", "Next / previous page"},
		{"f", "Edit filters"},
		{"c", "Clear filters"},
		{"r", "Reload"},
		{"x", "Toggle no reply needed"},
	}},
	{"Chat", [][2]string{
		{"x", "Toggle no reply needed"},
		{"Esc", "Back to the feed"},
	}},
	{"Commands", [][2]string{
		{":goto <booking>", "Reload with that conversation on the page"},
		{":chat <booking>", "Open a booking chat"},
		{":help", "Show this help"},
		{":quit", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-18s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
