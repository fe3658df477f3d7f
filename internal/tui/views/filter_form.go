package views

import (
	"github.com/rivo/tview"

	"github.com/matheus3301/guestfeed/internal/feed"
	"github.com/matheus3301/guestfeed/internal/tui/ui"
)

var senderOptions = []string{"any", feed.SenderGuest, feed.SenderHost}

// FilterForm edits the feed filters.
type FilterForm struct {
	*tview.Form
	onApply  func(feed.RawFilter)
	onClear  func()
	onCancel func()
}

func NewFilterForm(theme *ui.Theme) *FilterForm {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetTitle(" Filter messages ")
	form.SetTitleColor(theme.TitleColor)

	ff := &FilterForm{Form: form}
	form.AddInputField("Guest name", "", 30, nil, nil).
		AddInputField("Message", "", 40, nil, nil).
		AddDropDown("Sender", senderOptions, 0, nil).
		AddInputField("From date", "", 12, nil, nil).
		AddInputField("To date", "", 12, nil, nil).
		AddButton("Apply", func() {
			if ff.onApply != nil {
				ff.onApply(ff.Filter())
			}
		}).
		AddButton("Clear", func() {
			ff.Reset()
			if ff.onClear != nil {
				ff.onClear()
			}
		}).
		AddButton("Cancel", func() {
			if ff.onCancel != nil {
				ff.onCancel()
			}
		})
	return ff
}

func (ff *FilterForm) Name() string { return "Filter" }

func (ff *FilterForm) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Esc", Description: "Back"},
	}
}

func (ff *FilterForm) SetOnApply(fn func(feed.RawFilter)) { ff.onApply = fn }

func (ff *FilterForm) SetOnClear(fn func()) { ff.onClear = fn }

func (ff *FilterForm) SetOnCancel(fn func()) { ff.onCancel = fn }

// Filter reads the fields as a raw filter. Dates are passed through for the
// daemon to validate.
func (ff *FilterForm) Filter() feed.RawFilter {
	f := feed.RawFilter{
		GuestName: ff.text("Guest name"),
		Message:   ff.text("Message"),
		FromDate:  ff.text("From date"),
		ToDate:    ff.text("To date"),
	}
	if dd, ok := ff.GetFormItemByLabel("Sender").(*tview.DropDown); ok {
		if idx, opt := dd.GetCurrentOption(); idx > 0 {
			f.Sender = opt
		}
	}
	return f
}

// SetFilter shows f in the fields.
func (ff *FilterForm) SetFilter(f feed.RawFilter) {
	ff.setText("Guest name", f.GuestName)
	ff.setText("Message", f.Message)
	ff.setText("From date", f.FromDate)
	ff.setText("To date", f.ToDate)
	if dd, ok := ff.GetFormItemByLabel("Sender").(*tview.DropDown); ok {
		dd.SetCurrentOption(0)
		for i, opt := range senderOptions {
			if i > 0 && opt == f.Sender {
				dd.SetCurrentOption(i)
			}
		}
	}
}

// Reset empties every field.
func (ff *FilterForm) Reset() {
	ff.SetFilter(feed.RawFilter{})
}

func (ff *FilterForm) text(label string) string {
	if in, ok := ff.GetFormItemByLabel(label).(*tview.InputField); ok {
		return in.GetText()
	}
	return ""
}

func (ff *FilterForm) setText(label, value string) {
	if in, ok := ff.GetFormItemByLabel(label).(*tview.InputField); ok {
		in.SetText(value)
	}
}
