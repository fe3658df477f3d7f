package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// Theme holds the colors of the dashboard.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	MenuKeyColor      tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	UnreadColor       tcell.Color
	AwaitingColor     tcell.Color
	BubbledColor      tcell.Color
	MutedColor        tcell.Color
	ConfirmedColor    tcell.Color
	StandbyColor      tcell.Color
	CancelledColor    tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns the dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		UnreadColor:       tcell.ColorWhite,
		AwaitingColor:     tcell.ColorOrange,
		BubbledColor:      tcell.ColorGold,
		MutedColor:        tcell.ColorGray,
		ConfirmedColor:    tcell.ColorGreen,
		StandbyColor:      tcell.ColorYellow,
		CancelledColor:    tcell.ColorOrangeRed,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

// BadgeColor picks the color of a booking badge.
func (t *Theme) BadgeColor(badge string) tcell.Color {
	switch feed.Badge(badge) {
	case feed.BadgeConfirmed:
		return t.ConfirmedColor
	case feed.BadgeStandby:
		return t.StandbyColor
	case feed.BadgeCancelled:
		return t.CancelledColor
	default:
		return t.MutedColor
	}
}

// ColorName returns a tview color tag name for c.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
