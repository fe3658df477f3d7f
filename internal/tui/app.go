package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/feed"
	"github.com/matheus3301/guestfeed/internal/tui/keys"
	"github.com/matheus3301/guestfeed/internal/tui/ui"
	"github.com/matheus3301/guestfeed/internal/tui/views"
	"github.com/matheus3301/guestfeed/internal/view"
)

const (
	pageFeed   = "feed"
	pageFilter = "filter"
	pageChat   = "chat"
	pageHelp   = "help"
)

// Client is the daemon API the dashboard uses.
type Client interface {
	view.API
	RenderChat(ctx context.Context, bookingID int64) (string, error)
	SetNoReplyNeeded(ctx context.Context, bookingID, threadID int64, currentStatus int) error
	LoadListingDetails(ctx context.Context, bookingID int64) ([]string, error)
	Status(ctx context.Context) (*api.StatusResponse, error)
	WatchEvents(ctx context.Context, prefix string, fn func(api.Event)) error
}

// Options tune the dashboard.
type Options struct {
	Workspace     string
	PageLength    int
	WatchInterval time.Duration
	Logger        *zap.Logger
}

// App is the feed dashboard.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	root     *tview.Flex
	client   Client
	widget   *view.Widget
	registry *keys.Registry
	theme    *ui.Theme
	opts     Options

	header    *ui.Header
	menu      *ui.Menu
	flash     *ui.FlashModel
	flashBar  *ui.FlashBar
	prompt    *ui.Prompt
	statusBar *views.StatusBar
	table     *views.FeedTable
	filters   *views.FilterForm
	chat      *views.ChatPane
	help      *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the dashboard over c.
func NewApp(c Client, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		client:    c,
		registry:  keys.NewRegistry(),
		theme:     theme,
		opts:      opts,
		header:    ui.NewHeader(theme),
		menu:      ui.NewMenu(theme),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		prompt:    ui.NewPrompt(theme),
		statusBar: views.NewStatusBar(),
		table:     views.NewFeedTable(theme),
		filters:   views.NewFilterForm(theme),
		chat:      views.NewChatPane(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.widget = view.New(c, opts.PageLength,
		view.WithLogger(opts.Logger),
		view.WithOnReload(func(p view.Page) {
			a.app.QueueUpdateDraw(func() { a.renderPage(p) })
		}))

	a.statusBar.SetWorkspace(opts.Workspace)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Handler: a.Stop})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Handler: func() { a.switchTo(pageHelp, a.help) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Description: "Command", Handler: a.showPrompt})

	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Chat", Handler: a.openSelected})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'n', Description: "Next", Handler: func() { a.navigate(1) }})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'p', Description: "Prev", Handler: func() { a.navigate(-1) }})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'f', Description: "Filter", Handler: a.showFilters})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'c', Description: "Clear", Handler: a.clearFilters})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'r', Description: "Reload", Handler: a.reload})
	a.registry.AddPage(pageFeed, &keys.Action{Key: tcell.KeyRune, Rune: 'x', Description: "No reply", Handler: func() {
		if m, ok := a.table.Selected(); ok {
			a.toggleNoReply(m)
		}
	}})
	a.registry.AddPage(pageChat, &keys.Action{Key: tcell.KeyRune, Rune: 'x', Description: "No reply", Handler: func() {
		a.toggleNoReply(a.chat.Message())
	}})
}

func (a *App) setupCallbacks() {
	a.filters.SetOnApply(func(f feed.RawFilter) {
		a.backToFeed()
		a.async("filter", func() error {
			_, err := a.widget.ApplyFilters(a.ctx, f)
			return err
		})
	})
	a.filters.SetOnClear(a.clearFilters)
	a.filters.SetOnCancel(a.backToFeed)

	a.prompt.SetOnSubmit(func(text string) {
		a.hidePrompt()
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageFeed, a.table, true, true)
	a.pages.AddPage(pageFilter, a.filters, true, false)
	a.pages.AddPage(pageChat, a.chat, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 2, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
	a.app.SetRoot(a.root, true)
	a.menu.Update(a.registry.Hints(pageFeed))

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.app.GetFocus() == a.prompt.InputField {
			return event
		}
		page, _ := a.pages.GetFrontPage()
		if event.Key() == tcell.KeyEscape && page != pageFeed {
			a.backToFeed()
			return nil
		}
		// The filter form owns every other key.
		if page == pageFilter {
			return event
		}
		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

// Run shows the dashboard until the operator quits.
func (a *App) Run() error {
	go a.start()
	defer a.cancel()
	return a.app.Run()
}

// Stop shuts the dashboard down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func (a *App) start() {
	a.refreshStatus()
	a.async("load", func() error {
		_, err := a.widget.Load(a.ctx)
		return err
	})
	go view.NewPoller(a.widget, a.opts.WatchInterval, a.opts.Logger).Run(a.ctx)
	go a.follow()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.refreshStatus()
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		}
	}
}

// follow reacts to daemon events between watch ticks. When the stream is
// unavailable the poller alone keeps the feed current.
func (a *App) follow() {
	err := a.client.WatchEvents(a.ctx, "", func(e api.Event) {
		switch e.Kind {
		case bus.KindThreadUpdated:
			a.reload()
		default:
			if _, err := a.widget.Tick(a.ctx); err != nil {
				a.opts.Logger.Debug("event-driven watch failed", zap.Error(err))
			}
		}
	})
	if err != nil && a.ctx.Err() == nil {
		a.opts.Logger.Warn("event stream ended", zap.Error(err))
		a.notify(func() { a.flash.Warn("live updates stopped; polling every " + a.interval().String()) })
	}
}

func (a *App) interval() time.Duration {
	if a.opts.WatchInterval > 0 {
		return a.opts.WatchInterval
	}
	return view.DefaultInterval
}

func (a *App) refreshStatus() {
	st, err := a.client.Status(a.ctx)
	if err != nil {
		a.notify(func() { a.flash.Err(fmt.Errorf("status: %w", err)) })
		return
	}
	a.app.QueueUpdateDraw(func() { a.header.Update(st) })
}

func (a *App) renderPage(p view.Page) {
	a.table.Update(p.Messages, p.Offset, p.BubbledID, p.Filtered)
	a.statusBar.SetPosition(p.Offset, p.Filtered)
	a.statusBar.SetWatching(p.Watching, time.Now())
}

func (a *App) navigate(dir int) {
	a.async("navigate", func() error {
		_, err := a.widget.Navigate(a.ctx, dir)
		return err
	})
}

func (a *App) reload() {
	a.async("reload", func() error {
		_, err := a.widget.Load(a.ctx)
		return err
	})
}

func (a *App) clearFilters() {
	a.filters.Reset()
	a.backToFeed()
	a.async("clear filters", func() error {
		_, err := a.widget.ClearFilters(a.ctx)
		return err
	})
}

// showFilters keeps the form's last applied values.
func (a *App) showFilters() {
	a.switchTo(pageFilter, a.filters)
}

func (a *App) openSelected() {
	if m, ok := a.table.Selected(); ok {
		a.openChat(m)
	}
}

func (a *App) openChat(m api.Message) {
	a.async("chat", func() error {
		chat, err := a.client.RenderChat(a.ctx, m.BookingID)
		if err != nil {
			return err
		}
		listings, listErr := a.client.LoadListingDetails(a.ctx, m.BookingID)
		a.app.QueueUpdateDraw(func() {
			a.chat.Update(m, chat, listings, listErr)
			a.switchTo(pageChat, a.chat)
		})
		return nil
	})
}

func (a *App) toggleNoReply(m api.Message) {
	if m.ThreadID == 0 {
		a.flash.Warn("no thread selected")
		a.flashBar.Update(a.flash.Current())
		return
	}
	current := 0
	if m.NoReplyNeeded {
		current = 1
	}
	a.async("no reply", func() error {
		if err := a.client.SetNoReplyNeeded(a.ctx, m.BookingID, m.ThreadID, current); err != nil {
			return err
		}
		a.notify(func() {
			a.chat.SetNoReplyNeeded(current == 0)
			if current == 0 {
				a.flash.Info(fmt.Sprintf("booking #%d marked as needing no reply", m.BookingID))
			} else {
				a.flash.Info(fmt.Sprintf("booking #%d awaits a reply again", m.BookingID))
			}
		})
		_, err := a.widget.Load(a.ctx)
		return err
	})
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.switchTo(pageHelp, a.help)
	case "goto":
		id, err := cmd.BookingID()
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.async("goto", func() error {
			a.widget.Notify(strconv.FormatInt(id, 10))
			_, err := a.widget.Load(a.ctx)
			return err
		})
	case "chat":
		id, err := cmd.BookingID()
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.openChat(api.Message{BookingID: id})
	default:
		a.flash.Warn("unknown command: " + cmd.Name)
	}
	a.flashBar.Update(a.flash.Current())
}

func (a *App) switchTo(page string, c ui.Component) {
	a.pages.SwitchToPage(page)
	if p, ok := c.(tview.Primitive); ok {
		a.app.SetFocus(p)
	}
	hints := c.Hints()
	if len(hints) == 0 {
		hints = a.registry.Hints(page)
	}
	a.menu.Update(hints)
}

func (a *App) backToFeed() {
	a.switchTo(pageFeed, a.table)
}

func (a *App) showPrompt() {
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	_, item := a.pages.GetFrontPage()
	a.app.SetFocus(item)
}

// async runs fn off the UI goroutine and flashes its error.
func (a *App) async(what string, fn func() error) {
	go func() {
		if err := fn(); err != nil && a.ctx.Err() == nil {
			a.opts.Logger.Debug("dashboard action failed", zap.String("action", what), zap.Error(err))
			a.notify(func() { a.flash.Err(fmt.Errorf("%s: %w", what, err)) })
		}
	}()
}

// notify applies fn and redraws the flash bar on the UI goroutine.
func (a *App) notify(fn func()) {
	a.app.QueueUpdateDraw(func() {
		fn()
		a.flashBar.Update(a.flash.Current())
	})
}
