package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/matheus3301/guestfeed/internal/api"
	"github.com/matheus3301/guestfeed/internal/client"
	"github.com/matheus3301/guestfeed/internal/config"
	"github.com/matheus3301/guestfeed/internal/lock"
	"github.com/matheus3301/guestfeed/internal/workspace"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	layout := workspace.DefaultLayout()
	if args[0] == "workspaces" {
		cmdWorkspaces(layout, *jsonFlag)
		return
	}

	cfg, err := config.LoadOrDefault(layout.ConfigPath())
	if err != nil {
		fatal(fmt.Errorf("load config: %w", err))
	}
	name := workspace.Resolve(*workspaceFlag, cfg)
	if err := workspace.ValidateName(name); err != nil {
		fatal(err)
	}

	c, err := client.New(layout.SocketPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for workspace %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "follow" {
		cmdFollow(c, args[1:], *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "load":
		cmdLoad(ctx, c, args[1:], *jsonFlag)
	case "watch":
		cmdWatch(ctx, c, args[1:], *jsonFlag)
	case "chat":
		cmdChat(ctx, c, args[1:], *jsonFlag)
	case "noreply":
		cmdNoReply(ctx, c, args[1:], *jsonFlag)
	case "listings":
		cmdListings(ctx, c, args[1:], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: feedctl [--workspace <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                                  Show feed status")
	fmt.Fprintln(os.Stderr, "  load [flags]                            Load a message window (load -h for flags)")
	fmt.Fprintln(os.Stderr, "  watch <last-seen>                       Report whether the feed changed since last-seen")
	fmt.Fprintln(os.Stderr, "  follow [prefix]                         Stream feed events until interrupted")
	fmt.Fprintln(os.Stderr, "  chat <booking-id>                       Print a booking's conversation")
	fmt.Fprintln(os.Stderr, "  noreply <booking-id> <thread-id> <0|1>  Toggle no-reply-needed from its current status")
	fmt.Fprintln(os.Stderr, "  listings <booking-id>                   Show a booking's listing details")
	fmt.Fprintln(os.Stderr, "  workspaces                              List known workspaces")
}

func cmdStatus(ctx context.Context, c *client.Client, jsonOut bool) {
	resp, err := c.Status(ctx)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Workspace:    %s\n", resp.Workspace)
	if resp.Available {
		fmt.Printf("Feed:         available (store v%d)\n", resp.StoreVersion)
	} else {
		fmt.Printf("Feed:         unavailable: %s\n", resp.Reason)
	}
	fmt.Printf("Capabilities: %v\n", resp.Capabilities)
	fmt.Printf("Page length:  %d\n", resp.PageLength)
	fmt.Printf("Watch every:  %s\n", resp.WatchInterval)
	fmt.Printf("Uptime:       %dms\n", resp.UptimeMs)
}

func cmdLoad(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	req := &api.LoadMessagesRequest{}
	fs.StringVar(&req.Filters.GuestName, "guest", "", "guest name contains")
	fs.StringVar(&req.Filters.Message, "message", "", "message content contains")
	fs.StringVar(&req.Filters.Sender, "sender", "", "sender: guest or host")
	fs.StringVar(&req.Filters.FromDate, "from", "", "first day, inclusive")
	fs.StringVar(&req.Filters.ToDate, "to", "", "last day, inclusive")
	fs.IntVar(&req.Offset, "offset", 0, "window offset")
	fs.IntVar(&req.Length, "length", 0, "window length (default: daemon page length)")
	fs.StringVar(&req.LastSeen, "last-seen", "", "watch baseline, YYYY-MM-DD HH:MM:SS UTC")
	fs.StringVar(&req.BidConvo, "bid", "", "booking id to bubble to the top")
	_ = fs.Parse(args)

	resp, err := c.LoadMessages(ctx, req)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Page) == 0 {
		fmt.Println("No messages.")
	}
	for _, m := range resp.Page {
		flags := ""
		switch {
		case m.Unread:
			flags = "unread"
		case m.NoReplyNeeded:
			flags = "no reply needed"
		case m.AwaitingReply:
			flags = "awaiting reply"
		}
		fmt.Printf("#%-8d %-20s %-10s %-19s %-16s %s\n",
			m.BookingID, m.GuestName, m.Channel, m.LastUpdated, flags, m.Preview)
	}
	fmt.Printf("\nnext offset: %d", resp.NextOffset)
	if resp.LatestTimestamp != "" {
		fmt.Printf("  latest: %s", resp.LatestTimestamp)
	}
	if resp.BubbledID != "" {
		fmt.Printf("  bubbled: #%s", resp.BubbledID)
	}
	fmt.Println()
}

func cmdWatch(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	if len(args) < 1 {
		usageExit("usage: feedctl watch <last-seen>")
	}
	changed, err := c.WatchMessages(ctx, args[0])
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(map[string]bool{"changed": changed})
		return
	}
	if changed {
		fmt.Println("changed")
	} else {
		fmt.Println("unchanged")
	}
}

func cmdFollow(c *client.Client, args []string, jsonOut bool) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := c.WatchEvents(ctx, prefix, func(e api.Event) {
		if jsonOut {
			outputJSON(e)
			return
		}
		fmt.Printf("%s %-26s %v\n", e.Timestamp, e.Kind, e.Payload)
	})
	if err != nil {
		fatal(err)
	}
}

func cmdChat(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	id := bookingArg(args, "usage: feedctl chat <booking-id>")
	chat, err := c.RenderChat(ctx, id)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(api.RenderChatResponse{Chat: chat})
		return
	}
	fmt.Println(chat)
}

func cmdNoReply(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	const usage = "usage: feedctl noreply <booking-id> <thread-id> <0|1>"
	if len(args) < 3 {
		usageExit(usage)
	}
	bookingID := bookingArg(args, usage)
	threadID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		usageExit(usage)
	}
	current, err := strconv.Atoi(args[2])
	if err != nil || (current != 0 && current != 1) {
		usageExit(usage)
	}
	if err := c.SetNoReplyNeeded(ctx, bookingID, threadID, current); err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(api.NoReplyResponse{Success: 1})
		return
	}
	if current == 0 {
		fmt.Printf("Thread %d marked as needing no reply.\n", threadID)
	} else {
		fmt.Printf("Thread %d awaits a reply again.\n", threadID)
	}
}

func cmdListings(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	id := bookingArg(args, "usage: feedctl listings <booking-id>")
	listings, err := c.LoadListingDetails(ctx, id)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(api.ListingsResponse{Listings: listings})
		return
	}
	if len(listings) == 0 {
		fmt.Println("No listings.")
		return
	}
	for _, l := range listings {
		fmt.Println(l)
	}
}

type workspaceInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Running bool   `json:"daemon_running"`
	PID     int    `json:"pid,omitempty"`
}

func cmdWorkspaces(layout workspace.Layout, jsonOut bool) {
	names, err := layout.List()
	if err != nil {
		fatal(err)
	}
	infos := make([]workspaceInfo, 0, len(names))
	for _, name := range names {
		info := workspaceInfo{Name: name, Path: layout.Dir(name)}
		if h, err := lock.ReadHolder(info.Path); err == nil && h.PID != 0 && syscall.Kill(h.PID, 0) == nil {
			info.Running, info.PID = true, h.PID
		}
		infos = append(infos, info)
	}
	if jsonOut {
		outputJSON(infos)
		return
	}
	if len(infos) == 0 {
		fmt.Println("No workspaces found.")
		return
	}
	for _, w := range infos {
		running := "stopped"
		if w.Running {
			running = fmt.Sprintf("running, pid %d", w.PID)
		}
		fmt.Printf("%-20s %s (%s)\n", w.Name, w.Path, running)
	}
}

func bookingArg(args []string, usage string) int64 {
	if len(args) < 1 {
		usageExit(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		usageExit(usage)
	}
	return id
}

func usageExit(usage string) {
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(1)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
