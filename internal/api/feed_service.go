package api

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/guestfeed/internal/bus"
	"github.com/matheus3301/guestfeed/internal/feed"
)

// defaultEventPrefixes are relayed by WatchEvents when no prefix is given.
var defaultEventPrefixes = []string{"message.", "thread."}

// FeedService implements FeedServer on top of a feed.Controller.
type FeedService struct {
	controller    *feed.Controller
	bus           *bus.Bus
	workspace     string
	watchInterval time.Duration
	startedAt     time.Time
	logger        *zap.Logger
	now           func() time.Time
}

// NewFeedService creates the service. b may be nil, in which case
// WatchEvents reports Internal.
func NewFeedService(c *feed.Controller, b *bus.Bus, workspace string, watchInterval time.Duration, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		controller:    c,
		bus:           b,
		workspace:     workspace,
		watchInterval: watchInterval,
		startedAt:     time.Now(),
		logger:        logger,
		now:           time.Now,
	}
}

func (s *FeedService) LoadMessages(ctx context.Context, req *LoadMessagesRequest) (*LoadMessagesResponse, error) {
	lastSeen, err := feed.ParseTime(req.LastSeen)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "malformed last_seen_timestamp %q", req.LastSeen)
	}
	res, err := s.controller.LoadMessages(ctx, feed.LoadRequest{
		Filter: req.Filters,
		Cursor: feed.Cursor{Offset: req.Offset, PageLength: req.Length, LastSeen: lastSeen},
		Handle: req.BidConvo,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	page := make([]Message, 0, len(res.Messages))
	for _, m := range res.Messages {
		page = append(page, FromMessage(m, now))
	}
	return &LoadMessagesResponse{
		Page:            page,
		TotalOnPage:     res.TotalOnPage,
		NextOffset:      res.NextOffset(),
		LatestTimestamp: feed.FormatTime(res.LatestTimestamp),
		BubbledID:       res.BubbledID,
	}, nil
}

func (s *FeedService) WatchMessages(ctx context.Context, req *WatchMessagesRequest) (*WatchMessagesResponse, error) {
	lastSeen, err := feed.ParseTime(req.LastSeen)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "malformed last_seen_timestamp %q", req.LastSeen)
	}
	changed, err := s.controller.WatchMessages(ctx, lastSeen)
	if err != nil {
		return nil, err
	}
	resp := &WatchMessagesResponse{}
	if changed {
		resp.Changed = 1
	}
	return resp, nil
}

func (s *FeedService) RenderChat(ctx context.Context, req *RenderChatRequest) (*RenderChatResponse, error) {
	chat, err := s.controller.RenderChat(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	return &RenderChatResponse{Chat: chat}, nil
}

func (s *FeedService) SetNoReplyNeeded(ctx context.Context, req *NoReplyRequest) (*NoReplyResponse, error) {
	if err := s.controller.ToggleNoReplyNeeded(ctx, req.BookingID, req.ThreadID, req.CurrentStatus); err != nil {
		return nil, err
	}
	return &NoReplyResponse{Success: 1}, nil
}

func (s *FeedService) LoadListingDetails(ctx context.Context, req *ListingsRequest) (*ListingsResponse, error) {
	rooms, err := s.controller.LoadListingDetails(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	return &ListingsResponse{Listings: rooms}, nil
}

func (s *FeedService) Status(_ context.Context, _ *StatusRequest) (*StatusResponse, error) {
	resp := &StatusResponse{
		Workspace:    s.workspace,
		Available:    s.controller.Available(),
		Reason:       s.controller.Reason(),
		Capabilities: s.controller.Capabilities(),
		StoreVersion: s.controller.StoreVersion(),
		PageLength:   s.controller.PageLength(),
		UptimeMs:     time.Since(s.startedAt).Milliseconds(),
	}
	if s.watchInterval > 0 {
		resp.WatchInterval = s.watchInterval.String()
	}
	return resp, nil
}

// WatchEvents relays bus events until the client goes away.
func (s *FeedService) WatchEvents(req *WatchEventsRequest, stream EventSender) error {
	if s.bus == nil {
		return grpcstatus.Error(codes.Internal, "event bus not configured")
	}
	prefixes := defaultEventPrefixes
	if req.Prefix != "" {
		prefixes = []string{req.Prefix}
	}

	ch, unsub := s.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			if !hasAnyPrefix(evt.Kind, prefixes) {
				continue
			}
			if err := stream.Send(&Event{
				ID:        evt.ID,
				Kind:      evt.Kind,
				Timestamp: feed.FormatTime(evt.Timestamp),
				Payload:   payloadMap(evt.Payload),
			}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
