package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/matheus3301/guestfeed/internal/api"
)

// Client is a typed client of the daemon's feed service.
type Client struct {
	conn *grpc.ClientConn
}

// New dials the daemon's Unix domain socket. The connection is lazy; the
// first call reports an unreachable daemon.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := api.Encode(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.FullMethod(method), in, out); err != nil {
		return err
	}
	if err := api.Decode(out, resp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *Client) LoadMessages(ctx context.Context, req *api.LoadMessagesRequest) (*api.LoadMessagesResponse, error) {
	resp := new(api.LoadMessagesResponse)
	if err := c.invoke(ctx, api.MethodLoadMessages, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// WatchMessages reports whether the feed changed since lastSeen.
func (c *Client) WatchMessages(ctx context.Context, lastSeen string) (bool, error) {
	resp := new(api.WatchMessagesResponse)
	if err := c.invoke(ctx, api.MethodWatchMessages, &api.WatchMessagesRequest{LastSeen: lastSeen}, resp); err != nil {
		return false, err
	}
	return resp.Changed == 1, nil
}

func (c *Client) RenderChat(ctx context.Context, bookingID int64) (string, error) {
	resp := new(api.RenderChatResponse)
	if err := c.invoke(ctx, api.MethodRenderChat, &api.RenderChatRequest{BookingID: bookingID}, resp); err != nil {
		return "", err
	}
	return resp.Chat, nil
}

// SetNoReplyNeeded toggles the thread flag from its currentStatus.
func (c *Client) SetNoReplyNeeded(ctx context.Context, bookingID, threadID int64, currentStatus int) error {
	resp := new(api.NoReplyResponse)
	req := &api.NoReplyRequest{BookingID: bookingID, ThreadID: threadID, CurrentStatus: currentStatus}
	if err := c.invoke(ctx, api.MethodSetNoReplyNeeded, req, resp); err != nil {
		return err
	}
	if resp.Success != 1 {
		return errors.New("daemon reported no-reply update as unsuccessful")
	}
	return nil
}

func (c *Client) LoadListingDetails(ctx context.Context, bookingID int64) ([]string, error) {
	resp := new(api.ListingsResponse)
	if err := c.invoke(ctx, api.MethodLoadListingDetails, &api.ListingsRequest{BookingID: bookingID}, resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	resp := new(api.StatusResponse)
	if err := c.invoke(ctx, api.MethodStatus, &api.StatusRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// WatchEvents streams daemon events matching prefix to fn until ctx ends or
// the stream fails. A cancelled ctx returns nil.
func (c *Client) WatchEvents(ctx context.Context, prefix string, fn func(api.Event)) error {
	stream, err := c.conn.NewStream(ctx, &api.ServiceDesc.Streams[0], api.FullMethod(api.MethodWatchEvents))
	if err != nil {
		return err
	}
	in, err := api.Encode(&api.WatchEventsRequest{Prefix: prefix})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		var evt api.Event
		if err := api.Decode(out, &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		fn(evt)
	}
}
