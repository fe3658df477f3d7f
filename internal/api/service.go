package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "guestfeed.v1.FeedService"

// Method names of the feed service.
const (
	MethodLoadMessages       = "LoadMessages"
	MethodWatchMessages      = "WatchMessages"
	MethodRenderChat         = "RenderChat"
	MethodSetNoReplyNeeded   = "SetNoReplyNeeded"
	MethodLoadListingDetails = "LoadListingDetails"
	MethodStatus             = "Status"
	MethodWatchEvents        = "WatchEvents"
)

// FullMethod returns the /service/method path of a method name.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// FeedServer is the server API of the feed service.
type FeedServer interface {
	LoadMessages(context.Context, *LoadMessagesRequest) (*LoadMessagesResponse, error)
	WatchMessages(context.Context, *WatchMessagesRequest) (*WatchMessagesResponse, error)
	RenderChat(context.Context, *RenderChatRequest) (*RenderChatResponse, error)
	SetNoReplyNeeded(context.Context, *NoReplyRequest) (*NoReplyResponse, error)
	LoadListingDetails(context.Context, *ListingsRequest) (*ListingsResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	WatchEvents(*WatchEventsRequest, EventSender) error
}

// EventSender is the server side of a WatchEvents stream.
type EventSender interface {
	Send(*Event) error
	Context() context.Context
}

// ServiceDesc describes the feed service. Every message on the wire is a
// google.protobuf.Struct carrying the JSON form of the request or response.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodLoadMessages, Handler: unaryHandler(MethodLoadMessages, FeedServer.LoadMessages)},
		{MethodName: MethodWatchMessages, Handler: unaryHandler(MethodWatchMessages, FeedServer.WatchMessages)},
		{MethodName: MethodRenderChat, Handler: unaryHandler(MethodRenderChat, FeedServer.RenderChat)},
		{MethodName: MethodSetNoReplyNeeded, Handler: unaryHandler(MethodSetNoReplyNeeded, FeedServer.SetNoReplyNeeded)},
		{MethodName: MethodLoadListingDetails, Handler: unaryHandler(MethodLoadListingDetails, FeedServer.LoadListingDetails)},
		{MethodName: MethodStatus, Handler: unaryHandler(MethodStatus, FeedServer.Status)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: MethodWatchEvents, Handler: watchEventsHandler, ServerStreams: true},
	},
	Metadata: "guestfeed/v1/feed.proto",
}

// RegisterFeedServer registers srv on s.
func RegisterFeedServer(s grpc.ServiceRegistrar, srv FeedServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(FeedServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			r := new(Req)
			if err := Decode(req.(*structpb.Struct), r); err != nil {
				return nil, invalidRequest(method, err)
			}
			resp, err := call(srv.(FeedServer), ctx, r)
			if err != nil {
				return nil, StatusError(err)
			}
			return Encode(resp)
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, handler)
	}
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	req := new(WatchEventsRequest)
	if err := Decode(in, req); err != nil {
		return invalidRequest(MethodWatchEvents, err)
	}
	return srv.(FeedServer).WatchEvents(req, &eventSender{stream})
}

type eventSender struct {
	grpc.ServerStream
}

func (s *eventSender) Send(e *Event) error {
	out, err := Encode(e)
	if err != nil {
		return err
	}
	return s.SendMsg(out)
}
