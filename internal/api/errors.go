package api

import (
	"errors"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/guestfeed/internal/feed"
)

// StatusError maps a feed error to a gRPC status error. Errors that already
// carry a status pass through. A missing collaborator is a server-side fault
// and reports Internal like any other unclassified failure.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}
	return grpcstatus.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, feed.ErrInvalidFilter):
		return codes.InvalidArgument
	case errors.Is(err, feed.ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func invalidRequest(method string, err error) error {
	return grpcstatus.Errorf(codes.InvalidArgument, "decode %s request: %v", method, err)
}
