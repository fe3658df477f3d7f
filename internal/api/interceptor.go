package api

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/guestfeed/internal/metrics"
)

// UnaryInterceptor logs every call at Debug and records its duration.
func UnaryInterceptor(logger *zap.Logger, m *metrics.Feed) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observe(logger, m, info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

// StreamInterceptor does the same for streams once they end.
func StreamInterceptor(logger *zap.Logger, m *metrics.Feed) grpc.StreamServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		observe(logger, m, info.FullMethod, err, time.Since(start))
		return err
	}
}

func observe(logger *zap.Logger, m *metrics.Feed, fullMethod string, err error, d time.Duration) {
	method := path.Base(fullMethod)
	code := grpcstatus.Code(err)
	m.ObserveRPC(method, code.String(), d)
	logger.Debug("rpc",
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("duration", d),
		zap.Error(err))
}
