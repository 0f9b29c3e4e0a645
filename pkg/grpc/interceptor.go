package grpc

import (
	"context"
	"errors"
	"reflect"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
)

func (s *SOSServer) CreateRateLimitInterceptor(targetReqTypes []any) grpc.UnaryServerInterceptor {
	targetTypeMap := common.Reducer(targetReqTypes,
		func(m map[reflect.Type]bool, t any) map[reflect.Type]bool {
			m[reflect.TypeOf(t)] = true
			return m
		},
		map[reflect.Type]bool{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if _, ok := targetTypeMap[reflect.TypeOf(req)]; ok {
			if r, ok := req.(interface{ GetDeviceId() string }); ok {
				deviceID := r.GetDeviceId()
				if !s.CheckDeviceLimiter(deviceID) {
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}

// ErrorInterceptor turns errs kinds into grpc status codes.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}

		code := codeFor(err)
		if code == codes.Internal {
			common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Request failed",
				zap.String("method", info.FullMethod),
				zap.Error(err),
			)
		}
		var e *errs.Error
		if errors.As(err, &e) {
			return nil, status.Error(code, e.Message)
		}
		return nil, status.Error(code, err.Error())
	}
}

func codeFor(err error) codes.Code {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return codes.InvalidArgument
	case errs.KindNotFound:
		return codes.NotFound
	case errs.KindConflict:
		return codes.AlreadyExists
	case errs.KindForbidden:
		return codes.PermissionDenied
	case errs.KindTransientChannel:
		return codes.Unavailable
	case errs.KindConfiguration:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
