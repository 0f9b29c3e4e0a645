package grpc

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/grpc/metadata"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"
)

const (
	MetadataUserID   = "x-user-id"
	MetadataUserRole = "x-user-role"
)

type SOSServer struct {
	SOS              *sos.SOS
	RateLimiterStore *sos.RateLimiterStore
}

var _ IncidentServiceServer = (*SOSServer)(nil)

func (s *SOSServer) GetLimiter(deviceID string) *rate.Limiter {
	if s.RateLimiterStore == nil {
		return nil
	} else {
		return s.RateLimiterStore.GetLimiter(deviceID)
	}
}

func (s *SOSServer) CheckDeviceLimiter(deviceID string) bool {
	if s.RateLimiterStore == nil {
		return true
	}
	return s.RateLimiterStore.Allow("grpc", deviceID)
}

func (s *SOSServer) SetLimiter(deviceID string, r float64, b int) {
	if s.RateLimiterStore == nil {
		return
	}
	s.RateLimiterStore.SetLimiter(deviceID, rate.Limit(r), b)
}

// actorFrom reads the caller from request metadata. Callers of the internal gRPC surface that
// send no identity act as the system.
func actorFrom(ctx context.Context) models.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return models.SystemActor
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	id := first(MetadataUserID)
	if id == "" {
		return models.SystemActor
	}
	role := models.Role(first(MetadataUserRole))
	if role == "" || !slices.Contains(models.Roles, string(role)) {
		role = models.RoleUser
	}
	return models.Actor{ID: id, Role: role}
}

// WithActor attaches the caller identity to an outgoing context.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataUserID, actor.ID, MetadataUserRole, string(actor.Role))
}
