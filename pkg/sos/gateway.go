package sos

import (
	"context"

	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/gateway"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

// Gateways groups the outbound adapters. A nil member means the channel is not configured.
type Gateways struct {
	SMS   gateway.SMSSender
	Voice gateway.VoiceGateway
	Email gateway.EmailSender
	Push  gateway.PushSender
}

func (g Gateways) voiceReady() bool {
	return g.Voice != nil && g.Voice.Configured()
}

// Broadcaster delivers realtime events. Publish is fire-and-forget; failures are the
// implementation's to log.
type Broadcaster interface {
	Publish(ctx context.Context, topic, event string, payload any)
}

type NopBroadcaster struct{}

func (NopBroadcaster) Publish(context.Context, string, string, any) {}

const (
	EventIncidentCreated      = "incident.created"
	EventIncidentStatus       = "incident.status"
	EventIncidentLocation     = "incident.location"
	EventIncidentResponder    = "incident.responder"
	EventIncidentNotification = "incident.notification"
	EventGeofenceTrigger      = "geofence.trigger"
	EventCallStatus           = "call.status"
)

func UserTopic(userID string) string {
	return "user:" + userID
}

func IncidentTopic(incidentID string) string {
	return "incident:" + incidentID
}

func RoleTopic(role models.Role) string {
	return "role:" + string(role)
}

func (s *SOS) publish(ctx context.Context, event string, payload any, topics ...string) {
	if s.Broadcaster == nil {
		return
	}
	defer func() {
		// a broken broadcaster must never fail the operation that triggered it
		if r := recover(); r != nil {
			common.GetLoggerWith(common.LoggerNameRealtime).Error("broadcast panicked",
				zap.String("event", event), zap.Any("panic", r))
		}
	}()
	for _, topic := range topics {
		s.Broadcaster.Publish(ctx, topic, event, payload)
	}
}
