package sos

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

// DeviceResult tells the transport what a device event turned into. A repeated trigger is not
// an error: Duplicate is set and no incident id is returned.
type DeviceResult struct {
	IncidentID string          `json:"incidentId,omitempty"`
	Duplicate  bool            `json:"duplicate,omitempty"`
	Location   *LocationResult `json:"location,omitempty"`
}

// HandleDeviceEvent is the shared ingress for the device webhook and the MQTT subscriber. Rate
// limiting is the transport's job.
func (s *SOS) HandleDeviceEvent(ctx context.Context, ev models.DeviceEvent) (*DeviceResult, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSIncident)

	if strings.TrimSpace(ev.DeviceID) == "" {
		return nil, errs.Validation("device id is required")
	}

	if ev.Type == models.DeviceEventLocation {
		loc, err := s.HandleLocationUpdate(ctx, ev.UserID, ev.Point(), ev.Accuracy)
		if err != nil {
			return nil, err
		}
		return &DeviceResult{Location: loc}, nil
	}

	inc, err := s.RaiseIncident(ctx, ev.Trigger())
	if errs.Is(err, errs.KindConflict) {
		logger.Info("Device trigger already handled",
			zap.String("device_id", ev.DeviceID), zap.String("event_id", ev.EventID))
		return &DeviceResult{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &DeviceResult{IncidentID: inc.ID}, nil
}
