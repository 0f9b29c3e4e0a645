package grpc

import (
	"context"

	z "github.com/Oudwins/zog"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

func validateID(id *string) z.ZogIssueList {
	var idValidator = z.String().Min(1).Required()
	return idValidator.Validate(id)
}

var pointShape = z.Shape{
	"Lat": z.Float64().GTE(-90).LTE(90),
	"Lng": z.Float64().GTE(-180).LTE(180),
}

func (s *SOSServer) RaiseIncident(ctx context.Context, req *RaiseIncidentRequest) (*IncidentResponse, error) {
	var raiseValidator = z.Struct(z.Shape{
		"UserId":   z.String().Min(1).Required(),
		"Type":     z.String().OneOf(models.IncidentTypes).Required(),
		"Priority": z.String().OneOf(models.Priorities),
		"Lat":      pointShape["Lat"],
		"Lng":      pointShape["Lng"],
		"Accuracy": z.Float64().GTE(0),
	})
	if err := raiseValidator.Validate(req); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	actor := actorFrom(ctx)
	if req.UserId != actor.ID && !actor.Role.Privileged() {
		return nil, errs.Forbidden("cannot raise an incident for another user")
	}

	source := models.TriggerSourceManual
	if req.DeviceId != "" {
		source = models.TriggerSourceDevice
	}
	inc, err := s.SOS.RaiseIncident(ctx, models.TriggerInput{
		UserID:   req.UserId,
		DeviceID: req.DeviceId,
		EventID:  req.EventId,
		DedupKey: req.DedupKey,
		Type:     models.IncidentType(req.Type),
		Source:   source,
		Priority: models.Priority(req.Priority),
		Location: geo.Point{Lat: req.Lat, Lng: req.Lng},
		Accuracy: req.Accuracy,
		Actor:    actor,
	})
	if err != nil {
		return nil, err
	}
	return &IncidentResponse{Incident: inc}, nil
}

func (s *SOSServer) DeviceEvent(ctx context.Context, req *DeviceEventRequest) (*DeviceEventResponse, error) {
	if err := validateID(&req.DeviceId); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	var eventValidator = z.Struct(z.Shape{
		"UserId":   z.String().Min(1).Required(),
		"Type":     z.String().OneOf(append([]string{models.DeviceEventLocation}, models.IncidentTypes...)).Required(),
		"Priority": z.String().OneOf(models.Priorities),
		"Lat":      pointShape["Lat"],
		"Lng":      pointShape["Lng"],
		"Accuracy": z.Float64().GTE(0),
	})
	if err := eventValidator.Validate(req); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	result, err := s.SOS.HandleDeviceEvent(ctx, models.DeviceEvent{
		DeviceID:  req.DeviceId,
		EventID:   req.EventId,
		UserID:    req.UserId,
		Type:      req.Type,
		Priority:  models.Priority(req.Priority),
		Lat:       req.Lat,
		Lng:       req.Lng,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	return &DeviceEventResponse{Result: result}, nil
}

// loadIncident applies the same visibility rule as the REST surface.
func (s *SOSServer) loadIncident(ctx context.Context, id *string) (*models.IncidentView, error) {
	if err := validateID(id); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	view, err := s.SOS.Incident.Get(ctx, *id)
	if err != nil {
		return nil, err
	}
	actor := actorFrom(ctx)
	if actor.ID == view.Incident.UserID || actor.Role.Privileged() {
		return view, nil
	}
	for _, r := range view.Incident.Responders {
		if r.UserID == actor.ID {
			return view, nil
		}
	}
	return nil, errs.NotFound("incident %s not found", *id)
}

func (s *SOSServer) GetIncident(ctx context.Context, req *IncidentRequest) (*IncidentViewResponse, error) {
	view, err := s.loadIncident(ctx, &req.Id)
	if err != nil {
		return nil, err
	}
	return &IncidentViewResponse{View: view}, nil
}

func (s *SOSServer) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*IncidentResponse, error) {
	if _, err := s.loadIncident(ctx, &req.Id); err != nil {
		return nil, err
	}

	var statusValidator = z.Struct(z.Shape{
		"Status": z.String().OneOf(models.IncidentStatuses).Required(),
		"Notes":  z.String().Max(2000),
	})
	if err := statusValidator.Validate(req); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	inc, err := s.SOS.Incident.UpdateStatus(ctx, req.Id, models.IncidentStatus(req.Status), actorFrom(ctx), req.Notes)
	if err != nil {
		return nil, err
	}
	return &IncidentResponse{Incident: inc}, nil
}

func (s *SOSServer) AddResponder(ctx context.Context, req *AddResponderRequest) (*ResponderResponse, error) {
	if !actorFrom(ctx).Role.Privileged() {
		return nil, errs.Forbidden("only staff can assign responders")
	}

	var responderValidator = z.Struct(z.Shape{
		"Id":     z.String().Min(1).Required(),
		"UserId": z.String().Min(1).Required(),
		"Type": z.String().OneOf([]string{
			string(models.ResponderTypeVolunteer),
			string(models.ResponderTypeStaff),
			string(models.ResponderTypeServices),
		}),
		"EtaMinutes": z.Ptr(z.Int().GTE(0)),
	})
	if err := responderValidator.Validate(req); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	responder, err := s.SOS.Incident.AddResponder(ctx, req.Id, req.UserId, models.ResponderType(req.Type), req.EtaMinutes)
	if err != nil {
		return nil, err
	}
	return &ResponderResponse{Responder: responder}, nil
}

func (s *SOSServer) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*StatusResponse, error) {
	view, err := s.loadIncident(ctx, &req.Id)
	if err != nil {
		return nil, err
	}
	actor := actorFrom(ctx)
	if view.Incident.UserID != actor.ID && !actor.Role.Privileged() {
		return nil, errs.Forbidden("only the incident owner reports its location")
	}

	var locationValidator = z.Struct(z.Shape{
		"Lat":      pointShape["Lat"],
		"Lng":      pointShape["Lng"],
		"Accuracy": z.Float64().GTE(0),
	})
	if err := locationValidator.Validate(req); err != nil {
		return &StatusResponse{Success: false, Message: errs.Validation("validation error: %v", err).Error()}, nil
	}

	if err := s.SOS.Incident.UpdateLocation(ctx, req.Id, geo.Point{Lat: req.Lat, Lng: req.Lng}, req.Accuracy); err != nil {
		return nil, err
	}
	return &StatusResponse{Success: true, Message: "OK"}, nil
}

func (s *SOSServer) DispatchNotifications(ctx context.Context, req *IncidentRequest) (*DispatchResponse, error) {
	if _, err := s.loadIncident(ctx, &req.Id); err != nil {
		return nil, err
	}

	result, err := s.SOS.DispatchNotifications(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &DispatchResponse{Result: result}, nil
}

func (s *SOSServer) MatchIncident(ctx context.Context, req *IncidentRequest) (*MatchResponse, error) {
	if !actorFrom(ctx).Role.Privileged() {
		return nil, errs.Forbidden("only staff can match volunteers")
	}
	if err := validateID(&req.Id); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}

	matches, err := s.SOS.Matcher.MatchIncident(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &MatchResponse{Matches: matches}, nil
}

func (s *SOSServer) EvaluateGeofences(ctx context.Context, req *EvaluateGeofencesRequest) (*EvaluateGeofencesResponse, error) {
	if err := validateID(&req.UserId); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}
	if err := z.Struct(pointShape).Validate(req); err != nil {
		return nil, errs.Validation("validation error: %v", err)
	}
	actor := actorFrom(ctx)
	if req.UserId != actor.ID && !actor.Role.Privileged() {
		return nil, errs.Forbidden("cannot evaluate geofences of another user")
	}

	triggers, err := s.SOS.Geofence.Evaluate(ctx, req.UserId, geo.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		return nil, err
	}
	return &EvaluateGeofencesResponse{Triggers: triggers}, nil
}

func (s *SOSServer) PostLimiter(ctx context.Context, req *LimiterRequest) (*StatusResponse, error) {
	if err := validateID(&req.DeviceId); err != nil {
		return &StatusResponse{Success: false, Message: errs.Validation("validation error: %v", err).Error()}, nil
	}

	var rateValidator = z.Float64().Required()
	if err := rateValidator.Validate(&req.Rate); err != nil {
		return &StatusResponse{Success: false, Message: errs.Validation("validation error: %v", err).Error()}, nil
	}

	var burstValidator = z.Int().Required()
	if err := burstValidator.Validate(&req.Burst); err != nil {
		return &StatusResponse{Success: false, Message: errs.Validation("validation error: %v", err).Error()}, nil
	}

	if s.RateLimiterStore == nil {
		return &StatusResponse{
			Success: false,
			Message: "RateLimiterStore is not used. No effect.",
		}, nil
	}

	s.SetLimiter(req.DeviceId, req.Rate, req.Burst)
	return &StatusResponse{Success: true, Message: "OK"}, nil
}
