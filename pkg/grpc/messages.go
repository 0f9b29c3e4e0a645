package grpc

import (
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"
)

type RaiseIncidentRequest struct {
	UserId   string  `json:"userId"`
	DeviceId string  `json:"deviceId,omitempty"`
	EventId  string  `json:"eventId,omitempty"`
	DedupKey string  `json:"dedupKey,omitempty"`
	Type     string  `json:"type"`
	Priority string  `json:"priority,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

func (r *RaiseIncidentRequest) GetDeviceId() string {
	if r.DeviceId != "" {
		return r.DeviceId
	}
	return "user:" + r.UserId
}

type DeviceEventRequest struct {
	DeviceId  string  `json:"deviceId"`
	EventId   string  `json:"eventId,omitempty"`
	UserId    string  `json:"userId"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

func (r *DeviceEventRequest) GetDeviceId() string { return r.DeviceId }

type IncidentRequest struct {
	Id string `json:"id"`
}

type UpdateStatusRequest struct {
	Id     string `json:"id"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type AddResponderRequest struct {
	Id         string `json:"id"`
	UserId     string `json:"userId"`
	Type       string `json:"type,omitempty"`
	EtaMinutes *int   `json:"etaMinutes,omitempty"`
}

type UpdateLocationRequest struct {
	Id       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

type EvaluateGeofencesRequest struct {
	UserId string  `json:"userId"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

type LimiterRequest struct {
	DeviceId string  `json:"deviceId"`
	Rate     float64 `json:"rate"`
	Burst    int     `json:"burst"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type IncidentResponse struct {
	Incident *models.Incident `json:"incident"`
}

type IncidentViewResponse struct {
	View *models.IncidentView `json:"view"`
}

type ResponderResponse struct {
	Responder *models.Responder `json:"responder"`
}

type DeviceEventResponse struct {
	Result *sos.DeviceResult `json:"result"`
}

type EvaluateGeofencesResponse struct {
	Triggers []models.GeofenceTrigger `json:"triggers"`
}

type DispatchResponse struct {
	Result *sos.DispatchResult `json:"result"`
}

type MatchResponse struct {
	Matches []models.Match `json:"matches"`
}
