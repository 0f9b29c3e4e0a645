package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type CreateIncidentRequest struct {
	UserID   string  `json:"userId"`
	Type     string  `json:"type"`
	Priority string  `json:"priority"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
	DeviceID string  `json:"deviceId"`
	EventID  string  `json:"eventId"`
	DedupKey string  `json:"dedupKey"`
}

var createIncidentSchema = z.Struct(z.Shape{
	"UserID":   z.String(),
	"Type":     z.String().OneOf(models.IncidentTypes).Required(),
	"Priority": z.String().OneOf(models.Priorities),
	"Lat":      z.Float64().GTE(-90).LTE(90),
	"Lng":      z.Float64().GTE(-180).LTE(180),
	"Accuracy": z.Float64().GTE(0),
	"DeviceID": z.String(),
	"EventID":  z.String(),
	"DedupKey": z.String(),
})

// CreateIncident raises a manual incident for the caller. Privileged roles may raise on behalf of
// another user.
func (rs *RestfulServer) CreateIncident(c *gin.Context) {
	actor := actorFrom(c)

	var req CreateIncidentRequest
	if err := createIncidentSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	userID := actor.ID
	if req.UserID != "" && req.UserID != actor.ID {
		if !actor.Role.Privileged() {
			rs.fail(c, errs.Forbidden("cannot raise an incident for another user"))
			return
		}
		userID = req.UserID
	}

	inc, err := rs.SOS.RaiseIncident(c.Request.Context(), models.TriggerInput{
		UserID:   userID,
		DeviceID: req.DeviceID,
		EventID:  req.EventID,
		DedupKey: req.DedupKey,
		Type:     models.IncidentType(req.Type),
		Source:   models.TriggerSourceManual,
		Priority: models.Priority(req.Priority),
		Location: geo.Point{Lat: req.Lat, Lng: req.Lng},
		Accuracy: req.Accuracy,
		Actor:    actor,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, inc)
}

func (rs *RestfulServer) ListIncidents(c *gin.Context) {
	actor := actorFrom(c)

	userID := c.DefaultQuery("userId", actor.ID)
	if !canSee(actor, userID) {
		rs.fail(c, errs.Forbidden("cannot list incidents of another user"))
		return
	}

	incidents, err := rs.SOS.Incident.ListForUser(c.Request.Context(), userID, cast.ToBool(c.Query("archived")))
	if err != nil {
		rs.fail(c, err)
		return
	}

	if incidents == nil {
		incidents = []models.Incident{}
	}
	c.JSON(http.StatusOK, incidents)
}

// loadIncident returns the incident if the caller owns it, is privileged or is one of its
// responders. Anything else is reported as not found.
func (rs *RestfulServer) loadIncident(c *gin.Context) (*models.IncidentView, bool) {
	actor := actorFrom(c)
	id := c.Param("id")

	view, err := rs.SOS.Incident.Get(c.Request.Context(), id)
	if err != nil {
		rs.fail(c, err)
		return nil, false
	}
	if canSee(actor, view.Incident.UserID) {
		return view, true
	}
	for _, r := range view.Incident.Responders {
		if r.UserID == actor.ID {
			return view, true
		}
	}
	rs.fail(c, errs.NotFound("incident %s not found", id))
	return nil, false
}

func (rs *RestfulServer) GetIncident(c *gin.Context) {
	view, ok := rs.loadIncident(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

type StatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

var statusRequestSchema = z.Struct(z.Shape{
	"Status": z.String().OneOf(models.IncidentStatuses).Required(),
	"Notes":  z.String().Max(2000),
})

func (rs *RestfulServer) UpdateIncidentStatus(c *gin.Context) {
	if _, ok := rs.loadIncident(c); !ok {
		return
	}

	var req StatusRequest
	if err := statusRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	inc, err := rs.SOS.Incident.UpdateStatus(c.Request.Context(), c.Param("id"), models.IncidentStatus(req.Status), actorFrom(c), req.Notes)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, inc)
}

type ResponderRequest struct {
	UserID     string `json:"userId"`
	Type       string `json:"type"`
	ETAMinutes *int   `json:"etaMinutes"`
}

var responderRequestSchema = z.Struct(z.Shape{
	"UserID": z.String().Min(1).Required(),
	"Type": z.String().OneOf([]string{
		string(models.ResponderTypeVolunteer),
		string(models.ResponderTypeStaff),
		string(models.ResponderTypeServices),
	}),
	"ETAMinutes": z.Ptr(z.Int().GTE(0)),
})

func (rs *RestfulServer) AddResponder(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.Role.Privileged() {
		rs.fail(c, errs.Forbidden("only staff can assign responders"))
		return
	}

	var req ResponderRequest
	if err := responderRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	responder, err := rs.SOS.Incident.AddResponder(c.Request.Context(), c.Param("id"), req.UserID, models.ResponderType(req.Type), req.ETAMinutes)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, responder)
}

type RespondRequest struct {
	Accept bool `json:"accept"`
}

var respondRequestSchema = z.Struct(z.Shape{
	"Accept": z.Bool(),
})

// RespondToIncident is the assigned responder accepting or declining.
func (rs *RestfulServer) RespondToIncident(c *gin.Context) {
	var req RespondRequest
	if err := respondRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	responder, err := rs.SOS.Incident.Respond(c.Request.Context(), c.Param("id"), actorFrom(c).ID, req.Accept)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, responder)
}

type LocationRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

var locationRequestSchema = z.Struct(z.Shape{
	"Lat":      z.Float64().GTE(-90).LTE(90),
	"Lng":      z.Float64().GTE(-180).LTE(180),
	"Accuracy": z.Float64().GTE(0),
})

func (rs *RestfulServer) UpdateIncidentLocation(c *gin.Context) {
	view, ok := rs.loadIncident(c)
	if !ok {
		return
	}
	if view.Incident.UserID != actorFrom(c).ID && !actorFrom(c).Role.Privileged() {
		rs.fail(c, errs.Forbidden("only the incident owner reports its location"))
		return
	}

	var req LocationRequest
	if err := locationRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if err := rs.SOS.Incident.UpdateLocation(c.Request.Context(), view.Incident.ID, geo.Point{Lat: req.Lat, Lng: req.Lng}, req.Accuracy); err != nil {
		rs.fail(c, err)
		return
	}

	c.Status(http.StatusOK)
}

type ResponseRequest struct {
	ContactID string `json:"contactId"`
	Phone     string `json:"phone"`
	Channel   string `json:"channel"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

var responseRequestSchema = z.Struct(z.Shape{
	"ContactID": z.String(),
	"Phone":     z.String(),
	"Channel":   z.String().OneOf(channelNames()),
	"Kind": z.String().OneOf([]string{
		string(models.ResponseAcknowledged),
		string(models.ResponseDeclined),
		string(models.ResponseReplied),
		string(models.ResponseInvalid),
	}).Required(),
	"Message": z.String().Max(1600),
})

func channelNames() []string {
	return common.Mapper(models.ChannelOrder, func(ch models.Channel) string { return string(ch) })
}

// RecordResponse stores a contact's reply captured outside the gateway callbacks.
func (rs *RestfulServer) RecordResponse(c *gin.Context) {
	if _, ok := rs.loadIncident(c); !ok {
		return
	}

	var req ResponseRequest
	if err := responseRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	outcome, err := rs.SOS.Incident.RecordResponse(c.Request.Context(), models.ResponseInput{
		IncidentID: c.Param("id"),
		ContactID:  req.ContactID,
		Phone:      req.Phone,
		Channel:    models.Channel(req.Channel),
		Kind:       models.ResponseKind(req.Kind),
		Message:    req.Message,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

func (rs *RestfulServer) DispatchNotifications(c *gin.Context) {
	if _, ok := rs.loadIncident(c); !ok {
		return
	}

	result, err := rs.SOS.DispatchNotifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PlaceEscalationCalls dials the incident owner's contacts.
func (rs *RestfulServer) PlaceEscalationCalls(c *gin.Context) {
	if !actorFrom(c).Role.Privileged() {
		rs.fail(c, errs.Forbidden("only staff can start escalation calls"))
		return
	}
	view, ok := rs.loadIncident(c)
	if !ok {
		return
	}

	contacts, err := rs.SOS.Contact.List(c.Request.Context(), view.Incident.UserID)
	if err != nil {
		rs.fail(c, err)
		return
	}

	calls, err := rs.SOS.Dialer.PlaceEscalationCalls(c.Request.Context(), view.Incident.ID, contacts)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, calls)
}

func (rs *RestfulServer) MatchIncident(c *gin.Context) {
	if !actorFrom(c).Role.Privileged() {
		rs.fail(c, errs.Forbidden("only staff can match volunteers"))
		return
	}

	matches, err := rs.SOS.Matcher.MatchIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

func (rs *RestfulServer) EndCall(c *gin.Context) {
	if !actorFrom(c).Role.Privileged() {
		rs.fail(c, errs.Forbidden("only staff can end calls"))
		return
	}

	call, err := rs.SOS.Dialer.EndCall(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}
