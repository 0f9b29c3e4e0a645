package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gorm.io/datatypes"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type AlertRequest struct {
	Enabled        bool   `json:"enabled"`
	Message        string `json:"message"`
	Severity       string `json:"severity"`
	NotifyContacts bool   `json:"notifyContacts"`
}

type GeofenceRequest struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Active   bool          `json:"active"`
	Ring     []geo.Point   `json:"ring"`
	Entry    AlertRequest  `json:"entry"`
	Exit     AlertRequest  `json:"exit"`
	Schedule *geo.Schedule `json:"schedule"`
}

var alertRequestSchema = z.Struct(z.Shape{
	"Enabled":        z.Bool(),
	"Message":        z.String().Max(500),
	"Severity":       z.String().OneOf(models.Severities),
	"NotifyContacts": z.Bool(),
})

var geofenceRequestSchema = z.Struct(z.Shape{
	"Name":   z.String().Min(1).Max(200).Required(),
	"Type":   z.String().OneOf(models.GeofenceTypes).Required(),
	"Active": z.Bool(),
	"Ring": z.Slice(z.Struct(z.Shape{
		"Lat": z.Float64().GTE(-90).LTE(90),
		"Lng": z.Float64().GTE(-180).LTE(180),
	})).Min(4).Required(),
	"Entry": alertRequestSchema,
	"Exit":  alertRequestSchema,
	"Schedule": z.Ptr(z.Struct(z.Shape{
		"Days":     z.Slice(z.Int().GTE(0).LTE(6)),
		"Start":    z.String(),
		"End":      z.String(),
		"Location": z.String(),
	})),
})

// bindGeofenceRequest decodes the body with encoding/json and then validates the decoded struct.
// zog's Parse does not fill a slice of nested structs, so the ring cannot go through it.
func bindGeofenceRequest(c *gin.Context) (*GeofenceRequest, bool) {
	var req GeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if issues := geofenceRequestSchema.Validate(&req); issues != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": issues})
		return nil, false
	}
	return &req, true
}

func (req *GeofenceRequest) toModel(userID string) *models.Geofence {
	alert := func(a AlertRequest) models.AlertConfig {
		return models.AlertConfig{
			Enabled:        a.Enabled,
			Message:        a.Message,
			Severity:       models.Severity(a.Severity),
			NotifyContacts: a.NotifyContacts,
		}
	}
	return &models.Geofence{
		UserID:   userID,
		Name:     req.Name,
		Type:     models.GeofenceType(req.Type),
		Active:   req.Active,
		Ring:     req.Ring,
		Entry:    alert(req.Entry),
		Exit:     alert(req.Exit),
		Schedule: datatypes.NewJSONType(req.Schedule),
	}
}

func (rs *RestfulServer) ListGeofences(c *gin.Context) {
	fences, err := rs.SOS.Geofence.List(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if fences == nil {
		fences = []models.Geofence{}
	}
	c.JSON(http.StatusOK, fences)
}

func (rs *RestfulServer) CreateGeofence(c *gin.Context) {
	req, ok := bindGeofenceRequest(c)
	if !ok {
		return
	}

	g := req.toModel(actorFrom(c).ID)
	if err := rs.SOS.Geofence.Create(c.Request.Context(), g); err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (rs *RestfulServer) GetGeofence(c *gin.Context) {
	g, err := rs.SOS.Geofence.Get(c.Request.Context(), c.Param("id"))
	if err == nil && !canSee(actorFrom(c), g.UserID) {
		err = errs.NotFound("geofence %s not found", c.Param("id"))
	}
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (rs *RestfulServer) UpdateGeofence(c *gin.Context) {
	req, ok := bindGeofenceRequest(c)
	if !ok {
		return
	}

	g := req.toModel(actorFrom(c).ID)
	g.ID = c.Param("id")
	if err := rs.SOS.Geofence.Update(c.Request.Context(), g); err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

func (rs *RestfulServer) DeleteGeofence(c *gin.Context) {
	if err := rs.SOS.Geofence.Delete(c.Request.Context(), actorFrom(c).ID, c.Param("id")); err != nil {
		rs.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var pointRequestSchema = z.Struct(z.Shape{
	"Lat": z.Float64().GTE(-90).LTE(90),
	"Lng": z.Float64().GTE(-180).LTE(180),
})

// EvaluateGeofences runs evaluation for the caller without touching open incidents.
func (rs *RestfulServer) EvaluateGeofences(c *gin.Context) {
	var req PointRequest
	if err := pointRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	triggers, err := rs.SOS.Geofence.Evaluate(c.Request.Context(), actorFrom(c).ID, geo.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		rs.fail(c, err)
		return
	}
	if triggers == nil {
		triggers = []models.GeofenceTrigger{}
	}

	c.JSON(http.StatusOK, gin.H{"triggers": triggers})
}

type ContactRequest struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Relationship string   `json:"relationship"`
	Priority     int      `json:"priority"`
	Channels     []string `json:"channels"`
	LinkedUserID string   `json:"linkedUserId"`
}

var contactRequestSchema = z.Struct(z.Shape{
	"Name":  z.String().Min(1).Max(200).Required(),
	"Phone": z.String().Min(3).Max(32).Required(),
	"Email": z.String().Email(),
	"Relationship": z.String().OneOf([]string{
		string(models.RelationshipSpouse),
		string(models.RelationshipParent),
		string(models.RelationshipFamily),
		string(models.RelationshipFriend),
		string(models.RelationshipColleague),
		string(models.RelationshipNeighbor),
		string(models.RelationshipOther),
	}),
	"Priority":     z.Int().GTE(models.MinContactPriority).LTE(models.MaxContactPriority).Required(),
	"Channels":     z.Slice(z.String().OneOf(channelNames())),
	"LinkedUserID": z.String(),
})

func (req *ContactRequest) toModel(userID string) *models.Contact {
	contact := &models.Contact{
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Relationship: models.Relationship(req.Relationship),
		Priority:     req.Priority,
		Channels:     common.Mapper(req.Channels, func(ch string) models.Channel { return models.Channel(ch) }),
	}
	if req.LinkedUserID != "" {
		contact.LinkedUserID = &req.LinkedUserID
	}
	return contact
}

func (rs *RestfulServer) ListContacts(c *gin.Context) {
	contacts, err := rs.SOS.Contact.List(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (rs *RestfulServer) CreateContact(c *gin.Context) {
	var req ContactRequest
	if err := contactRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	contact := req.toModel(actorFrom(c).ID)
	if err := rs.SOS.Contact.Create(c.Request.Context(), contact); err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

func (rs *RestfulServer) GetContact(c *gin.Context) {
	contact, err := rs.SOS.Contact.Get(c.Request.Context(), c.Param("id"))
	if err == nil && !canSee(actorFrom(c), contact.UserID) {
		err = errs.NotFound("contact %s not found", c.Param("id"))
	}
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (rs *RestfulServer) UpdateContact(c *gin.Context) {
	var req ContactRequest
	if err := contactRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	contact := req.toModel(actorFrom(c).ID)
	contact.ID = c.Param("id")
	if err := rs.SOS.Contact.Update(c.Request.Context(), contact); err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

func (rs *RestfulServer) DeleteContact(c *gin.Context) {
	if err := rs.SOS.Contact.Delete(c.Request.Context(), actorFrom(c).ID, c.Param("id")); err != nil {
		rs.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostLocation is the caller's own position report.
func (rs *RestfulServer) PostLocation(c *gin.Context) {
	var req LocationRequest
	if err := locationRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	result, err := rs.SOS.HandleLocationUpdate(c.Request.Context(), actorFrom(c).ID, geo.Point{Lat: req.Lat, Lng: req.Lng}, req.Accuracy)
	if err != nil {
		rs.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (rs *RestfulServer) NearbyVolunteers(c *gin.Context) {
	if !actorFrom(c).Role.Privileged() {
		rs.fail(c, errs.Forbidden("only staff can search volunteers"))
		return
	}

	center := geo.Point{Lat: cast.ToFloat64(c.Query("lat")), Lng: cast.ToFloat64(c.Query("lng"))}
	if !geo.ValidPoint(center) {
		rs.fail(c, errs.Validation("location %v out of range", center))
		return
	}
	radius := cast.ToFloat64(c.Query("radius"))
	if radius <= 0 {
		radius = rs.SOS.Config.Matcher.RadiusMeters
	}

	matches, err := rs.SOS.Matcher.FindNearby(c.Request.Context(), center, radius)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}

	c.JSON(http.StatusOK, matches)
}

// StreamEvents subscribes the caller to its user and role topics plus any ?incident= it can see.
func (rs *RestfulServer) StreamEvents(c *gin.Context) {
	if rs.Hub == nil {
		rs.fail(c, errs.Configuration("realtime stream is not enabled"))
		return
	}
	actor := actorFrom(c)

	topics := []string{sos.UserTopic(actor.ID), sos.RoleTopic(actor.Role)}
	for _, id := range c.QueryArray("incident") {
		view, err := rs.SOS.Incident.Get(c.Request.Context(), id)
		if err != nil {
			rs.fail(c, err)
			return
		}
		if !canSee(actor, view.Incident.UserID) {
			rs.fail(c, errs.NotFound("incident %s not found", id))
			return
		}
		topics = append(topics, sos.IncidentTopic(id))
	}

	rs.Hub.Serve(c, uuid.NewString(), topics)
}
