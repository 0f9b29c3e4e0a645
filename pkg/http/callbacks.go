package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<Response></Response>`

type DeviceEventRequest struct {
	EventID   string  `json:"eventId"`
	UserID    string  `json:"userId"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

var deviceEventTypes = append([]string{models.DeviceEventLocation}, models.IncidentTypes...)

var deviceEventRequestSchema = z.Struct(z.Shape{
	"EventID":   z.String(),
	"UserID":    z.String().Min(1).Required(),
	"Type":      z.String().OneOf(deviceEventTypes).Required(),
	"Priority":  z.String().OneOf(models.Priorities),
	"Lat":       z.Float64().GTE(-90).LTE(90),
	"Lng":       z.Float64().GTE(-180).LTE(180),
	"Accuracy":  z.Float64().GTE(0),
	"Timestamp": z.Int64(),
})

// PostDeviceEvent is the wearable webhook. A repeated trigger answers 200 with duplicate set.
func (rs *RestfulServer) PostDeviceEvent(c *gin.Context) {
	deviceID := c.Param("device_id")

	if !rs.CheckDeviceLimiter(deviceID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var req DeviceEventRequest
	if err := deviceEventRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	result, err := rs.SOS.HandleDeviceEvent(c.Request.Context(), models.DeviceEvent{
		DeviceID:  deviceID,
		EventID:   req.EventID,
		UserID:    req.UserID,
		Type:      req.Type,
		Priority:  models.Priority(req.Priority),
		Lat:       req.Lat,
		Lng:       req.Lng,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		rs.fail(c, err)
		return
	}

	if result.IncidentID != "" {
		c.JSON(http.StatusCreated, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(deviceID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

// signedCallID returns the callId query parameter once its token checks out. The token is bound
// into the callback URL when the call is placed.
func (rs *RestfulServer) signedCallID(c *gin.Context) (string, bool) {
	callID := c.Query("callId")
	if callID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callId is required"})
		return "", false
	}
	if !rs.SOS.VerifyCallbackToken(callID, c.Query("token")) {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Warn("Voice callback rejected",
			zap.String("call_id", callID),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid callback token"})
		return "", false
	}
	return callID, true
}

// VoiceStatus receives the gateway's call progress callback.
func (rs *RestfulServer) VoiceStatus(c *gin.Context) {
	callID, ok := rs.signedCallID(c)
	if !ok {
		return
	}
	callStatus := strings.TrimSpace(c.PostForm("CallStatus"))
	if !models.ValidCallStatus(callStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a known CallStatus is required"})
		return
	}

	call, err := rs.SOS.Dialer.HandleStatus(c.Request.Context(), callID, models.CallStatus(callStatus))
	if err != nil {
		rs.fail(c, err)
		return
	}

	common.GetLoggerWith(common.LoggerNameRestfulServer).Debug("Call status received",
		zap.String("call_id", call.ID),
		zap.String("status", string(call.Status)),
	)
	c.Status(http.StatusNoContent)
}

// VoiceGather receives the keypad digit and answers with the closing voice script.
func (rs *RestfulServer) VoiceGather(c *gin.Context) {
	callID, ok := rs.signedCallID(c)
	if !ok {
		return
	}

	kind, err := rs.SOS.Dialer.HandleDigit(c.Request.Context(), callID, strings.TrimSpace(c.PostForm("Digits")))
	if err != nil {
		rs.fail(c, err)
		return
	}

	script, err := sos.AcknowledgementScript(kind)
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(script))
}

// InboundSMS attributes a contact's text reply to the incident that notified them.
func (rs *RestfulServer) InboundSMS(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}

	incidentID, outcome, err := rs.SOS.RecordInboundSMS(c.Request.Context(), from, c.PostForm("Body"))
	if err != nil {
		rs.fail(c, err)
		return
	}

	common.GetLoggerWith(common.LoggerNameRestfulServer).Info("Inbound SMS recorded",
		zap.String("incident_id", incidentID),
		zap.String("outcome", string(outcome)),
	)
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(emptyTwiML))
}
