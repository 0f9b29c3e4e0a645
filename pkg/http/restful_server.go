package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/realtime"
	"liyu1981.xyz/sos-response-service/pkg/sos"
)

type RestfulServer struct {
	Server           *gin.Engine
	SOS              *sos.SOS
	Hub              *realtime.Hub
	RateLimiterStore *sos.RateLimiterStore
	// JWTSecret switches actor identification from X-User-* headers to HS256 bearer tokens.
	JWTSecret string
}

func (rs *RestfulServer) GetLimiter(key string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(key)
	}
}

func (rs *RestfulServer) CheckLimiter(surface, key string) bool {
	if rs.RateLimiterStore == nil {
		return true
	}
	return rs.RateLimiterStore.Allow(surface, key)
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	return rs.CheckLimiter("device", deviceID)
}

func (rs *RestfulServer) SetLimiter(key string, keyRate float64, keyBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(key, rate.Limit(keyRate), keyBurst)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	devices := rs.Server.Group("/devices/:device_id")
	{
		devices.POST("/events", rs.PostDeviceEvent)
		devices.POST("/limiter", rs.PostLimiter)
	}

	voice := rs.Server.Group("/voice")
	{
		voice.POST("/status", rs.VoiceStatus)
		voice.POST("/gather", rs.VoiceGather)
	}
	rs.Server.POST("/sms/inbound", rs.InboundSMS)

	api := rs.Server.Group("/api", rs.Authenticate(), rs.LimitActor())
	{
		api.POST("/incidents", rs.CreateIncident)
		api.GET("/incidents", rs.ListIncidents)
		api.GET("/incidents/:id", rs.GetIncident)
		api.POST("/incidents/:id/status", rs.UpdateIncidentStatus)
		api.POST("/incidents/:id/responders", rs.AddResponder)
		api.POST("/incidents/:id/respond", rs.RespondToIncident)
		api.POST("/incidents/:id/location", rs.UpdateIncidentLocation)
		api.POST("/incidents/:id/responses", rs.RecordResponse)
		api.POST("/incidents/:id/notifications", rs.DispatchNotifications)
		api.POST("/incidents/:id/calls", rs.PlaceEscalationCalls)
		api.GET("/incidents/:id/matches", rs.MatchIncident)
		api.POST("/calls/:call_id/end", rs.EndCall)

		api.GET("/geofences", rs.ListGeofences)
		api.POST("/geofences", rs.CreateGeofence)
		api.POST("/geofences/evaluate", rs.EvaluateGeofences)
		api.GET("/geofences/:id", rs.GetGeofence)
		api.PUT("/geofences/:id", rs.UpdateGeofence)
		api.DELETE("/geofences/:id", rs.DeleteGeofence)

		api.GET("/contacts", rs.ListContacts)
		api.POST("/contacts", rs.CreateContact)
		api.GET("/contacts/:id", rs.GetContact)
		api.PUT("/contacts/:id", rs.UpdateContact)
		api.DELETE("/contacts/:id", rs.DeleteContact)

		api.POST("/location", rs.PostLocation)
		api.GET("/volunteers/nearby", rs.NearbyVolunteers)
		api.GET("/events", rs.StreamEvents)
	}
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindTransientChannel:
		return http.StatusBadGateway
	case errs.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestfulServer) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	var e *errs.Error
	if errors.As(err, &e) {
		c.JSON(code, gin.H{"error": e})
		return
	}
	c.JSON(code, gin.H{"error": gin.H{"kind": errs.KindUnknown, "message": err.Error()}})
}
