package sos

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

func validateGeofence(g *models.Geofence) error {
	if strings.TrimSpace(g.UserID) == "" {
		return errs.Validation("geofence owner is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return errs.Validation("geofence name is required")
	}
	if !slices.Contains(models.GeofenceTypes, string(g.Type)) {
		return errs.Validation("unknown geofence type %q", g.Type)
	}
	for _, ac := range []*models.AlertConfig{&g.Entry, &g.Exit} {
		if ac.Severity == "" {
			ac.Severity = models.SeverityWarning
		}
		if !slices.Contains(models.Severities, string(ac.Severity)) {
			return errs.Validation("unknown alert severity %q", ac.Severity)
		}
	}
	// checked again by the save hook
	if err := geo.ValidateRing(g.Ring); err != nil {
		return errs.Wrap(errs.KindValidation, err, "invalid geofence polygon")
	}
	return nil
}

func (s *SOS) createGeofence(ctx context.Context, g *models.Geofence) error {
	if err := validateGeofence(g); err != nil {
		return err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.Stats = models.GeofenceStats{}
	if err := s.Db.Conn.WithContext(ctx).Create(g).Error; err != nil {
		return err
	}

	common.CategoryLogger(common.LoggerCategorySOSGeofence).Info("Geofence created",
		zap.String("geofence_id", g.ID),
		zap.String("user_id", g.UserID),
		zap.Float64("radius_m", g.RadiusMeters),
	)
	return nil
}

// updateGeofence replaces the editable fields; stats and derived geometry are not taken from g.
func (s *SOS) updateGeofence(ctx context.Context, g *models.Geofence) error {
	if err := validateGeofence(g); err != nil {
		return err
	}
	existing, err := s.getGeofence(ctx, g.ID)
	if err != nil {
		return err
	}
	if existing.UserID != g.UserID {
		return errs.NotFound("geofence %s not found", g.ID)
	}

	existing.Name = g.Name
	existing.Type = g.Type
	existing.Active = g.Active
	existing.Ring = g.Ring
	existing.Entry = g.Entry
	existing.Exit = g.Exit
	existing.Schedule = g.Schedule
	if err := s.Db.Conn.WithContext(ctx).Save(existing).Error; err != nil {
		return err
	}
	*g = *existing
	return nil
}

func (s *SOS) deleteGeofence(ctx context.Context, userID, id string) error {
	res := s.Db.Conn.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Geofence{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("geofence %s not found", id)
	}
	return nil
}

func (s *SOS) getGeofence(ctx context.Context, id string) (*models.Geofence, error) {
	var g models.Geofence
	if err := s.Db.Conn.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("geofence %s not found", id)
		}
		return nil, err
	}
	return &g, nil
}

func (s *SOS) listGeofences(ctx context.Context, userID string) ([]models.Geofence, error) {
	var fences []models.Geofence
	err := s.Db.Conn.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&fences).Error
	return fences, err
}

// evaluate tests p against every schedule-active geofence of the user and reports entry/exit
// transitions relative to the remembered containment state.
func (s *SOS) evaluate(ctx context.Context, userID string, p geo.Point) ([]models.GeofenceTrigger, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSGeofence)

	if !geo.ValidPoint(p) {
		return nil, errs.Validation("location %v out of range", p)
	}
	fences, err := s.listGeofences(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var triggers []models.GeofenceTrigger
	for i := range fences {
		g := &fences[i]
		if !g.IsCurrentlyActive(now) {
			continue
		}

		trigger, err := s.crossGeofence(ctx, userID, g, p, now)
		if err != nil {
			return nil, err
		}

		if trigger != nil {
			geofenceTriggers.WithLabelValues(string(trigger.Direction)).Inc()
			logger.Info("Geofence triggered",
				zap.String("user_id", userID),
				zap.String("geofence_id", g.ID),
				zap.String("direction", string(trigger.Direction)),
			)
			s.publish(ctx, EventGeofenceTrigger, trigger, UserTopic(userID))
			triggers = append(triggers, *trigger)
		}
	}
	return triggers, nil
}

// crossGeofence compares p with the remembered containment for one geofence and, on a change,
// stores the new state before counting it. The per user and geofence lock makes concurrent
// evaluations of the same move observe each other.
func (s *SOS) crossGeofence(ctx context.Context, userID string, g *models.Geofence, p geo.Point, now time.Time) (*models.GeofenceTrigger, error) {
	unlock := s.locks.lock("geofence:" + userID + ":" + g.ID)
	defer unlock()

	inside := g.Contains(p)
	prev, _, err := s.Containment.Get(ctx, userID, g.ID)
	if err != nil {
		return nil, fmt.Errorf("load containment for geofence %s: %w", g.ID, err)
	}
	if inside == prev.Inside {
		return nil, nil
	}

	next := models.GeofenceContainment{UserID: userID, GeofenceID: g.ID, Inside: inside, UpdatedAt: now}
	if inside {
		next.EnteredAt = &now
	}
	if err := s.Containment.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("store containment for geofence %s: %w", g.ID, err)
	}

	if inside {
		if err := s.recordEntry(ctx, g.ID, now); err != nil {
			return nil, err
		}
		if !g.Entry.Enabled {
			return nil, nil
		}
		return newTrigger(g, models.DirectionEntry, g.Entry, now), nil
	}

	var dwell int64
	if prev.EnteredAt != nil {
		dwell = durationSeconds(now.Sub(*prev.EnteredAt))
	}
	if err := s.recordExit(ctx, g.ID, now, dwell); err != nil {
		return nil, err
	}
	if !g.Exit.Enabled {
		return nil, nil
	}
	trigger := newTrigger(g, models.DirectionExit, g.Exit, now)
	trigger.DwellSeconds = dwell
	return trigger, nil
}

func newTrigger(g *models.Geofence, dir models.TriggerDirection, ac models.AlertConfig, now time.Time) *models.GeofenceTrigger {
	msg := ac.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %s", dir, g.Name)
	}
	return &models.GeofenceTrigger{
		GeofenceID:     g.ID,
		GeofenceName:   g.Name,
		GeofenceType:   g.Type,
		Direction:      dir,
		Message:        msg,
		Severity:       ac.Severity,
		NotifyContacts: ac.NotifyContacts,
		At:             now,
	}
}

// stats go through UpdateColumns so the save hook does not recompute geometry
func (s *SOS) recordEntry(ctx context.Context, geofenceID string, now time.Time) error {
	return s.Db.Conn.WithContext(ctx).Model(&models.Geofence{}).Where("id = ?", geofenceID).
		UpdateColumns(map[string]any{
			"stats_entry_count":   gorm.Expr("stats_entry_count + ?", 1),
			"stats_last_entry_at": now,
		}).Error
}

func (s *SOS) recordExit(ctx context.Context, geofenceID string, now time.Time, dwell int64) error {
	return s.Db.Conn.WithContext(ctx).Model(&models.Geofence{}).Where("id = ?", geofenceID).
		UpdateColumns(map[string]any{
			"stats_exit_count":          gorm.Expr("stats_exit_count + ?", 1),
			"stats_last_exit_at":        now,
			"stats_time_inside_seconds": gorm.Expr("stats_time_inside_seconds + ?", dwell),
		}).Error
}

type LocationResult struct {
	Triggers    []models.GeofenceTrigger `json:"triggers"`
	IncidentIDs []string                 `json:"incidentIds,omitempty"`
}

func breachPriority(sev models.Severity) models.Priority {
	switch sev {
	case models.SeverityCritical:
		return models.PriorityCritical
	case models.SeverityInfo:
		return models.PriorityMedium
	default:
		return models.PriorityHigh
	}
}

// HandleLocationUpdate stores the user's position, extends the trail of their open incidents,
// evaluates geofences and opens geofence_breach incidents for alerting danger/restricted zones.
func (s *SOS) HandleLocationUpdate(ctx context.Context, userID string, p geo.Point, accuracy float64) (*LocationResult, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSGeofence)

	if !geo.ValidPoint(p) {
		return nil, errs.Validation("location %v out of range", p)
	}
	now := s.now()
	res := s.Db.Conn.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"lat":          p.Lat,
		"lng":          p.Lng,
		"has_location": true,
		"located_at":   now,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("user %s not found", userID)
	}

	var open []models.Incident
	if err := s.Db.Conn.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []models.IncidentStatus{
			models.IncidentStatusActive, models.IncidentStatusAcknowledged, models.IncidentStatusResponding,
		}).
		Find(&open).Error; err != nil {
		return nil, err
	}
	for _, inc := range open {
		if err := s.Incident.UpdateLocation(ctx, inc.ID, p, accuracy); err != nil {
			logger.Warn("Trail update failed", zap.String("incident_id", inc.ID), zap.Error(err))
		}
	}

	triggers, err := s.Geofence.Evaluate(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	result := &LocationResult{Triggers: triggers}
	for _, t := range triggers {
		if !t.NotifyContacts || t.GeofenceType == models.GeofenceTypeSafe {
			continue
		}
		inc, err := s.RaiseIncident(ctx, models.TriggerInput{
			UserID:   userID,
			DedupKey: fmt.Sprintf("geofence:%s:%s:%d", t.GeofenceID, userID, t.At.Unix()),
			Type:     models.IncidentTypeGeofenceBreach,
			Source:   models.TriggerSourceGeofence,
			Priority: breachPriority(t.Severity),
			Location: p,
			Accuracy: accuracy,
			Actor:    models.SystemActor,
		})
		if err != nil {
			if errs.Is(err, errs.KindConflict) {
				continue
			}
			return result, err
		}
		result.IncidentIDs = append(result.IncidentIDs, inc.ID)
	}
	return result, nil
}

type IGeofenceImpl struct {
	sos *SOS
}

func (ig *IGeofenceImpl) Create(ctx context.Context, g *models.Geofence) error {
	return ig.sos.createGeofence(ctx, g)
}

func (ig *IGeofenceImpl) Update(ctx context.Context, g *models.Geofence) error {
	return ig.sos.updateGeofence(ctx, g)
}

func (ig *IGeofenceImpl) Delete(ctx context.Context, userID, id string) error {
	return ig.sos.deleteGeofence(ctx, userID, id)
}

func (ig *IGeofenceImpl) Get(ctx context.Context, id string) (*models.Geofence, error) {
	return ig.sos.getGeofence(ctx, id)
}

func (ig *IGeofenceImpl) List(ctx context.Context, userID string) ([]models.Geofence, error) {
	return ig.sos.listGeofences(ctx, userID)
}

func (ig *IGeofenceImpl) Evaluate(ctx context.Context, userID string, p geo.Point) ([]models.GeofenceTrigger, error) {
	return ig.sos.evaluate(ctx, userID, p)
}

func (s *SOS) GetIGeofence() IGeofence {
	return &IGeofenceImpl{sos: s}
}
