package sos

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

const (
	defaultMatchRadiusMeters = 5000.0
	defaultMatchLimit        = 10
	// rough urban travel speed used for the ETA estimate
	responderMetersPerMinute = 500.0
)

func (s *SOS) matchRadius() float64 {
	if s.Config.Matcher.RadiusMeters > 0 {
		return s.Config.Matcher.RadiusMeters
	}
	return defaultMatchRadiusMeters
}

func (s *SOS) matchLimit() int {
	if s.Config.Matcher.Limit > 0 {
		return s.Config.Matcher.Limit
	}
	return defaultMatchLimit
}

// findNearby narrows candidates with a bounding box in SQL, then keeps those within the haversine
// radius, nearest first.
func (s *SOS) findNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]models.Match, error) {
	if radiusMeters <= 0 {
		radiusMeters = s.matchRadius()
	}
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(center, radiusMeters)

	var users []models.User
	err := s.Db.Conn.WithContext(ctx).
		Where("role = ? AND active = ? AND available = ? AND verified = ? AND has_location = ?",
			models.RoleVolunteer, true, true, true, true).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", minLat, maxLat, minLng, maxLng).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(users))
	for _, u := range users {
		d := geo.Haversine(center, geo.Point{Lat: u.Lat, Lng: u.Lng})
		if d > radiusMeters {
			continue
		}
		matches = append(matches, models.Match{
			UserID:         u.ID,
			Name:           u.Name,
			DistanceMeters: d,
			ETAMinutes:     int(math.Ceil(d / responderMetersPerMinute)),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
	if limit := s.matchLimit(); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// matchIncident attaches nearby volunteers to the incident. Store failures are logged and read
// as no volunteers so incident creation never blocks on this step.
func (s *SOS) matchIncident(ctx context.Context, incidentID string) ([]models.Match, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSMatcher)

	view, err := s.Incident.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	inc := view.Incident
	center := geo.Point{Lat: inc.CurrentLat, Lng: inc.CurrentLng}

	matches, err := s.findNearby(ctx, center, s.matchRadius())
	if err != nil {
		logger.Warn("Volunteer lookup failed, continuing without volunteers",
			zap.String("incident_id", incidentID), zap.Error(err))
		return []models.Match{}, nil
	}

	attached := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.UserID == inc.UserID {
			continue
		}
		eta := m.ETAMinutes
		if _, err := s.Incident.AddResponder(ctx, incidentID, m.UserID, models.ResponderTypeVolunteer, &eta); err != nil {
			logger.Warn("Could not attach volunteer",
				zap.String("incident_id", incidentID), zap.String("user_id", m.UserID), zap.Error(err))
			continue
		}
		logger.Info("Volunteer matched",
			zap.String("incident_id", incidentID),
			zap.String("user_id", m.UserID),
			zap.Float64("distance_m", m.DistanceMeters),
		)
		attached = append(attached, m)
	}

	if len(attached) > 0 {
		err := s.withIncident(ctx, incidentID, func(tx *gorm.DB, _ *models.Incident) error {
			_, err := s.appendTimeline(tx, incidentID, models.ActionVolunteersMatched, models.SystemActor.ID,
				map[string]any{"count": len(attached), "radiusMeters": s.matchRadius()})
			return err
		})
		if err != nil {
			logger.Warn("Could not record volunteer match", zap.String("incident_id", incidentID), zap.Error(err))
		}
	}
	return attached, nil
}

type IMatcherImpl struct {
	sos *SOS
}

func (im *IMatcherImpl) FindNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]models.Match, error) {
	return im.sos.findNearby(ctx, center, radiusMeters)
}

func (im *IMatcherImpl) MatchIncident(ctx context.Context, incidentID string) ([]models.Match, error) {
	return im.sos.matchIncident(ctx, incidentID)
}

func (s *SOS) GetIMatcher() IMatcher {
	return &IMatcherImpl{sos: s}
}
