package sos

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

const limiterIdleAfter = 30 * time.Minute

// EscalateStale bumps every incident that is still active after EscalateAfter and was not
// escalated within that window: priority goes up one level, the escalation level grows and the
// dialer is run again. It returns the escalated incident ids.
func (s *SOS) EscalateStale(ctx context.Context) ([]string, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSJobs)

	after := s.Config.Jobs.EscalateAfter
	if after <= 0 {
		return nil, nil
	}
	cutoff := s.now().Add(-after)

	var candidates []models.Incident
	err := s.Db.Conn.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.IncidentStatusActive, cutoff).
		Where("escalated_at IS NULL OR escalated_at < ?", cutoff).
		Order("created_at asc").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	escalated := make([]string, 0, len(candidates))
	for _, c := range candidates {
		var bumped *models.Incident
		err := s.withIncident(ctx, c.ID, func(tx *gorm.DB, inc *models.Incident) error {
			// re-checked under the lock, an acknowledgment may have landed meanwhile
			if inc.Status != models.IncidentStatusActive {
				return nil
			}
			now := s.now()
			from := inc.Priority
			inc.Priority = inc.Priority.Bump()
			inc.EscalationLevel++
			inc.EscalatedAt = &now
			if err := tx.Model(&models.Incident{}).Where("id = ?", inc.ID).Updates(map[string]any{
				"priority":         inc.Priority,
				"escalation_level": inc.EscalationLevel,
				"escalated_at":     now,
				"updated_at":       now,
			}).Error; err != nil {
				return err
			}
			_, err := s.appendTimeline(tx, inc.ID, models.ActionEscalated, models.SystemActor.ID, map[string]any{
				"from":  string(from),
				"to":    string(inc.Priority),
				"level": inc.EscalationLevel,
			})
			if err == nil {
				bumped = inc
			}
			return err
		})
		if err != nil {
			logger.Error("Could not escalate incident", zap.String("incident_id", c.ID), zap.Error(err))
			continue
		}
		if bumped == nil {
			continue
		}

		logger.Info("Incident escalated",
			zap.String("incident_id", bumped.ID),
			zap.String("priority", string(bumped.Priority)),
			zap.Int("level", bumped.EscalationLevel),
		)
		escalated = append(escalated, bumped.ID)
		s.publish(ctx, EventIncidentStatus, map[string]any{
			"incidentId":      bumped.ID,
			"priority":        bumped.Priority,
			"escalationLevel": bumped.EscalationLevel,
		}, UserTopic(bumped.UserID), IncidentTopic(bumped.ID), RoleTopic(models.RoleStaff))

		contacts, err := s.Contact.List(ctx, bumped.UserID)
		if err != nil {
			logger.Error("Could not load contacts for escalation", zap.String("incident_id", bumped.ID), zap.Error(err))
			continue
		}
		if _, err := s.Dialer.PlaceEscalationCalls(ctx, bumped.ID, contacts); err != nil {
			if errs.Is(err, errs.KindConfiguration) {
				logger.Warn("Escalation calls skipped", zap.String("incident_id", bumped.ID), zap.Error(err))
				continue
			}
			logger.Error("Escalation calls failed", zap.String("incident_id", bumped.ID), zap.Error(err))
		}
	}
	return escalated, nil
}

// ArchiveOld soft-archives terminal incidents resolved more than ArchiveAfter ago.
func (s *SOS) ArchiveOld(ctx context.Context) (int, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSJobs)

	after := s.Config.Jobs.ArchiveAfter
	if after <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-after)

	var candidates []models.Incident
	err := s.Db.Conn.WithContext(ctx).
		Where("status IN ?", []models.IncidentStatus{
			models.IncidentStatusResolved, models.IncidentStatusFalseAlarm, models.IncidentStatusCancelled,
		}).
		Where("archived_at IS NULL AND resolution_resolved_at < ?", cutoff).
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, c := range candidates {
		err := s.withIncident(ctx, c.ID, func(tx *gorm.DB, inc *models.Incident) error {
			if inc.ArchivedAt != nil {
				return nil
			}
			now := s.now()
			if err := tx.Model(&models.Incident{}).Where("id = ?", inc.ID).
				Update("archived_at", now).Error; err != nil {
				return err
			}
			_, err := s.appendTimeline(tx, inc.ID, models.ActionArchived, models.SystemActor.ID, nil)
			return err
		})
		if err != nil {
			logger.Error("Could not archive incident", zap.String("incident_id", c.ID), zap.Error(err))
			continue
		}
		archived++
	}
	if archived > 0 {
		logger.Info("Incidents archived", zap.Int("count", archived))
	}
	return archived, nil
}

// StartJobs schedules escalation, archival and limiter cleanup. The caller stops the returned cron.
func (s *SOS) StartJobs() (*cron.Cron, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSJobs)

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	escalation := s.Config.Jobs.EscalationSchedule
	if escalation == "" {
		escalation = "@every 1m"
	}
	if _, err := c.AddFunc(escalation, func() {
		if _, err := s.EscalateStale(context.Background()); err != nil {
			logger.Error("Escalation job failed", zap.Error(err))
		}
	}); err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, err, fmt.Sprintf("invalid escalation schedule %q", escalation))
	}

	archive := s.Config.Jobs.ArchiveSchedule
	if archive == "" {
		archive = "@daily"
	}
	if _, err := c.AddFunc(archive, func() {
		if _, err := s.ArchiveOld(context.Background()); err != nil {
			logger.Error("Archive job failed", zap.Error(err))
		}
	}); err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, err, fmt.Sprintf("invalid archive schedule %q", archive))
	}

	if _, err := c.AddFunc("@every 10m", func() {
		if n := s.Limiters.Sweep(limiterIdleAfter); n > 0 {
			logger.Debug("Idle rate limiters removed", zap.Int("count", n))
		}
		s.DialGuard.DeleteExpired()
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("Scheduled jobs started",
		zap.String("escalation", escalation),
		zap.String("archive", archive),
		zap.Int("entries", len(c.Entries())),
	)
	return c, nil
}
