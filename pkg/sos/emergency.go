package sos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

func needsEmergencyServices(inc *models.Incident) bool {
	return inc.Priority == models.PriorityCritical ||
		inc.Type == models.IncidentTypeManualSOS ||
		inc.Type == models.IncidentTypeFallDetection
}

func needsMedicalTrack(inc *models.Incident) bool {
	return inc.Type == models.IncidentTypeFallDetection || inc.Type == models.IncidentTypeHeartrateAnomaly
}

func caseID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, now.Year(), suffix)
}

// notifyEmergencyServices opens the police case (always) and the medical case (fall and heart
// rate incidents) once per incident. It returns the stored sub-record.
func (s *SOS) notifyEmergencyServices(ctx context.Context, incidentID string) (*models.EmergencyServices, error) {
	var services models.EmergencyServices
	opened := false
	err := s.withIncident(ctx, incidentID, func(tx *gorm.DB, inc *models.Incident) error {
		if inc.EmergencyServices.Notified {
			services = inc.EmergencyServices
			return nil
		}

		now := s.now()
		services = models.EmergencyServices{
			Notified:     true,
			NotifiedAt:   &now,
			PoliceCaseID: caseID("PD", now),
		}
		if needsMedicalTrack(inc) {
			services.MedicalCaseID = caseID("MD", now)
		}

		if err := tx.Model(&models.Incident{}).Where("id = ?", incidentID).Updates(map[string]any{
			"emergency_notified":        true,
			"emergency_notified_at":     now,
			"emergency_police_case_id":  services.PoliceCaseID,
			"emergency_medical_case_id": services.MedicalCaseID,
		}).Error; err != nil {
			return err
		}
		details := map[string]any{"policeCaseId": services.PoliceCaseID}
		if services.MedicalCaseID != "" {
			details["medicalCaseId"] = services.MedicalCaseID
		}
		_, err := s.appendTimeline(tx, incidentID, models.ActionEmergencyServicesNotified, models.SystemActor.ID, details)
		opened = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if opened {
		common.CategoryLogger(common.LoggerCategorySOSEmergency).Info("Emergency services notified",
			zap.String("incident_id", incidentID),
			zap.String("police_case_id", services.PoliceCaseID),
			zap.String("medical_case_id", services.MedicalCaseID),
		)
		s.publish(ctx, EventIncidentNotification, map[string]any{
			"incidentId":        incidentID,
			"emergencyServices": services,
		}, IncidentTopic(incidentID), RoleTopic(models.RoleStaff))
	}
	return &services, nil
}
