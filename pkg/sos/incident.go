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

// statusRank orders the forward path; terminal states share the last rank.
var statusRank = map[models.IncidentStatus]int{
	models.IncidentStatusActive:       0,
	models.IncidentStatusAcknowledged: 1,
	models.IncidentStatusResponding:   2,
	models.IncidentStatusResolved:     3,
	models.IncidentStatusFalseAlarm:   3,
	models.IncidentStatusCancelled:    3,
}

func validTransition(from, to models.IncidentStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.IncidentStatusCancelled {
		return true
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	return okFrom && okTo && toRank > fromRank
}

func DeriveDedupKey(in models.TriggerInput) string {
	if in.DedupKey != "" {
		return in.DedupKey
	}
	if in.DeviceID != "" && in.EventID != "" {
		return in.DeviceID + ":" + in.EventID
	}
	return ""
}

func (s *SOS) validateTrigger(in *models.TriggerInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return errs.Validation("user id is required")
	}
	if !slices.Contains(models.IncidentTypes, string(in.Type)) {
		return errs.Validation("unknown incident type %q", in.Type)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityHigh
	}
	if !slices.Contains(models.Priorities, string(in.Priority)) {
		return errs.Validation("priority %q out of range", in.Priority)
	}
	if !geo.ValidPoint(in.Location) {
		return errs.Validation("location %v out of range", in.Location)
	}
	if in.Source == "" {
		in.Source = models.TriggerSourceManual
	}
	return nil
}

func (s *SOS) createIncident(ctx context.Context, in models.TriggerInput) (*models.Incident, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSIncident)

	if err := s.validateTrigger(&in); err != nil {
		return nil, err
	}

	now := s.now()
	inc := models.Incident{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Type:            in.Type,
		Status:          models.IncidentStatusActive,
		Priority:        in.Priority,
		Source:          in.Source,
		InitialLat:      in.Location.Lat,
		InitialLng:      in.Location.Lng,
		CurrentLat:      in.Location.Lat,
		CurrentLng:      in.Location.Lng,
		CurrentAccuracy: in.Accuracy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.DeviceID != "" {
		inc.DeviceID = &in.DeviceID
	}
	if key := DeriveDedupKey(in); key != "" {
		inc.DedupKey = &key
	}

	actor := in.Actor.ID
	if actor == "" {
		actor = in.UserID
	}

	err := s.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if inc.DedupKey != nil {
			var count int64
			if err := tx.Model(&models.Incident{}).Where("dedup_key = ?", *inc.DedupKey).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errs.Conflict("incident already exists for dedup key %s", *inc.DedupKey)
			}
		}
		if err := tx.Create(&inc).Error; err != nil {
			return err
		}
		point := models.LocationPoint{
			IncidentID: inc.ID,
			Lat:        in.Location.Lat,
			Lng:        in.Location.Lng,
			Accuracy:   in.Accuracy,
			RecordedAt: now,
		}
		if err := tx.Create(&point).Error; err != nil {
			return err
		}
		_, err := s.appendTimeline(tx, inc.ID, models.ActionCreated, actor, map[string]any{
			"type":     string(in.Type),
			"priority": string(in.Priority),
			"source":   string(in.Source),
		})
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = errs.Conflict("incident already exists for dedup key %s", *inc.DedupKey)
	}
	if err != nil {
		if errs.Is(err, errs.KindConflict) {
			logger.Warn("Duplicate trigger rejected", zap.String("dedup_key", *inc.DedupKey))
		}
		return nil, err
	}

	incidentsCreated.WithLabelValues(string(inc.Type)).Inc()
	logger.Info("Incident created",
		zap.String("incident_id", inc.ID),
		zap.String("user_id", inc.UserID),
		zap.String("type", string(inc.Type)),
		zap.String("priority", string(inc.Priority)),
	)

	s.publish(ctx, EventIncidentCreated, &inc,
		UserTopic(inc.UserID), IncidentTopic(inc.ID), RoleTopic(models.RoleStaff))
	return &inc, nil
}

// appendTimeline keeps the timeline timestamp-monotonic: an entry is never stamped earlier than
// the previous one.
func (s *SOS) appendTimeline(tx *gorm.DB, incidentID, action, actor string, details map[string]any) (models.TimelineEntry, error) {
	ts := s.now()

	var last []models.TimelineEntry
	if err := tx.Where("incident_id = ?", incidentID).
		Order("timestamp desc, id desc").
		Limit(1).
		Find(&last).Error; err != nil {
		return models.TimelineEntry{}, err
	}
	if len(last) > 0 && last[0].Timestamp.After(ts) {
		ts = last[0].Timestamp
	}

	entry := models.TimelineEntry{
		IncidentID: incidentID,
		Action:     action,
		Actor:      actor,
		Timestamp:  ts,
		Details:    details,
	}
	err := tx.Create(&entry).Error
	return entry, err
}

// withIncident loads the incident under its writer lock inside a transaction. fn must only use tx.
func (s *SOS) withIncident(ctx context.Context, id string, fn func(tx *gorm.DB, inc *models.Incident) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	return s.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inc, err := loadIncident(tx, id)
		if err != nil {
			return err
		}
		return fn(tx, inc)
	})
}

func loadIncident(tx *gorm.DB, id string) (*models.Incident, error) {
	var inc models.Incident
	if err := tx.First(&inc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("incident %s not found", id)
		}
		return nil, err
	}
	return &inc, nil
}

func (s *SOS) getIncident(ctx context.Context, id string) (*models.IncidentView, error) {
	var inc models.Incident
	err := s.Db.Conn.WithContext(ctx).
		Preload("Trail", func(db *gorm.DB) *gorm.DB { return db.Order("recorded_at asc, id asc") }).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp asc, id asc") }).
		Preload("Responders", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Notifications", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Responses", func(db *gorm.DB) *gorm.DB { return db.Order("received_at asc, id asc") }).
		First(&inc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("incident %s not found", id)
		}
		return nil, err
	}

	var calls []models.EscalationCall
	if err := s.Db.Conn.WithContext(ctx).
		Preload("Responses").
		Where("incident_id = ?", id).
		Order("created_at asc, sequence asc").
		Find(&calls).Error; err != nil {
		return nil, err
	}

	return &models.IncidentView{
		Incident: inc,
		Metrics:  inc.Metrics(),
		Outcome:  inc.Outcome(),
		Calls:    calls,
	}, nil
}

func (s *SOS) listForUser(ctx context.Context, userID string, includeArchived bool) ([]models.Incident, error) {
	q := s.Db.Conn.WithContext(ctx).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	var incidents []models.Incident
	err := q.Order("created_at desc").Find(&incidents).Error
	return incidents, err
}

func (s *SOS) updateStatus(ctx context.Context, id string, status models.IncidentStatus, actor models.Actor, notes string) (*models.Incident, error) {
	var updated *models.Incident
	var from models.IncidentStatus
	err := s.withIncident(ctx, id, func(tx *gorm.DB, inc *models.Incident) error {
		from = inc.Status
		if err := s.checkTransition(inc, status, actor); err != nil {
			return err
		}
		if err := s.transition(tx, inc, status, actor.ID, notes); err != nil {
			return err
		}
		updated = inc
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.CategoryLogger(common.LoggerCategorySOSIncident).Info("Incident status changed",
		zap.String("incident_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.String("actor", actor.ID),
	)
	s.publishStatus(ctx, updated, from)
	return updated, nil
}

func (s *SOS) checkTransition(inc *models.Incident, to models.IncidentStatus, actor models.Actor) error {
	if !slices.Contains(models.IncidentStatuses, string(to)) {
		return errs.Validation("unknown status %q", to)
	}
	if inc.Status.Terminal() {
		return errs.Forbidden("invalid transition: incident %s is already %s", inc.ID, inc.Status).
			WithContext("incident_id", inc.ID)
	}
	if !validTransition(inc.Status, to) {
		return errs.Validation("invalid transition from %s to %s", inc.Status, to).
			WithContext("incident_id", inc.ID)
	}
	if to == models.IncidentStatusCancelled && !actor.Role.Privileged() {
		if actor.ID != inc.UserID {
			return errs.Forbidden("only the owner or staff may cancel incident %s", inc.ID)
		}
		if s.now().Sub(inc.CreatedAt) > s.Config.Incident.CancelWindow {
			return errs.Forbidden("cancellation window of %s has elapsed", s.Config.Incident.CancelWindow).
				WithContext("incident_id", inc.ID)
		}
	}
	return nil
}

// transition writes the new status, its timeline entry and, for terminal states, the resolution.
// The caller has already validated it.
func (s *SOS) transition(tx *gorm.DB, inc *models.Incident, to models.IncidentStatus, actor, notes string) error {
	from := inc.Status
	entry, err := s.appendTimeline(tx, inc.ID, string(to), actor, map[string]any{
		"from":  string(from),
		"to":    string(to),
		"notes": notes,
	})
	if err != nil {
		return err
	}

	updates := map[string]any{"status": to, "updated_at": entry.Timestamp}
	if to.Terminal() {
		resolvedAt := entry.Timestamp
		inc.Resolution = models.Resolution{Kind: to, ResolvedBy: actor, ResolvedAt: &resolvedAt, Notes: notes}
		updates["resolution_kind"] = to
		updates["resolution_resolved_by"] = actor
		updates["resolution_resolved_at"] = resolvedAt
		updates["resolution_notes"] = notes
	}
	if err := tx.Model(&models.Incident{}).Where("id = ?", inc.ID).Updates(updates).Error; err != nil {
		return err
	}
	inc.Status = to
	inc.UpdatedAt = entry.Timestamp
	return nil
}

func (s *SOS) publishStatus(ctx context.Context, inc *models.Incident, from models.IncidentStatus) {
	payload := map[string]any{"incidentId": inc.ID, "from": from, "to": inc.Status}
	s.publish(ctx, EventIncidentStatus, payload,
		UserTopic(inc.UserID), IncidentTopic(inc.ID), RoleTopic(models.RoleStaff))
}

func (s *SOS) addResponder(ctx context.Context, id, userID string, typ models.ResponderType, eta *int) (*models.Responder, error) {
	if typ == "" {
		typ = models.ResponderTypeVolunteer
	}
	var responder models.Responder
	added := false
	err := s.withIncident(ctx, id, func(tx *gorm.DB, inc *models.Incident) error {
		var existing []models.Responder
		if err := tx.Where("incident_id = ? AND user_id = ?", id, userID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			responder = existing[0]
			return nil
		}

		responder = models.Responder{
			IncidentID: id,
			UserID:     userID,
			Type:       typ,
			Status:     models.ResponderStatusNotified,
			ETAMinutes: eta,
			NotifiedAt: s.now(),
		}
		if err := tx.Create(&responder).Error; err != nil {
			return err
		}
		added = true
		details := map[string]any{"userId": userID, "type": string(typ)}
		if eta != nil {
			details["etaMinutes"] = *eta
		}
		_, err := s.appendTimeline(tx, id, models.ActionResponderAdded, userID, details)
		return err
	})
	if err != nil {
		return nil, err
	}

	if added {
		common.CategoryLogger(common.LoggerCategorySOSIncident).Info("Responder added",
			zap.String("incident_id", id), zap.String("user_id", userID))
		s.publish(ctx, EventIncidentResponder, &responder, IncidentTopic(id), UserTopic(userID))
	}
	return &responder, nil
}

func (s *SOS) respond(ctx context.Context, id, userID string, accept bool) (*models.Responder, error) {
	var responder models.Responder
	var statusFrom models.IncidentStatus
	var inc *models.Incident
	err := s.withIncident(ctx, id, func(tx *gorm.DB, loaded *models.Incident) error {
		inc = loaded
		statusFrom = loaded.Status
		if err := tx.Where("incident_id = ? AND user_id = ?", id, userID).First(&responder).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("user %s is not a responder on incident %s", userID, id)
			}
			return err
		}
		if loaded.Status.Terminal() {
			return errs.Forbidden("incident %s is already %s", id, loaded.Status)
		}

		now := s.now()
		responder.RespondedAt = &now
		action := models.ActionResponderDeclined
		responder.Status = models.ResponderStatusDeclined
		if accept {
			action = models.ActionResponderAccepted
			responder.Status = models.ResponderStatusAccepted
		}
		if err := tx.Model(&responder).Updates(map[string]any{
			"status":       responder.Status,
			"responded_at": now,
		}).Error; err != nil {
			return err
		}
		if _, err := s.appendTimeline(tx, id, action, userID, map[string]any{"userId": userID}); err != nil {
			return err
		}
		if accept && validTransition(loaded.Status, models.IncidentStatusResponding) {
			return s.transition(tx, loaded, models.IncidentStatusResponding, userID, "responder accepted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventIncidentResponder, &responder, IncidentTopic(id), UserTopic(inc.UserID))
	if inc.Status != statusFrom {
		s.publishStatus(ctx, inc, statusFrom)
	}
	return &responder, nil
}

func (s *SOS) updateLocation(ctx context.Context, id string, p geo.Point, accuracy float64) error {
	if !geo.ValidPoint(p) {
		return errs.Validation("location %v out of range", p)
	}
	var userID string
	err := s.withIncident(ctx, id, func(tx *gorm.DB, inc *models.Incident) error {
		userID = inc.UserID
		now := s.now()
		point := models.LocationPoint{IncidentID: id, Lat: p.Lat, Lng: p.Lng, Accuracy: accuracy, RecordedAt: now}
		if err := tx.Create(&point).Error; err != nil {
			return err
		}
		return tx.Model(&models.Incident{}).Where("id = ?", id).Updates(map[string]any{
			"current_lat":      p.Lat,
			"current_lng":      p.Lng,
			"current_accuracy": accuracy,
			"updated_at":       now,
		}).Error
	})
	if err != nil {
		return err
	}

	payload := map[string]any{"incidentId": id, "lat": p.Lat, "lng": p.Lng, "accuracy": accuracy}
	s.publish(ctx, EventIncidentLocation, payload, IncidentTopic(id), UserTopic(userID))
	return nil
}

func (s *SOS) calculateMetrics(ctx context.Context, id string) (models.IncidentMetrics, error) {
	view, err := s.getIncident(ctx, id)
	if err != nil {
		return models.IncidentMetrics{}, err
	}
	return view.Metrics, nil
}

var responseActions = map[models.ResponseKind]string{
	models.ResponseAcknowledged: models.ActionContactAcknowledged,
	models.ResponseDeclined:     models.ActionContactDeclined,
	models.ResponseReplied:      models.ActionContactReplied,
}

func (s *SOS) recordResponse(ctx context.Context, in models.ResponseInput) (models.NotificationOutcome, error) {
	var outcome models.NotificationOutcome
	var statusFrom models.IncidentStatus
	var inc *models.Incident
	err := s.withIncident(ctx, in.IncidentID, func(tx *gorm.DB, loaded *models.Incident) error {
		inc = loaded
		statusFrom = loaded.Status

		contact, err := resolveContact(tx, loaded.UserID, in.ContactID, in.Phone)
		if err != nil {
			return err
		}
		actor := in.Phone
		if contact != nil {
			in.ContactID = contact.ID
			actor = contact.ID
			if in.Phone == "" {
				in.Phone = contact.Phone
			}
		}

		response := models.NotificationResponse{
			IncidentID: loaded.ID,
			ContactID:  in.ContactID,
			Phone:      in.Phone,
			Channel:    in.Channel,
			Kind:       in.Kind,
			Message:    in.Message,
			ReceivedAt: s.now(),
		}
		if err := tx.Create(&response).Error; err != nil {
			return err
		}

		if action, ok := responseActions[in.Kind]; ok {
			details := map[string]any{"contactId": in.ContactID, "channel": string(in.Channel)}
			if in.Message != "" {
				details["message"] = in.Message
			}
			if _, err := s.appendTimeline(tx, loaded.ID, action, actor, details); err != nil {
				return err
			}
		}
		if in.Kind == models.ResponseAcknowledged && loaded.Status == models.IncidentStatusActive {
			if err := s.transition(tx, loaded, models.IncidentStatusAcknowledged, actor, "contact acknowledged"); err != nil {
				return err
			}
		}

		var responses []models.NotificationResponse
		if err := tx.Where("incident_id = ?", loaded.ID).Find(&responses).Error; err != nil {
			return err
		}
		outcome = models.DeriveOutcome(responses)
		return nil
	})
	if err != nil {
		return "", err
	}

	common.CategoryLogger(common.LoggerCategorySOSCascade).Info("Contact response recorded",
		zap.String("incident_id", in.IncidentID),
		zap.String("contact_id", in.ContactID),
		zap.String("kind", string(in.Kind)),
		zap.String("outcome", string(outcome)),
	)
	payload := map[string]any{"incidentId": in.IncidentID, "contactId": in.ContactID, "kind": in.Kind, "outcome": outcome}
	s.publish(ctx, EventIncidentNotification, payload, IncidentTopic(in.IncidentID), UserTopic(inc.UserID))
	if inc.Status != statusFrom {
		s.publishStatus(ctx, inc, statusFrom)
	}
	return outcome, nil
}

// resolveContact finds the owner's contact by id or phone. An unknown phone is allowed and
// returns nil; an unknown id is NotFound.
func resolveContact(tx *gorm.DB, ownerID, contactID, phone string) (*models.Contact, error) {
	var contact models.Contact
	switch {
	case contactID != "":
		if err := tx.Unscoped().Where("id = ? AND user_id = ?", contactID, ownerID).First(&contact).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NotFound("contact %s not found", contactID)
			}
			return nil, err
		}
		return &contact, nil
	case phone != "":
		var found []models.Contact
		if err := tx.Unscoped().Where("user_id = ? AND phone = ?", ownerID, phone).Limit(1).Find(&found).Error; err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, nil
		}
		return &found[0], nil
	default:
		return nil, errs.Validation("a response needs a contact id or phone")
	}
}

// RecordInboundSMS attributes a free-text SMS reply to the newest open incident that notified the
// sender. "1", "yes" and "ok" acknowledge; "2" and "no" decline; anything else is a reply.
func (s *SOS) RecordInboundSMS(ctx context.Context, from, body string) (string, models.NotificationOutcome, error) {
	var attempts []models.NotificationAttempt
	err := s.Db.Conn.WithContext(ctx).
		Joins("JOIN incidents ON incidents.id = notification_attempts.incident_id").
		Where("notification_attempts.target = ? AND notification_attempts.channel = ?", from, models.ChannelSMS).
		Where("incidents.status IN ?", []models.IncidentStatus{
			models.IncidentStatusActive, models.IncidentStatusAcknowledged, models.IncidentStatusResponding,
		}).
		Order("notification_attempts.sent_at desc").
		Limit(1).
		Find(&attempts).Error
	if err != nil {
		return "", "", err
	}
	if len(attempts) == 0 {
		return "", "", errs.NotFound("no open incident notified %s", from)
	}

	outcome, err := s.Incident.RecordResponse(ctx, models.ResponseInput{
		IncidentID: attempts[0].IncidentID,
		ContactID:  attempts[0].ContactID,
		Phone:      from,
		Channel:    models.ChannelSMS,
		Kind:       classifyReply(body),
		Message:    body,
	})
	return attempts[0].IncidentID, outcome, err
}

func classifyReply(body string) models.ResponseKind {
	switch strings.ToLower(strings.TrimSpace(body)) {
	case "1", "yes", "y", "ok":
		return models.ResponseAcknowledged
	case "2", "no", "n":
		return models.ResponseDeclined
	default:
		return models.ResponseReplied
	}
}

// RaiseIncident creates the incident, attaches nearby volunteers and starts the notification
// effort in the background.
func (s *SOS) RaiseIncident(ctx context.Context, in models.TriggerInput) (*models.Incident, error) {
	inc, err := s.Incident.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.Matcher != nil {
		if _, err := s.Matcher.MatchIncident(ctx, inc.ID); err != nil {
			common.CategoryLogger(common.LoggerCategorySOSMatcher).Warn("Volunteer matching failed",
				zap.String("incident_id", inc.ID), zap.Error(err))
		}
	}

	incidentID := inc.ID
	s.goBackground(ctx, func(ctx context.Context) {
		if _, err := s.DispatchNotifications(ctx, incidentID); err != nil {
			common.CategoryLogger(common.LoggerCategorySOSCascade).Error("Notification dispatch failed",
				zap.String("incident_id", incidentID), zap.Error(err))
		}
	})
	return inc, nil
}

type DispatchResult struct {
	Cascade *models.CascadeResult
	Calls   []models.EscalationCall
}

func needsEscalationCalls(inc *models.Incident) bool {
	return inc.Priority == models.PriorityHigh || inc.Priority == models.PriorityCritical ||
		inc.Type == models.IncidentTypeManualSOS || inc.Type == models.IncidentTypeFallDetection
}

// DispatchNotifications runs the cascade and then, for urgent incidents, the escalation dialer.
// An unconfigured voice gateway only disables the dialer tier.
func (s *SOS) DispatchNotifications(ctx context.Context, incidentID string) (*DispatchResult, error) {
	cascade, err := s.Cascade.Dispatch(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	result := &DispatchResult{Cascade: cascade}

	var inc models.Incident
	if err := s.Db.Conn.WithContext(ctx).First(&inc, "id = ?", incidentID).Error; err != nil {
		return result, err
	}
	if !needsEscalationCalls(&inc) || inc.Status.Terminal() {
		return result, nil
	}

	contacts, err := s.Contact.List(ctx, inc.UserID)
	if err != nil {
		return result, err
	}
	calls, err := s.Dialer.PlaceEscalationCalls(ctx, incidentID, contacts)
	if err != nil {
		if errs.Is(err, errs.KindConfiguration) {
			common.CategoryLogger(common.LoggerCategorySOSDialer).Warn("Escalation calls skipped",
				zap.String("incident_id", incidentID), zap.Error(err))
			return result, nil
		}
		return result, fmt.Errorf("escalation calls: %w", err)
	}
	result.Calls = calls
	return result, nil
}

type IIncidentImpl struct {
	sos *SOS
}

func (ii *IIncidentImpl) Create(ctx context.Context, in models.TriggerInput) (*models.Incident, error) {
	return ii.sos.createIncident(ctx, in)
}

func (ii *IIncidentImpl) Get(ctx context.Context, id string) (*models.IncidentView, error) {
	return ii.sos.getIncident(ctx, id)
}

func (ii *IIncidentImpl) ListForUser(ctx context.Context, userID string, includeArchived bool) ([]models.Incident, error) {
	return ii.sos.listForUser(ctx, userID, includeArchived)
}

func (ii *IIncidentImpl) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus, actor models.Actor, notes string) (*models.Incident, error) {
	return ii.sos.updateStatus(ctx, id, status, actor, notes)
}

func (ii *IIncidentImpl) AddResponder(ctx context.Context, id, userID string, typ models.ResponderType, eta *int) (*models.Responder, error) {
	return ii.sos.addResponder(ctx, id, userID, typ, eta)
}

func (ii *IIncidentImpl) Respond(ctx context.Context, id, userID string, accept bool) (*models.Responder, error) {
	return ii.sos.respond(ctx, id, userID, accept)
}

func (ii *IIncidentImpl) UpdateLocation(ctx context.Context, id string, p geo.Point, accuracy float64) error {
	return ii.sos.updateLocation(ctx, id, p, accuracy)
}

func (ii *IIncidentImpl) CalculateMetrics(ctx context.Context, id string) (models.IncidentMetrics, error) {
	return ii.sos.calculateMetrics(ctx, id)
}

func (ii *IIncidentImpl) RecordResponse(ctx context.Context, in models.ResponseInput) (models.NotificationOutcome, error) {
	return ii.sos.recordResponse(ctx, in)
}

func (s *SOS) GetIIncident() IIncident {
	return &IIncidentImpl{sos: s}
}

func durationSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
