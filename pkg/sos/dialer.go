package sos

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/gateway"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

const (
	defaultCallCap        = 3
	defaultInterCallDelay = 2 * time.Second
	defaultRingTimeout    = 30 * time.Second

	GatherCallbackPath = "/voice/gather"
	StatusCallbackPath = "/voice/status"
)

// OrderForDialing sorts by priority level (high first), then relationship rank. Ties keep their
// input order.
func OrderForDialing(contacts []models.Contact) []models.Contact {
	ordered := make([]models.Contact, len(contacts))
	copy(ordered, contacts)
	sort.SliceStable(ordered, func(i, j int) bool {
		li, lj := models.LevelRank(ordered[i].Level()), models.LevelRank(ordered[j].Level())
		if li != lj {
			return li < lj
		}
		return models.RelationshipRank(ordered[i].Relationship) < models.RelationshipRank(ordered[j].Relationship)
	})
	return ordered
}

func (s *SOS) dialerSettings() (callCap int, delay, ring time.Duration) {
	callCap, delay, ring = s.Config.Dialer.CallCap, s.Config.Dialer.InterCallDelay, s.Config.Dialer.RingTimeout
	if callCap <= 0 {
		callCap = defaultCallCap
	}
	if delay < 0 {
		delay = defaultInterCallDelay
	}
	if ring <= 0 {
		ring = defaultRingTimeout
	}
	return callCap, delay, ring
}

func (s *SOS) ownerName(ctx context.Context, userID string) string {
	var users []models.User
	if err := s.Db.Conn.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&users).Error; err != nil || len(users) == 0 {
		return ""
	}
	return users[0].Name
}

func (s *SOS) newCallRecord(ctx context.Context, inc *models.Incident, c models.Contact, seq int) (*models.EscalationCall, error) {
	unlock := s.locks.lock(inc.ID)
	defer unlock()

	call := &models.EscalationCall{
		ID:           uuid.NewString(),
		IncidentID:   inc.ID,
		ContactID:    c.ID,
		ContactName:  c.Name,
		Phone:        c.Phone,
		Level:        c.Level(),
		Relationship: c.Relationship,
		Sequence:     seq,
		Status:       models.CallStatusQueued,
		CreatedAt:    s.now(),
	}
	if err := s.Db.Conn.WithContext(ctx).Create(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

// ringCall asks the voice gateway to ring the call's phone with the emergency script.
func (s *SOS) ringCall(ctx context.Context, inc *models.Incident, callerName string, call *models.EscalationCall) (string, error) {
	_, _, ring := s.dialerSettings()
	base := s.Config.Twilio.CallbackBaseURL
	token := s.CallbackToken(call.ID)

	script, err := EmergencyCallScript(CallContext{
		CallerName:  callerName,
		ContactName: call.ContactName,
		Incident:    inc,
	}, callbackURL(base, GatherCallbackPath, call.ID, token))
	if err != nil {
		return "", err
	}
	sid, err := s.Gateways.Voice.PlaceCall(ctx, gateway.CallRequest{
		To:             call.Phone,
		TwiML:          script,
		Timeout:        ring,
		Record:         true,
		StatusCallback: callbackURL(base, StatusCallbackPath, call.ID, token),
	})
	if err != nil {
		return "", errs.TransientChannel(err, "call to %s failed", call.Phone)
	}
	return sid, nil
}

func (s *SOS) settleCall(ctx context.Context, call *models.EscalationCall, sid string, callErr error) {
	unlock := s.locks.lock(call.IncidentID)
	defer unlock()

	updates := map[string]any{"updated_at": s.now()}
	if callErr != nil {
		call.Status = models.CallStatusFailed
		call.Error = callErr.Error()
		updates["error"] = call.Error
	} else {
		call.Status = models.CallStatusInitiated
		call.GatewaySID = sid
		updates["gateway_sid"] = sid
	}
	updates["status"] = call.Status
	if err := s.Db.Conn.WithContext(ctx).Model(&models.EscalationCall{}).Where("id = ?", call.ID).Updates(updates).Error; err != nil {
		common.CategoryLogger(common.LoggerCategorySOSDialer).Error("Could not store call result",
			zap.String("call_id", call.ID), zap.Error(err))
	}
	escalationCalls.WithLabelValues(string(call.Status)).Inc()
}

func (s *SOS) placeEscalationCalls(ctx context.Context, incidentID string, contacts []models.Contact) ([]models.EscalationCall, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSDialer)

	if !s.Gateways.voiceReady() {
		return nil, errs.Configuration("voice gateway is not configured").WithContext("incident_id", incidentID)
	}

	var inc models.Incident
	if err := s.Db.Conn.WithContext(ctx).First(&inc, "id = ?", incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("incident %s not found", incidentID)
		}
		return nil, err
	}

	callCap, delay, _ := s.dialerSettings()
	var selected []models.Contact
	for _, c := range OrderForDialing(contacts) {
		if c.Phone == "" {
			continue
		}
		if s.DialGuard.Recently(incidentID, c.Phone) {
			logger.Info("Skipping recently dialed contact",
				zap.String("incident_id", incidentID), zap.String("contact_id", c.ID))
			continue
		}
		selected = append(selected, c)
		if len(selected) == callCap {
			break
		}
	}

	callerName := s.ownerName(ctx, inc.UserID)
	calls := make([]models.EscalationCall, 0, len(selected))
	for i, c := range selected {
		if i > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				logger.Warn("Escalation calls interrupted", zap.String("incident_id", incidentID), zap.Error(err))
				break
			}
		}
		if !s.DialGuard.TryMark(incidentID, c.Phone) {
			continue
		}

		call, err := s.newCallRecord(ctx, &inc, c, i+1)
		if err != nil {
			logger.Error("Could not create call record", zap.String("contact_id", c.ID), zap.Error(err))
			continue
		}
		sid, err := s.ringCall(ctx, &inc, callerName, call)
		s.settleCall(ctx, call, sid, err)
		if err != nil {
			logger.Warn("Escalation call failed",
				zap.String("incident_id", incidentID),
				zap.String("contact_id", c.ID),
				zap.Int("sequence", call.Sequence),
				zap.Error(err),
			)
		} else {
			logger.Info("Escalation call placed",
				zap.String("incident_id", incidentID),
				zap.String("contact_id", c.ID),
				zap.Int("sequence", call.Sequence),
				zap.String("sid", sid),
			)
		}
		calls = append(calls, *call)
		s.publish(ctx, EventCallStatus, call, IncidentTopic(incidentID))
	}

	placed := 0
	for _, call := range calls {
		if call.Status != models.CallStatusFailed {
			placed++
		}
	}
	err := s.withIncident(ctx, incidentID, func(tx *gorm.DB, _ *models.Incident) error {
		_, err := s.appendTimeline(tx, incidentID, models.ActionEscalationCallsPlaced, models.SystemActor.ID,
			map[string]any{"attempted": len(calls), "placed": placed})
		return err
	})
	if err != nil {
		return calls, err
	}
	return calls, nil
}

func (s *SOS) findCall(ctx context.Context, callID string) (*models.EscalationCall, error) {
	var call models.EscalationCall
	err := s.Db.Conn.WithContext(ctx).Where("id = ? OR gateway_sid = ?", callID, callID).First(&call).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("call %s not found", callID)
	}
	return &call, err
}

// handleStatus applies a gateway status callback. A call that already ended keeps its final status.
func (s *SOS) handleStatus(ctx context.Context, callID string, status models.CallStatus) (*models.EscalationCall, error) {
	if !models.ValidCallStatus(string(status)) {
		return nil, errs.Validation("unknown call status %q", status)
	}
	call, err := s.findCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.Status.Final() {
		return call, nil
	}

	now := s.now()
	updates := map[string]any{"status": status, "updated_at": now}
	if status == models.CallStatusInProgress && call.AnsweredAt == nil {
		updates["answered_at"] = now
		call.AnsweredAt = &now
	}
	if status.Final() {
		updates["ended_at"] = now
		call.EndedAt = &now
	}

	unlock := s.locks.lock(call.IncidentID)
	err = s.Db.Conn.WithContext(ctx).Model(&models.EscalationCall{}).Where("id = ?", call.ID).Updates(updates).Error
	unlock()
	if err != nil {
		return nil, err
	}
	call.Status = status
	escalationCalls.WithLabelValues(string(status)).Inc()
	s.publish(ctx, EventCallStatus, call, IncidentTopic(call.IncidentID))
	return call, nil
}

// handleDigit records the keypad answer on the call and as a contact response on the incident.
func (s *SOS) handleDigit(ctx context.Context, callID, digit string) (models.ResponseKind, error) {
	call, err := s.findCall(ctx, callID)
	if err != nil {
		return "", err
	}
	kind := models.DigitResponse(digit)

	unlock := s.locks.lock(call.IncidentID)
	err = s.Db.Conn.WithContext(ctx).Create(&models.CallResponse{
		CallID:     call.ID,
		IncidentID: call.IncidentID,
		Phone:      call.Phone,
		Digit:      digit,
		Kind:       kind,
		ReceivedAt: s.now(),
	}).Error
	unlock()
	if err != nil {
		return "", err
	}

	common.CategoryLogger(common.LoggerCategorySOSDialer).Info("Call response captured",
		zap.String("call_id", call.ID),
		zap.String("incident_id", call.IncidentID),
		zap.String("kind", string(kind)),
	)

	if _, err := s.Incident.RecordResponse(ctx, models.ResponseInput{
		IncidentID: call.IncidentID,
		ContactID:  call.ContactID,
		Phone:      call.Phone,
		Channel:    models.ChannelCall,
		Kind:       kind,
		Message:    "keypad " + digit,
	}); err != nil {
		return kind, err
	}
	return kind, nil
}

func (s *SOS) endCall(ctx context.Context, callID string) (*models.EscalationCall, error) {
	call, err := s.findCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.Status.Final() {
		return call, nil
	}
	if call.GatewaySID != "" {
		if !s.Gateways.voiceReady() {
			return nil, errs.Configuration("voice gateway is not configured")
		}
		if err := s.Gateways.Voice.HangUp(ctx, call.GatewaySID); err != nil {
			return nil, errs.TransientChannel(err, "hang up %s failed", call.GatewaySID)
		}
	}
	return s.handleStatus(ctx, call.ID, models.CallStatusCompleted)
}

type IDialerImpl struct {
	sos *SOS
}

func (id *IDialerImpl) PlaceEscalationCalls(ctx context.Context, incidentID string, contacts []models.Contact) ([]models.EscalationCall, error) {
	return id.sos.placeEscalationCalls(ctx, incidentID, contacts)
}

func (id *IDialerImpl) HandleStatus(ctx context.Context, callID string, status models.CallStatus) (*models.EscalationCall, error) {
	return id.sos.handleStatus(ctx, callID, status)
}

func (id *IDialerImpl) HandleDigit(ctx context.Context, callID, digit string) (models.ResponseKind, error) {
	return id.sos.handleDigit(ctx, callID, digit)
}

func (id *IDialerImpl) EndCall(ctx context.Context, callID string) (*models.EscalationCall, error) {
	return id.sos.endCall(ctx, callID)
}

func (s *SOS) GetIDialer() IDialer {
	return &IDialerImpl{sos: s}
}
