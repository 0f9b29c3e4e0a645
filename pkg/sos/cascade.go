package sos

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

// cascadeTarget is everything a channel send needs, loaded before the fan-out starts.
type cascadeTarget struct {
	contact    models.Contact
	pushTokens []string
}

type message struct {
	subject string
	body    string
	html    string
	data    map[string]string
}

func buildMessage(inc *models.Incident, callerName string) message {
	who := callerName
	if who == "" {
		who = "Your contact"
	}
	mapURL := fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", inc.CurrentLat, inc.CurrentLng)
	body := fmt.Sprintf("EMERGENCY: %s triggered a %s alert (%s priority). Location: %s Reply 1 if you can help, 2 if you cannot.",
		who, inc.Type, inc.Priority, mapURL)
	html := fmt.Sprintf("<h2>Emergency alert</h2><p>%s triggered a <b>%s</b> alert with %s priority.</p>"+
		"<p><a href=\"%s\">Last known location</a></p><p>Incident reference: %s</p>",
		who, inc.Type, inc.Priority, mapURL, inc.ID)
	return message{
		subject: fmt.Sprintf("Emergency alert from %s", who),
		body:    body,
		html:    html,
		data: map[string]string{
			"incidentId": inc.ID,
			"type":       string(inc.Type),
			"priority":   string(inc.Priority),
		},
	}
}

func (s *SOS) maxAttempts() int {
	if s.Config.Cascade.MaxAttempts > 0 {
		return s.Config.Cascade.MaxAttempts
	}
	return 3
}

func failedAttempt(inc *models.Incident, c models.Contact, ch models.Channel, target, reason string) models.NotificationAttempt {
	return models.NotificationAttempt{
		IncidentID:  inc.ID,
		ContactID:   c.ID,
		ContactName: c.Name,
		Channel:     ch,
		Target:      target,
		Error:       reason,
	}
}

// sendOnChannel makes the retried delivery for one (contact, channel) pair and always returns a
// record. Missing prerequisites fail immediately with zero attempts.
func (s *SOS) sendOnChannel(ctx context.Context, inc *models.Incident, callerName string, t cascadeTarget, ch models.Channel, msg message) models.NotificationAttempt {
	c := t.contact
	retry := func(target string, op func(ctx context.Context) (string, error)) models.NotificationAttempt {
		id, attempts, err := WithRetry(ctx, s.maxAttempts(), ExponentialBackoff, s.sleep,
			func(ctx context.Context, attempt int) (string, error) {
				return op(ctx)
			})
		rec := models.NotificationAttempt{
			IncidentID:  inc.ID,
			ContactID:   c.ID,
			ContactName: c.Name,
			Channel:     ch,
			Target:      target,
			Success:     err == nil,
			Attempts:    attempts,
			MessageID:   id,
		}
		if err != nil {
			rec.Error = err.Error()
		}
		return rec
	}

	switch ch {
	case models.ChannelSMS:
		if s.Gateways.SMS == nil {
			return failedAttempt(inc, c, ch, c.Phone, "sms gateway not configured")
		}
		return retry(c.Phone, func(ctx context.Context) (string, error) {
			id, err := s.Gateways.SMS.SendSMS(ctx, c.Phone, msg.body)
			if err != nil {
				return "", errs.TransientChannel(err, "sms to %s failed", c.Phone)
			}
			return id, nil
		})

	case models.ChannelCall:
		if !s.Gateways.voiceReady() {
			return failedAttempt(inc, c, ch, c.Phone, "voice gateway not configured")
		}
		if !s.DialGuard.TryMark(inc.ID, c.Phone) {
			return failedAttempt(inc, c, ch, c.Phone, "recently dialed")
		}
		call, err := s.newCallRecord(ctx, inc, c, 0)
		if err != nil {
			s.DialGuard.Forget(inc.ID, c.Phone)
			return failedAttempt(inc, c, ch, c.Phone, err.Error())
		}
		rec := retry(c.Phone, func(ctx context.Context) (string, error) {
			return s.ringCall(ctx, inc, callerName, call)
		})
		var callErr error
		if !rec.Success {
			callErr = errors.New(rec.Error)
			// nobody was rung, leave the phone to the escalation dialer
			s.DialGuard.Forget(inc.ID, c.Phone)
		}
		s.settleCall(ctx, call, rec.MessageID, callErr)
		return rec

	case models.ChannelEmail:
		if c.Email == "" {
			return failedAttempt(inc, c, ch, "", "no email on file")
		}
		if s.Gateways.Email == nil {
			return failedAttempt(inc, c, ch, c.Email, "email sender not configured")
		}
		return retry(c.Email, func(ctx context.Context) (string, error) {
			id, err := s.Gateways.Email.SendEmail(ctx, c.Email, msg.subject, msg.html)
			if err != nil {
				return "", errs.TransientChannel(err, "email to %s failed", c.Email)
			}
			return id, nil
		})

	case models.ChannelPush:
		if len(t.pushTokens) == 0 {
			return failedAttempt(inc, c, ch, "", "no device tokens")
		}
		if s.Gateways.Push == nil {
			return failedAttempt(inc, c, ch, "", "push sender not configured")
		}
		target := fmt.Sprintf("%d tokens", len(t.pushTokens))
		return retry(target, func(ctx context.Context) (string, error) {
			res, err := s.Gateways.Push.SendPush(ctx, t.pushTokens, msg.subject, msg.body, msg.data)
			if err != nil {
				return "", errs.TransientChannel(err, "push failed")
			}
			if res.SuccessCount == 0 {
				return "", errs.TransientChannel(nil, "push delivered to 0 of %d tokens", res.FailureCount)
			}
			return fmt.Sprintf("%d/%d", res.SuccessCount, res.SuccessCount+res.FailureCount), nil
		})
	}
	return failedAttempt(inc, c, ch, "", fmt.Sprintf("unknown channel %q", ch))
}

// appendAttempt is the single writer for an incident's notification list.
func (s *SOS) appendAttempt(ctx context.Context, rec *models.NotificationAttempt) error {
	unlock := s.locks.lock(rec.IncidentID)
	defer unlock()
	rec.SentAt = s.now()
	return s.Db.Conn.WithContext(ctx).Create(rec).Error
}

func (s *SOS) loadCascadeTargets(ctx context.Context, userID string) ([]cascadeTarget, error) {
	contacts, err := s.Contact.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].Priority < contacts[j].Priority })
	if limit := s.Config.Cascade.MaxContacts; limit > 0 && len(contacts) > limit {
		contacts = contacts[:limit]
	}

	targets := make([]cascadeTarget, len(contacts))
	for i, c := range contacts {
		targets[i].contact = c
		if c.LinkedUserID == nil || !c.HasChannel(models.ChannelPush) {
			continue
		}
		var linked []models.User
		if err := s.Db.Conn.WithContext(ctx).Where("id = ?", *c.LinkedUserID).Limit(1).Find(&linked).Error; err != nil {
			return nil, err
		}
		if len(linked) > 0 {
			targets[i].pushTokens = linked[0].PushTokens
		}
	}
	return targets, nil
}

// dispatch reaches every enabled channel of every selected contact. Contacts run in parallel up
// to the configured concurrency; channels of one contact run in order. A failing pair never
// stops the rest.
func (s *SOS) dispatch(ctx context.Context, incidentID string) (*models.CascadeResult, error) {
	logger := common.CategoryLogger(common.LoggerCategorySOSCascade)

	var inc models.Incident
	if err := s.Db.Conn.WithContext(ctx).First(&inc, "id = ?", incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("incident %s not found", incidentID)
		}
		return nil, err
	}

	targets, err := s.loadCascadeTargets(ctx, inc.UserID)
	if err != nil {
		return nil, err
	}
	callerName := s.ownerName(ctx, inc.UserID)
	msg := buildMessage(&inc, callerName)

	logger.Info("Cascade started", zap.String("incident_id", incidentID), zap.Int("contacts", len(targets)))

	perContact := make([][]models.NotificationAttempt, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	concurrency := s.Config.Cascade.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			for _, ch := range models.ChannelOrder {
				if !t.contact.HasChannel(ch) {
					continue
				}
				rec := s.sendOnChannel(gctx, &inc, callerName, t, ch, msg)
				if err := s.appendAttempt(gctx, &rec); err != nil {
					logger.Error("Could not store notification attempt",
						zap.String("incident_id", incidentID),
						zap.String("contact_id", t.contact.ID),
						zap.Error(err))
				}
				notificationAttempts.WithLabelValues(string(ch), outcomeLabel(rec.Success)).Inc()
				if !rec.Success {
					logger.Warn("Notification attempt failed",
						zap.String("incident_id", incidentID),
						zap.String("contact_id", t.contact.ID),
						zap.String("channel", string(ch)),
						zap.Int("attempts", rec.Attempts),
						zap.String("error", rec.Error),
					)
				}
				perContact[i] = append(perContact[i], rec)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &models.CascadeResult{IncidentID: incidentID}
	for _, recs := range perContact {
		result.Attempts = append(result.Attempts, recs...)
	}

	err = s.withIncident(ctx, incidentID, func(tx *gorm.DB, _ *models.Incident) error {
		_, err := s.appendTimeline(tx, incidentID, models.ActionNotificationsDispatched, models.SystemActor.ID,
			map[string]any{"attempted": len(result.Attempts), "succeeded": result.Succeeded(), "contacts": len(targets)})
		return err
	})
	if err != nil {
		return result, err
	}

	if needsEmergencyServices(&inc) {
		services, err := s.notifyEmergencyServices(ctx, incidentID)
		if err != nil {
			logger.Error("Emergency services notification failed", zap.String("incident_id", incidentID), zap.Error(err))
		} else {
			result.EmergencyServices = services
		}
	}

	logger.Info("Cascade finished",
		zap.String("incident_id", incidentID),
		zap.Int("attempted", len(result.Attempts)),
		zap.Int("succeeded", result.Succeeded()),
	)
	s.publish(ctx, EventIncidentNotification, result, IncidentTopic(incidentID), UserTopic(inc.UserID))
	return result, nil
}

type ICascadeImpl struct {
	sos *SOS
}

func (ic *ICascadeImpl) Dispatch(ctx context.Context, incidentID string) (*models.CascadeResult, error) {
	return ic.sos.dispatch(ctx, incidentID)
}

func (s *SOS) GetICascade() ICascade {
	return &ICascadeImpl{sos: s}
}
