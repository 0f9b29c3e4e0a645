package sos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/gateway"
	"liyu1981.xyz/sos-response-service/pkg/models"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"
)

func lowIncident(t *testing.T, s *SOS, userID string) *models.Incident {
	t.Helper()
	in := manualTrigger(userID)
	in.Type = models.IncidentTypeNoMotion
	in.Priority = models.PriorityMedium
	inc, err := s.Incident.Create(context.Background(), in)
	require.NoError(t, err)
	return inc
}

func TestDispatch_EveryContactEveryChannel(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{SMS: m.SMS, Email: m.Email})

	userID := uuid.NewString()
	channels := []models.Channel{models.ChannelSMS, models.ChannelEmail}
	var contacts []models.Contact
	for _, p := range []int{3, 1, 2} {
		contacts = append(contacts, seedContact(t, s, models.Contact{
			UserID:   userID,
			Priority: p,
			Email:    uuid.NewString() + "@example.com",
			Channels: channels,
		}))
	}
	inc := lowIncident(t, s, userID)

	m.SMS.EXPECT().SendSMS(gomock.Any(), gomock.Any(), gomock.Any()).Return("SM-ok", nil).Times(3)
	m.Email.EXPECT().SendEmail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("EM-ok", nil).Times(3)

	result, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 6)
	assert.Equal(t, 6, result.Succeeded())
	assert.Nil(t, result.EmergencyServices)

	// contact priority order, then channel order within a contact
	wantContacts := []string{contacts[1].ID, contacts[1].ID, contacts[2].ID, contacts[2].ID, contacts[0].ID, contacts[0].ID}
	for i, a := range result.Attempts {
		assert.Equal(t, wantContacts[i], a.ContactID, "attempt %d", i)
		assert.Equal(t, channels[i%2], a.Channel, "attempt %d", i)
		assert.Equal(t, 1, a.Attempts)
	}

	view, err := s.Incident.Get(ctx, inc.ID)
	require.NoError(t, err)
	assert.Len(t, view.Incident.Notifications, 6)
	assert.Equal(t, 3, view.Metrics.ContactsNotified)
	assert.Contains(t, timelineActions(view), models.ActionNotificationsDispatched)
}

func TestDispatch_RetriesWithBackoff(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, sleeper := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{SMS: m.SMS})

	userID := uuid.NewString()
	contact := seedContact(t, s, models.Contact{UserID: userID, Priority: 1})
	inc := lowIncident(t, s, userID)

	m.SMS.EXPECT().SendSMS(gomock.Any(), contact.Phone, gomock.Any()).Return("", errors.New("gateway timeout")).Times(2)
	m.SMS.EXPECT().SendSMS(gomock.Any(), contact.Phone, gomock.Any()).Return("SM-3", nil).Times(1)

	result, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 1)

	a := result.Attempts[0]
	assert.True(t, a.Success)
	assert.Equal(t, 3, a.Attempts)
	assert.Equal(t, "SM-3", a.MessageID)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.Waits())
}

func TestDispatch_FailuresDoNotStopOthers(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{SMS: m.SMS, Email: m.Email, Push: m.Push})

	userID := uuid.NewString()
	failing := seedContact(t, s, models.Contact{UserID: userID, Priority: 1})
	noEmail := seedContact(t, s, models.Contact{UserID: userID, Priority: 2, Channels: []models.Channel{models.ChannelEmail, models.ChannelPush}})
	healthy := seedContact(t, s, models.Contact{UserID: userID, Priority: 3})
	inc := lowIncident(t, s, userID)

	m.SMS.EXPECT().SendSMS(gomock.Any(), failing.Phone, gomock.Any()).Return("", errors.New("unreachable")).Times(3)
	m.SMS.EXPECT().SendSMS(gomock.Any(), healthy.Phone, gomock.Any()).Return("SM-ok", nil).Times(1)

	result, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 4)
	assert.Equal(t, 1, result.Succeeded())

	assert.Equal(t, failing.ID, result.Attempts[0].ContactID)
	assert.False(t, result.Attempts[0].Success)
	assert.Equal(t, 3, result.Attempts[0].Attempts)
	assert.Contains(t, result.Attempts[0].Error, "unreachable")

	assert.Equal(t, noEmail.ID, result.Attempts[1].ContactID)
	assert.Equal(t, models.ChannelEmail, result.Attempts[1].Channel)
	assert.Equal(t, "no email on file", result.Attempts[1].Error)
	assert.Equal(t, 0, result.Attempts[1].Attempts)

	assert.Equal(t, models.ChannelPush, result.Attempts[2].Channel)
	assert.Equal(t, "no device tokens", result.Attempts[2].Error)

	assert.Equal(t, healthy.ID, result.Attempts[3].ContactID)
	assert.True(t, result.Attempts[3].Success)
}

func TestDispatch_PushToLinkedUser(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{Push: m.Push})

	linked := seedUser(t, s, models.User{Name: "Ben", PushTokens: []string{"tok-a", "tok-b"}})
	userID := uuid.NewString()
	seedContact(t, s, models.Contact{
		UserID:       userID,
		Priority:     1,
		Channels:     []models.Channel{models.ChannelPush},
		LinkedUserID: &linked.ID,
	})
	inc := lowIncident(t, s, userID)

	m.Push.EXPECT().
		SendPush(gomock.Any(), []string{"tok-a", "tok-b"}, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []string, _, _ string, data map[string]string) (gateway.PushResult, error) {
			assert.Equal(t, inc.ID, data["incidentId"])
			return gateway.PushResult{SuccessCount: 1, FailureCount: 1}, nil
		}).Times(1)

	result, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, result.Attempts, 1)
	assert.True(t, result.Attempts[0].Success)
	assert.Equal(t, "1/2", result.Attempts[0].MessageID)
}

func TestDispatch_CallChannelHonoursDialGuard(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{Voice: m.Voice})

	userID := uuid.NewString()
	contact := seedContact(t, s, models.Contact{UserID: userID, Priority: 1, Channels: []models.Channel{models.ChannelCall}})
	inc := lowIncident(t, s, userID)

	m.Voice.EXPECT().Configured().Return(true).AnyTimes()
	m.Voice.EXPECT().PlaceCall(gomock.Any(), gomock.Any()).Return("CA-1", nil).Times(1)

	first, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, first.Attempts, 1)
	assert.True(t, first.Attempts[0].Success)
	assert.True(t, s.DialGuard.Recently(inc.ID, contact.Phone))

	second, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, second.Attempts, 1)
	assert.False(t, second.Attempts[0].Success)
	assert.Equal(t, "recently dialed", second.Attempts[0].Error)
}

func TestDispatch_FailedCallReleasesDialGuard(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, m, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()
	s.WithGateways(Gateways{Voice: m.Voice})

	userID := uuid.NewString()
	contact := seedContact(t, s, models.Contact{UserID: userID, Priority: 1, Channels: []models.Channel{models.ChannelCall}})
	inc := lowIncident(t, s, userID)

	m.Voice.EXPECT().Configured().Return(true).AnyTimes()
	m.Voice.EXPECT().PlaceCall(gomock.Any(), gomock.Any()).Return("", errors.New("carrier busy")).MinTimes(2)

	first, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, first.Attempts, 1)
	assert.False(t, first.Attempts[0].Success)
	assert.False(t, s.DialGuard.Recently(inc.ID, contact.Phone))

	second, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, second.Attempts, 1)
	assert.False(t, second.Attempts[0].Success)
	assert.NotEqual(t, "recently dialed", second.Attempts[0].Error)
}

func TestDispatch_EmergencyServices(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	in := manualTrigger(uuid.NewString())
	in.Type = models.IncidentTypeFallDetection
	inc, err := s.Incident.Create(ctx, in)
	require.NoError(t, err)

	result, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Attempts)
	require.NotNil(t, result.EmergencyServices)
	assert.Regexp(t, `^PD-2024-[0-9A-F]{8}$`, result.EmergencyServices.PoliceCaseID)
	assert.Regexp(t, `^MD-2024-[0-9A-F]{8}$`, result.EmergencyServices.MedicalCaseID)

	// a second dispatch keeps the first case numbers
	again, err := s.Cascade.Dispatch(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, result.EmergencyServices.PoliceCaseID, again.EmergencyServices.PoliceCaseID)

	view, err := s.Incident.Get(ctx, inc.ID)
	require.NoError(t, err)
	notified := common.Filter(timelineActions(view), func(a string) bool { return a == models.ActionEmergencyServicesNotified })
	assert.Len(t, notified, 1)
}

func TestWithRetry(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	_, attempts, err := WithRetry(context.Background(), 3, ExponentialBackoff, sleeper.Sleep,
		func(ctx context.Context, attempt int) (string, error) {
			calls++
			return "", errors.New("down")
		})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.Waits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, attempts, err = WithRetry(ctx, 5, ExponentialBackoff, sleeper.Sleep,
		func(ctx context.Context, attempt int) (int, error) {
			return 0, errors.New("down")
		})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDialGuard(t *testing.T) {
	g := NewDialGuard(time.Minute)
	assert.False(t, g.Recently("inc", "+1"))
	assert.True(t, g.TryMark("inc", "+1"))
	assert.False(t, g.TryMark("inc", "+1"))
	assert.True(t, g.TryMark("other", "+1"))
	assert.True(t, g.Recently("inc", "+1"))
	g.Forget("inc", "+1")
	assert.False(t, g.Recently("inc", "+1"))
}
