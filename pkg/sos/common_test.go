package sos

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/db"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos/mocks"
)

type useMocks struct {
	Incident bool
	Cascade  bool
	Matcher  bool
	Dialer   bool
}

type sosMocks struct {
	Incident *mocks.MockIIncident
	Cascade  *mocks.MockICascade
	Matcher  *mocks.MockIMatcher
	Dialer   *mocks.MockIDialer
	SMS      *mocks.MockSMSSender
	Voice    *mocks.MockVoiceGateway
	Email    *mocks.MockEmailSender
	Push     *mocks.MockPushSender
}

func testConfig() *common.Config {
	return &common.Config{
		DefaultRate:  0,
		DefaultBurst: 1,
		Incident:     common.IncidentConfig{CancelWindow: 120 * time.Second},
		Matcher:      common.MatcherConfig{RadiusMeters: 5000, Limit: 10},
		Cascade:      common.CascadeConfig{MaxAttempts: 3, Concurrency: 4},
		Dialer: common.DialerConfig{
			CallCap:        3,
			InterCallDelay: 2 * time.Second,
			RingTimeout:    30 * time.Second,
			GuardWindow:    5 * time.Minute,
		},
		Jobs: common.JobsConfig{
			EscalateAfter: 5 * time.Minute,
			ArchiveAfter:  30 * 24 * time.Hour,
		},
		Twilio: common.TwilioConfig{CallbackBaseURL: "https://sos.example.com", CallbackSecret: "callback-s3cret"},
	}
}

// GetMockSOSWithMemorySqliteDialector builds a core on the shared in-memory store with a fake
// clock and a recording sleeper. Gateways are left unset; tests attach the mocks they need.
func GetMockSOSWithMemorySqliteDialector(t *testing.T, use useMocks) (*gomock.Controller, *SOS, *sosMocks, *fakeClock, *recordingSleeper) {
	ctrl := gomock.NewController(t)

	m := &sosMocks{
		Incident: mocks.NewMockIIncident(ctrl),
		Cascade:  mocks.NewMockICascade(ctrl),
		Matcher:  mocks.NewMockIMatcher(ctrl),
		Dialer:   mocks.NewMockIDialer(ctrl),
		SMS:      mocks.NewMockSMSSender(ctrl),
		Voice:    mocks.NewMockVoiceGateway(ctrl),
		Email:    mocks.NewMockEmailSender(ctrl),
		Push:     mocks.NewMockPushSender(ctrl),
	}

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector())
	s := New(*dbInstance, testConfig())

	clock := newFakeClock(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	sleeper := &recordingSleeper{}
	s.Clock = clock.Now
	s.Sleeper = sleeper.Sleep

	opts := ServiceOpts{}
	if use.Incident {
		opts.Incident = m.Incident
	}
	if use.Cascade {
		opts.Cascade = m.Cascade
	}
	if use.Matcher {
		opts.Matcher = m.Matcher
	}
	if use.Dialer {
		opts.Dialer = m.Dialer
	}
	s.WithServices(opts)

	return ctrl, s, m, clock, sleeper
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func (r *recordingSleeper) Waits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.waits))
	copy(out, r.waits)
	return out
}

var spotCounter atomic.Int64

// uniqueSpot hands out locations roughly 55 km apart so tests sharing the store do not see each
// other's volunteers or geofences.
func uniqueSpot() geo.Point {
	n := spotCounter.Add(1)
	return geo.Point{Lat: -60 + float64(n%200)*0.5, Lng: 10 + float64(n/200)*0.5}
}

// offsetNorth moves p by meters along its meridian.
func offsetNorth(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/111194.93, Lng: p.Lng}
}

func square(center geo.Point, halfDeg float64) []geo.Point {
	return []geo.Point{
		{Lat: center.Lat - halfDeg, Lng: center.Lng - halfDeg},
		{Lat: center.Lat - halfDeg, Lng: center.Lng + halfDeg},
		{Lat: center.Lat + halfDeg, Lng: center.Lng + halfDeg},
		{Lat: center.Lat + halfDeg, Lng: center.Lng - halfDeg},
		{Lat: center.Lat - halfDeg, Lng: center.Lng - halfDeg},
	}
}

func uniquePhone() string {
	return "+1555" + uuid.NewString()[:8]
}

func seedUser(t *testing.T, s *SOS, u models.User) models.User {
	t.Helper()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	require.NoError(t, s.Db.Conn.Create(&u).Error)
	return u
}

func seedContact(t *testing.T, s *SOS, c models.Contact) models.Contact {
	t.Helper()
	if c.Phone == "" {
		c.Phone = uniquePhone()
	}
	if c.Name == "" {
		c.Name = "Contact " + c.Phone
	}
	require.NoError(t, s.Contact.Create(context.Background(), &c))
	return c
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

func timelineActions(view *models.IncidentView) []string {
	return common.Mapper(view.Incident.Timeline, func(e models.TimelineEntry) string { return e.Action })
}
