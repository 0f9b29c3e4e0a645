package sos

import (
	"context"
	"sync"
	"time"

	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/db"
	"liyu1981.xyz/sos-response-service/pkg/geo"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_sos.go -package=mocks liyu1981.xyz/sos-response-service/pkg/sos IIncident,IGeofence,IContact,ICascade,IMatcher,IDialer,Broadcaster
//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks liyu1981.xyz/sos-response-service/pkg/gateway SMSSender,VoiceGateway,EmailSender,PushSender

type IIncident interface {
	Create(ctx context.Context, in models.TriggerInput) (*models.Incident, error)
	Get(ctx context.Context, id string) (*models.IncidentView, error)
	ListForUser(ctx context.Context, userID string, includeArchived bool) ([]models.Incident, error)
	UpdateStatus(ctx context.Context, id string, status models.IncidentStatus, actor models.Actor, notes string) (*models.Incident, error)
	AddResponder(ctx context.Context, id, userID string, typ models.ResponderType, eta *int) (*models.Responder, error)
	Respond(ctx context.Context, id, userID string, accept bool) (*models.Responder, error)
	UpdateLocation(ctx context.Context, id string, p geo.Point, accuracy float64) error
	CalculateMetrics(ctx context.Context, id string) (models.IncidentMetrics, error)
	RecordResponse(ctx context.Context, in models.ResponseInput) (models.NotificationOutcome, error)
}

type IGeofence interface {
	Create(ctx context.Context, g *models.Geofence) error
	Update(ctx context.Context, g *models.Geofence) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, id string) (*models.Geofence, error)
	List(ctx context.Context, userID string) ([]models.Geofence, error)
	Evaluate(ctx context.Context, userID string, p geo.Point) ([]models.GeofenceTrigger, error)
}

type IContact interface {
	Create(ctx context.Context, c *models.Contact) error
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, userID string) ([]models.Contact, error)
}

type ICascade interface {
	Dispatch(ctx context.Context, incidentID string) (*models.CascadeResult, error)
}

type IMatcher interface {
	FindNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]models.Match, error)
	MatchIncident(ctx context.Context, incidentID string) ([]models.Match, error)
}

type IDialer interface {
	PlaceEscalationCalls(ctx context.Context, incidentID string, contacts []models.Contact) ([]models.EscalationCall, error)
	HandleStatus(ctx context.Context, callID string, status models.CallStatus) (*models.EscalationCall, error)
	HandleDigit(ctx context.Context, callID, digit string) (models.ResponseKind, error)
	EndCall(ctx context.Context, callID string) (*models.EscalationCall, error)
}

// Clock returns the current time. Tests replace it to pin timestamps.
type Clock func() time.Time

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type SOS struct {
	Db     db.DB
	Config *common.Config

	Incident IIncident
	Geofence IGeofence
	Contact  IContact
	Cascade  ICascade
	Matcher  IMatcher
	Dialer   IDialer

	Gateways    Gateways
	Broadcaster Broadcaster
	Containment ContainmentStore
	DialGuard   *DialGuard
	Limiters    *RateLimiterStore

	Clock   Clock
	Sleeper Sleeper

	locks keyedLocks
	bg    sync.WaitGroup
}

type ServiceOpts struct {
	Incident IIncident
	Geofence IGeofence
	Contact  IContact
	Cascade  ICascade
	Matcher  IMatcher
	Dialer   IDialer
}

// New builds an SOS core with the default service implementations, no gateways and a no-op
// broadcaster.
func New(dbInstance db.DB, cfg *common.Config) *SOS {
	s := &SOS{
		Db:          dbInstance,
		Config:      cfg,
		Broadcaster: NopBroadcaster{},
		Containment: NewGormContainmentStore(dbInstance),
		DialGuard:   NewDialGuard(cfg.Dialer.GuardWindow),
		Limiters:    NewRateLimiterStore(rateLimit(cfg.DefaultRate), cfg.DefaultBurst),
		Clock:       time.Now,
		Sleeper:     realSleep,
	}
	return s.WithServices(ServiceOpts{
		Incident: s.GetIIncident(),
		Geofence: s.GetIGeofence(),
		Contact:  s.GetIContact(),
		Cascade:  s.GetICascade(),
		Matcher:  s.GetIMatcher(),
		Dialer:   s.GetIDialer(),
	})
}

func (s *SOS) WithServices(opts ServiceOpts) *SOS {
	if opts.Incident != nil {
		s.Incident = opts.Incident
	}
	if opts.Geofence != nil {
		s.Geofence = opts.Geofence
	}
	if opts.Contact != nil {
		s.Contact = opts.Contact
	}
	if opts.Cascade != nil {
		s.Cascade = opts.Cascade
	}
	if opts.Matcher != nil {
		s.Matcher = opts.Matcher
	}
	if opts.Dialer != nil {
		s.Dialer = opts.Dialer
	}
	return s
}

func (s *SOS) WithGateways(g Gateways) *SOS {
	s.Gateways = g
	return s
}

func (s *SOS) WithBroadcaster(b Broadcaster) *SOS {
	if b == nil {
		b = NopBroadcaster{}
	}
	s.Broadcaster = b
	return s
}

func (s *SOS) WithContainmentStore(store ContainmentStore) *SOS {
	if store != nil {
		s.Containment = store
	}
	return s
}

func (s *SOS) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func (s *SOS) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleeper == nil {
		return realSleep(ctx, d)
	}
	return s.Sleeper(ctx, d)
}

// goBackground runs fn detached from the caller's cancellation. Wait blocks until all such work ends.
func (s *SOS) goBackground(ctx context.Context, fn func(ctx context.Context)) {
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(bgCtx)
	}()
}

func (s *SOS) Wait() {
	s.bg.Wait()
}

// keyedLocks serializes writers per incident id.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
