package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/db"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"

	"liyu1981.xyz/sos-response-service/pkg/sos/mocks"
)

const bufSize = 1024 * 1024

var listener *bufconn.Listener

func dialer() func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, s string) (net.Conn, error) {
		return listener.Dial()
	}
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
	}
}

func startTestServer(t *testing.T, limiter *sos.RateLimiterStore, opts ...sos.ServiceOpts) (*IncidentServiceClient, *sos.SOS) {
	listener = bufconn.Listen(bufSize)

	core := sos.New(*db.GetInstance(db.UseMemorySqliteDialector()), testConfig())
	core.Sleeper = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	for _, o := range opts {
		core.WithServices(o)
	}

	sosServer := SOSServer{SOS: core, RateLimiterStore: limiter}
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		ErrorInterceptor(),
		sosServer.CreateRateLimitInterceptor([]any{
			&RaiseIncidentRequest{},
			&DeviceEventRequest{},
		}),
	))
	RegisterIncidentServiceServer(server, &sosServer)

	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		core.Wait()
	})

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer()),
		grpc.WithInsecure(),
	)
	require.NoError(t, err)

	return NewIncidentServiceClient(conn), core
}

func seedUser(t *testing.T, core *sos.SOS, role models.Role) models.Actor {
	t.Helper()
	u := models.User{ID: uuid.NewString(), Name: "User " + string(role), Role: role, Active: true}
	require.NoError(t, core.Db.Conn.Create(&u).Error)
	return models.Actor{ID: u.ID, Role: role}
}

func assertCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, err.Error())
	assert.Equal(t, want, st.Code(), st.Message())
}

func TestRaiseAndGetIncident(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	stranger := seedUser(t, core, models.RoleUser)
	staff := seedUser(t, core, models.RoleStaff)
	ctx := WithActor(context.Background(), owner)

	raised, err := client.RaiseIncident(ctx, &RaiseIncidentRequest{
		UserId: owner.ID,
		Type:   string(models.IncidentTypeFallDetection),
		Lat:    35.5,
		Lng:    139.5,
	})
	require.NoError(t, err)
	require.NotNil(t, raised.Incident)
	assert.Equal(t, owner.ID, raised.Incident.UserID)
	assert.Equal(t, models.TriggerSourceManual, raised.Incident.Source)
	core.Wait()

	got, err := client.GetIncident(ctx, &IncidentRequest{Id: raised.Incident.ID})
	require.NoError(t, err)
	assert.Equal(t, raised.Incident.ID, got.View.Incident.ID)

	_, err = client.GetIncident(WithActor(context.Background(), stranger), &IncidentRequest{Id: raised.Incident.ID})
	assertCode(t, codes.NotFound, err)

	got, err = client.GetIncident(WithActor(context.Background(), staff), &IncidentRequest{Id: raised.Incident.ID})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.View.Incident.UserID)

	_, err = client.GetIncident(ctx, &IncidentRequest{Id: uuid.NewString()})
	assertCode(t, codes.NotFound, err)

	_, err = client.GetIncident(ctx, &IncidentRequest{})
	assertCode(t, codes.InvalidArgument, err)
}

func TestRaiseIncident_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	other := seedUser(t, core, models.RoleUser)
	ctx := WithActor(context.Background(), owner)

	_, err := client.RaiseIncident(ctx, &RaiseIncidentRequest{UserId: owner.ID, Type: "sneeze"})
	assertCode(t, codes.InvalidArgument, err)

	_, err = client.RaiseIncident(ctx, &RaiseIncidentRequest{UserId: owner.ID, Type: "manual_sos", Lat: 91})
	assertCode(t, codes.InvalidArgument, err)

	_, err = client.RaiseIncident(ctx, &RaiseIncidentRequest{UserId: other.ID, Type: "manual_sos"})
	assertCode(t, codes.PermissionDenied, err)

	// no identity in metadata acts as the system
	dedup := uuid.NewString()
	_, err = client.RaiseIncident(context.Background(), &RaiseIncidentRequest{UserId: other.ID, Type: "manual_sos", DedupKey: dedup})
	require.NoError(t, err)
	_, err = client.RaiseIncident(context.Background(), &RaiseIncidentRequest{UserId: other.ID, Type: "manual_sos", DedupKey: dedup})
	assertCode(t, codes.AlreadyExists, err)
}

func TestDeviceEvent(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	deviceID := uuid.NewString()
	eventID := uuid.NewString()
	req := &DeviceEventRequest{
		DeviceId: deviceID,
		EventId:  eventID,
		UserId:   owner.ID,
		Type:     string(models.IncidentTypeFallDetection),
		Lat:      35.5,
		Lng:      139.5,
	}

	first, err := client.DeviceEvent(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Result.IncidentID)

	second, err := client.DeviceEvent(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Result.Duplicate)
	assert.Empty(t, second.Result.IncidentID)
	core.Wait()

	loc, err := client.DeviceEvent(context.Background(), &DeviceEventRequest{
		DeviceId: deviceID, UserId: owner.ID, Type: models.DeviceEventLocation, Lat: 35.6, Lng: 139.6,
	})
	require.NoError(t, err)
	assert.NotNil(t, loc.Result.Location)

	_, err = client.DeviceEvent(context.Background(), &DeviceEventRequest{UserId: owner.ID, Type: "fall_detection"})
	assertCode(t, codes.InvalidArgument, err)

	_, err = client.DeviceEvent(context.Background(), &DeviceEventRequest{DeviceId: deviceID, UserId: uuid.NewString(), Type: models.DeviceEventLocation, Lat: 1, Lng: 1})
	assertCode(t, codes.NotFound, err)
}

func TestDeviceEventWithLimiter(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, sos.NewRateLimiterStore(0, 2))

	owner := seedUser(t, core, models.RoleUser)
	deviceID := uuid.NewString()
	req := &DeviceEventRequest{DeviceId: deviceID, UserId: owner.ID, Type: models.DeviceEventLocation, Lat: 35.5, Lng: 139.5}

	for iter := 0; iter < 2; iter++ {
		_, err := client.DeviceEvent(context.Background(), req)
		require.NoError(t, err)
	}
	_, err := client.DeviceEvent(context.Background(), req)
	assertCode(t, codes.ResourceExhausted, err)

	// other devices have their own bucket
	req.DeviceId = uuid.NewString()
	_, err = client.DeviceEvent(context.Background(), req)
	require.NoError(t, err)
}

func TestUpdateStatusAndLocation(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	stranger := seedUser(t, core, models.RoleUser)
	ctx := WithActor(context.Background(), owner)

	raised, err := client.RaiseIncident(ctx, &RaiseIncidentRequest{UserId: owner.ID, Type: "manual_sos", Lat: 35.5, Lng: 139.5})
	require.NoError(t, err)
	core.Wait()
	id := raised.Incident.ID

	loc, err := client.UpdateLocation(ctx, &UpdateLocationRequest{Id: id, Lat: 35.51, Lng: 139.51, Accuracy: 5})
	require.NoError(t, err)
	assert.True(t, loc.Success)

	loc, err = client.UpdateLocation(ctx, &UpdateLocationRequest{Id: id, Lat: 95, Lng: 139.51})
	require.NoError(t, err)
	assert.False(t, loc.Success)
	assert.Contains(t, loc.Message, "validation error")

	_, err = client.UpdateLocation(WithActor(context.Background(), stranger), &UpdateLocationRequest{Id: id, Lat: 1, Lng: 1})
	assertCode(t, codes.NotFound, err)

	_, err = client.UpdateStatus(ctx, &UpdateStatusRequest{Id: id, Status: "paused"})
	assertCode(t, codes.InvalidArgument, err)

	updated, err := client.UpdateStatus(ctx, &UpdateStatusRequest{Id: id, Status: string(models.IncidentStatusCancelled), Notes: "false alarm"})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusCancelled, updated.Incident.Status)

	_, err = client.UpdateStatus(ctx, &UpdateStatusRequest{Id: id, Status: string(models.IncidentStatusResolved)})
	assertCode(t, codes.PermissionDenied, err)
}

func TestStaffOnlyMethods(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	staff := seedUser(t, core, models.RoleStaff)
	volunteer := seedUser(t, core, models.RoleVolunteer)
	ctx := WithActor(context.Background(), owner)

	raised, err := client.RaiseIncident(ctx, &RaiseIncidentRequest{UserId: owner.ID, Type: "manual_sos", Lat: 35.5, Lng: 139.5})
	require.NoError(t, err)
	core.Wait()
	id := raised.Incident.ID

	_, err = client.AddResponder(ctx, &AddResponderRequest{Id: id, UserId: volunteer.ID})
	assertCode(t, codes.PermissionDenied, err)
	_, err = client.MatchIncident(ctx, &IncidentRequest{Id: id})
	assertCode(t, codes.PermissionDenied, err)

	staffCtx := WithActor(context.Background(), staff)
	eta := 4
	added, err := client.AddResponder(staffCtx, &AddResponderRequest{Id: id, UserId: volunteer.ID, Type: string(models.ResponderTypeVolunteer), EtaMinutes: &eta})
	require.NoError(t, err)
	assert.Equal(t, volunteer.ID, added.Responder.UserID)

	// the assigned responder can now read the incident
	got, err := client.GetIncident(WithActor(context.Background(), volunteer), &IncidentRequest{Id: id})
	require.NoError(t, err)
	assert.Equal(t, id, got.View.Incident.ID)

	_, err = client.AddResponder(staffCtx, &AddResponderRequest{Id: id, UserId: volunteer.ID, Type: "bystander"})
	assertCode(t, codes.InvalidArgument, err)
}

func TestEvaluateGeofences(t *testing.T) {
	common.SetTestLoggerNop()
	client, core := startTestServer(t, nil)

	owner := seedUser(t, core, models.RoleUser)
	other := seedUser(t, core, models.RoleUser)
	ctx := WithActor(context.Background(), owner)

	resp, err := client.EvaluateGeofences(ctx, &EvaluateGeofencesRequest{UserId: owner.ID, Lat: 35.5, Lng: 139.5})
	require.NoError(t, err)
	assert.Empty(t, resp.Triggers)

	_, err = client.EvaluateGeofences(ctx, &EvaluateGeofencesRequest{UserId: other.ID, Lat: 35.5, Lng: 139.5})
	assertCode(t, codes.PermissionDenied, err)

	_, err = client.EvaluateGeofences(ctx, &EvaluateGeofencesRequest{UserId: owner.ID, Lat: 35.5, Lng: 190})
	assertCode(t, codes.InvalidArgument, err)
}

func TestDispatchNotifications_ServiceErrors(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.NewString()
	incident := mocks.NewMockIIncident(ctrl)
	incident.EXPECT().Get(gomock.Any(), id).Return(&models.IncidentView{Incident: models.Incident{ID: id, UserID: "u-1"}}, nil).Times(2)
	cascade := mocks.NewMockICascade(ctrl)
	gomock.InOrder(
		cascade.EXPECT().Dispatch(gomock.Any(), id).Return(nil, errs.TransientChannel(assert.AnError, "sms gateway down")),
		cascade.EXPECT().Dispatch(gomock.Any(), id).Return(nil, errs.Configuration("no gateways configured")),
	)

	client, _ := startTestServer(t, nil, sos.ServiceOpts{Incident: incident, Cascade: cascade})

	_, err := client.DispatchNotifications(context.Background(), &IncidentRequest{Id: id})
	assertCode(t, codes.Unavailable, err)

	_, err = client.DispatchNotifications(context.Background(), &IncidentRequest{Id: id})
	assertCode(t, codes.FailedPrecondition, err)
}

func TestPostLimiter(t *testing.T) {
	common.SetTestLoggerNop()

	client, _ := startTestServer(t, nil)
	resp, err := client.PostLimiter(context.Background(), &LimiterRequest{DeviceId: "dev-1", Rate: 1, Burst: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "RateLimiterStore is not used. No effect.", resp.Message)

	store := sos.NewRateLimiterStore(0, 1)
	client, _ = startTestServer(t, store)

	resp, err = client.PostLimiter(context.Background(), &LimiterRequest{Rate: 1, Burst: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)

	resp, err = client.PostLimiter(context.Background(), &LimiterRequest{DeviceId: "dev-1", Rate: 5, Burst: 3})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, store.GetLimiter("dev-1").Burst())
}

func TestCodeFor(t *testing.T) {
	cases := map[error]codes.Code{
		errs.Validation("bad"):                       codes.InvalidArgument,
		errs.NotFound("missing"):                     codes.NotFound,
		errs.Conflict("dup"):                         codes.AlreadyExists,
		errs.Forbidden("no"):                         codes.PermissionDenied,
		errs.TransientChannel(assert.AnError, "sms"): codes.Unavailable,
		errs.Configuration("off"):                    codes.FailedPrecondition,
		assert.AnError:                               codes.Internal,
	}
	for err, want := range cases {
		assert.Equal(t, want, codeFor(err), err.Error())
	}
}

func TestActorFrom(t *testing.T) {
	assert.Equal(t, models.SystemActor, actorFrom(context.Background()))

	server := SOSServer{}
	assert.Nil(t, server.GetLimiter("dev-1"))
	assert.True(t, server.CheckDeviceLimiter("dev-1"))
}
