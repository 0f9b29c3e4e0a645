package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const IncidentServiceName = "sos.v1.IncidentService"

type IncidentServiceServer interface {
	RaiseIncident(ctx context.Context, req *RaiseIncidentRequest) (*IncidentResponse, error)
	DeviceEvent(ctx context.Context, req *DeviceEventRequest) (*DeviceEventResponse, error)
	GetIncident(ctx context.Context, req *IncidentRequest) (*IncidentViewResponse, error)
	UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*IncidentResponse, error)
	AddResponder(ctx context.Context, req *AddResponderRequest) (*ResponderResponse, error)
	UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*StatusResponse, error)
	DispatchNotifications(ctx context.Context, req *IncidentRequest) (*DispatchResponse, error)
	MatchIncident(ctx context.Context, req *IncidentRequest) (*MatchResponse, error)
	EvaluateGeofences(ctx context.Context, req *EvaluateGeofencesRequest) (*EvaluateGeofencesResponse, error)
	PostLimiter(ctx context.Context, req *LimiterRequest) (*StatusResponse, error)
}

func fullMethod(method string) string {
	return "/" + IncidentServiceName + "/" + method
}

// unaryMethod adapts a typed server method into a grpc.MethodDesc.
func unaryMethod[Req any, Resp any](name string, call func(IncidentServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IncidentServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(IncidentServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var IncidentServiceDesc = grpc.ServiceDesc{
	ServiceName: IncidentServiceName,
	HandlerType: (*IncidentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("RaiseIncident", IncidentServiceServer.RaiseIncident),
		unaryMethod("DeviceEvent", IncidentServiceServer.DeviceEvent),
		unaryMethod("GetIncident", IncidentServiceServer.GetIncident),
		unaryMethod("UpdateStatus", IncidentServiceServer.UpdateStatus),
		unaryMethod("AddResponder", IncidentServiceServer.AddResponder),
		unaryMethod("UpdateLocation", IncidentServiceServer.UpdateLocation),
		unaryMethod("DispatchNotifications", IncidentServiceServer.DispatchNotifications),
		unaryMethod("MatchIncident", IncidentServiceServer.MatchIncident),
		unaryMethod("EvaluateGeofences", IncidentServiceServer.EvaluateGeofences),
		unaryMethod("PostLimiter", IncidentServiceServer.PostLimiter),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sos/v1/incident_service",
}

func RegisterIncidentServiceServer(s grpc.ServiceRegistrar, srv IncidentServiceServer) {
	s.RegisterService(&IncidentServiceDesc, srv)
}

// IncidentServiceClient calls IncidentService with the json codec.
type IncidentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIncidentServiceClient(cc grpc.ClientConnInterface) *IncidentServiceClient {
	return &IncidentServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IncidentServiceClient) RaiseIncident(ctx context.Context, in *RaiseIncidentRequest, opts ...grpc.CallOption) (*IncidentResponse, error) {
	return invoke[IncidentResponse](ctx, c.cc, "RaiseIncident", in, opts)
}

func (c *IncidentServiceClient) DeviceEvent(ctx context.Context, in *DeviceEventRequest, opts ...grpc.CallOption) (*DeviceEventResponse, error) {
	return invoke[DeviceEventResponse](ctx, c.cc, "DeviceEvent", in, opts)
}

func (c *IncidentServiceClient) GetIncident(ctx context.Context, in *IncidentRequest, opts ...grpc.CallOption) (*IncidentViewResponse, error) {
	return invoke[IncidentViewResponse](ctx, c.cc, "GetIncident", in, opts)
}

func (c *IncidentServiceClient) UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*IncidentResponse, error) {
	return invoke[IncidentResponse](ctx, c.cc, "UpdateStatus", in, opts)
}

func (c *IncidentServiceClient) AddResponder(ctx context.Context, in *AddResponderRequest, opts ...grpc.CallOption) (*ResponderResponse, error) {
	return invoke[ResponderResponse](ctx, c.cc, "AddResponder", in, opts)
}

func (c *IncidentServiceClient) UpdateLocation(ctx context.Context, in *UpdateLocationRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "UpdateLocation", in, opts)
}

func (c *IncidentServiceClient) DispatchNotifications(ctx context.Context, in *IncidentRequest, opts ...grpc.CallOption) (*DispatchResponse, error) {
	return invoke[DispatchResponse](ctx, c.cc, "DispatchNotifications", in, opts)
}

func (c *IncidentServiceClient) MatchIncident(ctx context.Context, in *IncidentRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c.cc, "MatchIncident", in, opts)
}

func (c *IncidentServiceClient) EvaluateGeofences(ctx context.Context, in *EvaluateGeofencesRequest, opts ...grpc.CallOption) (*EvaluateGeofencesResponse, error) {
	return invoke[EvaluateGeofencesResponse](ctx, c.cc, "EvaluateGeofences", in, opts)
}

func (c *IncidentServiceClient) PostLimiter(ctx context.Context, in *LimiterRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, "PostLimiter", in, opts)
}
