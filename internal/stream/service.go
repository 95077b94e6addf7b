package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/render"
)

// Fully-qualified method names of globe.v1.GlobeService.
const (
	ServiceName       = "globe.v1.GlobeService"
	GetSceneMethod    = "/globe.v1.GlobeService/GetScene"
	GetRouteMethod    = "/globe.v1.GlobeService/GetRoute"
	WatchFramesMethod = "/globe.v1.GlobeService/WatchFrames"
)

// GlobeServiceServer is the server API for globe.v1.GlobeService. Requests and
// responses are google.protobuf.Struct values holding the JSON payloads of
// the render package.
type GlobeServiceServer interface {
	GetScene(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRoute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchFrames(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// GlobeServiceDesc describes globe.v1.GlobeService for grpc.Server.
var GlobeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GlobeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetScene", Handler: unaryHandler(GetSceneMethod, GlobeServiceServer.GetScene)},
		{MethodName: "GetRoute", Handler: unaryHandler(GetRouteMethod, GlobeServiceServer.GetRoute)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchFrames", Handler: watchFramesHandler, ServerStreams: true},
	},
	Metadata: "globe/v1/globe.proto",
}

// RegisterGlobeServiceServer registers srv on s.
func RegisterGlobeServiceServer(s grpc.ServiceRegistrar, srv GlobeServiceServer) {
	s.RegisterService(&GlobeServiceDesc, srv)
}

type unaryMethod func(GlobeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GlobeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(GlobeServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchFramesHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GlobeServiceServer).WatchFrames(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// GlobeService implements GlobeServiceServer on top of a Globe and the hub
// its frame loop publishes to.
type GlobeService struct {
	globe         *core.Globe
	hub           *Hub
	colors        core.SceneColors
	rotationSpeed float64
	palette       render.Palette
	log           logging.Logger
}

// NewGlobeService validates colours and returns the service.
func NewGlobeService(globe *core.Globe, hub *Hub, colors core.SceneColors, rotationSpeed float64, log logging.Logger) (*GlobeService, error) {
	if globe == nil || hub == nil {
		return nil, fmt.Errorf("stream: globe and hub are required")
	}
	if colors == (core.SceneColors{}) {
		colors = core.DefaultSceneColors()
	}
	palette, err := render.NewPalette(colors)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	return &GlobeService{
		globe:         globe,
		hub:           hub,
		colors:        colors,
		rotationSpeed: rotationSpeed,
		palette:       palette,
		log:           log,
	}, nil
}

// GetScene returns render.ScenePayload as a Struct.
func (s *GlobeService) GetScene(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	payload, err := render.NewScenePayload(s.globe.Scene(), s.colors, s.rotationSpeed)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := toStruct(payload)
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "encode scene failed", logging.Err(err))
		return nil, ToStatusError(err)
	}
	return out, nil
}

// GetRoute returns the render.RouteBuffers of the route named by "id".
func (s *GlobeService) GetRoute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := stringField(req, "id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if id == "" {
		return nil, ToStatusError(fmt.Errorf("%w: id is required", ErrInvalidRequest))
	}
	route, ok := s.globe.Route(id)
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%q: %w", id, ErrRouteNotFound))
	}
	out, err := toStruct(render.NewRouteBuffers(route, s.palette.Route))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// WatchFrames streams render.FramePayload values as the frame loop publishes
// them. Request fields: "trail" (bool) adds trail buffers, "stride" (number)
// sends every n-th frame, "max_frames" (number) ends the stream after n
// messages. The current snapshot is sent first.
func (s *GlobeService) WatchFrames(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	trail, err := boolField(req, "trail")
	if err != nil {
		return ToStatusError(err)
	}
	stride, err := countField(req, "stride")
	if err != nil {
		return ToStatusError(err)
	}
	if stride == 0 {
		stride = 1
	}
	maxFrames, err := countField(req, "max_frames")
	if err != nil {
		return ToStatusError(err)
	}

	ctx := stream.Context()
	log := logging.FromContext(ctx, s.log)
	frames, cancel := s.hub.Subscribe(DefaultSubscriberBuffer)
	defer cancel()

	opts := render.FrameOptions{Trails: trail, RouteColor: s.palette.Route}
	send := func(snap core.FrameSnapshot) error {
		msg, err := toStruct(render.NewFramePayload(snap, s.globe.Scene(), opts))
		if err != nil {
			return ToStatusError(err)
		}
		return stream.Send(msg)
	}

	if err := send(s.globe.Snapshot()); err != nil {
		return err
	}
	sent, seen := uint64(1), uint64(0)
	log.Debug(ctx, "frame stream opened", logging.Uint64("stride", stride), logging.Uint64("max_frames", maxFrames))

	for maxFrames == 0 || sent < maxFrames {
		select {
		case <-ctx.Done():
			log.Debug(ctx, "frame stream closed by client", logging.Uint64("sent", sent))
			return nil
		case snap, ok := <-frames:
			if !ok {
				return nil
			}
			seen++
			if seen%stride != 0 {
				continue
			}
			if err := send(snap); err != nil {
				return err
			}
			sent++
		}
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidRequest, key)
	}
	return sv.StringValue, nil
}

func boolField(req *structpb.Struct, key string) (bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return false, nil
	}
	bv, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a bool", ErrInvalidRequest, key)
	}
	return bv.BoolValue, nil
}

func countField(req *structpb.Struct, key string) (uint64, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, nil
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || nv.NumberValue < 0 || nv.NumberValue != float64(uint64(nv.NumberValue)) {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidRequest, key)
	}
	return uint64(nv.NumberValue), nil
}
