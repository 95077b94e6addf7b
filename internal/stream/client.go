package stream

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a thin client for globe.v1.GlobeService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetScene fetches the scene payload.
func (c *Client) GetScene(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSceneMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRoute fetches the buffers of one route.
func (c *Client) GetRoute(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetRouteMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchOptions are the WatchFrames request fields.
type WatchOptions struct {
	Trail     bool
	Stride    uint64
	MaxFrames uint64
}

func (o WatchOptions) request() *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if o.Trail {
		fields["trail"] = structpb.NewBoolValue(true)
	}
	if o.Stride > 0 {
		fields["stride"] = structpb.NewNumberValue(float64(o.Stride))
	}
	if o.MaxFrames > 0 {
		fields["max_frames"] = structpb.NewNumberValue(float64(o.MaxFrames))
	}
	return &structpb.Struct{Fields: fields}
}

// WatchFrames opens a frame stream.
func (c *Client) WatchFrames(ctx context.Context, w WatchOptions, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &GlobeServiceDesc.Streams[0], WatchFramesMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(w.request()); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
