// Package verdictv1 declares the verdict.v1.VerdictEngine gRPC service.
// Messages are google.protobuf.Struct documents carrying the same JSON shape
// the HTTP gateway accepts and returns.
package verdictv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	VerdictEngine_Evaluate_FullMethodName          = "/verdict.v1.VerdictEngine/Evaluate"
	VerdictEngine_ListJurisdictions_FullMethodName = "/verdict.v1.VerdictEngine/ListJurisdictions"
)

// VerdictEngineClient is the client API for the VerdictEngine service.
type VerdictEngineClient interface {
	Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListJurisdictions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type verdictEngineClient struct {
	cc grpc.ClientConnInterface
}

// NewVerdictEngineClient wraps a client connection.
func NewVerdictEngineClient(cc grpc.ClientConnInterface) VerdictEngineClient {
	return &verdictEngineClient{cc}
}

func (c *verdictEngineClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerdictEngine_Evaluate_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *verdictEngineClient) ListJurisdictions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerdictEngine_ListJurisdictions_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// VerdictEngineServer is the server API for the VerdictEngine service.
type VerdictEngineServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJurisdictions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedVerdictEngineServer can be embedded for forward compatibility.
type UnimplementedVerdictEngineServer struct{}

func (UnimplementedVerdictEngineServer) Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Evaluate not implemented")
}

func (UnimplementedVerdictEngineServer) ListJurisdictions(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListJurisdictions not implemented")
}

// RegisterVerdictEngineServer attaches srv to a gRPC service registrar.
func RegisterVerdictEngineServer(s grpc.ServiceRegistrar, srv VerdictEngineServer) {
	s.RegisterService(&VerdictEngine_ServiceDesc, srv)
}

func _VerdictEngine_Evaluate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerdictEngineServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VerdictEngine_Evaluate_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerdictEngineServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _VerdictEngine_ListJurisdictions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerdictEngineServer).ListJurisdictions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VerdictEngine_ListJurisdictions_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerdictEngineServer).ListJurisdictions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// VerdictEngine_ServiceDesc is the grpc.ServiceDesc for the VerdictEngine service.
var VerdictEngine_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "verdict.v1.VerdictEngine",
	HandlerType: (*VerdictEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    _VerdictEngine_Evaluate_Handler,
		},
		{
			MethodName: "ListJurisdictions",
			Handler:    _VerdictEngine_ListJurisdictions_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "verdict/v1/verdict.proto",
}
