package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ProfileServiceName = "zkvault.profile.v1.ProfileService"

	ProfileService_GetProfile_FullMethodName = "/" + ProfileServiceName + "/GetProfile"
	ProfileService_SetSalt_FullMethodName    = "/" + ProfileServiceName + "/SetSalt"
	ProfileService_SetCanary_FullMethodName  = "/" + ProfileServiceName + "/SetCanary"
)

// ProfileServiceClient is the client API for ProfileService.
type ProfileServiceClient interface {
	GetProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetSalt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetCanary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type profileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileServiceClient(cc grpc.ClientConnInterface) ProfileServiceClient {
	return &profileServiceClient{cc}
}

func (c *profileServiceClient) GetProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ProfileService_GetProfile_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *profileServiceClient) SetSalt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ProfileService_SetSalt_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *profileServiceClient) SetCanary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ProfileService_SetCanary_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileServiceServer is the server API for ProfileService.
type ProfileServiceServer interface {
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSalt(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetCanary(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileService_ServiceDesc, srv)
}

func _ProfileService_GetProfile_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProfileService_GetProfile_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProfileServiceServer).GetProfile(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_SetSalt_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).SetSalt(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProfileService_SetSalt_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProfileServiceServer).SetSalt(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_SetCanary_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).SetCanary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ProfileService_SetCanary_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProfileServiceServer).SetCanary(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ProfileService_ServiceDesc is the grpc.ServiceDesc for ProfileService.
var ProfileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProfile", Handler: _ProfileService_GetProfile_Handler},
		{MethodName: "SetSalt", Handler: _ProfileService_SetSalt_Handler},
		{MethodName: "SetCanary", Handler: _ProfileService_SetCanary_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zkvault/profile/v1/profile.proto",
}
