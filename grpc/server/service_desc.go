package server

import (
	"context"
	grpc2 "flash-chat/grpc"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ChatStoreServiceDesc is the grpc.ServiceDesc for flashchat.v1.ChatStore.
var ChatStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: grpc2.ServiceName,
	HandlerType: (*ChatStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler: unaryHandler(grpc2.RegisterMethod, func(s ChatStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.Register(ctx, in)
			}),
		},
		{
			MethodName: "Login",
			Handler: unaryHandler(grpc2.LoginMethod, func(s ChatStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.Login(ctx, in)
			}),
		},
		{
			MethodName: "Append",
			Handler: unaryHandler(grpc2.AppendMethod, func(s ChatStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.Append(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "flashchat/v1/chat_store.proto",
}

func RegisterChatStoreServer(s grpc.ServiceRegistrar, srv ChatStoreServer) {
	s.RegisterService(&ChatStoreServiceDesc, srv)
}

type unaryCall func(s ChatStoreServer, ctx context.Context, in *structpb.Struct) (any, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChatStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChatStoreServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatStoreServer).Subscribe(in, stream)
}
