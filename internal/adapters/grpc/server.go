package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/storefront/internal/domain"
)

const (
	serviceName          = "storefront.v1.SessionInternalService"
	ResolveSessionMethod = "/" + serviceName + "/ResolveSession"
)

type SessionInternalService interface {
	ResolveSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SessionResolver maps a raw session token to its identity; nil means anonymous.
type SessionResolver interface {
	GetSessionUser(ctx context.Context, token string) (*domain.Identity, error)
}

type SessionInternalServer struct {
	sessions SessionResolver
}

func NewSessionInternalServer(sessions SessionResolver) *SessionInternalServer {
	return &SessionInternalServer{sessions: sessions}
}

func Register(server grpc.ServiceRegistrar, svc SessionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*SessionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ResolveSession",
				Handler:    resolveSessionHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "storefront/v1/session_internal.proto",
	}, svc)
}

func (s *SessionInternalServer) ResolveSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := strings.TrimSpace(req.GetFields()["token"].GetStringValue())
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	identity, err := s.sessions.GetSessionUser(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Internal, "resolve session failed")
	}

	fields := map[string]any{"authenticated": false}
	if identity != nil {
		fields = map[string]any{
			"authenticated": true,
			"user_id":       identity.UserID.String(),
			"email":         identity.Email,
			"role":          string(identity.Role),
		}
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func resolveSessionHandler(svc SessionInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.ResolveSession(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: ResolveSessionMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.ResolveSession(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
