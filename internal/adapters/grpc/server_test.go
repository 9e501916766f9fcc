package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/viralforge/storefront/internal/adapters/grpc"
	"github.com/viralforge/storefront/internal/domain"
)

type stubResolver struct {
	identities map[string]domain.Identity
	err        error
}

func (s stubResolver) GetSessionUser(_ context.Context, token string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	identity, ok := s.identities[token]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func request(t *testing.T, token string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]any{"token": token})
	require.NoError(t, err)
	return req
}

func TestResolveSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	server := grpcadapter.NewSessionInternalServer(stubResolver{identities: map[string]domain.Identity{
		"good": {UserID: userID, Email: "grpc@example.com", Role: domain.RoleAdmin},
	}})

	resp, err := server.ResolveSession(context.Background(), request(t, "good"))
	require.NoError(t, err)
	fields := resp.AsMap()
	assert.Equal(t, true, fields["authenticated"])
	assert.Equal(t, userID.String(), fields["user_id"])
	assert.Equal(t, "ADMIN", fields["role"])

	resp, err = server.ResolveSession(context.Background(), request(t, "unknown"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"authenticated": false}, resp.AsMap())

	_, err = server.ResolveSession(context.Background(), request(t, "  "))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResolveSessionStoreFailure(t *testing.T) {
	t.Parallel()

	server := grpcadapter.NewSessionInternalServer(stubResolver{err: errors.New("db down")})
	_, err := server.ResolveSession(context.Background(), request(t, "any"))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestResolveSessionOverTheWire(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	grpcadapter.Register(srv, grpcadapter.NewSessionInternalServer(stubResolver{identities: map[string]domain.Identity{
		"wire": {UserID: uuid.New(), Email: "wire@example.com", Role: domain.RoleCustomer},
	}}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), grpcadapter.ResolveSessionMethod, request(t, "wire"), resp))
	assert.Equal(t, "wire@example.com", resp.AsMap()["email"])
}
