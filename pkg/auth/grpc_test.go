package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/peoplesuite/peoplesuite-core/internal/testutil"
	"github.com/peoplesuite/peoplesuite-core/pkg/auth"
)

func unaryInfo(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

func bearerContext(token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func requireStatusCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok, "expected a gRPC status error, got %v", err)
	require.Equal(t, want, st.Code(), "status: %v", st)
}

func TestUnaryServerInterceptor_MissingCredential(t *testing.T) {
	h := newGateHarness(t, nil)
	interceptor := auth.UnaryServerInterceptor(h.codec, newTestResolver(t, h.stub.Server.URL))

	_, err := interceptor(context.Background(), nil, unaryInfo("/employees.Employees/Get"),
		func(context.Context, any) (any, error) {
			t.Fatal("handler must not run")
			return nil, nil
		})
	requireStatusCode(t, err, codes.Unauthenticated)
}

func TestUnaryServerInterceptor_InvalidToken(t *testing.T) {
	h := newGateHarness(t, nil)
	interceptor := auth.UnaryServerInterceptor(h.codec, newTestResolver(t, h.stub.Server.URL))

	_, err := interceptor(bearerContext("garbage"), nil, unaryInfo("/employees.Employees/Get"),
		func(context.Context, any) (any, error) { return nil, nil })
	requireStatusCode(t, err, codes.Unauthenticated)
}

func TestUnaryServerInterceptor_UnknownSubject(t *testing.T) {
	h := newGateHarness(t, nil)
	interceptor := auth.UnaryServerInterceptor(h.codec, newTestResolver(t, h.stub.Server.URL))

	ctx := bearerContext(testutil.MintToken(t, "ghost@co.com", time.Hour))
	_, err := interceptor(ctx, nil, unaryInfo("/employees.Employees/Get"),
		func(context.Context, any) (any, error) { return nil, nil })
	requireStatusCode(t, err, codes.PermissionDenied)
}

func TestUnaryServerInterceptor_InactiveAccount(t *testing.T) {
	inactive := aliceUser("REMP")
	inactive.Active = false
	h := newGateHarness(t, []testutil.AccountsUser{inactive})
	interceptor := auth.UnaryServerInterceptor(h.codec, newTestResolver(t, h.stub.Server.URL))

	ctx := bearerContext(testutil.MintToken(t, "alice@co.com", time.Hour))
	_, err := interceptor(ctx, nil, unaryInfo("/employees.Employees/Get"),
		func(context.Context, any) (any, error) { return nil, nil })
	requireStatusCode(t, err, codes.PermissionDenied)
}

func TestUnaryServerInterceptor_Success(t *testing.T) {
	h := newGateHarness(t, []testutil.AccountsUser{aliceUser("REMP")})
	interceptor := auth.UnaryServerInterceptor(h.codec, newTestResolver(t, h.stub.Server.URL))

	ctx := bearerContext(testutil.MintToken(t, "alice@co.com", time.Hour))
	resp, err := interceptor(ctx, "request", unaryInfo("/employees.Employees/Get"),
		func(ctx context.Context, req any) (any, error) {
			identity, ok := auth.IdentityFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, "alice@co.com", identity.Email())
			return "response", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "response", resp)
}

func TestPermissionUnaryInterceptor(t *testing.T) {
	required := map[string][]string{
		"/employees.Employees/Create": {auth.PermEmployeeCreate},
		"/employees.Employees/Get":    {auth.PermEmployeeRead, auth.PermEmployeeCreate},
	}
	interceptor := auth.PermissionUnaryInterceptor(required)
	passthrough := func(context.Context, any) (any, error) { return "ok", nil }

	ctx := auth.ContextWithIdentity(context.Background(),
		testIdentity(t, "alice@co.com", auth.PermEmployeeRead))

	// Held code on an OR list admits.
	resp, err := interceptor(ctx, nil, unaryInfo("/employees.Employees/Get"), passthrough)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	// Missing code denies with the fixed message.
	_, err = interceptor(ctx, nil, unaryInfo("/employees.Employees/Create"), passthrough)
	requireStatusCode(t, err, codes.PermissionDenied)
	assert.Equal(t, auth.PermissionDeniedMessage, status.Convert(err).Message())

	// Unlisted methods require authentication only.
	_, err = interceptor(ctx, nil, unaryInfo("/employees.Employees/List"), passthrough)
	require.NoError(t, err)

	// No identity in context denies.
	_, err = interceptor(context.Background(), nil, unaryInfo("/employees.Employees/List"), passthrough)
	requireStatusCode(t, err, codes.PermissionDenied)
}

func TestUnaryClientInterceptor_RelaysToken(t *testing.T) {
	interceptor := auth.UnaryClientInterceptor()
	ctx := auth.ContextWithToken(context.Background(), "caller-token")

	var sent []string
	err := interceptor(ctx, "/employees.Employees/Get", nil, nil, nil,
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			md, _ := metadata.FromOutgoingContext(ctx)
			sent = md.Get("authorization")
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer caller-token"}, sent)
}

func TestUnaryClientInterceptor_DoesNotOverwrite(t *testing.T) {
	interceptor := auth.UnaryClientInterceptor()
	ctx := auth.ContextWithToken(context.Background(), "caller-token")
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer explicit-token")

	var sent []string
	err := interceptor(ctx, "/employees.Employees/Get", nil, nil, nil,
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			md, _ := metadata.FromOutgoingContext(ctx)
			sent = md.Get("authorization")
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer explicit-token"}, sent)
}
