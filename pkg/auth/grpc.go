package auth

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// metadataAuthorization is the gRPC metadata key carrying the bearer
// credential. Metadata keys are lowercase by convention.
const metadataAuthorization = "authorization"

// UnaryServerInterceptor is the gRPC counterpart of [Gate.Middleware]:
// it verifies the bearer token from incoming metadata, resolves the
// caller's identity, and populates the handler context. Requests without
// a verifiable token fail with Unauthenticated; verified tokens whose
// identity cannot be resolved, or whose account is inactive, fail with
// PermissionDenied.
func UnaryServerInterceptor(codec *Codec, resolver IdentityResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, codec, resolver, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor applies the authentication gate to streaming
// RPCs. The stream's context is replaced with one carrying the resolved
// identity.
func StreamServerInterceptor(codec *Codec, resolver IdentityResolver) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), codec, resolver, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &identityServerStream{ServerStream: ss, ctx: ctx})
	}
}

func authenticate(ctx context.Context, codec *Codec, resolver IdentityResolver, fullMethod string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	var token string
	if values := md.Get(metadataAuthorization); len(values) > 0 {
		token = ExtractBearerToken(values[0])
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	claims, err := codec.Decode(token)
	if err != nil {
		logDenial(ctx, fullMethod, err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	identity, err := resolver.ResolveByEmail(ctx, claims.Email, token)
	if err != nil {
		logDenial(ctx, fullMethod, err)
		return nil, status.Error(codes.PermissionDenied, "access denied")
	}
	if !identity.Active() {
		return nil, status.Error(codes.PermissionDenied, "access denied")
	}

	ctx = ContextWithIdentity(ctx, identity)
	ctx = ContextWithToken(ctx, token)
	return ctx, nil
}

func logDenial(ctx context.Context, fullMethod string, err error) {
	slog.Default().WarnContext(ctx, "rpc denied by authentication gate",
		slog.String("method", fullMethod),
		slog.String("error", err.Error()),
	)
}

// PermissionUnaryInterceptor is the gRPC counterpart of
// [RequirePermission]. The required map lists the accepted permission
// codes per full method name ("/package.Service/Method"); a caller
// holding any one of them is admitted. Methods absent from the map only
// require authentication. Denials fail with PermissionDenied carrying
// [PermissionDeniedMessage].
func PermissionUnaryInterceptor(required map[string][]string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		identity, ok := IdentityFromContext(ctx)
		if !ok {
			return nil, status.Error(codes.PermissionDenied, PermissionDeniedMessage)
		}
		if codesForMethod, listed := required[info.FullMethod]; listed {
			if !identity.Permissions().HasAny(codesForMethod...) {
				return nil, status.Error(codes.PermissionDenied, PermissionDeniedMessage)
			}
		}
		return handler(ctx, req)
	}
}

// UnaryClientInterceptor relays the caller's bearer token to outgoing
// unary RPCs, the gRPC counterpart of [RelayTransport]. Metadata that
// already carries an authorization entry is left untouched.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(relayContext(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor relays the caller's bearer token to outgoing
// streaming RPCs.
func StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(relayContext(ctx), desc, cc, method, opts...)
	}
}

func relayContext(ctx context.Context) context.Context {
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(metadataAuthorization)) > 0 {
		return ctx
	}
	token, ok := TokenFromContext(ctx)
	if !ok {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, metadataAuthorization, bearerPrefix+token)
}

// identityServerStream overrides the stream context with one carrying
// the resolved identity.
type identityServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityServerStream) Context() context.Context { return s.ctx }
