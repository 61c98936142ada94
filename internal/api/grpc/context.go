package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"book-rental-backend/internal/domain"
)

// GetActorFromContext extracts the caller from the gRPC metadata.
// It expects headers named "user-id" and "user-role", which the auth
// interceptor sets from the validated token.
func GetActorFromContext(ctx context.Context) (domain.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get("user-id")
	if len(userIDs) == 0 || userIDs[0] == "" {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}

	roles := md.Get("user-role")
	if len(roles) == 0 {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "user_role is not provided in metadata")
	}
	role := domain.Role(roles[0])
	if !role.IsValid() || role == domain.RoleSystem {
		return domain.Actor{}, status.Errorf(codes.PermissionDenied, "invalid user_role: %q", roles[0])
	}

	return domain.Actor{UserID: userIDs[0], Role: role}, nil
}
