package user

import (
	"context"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
)

type actorContextKey struct{}

// WithActor attaches an actor to ctx. Used by jobs that run without an
// access token.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the injected actor, or builds one from the JWT
// claims verified by jwtauth.
func ActorFromContext(ctx context.Context) (Actor, error) {
	if actor, ok := ctx.Value(actorContextKey{}).(Actor); ok {
		return actor, nil
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Actor{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	if claims == nil {
		return Actor{}, ErrMissingClaims
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return Actor{}, ErrCompanyIDRequired
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)

	return Actor{UserID: userID, CompanyID: companyID, Role: Role(role)}, nil
}

// ManagerFromContext resolves the actor and requires the attendance.manage
// permission.
func ManagerFromContext(ctx context.Context) (Actor, error) {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !actor.CanManageAttendance() {
		return Actor{}, ErrAttendanceManageRequired
	}
	return actor, nil
}

// ViewerFromContext requires attendance.view_all.
func ViewerFromContext(ctx context.Context) (Actor, error) {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !actor.CanViewAttendance() {
		return Actor{}, ErrInsufficientPermissions
	}
	return actor, nil
}
