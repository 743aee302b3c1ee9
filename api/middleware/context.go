package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxWallet contextKey = "wallet"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WalletFromContext returns the wallet bound to the access token, if any.
func WalletFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxWallet).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the lifecycle actor from the authenticated claims.
func ActorFromContext(ctx context.Context) (lifecycle.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return lifecycle.Actor{}, false
	}
	role := enums.ActorRole(RoleFromContext(ctx))
	if !role.IsValid() || role == enums.ActorRoleSystem {
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{ID: id, Role: role}, true
}

// WithActor injects an authenticated identity into the context.
func WithActor(ctx context.Context, actor lifecycle.Actor, wallet string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.ID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	if wallet != "" {
		ctx = context.WithValue(ctx, ctxWallet, wallet)
	}
	return ctx
}
