package controllers

import (
	"context"
	"net/http"

	"github.com/mythra-labs/mythra-backend/api/middleware"
	"github.com/mythra-labs/mythra-backend/api/responses"
	"github.com/mythra-labs/mythra-backend/internal/lifecycle"
	pkgerrors "github.com/mythra-labs/mythra-backend/pkg/errors"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
)

// requireActor writes a 401 and returns false when the request carries no usable identity.
func requireActor(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) (lifecycle.Actor, bool) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return lifecycle.Actor{}, false
	}
	return actor, true
}

// optionalViewer returns the authenticated actor, or nil for anonymous reads.
func optionalViewer(ctx context.Context) *lifecycle.Actor {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	return &actor
}

func serviceUnavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, name string) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
