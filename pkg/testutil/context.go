package testutil

import (
	"net/http"
	"time"

	id "sankalp/pkg/domain"
	"sankalp/pkg/requestcontext"
)

// WithActor adds an authenticated actor id to the request context, as the auth
// middleware would.
func WithActor(req *http.Request, actorID id.ActorID) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actorID)
	ctx = requestcontext.WithToken(ctx, "test-jti", time.Now().Add(time.Hour))
	return req.WithContext(ctx)
}
