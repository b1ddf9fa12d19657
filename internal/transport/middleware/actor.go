package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// actorHeader carries the id of the user performing the request. An
// upstream gateway authenticates the caller and forwards the id; this
// service only attributes mutations to it.
const actorHeader = "X-Actor-Id"

// Actor extracts the actor id from the request header into the context.
// Requests without a valid header pass through without an actor; write
// handlers reject those with 401 at the service boundary.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(actorHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		actorID, err := uuid.Parse(raw)
		if err != nil || actorID == uuid.Nil {
			http.Error(w, "invalid "+actorHeader+" header", http.StatusBadRequest)
			return
		}

		ctx := ctxutil.WithActorID(r.Context(), actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
