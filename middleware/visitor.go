package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const VisitorIDKey contextKey = "visitorID"

const (
	VisitorCookie = "envision_visitor"
	// VisitorHeader lets API clients without cookies name their history.
	VisitorHeader = "X-Visitor-ID"
)

// VisitorMiddleware gives every browser a stable id, the scope of its history and create session.
func VisitorMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := visitorFromRequest(r)
			if !ok {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    id,
					Path:     "/",
					Expires:  time.Now().AddDate(1, 0, 0),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), VisitorIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func visitorFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get(VisitorHeader); h != "" {
		if id, err := uuid.Parse(h); err == nil {
			return id.String(), true
		}
	}
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), true
		}
	}
	return "", false
}

// GetVisitorID extracts the visitor id from context
func GetVisitorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(VisitorIDKey).(string)
	return id, ok
}
