package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"docgate/internal/access"
	"docgate/internal/auth"
	"docgate/internal/httputil"
)

// AuthMiddleware resolves the request's Viewer: JWT verification plus a
// single group-relations lookup, memoized for the rest of the request by
// living on the Viewer itself. Requests without a token pass through as
// anonymous; public reads are legal, the capability checks downstream
// decide what anonymous can see.
func AuthMiddleware(verifier auth.JWTVerifier, relations access.GroupRelationProvider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, httputil.WithViewer(r, access.Anonymous()))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				// A presented-but-invalid token is rejected, not
				// downgraded to anonymous.
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			groups, err := relations.RelationsFor(r.Context(), claims.GetUserID())
			if err != nil {
				logger.Error("group relations lookup failed",
					"user_id", claims.GetUserID(),
					"error", err,
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			viewer := access.Viewer{
				ID:             claims.GetUserID(),
				Authenticated:  true,
				SuperModerator: claims.IsSuperModerator(),
				Groups:         groups,
			}
			next.ServeHTTP(w, httputil.WithViewer(r, viewer))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
