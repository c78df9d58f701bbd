package httputil

import (
	"context"
	"net/http"

	"docgate/internal/access"
)

// Context key type to avoid collisions
type contextKey string

const viewerKey contextKey = "viewer"

// WithViewer stores the resolved viewer in the request context.
func WithViewer(r *http.Request, viewer access.Viewer) *http.Request {
	ctx := context.WithValue(r.Context(), viewerKey, viewer)
	return r.WithContext(ctx)
}

// GetViewer retrieves the viewer from the context. Requests that never
// passed the auth middleware read as anonymous.
func GetViewer(r *http.Request) access.Viewer {
	viewer, ok := r.Context().Value(viewerKey).(access.Viewer)
	if !ok {
		return access.Anonymous()
	}
	return viewer
}
