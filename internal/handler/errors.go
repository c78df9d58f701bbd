package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"docgate/internal/domain"
	"docgate/internal/httputil"
)

// respondServiceError maps domain errors to HTTP responses. Anything
// without an HTTPError mapping is a 500 and gets logged; the client
// never sees internals.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, "invalid request")
	default:
		logger.Error("unhandled service error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
