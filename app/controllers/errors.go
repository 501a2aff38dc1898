// Package controllers holds the dashboard API handlers.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storeadmin/app/repositories"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/response"
)

// fail writes the response for err.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *services.ValidationError
		partial  *services.PartialFailureError
		creation *services.CreationError
		remote   *repositories.RemoteError
	)

	switch {
	case errors.As(err, &verr):
		response.ValidationError(w, verr.Fields)

	case errors.Is(err, session.ErrSubmitInFlight),
		errors.Is(err, session.ErrNotEditing),
		errors.Is(err, session.ErrClosed):
		response.Conflict(w, err.Error())

	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrUploadNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		response.Error(w, http.StatusNotFound, err.Error())

	case errors.As(err, &partial):
		response.ErrorWithData(w, http.StatusBadGateway, err.Error(), nil, failedFields(partial))

	case errors.As(err, &creation):
		response.ErrorWithData(w, http.StatusBadGateway, err.Error(), creation.Log, nil)

	case errors.As(err, &remote):
		if remote.Status == http.StatusNotFound {
			response.Error(w, http.StatusNotFound, remote.Message)
			return
		}
		response.ErrorWithData(w, http.StatusBadGateway, err.Error(), nil,
			map[string]int{"upstream_status": remote.Status})

	default:
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// failedFields maps each failed write to its message.
func failedFields(e *services.PartialFailureError) map[string]string {
	out := make(map[string]string, len(e.Failed))
	for _, f := range e.Failed {
		out[f.Write.Label()] = f.Err.Error()
	}
	return out
}

// idParam parses a positive int64 URL parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
