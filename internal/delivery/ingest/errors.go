package ingest

import (
	"encoding/json"
	"errors"
	"net/http"

	"mclink/internal/application"
	"mclink/internal/models"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeBadRequest   = "BAD_REQUEST"
	textCodeUnauthorized = "UNAUTHORIZED"
	textCodeRateLimited  = "RATE_LIMITED"
	textCodeNotFound     = "LINK_NOT_FOUND"
	textCodeInternal     = "INTERNAL_ERROR"
)

var errorMappers = []goerrors.ErrorMapper{mapLinkErrors}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func badRequest(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeBadRequest)
}

func internalError() *goerrors.Error {
	return goerrors.New("internal error", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(textCodeInternal)
}

func mapLinkErrors(err error) *goerrors.Error {
	switch {
	case errors.Is(err, models.ErrInvalidCodeFormat):
		return badRequest("code must be 8 latin letters or digits")
	case errors.Is(err, application.ErrPlayerNameRequired):
		return badRequest("player_name is required")
	case errors.Is(err, application.ErrInvalidPlayerUUID):
		return badRequest("player_uuid is not a valid uuid")
	case errors.Is(err, models.ErrNotLinked):
		return goerrors.New("link not found", goerrors.CategoryNotFound).
			WithCode(http.StatusNotFound).
			WithTextCode(textCodeNotFound)
	default:
		return nil
	}
}

// toServiceError maps domain errors onto API errors. Anything unknown comes
// back as an internal error.
func toServiceError(err error) *goerrors.Error {
	return goerrors.MapToError(err, errorMappers)
}

func writeError(w http.ResponseWriter, err error) {
	rich := toServiceError(err)

	message := rich.Message
	if rich.Category == goerrors.CategoryInternal {
		message = "internal error"
	}
	writeJSON(w, rich.Code, errorResponse{Error: rich.TextCode, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
