package ingest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mclink/internal/application"
	"mclink/internal/models"

	goerrors "github.com/goliatone/go-errors"
)

const maxRequestBytes = 16 << 10

type issueCodeRequest struct {
	Code       string `json:"code"`
	PlayerName string `json:"player_name"`
	PlayerUUID string `json:"player_uuid"`
	TelegramID *int64 `json:"telegram_id"`
}

type issueCodeResponse struct {
	Code       string    `json:"code"`
	PlayerName string    `json:"player_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type linkResponse struct {
	TelegramID int64  `json:"telegram_id"`
	PlayerName string `json:"player_name"`
}

type handler struct {
	codes  application.CodeService
	logger application.Logger
}

func newHandler(codes application.CodeService, logger application.Logger) *handler {
	return &handler{codes: codes, logger: logger}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// issueCode handles POST /api/codes
func (h *handler) issueCode(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, badRequest("malformed request body"))
		return
	}

	issued, err := h.codes.IssueCode(r.Context(), application.IssueRequest{
		Code:       req.Code,
		PlayerName: req.PlayerName,
		PlayerUUID: req.PlayerUUID,
		ChatIDHint: req.TelegramID,
	})
	if err != nil {
		if toServiceError(err).Category == goerrors.CategoryInternal {
			h.logger.Error("failed to issue code: %s", err.Error())
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueCodeResponse{
		Code:       issued.Code,
		PlayerName: issued.PlayerName,
		ExpiresAt:  issued.ExpiresAt.UTC(),
	})
}

// findLink handles GET /api/links?telegram_id= or ?player_name=
func (h *handler) findLink(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		record *models.LinkRecord
		err    error
	)
	switch {
	case query.Get("telegram_id") != "":
		chatID, perr := strconv.ParseInt(query.Get("telegram_id"), 10, 64)
		if perr != nil {
			writeError(w, badRequest("telegram_id must be an integer"))
			return
		}
		record, err = h.codes.LinkByChat(chatID)
	case strings.TrimSpace(query.Get("player_name")) != "":
		record, err = h.codes.LinkByPlayer(query.Get("player_name"))
	default:
		writeError(w, badRequest("telegram_id or player_name is required"))
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{TelegramID: record.ChatID, PlayerName: record.PlayerName})
}
