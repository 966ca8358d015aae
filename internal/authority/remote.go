package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mclink/internal/models"

	"github.com/google/uuid"
)

const maxResponseBytes = 64 << 10

type verifyRequest struct {
	Code       string `json:"code"`
	TelegramID int64  `json:"telegram_id"`
}

type playerResponse struct {
	PlayerName string `json:"player_name"`
	PlayerUUID string `json:"player_uuid"`
	Error      string `json:"error"`
}

// Remote delegates verification to the game server's HTTP API. The server
// owns code expiry and the bindings themselves; its answers are final.
type Remote struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	verifyTimeout time.Duration
	healthTimeout time.Duration
	logger        Logger
}

var (
	_ Authority = (*Remote)(nil)
	_ Directory = (*Remote)(nil)
)

func NewRemote(cfg *Config, client *http.Client, logger Logger) (*Remote, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid verification service url %q", cfg.BaseURL)
	}
	if client == nil {
		client = &http.Client{}
	}

	verifyTimeout := cfg.VerifyTimeout
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultVerifyTimeout
	}
	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}

	return &Remote{
		baseURL:       base,
		apiKey:        cfg.APIKey,
		client:        client,
		verifyTimeout: verifyTimeout,
		healthTimeout: healthTimeout,
		logger:        logger,
	}, nil
}

func (r *Remote) Mode() string {
	return ModeRemote
}

func (r *Remote) Verify(ctx context.Context, code string, chatID int64) (models.PlayerIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.verifyTimeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{Code: code, TelegramID: chatID})
	if err != nil {
		return models.PlayerIdentity{}, fmt.Errorf("failed to encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return models.PlayerIdentity{}, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("verify request failed: %s", err.Error())
		return models.PlayerIdentity{}, fmt.Errorf("%w: %w", models.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	var payload playerResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decodeErr != nil || strings.TrimSpace(payload.PlayerName) == "" {
			r.logger.Warn("verify returned a malformed body for chat %d", chatID)
			return models.PlayerIdentity{}, fmt.Errorf("%w: malformed verify response", models.ErrRemoteUnavailable)
		}
		return models.PlayerIdentity{
			Name: strings.TrimSpace(payload.PlayerName),
			UUID: normalizeUUID(payload.PlayerUUID),
		}, nil

	case resp.StatusCode >= http.StatusInternalServerError:
		return models.PlayerIdentity{}, fmt.Errorf("%w: status %d", models.ErrRemoteUnavailable, resp.StatusCode)

	default:
		return models.PlayerIdentity{}, &models.RemoteRejectedError{Reason: strings.TrimSpace(payload.Error)}
	}
}

// LinkedPlayer asks the game server which player the chat is bound to.
func (r *Remote) LinkedPlayer(ctx context.Context, chatID int64) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()

	endpoint := r.baseURL + "/links?telegram_id=" + strconv.FormatInt(chatID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build links request: %w", err)
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", models.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload playerResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
			return "", false, fmt.Errorf("%w: malformed links response: %w", models.ErrRemoteUnavailable, err)
		}
		name := strings.TrimSpace(payload.PlayerName)
		return name, name != "", nil
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: status %d", models.ErrRemoteUnavailable, resp.StatusCode)
	}
}

func (r *Remote) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("health check failed: %s", err.Error())
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	return resp.StatusCode == http.StatusOK
}

func (r *Remote) authorize(req *http.Request) {
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
}

func normalizeUUID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}
