package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mclink/internal/clock"
	"mclink/internal/models"
	"mclink/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrInvalidPlayerUUID  = errors.New("player uuid is malformed")
)

// CodeService is the game-server side of local verification: it stores the
// codes the server hands out and answers which player a chat is bound to.
type CodeService interface {
	IssueCode(ctx context.Context, req IssueRequest) (*models.PendingCode, error)
	LinkByChat(chatID int64) (*models.LinkRecord, error)
	LinkByPlayer(playerName string) (*models.LinkRecord, error)
}

type IssueRequest struct {
	// Code is generated when empty
	Code       string
	PlayerName string
	PlayerUUID string
	ChatIDHint *int64
}

type CodeServiceImpl struct {
	ledger  repository.CodeLedger
	links   repository.LinkStore
	clock   clock.Clock
	codeTTL time.Duration
	logger  Logger
}

func NewCodeServiceImpl(ledger repository.CodeLedger, links repository.LinkStore, clk clock.Clock, codeTTL time.Duration, logger Logger) *CodeServiceImpl {
	if clk == nil {
		clk = clock.New()
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &CodeServiceImpl{
		ledger:  ledger,
		links:   links,
		clock:   clk,
		codeTTL: codeTTL,
		logger:  logger,
	}
}

func (s *CodeServiceImpl) IssueCode(ctx context.Context, req IssueRequest) (*models.PendingCode, error) {
	playerName := strings.TrimSpace(req.PlayerName)
	if playerName == "" {
		return nil, ErrPlayerNameRequired
	}

	playerUUID := strings.TrimSpace(req.PlayerUUID)
	if playerUUID != "" {
		id, err := uuid.Parse(playerUUID)
		if err != nil {
			return nil, ErrInvalidPlayerUUID
		}
		playerUUID = id.String()
	}

	if err := s.ledger.Sweep(ctx, s.clock.Now()); err != nil {
		s.logger.Warn("code sweep failed: %s", err.Error())
	}

	var code string
	if strings.TrimSpace(req.Code) != "" {
		canonical, ok := CanonicalCode(req.Code)
		if !ok {
			return nil, models.ErrInvalidCodeFormat
		}
		code = canonical
	} else {
		generated, err := s.freshCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	pending := models.PendingCode{
		Code:       code,
		ChatIDHint: req.ChatIDHint,
		PlayerName: playerName,
		PlayerUUID: playerUUID,
	}
	if err := s.ledger.Issue(ctx, pending, s.codeTTL); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}

	issued, err := s.ledger.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("issued code vanished: %w", err)
	}

	s.logger.Info("Issued link code for player %s", playerName)
	return issued, nil
}

func (s *CodeServiceImpl) LinkByChat(chatID int64) (*models.LinkRecord, error) {
	name, ok := s.links.Get(chatID)
	if !ok {
		return nil, models.ErrNotLinked
	}
	return &models.LinkRecord{ChatID: chatID, PlayerName: name}, nil
}

func (s *CodeServiceImpl) LinkByPlayer(playerName string) (*models.LinkRecord, error) {
	chatID, ok := s.links.FindByPlayer(strings.TrimSpace(playerName))
	if !ok {
		return nil, models.ErrNotLinked
	}
	name, _ := s.links.Get(chatID)
	return &models.LinkRecord{ChatID: chatID, PlayerName: name}, nil
}

// freshCode draws random codes until one is not pending already
func (s *CodeServiceImpl) freshCode(ctx context.Context) (string, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}

		_, err = s.ledger.Resolve(ctx, code)
		switch {
		case errors.Is(err, models.ErrCodeNotFound), errors.Is(err, models.ErrCodeExpired):
			return code, nil
		case err != nil:
			return "", fmt.Errorf("failed to check code: %w", err)
		}
	}
	return "", fmt.Errorf("no free code after %d attempts", codeGenerationAttempts)
}
