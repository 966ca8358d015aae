package application

import (
	"context"
	"time"

	"mclink/internal/authority"
	"mclink/internal/clock"
	"mclink/internal/models"
	"mclink/internal/repository"
)

type LinkService interface {
	Start(ctx context.Context, chatID int64) (*StatusReport, error)
	Link(ctx context.Context, chatID int64, rawCode string) (*models.LinkRecord, error)
	Status(ctx context.Context, chatID int64) (*StatusReport, error)
	Unlink(ctx context.Context, chatID int64) (*UnlinkResult, error)
	Help(ctx context.Context) *HelpInfo
	RetryAfter(chatID int64) time.Duration
}

type StatusReport struct {
	Record      *models.LinkRecord
	CheckedAt   time.Time
	AuthorityUp bool
	Mode        string
}

func (r *StatusReport) Linked() bool {
	return r.Record != nil
}

type UnlinkResult struct {
	PlayerName string
	// LocalOnly is set when only the bot's cache was cleared and the game
	// server drops its own binding on the player's next login.
	LocalOnly bool
}

type HelpInfo struct {
	CodeTTL     time.Duration
	AuthorityUp bool
	Mode        string
}

// LinkServiceImpl owns the link rules: one player per chat, one chat per
// player, and the Unlinked -> Linked -> Unlinked transitions. With a remote
// authority the local store is only a cache of what the game server reports.
type LinkServiceImpl struct {
	links     repository.LinkStore
	authority authority.Authority
	directory authority.Directory
	chats     *chatLocks
	limiter   Limiter
	clock     clock.Clock
	codeTTL   time.Duration
	logger    Logger
}

func NewLinkServiceImpl(links repository.LinkStore, auth authority.Authority, limiter Limiter, clk clock.Clock, codeTTL time.Duration, logger Logger) *LinkServiceImpl {
	if clk == nil {
		clk = clock.New()
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}

	s := &LinkServiceImpl{
		links:     links,
		authority: auth,
		chats:     newChatLocks(),
		limiter:   limiter,
		clock:     clk,
		codeTTL:   codeTTL,
		logger:    logger,
	}
	if dir, ok := auth.(authority.Directory); ok {
		s.directory = dir
	}
	return s
}

func (s *LinkServiceImpl) Start(ctx context.Context, chatID int64) (*StatusReport, error) {
	if !s.limiter.Allow(chatID) {
		return nil, models.ErrRateLimited
	}
	return s.report(ctx, chatID), nil
}

func (s *LinkServiceImpl) Status(ctx context.Context, chatID int64) (*StatusReport, error) {
	if !s.limiter.Allow(chatID) {
		return nil, models.ErrRateLimited
	}
	return s.report(ctx, chatID), nil
}

func (s *LinkServiceImpl) Link(ctx context.Context, chatID int64, rawCode string) (*models.LinkRecord, error) {
	if !s.limiter.Allow(chatID) {
		return nil, models.ErrRateLimited
	}

	code, ok := CanonicalCode(rawCode)
	if !ok {
		return nil, models.ErrInvalidCodeFormat
	}

	if !s.authority.HealthCheck(ctx) {
		s.logger.Warn("Verification service is down, link attempt by %d skipped", chatID)
		return nil, models.ErrRemoteUnavailable
	}

	// held until Put so a second /link from the same chat sees this one
	unlock := s.chats.lock(chatID)
	defer unlock()

	if current := s.lookup(ctx, chatID); current != nil {
		return nil, &models.AlreadyLinkedError{PlayerName: current.PlayerName}
	}

	player, err := s.authority.Verify(ctx, code, chatID)
	if err != nil {
		s.logger.Info("Code verification for %d failed: %s", chatID, err.Error())
		return nil, err
	}

	s.links.Put(chatID, player.Name)
	s.logger.Info("Linked Telegram %d to player %s", chatID, player.Name)

	return &models.LinkRecord{ChatID: chatID, PlayerName: player.Name}, nil
}

func (s *LinkServiceImpl) Unlink(ctx context.Context, chatID int64) (*UnlinkResult, error) {
	if !s.limiter.Allow(chatID) {
		return nil, models.ErrRateLimited
	}

	unlock := s.chats.lock(chatID)
	defer unlock()

	current := s.lookup(ctx, chatID)
	if current == nil {
		return nil, models.ErrNotLinked
	}

	s.links.Remove(chatID)
	s.logger.Info("Unlinked Telegram %d from player %s", chatID, current.PlayerName)

	return &UnlinkResult{
		PlayerName: current.PlayerName,
		LocalOnly:  s.directory != nil,
	}, nil
}

func (s *LinkServiceImpl) Help(ctx context.Context) *HelpInfo {
	return &HelpInfo{
		CodeTTL:     s.codeTTL,
		AuthorityUp: s.authority.HealthCheck(ctx),
		Mode:        s.authority.Mode(),
	}
}

func (s *LinkServiceImpl) RetryAfter(chatID int64) time.Duration {
	return s.limiter.RetryAfter(chatID)
}

func (s *LinkServiceImpl) report(ctx context.Context, chatID int64) *StatusReport {
	record := s.lookup(ctx, chatID)
	return &StatusReport{
		Record:      record,
		CheckedAt:   s.clock.Now(),
		AuthorityUp: s.authority.HealthCheck(ctx),
		Mode:        s.authority.Mode(),
	}
}

// lookup returns the chat's current binding. The game server is asked first
// when it keeps the bindings, and its answer refreshes the local cache; the
// cache answers alone when the server cannot be reached.
func (s *LinkServiceImpl) lookup(ctx context.Context, chatID int64) *models.LinkRecord {
	if s.directory != nil {
		name, linked, err := s.directory.LinkedPlayer(ctx, chatID)
		if err == nil {
			return s.refreshCache(chatID, name, linked)
		}
		s.logger.Warn("Link lookup for %d failed, using cache: %s", chatID, err.Error())
	}

	name, ok := s.links.Get(chatID)
	if !ok {
		return nil
	}
	return &models.LinkRecord{ChatID: chatID, PlayerName: name}
}

func (s *LinkServiceImpl) refreshCache(chatID int64, name string, linked bool) *models.LinkRecord {
	cached, ok := s.links.Get(chatID)

	if !linked {
		if ok {
			s.links.Remove(chatID)
		}
		return nil
	}

	if !ok || cached != name {
		s.links.Put(chatID, name)
	}
	return &models.LinkRecord{ChatID: chatID, PlayerName: name}
}
