package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"mclink/internal/models"
	"mclink/internal/repository"
)

type nopLogger struct{}

func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Debug(format string, v ...interface{}) {}

func newMemStore() *repository.FileLinkStore {
	return repository.NewFileLinkStore(afero.NewMemMapFs(), "/data/bot_data.json", nopLogger{},
		repository.WithHomeDir(func() (string, error) { return "/home/bot", nil }),
		repository.WithTempDir(func() string { return "/tmp" }),
	)
}

// countingStore records every call that reaches the store
type countingStore struct {
	repository.LinkStore
	mu    sync.Mutex
	calls int
}

func (s *countingStore) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Get(chatID int64) (string, bool) { s.hit(); return s.LinkStore.Get(chatID) }
func (s *countingStore) Put(chatID int64, name string)    { s.hit(); s.LinkStore.Put(chatID, name) }
func (s *countingStore) Remove(chatID int64)              { s.hit(); s.LinkStore.Remove(chatID) }

type countingLedger struct {
	repository.CodeLedger
	calls int
}

func (l *countingLedger) Resolve(ctx context.Context, code string) (*models.PendingCode, error) {
	l.calls++
	return l.CodeLedger.Resolve(ctx, code)
}

func (l *countingLedger) Consume(ctx context.Context, code string) error {
	l.calls++
	return l.CodeLedger.Consume(ctx, code)
}

type allowAll struct{}

func (allowAll) Allow(int64) bool              { return true }
func (allowAll) RetryAfter(int64) time.Duration { return 0 }

// fakeRemote stands in for the game server: it verifies codes from a fixed
// table and keeps its own bindings.
type fakeRemote struct {
	mu          sync.Mutex
	codes       map[string]models.PlayerIdentity
	bindings    map[int64]string
	down        bool
	lookupErr   error
	verifyCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		codes:    make(map[string]models.PlayerIdentity),
		bindings: make(map[int64]string),
	}
}

func (f *fakeRemote) Verify(ctx context.Context, code string, chatID int64) (models.PlayerIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.down {
		return models.PlayerIdentity{}, models.ErrRemoteUnavailable
	}
	player, ok := f.codes[code]
	if !ok {
		return models.PlayerIdentity{}, &models.RemoteRejectedError{Reason: "Неверный код"}
	}
	delete(f.codes, code)
	f.bindings[chatID] = player.Name
	return player, nil
}

func (f *fakeRemote) HealthCheck(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.down
}

func (f *fakeRemote) Mode() string { return "remote" }

func (f *fakeRemote) LinkedPlayer(ctx context.Context, chatID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return "", false, f.lookupErr
	}
	name, ok := f.bindings[chatID]
	return name, ok, nil
}

func assertLinked(t *testing.T, svc LinkService, chatID int64, player string) {
	t.Helper()
	report, err := svc.Status(context.Background(), chatID)
	if assert.NoError(t, err) && assert.True(t, report.Linked(), "chat %d should be linked", chatID) {
		assert.Equal(t, player, report.Record.PlayerName)
	}
}

func assertUnlinked(t *testing.T, svc LinkService, chatID int64) {
	t.Helper()
	report, err := svc.Status(context.Background(), chatID)
	if assert.NoError(t, err) {
		assert.False(t, report.Linked(), "chat %d should not be linked", chatID)
	}
}
