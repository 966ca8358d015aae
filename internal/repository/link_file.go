package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"mclink/internal/models"

	"github.com/spf13/afero"
)

const snapshotFileMode = 0o600

type snapshot struct {
	Links map[string]string `json:"links"`
}

type FileStoreOption func(*FileLinkStore)

// WithHomeDir overrides how the home directory fallback is resolved.
func WithHomeDir(fn func() (string, error)) FileStoreOption {
	return func(s *FileLinkStore) { s.homeDir = fn }
}

// WithTempDir overrides how the temporary directory fallback is resolved.
func WithTempDir(fn func() string) FileStoreOption {
	return func(s *FileLinkStore) { s.tempDir = fn }
}

// FileLinkStore keeps every link in memory and writes the whole set as one
// JSON snapshot after each change. The write goes to "<path>.tmp" and is then
// renamed over the target so readers never see a partial file.
//
// When the target cannot be written the store tries the same file name in the
// home directory and then in the temporary directory. The first location that
// works is used for all later saves.
type FileLinkStore struct {
	mu         sync.RWMutex
	fs         afero.Fs
	links      map[int64]string
	configured string
	path       string
	homeDir    func() (string, error)
	tempDir    func() string
	logger     Logger
}

var _ LinkStore = (*FileLinkStore)(nil)

func NewFileLinkStore(fs afero.Fs, path string, logger Logger, opts ...FileStoreOption) *FileLinkStore {
	s := &FileLinkStore{
		fs:         fs,
		links:      make(map[int64]string),
		configured: path,
		path:       path,
		homeDir:    os.UserHomeDir,
		tempDir:    os.TempDir,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileLinkStore) Get(chatID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.links[chatID]
	return name, ok
}

// Put binds chatID to playerName. Any other chat bound to the same player
// (compared case-insensitively, as game servers do) is unbound first.
func (s *FileLinkStore) Put(chatID int64, playerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, name := range s.links {
		if id != chatID && strings.EqualFold(name, playerName) {
			delete(s.links, id)
			s.logger.Info("Evicted link %d -> %s in favour of chat %d", id, name, chatID)
		}
	}
	s.links[chatID] = playerName

	s.persist()
}

func (s *FileLinkStore) Remove(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[chatID]; !ok {
		return
	}
	delete(s.links, chatID)

	s.persist()
}

func (s *FileLinkStore) FindByPlayer(playerName string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, name := range s.links {
		if strings.EqualFold(name, playerName) {
			return id, true
		}
	}
	return 0, false
}

func (s *FileLinkStore) All() []models.LinkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.LinkRecord, 0, len(s.links))
	for id, name := range s.links {
		records = append(records, models.LinkRecord{ChatID: id, PlayerName: name})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChatID < records[j].ChatID })
	return records
}

// Path returns the location the next save will try first.
func (s *FileLinkStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Load reads the newest snapshot found among the candidate locations. A
// missing snapshot leaves the store empty; a corrupt one is logged and
// ignored.
func (s *FileLinkStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, found := s.newestSnapshot()
	if !found {
		s.logger.Info("No links snapshot found, starting empty")
		return
	}
	s.path = path

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		s.logger.Error("failed to read links from %s: %s", path, err.Error())
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Error("links snapshot %s is malformed, starting empty: %s", path, err.Error())
		return
	}

	links := make(map[int64]string, len(snap.Links))
	for key, name := range snap.Links {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || name == "" {
			s.logger.Warn("Skipping malformed link entry %q -> %q", key, name)
			continue
		}
		links[id] = name
	}
	s.links = links

	s.logger.Info("Loaded %d links from %s", len(links), path)
}

// Save writes the snapshot to the first candidate location that accepts it.
// The error wraps models.ErrStorageWriteFailed when every location failed.
func (s *FileLinkStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *FileLinkStore) persist() {
	if err := s.save(); err != nil {
		s.logger.Error("links kept in memory only: %s", err.Error())
	}
}

// save must be called with mu held.
func (s *FileLinkStore) save() error {
	snap := snapshot{Links: make(map[string]string, len(s.links))}
	for id, name := range s.links {
		snap.Links[strconv.FormatInt(id, 10)] = name
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageWriteFailed, err)
	}

	var errs []error
	for _, path := range s.candidates(s.path) {
		if err := s.writeAtomic(path, data); err != nil {
			s.logger.Warn("failed to save links to %s: %s", path, err.Error())
			errs = append(errs, err)
			continue
		}

		if path != s.path {
			s.logger.Info("Links saved to fallback location %s", path)
			s.path = path
		}
		return nil
	}

	return fmt.Errorf("%w: %w", models.ErrStorageWriteFailed, errors.Join(errs...))
}

func (s *FileLinkStore) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, snapshotFileMode)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return err
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}

// candidates lists save locations in order: first, then the home and temp
// fallbacks, without duplicates.
func (s *FileLinkStore) candidates(first string) []string {
	base := filepath.Base(s.configured)
	paths := []string{first}

	if s.homeDir != nil {
		if home, err := s.homeDir(); err == nil && home != "" {
			paths = append(paths, filepath.Join(home, base))
		}
	}
	if s.tempDir != nil {
		if tmp := s.tempDir(); tmp != "" {
			paths = append(paths, filepath.Join(tmp, base))
		}
	}

	seen := make(map[string]struct{}, len(paths))
	unique := paths[:0]
	for _, p := range paths {
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

func (s *FileLinkStore) newestSnapshot() (string, bool) {
	var (
		newest   string
		newestAt time.Time
		found    bool
	)
	for _, path := range s.candidates(s.configured) {
		info, err := s.fs.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if !found || info.ModTime().After(newestAt) {
			newest, newestAt, found = path, info.ModTime(), true
		}
	}
	return newest, found
}
