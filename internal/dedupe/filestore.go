package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

const (
	defaultHistoryFile   = "trending_urls.csv"
	defaultBlocklistFile = "blocklist.csv"
)

// FileStore is a SeenStore backed by two single-column text files: the history
// file, which doubles as the published output of every run, and a manually
// curated blocklist. The seen set is the union of both, recomputed from disk
// the first time it is needed in a run; once a URL enters either file it is
// seen forever.
//
// Relative file names are resolved against a fixed base directory decided at
// startup, never the process working directory. Single writer only; concurrent
// processes sharing the same files are unsupported.
type FileStore struct {
	baseDir       string
	historyPath   string
	blocklistPath string
	logger        *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{} // nil until loaded
}

func NewFileStore(baseDir, historyFile, blocklistFile string, logger *slog.Logger) (*FileStore, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, fmt.Errorf("state base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve state directory %q: %w", baseDir, err)
	}
	if historyFile == "" {
		historyFile = defaultHistoryFile
	}
	if blocklistFile == "" {
		blocklistFile = defaultBlocklistFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		baseDir: abs,
		logger:  logger,
	}
	s.historyPath = s.resolve(historyFile)
	s.blocklistPath = s.resolve(blocklistFile)
	return s, nil
}

// HistoryPath returns the absolute path of the history file.
func (s *FileStore) HistoryPath() string {
	return s.historyPath
}

// BlocklistPath returns the absolute path of the blocklist file.
func (s *FileStore) BlocklistPath() string {
	return s.blocklistPath
}

func (s *FileStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

// load unions the blocklist and history sets. A source that cannot be read is
// substituted with an empty set so a damaged state file degrades dedup
// coverage instead of aborting the run.
func (s *FileStore) load() {
	if s.seen != nil {
		return
	}
	s.seen = map[string]struct{}{}

	blocked, err := readColumn(s.logger, s.blocklistPath)
	if err != nil {
		s.logger.Warn("blocklist unreadable, continuing without it", "path", s.blocklistPath, "error", err)
		blocked = map[string]struct{}{}
	}
	history, err := readColumn(s.logger, s.historyPath)
	if err != nil {
		s.logger.Warn("history unreadable, continuing without it", "path", s.historyPath, "error", err)
		history = map[string]struct{}{}
	}
	for id := range blocked {
		s.seen[id] = struct{}{}
	}
	for id := range history {
		s.seen[id] = struct{}{}
	}
}

func (s *FileStore) HasSeen(ctx context.Context, id string) (bool, error) {
	_ = ctx
	if id == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	_, ok := s.seen[id]
	return ok, nil
}

func (s *FileStore) MarkSeen(ctx context.Context, id string) error {
	return s.MarkSeenBatch(ctx, []string{id})
}

// MarkSeenBatch appends the given ids to the history file in order, skipping
// blanks and ids already seen. When nothing survives the filter, no file
// operation occurs. On success the in-memory set is updated so the ids are
// seen for the remainder of the run.
func (s *FileStore) MarkSeenBatch(ctx context.Context, ids []string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	novel := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		novel = append(novel, id)
	}
	if len(novel) == 0 {
		return nil
	}
	if err := appendColumn(s.historyPath, headerToken, novel); err != nil {
		// The write failed, so these ids remain unseen on disk; the next
		// run reloads from the file and retries naturally.
		for _, id := range novel {
			delete(s.seen, id)
		}
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Block adds one URL to the blocklist file so it is suppressed from every
// future run. The operation is idempotent: a URL already present is left
// alone. An empty value after trimming is rejected with a log line.
func (s *FileStore) Block(ctx context.Context, id string) error {
	_ = ctx
	id = strings.TrimSpace(id)
	if id == "" {
		s.logger.Warn("refusing to blocklist empty url")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	blocked, err := readColumn(s.logger, s.blocklistPath)
	if err != nil {
		return fmt.Errorf("read blocklist: %w", err)
	}
	if _, ok := blocked[id]; ok {
		s.logger.Info("url already present in blocklist", "url", id)
		return nil
	}
	if err := appendColumn(s.blocklistPath, headerToken, []string{id}); err != nil {
		return fmt.Errorf("append blocklist: %w", err)
	}
	if s.seen != nil {
		s.seen[id] = struct{}{}
	}
	s.logger.Info("url added to blocklist", "url", id, "path", s.blocklistPath)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
