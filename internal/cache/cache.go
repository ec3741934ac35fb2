/*

This file contains the content-addressed cache of reconciled asset tables.
The layout is a hash log mapping document hash to consuming evaluation IDs
(append-only, for audit) and one serialized AssetTable file per unique
document hash. A hash membership test runs before any expensive extraction
work; a hit short-circuits the whole pipeline.

*/

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/types"
)

const (
	hashLogName   = "pdfhash_id.log"
	tablesDirName = "asset_tables"
)

var ErrEmptyHash = errors.New("document hash cannot be empty")

var cacheLogger = logger.GetForComponent("result_cache")

// Store is the on-disk content-addressed cache. Writes go through a mutex;
// concurrent evaluation of the same document resolves last-writer-wins,
// which is acceptable because reconciliation is deterministic for a fixed
// candidate set.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore opens (creating if needed) a cache rooted at dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, tablesDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Lookup returns the cached AssetTable for a document hash. A hash present
// in the log whose table file is missing or unreadable is treated as a
// cache miss, not an error: the evaluation falls back to full re-extraction.
func (s *Store) Lookup(hash string) (types.AssetTable, bool, error) {
	if hash == "" {
		return types.AssetTable{}, false, ErrEmptyHash
	}

	logged, err := s.hashLogged(hash)
	if err != nil {
		return types.AssetTable{}, false, err
	}
	if !logged {
		return types.AssetTable{}, false, nil
	}

	raw, err := os.ReadFile(s.tablePath(hash))
	if err != nil {
		cacheLogger.Warn().
			Str("hash", hash).
			Err(err).
			Msg("Hash logged but table file unreadable, treating as cache miss")
		return types.AssetTable{}, false, nil
	}

	var table types.AssetTable
	if err := json.Unmarshal(raw, &table); err != nil {
		cacheLogger.Warn().
			Str("hash", hash).
			Err(err).
			Msg("Cached table file corrupt, treating as cache miss")
		return types.AssetTable{}, false, nil
	}

	cacheLogger.Info().Str("hash", hash).Msg("Cache hit, extraction short-circuited")
	return table, true, nil
}

// Put stores the reconciled table for a document hash and appends the
// hash/evaluation pair to the audit log. The table file is written (via a
// temp file rename) before the log line is appended so a logged hash never
// refers to a job that did not complete.
func (s *Store) Put(hash, evalID string, table types.AssetTable) error {
	if hash == "" {
		return ErrEmptyHash
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal asset table: %w", err)
	}

	tablePath := s.tablePath(hash)
	tmpPath := tablePath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write table file: %w", err)
	}
	if err := os.Rename(tmpPath, tablePath); err != nil {
		return fmt.Errorf("failed to move table file into place: %w", err)
	}

	logFile, err := os.OpenFile(s.logPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open hash log: %w", err)
	}
	defer logFile.Close()
	if _, err := fmt.Fprintf(logFile, "%s_%s\n", hash, evalID); err != nil {
		return fmt.Errorf("failed to append to hash log: %w", err)
	}

	cacheLogger.Info().
		Str("hash", hash).
		Str("evalID", evalID).
		Msg("Cached reconciled asset table")
	return nil
}

// hashLogged scans the append-only log for the hash.
func (s *Store) hashLogged(hash string) (bool, error) {
	raw, err := os.ReadFile(s.logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read hash log: %w", err)
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hashPart, _, found := strings.Cut(line, "_"); found && hashPart == hash {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) logPath() string {
	return filepath.Join(s.dir, hashLogName)
}

func (s *Store) tablePath(hash string) string {
	return filepath.Join(s.dir, tablesDirName, hash+".json")
}
