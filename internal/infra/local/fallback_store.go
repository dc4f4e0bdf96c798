package local

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/google/uuid"

	"quiz-cricket-service/internal/app"
	"quiz-cricket-service/internal/domain"
)

// LocalIDPrefix marks records that were saved to local disk rather than
// the primary database, so lookups can be routed back here.
const LocalIDPrefix = "local_"

// Store is the on-disk fallback for finished games and in-progress
// resume snapshots. Every record is an atomically written json file
// under the data directory, with an index file ordering the games.
type Store struct {
	storage *storage.Storage

	mu sync.Mutex // guards index read-modify-write
}

type gameIndex struct {
	IDs []string `json:"ids"` // newest first
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{storage: storage.New(dataDir, nil)}, nil
}

// Save stores a finished match under a local id.
func (s *Store) Save(ctx context.Context, rec domain.MatchRecord) (domain.MatchRecord, error) {
	if rec.ID == "" || !isLocalID(rec.ID) {
		rec.ID = LocalIDPrefix + uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SaveDataFile(gameFile(rec.ID), &rec); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("storage.SaveDataFile: %w", err)
	}

	var idx gameIndex
	if err := s.storage.ReadDataFile(indexFile, &idx); err != nil && !os.IsNotExist(err) {
		return domain.MatchRecord{}, fmt.Errorf("read game index: %w", err)
	}
	idx.IDs = append([]string{rec.ID}, idx.IDs...)
	if err := s.storage.SaveDataFile(indexFile, &idx); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("write game index: %w", err)
	}
	return rec, nil
}

// History returns saved games newest first.
func (s *Store) History(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx gameIndex
	if err := s.storage.ReadDataFile(indexFile, &idx); err != nil {
		if os.IsNotExist(err) {
			return []domain.MatchRecord{}, nil
		}
		return nil, fmt.Errorf("read game index: %w", err)
	}

	ids := idx.IDs
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	recs := make([]domain.MatchRecord, 0, len(ids))
	for _, id := range ids {
		var rec domain.MatchRecord
		if err := s.storage.ReadDataFile(gameFile(id), &rec); err != nil {
			if os.IsNotExist(err) {
				// index entry without a file; skip it
				continue
			}
			return nil, fmt.Errorf("read game %s: %w", id, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Store) ByID(ctx context.Context, id string) (domain.MatchRecord, error) {
	var rec domain.MatchRecord
	if err := s.storage.ReadDataFile(gameFile(id), &rec); err != nil {
		if os.IsNotExist(err) {
			return domain.MatchRecord{}, domain.ErrGameNotFound
		}
		return domain.MatchRecord{}, fmt.Errorf("read game %s: %w", id, err)
	}
	return rec, nil
}

// SaveState stores an in-progress match snapshot under its resume key.
func (s *Store) SaveState(ctx context.Context, key string, state app.ResumeState) error {
	if err := s.storage.SaveDataFile(resumeFile(key), &state); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	return nil
}

func (s *Store) LoadState(ctx context.Context, key string) (app.ResumeState, bool, error) {
	var state app.ResumeState
	if err := s.storage.ReadDataFile(resumeFile(key), &state); err != nil {
		if os.IsNotExist(err) {
			return app.ResumeState{}, false, nil
		}
		return app.ResumeState{}, false, fmt.Errorf("read resume state: %w", err)
	}
	return state, true, nil
}

func (s *Store) ClearState(ctx context.Context, key string) error {
	// overwrite with an empty tombstone, then unlink the file
	path := resumeFile(key)
	if err := s.storage.SaveDataFile(path, &app.ResumeState{}); err != nil {
		return fmt.Errorf("storage.SaveDataFile (tombstone): %w", err)
	}
	if err := os.Remove(filepath.Join(s.storage.Dir(), path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove resume state: %w", err)
	}
	return nil
}

func isLocalID(id string) bool {
	return len(id) > len(LocalIDPrefix) && id[:len(LocalIDPrefix)] == LocalIDPrefix
}

const indexFile = "games/index.json"

func gameFile(id string) string {
	return filepath.Join("games", url.PathEscape(id)+".json")
}

func resumeFile(key string) string {
	return filepath.Join("resume", url.PathEscape(key)+".json")
}
