package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"quiz-cricket-service/internal/domain"
)

// GameStore is the write-through pair of game repositories: a primary
// (Postgres) and a local durable fallback. A failed primary write lands in
// the fallback instead of surfacing as an error; reads prefer the primary
// and fall back the same way.
type GameStore struct {
	primary  GameRepository
	fallback GameRepository
}

// NewGameStore builds the store. Either repository may be nil.
func NewGameStore(primary, fallback GameRepository) *GameStore {
	return &GameStore{primary: primary, fallback: fallback}
}

// Save persists a completed match record. usedFallback reports that the
// record went to the local store because the primary failed or is absent.
func (g *GameStore) Save(ctx context.Context, rec domain.MatchRecord) (domain.MatchRecord, bool, error) {
	if g.primary != nil {
		saved, err := g.primary.Save(ctx, rec)
		if err == nil {
			return saved, false, nil
		}
		log.Printf("primary game save failed, using local store: %v", err)
	}
	if g.fallback == nil {
		return domain.MatchRecord{}, false, errors.New("no game repository configured")
	}
	saved, err := g.fallback.Save(ctx, rec)
	return saved, true, err
}

// History returns the most recent completed matches, newest first.
func (g *GameStore) History(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	if g.primary != nil {
		recs, err := g.primary.History(ctx, limit)
		if err == nil {
			return recs, nil
		}
		log.Printf("primary game history failed, using local store: %v", err)
	}
	if g.fallback == nil {
		return []domain.MatchRecord{}, nil
	}
	return g.fallback.History(ctx, limit)
}

// ByID fetches one match record. Locally saved records carry a "local_"
// prefixed ID and are served from the fallback directly.
func (g *GameStore) ByID(ctx context.Context, id string) (domain.MatchRecord, error) {
	local := strings.HasPrefix(id, "local_")
	if g.primary != nil && !local {
		rec, err := g.primary.ByID(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrGameNotFound) {
			log.Printf("primary game lookup failed, using local store: %v", err)
		}
	}
	if g.fallback == nil {
		return domain.MatchRecord{}, domain.ErrGameNotFound
	}
	return g.fallback.ByID(ctx, id)
}
