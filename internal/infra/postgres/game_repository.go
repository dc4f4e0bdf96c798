package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"quiz-cricket-service/internal/domain"
)

// gameRow stores the finished match as a jsonb document alongside the
// columns the API queries on.
type gameRow struct {
	bun.BaseModel `bun:"table:games"`

	ID        string    `bun:"id,pk"`
	Data      []byte    `bun:"data,type:jsonb,notnull"`
	Timestamp time.Time `bun:"timestamp,notnull"`
}

// GameRepository persists completed match records.
type GameRepository struct {
	db *bun.DB
}

func NewGameRepository(db *bun.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Save(ctx context.Context, rec domain.MatchRecord) (domain.MatchRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("encode match record: %w", err)
	}

	row := &gameRow{ID: rec.ID, Data: data, Timestamp: rec.Timestamp}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("insert game %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (r *GameRepository) History(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	q := r.db.NewSelect().Model((*gameRow)(nil)).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []gameRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("query game history: %w", err)
	}

	recs := make([]domain.MatchRecord, 0, len(rows))
	for _, row := range rows {
		var rec domain.MatchRecord
		if err := json.Unmarshal(row.Data, &rec); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", row.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *GameRepository) ByID(ctx context.Context, id string) (domain.MatchRecord, error) {
	row := new(gameRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatchRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.MatchRecord{}, fmt.Errorf("query game %s: %w", id, err)
	}

	var rec domain.MatchRecord
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("decode game %s: %w", id, err)
	}
	return rec, nil
}
