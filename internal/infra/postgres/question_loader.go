package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-cricket-service/internal/domain"
)

// QuestionLoader reads the question bank from the question_bank table,
// where each row carries one question as a json document. Operators
// seed the table with the migrate command.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM question_bank ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query question bank: %w", err)
	}
	defer rows.Close()

	var bank []domain.Question
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		bank = append(bank, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, domain.ErrBankTooSmall
	}
	return bank, nil
}

// SeedBank replaces the stored bank with the given questions.
func SeedBank(ctx context.Context, pool *pgxpool.Pool, bank []domain.Question) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE question_bank`); err != nil {
		return fmt.Errorf("truncate question_bank: %w", err)
	}
	for _, q := range bank {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %d: %w", q.ID, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO question_bank (id, data) VALUES ($1, $2)`, q.ID, data); err != nil {
			return fmt.Errorf("insert question %d: %w", q.ID, err)
		}
	}
	return tx.Commit(ctx)
}
