package questions

import (
	"math/rand"

	"quiz-cricket-service/internal/domain"
)

// PoolConfig shapes the per-innings pools. The extras mix is fixed policy:
// two wides and one no-ball per pool.
type PoolConfig struct {
	Size    int
	Wides   int
	NoBalls int
}

// DefaultPoolConfig returns the standard 15-question pool with 3 extras.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Size: 15, Wides: 2, NoBalls: 1}
}

// Pools holds the two disjoint per-innings question sets. First is numbered
// 1..Size, Second Size+1..2*Size, so ball numbers map stably to questions
// within an innings.
type Pools struct {
	First  []domain.Question
	Second []domain.Question
}

// ForInnings returns the pool used by the given innings (1 or 2).
func (p Pools) ForInnings(innings int) []domain.Question {
	if innings == 2 {
		return p.Second
	}
	return p.First
}

// Find returns the question with the given local ID from either pool.
func (p Pools) Find(id int) (domain.Question, bool) {
	for _, pool := range [][]domain.Question{p.First, p.Second} {
		for _, q := range pool {
			if q.ID == id {
				return q, true
			}
		}
	}
	return domain.Question{}, false
}

// Generate partitions the bank into two disjoint pools for a match at the
// given stage. Questions are filtered by stage first; if fewer than two
// pools' worth match, the full bank is used instead and degraded reports
// true (a logged condition, not an error). Each pool gets sequential local
// IDs and exactly cfg.Wides+cfg.NoBalls randomly placed extras with their
// runs value forced to zero; the bonus run for an extra is decided at
// resolution time, not here.
func Generate(bank []domain.Question, stage domain.TournamentStage, cfg PoolConfig, rng *rand.Rand) (Pools, bool, error) {
	need := 2 * cfg.Size

	source := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if q.Stage == stage {
			source = append(source, q)
		}
	}
	degraded := false
	if len(source) < need {
		degraded = true
		source = append(source[:0:0], bank...)
	}
	if len(source) < need {
		return Pools{}, degraded, domain.ErrBankTooSmall
	}

	rng.Shuffle(len(source), func(i, j int) {
		source[i], source[j] = source[j], source[i]
	})

	first := renumber(source[:cfg.Size], 1)
	second := renumber(source[cfg.Size:need], cfg.Size+1)
	markExtras(first, cfg, rng)
	markExtras(second, cfg, rng)
	return Pools{First: first, Second: second}, degraded, nil
}

func renumber(src []domain.Question, start int) []domain.Question {
	out := make([]domain.Question, len(src))
	for i, q := range src {
		q.ID = start + i
		q.Type = ""
		out[i] = q
	}
	return out
}

// markExtras picks distinct random slots: the first cfg.Wides become wides,
// the rest no-balls. Extras score nothing from the question itself.
func markExtras(pool []domain.Question, cfg PoolConfig, rng *rand.Rand) {
	total := cfg.Wides + cfg.NoBalls
	if total > len(pool) {
		total = len(pool)
	}
	slots := rng.Perm(len(pool))[:total]
	for i, slot := range slots {
		if i < cfg.Wides {
			pool[slot].Type = domain.ExtraWide
		} else {
			pool[slot].Type = domain.ExtraNoBall
		}
		pool[slot].Runs = 0
	}
}
