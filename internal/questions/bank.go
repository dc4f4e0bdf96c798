package questions

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"quiz-cricket-service/internal/domain"
)

//go:embed bank.yaml
var rawBank []byte

type bankFile struct {
	Questions []bankQuestion `yaml:"questions"`
}

type bankQuestion struct {
	ID      int                    `yaml:"id"`
	Text    string                 `yaml:"text"`
	Choices []string               `yaml:"choices"`
	Correct int                    `yaml:"correct"`
	Runs    int                    `yaml:"runs"`
	Stage   domain.TournamentStage `yaml:"stage"`
}

var (
	bankOnce sync.Once
	bank     []domain.Question
	bankErr  error
)

// Bank returns the embedded master question list. The slice is a copy; the
// caller may reorder it freely.
func Bank() ([]domain.Question, error) {
	bankOnce.Do(func() {
		bank, bankErr = ParseBank(rawBank)
	})
	if bankErr != nil {
		return nil, bankErr
	}
	return append([]domain.Question(nil), bank...), nil
}

// ParseBank decodes a YAML question bank.
func ParseBank(data []byte) ([]domain.Question, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	out := make([]domain.Question, 0, len(f.Questions))
	for _, q := range f.Questions {
		if len(q.Choices) == 0 || q.Correct < 0 || q.Correct >= len(q.Choices) {
			return nil, fmt.Errorf("question %d: bad choices", q.ID)
		}
		out = append(out, domain.Question{
			ID:           q.ID,
			Text:         q.Text,
			Choices:      q.Choices,
			CorrectIndex: q.Correct,
			Runs:         q.Runs,
			Stage:        q.Stage,
		})
	}
	return out, nil
}
