package questions

import (
	"context"
	"errors"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
)

// ErrNoQuestion means the catalog has no eligible question left for the
// given filters once exclusions are applied.
var ErrNoQuestion = errors.New("no eligible question found")

// Ref is the slice of the catalog's question record the engine needs.
type Ref struct {
	ID         int    `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Category   string `json:"category" yaml:"category"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
}

// Catalog is the query contract against the question service. The
// engine only ever picks; authoring and browsing live elsewhere.
type Catalog interface {
	PickQuestion(ctx context.Context, exclude []int, category, difficulty string) (*Ref, error)
}

// DifficultyForLevel maps a practice level to a catalog difficulty.
func DifficultyForLevel(level string) string {
	switch level {
	case models.LevelBeginner:
		return "easy"
	case models.LevelIntermediate:
		return "medium"
	case models.LevelAdvanced:
		return "hard"
	default:
		return "medium"
	}
}

func excluded(id int, exclude []int) bool {
	for _, e := range exclude {
		if e == id {
			return true
		}
	}
	return false
}
