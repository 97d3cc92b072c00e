package questions

import (
	"context"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticCatalog serves questions from an in-memory list, loaded from a
// YAML seed file. Used for local development and tests when no
// question service is configured.
type StaticCatalog struct {
	questions []Ref
}

func NewStaticCatalog(questions []Ref) *StaticCatalog {
	return &StaticCatalog{questions: questions}
}

// LoadStaticCatalog reads a YAML seed file of the form:
//
//	questions:
//	  - id: 1
//	    title: Two Sum
//	    category: data-structures-algorithms
//	    difficulty: easy
func LoadStaticCatalog(path string) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed struct {
		Questions []Ref `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return NewStaticCatalog(seed.Questions), nil
}

func (c *StaticCatalog) PickQuestion(_ context.Context, exclude []int, category, difficulty string) (*Ref, error) {
	eligible := make([]Ref, 0, len(c.questions))
	for _, q := range c.questions {
		if category != "" && !strings.EqualFold(q.Category, category) {
			continue
		}
		if difficulty != "" && !strings.EqualFold(q.Difficulty, difficulty) {
			continue
		}
		if excluded(q.ID, exclude) {
			continue
		}
		eligible = append(eligible, q)
	}

	if len(eligible) == 0 {
		return nil, ErrNoQuestion
	}
	picked := eligible[rand.Intn(len(eligible))]
	return &picked, nil
}
