// Package stimulus builds randomized trial sequences for each task family.
package stimulus

import (
	"fmt"
	"math/rand"

	"cogbattery/internal/models"
)

// Generator produces a fresh trial for a difficulty value.
type Generator interface {
	Generate(difficulty int) models.TrialSpec
	// Length is the number of items Generate yields for a difficulty.
	Length(difficulty int) int
}

// New returns the generator for a task definition.
func New(def models.TaskDefinition, rnd *rand.Rand) (Generator, error) {
	switch def.Family {
	case models.FamilyRecall:
		return &Recall{Alphabet: def.Alphabet, rnd: rnd}, nil
	case models.FamilyCounting:
		return &Counting{Categories: def.Categories, Levels: def.Levels, rnd: rnd}, nil
	case models.FamilySpatial:
		return &Spatial{Rows: def.Levels, Cols: def.Columns, Pool: def.Tiles, rnd: rnd}, nil
	case models.FamilyDeductive:
		return &Deductive{Puzzles: def.Puzzles}, nil
	default:
		return nil, fmt.Errorf("stimulus: no generator for family %q", def.Family)
	}
}

// Recall draws span-length sequences with replacement from a fixed alphabet.
type Recall struct {
	Alphabet []string
	rnd      *rand.Rand
}

// NewRecall returns a recall generator over alphabet.
func NewRecall(alphabet []string, rnd *rand.Rand) *Recall {
	return &Recall{Alphabet: alphabet, rnd: rnd}
}

func (g *Recall) Length(difficulty int) int {
	if difficulty < 0 {
		return 0
	}
	return difficulty
}

func (g *Recall) Generate(difficulty int) models.TrialSpec {
	n := g.Length(difficulty)
	items := make([]models.Item, 0, n)
	sequence := make([]string, 0, n)
	for i := 0; i < n; i++ {
		token := g.Alphabet[g.rnd.Intn(len(g.Alphabet))]
		items = append(items, models.Item{Token: token})
		sequence = append(sequence, token)
	}
	return models.TrialSpec{
		Difficulty: difficulty,
		Items:      items,
		Truth:      models.GroundTruth{Sequence: sequence},
	}
}

// Counting draws a level-sized sequence from three categories and keeps
// the per-category totals as ground truth.
type Counting struct {
	Categories []string
	Levels     []int
	rnd        *rand.Rand
}

// NewCounting returns a counting generator. levels[i] is the item count of
// level i+1.
func NewCounting(categories []string, levels []int, rnd *rand.Rand) *Counting {
	return &Counting{Categories: categories, Levels: levels, rnd: rnd}
}

func (g *Counting) Length(level int) int {
	if level < 1 || level > len(g.Levels) {
		return 0
	}
	return g.Levels[level-1]
}

func (g *Counting) Generate(level int) models.TrialSpec {
	n := g.Length(level)
	counts := make(map[string]int, len(g.Categories))
	for _, c := range g.Categories {
		counts[c] = 0
	}
	items := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		category := g.Categories[g.rnd.Intn(len(g.Categories))]
		counts[category]++
		items = append(items, models.Item{Token: category, Category: category})
	}
	categories := make([]string, len(g.Categories))
	copy(categories, g.Categories)
	return models.TrialSpec{
		Difficulty: level,
		Items:      items,
		Truth:      models.GroundTruth{Categories: categories, Counts: counts},
	}
}
