package stimulus

import (
	"sort"

	"cogbattery/internal/models"
)

// Deductive serves the level-indexed puzzle of a fixed bank.
type Deductive struct {
	Puzzles []models.Puzzle
}

func (g *Deductive) Length(level int) int {
	if level < 1 || level > len(g.Puzzles) {
		return 0
	}
	return len(g.Puzzles[level-1].Cards)
}

func (g *Deductive) Generate(level int) models.TrialSpec {
	if level < 1 || level > len(g.Puzzles) {
		return models.TrialSpec{Difficulty: level}
	}
	puzzle := g.Puzzles[level-1]
	items := make([]models.Item, 0, len(puzzle.Cards))
	for i, card := range puzzle.Cards {
		items = append(items, models.Item{Token: card, Cell: i})
	}
	correct := make([]int, len(puzzle.Correct))
	copy(correct, puzzle.Correct)
	sort.Ints(correct)
	return models.TrialSpec{
		Difficulty: level,
		Items:      items,
		Truth:      models.GroundTruth{Cards: correct},
		Puzzle:     &puzzle,
	}
}
