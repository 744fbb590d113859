package scoring

import (
	"fmt"
	"sort"

	"cogbattery/internal/models"
)

// Counting scores per-category counts by majority: the trial passes when
// at least ceil(n/2) categories are exactly right.
type Counting struct{}

func (Counting) Evaluate(spec models.TrialSpec, resp models.Response) (models.Evaluation, error) {
	categories := spec.Truth.Categories
	if len(resp.Counts) == 0 {
		return models.Evaluation{}, fmt.Errorf("%w: no counts given", ErrInvalidResponse)
	}
	for _, name := range categories {
		n, ok := resp.Counts[name]
		if !ok {
			return models.Evaluation{}, fmt.Errorf("%w: missing count for %q", ErrInvalidResponse, name)
		}
		if n < 0 {
			return models.Evaluation{}, fmt.Errorf("%w: negative count for %q", ErrInvalidResponse, name)
		}
	}

	scores := make([]models.CategoryScore, 0, len(categories))
	correct := 0
	for _, name := range categories {
		s := models.CategoryScore{
			Name:     name,
			Expected: spec.Truth.Counts[name],
			Actual:   resp.Counts[name],
		}
		s.Correct = s.Expected == s.Actual
		if s.Correct {
			correct++
		}
		scores = append(scores, s)
	}

	needed := (len(categories) + 1) / 2
	return models.Evaluation{
		IsCorrect:      correct >= needed,
		CorrectCount:   correct,
		IncorrectCount: len(categories) - correct,
		Score:          correct,
		Expected:       models.CountsToStrings(categories, spec.Truth.Counts),
		Actual:         models.CountsToStrings(categories, resp.Counts),
		Categories:     scores,
	}, nil
}

// Spatial scores cell selections. A selected cell counts as correct when
// its tile moved between the study and test layouts.
type Spatial struct{}

func (Spatial) Evaluate(spec models.TrialSpec, resp models.Response) (models.Evaluation, error) {
	if spec.Grid == nil {
		return models.Evaluation{}, fmt.Errorf("%w: trial has no grid", ErrInvalidResponse)
	}
	selected, err := distinct(resp.Positions, len(spec.Grid.Study))
	if err != nil {
		return models.Evaluation{}, err
	}
	if len(selected) == 0 {
		return models.Evaluation{}, fmt.Errorf("%w: no cells selected", ErrInvalidResponse)
	}

	moved := make(map[int]bool, len(spec.Truth.Moved))
	for _, cell := range spec.Truth.Moved {
		moved[cell] = true
	}
	correct, incorrect := 0, 0
	for _, cell := range selected {
		if moved[cell] {
			correct++
		} else {
			incorrect++
		}
	}
	return models.Evaluation{
		IsCorrect:      float64(correct) >= 0.5*float64(len(spec.Truth.Moved)),
		CorrectCount:   correct,
		IncorrectCount: incorrect,
		Score:          correct - incorrect,
		Expected:       models.IntsToStrings(spec.Truth.Moved),
		Actual:         models.IntsToStrings(selected),
	}, nil
}

// Cards scores a two-card selection by set equality with the puzzle answer.
type Cards struct{}

func (Cards) Evaluate(spec models.TrialSpec, resp models.Response) (models.Evaluation, error) {
	limit := len(spec.Items)
	if spec.Puzzle != nil {
		limit = len(spec.Puzzle.Cards)
	}
	selected, err := distinct(resp.Cards, limit)
	if err != nil {
		return models.Evaluation{}, err
	}
	if len(selected) != 2 || len(resp.Cards) != 2 {
		return models.Evaluation{}, fmt.Errorf("%w: exactly 2 cards must be selected", ErrInvalidResponse)
	}

	answer := make(map[int]bool, len(spec.Truth.Cards))
	for _, c := range spec.Truth.Cards {
		answer[c] = true
	}
	correct := 0
	for _, c := range selected {
		if answer[c] {
			correct++
		}
	}
	isCorrect := correct == len(answer) && len(selected) == len(answer)
	score := 0
	if isCorrect {
		score = 1
	}
	return models.Evaluation{
		IsCorrect:      isCorrect,
		CorrectCount:   correct,
		IncorrectCount: len(selected) - correct,
		Score:          score,
		Expected:       models.IntsToStrings(spec.Truth.Cards),
		Actual:         models.IntsToStrings(selected),
	}, nil
}

// distinct sorts and de-duplicates indices, rejecting any outside [0, limit).
func distinct(values []int, limit int) ([]int, error) {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v < 0 || v >= limit {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidResponse, v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}
