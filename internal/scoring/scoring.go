// Package scoring compares participant responses with a trial's ground truth.
package scoring

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cogbattery/internal/models"
)

// ErrInvalidResponse marks a response that cannot be scored, such as an
// empty answer. The caller should re-prompt without changing state.
var ErrInvalidResponse = errors.New("invalid response")

// Evaluator scores one response against the trial it answers.
type Evaluator interface {
	Evaluate(spec models.TrialSpec, resp models.Response) (models.Evaluation, error)
}

// New returns the evaluator for a task definition.
func New(def models.TaskDefinition) (Evaluator, error) {
	switch def.Family {
	case models.FamilyRecall:
		return Sequence{Backward: def.Backward}, nil
	case models.FamilyCounting:
		return Counting{}, nil
	case models.FamilySpatial:
		return Spatial{}, nil
	case models.FamilyDeductive:
		return Cards{}, nil
	default:
		return nil, fmt.Errorf("scoring: no evaluator for family %q", def.Family)
	}
}

// Sequence scores ordered recall. Backward recall is compared against the
// reversed presentation order.
type Sequence struct {
	Backward bool
}

func (e Sequence) Evaluate(spec models.TrialSpec, resp models.Response) (models.Evaluation, error) {
	expected := append([]string(nil), spec.Truth.Sequence...)
	if e.Backward {
		for i, j := 0, len(expected)-1; i < j; i, j = i+1, j-1 {
			expected[i], expected[j] = expected[j], expected[i]
		}
	}

	actual := Tokenize(resp.Text, singleRune(expected))
	if len(actual) == 0 {
		return models.Evaluation{}, fmt.Errorf("%w: empty answer", ErrInvalidResponse)
	}

	correct := 0
	for i := range actual {
		if i < len(expected) && actual[i] == strings.ToLower(expected[i]) {
			correct++
		}
	}
	isCorrect := len(actual) == len(expected) && correct == len(expected)
	score := 0
	if isCorrect {
		score = 1
	}
	return models.Evaluation{
		IsCorrect:      isCorrect,
		CorrectCount:   correct,
		IncorrectCount: max(len(expected), len(actual)) - correct,
		Score:          score,
		Expected:       expected,
		Actual:         actual,
	}, nil
}

// Tokenize normalizes a typed answer into comparable tokens: lowercased,
// with commas, semicolons and runs of whitespace treated as one separator.
// When splitRunes is set every remaining character is its own token, so
// "472" and "4 7 2" tokenize alike.
func Tokenize(text string, splitRunes bool) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if !splitRunes {
		return fields
	}
	var tokens []string
	for _, f := range fields {
		for _, r := range f {
			tokens = append(tokens, string(r))
		}
	}
	return tokens
}

func singleRune(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if utf8.RuneCountInString(t) != 1 {
			return false
		}
	}
	return true
}
