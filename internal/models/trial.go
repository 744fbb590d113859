package models

import (
	"sort"
	"strconv"
	"time"
)

// Phase is the lifecycle phase of a task run.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePresenting       Phase = "presenting"
	PhaseAwaitingResponse Phase = "awaiting_response"
	PhaseEvaluating       Phase = "evaluating"
	PhaseAdvancing        Phase = "advancing"
	PhaseComplete         Phase = "complete"
)

// Family groups tasks that share generation and scoring rules.
type Family string

const (
	FamilyRecall    Family = "recall"
	FamilyCounting  Family = "counting"
	FamilySpatial   Family = "spatial"
	FamilyDeductive Family = "deductive"
)

// Visual describes how a tile looks. Two tiles with the same Visual are
// indistinguishable to the participant even when their IDs differ.
type Visual struct {
	Type  string `yaml:"type" json:"type"`
	Color string `yaml:"color" json:"color"`
}

// Tile is one image or shape that can occupy a grid cell.
type Tile struct {
	ID     string `yaml:"id" json:"id"`
	Visual Visual `yaml:",inline" json:"visual"`
}

// Item is a single presented stimulus token.
type Item struct {
	Token    string  `json:"token"`
	Category string  `json:"category,omitempty"`
	Cell     int     `json:"cell"`
	Visual   *Visual `json:"visual,omitempty"`
}

// GridTrial holds the two layouts of a spatial trial.
type GridTrial struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Study []Tile   `json:"study"`
	Test  []Tile   `json:"test"`
	Swaps [][2]int `json:"-"`
}

// Moved returns the cells whose tile differs between the study and test
// layouts, in ascending order.
func (g *GridTrial) Moved() []int {
	var moved []int
	for i := range g.Study {
		if i < len(g.Test) && g.Study[i].ID != g.Test[i].ID {
			moved = append(moved, i)
		}
	}
	return moved
}

// Puzzle is a card-selection reasoning problem.
type Puzzle struct {
	ID      string   `yaml:"id" json:"id"`
	Rule    string   `yaml:"rule" json:"rule"`
	Cards   []string `yaml:"cards" json:"cards"`
	Correct []int    `yaml:"correct" json:"-"`
}

// GroundTruth is the correct answer, fixed when the trial is generated.
type GroundTruth struct {
	Sequence   []string       `json:"sequence,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Counts     map[string]int `json:"counts,omitempty"`
	Moved      []int          `json:"moved,omitempty"`
	Cards      []int          `json:"cards,omitempty"`
}

// TrialSpec is one generated trial. It is not modified after generation.
type TrialSpec struct {
	Difficulty int         `json:"difficulty"`
	Items      []Item      `json:"items"`
	Truth      GroundTruth `json:"truth"`
	Grid       *GridTrial  `json:"grid,omitempty"`
	Puzzle     *Puzzle     `json:"puzzle,omitempty"`
}

// Tokens returns the presented item tokens in order.
func (s TrialSpec) Tokens() []string {
	tokens := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		tokens = append(tokens, item.Token)
	}
	return tokens
}

// Response is what the participant submits for a trial. Which field is
// read depends on the task family.
type Response struct {
	Text      string         `json:"text,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Positions []int          `json:"positions,omitempty"`
	Cards     []int          `json:"cards,omitempty"`
}

// CategoryScore is the per-category outcome of a counting trial.
type CategoryScore struct {
	Name     string `json:"name"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Correct  bool   `json:"correct"`
}

// Evaluation is the scored outcome of one response.
type Evaluation struct {
	IsCorrect      bool
	CorrectCount   int
	IncorrectCount int
	Score          int
	Expected       []string
	Actual         []string
	Categories     []CategoryScore
}

// TrialResult is the canonical record of one answered trial.
type TrialResult struct {
	ParticipantID  string          `json:"participantId"`
	Timestamp      time.Time       `json:"timestamp"`
	TaskType       string          `json:"taskType"`
	Difficulty     int             `json:"difficulty"`
	AttemptNumber  int             `json:"attemptNumber"`
	Presented      []string        `json:"presented,omitempty"`
	Expected       []string        `json:"expected,omitempty"`
	Actual         []string        `json:"actual,omitempty"`
	IsCorrect      bool            `json:"isCorrect"`
	ScoreDelta     int             `json:"scoreDelta"`
	CorrectCount   int             `json:"correctCount"`
	IncorrectCount int             `json:"incorrectCount"`
	Categories     []CategoryScore `json:"categories,omitempty"`
}

// CountsToStrings renders category counts as "name=count" in category order.
func CountsToStrings(categories []string, counts map[string]int) []string {
	if len(categories) == 0 {
		categories = make([]string, 0, len(counts))
		for name := range counts {
			categories = append(categories, name)
		}
		sort.Strings(categories)
	}
	out := make([]string, 0, len(categories))
	for _, name := range categories {
		out = append(out, name+"="+strconv.Itoa(counts[name]))
	}
	return out
}

// IntsToStrings renders a list of indices as strings.
func IntsToStrings(values []int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Itoa(v))
	}
	return out
}
