package orchestrator

import "cogbattery/internal/models"

// View is the renderable state of a run.
type View struct {
	Task                 string         `json:"task"`
	Family               models.Family  `json:"family"`
	Phase                models.Phase   `json:"phase"`
	Difficulty           int            `json:"difficulty"`
	Attempt              int            `json:"attempt"`
	MaxDifficultyReached int            `json:"maxDifficultyReached"`
	Trials               int            `json:"trials"`
	Stimulus             *models.Item   `json:"stimulus,omitempty"`
	ItemCount            int            `json:"itemCount,omitempty"`
	Grid                 []models.Tile  `json:"grid,omitempty"`
	Rows                 int            `json:"rows,omitempty"`
	Cols                 int            `json:"cols,omitempty"`
	Puzzle               *models.Puzzle `json:"puzzle,omitempty"`
	Categories           []string       `json:"categories,omitempty"`
	CanSkip              bool           `json:"canSkip"`
}

// view must be called with o.mu held.
func (o *Orchestrator) view() View {
	v := View{
		Task:                 o.task.Key,
		Family:               o.task.Family,
		Phase:                o.phase,
		Difficulty:           o.controller.Difficulty(),
		Attempt:              o.controller.Attempt(),
		MaxDifficultyReached: o.controller.MaxReached(),
		Trials:               o.recorder.Len(),
	}
	if o.trial == nil {
		return v
	}
	spec := o.trial
	v.ItemCount = len(spec.Items)

	switch o.phase {
	case models.PhasePresenting:
		v.CanSkip = o.driver.Active() && o.task.Family == models.FamilySpatial
		if o.visible >= 0 && o.visible < len(spec.Items) {
			item := spec.Items[o.visible]
			v.Stimulus = &item
		}
		if o.layoutVisible && spec.Grid != nil {
			v.Grid = append([]models.Tile(nil), spec.Grid.Study...)
			v.Rows, v.Cols = spec.Grid.Rows, spec.Grid.Cols
		}
	case models.PhaseAwaitingResponse:
		if spec.Grid != nil {
			v.Grid = append([]models.Tile(nil), spec.Grid.Test...)
			v.Rows, v.Cols = spec.Grid.Rows, spec.Grid.Cols
		}
		if spec.Puzzle != nil {
			p := *spec.Puzzle
			p.Cards = append([]string(nil), p.Cards...)
			p.Correct = nil
			v.Puzzle = &p
		}
		if o.task.Family == models.FamilyCounting {
			v.Categories = append([]string(nil), o.task.Categories...)
		}
	}
	return v
}
