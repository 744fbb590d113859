package stimulus

import (
	"math/rand"
	"sort"

	"cogbattery/internal/models"
)

// maxPairRetries bounds how many candidate pairs are drawn before the
// generator settles for fewer swaps.
const maxPairRetries = 50

// Spatial lays out a grid of unique tiles and swaps ceil(level/2) disjoint
// pairs of cells for the test layout.
type Spatial struct {
	Rows []int
	Cols int
	Pool []models.Tile
	rnd  *rand.Rand
}

// NewSpatial returns a spatial generator. rows[i] is the row count of
// level i+1.
func NewSpatial(rows []int, cols int, pool []models.Tile, rnd *rand.Rand) *Spatial {
	return &Spatial{Rows: rows, Cols: cols, Pool: pool, rnd: rnd}
}

// Pairs is the number of swaps requested at a level.
func Pairs(level int) int {
	if level < 1 {
		return 0
	}
	return (level + 1) / 2
}

func (g *Spatial) Length(level int) int {
	if level < 1 || level > len(g.Rows) {
		return 0
	}
	return g.Rows[level-1] * g.Cols
}

func (g *Spatial) Generate(level int) models.TrialSpec {
	cells := g.Length(level)
	if cells > len(g.Pool) {
		cells = len(g.Pool)
	}
	study := make([]models.Tile, cells)
	for i, idx := range g.rnd.Perm(len(g.Pool))[:cells] {
		study[i] = g.Pool[idx]
	}

	swaps := g.pickSwaps(study, Pairs(level))
	test := make([]models.Tile, cells)
	copy(test, study)
	for _, s := range swaps {
		test[s[0]], test[s[1]] = test[s[1]], test[s[0]]
	}

	rows := 0
	if g.Cols > 0 {
		rows = cells / g.Cols
	}
	grid := &models.GridTrial{Rows: rows, Cols: g.Cols, Study: study, Test: test, Swaps: swaps}
	items := make([]models.Item, 0, cells)
	for i, tile := range study {
		visual := tile.Visual
		items = append(items, models.Item{Token: tile.ID, Cell: i, Visual: &visual})
	}
	return models.TrialSpec{
		Difficulty: level,
		Items:      items,
		Truth:      models.GroundTruth{Moved: grid.Moved()},
		Grid:       grid,
	}
}

// pickSwaps draws up to want disjoint cell pairs whose tiles look different.
func (g *Spatial) pickSwaps(study []models.Tile, want int) [][2]int {
	free := make([]int, len(study))
	for i := range free {
		free[i] = i
	}
	var swaps [][2]int
	for len(swaps) < want && len(free) >= 2 {
		found := false
		for attempt := 0; attempt < maxPairRetries; attempt++ {
			i := g.rnd.Intn(len(free))
			j := g.rnd.Intn(len(free) - 1)
			if j >= i {
				j++
			}
			a, b := free[i], free[j]
			if study[a].Visual == study[b].Visual {
				continue
			}
			if a > b {
				a, b = b, a
			}
			swaps = append(swaps, [2]int{a, b})
			if i < j {
				i, j = j, i
			}
			free = append(free[:i], free[i+1:]...)
			free = append(free[:j], free[j+1:]...)
			found = true
			break
		}
		if !found {
			break
		}
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i][0] < swaps[j][0] })
	return swaps
}
