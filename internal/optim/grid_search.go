// Package optim searches small parameter grids for controller and plant
// settings. Exhaustive walks are fine here: the grids are tiny and each
// candidate costs one headless run.
package optim

import (
	"context"
	"errors"
	"math"
)

var ErrNoCandidate = errors.New("optim: no candidate finished")

// Objective runs one candidate and returns its cost. A candidate that
// returns an error is skipped, not fatal.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// GridSearch walks the cross product of named parameter ranges.
type GridSearch struct {
	names  []string
	ranges [][]float64
}

// New pairs parameter names with their candidate values, index for index.
func New(names []string, ranges [][]float64) *GridSearch {
	return &GridSearch{names: names, ranges: ranges}
}

// Size returns the number of candidates in the grid.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search returns the lowest-cost parameter set. Ties keep the earlier
// candidate.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.walk(ctx, 0, make(map[string]float64), obj, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) walk(ctx context.Context, depth int, current map[string]float64, obj Objective, best *float64, bestParams *map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.names) {
		cost, err := obj(ctx, cloneParams(current))
		if err != nil {
			return nil
		}
		if cost < *best {
			*best = cost
			*bestParams = cloneParams(current)
		}
		return nil
	}
	for _, val := range g.ranges[depth] {
		current[g.names[depth]] = val
		if err := g.walk(ctx, depth+1, current, obj, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func cloneParams(p map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
