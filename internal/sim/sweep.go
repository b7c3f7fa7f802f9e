package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/fuel"
)

// SweepPoint is one row of a critical boron sweep.
type SweepPoint struct {
	Power     float64
	BoronPPM  float64
	TavgF     float64
	FuelTempF float64
	XenonPcm  float64
}

const sweepWorkers = 4

// SweepCriticalBoron maps critical boron concentration across a power
// range. Each point brings an independent reactor to equilibrium at
// its power fraction; points run concurrently on a small worker pool.
func SweepCriticalBoron(ctx context.Context, plant *config.Plant, from, to float64, points int) ([]SweepPoint, error) {
	if points < 2 {
		return nil, fmt.Errorf("sim: sweep needs at least 2 points, got %d", points)
	}
	if from <= 0 || to > 1 || to <= from {
		return nil, fmt.Errorf("sim: sweep range must satisfy 0 < from < to <= 1, got [%f, %f]", from, to)
	}

	out := make([]SweepPoint, points)
	errs := make([]error, points)
	sem := make(chan struct{}, sweepWorkers)

	var wg sync.WaitGroup
	for i := 0; i < points; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			default:
			}

			p := from + (to-from)*float64(idx)/float64(points-1)
			r, err := core.NewReactor(plant, fuel.New(plant.Fuel, plant.Thermal.NoLoadTavgF))
			if err != nil {
				errs[idx] = err
				return
			}
			if err := r.InitializeToEquilibrium(p); err != nil {
				errs[idx] = fmt.Errorf("sim: sweep point %.3f: %w", p, err)
				return
			}

			snap := r.Snapshot()
			out[idx] = SweepPoint{
				Power:     p,
				BoronPPM:  snap.BoronPPM,
				TavgF:     snap.TavgF,
				FuelTempF: snap.FuelTempF,
				XenonPcm:  snap.Budget.XenonPcm,
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
