package bench

import (
	"context"
	"fmt"
	"math/rand"

	"jobShop/internal/opt"
	"jobShop/internal/pso"
)

// Grid - значения коэффициентов для полного перебора.
type Grid struct {
	W  []float64
	C1 []float64
	C2 []float64
}

type GridPoint struct {
	W, C1, C2 float64
	Record    Record
}

// GridSearch прогоняет PSO на экземпляре для каждой тройки (w, c1, c2)
// и возвращает все точки и лучшую: по лучшему makespan, затем по среднему.
// При равенстве побеждает точка, встреченная раньше.
func GridSearch(ctx context.Context, r Runner, c Case, base pso.Config, g Grid) ([]GridPoint, GridPoint, error) {
	if len(g.W) == 0 || len(g.C1) == 0 || len(g.C2) == 0 {
		return nil, GridPoint{}, fmt.Errorf("сетка пуста: |W|=%d |C1|=%d |C2|=%d", len(g.W), len(g.C1), len(g.C2))
	}

	points := make([]GridPoint, 0, len(g.W)*len(g.C1)*len(g.C2))
	best := -1
	for _, w := range g.W {
		for _, c1 := range g.C1 {
			for _, c2 := range g.C2 {
				cfg := base
				cfg.W, cfg.C1, cfg.C2 = w, c1, c2
				if err := cfg.Validate(); err != nil {
					return nil, GridPoint{}, err
				}
				algo := Algorithm{
					Name:    fmt.Sprintf("PSO(w=%g,c1=%g,c2=%g)", w, c1, c2),
					Factory: PSOFactory(cfg),
				}
				rec, err := r.RunCase(ctx, c, algo)
				if err != nil {
					return nil, GridPoint{}, err
				}
				points = append(points, GridPoint{W: w, C1: c1, C2: c2, Record: rec})

				last := len(points) - 1
				if best < 0 || better(rec, points[best].Record) {
					best = last
				}
				r.Log.Debug().
					Float64("w", w).Float64("c1", c1).Float64("c2", c2).
					Int("best", rec.MakespanBest).Float64("mean", rec.MakespanMean).
					Msg("grid: точка")
			}
		}
	}
	return points, points[best], nil
}

func better(a, b Record) bool {
	if a.MakespanBest != b.MakespanBest {
		return a.MakespanBest < b.MakespanBest
	}
	return a.MakespanMean < b.MakespanMean
}

// PSOFactory - фабрика PSO-солверов с собственным генератором на каждый сид.
func PSOFactory(cfg pso.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return pso.New(cfg, rand.New(rand.NewSource(seed)))
	}
}
