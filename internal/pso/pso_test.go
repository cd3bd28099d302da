package pso_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"jobShop/internal/jobshop"
	"jobShop/internal/pso"
)

func smallConfig(parallel bool) pso.Config {
	cfg := pso.DefaultConfig()
	cfg.Particles = 12
	cfg.Iterations = 40
	cfg.Parallel = parallel
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *pso.Config)
	}{
		{name: "zero particles", mutate: func(c *pso.Config) { c.Particles = 0 }},
		{name: "zero iterations", mutate: func(c *pso.Config) { c.Iterations = 0 }},
		{name: "negative w", mutate: func(c *pso.Config) { c.W = -1 }},
		{name: "negative c2", mutate: func(c *pso.Config) { c.C2 = -0.5 }},
		{name: "zero vmax", mutate: func(c *pso.Config) { c.VMax = 0 }},
		{name: "delta above one", mutate: func(c *pso.Config) { c.Delta = 1.01 }},
		{name: "delta below zero", mutate: func(c *pso.Config) { c.Delta = -0.01 }},
		{name: "empty coefficient range", mutate: func(c *pso.Config) { c.RMin, c.RMax = 1, 1 }},
		{name: "negative coefficient range", mutate: func(c *pso.Config) { c.RMin = -1 }},
		{name: "empty init range", mutate: func(c *pso.Config) { c.InitMin, c.InitMax = 2, 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pso.DefaultConfig()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
			_, err := pso.New(cfg, rand.New(rand.NewSource(1)))
			require.Error(t, err)
		})
	}
	require.NoError(t, pso.DefaultConfig().Validate())
	require.Equal(t, 0.0, pso.DefaultConfig().RMin)
	require.Equal(t, 5.0, pso.DefaultConfig().RMax)

	_, err := pso.New(pso.DefaultConfig(), nil)
	require.Error(t, err)
}

func TestSolveRejectsEmptyInstance(t *testing.T) {
	s, err := pso.New(smallConfig(false), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), &jobshop.Instance{Machines: 2})
	require.Error(t, err)
}

func TestSolveResult(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "parallel"}[parallel], func(t *testing.T) {
			chk := require.New(t)
			inst := jobshop.RandomInstance(5, 4, 1, 20, rand.New(rand.NewSource(7)))
			cfg := smallConfig(parallel)

			res, err := pso.Solve(context.Background(), inst, cfg, rand.New(rand.NewSource(99)))
			chk.NoError(err)

			ms, err := jobshop.Evaluate(inst, res.Schedule)
			chk.NoError(err)
			chk.Equal(ms, res.Makespan)

			chk.Len(res.History, cfg.Iterations)
			chk.Equal(cfg.Iterations, res.Iterations)
			chk.Equal(cfg.Particles*(cfg.Iterations+1), res.Evaluations)
			for i := 1; i < len(res.History); i++ {
				chk.LessOrEqual(res.History[i], res.History[i-1], "iteration %d", i)
			}
			chk.Equal(res.Makespan, res.History[len(res.History)-1])
			chk.Equal(parallel, res.Meta["parallel"])
		})
	}
}

func TestSolveDeterministic(t *testing.T) {
	inst := jobshop.RandomInstance(6, 4, 1, 30, rand.New(rand.NewSource(3)))
	for _, parallel := range []bool{false, true} {
		cfg := smallConfig(parallel)
		a, err := pso.Solve(context.Background(), inst, cfg, rand.New(rand.NewSource(5)))
		require.NoError(t, err)
		b, err := pso.Solve(context.Background(), inst, cfg, rand.New(rand.NewSource(5)))
		require.NoError(t, err)
		require.Equal(t, a.History, b.History, "parallel=%v", parallel)
		require.Equal(t, a.Schedule, b.Schedule, "parallel=%v", parallel)
	}
}

// Параллельный режим читает снимок gBest на начало итерации, а последовательный
// актуальное значение, поэтому результаты совпадают не побитово. Допуск - 20%.
func TestParallelComparableToSequential(t *testing.T) {
	inst := jobshop.RandomInstance(4, 3, 1, 10, rand.New(rand.NewSource(11)))

	seq, err := pso.Solve(context.Background(), inst, smallConfig(false), rand.New(rand.NewSource(21)))
	require.NoError(t, err)
	par, err := pso.Solve(context.Background(), inst, smallConfig(true), rand.New(rand.NewSource(21)))
	require.NoError(t, err)

	lo, hi := min(seq.Makespan, par.Makespan), max(seq.Makespan, par.Makespan)
	require.LessOrEqual(t, float64(hi-lo), 0.2*float64(lo), "sequential=%d parallel=%d", seq.Makespan, par.Makespan)
}

func TestSolveFindsOptimumOnTwoByTwo(t *testing.T) {
	inst, err := jobshop.FromTables([][]int{{4, 7}, {1, 1}}, [][]int{{0, 1}, {1, 0}})
	require.NoError(t, err)

	for _, parallel := range []bool{false, true} {
		res, err := pso.Solve(context.Background(), inst, smallConfig(parallel), rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		require.Equal(t, 11, res.Makespan)
	}
}

func TestSolveCancelled(t *testing.T) {
	inst := jobshop.RandomInstance(4, 4, 1, 10, rand.New(rand.NewSource(2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{false, true} {
		res, err := pso.Solve(ctx, inst, smallConfig(parallel), rand.New(rand.NewSource(1)))
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, "context", res.Stopped)
		require.Empty(t, res.History)

		// Даже прерванный запуск возвращает допустимое лучшее расписание инициализации.
		ms, err := jobshop.Evaluate(inst, res.Schedule)
		require.NoError(t, err)
		require.Equal(t, ms, res.Makespan)
	}
}
