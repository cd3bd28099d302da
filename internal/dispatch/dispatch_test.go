package dispatch_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
)

func TestRulesOnSmallInstance(t *testing.T) {
	// работа 0: M0(1) -> M1(5), работа 1: M1(10) -> M0(1)
	inst, err := jobshop.FromTables([][]int{{1, 5}, {10, 1}}, [][]int{{0, 1}, {1, 0}})
	require.NoError(t, err)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]

	tests := []struct {
		rule dispatch.Rule
		want jobshop.Schedule
	}{
		{rule: dispatch.SPT, want: jobshop.Schedule{j0[0], j0[1], j1[0], j1[1]}},
		{rule: dispatch.EST, want: jobshop.Schedule{j0[0], j1[0], j0[1], j1[1]}},
		{rule: dispatch.EFT, want: jobshop.Schedule{j0[0], j0[1], j1[0], j1[1]}},
	}
	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			got, err := dispatch.Build(inst, tt.rule)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRulesFeasible(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		inst := jobshop.RandomInstance(1+rng.Intn(8), 1+rng.Intn(6), 1, 50, rng)
		for _, r := range dispatch.Rules {
			s, err := dispatch.Build(inst, r)
			require.NoError(t, err)
			_, err = jobshop.Evaluate(inst, s)
			require.NoError(t, err, "rule %s", r)
		}

		best, cost, err := dispatch.Best(inst)
		require.NoError(t, err)
		ms, err := jobshop.Evaluate(inst, best)
		require.NoError(t, err)
		require.Equal(t, cost, ms)
	}
}

func TestSolverRejectsUnknownRule(t *testing.T) {
	_, err := dispatch.New("lifo")
	require.Error(t, err)

	s, err := dispatch.New(dispatch.EFT)
	require.NoError(t, err)
	inst := jobshop.RandomInstance(3, 3, 1, 9, rand.New(rand.NewSource(1)))
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Len(t, res.Schedule, inst.NumOperations())
	require.Equal(t, "eft", res.Meta["rule"])
}
