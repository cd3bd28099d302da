package jobshop_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"jobShop/internal/jobshop"
)

// twoByTwo: работа 0 идёт M0(4) -> M1(7), работа 1 идёт M1(1) -> M0(1).
func twoByTwo(t testing.TB) *jobshop.Instance {
	inst, err := jobshop.FromTables(
		[][]int{{4, 7}, {1, 1}},
		[][]int{{0, 1}, {1, 0}},
	)
	require.NoError(t, err)
	return inst
}

func drawInstance(t *rapid.T) *jobshop.Instance {
	jobs := rapid.IntRange(1, 5).Draw(t, "jobs")
	machines := rapid.IntRange(1, 5).Draw(t, "machines")
	seed := rapid.Int64().Draw(t, "seed")
	return jobshop.RandomInstance(jobs, machines, 0, 20, rand.New(rand.NewSource(seed)))
}

// drawSchedule строит случайное допустимое расписание через перестановку с повторениями.
func drawSchedule(t *rapid.T, inst *jobshop.Instance) jobshop.Schedule {
	seq := make([]int, 0, inst.NumOperations())
	for j := range inst.Jobs {
		for k := 0; k < inst.Machines; k++ {
			seq = append(seq, j)
		}
	}
	seq = rapid.Permutation(seq).Draw(t, "sequence")
	return inst.FromJobSequence(seq, nil)
}

func TestEvaluateTwoByTwo(t *testing.T) {
	chk := require.New(t)
	inst := twoByTwo(t)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]

	tests := []struct {
		name     string
		schedule jobshop.Schedule
		makespan int
	}{
		{name: "job0 first", schedule: jobshop.Schedule{j0[0], j0[1], j1[0], j1[1]}, makespan: 13},
		{name: "job1 first", schedule: jobshop.Schedule{j1[0], j1[1], j0[0], j0[1]}, makespan: 13},
		{name: "interleaved", schedule: jobshop.Schedule{j0[0], j1[0], j1[1], j0[1]}, makespan: 11},
		{name: "interleaved other", schedule: jobshop.Schedule{j1[0], j0[0], j0[1], j1[1]}, makespan: 11},
	}
	for _, tt := range tests {
		ms, err := jobshop.Evaluate(inst, tt.schedule)
		chk.NoError(err, tt.name)
		chk.Equal(tt.makespan, ms, tt.name)
	}
}

func TestSimulateTiming(t *testing.T) {
	chk := require.New(t)
	inst := twoByTwo(t)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]

	tm, err := jobshop.Simulate(inst, jobshop.Schedule{j0[0], j1[0], j1[1], j0[1]})
	chk.NoError(err)
	chk.Equal(11, tm.Makespan)
	chk.Equal([]int{0, 4, 0, 4}, tm.Start)
	chk.Equal([]int{4, 11, 1, 5}, tm.Finish)
	chk.Equal([]int{5, 11}, tm.MachineReady)
	chk.Equal([]int{11, 5}, tm.JobReady)
}

func TestEvaluateInfeasible(t *testing.T) {
	inst := twoByTwo(t)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]

	tests := []struct {
		name     string
		schedule jobshop.Schedule
	}{
		{name: "precedence violated", schedule: jobshop.Schedule{j0[1], j0[0], j1[0], j1[1]}},
		{name: "too short", schedule: jobshop.Schedule{j0[0], j0[1], j1[0]}},
		{name: "duplicate", schedule: jobshop.Schedule{j0[0], j0[0], j1[0], j1[1]}},
		{name: "unknown job", schedule: jobshop.Schedule{j0[0], j0[1], j1[0], {Job: 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jobshop.Evaluate(inst, tt.schedule)
			require.Error(t, err)
			require.True(t, errors.Is(err, jobshop.ErrInfeasible), "got %v", err)
		})
	}
}

func TestEvaluateFeasibilityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		s := drawSchedule(t, inst)

		ms, err := jobshop.Evaluate(inst, s)
		require.NoError(t, err)
		require.GreaterOrEqual(t, ms, 0)
		require.LessOrEqual(t, ms, inst.TotalWork())

		if inst.Machines < 2 {
			return
		}
		// Меняем местами две соседние операции одной работы - порядок нарушен.
		j := rapid.IntRange(0, inst.NumJobs()-1).Draw(t, "job")
		k := rapid.IntRange(0, inst.Machines-2).Draw(t, "index")
		bad := s.Clone()
		var pa, pb int
		for pos, op := range bad {
			if op.Job == j && op.Index == k {
				pa = pos
			}
			if op.Job == j && op.Index == k+1 {
				pb = pos
			}
		}
		bad[pa], bad[pb] = bad[pb], bad[pa]
		_, err = jobshop.Evaluate(inst, bad)
		require.ErrorIs(t, err, jobshop.ErrInfeasible)
	})
}

func TestPartialBoundMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		s := drawSchedule(t, inst)
		f := jobshop.NewFrontier(inst)

		prev := 0
		for i := 0; i <= len(s); i++ {
			b, err := jobshop.PartialBound(inst, s[:i])
			require.NoError(t, err)
			require.GreaterOrEqual(t, b, prev, "prefix %d", i)
			require.Equal(t, b, f.Makespan(), "frontier disagrees at prefix %d", i)
			prev = b
			if i < len(s) {
				next, ok := f.Next(s[i].Job)
				require.True(t, ok)
				require.Equal(t, s[i], next)
				f.Push(s[i].Job)
			}
		}

		full, err := jobshop.Evaluate(inst, s)
		require.NoError(t, err)
		require.Equal(t, full, prev)
		require.Equal(t, s, f.Prefix())
	})
}

func TestFrontierPopRestores(t *testing.T) {
	chk := require.New(t)
	inst := twoByTwo(t)
	f := jobshop.NewFrontier(inst)

	chk.Equal(4, f.Push(0))
	chk.Equal(4, f.Push(1))
	chk.Equal(11, f.Push(0))
	f.Pop()
	chk.Equal(4, f.Makespan())
	chk.Equal(2, f.Len())
	next, ok := f.Next(0)
	chk.True(ok)
	chk.Equal(1, next.Index)

	f.Pop()
	f.Pop()
	chk.Equal(0, f.Makespan())
	chk.Equal(0, f.Len())
}

func TestEvaluateMachineOrderMatchesSimulation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		s := drawSchedule(t, inst)

		want, err := jobshop.Simulate(inst, s)
		require.NoError(t, err)
		got, err := jobshop.EvaluateMachineOrder(inst, s.MachineSequences(inst.Machines))
		require.NoError(t, err)
		require.Equal(t, want.Makespan, got.Makespan)
		require.Equal(t, want.Start, got.Start)
	})
}

func TestEvaluateMachineOrderDeadlock(t *testing.T) {
	inst := twoByTwo(t)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]

	// M0 ждёт j1[1], которой нужна j1[0] на M1, которая стоит за j0[1],
	// которой нужна j0[0] на M0 - цикл.
	seqs := [][]jobshop.Operation{
		{j1[1], j0[0]},
		{j0[1], j1[0]},
	}
	_, err := jobshop.EvaluateMachineOrder(inst, seqs)
	require.ErrorIs(t, err, jobshop.ErrInfeasible)

	_, err = jobshop.EvaluateMachineOrder(inst, [][]jobshop.Operation{{j0[0]}, {j0[1], j1[0]}})
	require.ErrorIs(t, err, jobshop.ErrInfeasible)
}

func TestRandomInstanceVisitsEveryMachine(t *testing.T) {
	inst := jobshop.RandomInstance(6, 4, 1, 9, rand.New(rand.NewSource(1)))
	require.NoError(t, inst.Validate())
	for j, job := range inst.Jobs {
		seen := make(map[int]bool)
		for _, op := range job {
			require.GreaterOrEqual(t, op.Duration, 1)
			require.LessOrEqual(t, op.Duration, 9)
			seen[op.Machine] = true
		}
		require.Len(t, seen, inst.Machines, "job %d", j)
	}
}

func TestInstanceValidate(t *testing.T) {
	_, err := jobshop.NewInstance(nil, 2)
	require.Error(t, err)

	_, err = jobshop.FromTables([][]int{{1, 2}}, [][]int{{0, 2}})
	require.Error(t, err)

	_, err = jobshop.FromTables([][]int{{1, -2}}, [][]int{{0, 1}})
	require.Error(t, err)

	_, err = jobshop.FromTables([][]int{{1, 2}, {3}}, [][]int{{0, 1}, {0}})
	require.Error(t, err)

	// Каждая работа посещает каждую машину ровно один раз.
	_, err = jobshop.FromTables([][]int{{1, 2}, {3, 4}}, [][]int{{0, 1}, {1, 1}})
	require.Error(t, err)

	_, err = jobshop.FromTables([][]int{{1, 2}, {3, 4}}, [][]int{{0, 1}, {1, 0}})
	require.NoError(t, err)
}
