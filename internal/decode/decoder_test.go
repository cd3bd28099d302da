package decode_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"jobShop/internal/decode"
	"jobShop/internal/jobshop"
)

// lookAhead: работа 0 идёт M0(1) -> M1(5), работа 1 идёт M1(10) -> M0(1).
// После j0[0] операция j1[0] может начаться в 0, а j0[1] - только в 1,
// поэтому при δ=0 выбор ограничен j1[0], а при δ=1 побеждает приоритет j0[1].
func lookAhead(t testing.TB) *jobshop.Instance {
	inst, err := jobshop.FromTables(
		[][]int{{1, 5}, {10, 1}},
		[][]int{{0, 1}, {1, 0}},
	)
	require.NoError(t, err)
	return inst
}

func TestDecodeDeltaDiverges(t *testing.T) {
	chk := require.New(t)
	inst := lookAhead(t)
	j0, j1 := inst.Jobs[0], inst.Jobs[1]
	prio := []float64{0, 1, 2, 3}

	greedy, err := decode.Decode(inst, prio, 0)
	chk.NoError(err)
	chk.Equal(jobshop.Schedule{j0[0], j1[0], j0[1], j1[1]}, greedy)

	wide, err := decode.Decode(inst, prio, 1)
	chk.NoError(err)
	chk.Equal(jobshop.Schedule{j0[0], j0[1], j1[0], j1[1]}, wide)

	msGreedy, err := jobshop.Evaluate(inst, greedy)
	chk.NoError(err)
	chk.Equal(15, msGreedy)
	msWide, err := jobshop.Evaluate(inst, wide)
	chk.NoError(err)
	chk.Equal(17, msWide)
}

func TestDecodeTieBreakByFinish(t *testing.T) {
	inst := lookAhead(t)
	// Равные приоритеты: на первом шаге обе операции стартуют в 0,
	// j0[0] заканчивается раньше (1 < 10).
	s, err := decode.Decode(inst, []float64{7, 7, 7, 7}, 1)
	require.NoError(t, err)
	require.Equal(t, inst.Jobs[0][0], s[0])
}

func TestDecodeRejectsBadInput(t *testing.T) {
	inst := lookAhead(t)

	_, err := decode.New(inst, -0.1)
	require.Error(t, err)
	_, err = decode.New(inst, 1.5)
	require.Error(t, err)

	d, err := decode.New(inst, 0.5)
	require.NoError(t, err)
	_, err = d.Decode([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		jobs := rapid.IntRange(1, 6).Draw(t, "jobs")
		machines := rapid.IntRange(1, 6).Draw(t, "machines")
		seed := rapid.Int64().Draw(t, "seed")
		inst := jobshop.RandomInstance(jobs, machines, 0, 30, rand.New(rand.NewSource(seed)))

		prio := rapid.SliceOfN(rapid.Float64Range(-10, 10), inst.NumOperations(), inst.NumOperations()).Draw(t, "priorities")
		delta := rapid.Float64Range(0, 1).Draw(t, "delta")

		d, err := decode.New(inst, delta)
		require.NoError(t, err)
		s, err := d.Decode(prio)
		require.NoError(t, err)

		// Каждая операция ровно один раз, порядок работ соблюдён.
		require.Len(t, s, inst.NumOperations())
		seen := make([]bool, inst.NumOperations())
		for _, op := range s {
			id := inst.ID(op)
			require.False(t, seen[id], "operation %v repeated", op)
			seen[id] = true
		}
		_, err = jobshop.Evaluate(inst, s)
		require.NoError(t, err)

		// Чистая функция: повторное декодирование даёт то же расписание.
		again, err := d.DecodeInto(prio, s[:0:0])
		require.NoError(t, err)
		require.Equal(t, s, again)
	})
}

func TestDecodeZeroDeltaStartsEarliest(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		inst := jobshop.RandomInstance(4, 3, 1, 20, rand.New(rand.NewSource(seed)))
		prio := rapid.SliceOfN(rapid.Float64Range(0, 1), inst.NumOperations(), inst.NumOperations()).Draw(t, "priorities")

		s, err := decode.Decode(inst, prio, 0)
		require.NoError(t, err)

		// При δ=0 каждая выбранная операция начинается в момент σ*:
		// ни одна допустимая операция не могла начаться раньше.
		f := jobshop.NewFrontier(inst)
		tm, err := jobshop.Simulate(inst, s)
		require.NoError(t, err)
		machineReady := make([]int, inst.Machines)
		jobReady := make([]int, inst.NumJobs())
		for _, op := range s {
			sigma := -1
			for j := range inst.Jobs {
				next, ok := f.Next(j)
				if !ok {
					continue
				}
				st := max(machineReady[next.Machine], jobReady[j])
				if sigma < 0 || st < sigma {
					sigma = st
				}
			}
			require.Equal(t, sigma, tm.Start[inst.ID(op)])
			f.Push(op.Job)
			machineReady[op.Machine] = tm.Finish[inst.ID(op)]
			jobReady[op.Job] = tm.Finish[inst.ID(op)]
		}
	})
}
