package bench

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

// Case - именованный экземпляр с известными границами (0 - неизвестна).
type Case struct {
	Name       string
	Instance   *jobshop.Instance
	UpperBound int
	LowerBound int
}

type Record struct {
	Algo     string
	Instance string
	Jobs     int
	Machines int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest int
	MakespanMean float64
	MakespanStd  float64

	// UpperBound - лучшее известное значение; GapPct - отклонение лучшего от него в процентах.
	UpperBound int
	GapPct     float64
	// OptimalRuns - число запусков с доказанной оптимальностью.
	OptimalRuns int
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// Workers - число одновременных запусков; 0 - по числу CPU.
	Workers int
	Log     zerolog.Logger
}

type runOutcome struct {
	res opt.Result
	dur time.Duration
	err error
}

type runTask struct {
	idx int
	wg  *sync.WaitGroup
}

// RunCase выполняет Runs запусков алгоритма с сидами BaseSeed+i
// на пуле из Workers горутин. Результат не зависит от числа воркеров.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("Runs должно быть > 0 (получено %d)", r.Runs)
	}
	inst := c.Instance
	if err := inst.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s: %w", c.Name, err)
	}

	outcomes := make([]runOutcome, r.Runs)
	pool, err := ants.NewPoolWithFunc(r.workers(), func(arg any) {
		t := arg.(runTask)
		defer t.wg.Done()
		outcomes[t.idx] = r.runOnce(ctx, inst, algo, t.idx)
	}, ants.WithPreAlloc(true))
	if err != nil {
		return Record{}, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < r.Runs; i++ {
		wg.Add(1)
		if err := pool.Invoke(runTask{idx: i, wg: &wg}); err != nil {
			wg.Done()
			outcomes[i].err = err
		}
	}
	wg.Wait()

	makespans := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	optimal := 0
	for i, o := range outcomes {
		if o.err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, o.err)
		}
		makespans = append(makespans, o.res.Makespan)
		timesMs = append(timesMs, float64(o.dur.Microseconds())/1000.0)
		if o.res.Optimal {
			optimal++
		}
	}

	msStats := CalcIntStats(makespans)
	tStats := CalcFloatStats(timesMs)

	rec := Record{
		Algo:     algo.Name,
		Instance: c.Name,
		Jobs:     inst.NumJobs(),
		Machines: inst.Machines,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		UpperBound:  c.UpperBound,
		OptimalRuns: optimal,
	}
	if c.UpperBound > 0 {
		rec.GapPct = 100 * float64(rec.MakespanBest-c.UpperBound) / float64(c.UpperBound)
	}
	return rec, nil
}

func (r Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

// runOnce - один запуск с проверкой, что расписание допустимо
// и его makespan совпадает с заявленным.
func (r Runner) runOnce(ctx context.Context, inst *jobshop.Instance, algo Algorithm, i int) runOutcome {
	runSeed := r.BaseSeed + int64(i)
	op, err := algo.Factory(runSeed)
	if err != nil {
		return runOutcome{err: fmt.Errorf("factory: %w", err)}
	}

	runCtx := ctx
	cancel := func() {}
	if r.PerRunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
	}
	start := time.Now()
	res, err := op.Solve(runCtx, inst)
	dur := time.Since(start)
	// После cancel() runCtx.Err() всегда не nil, поэтому фиксируем до.
	timedOut := runCtx.Err() != nil
	cancel()

	switch {
	case err != nil && ctx.Err() != nil:
		return runOutcome{err: fmt.Errorf("cancelled: %w", err)}
	case err != nil && timedOut && len(res.Schedule) == 0:
		return runOutcome{err: fmt.Errorf("timeout %s before any schedule: %w", r.PerRunTimeout, err)}
	case err != nil && timedOut:
		// Таймаут запуска: лучшее найденное решение засчитывается.
		r.Log.Debug().Str("algo", algo.Name).Int("run", i).Msg("запуск остановлен по таймауту")
	case err != nil:
		return runOutcome{err: fmt.Errorf("solve error: %w", err)}
	}

	ms, err := jobshop.Evaluate(inst, res.Schedule)
	if err != nil {
		return runOutcome{err: fmt.Errorf("invalid schedule: %w", err)}
	}
	if ms != res.Makespan {
		return runOutcome{err: fmt.Errorf("makespan mismatch: reported %d, evaluated %d", res.Makespan, ms)}
	}
	return runOutcome{res: res, dur: dur}
}
