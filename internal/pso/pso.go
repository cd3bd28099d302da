package pso

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"jobShop/internal/barrier"
	"jobShop/internal/decode"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

// Solver - структура реализации алгоритма роя частиц
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log zerolog.Logger
}

// New возвращает новый PSO-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng, Log: zerolog.Nop()}, nil
}

// Solve запускает рой с заданной конфигурацией и генератором.
func Solve(ctx context.Context, inst *jobshop.Instance, cfg Config, rng *rand.Rand) (opt.Result, error) {
	s, err := New(cfg, rng)
	if err != nil {
		return opt.Result{}, err
	}
	return s.Solve(ctx, inst)
}

// run - состояние одного запуска.
type run struct {
	cfg   Config
	ps    []*particle
	best  *swarmBest
	evals int
	hist  []int
}

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	start := time.Now()

	// Валидация конфигурации
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	cfg := s.Cfg
	n := inst.NumOperations()

	// Инициализация частиц; сиды частиц берутся из генератора запуска
	r := &run{
		cfg:  cfg,
		ps:   make([]*particle, cfg.Particles),
		best: &swarmBest{pos: make([]float64, n), cost: math.MaxInt, iter: -1},
		hist: make([]int, 0, cfg.Iterations),
	}
	for i := range r.ps {
		p, err := newParticle(inst, cfg, s.Rng.Int63())
		if err != nil {
			return opt.Result{}, err
		}
		r.ps[i] = p
		r.best.offer(-1, i, p.pBestPos, p.pBestCost)
	}
	r.evals = cfg.Particles

	s.Log.Debug().
		Int("jobs", inst.NumJobs()).
		Int("machines", inst.Machines).
		Int("particles", cfg.Particles).
		Bool("parallel", cfg.Parallel).
		Int("initial_best", r.best.makespan()).
		Msg("PSO: рой инициализирован")

	var err error
	if cfg.Parallel {
		err = s.runParallel(ctx, r)
	} else {
		err = s.runSequential(ctx, r)
	}

	res, decErr := r.result(inst, start)
	if decErr != nil {
		return opt.Result{}, decErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Stopped = opt.StoppedContext
			res.Meta["stopped"] = opt.StoppedContext
			return res, ctxErr
		}
		return res, err
	}
	return res, nil
}

// runSequential - эталонный вариант: частицы обновляются по очереди
// и видят улучшения gBest, сделанные предыдущими частицами этой же итерации.
func (s *Solver) runSequential(ctx context.Context, r *run) error {
	progress := rate.Sometimes{Interval: time.Second}
	for iter := 0; iter < r.cfg.Iterations; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, p := range r.ps {
			cost := p.step(r.cfg, r.best.pos)
			r.best.offer(iter, i, p.pos, cost)
		}
		r.evals += len(r.ps)
		r.hist = append(r.hist, r.best.cost)
		s.logProgress(&progress, iter, r.best.cost)
	}
	return nil
}

// runParallel - по одному постоянному воркеру на частицу.
// Перед каждой итерацией координатор снимает копию gBest, и все воркеры
// итерации k видят gBest ровно на конец итерации k-1.
func (s *Solver) runParallel(ctx context.Context, r *run) (err error) {
	gBest := make([]float64, len(r.best.pos))
	iter := 0

	crew := barrier.Start(len(r.ps), func(w int) error {
		p := r.ps[w]
		cost := p.step(r.cfg, gBest)
		r.best.offer(iter, w, p.pos, cost)
		return nil
	})
	defer func() {
		if cerr := crew.Close(); err == nil {
			err = cerr
		}
	}()

	progress := rate.Sometimes{Interval: time.Second}
	for iter = 0; iter < r.cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.best.snapshot(gBest)
		if err := crew.Step(); err != nil {
			return fmt.Errorf("PSO: итерация %d: %w", iter, err)
		}
		r.evals += len(r.ps)
		cost := r.best.makespan()
		r.hist = append(r.hist, cost)
		s.logProgress(&progress, iter, cost)
	}
	return nil
}

func (s *Solver) logProgress(progress *rate.Sometimes, iter, best int) {
	progress.Do(func() {
		s.Log.Debug().Int("iter", iter).Int("best", best).Msg("PSO: прогресс")
	})
}

// result декодирует gBest в итоговое расписание.
func (r *run) result(inst *jobshop.Instance, start time.Time) (opt.Result, error) {
	pos := make([]float64, len(r.best.pos))
	cost := r.best.snapshot(pos)
	sched, err := decode.Decode(inst, pos, r.cfg.Delta)
	if err != nil {
		return opt.Result{}, err
	}
	return opt.Result{
		Schedule:    sched,
		Makespan:    cost,
		Evaluations: r.evals,
		Iterations:  len(r.hist),
		Duration:    time.Since(start),
		History:     r.hist,
		Meta: map[string]any{
			"particles": r.cfg.Particles,
			"w":         r.cfg.W,
			"c1":        r.cfg.C1,
			"c2":        r.cfg.C2,
			"vmax":      r.cfg.VMax,
			"delta":     r.cfg.Delta,
			"parallel":  r.cfg.Parallel,
		},
	}, nil
}
