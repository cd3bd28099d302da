// Package bnb - точный поиск в глубину с отсечением по частичной оценке.
// Подходит только для небольших экземпляров: число узлов растёт
// экспоненциально, поэтому поиск ограничивается бюджетом времени и узлов.
package bnb

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

// Solver - структура реализации метода ветвей и границ
type Solver struct {
	Cfg Config
	Log zerolog.Logger
}

// New возвращает новый солвер с валидацией конфигурации.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg, Log: zerolog.Nop()}, nil
}

// Solve запускает поиск с бюджетом времени timeBudget (0 - без ограничения).
func Solve(ctx context.Context, inst *jobshop.Instance, timeBudget time.Duration) (opt.Result, error) {
	cfg := DefaultConfig()
	cfg.TimeBudget = timeBudget
	s, err := New(cfg)
	if err != nil {
		return opt.Result{}, err
	}
	return s.Solve(ctx, inst)
}

type search struct {
	ctx      context.Context
	cfg      Config
	front    *jobshop.Frontier
	jobs     int
	total    int
	deadline time.Time

	best      int
	bestSched jobshop.Schedule

	nodes    int
	leaves   int
	stopped  string
	progress rate.Sometimes
	log      zerolog.Logger
}

// Solve - полный перебор префиксов в порядке номеров работ.
// Потомок отсекается, если его частичная оценка не меньше рекорда.
func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	sr := &search{
		ctx:      ctx,
		cfg:      s.Cfg,
		front:    jobshop.NewFrontier(inst),
		jobs:     inst.NumJobs(),
		total:    inst.NumOperations(),
		best:     math.MaxInt,
		progress: rate.Sometimes{Interval: time.Second},
		log:      s.Log,
	}
	if s.Cfg.TimeBudget > 0 {
		sr.deadline = start.Add(s.Cfg.TimeBudget)
	}

	seed := 0
	if s.Cfg.SeedUpperBound {
		sched, cost, err := dispatch.Best(inst)
		if err != nil {
			return opt.Result{}, err
		}
		sr.best, sr.bestSched, seed = cost, sched, cost
	}

	s.Log.Debug().
		Int("jobs", inst.NumJobs()).
		Int("machines", inst.Machines).
		Int("seed", seed).
		Msg("BnB: старт поиска")

	sr.dfs()

	// Бюджет исчерпан раньше, чем найден хотя бы один лист:
	// возвращаем расписание правила диспетчеризации.
	if sr.bestSched == nil {
		sched, cost, err := dispatch.Best(inst)
		if err != nil {
			return opt.Result{}, err
		}
		sr.best, sr.bestSched = cost, sched
	}

	res := opt.Result{
		Schedule:    sr.bestSched,
		Makespan:    sr.best,
		Evaluations: sr.leaves,
		Iterations:  sr.nodes,
		Duration:    time.Since(start),
		Optimal:     sr.stopped == "",
		Stopped:     sr.stopped,
		Meta: map[string]any{
			"nodes":  sr.nodes,
			"leaves": sr.leaves,
			"seed":   seed,
		},
	}
	if sr.stopped != "" {
		res.Meta["stopped"] = sr.stopped
	}

	s.Log.Debug().
		Int("makespan", res.Makespan).
		Int("nodes", sr.nodes).
		Bool("optimal", res.Optimal).
		Dur("elapsed", res.Duration).
		Msg("BnB: поиск завершён")

	if sr.stopped == opt.StoppedContext {
		return res, ctx.Err()
	}
	return res, nil
}

// exhausted проверяет бюджеты между раскрытиями узлов.
func (sr *search) exhausted() bool {
	switch {
	case sr.ctx.Err() != nil:
		sr.stopped = opt.StoppedContext
	case !sr.deadline.IsZero() && !time.Now().Before(sr.deadline):
		sr.stopped = opt.StoppedTime
	case sr.cfg.NodeBudget > 0 && sr.nodes >= sr.cfg.NodeBudget:
		sr.stopped = opt.StoppedNodes
	}
	return sr.stopped != ""
}

func (sr *search) dfs() {
	if sr.front.Len() == sr.total {
		// Граница полного префикса равна его makespan,
		// а родитель уже проверил, что она меньше рекорда.
		sr.leaves++
		sr.best = sr.front.Makespan()
		sr.bestSched = sr.front.Prefix()
		return
	}
	if sr.exhausted() {
		return
	}
	sr.nodes++
	sr.progress.Do(func() {
		sr.log.Debug().Int("nodes", sr.nodes).Int("best", sr.best).Msg("BnB: прогресс")
	})

	for j := 0; j < sr.jobs; j++ {
		if _, ok := sr.front.Next(j); !ok {
			continue
		}
		if bound := sr.front.Push(j); bound < sr.best {
			sr.dfs()
		}
		sr.front.Pop()
		if sr.stopped != "" {
			return
		}
	}
}
