// Package sa - имитация отжига на операционном кодировании:
// решение - перестановка с повторениями номеров работ, поэтому
// любой сосед сразу допустим и не требует починки.
package sa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"jobShop/internal/dispatch"
	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log zerolog.Logger
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	eval, err := jobshop.NewEvaluator(inst)
	if err != nil {
		return opt.Result{}, err
	}

	n := inst.NumOperations()
	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerOperation * n
	}

	// Текущее и кандидатное решения
	curr, err := s.initial(inst)
	if err != nil {
		return opt.Result{}, err
	}
	cand := make([]int, n)
	sched := make(jobshop.Schedule, 0, n)
	cost := func(seq []int) int {
		sched = inst.FromJobSequence(seq, sched)
		return eval.MustMakespan(sched)
	}

	currCost := cost(curr)
	bestCost := currCost
	best := make([]int, n)
	copy(best, curr)

	evals := 1
	T := s.Cfg.InitialTemp
	progress := rate.Sometimes{Interval: time.Second}

	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			res := s.result(inst, best, bestCost, evals, iter, T, start)
			res.Stopped = opt.StoppedContext
			res.Meta["stopped"] = opt.StoppedContext
			return res, err
		}

		copy(cand, curr)
		switch s.Cfg.Neighborhood {
		case NeighborhoodInsert:
			neighborInsert(cand, s.Rng)
		default:
			neighborSwap(cand, s.Rng)
		}

		candCost := cost(cand)
		evals++

		delta := candCost - currCost
		accept := delta <= 0
		if !accept {
			// Критерий Метрополиса
			accept = s.Rng.Float64() < math.Exp(-float64(delta)/T)
		}

		if accept {
			curr, cand = cand, curr
			currCost = candCost
			if currCost < bestCost {
				bestCost = currCost
				copy(best, curr)
			}
		}

		// Охлаждение
		T *= s.Cfg.Alpha

		progress.Do(func() {
			s.Log.Debug().Int("iter", iter).Int("best", bestCost).Float64("T", T).Msg("SA: прогресс")
		})
	}

	return s.result(inst, best, bestCost, evals, iter, T, start), nil
}

// initial строит начальную последовательность повторений работ.
func (s *Solver) initial(inst *jobshop.Instance) ([]int, error) {
	if s.Cfg.Start != StartRandom {
		sched, err := dispatch.Build(inst, dispatch.Rule(s.Cfg.Start))
		if err != nil {
			return nil, err
		}
		return sched.JobSequence(), nil
	}
	seq := inst.Flatten().JobSequence()
	s.Rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq, nil
}

func (s *Solver) result(inst *jobshop.Instance, best []int, cost, evals, iter int, T float64, start time.Time) opt.Result {
	return opt.Result{
		Schedule:    inst.FromJobSequence(best, nil),
		Makespan:    cost,
		Evaluations: evals,
		Iterations:  iter,
		Duration:    time.Since(start),
		Meta: map[string]any{
			"initial_temp": s.Cfg.InitialTemp,
			"final_temp":   s.Cfg.FinalTemp,
			"alpha":        s.Cfg.Alpha,
			"neighborhood": string(s.Cfg.Neighborhood),
			"start":        s.Cfg.Start,
			"T":            T,
		},
	}
}

// Формирует соседнее решение путём обмена двух случайных позиций.
// Обмен одинаковых работ не меняет решение, поэтому вторая позиция
// ищется среди позиций с другой работой.
func neighborSwap(p []int, rng *rand.Rand) {
	if len(p) < 2 {
		return
	}
	i := rng.Intn(len(p))
	j := rng.Intn(len(p) - 1)
	if j >= i {
		j++
	}
	for k := 0; k < len(p) && p[i] == p[j]; k++ {
		j = (j + 1) % len(p)
	}
	p[i], p[j] = p[j], p[i]
}

// Формирует соседнее решение путём извлечения элемента из позиции i и вставки его в позицию j.
func neighborInsert(p []int, rng *rand.Rand) {
	n := len(p)
	if n < 2 {
		return
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}

	val := p[i]
	if i < j {
		// Сдвиг элементов влево
		copy(p[i:j], p[i+1:j+1])
		p[j] = val
	} else {
		// Сдвиг элементов вправо
		copy(p[j+1:i+1], p[j:i])
		p[j] = val
	}
}
