// Package dispatch реализует жадные правила диспетчеризации:
// на каждом шаге из следующих операций работ выбирается одна по правилу.
package dispatch

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/addrummond/heap"

	"jobShop/internal/jobshop"
	"jobShop/internal/opt"
)

type Rule string

const (
	// SPT - кратчайшая длительность операции.
	SPT Rule = "spt"
	// EST - наиболее раннее время начала.
	EST Rule = "est"
	// EFT - наиболее раннее время окончания.
	EFT Rule = "eft"
)

var Rules = []Rule{SPT, EST, EFT}

func (r Rule) Validate() error {
	switch r {
	case SPT, EST, EFT:
		return nil
	}
	return fmt.Errorf("неизвестное правило диспетчеризации %q", r)
}

// Build строит допустимое расписание по правилу.
func Build(inst *jobshop.Instance, rule Rule) (jobshop.Schedule, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	switch rule {
	case SPT:
		return buildSPT(inst), nil
	case EST:
		return buildByTime(inst, false), nil
	case EFT:
		return buildByTime(inst, true), nil
	}
	return nil, rule.Validate()
}

// Best прогоняет все правила и возвращает лучшее расписание.
func Best(inst *jobshop.Instance) (jobshop.Schedule, int, error) {
	eval, err := jobshop.NewEvaluator(inst)
	if err != nil {
		return nil, 0, err
	}
	var best jobshop.Schedule
	bestCost := math.MaxInt
	for _, r := range Rules {
		s, err := Build(inst, r)
		if err != nil {
			return nil, 0, err
		}
		if c := eval.MustMakespan(s); c < bestCost {
			best, bestCost = s, c
		}
	}
	return best, bestCost, nil
}

type sptItem struct {
	op jobshop.Operation
}

func (a *sptItem) Cmp(b *sptItem) int {
	if c := cmp.Compare(a.op.Duration, b.op.Duration); c != 0 {
		return c
	}
	return cmp.Compare(a.op.Job, b.op.Job)
}

// Длительность не зависит от уже построенной части расписания,
// поэтому кандидаты держатся в куче: после выбора операции
// в кучу добавляется следующая операция той же работы.
func buildSPT(inst *jobshop.Instance) jobshop.Schedule {
	out := make(jobshop.Schedule, 0, inst.NumOperations())
	var h heap.Heap[sptItem, heap.Min]
	for _, job := range inst.Jobs {
		heap.PushOrderable(&h, sptItem{op: job[0]})
	}
	for {
		it, ok := heap.PopOrderable(&h)
		if !ok {
			break
		}
		out = append(out, it.op)
		if k := it.op.Index + 1; k < inst.Machines {
			heap.PushOrderable(&h, sptItem{op: inst.Jobs[it.op.Job][k]})
		}
	}
	return out
}

func buildByTime(inst *jobshop.Instance, byFinish bool) jobshop.Schedule {
	n := inst.NumOperations()
	out := make(jobshop.Schedule, 0, n)
	machineReady := make([]int, inst.Machines)
	jobReady := make([]int, inst.NumJobs())
	next := make([]int, inst.NumJobs())

	for len(out) < n {
		sel, selKey := -1, math.MaxInt
		for j, job := range inst.Jobs {
			if next[j] >= inst.Machines {
				continue
			}
			op := job[next[j]]
			key := max(machineReady[op.Machine], jobReady[j])
			if byFinish {
				key += op.Duration
			}
			if key < selKey {
				sel, selKey = j, key
			}
		}
		op := inst.Jobs[sel][next[sel]]
		finish := max(machineReady[op.Machine], jobReady[sel]) + op.Duration
		machineReady[op.Machine] = finish
		jobReady[sel] = finish
		next[sel]++
		out = append(out, op)
	}
	return out
}

// Solver - правило диспетчеризации как оптимизатор для бенчмарка.
type Solver struct {
	Rule Rule
}

func New(rule Rule) (*Solver, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Rule: rule}, nil
}

func (s *Solver) Solve(ctx context.Context, inst *jobshop.Instance) (opt.Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return opt.Result{}, err
	}
	sched, err := Build(inst, s.Rule)
	if err != nil {
		return opt.Result{}, err
	}
	ms, err := jobshop.Evaluate(inst, sched)
	if err != nil {
		return opt.Result{}, err
	}
	return opt.Result{
		Schedule:    sched,
		Makespan:    ms,
		Evaluations: 1,
		Iterations:  1,
		Duration:    time.Since(start),
		Meta:        map[string]any{"rule": string(s.Rule)},
	}, nil
}
