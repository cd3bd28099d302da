package jobshop

import (
	"errors"
	"fmt"
)

// ErrInfeasible возвращается, если расписание нарушает порядок предшествования
// внутри работы (или не является перестановкой операций экземпляра).
var ErrInfeasible = errors.New("недопустимое расписание")

// Timing - результат симуляции расписания.
type Timing struct {
	// Start и Finish индексируются плотным индексом операции job*machines+index.
	Start  []int
	Finish []int

	MachineReady []int
	JobReady     []int
	Makespan     int
}

// Evaluator вычисляет makespan, переиспользуя внутренние буферы.
// Не безопасен для конкурентного использования: по одному на воркер.
type Evaluator struct {
	inst         *Instance
	machineReady []int
	jobReady     []int
	next         []int
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		inst:         inst,
		machineReady: make([]int, inst.Machines),
		jobReady:     make([]int, len(inst.Jobs)),
		next:         make([]int, len(inst.Jobs)),
	}, nil
}

func (e *Evaluator) reset() {
	clear(e.machineReady)
	clear(e.jobReady)
	clear(e.next)
}

// run прогоняет последовательность операций; timing может быть nil.
func (e *Evaluator) run(ops []Operation, timing *Timing) (int, error) {
	e.reset()
	makespan := 0
	for pos, op := range ops {
		j := op.Job
		if j < 0 || j >= len(e.inst.Jobs) {
			return 0, fmt.Errorf("%w: позиция %d: работа %d вне диапазона [0,%d)", ErrInfeasible, pos, j, len(e.inst.Jobs))
		}
		cursor := e.next[j]
		if cursor >= e.inst.Machines || op.Index != cursor {
			return 0, fmt.Errorf("%w: позиция %d: работа %d ожидает операцию %d (получено %d)", ErrInfeasible, pos, j, cursor, op.Index)
		}
		ref := e.inst.Jobs[j][cursor]

		start := max(e.machineReady[ref.Machine], e.jobReady[j])
		finish := start + ref.Duration
		e.machineReady[ref.Machine] = finish
		e.jobReady[j] = finish
		e.next[j]++
		if finish > makespan {
			makespan = finish
		}

		if timing != nil {
			id := e.inst.ID(ref)
			timing.Start[id] = start
			timing.Finish[id] = finish
		}
	}
	return makespan, nil
}

// Makespan вычисляет длину полного расписания за O(n).
func (e *Evaluator) Makespan(s Schedule) (int, error) {
	if e == nil || e.inst == nil {
		return 0, fmt.Errorf("nil evaluator")
	}
	if n := e.inst.NumOperations(); len(s) != n {
		return 0, fmt.Errorf("%w: длина расписания должна быть %d (получено %d)", ErrInfeasible, n, len(s))
	}
	return e.run(s, nil)
}

func (e *Evaluator) MustMakespan(s Schedule) int {
	ms, err := e.Makespan(s)
	if err != nil {
		panic(err)
	}
	return ms
}

// PartialMakespan - та же величина для незавершённого префикса.
// Не убывает при добавлении операций в конец префикса.
func (e *Evaluator) PartialMakespan(prefix []Operation) (int, error) {
	if e == nil || e.inst == nil {
		return 0, fmt.Errorf("nil evaluator")
	}
	if len(prefix) > e.inst.NumOperations() {
		return 0, fmt.Errorf("%w: префикс длиннее числа операций (%d > %d)", ErrInfeasible, len(prefix), e.inst.NumOperations())
	}
	return e.run(prefix, nil)
}

// Timing симулирует полное расписание и возвращает времена всех операций.
func (e *Evaluator) Timing(s Schedule) (Timing, error) {
	n := e.inst.NumOperations()
	if len(s) != n {
		return Timing{}, fmt.Errorf("%w: длина расписания должна быть %d (получено %d)", ErrInfeasible, n, len(s))
	}
	t := Timing{Start: make([]int, n), Finish: make([]int, n)}
	ms, err := e.run(s, &t)
	if err != nil {
		return Timing{}, err
	}
	t.Makespan = ms
	t.MachineReady = append([]int(nil), e.machineReady...)
	t.JobReady = append([]int(nil), e.jobReady...)
	return t, nil
}

// Simulate - разовая симуляция расписания без переиспользования буферов.
func Simulate(inst *Instance, s Schedule) (Timing, error) {
	e, err := NewEvaluator(inst)
	if err != nil {
		return Timing{}, err
	}
	return e.Timing(s)
}

// Evaluate возвращает makespan расписания или ErrInfeasible.
func Evaluate(inst *Instance, s Schedule) (int, error) {
	e, err := NewEvaluator(inst)
	if err != nil {
		return 0, err
	}
	return e.Makespan(s)
}

// PartialBound - makespan префикса расписания.
func PartialBound(inst *Instance, prefix []Operation) (int, error) {
	e, err := NewEvaluator(inst)
	if err != nil {
		return 0, err
	}
	return e.PartialMakespan(prefix)
}
