package jobshop

import (
	"fmt"

	"github.com/gammazero/deque"
)

// EvaluateMachineOrder строит полуактивное расписание по заданным
// последовательностям операций на каждой машине.
// Операция готова к выполнению, когда она одновременно первая
// в очереди своей машины и следующая в своей работе.
// Если порядки машин вместе с предшествованием образуют цикл,
// часть операций никогда не станет готовой - возвращается ErrInfeasible.
func EvaluateMachineOrder(inst *Instance, seqs [][]Operation) (Timing, error) {
	if err := inst.Validate(); err != nil {
		return Timing{}, err
	}
	if len(seqs) != inst.Machines {
		return Timing{}, fmt.Errorf("ожидается %d последовательностей машин (получено %d)", inst.Machines, len(seqs))
	}

	n := inst.NumOperations()
	seen := make([]bool, n)
	total := 0
	for m, seq := range seqs {
		for _, op := range seq {
			if op.Job < 0 || op.Job >= len(inst.Jobs) || op.Index < 0 || op.Index >= inst.Machines {
				return Timing{}, fmt.Errorf("%w: машина %d: операция (%d,%d) вне экземпляра", ErrInfeasible, m, op.Job, op.Index)
			}
			ref := inst.Jobs[op.Job][op.Index]
			if ref.Machine != m {
				return Timing{}, fmt.Errorf("%w: операция (%d,%d) выполняется на машине %d, а не %d", ErrInfeasible, op.Job, op.Index, ref.Machine, m)
			}
			id := inst.ID(ref)
			if seen[id] {
				return Timing{}, fmt.Errorf("%w: операция (%d,%d) повторяется", ErrInfeasible, op.Job, op.Index)
			}
			seen[id] = true
			total++
		}
	}
	if total != n {
		return Timing{}, fmt.Errorf("%w: ожидается %d операций (получено %d)", ErrInfeasible, n, total)
	}

	t := Timing{
		Start:        make([]int, n),
		Finish:       make([]int, n),
		MachineReady: make([]int, inst.Machines),
		JobReady:     make([]int, len(inst.Jobs)),
	}
	jobIdx := make([]int, len(inst.Jobs))
	machineIdx := make([]int, inst.Machines)
	queued := make([]bool, n)

	var ready deque.Deque[Operation]
	tryQueue := func(op Operation) {
		id := inst.ID(op)
		if queued[id] || jobIdx[op.Job] != op.Index {
			return
		}
		seq := seqs[op.Machine]
		if h := machineIdx[op.Machine]; h >= len(seq) || seq[h].Job != op.Job || seq[h].Index != op.Index {
			return
		}
		queued[id] = true
		ready.PushBack(inst.Jobs[op.Job][op.Index])
	}

	for _, seq := range seqs {
		if len(seq) > 0 {
			tryQueue(seq[0])
		}
	}

	done := 0
	for ready.Len() > 0 {
		op := ready.PopFront()

		start := max(t.MachineReady[op.Machine], t.JobReady[op.Job])
		finish := start + op.Duration
		t.MachineReady[op.Machine] = finish
		t.JobReady[op.Job] = finish
		id := inst.ID(op)
		t.Start[id] = start
		t.Finish[id] = finish
		if finish > t.Makespan {
			t.Makespan = finish
		}
		jobIdx[op.Job]++
		machineIdx[op.Machine]++
		done++

		// Следующая операция на той же машине и следующая операция той же работы.
		if seq := seqs[op.Machine]; machineIdx[op.Machine] < len(seq) {
			tryQueue(seq[machineIdx[op.Machine]])
		}
		if jobIdx[op.Job] < inst.Machines {
			tryQueue(inst.Jobs[op.Job][jobIdx[op.Job]])
		}
	}

	if done != n {
		return Timing{}, fmt.Errorf("%w: взаимная блокировка, выполнено %d из %d операций", ErrInfeasible, done, n)
	}
	return t, nil
}
