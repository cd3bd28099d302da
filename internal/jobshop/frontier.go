package jobshop

// Frontier - инкрементальное состояние частичного расписания:
// готовность машин и работ, курсоры работ и текущий makespan префикса.
// Push/Pop работают за O(1), поэтому граница потомка в поиске
// с возвратом считается без повторной симуляции всего префикса.
type Frontier struct {
	inst         *Instance
	machineReady []int
	jobReady     []int
	next         []int
	makespan     int

	undo []frontierStep
}

type frontierStep struct {
	op           Operation
	machineReady int
	jobReady     int
	makespan     int
}

func NewFrontier(inst *Instance) *Frontier {
	return &Frontier{
		inst:         inst,
		machineReady: make([]int, inst.Machines),
		jobReady:     make([]int, len(inst.Jobs)),
		next:         make([]int, len(inst.Jobs)),
		undo:         make([]frontierStep, 0, inst.NumOperations()),
	}
}

// Next возвращает следующую незапланированную операцию работы.
func (f *Frontier) Next(job int) (Operation, bool) {
	k := f.next[job]
	if k >= f.inst.Machines {
		return Operation{}, false
	}
	return f.inst.Jobs[job][k], true
}

// Push добавляет следующую операцию работы и возвращает новый makespan префикса.
// Вызывающий обязан проверить наличие операции через Next.
func (f *Frontier) Push(job int) int {
	op := f.inst.Jobs[job][f.next[job]]
	f.undo = append(f.undo, frontierStep{
		op:           op,
		machineReady: f.machineReady[op.Machine],
		jobReady:     f.jobReady[job],
		makespan:     f.makespan,
	})

	finish := max(f.machineReady[op.Machine], f.jobReady[job]) + op.Duration
	f.machineReady[op.Machine] = finish
	f.jobReady[job] = finish
	f.next[job]++
	if finish > f.makespan {
		f.makespan = finish
	}
	return f.makespan
}

// Pop отменяет последний Push.
func (f *Frontier) Pop() {
	last := f.undo[len(f.undo)-1]
	f.undo = f.undo[:len(f.undo)-1]
	f.machineReady[last.op.Machine] = last.machineReady
	f.jobReady[last.op.Job] = last.jobReady
	f.next[last.op.Job]--
	f.makespan = last.makespan
}

func (f *Frontier) Makespan() int { return f.makespan }

func (f *Frontier) Len() int { return len(f.undo) }

// Prefix возвращает копию текущего префикса.
func (f *Frontier) Prefix() Schedule {
	out := make(Schedule, len(f.undo))
	for i, st := range f.undo {
		out[i] = st.op
	}
	return out
}
