package jobshop

// Schedule - порядок выполнения операций (перестановка всех операций экземпляра).
type Schedule []Operation

func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// Flatten возвращает расписание "работа за работой" - всегда допустимое.
func (inst *Instance) Flatten() Schedule {
	out := make(Schedule, 0, inst.NumOperations())
	for _, job := range inst.Jobs {
		out = append(out, job...)
	}
	return out
}

// FromJobSequence декодирует операционное кодирование (перестановку с повторениями):
// k-е вхождение работы j соответствует операции j с индексом k.
// Результат всегда соблюдает порядок предшествования.
func (inst *Instance) FromJobSequence(seq []int, out Schedule) Schedule {
	out = out[:0]
	next := make([]int, len(inst.Jobs))
	for _, j := range seq {
		out = append(out, inst.Jobs[j][next[j]])
		next[j]++
	}
	return out
}

// JobSequence - обратное к FromJobSequence преобразование.
func (s Schedule) JobSequence() []int {
	seq := make([]int, len(s))
	for i, op := range s {
		seq[i] = op.Job
	}
	return seq
}

// MachineSequences проецирует расписание на последовательности операций по машинам.
func (s Schedule) MachineSequences(machines int) [][]Operation {
	seqs := make([][]Operation, machines)
	for _, op := range s {
		seqs[op.Machine] = append(seqs[op.Machine], op)
	}
	return seqs
}
