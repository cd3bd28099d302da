package jobshop

import (
	"errors"
	"fmt"
	"math/rand"
)

// Operation - неделимая операция работы на конкретной машине.
type Operation struct {
	Job      int
	Index    int // позиция в цепочке предшествования работы, с 0
	Machine  int
	Duration int
}

// Instance описывает экземпляр задачи job-shop.
// Каждая работа содержит ровно Machines операций, упорядоченных по Index.
type Instance struct {
	Jobs     [][]Operation
	Machines int
}

func NewInstance(jobs [][]Operation, machines int) (*Instance, error) {
	inst := &Instance{Jobs: jobs, Machines: machines}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// FromTables собирает экземпляр из матриц длительностей и машин
// (строка - работа, столбец - номер операции). Номера машин с 0.
func FromTables(times, machines [][]int) (*Instance, error) {
	if len(times) != len(machines) {
		return nil, fmt.Errorf("число строк times (%d) и machines (%d) не совпадает", len(times), len(machines))
	}
	if len(times) == 0 {
		return nil, errors.New("пустой экземпляр: нет работ")
	}
	m := len(times[0])
	jobs := make([][]Operation, len(times))
	for j := range times {
		if len(times[j]) != m || len(machines[j]) != m {
			return nil, fmt.Errorf("работа %d: ожидается %d операций", j, m)
		}
		jobs[j] = make([]Operation, m)
		for k := 0; k < m; k++ {
			jobs[j][k] = Operation{Job: j, Index: k, Machine: machines[j][k], Duration: times[j][k]}
		}
	}
	return NewInstance(jobs, m)
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if len(inst.Jobs) == 0 {
		return errors.New("пустой экземпляр: нет работ")
	}
	if inst.Machines <= 0 {
		return fmt.Errorf("machines must be > 0 (got %d)", inst.Machines)
	}
	seen := make([]int, inst.Machines)
	for j, job := range inst.Jobs {
		if len(job) != inst.Machines {
			return fmt.Errorf("работа %d: ожидается %d операций (получено %d)", j, inst.Machines, len(job))
		}
		for k, op := range job {
			if op.Job != j || op.Index != k {
				return fmt.Errorf("работа %d: операция %d имеет неверные индексы (job=%d, index=%d)", j, k, op.Job, op.Index)
			}
			if op.Machine < 0 || op.Machine >= inst.Machines {
				return fmt.Errorf("работа %d: операция %d: машина %d вне диапазона [0,%d)", j, k, op.Machine, inst.Machines)
			}
			// seen[m] == j+1: машина m уже встречалась в работе j
			if seen[op.Machine] == j+1 {
				return fmt.Errorf("работа %d: операция %d: машина %d встречается повторно", j, k, op.Machine)
			}
			seen[op.Machine] = j + 1
			if op.Duration < 0 {
				return fmt.Errorf("работа %d: операция %d: длительность должна быть >= 0 (получено %d)", j, k, op.Duration)
			}
		}
	}
	return nil
}

func (inst *Instance) NumJobs() int { return len(inst.Jobs) }

// NumOperations - общее число операций jobs*machines.
func (inst *Instance) NumOperations() int { return len(inst.Jobs) * inst.Machines }

// Op возвращает операцию по плотному индексу job*machines+index.
func (inst *Instance) Op(id int) Operation {
	return inst.Jobs[id/inst.Machines][id%inst.Machines]
}

// ID - плотный индекс операции, совпадает с индексом в векторе приоритетов.
func (inst *Instance) ID(op Operation) int {
	return op.Job*inst.Machines + op.Index
}

// TotalWork - сумма длительностей всех операций, тривиальная верхняя граница makespan.
func (inst *Instance) TotalWork() int {
	total := 0
	for _, job := range inst.Jobs {
		for _, op := range job {
			total += op.Duration
		}
	}
	return total
}

// RandomInstance генерирует экземпляр, в котором каждая работа
// посещает все машины ровно один раз в случайном порядке.
func RandomInstance(jobs, machines, minTime, maxTime int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if minTime < 0 || maxTime < 0 || maxTime < minTime {
		panic("invalid time bounds")
	}
	span := maxTime - minTime + 1
	order := make([]int, machines)
	js := make([][]Operation, jobs)
	for j := range js {
		for m := range order {
			order[m] = m
		}
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

		js[j] = make([]Operation, machines)
		for k := range js[j] {
			d := minTime
			if span > 1 {
				d += rng.Intn(span)
			}
			js[j][k] = Operation{Job: j, Index: k, Machine: order[k], Duration: d}
		}
	}
	inst, err := NewInstance(js, machines)
	if err != nil {
		panic(err)
	}
	return inst
}
