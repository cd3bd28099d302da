// Package decode строит активные расписания по вектору приоритетов операций.
package decode

import (
	"fmt"
	"math"

	"jobShop/internal/jobshop"
)

// Decoder - параметризованный построитель δ-активных расписаний.
// На каждом шаге среди допустимых операций (следующих в своих работах)
// рассматриваются те, что могут начаться не позже σ* + δ·(φ* − σ*),
// где σ* - минимальное время начала, φ* - минимальное время окончания;
// из них выбирается операция с наименьшим приоритетом,
// при равенстве - с наименьшим временем окончания, затем с меньшим номером работы.
//
// Decoder хранит буферы и не безопасен для конкурентного использования.
type Decoder struct {
	inst  *jobshop.Instance
	delta float64

	machineReady []int
	jobReady     []int
	next         []int
	start        []int
	finish       []int
}

func New(inst *jobshop.Instance, delta float64) (*Decoder, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(delta) || delta < 0 || delta > 1 {
		return nil, fmt.Errorf("delta должно лежать в [0,1] (получено %f)", delta)
	}
	nj := inst.NumJobs()
	return &Decoder{
		inst:         inst,
		delta:        delta,
		machineReady: make([]int, inst.Machines),
		jobReady:     make([]int, nj),
		next:         make([]int, nj),
		start:        make([]int, nj),
		finish:       make([]int, nj),
	}, nil
}

func (d *Decoder) Delta() float64 { return d.delta }

// Decode возвращает новое расписание для вектора приоритетов.
func (d *Decoder) Decode(priorities []float64) (jobshop.Schedule, error) {
	return d.DecodeInto(priorities, make(jobshop.Schedule, 0, d.inst.NumOperations()))
}

// DecodeInto записывает расписание в out (переиспользуя его ёмкость).
// Результат всегда допустим и содержит ровно jobs*machines операций.
func (d *Decoder) DecodeInto(priorities []float64, out jobshop.Schedule) (jobshop.Schedule, error) {
	inst := d.inst
	n := inst.NumOperations()
	if len(priorities) != n {
		return nil, fmt.Errorf("длина вектора приоритетов должна быть %d (получено %d)", n, len(priorities))
	}

	clear(d.machineReady)
	clear(d.jobReady)
	clear(d.next)
	out = out[:0]
	m := inst.Machines

	for step := 0; step < n; step++ {
		sigma, phi := math.MaxInt, math.MaxInt
		for j, job := range inst.Jobs {
			k := d.next[j]
			if k >= m {
				continue
			}
			op := job[k]
			s := max(d.jobReady[j], d.machineReady[op.Machine])
			f := s + op.Duration
			d.start[j], d.finish[j] = s, f
			sigma = min(sigma, s)
			phi = min(phi, f)
		}

		threshold := float64(sigma) + d.delta*float64(phi-sigma)

		sel := -1
		var selPrio float64
		for j := range inst.Jobs {
			k := d.next[j]
			if k >= m || float64(d.start[j]) > threshold {
				continue
			}
			p := priorities[j*m+k]
			if sel < 0 || p < selPrio || (p == selPrio && d.finish[j] < d.finish[sel]) {
				sel, selPrio = j, p
			}
		}

		// sel всегда найден: операция с σ* проходит порог при любом δ ≥ 0.
		op := inst.Jobs[sel][d.next[sel]]
		f := d.finish[sel]
		d.machineReady[op.Machine] = f
		d.jobReady[sel] = f
		d.next[sel]++
		out = append(out, op)
	}
	return out, nil
}

// Decode - разовое декодирование без переиспользования буферов.
func Decode(inst *jobshop.Instance, priorities []float64, delta float64) (jobshop.Schedule, error) {
	d, err := New(inst, delta)
	if err != nil {
		return nil, err
	}
	return d.Decode(priorities)
}
