package pso

import (
	"math/rand"
	"sync"

	"jobShop/internal/decode"
	"jobShop/internal/jobshop"
)

// particle описывает одну частицу роя.
// Состояние частицы меняет только её воркер.
type particle struct {
	// pos - позиция частицы (вектор приоритетов операций)
	pos []float64
	// vel - скорость частицы
	vel []float64

	// pBestPos - лучшая позиция частицы за всё время
	pBestPos []float64
	// pBestCost - makespan в pBestPos
	pBestCost int

	// Собственный поток случайных чисел: результат не зависит
	// от порядка выполнения воркеров.
	rng *rand.Rand

	// Вспомогательные буферы
	dec   *decode.Decoder
	eval  *jobshop.Evaluator
	sched jobshop.Schedule
}

func newParticle(inst *jobshop.Instance, c Config, seed int64) (*particle, error) {
	n := inst.NumOperations()
	dec, err := decode.New(inst, c.Delta)
	if err != nil {
		return nil, err
	}
	eval, err := jobshop.NewEvaluator(inst)
	if err != nil {
		return nil, err
	}
	p := &particle{
		pos:      make([]float64, n),
		vel:      make([]float64, n),
		pBestPos: make([]float64, n),
		rng:      rand.New(rand.NewSource(seed)),
		dec:      dec,
		eval:     eval,
		sched:    make(jobshop.Schedule, 0, n),
	}

	span := c.InitMax - c.InitMin
	for d := 0; d < n; d++ {
		p.pos[d] = c.InitMin + p.rng.Float64()*span
		p.vel[d] = c.InitMin + p.rng.Float64()*span
	}
	p.pBestCost = p.fitness()
	copy(p.pBestPos, p.pos)
	return p, nil
}

// fitness декодирует текущую позицию и возвращает makespan.
func (p *particle) fitness() int {
	sched, err := p.dec.DecodeInto(p.pos, p.sched)
	if err != nil {
		panic(err)
	}
	p.sched = sched
	return p.eval.MustMakespan(sched)
}

// step - обновление скорости и позиции относительно gBest и оценка новой позиции.
// r1 и r2 разыгрываются один раз на частицу и итерацию.
func (p *particle) step(c Config, gBest []float64) int {
	r1 := p.coeff(c)
	r2 := p.coeff(c)
	for d := range p.pos {
		v := c.W*p.vel[d] +
			c.C1*r1*(p.pBestPos[d]-p.pos[d]) +
			c.C2*r2*(gBest[d]-p.pos[d])

		// Ограничение скорости
		v = min(max(v, 0), c.VMax)
		p.vel[d] = v
		p.pos[d] += v
	}

	cost := p.fitness()
	// Обновление личного лучшего решения
	if cost < p.pBestCost {
		p.pBestCost = cost
		copy(p.pBestPos, p.pos)
	}
	return cost
}

// coeff разыгрывает случайный множитель в [RMin, RMax).
func (p *particle) coeff(c Config) float64 {
	return c.RMin + p.rng.Float64()*(c.RMax-c.RMin)
}

// swarmBest - глобально лучшее решение роя, общее для всех воркеров.
type swarmBest struct {
	mu   sync.Mutex
	pos  []float64
	cost int

	// Для детерминизма: среди улучшений одной итерации
	// с равным makespan побеждает частица с меньшим номером.
	iter int
	idx  int
}

// offer обновляет глобально лучшее решение, если cost строго лучше,
// либо равен улучшению этой же итерации от частицы с большим номером.
func (b *swarmBest) offer(iter, idx int, pos []float64, cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cost < b.cost || (cost == b.cost && iter == b.iter && idx < b.idx) {
		copy(b.pos, pos)
		b.cost = cost
		b.iter = iter
		b.idx = idx
		return true
	}
	return false
}

func (b *swarmBest) snapshot(dst []float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(dst, b.pos)
	return b.cost
}

func (b *swarmBest) makespan() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cost
}
