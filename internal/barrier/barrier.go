// Package barrier содержит многоразовый барьер итераций
// и группу постоянных воркеров поверх него.
//
// Координатор на каждой итерации отпускает всех воркеров (Release)
// и ждёт, пока каждый отметится (Wait). Между итерациями воркеры
// спят в Park и не потребляют CPU. Итерация k+1 не начнётся,
// пока все воркеры не завершили итерацию k.
package barrier

import "sync"

type Barrier struct {
	mu      sync.Mutex
	release *sync.Cond // воркеры ждут новое поколение
	done    *sync.Cond // координатор ждёт pending == 0

	parties int
	gen     uint64
	pending int
	stopped bool
}

func New(parties int) *Barrier {
	if parties <= 0 {
		panic("barrier: parties must be > 0")
	}
	b := &Barrier{parties: parties}
	b.release = sync.NewCond(&b.mu)
	b.done = sync.NewCond(&b.mu)
	return b
}

func (b *Barrier) Parties() int { return b.parties }

// Release открывает новое поколение для всех воркеров.
// Вызывается только координатором после Wait предыдущего поколения.
func (b *Barrier) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.pending != 0 {
		panic("barrier: Release before previous generation completed")
	}
	b.gen++
	b.pending = b.parties
	b.release.Broadcast()
}

// Wait блокирует координатора, пока все воркеры не вызовут Arrive.
func (b *Barrier) Wait() {
	b.mu.Lock()
	for b.pending > 0 {
		b.done.Wait()
	}
	b.mu.Unlock()
}

// Park блокирует воркера до поколения новее seen.
// ok == false означает остановку: воркер должен завершиться.
func (b *Barrier) Park(seen uint64) (gen uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.gen == seen && !b.stopped {
		b.release.Wait()
	}
	if b.stopped {
		return b.gen, false
	}
	return b.gen, true
}

// Arrive отмечает завершение шага воркером; последний будит координатора.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	b.pending--
	if b.pending == 0 {
		b.done.Signal()
	}
	b.mu.Unlock()
}

// Shutdown выставляет флаг остановки и будит всех спящих воркеров.
func (b *Barrier) Shutdown() {
	b.mu.Lock()
	b.stopped = true
	b.release.Broadcast()
	b.mu.Unlock()
}
