package barrier

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("barrier: crew closed")

// StepFunc выполняет один шаг итерации для воркера с номером worker.
type StepFunc func(worker int) error

// PanicError - паника внутри шага воркера, перехваченная и переданная координатору.
type PanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("воркер %d: паника: %v", e.Worker, e.Value)
}

// Crew - по одной постоянной горутине на участника барьера.
type Crew struct {
	b    *Barrier
	g    errgroup.Group
	step StepFunc

	mu     sync.Mutex
	errs   []error
	closed bool
}

// Start запускает n воркеров, спящих до первого Step.
func Start(n int, step StepFunc) *Crew {
	if step == nil {
		panic("barrier: step function must be non-nil")
	}
	c := &Crew{b: New(n), step: step}
	for i := 0; i < n; i++ {
		c.g.Go(func() error {
			c.work(i)
			return nil
		})
	}
	return c
}

func (c *Crew) work(worker int) {
	var seen uint64
	for {
		gen, ok := c.b.Park(seen)
		if !ok {
			return
		}
		seen = gen
		if err := c.run(worker); err != nil {
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
		}
		// Отмечаемся даже после ошибки, иначе координатор зависнет в Wait.
		c.b.Arrive()
	}
}

func (c *Crew) run(worker int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Worker: worker, Value: r, Stack: debug.Stack()}
		}
	}()
	return c.step(worker)
}

// Step выполняет одну итерацию всеми воркерами и возвращает их ошибки.
func (c *Crew) Step() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.b.Release()
	c.b.Wait()

	c.mu.Lock()
	errs := c.errs
	c.errs = nil
	c.mu.Unlock()
	return errors.Join(errs...)
}

// Close останавливает воркеров и дожидается их завершения. Повторный вызов безопасен.
func (c *Crew) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.b.Shutdown()
	return c.g.Wait()
}
