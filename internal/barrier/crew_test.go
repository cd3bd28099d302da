package barrier_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobShop/internal/barrier"
)

func TestCrewRunsEveryWorkerOncePerStep(t *testing.T) {
	chk := require.New(t)
	const workers, iterations = 8, 50

	var (
		mu   sync.Mutex
		seen = make([][]int, iterations)
	)
	iter := 0
	crew := barrier.Start(workers, func(w int) error {
		// iter меняется только координатором между шагами.
		mu.Lock()
		seen[iter] = append(seen[iter], w)
		mu.Unlock()
		return nil
	})

	for iter = 0; iter < iterations; iter++ {
		chk.NoError(crew.Step())
		mu.Lock()
		chk.Len(seen[iter], workers, "iteration %d", iter)
		mu.Unlock()
	}
	chk.NoError(crew.Close())

	for i, ws := range seen {
		chk.ElementsMatch([]int{0, 1, 2, 3, 4, 5, 6, 7}, ws, "iteration %d", i)
	}
}

func TestCrewFence(t *testing.T) {
	chk := require.New(t)
	const workers = 6

	var inFlight, maxInFlight, completed atomic.Int64
	crew := barrier.Start(workers, func(int) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		completed.Add(1)
		return nil
	})
	defer crew.Close()

	for i := 1; i <= 20; i++ {
		chk.NoError(crew.Step())
		// После Step все шаги итерации завершены, ни один не начат заново.
		chk.Equal(int64(0), inFlight.Load())
		chk.Equal(int64(i*workers), completed.Load())
	}
	chk.LessOrEqual(maxInFlight.Load(), int64(workers))
}

func TestCrewSurfacesPanic(t *testing.T) {
	chk := require.New(t)

	var calls atomic.Int64
	crew := barrier.Start(4, func(w int) error {
		if calls.Add(1) == 2 {
			panic("boom")
		}
		return nil
	})

	err := crew.Step()
	chk.Error(err)
	var pe *barrier.PanicError
	chk.True(errors.As(err, &pe))
	chk.Equal("boom", pe.Value)
	chk.NotEmpty(pe.Stack)

	// Воркер, запаниковавший на прошлом шаге, жив и отрабатывает следующий.
	chk.NoError(crew.Step())
	chk.Equal(int64(8), calls.Load())
	chk.NoError(crew.Close())
}

func TestCrewJoinsStepErrors(t *testing.T) {
	errOdd := errors.New("odd worker")
	crew := barrier.Start(4, func(w int) error {
		if w%2 == 1 {
			return errOdd
		}
		return nil
	})
	defer crew.Close()

	err := crew.Step()
	require.ErrorIs(t, err, errOdd)
}

func TestCrewCloseReleasesParkedWorkers(t *testing.T) {
	crew := barrier.Start(16, func(int) error { return nil })
	require.NoError(t, crew.Step())

	done := make(chan error, 1)
	go func() { done <- crew.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return: workers still parked")
	}

	require.ErrorIs(t, crew.Step(), barrier.ErrClosed)
	require.NoError(t, crew.Close())
}

func TestCrewCloseWithoutSteps(t *testing.T) {
	var calls atomic.Int64
	crew := barrier.Start(3, func(int) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, crew.Close())
	require.Equal(t, int64(0), calls.Load())
}

func TestBarrierRejectsZeroParties(t *testing.T) {
	require.Panics(t, func() { barrier.New(0) })
}
