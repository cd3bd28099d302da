package opt

import (
	"context"
	"time"

	"jobShop/internal/jobshop"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *jobshop.Instance) (Result, error)
}

// Причины досрочной остановки.
const (
	StoppedContext = "context"
	StoppedTime    = "time"
	StoppedNodes   = "nodes"
)

type Result struct {
	Schedule    jobshop.Schedule
	Makespan    int
	Evaluations int
	Iterations  int
	Duration    time.Duration

	// Optimal - оптимальность доказана (только точный поиск, отработавший до конца).
	Optimal bool
	// Stopped - причина остановки по бюджету; пусто, если поиск завершился сам.
	Stopped string
	// History - лучший makespan после каждой итерации (метаэвристики).
	History []int

	Meta map[string]any
}
