package sa

import (
	"fmt"

	"jobShop/internal/dispatch"
)

// Тип окрестности
type Neighborhood string

const (
	NeighborhoodSwap   Neighborhood = "swap"
	NeighborhoodInsert Neighborhood = "insert"
)

// StartRandom - случайная начальная последовательность.
const StartRandom = "random"

type Config struct {
	Iterations             int
	IterationsPerOperation int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood Neighborhood

	// Start - начальное решение: StartRandom или имя правила диспетчеризации.
	Start string
}

func DefaultConfig() Config {
	return Config{
		Iterations:             0,
		IterationsPerOperation: 200,

		InitialTemp: 50.0,
		FinalTemp:   0.1,
		Alpha:       0.9995,

		Neighborhood: NeighborhoodInsert,
		Start:        StartRandom,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerOperation <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerOperation > 0",
		)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodSwap, NeighborhoodInsert:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	if c.Start != StartRandom {
		if err := dispatch.Rule(c.Start).Validate(); err != nil {
			return fmt.Errorf("Start: %w", err)
		}
	}
	return nil
}
