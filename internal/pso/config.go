package pso

import (
	"fmt"
	"math"
)

type Config struct {
	Iterations int
	Particles  int

	W  float64
	C1 float64
	C2 float64

	// VMax - верхняя граница скорости; скорость ограничивается отрезком [0, VMax].
	VMax float64

	// Delta - параметр окна декодера активных расписаний, [0,1].
	Delta float64

	// Случайные множители r1, r2 равномерно распределены в [RMin, RMax).
	RMin float64
	RMax float64

	// Начальные позиции и скорости равномерно распределены в [InitMin, InitMax).
	InitMin float64
	InitMax float64

	// Parallel - по одному постоянному воркеру на частицу.
	Parallel bool
}

func DefaultConfig() Config {
	return Config{
		Iterations: 500,
		Particles:  30,

		W:  0.2,
		C1: 1.0,
		C2: 1.5,

		VMax:  1.0,
		Delta: 0.5,

		RMin: 0.0,
		RMax: 5.0,

		InitMin: 0.0,
		InitMax: 5.0,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf(
			"Iterations должно быть > 0 (получено %d)",
			c.Iterations,
		)
	}
	if c.Particles <= 0 {
		return fmt.Errorf(
			"Particles должно быть > 0 (получено %d)",
			c.Particles,
		)
	}
	if c.W < 0 {
		return fmt.Errorf(
			"W должно быть >= 0 (получено %f)",
			c.W,
		)
	}
	if c.C1 < 0 || c.C2 < 0 {
		return fmt.Errorf(
			"C1 и C2 должны быть >= 0 (получено %f, %f)",
			c.C1,
			c.C2,
		)
	}
	if !(c.VMax > 0) {
		return fmt.Errorf(
			"VMax должно быть > 0 (получено %f)",
			c.VMax,
		)
	}
	if math.IsNaN(c.Delta) || c.Delta < 0 || c.Delta > 1 {
		return fmt.Errorf(
			"Delta должно лежать в [0,1] (получено %f)",
			c.Delta,
		)
	}
	if !(c.RMin >= 0 && c.RMin < c.RMax) {
		return fmt.Errorf(
			"должно выполняться 0 <= RMin < RMax (получено %f, %f)",
			c.RMin,
			c.RMax,
		)
	}
	if !(c.InitMin < c.InitMax) {
		return fmt.Errorf(
			"InitMin должно быть < InitMax (получено %f >= %f)",
			c.InitMin,
			c.InitMax,
		)
	}
	return nil
}
