package bnb

import (
	"fmt"
	"time"
)

type Config struct {
	// TimeBudget - ограничение по времени работы; 0 - без ограничения.
	TimeBudget time.Duration
	// NodeBudget - ограничение по числу раскрытых узлов; 0 - без ограничения.
	NodeBudget int

	// SeedUpperBound - начальный рекорд из лучшего правила диспетчеризации.
	SeedUpperBound bool
}

func DefaultConfig() Config {
	return Config{
		TimeBudget:     0,
		NodeBudget:     0,
		SeedUpperBound: true,
	}
}

func (c Config) Validate() error {
	if c.TimeBudget < 0 {
		return fmt.Errorf(
			"TimeBudget должно быть >= 0 (получено %s)",
			c.TimeBudget,
		)
	}
	if c.NodeBudget < 0 {
		return fmt.Errorf(
			"NodeBudget должно быть >= 0 (получено %d)",
			c.NodeBudget,
		)
	}
	return nil
}
