// Package config загружает конфигурацию бенчмарка: YAML-файл,
// поверх него переменные окружения с префиксом JSSP_, затем проверка.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	yaml "go.yaml.in/yaml/v3"

	"jobShop/internal/bnb"
	"jobShop/internal/logging"
	"jobShop/internal/pso"
	"jobShop/internal/sa"
)

const EnvPrefix = "JSSP_"

type Config struct {
	Logging logging.Config `yaml:"logging" envPrefix:"LOG_"`
	Bench   Bench          `yaml:"bench" envPrefix:"BENCH_"`
	PSO     PSO            `yaml:"pso" envPrefix:"PSO_"`
	BnB     BnB            `yaml:"bnb" envPrefix:"BNB_"`
	SA      SA             `yaml:"sa" envPrefix:"SA_"`
	Grid    Grid           `yaml:"grid" envPrefix:"GRID_"`
}

type Bench struct {
	Out        string   `yaml:"out" env:"OUT" validate:"required"`
	Algorithms []string `yaml:"algorithms" env:"ALGORITHMS" validate:"min=1,dive,oneof=PSO PSO-PAR BNB SA SPT EST EFT"`
	Runs       int      `yaml:"runs" env:"RUNS" validate:"gte=1"`
	Seed       int64    `yaml:"seed" env:"SEED"`
	// Workers - число одновременных запусков; 0 - по числу CPU.
	Workers       int           `yaml:"workers" env:"WORKERS" validate:"gte=0"`
	PerRunTimeout time.Duration `yaml:"per_run_timeout" env:"PER_RUN_TIMEOUT" validate:"gte=0"`

	// Taillard - файлы с экземплярами; Random - пары "работы x машины".
	Taillard     []string `yaml:"taillard" env:"TAILLARD" validate:"required_without=Random"`
	Random       []string `yaml:"random" env:"RANDOM" validate:"required_without=Taillard"`
	InstanceSeed int64    `yaml:"instance_seed" env:"INSTANCE_SEED"`
	MinTime      int      `yaml:"min_time" env:"MIN_TIME" validate:"gte=0"`
	MaxTime      int      `yaml:"max_time" env:"MAX_TIME" validate:"gtefield=MinTime"`
}

type PSO struct {
	Iterations int     `yaml:"iterations" env:"ITERATIONS" validate:"gte=1"`
	Particles  int     `yaml:"particles" env:"PARTICLES" validate:"gte=1"`
	W          float64 `yaml:"w" env:"W" validate:"gte=0"`
	C1         float64 `yaml:"c1" env:"C1" validate:"gte=0"`
	C2         float64 `yaml:"c2" env:"C2" validate:"gte=0"`
	VMax       float64 `yaml:"vmax" env:"VMAX" validate:"gt=0"`
	Delta      float64 `yaml:"delta" env:"DELTA" validate:"gte=0,lte=1"`
	RMin       float64 `yaml:"r_min" env:"R_MIN" validate:"gte=0"`
	RMax       float64 `yaml:"r_max" env:"R_MAX" validate:"gtfield=RMin"`
	InitMin    float64 `yaml:"init_min" env:"INIT_MIN"`
	InitMax    float64 `yaml:"init_max" env:"INIT_MAX" validate:"gtfield=InitMin"`
}

type BnB struct {
	TimeBudget     time.Duration `yaml:"time_budget" env:"TIME_BUDGET" validate:"gte=0"`
	NodeBudget     int           `yaml:"node_budget" env:"NODE_BUDGET" validate:"gte=0"`
	SeedUpperBound bool          `yaml:"seed_upper_bound" env:"SEED_UPPER_BOUND"`
}

type SA struct {
	Iterations             int     `yaml:"iterations" env:"ITERATIONS" validate:"gte=0"`
	IterationsPerOperation int     `yaml:"iterations_per_operation" env:"ITERATIONS_PER_OPERATION" validate:"gte=0"`
	InitialTemp            float64 `yaml:"initial_temp" env:"INITIAL_TEMP" validate:"gt=0"`
	FinalTemp              float64 `yaml:"final_temp" env:"FINAL_TEMP" validate:"gt=0,ltfield=InitialTemp"`
	Alpha                  float64 `yaml:"alpha" env:"ALPHA" validate:"gt=0,lt=1"`
	Neighborhood           string  `yaml:"neighborhood" env:"NEIGHBORHOOD" validate:"oneof=swap insert"`
	Start                  string  `yaml:"start" env:"START" validate:"oneof=random spt est eft"`
}

// Grid - сетка перебора коэффициентов PSO.
type Grid struct {
	Enabled bool      `yaml:"enabled" env:"ENABLED"`
	Out     string    `yaml:"out" env:"OUT" validate:"required_if=Enabled true"`
	W       []float64 `yaml:"w" env:"W" validate:"required_if=Enabled true,dive,gte=0"`
	C1      []float64 `yaml:"c1" env:"C1" validate:"required_if=Enabled true,dive,gte=0"`
	C2      []float64 `yaml:"c2" env:"C2" validate:"required_if=Enabled true,dive,gte=0"`
}

// Default собирает конфигурацию из значений по умолчанию солверов.
func Default() Config {
	p := pso.DefaultConfig()
	b := bnb.DefaultConfig()
	s := sa.DefaultConfig()
	return Config{
		Logging: logging.DefaultConfig(),
		Bench: Bench{
			Out:          "artifacts/results.csv",
			Algorithms:   []string{"PSO", "PSO-PAR", "SA", "EFT"},
			Runs:         10,
			Seed:         1000,
			Random:       []string{"6x6", "10x5", "15x10"},
			InstanceSeed: 777,
			MinTime:      1,
			MaxTime:      99,
		},
		PSO: PSO{
			Iterations: p.Iterations,
			Particles:  p.Particles,
			W:          p.W,
			C1:         p.C1,
			C2:         p.C2,
			VMax:       p.VMax,
			Delta:      p.Delta,
			RMin:       p.RMin,
			RMax:       p.RMax,
			InitMin:    p.InitMin,
			InitMax:    p.InitMax,
		},
		BnB: BnB{
			TimeBudget:     10 * time.Second,
			NodeBudget:     b.NodeBudget,
			SeedUpperBound: b.SeedUpperBound,
		},
		SA: SA{
			Iterations:             s.Iterations,
			IterationsPerOperation: s.IterationsPerOperation,
			InitialTemp:            s.InitialTemp,
			FinalTemp:              s.FinalTemp,
			Alpha:                  s.Alpha,
			Neighborhood:           string(s.Neighborhood),
			Start:                  s.Start,
		},
		Grid: Grid{
			Out: "artifacts/grid.csv",
			W:   []float64{0.2, 0.5, 0.8},
			C1:  []float64{0.5, 1.0, 1.5},
			C2:  []float64{0.5, 1.0, 1.5},
		},
	}
}

// Load читает YAML-файл (пустой путь - только значения по умолчанию),
// применяет переменные окружения и проверяет результат.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("конфигурация %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// Первая ошибка читается лучше, чем склейка всех
			return nil, fmt.Errorf("переменные окружения: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("переменные окружения: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeYAML накладывает документ поверх cfg; неизвестные ключи - ошибка.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет теги, а затем конфигурации солверов их собственными правилами.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("конфигурация: поле %s не проходит проверку %q (значение %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("конфигурация: %w", err)
	}
	if err := c.PSO.Solver(false).Validate(); err != nil {
		return fmt.Errorf("pso: %w", err)
	}
	if err := c.BnB.Solver().Validate(); err != nil {
		return fmt.Errorf("bnb: %w", err)
	}
	if err := c.SA.Solver().Validate(); err != nil {
		return fmt.Errorf("sa: %w", err)
	}
	return nil
}

func (p PSO) Solver(parallel bool) pso.Config {
	return pso.Config{
		Iterations: p.Iterations,
		Particles:  p.Particles,
		W:          p.W,
		C1:         p.C1,
		C2:         p.C2,
		VMax:       p.VMax,
		Delta:      p.Delta,
		RMin:       p.RMin,
		RMax:       p.RMax,
		InitMin:    p.InitMin,
		InitMax:    p.InitMax,
		Parallel:   parallel,
	}
}

func (b BnB) Solver() bnb.Config {
	return bnb.Config{
		TimeBudget:     b.TimeBudget,
		NodeBudget:     b.NodeBudget,
		SeedUpperBound: b.SeedUpperBound,
	}
}

func (s SA) Solver() sa.Config {
	return sa.Config{
		Iterations:             s.Iterations,
		IterationsPerOperation: s.IterationsPerOperation,
		InitialTemp:            s.InitialTemp,
		FinalTemp:              s.FinalTemp,
		Alpha:                  s.Alpha,
		Neighborhood:           sa.Neighborhood(s.Neighborhood),
		Start:                  s.Start,
	}
}
