package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"jobShop/internal/bench"
	"jobShop/internal/bnb"
	"jobShop/internal/config"
	"jobShop/internal/dispatch"
	"jobShop/internal/logging"
	"jobShop/internal/opt"
	"jobShop/internal/pso"
	"jobShop/internal/sa"
)

// Фабрики

func newPSOFactory(cfg pso.Config, log zerolog.Logger) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		solver, err := pso.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		solver.Log = log
		return solver, nil
	}
}

func newSAFactory(cfg sa.Config, log zerolog.Logger) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		solver, err := sa.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		solver.Log = log
		return solver, nil
	}
}

// Точный поиск детерминирован, сид не используется.
func newBnBFactory(cfg bnb.Config, log zerolog.Logger) func(seed int64) (opt.Optimizer, error) {
	return func(int64) (opt.Optimizer, error) {
		solver, err := bnb.New(cfg)
		if err != nil {
			return nil, err
		}
		solver.Log = log
		return solver, nil
	}
}

func newDispatchFactory(rule dispatch.Rule) func(seed int64) (opt.Optimizer, error) {
	return func(int64) (opt.Optimizer, error) {
		return dispatch.New(rule)
	}
}

func main() {
	var (
		cfgPath = flag.String("config", "", "путь к YAML-файлу конфигурации (переменные окружения JSSP_* имеют приоритет)")
		out     = flag.String("out", "", "путь к выходному CSV-файлу (перекрывает bench.out)")
		algos   = flag.String("algos", "", "список алгоритмов через запятую: PSO, PSO-PAR, BNB, SA, SPT, EST, EFT")
		grid    = flag.Bool("grid", false, "перебор коэффициентов PSO на первом экземпляре")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		os.Exit(2)
	}
	if *out != "" {
		cfg.Bench.Out = *out
	}
	if *algos != "" {
		cfg.Bench.Algorithms = splitCSV(strings.ToUpper(*algos))
	}
	if *grid {
		cfg.Grid.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		os.Exit(2)
	}

	log := logging.New(cfg.Logging, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("бенчмарк завершился с ошибкой")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	cases, err := loadCases(cfg.Bench)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("нет экземпляров для запуска")
	}

	runner := bench.Runner{
		Runs:          cfg.Bench.Runs,
		BaseSeed:      cfg.Bench.Seed,
		PerRunTimeout: cfg.Bench.PerRunTimeout,
		Workers:       cfg.Bench.Workers,
		Log:           log,
	}

	if cfg.Grid.Enabled {
		return runGrid(ctx, cfg, runner, cases[0], log)
	}

	solverLog := log.With().Str("component", "solver").Logger()
	available := map[string]bench.Algorithm{
		"PSO":     {Name: "PSO", Factory: newPSOFactory(cfg.PSO.Solver(false), solverLog)},
		"PSO-PAR": {Name: "PSO-PAR", Factory: newPSOFactory(cfg.PSO.Solver(true), solverLog)},
		"SA":      {Name: "SA", Factory: newSAFactory(cfg.SA.Solver(), solverLog)},
		"BNB":     {Name: "BNB", Factory: newBnBFactory(cfg.BnB.Solver(), solverLog)},
		"SPT":     {Name: "SPT", Factory: newDispatchFactory(dispatch.SPT)},
		"EST":     {Name: "EST", Factory: newDispatchFactory(dispatch.EST)},
		"EFT":     {Name: "EFT", Factory: newDispatchFactory(dispatch.EFT)},
	}

	var selected []bench.Algorithm
	for _, a := range cfg.Bench.Algorithms {
		al, ok := available[strings.ToUpper(a)]
		if !ok {
			return fmt.Errorf("алгоритм не предоставлен в программе %q; доступные: %v", a, keys(available))
		}
		selected = append(selected, al)
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			log.Info().
				Str("algo", a.Name).
				Str("instance", c.Name).
				Int("jobs", c.Instance.NumJobs()).
				Int("machines", c.Instance.Machines).
				Int("runs", runner.Runs).
				Msg("запущен алгоритм")

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				return fmt.Errorf("%s на %s: %w", a.Name, c.Name, err)
			}
			records = append(records, rec)

			ev := log.Info().
				Int("best", rec.MakespanBest).
				Float64("mean", rec.MakespanMean).
				Float64("std", rec.MakespanStd).
				Float64("time_mean_ms", rec.TimeMeanMs).
				Float64("time_std_ms", rec.TimeStdMs)
			if rec.UpperBound > 0 {
				ev = ev.Int("ub", rec.UpperBound).Float64("gap_pct", rec.GapPct)
			}
			ev.Int("optimal_runs", rec.OptimalRuns).Msg("значение целевой функции")
		}
	}

	if err := bench.WriteCSV(cfg.Bench.Out, records); err != nil {
		return fmt.Errorf("ошибка при записи в CSV: %w", err)
	}
	log.Info().Str("path", cfg.Bench.Out).Msg("результаты сохранены")
	return nil
}

func runGrid(ctx context.Context, cfg *config.Config, runner bench.Runner, c bench.Case, log zerolog.Logger) error {
	g := bench.Grid{W: cfg.Grid.W, C1: cfg.Grid.C1, C2: cfg.Grid.C2}
	log.Info().
		Str("instance", c.Name).
		Int("points", len(g.W)*len(g.C1)*len(g.C2)).
		Msg("перебор коэффициентов PSO")

	points, best, err := bench.GridSearch(ctx, runner, c, cfg.PSO.Solver(false), g)
	if err != nil {
		return err
	}
	if err := bench.WriteGridCSV(cfg.Grid.Out, points); err != nil {
		return fmt.Errorf("ошибка при записи в CSV: %w", err)
	}
	log.Info().
		Float64("w", best.W).
		Float64("c1", best.C1).
		Float64("c2", best.C2).
		Int("best", best.Record.MakespanBest).
		Float64("mean", best.Record.MakespanMean).
		Str("path", cfg.Grid.Out).
		Msg("лучшая тройка коэффициентов")
	return nil
}

func loadCases(b config.Bench) ([]bench.Case, error) {
	cases, err := bench.TaillardCases(b.Taillard)
	if err != nil {
		return nil, err
	}
	random, err := bench.ParsePairs(b.Random, b.MinTime, b.MaxTime, b.InstanceSeed)
	if err != nil {
		return nil, err
	}
	return append(cases, random...), nil
}

// helpers

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
