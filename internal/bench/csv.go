package bench

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var recordHeader = []string{
	"algo", "instance", "jobs", "machines", "runs",
	"time_best_ms", "time_mean_ms", "time_std_ms",
	"makespan_best", "makespan_mean", "makespan_std",
	"upper_bound", "gap_pct", "optimal_runs",
}

// WriteCSV записывает сводку запусков в файл, создавая каталог при необходимости.
func WriteCSV(path string, records []Record) error {
	return writeFile(path, func(w io.Writer) error { return EncodeCSV(w, records) })
}

func EncodeCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Algo,
			r.Instance,
			itoa(r.Jobs),
			itoa(r.Machines),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			itoa(r.MakespanBest),
			ftoa(r.MakespanMean),
			ftoa(r.MakespanStd),

			itoa(r.UpperBound),
			ftoa(r.GapPct),
			itoa(r.OptimalRuns),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

var gridHeader = []string{"w", "c1", "c2", "makespan_best", "makespan_mean", "makespan_std", "time_mean_ms"}

func WriteGridCSV(path string, points []GridPoint) error {
	return writeFile(path, func(w io.Writer) error { return EncodeGridCSV(w, points) })
}

func EncodeGridCSV(out io.Writer, points []GridPoint) error {
	w := csv.NewWriter(out)
	if err := w.Write(gridHeader); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			ftoa(p.W), ftoa(p.C1), ftoa(p.C2),
			itoa(p.Record.MakespanBest),
			ftoa(p.Record.MakespanMean),
			ftoa(p.Record.MakespanStd),
			ftoa(p.Record.TimeMeanMs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
