package jobshop

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Benchmark - экземпляр из файла Тайярда вместе с известными границами.
type Benchmark struct {
	Instance   *Instance
	UpperBound int // 0, если не указана
	LowerBound int
}

// Ограничения размеров из заголовка: проверяются до выделения матриц.
const (
	maxTaillardDim = 10_000
	maxTaillardOps = 1_000_000
)

// LoadTaillardFile читает все экземпляры из файла в формате Тайярда.
func LoadTaillardFile(path string) ([]Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bs, err := LoadTaillard(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bs, nil
}

// LoadTaillard разбирает блоки вида
//
//	Nb of jobs, Nb of Machines, Time seed, Machine seed, Upper bound, Lower bound
//	 15 15 840612802 398197754 1231 1005
//	Times
//	 <jobs строк по machines чисел>
//	Machines
//	 <jobs строк по machines чисел, машины нумеруются с 1>
func LoadTaillard(r io.Reader) ([]Benchmark, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	nextLine := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}
	readMatrix := func(rows, cols int) ([][]int, error) {
		out := make([][]int, rows)
		for i := range out {
			s, ok := nextLine()
			if !ok {
				return nil, fmt.Errorf("строка %d: неожиданный конец файла", line)
			}
			row, err := atoiFields(s)
			if err != nil {
				return nil, fmt.Errorf("строка %d: %w", line, err)
			}
			if len(row) != cols {
				return nil, fmt.Errorf("строка %d: ожидается %d чисел (получено %d)", line, cols, len(row))
			}
			out[i] = row
		}
		return out, nil
	}
	expectHeader := func(name string) error {
		s, ok := nextLine()
		if !ok {
			return fmt.Errorf("строка %d: ожидается %q, конец файла", line, name)
		}
		if !strings.HasPrefix(s, name) {
			return fmt.Errorf("строка %d: ожидается %q (получено %q)", line, name, s)
		}
		return nil
	}

	var out []Benchmark
	for {
		s, ok := nextLine()
		if !ok {
			break
		}
		if !strings.HasPrefix(s, "Nb of jobs") {
			continue
		}

		s, ok = nextLine()
		if !ok {
			return nil, fmt.Errorf("строка %d: нет размеров экземпляра", line)
		}
		head, err := atoiFields(s)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", line, err)
		}
		if len(head) < 2 {
			return nil, fmt.Errorf("строка %d: ожидается как минимум число работ и машин", line)
		}
		jobs, machines := head[0], head[1]
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("строка %d: число работ и машин должно быть > 0", line)
		}
		if jobs > maxTaillardDim || machines > maxTaillardDim || jobs*machines > maxTaillardOps {
			return nil, fmt.Errorf("строка %d: экземпляр %dx%d слишком велик (не более %d по измерению и %d операций)",
				line, jobs, machines, maxTaillardDim, maxTaillardOps)
		}
		b := Benchmark{}
		if len(head) >= 6 {
			b.UpperBound, b.LowerBound = head[4], head[5]
		}

		if err := expectHeader("Times"); err != nil {
			return nil, err
		}
		times, err := readMatrix(jobs, machines)
		if err != nil {
			return nil, err
		}
		if err := expectHeader("Machines"); err != nil {
			return nil, err
		}
		ms, err := readMatrix(jobs, machines)
		if err != nil {
			return nil, err
		}
		for _, row := range ms {
			for k := range row {
				row[k]--
			}
		}

		inst, err := FromTables(times, ms)
		if err != nil {
			return nil, fmt.Errorf("экземпляр %d: %w", len(out), err)
		}
		b.Instance = inst
		out = append(out, b)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func atoiFields(s string) ([]int, error) {
	fs := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == ',' })
	out := make([]int, len(fs))
	for i, f := range fs {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
