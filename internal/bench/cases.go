package bench

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"jobShop/internal/jobshop"
)

// RandomCase генерирует экземпляр jobs x machines с длительностями
// в [minTime, maxTime]; одинаковый сид даёт одинаковый экземпляр.
func RandomCase(jobs, machines, minTime, maxTime int, seed int64) Case {
	inst := jobshop.RandomInstance(jobs, machines, minTime, maxTime, rand.New(rand.NewSource(seed)))
	return Case{
		Name:     fmt.Sprintf("rand-%dx%d-s%d", jobs, machines, seed),
		Instance: inst,
	}
}

// ParsePairs разбирает список вида "20x5,50x10" в случайные экземпляры.
// Сид экземпляра зависит от позиции и размеров пары.
func ParsePairs(pairs []string, minTime, maxTime int, baseInstanceSeed int64) ([]Case, error) {
	cases := make([]Case, 0, len(pairs))
	for i, p := range pairs {
		jm := strings.Split(strings.TrimSpace(p), "x")
		if len(jm) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 50x10", p)
		}
		jobs, err := strconv.Atoi(strings.TrimSpace(jm[0]))
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		machines, err := strconv.Atoi(strings.TrimSpace(jm[1]))
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества машин: %w", p, err)
		}
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("пара %q: количество работ и машин должно быть > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(machines)
		cases = append(cases, RandomCase(jobs, machines, minTime, maxTime, seed))
	}
	return cases, nil
}

// TaillardCases загружает все экземпляры из файлов; имя - файл и номер блока.
func TaillardCases(paths []string) ([]Case, error) {
	var cases []Case
	for _, path := range paths {
		bms, err := jobshop.LoadTaillardFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i, b := range bms {
			name := base
			if len(bms) > 1 {
				name = fmt.Sprintf("%s#%d", base, i+1)
			}
			cases = append(cases, Case{
				Name:       name,
				Instance:   b.Instance,
				UpperBound: b.UpperBound,
				LowerBound: b.LowerBound,
			})
		}
	}
	return cases, nil
}
