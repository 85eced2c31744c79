package memory

import (
	"context"
	"sort"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type LogRepository struct {
	s *Store
}

// Upsert keeps original_price from the first insert and overwrites everything else.
func (r *LogRepository) Upsert(_ context.Context, log pricing.CalculationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.Date = daterange.Day(log.Date)
	key := logKey{unit: log.UnitID, day: log.Date}
	if existing, ok := r.s.logs[key]; ok {
		log.OriginalPrice = existing.OriginalPrice
	}
	r.s.logs[key] = copyLog(log)
	return nil
}

func (r *LogRepository) List(_ context.Context, unitID units.UnitID, filter pricing.LogFilter) ([]pricing.CalculationLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []pricing.CalculationLog{}
	for key, log := range r.s.logs {
		if key.unit != unitID {
			continue
		}
		if filter.Date != nil && !key.day.Equal(daterange.Day(*filter.Date)) {
			continue
		}
		out = append(out, copyLog(log))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CalculatedAt.After(out[j].CalculatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ pricing.LogRepository = (*LogRepository)(nil)
