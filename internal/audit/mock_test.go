package audit

import (
	"context"
	"sort"
	"time"
)

type memoryRepo struct {
	rows       []TimelineRow
	lastFilter TimelineFilters
	lastLimit  int
	lastOffset int
	err        error
}

func (m *memoryRepo) Window(_ context.Context, f TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = f, limit, offset
	if m.err != nil {
		return nil, m.err
	}
	matched := []TimelineRow{}
	for _, row := range m.rows {
		switch {
		case !f.From.IsZero() && row.At.Before(f.From):
		case !f.To.IsZero() && !row.At.Before(f.To):
		case f.Actor != "" && row.Actor != f.Actor:
		case f.Entity != "" && row.Entity != f.Entity:
		case f.EntityID != "" && row.EntityID != f.EntityID:
		case f.Action != "" && row.Action != f.Action:
		default:
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].At.After(matched[j].At) })
	if offset >= len(matched) {
		return []TimelineRow{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seedRows(n int) []TimelineRow {
	rows := make([]TimelineRow, 0, n)
	for i := 0; i < n; i++ {
		entity, action := "order", "ORDER_STATUS_UPDATE"
		if i%2 == 1 {
			entity, action = "discount", "DISCOUNT_REDEEM"
		}
		rows = append(rows, TimelineRow{
			ID:       int64(i + 1),
			At:       baseTime.Add(-time.Duration(i) * time.Hour),
			Actor:    "ops",
			Action:   action,
			Entity:   entity,
			EntityID: "42",
		})
	}
	return rows
}
