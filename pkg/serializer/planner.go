package serializer

import (
	"github.com/Sokol111/eventsink/pkg/mutation"
	"github.com/samber/lo"
)

// PlanPuts fans pairs out into one put per entry under rowKey, all at ts.
// Order follows map iteration and carries no meaning.
func PlanPuts(table, cf, rowKey []byte, pairs map[string]string, ts int64) []mutation.Put {
	return lo.MapToSlice(pairs, func(k, v string) mutation.Put {
		return mutation.Put{
			Table:     table,
			RowKey:    rowKey,
			Family:    cf,
			Qualifier: []byte(k),
			Value:     []byte(v),
			Timestamp: ts,
		}
	})
}

// PlanIncrements returns the global event counter increment, or nothing when
// no increment column is configured.
func PlanIncrements(table, cf []byte, conf Config) []mutation.Increment {
	if !conf.HasIncrement() {
		return []mutation.Increment{}
	}
	return []mutation.Increment{{
		Table:     table,
		RowKey:    conf.IncrementRow,
		Family:    cf,
		Qualifier: conf.IncrementColumn,
		Amount:    1,
	}}
}
