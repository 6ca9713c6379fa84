// Package mutation defines the write descriptors produced by event serializers
// and consumed by wide-column stores.
package mutation

import "github.com/samber/lo"

// Put is an intent to write one cell.
type Put struct {
	Table     []byte
	RowKey    []byte
	Family    []byte
	Qualifier []byte
	Value     []byte
	// Timestamp is the cell version in epoch milliseconds.
	Timestamp int64
}

// Increment is an intent to atomically add Amount to a counter cell.
type Increment struct {
	Table     []byte
	RowKey    []byte
	Family    []byte
	Qualifier []byte
	Amount    int64
}

// Batch groups the descriptors of one or more events.
type Batch struct {
	Puts       []Put
	Increments []Increment
}

// Add appends descriptors to the batch.
func (b *Batch) Add(puts []Put, increments []Increment) {
	b.Puts = append(b.Puts, puts...)
	b.Increments = append(b.Increments, increments...)
}

// Len returns the total number of descriptors.
func (b Batch) Len() int {
	return len(b.Puts) + len(b.Increments)
}

// Empty reports whether the batch has nothing to write.
func (b Batch) Empty() bool {
	return b.Len() == 0
}

// Tables returns the distinct table names referenced by the batch in first-seen order.
func (b Batch) Tables() []string {
	tables := lo.Map(b.Puts, func(p Put, _ int) string { return string(p.Table) })
	tables = append(tables, lo.Map(b.Increments, func(i Increment, _ int) string { return string(i.Table) })...)
	return lo.Uniq(tables)
}

// ByTable splits the batch into one batch per table.
func (b Batch) ByTable() map[string]Batch {
	out := make(map[string]Batch)
	for _, p := range b.Puts {
		tb := out[string(p.Table)]
		tb.Puts = append(tb.Puts, p)
		out[string(p.Table)] = tb
	}
	for _, inc := range b.Increments {
		tb := out[string(inc.Table)]
		tb.Increments = append(tb.Increments, inc)
		out[string(inc.Table)] = tb
	}
	return out
}
