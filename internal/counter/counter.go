// Package counter aggregates scanned barcodes into per-product quantities.
//
// A CountMap is always enumerated in ascending lexicographic (byte) order of
// its barcodes. Reports and the balance assigner rely on that order.
package counter

import (
	"sort"
)

// Entry is one distinct barcode and the number of times it was scanned.
type Entry struct {
	Barcode  string
	Quantity int
}

// CountMap maps distinct barcodes to positive counts, in sorted key order.
// The zero value is an empty map.
type CountMap struct {
	entries []Entry
}

// Aggregate counts every occurrence of each barcode.
// Barcodes are expected to be normalized already (see validation.Parse).
func Aggregate(barcodes []string) CountMap {
	counts := make(map[string]int, len(barcodes))
	for _, b := range barcodes {
		counts[b]++
	}
	return fromCounts(counts)
}

// FromMap builds a CountMap from explicit quantities.
// Entries with a quantity below 1 are dropped.
func FromMap(m map[string]int) CountMap {
	counts := make(map[string]int, len(m))
	for k, v := range m {
		if v > 0 {
			counts[k] = v
		}
	}
	return fromCounts(counts)
}

func fromCounts(counts map[string]int) CountMap {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Barcode: k, Quantity: counts[k]}
	}
	return CountMap{entries: entries}
}

// Len returns the number of distinct barcodes.
func (c CountMap) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in key order.
func (c CountMap) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns the barcodes in key order.
func (c CountMap) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Barcode
	}
	return keys
}

// Get returns the count for a barcode.
func (c CountMap) Get(barcode string) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Barcode >= barcode
	})
	if i < len(c.entries) && c.entries[i].Barcode == barcode {
		return c.entries[i].Quantity, true
	}
	return 0, false
}

// Total returns the sum of all quantities.
func (c CountMap) Total() int {
	total := 0
	for _, e := range c.entries {
		total += e.Quantity
	}
	return total
}

// ToMap returns the counts as a plain map.
func (c CountMap) ToMap() map[string]int {
	m := make(map[string]int, len(c.entries))
	for _, e := range c.entries {
		m[e.Barcode] = e.Quantity
	}
	return m
}

// Summary holds the figures shown to the operator after counting.
type Summary struct {
	// Distinct is the number of distinct products identified.
	Distinct int

	// Total is the number of units counted.
	Total int
}

// Summarize derives the display figures for a CountMap.
func Summarize(c CountMap) Summary {
	return Summary{Distinct: c.Len(), Total: c.Total()}
}
